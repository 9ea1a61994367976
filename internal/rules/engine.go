// Package rules scores canonical URLs and host intel with a fixed sequence of
// explainable rules.
package rules

import (
	"fmt"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	ahocorasick "github.com/cloudflare/ahocorasick"

	"github.com/SiGentIsHere/Weblink-Shield/internal/domain"
)

// Rule weights and limits. Hits are emitted in the order these appear.
const (
	invalidURLWeight = 50

	longURLLength     = 120
	longURLWeight     = 15
	veryLongURLLength = 200
	veryLongURLWeight = 10

	manyDigits           = 20
	manyDigitsWeight     = 10
	veryManyDigits       = 40
	veryManyDigitsWeight = 10

	atSymbolWeight = 20

	manyPathSlashes = 8
	manyPathsWeight = 10

	riskyTLDWeight = 20

	noTLSWeight        = 25
	youngTLSDays       = 30
	youngTLSWeight     = 10
	veryYoungTLSDays   = 7
	veryYoungTLSWeight = 10

	youngDomainDays        = 30
	youngDomainWeight      = 15
	veryYoungDomainDays    = 7
	veryYoungDomainWeight  = 10
	noDNSWeight            = 10
	noHostIntelWeight      = 5
	expectedHitsPerScoring = 8
)

// Engine evaluates the rule sequence. It is safe for concurrent use.
type Engine struct {
	policy Policy
	tlds   map[string]struct{}

	// dictionary holds unique lowercase keywords; ruleKeyword maps each
	// policy keyword rule to its dictionary index.
	dictionary  []string
	ruleKeyword []int

	mu      sync.Mutex // guards matcher, which keeps per-call state
	matcher *ahocorasick.Matcher
}

// NewEngine validates p and prepares the keyword automaton.
func NewEngine(p Policy) (*Engine, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		policy:      p,
		tlds:        make(map[string]struct{}, len(p.RiskyTLDs)),
		ruleKeyword: make([]int, len(p.Keywords)),
	}
	for _, tld := range p.RiskyTLDs {
		e.tlds[strings.ToLower(strings.TrimPrefix(strings.TrimSpace(tld), "."))] = struct{}{}
	}

	index := make(map[string]int, len(p.Keywords))
	for i, k := range p.Keywords {
		kw := strings.ToLower(strings.TrimSpace(k.Keyword))
		idx, ok := index[kw]
		if !ok {
			idx = len(e.dictionary)
			index[kw] = idx
			e.dictionary = append(e.dictionary, kw)
		}
		e.ruleKeyword[i] = idx
	}
	if len(e.dictionary) > 0 {
		e.matcher = ahocorasick.NewStringMatcher(e.dictionary)
	}

	return e, nil
}

// MustNewEngine is NewEngine for policies known to be valid.
func MustNewEngine(p Policy) *Engine {
	e, err := NewEngine(p)
	if err != nil {
		panic(err)
	}
	return e
}

// Policy returns the policy the engine was built with.
func (e *Engine) Policy() Policy {
	return e.policy
}

// Classify applies the policy thresholds to score.
func (e *Engine) Classify(score int) (domain.VerdictStatus, domain.ClassLabel) {
	return e.policy.Thresholds.Classify(score)
}

// Score evaluates canon and intel. intel may be nil when no host signals are
// available. A blank canon short-circuits to a single invalid_url hit.
func (e *Engine) Score(canon string, intel *domain.HostIntel) (int, []domain.Hit) {
	if strings.TrimSpace(canon) == "" {
		return invalidURLWeight, []domain.Hit{{Name: "invalid_url", Weight: invalidURLWeight, Reason: "URL missing or blank"}}
	}

	s := &scorer{hits: make([]domain.Hit, 0, expectedHitsPerScoring)}

	length := utf8.RuneCountInString(canon)
	s.addIf(length > longURLLength, "long_url", longURLWeight, fmt.Sprintf("URL length > %d", longURLLength))
	s.addIf(length > veryLongURLLength, "very_long_url", veryLongURLWeight, fmt.Sprintf("URL length > %d", veryLongURLLength))

	digits := countDigits(canon)
	s.addIf(digits > manyDigits, "many_digits", manyDigitsWeight, fmt.Sprintf("Digit count > %d", manyDigits))
	s.addIf(digits > veryManyDigits, "very_many_digits", veryManyDigitsWeight, fmt.Sprintf("Digit count > %d", veryManyDigits))

	s.addIf(strings.Contains(canon, "@"), "at_symbol", atSymbolWeight, "'@' symbol present")
	for _, k := range e.matchKeywords(strings.ToLower(canon)) {
		s.add(k.Name, k.Weight, k.reason())
	}

	s.addIf(strings.Count(canon, "/") > manyPathSlashes, "many_paths", manyPathsWeight, "Many path segments")

	if intel == nil {
		s.add("no_host_intel", noHostIntelWeight, "Host intel unavailable")
		return s.total, s.hits
	}

	tld := strings.ToLower(intel.TLD)
	if _, risky := e.tlds[tld]; risky && tld != "" {
		s.add("risky_tld", riskyTLDWeight, "High-risk/free TLD: "+tld)
	}

	if intel.TLSAgeDays == nil {
		s.add("no_tls", noTLSWeight, "No TLS certificate observed")
	} else {
		age := *intel.TLSAgeDays
		s.addIf(age < youngTLSDays, "young_tls", youngTLSWeight, fmt.Sprintf("TLS cert age < %d days", youngTLSDays))
		s.addIf(age < veryYoungTLSDays, "very_young_tls", veryYoungTLSWeight, fmt.Sprintf("TLS cert age < %d days", veryYoungTLSDays))
	}

	if intel.DomainAgeDays != nil {
		age := *intel.DomainAgeDays
		s.addIf(age < youngDomainDays, "young_domain", youngDomainWeight, fmt.Sprintf("Domain age < %d days", youngDomainDays))
		s.addIf(age < veryYoungDomainDays, "very_young_domain", veryYoungDomainWeight, fmt.Sprintf("Domain age < %d days", veryYoungDomainDays))
	}

	if intel.IP == nil || strings.TrimSpace(*intel.IP) == "" {
		s.add("no_dns", noDNSWeight, "No A/AAAA record resolved")
	}

	return s.total, s.hits
}

// matchKeywords returns the keyword rules present in text, in policy order.
func (e *Engine) matchKeywords(text string) []KeywordRule {
	if e.matcher == nil {
		return nil
	}

	e.mu.Lock()
	found := e.matcher.Match([]byte(text))
	e.mu.Unlock()

	if len(found) == 0 {
		return nil
	}
	present := make(map[int]bool, len(found))
	for _, idx := range found {
		present[idx] = true
	}

	matched := make([]KeywordRule, 0, len(found))
	for i, rule := range e.policy.Keywords {
		if present[e.ruleKeyword[i]] {
			matched = append(matched, rule)
		}
	}
	return matched
}

func (k KeywordRule) reason() string {
	if k.Reason != "" {
		return k.Reason
	}
	return fmt.Sprintf("Contains '%s' keyword", k.Keyword)
}

type scorer struct {
	total int
	hits  []domain.Hit
}

func (s *scorer) add(name string, weight int, reason string) {
	s.hits = append(s.hits, domain.Hit{Name: name, Weight: weight, Reason: reason})
	s.total += weight
}

func (s *scorer) addIf(cond bool, name string, weight int, reason string) {
	if cond {
		s.add(name, weight, reason)
	}
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			n++
		}
	}
	return n
}
