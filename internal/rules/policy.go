package rules

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/SiGentIsHere/Weblink-Shield/internal/domain"
)

// KeywordRule scores a substring found anywhere in the canonical URL.
type KeywordRule struct {
	Name    string `yaml:"name"`
	Keyword string `yaml:"keyword"`
	Weight  int    `yaml:"weight"`
	Reason  string `yaml:"reason"`
}

// Thresholds map a score to a verdict. A score at or above Malicious is
// malicious, at or above Suspicious is suspicious, anything lower is safe.
type Thresholds struct {
	Malicious  int `yaml:"malicious"`
	Suspicious int `yaml:"suspicious"`
}

// Classify returns the verdict and class for score.
func (t Thresholds) Classify(score int) (domain.VerdictStatus, domain.ClassLabel) {
	switch {
	case score >= t.Malicious:
		return domain.VerdictMalicious, domain.ClassPhishing
	case score >= t.Suspicious:
		return domain.VerdictSuspicious, domain.ClassUnknown
	default:
		return domain.VerdictSafe, domain.ClassBenign
	}
}

// Policy is the tunable data behind the engine.
type Policy struct {
	RiskyTLDs  []string      `yaml:"risky_tlds"`
	Keywords   []KeywordRule `yaml:"keywords"`
	Thresholds Thresholds    `yaml:"thresholds"`
}

// DefaultPolicy returns the built-in TLD list, keyword table and thresholds.
func DefaultPolicy() Policy {
	return Policy{
		RiskyTLDs: []string{
			"tk", "ml", "ga", "cf", "gq",
			"top", "xyz", "work", "click", "country",
			"zip", "review", "loan", "kim", "men", "party",
		},
		Keywords: []KeywordRule{
			{Name: "login_keyword", Keyword: "login", Weight: 5, Reason: "Contains 'login' keyword"},
		},
		Thresholds: Thresholds{Malicious: 40, Suspicious: 20},
	}
}

// LoadPolicy reads a YAML policy file. Sections missing from the file keep
// their default values.
func LoadPolicy(path string) (Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("read policy %s: %w", path, err)
	}

	var fromFile Policy
	if err = yaml.Unmarshal(data, &fromFile); err != nil {
		return Policy{}, fmt.Errorf("parse policy %s: %w", path, err)
	}

	p := DefaultPolicy().Merge(fromFile)
	if err = p.Validate(); err != nil {
		return Policy{}, err
	}
	return p, nil
}

// Merge returns p with every non-empty section of override applied.
func (p Policy) Merge(override Policy) Policy {
	if len(override.RiskyTLDs) > 0 {
		p.RiskyTLDs = override.RiskyTLDs
	}
	if len(override.Keywords) > 0 {
		p.Keywords = override.Keywords
	}
	if override.Thresholds.Malicious > 0 {
		p.Thresholds.Malicious = override.Thresholds.Malicious
	}
	if override.Thresholds.Suspicious > 0 {
		p.Thresholds.Suspicious = override.Thresholds.Suspicious
	}
	return p
}

// Validate rejects policies that would produce meaningless scores.
func (p Policy) Validate() error {
	if p.Thresholds.Suspicious <= 0 {
		return errors.New("policy: suspicious threshold must be positive")
	}
	if p.Thresholds.Malicious <= p.Thresholds.Suspicious {
		return fmt.Errorf("policy: malicious threshold %d must exceed suspicious threshold %d",
			p.Thresholds.Malicious, p.Thresholds.Suspicious)
	}

	seen := make(map[string]struct{}, len(p.Keywords))
	for i, k := range p.Keywords {
		switch {
		case k.Name == "":
			return fmt.Errorf("policy: keyword %d has no name", i)
		case strings.TrimSpace(k.Keyword) == "":
			return fmt.Errorf("policy: keyword rule %s has an empty keyword", k.Name)
		case k.Weight <= 0:
			return fmt.Errorf("policy: keyword rule %s weight must be positive", k.Name)
		}
		if _, dup := seen[k.Name]; dup {
			return fmt.Errorf("policy: duplicate keyword rule %s", k.Name)
		}
		seen[k.Name] = struct{}{}
	}
	return nil
}
