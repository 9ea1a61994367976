// Package domain holds the types shared by the analysis pipeline.
package domain

import (
	"errors"
	"time"
)

// ErrNotFound is returned by repositories when a record does not exist.
var ErrNotFound = errors.New("not found")

// URL is a canonical URL row. Canonical is unique.
type URL struct {
	ID        int64     `db:"id"         json:"id"`
	Canonical string    `db:"url_canon"  json:"url"`
	FirstSeen time.Time `db:"first_seen" json:"first_seen"`
}

// HostIntel is what the collector observed about a host. Nil pointers mean
// the signal could not be observed.
type HostIntel struct {
	URLID         int64     `db:"url_id"          json:"url_id,omitempty"`
	Domain        string    `db:"domain"          json:"domain"`
	TLD           string    `db:"tld"             json:"tld"`
	IP            *string   `db:"ip"              json:"ip"`
	DomainAgeDays *int      `db:"domain_age_days" json:"domain_age_days"`
	TLSAgeDays    *int      `db:"tls_age_days"    json:"tls_age_days"`
	TLSIssuer     *string   `db:"tls_issuer"      json:"tls_issuer"`
	FetchedAt     time.Time `db:"fetched_at"      json:"fetched_at"`
}

// Hit is one rule's contribution to a score.
type Hit struct {
	Name   string `json:"name"`
	Weight int    `json:"weight"`
	Reason string `json:"reason"`
}

// VerdictStatus is the headline classification.
type VerdictStatus string

const (
	VerdictSafe       VerdictStatus = "safe"
	VerdictSuspicious VerdictStatus = "suspicious"
	VerdictMalicious  VerdictStatus = "malicious"
	VerdictUnknown    VerdictStatus = "unknown"
)

// ClassLabel is the threat category.
type ClassLabel string

const (
	ClassBenign   ClassLabel = "benign"
	ClassPhishing ClassLabel = "phishing"
	ClassMalware  ClassLabel = "malware"
	ClassScam     ClassLabel = "scam"
	ClassUnknown  ClassLabel = "unknown"
)

// Verdict is the stored classification for one canonical URL.
type Verdict struct {
	URLID     int64
	Status    VerdictStatus
	Class     ClassLabel
	Score     int
	Reasons   []Hit
	UpdatedAt time.Time
}

// Result is the analysis payload returned to clients and stored as job data.
type Result struct {
	URL     string        `json:"url"`
	Verdict VerdictStatus `json:"verdict"`
	Class   ClassLabel    `json:"class"`
	Score   int           `json:"score"`
	Reasons []Hit         `json:"reasons"`
}

// Payload renders r as generic snapshot data.
func (r *Result) Payload() map[string]any {
	reasons := r.Reasons
	if reasons == nil {
		reasons = []Hit{}
	}
	return map[string]any{
		"url":     r.URL,
		"verdict": r.Verdict,
		"class":   r.Class,
		"score":   r.Score,
		"reasons": reasons,
	}
}
