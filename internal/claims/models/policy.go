package models

import "time"

// PolicyStatus is the directory's view of a policy.
type PolicyStatus string

const (
	PolicyActive    PolicyStatus = "active"
	PolicyExpired   PolicyStatus = "expired"
	PolicyCancelled PolicyStatus = "cancelled"
)

// PolicyRecord is read-only reference data owned by the policy directory.
type PolicyRecord struct {
	Number        string       `json:"number" yaml:"number"`
	CoverageLimit Money        `json:"coverage_limit" yaml:"coverage_limit"`
	Status        PolicyStatus `json:"status" yaml:"status"`
	ValidFrom     time.Time    `json:"valid_from" yaml:"valid_from"`
	ValidTo       time.Time    `json:"valid_to" yaml:"valid_to"`
	InsuredName   string       `json:"insured_name" yaml:"insured_name"`
}

// Covers reports whether the calendar day of t falls inside the validity window,
// both ends inclusive.
func (p PolicyRecord) Covers(t time.Time) bool {
	day := DateOnly(t)
	return !day.Before(DateOnly(p.ValidFrom)) && !day.After(DateOnly(p.ValidTo))
}

// DateOnly truncates t to midnight UTC of its calendar day.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
