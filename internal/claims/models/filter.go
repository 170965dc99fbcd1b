package models

import (
	"strings"
	"time"

	"github.com/agnivade/levenshtein"
)

// ClaimFilter narrows a claim listing. Zero fields match everything.
type ClaimFilter struct {
	States     []State
	Severities []Severity
	// IncidentFrom and IncidentTo bound the incident date, both inclusive.
	IncidentFrom time.Time
	IncidentTo   time.Time
	// Search matches claim ID or policy number by prefix or within one edit.
	Search string
	// Limit caps the number of results; zero means no limit.
	Limit int
}

// Normalize trims the search term and drops a negative limit.
func (f *ClaimFilter) Normalize() {
	f.Search = strings.TrimSpace(f.Search)
	if f.Limit < 0 {
		f.Limit = 0
	}
}

// Matches reports whether the summary passes every criterion except Limit.
func (f ClaimFilter) Matches(c ClaimSummary) bool {
	if len(f.States) > 0 && !contains(f.States, c.State) {
		return false
	}
	if len(f.Severities) > 0 && !contains(f.Severities, c.ReportedSeverity) {
		return false
	}
	day := DateOnly(c.IncidentDate)
	if !f.IncidentFrom.IsZero() && day.Before(DateOnly(f.IncidentFrom)) {
		return false
	}
	if !f.IncidentTo.IsZero() && day.After(DateOnly(f.IncidentTo)) {
		return false
	}
	return f.Search == "" || fuzzyMatch(f.Search, c.ID) || fuzzyMatch(f.Search, c.PolicyNumber)
}

func fuzzyMatch(term, value string) bool {
	term = strings.ToUpper(term)
	value = strings.ToUpper(value)
	if strings.HasPrefix(value, term) {
		return true
	}
	return levenshtein.ComputeDistance(term, value) <= 1
}

func contains[T comparable](set []T, v T) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
