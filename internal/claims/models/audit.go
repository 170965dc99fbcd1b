package models

import "time"

// Actor identifies who triggered a transition.
type Actor struct {
	ID   string `json:"id"`
	Role string `json:"role,omitempty"`
}

// SystemActor is recorded for transitions the lifecycle manager performs itself.
var SystemActor = Actor{ID: "system", Role: "system"}

func (a Actor) IsZero() bool {
	return a.ID == ""
}

// Override records a manual transition that bypasses the engine verdict.
type Override struct {
	Actor         Actor  `json:"actor"`
	Justification string `json:"justification"`
}

// AuditEntry is an immutable record of one lifecycle event.
type AuditEntry struct {
	ID         string    `json:"id"`
	ClaimID    string    `json:"claim_id"`
	Timestamp  time.Time `json:"timestamp"`
	Action     Action    `json:"action"`
	PriorState State     `json:"prior_state,omitempty"`
	NewState   State     `json:"new_state"`
	ReportID   string    `json:"report_id,omitempty"`
	Override   *Override `json:"override,omitempty"`
	Actor      Actor     `json:"actor"`
	Degraded   []string  `json:"degraded,omitempty"`
	RequestID  string    `json:"request_id,omitempty"`
}
