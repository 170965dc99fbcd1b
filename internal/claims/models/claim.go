package models

import "time"

// ContextSignal is a telemetry reading attached to a claim, e.g. the vehicle
// speed against the posted limit at the time of the incident.
type ContextSignal struct {
	Name     string  `json:"name" yaml:"name"`
	Observed float64 `json:"observed" yaml:"observed"`
	Limit    float64 `json:"limit" yaml:"limit"`
	Unit     string  `json:"unit,omitempty" yaml:"unit,omitempty"`
}

// Claim is the aggregate root for an insurance loss event under adjudication.
//
// Invariants:
//   - ID is immutable after creation
//   - ClaimedAmount and PolicyNumber change only through ApplyCorrection
//   - Reports is append-only; the last entry is the current evaluation
//   - AuditTrail is append-only and records every state change
//   - Version increases by one with every committed store update
type Claim struct {
	ID               string          `json:"id"`
	PolicyNumber     string          `json:"policy_number"`
	IncidentDate     time.Time       `json:"incident_date"`
	Location         string          `json:"location,omitempty"`
	ClaimedAmount    Money           `json:"claimed_amount"`
	ReportedSeverity Severity        `json:"reported_severity"`
	CollisionType    CollisionType   `json:"collision_type"`
	VehicleCount     int             `json:"vehicle_count"`
	Description      string          `json:"description,omitempty"`
	ImageRef         string          `json:"image_ref,omitempty"`
	Signals          []ContextSignal `json:"signals,omitempty"`
	State            State           `json:"state"`
	Reports          []RuleReport    `json:"reports"`
	AuditTrail       []AuditEntry    `json:"audit_trail"`
	Version          int64           `json:"version"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// LatestReport returns the current evaluation, or nil before the first one.
func (c *Claim) LatestReport() *RuleReport {
	if len(c.Reports) == 0 {
		return nil
	}
	return &c.Reports[len(c.Reports)-1]
}

// Checks returns the ordered check results of the latest report.
func (c *Claim) Checks() []RuleCheckResult {
	if r := c.LatestReport(); r != nil {
		return r.Checks
	}
	return nil
}

// HasImage reports whether an evidence image handle is attached.
func (c *Claim) HasImage() bool {
	return c.ImageRef != ""
}

// Signal returns the named context signal.
func (c *Claim) Signal(name string) (ContextSignal, bool) {
	for _, s := range c.Signals {
		if s.Name == name {
			return s, true
		}
	}
	return ContextSignal{}, false
}

// Clone returns a deep copy. Stores hand out clones so callers never share
// slices with persisted state.
func (c *Claim) Clone() *Claim {
	if c == nil {
		return nil
	}
	out := *c
	out.Signals = append([]ContextSignal(nil), c.Signals...)
	out.Reports = make([]RuleReport, len(c.Reports))
	for i, r := range c.Reports {
		out.Reports[i] = r.Clone()
	}
	out.AuditTrail = make([]AuditEntry, len(c.AuditTrail))
	for i, e := range c.AuditTrail {
		e.Degraded = append([]string(nil), e.Degraded...)
		if e.Override != nil {
			o := *e.Override
			e.Override = &o
		}
		out.AuditTrail[i] = e
	}
	return &out
}

// AttachReport appends a report. Reports are never replaced.
func (c *Claim) AttachReport(r RuleReport, now time.Time) {
	c.Reports = append(c.Reports, r.Clone())
	c.UpdatedAt = now
}

// RecordIntake appends the submission entry. The claim has no prior state.
func (c *Claim) RecordIntake(entry AuditEntry) {
	entry.ClaimID = c.ID
	entry.PriorState = ""
	entry.NewState = c.State
	c.AuditTrail = append(c.AuditTrail, entry)
}

// ApplyTransition moves the claim to next and appends the audit entry.
// Callers validate the move with State.NextState first.
func (c *Claim) ApplyTransition(entry AuditEntry) {
	entry.ClaimID = c.ID
	entry.PriorState = c.State
	c.State = entry.NewState
	c.AuditTrail = append(c.AuditTrail, entry)
	c.UpdatedAt = entry.Timestamp
}

// Summary projects the claim for list views.
func (c *Claim) Summary() ClaimSummary {
	s := ClaimSummary{
		ID:               c.ID,
		PolicyNumber:     c.PolicyNumber,
		IncidentDate:     c.IncidentDate,
		ClaimedAmount:    c.ClaimedAmount,
		ReportedSeverity: c.ReportedSeverity,
		State:            c.State,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
	if r := c.LatestReport(); r != nil {
		score := r.RiskScore
		s.RiskScore = &score
		s.Verdict = r.Verdict
	}
	return s
}

// ClaimSummary is the list projection of a claim.
type ClaimSummary struct {
	ID               string    `json:"id"`
	PolicyNumber     string    `json:"policy_number"`
	IncidentDate     time.Time `json:"incident_date"`
	ClaimedAmount    Money     `json:"claimed_amount"`
	ReportedSeverity Severity  `json:"reported_severity"`
	State            State     `json:"state"`
	RiskScore        *int      `json:"risk_score,omitempty"`
	Verdict          Verdict   `json:"verdict,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
