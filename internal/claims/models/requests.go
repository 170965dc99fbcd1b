package models

import (
	"math"
	"strings"
	"time"

	dErrors "claimguard/pkg/domain-errors"
)

const (
	maxPolicyNumberLength = 64
	maxDescriptionLength  = 4000
	maxLocationLength     = 256
	maxSignals            = 16
)

// ClaimInput carries the claimant-supplied fields shared by submission and correction.
type ClaimInput struct {
	PolicyNumber     string
	IncidentDate     time.Time
	Location         string
	ClaimedAmount    Money
	ReportedSeverity Severity
	CollisionType    CollisionType
	VehicleCount     int
	Description      string
	ImageRef         string
	Signals          []ContextSignal
}

// SubmitRequest is a new claim at intake. ID is optional; the lifecycle
// manager generates one when empty.
type SubmitRequest struct {
	ID string
	ClaimInput
}

// Normalize trims free-text fields.
func (r *ClaimInput) Normalize() {
	r.PolicyNumber = strings.TrimSpace(r.PolicyNumber)
	r.Location = strings.TrimSpace(r.Location)
	r.Description = strings.TrimSpace(r.Description)
	r.ImageRef = strings.TrimSpace(r.ImageRef)
	for i := range r.Signals {
		r.Signals[i].Name = strings.TrimSpace(r.Signals[i].Name)
	}
}

// Validate enforces claim invariants. now bounds the incident date.
func (r *ClaimInput) Validate(now time.Time) error {
	if r.PolicyNumber == "" {
		return dErrors.New(dErrors.CodeValidation, "policy_number is required")
	}
	if len(r.PolicyNumber) > maxPolicyNumberLength {
		return dErrors.New(dErrors.CodeValidation, "policy_number is too long")
	}
	if r.IncidentDate.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "incident_date is required")
	}
	if DateOnly(r.IncidentDate).After(DateOnly(now)) {
		return dErrors.New(dErrors.CodeValidation, "incident_date must not be in the future")
	}
	if r.ClaimedAmount < 0 {
		return dErrors.New(dErrors.CodeValidation, "claimed_amount must not be negative")
	}
	if !r.ReportedSeverity.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "reported_severity is invalid")
	}
	if _, err := ParseCollisionType(string(r.CollisionType)); err != nil {
		return err
	}
	if r.VehicleCount < 1 {
		return dErrors.New(dErrors.CodeValidation, "vehicle_count must be at least 1")
	}
	if len(r.Description) > maxDescriptionLength {
		return dErrors.New(dErrors.CodeValidation, "description is too long")
	}
	if len(r.Location) > maxLocationLength {
		return dErrors.New(dErrors.CodeValidation, "location is too long")
	}
	if len(r.Signals) > maxSignals {
		return dErrors.New(dErrors.CodeValidation, "too many context signals")
	}
	seen := make(map[string]bool, len(r.Signals))
	for _, s := range r.Signals {
		if s.Name == "" {
			return dErrors.New(dErrors.CodeValidation, "signal name is required")
		}
		if seen[s.Name] {
			return dErrors.Newf(dErrors.CodeValidation, "duplicate signal %q", s.Name)
		}
		seen[s.Name] = true
		if math.IsNaN(s.Observed) || math.IsInf(s.Observed, 0) || math.IsNaN(s.Limit) || math.IsInf(s.Limit, 0) {
			return dErrors.Newf(dErrors.CodeValidation, "signal %q must be finite", s.Name)
		}
	}
	return nil
}

// NewClaim constructs a claim in the Submitted state.
func NewClaim(id string, in ClaimInput, now time.Time) (*Claim, error) {
	if strings.TrimSpace(id) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "claim id is required")
	}
	in.Normalize()
	if err := in.Validate(now); err != nil {
		return nil, err
	}
	return &Claim{
		ID:               id,
		PolicyNumber:     in.PolicyNumber,
		IncidentDate:     DateOnly(in.IncidentDate),
		Location:         in.Location,
		ClaimedAmount:    in.ClaimedAmount,
		ReportedSeverity: in.ReportedSeverity,
		CollisionType:    in.CollisionType,
		VehicleCount:     in.VehicleCount,
		Description:      in.Description,
		ImageRef:         in.ImageRef,
		Signals:          append([]ContextSignal(nil), in.Signals...),
		State:            StateSubmitted,
		Reports:          []RuleReport{},
		AuditTrail:       []AuditEntry{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// Correction amends a claim's data. Nil fields are left unchanged.
type Correction struct {
	PolicyNumber     *string
	IncidentDate     *time.Time
	Location         *string
	ClaimedAmount    *Money
	ReportedSeverity *Severity
	CollisionType    *CollisionType
	VehicleCount     *int
	Description      *string
	ImageRef         *string
	Signals          []ContextSignal
	ReplaceSignals   bool
}

// IsEmpty reports whether the correction changes nothing.
func (c Correction) IsEmpty() bool {
	return c.PolicyNumber == nil && c.IncidentDate == nil && c.Location == nil &&
		c.ClaimedAmount == nil && c.ReportedSeverity == nil && c.CollisionType == nil &&
		c.VehicleCount == nil && c.Description == nil && c.ImageRef == nil && !c.ReplaceSignals
}

// ApplyCorrection validates the amended data and applies it. The claim is left
// untouched when validation fails.
func (c *Claim) ApplyCorrection(corr Correction, now time.Time) error {
	if corr.IsEmpty() {
		return dErrors.New(dErrors.CodeValidation, "correction changes nothing")
	}
	in := c.input()
	if corr.PolicyNumber != nil {
		in.PolicyNumber = *corr.PolicyNumber
	}
	if corr.IncidentDate != nil {
		in.IncidentDate = *corr.IncidentDate
	}
	if corr.Location != nil {
		in.Location = *corr.Location
	}
	if corr.ClaimedAmount != nil {
		in.ClaimedAmount = *corr.ClaimedAmount
	}
	if corr.ReportedSeverity != nil {
		in.ReportedSeverity = *corr.ReportedSeverity
	}
	if corr.CollisionType != nil {
		in.CollisionType = *corr.CollisionType
	}
	if corr.VehicleCount != nil {
		in.VehicleCount = *corr.VehicleCount
	}
	if corr.Description != nil {
		in.Description = *corr.Description
	}
	if corr.ImageRef != nil {
		in.ImageRef = *corr.ImageRef
	}
	if corr.ReplaceSignals {
		in.Signals = append([]ContextSignal(nil), corr.Signals...)
	}
	in.Normalize()
	if err := in.Validate(now); err != nil {
		return err
	}

	c.PolicyNumber = in.PolicyNumber
	c.IncidentDate = DateOnly(in.IncidentDate)
	c.Location = in.Location
	c.ClaimedAmount = in.ClaimedAmount
	c.ReportedSeverity = in.ReportedSeverity
	c.CollisionType = in.CollisionType
	c.VehicleCount = in.VehicleCount
	c.Description = in.Description
	c.ImageRef = in.ImageRef
	c.Signals = in.Signals
	c.UpdatedAt = now
	return nil
}

func (c *Claim) input() ClaimInput {
	return ClaimInput{
		PolicyNumber:     c.PolicyNumber,
		IncidentDate:     c.IncidentDate,
		Location:         c.Location,
		ClaimedAmount:    c.ClaimedAmount,
		ReportedSeverity: c.ReportedSeverity,
		CollisionType:    c.CollisionType,
		VehicleCount:     c.VehicleCount,
		Description:      c.Description,
		ImageRef:         c.ImageRef,
		Signals:          append([]ContextSignal(nil), c.Signals...),
	}
}
