package handler

import (
	"strings"
	"time"

	"claimguard/internal/claims/models"
	dErrors "claimguard/pkg/domain-errors"
	pstrings "claimguard/pkg/platform/strings"
)

const (
	maxClaimIDLength = 64
	maxBatchSize     = 500
	maxBatchWorkers  = 32
)

// parseDate accepts a calendar date or a full RFC 3339 timestamp.
func parseDate(field, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, dErrors.Newf(dErrors.CodeValidation, "%s must be a date (YYYY-MM-DD)", field)
}

// SubmitClaimRequest is the HTTP request body for POST /v1/claims.
type SubmitClaimRequest struct {
	ID               string                 `json:"id,omitempty"`
	PolicyNumber     string                 `json:"policy_number"`
	IncidentDate     string                 `json:"incident_date"`
	Location         string                 `json:"location,omitempty"`
	ClaimedAmount    models.Money           `json:"claimed_amount"`
	ReportedSeverity string                 `json:"reported_severity"`
	CollisionType    string                 `json:"collision_type"`
	VehicleCount     int                    `json:"vehicle_count"`
	Description      string                 `json:"description,omitempty"`
	ImageRef         string                 `json:"image_ref,omitempty"`
	Signals          []models.ContextSignal `json:"signals,omitempty"`

	parsed models.SubmitRequest
}

func (r *SubmitClaimRequest) Normalize() {
	r.ID = strings.TrimSpace(r.ID)
	r.PolicyNumber = strings.TrimSpace(r.PolicyNumber)
}

// Validate parses enumerations and dates. Range checks that depend on the
// request time happen in the lifecycle manager.
func (r *SubmitClaimRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.ID) > maxClaimIDLength {
		return dErrors.New(dErrors.CodeValidation, "id is too long")
	}
	if r.PolicyNumber == "" {
		return dErrors.New(dErrors.CodeValidation, "policy_number is required")
	}
	incident, err := parseDate("incident_date", r.IncidentDate)
	if err != nil {
		return err
	}
	severity, err := models.ParseSeverity(r.ReportedSeverity)
	if err != nil {
		return err
	}
	collision, err := models.ParseCollisionType(r.CollisionType)
	if err != nil {
		return err
	}
	r.parsed = models.SubmitRequest{
		ID: r.ID,
		ClaimInput: models.ClaimInput{
			PolicyNumber:     r.PolicyNumber,
			IncidentDate:     incident,
			Location:         r.Location,
			ClaimedAmount:    r.ClaimedAmount,
			ReportedSeverity: severity,
			CollisionType:    collision,
			VehicleCount:     r.VehicleCount,
			Description:      r.Description,
			ImageRef:         r.ImageRef,
			Signals:          r.Signals,
		},
	}
	return nil
}

// ToModel returns the parsed submission. Only valid after Validate.
func (r *SubmitClaimRequest) ToModel() models.SubmitRequest {
	return r.parsed
}

// TransitionClaimRequest is the HTTP request body for POST /v1/claims/{id}/transitions.
type TransitionClaimRequest struct {
	Action          string           `json:"action"`
	Override        *OverrideRequest `json:"override,omitempty"`
	ExpectedVersion *int64           `json:"expected_version,omitempty"`

	parsedAction models.Action
}

type OverrideRequest struct {
	Justification string `json:"justification"`
}

func (r *TransitionClaimRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	action, err := models.ParseTransitionAction(r.Action)
	if err != nil {
		return err
	}
	r.parsedAction = action
	if r.Override != nil && strings.TrimSpace(r.Override.Justification) == "" {
		return dErrors.New(dErrors.CodeValidation, "override.justification is required")
	}
	if r.ExpectedVersion != nil && *r.ExpectedVersion < 0 {
		return dErrors.New(dErrors.CodeValidation, "expected_version must not be negative")
	}
	return nil
}

func (r *TransitionClaimRequest) ToModel(actor models.Actor) models.TransitionRequest {
	req := models.TransitionRequest{
		Action:          r.parsedAction,
		Actor:           actor,
		ExpectedVersion: r.ExpectedVersion,
	}
	if r.Override != nil {
		req.Override = &models.OverrideRequest{Justification: r.Override.Justification}
	}
	return req
}

// CorrectClaimRequest is the HTTP request body for POST /v1/claims/{id}/corrections.
// Omitted fields keep their current value; a present signals list replaces
// the existing one.
type CorrectClaimRequest struct {
	PolicyNumber     *string                 `json:"policy_number,omitempty"`
	IncidentDate     *string                 `json:"incident_date,omitempty"`
	Location         *string                 `json:"location,omitempty"`
	ClaimedAmount    *models.Money           `json:"claimed_amount,omitempty"`
	ReportedSeverity *string                 `json:"reported_severity,omitempty"`
	CollisionType    *string                 `json:"collision_type,omitempty"`
	VehicleCount     *int                    `json:"vehicle_count,omitempty"`
	Description      *string                 `json:"description,omitempty"`
	ImageRef         *string                 `json:"image_ref,omitempty"`
	Signals          *[]models.ContextSignal `json:"signals,omitempty"`
	Justification    string                  `json:"justification,omitempty"`
	ExpectedVersion  *int64                  `json:"expected_version,omitempty"`

	parsed models.Correction
}

func (r *CorrectClaimRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	corr := models.Correction{
		PolicyNumber:  r.PolicyNumber,
		Location:      r.Location,
		ClaimedAmount: r.ClaimedAmount,
		VehicleCount:  r.VehicleCount,
		Description:   r.Description,
		ImageRef:      r.ImageRef,
	}
	if r.IncidentDate != nil {
		d, err := parseDate("incident_date", *r.IncidentDate)
		if err != nil {
			return err
		}
		corr.IncidentDate = &d
	}
	if r.ReportedSeverity != nil {
		sev, err := models.ParseSeverity(*r.ReportedSeverity)
		if err != nil {
			return err
		}
		corr.ReportedSeverity = &sev
	}
	if r.CollisionType != nil {
		ct, err := models.ParseCollisionType(*r.CollisionType)
		if err != nil {
			return err
		}
		corr.CollisionType = &ct
	}
	if r.Signals != nil {
		corr.Signals = *r.Signals
		corr.ReplaceSignals = true
	}
	if corr.IsEmpty() {
		return dErrors.New(dErrors.CodeValidation, "correction changes nothing")
	}
	r.parsed = corr
	return nil
}

func (r *CorrectClaimRequest) ToModel(actor models.Actor) models.CorrectionRequest {
	return models.CorrectionRequest{
		Correction:      r.parsed,
		Actor:           actor,
		Justification:   r.Justification,
		ExpectedVersion: r.ExpectedVersion,
	}
}

// BatchEvaluateRequest is the HTTP request body for POST /v1/claims/evaluate-batch.
type BatchEvaluateRequest struct {
	ClaimIDs []string `json:"claim_ids"`
	Workers  int      `json:"workers,omitempty"`
}

// Normalize drops blank and repeated ids, keeping the first occurrence.
func (r *BatchEvaluateRequest) Normalize() {
	r.ClaimIDs = pstrings.DedupeAndTrim(r.ClaimIDs)
}

func (r *BatchEvaluateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.ClaimIDs) == 0 {
		return dErrors.New(dErrors.CodeValidation, "claim_ids is required")
	}
	if len(r.ClaimIDs) > maxBatchSize {
		return dErrors.Newf(dErrors.CodeValidation, "at most %d claims per batch", maxBatchSize)
	}
	if r.Workers < 0 || r.Workers > maxBatchWorkers {
		return dErrors.Newf(dErrors.CodeValidation, "workers must be between 0 and %d", maxBatchWorkers)
	}
	return nil
}
