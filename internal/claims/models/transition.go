package models

import (
	"strings"

	dErrors "claimguard/pkg/domain-errors"
)

const maxJustificationLength = 2000

// TransitionRequest asks for a reviewer disposition. Override, when set,
// bypasses the engine verdict and must carry a justification.
type TransitionRequest struct {
	Action          Action
	Actor           Actor
	Override        *OverrideRequest
	ExpectedVersion *int64
}

type OverrideRequest struct {
	Justification string
}

// Validate checks the request shape; authorization is the lifecycle manager's job.
func (r *TransitionRequest) Validate() error {
	if r.Actor.IsZero() {
		return dErrors.New(dErrors.CodeUnauthorized, "actor is required")
	}
	if r.Action != ActionApproved && r.Action != ActionRejected {
		return dErrors.Newf(dErrors.CodeValidation, "unsupported action %q", r.Action)
	}
	if r.Override != nil {
		r.Override.Justification = strings.TrimSpace(r.Override.Justification)
		if r.Override.Justification == "" {
			return dErrors.New(dErrors.CodeValidation, "override requires a justification")
		}
		if len(r.Override.Justification) > maxJustificationLength {
			return dErrors.New(dErrors.CodeValidation, "justification is too long")
		}
	}
	return nil
}

// ParseTransitionAction maps the API verbs onto lifecycle actions.
func ParseTransitionAction(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "approve", "approved":
		return ActionApproved, nil
	case "reject", "rejected":
		return ActionRejected, nil
	}
	return "", dErrors.Newf(dErrors.CodeValidation, "action must be approve or reject, got %q", s)
}

// MatchesVerdict reports whether a non-overridden action agrees with the verdict.
func (a Action) MatchesVerdict(v Verdict) bool {
	switch a {
	case ActionApproved:
		return v == VerdictApprove
	case ActionRejected:
		return v == VerdictReject
	}
	return false
}

// CorrectionRequest amends claim data. Reopening a disposed claim needs a
// justification, which is recorded as an override.
type CorrectionRequest struct {
	Correction
	Actor           Actor
	Justification   string
	ExpectedVersion *int64
}

func (r *CorrectionRequest) Validate() error {
	if r.Actor.IsZero() {
		return dErrors.New(dErrors.CodeUnauthorized, "actor is required")
	}
	r.Justification = strings.TrimSpace(r.Justification)
	if len(r.Justification) > maxJustificationLength {
		return dErrors.New(dErrors.CodeValidation, "justification is too long")
	}
	if r.IsEmpty() {
		return dErrors.New(dErrors.CodeValidation, "correction changes nothing")
	}
	return nil
}
