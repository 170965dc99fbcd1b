package rules

import (
	"fmt"

	"claimguard/internal/claims/models"
)

const dateLayout = "2006-01-02"

// PolicyActive checks that the incident happened inside the policy validity
// window. It is binary eligibility: there is no Warn outcome for real data.
// A cancelled policy, or one in a status the directory does not define, fails
// whatever its window says. Expired policies still cover incidents inside the
// window.
type PolicyActive struct {
	cfg Settings
}

func NewPolicyActive(cfg Settings) *PolicyActive {
	return &PolicyActive{cfg: cfg}
}

func (r *PolicyActive) Name() string { return NamePolicyActive }

func (r *PolicyActive) Description() string {
	return "incident date falls inside the policy validity window"
}

func (r *PolicyActive) Check(in Input) models.RuleCheckResult {
	if in.Policy == nil {
		return result(r.Name(), r.cfg, models.OutcomeWarn, insufficientData+": policy record unavailable", nil)
	}
	p := in.Policy
	window := fmt.Sprintf("%s to %s", p.ValidFrom.Format(dateLayout), p.ValidTo.Format(dateLayout))
	switch p.Status {
	case models.PolicyActive, models.PolicyExpired:
	default:
		return result(r.Name(), r.cfg, models.OutcomeFail,
			fmt.Sprintf("policy %s is %s", p.Number, statusLabel(p.Status)), nil)
	}
	if p.Covers(in.Claim.IncidentDate) {
		return result(r.Name(), r.cfg, models.OutcomePass, "active "+window, nil)
	}
	return result(r.Name(), r.cfg, models.OutcomeFail,
		fmt.Sprintf("incident on %s outside validity window %s", in.Claim.IncidentDate.Format(dateLayout), window), nil)
}

func statusLabel(s models.PolicyStatus) string {
	if s == "" {
		return "without a status"
	}
	return string(s)
}
