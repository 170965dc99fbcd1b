package models

import "time"

// Outcome is the result of a single rule check.
type Outcome string

const (
	OutcomePass Outcome = "pass"
	OutcomeWarn Outcome = "warn"
	OutcomeFail Outcome = "fail"
)

// Verdict is the engine's recommended disposition.
type Verdict string

const (
	VerdictApprove Verdict = "approve"
	VerdictReview  Verdict = "review"
	VerdictReject  Verdict = "reject"
)

// verdictRank orders verdicts by risk.
var verdictRank = map[Verdict]int{
	VerdictApprove: 0,
	VerdictReview:  1,
	VerdictReject:  2,
}

// Rank orders verdicts Approve < Review < Reject.
func (v Verdict) Rank() int {
	return verdictRank[v]
}

// RuleCheckResult is one rule's explainable finding. Values are never mutated
// after the engine produces them.
type RuleCheckResult struct {
	RuleName    string   `json:"rule"`
	Outcome     Outcome  `json:"outcome"`
	Explanation string   `json:"explanation"`
	Measured    *float64 `json:"measured,omitempty"`
	Weight      int      `json:"weight"`
	Hard        bool     `json:"hard"`
}

// Degraded signals recorded when an external collaborator could not answer.
const (
	SignalPolicyNotFound        = "policy_not_found"
	SignalPolicyLookupTimeout   = "policy_lookup_timeout"
	SignalPolicyUnavailable     = "policy_unavailable"
	SignalAssessmentTimeout     = "assessment_timeout"
	SignalAssessmentUnavailable = "assessment_unavailable"
	SignalNoEvidenceImage       = "no_evidence_image"
)

// RuleReport is one immutable evaluation snapshot for a claim.
type RuleReport struct {
	ID          string            `json:"id"`
	Checks      []RuleCheckResult `json:"checks"`
	RiskScore   int               `json:"risk_score"`
	Verdict     Verdict           `json:"verdict"`
	Degraded    []string          `json:"degraded,omitempty"`
	EvaluatedAt time.Time         `json:"evaluated_at"`
}

// Check returns the result for the named rule.
func (r *RuleReport) Check(name string) (RuleCheckResult, bool) {
	for _, c := range r.Checks {
		if c.RuleName == name {
			return c, true
		}
	}
	return RuleCheckResult{}, false
}

// Clone returns a deep copy so history entries cannot be mutated through aliases.
func (r RuleReport) Clone() RuleReport {
	out := r
	out.Checks = make([]RuleCheckResult, len(r.Checks))
	for i, c := range r.Checks {
		if c.Measured != nil {
			v := *c.Measured
			c.Measured = &v
		}
		out.Checks[i] = c
	}
	out.Degraded = append([]string(nil), r.Degraded...)
	return out
}
