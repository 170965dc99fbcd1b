package decision

import "claimguard/internal/claims/models"

const (
	maxRiskScore = 100
	// reviewWarnThreshold is the number of Warn results that alone force review.
	reviewWarnThreshold = 2
)

// Aggregate folds check results into a risk score and verdict.
//
// Reject if any hard rule fails; Review if any rule fails or at least two warn;
// Approve otherwise. Fail contributes the rule weight to the score, Warn half of
// it rounded down (weight 25 adds 12), and the total is clamped to [0, 100].
// Turning any Pass into Warn or Fail, or any Warn into Fail, never lowers the
// score or the verdict.
func Aggregate(checks []models.RuleCheckResult) (int, models.Verdict) {
	score := 0
	fails, warns := 0, 0
	hardFail := false
	for _, c := range checks {
		switch c.Outcome {
		case models.OutcomeFail:
			fails++
			score += c.Weight
			if c.Hard {
				hardFail = true
			}
		case models.OutcomeWarn:
			warns++
			score += c.Weight / 2
		}
	}
	score = min(max(score, 0), maxRiskScore)

	switch {
	case hardFail:
		return score, models.VerdictReject
	case fails > 0 || warns >= reviewWarnThreshold:
		return score, models.VerdictReview
	default:
		return score, models.VerdictApprove
	}
}
