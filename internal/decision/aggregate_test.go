package decision

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"claimguard/internal/claims/models"
)

func check(outcome models.Outcome, weight int, hard bool) models.RuleCheckResult {
	return models.RuleCheckResult{RuleName: "r", Outcome: outcome, Weight: weight, Hard: hard}
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		name        string
		checks      []models.RuleCheckResult
		wantScore   int
		wantVerdict models.Verdict
	}{
		{"no checks", nil, 0, models.VerdictApprove},
		{"all pass", []models.RuleCheckResult{check(models.OutcomePass, 40, false), check(models.OutcomePass, 40, true)}, 0, models.VerdictApprove},
		{"single warn approves", []models.RuleCheckResult{check(models.OutcomeWarn, 40, false), check(models.OutcomePass, 40, false)}, 20, models.VerdictApprove},
		{"two warns review", []models.RuleCheckResult{check(models.OutcomeWarn, 40, false), check(models.OutcomeWarn, 30, false)}, 35, models.VerdictReview},
		{"soft fail reviews", []models.RuleCheckResult{check(models.OutcomeFail, 40, false)}, 40, models.VerdictReview},
		{"hard fail rejects", []models.RuleCheckResult{check(models.OutcomeFail, 10, true), check(models.OutcomePass, 40, false)}, 10, models.VerdictReject},
		{"hard warn does not reject", []models.RuleCheckResult{check(models.OutcomeWarn, 40, true)}, 20, models.VerdictApprove},
		{"odd weight warn rounds down", []models.RuleCheckResult{check(models.OutcomeWarn, 25, false)}, 12, models.VerdictApprove},
		{"odd weight warns sum halves separately", []models.RuleCheckResult{check(models.OutcomeWarn, 25, false), check(models.OutcomeWarn, 25, false)}, 24, models.VerdictReview},
		{"score clamps at 100", []models.RuleCheckResult{check(models.OutcomeFail, 80, false), check(models.OutcomeFail, 80, false)}, 100, models.VerdictReview},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, verdict := Aggregate(tt.checks)
			assert.Equal(t, tt.wantScore, score)
			assert.Equal(t, tt.wantVerdict, verdict)
		})
	}
}

func TestAggregateNeverImprovesWhenOutcomesWorsen(t *testing.T) {
	outcomes := []models.Outcome{models.OutcomePass, models.OutcomeWarn, models.OutcomeFail}
	for _, hard := range []bool{false, true} {
		for _, a := range outcomes {
			for _, b := range outcomes {
				for i, worse := range outcomes {
					base := []models.RuleCheckResult{check(a, 40, false), check(b, 30, hard)}
					for j := range i {
						base[1].Outcome = outcomes[j]
						lowScore, lowVerdict := Aggregate(base)
						base[1].Outcome = worse
						highScore, highVerdict := Aggregate(base)
						assert.GreaterOrEqual(t, highScore, lowScore)
						assert.GreaterOrEqual(t, highVerdict.Rank(), lowVerdict.Rank())
					}
				}
			}
		}
	}
}
