package rules

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"claimguard/internal/claims/models"
)

var incident = time.Date(2025, 8, 16, 0, 0, 0, 0, time.UTC)

func claimWith(mutate func(*models.Claim)) models.Claim {
	c := models.Claim{
		ID:               "CLM-8821",
		PolicyNumber:     "66777",
		IncidentDate:     incident,
		ClaimedAmount:    models.Dollars(12345),
		ReportedSeverity: models.SeverityMajor,
		CollisionType:    models.CollisionFrontEnd,
		VehicleCount:     2,
	}
	if mutate != nil {
		mutate(&c)
	}
	return c
}

func policy() *models.PolicyRecord {
	return &models.PolicyRecord{
		Number:        "66777",
		CoverageLimit: models.Dollars(50000),
		Status:        models.PolicyActive,
		ValidFrom:     time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		ValidTo:       time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
		InsuredName:   "Lotta Dietz",
	}
}

func vision(sev models.Severity) *models.VisionAssessment {
	return &models.VisionAssessment{Severity: sev, Confidence: 0.98}
}

func TestSeverityMatch(t *testing.T) {
	rule := NewSeverityMatch(DefaultConfig().SeverityMatch)

	tests := []struct {
		name     string
		reported models.Severity
		detected *models.VisionAssessment
		want     models.Outcome
	}{
		{"equal", models.SeverityMajor, vision(models.SeverityMajor), models.OutcomePass},
		{"adjacent above", models.SeverityModerate, vision(models.SeverityMajor), models.OutcomePass},
		{"adjacent below", models.SeverityMajor, vision(models.SeverityModerate), models.OutcomePass},
		{"under-reported by two", models.SeverityMinor, vision(models.SeverityMajor), models.OutcomeFail},
		{"under-reported by three", models.SeverityMinor, vision(models.SeverityTotalLoss), models.OutcomeFail},
		{"over-reported by two", models.SeverityMajor, vision(models.SeverityMinor), models.OutcomeWarn},
		{"over-reported by three", models.SeverityTotalLoss, vision(models.SeverityMinor), models.OutcomeWarn},
		{"no assessment", models.SeverityMinor, nil, models.OutcomeWarn},
		{"low confidence", models.SeverityMinor, &models.VisionAssessment{Severity: models.SeverityTotalLoss, Confidence: 0.2}, models.OutcomeWarn},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rule.Check(Input{
				Claim:  claimWith(func(c *models.Claim) { c.ReportedSeverity = tt.reported }),
				Vision: tt.detected,
			})
			assert.Equal(t, tt.want, got.Outcome, got.Explanation)
			assert.Equal(t, NameSeverityMatch, got.RuleName)
			assert.Equal(t, DefaultWeight, got.Weight)
		})
	}
}

func TestPolicyAmount(t *testing.T) {
	rule := NewPolicyAmount(DefaultConfig().PolicyAmount)

	tests := []struct {
		name   string
		amount models.Money
		want   models.Outcome
	}{
		{"well within limit", models.Dollars(12345), models.OutcomePass},
		{"exactly at limit", models.Dollars(50000), models.OutcomePass},
		{"just over limit", models.Dollars(50000) + 1, models.OutcomeWarn},
		{"exactly 110 percent", models.Dollars(55000), models.OutcomeWarn},
		{"just over 110 percent", models.Dollars(55000) + 1, models.OutcomeFail},
		{"60k against 50k", models.Dollars(60000), models.OutcomeFail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rule.Check(Input{
				Claim:  claimWith(func(c *models.Claim) { c.ClaimedAmount = tt.amount }),
				Policy: policy(),
			})
			assert.Equal(t, tt.want, got.Outcome, got.Explanation)
			require.NotNil(t, got.Measured)
		})
	}

	t.Run("missing policy warns", func(t *testing.T) {
		got := rule.Check(Input{Claim: claimWith(nil)})
		assert.Equal(t, models.OutcomeWarn, got.Outcome)
		assert.Contains(t, got.Explanation, "insufficient data")
	})

	t.Run("large amounts at the widest warn ratio", func(t *testing.T) {
		cfg := DefaultConfig().PolicyAmount
		cfg.WarnRatio = 10
		wide := NewPolicyAmount(cfg)
		p := policy()
		p.CoverageLimit = models.Dollars(1_000_000_000_000)

		for _, tt := range []struct {
			amount models.Money
			want   models.Outcome
		}{
			{p.CoverageLimit + 1, models.OutcomeWarn},
			{p.CoverageLimit * 10, models.OutcomeWarn},
			{p.CoverageLimit*10 + 1, models.OutcomeFail},
		} {
			got := wide.Check(Input{
				Claim:  claimWith(func(c *models.Claim) { c.ClaimedAmount = tt.amount }),
				Policy: p,
			})
			assert.Equal(t, tt.want, got.Outcome, "amount %s: %s", tt.amount, got.Explanation)
		}
	})

	t.Run("zero coverage fails any positive amount", func(t *testing.T) {
		p := policy()
		p.CoverageLimit = 0
		got := rule.Check(Input{Claim: claimWith(nil), Policy: p})
		assert.Equal(t, models.OutcomeFail, got.Outcome)
	})
}

func TestPolicyActive(t *testing.T) {
	rule := NewPolicyActive(DefaultConfig().PolicyActive)

	t.Run("inside window passes", func(t *testing.T) {
		got := rule.Check(Input{Claim: claimWith(nil), Policy: policy()})
		assert.Equal(t, models.OutcomePass, got.Outcome)
		assert.True(t, got.Hard)
	})

	t.Run("outside window fails", func(t *testing.T) {
		got := rule.Check(Input{
			Claim:  claimWith(func(c *models.Claim) { c.IncidentDate = time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC) }),
			Policy: policy(),
		})
		assert.Equal(t, models.OutcomeFail, got.Outcome)
		assert.Contains(t, got.Explanation, "outside validity window")
	})

	t.Run("missing policy warns rather than fails", func(t *testing.T) {
		got := rule.Check(Input{Claim: claimWith(nil)})
		assert.Equal(t, models.OutcomeWarn, got.Outcome)
	})

	t.Run("status decides before the window", func(t *testing.T) {
		for status, want := range map[models.PolicyStatus]models.Outcome{
			models.PolicyActive:    models.OutcomePass,
			models.PolicyExpired:   models.OutcomePass,
			models.PolicyCancelled: models.OutcomeFail,
			"suspended":            models.OutcomeFail,
			"":                     models.OutcomeFail,
		} {
			p := policy()
			p.Status = status
			got := rule.Check(Input{Claim: claimWith(nil), Policy: p})
			assert.Equal(t, want, got.Outcome, "status %q: %s", status, got.Explanation)
		}
	})
}

func TestContextRule(t *testing.T) {
	rule := NewContextRule(DefaultConfig().Context[0])

	speed := func(observed, limit float64) models.Claim {
		return claimWith(func(c *models.Claim) {
			c.Signals = []models.ContextSignal{{Name: "speed", Observed: observed, Limit: limit, Unit: "mph"}}
		})
	}

	tests := []struct {
		name  string
		claim models.Claim
		want  models.Outcome
	}{
		{"no signal", claimWith(nil), models.OutcomePass},
		{"under limit", speed(30, 35), models.OutcomePass},
		{"within tolerance", speed(40, 35), models.OutcomePass},
		{"44 in 35 zone", speed(44, 35), models.OutcomeWarn},
		{"at margin edge", speed(55, 35), models.OutcomeWarn},
		{"beyond margin", speed(56, 35), models.OutcomeFail},
		{"malformed", speed(-1, 35), models.OutcomeWarn},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rule.Check(Input{Claim: tt.claim})
			assert.Equal(t, tt.want, got.Outcome, got.Explanation)
			assert.Equal(t, "speed_check", got.RuleName)
		})
	}

	t.Run("explanation carries the reading", func(t *testing.T) {
		got := rule.Check(Input{Claim: speed(44, 35)})
		assert.Equal(t, "44mph in 35mph zone", got.Explanation)
		require.NotNil(t, got.Measured)
		assert.Equal(t, 9.0, *got.Measured)
	})
}

func TestConfigBuild(t *testing.T) {
	t.Run("default registry order", func(t *testing.T) {
		built, err := DefaultConfig().Build()
		require.NoError(t, err)
		names := make([]string, len(built))
		for i, r := range built {
			names[i] = r.Name()
		}
		assert.Equal(t, []string{NameSeverityMatch, NamePolicyAmount, NamePolicyActive, "speed_check"}, names)
	})

	t.Run("rejects invalid configuration", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.PolicyAmount.Weight = 150
		cfg.PolicyAmount.WarnRatio = 0.5
		cfg.Context = append(cfg.Context, ContextRuleConfig{Name: NamePolicyActive, Signal: "x"})
		_, err := cfg.Build()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "weight")
		assert.Contains(t, err.Error(), "warn_ratio")
		assert.Contains(t, err.Error(), "duplicate")
	})
}
