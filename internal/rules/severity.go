package rules

import (
	"fmt"

	"claimguard/internal/claims/models"
)

// SeverityMatchConfig configures the self-report vs. vision comparison.
type SeverityMatchConfig struct {
	Settings      `mapstructure:",squash" yaml:",inline"`
	MinConfidence float64 `mapstructure:"min_confidence" yaml:"min_confidence"`
}

// SeverityMatch compares the claimant's severity with the vision model's label.
// Under-reporting by two or more steps is a fraud signal and fails; over-reporting
// by two or more steps only warns.
type SeverityMatch struct {
	cfg SeverityMatchConfig
}

func NewSeverityMatch(cfg SeverityMatchConfig) *SeverityMatch {
	return &SeverityMatch{cfg: cfg}
}

func (r *SeverityMatch) Name() string { return NameSeverityMatch }

func (r *SeverityMatch) Description() string {
	return "self-reported severity agrees with the image assessment"
}

func (r *SeverityMatch) Check(in Input) models.RuleCheckResult {
	if in.Vision == nil {
		return result(r.Name(), r.cfg.Settings, models.OutcomeWarn, insufficientData+": no image assessment", nil)
	}
	reported := in.Claim.ReportedSeverity.Rank()
	detected := in.Vision.Severity.Rank()
	if reported < 0 || detected < 0 {
		return result(r.Name(), r.cfg.Settings, models.OutcomeWarn, insufficientData+": unknown severity label", nil)
	}

	confidence := ptr(in.Vision.Confidence)
	if in.Vision.Confidence < r.cfg.MinConfidence {
		return result(r.Name(), r.cfg.Settings, models.OutcomeWarn,
			fmt.Sprintf("assessment confidence %.0f%% below %.0f%%", in.Vision.Confidence*100, r.cfg.MinConfidence*100),
			confidence)
	}

	diff := detected - reported
	switch {
	case diff >= 2:
		return result(r.Name(), r.cfg.Settings, models.OutcomeFail,
			fmt.Sprintf("reported %s but image shows %s: under-reported by %d steps", in.Claim.ReportedSeverity, in.Vision.Severity, diff),
			confidence)
	case diff <= -2:
		return result(r.Name(), r.cfg.Settings, models.OutcomeWarn,
			fmt.Sprintf("reported %s but image shows %s: over-reported by %d steps", in.Claim.ReportedSeverity, in.Vision.Severity, -diff),
			confidence)
	case diff == 0:
		return result(r.Name(), r.cfg.Settings, models.OutcomePass,
			fmt.Sprintf("image matches reported %s", in.Claim.ReportedSeverity), confidence)
	default:
		return result(r.Name(), r.cfg.Settings, models.OutcomePass,
			fmt.Sprintf("image shows %s, adjacent to reported %s", in.Vision.Severity, in.Claim.ReportedSeverity), confidence)
	}
}
