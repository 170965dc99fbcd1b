package rules

import (
	"fmt"
	"math"

	"claimguard/internal/claims/models"
)

// ContextRuleConfig configures a telemetry-derived check. The rule reads the
// claim signal named Signal and compares observed against limit: an excess up to
// Tolerance passes, up to Tolerance+Margin warns, beyond that fails.
type ContextRuleConfig struct {
	Settings  `mapstructure:",squash" yaml:",inline"`
	Name      string  `mapstructure:"name" yaml:"name"`
	Signal    string  `mapstructure:"signal" yaml:"signal"`
	Tolerance float64 `mapstructure:"tolerance" yaml:"tolerance"`
	Margin    float64 `mapstructure:"margin" yaml:"margin"`
}

func (c ContextRuleConfig) validate() error {
	if c.Name == "" {
		return fmt.Errorf("context rule: name is required")
	}
	if c.Signal == "" {
		return fmt.Errorf("context rule %s: signal is required", c.Name)
	}
	if c.Tolerance < 0 || c.Margin < 0 {
		return fmt.Errorf("context rule %s: tolerance and margin must not be negative", c.Name)
	}
	return c.Settings.validate(c.Name)
}

// ContextRule is a configurable telemetry anomaly check such as the speed check.
type ContextRule struct {
	cfg ContextRuleConfig
}

func NewContextRule(cfg ContextRuleConfig) *ContextRule {
	return &ContextRule{cfg: cfg}
}

func (r *ContextRule) Name() string { return r.cfg.Name }

func (r *ContextRule) Description() string {
	return fmt.Sprintf("%s signal stays within tolerance", r.cfg.Signal)
}

func (r *ContextRule) Check(in Input) models.RuleCheckResult {
	sig, ok := in.Claim.Signal(r.cfg.Signal)
	if !ok {
		return result(r.Name(), r.cfg.Settings, models.OutcomePass, "no "+r.cfg.Signal+" anomaly signal", nil)
	}
	if math.IsNaN(sig.Observed) || math.IsNaN(sig.Limit) || sig.Limit < 0 || sig.Observed < 0 {
		return result(r.Name(), r.cfg.Settings, models.OutcomeWarn, insufficientData+": malformed "+r.cfg.Signal+" signal", nil)
	}

	excess := sig.Observed - sig.Limit
	reading := fmt.Sprintf("%s in %s zone", formatReading(sig.Observed, sig.Unit), formatReading(sig.Limit, sig.Unit))
	switch {
	case excess <= r.cfg.Tolerance:
		return result(r.Name(), r.cfg.Settings, models.OutcomePass, reading, ptr(excess))
	case excess <= r.cfg.Tolerance+r.cfg.Margin:
		return result(r.Name(), r.cfg.Settings, models.OutcomeWarn, reading, ptr(excess))
	default:
		return result(r.Name(), r.cfg.Settings, models.OutcomeFail, reading, ptr(excess))
	}
}

func formatReading(v float64, unit string) string {
	return fmt.Sprintf("%g%s", v, unit)
}
