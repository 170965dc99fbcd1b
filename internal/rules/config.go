package rules

import (
	"errors"
	"fmt"
)

// Config is the rule registry configuration. Context rules are registered after
// the built-ins, in the order listed.
type Config struct {
	SeverityMatch SeverityMatchConfig `mapstructure:"severity_match" yaml:"severity_match"`
	PolicyAmount  PolicyAmountConfig  `mapstructure:"policy_amount" yaml:"policy_amount"`
	PolicyActive  Settings            `mapstructure:"policy_active" yaml:"policy_active"`
	Context       []ContextRuleConfig `mapstructure:"context" yaml:"context"`
}

// DefaultWeight is the weight a rule contributes on Fail; Warn contributes half.
const DefaultWeight = 40

// DefaultConfig returns the stock registry: policy_active is the only hard
// rule and the speed check tolerates 5 units with a 15 unit warn margin.
func DefaultConfig() Config {
	return Config{
		SeverityMatch: SeverityMatchConfig{
			Settings:      Settings{Weight: DefaultWeight},
			MinConfidence: 0.6,
		},
		PolicyAmount: PolicyAmountConfig{
			Settings:  Settings{Weight: DefaultWeight},
			WarnRatio: 1.10,
		},
		PolicyActive: Settings{Weight: DefaultWeight, Hard: true},
		Context: []ContextRuleConfig{
			{
				Settings:  Settings{Weight: DefaultWeight},
				Name:      "speed_check",
				Signal:    "speed",
				Tolerance: 5,
				Margin:    15,
			},
		},
	}
}

// Validate checks weights, thresholds and name uniqueness.
func (c Config) Validate() error {
	var errs []error
	if err := c.SeverityMatch.validate(NameSeverityMatch); err != nil {
		errs = append(errs, err)
	}
	if c.SeverityMatch.MinConfidence < 0 || c.SeverityMatch.MinConfidence > 1 {
		errs = append(errs, fmt.Errorf("rule %s: min_confidence must be within [0,1]", NameSeverityMatch))
	}
	if err := c.PolicyAmount.validate(NamePolicyAmount); err != nil {
		errs = append(errs, err)
	}
	if c.PolicyAmount.WarnRatio < 1 || c.PolicyAmount.WarnRatio > 10 {
		errs = append(errs, fmt.Errorf("rule %s: warn_ratio must be within [1,10]", NamePolicyAmount))
	}
	if err := c.PolicyActive.validate(NamePolicyActive); err != nil {
		errs = append(errs, err)
	}

	seen := map[string]bool{NameSeverityMatch: true, NamePolicyAmount: true, NamePolicyActive: true}
	for _, cr := range c.Context {
		if err := cr.validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		if seen[cr.Name] {
			errs = append(errs, fmt.Errorf("rule %s: duplicate rule name", cr.Name))
		}
		seen[cr.Name] = true
	}
	return errors.Join(errs...)
}

// Build validates the configuration and returns the rules in registration order.
func (c Config) Build() ([]Rule, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	out := []Rule{
		NewSeverityMatch(c.SeverityMatch),
		NewPolicyAmount(c.PolicyAmount),
		NewPolicyActive(c.PolicyActive),
	}
	for _, cr := range c.Context {
		out = append(out, NewContextRule(cr))
	}
	return out, nil
}
