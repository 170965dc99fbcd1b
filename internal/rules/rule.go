// Package rules holds the claim adjudication checks. Each rule is a pure
// function of the claim, the policy record and the vision assessment; the
// decision engine owns ordering, concurrency and aggregation.
package rules

import (
	"fmt"

	"claimguard/internal/claims/models"
)

// Built-in rule names, in their fixed evaluation order.
const (
	NameSeverityMatch = "severity_match"
	NamePolicyAmount  = "policy_amount"
	NamePolicyActive  = "policy_active"
)

const insufficientData = "insufficient data"

// Input is everything a rule may look at. Policy and Vision are nil when the
// external collaborator could not provide them.
type Input struct {
	Claim  models.Claim
	Policy *models.PolicyRecord
	Vision *models.VisionAssessment
}

// Rule is the common check contract. Check must be total: it returns a result
// for every well-formed input and never blocks.
type Rule interface {
	Name() string
	Description() string
	Check(in Input) models.RuleCheckResult
}

// Settings are the aggregation knobs every rule carries.
type Settings struct {
	Weight int  `mapstructure:"weight" yaml:"weight"`
	Hard   bool `mapstructure:"hard" yaml:"hard"`
}

func (s Settings) validate(name string) error {
	if s.Weight < 0 || s.Weight > 100 {
		return fmt.Errorf("rule %s: weight must be within [0,100], got %d", name, s.Weight)
	}
	return nil
}

// result builds a check result stamped with the rule's settings.
func result(name string, s Settings, outcome models.Outcome, explanation string, measured *float64) models.RuleCheckResult {
	return models.RuleCheckResult{
		RuleName:    name,
		Outcome:     outcome,
		Explanation: explanation,
		Measured:    measured,
		Weight:      s.Weight,
		Hard:        s.Hard,
	}
}

func ptr(v float64) *float64 {
	return &v
}
