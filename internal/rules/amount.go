package rules

import (
	"fmt"
	"math"
	"math/big"

	"claimguard/internal/claims/models"
)

// PolicyAmountConfig configures the coverage limit check. WarnRatio is the
// multiple of the limit up to which an overrun only warns.
type PolicyAmountConfig struct {
	Settings  `mapstructure:",squash" yaml:",inline"`
	WarnRatio float64 `mapstructure:"warn_ratio" yaml:"warn_ratio"`
}

// PolicyAmount compares the claimed amount with the policy coverage limit.
type PolicyAmount struct {
	cfg PolicyAmountConfig
	// warnBasisPoints is WarnRatio in 1/10000ths so comparisons stay integral.
	warnBasisPoints int64
}

func NewPolicyAmount(cfg PolicyAmountConfig) *PolicyAmount {
	return &PolicyAmount{cfg: cfg, warnBasisPoints: int64(math.Round(cfg.WarnRatio * 10000))}
}

func (r *PolicyAmount) Name() string { return NamePolicyAmount }

func (r *PolicyAmount) Description() string {
	return "claimed amount is within the policy coverage limit"
}

func (r *PolicyAmount) Check(in Input) models.RuleCheckResult {
	if in.Policy == nil {
		return result(r.Name(), r.cfg.Settings, models.OutcomeWarn, insufficientData+": policy record unavailable", nil)
	}
	amount := in.Claim.ClaimedAmount
	limit := in.Policy.CoverageLimit
	if limit <= 0 {
		if amount == 0 {
			return result(r.Name(), r.cfg.Settings, models.OutcomePass, "nothing claimed", nil)
		}
		return result(r.Name(), r.cfg.Settings, models.OutcomeFail, "policy carries no coverage", nil)
	}

	ratio := ptr(amount.Ratio(limit))
	switch {
	case amount <= limit:
		return result(r.Name(), r.cfg.Settings, models.OutcomePass,
			fmt.Sprintf("within limit ($%s of $%s)", amount, limit), ratio)
	case r.withinWarnBand(amount, limit):
		return result(r.Name(), r.cfg.Settings, models.OutcomeWarn,
			fmt.Sprintf("exceeds limit $%s by less than %.0f%%", limit, (r.cfg.WarnRatio-1)*100), ratio)
	default:
		return result(r.Name(), r.cfg.Settings, models.OutcomeFail,
			fmt.Sprintf("$%s exceeds %.0f%% of limit $%s", amount, r.cfg.WarnRatio*100, limit), ratio)
	}
}

// withinWarnBand reports amount*10000 <= limit*warnBasisPoints. The products
// leave int64 range for amounts near the parse ceiling, so they are taken in
// big.Int.
func (r *PolicyAmount) withinWarnBand(amount, limit models.Money) bool {
	lhs := new(big.Int).Mul(big.NewInt(int64(amount)), big.NewInt(10000))
	rhs := new(big.Int).Mul(big.NewInt(int64(limit)), big.NewInt(r.warnBasisPoints))
	return lhs.Cmp(rhs) <= 0
}
