package config

import (
	"fmt"

	"github.com/mrbarnaclebot-ux/ClaudeWheel-sub002/domain"
)

// ValidateTokenConfig checks the structural invariants a TokenConfig must
// satisfy before the flywheel scheduler will trade it (§7 CONFIG_INVALID).
// A violation means the operator stored a config that can never yield a
// sane trade, not a transient condition — the caller deactivates the
// token rather than retrying it next tick.
func ValidateTokenConfig(cfg domain.TokenConfig) error {
	if cfg.BuyPercent < 1 || cfg.BuyPercent > 100 {
		return domain.NewClassifiedError(domain.KindConfigInvalid, fmt.Sprintf("buyPercent %d out of range [1,100]", cfg.BuyPercent), nil)
	}
	if cfg.SlippageBps < 0 {
		return domain.NewClassifiedError(domain.KindConfigInvalid, fmt.Sprintf("slippageBps %d is negative", cfg.SlippageBps), nil)
	}

	switch cfg.AlgorithmMode {
	case domain.ModeSimple:
		if cfg.NBuy <= 0 || cfg.NSell <= 0 {
			return domain.NewClassifiedError(domain.KindConfigInvalid, fmt.Sprintf("simple mode requires nBuy/nSell > 0, got %d/%d", cfg.NBuy, cfg.NSell), nil)
		}
	case domain.ModeRebalance:
		if cfg.TargetSolAllocation < 0 || cfg.TargetSolAllocation > 100 {
			return domain.NewClassifiedError(domain.KindConfigInvalid, fmt.Sprintf("targetSolAllocation %d out of range [0,100]", cfg.TargetSolAllocation), nil)
		}
		if cfg.TargetTokenAllocation < 0 || cfg.TargetTokenAllocation > 100 {
			return domain.NewClassifiedError(domain.KindConfigInvalid, fmt.Sprintf("targetTokenAllocation %d out of range [0,100]", cfg.TargetTokenAllocation), nil)
		}
	}

	return nil
}
