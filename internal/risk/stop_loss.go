package risk

import (
	"github.com/IvanHuYY/Stockbot/internal/utils"
	"github.com/IvanHuYY/Stockbot/pkg/errors"
)

// StopMethod selects how the stop distance is derived.
type StopMethod string

const (
	// StopMethodATR places the stop a multiple of the ATR below the entry.
	StopMethodATR StopMethod = "atr"
	// StopMethodPercentage places the stop a fixed fraction below the entry.
	StopMethodPercentage StopMethod = "percentage"
)

// RewardRiskRatio is the take-profit distance as a multiple of the stop distance.
const RewardRiskRatio = 2.0

// StopLossResult holds the protective levels of a long position.
type StopLossResult struct {
	StopLoss        float64 `json:"stop_loss" yaml:"stop_loss"`
	TakeProfit      float64 `json:"take_profit" yaml:"take_profit"`
	StopDistance    float64 `json:"stop_distance" yaml:"stop_distance"`
	StopDistancePct float64 `json:"stop_distance_pct" yaml:"stop_distance_pct"`
	RiskRewardRatio float64 `json:"risk_reward_ratio" yaml:"risk_reward_ratio"`
}

// StopLoss computes stop-loss and take-profit levels with a 2:1 reward to risk.
// multiplier applies to the ATR method and pct to the percentage method.
func StopLoss(entry float64, atr float64, method StopMethod, multiplier float64, pct float64) (StopLossResult, error) {
	if entry <= 0 {
		return StopLossResult{}, errors.Newf(errors.ErrCodeInvalidRiskInput, "entry price must be positive, got %v", entry)
	}

	var stopDistance float64

	switch method {
	case StopMethodATR:
		stopDistance = atr * multiplier
	case StopMethodPercentage:
		stopDistance = entry * pct
	default:
		return StopLossResult{}, errors.Newf(errors.ErrCodeInvalidRiskInput, "unknown stop method %q", method)
	}

	takeProfitDistance := stopDistance * RewardRiskRatio

	riskReward := 0.0
	if stopDistance > 0 {
		riskReward = takeProfitDistance / stopDistance
	}

	return StopLossResult{
		StopLoss:        utils.Round(entry-stopDistance, 2),
		TakeProfit:      utils.Round(entry+takeProfitDistance, 2),
		StopDistance:    utils.Round(stopDistance, 2),
		StopDistancePct: utils.Round(stopDistance/entry*100, 2),
		RiskRewardRatio: utils.Round(riskReward, 2),
	}, nil
}
