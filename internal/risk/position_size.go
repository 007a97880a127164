// Package risk provides position sizing and risk measurement helpers.
package risk

import (
	"math"

	"github.com/IvanHuYY/Stockbot/internal/utils"
	"github.com/IvanHuYY/Stockbot/pkg/errors"
)

// PositionSizeResult is the outcome of sizing a position by the risk it puts on the account.
type PositionSizeResult struct {
	Shares        int64   `json:"shares" yaml:"shares"`
	PositionValue float64 `json:"position_value" yaml:"position_value"`
	PositionPct   float64 `json:"position_pct" yaml:"position_pct"`
	RiskAmount    float64 `json:"risk_amount" yaml:"risk_amount"`
	RiskPerShare  float64 `json:"risk_per_share" yaml:"risk_per_share"`
}

// PositionSize returns the number of shares whose loss at the stop equals equity × riskPct.
func PositionSize(equity float64, riskPct float64, entry float64, stop float64) (PositionSizeResult, error) {
	riskAmount := equity * riskPct
	priceRisk := math.Abs(entry - stop)

	if priceRisk == 0 {
		return PositionSizeResult{}, errors.New(errors.ErrCodeInvalidRiskInput, "entry price equals stop loss price")
	}

	shares := int64(math.Floor(riskAmount / priceRisk))
	positionValue := float64(shares) * entry

	positionPct := 0.0
	if equity > 0 {
		positionPct = positionValue / equity
	}

	return PositionSizeResult{
		Shares:        shares,
		PositionValue: utils.Round(positionValue, 2),
		PositionPct:   utils.Round(positionPct, 4),
		RiskAmount:    utils.Round(riskAmount, 2),
		RiskPerShare:  utils.Round(priceRisk, 2),
	}, nil
}
