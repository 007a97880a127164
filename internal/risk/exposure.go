package risk

import (
	"math"
	"sort"

	"github.com/IvanHuYY/Stockbot/internal/utils"
)

// Concentration buckets the weight of the largest position.
type Concentration string

const (
	ConcentrationNone     Concentration = "none"
	ConcentrationLow      Concentration = "low"
	ConcentrationModerate Concentration = "moderate"
	ConcentrationHigh     Concentration = "high"
)

const (
	highConcentrationWeight     = 0.3
	moderateConcentrationWeight = 0.15
)

// PositionValue is a held position valued at market.
type PositionValue struct {
	Symbol        string  `json:"symbol" yaml:"symbol"`
	MarketValue   float64 `json:"market_value" yaml:"market_value"`
	UnrealizedPnL float64 `json:"unrealized_pnl" yaml:"unrealized_pnl"`
}

// PositionWeight is one line of the exposure breakdown.
type PositionWeight struct {
	Symbol        string  `json:"symbol" yaml:"symbol"`
	MarketValue   float64 `json:"market_value" yaml:"market_value"`
	Weight        float64 `json:"weight" yaml:"weight"`
	UnrealizedPnL float64 `json:"unrealized_pnl" yaml:"unrealized_pnl"`
}

// ExposureResult summarizes how the portfolio value is spread across positions.
type ExposureResult struct {
	TotalExposure     float64          `json:"total_exposure" yaml:"total_exposure"`
	NumPositions      int              `json:"num_positions" yaml:"num_positions"`
	Positions         []PositionWeight `json:"positions" yaml:"positions"`
	MaxPositionWeight float64          `json:"max_position_weight" yaml:"max_position_weight"`
	ConcentrationRisk Concentration    `json:"concentration_risk" yaml:"concentration_risk"`
}

// PortfolioExposure weights each position by its absolute market value, heaviest first.
func PortfolioExposure(positions []PositionValue) ExposureResult {
	if len(positions) == 0 {
		return ExposureResult{
			Positions:         []PositionWeight{},
			ConcentrationRisk: ConcentrationNone,
		}
	}

	total := 0.0
	for _, position := range positions {
		total += math.Abs(position.MarketValue)
	}

	weights := make([]PositionWeight, 0, len(positions))

	for _, position := range positions {
		value := math.Abs(position.MarketValue)

		weight := 0.0
		if total > 0 {
			weight = utils.Round(value/total, 4)
		}

		weights = append(weights, PositionWeight{
			Symbol:        position.Symbol,
			MarketValue:   utils.Round(value, 2),
			Weight:        weight,
			UnrealizedPnL: utils.Round(position.UnrealizedPnL, 2),
		})
	}

	sort.SliceStable(weights, func(i, j int) bool {
		return weights[i].Weight > weights[j].Weight
	})

	maxWeight := weights[0].Weight

	concentration := ConcentrationLow

	switch {
	case maxWeight > highConcentrationWeight:
		concentration = ConcentrationHigh
	case maxWeight > moderateConcentrationWeight:
		concentration = ConcentrationModerate
	}

	return ExposureResult{
		TotalExposure:     utils.Round(total, 2),
		NumPositions:      len(positions),
		Positions:         weights,
		MaxPositionWeight: maxWeight,
		ConcentrationRisk: concentration,
	}
}
