package strategy

import (
	"math"
	"sort"
	"strings"

	"github.com/IvanHuYY/Stockbot/internal/indicator"
	"github.com/IvanHuYY/Stockbot/internal/types"
	"github.com/IvanHuYY/Stockbot/internal/utils"
)

// actionThreshold is the absolute score a signal must exceed to become buy or sell.
const actionThreshold = 0.3

const reasonInsufficientData = "Insufficient data"

// scoreToSignal clips the score to [-1, 1] and maps it to an action.
func scoreToSignal(symbol string, score float64, threshold float64, reasons []string, fallback string) types.Signal {
	score = utils.Clip(score, -1, 1)

	action := types.SignalActionHold

	switch {
	case score > threshold:
		action = types.SignalActionBuy
	case score < -threshold:
		action = types.SignalActionSell
	}

	reason := fallback
	if len(reasons) > 0 {
		reason = strings.Join(reasons, "; ")
	}

	return types.Signal{
		Symbol:   symbol,
		Action:   action,
		Strength: math.Abs(score),
		Reason:   reason,
	}
}

func sortedSymbols(data map[string][]types.Bar) []string {
	symbols := make([]string, 0, len(data))
	for symbol := range data {
		symbols = append(symbols, symbol)
	}

	sort.Strings(symbols)

	return symbols
}

// ensureIndicators computes the feature columns when the series was passed in raw.
func ensureIndicators(bars []types.Bar) []types.Bar {
	last := bars[len(bars)-1]
	if _, ok := last.Indicators[types.ColumnRSI14]; ok {
		return bars
	}

	enriched, err := indicator.NewFeatureEngineer(nil).ComputeAll(bars)
	if err != nil {
		return bars
	}

	return enriched
}
