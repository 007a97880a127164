package comparison

import (
	"sort"

	engine "github.com/IvanHuYY/Stockbot/internal/backtest/engine/engine_v1"
	"github.com/IvanHuYY/Stockbot/internal/types"
)

// ComparisonReport lines up the metrics of several backtest results.
type ComparisonReport struct {
	// StrategyNames are the compared result names, sorted.
	StrategyNames []string `yaml:"strategy_names" json:"strategy_names"`
	// MetricsTable maps each name to the metrics of its result.
	MetricsTable map[string]types.Metrics `yaml:"metrics_table" json:"metrics_table"`
	// Ranking orders the names by Sharpe ratio, best first. Ties keep name order.
	Ranking []string `yaml:"ranking" json:"ranking"`
}

// Best returns the top ranked name, or an empty string for an empty report.
func (r ComparisonReport) Best() string {
	if len(r.Ranking) == 0 {
		return ""
	}

	return r.Ranking[0]
}

// StrategyComparator compares backtest results side by side.
type StrategyComparator struct{}

func NewStrategyComparator() *StrategyComparator {
	return &StrategyComparator{}
}

// Compare builds a report over results keyed by strategy name.
func (c *StrategyComparator) Compare(results map[string]engine.BacktestResult) ComparisonReport {
	names := make([]string, 0, len(results))
	table := make(map[string]types.Metrics, len(results))

	for name, result := range results {
		names = append(names, name)
		table[name] = result.Metrics
	}

	sort.Strings(names)

	ranking := make([]string, len(names))
	copy(ranking, names)
	sort.SliceStable(ranking, func(i, j int) bool {
		return table[ranking[i]].SharpeRatio > table[ranking[j]].SharpeRatio
	})

	return ComparisonReport{
		StrategyNames: names,
		MetricsTable:  table,
		Ranking:       ranking,
	}
}

// NormalizedCurves rescales every equity curve to start at 1.0 so curves with
// different capital can be overlaid. Empty curves and curves starting at zero are left out.
func (c *StrategyComparator) NormalizedCurves(results map[string]engine.BacktestResult) map[string][]types.EquityPoint {
	curves := make(map[string][]types.EquityPoint, len(results))

	for name, result := range results {
		if len(result.EquityCurve) == 0 || result.EquityCurve[0].Equity == 0 {
			continue
		}

		base := result.EquityCurve[0].Equity
		normalized := make([]types.EquityPoint, len(result.EquityCurve))

		for i, point := range result.EquityCurve {
			normalized[i] = types.EquityPoint{Date: point.Date, Equity: point.Equity / base}
		}

		curves[name] = normalized
	}

	return curves
}
