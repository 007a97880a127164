package engine

import (
	"time"

	"github.com/IvanHuYY/Stockbot/internal/risk"
	"github.com/IvanHuYY/Stockbot/internal/types"
	"github.com/IvanHuYY/Stockbot/internal/version"
)

// BacktestResult is the complete output of one backtest run.
type BacktestResult struct {
	// ID is the unique identifier for this run.
	ID          string                 `yaml:"id" json:"id"`
	Config      BacktestConfig         `yaml:"config" json:"config"`
	EquityCurve []types.EquityPoint    `yaml:"equity_curve" json:"equity_curve"`
	Trades      []types.TradeRecord    `yaml:"trades" json:"trades"`
	Metrics     types.Metrics          `yaml:"metrics" json:"metrics"`
	SignalsLog  []types.SignalLogEntry `yaml:"signals_log" json:"signals_log"`
	Risk        RiskReport             `yaml:"risk" json:"risk"`
}

// VaRConfidence is the confidence of the one-day value-at-risk in RiskReport.
const VaRConfidence = 0.95

// RiskReport is the risk carried by the portfolio when the run ends.
type RiskReport struct {
	// ValueAtRisk is nil when the equity curve has fewer than risk.MinVaRObservations returns.
	ValueAtRisk *risk.VaRResult     `yaml:"value_at_risk,omitempty" json:"value_at_risk,omitempty"`
	Exposure    risk.ExposureResult `yaml:"exposure" json:"exposure"`
}

// NewRiskReport estimates the one-day VaR of the daily equity returns and attaches the final exposure.
func NewRiskReport(equity []types.EquityPoint, exposure risk.ExposureResult) RiskReport {
	report := RiskReport{
		ValueAtRisk: nil,
		Exposure:    exposure,
	}

	returns := make([]float64, 0, len(equity))
	for i := 1; i < len(equity); i++ {
		if equity[i-1].Equity == 0 {
			continue
		}

		returns = append(returns, equity[i].Equity/equity[i-1].Equity-1)
	}

	if len(returns) < risk.MinVaRObservations {
		return report
	}

	if value, err := risk.ValueAtRisk(returns, VaRConfidence); err == nil {
		report.ValueAtRisk = &value
	}

	return report
}

// NewEmptyResult returns the result of a run that had no data to replay.
func NewEmptyResult(id string, config BacktestConfig) BacktestResult {
	return BacktestResult{
		ID:          id,
		Config:      config,
		EquityCurve: []types.EquityPoint{},
		Trades:      []types.TradeRecord{},
		Metrics:     types.Metrics{},
		SignalsLog:  []types.SignalLogEntry{},
		Risk:        NewRiskReport(nil, risk.PortfolioExposure(nil)),
	}
}

// IsEmpty reports whether the run processed no trading dates.
func (r BacktestResult) IsEmpty() bool {
	return len(r.EquityCurve) == 0
}

// FinalEquity is the last point of the equity curve, or the initial capital when the curve is empty.
func (r BacktestResult) FinalEquity() float64 {
	if len(r.EquityCurve) == 0 {
		return r.Config.InitialCapital
	}

	return r.EquityCurve[len(r.EquityCurve)-1].Equity
}

// Stats summarizes the result for stats.yaml.
func (r BacktestResult) Stats(timestamp time.Time) types.BacktestStats {
	return types.BacktestStats{
		ID:             r.ID,
		Timestamp:      timestamp,
		Strategy:       r.Config.StrategyName,
		Symbols:        r.Config.Symbols,
		InitialCapital: r.Config.InitialCapital,
		FinalEquity:    r.FinalEquity(),
		EngineVersion:  version.GetVersion(),
		Metrics:        r.Metrics,
	}
}
