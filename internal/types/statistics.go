package types

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// MetricNames lists the metrics table keys in display order.
var MetricNames = []string{
	"total_return",
	"annualized_return",
	"annualized_volatility",
	"sharpe_ratio",
	"sortino_ratio",
	"max_drawdown",
	"max_drawdown_duration_days",
	"calmar_ratio",
	"win_rate",
	"profit_factor",
	"avg_win",
	"avg_loss",
	"avg_win_loss_ratio",
	"num_trades",
	"exposure_time",
	"alpha",
	"beta",
	"information_ratio",
}

// Metrics is the performance metrics table of a backtest run.
type Metrics struct {
	// Total return of the equity curve. last/first - 1.
	TotalReturn float64 `yaml:"total_return" json:"total_return"`
	// Annualized return using 252 trading days per year.
	AnnualizedReturn float64 `yaml:"annualized_return" json:"annualized_return"`
	// Sample standard deviation of daily returns scaled by sqrt(252).
	AnnualizedVolatility float64 `yaml:"annualized_volatility" json:"annualized_volatility"`
	SharpeRatio          float64 `yaml:"sharpe_ratio" json:"sharpe_ratio"`
	SortinoRatio         float64 `yaml:"sortino_ratio" json:"sortino_ratio"`
	// Most negative drawdown of the cumulative return. Always <= 0.
	MaxDrawdown float64 `yaml:"max_drawdown" json:"max_drawdown"`
	// Longest run of consecutive trading days spent below a previous peak.
	MaxDrawdownDurationDays int     `yaml:"max_drawdown_duration_days" json:"max_drawdown_duration_days"`
	CalmarRatio             float64 `yaml:"calmar_ratio" json:"calmar_ratio"`
	// Fraction of exits with a positive pnl.
	WinRate float64 `yaml:"win_rate" json:"win_rate"`
	// Gross profit / gross loss, capped at 999 for display.
	ProfitFactor float64 `yaml:"profit_factor" json:"profit_factor"`
	AvgWin       float64 `yaml:"avg_win" json:"avg_win"`
	AvgLoss      float64 `yaml:"avg_loss" json:"avg_loss"`
	// |avg win / avg loss|, capped at 999 for display.
	AvgWinLossRatio  float64 `yaml:"avg_win_loss_ratio" json:"avg_win_loss_ratio"`
	NumTrades        int     `yaml:"num_trades" json:"num_trades"`
	ExposureTime     float64 `yaml:"exposure_time" json:"exposure_time"`
	Alpha            float64 `yaml:"alpha" json:"alpha"`
	Beta             float64 `yaml:"beta" json:"beta"`
	InformationRatio float64 `yaml:"information_ratio" json:"information_ratio"`

	// Uncapped ratios. +Inf when there is no loss to divide by.
	ProfitFactorRaw    float64 `yaml:"-" json:"-"`
	AvgWinLossRatioRaw float64 `yaml:"-" json:"-"`
}

// Table returns the metrics keyed by name.
func (m Metrics) Table() map[string]float64 {
	return map[string]float64{
		"total_return":               m.TotalReturn,
		"annualized_return":          m.AnnualizedReturn,
		"annualized_volatility":      m.AnnualizedVolatility,
		"sharpe_ratio":               m.SharpeRatio,
		"sortino_ratio":              m.SortinoRatio,
		"max_drawdown":               m.MaxDrawdown,
		"max_drawdown_duration_days": float64(m.MaxDrawdownDurationDays),
		"calmar_ratio":               m.CalmarRatio,
		"win_rate":                   m.WinRate,
		"profit_factor":              m.ProfitFactor,
		"avg_win":                    m.AvgWin,
		"avg_loss":                   m.AvgLoss,
		"avg_win_loss_ratio":         m.AvgWinLossRatio,
		"num_trades":                 float64(m.NumTrades),
		"exposure_time":              m.ExposureTime,
		"alpha":                      m.Alpha,
		"beta":                       m.Beta,
		"information_ratio":          m.InformationRatio,
	}
}

// BacktestStats is the summary written next to the exported result files.
type BacktestStats struct {
	// ID is the unique identifier for this backtest run.
	ID string `yaml:"id" json:"id"`
	// Timestamp is when this backtest run was executed.
	Timestamp time.Time `yaml:"timestamp" json:"timestamp"`
	// Strategy is the name of the strategy that was run.
	Strategy string `yaml:"strategy" json:"strategy"`
	// Symbols traded in this run.
	Symbols []string `yaml:"symbols" json:"symbols"`
	// InitialCapital of the run.
	InitialCapital float64 `yaml:"initial_capital" json:"initial_capital"`
	// FinalEquity is the last point of the equity curve.
	FinalEquity float64 `yaml:"final_equity" json:"final_equity"`
	// EngineVersion that produced the result.
	EngineVersion string `yaml:"engine_version" json:"engine_version"`
	// Metrics of the run.
	Metrics Metrics `yaml:"metrics" json:"metrics"`
	// TradesFilePath is the path to the trades parquet file.
	TradesFilePath string `yaml:"trades_file_path" json:"trades_file_path"`
	// EquityFilePath is the path to the equity curve parquet file.
	EquityFilePath string `yaml:"equity_file_path" json:"equity_file_path"`
	// SignalsFilePath is the path to the signals log parquet file.
	SignalsFilePath string `yaml:"signals_file_path" json:"signals_file_path"`
}

func WriteBacktestStats(path string, stats BacktestStats) error {
	// Marshal the struct to YAML
	data, err := yaml.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal backtest stats to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write backtest stats to file: %w", err)
	}

	return nil
}

// ReadBacktestStats loads a stats file written by WriteBacktestStats.
func ReadBacktestStats(path string) (BacktestStats, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return BacktestStats{}, fmt.Errorf("failed to read backtest stats: %w", err)
	}

	var stats BacktestStats
	if err := yaml.Unmarshal(data, &stats); err != nil {
		return BacktestStats{}, fmt.Errorf("failed to unmarshal backtest stats: %w", err)
	}

	return stats, nil
}
