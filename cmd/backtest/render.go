package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/IvanHuYY/Stockbot/internal/backtest/comparison"
	engine "github.com/IvanHuYY/Stockbot/internal/backtest/engine/engine_v1"
	"github.com/IvanHuYY/Stockbot/internal/types"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Style definitions.
var (
	// TitleStyle for headers.
	TitleStyle = lipgloss.NewStyle().Bold(true)

	// HelpStyle for secondary text.
	HelpStyle = lipgloss.NewStyle().Faint(true)

	// PositiveStyle for gains.
	PositiveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#3fb950"))

	// NegativeStyle for losses.
	NegativeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#f85149"))
)

var (
	percentMetrics = map[string]bool{
		"total_return":          true,
		"annualized_return":     true,
		"annualized_volatility": true,
		"max_drawdown":          true,
		"win_rate":              true,
		"exposure_time":         true,
	}
	currencyMetrics = map[string]bool{
		"avg_win":  true,
		"avg_loss": true,
	}
	countMetrics = map[string]bool{
		"num_trades":                 true,
		"max_drawdown_duration_days": true,
	}
)

// FormatMetric renders a metric value for display.
func FormatMetric(name string, value float64) string {
	switch {
	case percentMetrics[name]:
		return fmt.Sprintf("%.2f%%", value*100)
	case currencyMetrics[name]:
		return fmt.Sprintf("$%.2f", value)
	case countMetrics[name]:
		return fmt.Sprintf("%d", int64(value))
	default:
		return fmt.Sprintf("%.2f", value)
	}
}

// FormatReturn colors a return by its sign.
func FormatReturn(value float64) string {
	text := FormatMetric("total_return", value)

	if value > 0 {
		return PositiveStyle.Render(text)
	} else if value < 0 {
		return NegativeStyle.Render(text)
	}

	return text
}

func renderSummary(result engine.BacktestResult) string {
	config := result.Config

	period := "all data"
	if config.StartDate.IsSome() && config.EndDate.IsSome() {
		period = fmt.Sprintf("%s to %s", config.StartDate.Unwrap().Format(time.DateOnly), config.EndDate.Unwrap().Format(time.DateOnly))
	}

	var b strings.Builder

	b.WriteString(TitleStyle.Render(fmt.Sprintf("Backtest Report: %s", config.StrategyName)))
	b.WriteString("\n")
	b.WriteString(HelpStyle.Render(fmt.Sprintf("Period: %s | Symbols: %s | Initial Capital: $%.0f",
		period, strings.Join(config.Symbols, ", "), config.InitialCapital)))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Final Equity: $%.2f (%s)", result.FinalEquity(), FormatReturn(result.Metrics.TotalReturn)))
	b.WriteString("\n")
	b.WriteString(renderRisk(result.Risk))

	return b.String()
}

func renderRisk(report engine.RiskReport) string {
	valueAtRisk := "n/a"
	if report.ValueAtRisk != nil {
		valueAtRisk = fmt.Sprintf("%.2f%%", report.ValueAtRisk.HistoricalVaR*100)
	}

	return HelpStyle.Render(fmt.Sprintf("Open Positions: %d (%s concentration) | 1-day VaR (%.0f%%): %s",
		report.Exposure.NumPositions, report.Exposure.ConcentrationRisk, engine.VaRConfidence*100, valueAtRisk))
}

func renderMetrics(metrics types.Metrics) string {
	values := metrics.Table()

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Metric", "Value")

	for _, name := range types.MetricNames {
		t.Row(name, FormatMetric(name, values[name]))
	}

	return t.Render()
}

func renderComparison(report comparison.ComparisonReport) string {
	headers := append([]string{"Metric"}, report.StrategyNames...)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...)

	for _, name := range types.MetricNames {
		row := []string{name}
		for _, strategyName := range report.StrategyNames {
			row = append(row, FormatMetric(name, report.MetricsTable[strategyName].Table()[name]))
		}

		t.Row(row...)
	}

	var b strings.Builder

	b.WriteString(TitleStyle.Render("Strategy Comparison"))
	b.WriteString("\n")
	b.WriteString(t.Render())
	b.WriteString("\n")
	b.WriteString(TitleStyle.Render("Ranking by Sharpe ratio"))

	for i, name := range report.Ranking {
		b.WriteString(fmt.Sprintf("\n%d. %s (%s)", i+1, name, FormatMetric("sharpe_ratio", report.MetricsTable[name].SharpeRatio)))
	}

	return b.String()
}
