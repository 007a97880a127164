package indicator

import (
	"math"

	"github.com/IvanHuYY/Stockbot/internal/types"
	"github.com/IvanHuYY/Stockbot/pkg/errors"
)

// MACD implements the Moving Average Convergence Divergence indicator.
// It writes the MACD line, the histogram and the signal line.
type MACD struct {
	fastPeriod   int
	slowPeriod   int
	signalPeriod int
}

// NewMACD creates a new MACD indicator with the standard 12/26/9 periods.
func NewMACD() *MACD {
	return &MACD{
		fastPeriod:   12,
		slowPeriod:   26,
		signalPeriod: 9,
	}
}

// Name returns the name of the indicator.
func (m *MACD) Name() types.IndicatorType {
	return types.IndicatorTypeMACD
}

// Columns returns the MACD line, histogram and signal columns.
func (m *MACD) Columns() []string {
	line, histogram, signal := types.MACDColumns(m.fastPeriod, m.slowPeriod, m.signalPeriod)

	return []string{line, histogram, signal}
}

// Config configures the MACD indicator.
// Expected parameters: fastPeriod (int), slowPeriod (int), signalPeriod (int).
func (m *MACD) Config(params ...any) error {
	if len(params) != 3 {
		return errors.New(errors.ErrCodeMissingParameter, "Config expects 3 parameters: fastPeriod (int), slowPeriod (int), signalPeriod (int)")
	}

	fastPeriod, err := positiveIntParam(params, 0, "fastPeriod")
	if err != nil {
		return err
	}

	slowPeriod, err := positiveIntParam(params, 1, "slowPeriod")
	if err != nil {
		return err
	}

	signalPeriod, err := positiveIntParam(params, 2, "signalPeriod")
	if err != nil {
		return err
	}

	if fastPeriod >= slowPeriod {
		return errors.Newf(errors.ErrCodeInvalidPeriod, "fastPeriod (%d) must be smaller than slowPeriod (%d)", fastPeriod, slowPeriod)
	}

	m.fastPeriod = fastPeriod
	m.slowPeriod = slowPeriod
	m.signalPeriod = signalPeriod

	return nil
}

// Compute writes the MACD columns onto every bar.
func (m *MACD) Compute(bars []types.Bar) error {
	prices := closes(bars)
	fast := exponentialMean(prices, m.fastPeriod)
	slow := exponentialMean(prices, m.slowPeriod)

	line := nanSeries(len(prices))

	for i := range prices {
		if math.IsNaN(fast[i]) || math.IsNaN(slow[i]) {
			continue
		}

		line[i] = fast[i] - slow[i]
	}

	signal := exponentialMean(line, m.signalPeriod)
	histogram := nanSeries(len(prices))

	for i := range prices {
		if math.IsNaN(line[i]) || math.IsNaN(signal[i]) {
			continue
		}

		histogram[i] = line[i] - signal[i]
	}

	lineColumn, histogramColumn, signalColumn := types.MACDColumns(m.fastPeriod, m.slowPeriod, m.signalPeriod)
	writeColumn(bars, lineColumn, line)
	writeColumn(bars, histogramColumn, histogram)
	writeColumn(bars, signalColumn, signal)

	return nil
}
