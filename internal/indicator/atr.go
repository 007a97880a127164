package indicator

import (
	"math"

	"github.com/IvanHuYY/Stockbot/internal/types"
)

// ATR implements the Average True Range indicator with Wilder's smoothing.
type ATR struct {
	period int
}

// NewATR creates a new ATR indicator with the given period.
func NewATR(period int) *ATR {
	return &ATR{period: period}
}

// Name returns the name of the indicator.
func (a *ATR) Name() types.IndicatorType {
	return types.IndicatorTypeATR
}

// Columns returns the atr column written by the indicator.
func (a *ATR) Columns() []string {
	return []string{types.ATRColumn(a.period)}
}

// Config configures the ATR indicator. Expected parameters: period (int).
func (a *ATR) Config(params ...any) error {
	period, err := positiveIntParam(params, 0, "period")
	if err != nil {
		return err
	}

	a.period = period

	return nil
}

// Compute writes atr_<period> onto every bar. True range starts at the second bar,
// so the first value appears at index period.
func (a *ATR) Compute(bars []types.Bar) error {
	trueRanges := make([]float64, len(bars))

	for i := 1; i < len(bars); i++ {
		trueRanges[i] = trueRange(bars[i], bars[i-1].Close)
	}

	writeColumn(bars, types.ATRColumn(a.period), wilderMean(trueRanges, a.period, 1))

	return nil
}

// trueRange = max(high-low, |high-prevClose|, |low-prevClose|).
func trueRange(bar types.Bar, prevClose float64) float64 {
	return math.Max(bar.High-bar.Low, math.Max(math.Abs(bar.High-prevClose), math.Abs(bar.Low-prevClose)))
}
