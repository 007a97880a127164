package indicator

import (
	"github.com/IvanHuYY/Stockbot/internal/types"
	"github.com/IvanHuYY/Stockbot/pkg/errors"
)

// BollingerBands implements the Bollinger Bands indicator.
// The middle band is the SMA of closes; the outer bands sit stdDev
// population standard deviations away.
type BollingerBands struct {
	period int
	stdDev float64
}

// NewBollingerBands creates a new Bollinger Bands indicator with the standard 20/2.0 parameters.
func NewBollingerBands() *BollingerBands {
	return &BollingerBands{
		period: 20,
		stdDev: 2.0,
	}
}

// Name returns the name of the indicator.
func (bb *BollingerBands) Name() types.IndicatorType {
	return types.IndicatorTypeBollingerBands
}

// Columns returns the lower, middle and upper band columns.
func (bb *BollingerBands) Columns() []string {
	lower, middle, upper := types.BollingerColumns(bb.period, bb.stdDev)

	return []string{lower, middle, upper}
}

// Config configures the Bollinger Bands indicator.
// Expected parameters: period (int), stdDev (float64).
func (bb *BollingerBands) Config(params ...any) error {
	if len(params) != 2 {
		return errors.New(errors.ErrCodeMissingParameter, "Config expects 2 parameters: period (int), stdDev (float64)")
	}

	period, err := positiveIntParam(params, 0, "period")
	if err != nil {
		return err
	}

	stdDev, err := positiveFloatParam(params, 1, "stdDev")
	if err != nil {
		return err
	}

	bb.period = period
	bb.stdDev = stdDev

	return nil
}

// Compute writes the band columns onto every bar.
func (bb *BollingerBands) Compute(bars []types.Bar) error {
	prices := closes(bars)
	middle := rollingMean(prices, bb.period)
	std := rollingPopulationStd(prices, bb.period, middle)

	lower := nanSeries(len(prices))
	upper := nanSeries(len(prices))

	for i := bb.period - 1; i < len(prices); i++ {
		lower[i] = middle[i] - bb.stdDev*std[i]
		upper[i] = middle[i] + bb.stdDev*std[i]
	}

	lowerColumn, middleColumn, upperColumn := types.BollingerColumns(bb.period, bb.stdDev)
	writeColumn(bars, lowerColumn, lower)
	writeColumn(bars, middleColumn, middle)
	writeColumn(bars, upperColumn, upper)

	return nil
}
