package indicator

import (
	"github.com/IvanHuYY/Stockbot/internal/types"
)

// PriceChange writes the n-day fractional change of the close.
type PriceChange struct {
	days int
}

// NewPriceChange creates a new n-day price change indicator.
func NewPriceChange(days int) *PriceChange {
	return &PriceChange{days: days}
}

func (p *PriceChange) Name() types.IndicatorType {
	return types.IndicatorTypePriceChange
}

func (p *PriceChange) Columns() []string {
	return []string{types.PriceChangeColumn(p.days)}
}

// Config configures the look-back. Expected parameters: days (int).
func (p *PriceChange) Config(params ...any) error {
	days, err := positiveIntParam(params, 0, "days")
	if err != nil {
		return err
	}

	p.days = days

	return nil
}

func (p *PriceChange) Compute(bars []types.Bar) error {
	values := nanSeries(len(bars))

	for i := p.days; i < len(bars); i++ {
		previous := bars[i-p.days].Close
		if previous == 0 {
			continue
		}

		values[i] = bars[i].Close/previous - 1
	}

	writeColumn(bars, types.PriceChangeColumn(p.days), values)

	return nil
}

// IntradayRange writes (high - low) / open.
type IntradayRange struct{}

// NewIntradayRange creates a new intraday range indicator.
func NewIntradayRange() *IntradayRange {
	return &IntradayRange{}
}

func (r *IntradayRange) Name() types.IndicatorType {
	return types.IndicatorTypeIntradayRange
}

func (r *IntradayRange) Columns() []string {
	return []string{types.ColumnIntradayRange}
}

// Config takes no parameters.
func (r *IntradayRange) Config(_ ...any) error {
	return nil
}

func (r *IntradayRange) Compute(bars []types.Bar) error {
	values := nanSeries(len(bars))

	for i, bar := range bars {
		if bar.Open == 0 {
			continue
		}

		values[i] = (bar.High - bar.Low) / bar.Open
	}

	writeColumn(bars, types.ColumnIntradayRange, values)

	return nil
}
