package indicator

import (
	"github.com/IvanHuYY/Stockbot/internal/types"
)

// OBV implements On-Balance Volume: volume is added on up closes and subtracted on down closes.
type OBV struct{}

// NewOBV creates a new OBV indicator.
func NewOBV() *OBV {
	return &OBV{}
}

func (o *OBV) Name() types.IndicatorType {
	return types.IndicatorTypeOBV
}

func (o *OBV) Columns() []string {
	return []string{types.ColumnOBV}
}

// Config takes no parameters.
func (o *OBV) Config(_ ...any) error {
	return nil
}

func (o *OBV) Compute(bars []types.Bar) error {
	values := nanSeries(len(bars))

	var obv float64

	for i := 1; i < len(bars); i++ {
		switch {
		case bars[i].Close > bars[i-1].Close:
			obv += bars[i].Volume
		case bars[i].Close < bars[i-1].Close:
			obv -= bars[i].Volume
		}

		values[i] = obv
	}

	writeColumn(bars, types.ColumnOBV, values)

	return nil
}
