package indicator

import (
	"github.com/IvanHuYY/Stockbot/internal/types"
)

// MA implements the simple moving average of closing prices.
type MA struct {
	period int
}

// NewMA creates a new MA indicator with the given period.
func NewMA(period int) *MA {
	return &MA{period: period}
}

// Name returns the name of the indicator.
func (m *MA) Name() types.IndicatorType {
	return types.IndicatorTypeMA
}

// Columns returns the sma column written by the indicator.
func (m *MA) Columns() []string {
	return []string{types.SMAColumn(m.period)}
}

// Config configures the MA indicator. Expected parameters: period (int).
func (m *MA) Config(params ...any) error {
	period, err := positiveIntParam(params, 0, "period")
	if err != nil {
		return err
	}

	m.period = period

	return nil
}

// Compute writes sma_<period> onto every bar.
func (m *MA) Compute(bars []types.Bar) error {
	writeColumn(bars, types.SMAColumn(m.period), rollingMean(closes(bars), m.period))

	return nil
}
