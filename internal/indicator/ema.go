package indicator

import (
	"github.com/IvanHuYY/Stockbot/internal/types"
)

// EMA implements the Exponential Moving Average indicator.
// The first value is the SMA of the first period closes; afterwards
// EMA = close*alpha + prevEMA*(1-alpha) with alpha = 2/(period+1).
type EMA struct {
	period int
}

// NewEMA creates a new EMA indicator with the given period.
func NewEMA(period int) *EMA {
	return &EMA{period: period}
}

// Name returns the name of the indicator.
func (e *EMA) Name() types.IndicatorType {
	return types.IndicatorTypeEMA
}

// Columns returns the ema column written by the indicator.
func (e *EMA) Columns() []string {
	return []string{types.EMAColumn(e.period)}
}

// Config configures the EMA indicator. Expected parameters: period (int).
func (e *EMA) Config(params ...any) error {
	period, err := positiveIntParam(params, 0, "period")
	if err != nil {
		return err
	}

	e.period = period

	return nil
}

// Compute writes ema_<period> onto every bar.
func (e *EMA) Compute(bars []types.Bar) error {
	writeColumn(bars, types.EMAColumn(e.period), exponentialMean(closes(bars), e.period))

	return nil
}
