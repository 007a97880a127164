package indicator

import (
	"math"

	"github.com/IvanHuYY/Stockbot/internal/types"
)

// RSI implements the Relative Strength Index using Wilder's smoothing.
type RSI struct {
	period int
}

// NewRSI creates a new RSI indicator with the given period.
func NewRSI(period int) *RSI {
	return &RSI{period: period}
}

// Name returns the name of the indicator.
func (r *RSI) Name() types.IndicatorType {
	return types.IndicatorTypeRSI
}

// Columns returns the rsi column written by the indicator.
func (r *RSI) Columns() []string {
	return []string{types.RSIColumn(r.period)}
}

// Config configures the RSI indicator. Expected parameters: period (int).
func (r *RSI) Config(params ...any) error {
	period, err := positiveIntParam(params, 0, "period")
	if err != nil {
		return err
	}

	r.period = period

	return nil
}

// Compute writes rsi_<period> onto every bar. The first value appears at index period.
func (r *RSI) Compute(bars []types.Bar) error {
	writeColumn(bars, types.RSIColumn(r.period), r.calculate(closes(bars)))

	return nil
}

func (r *RSI) calculate(prices []float64) []float64 {
	result := nanSeries(len(prices))
	if len(prices) <= r.period {
		return result
	}

	gains := make([]float64, len(prices))
	losses := make([]float64, len(prices))

	for i := 1; i < len(prices); i++ {
		change := prices[i] - prices[i-1]
		if change > 0 {
			gains[i] = change
		} else {
			losses[i] = -change
		}
	}

	avgGains := wilderMean(gains, r.period, 1)
	avgLosses := wilderMean(losses, r.period, 1)

	for i := r.period; i < len(prices); i++ {
		if math.IsNaN(avgGains[i]) || math.IsNaN(avgLosses[i]) {
			continue
		}

		if avgLosses[i] == 0 {
			result[i] = 100

			continue
		}

		rs := avgGains[i] / avgLosses[i]
		result[i] = 100 - (100 / (1 + rs))
	}

	return result
}
