package indicator

import (
	"math"

	"github.com/IvanHuYY/Stockbot/internal/types"
)

func nanSeries(n int) []float64 {
	series := make([]float64, n)
	for i := range series {
		series[i] = math.NaN()
	}

	return series
}

func closes(bars []types.Bar) []float64 {
	values := make([]float64, len(bars))
	for i, bar := range bars {
		values[i] = bar.Close
	}

	return values
}

func volumes(bars []types.Bar) []float64 {
	values := make([]float64, len(bars))
	for i, bar := range bars {
		values[i] = bar.Volume
	}

	return values
}

// firstValid returns the index of the first non-NaN value, or len(values).
func firstValid(values []float64) int {
	for i, v := range values {
		if !math.IsNaN(v) {
			return i
		}
	}

	return len(values)
}

// rollingMean computes the simple moving average of values over period.
func rollingMean(values []float64, period int) []float64 {
	result := nanSeries(len(values))
	if period <= 0 {
		return result
	}

	var sum float64

	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}

		if i >= period-1 {
			result[i] = sum / float64(period)
		}
	}

	return result
}

// rollingPopulationStd computes the population standard deviation of values over period.
func rollingPopulationStd(values []float64, period int, means []float64) []float64 {
	result := nanSeries(len(values))

	for i := period - 1; i < len(values); i++ {
		var squaredDiffSum float64

		for j := i - period + 1; j <= i; j++ {
			diff := values[j] - means[i]
			squaredDiffSum += diff * diff
		}

		result[i] = math.Sqrt(squaredDiffSum / float64(period))
	}

	return result
}

// exponentialMean computes an EMA with alpha = 2/(period+1), seeded with the SMA
// of the first period valid values. Leading NaNs are skipped.
func exponentialMean(values []float64, period int) []float64 {
	result := nanSeries(len(values))
	start := firstValid(values)

	if period <= 0 || len(values)-start < period {
		return result
	}

	seedEnd := start + period - 1

	var sma float64
	for i := start; i <= seedEnd; i++ {
		sma += values[i]
	}

	sma /= float64(period)
	result[seedEnd] = sma

	alpha := 2.0 / float64(period+1)
	ema := sma

	for i := seedEnd + 1; i < len(values); i++ {
		ema = values[i]*alpha + ema*(1-alpha)
		result[i] = ema
	}

	return result
}

// wilderMean applies Wilder's smoothing to values starting at index start:
// the first output is the mean of values[start:start+period], later outputs use
// avg = (avg*(period-1) + value) / period.
func wilderMean(values []float64, period int, start int) []float64 {
	result := nanSeries(len(values))
	if period <= 0 || len(values)-start < period {
		return result
	}

	seedEnd := start + period - 1

	var avg float64
	for i := start; i <= seedEnd; i++ {
		avg += values[i]
	}

	avg /= float64(period)
	result[seedEnd] = avg

	for i := seedEnd + 1; i < len(values); i++ {
		avg = (avg*float64(period-1) + values[i]) / float64(period)
		result[i] = avg
	}

	return result
}

func writeColumn(bars []types.Bar, column string, values []float64) {
	for i := range bars {
		bars[i].SetIndicator(column, values[i])
	}
}
