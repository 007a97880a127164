package utils

import "math"

// Mean returns the arithmetic mean of values, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}

	return sum / float64(len(values))
}

// SampleStd returns the standard deviation with one degree of freedom (n-1).
// Fewer than 2 values yield 0.
func SampleStd(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}

	return math.Sqrt(sumSquaredDeviations(values) / float64(len(values)-1))
}

// PopulationStd returns the standard deviation over n. An empty slice yields 0.
func PopulationStd(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	return math.Sqrt(sumSquaredDeviations(values) / float64(len(values)))
}

// SampleCovariance returns the covariance of two equally sized series with n-1 degrees of freedom.
func SampleCovariance(a, b []float64) float64 {
	n := min(len(a), len(b))
	if n < 2 {
		return 0
	}

	meanA := Mean(a[:n])
	meanB := Mean(b[:n])

	var sum float64
	for i := range n {
		sum += (a[i] - meanA) * (b[i] - meanB)
	}

	return sum / float64(n-1)
}

// Clip bounds value to [lower, upper].
func Clip(value, lower, upper float64) float64 {
	return math.Max(lower, math.Min(upper, value))
}

func sumSquaredDeviations(values []float64) float64 {
	mean := Mean(values)

	var sum float64
	for _, v := range values {
		diff := v - mean
		sum += diff * diff
	}

	return sum
}
