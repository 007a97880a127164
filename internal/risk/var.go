package risk

import (
	"math"
	"slices"

	"github.com/IvanHuYY/Stockbot/internal/utils"
	"github.com/IvanHuYY/Stockbot/pkg/errors"
)

// MinVaRObservations is the fewest returns ValueAtRisk accepts.
const MinVaRObservations = 10

// VaRResult holds one-day value-at-risk estimates expressed as returns.
type VaRResult struct {
	HistoricalVaR        float64 `json:"historical_var" yaml:"historical_var"`
	ParametricVaR        float64 `json:"parametric_var" yaml:"parametric_var"`
	ExpectedShortfall    float64 `json:"expected_shortfall" yaml:"expected_shortfall"`
	Confidence           float64 `json:"confidence" yaml:"confidence"`
	DailyVolatility      float64 `json:"daily_volatility" yaml:"daily_volatility"`
	AnnualizedVolatility float64 `json:"annualized_volatility" yaml:"annualized_volatility"`
}

// ValueAtRisk estimates the loss threshold of daily returns at the given confidence.
// The parametric estimate assumes normally distributed returns.
func ValueAtRisk(returns []float64, confidence float64) (VaRResult, error) {
	if len(returns) < MinVaRObservations {
		return VaRResult{}, errors.Wrap(errors.ErrCodeInsufficientData, "not enough returns for value at risk",
			errors.NewInsufficientDataErrorf(MinVaRObservations, len(returns), "",
				"need at least %d returns, got %d", MinVaRObservations, len(returns)))
	}

	if confidence <= 0 || confidence >= 1 {
		return VaRResult{}, errors.Newf(errors.ErrCodeInvalidRiskInput, "confidence must be in (0, 1), got %v", confidence)
	}

	sorted := slices.Clone(returns)
	slices.Sort(sorted)

	index := int((1 - confidence) * float64(len(sorted)))
	historical := sorted[index]

	mean := utils.Mean(returns)
	std := utils.PopulationStd(returns)
	parametric := mean + NormalQuantile(1-confidence)*std

	shortfall := utils.Mean(sorted[:index+1])

	return VaRResult{
		HistoricalVaR:        utils.Round(historical, 6),
		ParametricVaR:        utils.Round(parametric, 6),
		ExpectedShortfall:    utils.Round(shortfall, 6),
		Confidence:           confidence,
		DailyVolatility:      utils.Round(std, 6),
		AnnualizedVolatility: utils.Round(std*math.Sqrt(252), 6),
	}, nil
}

// Coefficients of Acklam's rational approximation of the inverse normal CDF.
var (
	acklamA = []float64{-3.969683028665376e+01, 2.209460984245205e+02, -2.759285104469687e+02, 1.383577518672690e+02, -3.066479806614716e+01, 2.506628277459239e+00}
	acklamB = []float64{-5.447609879822406e+01, 1.615858368580409e+02, -1.556989798598866e+02, 6.680131188771972e+01, -1.328068155288572e+01}
	acklamC = []float64{-7.784894002430293e-03, -3.223964580411365e-01, -2.400758277161838e+00, -2.549732539343734e+00, 4.374664141464968e+00, 2.938163982698783e+00}
	acklamD = []float64{7.784695709041462e-03, 3.224671290700398e-01, 2.445134137142996e+00, 3.754408661907416e+00}
)

const acklamLow = 0.02425

// NormalQuantile returns the standard normal quantile of p, accurate to about 1e-9 after one refinement step.
func NormalQuantile(p float64) float64 {
	switch {
	case p <= 0:
		return math.Inf(-1)
	case p >= 1:
		return math.Inf(1)
	}

	var x float64

	switch {
	case p < acklamLow:
		q := math.Sqrt(-2 * math.Log(p))
		x = (((((acklamC[0]*q+acklamC[1])*q+acklamC[2])*q+acklamC[3])*q+acklamC[4])*q + acklamC[5]) /
			((((acklamD[0]*q+acklamD[1])*q+acklamD[2])*q+acklamD[3])*q + 1)
	case p <= 1-acklamLow:
		q := p - 0.5
		r := q * q
		x = (((((acklamA[0]*r+acklamA[1])*r+acklamA[2])*r+acklamA[3])*r+acklamA[4])*r + acklamA[5]) * q /
			(((((acklamB[0]*r+acklamB[1])*r+acklamB[2])*r+acklamB[3])*r+acklamB[4])*r + 1)
	default:
		q := math.Sqrt(-2 * math.Log(1-p))
		x = -(((((acklamC[0]*q+acklamC[1])*q+acklamC[2])*q+acklamC[3])*q+acklamC[4])*q + acklamC[5]) /
			((((acklamD[0]*q+acklamD[1])*q+acklamD[2])*q+acklamD[3])*q + 1)
	}

	// Halley refinement against the exact CDF
	e := 0.5*math.Erfc(-x/math.Sqrt2) - p
	u := e * math.Sqrt(2*math.Pi) * math.Exp(x*x/2)

	return x - u/(1+x*u/2)
}
