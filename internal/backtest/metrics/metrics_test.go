package metrics

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/IvanHuYY/Stockbot/internal/types"
	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"
)

type MetricsTestSuite struct {
	suite.Suite
}

func TestMetricsSuite(t *testing.T) {
	suite.Run(t, new(MetricsTestSuite))
}

// businessDayCurve assigns one business day per value starting 2024-01-01.
func businessDayCurve(values ...float64) []types.EquityPoint {
	curve := make([]types.EquityPoint, 0, len(values))
	date := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for _, value := range values {
		for date.Weekday() == time.Saturday || date.Weekday() == time.Sunday {
			date = date.AddDate(0, 0, 1)
		}

		curve = append(curve, types.EquityPoint{Date: date, Equity: value})
		date = date.AddDate(0, 0, 1)
	}

	return curve
}

func exits(pnls ...float64) []types.TradeRecord {
	trades := make([]types.TradeRecord, 0, len(pnls))
	for _, pnl := range pnls {
		trades = append(trades, types.TradeRecord{Symbol: "AAPL", Side: types.OrderSideSell, PnL: pnl})
	}

	return trades
}

func noBenchmark() optional.Option[[]types.EquityPoint] {
	return optional.None[[]types.EquityPoint]()
}

func (suite *MetricsTestSuite) TestDegenerateCurves() {
	tests := []struct {
		name  string
		curve []types.EquityPoint
	}{
		{"empty curve", nil},
		{"single point", businessDayCurve(100000)},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			metrics := Compute(tc.curve, exits(100, -50), noBenchmark(), 0.05)
			suite.Equal(types.Metrics{}, metrics)
			suite.Equal(0, metrics.NumTrades)
		})
	}
}

func (suite *MetricsTestSuite) TestTradeStatistics() {
	rng := rand.New(rand.NewSource(7))
	values := make([]float64, 252)
	value := 100000.0

	for i := range values {
		value *= 1 + 0.0004 + rng.NormFloat64()*0.01
		values[i] = value
	}

	metrics := Compute(businessDayCurve(values...), exits(500, -200, 300, -100, 400), noBenchmark(), 0.05)

	suite.Equal(5, metrics.NumTrades)
	suite.Equal(0.6, metrics.WinRate)
	suite.Equal(400.0, metrics.AvgWin)
	suite.Equal(-150.0, metrics.AvgLoss)
	suite.Equal(4.0, metrics.ProfitFactor)
	suite.InDelta(2.6667, metrics.AvgWinLossRatio, 1e-9)
	suite.LessOrEqual(metrics.MaxDrawdown, 0.0)
	suite.Greater(metrics.AnnualizedVolatility, 0.0)
	suite.InDelta(0.0996, metrics.ExposureTime, 1e-9)
}

func (suite *MetricsTestSuite) TestEntriesAreNotCounted() {
	trades := []types.TradeRecord{
		{Symbol: "AAPL", Side: types.OrderSideBuy, PnL: 0},
		{Symbol: "AAPL", Side: types.OrderSideSell, PnL: 120},
	}

	metrics := Compute(businessDayCurve(100, 101, 102), trades, noBenchmark(), 0.05)

	suite.Equal(1, metrics.NumTrades)
	suite.Equal(1.0, metrics.WinRate)
}

func (suite *MetricsTestSuite) TestNoTrades() {
	values := make([]float64, 10)
	for i := range values {
		values[i] = 100000 + float64(i)*10000/9
	}

	metrics := Compute(businessDayCurve(values...), nil, noBenchmark(), 0.05)

	suite.Greater(metrics.TotalReturn, 0.0)
	suite.Equal(0, metrics.NumTrades)
	suite.Equal(0.0, metrics.WinRate)
	suite.Equal(0.0, metrics.ExposureTime)
	suite.Equal(0.0, metrics.MaxDrawdown)
	suite.Equal(0, metrics.MaxDrawdownDurationDays)
}

func (suite *MetricsTestSuite) TestMaxDrawdown() {
	curve := businessDayCurve(100, 110, 105, 95, 90, 100, 110, 108, 115, 120)

	metrics := Compute(curve, nil, noBenchmark(), 0.05)

	suite.Less(metrics.MaxDrawdown, -0.15)
	suite.Equal(-0.181818, metrics.MaxDrawdown)
	suite.Equal(4, metrics.MaxDrawdownDurationDays)
	suite.Equal(0.2, metrics.TotalReturn)
	suite.Greater(metrics.CalmarRatio, 0.0)
}

func (suite *MetricsTestSuite) TestInfiniteRatiosAreCapped() {
	metrics := Compute(businessDayCurve(100, 105, 110), exits(50, 25), noBenchmark(), 0.05)

	suite.Equal(float64(DisplayCap), metrics.ProfitFactor)
	suite.Equal(float64(DisplayCap), metrics.AvgWinLossRatio)
	suite.True(math.IsInf(metrics.ProfitFactorRaw, 1))
	suite.True(math.IsInf(metrics.AvgWinLossRatioRaw, 1))
	suite.Equal(float64(DisplayCap), metrics.Table()["profit_factor"])
}

func (suite *MetricsTestSuite) TestConstantCurveHasZeroRatios() {
	metrics := Compute(businessDayCurve(100, 100, 100, 100), nil, noBenchmark(), 0.05)

	suite.Equal(0.0, metrics.TotalReturn)
	suite.Equal(0.0, metrics.AnnualizedVolatility)
	suite.Equal(0.0, metrics.SharpeRatio)
	suite.Equal(0.0, metrics.SortinoRatio)
	suite.Equal(0.0, metrics.CalmarRatio)
}

func (suite *MetricsTestSuite) TestTotalLossAnnualizesToMinusOne() {
	metrics := Compute(businessDayCurve(100, 50, 0), nil, noBenchmark(), 0.05)

	suite.Equal(-1.0, metrics.TotalReturn)
	suite.Equal(-1.0, metrics.AnnualizedReturn)
}

func (suite *MetricsTestSuite) TestBenchmark() {
	rng := rand.New(rand.NewSource(11))
	bench := make([]float64, 30)
	strategy := make([]float64, 30)
	bench[0], strategy[0] = 100, 1000

	for i := 1; i < 30; i++ {
		r := rng.NormFloat64() * 0.01
		bench[i] = bench[i-1] * (1 + r)
		strategy[i] = strategy[i-1] * (1 + 2*r)
	}

	metrics := Compute(businessDayCurve(strategy...), nil, optional.Some(businessDayCurve(bench...)), 0.05)

	suite.InDelta(2.0, metrics.Beta, 1e-3)
	suite.NotEqual(0.0, metrics.InformationRatio)
}

func (suite *MetricsTestSuite) TestBenchmarkNeedsOverlap() {
	curve := businessDayCurve(100, 101, 102, 101, 103, 104, 103, 105, 106, 107, 108)
	bench := businessDayCurve(50, 51, 50, 52, 53, 52, 54, 55, 54, 56, 57)

	// ten common return dates are not enough
	metrics := Compute(curve, nil, optional.Some(bench), 0.05)

	suite.Equal(0.0, metrics.Alpha)
	suite.Equal(0.0, metrics.Beta)
	suite.Equal(0.0, metrics.InformationRatio)
}

func (suite *MetricsTestSuite) TestBenchmarkOverlapBoundary() {
	bench := []float64{50, 51, 50, 52, 53, 52, 54, 55, 54, 56, 57, 56}
	strategy := make([]float64, len(bench))
	strategy[0] = 1000

	for i := 1; i < len(bench); i++ {
		strategy[i] = strategy[i-1] * (1 + 2*(bench[i]/bench[i-1]-1))
	}

	curve := businessDayCurve(strategy...)
	benchCurve := businessDayCurve(bench...)

	// eleven common return dates
	metrics := Compute(curve, nil, optional.Some(benchCurve), 0.05)
	suite.InDelta(2.0, metrics.Beta, 1e-3)
	suite.NotEqual(0.0, metrics.InformationRatio)

	// dropping the first benchmark day leaves ten
	metrics = Compute(curve, nil, optional.Some(benchCurve[1:]), 0.05)
	suite.Equal(0.0, metrics.Alpha)
	suite.Equal(0.0, metrics.Beta)
	suite.Equal(0.0, metrics.InformationRatio)
}

func (suite *MetricsTestSuite) TestSharpeUsesRiskFreeRate() {
	curve := businessDayCurve(100, 101, 100.5, 102, 101.5, 103)

	withoutRiskFree := Compute(curve, nil, noBenchmark(), 0)
	withRiskFree := Compute(curve, nil, noBenchmark(), 0.05)

	suite.Greater(withoutRiskFree.SharpeRatio, withRiskFree.SharpeRatio)
}
