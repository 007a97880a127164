package indicator

import (
	"math"
	"testing"
	"time"

	"github.com/IvanHuYY/Stockbot/internal/types"
	"github.com/IvanHuYY/Stockbot/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type IndicatorTestSuite struct {
	suite.Suite
}

func TestIndicatorSuite(t *testing.T) {
	suite.Run(t, new(IndicatorTestSuite))
}

func makeBars(closes ...float64) []types.Bar {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]types.Bar, len(closes))

	for i, c := range closes {
		bars[i] = types.Bar{
			Symbol: "AAPL",
			Time:   start.AddDate(0, 0, i),
			Open:   c,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: 1000,
		}
	}

	return bars
}

func (suite *IndicatorTestSuite) column(bars []types.Bar, column string) []float64 {
	values := make([]float64, len(bars))
	for i, bar := range bars {
		value, ok := bar.Indicators[column]
		suite.Require().True(ok, "column %s missing at %d", column, i)
		values[i] = value
	}

	return values
}

func (suite *IndicatorTestSuite) TestMA() {
	bars := makeBars(1, 2, 3, 4, 5)
	suite.Require().NoError(NewMA(3).Compute(bars))

	values := suite.column(bars, "sma_3")
	suite.True(math.IsNaN(values[0]))
	suite.True(math.IsNaN(values[1]))
	suite.InDelta(2.0, values[2], 1e-9)
	suite.InDelta(3.0, values[3], 1e-9)
	suite.InDelta(4.0, values[4], 1e-9)
}

func (suite *IndicatorTestSuite) TestEMASeedsWithSMA() {
	bars := makeBars(1, 2, 3, 4, 5)
	suite.Require().NoError(NewEMA(3).Compute(bars))

	values := suite.column(bars, "ema_3")
	suite.True(math.IsNaN(values[1]))
	suite.InDelta(2.0, values[2], 1e-9)
	suite.InDelta(3.0, values[3], 1e-9)
	suite.InDelta(4.0, values[4], 1e-9)
}

func (suite *IndicatorTestSuite) TestRSIWilder() {
	bars := makeBars(1, 2, 1, 2)
	suite.Require().NoError(NewRSI(2).Compute(bars))

	values := suite.column(bars, "rsi_2")
	suite.True(math.IsNaN(values[1]))
	suite.InDelta(50.0, values[2], 1e-9)
	suite.InDelta(75.0, values[3], 1e-9)
}

func (suite *IndicatorTestSuite) TestRSIAllGainsIs100() {
	bars := makeBars(1, 2, 3, 4, 5, 6)
	suite.Require().NoError(NewRSI(3).Compute(bars))

	suite.InDelta(100.0, bars[5].Indicator("rsi_3").Unwrap(), 1e-9)
}

func (suite *IndicatorTestSuite) TestRSIShortSeries() {
	bars := makeBars(1, 2)
	suite.Require().NoError(NewRSI(14).Compute(bars))

	suite.True(bars[1].Indicator(types.ColumnRSI14).IsNone())
}

func (suite *IndicatorTestSuite) TestBollingerBandsConstantPrice() {
	closes := make([]float64, 25)
	for i := range closes {
		closes[i] = 100
	}

	bars := makeBars(closes...)
	suite.Require().NoError(NewBollingerBands().Compute(bars))

	lower, middle, upper := types.BollingerColumns(20, 2.0)
	suite.True(bars[18].Indicator(lower).IsNone())
	suite.InDelta(100.0, bars[19].Indicator(lower).Unwrap(), 1e-9)
	suite.InDelta(100.0, bars[19].Indicator(middle).Unwrap(), 1e-9)
	suite.InDelta(100.0, bars[24].Indicator(upper).Unwrap(), 1e-9)
}

func (suite *IndicatorTestSuite) TestBollingerBandsPopulationStd() {
	bars := makeBars(1, 2, 3)
	bb := NewBollingerBands()
	suite.Require().NoError(bb.Config(3, 1.0))
	suite.Require().NoError(bb.Compute(bars))

	// population std of {1,2,3} is sqrt(2/3)
	std := math.Sqrt(2.0 / 3.0)
	suite.InDelta(2.0-std, bars[2].Indicator("BBL_3_1.0").Unwrap(), 1e-9)
	suite.InDelta(2.0+std, bars[2].Indicator("BBU_3_1.0").Unwrap(), 1e-9)
}

func (suite *IndicatorTestSuite) TestATRConstantRange() {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 50
	}

	bars := makeBars(closes...)
	suite.Require().NoError(NewATR(14).Compute(bars))

	suite.True(bars[13].Indicator(types.ColumnATR14).IsNone())
	suite.InDelta(2.0, bars[14].Indicator(types.ColumnATR14).Unwrap(), 1e-9)
	suite.InDelta(2.0, bars[19].Indicator(types.ColumnATR14).Unwrap(), 1e-9)
}

func (suite *IndicatorTestSuite) TestTrueRangeUsesPreviousClose() {
	bar := types.Bar{High: 12, Low: 11, Close: 11.5}

	suite.InDelta(3.0, trueRange(bar, 9), 1e-9)
	suite.InDelta(1.0, trueRange(bar, 11.5), 1e-9)
}

func (suite *IndicatorTestSuite) TestMACDWarmUp() {
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}

	bars := makeBars(closes...)
	suite.Require().NoError(NewMACD().Compute(bars))

	line, histogram, signal := types.MACDColumns(12, 26, 9)
	suite.True(bars[24].Indicator(line).IsNone())
	suite.True(bars[25].Indicator(line).IsSome())
	suite.True(bars[32].Indicator(histogram).IsNone())
	suite.True(bars[33].Indicator(histogram).IsSome())
	suite.True(bars[33].Indicator(signal).IsSome())

	// a steady uptrend keeps the fast average above the slow one
	suite.Greater(bars[39].Indicator(line).Unwrap(), 0.0)
}

func (suite *IndicatorTestSuite) TestMACDConfig() {
	macd := NewMACD()

	suite.Error(macd.Config(12, 26))
	suite.Error(macd.Config(26, 12, 9))
	suite.Error(macd.Config("12", 26, 9))
	suite.NoError(macd.Config(5, 10, 3))
	suite.Equal([]string{"MACD_5_10_3", "MACDh_5_10_3", "MACDs_5_10_3"}, macd.Columns())
}

func (suite *IndicatorTestSuite) TestConfigErrors() {
	tests := []struct {
		name      string
		indicator Indicator
		params    []any
		code      errors.ErrorCode
	}{
		{"missing period", NewMA(20), nil, errors.ErrCodeMissingParameter},
		{"wrong type", NewEMA(9), []any{"9"}, errors.ErrCodeInvalidType},
		{"zero period", NewRSI(14), []any{0}, errors.ErrCodeInvalidPeriod},
		{"negative std", NewBollingerBands(), []any{20, -1.0}, errors.ErrCodeInvalidParameter},
		{"negative days", NewPriceChange(1), []any{-5}, errors.ErrCodeInvalidPeriod},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			err := tc.indicator.Config(tc.params...)
			suite.Error(err)
			suite.Equal(tc.code, errors.GetCode(err))
		})
	}
}

func (suite *IndicatorTestSuite) TestOBV() {
	bars := makeBars(10, 11, 10.5, 10.5)
	for i := range bars {
		bars[i].Volume = float64(100 * (i + 1))
	}

	suite.Require().NoError(NewOBV().Compute(bars))

	values := suite.column(bars, types.ColumnOBV)
	suite.True(math.IsNaN(values[0]))
	suite.InDelta(200.0, values[1], 1e-9)
	suite.InDelta(-100.0, values[2], 1e-9)
	suite.InDelta(-100.0, values[3], 1e-9)
}

func (suite *IndicatorTestSuite) TestVolumeRatio() {
	bars := makeBars(10, 11)
	bars[0].Volume = 100
	bars[1].Volume = 300

	suite.Require().NoError(NewVolumeRatio(2).Compute(bars))

	suite.True(bars[0].Indicator(types.ColumnVolumeSMARatio).IsNone())
	suite.InDelta(1.5, bars[1].Indicator(types.ColumnVolumeSMARatio).Unwrap(), 1e-9)
}

func (suite *IndicatorTestSuite) TestPriceChangeAndIntradayRange() {
	bars := makeBars(100, 110)

	suite.Require().NoError(NewPriceChange(1).Compute(bars))
	suite.Require().NoError(NewIntradayRange().Compute(bars))

	suite.True(bars[0].Indicator("price_change_1d").IsNone())
	suite.InDelta(0.1, bars[1].Indicator("price_change_1d").Unwrap(), 1e-9)
	suite.InDelta(0.02, bars[0].Indicator(types.ColumnIntradayRange).Unwrap(), 1e-9)
}
