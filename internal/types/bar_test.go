package types

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type BarTestSuite struct {
	suite.Suite
}

func TestBarSuite(t *testing.T) {
	suite.Run(t, new(BarTestSuite))
}

func (suite *BarTestSuite) TestIndicatorMissingColumn() {
	bar := Bar{Symbol: "AAPL", Close: 150}

	suite.True(bar.Indicator(ColumnRSI14).IsNone())
}

func (suite *BarTestSuite) TestIndicatorNaNIsNone() {
	bar := Bar{Symbol: "AAPL"}
	bar.SetIndicator(ColumnATR14, math.NaN())

	suite.True(bar.Indicator(ColumnATR14).IsNone())
}

func (suite *BarTestSuite) TestIndicatorPresent() {
	bar := Bar{Symbol: "AAPL"}
	bar.SetIndicator(ColumnRSI14, 28.5)

	value := bar.Indicator(ColumnRSI14)
	suite.True(value.IsSome())
	suite.Equal(28.5, value.Unwrap())
}

func (suite *BarTestSuite) TestCloneDoesNotShareIndicators() {
	bar := Bar{Symbol: "AAPL"}
	bar.SetIndicator(ColumnRSI14, 50)

	clone := bar.Clone()
	clone.SetIndicator(ColumnRSI14, 10)

	suite.Equal(50.0, bar.Indicator(ColumnRSI14).Unwrap())
	suite.Equal(10.0, clone.Indicator(ColumnRSI14).Unwrap())
}

func (suite *BarTestSuite) TestDate() {
	bar := Bar{Time: time.Date(2024, 3, 5, 16, 0, 0, 0, time.UTC)}

	suite.Equal(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), bar.Date())
}

func (suite *BarTestSuite) TestColumnNames() {
	lower, middle, upper := BollingerColumns(20, 2.0)
	suite.Equal("BBL_20_2.0", lower)
	suite.Equal("BBM_20_2.0", middle)
	suite.Equal("BBU_20_2.0", upper)

	line, hist, signal := MACDColumns(12, 26, 9)
	suite.Equal("MACD_12_26_9", line)
	suite.Equal(ColumnMACDHistogram, hist)
	suite.Equal("MACDs_12_26_9", signal)

	suite.Equal("sma_50", SMAColumn(50))
	suite.Equal(ColumnRSI14, RSIColumn(14))
	suite.Equal(ColumnATR14, ATRColumn(14))
	suite.Equal("price_change_5d", PriceChangeColumn(5))
}
