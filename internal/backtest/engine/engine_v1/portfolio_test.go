package engine

import (
	"testing"
	"time"

	"github.com/IvanHuYY/Stockbot/internal/types"
	"github.com/IvanHuYY/Stockbot/pkg/errors"
	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"
)

type PortfolioTestSuite struct {
	suite.Suite
	portfolio *Portfolio
	ts        time.Time
}

func TestPortfolioSuite(t *testing.T) {
	suite.Run(t, new(PortfolioTestSuite))
}

func (suite *PortfolioTestSuite) SetupTest() {
	suite.portfolio = NewPortfolio(10000)
	suite.ts = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
}

func (suite *PortfolioTestSuite) fill(symbol string, side types.OrderSide, quantity int64, price, commission float64) types.SimulatedFill {
	return types.SimulatedFill{
		Symbol:     symbol,
		Side:       side,
		Quantity:   quantity,
		FillPrice:  price,
		Commission: commission,
		Timestamp:  suite.ts,
	}
}

func (suite *PortfolioTestSuite) TestNewPortfolio() {
	suite.Equal(10000.0, suite.portfolio.Cash())
	suite.Equal(10000.0, suite.portfolio.InitialCapital())
	suite.Empty(suite.portfolio.Positions())
	suite.Empty(suite.portfolio.Trades())
	suite.Equal(10000.0, suite.portfolio.TotalEquity(nil))
}

func (suite *PortfolioTestSuite) TestOpenPosition() {
	trade, err := suite.portfolio.OpenPosition(
		suite.fill("AAPL", types.OrderSideBuy, 10, 100, 1),
		optional.Some(95.0), optional.Some(110.0), "RSI oversold (25)",
	)

	suite.Require().NoError(err)
	suite.Equal(8999.0, suite.portfolio.Cash())
	suite.Equal(types.OrderSideBuy, trade.Side)
	suite.Equal(0.0, trade.PnL)
	suite.Equal("RSI oversold (25)", trade.Reason)

	position := suite.portfolio.Position("AAPL")
	suite.Require().True(position.IsSome())
	suite.Equal(int64(10), position.Unwrap().Quantity)
	suite.Equal(100.0, position.Unwrap().AvgEntryPrice)
	suite.Equal(95.0, position.Unwrap().StopLoss.Unwrap())
	suite.Equal(110.0, position.Unwrap().TakeProfit.Unwrap())
	suite.Equal(suite.ts, position.Unwrap().EntryTime)
}

func (suite *PortfolioTestSuite) TestOpenPositionTwiceRejected() {
	_, err := suite.portfolio.OpenPosition(suite.fill("AAPL", types.OrderSideBuy, 10, 100, 0), optional.None[float64](), optional.None[float64](), "")
	suite.Require().NoError(err)

	_, err = suite.portfolio.OpenPosition(suite.fill("AAPL", types.OrderSideBuy, 5, 101, 0), optional.None[float64](), optional.None[float64](), "")
	suite.Error(err)
	suite.Equal(errors.ErrCodePositionAlreadyOpen, errors.GetCode(err))
	suite.Equal(9000.0, suite.portfolio.Cash())
	suite.Len(suite.portfolio.Trades(), 1)
}

func (suite *PortfolioTestSuite) TestOpenPositionWithSellFillRejected() {
	_, err := suite.portfolio.OpenPosition(suite.fill("AAPL", types.OrderSideSell, 10, 100, 0), optional.None[float64](), optional.None[float64](), "")

	suite.Error(err)
	suite.Equal(errors.ErrCodeInvalidOrder, errors.GetCode(err))
}

func (suite *PortfolioTestSuite) TestClosePosition() {
	_, err := suite.portfolio.OpenPosition(suite.fill("AAPL", types.OrderSideBuy, 10, 100, 1), optional.None[float64](), optional.None[float64](), "entry")
	suite.Require().NoError(err)

	trade, err := suite.portfolio.ClosePosition(suite.fill("AAPL", types.OrderSideSell, 10, 110, 1), "exit")

	suite.Require().NoError(err)
	suite.Equal(99.0, trade.PnL)
	suite.Equal(types.OrderSideSell, trade.Side)
	suite.Equal("exit", trade.Reason)
	suite.Equal(10098.0, suite.portfolio.Cash())
	suite.False(suite.portfolio.HasPosition("AAPL"))
	suite.Len(suite.portfolio.Trades(), 2)
}

func (suite *PortfolioTestSuite) TestCloseMissingPosition() {
	_, err := suite.portfolio.ClosePosition(suite.fill("AAPL", types.OrderSideSell, 10, 110, 0), "exit")

	suite.Error(err)
	suite.Equal(errors.ErrCodePositionNotFound, errors.GetCode(err))
	suite.Equal(10000.0, suite.portfolio.Cash())
}

func (suite *PortfolioTestSuite) TestPositionsKeepOpenOrder() {
	for _, symbol := range []string{"MSFT", "AAPL", "GOOGL"} {
		_, err := suite.portfolio.OpenPosition(suite.fill(symbol, types.OrderSideBuy, 1, 100, 0), optional.None[float64](), optional.None[float64](), "")
		suite.Require().NoError(err)
	}

	_, err := suite.portfolio.ClosePosition(suite.fill("AAPL", types.OrderSideSell, 1, 100, 0), "")
	suite.Require().NoError(err)

	positions := suite.portfolio.Positions()
	suite.Require().Len(positions, 2)
	suite.Equal("MSFT", positions[0].Symbol)
	suite.Equal("GOOGL", positions[1].Symbol)
}

func (suite *PortfolioTestSuite) TestTotalEquityMarksToClose() {
	_, err := suite.portfolio.OpenPosition(suite.fill("AAPL", types.OrderSideBuy, 10, 100, 0), optional.None[float64](), optional.None[float64](), "")
	suite.Require().NoError(err)
	_, err = suite.portfolio.OpenPosition(suite.fill("MSFT", types.OrderSideBuy, 5, 200, 0), optional.None[float64](), optional.None[float64](), "")
	suite.Require().NoError(err)

	suite.Equal(8000.0+10*105+5*190, suite.portfolio.TotalEquity(map[string]float64{"AAPL": 105, "MSFT": 190}))

	// a position without a close on the date is left out
	suite.Equal(8000.0+10*105, suite.portfolio.TotalEquity(map[string]float64{"AAPL": 105}))
}

func (suite *PortfolioTestSuite) TestEquityCurveIsCopied() {
	suite.portfolio.RecordEquity(suite.ts, 10000)
	suite.portfolio.RecordEquity(suite.ts.AddDate(0, 0, 1), 10100)

	curve := suite.portfolio.EquityCurve()
	suite.Require().Len(curve, 2)
	curve[0].Equity = 0

	suite.Equal(10000.0, suite.portfolio.EquityCurve()[0].Equity)
}

func (suite *PortfolioTestSuite) TestExposure() {
	_, err := suite.portfolio.OpenPosition(suite.fill("AAPL", types.OrderSideBuy, 10, 100, 0), optional.None[float64](), optional.None[float64](), "")
	suite.Require().NoError(err)
	_, err = suite.portfolio.OpenPosition(suite.fill("MSFT", types.OrderSideBuy, 5, 200, 0), optional.None[float64](), optional.None[float64](), "")
	suite.Require().NoError(err)

	exposure := suite.portfolio.Exposure(map[string]float64{"AAPL": 110, "MSFT": 180})

	suite.Equal(2, exposure.NumPositions)
	suite.Equal(2000.0, exposure.TotalExposure)
	suite.Require().Len(exposure.Positions, 2)
	suite.Equal("AAPL", exposure.Positions[0].Symbol)
	suite.Equal(100.0, exposure.Positions[0].UnrealizedPnL)
	suite.Equal(-100.0, exposure.Positions[1].UnrealizedPnL)

	// MSFT has no close and is left out
	partial := suite.portfolio.Exposure(map[string]float64{"AAPL": 100})
	suite.Equal(1, partial.NumPositions)
	suite.Equal(1.0, partial.MaxPositionWeight)
}

func (suite *PortfolioTestSuite) TestExposureWithoutPositions() {
	exposure := suite.portfolio.Exposure(map[string]float64{"AAPL": 100})

	suite.Equal(0, exposure.NumPositions)
	suite.Empty(exposure.Positions)
}
