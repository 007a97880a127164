package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/IvanHuYY/Stockbot/internal/types"
	"github.com/stretchr/testify/suite"
)

type EngineTestSuite struct {
	suite.Suite
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineTestSuite))
}

func (suite *EngineTestSuite) TestEmptyCallbacksAreNil() {
	callbacks := LifecycleCallbacks{}

	suite.Nil(callbacks.OnBacktestStart)
	suite.Nil(callbacks.OnBacktestEnd)
	suite.Nil(callbacks.OnProcessData)
	suite.Nil(callbacks.OnTrade)
	suite.Nil(callbacks.OnResultWritten)
}

func (suite *EngineTestSuite) TestOnBacktestStartCallback() {
	var gotRunID, gotStrategy string

	var gotTotal int

	onStart := OnBacktestStartCallback(func(runID string, strategyName string, totalDates int) error {
		gotRunID, gotStrategy, gotTotal = runID, strategyName, totalDates

		return nil
	})
	callbacks := LifecycleCallbacks{OnBacktestStart: &onStart}

	suite.NoError((*callbacks.OnBacktestStart)("run-1", "momentum", 252))
	suite.Equal("run-1", gotRunID)
	suite.Equal("momentum", gotStrategy)
	suite.Equal(252, gotTotal)
}

func (suite *EngineTestSuite) TestOnTradeCallbackCanAbort() {
	trades := []types.TradeRecord{}
	onTrade := OnTradeCallback(func(trade types.TradeRecord) error {
		if trade.Quantity <= 0 {
			return errors.New("empty trade")
		}

		trades = append(trades, trade)

		return nil
	})

	trade := types.TradeRecord{
		Symbol:    "AAPL",
		Side:      types.OrderSideBuy,
		Quantity:  10,
		Price:     100,
		Timestamp: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
	}

	suite.NoError(onTrade(trade))
	suite.Error(onTrade(types.TradeRecord{Symbol: "AAPL"}))
	suite.Equal([]types.TradeRecord{trade}, trades)
}

func (suite *EngineTestSuite) TestOnProcessDataCallbackWithProgress() {
	var progress []int
	callback := OnProcessDataCallback(func(current int, total int) error {
		progress = append(progress, current)
		return nil
	})

	for i := 1; i <= 5; i++ {
		err := callback(i, 5)
		suite.NoError(err)
	}

	suite.Equal([]int{1, 2, 3, 4, 5}, progress)
}

func (suite *EngineTestSuite) TestOnBacktestEndAndResultWritten() {
	var endErr error

	var folder string

	onEnd := OnBacktestEndCallback(func(err error) { endErr = err })
	onWritten := OnResultWrittenCallback(func(resultFolderPath string) { folder = resultFolderPath })

	callbacks := LifecycleCallbacks{OnBacktestEnd: &onEnd, OnResultWritten: &onWritten}
	(*callbacks.OnBacktestEnd)(errors.New("cancelled"))
	(*callbacks.OnResultWritten)("results/momentum")

	suite.EqualError(endErr, "cancelled")
	suite.Equal("results/momentum", folder)
}
