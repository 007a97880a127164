package engine

import (
	"context"

	"github.com/IvanHuYY/Stockbot/internal/backtest/engine/engine_v1/datasource"
	"github.com/IvanHuYY/Stockbot/internal/types"
)

// Lifecycle callback types for backtest phases
// All callbacks with error return can abort execution if they return an error

// OnBacktestStartCallback is called when a run begins, once the trading dates are known.
// runID is a unique identifier for this run, generated before processing starts.
type OnBacktestStartCallback func(runID string, strategyName string, totalDates int) error

// OnBacktestEndCallback is called when the run completes (always called via defer).
type OnBacktestEndCallback func(err error)

// OnProcessDataCallback is called after each trading date is processed.
type OnProcessDataCallback func(current int, total int) error

// OnTradeCallback is called for every trade appended to the trade log.
type OnTradeCallback func(trade types.TradeRecord) error

// OnResultWrittenCallback is called after the result files are written to the results folder.
type OnResultWrittenCallback func(resultFolderPath string)

// LifecycleCallbacks holds all lifecycle callback functions for the backtest engine.
// All fields are pointers - nil means no callback will be invoked.
type LifecycleCallbacks struct {
	OnBacktestStart *OnBacktestStartCallback
	OnBacktestEnd   *OnBacktestEndCallback
	OnProcessData   *OnProcessDataCallback
	OnTrade         *OnTradeCallback
	OnResultWritten *OnResultWrittenCallback
}

type Engine interface {
	// Initialize the engine with the given YAML configuration.
	Initialize(config string) error
	// SetDataSource sets the data source bars are loaded from.
	SetDataSource(dataSource datasource.DataSource) error
	// SetResultsFolder sets the output directory for saving backtest results.
	// An empty folder keeps the result in memory only.
	SetResultsFolder(folder string) error
	// Run loads the configured symbols and replays them through the strategy.
	// The context can be used to cancel the backtest between trading dates.
	Run(ctx context.Context, callbacks LifecycleCallbacks) error
	// GetConfigSchema returns the schema of the engine configuration
	GetConfigSchema() (string, error)
}
