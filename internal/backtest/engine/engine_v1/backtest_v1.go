package engine

import (
	"context"
	"math/rand"
	"os"
	"slices"
	"sort"
	"time"

	"github.com/IvanHuYY/Stockbot/internal/backtest/engine"
	"github.com/IvanHuYY/Stockbot/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/IvanHuYY/Stockbot/internal/backtest/engine/engine_v1/datasource"
	"github.com/IvanHuYY/Stockbot/internal/backtest/metrics"
	"github.com/IvanHuYY/Stockbot/internal/indicator"
	"github.com/IvanHuYY/Stockbot/internal/logger"
	"github.com/IvanHuYY/Stockbot/internal/risk"
	"github.com/IvanHuYY/Stockbot/internal/strategy"
	"github.com/IvanHuYY/Stockbot/internal/types"
	"github.com/IvanHuYY/Stockbot/internal/utils"
	"github.com/IvanHuYY/Stockbot/internal/version"
	"github.com/IvanHuYY/Stockbot/pkg/errors"
	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const (
	// SignalCadence requests signals on every fifth trading date (index % 5 == 0).
	SignalCadence = 5
	// LookbackBars caps the history handed to the strategy per symbol.
	LookbackBars = 200
	// StopATRMultiple is the stop distance in ATRs.
	StopATRMultiple = 2.0
	// RewardRiskRatio places the take-profit this many stop distances above the fill.
	RewardRiskRatio = risk.RewardRiskRatio
	// MaxCashUtilization rejects entries costing this fraction of cash or more.
	MaxCashUtilization = 0.8
	// ATRFallbackPct stands in for a missing ATR as a fraction of the close.
	ATRFallbackPct = 0.02
	// ExitReasonProtective tags exits triggered by a stop-loss or take-profit.
	ExitReasonProtective = types.TradeReasonProtectiveExit
)

var _ engine.Engine = (*BacktestEngineV1)(nil)

type BacktestEngineV1 struct {
	config        BacktestConfig
	initialized   bool
	strategy      strategy.Strategy
	commission    commission_fee.CommissionFee
	features      *indicator.FeatureEngineer
	datasource    datasource.DataSource
	resultsFolder string
	log           *logger.Logger
	marker        *BacktestMarker
	result        optional.Option[BacktestResult]
}

func NewBacktestEngineV1() *BacktestEngineV1 {
	return &BacktestEngineV1{
		config:        EmptyConfig(),
		initialized:   false,
		strategy:      nil,
		commission:    nil,
		features:      indicator.NewFeatureEngineer(nil),
		datasource:    nil,
		resultsFolder: "",
		log:           nil,
		marker:        nil,
		result:        optional.None[BacktestResult](),
	}
}

// NewBacktestEngineV1WithLogger creates an engine that logs to the given logger
// instead of building one from the configured log level.
func NewBacktestEngineV1WithLogger(log *logger.Logger) *BacktestEngineV1 {
	b := NewBacktestEngineV1()
	b.log = log

	return b
}

// Initialize implements engine.Engine. Keys absent from the YAML keep their DefaultConfig values.
func (b *BacktestEngineV1) Initialize(config string) error {
	cfg := DefaultConfig()

	if err := yaml.Unmarshal([]byte(config), &cfg); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse backtest config", err)
	}

	return b.InitializeWithConfig(cfg)
}

// InitializeWithConfig validates the config and resolves the strategy.
// An unknown strategy name fails here, before any run state exists.
func (b *BacktestEngineV1) InitializeWithConfig(config BacktestConfig) error {
	if b.log == nil {
		log, err := logger.NewLoggerWithLevel(config.LogLevel)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to create logger", err)
		}

		b.log = log
	}

	if err := config.Validate(); err != nil {
		return err
	}

	if err := version.CheckRequirement(version.GetVersion(), config.EngineVersion); err != nil {
		return errors.Wrap(errors.ErrCodeVersionMismatch, "engine version is not compatible with config", err)
	}

	strat, err := strategy.NewWithParams(config.StrategyName, config.StrategyParams)
	if err != nil {
		b.log.Error("Failed to create strategy",
			zap.String("strategy", config.StrategyName),
			zap.Error(err),
		)

		return err
	}

	b.config = config
	b.strategy = strat
	b.commission = commission_fee.GetCommissionFeeHandler(config.Broker, config.Commission)
	b.initialized = true

	b.log.Debug("Backtest engine initialized",
		zap.String("strategy", config.StrategyName),
		zap.Strings("symbols", config.Symbols),
		zap.Float64("initial_capital", config.InitialCapital),
	)

	return nil
}

// SetResultsFolder implements engine.Engine.
func (b *BacktestEngineV1) SetResultsFolder(folder string) error {
	b.resultsFolder = folder

	return nil
}

// SetDataSource implements engine.Engine.
func (b *BacktestEngineV1) SetDataSource(datasource datasource.DataSource) error {
	b.datasource = datasource

	return nil
}

// Config returns the active configuration.
func (b *BacktestEngineV1) Config() BacktestConfig {
	return b.config
}

// Result returns the result of the last completed run.
func (b *BacktestEngineV1) Result() optional.Option[BacktestResult] {
	return b.result
}

// Run implements engine.Engine.
func (b *BacktestEngineV1) Run(ctx context.Context, callbacks engine.LifecycleCallbacks) (err error) {
	if callbacks.OnBacktestEnd != nil {
		defer func() {
			(*callbacks.OnBacktestEnd)(err)
		}()
	}

	if err := b.preRunCheck(); err != nil {
		return err
	}

	data, err := b.loadData()
	if err != nil {
		return err
	}

	result, err := b.run(ctx, data, callbacks)
	if err != nil {
		return err
	}

	if b.resultsFolder == "" {
		return nil
	}

	if err := b.writeResults(result); err != nil {
		return err
	}

	if callbacks.OnResultWritten != nil {
		(*callbacks.OnResultWritten)(b.resultsFolder)
	}

	return nil
}

// RunOnData replays bars that are already loaded. The map may include the benchmark symbol.
func (b *BacktestEngineV1) RunOnData(ctx context.Context, data map[string][]types.Bar) (BacktestResult, error) {
	return b.run(ctx, data, engine.LifecycleCallbacks{})
}

func (b *BacktestEngineV1) GetConfigSchema() (string, error) {
	config := b.config

	schema, err := config.GenerateSchemaJSON()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeBacktestConfigError, "failed to generate schema", err)
	}

	return schema, nil
}

// run is one deterministic pass over the trading dates of the configured symbols.
func (b *BacktestEngineV1) run(ctx context.Context, data map[string][]types.Bar, callbacks engine.LifecycleCallbacks) (BacktestResult, error) {
	if !b.initialized {
		return BacktestResult{}, errors.New(errors.ErrCodeBacktestInitFailed, "backtest engine is not initialized")
	}

	runID := uuid.New().String()
	cfg := b.config
	b.result = optional.None[BacktestResult]()

	series, err := b.prepareSeries(data)
	if err != nil {
		return BacktestResult{}, err
	}

	if len(series) == 0 {
		b.log.Warn("No data loaded for backtest", zap.Strings("symbols", cfg.Symbols))

		result := NewEmptyResult(runID, cfg)
		b.result = optional.Some(result)

		return result, nil
	}

	if err := b.resetMarker(); err != nil {
		return BacktestResult{}, err
	}

	dates := tradingDates(series)
	index := dateIndex(series)
	simulator := b.newSimulator()
	portfolio := NewPortfolio(cfg.InitialCapital)

	barOn := func(symbol string, date time.Time) (types.Bar, bool) {
		i, ok := index[symbol][date]
		if !ok {
			return types.Bar{}, false
		}

		return series[symbol][i], true
	}

	if callbacks.OnBacktestStart != nil {
		if err := (*callbacks.OnBacktestStart)(runID, cfg.StrategyName, len(dates)); err != nil {
			return BacktestResult{}, errors.Wrap(errors.ErrCodeCallbackFailed, "backtest start callback failed", err)
		}
	}

	b.log.Info("Starting backtest",
		zap.String("run_id", runID),
		zap.String("strategy", cfg.StrategyName),
		zap.Strings("symbols", cfg.Symbols),
		zap.Int("dates", len(dates)),
	)

	recordTrade := func(trade types.TradeRecord) error {
		if callbacks.OnTrade == nil {
			return nil
		}

		if err := (*callbacks.OnTrade)(trade); err != nil {
			return errors.Wrap(errors.ErrCodeCallbackFailed, "trade callback failed", err)
		}

		return nil
	}

	lastCloses := make(map[string]float64, len(series))

	for i, date := range dates {
		if err := ctx.Err(); err != nil {
			return BacktestResult{}, err
		}

		// protective exits, stop-loss before take-profit, at most one exit per position
		for _, position := range portfolio.Positions() {
			bar, ok := barOn(position.Symbol, date)
			if !ok {
				continue
			}

			fill := simulator.CheckExits(position, bar)
			if fill.IsNone() {
				continue
			}

			trade, err := portfolio.ClosePosition(fill.Unwrap(), ExitReasonProtective)
			if err != nil {
				return BacktestResult{}, err
			}

			if err := recordTrade(trade); err != nil {
				return BacktestResult{}, err
			}
		}

		if i%SignalCadence == 0 {
			lookback := lookbackWindow(cfg.Symbols, series, index, date)

			if len(lookback) > 0 {
				for _, signal := range inSymbolOrder(b.strategy.GenerateSignals(lookback), cfg.Symbols) {
					if err := b.marker.Mark(date, signal); err != nil {
						return BacktestResult{}, errors.Wrap(errors.ErrCodeDataWriteFailed, "failed to record signal", err)
					}

					bar, ok := barOn(signal.Symbol, date)
					if !ok {
						continue
					}

					trade, err := b.act(simulator, portfolio, signal, bar)
					if err != nil {
						return BacktestResult{}, err
					}

					if trade.IsSome() {
						if err := recordTrade(trade.Unwrap()); err != nil {
							return BacktestResult{}, err
						}
					}
				}
			}
		}

		closes := make(map[string]float64, len(series))
		for symbol := range series {
			if bar, ok := barOn(symbol, date); ok {
				closes[symbol] = bar.Close
			}
		}

		portfolio.RecordEquity(date, portfolio.TotalEquity(closes))

		for symbol, price := range closes {
			lastCloses[symbol] = price
		}

		if callbacks.OnProcessData != nil {
			if err := (*callbacks.OnProcessData)(i+1, len(dates)); err != nil {
				return BacktestResult{}, errors.Wrap(errors.ErrCodeCallbackFailed, "process data callback failed", err)
			}
		}
	}

	signals, err := b.marker.GetMarks()
	if err != nil {
		return BacktestResult{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to read signals log", err)
	}

	equity := portfolio.EquityCurve()
	trades := portfolio.Trades()

	result := BacktestResult{
		ID:          runID,
		Config:      cfg,
		EquityCurve: equity,
		Trades:      trades,
		Metrics:     metrics.Compute(equity, trades, b.benchmarkCurve(data), cfg.RiskFreeRate),
		SignalsLog:  signals,
		Risk:        NewRiskReport(equity, portfolio.Exposure(lastCloses)),
	}
	b.result = optional.Some(result)

	b.log.Info("Backtest complete",
		zap.String("run_id", runID),
		zap.Float64("total_return", result.Metrics.TotalReturn),
		zap.Float64("sharpe", result.Metrics.SharpeRatio),
		zap.Float64("max_drawdown", result.Metrics.MaxDrawdown),
		zap.Int("num_trades", result.Metrics.NumTrades),
	)

	return result, nil
}

// act executes a buy signal for a flat symbol or a sell signal for a held one.
// Any other combination is a no-op.
func (b *BacktestEngineV1) act(simulator *OrderSimulator, portfolio *Portfolio, signal types.Signal, bar types.Bar) (optional.Option[types.TradeRecord], error) {
	held := portfolio.HasPosition(signal.Symbol)

	switch {
	case signal.Action == types.SignalActionBuy && !held:
		return b.enter(simulator, portfolio, signal, bar)
	case signal.Action == types.SignalActionSell && held:
		position := portfolio.Position(signal.Symbol).Unwrap()

		fill, err := simulator.FillMarketOrder(types.SimulatedOrder{
			Symbol:    signal.Symbol,
			Side:      types.OrderSideSell,
			Quantity:  position.Quantity,
			OrderType: types.OrderTypeMarket,
		}, bar.Open, bar.Time)
		if err != nil {
			return optional.None[types.TradeRecord](), err
		}

		trade, err := portfolio.ClosePosition(fill, signal.Reason)
		if err != nil {
			return optional.None[types.TradeRecord](), err
		}

		return optional.Some(trade), nil
	}

	return optional.None[types.TradeRecord](), nil
}

// enter sizes a new position by risk and by the position cap, taking the smaller,
// and brackets it with a stop and a take-profit at RewardRiskRatio.
func (b *BacktestEngineV1) enter(simulator *OrderSimulator, portfolio *Portfolio, signal types.Signal, bar types.Bar) (optional.Option[types.TradeRecord], error) {
	cash := portfolio.Cash()

	atr := bar.Close * ATRFallbackPct
	if value := bar.Indicator(types.ColumnATR14); value.IsSome() {
		atr = value.Unwrap()
	}

	stopDistance := atr * StopATRMultiple
	shares := min(
		utils.FloorShares(cash*b.config.RiskPerTrade, stopDistance),
		utils.FloorShares(cash*b.config.MaxPositionPct, bar.Open),
	)

	if shares <= 0 || float64(shares)*bar.Open >= cash*MaxCashUtilization {
		b.log.Debug("Entry skipped",
			zap.String("symbol", signal.Symbol),
			zap.Int64("shares", shares),
			zap.Float64("cash", cash),
		)

		return optional.None[types.TradeRecord](), nil
	}

	fill, err := simulator.FillMarketOrder(types.SimulatedOrder{
		Symbol:    signal.Symbol,
		Side:      types.OrderSideBuy,
		Quantity:  shares,
		OrderType: types.OrderTypeMarket,
	}, bar.Open, bar.Time)
	if err != nil {
		return optional.None[types.TradeRecord](), err
	}

	levels, err := risk.StopLoss(fill.FillPrice, atr, risk.StopMethodATR, StopATRMultiple, 0)
	if err != nil {
		return optional.None[types.TradeRecord](), err
	}

	trade, err := portfolio.OpenPosition(fill, optional.Some(levels.StopLoss), optional.Some(levels.TakeProfit), signal.Reason)
	if err != nil {
		return optional.None[types.TradeRecord](), err
	}

	return optional.Some(trade), nil
}

// prepareSeries keeps the configured symbols that have bars, normalizes them to calendar
// dates and appends indicator columns to series that do not carry them yet.
func (b *BacktestEngineV1) prepareSeries(data map[string][]types.Bar) (map[string][]types.Bar, error) {
	series := make(map[string][]types.Bar, len(b.config.Symbols))

	for _, symbol := range b.config.Symbols {
		bars := data[symbol]
		if len(bars) == 0 {
			continue
		}

		normalized := make([]types.Bar, len(bars))
		for i, bar := range bars {
			normalized[i] = bar.Clone()
			normalized[i].Time = bar.Date()
		}

		sort.SliceStable(normalized, func(i, j int) bool {
			return normalized[i].Time.Before(normalized[j].Time)
		})

		if _, ok := normalized[len(normalized)-1].Indicators[types.ColumnRSI14]; !ok {
			enriched, err := b.features.ComputeAll(normalized)
			if err != nil {
				return nil, errors.Wrapf(errors.ErrCodeIndicatorCalculation, err, "failed to compute features for %s", symbol)
			}

			normalized = enriched
		}

		series[symbol] = normalized
	}

	return series, nil
}

// benchmarkCurve turns the benchmark symbol's closes into a curve for the metrics.
func (b *BacktestEngineV1) benchmarkCurve(data map[string][]types.Bar) optional.Option[[]types.EquityPoint] {
	if b.config.BenchmarkSymbol == "" {
		return optional.None[[]types.EquityPoint]()
	}

	bars := data[b.config.BenchmarkSymbol]
	if len(bars) == 0 {
		b.log.Warn("Benchmark symbol has no data", zap.String("benchmark", b.config.BenchmarkSymbol))

		return optional.None[[]types.EquityPoint]()
	}

	curve := make([]types.EquityPoint, 0, len(bars))
	for _, bar := range bars {
		curve = append(curve, types.EquityPoint{Date: bar.Date(), Equity: bar.Close})
	}

	sort.SliceStable(curve, func(i, j int) bool {
		return curve[i].Date.Before(curve[j].Date)
	})

	return optional.Some(curve)
}

// newSimulator builds a fresh simulator per run so a seeded run always starts its jitter stream from the seed.
func (b *BacktestEngineV1) newSimulator() *OrderSimulator {
	var rng *rand.Rand
	if !b.config.Deterministic {
		rng = rand.New(rand.NewSource(b.config.Seed))
	}

	return NewOrderSimulator(b.config.SlippageBps, b.commission, rng)
}

func (b *BacktestEngineV1) resetMarker() error {
	if b.marker != nil {
		return b.marker.Cleanup()
	}

	marker, err := NewBacktestMarker(b.log)
	if err != nil {
		return errors.Wrap(errors.ErrCodeBacktestInitFailed, "failed to create backtest marker", err)
	}

	b.marker = marker

	return nil
}

// loadData reads the configured symbols and the benchmark from the data source.
func (b *BacktestEngineV1) loadData() (map[string][]types.Bar, error) {
	symbols := append([]string{}, b.config.Symbols...)
	if b.config.BenchmarkSymbol != "" {
		symbols = append(symbols, b.config.BenchmarkSymbol)
	}

	data, err := b.datasource.LoadBars(symbols, b.config.StartDate, b.config.EndDate)
	if err != nil {
		b.log.Error("Failed to load backtest data", zap.Error(err))

		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to load backtest data", err)
	}

	return data, nil
}

func (b *BacktestEngineV1) writeResults(result BacktestResult) error {
	if b.marker != nil {
		if err := b.marker.Write(b.resultsFolder); err != nil {
			return errors.Wrap(errors.ErrCodeBacktestResultWriteFail, "failed to write signals", err)
		}
	}

	writer, err := NewResultWriter(b.log)
	if err != nil {
		return errors.Wrap(errors.ErrCodeBacktestResultWriteFail, "failed to create result writer", err)
	}
	defer writer.Close()

	if _, err := writer.Write(result, b.resultsFolder); err != nil {
		return err
	}

	return nil
}

// Close releases the signals database.
func (b *BacktestEngineV1) Close() error {
	if b.marker == nil {
		return nil
	}

	err := b.marker.Close()
	b.marker = nil

	return err
}

func (b *BacktestEngineV1) preRunCheck() error {
	if !b.initialized {
		return errors.New(errors.ErrCodeBacktestInitFailed, "backtest engine is not initialized")
	}

	if b.datasource == nil {
		b.log.Error("No datasource set")

		return errors.New(errors.ErrCodeBacktestNoDatasource, "no datasource set")
	}

	if b.resultsFolder != "" {
		if err := os.MkdirAll(b.resultsFolder, 0755); err != nil {
			return errors.Wrap(errors.ErrCodeBacktestResultWriteFail, "failed to create results folder", err)
		}
	}

	return nil
}

// tradingDates is the sorted union of every series' dates.
// inSymbolOrder orders signals by the position of their symbol in symbols, so entries on the
// same date draw on cash in the configured order. Unknown symbols keep their order at the end.
func inSymbolOrder(signals []types.Signal, symbols []string) []types.Signal {
	rank := make(map[string]int, len(symbols))
	for i, symbol := range symbols {
		if _, ok := rank[symbol]; !ok {
			rank[symbol] = i
		}
	}

	position := func(symbol string) int {
		if i, ok := rank[symbol]; ok {
			return i
		}

		return len(symbols)
	}

	ordered := slices.Clone(signals)
	sort.SliceStable(ordered, func(i, j int) bool {
		return position(ordered[i].Symbol) < position(ordered[j].Symbol)
	})

	return ordered
}

func tradingDates(series map[string][]types.Bar) []time.Time {
	seen := make(map[time.Time]bool)
	dates := []time.Time{}

	for _, bars := range series {
		for _, bar := range bars {
			if !seen[bar.Time] {
				seen[bar.Time] = true
				dates = append(dates, bar.Time)
			}
		}
	}

	sort.Slice(dates, func(i, j int) bool {
		return dates[i].Before(dates[j])
	})

	return dates
}

// dateIndex maps each symbol's dates to bar positions. Duplicate dates keep the last bar.
func dateIndex(series map[string][]types.Bar) map[string]map[time.Time]int {
	index := make(map[string]map[time.Time]int, len(series))

	for symbol, bars := range series {
		index[symbol] = make(map[time.Time]int, len(bars))
		for i, bar := range bars {
			index[symbol][bar.Time] = i
		}
	}

	return index
}

// lookbackWindow returns up to LookbackBars bars per symbol ending at date.
// A symbol whose series starts after date is present with an empty window.
func lookbackWindow(symbols []string, series map[string][]types.Bar, index map[string]map[time.Time]int, date time.Time) map[string][]types.Bar {
	window := make(map[string][]types.Bar, len(symbols))

	for _, symbol := range symbols {
		bars, ok := series[symbol]
		if !ok {
			continue
		}

		end, ok := index[symbol][date]
		if ok {
			end++
		} else {
			end = sort.Search(len(bars), func(i int) bool {
				return bars[i].Time.After(date)
			})
		}

		start := max(0, end-LookbackBars)
		window[symbol] = bars[start:end]
	}

	return window
}
