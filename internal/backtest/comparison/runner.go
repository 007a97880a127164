package comparison

import (
	"context"
	"runtime"
	"sync"

	engine "github.com/IvanHuYY/Stockbot/internal/backtest/engine/engine_v1"
	"github.com/IvanHuYY/Stockbot/internal/backtest/engine/engine_v1/datasource"
	"github.com/IvanHuYY/Stockbot/internal/logger"
	"github.com/IvanHuYY/Stockbot/internal/strategy"
	"github.com/IvanHuYY/Stockbot/internal/types"
	"github.com/IvanHuYY/Stockbot/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// OnStrategyDoneCallback is called once per finished strategy, from the goroutine that ran it.
type OnStrategyDoneCallback func(name string, result engine.BacktestResult)

// Runner backtests several strategies over the same bars, one engine per strategy.
type Runner struct {
	datasource datasource.DataSource
	log        *logger.Logger
	limit      int
	onDone     OnStrategyDoneCallback
}

// NewRunner creates a runner that loads bars from ds once per RunAll.
func NewRunner(ds datasource.DataSource, log *logger.Logger) *Runner {
	return &Runner{
		datasource: ds,
		log:        log,
		limit:      runtime.NumCPU(),
		onDone:     nil,
	}
}

// SetConcurrency caps the number of strategies running at once. Values below 1 mean one.
func (r *Runner) SetConcurrency(limit int) {
	r.limit = max(1, limit)
}

// OnStrategyDone registers a callback invoked as each strategy finishes. It must be safe for concurrent use.
func (r *Runner) OnStrategyDone(callback OnStrategyDoneCallback) {
	r.onDone = callback
}

// RunAll loads the base config's symbols and runs every named strategy over them.
// An empty name list runs every registered strategy. The i-th strategy is seeded with base.Seed+i
// so each engine draws from its own slippage stream. The first failure cancels the rest.
func (r *Runner) RunAll(ctx context.Context, base engine.BacktestConfig, names []string) (map[string]engine.BacktestResult, error) {
	if r.datasource == nil {
		return nil, errors.New(errors.ErrCodeBacktestNoDatasource, "no datasource set")
	}

	symbols := append([]string{}, base.Symbols...)
	if base.BenchmarkSymbol != "" {
		symbols = append(symbols, base.BenchmarkSymbol)
	}

	data, err := r.datasource.LoadBars(symbols, base.StartDate, base.EndDate)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to load comparison data", err)
	}

	return r.RunAllOnData(ctx, base, names, data)
}

// RunAllOnData is RunAll over bars that are already loaded. data is shared read-only by every engine.
func (r *Runner) RunAllOnData(ctx context.Context, base engine.BacktestConfig, names []string, data map[string][]types.Bar) (map[string]engine.BacktestResult, error) {
	names = uniqueNames(names)

	for _, name := range names {
		if _, err := strategy.New(name); err != nil {
			return nil, err
		}
	}

	var mu sync.Mutex

	results := make(map[string]engine.BacktestResult, len(names))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(r.limit)

	for i, name := range names {
		config := base
		config.StrategyName = name
		config.Seed = base.Seed + int64(i)

		group.Go(func() error {
			backtestEngine := engine.NewBacktestEngineV1WithLogger(r.log)
			defer backtestEngine.Close()

			if err := backtestEngine.InitializeWithConfig(config); err != nil {
				return err
			}

			result, err := backtestEngine.RunOnData(groupCtx, data)
			if err != nil {
				r.log.Error("Strategy backtest failed", zap.String("strategy", name), zap.Error(err))

				return err
			}

			mu.Lock()
			results[name] = result
			mu.Unlock()

			if r.onDone != nil {
				r.onDone(name, result)
			}

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	r.log.Info("Comparison complete", zap.Strings("strategies", names))

	return results, nil
}

func uniqueNames(names []string) []string {
	if len(names) == 0 {
		return strategy.List()
	}

	seen := make(map[string]bool, len(names))
	unique := make([]string, 0, len(names))

	for _, name := range names {
		if seen[name] {
			continue
		}

		seen[name] = true
		unique = append(unique, name)
	}

	return unique
}
