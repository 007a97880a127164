package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/IvanHuYY/Stockbot/internal/backtest/comparison"
	engine_types "github.com/IvanHuYY/Stockbot/internal/backtest/engine"
	engine "github.com/IvanHuYY/Stockbot/internal/backtest/engine/engine_v1"
	"github.com/IvanHuYY/Stockbot/internal/logger"
	"github.com/IvanHuYY/Stockbot/internal/strategy"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func runAction(ctx context.Context, cmd *cli.Command) error {
	config, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	log, err := logger.NewLoggerWithLevel(config.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	ds, closeDataSource, err := openDataSource(cmd.String("data"), cmd.String("reader"), log)
	if err != nil {
		return fmt.Errorf("failed to open data: %w", err)
	}
	defer closeDataSource()

	backtestEngine := engine.NewBacktestEngineV1WithLogger(log)
	defer backtestEngine.Close()

	if err := backtestEngine.InitializeWithConfig(config); err != nil {
		return err
	}

	if err := backtestEngine.SetDataSource(ds); err != nil {
		return err
	}

	if results := cmd.String("results"); results != "" {
		if err := backtestEngine.SetResultsFolder(filepath.Join(results, config.StrategyName)); err != nil {
			return err
		}
	}

	if err := backtestEngine.Run(ctx, progressCallbacks(log)); err != nil {
		return err
	}

	result := backtestEngine.Result()
	if result.IsNone() {
		return fmt.Errorf("backtest produced no result")
	}

	out := output(cmd)
	fmt.Fprintln(out, renderSummary(result.Unwrap()))
	fmt.Fprintln(out, renderMetrics(result.Unwrap().Metrics))

	return nil
}

func compareAction(ctx context.Context, cmd *cli.Command) error {
	config, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	log, err := logger.NewLoggerWithLevel(config.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	ds, closeDataSource, err := openDataSource(cmd.String("data"), cmd.String("reader"), log)
	if err != nil {
		return fmt.Errorf("failed to open data: %w", err)
	}
	defer closeDataSource()

	names := splitNames(cmd.StringSlice("strategies"))

	runner := comparison.NewRunner(ds, log)
	if cmd.IsSet("parallel") {
		runner.SetConcurrency(int(cmd.Int("parallel")))
	}

	bar := progressbar.NewOptions(len(names), progressbar.OptionSetDescription("Comparing strategies"), progressbar.OptionShowCount())
	runner.OnStrategyDone(func(name string, _ engine.BacktestResult) {
		_ = bar.Add(1)
	})

	results, err := runner.RunAll(ctx, config, names)
	_ = bar.Finish()

	if err != nil {
		return err
	}

	if folder := cmd.String("results"); folder != "" {
		if err := writeResults(results, folder, log); err != nil {
			return err
		}
	}

	report := comparison.NewStrategyComparator().Compare(results)
	fmt.Fprintln(output(cmd), renderComparison(report))

	return nil
}

func schemaAction(_ context.Context, cmd *cli.Command) error {
	var (
		schema string
		err    error
	)

	if cmd.Bool("strategy-params") {
		schema, err = strategy.ToJSONSchema(strategy.DefaultParams())
	} else {
		config := engine.EmptyConfig()
		schema, err = config.GenerateSchemaJSON()
	}

	if err != nil {
		return fmt.Errorf("failed to generate schema: %w", err)
	}

	path := cmd.String("output")
	if path == "" {
		fmt.Fprintln(output(cmd), schema)

		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	return os.WriteFile(path, []byte(schema), 0644)
}

// progressCallbacks drives a progress bar from the engine lifecycle.
func progressCallbacks(log *logger.Logger) engine_types.LifecycleCallbacks {
	var bar *progressbar.ProgressBar

	onStart := engine_types.OnBacktestStartCallback(func(runID string, strategyName string, totalDates int) error {
		log.Debug("Backtest started", zap.String("run_id", runID), zap.String("strategy", strategyName))
		bar = progressbar.NewOptions(totalDates, progressbar.OptionSetDescription(fmt.Sprintf("Backtesting %s", strategyName)), progressbar.OptionShowCount())

		return nil
	})

	onProcess := engine_types.OnProcessDataCallback(func(current int, total int) error {
		if bar == nil {
			return nil
		}

		return bar.Set(current)
	})

	onEnd := engine_types.OnBacktestEndCallback(func(err error) {
		if bar != nil {
			_ = bar.Finish()
		}
	})

	onWritten := engine_types.OnResultWrittenCallback(func(path string) {
		log.Info("Results written", zap.String("folder", path))
	})

	return engine_types.LifecycleCallbacks{
		OnBacktestStart: &onStart,
		OnBacktestEnd:   &onEnd,
		OnProcessData:   &onProcess,
		OnTrade:         nil,
		OnResultWritten: &onWritten,
	}
}

// writeResults exports every compared result into its own subfolder.
func writeResults(results map[string]engine.BacktestResult, folder string, log *logger.Logger) error {
	writer, err := engine.NewResultWriter(log)
	if err != nil {
		return err
	}
	defer writer.Close()

	for name, result := range results {
		if _, err := writer.Write(result, filepath.Join(folder, name)); err != nil {
			return err
		}
	}

	return nil
}

// splitNames defaults to every registered strategy.
func splitNames(values []string) []string {
	names := splitList(values)
	if len(names) == 0 {
		return strategy.List()
	}

	for i, name := range names {
		names[i] = strings.ToLower(name)
	}

	return names
}

func output(cmd *cli.Command) io.Writer {
	if root := cmd.Root(); root != nil && root.Writer != nil {
		return root.Writer
	}

	return os.Stdout
}
