package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	engine "github.com/IvanHuYY/Stockbot/internal/backtest/engine/engine_v1"
	"github.com/IvanHuYY/Stockbot/internal/backtest/engine/engine_v1/datasource"
	"github.com/IvanHuYY/Stockbot/internal/logger"
	"github.com/moznion/go-optional"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const (
	readerDuckDB    = "duckdb"
	readerParquetGo = "parquet-go"
)

// buildConfig layers the YAML file given by --config over the defaults, then explicitly set flags over both.
func buildConfig(cmd *cli.Command) (engine.BacktestConfig, error) {
	config := engine.DefaultConfig()

	if path := cmd.String("config"); path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return config, fmt.Errorf("failed to read config: %w", err)
		}

		if err := yaml.Unmarshal(content, &config); err != nil {
			return config, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if cmd.IsSet("symbols") {
		config.Symbols = splitSymbols(cmd.StringSlice("symbols"))
	}

	if cmd.IsSet("start") {
		config.StartDate = optional.Some(cmd.Timestamp("start").UTC())
	}

	if cmd.IsSet("end") {
		config.EndDate = optional.Some(cmd.Timestamp("end").UTC())
	}

	if cmd.IsSet("capital") {
		config.InitialCapital = cmd.Float("capital")
	}

	if cmd.IsSet("seed") {
		config.Seed = int64(cmd.Int("seed"))
	}

	if cmd.IsSet("benchmark") {
		config.BenchmarkSymbol = strings.ToUpper(cmd.String("benchmark"))
	}

	if cmd.IsSet("strategy") {
		config.StrategyName = cmd.String("strategy")
	}

	if cmd.IsSet("log-level") || cmd.String("config") == "" {
		config.LogLevel = cmd.String("log-level")
	}

	return config, config.Validate()
}

// splitList accepts both repeated flags and comma separated lists.
func splitList(values []string) []string {
	items := []string{}

	for _, value := range values {
		for _, item := range strings.Split(value, ",") {
			item = strings.TrimSpace(item)
			if item != "" {
				items = append(items, item)
			}
		}
	}

	return items
}

func splitSymbols(values []string) []string {
	symbols := splitList(values)
	for i, symbol := range symbols {
		symbols[i] = strings.ToUpper(symbol)
	}

	return symbols
}

// openDataSource picks the data source from the path: DuckDB databases are read through
// their bars table, anything else is treated as parquet.
func openDataSource(path string, reader string, log *logger.Logger) (datasource.DataSource, func(), error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".duckdb", ".db":
		store, err := datasource.NewBarStore(path, log)
		if err != nil {
			return nil, nil, err
		}

		ds, err := store.DataSource(datasource.TimeframeDaily)
		if err != nil {
			store.Close()

			return nil, nil, err
		}

		return ds, func() {
			ds.Close()
			store.Close()
		}, nil
	}

	var ds datasource.DataSource

	switch reader {
	case readerParquetGo:
		ds = datasource.NewParquetDataSource(log)
	case readerDuckDB:
		duckdb, err := datasource.NewDataSource("", log)
		if err != nil {
			return nil, nil, err
		}

		ds = duckdb
	default:
		return nil, nil, fmt.Errorf("unknown reader %q", reader)
	}

	if err := ds.Initialize(path); err != nil {
		ds.Close()

		return nil, nil, err
	}

	return ds, func() { ds.Close() }, nil
}

func joinNames(names []string) string {
	return strings.Join(names, ", ")
}
