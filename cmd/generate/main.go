package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	engine "github.com/IvanHuYY/Stockbot/internal/backtest/engine/engine_v1"
	"github.com/IvanHuYY/Stockbot/internal/backtest/engine/engine_v1/datasource"
	"github.com/IvanHuYY/Stockbot/internal/logger"
	"github.com/IvanHuYY/Stockbot/internal/types"
	"github.com/IvanHuYY/Stockbot/mocks"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const (
	schemaFileName       = "backtest-engine-v1-config.json"
	sampleConfigFileName = "backtest-engine-v1-config.yaml"
)

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "generate",
		Usage: "Generate config schemas and synthetic market data",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Write the config JSON schema and a sample YAML config",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "dir",
						Usage: "Output directory",
						Value: "./config",
					},
				},
				Action: configAction,
			},
			{
				Name:  "bars",
				Usage: "Write synthetic daily bars to a parquet file or a DuckDB database",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:    "symbols",
						Aliases: []string{"s"},
						Usage:   "Symbols to generate",
						Value:   []string{"AAPL", "MSFT", "GOOGL", "SPY"},
					},
					&cli.TimestampFlag{
						Name:  "start",
						Usage: "First trading day in `YYYY-MM-DD` format (default 2024-01-01)",
						Config: cli.TimestampConfig{
							Layouts: []string{time.DateOnly},
						},
					},
					&cli.IntFlag{
						Name:  "count",
						Usage: "Number of bars per symbol",
						Value: 252,
					},
					&cli.IntFlag{
						Name:  "seed",
						Usage: "Random seed",
						Value: 42,
					},
					&cli.FloatFlag{
						Name:  "volatility",
						Usage: "Daily volatility of the price walk",
						Value: 0.02,
					},
					&cli.FloatFlag{
						Name:  "drift",
						Usage: "Daily drift of the price walk",
						Value: 0.0003,
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file (.parquet, .duckdb or .db)",
						Value:   "data/bars.parquet",
					},
				},
				Action: barsAction,
			},
		},
	}
}

func configAction(_ context.Context, cmd *cli.Command) error {
	dir := cmd.String("dir")
	config := engine.DefaultConfig()

	schemaPath := filepath.Join(dir, schemaFileName)
	samplePath := filepath.Join(dir, sampleConfigFileName)

	if err := validatePaths(schemaPath, samplePath); err != nil {
		return err
	}

	if err := validateSchemaName(schemaFileName); err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := generateSchemaFile(config, schemaPath); err != nil {
		return err
	}

	if err := generateSampleConfig(config, samplePath, schemaFileName); err != nil {
		return err
	}

	fmt.Fprintf(cmd.Root().Writer, "Schema written to %s\n", schemaPath)

	return nil
}

// generateSchemaFile writes the JSON schema of the config to path.
func generateSchemaFile(config engine.BacktestConfig, path string) error {
	schemaJSON, err := config.GenerateSchemaJSON()
	if err != nil {
		return fmt.Errorf("failed to generate schema: %w", err)
	}

	if err := os.WriteFile(path, []byte(schemaJSON), 0644); err != nil {
		return fmt.Errorf("failed to write schema to file: %w", err)
	}

	return nil
}

// generateSampleConfig writes config as YAML unless samplePath already exists.
func generateSampleConfig(config engine.BacktestConfig, samplePath string, schemaName string) error {
	if _, err := os.Stat(samplePath); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat sample config: %w", err)
	}

	yamlBytes, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal sample config to yaml: %w", err)
	}

	yamlBytes = append([]byte(getSchemaReference(schemaName)), yamlBytes...)

	if err := os.WriteFile(samplePath, yamlBytes, 0644); err != nil {
		return fmt.Errorf("failed to write sample config to file: %w", err)
	}

	return nil
}

func validatePaths(schemaPath string, samplePath string) error {
	if schemaPath == "" {
		return errors.New("schema path cannot be empty")
	}

	if samplePath == "" {
		return errors.New("sample config path cannot be empty")
	}

	return nil
}

func validateSchemaName(name string) error {
	if name == "" {
		return errors.New("schema name cannot be empty")
	}

	if filepath.Ext(name) != ".json" {
		return fmt.Errorf("schema name %q must have .json extension", name)
	}

	return nil
}

// getSchemaReference returns the yaml-language-server header pointing at the schema.
func getSchemaReference(schemaName string) string {
	return "# yaml-language-server: $schema=" + schemaName + "\n"
}

func barsAction(_ context.Context, cmd *cli.Command) error {
	symbols := splitSymbols(cmd.StringSlice("symbols"))
	if len(symbols) == 0 {
		return errors.New("at least one symbol is required")
	}

	count := int(cmd.Int("count"))
	if count <= 0 {
		return fmt.Errorf("count must be positive, got %d", count)
	}

	config := mocks.DefaultConfig()
	config.Count = count
	config.Volatility = cmd.Float("volatility")
	config.Drift = cmd.Float("drift")

	if cmd.IsSet("start") {
		config.StartDate = cmd.Timestamp("start").UTC()
	}

	generated := mocks.NewDataGenerator(int64(cmd.Int("seed"))).GenerateBySymbol(symbols, config)

	bars := make([]types.Bar, 0, len(symbols)*count)
	for _, symbol := range symbols {
		bars = append(bars, generated[symbol]...)
	}

	output := cmd.String("output")
	if dir := filepath.Dir(output); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := writeBars(output, bars); err != nil {
		return err
	}

	fmt.Fprintf(cmd.Root().Writer, "Wrote %d bars for %s to %s\n", len(bars), strings.Join(symbols, ", "), output)

	return nil
}

// writeBars stores bars as parquet or into the bars table of a DuckDB database.
func writeBars(path string, bars []types.Bar) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet":
		return datasource.WriteParquet(path, bars)
	case ".duckdb", ".db":
		store, err := datasource.NewBarStore(path, logger.NewNopLogger())
		if err != nil {
			return err
		}
		defer store.Close()

		_, err = store.SaveBars(datasource.TimeframeDaily, bars)

		return err
	default:
		return fmt.Errorf("unsupported output format %q", filepath.Ext(path))
	}
}

func splitSymbols(values []string) []string {
	seen := map[string]bool{}
	symbols := []string{}

	for _, value := range values {
		for _, item := range strings.Split(value, ",") {
			symbol := strings.ToUpper(strings.TrimSpace(item))
			if symbol == "" || seen[symbol] {
				continue
			}

			seen[symbol] = true
			symbols = append(symbols, symbol)
		}
	}

	sort.Strings(symbols)

	return symbols
}

func main() {
	// .env is optional
	_ = godotenv.Load()

	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
