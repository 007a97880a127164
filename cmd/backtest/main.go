package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/IvanHuYY/Stockbot/internal/strategy"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
)

// configFlags are shared by the run and compare commands.
func configFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to a backtest config YAML. Flags override its values",
		},
		&cli.StringSliceFlag{
			Name:    "symbols",
			Aliases: []string{"s"},
			Usage:   "Symbols to trade (default AAPL,MSFT,GOOGL)",
		},
		&cli.TimestampFlag{
			Name:  "start",
			Usage: "Start date in `YYYY-MM-DD` format (default 2024-01-01)",
			Config: cli.TimestampConfig{
				Layouts: []string{time.DateOnly},
			},
		},
		&cli.TimestampFlag{
			Name:  "end",
			Usage: "Inclusive end date in `YYYY-MM-DD` format (default 2024-12-31)",
			Config: cli.TimestampConfig{
				Layouts: []string{time.DateOnly},
			},
		},
		&cli.FloatFlag{
			Name:  "capital",
			Usage: "Initial capital in USD (default 100000)",
		},
		&cli.IntFlag{
			Name:  "seed",
			Usage: "Seed of the slippage jitter",
		},
		&cli.StringFlag{
			Name:  "benchmark",
			Usage: "Benchmark symbol used for alpha and beta",
		},
		&cli.StringFlag{
			Name:    "data",
			Aliases: []string{"d"},
			Usage:   "Parquet file or glob, or a DuckDB database holding a bars table",
			Value:   "data/*.parquet",
			Sources: cli.EnvVars("STOCKBOT_DATA_PATH"),
		},
		&cli.StringFlag{
			Name:  "reader",
			Usage: "Parquet reader to use (duckdb, parquet-go)",
			Value: readerDuckDB,
		},
		&cli.StringFlag{
			Name:    "results",
			Aliases: []string{"o"},
			Usage:   "Folder to export trades, equity, signals and stats to. Empty keeps results in memory",
			Sources: cli.EnvVars("STOCKBOT_RESULTS_DIR"),
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "Log level (debug, info, warn, error)",
			Value:   "warn",
			Sources: cli.EnvVars("LOG_LEVEL"),
		},
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "backtest",
		Usage: "Backtest rule-based strategies on daily bars",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run a single strategy and print its metrics",
				Flags: append(configFlags(),
					&cli.StringFlag{
						Name:  "strategy",
						Usage: "Strategy to run (" + joinNames(strategy.List()) + ")",
					},
				),
				Action: runAction,
			},
			{
				Name:  "compare",
				Usage: "Run several strategies in parallel and rank them by Sharpe ratio",
				Flags: append(configFlags(),
					&cli.StringSliceFlag{
						Name:  "strategies",
						Usage: "Strategies to compare (default all)",
					},
					&cli.IntFlag{
						Name:  "parallel",
						Usage: "Maximum number of strategies running at once (default number of CPUs)",
					},
				),
				Action: compareAction,
			},
			{
				Name:  "schema",
				Usage: "Print the JSON schema of the backtest config",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write the schema to this file instead of stdout",
					},
					&cli.BoolFlag{
						Name:  "strategy-params",
						Usage: "Print the schema of the strategy parameters only",
					},
				},
				Action: schemaAction,
			},
		},
	}
}

func main() {
	// .env is optional
	_ = godotenv.Load()

	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
