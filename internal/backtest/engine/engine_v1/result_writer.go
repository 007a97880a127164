package engine

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/IvanHuYY/Stockbot/internal/logger"
	"github.com/IvanHuYY/Stockbot/internal/types"
	"github.com/IvanHuYY/Stockbot/pkg/errors"
	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"go.uber.org/zap"
)

const (
	TradesFileName = "trades.parquet"
	EquityFileName = "equity.parquet"
	StatsFileName  = "stats.yaml"
)

// ResultWriter exports a backtest result to a results folder.
// Trades and the equity curve are staged in an in-memory DuckDB database and copied out as parquet.
type ResultWriter struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// NewResultWriter creates a result writer backed by an in-memory database.
func NewResultWriter(logger *logger.Logger) (*ResultWriter, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &ResultWriter{
		db:     db,
		logger: logger,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}, nil
}

// Write exports the result into folder and returns the stats written to stats.yaml.
// A signals.parquet already present in the folder is referenced from the stats.
func (w *ResultWriter) Write(result BacktestResult, folder string) (types.BacktestStats, error) {
	if err := os.MkdirAll(folder, 0755); err != nil {
		return types.BacktestStats{}, errors.Wrap(errors.ErrCodeBacktestResultWriteFail, "failed to create results folder", err)
	}

	if err := w.reset(); err != nil {
		return types.BacktestStats{}, err
	}

	if err := w.insertTrades(result.Trades); err != nil {
		return types.BacktestStats{}, err
	}

	if err := w.insertEquity(result.EquityCurve); err != nil {
		return types.BacktestStats{}, err
	}

	stats := result.Stats(time.Now().UTC())
	stats.TradesFilePath = filepath.Join(folder, TradesFileName)
	stats.EquityFilePath = filepath.Join(folder, EquityFileName)

	// Using raw SQL as Squirrel doesn't support COPY
	if _, err := w.db.Exec(fmt.Sprintf(`COPY (SELECT symbol, side, quantity, price, pnl, reason, timestamp FROM trades ORDER BY id) TO '%s' (FORMAT PARQUET)`, stats.TradesFilePath)); err != nil {
		return types.BacktestStats{}, errors.Wrap(errors.ErrCodeBacktestResultWriteFail, "failed to export trades to Parquet", err)
	}

	if _, err := w.db.Exec(fmt.Sprintf(`COPY (SELECT date, equity FROM equity ORDER BY date) TO '%s' (FORMAT PARQUET)`, stats.EquityFilePath)); err != nil {
		return types.BacktestStats{}, errors.Wrap(errors.ErrCodeBacktestResultWriteFail, "failed to export equity curve to Parquet", err)
	}

	signalsPath := filepath.Join(folder, SignalsFileName)
	if _, err := os.Stat(signalsPath); err == nil {
		stats.SignalsFilePath = signalsPath
	}

	if err := types.WriteBacktestStats(filepath.Join(folder, StatsFileName), stats); err != nil {
		return types.BacktestStats{}, errors.Wrap(errors.ErrCodeBacktestResultWriteFail, "failed to write stats", err)
	}

	w.logger.Info("Successfully exported backtest results",
		zap.String("folder", folder),
		zap.Int("trades", len(result.Trades)),
		zap.Int("equity_points", len(result.EquityCurve)),
	)

	return stats, nil
}

// Close closes the database connection.
func (w *ResultWriter) Close() error {
	if w.db == nil {
		return nil
	}

	return w.db.Close()
}

func (w *ResultWriter) reset() error {
	_, err := w.db.Exec(`
		DROP TABLE IF EXISTS trades;
		DROP TABLE IF EXISTS equity;
		CREATE TABLE trades (
			id INTEGER PRIMARY KEY,
			symbol TEXT,
			side TEXT,
			quantity BIGINT,
			price DOUBLE,
			pnl DOUBLE,
			reason TEXT,
			timestamp TIMESTAMP
		);
		CREATE TABLE equity (
			date TIMESTAMP PRIMARY KEY,
			equity DOUBLE
		);
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeBacktestResultWriteFail, "failed to create result tables", err)
	}

	return nil
}

func (w *ResultWriter) insertTrades(trades []types.TradeRecord) error {
	for i, trade := range trades {
		_, err := w.sq.Insert("trades").
			Columns("id", "symbol", "side", "quantity", "price", "pnl", "reason", "timestamp").
			Values(i, trade.Symbol, string(trade.Side), trade.Quantity, trade.Price, trade.PnL, trade.Reason, trade.Timestamp.UTC()).
			RunWith(w.db).
			Exec()
		if err != nil {
			return errors.Wrap(errors.ErrCodeBacktestResultWriteFail, "failed to insert trade", err)
		}
	}

	return nil
}

func (w *ResultWriter) insertEquity(curve []types.EquityPoint) error {
	for _, point := range curve {
		_, err := w.sq.Insert("equity").
			Columns("date", "equity").
			Values(point.Date.UTC(), point.Equity).
			RunWith(w.db).
			Exec()
		if err != nil {
			return errors.Wrap(errors.ErrCodeBacktestResultWriteFail, "failed to insert equity point", err)
		}
	}

	return nil
}
