package datasource

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/IvanHuYY/Stockbot/internal/logger"
	"github.com/IvanHuYY/Stockbot/internal/types"
	"github.com/IvanHuYY/Stockbot/pkg/errors"
	"github.com/Masterminds/squirrel"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"
)

// DateRange is the earliest and latest stored timestamp for a symbol.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// BarStore persists historical bars in a DuckDB database file.
// Rows are keyed by symbol, timeframe and timestamp, so saving the same bar twice replaces it.
type BarStore struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// NewBarStore opens (or creates) the store at path. An empty path keeps the store in memory.
func NewBarStore(path string, logger *logger.Logger) (*BarStore, error) {
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to create store directory", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to open bar store", err)
	}

	store := &BarStore{
		db:     db,
		logger: logger,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}

	if err := store.initialize(); err != nil {
		db.Close()

		return nil, err
	}

	return store, nil
}

func (s *BarStore) initialize() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS bars (
			symbol VARCHAR,
			timeframe VARCHAR,
			timestamp TIMESTAMP,
			open DOUBLE,
			high DOUBLE,
			low DOUBLE,
			close DOUBLE,
			volume DOUBLE,
			vwap DOUBLE,
			trade_count BIGINT,
			PRIMARY KEY (symbol, timeframe, timestamp)
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to create bars table", err)
	}

	return nil
}

// SaveBars upserts the bars under the given timeframe and returns the number of rows written.
func (s *BarStore) SaveBars(timeframe string, bars []types.Bar) (int, error) {
	if len(bars) == 0 {
		return 0, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeDataWriteFailed, "failed to begin transaction", err)
	}

	for _, bar := range bars {
		var vwap, tradeCount any
		if bar.VWAP.IsSome() {
			vwap = bar.VWAP.Unwrap()
		}

		if bar.TradeCount.IsSome() {
			tradeCount = bar.TradeCount.Unwrap()
		}

		query, args, err := s.sq.Insert("bars").
			Options("OR REPLACE").
			Columns("symbol", "timeframe", "timestamp", "open", "high", "low", "close", "volume", "vwap", "trade_count").
			Values(bar.Symbol, timeframe, bar.Time.UTC(), bar.Open, bar.High, bar.Low, bar.Close, bar.Volume, vwap, tradeCount).
			ToSql()
		if err != nil {
			tx.Rollback()

			return 0, errors.Wrap(errors.ErrCodeDataWriteFailed, "failed to build insert", err)
		}

		if _, err := tx.Exec(query, args...); err != nil {
			tx.Rollback()

			return 0, errors.Wrapf(errors.ErrCodeDataWriteFailed, err, "failed to save bar for %s", bar.Symbol)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(errors.ErrCodeDataWriteFailed, "failed to commit bars", err)
	}

	s.logger.Debug("Saved bars", zap.String("timeframe", timeframe), zap.Int("rows", len(bars)))

	return len(bars), nil
}

// LoadBars returns one symbol's stored bars in ascending time order within the inclusive date range.
func (s *BarStore) LoadBars(symbol string, timeframe string, start optional.Option[time.Time], end optional.Option[time.Time]) ([]types.Bar, error) {
	builder := s.sq.Select("symbol", "timestamp AS time", "open", "high", "low", "close", "volume", "vwap", "trade_count").
		From("bars").
		Where(squirrel.Eq{"symbol": symbol, "timeframe": timeframe})

	query, args, err := applyRange(builder, "timestamp", start, end).OrderBy("timestamp ASC").ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build query", err)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to load bars", err)
	}
	defer rows.Close()

	bars := []types.Bar{}

	for rows.Next() {
		var (
			bar        types.Bar
			vwap       sql.NullFloat64
			tradeCount sql.NullInt64
		)

		if err := rows.Scan(&bar.Symbol, &bar.Time, &bar.Open, &bar.High, &bar.Low, &bar.Close, &bar.Volume, &vwap, &tradeCount); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan bar", err)
		}

		bar.Time = bar.Time.UTC()
		if vwap.Valid {
			bar.VWAP = optional.Some(vwap.Float64)
		}

		if tradeCount.Valid {
			bar.TradeCount = optional.Some(tradeCount.Int64)
		}

		bars = append(bars, bar)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating bars", err)
	}

	return bars, nil
}

// AvailableRange returns the first and last stored timestamp for a symbol, or None when nothing is stored.
func (s *BarStore) AvailableRange(symbol string, timeframe string) (optional.Option[DateRange], error) {
	query, args, err := s.sq.Select("MIN(timestamp)", "MAX(timestamp)").
		From("bars").
		Where(squirrel.Eq{"symbol": symbol, "timeframe": timeframe}).
		ToSql()
	if err != nil {
		return optional.None[DateRange](), errors.Wrap(errors.ErrCodeQueryFailed, "failed to build query", err)
	}

	var first, last sql.NullTime
	if err := s.db.QueryRow(query, args...).Scan(&first, &last); err != nil {
		return optional.None[DateRange](), errors.Wrap(errors.ErrCodeQueryFailed, "failed to query available range", err)
	}

	if !first.Valid {
		return optional.None[DateRange](), nil
	}

	return optional.Some(DateRange{Start: first.Time.UTC(), End: last.Time.UTC()}), nil
}

// StoredSymbols lists every symbol in the store, sorted.
func (s *BarStore) StoredSymbols() ([]string, error) {
	rows, err := s.db.Query("SELECT DISTINCT symbol FROM bars ORDER BY symbol")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to list stored symbols", err)
	}
	defer rows.Close()

	symbols := []string{}

	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan symbol", err)
		}

		symbols = append(symbols, symbol)
	}

	return symbols, rows.Err()
}

// DataSource exposes the stored bars of one timeframe as a DataSource sharing this store's connection.
// Closing the returned data source leaves the store open.
func (s *BarStore) DataSource(timeframe string) (*DuckDBDataSource, error) {
	ds := &DuckDBDataSource{
		db:     s.db,
		logger: s.logger,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		shared: true,
	}

	if err := ds.InitializeFromStore(timeframe); err != nil {
		return nil, err
	}

	return ds, nil
}

// Close closes the underlying database.
func (s *BarStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}

	return nil
}
