package datasource

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/IvanHuYY/Stockbot/internal/logger"
	"github.com/IvanHuYY/Stockbot/internal/types"
	"github.com/IvanHuYY/Stockbot/pkg/errors"
	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"
)

var _ DataSource = (*DuckDBDataSource)(nil)

// DuckDBDataSource reads daily bars through a DuckDB view named market_data.
// The view is either built over parquet files or over the bars table of a BarStore.
type DuckDBDataSource struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
	// shared is set when the database handle belongs to a BarStore
	shared bool
	// optional columns present on the view
	hasVWAP       bool
	hasTradeCount bool
}

// NewDataSource creates a new DuckDB data source instance with the specified database path.
// An empty path opens an in-memory database.
// This is distinct from Initialize() which points the view at market data.
func NewDataSource(path string, logger *logger.Logger) (*DuckDBDataSource, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to open duckdb", err)
	}

	return &DuckDBDataSource{
		db:     db,
		logger: logger,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}, nil
}

// Initialize implements DataSource. The path may be a single parquet file or a glob pattern.
func (d *DuckDBDataSource) Initialize(path string) error {
	d.logger.Debug("Initializing DuckDB data source", zap.String("path", path))

	// Using raw SQL as Squirrel doesn't support CREATE VIEW
	query := fmt.Sprintf(`
		CREATE OR REPLACE VIEW market_data AS
		SELECT * FROM read_parquet('%s');
	`, path)

	if _, err := d.db.Exec(query); err != nil {
		return errors.Wrapf(errors.ErrCodeDataSourceUnavailable, err, "failed to read parquet data from %s", path)
	}

	return d.detectColumns()
}

// InitializeFromStore points the view at the bars table of the attached database for one timeframe.
func (d *DuckDBDataSource) InitializeFromStore(timeframe string) error {
	d.logger.Debug("Initializing DuckDB data source from bar store", zap.String("timeframe", timeframe))

	query := `
		CREATE OR REPLACE VIEW market_data AS
		SELECT symbol, timestamp AS time, open, high, low, close, volume, vwap, trade_count
		FROM bars
		WHERE timeframe = '` + strings.ReplaceAll(timeframe, "'", "''") + `';`

	if _, err := d.db.Exec(query); err != nil {
		return errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to create market data view from bar store", err)
	}

	return d.detectColumns()
}

// LoadBars implements DataSource.
func (d *DuckDBDataSource) LoadBars(symbols []string, start optional.Option[time.Time], end optional.Option[time.Time]) (map[string][]types.Bar, error) {
	columns := []string{"symbol", "time", "open", "high", "low", "close", "volume"}
	if d.hasVWAP {
		columns = append(columns, "vwap")
	}

	if d.hasTradeCount {
		columns = append(columns, "trade_count")
	}

	builder := d.sq.Select(columns...).From("market_data")
	if len(symbols) > 0 {
		builder = builder.Where(squirrel.Eq{"symbol": symbols})
	}

	builder = applyRange(builder, "time", start, end)

	query, args, err := builder.OrderBy("symbol ASC", "time ASC").ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build query", err)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query market data", err)
	}
	defer rows.Close()

	bars := []types.Bar{}

	for rows.Next() {
		var (
			bar        types.Bar
			vwap       sql.NullFloat64
			tradeCount sql.NullInt64
		)

		dest := []any{&bar.Symbol, &bar.Time, &bar.Open, &bar.High, &bar.Low, &bar.Close, &bar.Volume}
		if d.hasVWAP {
			dest = append(dest, &vwap)
		}

		if d.hasTradeCount {
			dest = append(dest, &tradeCount)
		}

		if err := rows.Scan(dest...); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan row", err)
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
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating rows", err)
	}

	d.logger.Debug("Loaded bars", zap.Int("count", len(bars)), zap.Strings("symbols", symbols))

	return groupBars(bars, symbols), nil
}

// Count implements DataSource.
func (d *DuckDBDataSource) Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error) {
	query, args, err := applyRange(d.sq.Select("COUNT(*)").From("market_data"), "time", start, end).ToSql()
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build query", err)
	}

	var count int
	if err := d.db.QueryRow(query, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to count market data", err)
	}

	return count, nil
}

// GetAllSymbols returns all distinct symbols from the market data.
func (d *DuckDBDataSource) GetAllSymbols() ([]string, error) {
	rows, err := d.db.Query("SELECT DISTINCT symbol FROM market_data ORDER BY symbol")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to get symbols", err)
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

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating symbols", err)
	}

	return symbols, nil
}

// Close implements DataSource.
func (d *DuckDBDataSource) Close() error {
	if d.db != nil && !d.shared {
		return d.db.Close()
	}

	return nil
}

func (d *DuckDBDataSource) detectColumns() error {
	rows, err := d.db.Query("SELECT column_name FROM (DESCRIBE market_data)")
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to describe market data", err)
	}
	defer rows.Close()

	d.hasVWAP = false
	d.hasTradeCount = false

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan column name", err)
		}

		switch name {
		case "vwap":
			d.hasVWAP = true
		case "trade_count":
			d.hasTradeCount = true
		}
	}

	return rows.Err()
}

// applyRange adds the inclusive calendar date bounds to a query.
func applyRange(builder squirrel.SelectBuilder, column string, start optional.Option[time.Time], end optional.Option[time.Time]) squirrel.SelectBuilder {
	if start.IsSome() {
		builder = builder.Where(squirrel.GtOrEq{column: start.Unwrap().UTC()})
	}

	if end.IsSome() {
		builder = builder.Where(squirrel.Lt{column: endExclusive(end.Unwrap())})
	}

	return builder
}
