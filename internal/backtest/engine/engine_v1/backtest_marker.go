package engine

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/IvanHuYY/Stockbot/internal/logger"
	"github.com/IvanHuYY/Stockbot/internal/marker"
	"github.com/IvanHuYY/Stockbot/internal/types"
	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"go.uber.org/zap"
)

// SignalsFileName is the parquet file the signals log is exported to.
const SignalsFileName = "signals.parquet"

var _ marker.Marker = (*BacktestMarker)(nil)

// BacktestMarker implements the Marker interface for backtesting purposes.
// It records every generated signal in an in-memory DuckDB database.
type BacktestMarker struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// NewBacktestMarker creates a new instance of BacktestMarker.
func NewBacktestMarker(logger *logger.Logger) (*BacktestMarker, error) {
	// Create an in-memory DuckDB database
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		logger.Error("Failed to open database", zap.Error(err))

		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection to ensure database is properly initialized
	if err := db.Ping(); err != nil {
		logger.Error("Failed to connect to database", zap.Error(err))
		db.Close()

		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	marker := &BacktestMarker{
		logger: logger,
		db:     db,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}

	if err := marker.initialize(); err != nil {
		db.Close()

		return nil, err
	}

	return marker, nil
}

// Mark implements the Marker interface. It records the signal generated on the given date.
func (m *BacktestMarker) Mark(date time.Time, signal types.Signal) error {
	if m == nil || m.db == nil {
		return fmt.Errorf("backtest marker or database is nil")
	}

	var nextID int

	err := m.db.QueryRow("SELECT nextval('signal_id_seq')").Scan(&nextID)
	if err != nil {
		return fmt.Errorf("failed to get next ID from sequence: %w", err)
	}

	insertQuery := m.sq.
		Insert("signals").
		Columns("id", "date", "symbol", "action", "strength", "reason").
		Values(nextID, date, signal.Symbol, string(signal.Action), signal.Strength, signal.Reason).
		RunWith(m.db)

	if _, err := insertQuery.Exec(); err != nil {
		return fmt.Errorf("failed to insert signal: %w", err)
	}

	return nil
}

// GetMarks implements the Marker interface. It returns all recorded signals in insertion order.
func (m *BacktestMarker) GetMarks() ([]types.SignalLogEntry, error) {
	if m == nil || m.db == nil {
		return nil, fmt.Errorf("backtest marker or database is nil")
	}

	selectQuery := m.sq.
		Select("date", "symbol", "action", "strength", "reason").
		From("signals").
		OrderBy("id ASC").
		RunWith(m.db)

	rows, err := selectQuery.Query()
	if err != nil {
		return nil, fmt.Errorf("failed to query signals: %w", err)
	}
	defer rows.Close()

	entries := []types.SignalLogEntry{}

	for rows.Next() {
		var entry types.SignalLogEntry

		var action string

		if err := rows.Scan(&entry.Date, &entry.Symbol, &action, &entry.Strength, &entry.Reason); err != nil {
			return nil, fmt.Errorf("failed to scan signal: %w", err)
		}

		entry.Action = types.SignalAction(action)
		entry.Date = entry.Date.UTC()
		entries = append(entries, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating signals: %w", err)
	}

	return entries, nil
}

// Write saves the signals log to a Parquet file in the specified directory.
func (m *BacktestMarker) Write(path string) error {
	if m == nil || m.db == nil || m.logger == nil {
		return fmt.Errorf("backtest marker, database, or logger is nil")
	}

	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	signalsPath := filepath.Join(path, SignalsFileName)

	_, err := m.db.Exec(fmt.Sprintf(`COPY (SELECT date, symbol, action, strength, reason FROM signals ORDER BY id) TO '%s' (FORMAT PARQUET)`, signalsPath))
	if err != nil {
		return fmt.Errorf("failed to export signals to Parquet: %w", err)
	}

	m.logger.Debug("Exported signals to Parquet file",
		zap.String("signals", signalsPath),
	)

	return nil
}

// Cleanup resets the database state.
func (m *BacktestMarker) Cleanup() error {
	if m == nil || m.db == nil {
		return fmt.Errorf("backtest marker or database is nil")
	}

	_, err := m.db.Exec(`
		DROP TABLE IF EXISTS signals;
		DROP SEQUENCE IF EXISTS signal_id_seq;
	`)
	if err != nil {
		return fmt.Errorf("failed to cleanup signals table: %w", err)
	}

	return m.initialize()
}

// Close closes the database connection.
func (m *BacktestMarker) Close() error {
	if m == nil || m.db == nil {
		return nil
	}

	return m.db.Close()
}

// initialize creates the table storing the signals log.
func (m *BacktestMarker) initialize() error {
	if m == nil || m.db == nil {
		return fmt.Errorf("backtest marker or database is nil")
	}

	_, err := m.db.Exec(`CREATE SEQUENCE IF NOT EXISTS signal_id_seq`)
	if err != nil {
		return fmt.Errorf("failed to create sequence: %w", err)
	}

	_, err = m.db.Exec(`
		CREATE TABLE IF NOT EXISTS signals (
			id INTEGER PRIMARY KEY,
			date TIMESTAMP,
			symbol TEXT,
			action TEXT,
			strength DOUBLE,
			reason TEXT
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create signals table: %w", err)
	}

	return nil
}
