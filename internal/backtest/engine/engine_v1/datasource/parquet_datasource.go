package datasource

import (
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/IvanHuYY/Stockbot/internal/logger"
	"github.com/IvanHuYY/Stockbot/internal/types"
	"github.com/IvanHuYY/Stockbot/pkg/errors"
	"github.com/moznion/go-optional"
	"github.com/parquet-go/parquet-go"
	"go.uber.org/zap"
)

var _ DataSource = (*ParquetDataSource)(nil)

// BarRecord is the on-disk parquet schema for daily bars.
type BarRecord struct {
	Symbol     string   `parquet:"symbol"`
	Time       int64    `parquet:"time,timestamp(millisecond)"` // Unix ms
	Open       float64  `parquet:"open"`
	High       float64  `parquet:"high"`
	Low        float64  `parquet:"low"`
	Close      float64  `parquet:"close"`
	Volume     float64  `parquet:"volume"`
	VWAP       *float64 `parquet:"vwap,optional"`
	TradeCount *int64   `parquet:"trade_count,optional"`
}

// NewBarRecord converts a bar to its parquet record.
func NewBarRecord(bar types.Bar) BarRecord {
	record := BarRecord{
		Symbol: bar.Symbol,
		Time:   bar.Time.UTC().UnixMilli(),
		Open:   bar.Open,
		High:   bar.High,
		Low:    bar.Low,
		Close:  bar.Close,
		Volume: bar.Volume,
	}

	if bar.VWAP.IsSome() {
		vwap := bar.VWAP.Unwrap()
		record.VWAP = &vwap
	}

	if bar.TradeCount.IsSome() {
		count := bar.TradeCount.Unwrap()
		record.TradeCount = &count
	}

	return record
}

// Bar converts the record back to a bar.
func (r BarRecord) Bar() types.Bar {
	bar := types.Bar{
		Symbol: r.Symbol,
		Time:   time.UnixMilli(r.Time).UTC(),
		Open:   r.Open,
		High:   r.High,
		Low:    r.Low,
		Close:  r.Close,
		Volume: r.Volume,
	}

	if r.VWAP != nil {
		bar.VWAP = optional.Some(*r.VWAP)
	}

	if r.TradeCount != nil {
		bar.TradeCount = optional.Some(*r.TradeCount)
	}

	return bar
}

// WriteParquet writes the bars to a parquet file, creating parent directories as needed.
func WriteParquet(path string, bars []types.Bar) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(errors.ErrCodeDataWriteFailed, "failed to create output directory", err)
	}

	records := make([]BarRecord, 0, len(bars))
	for _, bar := range bars {
		records = append(records, NewBarRecord(bar))
	}

	if err := parquet.WriteFile(path, records); err != nil {
		return errors.Wrapf(errors.ErrCodeDataWriteFailed, err, "failed to write parquet file %s", path)
	}

	return nil
}

// ParquetDataSource reads every bar from parquet files into memory.
// It suits small daily datasets where a database is unnecessary.
type ParquetDataSource struct {
	logger *logger.Logger
	memory *InMemoryDataSource
}

// NewParquetDataSource creates an uninitialized parquet data source.
func NewParquetDataSource(logger *logger.Logger) *ParquetDataSource {
	return &ParquetDataSource{
		logger: logger,
		memory: NewInMemoryDataSource(nil),
	}
}

// Initialize implements DataSource. The path may be a single file or a glob pattern.
func (p *ParquetDataSource) Initialize(path string) error {
	files, err := filepath.Glob(path)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidParameter, err, "invalid data path pattern %s", path)
	}

	if len(files) == 0 {
		return errors.Newf(errors.ErrCodeNoDataFound, "no parquet files match %s", path)
	}

	sort.Strings(files)

	bars := []types.Bar{}

	for _, file := range files {
		records, err := parquet.ReadFile[BarRecord](file)
		if err != nil {
			return errors.Wrapf(errors.ErrCodeDataSourceUnavailable, err, "failed to read parquet file %s", file)
		}

		for _, record := range records {
			bars = append(bars, record.Bar())
		}

		p.logger.Debug("Read parquet file", zap.String("file", file), zap.Int("rows", len(records)))
	}

	p.memory = &InMemoryDataSource{bars: bars}

	return nil
}

// LoadBars implements DataSource.
func (p *ParquetDataSource) LoadBars(symbols []string, start optional.Option[time.Time], end optional.Option[time.Time]) (map[string][]types.Bar, error) {
	return p.memory.LoadBars(symbols, start, end)
}

// GetAllSymbols implements DataSource.
func (p *ParquetDataSource) GetAllSymbols() ([]string, error) {
	return p.memory.GetAllSymbols()
}

// Count implements DataSource.
func (p *ParquetDataSource) Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error) {
	return p.memory.Count(start, end)
}

// Close implements DataSource.
func (p *ParquetDataSource) Close() error {
	return p.memory.Close()
}
