package datasource

import (
	"sort"
	"time"

	"github.com/IvanHuYY/Stockbot/internal/types"
	"github.com/moznion/go-optional"
)

var _ DataSource = (*InMemoryDataSource)(nil)

// InMemoryDataSource serves bars that are already loaded, e.g. synthetic test data.
type InMemoryDataSource struct {
	bars []types.Bar
}

// NewInMemoryDataSource creates a data source over the given per-symbol series.
func NewInMemoryDataSource(data map[string][]types.Bar) *InMemoryDataSource {
	bars := []types.Bar{}
	for _, series := range data {
		bars = append(bars, series...)
	}

	return &InMemoryDataSource{bars: bars}
}

// Initialize implements DataSource. The path is ignored.
func (ds *InMemoryDataSource) Initialize(_ string) error {
	return nil
}

// LoadBars implements DataSource.
func (ds *InMemoryDataSource) LoadBars(symbols []string, start optional.Option[time.Time], end optional.Option[time.Time]) (map[string][]types.Bar, error) {
	selected := make([]types.Bar, 0, len(ds.bars))

	for _, bar := range ds.bars {
		if inRange(bar.Time, start, end) {
			selected = append(selected, bar.Clone())
		}
	}

	return groupBars(selected, symbols), nil
}

// GetAllSymbols implements DataSource.
func (ds *InMemoryDataSource) GetAllSymbols() ([]string, error) {
	seen := make(map[string]bool)
	symbols := []string{}

	for _, bar := range ds.bars {
		if !seen[bar.Symbol] {
			seen[bar.Symbol] = true
			symbols = append(symbols, bar.Symbol)
		}
	}

	sort.Strings(symbols)

	return symbols, nil
}

// Count implements DataSource.
func (ds *InMemoryDataSource) Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error) {
	count := 0

	for _, bar := range ds.bars {
		if inRange(bar.Time, start, end) {
			count++
		}
	}

	return count, nil
}

// Close implements DataSource.
func (ds *InMemoryDataSource) Close() error {
	ds.bars = nil

	return nil
}
