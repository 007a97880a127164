package datasource

import (
	"sort"
	"time"

	"github.com/IvanHuYY/Stockbot/internal/types"
	"github.com/moznion/go-optional"
)

// TimeframeDaily is the only timeframe the backtest engine consumes.
const TimeframeDaily = "1day"

// DataSource provides the daily bars a backtest replays.
type DataSource interface {
	// Initialize points the data source at its input. Parquet sources accept a file path or glob pattern.
	Initialize(path string) error
	// LoadBars returns every requested symbol's bars in ascending time order.
	// Both bounds are inclusive calendar dates. An empty symbol list loads every symbol.
	// Symbols without data are absent from the result.
	LoadBars(symbols []string, start optional.Option[time.Time], end optional.Option[time.Time]) (map[string][]types.Bar, error)
	// GetAllSymbols returns the distinct symbols available, sorted.
	GetAllSymbols() ([]string, error)
	// Count returns the number of bars within the date range
	Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error)
	// Close closes the data source and releases any resources
	Close() error
}

// inRange reports whether ts falls on or between the calendar dates start and end.
func inRange(ts time.Time, start optional.Option[time.Time], end optional.Option[time.Time]) bool {
	if start.IsSome() && ts.Before(start.Unwrap()) {
		return false
	}

	if end.IsSome() && !ts.Before(endExclusive(end.Unwrap())) {
		return false
	}

	return true
}

// endExclusive turns an inclusive end date into the first instant after it.
func endExclusive(end time.Time) time.Time {
	return end.UTC().Truncate(24*time.Hour).AddDate(0, 0, 1)
}

// groupBars groups bars by symbol, keeps only the wanted symbols and sorts each series by time.
func groupBars(bars []types.Bar, symbols []string) map[string][]types.Bar {
	wanted := make(map[string]bool, len(symbols))
	for _, symbol := range symbols {
		wanted[symbol] = true
	}

	grouped := make(map[string][]types.Bar)

	for _, bar := range bars {
		if len(wanted) > 0 && !wanted[bar.Symbol] {
			continue
		}

		grouped[bar.Symbol] = append(grouped[bar.Symbol], bar)
	}

	for symbol := range grouped {
		series := grouped[symbol]
		sort.SliceStable(series, func(i, j int) bool {
			return series[i].Time.Before(series[j].Time)
		})
	}

	return grouped
}
