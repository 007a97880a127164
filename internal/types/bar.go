package types

import (
	"maps"
	"math"
	"time"

	"github.com/moznion/go-optional"
)

// Bar is a single daily OHLCV record for one symbol.
// Indicator columns are derived once per load and keyed by column name (e.g. "rsi_14").
type Bar struct {
	Symbol     string
	Time       time.Time
	Open       float64
	High       float64
	Low        float64
	Close      float64
	Volume     float64
	VWAP       optional.Option[float64]
	TradeCount optional.Option[int64]
	Indicators map[string]float64
}

// Indicator returns the value of the given indicator column.
// Missing columns and NaN values are reported as None.
func (b Bar) Indicator(column string) optional.Option[float64] {
	if b.Indicators == nil {
		return optional.None[float64]()
	}

	value, ok := b.Indicators[column]
	if !ok || math.IsNaN(value) {
		return optional.None[float64]()
	}

	return optional.Some(value)
}

// SetIndicator stores an indicator column value on the bar.
func (b *Bar) SetIndicator(column string, value float64) {
	if b.Indicators == nil {
		b.Indicators = make(map[string]float64)
	}

	b.Indicators[column] = value
}

// Clone returns a copy of the bar that does not share its indicator map.
func (b Bar) Clone() Bar {
	clone := b
	if b.Indicators != nil {
		clone.Indicators = maps.Clone(b.Indicators)
	}

	return clone
}

// Date truncates the bar timestamp to its UTC calendar day.
func (b Bar) Date() time.Time {
	return b.Time.UTC().Truncate(24 * time.Hour)
}
