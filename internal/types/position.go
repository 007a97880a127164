package types

import (
	"time"

	"github.com/moznion/go-optional"
)

// SimulatedPosition is an open long position. A portfolio holds at most one per symbol.
type SimulatedPosition struct {
	Symbol        string
	Quantity      int64
	AvgEntryPrice float64
	StopLoss      optional.Option[float64]
	TakeProfit    optional.Option[float64]
	EntryTime     time.Time
}

// MarketValue marks the position to the given price.
func (p SimulatedPosition) MarketValue(price float64) float64 {
	return float64(p.Quantity) * price
}

// RealizedPnL returns the profit of closing the position with the given fill,
// net of the exit commission.
func (p SimulatedPosition) RealizedPnL(fill SimulatedFill) float64 {
	return (fill.FillPrice-p.AvgEntryPrice)*float64(fill.Quantity) - fill.Commission
}
