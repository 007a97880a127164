package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignalScore(t *testing.T) {
	tests := []struct {
		name     string
		signal   Signal
		expected float64
	}{
		{"buy is positive", Signal{Action: SignalActionBuy, Strength: 0.6}, 0.6},
		{"sell is negative", Signal{Action: SignalActionSell, Strength: 0.4}, -0.4},
		{"hold is zero", Signal{Action: SignalActionHold, Strength: 0.2}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, tt.signal.Score(), 1e-12)
		})
	}
}

func TestNewHoldSignal(t *testing.T) {
	signal := NewHoldSignal("MSFT", "No data")

	assert.Equal(t, "MSFT", signal.Symbol)
	assert.Equal(t, SignalActionHold, signal.Action)
	assert.Equal(t, 0.0, signal.Strength)
	assert.Equal(t, "No data", signal.Reason)
}

func TestTradeRecordIsExit(t *testing.T) {
	assert.True(t, TradeRecord{Side: OrderSideSell}.IsExit())
	assert.False(t, TradeRecord{Side: OrderSideBuy}.IsExit())
}

func TestPositionRealizedPnL(t *testing.T) {
	position := SimulatedPosition{Symbol: "AAPL", Quantity: 100, AvgEntryPrice: 150}
	fill := SimulatedFill{Symbol: "AAPL", Side: OrderSideSell, Quantity: 100, FillPrice: 160, Commission: 1}

	assert.InDelta(t, 999.0, position.RealizedPnL(fill), 1e-9)
	assert.InDelta(t, 16000.0, position.MarketValue(160), 1e-9)
	assert.InDelta(t, 16000.0, fill.Notional(), 1e-9)
}
