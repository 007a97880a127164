package types

import "time"

type SignalAction string

const (
	// SignalActionBuy recommends opening a long position
	SignalActionBuy SignalAction = "buy"
	// SignalActionSell recommends closing an open long position
	SignalActionSell SignalAction = "sell"
	// SignalActionHold recommends no action
	SignalActionHold SignalAction = "hold"
)

// Signal is a trading recommendation produced by a strategy for one symbol.
type Signal struct {
	// Symbol is the symbol of the signal
	Symbol string `yaml:"symbol" json:"symbol"`
	// Action is the recommended action
	Action SignalAction `yaml:"action" json:"action"`
	// Strength is the conviction of the signal in [0, 1]
	Strength float64 `yaml:"strength" json:"strength"`
	// Reason is a human readable explanation
	Reason string `yaml:"reason" json:"reason"`
}

// NewHoldSignal returns a zero strength hold signal.
func NewHoldSignal(symbol string, reason string) Signal {
	return Signal{
		Symbol:   symbol,
		Action:   SignalActionHold,
		Strength: 0,
		Reason:   reason,
	}
}

// Score converts the signal into a signed score: +strength for buy, -strength for sell, 0 for hold.
func (s Signal) Score() float64 {
	switch s.Action {
	case SignalActionBuy:
		return s.Strength
	case SignalActionSell:
		return -s.Strength
	default:
		return 0
	}
}

// SignalLogEntry is the audit record of a signal generated on a given date.
type SignalLogEntry struct {
	Date     time.Time    `yaml:"date" json:"date"`
	Symbol   string       `yaml:"symbol" json:"symbol"`
	Action   SignalAction `yaml:"action" json:"action"`
	Strength float64      `yaml:"strength" json:"strength"`
	Reason   string       `yaml:"reason" json:"reason"`
}
