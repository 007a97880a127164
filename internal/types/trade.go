package types

import "time"

// TradeReasonProtectiveExit tags trades closed by a stop-loss or take-profit trigger.
const TradeReasonProtectiveExit = "stop_loss/take_profit"

// TradeRecord is one entry of the backtest trade log.
// Buy records carry a zero PnL; sell records carry the realized PnL rounded to cents.
type TradeRecord struct {
	Symbol    string    `yaml:"symbol" json:"symbol"`
	Side      OrderSide `yaml:"side" json:"side"`
	Quantity  int64     `yaml:"quantity" json:"quantity"`
	Price     float64   `yaml:"price" json:"price"`
	PnL       float64   `yaml:"pnl" json:"pnl"`
	Reason    string    `yaml:"reason" json:"reason"`
	Timestamp time.Time `yaml:"timestamp" json:"timestamp"`
}

// IsExit reports whether the record realizes P&L.
func (t TradeRecord) IsExit() bool {
	return t.Side == OrderSideSell
}

// EquityPoint is the total portfolio value at the close of a trading date.
type EquityPoint struct {
	Date   time.Time `yaml:"date" json:"date"`
	Equity float64   `yaml:"equity" json:"equity"`
}
