package types

import (
	"time"

	"github.com/moznion/go-optional"
)

type OrderSide string

const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"
)

type OrderType string

const (
	OrderTypeMarket OrderType = "market"
	OrderTypeLimit  OrderType = "limit"
)

// SimulatedOrder is an order submitted to the order simulator.
type SimulatedOrder struct {
	Symbol     string                   `validate:"required"`
	Side       OrderSide                `validate:"required,oneof=buy sell"`
	Quantity   int64                    `validate:"gt=0"`
	OrderType  OrderType                `validate:"required,oneof=market limit"`
	LimitPrice optional.Option[float64] `validate:"-"`
}

// SimulatedFill is the result of simulating exactly one order against exactly one bar.
type SimulatedFill struct {
	Symbol     string
	Side       OrderSide
	Quantity   int64
	FillPrice  float64
	Commission float64
	Slippage   float64
	Timestamp  time.Time
}

// Notional returns fill price times quantity, excluding commission.
func (f SimulatedFill) Notional() float64 {
	return f.FillPrice * float64(f.Quantity)
}
