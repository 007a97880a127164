package engine

import (
	"math/rand"
	"time"

	"github.com/IvanHuYY/Stockbot/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/IvanHuYY/Stockbot/internal/types"
	"github.com/IvanHuYY/Stockbot/internal/utils"
	"github.com/IvanHuYY/Stockbot/pkg/errors"
	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"
)

const (
	// slippage jitter is drawn uniformly from [minJitter, maxJitter)
	minJitter = 0.8
	maxJitter = 1.2
	// fills report slippage to a hundredth of a cent
	slippagePrecision = 4
)

// OrderSimulator fills orders against daily bars.
// Market orders fill at the bar open adjusted by slippage; protective exits
// fill exactly at their trigger level.
type OrderSimulator struct {
	slippageBps float64
	commission  commission_fee.CommissionFee
	rng         *rand.Rand
	validate    *validator.Validate
}

// NewOrderSimulator creates a simulator. A nil rng disables the slippage jitter.
func NewOrderSimulator(slippageBps float64, commission commission_fee.CommissionFee, rng *rand.Rand) *OrderSimulator {
	if commission == nil {
		commission = commission_fee.NewZeroCommissionFee()
	}

	return &OrderSimulator{
		slippageBps: slippageBps,
		commission:  commission,
		rng:         rng,
		validate:    validator.New(),
	}
}

// FillMarketOrder fills the order at the bar open. Slippage is added for buys and
// subtracted for sells. The fill price is rounded to cents and the slippage to 4 places.
func (s *OrderSimulator) FillMarketOrder(order types.SimulatedOrder, barOpen float64, ts time.Time) (types.SimulatedFill, error) {
	if err := s.validate.Struct(order); err != nil {
		return types.SimulatedFill{}, errors.Wrap(errors.ErrCodeInvalidOrder, "invalid order", err)
	}

	slippage := barOpen * s.slippageBps / 10000 * s.jitter()

	price := barOpen + slippage
	if order.Side == types.OrderSideSell {
		price = barOpen - slippage
	}

	return types.SimulatedFill{
		Symbol:     order.Symbol,
		Side:       order.Side,
		Quantity:   order.Quantity,
		FillPrice:  utils.RoundPrice(price),
		Commission: s.commission.Calculate(float64(order.Quantity)),
		Slippage:   utils.Round(slippage, slippagePrecision),
		Timestamp:  ts,
	}, nil
}

// CheckStopLoss fills the whole position at its stop level when the bar low reaches it.
func (s *OrderSimulator) CheckStopLoss(position types.SimulatedPosition, low float64, _ float64, ts time.Time) optional.Option[types.SimulatedFill] {
	if position.StopLoss.IsNone() || position.Quantity <= 0 {
		return optional.None[types.SimulatedFill]()
	}

	level := position.StopLoss.Unwrap()
	if low > level {
		return optional.None[types.SimulatedFill]()
	}

	return optional.Some(s.exitFill(position, level, ts))
}

// CheckTakeProfit fills the whole position at its target level when the bar high reaches it.
func (s *OrderSimulator) CheckTakeProfit(position types.SimulatedPosition, high float64, ts time.Time) optional.Option[types.SimulatedFill] {
	if position.TakeProfit.IsNone() || position.Quantity <= 0 {
		return optional.None[types.SimulatedFill]()
	}

	level := position.TakeProfit.Unwrap()
	if high < level {
		return optional.None[types.SimulatedFill]()
	}

	return optional.Some(s.exitFill(position, level, ts))
}

// CheckExits evaluates the stop-loss first; the take-profit is only checked when the stop did not fire.
func (s *OrderSimulator) CheckExits(position types.SimulatedPosition, bar types.Bar) optional.Option[types.SimulatedFill] {
	if fill := s.CheckStopLoss(position, bar.Low, bar.High, bar.Time); fill.IsSome() {
		return fill
	}

	return s.CheckTakeProfit(position, bar.High, bar.Time)
}

func (s *OrderSimulator) exitFill(position types.SimulatedPosition, level float64, ts time.Time) types.SimulatedFill {
	return types.SimulatedFill{
		Symbol:     position.Symbol,
		Side:       types.OrderSideSell,
		Quantity:   position.Quantity,
		FillPrice:  level,
		Commission: s.commission.Calculate(float64(position.Quantity)),
		Slippage:   0,
		Timestamp:  ts,
	}
}

func (s *OrderSimulator) jitter() float64 {
	if s.rng == nil {
		return 1.0
	}

	return minJitter + s.rng.Float64()*(maxJitter-minJitter)
}
