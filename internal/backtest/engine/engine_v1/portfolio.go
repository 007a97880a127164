package engine

import (
	"slices"
	"time"

	"github.com/IvanHuYY/Stockbot/internal/risk"
	"github.com/IvanHuYY/Stockbot/internal/types"
	"github.com/IvanHuYY/Stockbot/internal/utils"
	"github.com/IvanHuYY/Stockbot/pkg/errors"
	"github.com/moznion/go-optional"
)

// Portfolio tracks cash, open positions, the trade log and the equity curve of a run.
// It is owned by the engine loop and is not safe for concurrent use.
type Portfolio struct {
	cash           float64
	initialCapital float64
	positions      map[string]types.SimulatedPosition
	// symbols in the order their positions were opened
	openOrder []string
	trades    []types.TradeRecord
	equity    []types.EquityPoint
}

// NewPortfolio creates an all-cash portfolio.
func NewPortfolio(initialCapital float64) *Portfolio {
	return &Portfolio{
		cash:           initialCapital,
		initialCapital: initialCapital,
		positions:      make(map[string]types.SimulatedPosition),
		openOrder:      []string{},
		trades:         []types.TradeRecord{},
		equity:         []types.EquityPoint{},
	}
}

func (p *Portfolio) Cash() float64 {
	return p.cash
}

func (p *Portfolio) InitialCapital() float64 {
	return p.initialCapital
}

// Position returns the open position of the symbol, if any.
func (p *Portfolio) Position(symbol string) optional.Option[types.SimulatedPosition] {
	position, ok := p.positions[symbol]
	if !ok {
		return optional.None[types.SimulatedPosition]()
	}

	return optional.Some(position)
}

func (p *Portfolio) HasPosition(symbol string) bool {
	_, ok := p.positions[symbol]

	return ok
}

// Positions returns the open positions in the order they were opened.
func (p *Portfolio) Positions() []types.SimulatedPosition {
	positions := make([]types.SimulatedPosition, 0, len(p.openOrder))
	for _, symbol := range p.openOrder {
		positions = append(positions, p.positions[symbol])
	}

	return positions
}

// OpenPosition debits the fill notional plus commission and records a buy trade.
// A symbol can hold at most one position.
func (p *Portfolio) OpenPosition(fill types.SimulatedFill, stopLoss, takeProfit optional.Option[float64], reason string) (types.TradeRecord, error) {
	if fill.Side != types.OrderSideBuy {
		return types.TradeRecord{}, errors.Newf(errors.ErrCodeInvalidOrder, "cannot open a position with a %s fill", fill.Side)
	}

	if fill.Quantity <= 0 {
		return types.TradeRecord{}, errors.Newf(errors.ErrCodeInvalidOrder, "cannot open a position of %d shares", fill.Quantity)
	}

	if p.HasPosition(fill.Symbol) {
		return types.TradeRecord{}, errors.Newf(errors.ErrCodePositionAlreadyOpen, "position already open for %s", fill.Symbol)
	}

	p.cash -= fill.Notional() + fill.Commission
	p.positions[fill.Symbol] = types.SimulatedPosition{
		Symbol:        fill.Symbol,
		Quantity:      fill.Quantity,
		AvgEntryPrice: fill.FillPrice,
		StopLoss:      stopLoss,
		TakeProfit:    takeProfit,
		EntryTime:     fill.Timestamp,
	}
	p.openOrder = append(p.openOrder, fill.Symbol)

	trade := types.TradeRecord{
		Symbol:    fill.Symbol,
		Side:      types.OrderSideBuy,
		Quantity:  fill.Quantity,
		Price:     fill.FillPrice,
		PnL:       0,
		Reason:    reason,
		Timestamp: fill.Timestamp,
	}
	p.trades = append(p.trades, trade)

	return trade, nil
}

// ClosePosition credits the fill notional less commission, records a sell trade with the
// realized pnl rounded to cents and removes the position.
func (p *Portfolio) ClosePosition(fill types.SimulatedFill, reason string) (types.TradeRecord, error) {
	position, ok := p.positions[fill.Symbol]
	if !ok {
		return types.TradeRecord{}, errors.Newf(errors.ErrCodePositionNotFound, "no open position for %s", fill.Symbol)
	}

	pnl := utils.RoundPrice(position.RealizedPnL(fill))
	p.cash += fill.Notional() - fill.Commission

	delete(p.positions, fill.Symbol)
	p.openOrder = slices.DeleteFunc(p.openOrder, func(symbol string) bool {
		return symbol == fill.Symbol
	})

	trade := types.TradeRecord{
		Symbol:    fill.Symbol,
		Side:      types.OrderSideSell,
		Quantity:  fill.Quantity,
		Price:     fill.FillPrice,
		PnL:       pnl,
		Reason:    reason,
		Timestamp: fill.Timestamp,
	}
	p.trades = append(p.trades, trade)

	return trade, nil
}

// TotalEquity returns cash plus every position marked to its close.
// Positions whose symbol has no close are left out.
func (p *Portfolio) TotalEquity(closes map[string]float64) float64 {
	equity := p.cash

	for _, symbol := range p.openOrder {
		price, ok := closes[symbol]
		if !ok {
			continue
		}

		equity += p.positions[symbol].MarketValue(price)
	}

	return equity
}

// Exposure weights the open positions marked to closes. Positions without a close are left out.
func (p *Portfolio) Exposure(closes map[string]float64) risk.ExposureResult {
	values := make([]risk.PositionValue, 0, len(p.openOrder))

	for _, symbol := range p.openOrder {
		price, ok := closes[symbol]
		if !ok {
			continue
		}

		position := p.positions[symbol]
		values = append(values, risk.PositionValue{
			Symbol:        symbol,
			MarketValue:   position.MarketValue(price),
			UnrealizedPnL: float64(position.Quantity) * (price - position.AvgEntryPrice),
		})
	}

	return risk.PortfolioExposure(values)
}

// RecordEquity appends a point to the equity curve.
func (p *Portfolio) RecordEquity(date time.Time, equity float64) {
	p.equity = append(p.equity, types.EquityPoint{Date: date, Equity: equity})
}

// Trades returns a copy of the trade log.
func (p *Portfolio) Trades() []types.TradeRecord {
	return slices.Clone(p.trades)
}

// EquityCurve returns a copy of the equity curve.
func (p *Portfolio) EquityCurve() []types.EquityPoint {
	return slices.Clone(p.equity)
}
