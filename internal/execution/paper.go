package execution

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"grid_go/internal/domain"
	"grid_go/internal/event"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EmitFunc hands gateway events back to the engine. Gateways are called
// from the sequencer goroutine, so the engine queues these internally
// rather than routing them through its own inbox.
type EmitFunc func(ev event.Event)

// PaperGateway simulates order execution with virtual balances.
// Every accepted order fills immediately at its order price, and the
// resulting order update and fill flow back through the same inbox a
// live gateway would use. Balances may go negative: the strategy holds
// a signed position and the simulator does not second-guess it.
type PaperGateway struct {
	mu     sync.Mutex
	quote  decimal.Decimal
	base   decimal.Decimal
	orders map[string]*domain.Order

	emit EmitFunc
}

// NewPaperGateway creates a simulator funded with an initial quote balance.
func NewPaperGateway(initialBalance float64, emit EmitFunc) *PaperGateway {
	return &PaperGateway{
		quote:  decimal.NewFromFloat(initialBalance),
		base:   decimal.Zero,
		orders: make(map[string]*domain.Order),
		emit:   emit,
	}
}

// SubmitOrder fills the order immediately at its order price.
func (p *PaperGateway) SubmitOrder(ctx context.Context, order domain.Order) (string, error) {
	p.mu.Lock()

	id := order.ID
	if id == "" {
		id = uuid.NewString()
	}

	price := decimal.NewFromFloat(order.Price)
	volume := decimal.NewFromFloat(order.Volume)
	notional := price.Mul(volume)

	if order.Side == domain.SideBuy {
		p.quote = p.quote.Sub(notional)
		p.base = p.base.Add(volume)
	} else {
		p.base = p.base.Sub(volume)
		p.quote = p.quote.Add(notional)
	}

	filled := order
	filled.ID = id
	filled.Status = domain.OrderStatusFilled
	filled.CreatedAt = time.Now()
	p.orders[id] = &filled
	p.mu.Unlock()

	slog.Info("PAPER: order filled",
		slog.String("id", id),
		slog.String("symbol", order.Symbol),
		slog.String("side", order.Side),
		slog.Float64("price", order.Price),
		slog.Float64("volume", order.Volume))

	p.emit(&event.OrderUpdateEvent{
		BaseEvent: event.BaseEvent{Ts: time.Now().UnixMilli()},
		OrderID:   id,
		Active:    false,
		Status:    domain.OrderStatusFilled,
	})
	p.emit(&event.TradeFillEvent{
		BaseEvent: event.BaseEvent{Ts: time.Now().UnixMilli()},
		OrderID:   id,
		Symbol:    order.Symbol,
		Direction: order.Side,
		Price:     order.Price,
		Volume:    order.Volume,
	})

	return id, nil
}

// CancelAll is a no-op for open orders since the simulator fills
// everything on submission. It still clears the order book copy.
func (p *PaperGateway) CancelAll(ctx context.Context, symbol string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, o := range p.orders {
		if o.Symbol == symbol && o.IsOpen() {
			o.Status = domain.OrderStatusCanceled
			slog.Info("PAPER: order canceled", slog.String("id", id))
		}
	}
	return nil
}

// QuoteBalance returns the current quote currency balance.
func (p *PaperGateway) QuoteBalance() decimal.Decimal {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.quote
}

// BaseBalance returns the current base currency balance.
func (p *PaperGateway) BaseBalance() decimal.Decimal {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.base
}

// Equity marks the base balance to the given price and returns total
// portfolio value in quote currency.
func (p *PaperGateway) Equity(markPrice float64) decimal.Decimal {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.quote.Add(p.base.Mul(decimal.NewFromFloat(markPrice)))
}
