package exchange

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"grid_go/internal/domain"
	"grid_go/internal/event"
)

// OrderPoller is the fill source in LIVE mode. The live gateway never
// synthesizes order updates, so the poller fetches executed trades and
// the open-order set from the exchange and feeds OrderUpdateEvents and
// TradeFillEvents back into the sequencer inbox. An order that fills
// between two polls still shows up: the fills endpoint is time-ranged,
// not tied to observing the order while open.
type OrderPoller struct {
	client       *Client
	symbol       string
	inbox        chan<- event.Event
	pollInterval time.Duration
	cancel       context.CancelFunc
	wg           sync.WaitGroup

	sinceTs    int64
	seenTrades map[string]struct{}
	openOrders map[string]struct{} // clientOid set from the previous poll
}

// NewOrderPoller creates a poller. pollIntervalSec <= 0 falls back to five seconds.
func NewOrderPoller(client *Client, symbol string, inbox chan<- event.Event, pollIntervalSec int) *OrderPoller {
	interval := 5 * time.Second
	if pollIntervalSec > 0 {
		interval = time.Duration(pollIntervalSec) * time.Second
	}
	return &OrderPoller{
		client:       client,
		symbol:       symbol,
		inbox:        inbox,
		pollInterval: interval,
		sinceTs:      time.Now().UnixMilli(),
		seenTrades:   make(map[string]struct{}),
		openOrders:   make(map[string]struct{}),
	}
}

// Start begins polling for fills and order status changes.
func (p *OrderPoller) Start(ctx context.Context) error {
	ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				slog.Error("Order polling panic recovered", slog.Any("panic", r))
			}
		}()

		ticker := time.NewTicker(p.pollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				slog.Info("Order polling stopped")
				return
			case <-ticker.C:
				p.poll(ctx)
			}
		}
	}()

	return nil
}

func (p *OrderPoller) poll(ctx context.Context) {
	p.pollFills(ctx)
	p.pollOpenOrders(ctx)
}

// pollFills emits an OrderUpdateEvent and a TradeFillEvent per new trade.
// The poller runs on its own goroutine, so the sends block rather than
// drop: a fill must reach the strategy.
func (p *OrderPoller) pollFills(ctx context.Context) {
	fills, err := p.client.FetchFills(ctx, p.symbol, p.sinceTs)
	if err != nil {
		slog.Warn("Fill fetch failed", slog.Any("error", err))
		return
	}

	for _, fill := range fills {
		if _, dup := p.seenTrades[fill.TradeID]; dup {
			continue
		}
		p.seenTrades[fill.TradeID] = struct{}{}
		if fill.Ts > p.sinceTs {
			p.sinceTs = fill.Ts
		}

		p.inbox <- &event.OrderUpdateEvent{
			BaseEvent: event.BaseEvent{Ts: fill.Ts},
			OrderID:   fill.OrderID,
			Active:    false,
			Status:    domain.OrderStatusFilled,
		}
		p.inbox <- &event.TradeFillEvent{
			BaseEvent: event.BaseEvent{Ts: fill.Ts},
			OrderID:   fill.OrderID,
			Symbol:    p.symbol,
			Direction: fill.Direction,
			Price:     fill.Price,
			Volume:    fill.Volume,
		}
	}
}

// pollOpenOrders diffs the open-order set against the previous poll.
// A vanished order is looked up once: cancelled emits an OrderUpdateEvent
// so the strategy frees its pending slot, filled is already covered by
// the fills pass.
func (p *OrderPoller) pollOpenOrders(ctx context.Context) {
	ids, err := p.client.FetchOpenOrders(ctx, p.symbol)
	if err != nil {
		slog.Warn("Open order fetch failed", slog.Any("error", err))
		return
	}

	current := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		current[id] = struct{}{}
	}

	for id := range p.openOrders {
		if _, stillOpen := current[id]; stillOpen {
			continue
		}
		info, err := p.client.FetchOrderInfo(ctx, id)
		if err != nil {
			slog.Warn("Order info fetch failed", slog.String("oid", id), slog.Any("error", err))
			// Keep the id; the next poll retries the lookup.
			current[id] = struct{}{}
			continue
		}
		if info.Status == "cancelled" {
			p.inbox <- &event.OrderUpdateEvent{
				BaseEvent: event.BaseEvent{Ts: time.Now().UnixMilli()},
				OrderID:   id,
				Active:    false,
				Status:    domain.OrderStatusCanceled,
			}
		}
	}

	p.openOrders = current
}

// Stop halts the polling goroutine.
func (p *OrderPoller) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
}
