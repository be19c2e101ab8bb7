package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"grid_go/internal/domain"
	"grid_go/internal/event"
	"grid_go/internal/execution"
	"grid_go/internal/infra"
	"grid_go/internal/infra/storage"
	"grid_go/internal/sink"
	"grid_go/internal/strategy"
)

// Sequencer is the core single-threaded event processor. Every event in
// the system funnels through its inbox and is applied to the strategy in
// strict sequence order.
type Sequencer struct {
	inbox    chan event.Event
	nextSeq  uint64
	strategy strategy.Strategy
	gateway  execution.Gateway
	store    *storage.Storage
	sink     sink.Sink

	// Gateway events queued during dispatch, applied before the next
	// inbox event. Touched only from the sequencer goroutine.
	pending []event.Event

	lastSleep bool
}

// NewSequencer creates a new sequencer instance. store and sink may be nil.
func NewSequencer(inboxSize int, strat strategy.Strategy, gateway execution.Gateway, store *storage.Storage, snk sink.Sink) *Sequencer {
	return &Sequencer{
		inbox:    make(chan event.Event, inboxSize),
		nextSeq:  1,
		strategy: strat,
		gateway:  gateway,
		store:    store,
		sink:     snk,
	}
}

// Inbox returns the event channel. External workers send events here.
func (s *Sequencer) Inbox() chan<- event.Event {
	return s.inbox
}

// Run starts the main event loop. This MUST be run in a single goroutine.
func (s *Sequencer) Run(ctx context.Context) {
	slog.Info("Sequencer started (Single-Thread Hotpath)")

	defer func() {
		if r := recover(); r != nil {
			slog.Error("CRITICAL_PANIC_DETECTED", slog.Any("panic", r))
			s.DumpState("panic_dump.json")
			// Halt after dump. A desynced book must not keep trading.
			panic(fmt.Sprintf("HALTED: %v", r))
		}
	}()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Sequencer stopping...")
			return
		case ev := <-s.inbox:
			s.processEvent(ev, true)
		}
	}
}

// ReplayEvent processes an event synchronously without persistence.
// This is used exclusively by the backtest replayer.
func (s *Sequencer) ReplayEvent(ev event.Event) {
	s.processEvent(ev, false)
}

// Emit queues a gateway event for dispatch right after the event being
// processed. Gateways run on the sequencer goroutine (dispatch calls
// them), so this needs no locking; a gateway sending into the inbox
// instead could deadlock the loop against its own full channel.
func (s *Sequencer) Emit(ev event.Event) {
	s.pending = append(s.pending, ev)
}

func (s *Sequencer) processEvent(ev event.Event, persist bool) {
	s.dispatch(ev, persist)

	// Drain gateway events before pulling the next inbox event: a fill
	// is always applied before the following snapshot.
	for len(s.pending) > 0 {
		next := s.pending[0]
		s.pending = s.pending[1:]
		s.dispatch(next, persist)
	}
}

func (s *Sequencer) dispatch(ev event.Event, persist bool) {
	// 1. Sequence Stamp + Gap Check (Halt Policy). Events arrive
	// unstamped and are numbered here, at the single consumer. An event
	// that arrives pre-stamped must match exactly: a mismatch means a
	// recorded stream lost an event, and a desynced book must not trade.
	if seq := ev.GetSeq(); seq != 0 && seq != s.nextSeq {
		panic(fmt.Sprintf("SEQUENCE_GAP_DETECTED: expected %d, got %d", s.nextSeq, seq))
	}
	ev.SetSeq(s.nextSeq)

	// 2. Logic Dispatch
	switch e := ev.(type) {
	case *event.MarketUpdateEvent:
		s.handleMarketUpdate(e, persist)
		event.ReleaseMarketUpdateEvent(e)
	case *event.OrderUpdateEvent:
		s.handleOrderUpdate(e, persist)
	case *event.TradeFillEvent:
		s.handleTradeFill(e, persist)
	case *event.PositionSyncEvent:
		s.strategy.OnPositionSync(e.Position, e.Price)
	default:
		slog.Warn("Unknown event type", slog.Any("type", ev.GetType()))
	}

	// 3. Publish state, trading or not.
	view := s.strategy.View()
	if view.GridSleep != s.lastSleep {
		infra.GlobalMetrics.RecordSleepTransition()
		s.lastSleep = view.GridSleep
	}
	if s.sink != nil {
		s.sink.Publish(view)
	}

	// 4. Increment Sequence
	s.nextSeq++
}

func (s *Sequencer) handleMarketUpdate(e *event.MarketUpdateEvent, persist bool) {
	start := time.Now()
	snap := domain.MarketSnapshot{
		LastPrice: e.LastPrice,
		BidPrice:  e.BidPrice,
		AskPrice:  e.AskPrice,
	}

	actions := s.strategy.Evaluate(snap)
	infra.GlobalMetrics.RecordSnapshot(time.Since(start).Nanoseconds())

	for _, action := range actions {
		s.executeAction(action, persist)
	}
}

func (s *Sequencer) executeAction(action strategy.Action, persist bool) {
	ctx := context.Background()

	if action.Type == strategy.ActionCancelAll {
		if err := s.gateway.CancelAll(ctx, action.Symbol); err != nil {
			infra.GlobalMetrics.RecordError()
			slog.Error("Cancel-all failed", slog.Any("error", err))
		}
		return
	}

	side := domain.SideBuy
	if action.Type == strategy.ActionSell {
		side = domain.SideSell
	}
	order := domain.Order{
		Symbol: action.Symbol,
		Side:   side,
		Type:   action.OrderType,
		Price:  action.Price,
		Volume: action.Volume,
		Status: domain.OrderStatusNew,
	}

	id, err := s.gateway.SubmitOrder(ctx, order)
	if err != nil {
		infra.GlobalMetrics.RecordError()
		slog.Error("Order submission failed",
			slog.String("side", side),
			slog.Any("error", err))
		return
	}

	s.strategy.OnOrderSubmitted(id)
	infra.GlobalMetrics.RecordIntent()

	if persist && s.store != nil {
		rec := &domain.OrderRecord{
			OrderID:   id,
			Symbol:    order.Symbol,
			Side:      order.Side,
			Type:      order.Type,
			Price:     order.Price,
			Volume:    order.Volume,
			Status:    domain.OrderStatusNew,
			CreatedAt: time.Now(),
		}
		if err := s.store.SaveOrder(rec); err != nil {
			slog.Warn("Failed to persist order", slog.Any("error", err))
		}
	}
}

func (s *Sequencer) handleOrderUpdate(e *event.OrderUpdateEvent, persist bool) {
	s.strategy.OnOrderUpdate(e.OrderID, e.Active)

	if persist && s.store != nil && e.Status != "" {
		if err := s.store.UpdateOrderStatus(e.OrderID, e.Status); err != nil {
			slog.Warn("Failed to update order status", slog.Any("error", err))
		}
	}
}

func (s *Sequencer) handleTradeFill(e *event.TradeFillEvent, persist bool) {
	s.strategy.OnFill(domain.Fill{
		OrderID:   e.OrderID,
		Symbol:    e.Symbol,
		Direction: e.Direction,
		Price:     e.Price,
		Volume:    e.Volume,
		Ts:        e.Ts,
	})
	infra.GlobalMetrics.RecordFill()

	if persist && s.store != nil {
		rec := &domain.TradeRecord{
			OrderID:   e.OrderID,
			Symbol:    e.Symbol,
			Direction: e.Direction,
			Price:     e.Price,
			Volume:    e.Volume,
			Ts:        e.Ts,
		}
		if err := s.store.SaveTrade(rec); err != nil {
			slog.Warn("Failed to persist trade", slog.Any("error", err))
		}
	}
}

// DumpState writes the strategy state to a file (for post-mortem).
func (s *Sequencer) DumpState(filename string) {
	slog.Info("Dumping internal state...", slog.String("file", filename))

	data := struct {
		NextSeq uint64               `json:"next_seq"`
		State   domain.GridStateView `json:"state"`
	}{
		NextSeq: s.nextSeq,
		State:   s.strategy.View(),
	}

	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		slog.Error("Failed to marshal state", slog.Any("error", err))
		return
	}

	if err := os.WriteFile(filename, b, 0644); err != nil {
		slog.Error("Failed to write state dump", slog.Any("error", err))
	}
}
