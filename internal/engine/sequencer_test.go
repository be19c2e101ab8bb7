package engine

import (
	"testing"

	"grid_go/internal/domain"
	"grid_go/internal/event"
	"grid_go/internal/execution"
	"grid_go/internal/sink"
	"grid_go/internal/strategy"
)

func testGridConfig() strategy.GridConfig {
	return strategy.GridConfig{
		Symbol:       "BTCUSDT",
		UpperPrice:   60000,
		LowerPrice:   40000,
		TriggerPrice: 47000,
		RisePercent:  1.0,
		FallDown:     0.5,
		FallPercent:  1.0,
		RiseUp:       0.5,
		OrderType:    domain.OrderTypeLimit,
		OrderVolume:  0.1,
	}
}

// newTestSequencer wires a grid and a paper gateway the way the binaries
// do: the gateway emits into the sequencer's internal queue, which drains
// after the event that triggered the order.
func newTestSequencer(t *testing.T) (*Sequencer, *execution.PaperGateway, *strategy.Grid) {
	t.Helper()
	grid, err := strategy.NewGrid(testGridConfig())
	if err != nil {
		t.Fatalf("NewGrid failed: %v", err)
	}

	var s *Sequencer
	paper := execution.NewPaperGateway(100000, func(ev event.Event) {
		s.Emit(ev)
	})
	s = NewSequencer(16, grid, paper, nil, sink.NewLogSink())
	return s, paper, grid
}

func marketEvent(price float64) *event.MarketUpdateEvent {
	return &event.MarketUpdateEvent{
		BaseEvent: event.BaseEvent{Ts: 1000},
		Symbol:    "BTCUSDT",
		LastPrice: price,
		BidPrice:  price - 0.1,
		AskPrice:  price + 0.1,
	}
}

func TestSequencer_GapDetection(t *testing.T) {
	s, _, _ := newTestSequencer(t)

	defer func() {
		if r := recover(); r == nil {
			t.Error("Sequencer should have panicked on sequence gap")
		}
	}()

	// A pre-stamped event must match the expected sequence exactly.
	ev := marketEvent(47000)
	ev.Seq = 2
	s.ReplayEvent(ev)
}

func TestSequencer_StampsAtConsumer(t *testing.T) {
	s, _, _ := newTestSequencer(t)

	// Position syncs are not pooled, so the stamp survives dispatch.
	first := &event.PositionSyncEvent{BaseEvent: event.BaseEvent{Ts: 1}, Symbol: "BTCUSDT"}
	second := &event.PositionSyncEvent{BaseEvent: event.BaseEvent{Ts: 2}, Symbol: "BTCUSDT"}
	s.ReplayEvent(first)
	s.ReplayEvent(second)

	if first.Seq != 1 || second.Seq != 2 {
		t.Errorf("seqs = %d,%d, want 1,2", first.Seq, second.Seq)
	}
}

// A full inbox dropping a tick at the producer must not open a sequence
// gap: unstamped events are numbered in delivery order by the consumer.
func TestSequencer_SurvivesFeedDrop(t *testing.T) {
	s, _, _ := newTestSequencer(t)

	inbox := make(chan event.Event, 1)
	push := func(price float64) {
		// Same non-blocking push the feed worker uses on its inbox.
		select {
		case inbox <- marketEvent(price):
		default:
		}
	}

	push(47000)
	push(47001) // inbox full, dropped
	s.ReplayEvent(<-inbox)
	push(47002)

	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("sequencer halted after a feed drop: %v", r)
		}
	}()
	s.ReplayEvent(<-inbox)
}

func TestSequencer_FullTradeCycle(t *testing.T) {
	s, paper, grid := newTestSequencer(t)

	// Arm the up side: trigger 47000, rise 1% reached at 47470.
	s.ReplayEvent(marketEvent(47470))
	if !grid.View().TouchUp {
		t.Fatal("expected up side armed")
	}

	// Pull back 0.6% from the recorded high: release, sell fires, and
	// the queued gateway events apply before this call returns.
	s.ReplayEvent(marketEvent(47470 * 0.994))

	view := grid.View()
	if view.TouchUp {
		t.Error("up side should be released after the sell")
	}
	if view.Position != -0.1 {
		t.Errorf("position = %v, want -0.1 after sell fill", view.Position)
	}
	if view.PendingOrderID != "" {
		t.Errorf("pending order should be cleared, got %q", view.PendingOrderID)
	}
	if got := paper.BaseBalance().InexactFloat64(); got != -0.1 {
		t.Errorf("paper base balance = %v, want -0.1", got)
	}
}

func TestSequencer_PositionSyncOverwrites(t *testing.T) {
	s, _, grid := newTestSequencer(t)

	s.ReplayEvent(&event.PositionSyncEvent{
		BaseEvent: event.BaseEvent{Ts: 1},
		Symbol:    "BTCUSDT",
		Position:  0.42,
		Price:     0,
	})

	if got := grid.View().Position; got != 0.42 {
		t.Errorf("position = %v, want 0.42", got)
	}
}
