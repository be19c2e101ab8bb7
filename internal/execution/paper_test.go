package execution

import (
	"context"
	"testing"

	"grid_go/internal/domain"
	"grid_go/internal/event"
)

func newPaper(t *testing.T, balance float64) (*PaperGateway, *[]event.Event) {
	t.Helper()
	events := &[]event.Event{}
	emit := func(ev event.Event) { *events = append(*events, ev) }
	return NewPaperGateway(balance, emit), events
}

func TestPaperGateway_Buy(t *testing.T) {
	paper, events := newPaper(t, 10000)

	order := domain.Order{
		Symbol: "BTCUSDT",
		Side:   domain.SideBuy,
		Type:   domain.OrderTypeLimit,
		Price:  50000,
		Volume: 0.1,
	}

	id, err := paper.SubmitOrder(context.Background(), order)
	if err != nil {
		t.Fatalf("SubmitOrder failed: %v", err)
	}
	if id == "" {
		t.Fatal("expected a generated order ID")
	}

	// 0.1 BTC at 50000 costs 5000; balances may go negative.
	if got := paper.QuoteBalance().InexactFloat64(); got != 5000 {
		t.Errorf("quote balance = %v, want 5000", got)
	}
	if got := paper.BaseBalance().InexactFloat64(); got != 0.1 {
		t.Errorf("base balance = %v, want 0.1", got)
	}

	if len(*events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(*events))
	}
	ou, ok := (*events)[0].(*event.OrderUpdateEvent)
	if !ok {
		t.Fatalf("first event is %T, want OrderUpdateEvent", (*events)[0])
	}
	if ou.Active || ou.Status != domain.OrderStatusFilled || ou.OrderID != id {
		t.Errorf("unexpected order update: %+v", ou)
	}
	tf, ok := (*events)[1].(*event.TradeFillEvent)
	if !ok {
		t.Fatalf("second event is %T, want TradeFillEvent", (*events)[1])
	}
	if tf.Direction != domain.SideBuy || tf.Price != 50000 || tf.Volume != 0.1 {
		t.Errorf("unexpected fill: %+v", tf)
	}
	// Stamping happens at the sequencer, not in the gateway.
	if ou.Seq != 0 || tf.Seq != 0 {
		t.Errorf("seq = %d,%d, want both unstamped", ou.Seq, tf.Seq)
	}
}

func TestPaperGateway_Sell(t *testing.T) {
	paper, _ := newPaper(t, 0)

	_, err := paper.SubmitOrder(context.Background(), domain.Order{
		Symbol: "BTCUSDT",
		Side:   domain.SideSell,
		Type:   domain.OrderTypeLimit,
		Price:  50000,
		Volume: 0.5,
	})
	if err != nil {
		t.Fatalf("SubmitOrder failed: %v", err)
	}

	if got := paper.QuoteBalance().InexactFloat64(); got != 25000 {
		t.Errorf("quote balance = %v, want 25000", got)
	}
	// Selling from an empty book goes negative rather than rejecting.
	if got := paper.BaseBalance().InexactFloat64(); got != -0.5 {
		t.Errorf("base balance = %v, want -0.5", got)
	}
}

func TestPaperGateway_Equity(t *testing.T) {
	paper, _ := newPaper(t, 10000)

	paper.SubmitOrder(context.Background(), domain.Order{
		Symbol: "BTCUSDT",
		Side:   domain.SideBuy,
		Type:   domain.OrderTypeLimit,
		Price:  50000,
		Volume: 0.1,
	})

	// 5000 quote left + 0.1 BTC marked at 52000 = 10200.
	if got := paper.Equity(52000).InexactFloat64(); got != 10200 {
		t.Errorf("equity = %v, want 10200", got)
	}
}

func TestPaperGateway_KeepsClientOrderID(t *testing.T) {
	paper, _ := newPaper(t, 0)

	id, err := paper.SubmitOrder(context.Background(), domain.Order{
		ID:     "client-7",
		Symbol: "BTCUSDT",
		Side:   domain.SideSell,
		Price:  100,
		Volume: 1,
	})
	if err != nil {
		t.Fatalf("SubmitOrder failed: %v", err)
	}
	if id != "client-7" {
		t.Errorf("id = %q, want client-7", id)
	}
}

func TestPaperGateway_ImplementsInterface(t *testing.T) {
	var _ Gateway = (*PaperGateway)(nil)
	var _ Gateway = (*LiveGateway)(nil)
}
