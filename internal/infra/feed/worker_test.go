package feed

import (
	"testing"

	"grid_go/internal/event"
)

func newTestWorker(inbox chan event.Event) *Worker {
	return NewWorker("wss://example.test/ws", "BTCUSDT", "binance", inbox)
}

func TestHandleMessageParsesTicker(t *testing.T) {
	inbox := make(chan event.Event, 1)
	w := newTestWorker(inbox)

	msg := []byte(`{"e":"24hrTicker","E":1700000000000,"s":"BTCUSDT","c":"47470.5","b":"47469.9","a":"47471.2"}`)
	w.handleMessage(msg)

	select {
	case ev := <-inbox:
		mu, ok := ev.(*event.MarketUpdateEvent)
		if !ok {
			t.Fatalf("expected MarketUpdateEvent, got %T", ev)
		}
		if mu.Seq != 0 {
			t.Errorf("Seq = %d, want unstamped 0", mu.Seq)
		}
		if mu.LastPrice != 47470.5 || mu.BidPrice != 47469.9 || mu.AskPrice != 47471.2 {
			t.Errorf("prices = %v/%v/%v", mu.LastPrice, mu.BidPrice, mu.AskPrice)
		}
		if mu.Ts != 1700000000000 {
			t.Errorf("Ts = %d", mu.Ts)
		}
	default:
		t.Fatal("no event pushed to inbox")
	}
}

func TestHandleMessageFallsBackToLastPrice(t *testing.T) {
	inbox := make(chan event.Event, 1)
	w := newTestWorker(inbox)

	// Missing bid/ask quote fields.
	w.handleMessage([]byte(`{"e":"24hrTicker","E":1,"s":"BTCUSDT","c":"100.0"}`))

	ev := (<-inbox).(*event.MarketUpdateEvent)
	if ev.BidPrice != 100.0 || ev.AskPrice != 100.0 {
		t.Errorf("bid/ask = %v/%v, want 100/100", ev.BidPrice, ev.AskPrice)
	}
}

func TestHandleMessageIgnoresJunk(t *testing.T) {
	inbox := make(chan event.Event, 1)
	w := newTestWorker(inbox)

	w.handleMessage([]byte(`not json`))
	w.handleMessage([]byte(`{"e":"trade","s":"BTCUSDT","c":"1"}`))
	w.handleMessage([]byte(`{"e":"24hrTicker","s":"ETHUSDT","c":"1"}`))
	w.handleMessage([]byte(`{"e":"24hrTicker","s":"BTCUSDT","c":"-5"}`))

	if len(inbox) != 0 {
		t.Fatalf("expected empty inbox, got %d events", len(inbox))
	}
}

func TestHandleMessageDropsWhenInboxFull(t *testing.T) {
	inbox := make(chan event.Event, 1)
	w := newTestWorker(inbox)

	good := []byte(`{"e":"24hrTicker","E":1,"s":"BTCUSDT","c":"100.0","b":"99.9","a":"100.1"}`)
	w.handleMessage(good)
	w.handleMessage(good) // inbox full, must not block

	if len(inbox) != 1 {
		t.Fatalf("inbox len = %d, want 1", len(inbox))
	}

	// The drop must leave no trace in sequence numbering: after space
	// frees up, delivered events are still unstamped and contiguous from
	// the consumer's point of view.
	first := (<-inbox).(*event.MarketUpdateEvent)
	w.handleMessage(good)
	second := (<-inbox).(*event.MarketUpdateEvent)
	if first.Seq != 0 || second.Seq != 0 {
		t.Errorf("seqs = %d,%d, want both unstamped", first.Seq, second.Seq)
	}
}
