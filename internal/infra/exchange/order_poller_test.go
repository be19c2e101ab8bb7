package exchange

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"grid_go/internal/domain"
	"grid_go/internal/event"
	"grid_go/internal/infra"
)

// fakeExchange serves the minimal V2 surface the order poller touches.
type fakeExchange struct {
	fills      string // JSON array for /fills
	openOrders string // JSON array for /unfilled-orders
	orderInfo  string // JSON array for /orderInfo
}

func (f *fakeExchange) handler() http.Handler {
	mux := http.NewServeMux()
	// Read the field per request so tests can swap responses between polls.
	wrap := func(data *string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"code":"00000","msg":"success","data":` + *data + `}`))
		}
	}
	mux.HandleFunc("/api/v2/spot/trade/fills", wrap(&f.fills))
	mux.HandleFunc("/api/v2/spot/trade/unfilled-orders", wrap(&f.openOrders))
	mux.HandleFunc("/api/v2/spot/trade/orderInfo", wrap(&f.orderInfo))
	return mux
}

func newPollerAgainst(t *testing.T, fake *fakeExchange, inbox chan event.Event) (*OrderPoller, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)

	cfg := &infra.Config{}
	cfg.Gateway.RestURL = srv.URL
	cfg.Gateway.AccessKey = "k"
	cfg.Gateway.SecretKey = "s"
	cfg.Gateway.Passphrase = "p"

	p := NewOrderPoller(NewClient(cfg), "BTCUSDT", inbox, 5)
	p.sinceTs = 0 // accept fills regardless of wall clock
	return p, srv
}

func TestOrderPollerEmitsFillEvents(t *testing.T) {
	fake := &fakeExchange{
		fills:      `[{"tradeId":"t1","orderId":"o1","side":"sell","priceAvg":"47000.5","size":"0.1","cTime":"1700000000000"}]`,
		openOrders: `[]`,
		orderInfo:  `[]`,
	}
	inbox := make(chan event.Event, 8)
	p, _ := newPollerAgainst(t, fake, inbox)

	p.poll(context.Background())

	ou, ok := (<-inbox).(*event.OrderUpdateEvent)
	if !ok {
		t.Fatal("first event is not an OrderUpdateEvent")
	}
	if ou.Active || ou.Status != domain.OrderStatusFilled || ou.OrderID != "o1" {
		t.Errorf("unexpected order update: %+v", ou)
	}

	tf, ok := (<-inbox).(*event.TradeFillEvent)
	if !ok {
		t.Fatal("second event is not a TradeFillEvent")
	}
	if tf.Direction != domain.SideSell || tf.Price != 47000.5 || tf.Volume != 0.1 {
		t.Errorf("unexpected fill: %+v", tf)
	}
	if tf.Seq != 0 || ou.Seq != 0 {
		t.Error("poller events must be unstamped")
	}

	// Same trade on the next poll is a duplicate, not a second fill.
	p.poll(context.Background())
	if len(inbox) != 0 {
		t.Errorf("duplicate trade re-emitted, %d extra events", len(inbox))
	}
	if p.sinceTs != 1700000000000 {
		t.Errorf("sinceTs not advanced, got %d", p.sinceTs)
	}
}

func TestOrderPollerEmitsCancelOnVanishedOrder(t *testing.T) {
	fake := &fakeExchange{
		fills:      `[]`,
		openOrders: `[{"clientOid":"abc"}]`,
		orderInfo:  `[{"clientOid":"abc","status":"cancelled"}]`,
	}
	inbox := make(chan event.Event, 8)
	p, _ := newPollerAgainst(t, fake, inbox)

	p.poll(context.Background())
	if len(inbox) != 0 {
		t.Fatal("open order produced events before vanishing")
	}

	fake.openOrders = `[]`
	p.poll(context.Background())

	ou, ok := (<-inbox).(*event.OrderUpdateEvent)
	if !ok {
		t.Fatal("expected an OrderUpdateEvent for the cancelled order")
	}
	if ou.Active || ou.OrderID != "abc" || ou.Status != domain.OrderStatusCanceled {
		t.Errorf("unexpected order update: %+v", ou)
	}
}

func TestOrderPollerIgnoresVanishedFilledOrder(t *testing.T) {
	// The fills pass already reported this order; the diff must stay quiet.
	fake := &fakeExchange{
		fills:      `[]`,
		openOrders: `[{"clientOid":"abc"}]`,
		orderInfo:  `[{"clientOid":"abc","status":"filled"}]`,
	}
	inbox := make(chan event.Event, 8)
	p, _ := newPollerAgainst(t, fake, inbox)

	p.poll(context.Background())
	fake.openOrders = `[]`
	p.poll(context.Background())

	if len(inbox) != 0 {
		t.Errorf("filled order reported as cancel, %d events", len(inbox))
	}
}
