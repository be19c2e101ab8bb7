package sink

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"grid_go/internal/domain"
)

type recordSink struct {
	views []domain.GridStateView
}

func (r *recordSink) Publish(view domain.GridStateView) {
	r.views = append(r.views, view)
}

func TestMultiSinkFansOutAndSkipsNil(t *testing.T) {
	a := &recordSink{}
	b := &recordSink{}
	m := NewMultiSink(a, nil, b)

	m.Publish(domain.GridStateView{Symbol: "BTCUSDT", Position: 0.1})

	if len(a.views) != 1 || len(b.views) != 1 {
		t.Fatalf("fan-out failed: %d/%d", len(a.views), len(b.views))
	}
	if a.views[0].Symbol != "BTCUSDT" {
		t.Errorf("unexpected view: %+v", a.views[0])
	}
}

func TestWebhookSinkPostsOnlyOnTransition(t *testing.T) {
	var payloads []webhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p webhookPayload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			t.Errorf("bad payload: %v", err)
		}
		payloads = append(payloads, p)
	}))
	defer srv.Close()

	s := NewWebhookSink(srv.URL)

	// An awake boot matches the baseline and stays silent.
	s.Publish(domain.GridStateView{Symbol: "BTCUSDT", GridSleep: false})
	// Steady state is silent.
	s.Publish(domain.GridStateView{Symbol: "BTCUSDT", GridSleep: false})
	s.Publish(domain.GridStateView{Symbol: "BTCUSDT", GridSleep: false})
	// Edge fires.
	s.Publish(domain.GridStateView{Symbol: "BTCUSDT", GridSleep: true, TriggerPrice: 47000})
	// Edge back fires.
	s.Publish(domain.GridStateView{Symbol: "BTCUSDT", GridSleep: false})

	if len(payloads) != 2 {
		t.Fatalf("expected 2 webhook posts, got %d", len(payloads))
	}
	if !payloads[0].GridSleep || payloads[0].TriggerPrice != 47000 {
		t.Errorf("unexpected first payload: %+v", payloads[0])
	}
}

func TestWebhookSinkFiresWhenBootingAsleep(t *testing.T) {
	var posts int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		posts++
	}))
	defer srv.Close()

	s := NewWebhookSink(srv.URL)

	// A grid that comes up already outside the corridor is an edge.
	s.Publish(domain.GridStateView{Symbol: "BTCUSDT", GridSleep: true})
	s.Publish(domain.GridStateView{Symbol: "BTCUSDT", GridSleep: true})

	if posts != 1 {
		t.Fatalf("expected 1 webhook post, got %d", posts)
	}
}

func TestWebhookSinkNilOnEmptyURL(t *testing.T) {
	if s := NewWebhookSink(""); s != nil {
		t.Fatal("expected nil sink for empty URL")
	}
}
