package sink

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"grid_go/internal/domain"
)

// WebhookSink posts a JSON notification when the grid transitions
// between sleeping and awake. Steady-state publications are not
// forwarded, only the edges. An unseen symbol starts from the awake
// baseline, so a normal boot stays silent and only a grid that comes
// up sleeping fires.
type WebhookSink struct {
	url       string
	client    *http.Client
	lastSleep map[string]bool
}

type webhookPayload struct {
	Symbol       string  `json:"symbol"`
	GridSleep    bool    `json:"grid_sleep"`
	Position     float64 `json:"position"`
	TriggerPrice float64 `json:"trigger_price"`
	Ts           int64   `json:"ts"`
}

// NewWebhookSink creates a webhook sink, nil when the URL is empty.
func NewWebhookSink(url string) *WebhookSink {
	if url == "" {
		return nil
	}
	return &WebhookSink{
		url:       url,
		client:    &http.Client{Timeout: 5 * time.Second},
		lastSleep: make(map[string]bool),
	}
}

func (s *WebhookSink) Publish(view domain.GridStateView) {
	was := s.lastSleep[view.Symbol] // zero value doubles as the awake baseline
	s.lastSleep[view.Symbol] = view.GridSleep
	if was == view.GridSleep {
		return
	}

	body, err := json.Marshal(webhookPayload{
		Symbol:       view.Symbol,
		GridSleep:    view.GridSleep,
		Position:     view.Position,
		TriggerPrice: view.TriggerPrice,
		Ts:           time.Now().UnixMilli(),
	})
	if err != nil {
		return
	}

	resp, err := s.client.Post(s.url, "application/json", bytes.NewReader(body))
	if err != nil {
		slog.Warn("Webhook delivery failed", slog.Any("error", err))
		return
	}
	resp.Body.Close()
}
