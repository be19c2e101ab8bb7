package exchange

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"grid_go/internal/event"
)

// PositionPoller periodically fetches the account holding of the traded
// base coin and pushes PositionSyncEvents, hard-overwriting the strategy
// position. This keeps a long-running grid honest against manual trades
// or missed fills.
type PositionPoller struct {
	client       *Client
	coin         string
	symbol       string
	inbox        chan<- event.Event
	pollInterval time.Duration
	cancel       context.CancelFunc
	wg           sync.WaitGroup
}

// NewPositionPoller creates a poller. pollIntervalSec <= 0 falls back to one minute.
func NewPositionPoller(client *Client, coin, symbol string, inbox chan<- event.Event, pollIntervalSec int) *PositionPoller {
	interval := 60 * time.Second
	if pollIntervalSec > 0 {
		interval = time.Duration(pollIntervalSec) * time.Second
	}
	return &PositionPoller{
		client:       client,
		coin:         coin,
		symbol:       symbol,
		inbox:        inbox,
		pollInterval: interval,
	}
}

// Start begins polling for position updates
func (p *PositionPoller) Start(ctx context.Context) error {
	ctx, p.cancel = context.WithCancel(ctx)

	// Fetch immediately on start
	if err := p.fetchPosition(ctx); err != nil {
		slog.Warn("Initial position fetch failed", slog.Any("error", err))
		// Continue anyway - will retry on next tick
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				slog.Error("Position polling panic recovered", slog.Any("panic", r))
			}
		}()

		ticker := time.NewTicker(p.pollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				slog.Info("Position polling stopped")
				return
			case <-ticker.C:
				if err := p.fetchPosition(ctx); err != nil {
					slog.Warn("Position fetch failed", slog.Any("error", err))
				}
			}
		}
	}()

	return nil
}

func (p *PositionPoller) fetchPosition(ctx context.Context) error {
	position, err := p.client.FetchAsset(ctx, p.coin)
	if err != nil {
		return err
	}

	// Unstamped; the sequencer numbers on dispatch. Dropping on a full
	// inbox is safe, the next tick re-fetches.
	ev := &event.PositionSyncEvent{
		BaseEvent: event.BaseEvent{Ts: time.Now().UnixMilli()},
		Symbol:    p.symbol,
		Position:  position,
		// The asset endpoint carries no entry price; a zero reference
		// never re-seeds an initialized trigger.
		Price: 0,
	}

	select {
	case p.inbox <- ev:
	default:
		slog.Warn("Inbox full, position sync dropped")
	}
	return nil
}

// Stop halts the polling goroutine.
func (p *PositionPoller) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
}
