package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"grid_go/internal/event"
	"grid_go/internal/infra"

	"github.com/gorilla/websocket"
)

const (
	maxRetries  = 10
	readTimeout = 60 * time.Second
)

// tickerResponse represents the exchange 24h ticker stream payload.
// Prices arrive as strings.
type tickerResponse struct {
	EventType string `json:"e"` // 24hrTicker
	EventTime int64  `json:"E"` // Unix milliseconds
	Symbol    string `json:"s"`
	LastPrice string `json:"c"`
	BidPrice  string `json:"b"`
	AskPrice  string `json:"a"`
}

// Worker handles the market data WebSocket connection for one symbol and
// feeds normalized snapshots into the sequencer inbox.
type Worker struct {
	wsURL     string
	symbol    string
	exchange  string
	inbox     chan<- event.Event
	conn      *websocket.Conn
	mu        sync.RWMutex
	writeMu   sync.Mutex
	connected bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// NewWorker creates a new feed worker.
func NewWorker(wsURL, symbol, exchange string, inbox chan<- event.Event) *Worker {
	return &Worker{
		wsURL:    wsURL,
		symbol:   symbol,
		exchange: exchange,
		inbox:    inbox,
	}
}

// Connect starts the WebSocket connection
func (w *Worker) Connect(ctx context.Context) error {
	ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(1)
	go w.connectionLoop(ctx)
	return nil
}

func (w *Worker) connectionLoop(ctx context.Context) {
	defer w.wg.Done()
	retryCount := 0
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := w.connect(ctx); err != nil {
			slog.Warn("Feed connection failed", slog.Any("error", err), slog.Int("retry", retryCount))
			delay := infra.CalculateBackoff(retryCount)
			retryCount++
			if retryCount > maxRetries {
				retryCount = 0
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
				continue
			}
		} else {
			retryCount = 0
			w.readLoop(ctx)
		}
	}
}

func (w *Worker) connect(ctx context.Context) error {
	streamURL := fmt.Sprintf("%s/%s@ticker", w.wsURL, strings.ToLower(w.symbol))

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, streamURL, nil)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}

	// The server pings periodically; answer to keep the stream alive.
	conn.SetPingHandler(func(appData string) error {
		return w.threadSafeWrite(websocket.PongMessage, []byte(appData))
	})

	w.mu.Lock()
	w.conn = conn
	w.connected = true
	w.mu.Unlock()

	infra.GlobalMetrics.IncrementConnections()
	slog.Info("Feed connected", slog.String("symbol", w.symbol), slog.String("exchange", w.exchange))
	return nil
}

func (w *Worker) threadSafeWrite(msgType int, data []byte) error {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.conn == nil {
		return fmt.Errorf("no conn")
	}
	return w.conn.WriteMessage(msgType, data)
}

func (w *Worker) readLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		w.mu.RLock()
		if w.conn == nil {
			w.mu.RUnlock()
			return
		}
		w.conn.SetReadDeadline(time.Now().Add(readTimeout))
		w.mu.RUnlock()

		_, msg, err := w.conn.ReadMessage()
		if err != nil {
			w.closeConnection()
			return
		}
		w.handleMessage(msg)
	}
}

func (w *Worker) handleMessage(msg []byte) {
	var resp tickerResponse
	if json.Unmarshal(msg, &resp) != nil || resp.EventType != "24hrTicker" {
		return
	}
	if !strings.EqualFold(resp.Symbol, w.symbol) {
		return
	}

	last, err := strconv.ParseFloat(resp.LastPrice, 64)
	if err != nil || last <= 0 {
		return
	}
	bid, err := strconv.ParseFloat(resp.BidPrice, 64)
	if err != nil || bid <= 0 {
		bid = last
	}
	ask, err := strconv.ParseFloat(resp.AskPrice, 64)
	if err != nil || ask <= 0 {
		ask = last
	}

	// Left unstamped: the sequencer numbers events on dispatch, so a
	// dropped tick never opens a sequence gap.
	ev := event.AcquireMarketUpdateEvent()
	ev.Ts = resp.EventTime
	ev.Symbol = w.symbol
	ev.LastPrice = last
	ev.BidPrice = bid
	ev.AskPrice = ask
	ev.Exchange = w.exchange

	select {
	case w.inbox <- ev:
	default: // DROP: the sequencer is behind, a fresher tick follows
		event.ReleaseMarketUpdateEvent(ev)
	}
}

func (w *Worker) closeConnection() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.conn != nil {
		w.conn.Close()
		w.conn = nil
		infra.GlobalMetrics.DecrementConnections()
	}
	w.connected = false
}

// IsConnected reports the current connection state.
func (w *Worker) IsConnected() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.connected
}

// Disconnect stops the worker and closes the connection.
func (w *Worker) Disconnect() {
	if w.cancel != nil {
		w.cancel()
	}
	w.closeConnection()
	w.wg.Wait()
}
