package backtest

import (
	"context"
	"fmt"
	"log/slog"

	"grid_go/internal/domain"
	"grid_go/internal/engine"
	"grid_go/internal/event"
	"grid_go/internal/execution"
	"grid_go/internal/infra/storage"
	"grid_go/internal/sink"
	"grid_go/internal/strategy"

	"github.com/shopspring/decimal"
)

// Replayer feeds stored candles through a paper-traded sequencer. The
// gateway hands its order updates and fills to the sequencer's internal
// queue, which drains synchronously after each bar, so every fill is
// applied before the next evaluation.
type Replayer struct {
	store   *storage.Storage
	seq     *engine.Sequencer
	paper   *execution.PaperGateway
	fills   int
	initial decimal.Decimal
}

// Report summarizes one backtest run. Money is decimal end to end.
type Report struct {
	Symbol        string
	Bars          int
	Fills         int
	FinalPosition decimal.Decimal
	RealizedPnL   decimal.Decimal
	Equity        decimal.Decimal
	TotalPnL      decimal.Decimal
}

func (r *Report) String() string {
	return fmt.Sprintf(
		"symbol=%s bars=%d fills=%d position=%s realized=%s equity=%s pnl=%s",
		r.Symbol, r.Bars, r.Fills,
		r.FinalPosition.String(),
		r.RealizedPnL.StringFixed(2),
		r.Equity.StringFixed(2),
		r.TotalPnL.StringFixed(2))
}

// NewReplayer builds a self-contained backtest rig: grid strategy, paper
// gateway and sequencer, wired for synchronous replay.
func NewReplayer(store *storage.Storage, cfg strategy.GridConfig, initialBalance float64) (*Replayer, error) {
	grid, err := strategy.NewGrid(cfg)
	if err != nil {
		return nil, err
	}

	r := &Replayer{
		store:   store,
		initial: decimal.NewFromFloat(initialBalance),
	}
	r.paper = execution.NewPaperGateway(initialBalance, r.emit)
	r.seq = engine.NewSequencer(1, grid, r.paper, nil, sink.NewLogSink())
	return r, nil
}

// emit counts fills on their way into the sequencer's gateway queue.
func (r *Replayer) emit(ev event.Event) {
	if _, ok := ev.(*event.TradeFillEvent); ok {
		r.fills++
	}
	r.seq.Emit(ev)
}

// Run replays all candles for a symbol within [startTs, endTs].
func (r *Replayer) Run(ctx context.Context, symbol string, startTs, endTs int64) (*Report, error) {
	bars, err := r.store.LoadBars(symbol, startTs, endTs)
	if err != nil {
		return nil, fmt.Errorf("failed to load bars: %w", err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("no bars for %s in range", symbol)
	}

	slog.Info("Replay started", slog.String("symbol", symbol), slog.Int("bars", len(bars)))

	for _, bar := range bars {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		snap := domain.SnapshotFromBar(bar)
		ev := event.AcquireMarketUpdateEvent()
		ev.Ts = bar.Ts
		ev.Symbol = bar.Symbol
		ev.LastPrice = snap.LastPrice
		ev.BidPrice = snap.BidPrice
		ev.AskPrice = snap.AskPrice

		r.seq.ReplayEvent(ev)
	}

	return r.report(symbol, bars), nil
}

func (r *Replayer) report(symbol string, bars []domain.BarRecord) *Report {
	lastClose := bars[len(bars)-1].Close
	equity := r.paper.Equity(lastClose)

	return &Report{
		Symbol:        symbol,
		Bars:          len(bars),
		Fills:         r.fills,
		FinalPosition: r.paper.BaseBalance(),
		RealizedPnL:   r.paper.QuoteBalance().Sub(r.initial),
		Equity:        equity,
		TotalPnL:      equity.Sub(r.initial),
	}
}
