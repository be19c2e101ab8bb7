package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"grid_go/internal/app"
	"grid_go/internal/engine"
	"grid_go/internal/event"
	"grid_go/internal/execution"
	"grid_go/internal/infra/exchange"
	"grid_go/internal/infra/feed"
	"grid_go/internal/sink"
	"grid_go/internal/strategy"

	_ "net/http/pprof" // For pprof profiling
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to configuration file")
	flag.Parse()

	// 1. Pprof Server (for performance profiling)
	go func() {
		// Localhost only for security
		slog.Info("Pprof server started on localhost:6060")
		if err := http.ListenAndServe("localhost:6060", nil); err != nil {
			slog.Error("Pprof server failed", slog.Any("error", err))
		}
	}()

	// 2. System Bootstrapping
	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(*configPath); err != nil {
		slog.Error("Bootstrapping failed", slog.Any("error", err))
		os.Exit(1)
	}
	cfg := bootstrap.Config

	// 3. Graceful Shutdown Context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Strategy
	grid, err := strategy.NewGrid(cfg.Grid)
	if err != nil {
		slog.Error("Invalid grid parameters", slog.Any("error", err))
		os.Exit(1)
	}

	// 5. Gateway + Sequencer. Gateways run on the sequencer goroutine, so
	// their events go into the sequencer's internal queue, not the inbox.
	// The sequencer does not exist yet; the reference is bound late.
	var seqr *engine.Sequencer
	emit := func(ev event.Event) {
		seqr.Emit(ev)
	}

	gateway, err := execution.NewGateway(cfg, emit)
	if err != nil {
		slog.Error("Gateway initialization failed", slog.Any("error", err))
		os.Exit(1)
	}

	snk := sink.NewMultiSink(
		sink.NewLogSink(),
		sink.NewStoreSink(bootstrap.Storage),
		webhookOrNil(cfg.Sink.WebhookURL),
	)

	seqr = engine.NewSequencer(1024, grid, gateway, bootstrap.Storage, snk)

	// Start Sequencer in its own goroutine (The Hotpath Loop)
	go seqr.Run(ctx)
	slog.InfoContext(ctx, "Sequencer (Hotpath) started")

	// 6. Market Data Feed
	event.Warmup()
	worker := feed.NewWorker(cfg.Feed.WSURL, cfg.Grid.Symbol, cfg.Feed.Exchange, seqr.Inbox())
	if err := worker.Connect(ctx); err != nil {
		slog.Error("Failed to connect feed", slog.Any("error", err))
	}
	defer worker.Disconnect()
	slog.InfoContext(ctx, "Feed worker started", slog.String("symbol", cfg.Grid.Symbol))

	// 7. Account pollers (LIVE only). The live gateway never synthesizes
	// fills; they come back through the order poller.
	if cfg.Gateway.Mode == "LIVE" {
		client := exchange.NewClient(cfg)

		if cfg.Gateway.PositionPollSec > 0 {
			coin := strings.TrimSuffix(cfg.Grid.Symbol, "USDT")
			poller := exchange.NewPositionPoller(client, coin, cfg.Grid.Symbol,
				seqr.Inbox(), cfg.Gateway.PositionPollSec)
			if err := poller.Start(ctx); err != nil {
				slog.Error("Failed to start position poller", slog.Any("error", err))
			}
			defer poller.Stop()
			slog.InfoContext(ctx, "Position poller started")
		}

		orders := exchange.NewOrderPoller(client, cfg.Grid.Symbol,
			seqr.Inbox(), cfg.Gateway.OrderPollSec)
		if err := orders.Start(ctx); err != nil {
			slog.Error("Failed to start order poller", slog.Any("error", err))
		}
		defer orders.Stop()
		slog.InfoContext(ctx, "Order poller started")
	}

	slog.InfoContext(ctx, "Grid Go fully operational. Press Ctrl+C to exit.")

	// Wait for shutdown signal
	<-ctx.Done()

	slog.InfoContext(ctx, "Shutting down gracefully...")
}

// webhookOrNil keeps MultiSink free of typed-nil interface values.
func webhookOrNil(url string) sink.Sink {
	if s := sink.NewWebhookSink(url); s != nil {
		return s
	}
	return nil
}
