package execution

import (
	"fmt"
	"log/slog"
	"os"

	"grid_go/internal/infra"
	"grid_go/internal/infra/exchange"
)

// Mode represents the trading execution mode
type Mode string

const (
	ModePaper Mode = "PAPER"
	ModeLive  Mode = "LIVE"
)

// NewGateway returns the Gateway implementation for the configured mode.
func NewGateway(cfg *infra.Config, emit EmitFunc) (Gateway, error) {
	mode := Mode(cfg.Gateway.Mode)

	slog.Info("Initializing Execution Gateway", "mode", mode)

	switch mode {
	case ModePaper:
		return NewPaperGateway(cfg.Gateway.InitialBalance, emit), nil

	case ModeLive:
		// SAFETY LATCH CHECK
		if os.Getenv("CONFIRM_REAL_MONEY") != "true" {
			return nil, fmt.Errorf("SAFETY_GUARD: live trading requires 'CONFIRM_REAL_MONEY=true' environment variable")
		}
		slog.Warn("Connecting to LIVE exchange, real funds at risk")
		return NewLiveGateway(exchange.NewClient(cfg)), nil

	default:
		return nil, fmt.Errorf("unknown execution mode: %s", cfg.Gateway.Mode)
	}
}
