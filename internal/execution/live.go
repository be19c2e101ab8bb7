package execution

import (
	"context"
	"log/slog"

	"grid_go/internal/domain"
	"grid_go/internal/infra/exchange"

	"github.com/google/uuid"
)

// LiveGateway routes orders to the exchange REST API. Order updates and
// fills are not synthesized here: the order poller fetches them back
// from the exchange and feeds them into the sequencer inbox.
type LiveGateway struct {
	client *exchange.Client
}

// NewLiveGateway wraps an authenticated exchange client.
func NewLiveGateway(client *exchange.Client) *LiveGateway {
	return &LiveGateway{client: client}
}

// SubmitOrder places the order on the exchange under a client-assigned ID.
func (g *LiveGateway) SubmitOrder(ctx context.Context, order domain.Order) (string, error) {
	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	slog.Info("LIVE: submitting order",
		slog.String("id", order.ID),
		slog.String("symbol", order.Symbol),
		slog.String("side", order.Side),
		slog.Float64("price", order.Price),
		slog.Float64("volume", order.Volume))
	if err := g.client.PlaceOrder(ctx, order); err != nil {
		return "", err
	}
	return order.ID, nil
}

// CancelAll cancels every open order for the symbol.
func (g *LiveGateway) CancelAll(ctx context.Context, symbol string) error {
	return g.client.CancelSymbolOrders(ctx, symbol)
}
