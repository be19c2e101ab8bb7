package execution

import (
	"context"

	"grid_go/internal/domain"
)

// Gateway defines the interface for order execution. Implementations
// report order lifecycle and fills back through the engine inbox rather
// than through return values, so live and simulated execution share one
// call path.
type Gateway interface {
	// SubmitOrder sends a new order and returns its exchange-assigned ID.
	SubmitOrder(ctx context.Context, order domain.Order) (string, error)

	// CancelAll cancels every open order for a symbol.
	CancelAll(ctx context.Context, symbol string) error
}
