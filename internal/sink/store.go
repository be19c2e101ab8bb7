package sink

import (
	"log/slog"
	"time"

	"grid_go/internal/domain"
	"grid_go/internal/infra/storage"
)

// StoreSink persists each published state, one row per symbol.
type StoreSink struct {
	store *storage.Storage
}

// NewStoreSink creates a storage-backed sink.
func NewStoreSink(store *storage.Storage) *StoreSink {
	return &StoreSink{store: store}
}

func (s *StoreSink) Publish(view domain.GridStateView) {
	rec := &domain.StateRecord{
		Symbol:         view.Symbol,
		Position:       view.Position,
		PendingOrderID: view.PendingOrderID,
		TouchUp:        view.TouchUp,
		TouchDn:        view.TouchDn,
		TriggerPrice:   view.TriggerPrice,
		GridSleep:      view.GridSleep,
		UpdatedAt:      time.Now(),
	}
	if view.HighestPrice != nil {
		rec.Highest = *view.HighestPrice
	}
	if view.LowestPrice != nil {
		rec.Lowest = *view.LowestPrice
	}
	if err := s.store.SaveState(rec); err != nil {
		slog.Warn("Failed to persist state", slog.Any("error", err))
	}
}
