package domain

// MarketSnapshot is the normalized price shape every evaluation consumes.
// Tick feeds fill all three fields; bar feeds collapse bid/ask onto the close.
type MarketSnapshot struct {
	LastPrice float64 `json:"last_price"`
	BidPrice  float64 `json:"bid_price"`
	AskPrice  float64 `json:"ask_price"`
}

// SnapshotFromBar adapts a closed candle into the common snapshot shape.
func SnapshotFromBar(bar BarRecord) MarketSnapshot {
	return MarketSnapshot{
		LastPrice: bar.Close,
		BidPrice:  bar.Close,
		AskPrice:  bar.Close,
	}
}

// GridStateView is the read-only state snapshot published after every
// evaluation for external display and logging. Extremes are nil while the
// corresponding side is not armed.
type GridStateView struct {
	Symbol         string   `json:"symbol"`
	Position       float64  `json:"position"`
	PendingOrderID string   `json:"pending_order_id"`
	TouchUp        bool     `json:"touch_up"`
	TouchDn        bool     `json:"touch_dn"`
	HighestPrice   *float64 `json:"highest_price,omitempty"`
	LowestPrice    *float64 `json:"lowest_price,omitempty"`
	TriggerPrice   float64  `json:"trigger_price"`
	GridSleep      bool     `json:"grid_sleep"`
}
