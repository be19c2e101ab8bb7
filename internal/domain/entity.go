package domain

import "time"

// OrderRecord persists every order intent submitted to a gateway.
type OrderRecord struct {
	OrderID   string    `gorm:"primaryKey" json:"order_id"`
	Symbol    string    `gorm:"index" json:"symbol"`
	Side      string    `json:"side"`
	Type      string    `json:"type"`
	Price     float64   `json:"price"`
	Volume    float64   `json:"volume"`
	Status    string    `gorm:"index" json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TradeRecord persists confirmed fills.
type TradeRecord struct {
	ID        uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID   string  `gorm:"index" json:"order_id"`
	Symbol    string  `gorm:"index" json:"symbol"`
	Direction string  `json:"direction"`
	Price     float64 `json:"price"`
	Volume    float64 `json:"volume"`
	Ts        int64   `json:"ts"` // Unix milliseconds
}

// BarRecord stores historical candles for backtesting.
type BarRecord struct {
	ID     uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	Symbol string  `gorm:"index:idx_bar_symbol_ts,unique" json:"symbol"`
	Ts     int64   `gorm:"index:idx_bar_symbol_ts,unique" json:"ts"` // Unix milliseconds
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// StateRecord captures the published strategy state after an event has
// been processed. One row per symbol, overwritten in place.
type StateRecord struct {
	Symbol         string    `gorm:"primaryKey" json:"symbol"`
	Position       float64   `json:"position"`
	PendingOrderID string    `json:"pending_order_id"`
	TouchUp        bool      `json:"touch_up"`
	TouchDn        bool      `json:"touch_dn"`
	Highest        float64   `json:"highest"`
	Lowest         float64   `json:"lowest"`
	TriggerPrice   float64   `json:"trigger_price"`
	GridSleep      bool      `json:"grid_sleep"`
	UpdatedAt      time.Time `json:"updated_at"`
}
