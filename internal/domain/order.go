package domain

import "time"

// Order represents a trading order as handed to the gateway.
type Order struct {
	ID        string
	Symbol    string
	Side      string // "BUY", "SELL"
	Type      string // "LIMIT", "MARKET"
	Price     float64
	Volume    float64
	Status    string // "NEW", "FILLED", "CANCELED", "REJECTED"
	CreatedAt time.Time
}

const (
	SideBuy  = "BUY"
	SideSell = "SELL"

	OrderTypeLimit  = "LIMIT"
	OrderTypeMarket = "MARKET"

	OrderStatusNew      = "NEW"
	OrderStatusFilled   = "FILLED"
	OrderStatusCanceled = "CANCELED"
	OrderStatusRejected = "REJECTED"
)

// IsOpen checks if the order is still active.
func (o *Order) IsOpen() bool {
	return o.Status == OrderStatusNew
}

// Fill is an executed trade reported back by the gateway.
type Fill struct {
	OrderID   string
	Symbol    string
	Direction string // SideBuy or SideSell
	Price     float64
	Volume    float64
	Ts        int64 // Unix milliseconds
}
