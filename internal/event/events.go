package event

// Type defines the type of event.
type Type uint16

const (
	EvMarketUpdate Type = iota + 1
	EvOrderUpdate
	EvTradeFill
	EvPositionSync
)

// Event is the interface for all sequencer events. Events cross channels
// unstamped (Seq 0); the sequencer assigns sequence numbers on dispatch,
// so delivery order defines sequence order and a producer dropping an
// event never consumes a number.
type Event interface {
	GetSeq() uint64
	SetSeq(seq uint64)
	GetTs() int64
	GetType() Type
}

// BaseEvent contains common fields for all events.
// Ts is Unix milliseconds as reported by the source.
type BaseEvent struct {
	Seq uint64 `json:"seq"`
	Ts  int64  `json:"ts"`
}

func (e *BaseEvent) GetSeq() uint64    { return e.Seq }
func (e *BaseEvent) SetSeq(seq uint64) { e.Seq = seq }
func (e *BaseEvent) GetTs() int64      { return e.Ts }

// MarketUpdateEvent carries one normalized price snapshot.
// Bar-driven sources set Bid = Ask = Last.
type MarketUpdateEvent struct {
	BaseEvent
	Symbol    string  `json:"symbol"`
	LastPrice float64 `json:"last_price"`
	BidPrice  float64 `json:"bid_price"`
	AskPrice  float64 `json:"ask_price"`
	Exchange  string  `json:"exchange"`
}

func (e MarketUpdateEvent) GetType() Type { return EvMarketUpdate }

// OrderUpdateEvent reports an order status change from the gateway.
// Active=false covers fills, cancellations and rejections alike; the
// strategy only clears its pending order id on it.
type OrderUpdateEvent struct {
	BaseEvent
	OrderID string `json:"order_id"`
	Active  bool   `json:"active"`
	Status  string `json:"status"`
}

func (e OrderUpdateEvent) GetType() Type { return EvOrderUpdate }

// TradeFillEvent reports an executed trade.
type TradeFillEvent struct {
	BaseEvent
	OrderID   string  `json:"order_id"`
	Symbol    string  `json:"symbol"`
	Direction string  `json:"direction"` // domain.SideBuy / domain.SideSell
	Price     float64 `json:"price"`
	Volume    float64 `json:"volume"`
}

func (e TradeFillEvent) GetType() Type { return EvTradeFill }

// PositionSyncEvent hard-overwrites the strategy position from an external
// account snapshot. Price is the reference used to seed an uninitialized
// trigger price.
type PositionSyncEvent struct {
	BaseEvent
	Symbol   string  `json:"symbol"`
	Position float64 `json:"position"`
	Price    float64 `json:"price"`
}

func (e PositionSyncEvent) GetType() Type { return EvPositionSync }
