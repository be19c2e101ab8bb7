package strategy

import (
	"grid_go/internal/domain"
)

// ActionType defines the type of trading action
type ActionType int

const (
	ActionBuy ActionType = iota + 1
	ActionSell
	ActionCancelAll
)

// String returns the string representation of ActionType
func (a ActionType) String() string {
	switch a {
	case ActionBuy:
		return "BUY"
	case ActionSell:
		return "SELL"
	case ActionCancelAll:
		return "CANCEL_ALL"
	default:
		return "UNKNOWN"
	}
}

// Action represents a decision made by the strategy. Price and Volume are
// meaningless for ActionCancelAll.
type Action struct {
	Type      ActionType
	Symbol    string
	Price     float64
	Volume    float64
	OrderType string // domain.OrderTypeLimit or domain.OrderTypeMarket
}

// Strategy is the interface the sequencer drives. All methods are called
// synchronously from the single sequencer goroutine, one event at a time;
// fills are always applied before the next Evaluate.
type Strategy interface {
	// Evaluate processes one normalized price snapshot and returns the
	// actions to execute.
	Evaluate(snap domain.MarketSnapshot) []Action

	// OnOrderSubmitted records the gateway-assigned id of the order just sent.
	OnOrderSubmitted(orderID string)

	// OnOrderUpdate reports an order leaving the active state (filled,
	// cancelled or rejected). Only the pending order id is cleared; armed
	// hysteresis flags survive so the next qualifying snapshot re-attempts.
	OnOrderUpdate(orderID string, active bool)

	// OnFill applies an executed trade to the position and trigger state.
	OnFill(fill domain.Fill)

	// OnPositionSync hard-overwrites the position from an external account
	// snapshot.
	OnPositionSync(position, refPrice float64)

	// View returns the current observable state.
	View() domain.GridStateView
}
