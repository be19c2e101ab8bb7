package strategy

import (
	"log/slog"

	"grid_go/internal/domain"
	"grid_go/pkg/gmath"
)

// GridConfig holds the grid parameters. Immutable after construction.
type GridConfig struct {
	Symbol       string  `yaml:"symbol"`
	LowerPrice   float64 `yaml:"lower_price"`
	UpperPrice   float64 `yaml:"upper_price"`
	TriggerPrice float64 `yaml:"trigger_price"`

	// Arming thresholds: price must move this far (percent) from the
	// trigger before the retrace watch opens.
	RisePercent float64 `yaml:"rise_percent"`
	FallPercent float64 `yaml:"fall_percent"`

	// Release thresholds: retrace from the recorded extreme (percent)
	// that fires the order.
	FallDown float64 `yaml:"fall_down"`
	RiseUp   float64 `yaml:"rise_up"`

	OrderType   string  `yaml:"order_type"` // domain.OrderTypeLimit / domain.OrderTypeMarket
	OrderVolume float64 `yaml:"order_volume"`
	OrderAmount float64 `yaml:"order_amount"` // notional sizing, 0 = disabled

	MaxPosition   float64 `yaml:"max_position"` // 0 = disabled
	MinPosition   float64 `yaml:"min_position"` // 0 = disabled
	MultipleOrder bool    `yaml:"multiple_order"`
	GiveUpBias    float64 `yaml:"give_up_bias"` // 0 = disabled
	BuyOffset     float64 `yaml:"buy_offset"`
	SellOffset    float64 `yaml:"sell_offset"`

	// Accepted but not consulted by the evaluation logic.
	Deadline string `yaml:"deadline"`
}

// Validate rejects inconsistent parameters outright. Values are never
// silently clamped.
func (c *GridConfig) Validate() error {
	if c.Symbol == "" {
		return domain.NewConfigError("symbol", "required")
	}
	if c.LowerPrice >= c.UpperPrice {
		return domain.NewConfigError("lower_price", "must be below upper_price")
	}
	if c.TriggerPrice < c.LowerPrice || c.TriggerPrice > c.UpperPrice {
		return domain.NewConfigError("trigger_price", "outside the corridor")
	}
	percents := map[string]float64{
		"rise_percent": c.RisePercent,
		"fall_percent": c.FallPercent,
		"fall_down":    c.FallDown,
		"rise_up":      c.RiseUp,
		"give_up_bias": c.GiveUpBias,
	}
	for field, v := range percents {
		if v < 0 {
			return domain.NewConfigError(field, "must not be negative")
		}
	}
	if c.OrderType != domain.OrderTypeLimit && c.OrderType != domain.OrderTypeMarket {
		return domain.NewConfigError("order_type", "must be LIMIT or MARKET")
	}
	if c.OrderVolume <= 0 && c.OrderAmount <= 0 {
		return domain.NewConfigError("order_volume", "order_volume or order_amount must be positive")
	}
	return nil
}

// GridState is the mutable per-grid state. It has exactly one owner; the
// sequencer serializes every mutation, so no locking is needed.
// HighestPrice is meaningful only while TouchUp is set, LowestPrice only
// while TouchDn is set; zero means unset.
type GridState struct {
	TriggerPrice   float64
	TouchUp        bool
	TouchDn        bool
	HighestPrice   float64
	LowestPrice    float64
	GridSleep      bool
	Position       float64
	PendingOrderID string
}

// Grid is the reactive grid decision engine: it watches each snapshot
// against a bounded price corridor and fires buy/sell actions on
// hysteresis arm/release transitions.
type Grid struct {
	cfg   GridConfig
	state GridState
	log   *slog.Logger
}

// NewGrid validates the config and builds a grid seeded at the configured
// trigger price.
func NewGrid(cfg GridConfig) (*Grid, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Grid{
		cfg:   cfg,
		state: GridState{TriggerPrice: cfg.TriggerPrice},
		log:   slog.Default().With("module", "grid", "symbol", cfg.Symbol),
	}, nil
}

// Config returns the grid parameters.
func (g *Grid) Config() GridConfig { return g.cfg }

// Evaluate runs one decision cycle over a snapshot. Later steps observe
// mutations made by earlier steps in the same call: a sell release
// re-anchors the trigger price before the buy release is checked.
func (g *Grid) Evaluate(snap domain.MarketSnapshot) []Action {
	last := snap.LastPrice

	// Corridor check. Strict inequalities: a price exactly on a bound
	// keeps the grid awake.
	if last > g.cfg.UpperPrice || last < g.cfg.LowerPrice {
		if !g.state.GridSleep {
			g.state.GridSleep = true
			g.log.Info("grid sleeping",
				slog.Float64("last", last),
				slog.Float64("upper", g.cfg.UpperPrice),
				slog.Float64("lower", g.cfg.LowerPrice))
		}
		// Cancel request every cycle while outside, fire and forget.
		return []Action{{Type: ActionCancelAll, Symbol: g.cfg.Symbol}}
	}
	if g.state.GridSleep {
		g.state.GridSleep = false
		g.log.Info("grid resumed",
			slog.Float64("last", last),
			slog.Float64("upper", g.cfg.UpperPrice),
			slog.Float64("lower", g.cfg.LowerPrice))
	}

	// Release below only considers sides armed by earlier snapshots: the
	// same snapshot never arms and releases in one cycle.
	armedUp := g.state.TouchUp
	armedDn := g.state.TouchDn

	// Upside arming: track the running maximum once the rise threshold is hit.
	if last > g.state.TriggerPrice {
		if risePct, ok := gmath.RisePct(g.state.TriggerPrice, last); ok && risePct >= g.cfg.RisePercent {
			g.state.TouchUp = true
			if g.state.HighestPrice == 0 || last > g.state.HighestPrice {
				g.state.HighestPrice = last
			}
		}
	}

	// Downside arming, independent of the upside flag.
	if last < g.state.TriggerPrice {
		if fallPct, ok := gmath.FallPct(g.state.TriggerPrice, last); ok && fallPct >= g.cfg.FallPercent {
			g.state.TouchDn = true
			if g.state.LowestPrice == 0 || last < g.state.LowestPrice {
				g.state.LowestPrice = last
			}
		}
	}

	var actions []Action

	// Upside release: armed and retraced far enough from the high -> sell.
	if armedUp {
		if fallDnPct, ok := gmath.FallPct(g.state.HighestPrice, last); ok && fallDnPct >= g.cfg.FallDown {
			if res, ok := sizeSell(&g.cfg, &g.state, last, snap.BidPrice); ok {
				actions = append(actions, Action{
					Type:      ActionSell,
					Symbol:    g.cfg.Symbol,
					Price:     res.Price,
					Volume:    res.Volume,
					OrderType: g.cfg.OrderType,
				})
				g.state.TouchUp = false
				g.state.HighestPrice = 0
				g.state.TriggerPrice = res.Price
			}
		}
	}

	// Downside release, using the trigger as just possibly re-anchored above.
	if armedDn {
		if riseUpPct, ok := gmath.RisePct(g.state.LowestPrice, last); ok && riseUpPct >= g.cfg.RiseUp {
			if res, ok := sizeBuy(&g.cfg, &g.state, last, snap.AskPrice); ok {
				actions = append(actions, Action{
					Type:      ActionBuy,
					Symbol:    g.cfg.Symbol,
					Price:     res.Price,
					Volume:    res.Volume,
					OrderType: g.cfg.OrderType,
				})
				g.state.TouchDn = false
				g.state.LowestPrice = 0
				g.state.TriggerPrice = res.Price
			}
		}
	}

	return actions
}

// OnOrderSubmitted records the id of the order just sent to the gateway.
func (g *Grid) OnOrderSubmitted(orderID string) {
	g.state.PendingOrderID = orderID
}

// OnOrderUpdate clears the pending order id once the order leaves the
// active state. Armed flags and extremes are deliberately left intact:
// a rejected or cancelled order is re-attempted by the next qualifying
// evaluation without explicit retry code.
func (g *Grid) OnOrderUpdate(orderID string, active bool) {
	if !active {
		g.state.PendingOrderID = ""
	}
}

// OnFill applies an executed trade: position delta, one-sided flag clear,
// and trigger re-anchor to the fill price so the grid drifts with realized
// prices.
func (g *Grid) OnFill(fill domain.Fill) {
	if fill.Direction == domain.SideBuy {
		g.state.Position += fill.Volume
		g.state.TouchUp = false
		g.state.HighestPrice = 0
	} else {
		g.state.Position -= fill.Volume
		g.state.TouchDn = false
		g.state.LowestPrice = 0
	}
	g.state.TriggerPrice = fill.Price
}

// OnPositionSync hard-overwrites the position from the exchange account
// and seeds an uninitialized trigger price from the reference price.
func (g *Grid) OnPositionSync(position, refPrice float64) {
	g.state.Position = position
	if g.state.TriggerPrice <= 0 {
		g.state.TriggerPrice = refPrice
	}
}

// View returns the current observable state.
func (g *Grid) View() domain.GridStateView {
	view := domain.GridStateView{
		Symbol:         g.cfg.Symbol,
		Position:       g.state.Position,
		PendingOrderID: g.state.PendingOrderID,
		TouchUp:        g.state.TouchUp,
		TouchDn:        g.state.TouchDn,
		TriggerPrice:   g.state.TriggerPrice,
		GridSleep:      g.state.GridSleep,
	}
	if g.state.TouchUp && g.state.HighestPrice > 0 {
		high := g.state.HighestPrice
		view.HighestPrice = &high
	}
	if g.state.TouchDn && g.state.LowestPrice > 0 {
		low := g.state.LowestPrice
		view.LowestPrice = &low
	}
	return view
}
