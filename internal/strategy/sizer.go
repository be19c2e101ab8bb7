package strategy

import (
	"math"

	"grid_go/internal/domain"
	"grid_go/pkg/gmath"
)

// sizeResult is a computed order price/volume pair.
type sizeResult struct {
	Price  float64
	Volume float64
}

// sizeSell computes the sell order for an upside release. ok=false
// suppresses the trade for this cycle: the armed flag and recorded high
// stay set, so the next qualifying snapshot retries.
func sizeSell(cfg *GridConfig, st *GridState, last, bid float64) (sizeResult, bool) {
	// Market orders cross at the best bid; limit orders shade off the last
	// trade to raise the fill probability.
	price := bid
	if cfg.OrderType == domain.OrderTypeLimit {
		price = last - cfg.SellOffset
	}

	volume := cfg.OrderVolume
	// Notional sizing takes precedence over the fixed volume when set.
	if cfg.OrderAmount > 0 {
		volume = price / cfg.OrderAmount
	}

	if cfg.MultipleOrder {
		risePct, ok := gmath.RisePct(st.TriggerPrice, last)
		if !ok {
			return sizeResult{}, false
		}
		volume *= gmath.FloorMultiple(risePct, cfg.RisePercent)
	}

	// Keep at least MinPosition on the book.
	if cfg.MinPosition > 0 {
		if st.Position > cfg.MinPosition {
			volume = math.Min(volume, st.Position-cfg.MinPosition)
		} else {
			volume = 0
		}
	}

	// Bias give-up: abandon the trade when the move from the trigger is
	// outside the tolerated window.
	if cfg.GiveUpBias > 0 {
		bias, ok := gmath.RisePct(st.TriggerPrice, last)
		if !ok || bias <= 0 || bias >= cfg.GiveUpBias {
			return sizeResult{}, false
		}
	}

	if volume <= 0 {
		return sizeResult{}, false
	}
	return sizeResult{Price: price, Volume: volume}, true
}

// sizeBuy is the mirror of sizeSell for a downside release.
func sizeBuy(cfg *GridConfig, st *GridState, last, ask float64) (sizeResult, bool) {
	price := ask
	if cfg.OrderType == domain.OrderTypeLimit {
		price = last + cfg.BuyOffset
	}

	volume := cfg.OrderVolume
	if cfg.OrderAmount > 0 {
		volume = price / cfg.OrderAmount
	}

	if cfg.MultipleOrder {
		fallPct, ok := gmath.FallPct(st.TriggerPrice, last)
		if !ok {
			return sizeResult{}, false
		}
		volume *= gmath.CeilMultiple(fallPct, cfg.FallPercent)
	}

	// Never buy past MaxPosition.
	if cfg.MaxPosition > 0 {
		volume = math.Min(volume, cfg.MaxPosition-st.Position)
	}

	if cfg.GiveUpBias > 0 {
		bias, ok := gmath.FallPct(st.TriggerPrice, last)
		if !ok || bias <= 0 || bias >= cfg.GiveUpBias {
			return sizeResult{}, false
		}
	}

	if volume <= 0 {
		return sizeResult{}, false
	}
	return sizeResult{Price: price, Volume: volume}, true
}
