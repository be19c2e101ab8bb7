package event

import (
	"sync"
)

// MarketUpdateEvents are the only high-frequency allocation in the system,
// so they are pooled. Feed workers acquire, the sequencer releases after
// dispatch.
//
// Usage:
//
//	ev := AcquireMarketUpdateEvent()
//	ev.Symbol = "BTCUSDT"
//	// ... send to inbox ...
//	ReleaseMarketUpdateEvent(ev)  // by the consumer, after processing
var marketUpdatePool = sync.Pool{
	New: func() interface{} {
		return &MarketUpdateEvent{}
	},
}

// AcquireMarketUpdateEvent gets a MarketUpdateEvent from the pool.
// The returned event has zero values and must be initialized.
func AcquireMarketUpdateEvent() *MarketUpdateEvent {
	return marketUpdatePool.Get().(*MarketUpdateEvent)
}

// ReleaseMarketUpdateEvent returns a MarketUpdateEvent to the pool.
// The event is reset to zero values before being pooled.
func ReleaseMarketUpdateEvent(ev *MarketUpdateEvent) {
	if ev == nil {
		return
	}
	ev.Seq = 0
	ev.Ts = 0
	ev.Symbol = ""
	ev.LastPrice = 0
	ev.BidPrice = 0
	ev.AskPrice = 0
	ev.Exchange = ""

	marketUpdatePool.Put(ev)
}

// Warmup pre-allocates event objects to reduce GC pressure at startup.
func Warmup() {
	const batchSize = 1000

	evs := make([]*MarketUpdateEvent, 0, batchSize)
	for i := 0; i < batchSize; i++ {
		evs = append(evs, AcquireMarketUpdateEvent())
	}
	for _, ev := range evs {
		ReleaseMarketUpdateEvent(ev)
	}
}
