package market

import (
	"tradeengine/gateway"
	"tradeengine/model"
)

// OnFrontConnected is a no-op: unlike the trade endpoint, the market
// endpoint's login is never self-initiated on connect — it is driven
// explicitly by the Broker Façade's Open call, sequenced off the trade
// endpoint's own onOpen (§4.6, "on trader onOpen, market.open").
func (r *Router) OnFrontConnected() {}

// OnFrontDisconnected reports the disconnect through the error sink.
// Subscription/recorder state is left untouched: OnRspUserLogin's
// union-based resubscribe is idempotent and repairs the wire state on the next
// successful login without needing anything cleared here, and onOpen
// fires at most once per Router lifecycle regardless of how many
// reconnects occur in between (§4.4).
func (r *Router) OnFrontDisconnected(reason int) {
	if r.sink != nil {
		r.sink.OnError(gateway.ErrorLogin, "market: front disconnected")
	}
}

// OnRspUserLogin completes the market endpoint's own login handshake
// kicked off by Open (§4.4, "On successful login"): clears lastTicks if
// the trading day Open was called with differs from the last confirmed
// one, re-subscribes the union of recordings and subscribers (idempotent,
// safe on every reconnect), and fires onOpen exactly once per lifecycle.
func (r *Router) OnRspUserLogin(info *gateway.RspInfo) {
	if gateway.ClassifyError(r.sink, gateway.ErrorLogin, info) {
		return
	}

	if model.TradingDayChanged(r.tradingDay, r.pendingTradingDay) {
		r.lastTicks = make(map[string]model.Tick)
	}
	r.tradingDay = r.pendingTradingDay

	union := make(map[string]bool, len(r.subscribers)+len(r.recordings))
	for id := range r.subscribers {
		union[id] = true
	}
	for id := range r.recordings {
		union[id] = true
	}
	ids := make([]string, 0, len(union))
	for id := range union {
		ids = append(ids, id)
	}
	if err := r.flushSubscribe(ids); err != nil {
		r.log.WithError(err).Warn("market: resubscribe on login failed")
	}

	if !r.opened {
		r.opened = true
		for _, o := range r.openReceivers {
			o.OnOpen()
		}
	}
}

// OnRspSubMarketData reports a per-instrument subscribe rejection through
// the error sink; the subscription itself was already recorded optimistically
// by Subscribe/StartRecorder, matching how this codebase's other batched
// network calls (market.Router.flushSubscribe, gateway.Retry) treat the
// wire call as fire-and-forget once accepted (§4.4 names no per-instrument
// rollback on a subscribe-ack rejection).
func (r *Router) OnRspSubMarketData(instrumentID string, info *gateway.RspInfo) {
	if gateway.ClassifyError(r.sink, gateway.ErrorSubscribeMarketData, info) {
		r.log.WithField("instrument", instrumentID).Warn("market: subscribe rejected")
	}
}

// OnRspUnSubMarketData mirrors OnRspSubMarketData for unsubscribe acks.
func (r *Router) OnRspUnSubMarketData(instrumentID string, info *gateway.RspInfo) {
	if gateway.ClassifyError(r.sink, gateway.ErrorSubscribeMarketData, info) {
		r.log.WithField("instrument", instrumentID).Warn("market: unsubscribe rejected")
	}
}
