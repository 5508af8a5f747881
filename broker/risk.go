package broker

import (
	"tradeengine/model"
	"tradeengine/trading"
)

// checkPlace runs the place-order risk chain in registration order,
// stopping at the first denial (§4.6). The returned reason is whatever
// the denying manager reported, which may be empty ("unspecified").
func (b *Broker) checkPlace(sym model.Symbol, side model.Side, offset model.Offset, price float64, volume int64) (bool, string) {
	for _, m := range b.placeRisks {
		if allowed, reason := m.CheckPlaceOrder(sym, side, offset, price, volume); !allowed {
			return false, reason
		}
	}
	return true, ""
}

func (b *Broker) checkCancel(orderRef int64) (bool, string) {
	for _, m := range b.cancelRisks {
		if allowed, reason := m.CheckCancelOrder(orderRef); !allowed {
			return false, reason
		}
	}
	return true, ""
}

func (b *Broker) denyPlace(reason string, receiver trading.PlaceReceiver) {
	for _, s := range b.strategies {
		s.OnRisk("place-order-risk", reason)
	}
	receiver.OnPlaceOrderError(trading.ReasonRiskRejected)
}

func (b *Broker) denyCancel(reason string, receiver trading.CancelReceiver) {
	for _, s := range b.strategies {
		s.OnRisk("cancel-order-risk", reason)
	}
	receiver.OnCancelOrderError(trading.ReasonRiskRejected)
}

// PlaceLimitOrder gates a limit order through the place-order risk chain
// before forwarding to the Trading Coordinator; a denial never reaches the
// Coordinator at all (§4.6).
func (b *Broker) PlaceLimitOrder(sym model.Symbol, side model.Side, offset model.Offset, price float64, volume int64, receiver trading.PlaceReceiver) {
	if allowed, reason := b.checkPlace(sym, side, offset, price, volume); !allowed {
		b.denyPlace(reason, receiver)
		return
	}
	b.coord.PlaceLimitOrder(sym, side, offset, price, volume, receiver)
}

// PlaceMarketOrder mirrors PlaceLimitOrder for market orders; price is
// reported to the risk chain as 0, matching §4.5's own market-order
// submission shape (price is resolved downstream, not supplied here).
func (b *Broker) PlaceMarketOrder(sym model.Symbol, side model.Side, offset model.Offset, volume int64, receiver trading.PlaceReceiver) {
	if allowed, reason := b.checkPlace(sym, side, offset, 0, volume); !allowed {
		b.denyPlace(reason, receiver)
		return
	}
	b.coord.PlaceMarketOrder(sym, side, offset, volume, receiver)
}

// CancelOrder gates a cancel through the cancel-order risk chain (§4.6).
func (b *Broker) CancelOrder(orderRef int64, receiver trading.CancelReceiver) {
	if allowed, reason := b.checkCancel(orderRef); !allowed {
		b.denyCancel(reason, receiver)
		return
	}
	b.coord.CancelOrder(orderRef, receiver)
}

// BuyOpen, BuyClose, SellOpen and SellClose compose side and offset into a
// single risk-gated limit-order call (§4.6, "convenience helpers").
func (b *Broker) BuyOpen(sym model.Symbol, price float64, volume int64, receiver trading.PlaceReceiver) {
	b.PlaceLimitOrder(sym, model.SideLong, model.OffsetOpen, price, volume, receiver)
}

func (b *Broker) BuyClose(sym model.Symbol, price float64, volume int64, receiver trading.PlaceReceiver) {
	b.PlaceLimitOrder(sym, model.SideLong, model.OffsetClose, price, volume, receiver)
}

func (b *Broker) SellOpen(sym model.Symbol, price float64, volume int64, receiver trading.PlaceReceiver) {
	b.PlaceLimitOrder(sym, model.SideShort, model.OffsetOpen, price, volume, receiver)
}

func (b *Broker) SellClose(sym model.Symbol, price float64, volume int64, receiver trading.PlaceReceiver) {
	b.PlaceLimitOrder(sym, model.SideShort, model.OffsetClose, price, volume, receiver)
}
