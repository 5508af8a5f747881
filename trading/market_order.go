package trading

import (
	"tradeengine/gateway"
	"tradeengine/model"
)

// boundFor picks the price bound a market order converts to for side,
// preferring the circuit-breaker band over the daily limit when both are
// known (§4.5 step 2/3: "derive bound from circuit-breaker bands if both
// present/valid, else daily upper/lower limits").
func boundFor(side model.Side, pl priceLimit) float64 {
	if pl.hasBand {
		if side == model.SideLong {
			return pl.bandUpper
		}
		return pl.bandLower
	}
	if side == model.SideLong {
		return pl.upper
	}
	return pl.lower
}

func priceLimitFromTick(tick model.Tick) priceLimit {
	if tick.HasBand() {
		return priceLimit{tradingDay: tick.TradingDay, bandUpper: tick.UpperBand, bandLower: tick.LowerBand, hasBand: true}
	}
	return priceLimit{tradingDay: tick.TradingDay, upper: tick.UpperLimit, lower: tick.LowerLimit}
}

func hasValidBand(upper, lower float64) bool {
	return upper != 0 && lower != 0 && upper != model.MaxValue && lower != model.MaxValue
}

func priceLimitFromRawDepth(data gateway.RawDepthMarketData) priceLimit {
	if hasValidBand(data.BandingUpperPrice, data.BandingLowerPrice) {
		return priceLimit{tradingDay: data.TradingDay, bandUpper: data.BandingUpperPrice, bandLower: data.BandingLowerPrice, hasBand: true}
	}
	return priceLimit{tradingDay: data.TradingDay, upper: data.UpperLimitPrice, lower: data.LowerLimitPrice}
}

// PlaceMarketOrder converts a market order to a limit order at an exchange
// price bound, resolved in three tiers (§4.5 step 2/3): a cached daily
// limit for the instrument and trading day, then an optional fast-tick
// hook, then a depth-market-data query whose response drains every market
// order queued for the same instrument while the query was outstanding.
func (c *Coordinator) PlaceMarketOrder(sym model.Symbol, side model.Side, offset model.Offset, volume int64, receiver PlaceReceiver) {
	if volume <= 0 {
		receiver.OnPlaceOrderError(ReasonInvalidVolume)
		return
	}
	inst, ok := c.instruments[sym.InstrumentID]
	if !ok {
		receiver.OnPlaceOrderError(ReasonInstrumentNotFound)
		return
	}
	if inst.Symbol.ExchangeID != sym.ExchangeID {
		receiver.OnPlaceOrderError(ReasonExchangeIDError)
		return
	}

	if pl, ok := c.priceLimits[sym.InstrumentID]; ok && pl.tradingDay == c.tradingDay {
		c.submitLimitOrder(sym, side, offset, boundFor(side, pl), volume, receiver)
		return
	}

	if c.cfg.FastLastTick != nil {
		if tick, ok := c.cfg.FastLastTick(sym); ok && tick.TradingDay == c.tradingDay {
			pl := priceLimitFromTick(tick)
			if !pl.hasBand {
				c.priceLimits[sym.InstrumentID] = pl
			}
			c.submitLimitOrder(sym, side, offset, boundFor(side, pl), volume, receiver)
			return
		}
	}

	pending := pendingMarketOrder{symbol: sym, side: side, offset: offset, volume: volume, receiver: receiver}
	queue := c.marketQueue[sym.InstrumentID]
	wasEmpty := len(queue) == 0
	c.marketQueue[sym.InstrumentID] = append(queue, pending)
	if wasEmpty {
		if err := gateway.Retry(c.ctx, c.cfg.Retry, func() int32 { return c.gw.ReqQryDepthMarketData(sym.InstrumentID) }); err != nil {
			c.failMarketQueue(sym.InstrumentID)
		}
	}
}

func (c *Coordinator) failMarketQueue(instrumentID string) {
	for _, p := range c.marketQueue[instrumentID] {
		p.receiver.OnPlaceOrderError(ReasonRequestError)
	}
	delete(c.marketQueue, instrumentID)
}

// OnRspQryDepthMarketData resolves the price bound for every market order
// queued against data.InstrumentID and submits each as a limit order under
// the coordinator's long-lived context.
func (c *Coordinator) OnRspQryDepthMarketData(data gateway.RawDepthMarketData, info *gateway.RspInfo) {
	queue, ok := c.marketQueue[data.InstrumentID]
	if !ok || len(queue) == 0 {
		return
	}
	delete(c.marketQueue, data.InstrumentID)

	if gateway.ClassifyError(c.sink, gateway.ErrorQueryDepthMarketData, info) {
		for _, p := range queue {
			p.receiver.OnPlaceOrderError(ReasonRequestError)
		}
		return
	}

	pl := priceLimitFromRawDepth(data)
	if !pl.hasBand {
		c.priceLimits[data.InstrumentID] = pl
	}
	for _, p := range queue {
		c.submitLimitOrder(p.symbol, p.side, p.offset, boundFor(p.side, pl), p.volume, p.receiver)
	}
}
