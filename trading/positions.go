package trading

import (
	"tradeengine/gateway"
	"tradeengine/model"
)

// ensurePosition returns the tracked position for sym, creating a zeroed
// one on first use.
func (c *Coordinator) ensurePosition(sym model.Symbol) *model.Position {
	p, ok := c.positions[sym]
	if !ok {
		p = &model.Position{Symbol: sym}
		c.positions[sym] = p
	}
	return p
}

// statFor returns the tracked order statistic for sym, creating a zeroed
// one on first use.
func (c *Coordinator) statFor(sym model.Symbol) *model.OrderStatistic {
	s, ok := c.stats[sym]
	if !ok {
		s = &model.OrderStatistic{Symbol: sym, TradingDay: c.tradingDay}
		c.stats[sym] = s
	}
	return s
}

// Position returns a snapshot of sym's tracked position. The second return
// value is false only when the instrument itself is unknown; a known
// instrument with no position activity yet returns a zeroed Position, true.
func (c *Coordinator) Position(sym model.Symbol) (model.Position, bool) {
	if _, known := c.instruments[sym.InstrumentID]; !known {
		return model.Position{}, false
	}
	if p, ok := c.positions[sym]; ok {
		return p.Clone(), true
	}
	return model.Position{Symbol: sym}, true
}

// Statistic returns a snapshot of sym's order statistic for the current
// trading day.
func (c *Coordinator) Statistic(sym model.Symbol) model.OrderStatistic {
	if s, ok := c.stats[sym]; ok {
		return s.Clone()
	}
	return model.OrderStatistic{Symbol: sym, TradingDay: c.tradingDay}
}

// Instrument returns the loaded instrument for sym's InstrumentID, if any
// (§4.5 state LoadingInstruments).
func (c *Coordinator) Instrument(sym model.Symbol) (model.Instrument, bool) {
	inst, ok := c.instruments[sym.InstrumentID]
	if !ok {
		return model.Instrument{}, false
	}
	return *inst, true
}

// Instruments returns every loaded instrument, for callers that need to
// query the whole universe once (e.g. the Broker Façade's one-time
// recorder-instrument query on startup, §4.6).
func (c *Coordinator) Instruments() []model.Instrument {
	out := make([]model.Instrument, 0, len(c.instruments))
	for _, inst := range c.instruments {
		out = append(out, *inst)
	}
	return out
}

// closeFrom consumes up to volume from b's Position and Frozen in lockstep,
// floored at zero (§8 property 3: positions never go negative), and
// reports how much of volume could not be satisfied from this bucket.
func closeFrom(b model.SidePosition, volume int64) (model.SidePosition, int64) {
	consume := volume
	if consume > b.Position {
		consume = b.Position
	}
	b.Position -= consume
	if consume > b.Frozen {
		b.Frozen = 0
	} else {
		b.Frozen -= consume
	}
	return b, volume - consume
}

// _calcPosition applies one trade's effect to the aggregate position view
// (§4.5 "Position accounting"): open grows today's position on the traded
// side; close consumes the opposite side's history bucket first, then
// today's; close-today targets only the opposite side's today bucket.
func (c *Coordinator) _calcPosition(sym model.Symbol, side model.Side, offset model.Offset, volume int64) {
	pos := c.ensurePosition(sym)
	switch offset {
	case model.OffsetOpen:
		b := pos.Today.Get(side)
		b.Position += volume
		pos.Today.Set(side, b)
		pending := pos.Pending.Get(side) - volume
		pos.Pending.Set(side, pending)
	case model.OffsetClose:
		opp := side.Opposite()
		h, remaining := closeFrom(pos.History.Get(opp), volume)
		pos.History.Set(opp, h)
		if remaining > 0 {
			t, _ := closeFrom(pos.Today.Get(opp), remaining)
			pos.Today.Set(opp, t)
		}
	case model.OffsetCloseToday:
		opp := side.Opposite()
		t, _ := closeFrom(pos.Today.Get(opp), volume)
		pos.Today.Set(opp, t)
	}
}

// _recordPending reserves order.Volume against the pending-position counter
// for an open order at submission time; non-open offsets don't affect
// pending (§4.5).
func (c *Coordinator) _recordPending(order *model.Order) {
	if order.Offset != model.OffsetOpen {
		return
	}
	pos := c.ensurePosition(order.Symbol)
	pos.Pending.Set(order.Side, pos.Pending.Get(order.Side)+order.Volume)
}

// _recoverPending releases an open order's unfilled remainder back out of
// the pending-position counter on cancel/reject. The release is applied
// via PendingPosition.Set, which floors at zero — §9's open question about
// over-decrementing pending during a partial cancel is resolved by
// accepting that floor rather than tracking per-order reservations.
func (c *Coordinator) _recoverPending(order *model.Order) {
	if order.Offset != model.OffsetOpen {
		return
	}
	pos := c.ensurePosition(order.Symbol)
	pos.Pending.Set(order.Side, pos.Pending.Get(order.Side)-order.Remaining())
}

// _freezePosition reserves order.Volume against the frozen counter of the
// bucket a close order would eventually consume: close always targets the
// opposite side's history bucket, close-today the opposite side's today
// bucket (§4.5).
func (c *Coordinator) _freezePosition(order *model.Order) {
	if order.Offset == model.OffsetOpen {
		return
	}
	pos := c.ensurePosition(order.Symbol)
	opp := order.Side.Opposite()
	if order.Offset == model.OffsetCloseToday {
		t := pos.Today.Get(opp)
		t.Frozen += order.Volume
		pos.Today.Set(opp, t)
		return
	}
	h := pos.History.Get(opp)
	h.Frozen += order.Volume
	pos.History.Set(opp, h)
}

// _unfreezePosition releases the frozen reservation for a close order's
// unfilled remainder on cancel/reject, floored at zero.
func (c *Coordinator) _unfreezePosition(order *model.Order) {
	if order.Offset == model.OffsetOpen {
		return
	}
	pos := c.ensurePosition(order.Symbol)
	opp := order.Side.Opposite()
	remaining := order.Remaining()
	if order.Offset == model.OffsetCloseToday {
		t := pos.Today.Get(opp)
		t.Frozen -= remaining
		if t.Frozen < 0 {
			t.Frozen = 0
		}
		pos.Today.Set(opp, t)
		return
	}
	h := pos.History.Get(opp)
	h.Frozen -= remaining
	if h.Frozen < 0 {
		h.Frozen = 0
	}
	pos.History.Set(opp, h)
}

func clampNonNeg(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}

// applyRawPosition folds one streamed RawPosition record into the tracked
// aggregate view (§4.5 "Exchange-specific quirk"): SHFE/INE report
// TodayPosition directly and history is derived by subtraction; other
// exchanges send a separate today/history row per the wire's PositionDate
// marker.
func (c *Coordinator) applyRawPosition(raw gateway.RawPosition) {
	sym := model.Symbol{InstrumentID: raw.InstrumentID, ExchangeID: raw.ExchangeID}
	pos := c.ensurePosition(sym)
	side := model.SideLong
	if raw.PosiDirection == 1 {
		side = model.SideShort
	}
	if model.TodayHistoryQuirk(raw.ExchangeID) {
		pos.Today.Set(side, model.SidePosition{Position: raw.TodayPosition, Frozen: raw.TodayFrozen})
		pos.History.Set(side, model.SidePosition{
			Position: clampNonNeg(raw.Position - raw.TodayPosition),
			Frozen:   clampNonNeg(raw.Frozen - raw.TodayFrozen),
		})
		return
	}
	if raw.PositionDate == 1 {
		pos.Today.Set(side, model.SidePosition{Position: raw.Position, Frozen: raw.Frozen})
	} else {
		pos.History.Set(side, model.SidePosition{Position: raw.Position, Frozen: raw.Frozen})
	}
}
