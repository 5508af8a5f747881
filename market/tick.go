package market

import (
	"tradeengine/gateway"
	"tradeengine/model"
	"tradeengine/tape"
)

// OnRtnDepthMarketData is the Market Router's side of
// gateway.MarketGatewayListener: it implements the per-tick pipeline from
// §4.4 — recorder delivery, orphan drop, Tick construction, tape
// derivation, last-tick cache update before fan-out, and delivery to
// subscribers in registration order.
func (r *Router) OnRtnDepthMarketData(data gateway.RawDepthMarketData) {
	id := data.InstrumentID

	if r.recordings[id] && r.recorder != nil {
		if sym, ok := r.symbols[id]; ok {
			r.recorder.OnRawTick(sym, data)
		}
	}

	sym, ok := r.symbols[id]
	if !ok {
		return // orphan: no subscriber or recorder ever learned this instrument's symbol
	}

	tick := buildTick(sym, data)

	var previous *model.Tick
	if prev, ok := r.lastTicks[id]; ok {
		previous = &prev
	}
	derived := tape.Classify(tick, previous)

	r.lastTicks[id] = tick

	for _, receiver := range r.subscribers[id] {
		receiver.OnTick(tick, derived)
	}
}

func buildTick(sym model.Symbol, d gateway.RawDepthMarketData) model.Tick {
	t := model.Tick{
		Symbol:     sym,
		Date:       d.TradingDay,
		TradingDay: d.TradingDay,
		Time:       float64(model.ParseHMS(d.UpdateTime)) + float64(d.UpdateMillisec)/1000.0,

		Last:     d.LastPrice,
		Open:     d.OpenPrice,
		High:     d.HighestPrice,
		Low:      d.LowestPrice,
		PreClose: d.PreClosePrice,

		OpenInterest:    d.OpenInterest,
		PreOpenInterest: d.PreOpenInterest,
		Volume:          d.Volume,
		Turnover:        d.Turnover,

		UpperLimit: d.UpperLimitPrice,
		LowerLimit: d.LowerLimitPrice,
		UpperBand:  d.BandingUpperPrice,
		LowerBand:  d.BandingLowerPrice,
	}

	for i := 0; i < len(d.AskPrice); i++ {
		if !model.ValidLevel(d.AskPrice[i], d.AskVolume[i]) {
			break
		}
		t.Asks[t.AskCount] = model.BookLevel{Price: d.AskPrice[i], Volume: d.AskVolume[i]}
		t.AskCount++
	}
	for i := 0; i < len(d.BidPrice); i++ {
		if !model.ValidLevel(d.BidPrice[i], d.BidVolume[i]) {
			break
		}
		t.Bids[t.BidCount] = model.BookLevel{Price: d.BidPrice[i], Volume: d.BidVolume[i]}
		t.BidCount++
	}

	return t
}
