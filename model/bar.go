package model

import "github.com/shopspring/decimal"

// PriceKey scales a float price into an integer key by dividing by the
// instrument's price tick. Bars index their per-price buy/sell volume maps
// by this integer instead of the raw float, per design note §9: "the
// source's use of numeric keys is an accident of its host runtime". Using
// shopspring/decimal rather than float division avoids the rounding drift
// that would otherwise accumulate over a session of repeated divisions.
func PriceKey(price, priceTick float64) int64 {
	if priceTick <= 0 {
		return int64(price)
	}
	p := decimal.NewFromFloat(price)
	t := decimal.NewFromFloat(priceTick)
	return p.Div(t).Round(0).IntPart()
}

// PriceFromKey is PriceKey's inverse, used when rendering a Bar's per-price
// maps back into real prices for a receiver.
func PriceFromKey(key int64, priceTick float64) float64 {
	if priceTick <= 0 {
		return float64(key)
	}
	k := decimal.NewFromInt(key)
	t := decimal.NewFromFloat(priceTick)
	v, _ := k.Mul(t).Float64()
	return v
}

// Bar is a completed or in-progress time/volume bucket produced by the bar
// aggregator (§4.3). BuyVolumes/SellVolumes are keyed by PriceKey.
type Bar struct {
	Symbol Symbol

	BucketKey float64 // time-mode: floor(time/100)*100; volume-mode: sequence number
	Open      float64
	High      float64
	Low       float64
	Close     float64

	Volume       int64
	Turnover     float64
	OpenInterest float64

	Delta int64 // signed order flow: buy volume - sell volume

	POCKey int64 // price key with maximal buy+sell volume

	BuyVolumes  map[int64]int64
	SellVolumes map[int64]int64

	PriceTick float64 // retained so POC/per-price keys can be rendered back to float prices
}

// NewBar initializes a bar the way §4.3 step 3 prescribes: open=high=low=
// close=poc=last, empty buy/sell maps.
func NewBar(symbol Symbol, bucketKey, priceTick, last float64) *Bar {
	return &Bar{
		Symbol:      symbol,
		BucketKey:   bucketKey,
		Open:        last,
		High:        last,
		Low:         last,
		Close:       last,
		POCKey:      PriceKey(last, priceTick),
		BuyVolumes:  make(map[int64]int64),
		SellVolumes: make(map[int64]int64),
		PriceTick:   priceTick,
	}
}

// POC renders the point-of-control price key back to a float price.
func (b *Bar) POC() float64 {
	return PriceFromKey(b.POCKey, b.PriceTick)
}

// VolumeAt returns the total (buy+sell) volume at a given price key.
func (b *Bar) VolumeAt(key int64) int64 {
	return b.BuyVolumes[key] + b.SellVolumes[key]
}

// Clone returns a deep, immutable copy suitable for handing to a receiver;
// the aggregator keeps mutating its own working Bar after emitting this
// snapshot.
func (b *Bar) Clone() *Bar {
	c := *b
	c.BuyVolumes = make(map[int64]int64, len(b.BuyVolumes))
	for k, v := range b.BuyVolumes {
		c.BuyVolumes[k] = v
	}
	c.SellVolumes = make(map[int64]int64, len(b.SellVolumes))
	for k, v := range b.SellVolumes {
		c.SellVolumes[k] = v
	}
	return &c
}

// Merge folds other into a copy of b, recomputing OHLC/delta/POC, as the
// round-trip invariant (§8, property 5) requires: merging two bars for the
// same bucket must equal aggregating their ticks directly.
func (b *Bar) Merge(other *Bar) *Bar {
	out := b.Clone()
	if other == nil {
		return out
	}
	if out.Volume == 0 {
		out.Open = other.Open
		out.High = other.High
		out.Low = other.Low
	} else {
		if other.High > out.High {
			out.High = other.High
		}
		if other.Low < out.Low {
			out.Low = other.Low
		}
	}
	out.Close = other.Close
	out.Volume += other.Volume
	out.Turnover += other.Turnover
	out.OpenInterest = other.OpenInterest
	out.Delta += other.Delta

	for k, v := range other.BuyVolumes {
		out.BuyVolumes[k] += v
	}
	for k, v := range other.SellVolumes {
		out.SellVolumes[k] += v
	}

	bestKey := out.POCKey
	bestVol := out.VolumeAt(bestKey)
	for k := range out.BuyVolumes {
		if v := out.VolumeAt(k); v > bestVol {
			bestKey, bestVol = k, v
		}
	}
	for k := range out.SellVolumes {
		if v := out.VolumeAt(k); v > bestVol {
			bestKey, bestVol = k, v
		}
	}
	out.POCKey = bestKey
	return out
}
