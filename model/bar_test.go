package model

import "testing"

import "github.com/stretchr/testify/require"

func TestPriceKeyRoundTrip(t *testing.T) {
	key := PriceKey(3501.5, 0.5)
	require.Equal(t, int64(7003), key)
	require.InDelta(t, 3501.5, PriceFromKey(key, 0.5), 1e-9)
}

func TestBarMergeRoundTrip(t *testing.T) {
	sym := Symbol{InstrumentID: "rb2501", ExchangeID: "SHFE"}
	a := NewBar(sym, 93000, 1.0, 100)
	a.BuyVolumes[PriceKey(100, 1)] = 5
	a.Volume = 5
	a.Delta = 5
	a.Close = 100
	a.High = 101
	a.Low = 99

	b := NewBar(sym, 93000, 1.0, 102)
	b.SellVolumes[PriceKey(102, 1)] = 3
	b.Volume = 3
	b.Delta = -3
	b.Close = 102
	b.High = 103
	b.Low = 101

	merged := a.Merge(b)
	require.Equal(t, int64(8), merged.Volume)
	require.Equal(t, int64(2), merged.Delta)
	require.Equal(t, float64(103), merged.High)
	require.Equal(t, float64(99), merged.Low)
	require.Equal(t, float64(102), merged.Close)

	// Merging nil must return an equal copy: volume and per-price maps are
	// unchanged (property 5, §8).
	remerged := merged.Merge(nil)
	require.Equal(t, merged.Volume, remerged.Volume)
	require.Equal(t, merged.BuyVolumes, remerged.BuyVolumes)
}

func TestOrderRecalcTraded(t *testing.T) {
	o := &Order{Volume: 10}
	o.Trades = []Trade{{Volume: 4}, {Volume: 6}}
	o.RecalcTraded()
	require.Equal(t, int64(10), o.Traded)
	o.Status = OrderStatusFilled
	require.Equal(t, o.Volume, o.Traded)
}

func TestPositionNonNegative(t *testing.T) {
	p := Position{}
	require.True(t, p.NonNegative())
	p.Today.Long.Position = -1
	require.False(t, p.NonNegative())
}
