package tape

import (
	"testing"

	"github.com/stretchr/testify/require"

	"tradeengine/model"
)

func tick(last float64, volume int64, oi, preOI float64, ask, bid float64, preClose float64) model.Tick {
	t := model.Tick{
		Last: last, Volume: volume, OpenInterest: oi, PreOpenInterest: preOI,
		PreClose: preClose,
	}
	if ask != 0 {
		t.Asks[0] = model.BookLevel{Price: ask, Volume: 1}
		t.AskCount = 1
	}
	if bid != 0 {
		t.Bids[0] = model.BookLevel{Price: bid, Volume: 1}
		t.BidCount = 1
	}
	return t
}

func TestClassifyS1NoPrevious(t *testing.T) {
	cur := tick(100, 10, 5, 3, 101, 99, 100)
	got := Classify(cur, nil)

	require.Equal(t, int64(10), got.DeltaVolume)
	require.Equal(t, float64(2), got.DeltaInterest)
	require.Equal(t, model.TapeTypeOpen, got.Type)
	require.Equal(t, model.TapeDirectionNone, got.Direction)
	require.Equal(t, model.TapeStatusInvalid, got.Status)
}

func TestClassifyS2WithPrevious(t *testing.T) {
	prev := tick(100, 10, 5, 0, 101, 99, 100)
	cur := tick(101, 12, 6, 0, 102, 100, 100)

	got := Classify(cur, &prev)

	require.Equal(t, int64(2), got.DeltaVolume)
	require.Equal(t, float64(1), got.DeltaInterest)
	require.Equal(t, model.TapeTypeOpen, got.Type)
	require.Equal(t, model.TapeDirectionUp, got.Direction)
	require.Equal(t, model.TapeStatusOpenLong, got.Status)
}

func TestClassifyDualOpenAndDualClose(t *testing.T) {
	cur := tick(100, 10, 10, 0, 101, 99, 100)
	got := Classify(cur, nil)
	require.Equal(t, model.TapeTypeDualOpen, got.Type)
	require.Equal(t, model.TapeStatusDualOpen, got.Status)

	prev := tick(100, 10, 10, 0, 101, 99, 100)
	cur2 := tick(99, 16, 4, 0, 100, 98, 100)
	got2 := Classify(cur2, &prev)
	require.Equal(t, model.TapeTypeDualClose, got2.Type)
	require.Equal(t, model.TapeStatusDualClose, got2.Status)
}

func TestClassifyTurnover(t *testing.T) {
	prev := tick(100, 10, 5, 0, 101, 99, 100)
	cur := tick(101, 15, 5, 0, 102, 100, 100)
	got := Classify(cur, &prev)
	require.Equal(t, model.TapeTypeTurnover, got.Type)
	require.Equal(t, model.TapeStatusTurnoverLong, got.Status)
}

func TestClassifyNoDeal(t *testing.T) {
	prev := tick(100, 10, 5, 0, 101, 99, 100)
	cur := tick(100, 10, 5, 0, 101, 99, 100)
	got := Classify(cur, &prev)
	require.Equal(t, model.TapeTypeNoDeal, got.Type)
	require.Equal(t, model.TapeStatusInvalid, got.Status)
}

func TestClassifyPureFunction(t *testing.T) {
	prev := tick(100, 10, 5, 0, 101, 99, 100)
	cur := tick(101, 12, 6, 0, 102, 100, 100)

	a := Classify(cur, &prev)
	b := Classify(cur, &prev)
	require.Equal(t, a, b)
}
