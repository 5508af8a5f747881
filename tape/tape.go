// Package tape implements the tape classifier (§4.2): a pure function of a
// current tick and an optional previous tick, producing the type/direction/
// status/volume-delta record consumed by the bar aggregator and by
// strategies directly.
package tape

import "tradeengine/model"

// Classify derives a model.Tape from tick and, if available, previous. It
// has no side effects and no memory beyond its arguments (§8, invariant 6).
func Classify(tick model.Tick, previous *model.Tick) model.Tape {
	deltaVolume, deltaInterest := deltas(tick, previous)
	tapeType := classifyType(deltaVolume, deltaInterest)
	direction := classifyDirection(tick, previous)
	status := classifyStatus(tapeType, direction)

	return model.Tape{
		Type:          tapeType,
		Direction:     direction,
		Status:        status,
		DeltaVolume:   deltaVolume,
		DeltaInterest: deltaInterest,
	}
}

func deltas(tick model.Tick, previous *model.Tick) (int64, float64) {
	if previous == nil {
		return tick.Volume, tick.OpenInterest - tick.PreOpenInterest
	}
	return tick.Volume - previous.Volume, tick.OpenInterest - previous.OpenInterest
}

func classifyType(deltaVolume int64, deltaInterest float64) model.TapeType {
	switch {
	case deltaInterest > 0 && float64(deltaVolume) == deltaInterest:
		return model.TapeTypeDualOpen
	case deltaInterest > 0:
		return model.TapeTypeOpen
	case deltaInterest < 0 && float64(deltaVolume)+deltaInterest == 0:
		return model.TapeTypeDualClose
	case deltaInterest < 0:
		return model.TapeTypeClose
	case deltaInterest == 0 && deltaVolume > 0:
		return model.TapeTypeTurnover
	default:
		return model.TapeTypeNoDeal
	}
}

// classifyDirection implements the seven-step direction rule from §4.2.
// Steps 1-2 (previous best ask/bid) and steps 5-6 (previous last, crossed
// quotes) run only when a previous tick is available. Steps 3-4 always
// compare against the current best ask/bid, which fall back to the ±inf
// sentinels when absent so they never match. With no previous tick the last
// price is then compared against preClose before declaring "none".
func classifyDirection(tick model.Tick, previous *model.Tick) model.TapeDirection {
	last := tick.Last

	if previous != nil {
		prevAsk := previous.BestAsk()
		prevBid := previous.BestBid()
		if last >= prevAsk {
			return model.TapeDirectionUp
		}
		if last <= prevBid {
			return model.TapeDirectionDown
		}
	}

	curAsk := tick.BestAsk()
	curBid := tick.BestBid()
	if last >= curAsk {
		return model.TapeDirectionUp
	}
	if last <= curBid {
		return model.TapeDirectionDown
	}

	if previous != nil {
		if last > previous.Last {
			return model.TapeDirectionUp
		}
		if last < previous.Last {
			return model.TapeDirectionDown
		}
		prevAsk := previous.BestAsk()
		prevBid := previous.BestBid()
		if curBid >= prevAsk {
			return model.TapeDirectionUp
		}
		if curAsk <= prevBid {
			return model.TapeDirectionDown
		}
		return model.TapeDirectionNone
	}

	// No previous tick: compare against preClose as the final fallback
	// before declaring "none" (§4.2, "Without a previous tick...").
	if last > tick.PreClose {
		return model.TapeDirectionUp
	}
	if last < tick.PreClose {
		return model.TapeDirectionDown
	}
	return model.TapeDirectionNone
}

func classifyStatus(t model.TapeType, d model.TapeDirection) model.TapeStatus {
	switch {
	case t == model.TapeTypeDualOpen:
		return model.TapeStatusDualOpen
	case t == model.TapeTypeDualClose:
		return model.TapeStatusDualClose
	case t == model.TapeTypeOpen && d == model.TapeDirectionUp:
		return model.TapeStatusOpenLong
	case t == model.TapeTypeOpen && d == model.TapeDirectionDown:
		return model.TapeStatusOpenShort
	case t == model.TapeTypeClose && d == model.TapeDirectionUp:
		return model.TapeStatusCloseShort
	case t == model.TapeTypeClose && d == model.TapeDirectionDown:
		return model.TapeStatusCloseLong
	case t == model.TapeTypeTurnover && d == model.TapeDirectionUp:
		return model.TapeStatusTurnoverLong
	case t == model.TapeTypeTurnover && d == model.TapeDirectionDown:
		return model.TapeStatusTurnoverShort
	default:
		return model.TapeStatusInvalid
	}
}
