package model

// Tape is the derived per-tick classification produced by the tape
// classifier (§4.2). It is a pure function of two consecutive ticks.
type Tape struct {
	Type      TapeType
	Direction TapeDirection
	Status    TapeStatus

	// DeltaVolume/DeltaInterest are the volume and open-interest deltas used
	// both to classify Type and to drive bar aggregation.
	DeltaVolume   int64
	DeltaInterest float64
}
