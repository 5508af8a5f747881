// Package bar implements the bar aggregator (§4.3): a per-symbol reducer
// over (tick, tape) pairs that emits completed time- or volume-bucketed
// bars, plus an optional intra-bar update for receivers that ask for one.
package bar

import (
	"math"

	"tradeengine/model"
)

// Mode selects the bucket discipline a Generator uses.
type Mode int

const (
	// ModeTime buckets by floor(time/100)*100 — one-minute buckets under
	// the engine's HHMMSS.fff time encoding.
	ModeTime Mode = iota
	// ModeVolume closes a bucket once cumulative volume reaches MaxVolume.
	// Any other bucket discipline (tick count, turnover threshold, ...)
	// follows this mode as a template.
	ModeVolume
)

// Config tunes a Generator.
type Config struct {
	Mode Mode
	// MaxVolume is the volume-bucket threshold; unused in ModeTime.
	MaxVolume int64
	// VolumeMultiple scales turnover (turnover += Δvolume * price *
	// VolumeMultiple); defaults to 1 for instruments with no contract
	// multiplier.
	VolumeMultiple float64
}

func (c Config) withDefaults() Config {
	if c.VolumeMultiple <= 0 {
		c.VolumeMultiple = 1
	}
	return c
}

// Receiver is notified when a bucket closes.
type Receiver interface {
	OnBar(bar *model.Bar)
}

// UpdateReceiver is an optional extension a Receiver may also implement to
// receive intra-bar snapshots as the working bar changes (§4.3 step 7).
type UpdateReceiver interface {
	OnUpdateBar(bar *model.Bar, tick model.Tick, tape model.Tape)
}

// Generator is the per-symbol bar reducer. It holds no lock: like every
// other component in this module it is driven by a single caller thread
// (§5).
type Generator struct {
	symbol    model.Symbol
	priceTick float64
	cfg       Config

	current *model.Bar
	seq     int64

	receivers []Receiver
}

// NewGenerator builds a Generator for symbol. priceTick is the
// instrument's minimum price increment, used to key the bar's buy/sell
// volume-at-price maps.
func NewGenerator(symbol model.Symbol, priceTick float64, cfg Config) *Generator {
	return &Generator{symbol: symbol, priceTick: priceTick, cfg: cfg.withDefaults()}
}

// AddReceiver attaches r idempotently. The generator is "working" — see
// Working — while any receiver is attached (§4.3, §4.6's lazy-create/GC
// lifecycle for per-symbol generators).
func (g *Generator) AddReceiver(r Receiver) {
	for _, existing := range g.receivers {
		if existing == r {
			return
		}
	}
	g.receivers = append(g.receivers, r)
}

// RemoveReceiver detaches r, if attached.
func (g *Generator) RemoveReceiver(r Receiver) {
	for i, existing := range g.receivers {
		if existing == r {
			g.receivers = append(g.receivers[:i], g.receivers[i+1:]...)
			return
		}
	}
}

// Working reports whether any receiver is currently attached.
func (g *Generator) Working() bool { return len(g.receivers) > 0 }

// Current returns the in-progress bar, or nil if none is open.
func (g *Generator) Current() *model.Bar { return g.current }

// Merge folds a previously-recovered partial bar into the generator's
// working bar (or adopts it wholesale if none is open yet). This is what a
// restarted process uses to resume a bucket from externally-persisted
// state; aggregating the recovered bar's own ticks directly would produce
// an identical result (§8, the merge/round-trip invariant).
func (g *Generator) Merge(recovered *model.Bar) *model.Bar {
	if recovered == nil {
		return g.current
	}
	if g.current == nil {
		g.current = recovered.Clone()
		return g.current
	}
	g.current = g.current.Merge(recovered)
	return g.current
}

// OnTick feeds one (tick, tape) pair through the §4.3 state machine. It
// implements market.TickReceiver, so a Generator can itself be registered
// as a subscriber against the Market Router (§4.6).
func (g *Generator) OnTick(tick model.Tick, tape model.Tape) {
	bucketKey := g.timeBucketKey(tick)

	if g.bucketFinished(bucketKey) {
		g.emit(g.current)
		g.current = nil
	}

	if tape.DeltaVolume == 0 {
		return
	}

	if g.current == nil {
		if g.cfg.Mode == ModeVolume {
			g.seq++
			bucketKey = float64(g.seq)
		}
		g.current = model.NewBar(g.symbol, bucketKey, g.priceTick, tick.Last)
	}

	b := g.current
	b.OpenInterest = tick.OpenInterest
	b.Close = tick.Last
	if tick.Last > b.High {
		b.High = tick.Last
	}
	if tick.Last < b.Low {
		b.Low = tick.Last
	}
	b.Volume += tape.DeltaVolume
	b.Turnover += float64(tape.DeltaVolume) * tick.Last * g.cfg.VolumeMultiple

	key := model.PriceKey(tick.Last, g.priceTick)
	switch tape.Direction {
	case model.TapeDirectionUp:
		b.BuyVolumes[key] += tape.DeltaVolume
		b.Delta += tape.DeltaVolume
	case model.TapeDirectionDown:
		b.SellVolumes[key] += tape.DeltaVolume
		b.Delta -= tape.DeltaVolume
	}

	if tape.Direction != model.TapeDirectionNone && key != b.POCKey {
		if b.VolumeAt(key) > b.VolumeAt(b.POCKey) {
			b.POCKey = key
		}
	}

	g.notifyUpdate(tick, tape)
}

func (g *Generator) timeBucketKey(tick model.Tick) float64 {
	if g.cfg.Mode != ModeTime {
		return 0
	}
	return math.Floor(tick.Time/100) * 100
}

func (g *Generator) bucketFinished(timeBucketKey float64) bool {
	if g.current == nil {
		return false
	}
	switch g.cfg.Mode {
	case ModeTime:
		return timeBucketKey != g.current.BucketKey
	case ModeVolume:
		return g.current.Volume >= g.cfg.MaxVolume
	default:
		return false
	}
}

func (g *Generator) emit(bar *model.Bar) {
	if bar == nil {
		return
	}
	snapshot := bar.Clone()
	for _, r := range g.receivers {
		r.OnBar(snapshot)
	}
}

func (g *Generator) notifyUpdate(tick model.Tick, tape model.Tape) {
	if g.current == nil {
		return
	}
	snapshot := g.current.Clone()
	for _, r := range g.receivers {
		if ur, ok := r.(UpdateReceiver); ok {
			ur.OnUpdateBar(snapshot, tick, tape)
		}
	}
}
