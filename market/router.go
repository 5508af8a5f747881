// Package market implements the Market Router (§4.4): reference-counted
// instrument subscriptions, a last-tick cache, an optional raw-data
// recorder, and tape derivation fanned out to per-instrument receivers.
package market

import (
	"context"

	"github.com/sirupsen/logrus"

	"tradeengine/gateway"
	"tradeengine/logger"
	"tradeengine/model"
)

// Router is also the Go encoding of the market endpoint's gateway listener
// (§6); OnRtnDepthMarketData lives in tick.go, the rest in login.go.
var _ gateway.MarketGatewayListener = (*Router)(nil)

// TickReceiver is delivered a (tick, tape) pair for every instrument it is
// subscribed to, in registration order (§4.4 step 6). A bar.Generator
// satisfies this interface and so can itself be registered as a receiver
// (§4.6).
type TickReceiver interface {
	OnTick(tick model.Tick, tape model.Tape)
}

// RecorderReceiver is the optional raw-data sink: it sees every raw
// depth-market-data push for the instruments it records, ahead of and
// independent of tick/tape derivation (§4.4 step 1).
type RecorderReceiver interface {
	OnRawTick(symbol model.Symbol, data gateway.RawDepthMarketData)
}

// OpenReceiver is notified exactly once per Router lifecycle, the first
// time the gateway confirms the market login via OnRspUserLogin (§4.4,
// "fire onOpen exactly once per lifecycle").
type OpenReceiver interface {
	OnOpen()
}

// Router is the Market Router. Like every other component here it expects
// single-threaded cooperative delivery (§5): OnRtnDepthMarketData and the
// Subscribe/Unsubscribe/Open methods are never called concurrently with
// each other. Its Rsp*/Rtn* methods are a direct Go encoding of
// gateway.MarketGatewayListener — no context.Context parameter, matching
// the gateway's own callback shape (mirroring trading.Coordinator's
// identical reasoning). Every network request the Router issues, whether
// chained from a callback or triggered directly (Subscribe, Open, ...),
// runs under the single long-lived context captured at construction.
type Router struct {
	ctx   context.Context
	gw    gateway.MarketGateway
	retry gateway.RetryConfig
	sink  gateway.ErrorSink
	log   *logrus.Entry

	subscribers map[string][]TickReceiver
	symbols     map[string]model.Symbol
	lastTicks   map[string]model.Tick
	recordings  map[string]bool

	recorder            RecorderReceiver
	recorderInstruments map[string]bool

	tradingDay        string
	pendingTradingDay string
	opened            bool

	openReceivers []OpenReceiver
}

// NewRouter builds a Router over gw, whose batched subscribe/unsubscribe
// network calls are issued through gateway.Retry configured with retry.
// ctx is the long-lived context every request the Router issues runs
// under; sink receives login/subscribe-ack failures (§4.6, "errors from
// either endpoint reach a configured error sink"); log defaults to
// logger.Default() when nil.
func NewRouter(ctx context.Context, gw gateway.MarketGateway, retry gateway.RetryConfig, sink gateway.ErrorSink, log *logrus.Entry) *Router {
	if ctx == nil {
		ctx = context.Background()
	}
	if log == nil {
		log = logger.Default()
	}
	return &Router{
		ctx:         ctx,
		gw:          gw,
		retry:       retry,
		sink:        sink,
		log:         log,
		subscribers: make(map[string][]TickReceiver),
		symbols:     make(map[string]model.Symbol),
		lastTicks:   make(map[string]model.Tick),
		recordings:  make(map[string]bool),
	}
}

// AddOpenReceiver registers r to be notified on the Router's first
// successful market login (OnRspUserLogin).
func (r *Router) AddOpenReceiver(o OpenReceiver) {
	r.openReceivers = append(r.openReceivers, o)
}

// Subscribe attaches receiver to each symbol, idempotently, issuing a
// single batched network subscribe for any instrument with no existing
// subscribers and no recorder interest (§4.4).
func (r *Router) Subscribe(symbols []model.Symbol, receiver TickReceiver) error {
	var toNetwork []string
	for _, sym := range symbols {
		id := sym.InstrumentID
		if _, ok := r.subscribers[id]; ok {
			r.subscribers[id] = addReceiver(r.subscribers[id], receiver)
			continue
		}
		r.subscribers[id] = []TickReceiver{receiver}
		r.symbols[id] = sym
		if !r.recordings[id] {
			toNetwork = append(toNetwork, id)
		}
	}
	return r.flushSubscribe(toNetwork)
}

// Unsubscribe detaches receiver from each symbol; an instrument whose
// receiver set empties and which the recorder does not hold is dropped and
// network-unsubscribed, batched (§4.4).
func (r *Router) Unsubscribe(symbols []model.Symbol, receiver TickReceiver) error {
	var toNetwork []string
	for _, sym := range symbols {
		id := sym.InstrumentID
		list, ok := r.subscribers[id]
		if !ok {
			continue
		}
		list = removeReceiver(list, receiver)
		if len(list) == 0 {
			delete(r.subscribers, id)
			if !r.recordings[id] {
				delete(r.symbols, id)
				toNetwork = append(toNetwork, id)
			}
		} else {
			r.subscribers[id] = list
		}
	}
	return r.flushUnsubscribe(toNetwork)
}

// StartRecorder computes selector(universe) and records the resulting
// symbols, network-subscribing any that are not already subscribed or
// recorded (§4.4).
func (r *Router) StartRecorder(receiver RecorderReceiver, selector func([]model.Symbol) []model.Symbol, universe []model.Symbol) error {
	r.recorder = receiver
	selected := selector(universe)
	r.recorderInstruments = make(map[string]bool, len(selected))

	var toNetwork []string
	for _, sym := range selected {
		id := sym.InstrumentID
		r.recorderInstruments[id] = true
		if r.recordings[id] {
			continue
		}
		r.recordings[id] = true
		r.symbols[id] = sym
		if _, subscribed := r.subscribers[id]; !subscribed {
			toNetwork = append(toNetwork, id)
		}
	}
	return r.flushSubscribe(toNetwork)
}

// StopRecorder releases the active recorder's instruments, unsubscribing
// any not also held by a live subscriber (§4.4).
func (r *Router) StopRecorder() error {
	if r.recorder == nil {
		return nil
	}
	var toNetwork []string
	for id := range r.recorderInstruments {
		delete(r.recordings, id)
		if _, subscribed := r.subscribers[id]; !subscribed {
			delete(r.symbols, id)
			toNetwork = append(toNetwork, id)
		}
	}
	r.recorder = nil
	r.recorderInstruments = nil
	return r.flushUnsubscribe(toNetwork)
}

// Open initiates the market endpoint's own login handshake (§4.4/§6):
// it issues ReqUserLogin and remembers tradingDay so OnRspUserLogin can
// apply §4.4's "on successful login" sequence once the gateway actually
// confirms the login. It does not itself clear caches, resubscribe or
// fire onOpen — unlike the trade endpoint's login, the market endpoint's
// OnRspUserLogin carries no tradingDay of its own (§6), so the caller
// (the Broker Façade, driven by the trade endpoint's own onOpen) supplies
// it here.
func (r *Router) Open(tradingDay string) error {
	r.pendingTradingDay = tradingDay
	return gateway.Retry(r.ctx, r.retry, func() int32 { return r.gw.ReqUserLogin() })
}

func (r *Router) flushSubscribe(ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return gateway.Retry(r.ctx, r.retry, func() int32 { return r.gw.SubscribeMarketData(ids) })
}

func (r *Router) flushUnsubscribe(ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return gateway.Retry(r.ctx, r.retry, func() int32 { return r.gw.UnsubscribeMarketData(ids) })
}

func addReceiver(list []TickReceiver, r TickReceiver) []TickReceiver {
	for _, existing := range list {
		if existing == r {
			return list
		}
	}
	return append(list, r)
}

func removeReceiver(list []TickReceiver, r TickReceiver) []TickReceiver {
	for i, existing := range list {
		if existing == r {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}
