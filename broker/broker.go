// Package broker implements the Broker Façade (§4.6): it composes
// strategies, risk managers, the Market Router and the Trading
// Coordinator, sequences their start/stop lifecycle, gates order and
// cancel calls through a configured risk chain, and manages per-symbol
// bar generators. Like every other component here it assumes
// single-threaded cooperative delivery (§5).
package broker

import (
	"context"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"tradeengine/bar"
	"tradeengine/gateway"
	"tradeengine/logger"
	"tradeengine/market"
	"tradeengine/model"
	"tradeengine/trading"
)

// Strategy is the user-facing callback surface (§6): init/destroy bracket
// the façade's lifecycle, onRisk reports a risk-chain denial, and the
// remaining four mirror trading.OrderEventListener so a strategy sees
// every order-lifecycle event the façade fans out.
type Strategy interface {
	OnInit()
	OnDestroy()
	OnRisk(kind string, reason string)
	OnEntrust(order *model.Order)
	OnTrade(order *model.Order, trade *model.Trade)
	OnCancel(order *model.Order)
	OnReject(order *model.Order)
}

// PlaceRiskManager is one link in the place-order risk chain (§4.6): it
// reports whether an order may proceed, and an optional reason when it may
// not. An empty reason on a deny means "unspecified" (§7, "Risk Rejected"
// is always what reaches the receiver; the strategy's onRisk sees reason
// verbatim, which may be empty).
type PlaceRiskManager interface {
	CheckPlaceOrder(sym model.Symbol, side model.Side, offset model.Offset, price float64, volume int64) (allowed bool, reason string)
}

// CancelRiskManager mirrors PlaceRiskManager for cancel requests.
type CancelRiskManager interface {
	CheckCancelOrder(orderRef int64) (allowed bool, reason string)
}

// Broker is the Broker Façade. It owns the strategy list, the risk chain,
// and one bar.Generator per symbol with an active bar subscriber
// (§4.6, "cyclic references... are back-references; ownership is
// unilateral").
type Broker struct {
	ctx context.Context

	coord  *trading.Coordinator
	router *market.Router

	placeRisks  []PlaceRiskManager
	cancelRisks []CancelRiskManager
	strategies  []Strategy

	recorder         market.RecorderReceiver
	recorderSelector func([]model.Symbol) []model.Symbol

	sink gateway.ErrorSink
	log  *logrus.Entry

	generators map[model.Symbol]*bar.Generator
}

// NewBroker builds a Broker over trade/mkt, wiring the Trading Coordinator
// and Market Router's open sequencing together: the Coordinator's onOpen
// triggers market.Open, whose own onOpen starts the recorder (if
// configured) and fires every registered strategy's onInit (§4.6). ctx is
// the long-lived context the underlying Coordinator and Router run their
// network requests under; log defaults to logger.Default() when nil.
func NewBroker(ctx context.Context, trade gateway.TradeGateway, mkt gateway.MarketGateway, tradeCfg trading.Config, retry gateway.RetryConfig, sink gateway.ErrorSink, log *logrus.Entry) *Broker {
	if ctx == nil {
		ctx = context.Background()
	}
	if log == nil {
		log = logger.Default()
	}
	b := &Broker{
		ctx:        ctx,
		sink:       sink,
		log:        log,
		generators: make(map[model.Symbol]*bar.Generator),
	}
	b.coord = trading.NewCoordinator(ctx, trade, tradeCfg, sink, b, log)
	b.router = market.NewRouter(ctx, mkt, retry, sink, log)

	b.coord.AddOpenReceiver(openFunc(b.onTraderOpen))
	b.router.AddOpenReceiver(openFunc(b.onMarketOpen))
	return b
}

type openFunc func()

func (f openFunc) OnOpen() { f() }

// Coordinator exposes the underlying Trading Coordinator for callers that
// need direct access (position/statistic snapshots, gateway event
// wiring). The façade itself remains the single OrderEventListener.
func (b *Broker) Coordinator() *trading.Coordinator { return b.coord }

// Router exposes the underlying Market Router for direct tick subscription
// outside of the bar-aggregator convenience path.
func (b *Broker) Router() *market.Router { return b.router }

// AddStrategy registers s to receive onInit/onDestroy/onRisk and every
// order-lifecycle event the façade fans out.
func (b *Broker) AddStrategy(s Strategy) {
	b.strategies = append(b.strategies, s)
}

// AddPlaceRisk appends m to the end of the place-order risk chain.
func (b *Broker) AddPlaceRisk(m PlaceRiskManager) {
	b.placeRisks = append(b.placeRisks, m)
}

// AddCancelRisk appends m to the end of the cancel-order risk chain.
func (b *Broker) AddCancelRisk(m CancelRiskManager) {
	b.cancelRisks = append(b.cancelRisks, m)
}

// ConfigureRecorder sets the recorder and instrument-universe selector the
// façade starts once the market endpoint opens (§4.6). Passing a nil
// receiver disables the recorder.
func (b *Broker) ConfigureRecorder(receiver market.RecorderReceiver, selector func([]model.Symbol) []model.Symbol) {
	b.recorder = receiver
	b.recorderSelector = selector
}

// onTraderOpen runs once the login pipeline reaches Ready: it initiates
// the market endpoint's own login under the trading day the Coordinator
// just captured (§4.6, "trader.open... on trader onOpen, market.open").
// The market endpoint's own onOpen — and so onMarketOpen below — only
// fires once the gateway confirms that login via the Router's
// OnRspUserLogin (§4.4).
func (b *Broker) onTraderOpen() {
	if err := b.router.Open(b.coord.TradingDay()); err != nil && b.sink != nil {
		b.sink.OnError(gateway.ErrorLogin, err.Error())
	}
}

// onMarketOpen runs once the market endpoint's own onOpen fires: if a
// recorder is configured, it queries the instrument universe once and
// starts recording; either way every registered strategy then sees onInit
// (§4.6).
func (b *Broker) onMarketOpen() {
	if b.recorder != nil {
		universe := symbolsOf(b.coord.Instruments())
		selector := b.recorderSelector
		if selector == nil {
			selector = func(u []model.Symbol) []model.Symbol { return u }
		}
		selected := selector(universe)
		b.log.WithField("selected", humanize.Comma(int64(len(selected)))).
			Info("broker: starting recorder against instrument universe")
		if err := b.router.StartRecorder(b.recorder, func([]model.Symbol) []model.Symbol { return selected }, universe); err != nil && b.sink != nil {
			b.sink.OnError(gateway.ErrorLogin, err.Error())
		}
	}
	for _, s := range b.strategies {
		s.OnInit()
	}
}

// Stop runs the façade's teardown: the recorder is released (symmetric
// with onMarketOpen's start), then every strategy sees onDestroy (§4.6,
// "symmetric teardown on onClose"). Reconnects are handled independently
// by the gateway's own FrontConnected/FrontDisconnected events and do not
// call Stop — it is for deliberate process shutdown.
func (b *Broker) Stop() {
	if err := b.router.StopRecorder(); err != nil && b.sink != nil {
		b.sink.OnError(gateway.ErrorLogin, err.Error())
	}
	for _, s := range b.strategies {
		s.OnDestroy()
	}
}

func symbolsOf(instruments []model.Instrument) []model.Symbol {
	out := make([]model.Symbol, len(instruments))
	for i, inst := range instruments {
		out[i] = inst.Symbol
	}
	return out
}

// OnEntrust, OnTrade, OnCancel and OnReject implement trading.
// OrderEventListener, fanning the Trading Coordinator's order-lifecycle
// events out to every registered strategy.
func (b *Broker) OnEntrust(order *model.Order) {
	for _, s := range b.strategies {
		s.OnEntrust(order)
	}
}

func (b *Broker) OnTrade(order *model.Order, trade *model.Trade) {
	for _, s := range b.strategies {
		s.OnTrade(order, trade)
	}
}

func (b *Broker) OnCancel(order *model.Order) {
	for _, s := range b.strategies {
		s.OnCancel(order)
	}
}

func (b *Broker) OnReject(order *model.Order) {
	for _, s := range b.strategies {
		s.OnReject(order)
	}
}
