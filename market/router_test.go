package market

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tradeengine/gateway"
	"tradeengine/model"
)

type fakeMarketGateway struct {
	loginCalls       int
	subscribeCalls   [][]string
	unsubscribeCalls [][]string
}

func (f *fakeMarketGateway) ReqUserLogin() int32 {
	f.loginCalls++
	return 0
}

func (f *fakeMarketGateway) SubscribeMarketData(ids []string) int32 {
	cp := append([]string(nil), ids...)
	f.subscribeCalls = append(f.subscribeCalls, cp)
	return 0
}

func (f *fakeMarketGateway) UnsubscribeMarketData(ids []string) int32 {
	cp := append([]string(nil), ids...)
	f.unsubscribeCalls = append(f.unsubscribeCalls, cp)
	return 0
}

type recordingTickReceiver struct {
	ticks []model.Tick
}

func (r *recordingTickReceiver) OnTick(tick model.Tick, _ model.Tape) {
	r.ticks = append(r.ticks, tick)
}

type recordingSink struct {
	errors []string
}

func (s *recordingSink) OnError(kind gateway.ErrorKind, message string) {
	s.errors = append(s.errors, kind.String()+": "+message)
}

func symA() model.Symbol { return model.Symbol{InstrumentID: "A", ExchangeID: "SHFE"} }
func symB() model.Symbol { return model.Symbol{InstrumentID: "B", ExchangeID: "SHFE"} }

func retryCfg() gateway.RetryConfig {
	return gateway.RetryConfig{Interval: time.Millisecond}
}

func newTestRouter(gw gateway.MarketGateway, sink gateway.ErrorSink) *Router {
	return NewRouter(context.Background(), gw, retryCfg(), sink, nil)
}

// S4 — subscription refcount round-trip.
func TestRouterSubscriptionRefcountS4(t *testing.T) {
	fake := &fakeMarketGateway{}
	r := newTestRouter(fake, nil)
	r1, r2 := &recordingTickReceiver{}, &recordingTickReceiver{}

	require.NoError(t, r.Subscribe([]model.Symbol{symA(), symB()}, r1))
	require.NoError(t, r.Subscribe([]model.Symbol{symA()}, r2))
	require.NoError(t, r.Unsubscribe([]model.Symbol{symA()}, r1))
	require.NoError(t, r.Unsubscribe([]model.Symbol{symA()}, r2))
	require.NoError(t, r.Unsubscribe([]model.Symbol{symB()}, r1))

	require.Empty(t, r.subscribers)
	require.Len(t, fake.subscribeCalls, 1)
	require.ElementsMatch(t, []string{"A", "B"}, fake.subscribeCalls[0])
	require.Len(t, fake.unsubscribeCalls, 2)
}

func TestRouterSubscribeIdempotent(t *testing.T) {
	fake := &fakeMarketGateway{}
	r := newTestRouter(fake, nil)
	rcv := &recordingTickReceiver{}

	require.NoError(t, r.Subscribe([]model.Symbol{symA()}, rcv))
	require.NoError(t, r.Subscribe([]model.Symbol{symA()}, rcv))
	require.Len(t, r.subscribers["A"], 1)
	require.Len(t, fake.subscribeCalls, 1)
}

func rawTick(id string, last float64, hhmmss string) gateway.RawDepthMarketData {
	return gateway.RawDepthMarketData{
		InstrumentID: id,
		TradingDay:   "20260731",
		UpdateTime:   hhmmss,
		LastPrice:    last,
		Volume:       10,
		AskPrice:     [5]float64{last + 1},
		AskVolume:    [5]float64{1},
		BidPrice:     [5]float64{last - 1},
		BidVolume:    [5]float64{1},
	}
}

func TestRouterDeliversTicksInRegistrationOrderAndDropsOrphans(t *testing.T) {
	fake := &fakeMarketGateway{}
	r := newTestRouter(fake, nil)

	var order []string
	first := &orderTrackingReceiver{name: "first", order: &order}
	second := &orderTrackingReceiver{name: "second", order: &order}

	require.NoError(t, r.Subscribe([]model.Symbol{symA()}, first))
	require.NoError(t, r.Subscribe([]model.Symbol{symA()}, second))

	r.OnRtnDepthMarketData(rawTick("unknown", 100, "09:15:00"))
	require.Empty(t, order)

	r.OnRtnDepthMarketData(rawTick("A", 100, "09:15:00"))
	require.Equal(t, []string{"first", "second"}, order)
}

type orderTrackingReceiver struct {
	name  string
	order *[]string
}

func (o *orderTrackingReceiver) OnTick(_ model.Tick, _ model.Tape) {
	*o.order = append(*o.order, o.name)
}

func TestRouterStoresLastTickBeforeFanOut(t *testing.T) {
	fake := &fakeMarketGateway{}
	r := newTestRouter(fake, nil)

	rcv := &reentrantReceiver{router: r}
	require.NoError(t, r.Subscribe([]model.Symbol{symA()}, rcv))

	r.OnRtnDepthMarketData(rawTick("A", 100, "09:15:00"))
	require.Equal(t, float64(100), rcv.seenDuringCallback.Last)
}

type reentrantReceiver struct {
	router             *Router
	seenDuringCallback model.Tick
}

func (r *reentrantReceiver) OnTick(tick model.Tick, _ model.Tape) {
	r.seenDuringCallback = r.router.lastTicks["A"]
}

func TestRouterRecorderReceivesRawPayloadAndStopRemovesUnheldInstruments(t *testing.T) {
	fake := &fakeMarketGateway{}
	r := newTestRouter(fake, nil)

	rec := &recordingRecorder{}
	universe := []model.Symbol{symA(), symB()}
	selector := func(in []model.Symbol) []model.Symbol { return in }

	require.NoError(t, r.StartRecorder(rec, selector, universe))
	require.Len(t, fake.subscribeCalls, 1)

	r.OnRtnDepthMarketData(rawTick("A", 100, "09:15:00"))
	require.Len(t, rec.raw, 1)

	require.NoError(t, r.StopRecorder())
	require.Len(t, fake.unsubscribeCalls, 1)
	require.ElementsMatch(t, []string{"A", "B"}, fake.unsubscribeCalls[0])
}

type recordingRecorder struct {
	raw []gateway.RawDepthMarketData
}

func (r *recordingRecorder) OnRawTick(_ model.Symbol, data gateway.RawDepthMarketData) {
	r.raw = append(r.raw, data)
}

// TestRouterOpenIsAsyncOnOwnLogin verifies Open only issues ReqUserLogin;
// the resubscribe/onOpen sequence from §4.4's "on successful login" runs
// from OnRspUserLogin instead, exactly once per lifecycle, clearing
// lastTicks on trading-day rollover.
func TestRouterOpenIsAsyncOnOwnLogin(t *testing.T) {
	fake := &fakeMarketGateway{}
	r := newTestRouter(fake, nil)

	opens := 0
	r.AddOpenReceiver(openFunc(func() { opens++ }))

	rcv := &recordingTickReceiver{}
	require.NoError(t, r.Subscribe([]model.Symbol{symA()}, rcv))
	r.OnRtnDepthMarketData(rawTick("A", 100, "09:15:00"))
	require.Contains(t, r.lastTicks, "A")

	require.NoError(t, r.Open("20260731"))
	require.Equal(t, 1, fake.loginCalls)
	require.Zero(t, opens) // not yet: the gateway hasn't confirmed login

	r.OnRspUserLogin(&gateway.RspInfo{})
	require.Equal(t, 1, opens)
	require.Contains(t, r.lastTicks, "A") // same trading day: cache survives

	require.NoError(t, r.Open("20260801"))
	r.OnRspUserLogin(&gateway.RspInfo{})
	require.Empty(t, r.lastTicks)
	require.Equal(t, 1, opens) // fires only once per lifecycle
}

func TestRouterLoginFailureHaltsWithoutFiringOnOpen(t *testing.T) {
	fake := &fakeMarketGateway{}
	sink := &recordingSink{}
	r := newTestRouter(fake, sink)

	opens := 0
	r.AddOpenReceiver(openFunc(func() { opens++ }))

	require.NoError(t, r.Open("20260731"))
	r.OnRspUserLogin(&gateway.RspInfo{ErrorID: 3, ErrorMsg: "invalid credentials"})

	require.Zero(t, opens)
	require.Len(t, sink.errors, 1)
	require.Contains(t, sink.errors[0], "login-error")
}

func TestRouterSubscribeRejectionReachesSink(t *testing.T) {
	fake := &fakeMarketGateway{}
	sink := &recordingSink{}
	r := newTestRouter(fake, sink)

	r.OnRspSubMarketData("A", &gateway.RspInfo{ErrorID: 1, ErrorMsg: "unknown instrument"})
	require.Len(t, sink.errors, 1)
	require.Contains(t, sink.errors[0], "subscribe-market-data-error")

	r.OnRspUnSubMarketData("A", &gateway.RspInfo{ErrorID: 1, ErrorMsg: "unknown instrument"})
	require.Len(t, sink.errors, 2)
}

func TestRouterFrontDisconnectedReachesSinkWithoutResettingOpened(t *testing.T) {
	fake := &fakeMarketGateway{}
	sink := &recordingSink{}
	r := newTestRouter(fake, sink)

	require.NoError(t, r.Open("20260731"))
	r.OnRspUserLogin(&gateway.RspInfo{})

	r.OnFrontConnected()
	r.OnFrontDisconnected(0)
	require.Len(t, sink.errors, 1)

	require.NoError(t, r.Open("20260731"))
	r.OnRspUserLogin(&gateway.RspInfo{})
	require.True(t, r.opened) // onOpen already fired once; reconnect does not refire it
}

type openFunc func()

func (f openFunc) OnOpen() { f() }
