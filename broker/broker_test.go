package broker

import (
	"testing"

	"github.com/stretchr/testify/require"

	"tradeengine/bar"
	"tradeengine/gateway"
	"tradeengine/market"
	"tradeengine/model"
	"tradeengine/trading"
)

type fakeTradeGateway struct {
	lastReqID int
}

func (f *fakeTradeGateway) ReqAuthenticate() int32                     { return 0 }
func (f *fakeTradeGateway) ReqUserLogin() int32                        { return 0 }
func (f *fakeTradeGateway) ReqSettlementInfoConfirm() int32            { return 0 }
func (f *fakeTradeGateway) ReqQryOrder() int32                         { return 0 }
func (f *fakeTradeGateway) ReqQryTrade() int32                         { return 0 }
func (f *fakeTradeGateway) ReqQryInstrument() int32                    { return 0 }
func (f *fakeTradeGateway) ReqQryInvestorPosition() int32              { return 0 }
func (f *fakeTradeGateway) ReqQryInvestorPositionDetail() int32        { return 0 }
func (f *fakeTradeGateway) ReqQryTradingAccount() int32                { return 0 }
func (f *fakeTradeGateway) ReqQryInstrumentMarginRate(string) int32    { return 0 }
func (f *fakeTradeGateway) ReqQryInstrumentCommissionRate(string) int32 { return 0 }
func (f *fakeTradeGateway) ReqOrderInsert(gateway.OrderInsertRequest) int32 {
	f.lastReqID++
	return 0
}
func (f *fakeTradeGateway) ReqOrderAction(gateway.OrderActionRequest) int32 {
	f.lastReqID++
	return 0
}
func (f *fakeTradeGateway) ReqQryDepthMarketData(string) int32 { return 0 }
func (f *fakeTradeGateway) LastRequestID() int                 { return f.lastReqID }

type fakeMarketGateway struct {
	subscribeCalls [][]string
}

func (f *fakeMarketGateway) ReqUserLogin() int32 { return 0 }
func (f *fakeMarketGateway) SubscribeMarketData(ids []string) int32 {
	f.subscribeCalls = append(f.subscribeCalls, append([]string(nil), ids...))
	return 0
}
func (f *fakeMarketGateway) UnsubscribeMarketData([]string) int32 { return 0 }

type fakeRecorder struct {
	started []model.Symbol
}

func (r *fakeRecorder) OnRawTick(model.Symbol, gateway.RawDepthMarketData) {}

type recordingStrategy struct {
	inited   bool
	destroyed bool
	riskKind string
	riskReason string
	entrusts []*model.Order
}

func (s *recordingStrategy) OnInit()    { s.inited = true }
func (s *recordingStrategy) OnDestroy() { s.destroyed = true }
func (s *recordingStrategy) OnRisk(kind, reason string) {
	s.riskKind, s.riskReason = kind, reason
}
func (s *recordingStrategy) OnEntrust(o *model.Order)            { s.entrusts = append(s.entrusts, o) }
func (s *recordingStrategy) OnTrade(*model.Order, *model.Trade) {}
func (s *recordingStrategy) OnCancel(*model.Order)              {}
func (s *recordingStrategy) OnReject(*model.Order)              {}

func symA() model.Symbol { return model.Symbol{InstrumentID: "a2409", ExchangeID: "DCE"} }

// driveToReady pushes a Broker's Coordinator through the full login
// pipeline, which fires onTraderOpen and so initiates the market
// endpoint's own login (§4.4/§4.6); it then drives that login's own
// OnRspUserLogin to completion too, so onMarketOpen fires and symA is the
// only known instrument.
func driveToReady(t *testing.T, b *Broker) {
	t.Helper()
	c := b.Coordinator()
	c.OnFrontConnected()
	c.OnRspAuthenticate(&gateway.RspInfo{})
	c.OnRspUserLogin(1, 1, 0, "20260731", &gateway.RspInfo{})
	c.OnRspSettlementInfoConfirm(&gateway.RspInfo{})
	c.OnRspQryOrder(gateway.RawOrder{}, true, &gateway.RspInfo{})
	c.OnRspQryTrade(gateway.RawTrade{}, true, &gateway.RspInfo{})
	c.OnRspQryInstrument(gateway.RawInstrument{
		InstrumentID: symA().InstrumentID, ExchangeID: symA().ExchangeID, ProductClass: 0, PriceTick: 1,
	}, true, &gateway.RspInfo{})
	c.OnRspQryInvestorPosition(gateway.RawPosition{}, true, &gateway.RspInfo{})
	b.Router().OnRspUserLogin(&gateway.RspInfo{})
}

func TestStartSequenceOpensMarketAndFiresOnInit(t *testing.T) {
	mktGW := &fakeMarketGateway{}
	rec := &fakeRecorder{}
	strat := &recordingStrategy{}

	b := NewBroker(nil, &fakeTradeGateway{}, mktGW, trading.Config{}, gateway.RetryConfig{}, nil, nil)
	b.ConfigureRecorder(rec, nil)
	b.AddStrategy(strat)

	driveToReady(t, b)

	require.True(t, strat.inited)
	require.Len(t, mktGW.subscribeCalls, 1)
	require.Equal(t, []string{symA().InstrumentID}, mktGW.subscribeCalls[0])

	b.Stop()
	require.True(t, strat.destroyed)
}

type denyingRiskManager struct{ reason string }

func (d denyingRiskManager) CheckPlaceOrder(model.Symbol, model.Side, model.Offset, float64, int64) (bool, string) {
	return false, d.reason
}

type placeSpy struct {
	sent  model.ReceiptID
	error string
}

func (p *placeSpy) OnPlaceOrderSent(id model.ReceiptID) { p.sent = id }
func (p *placeSpy) OnPlaceOrderError(reason string)     { p.error = reason }

func TestPlaceOrderDeniedByRiskChainNeverReachesCoordinator(t *testing.T) {
	tradeGW := &fakeTradeGateway{}
	b := NewBroker(nil, tradeGW, &fakeMarketGateway{}, trading.Config{}, gateway.RetryConfig{}, nil, nil)
	strat := &recordingStrategy{}
	b.AddStrategy(strat)
	b.AddPlaceRisk(denyingRiskManager{reason: "too risky"})
	driveToReady(t, b)

	spy := &placeSpy{}
	b.BuyOpen(symA(), 100, 1, spy)

	require.Equal(t, trading.ReasonRiskRejected, spy.error)
	require.Zero(t, tradeGW.lastReqID)
	require.Equal(t, "place-order-risk", strat.riskKind)
	require.Equal(t, "too risky", strat.riskReason)
}

func TestPlaceOrderAllowedReachesCoordinatorAndEntrustFansOutToStrategy(t *testing.T) {
	tradeGW := &fakeTradeGateway{}
	b := NewBroker(nil, tradeGW, &fakeMarketGateway{}, trading.Config{}, gateway.RetryConfig{}, nil, nil)
	strat := &recordingStrategy{}
	b.AddStrategy(strat)
	driveToReady(t, b)

	spy := &placeSpy{}
	b.BuyOpen(symA(), 100, 1, spy)
	require.NotZero(t, tradeGW.lastReqID)

	b.Coordinator().OnRtnOrder(gateway.RawOrder{
		InstrumentID: symA().InstrumentID, ExchangeID: symA().ExchangeID,
		OrderRef: spy.sent.OrderRef, Direction: 0, OffsetFlag: 0,
		VolumeTotalOriginal: 1, OrderStatus: gateway.RawOrderStatusNoneTraded,
	})
	require.Len(t, strat.entrusts, 1)
}

type recordingBarReceiver struct {
	bars []*model.Bar
}

func (r *recordingBarReceiver) OnBar(b *model.Bar) { r.bars = append(r.bars, b) }

func TestBarSubscriptionLazyCreateAndGC(t *testing.T) {
	mktGW := &fakeMarketGateway{}
	b := NewBroker(nil, &fakeTradeGateway{}, mktGW, trading.Config{}, gateway.RetryConfig{}, nil, nil)
	driveToReady(t, b)

	r1 := &recordingBarReceiver{}
	require.NoError(t, b.SubscribeBar(symA(), bar.Config{Mode: bar.ModeTime}, r1))
	require.Len(t, b.generators, 1)

	require.NoError(t, b.UnsubscribeBar(symA(), r1))
	require.Empty(t, b.generators)
}

var _ = market.RecorderReceiver(&fakeRecorder{})
