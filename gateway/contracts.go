package gateway

// This file is the Go encoding of §6's external-interfaces bullet lists.
// Every method here is a request the engine may issue, or an event the
// gateway delivers back on whatever goroutine its own transport uses; the
// embedder is responsible for serializing callback delivery into the
// engine (§5).

// TradeGateway is the trading endpoint: authentication, order
// submission/cancellation, and instrument/account/position/rate queries.
// Every Req* method returns the gateway's raw synchronous code, classified
// by Classify: 0 = accepted (look up the request id via LastRequestID),
// -2/-3 = retry, anything else negative = terminal failure.
type TradeGateway interface {
	ReqAuthenticate() int32
	ReqUserLogin() int32
	ReqSettlementInfoConfirm() int32
	ReqQryOrder() int32
	ReqQryTrade() int32
	ReqQryInstrument() int32
	ReqQryInvestorPosition() int32
	ReqQryInvestorPositionDetail() int32
	ReqQryTradingAccount() int32
	ReqQryInstrumentMarginRate(instrumentID string) int32
	ReqQryInstrumentCommissionRate(instrumentID string) int32
	ReqOrderInsert(req OrderInsertRequest) int32
	ReqOrderAction(req OrderActionRequest) int32
	ReqQryDepthMarketData(instrumentID string) int32

	// LastRequestID returns the process-wide "last request id" the gateway
	// SDK exposes out-of-band after a ResultOK return (§9, "Global gateway
	// state"). Access to it is encapsulated here so it never leaks upward.
	LastRequestID() int
}

// OrderInsertRequest is the limit-order insert the engine submits; the
// gateway fixes GFD/AV time-in-force, ContingentCondition=Immediately and
// ForceClose=No (§6).
type OrderInsertRequest struct {
	InstrumentID string
	OrderRef     int64
	Side         int // engine-defined; translated by the caller's gateway binding
	Offset       int
	Price        float64
	Volume       int64
}

// OrderActionRequest is an order cancel (delete) action.
type OrderActionRequest struct {
	InstrumentID string
	ExchangeID   string
	OrderSysID   string
	FrontID      int32
	SessionID    int32
	OrderRef     int64
}

// MarketGateway is the market-data endpoint: login plus subscribe/
// unsubscribe by instrument id list (§6).
type MarketGateway interface {
	ReqUserLogin() int32
	SubscribeMarketData(instrumentIDs []string) int32
	UnsubscribeMarketData(instrumentIDs []string) int32
}

// TradeGatewayListener receives the trading endpoint's asynchronous events
// (§6 "Events"). Implementations are expected to run on a single thread;
// the engine never spawns worker goroutines to deliver these (§5).
type TradeGatewayListener interface {
	OnFrontConnected()
	OnFrontDisconnected(reason int)
	OnRspAuthenticate(info *RspInfo)
	OnRspUserLogin(frontID, sessionID int32, maxOrderRef int64, tradingDay string, info *RspInfo)
	OnRspSettlementInfoConfirm(info *RspInfo)
	OnRspQryOrder(order RawOrder, isLast bool, info *RspInfo)
	OnRspQryTrade(trade RawTrade, isLast bool, info *RspInfo)
	OnRspQryInstrument(instrument RawInstrument, isLast bool, info *RspInfo)
	OnRspQryInvestorPosition(position RawPosition, isLast bool, info *RspInfo)
	OnRspQryInvestorPositionDetail(detail RawPositionDetail, isLast bool, info *RspInfo)
	OnRspQryTradingAccount(account RawAccount, isLast bool, info *RspInfo)
	OnRspQryInstrumentMarginRate(rate RawMarginRate, info *RspInfo)
	OnRspQryInstrumentCommissionRate(rate RawCommissionRate, info *RspInfo)
	OnRspOrderInsert(requestID int, info *RspInfo)
	OnRspOrderAction(requestID int, info *RspInfo)
	OnRtnOrder(order RawOrder)
	OnRtnTrade(trade RawTrade)

	// OnRspQryDepthMarketData answers a ReqQryDepthMarketData request issued
	// while resolving a market order's price bound (§4.5 step 3). It is
	// distinct from the market-data endpoint's streaming OnRtnDepthMarketData.
	OnRspQryDepthMarketData(data RawDepthMarketData, info *RspInfo)
}

// MarketGatewayListener receives the market-data endpoint's events.
type MarketGatewayListener interface {
	OnFrontConnected()
	OnFrontDisconnected(reason int)
	OnRspUserLogin(info *RspInfo)
	OnRspSubMarketData(instrumentID string, info *RspInfo)
	OnRspUnSubMarketData(instrumentID string, info *RspInfo)
	OnRtnDepthMarketData(data RawDepthMarketData)
}
