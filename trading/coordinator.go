package trading

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"tradeengine/gateway"
	"tradeengine/logger"
	"tradeengine/model"
)

// loginState is the 8-state login pipeline (§4.5).
type loginState int

const (
	stateDisconnected loginState = iota
	stateAuthenticating
	stateLoggingIn
	stateConfirming
	stateLoadingOrders
	stateLoadingTrades
	stateLoadingInstruments
	stateLoadingPositions
	stateReady
)

func (s loginState) String() string {
	switch s {
	case stateDisconnected:
		return "disconnected"
	case stateAuthenticating:
		return "authenticating"
	case stateLoggingIn:
		return "logging-in"
	case stateConfirming:
		return "confirming"
	case stateLoadingOrders:
		return "loading-orders"
	case stateLoadingTrades:
		return "loading-trades"
	case stateLoadingInstruments:
		return "loading-instruments"
	case stateLoadingPositions:
		return "loading-positions"
	case stateReady:
		return "ready"
	default:
		return "unknown"
	}
}

// Coordinator is the Trading Coordinator (§4.5): it drives the login
// pipeline, reduces order/trade callbacks into model.Order/model.Position
// snapshots, and answers rate/account/position-detail queries. Its Rsp*/
// Rtn* methods are a direct Go encoding of gateway.TradeGatewayListener —
// no context.Context parameter, matching the gateway's own callback shape.
// Every network request the coordinator issues, whether chained from a
// callback or triggered by a directly-invoked method (PlaceLimitOrder,
// QueryMarginRate, ...), runs under the single long-lived context captured
// at construction: a caller-supplied per-call ctx would have nothing
// meaningful to cancel, since the gateway's own callbacks can never take
// one either.
type Coordinator struct {
	ctx  context.Context
	gw   gateway.TradeGateway
	cfg  Config
	sink gateway.ErrorSink
	log  *logrus.Entry

	state      loginState
	frontID    int32
	sessionID  int32
	orderRef   int64 // next ref to mint
	tradingDay string

	openReceivers []OpenReceiver
	openedOnce    bool

	listener OrderEventListener

	orders             map[int64]*model.Order // keyed by OrderRef
	lastRawOrderStatus map[int64][2]int        // dedup key: {OrderSubmitStatus, OrderStatus}
	positions          map[model.Symbol]*model.Position
	stats              map[model.Symbol]*model.OrderStatistic
	instruments        map[string]*model.Instrument // keyed by InstrumentID

	// place/cancel correlation: gateway requestID -> waiting receiver.
	placeByRequestID  map[int]PlaceReceiver
	cancelByRequestID map[int]CancelReceiver
	// orderRef of the order a given place request is minting, so
	// OnRspOrderInsert can be logged against the right order even though
	// the correlation itself is keyed by requestID.
	placeOrderRef map[int]int64

	marginRates marginRateCache
	commRates   commissionRateCache

	accountsCache      []model.Account
	accountsSnapshotAt time.Time
	accountsInFlight   bool
	accountsAccum      []model.Account
	accountsWaiters    []AccountsReceiver

	positionDetailsCache    []model.PositionDetail
	positionDetailsChanged  bool
	positionDetailsInFlight bool
	positionDetailsAccum    []model.PositionDetail
	positionDetailsWaiters  []PositionDetailsReceiver

	priceLimits map[string]priceLimit // keyed by InstrumentID
	marketQueue map[string][]pendingMarketOrder
}

type priceLimit struct {
	tradingDay string
	upper      float64
	lower      float64
	bandUpper  float64
	bandLower  float64
	hasBand    bool
}

type pendingMarketOrder struct {
	symbol   model.Symbol
	side     model.Side
	offset   model.Offset
	volume   int64
	receiver PlaceReceiver
}

// NewCoordinator builds a Coordinator over gw. ctx is the long-lived
// context chained network requests run under when triggered from inside a
// gateway callback; it is typically tied to the embedding process's
// lifetime, not to any single request. sink and listener may be nil; log
// defaults to logger.Default() when nil.
func NewCoordinator(ctx context.Context, gw gateway.TradeGateway, cfg Config, sink gateway.ErrorSink, listener OrderEventListener, log *logrus.Entry) *Coordinator {
	if ctx == nil {
		ctx = context.Background()
	}
	if log == nil {
		log = logger.Default()
	}
	return &Coordinator{
		ctx:      ctx,
		gw:       gw,
		cfg:      cfg.withDefaults(),
		sink:     sink,
		log:      log,
		listener: listener,

		orders:             make(map[int64]*model.Order),
		lastRawOrderStatus: make(map[int64][2]int),
		positions:          make(map[model.Symbol]*model.Position),
		stats:              make(map[model.Symbol]*model.OrderStatistic),
		instruments:        make(map[string]*model.Instrument),

		placeByRequestID:  make(map[int]PlaceReceiver),
		cancelByRequestID: make(map[int]CancelReceiver),
		placeOrderRef:     make(map[int]int64),

		marginRates: newMarginRateCache(),
		commRates:   newCommissionRateCache(),

		positionDetailsChanged: true,

		priceLimits: make(map[string]priceLimit),
		marketQueue: make(map[string][]pendingMarketOrder),
	}
}

// AddOpenReceiver registers r to be notified once the login pipeline
// reaches Ready for the first time (§4.5, "fire onOpen once").
func (c *Coordinator) AddOpenReceiver(r OpenReceiver) {
	c.openReceivers = append(c.openReceivers, r)
}

// State exposes the current login-pipeline state, mostly for tests.
func (c *Coordinator) State() string { return c.state.String() }

// TradingDay returns the trading day captured at login, or "" before login.
func (c *Coordinator) TradingDay() string { return c.tradingDay }

// OnFrontConnected begins the login pipeline (§4.5 state Disconnected ->
// Authenticating).
func (c *Coordinator) OnFrontConnected() {
	c.state = stateAuthenticating
	c.submit(func() int32 { return c.gw.ReqAuthenticate() })
}

// OnFrontDisconnected resets the pipeline to Disconnected and fails every
// in-flight request the disconnect invalidates: queued market orders (no
// depth-data response will ever arrive for the old connection) and place/
// cancel correlations (no Rsp will arrive either).
func (c *Coordinator) OnFrontDisconnected(reason int) {
	c.state = stateDisconnected

	for instrumentID := range c.marketQueue {
		c.failMarketQueue(instrumentID)
	}
	for id, r := range c.placeByRequestID {
		r.OnPlaceOrderError(ReasonRequestError)
		delete(c.placeByRequestID, id)
		delete(c.placeOrderRef, id)
	}
	for id, r := range c.cancelByRequestID {
		r.OnCancelOrderError(ReasonRequestError)
		delete(c.cancelByRequestID, id)
	}
}

// submit runs reqFn under the coordinator's long-lived context, logging
// (not propagating) a terminal failure — there is no caller waiting
// synchronously on a chained login-pipeline or query-continuation request.
func (c *Coordinator) submit(reqFn func() int32) {
	if err := gateway.Retry(c.ctx, c.cfg.Retry, reqFn); err != nil {
		c.log.WithError(err).Warn("trading: gateway request failed")
	}
}

// OnRspAuthenticate advances Authenticating -> LoggingIn, or halts on error
// (§7: every login-pipeline error callback consults the classifier and
// halts; there is no automatic fall-through to the next stage).
func (c *Coordinator) OnRspAuthenticate(info *gateway.RspInfo) {
	if gateway.ClassifyError(c.sink, gateway.ErrorLogin, info) {
		return
	}
	c.state = stateLoggingIn
	c.submit(func() int32 { return c.gw.ReqUserLogin() })
}

// OnRspUserLogin captures the session identity and trading day, resets
// per-day caches on rollover, and advances LoggingIn -> Confirming.
func (c *Coordinator) OnRspUserLogin(frontID, sessionID int32, maxOrderRef int64, tradingDay string, info *gateway.RspInfo) {
	if gateway.ClassifyError(c.sink, gateway.ErrorLogin, info) {
		return
	}
	c.frontID = frontID
	c.sessionID = sessionID
	c.orderRef = maxOrderRef + 1

	if model.TradingDayChanged(c.tradingDay, tradingDay) {
		c.resetDailyCaches()
	}
	c.tradingDay = tradingDay

	c.state = stateConfirming
	c.submit(func() int32 { return c.gw.ReqSettlementInfoConfirm() })
}

// resetDailyCaches clears the caches §4.5 documents as resetting at a new
// trading day: per-symbol statistics and cached price limits. Orders,
// trades and positions are reloaded wholesale by the pipeline itself, so
// they are not cleared here — they are replaced. The accounts snapshot is
// also force-expired here, though its normal staleness window (3s, see
// QueryAccounts) would already have lapsed by the next login.
func (c *Coordinator) resetDailyCaches() {
	c.stats = make(map[model.Symbol]*model.OrderStatistic)
	c.priceLimits = make(map[string]priceLimit)
	c.positionDetailsChanged = true
	c.accountsSnapshotAt = time.Time{}
}

// OnRspSettlementInfoConfirm advances Confirming -> LoadingOrders.
func (c *Coordinator) OnRspSettlementInfoConfirm(info *gateway.RspInfo) {
	if gateway.ClassifyError(c.sink, gateway.ErrorLogin, info) {
		return
	}
	c.orders = make(map[int64]*model.Order)
	c.state = stateLoadingOrders
	c.submit(func() int32 { return c.gw.ReqQryOrder() })
}

// OnRspQryOrder reconstructs the order book, record by record, and advances
// LoadingOrders -> LoadingTrades once the last record arrives.
func (c *Coordinator) OnRspQryOrder(raw gateway.RawOrder, isLast bool, info *gateway.RspInfo) {
	if gateway.ClassifyError(c.sink, gateway.ErrorQueryOrder, info) {
		return
	}
	if raw.OrderRef != 0 || raw.InstrumentID != "" {
		c.applyRawOrder(raw)
	}
	if isLast {
		c.state = stateLoadingTrades
		c.submit(func() int32 { return c.gw.ReqQryTrade() })
	}
}

// OnRspQryTrade attaches historical trades to their orders and advances
// LoadingTrades -> LoadingInstruments.
func (c *Coordinator) OnRspQryTrade(raw gateway.RawTrade, isLast bool, info *gateway.RspInfo) {
	if gateway.ClassifyError(c.sink, gateway.ErrorQueryTrade, info) {
		return
	}
	if raw.OrderRef != 0 {
		c.applyRawTrade(raw, false)
	}
	if isLast {
		c.instruments = make(map[string]*model.Instrument)
		c.state = stateLoadingInstruments
		c.submit(func() int32 { return c.gw.ReqQryInstrument() })
	}
}

// OnRspQryInstrument keeps only futures/options instruments (§4.5,
// "LoadingInstruments: keep only futures/options") and advances
// LoadingInstruments -> LoadingPositions.
func (c *Coordinator) OnRspQryInstrument(raw gateway.RawInstrument, isLast bool, info *gateway.RspInfo) {
	if gateway.ClassifyError(c.sink, gateway.ErrorQueryInstrument, info) {
		return
	}
	if raw.InstrumentID != "" {
		inst := translateInstrument(raw)
		if inst.IsDerivative() {
			c.instruments[raw.InstrumentID] = &inst
		}
	}
	if isLast {
		c.positions = make(map[model.Symbol]*model.Position)
		c.state = stateLoadingPositions
		c.submit(func() int32 { return c.gw.ReqQryInvestorPosition() })
	}
}

// OnRspQryInvestorPosition folds the position snapshot and, on the last
// record, transitions to Ready: fires onOpen exactly once ever, then
// drains any accounts/position-detail/rate requests queued while the
// pipeline was still loading.
func (c *Coordinator) OnRspQryInvestorPosition(raw gateway.RawPosition, isLast bool, info *gateway.RspInfo) {
	if gateway.ClassifyError(c.sink, gateway.ErrorQueryPositions, info) {
		return
	}
	if raw.InstrumentID != "" {
		c.applyRawPosition(raw)
	}
	if !isLast {
		return
	}
	c.state = stateReady
	if !c.openedOnce {
		c.openedOnce = true
		for _, r := range c.openReceivers {
			r.OnOpen()
		}
	}
	c.flushDeferredQueries()
}

// flushDeferredQueries issues the first outstanding rate/account/position-
// detail request now that the coordinator is Ready. Requests made before
// login completed are buffered in the same queues used post-login, so
// nothing special needs to happen here beyond kicking the network call.
func (c *Coordinator) flushDeferredQueries() {
	c.marginRates.kick(c)
	c.commRates.kick(c)
	if c.accountsInFlight {
		c.submit(func() int32 { return c.gw.ReqQryTradingAccount() })
	}
	if c.positionDetailsInFlight {
		c.submit(func() int32 { return c.gw.ReqQryInvestorPositionDetail() })
	}
}

func translateInstrument(raw gateway.RawInstrument) model.Instrument {
	var productType model.ProductType
	switch raw.ProductClass {
	case 0:
		productType = model.ProductFutures
	case 1:
		productType = model.ProductOptions
	case 2:
		productType = model.ProductSpot
	case 3:
		productType = model.ProductSpotOptions
	default:
		productType = model.ProductUnknown
	}
	return model.Instrument{
		Symbol:              model.Symbol{InstrumentID: raw.InstrumentID, ExchangeID: raw.ExchangeID},
		Name:                raw.InstrumentName,
		ProductID:           raw.ProductID,
		ProductType:         productType,
		DeliveryTime:        raw.DeliveryYear*100 + raw.DeliveryMonth,
		OpenDate:            raw.OpenDate,
		ExpireDate:          raw.ExpireDate,
		VolumeMultiple:      raw.VolumeMultiple,
		PriceTick:           raw.PriceTick,
		MinLimitOrderVolume: raw.MinLimitOrderVolume,
		MaxLimitOrderVolume: raw.MaxLimitOrderVolume,
		StrikePrice:         raw.StrikePrice,
		IsCall:              raw.IsCall,
	}
}

func (c *Coordinator) nextOrderRef() int64 {
	ref := c.orderRef
	c.orderRef++
	return ref
}
