package gateway

// The Raw* types below are the wire-shaped payloads the gateway hands back
// on each Rsp/Rtn callback, before the Trading Coordinator (package
// trading) translates them into the engine's model types. They exist so
// this package can define TradeGatewayListener/MarketGatewayListener
// without importing package model, keeping the dependency direction
// gateway -> (nothing engine-specific) and model/trading -> gateway.

type RawOrder struct {
	InstrumentID string
	ExchangeID   string
	OrderSysID   string // empty until the exchange assigns it
	OrderRef     int64
	FrontID      int32
	SessionID    int32

	InsertDate string
	InsertTime string
	CancelTime string

	Direction    int // 0 = long/buy, 1 = short/sell
	OffsetFlag   int // 0 = open, 1 = close, 2 = close-today
	OrderPriceType int // 0 = limit, 1 = market
	LimitPrice   float64
	VolumeTotalOriginal int64
	VolumeTraded        int64

	// OrderStatus mirrors the gateway's raw status enum; see
	// trading.ReduceOrderStatus for the mapping to model.OrderStatus.
	OrderStatus int
	// OrderSubmitStatus is compared against its previous value to
	// deduplicate repeated callbacks (§4.5).
	OrderSubmitStatus int
	// CancelReason is one of the RawCancelReason* constants, set whenever
	// OrderStatus reports canceled; RawCancelReasonNone means a genuine
	// cancel rather than a disguised rejection.
	CancelReason int
}

const (
	RawOrderStatusUnknown   = 0
	RawOrderStatusAllTraded = 1
	RawOrderStatusCanceled  = 2
	RawOrderStatusPartTraded = 3
	RawOrderStatusNoneTraded = 4
)

const (
	RawCancelReasonNone           = 0
	RawCancelReasonInsertRejected = 1
	RawCancelReasonCancelRejected = 2
	RawCancelReasonModifyRejected = 3
)

type RawTrade struct {
	TradeID      string
	OrderSysID   string
	OrderRef     int64
	InstrumentID string
	ExchangeID   string
	TradeDate    string
	TradeTime    string
	Price        float64
	Volume       int64
}

type RawInstrument struct {
	InstrumentID   string
	ExchangeID     string
	InstrumentName string
	ProductID      string
	ProductClass   int // 0 = futures, 1 = options, 2 = spot, 3 = spot-options
	DeliveryYear   int
	DeliveryMonth  int
	OpenDate       string
	ExpireDate     string
	VolumeMultiple float64
	PriceTick      float64
	MinLimitOrderVolume int64
	MaxLimitOrderVolume int64
	StrikePrice    float64
	IsCall         bool
}

type RawPosition struct {
	InstrumentID     string
	ExchangeID       string
	PosiDirection    int // 0 = long, 1 = short
	PositionDate     int // 1 = today, 2 = history ("1" vs "2" per the wire's Today/History marker)
	Position         int64
	TodayPosition    int64
	Frozen           int64
	TodayFrozen      int64
}

type RawPositionDetail struct {
	InstrumentID  string
	ExchangeID    string
	Direction     int
	Volume        int64
	OpenPrice     float64
	OpenDate      string
}

type RawAccount struct {
	AccountID     string
	Available     float64
	Balance       float64
	Margin        float64
	FrozenMargin  float64
	Commission    float64
	CloseProfit   float64
	PositionProfit float64
}

type RawMarginRate struct {
	InstrumentID  string
	LongMarginRatioByMoney  float64
	LongMarginRatioByVolume float64
	ShortMarginRatioByMoney  float64
	ShortMarginRatioByVolume float64
}

type RawCommissionRate struct {
	InstrumentID string
	OpenRatioByMoney    float64
	OpenRatioByVolume   float64
	CloseRatioByMoney   float64
	CloseRatioByVolume  float64
	CloseTodayRatioByMoney  float64
	CloseTodayRatioByVolume float64
}

type RawDepthMarketData struct {
	InstrumentID string
	TradingDay   string
	UpdateTime   string // HH:MM:SS
	UpdateMillisec int

	LastPrice float64
	OpenPrice float64
	HighestPrice float64
	LowestPrice  float64
	PreClosePrice float64

	OpenInterest    float64
	PreOpenInterest float64
	Volume          int64
	Turnover        float64

	UpperLimitPrice float64
	LowerLimitPrice float64
	BandingUpperPrice float64
	BandingLowerPrice float64

	AskPrice [5]float64
	AskVolume [5]float64
	BidPrice [5]float64
	BidVolume [5]float64
}
