// Package trading implements the Trading Coordinator (§4.5): the login
// pipeline, order/trade/position reconciliation, order submission and
// cancellation, and the rate/account/position-detail query caches. Like
// every other component here it expects single-threaded cooperative
// delivery (§5) — every exported method is a gateway callback or a
// caller-driven request, never invoked concurrently with another.
package trading

import (
	"tradeengine/gateway"
	"tradeengine/model"
)

// Config tunes a Coordinator.
type Config struct {
	Retry gateway.RetryConfig

	// TraderID is embedded into the model.OrderID minted once the exchange
	// assigns an OrderSysID (§3, "exchangeId:traderId:orderLocalId").
	TraderID string

	// FastLastTick is the optional "fast-query-last-tick hook" used when
	// resolving a market order's price bound (§4.5 step 2): if set and it
	// returns a tick for the current trading day, its bands/limits are
	// used directly instead of falling back to a depth-market-data query.
	FastLastTick func(model.Symbol) (model.Tick, bool)
}

func (c Config) withDefaults() Config {
	// gateway.RetryConfig's defaulting is unexported; gateway.Retry applies
	// it on every call, so there is nothing to normalize here beyond
	// leaving the zero value as-is for gateway.Retry to fill in.
	return c
}

// OrderEventListener receives the order-lifecycle notifications the
// Trading Coordinator emits as it reduces gateway callbacks (§4.5): entrust
// on submission acceptance, trade on every fill, cancel and reject on
// terminal non-fill outcomes.
type OrderEventListener interface {
	OnEntrust(order *model.Order)
	OnTrade(order *model.Order, trade *model.Trade)
	OnCancel(order *model.Order)
	OnReject(order *model.Order)
}

// OpenReceiver is notified once the login pipeline completes (§4.5 state
// LoadingPositions: "fire onOpen once").
type OpenReceiver interface {
	OnOpen()
}

// PlaceReceiver is the per-request result pair for a placeOrder call.
type PlaceReceiver interface {
	OnPlaceOrderSent(receiptID model.ReceiptID)
	OnPlaceOrderError(reason string)
}

// CancelReceiver is the per-request result pair for a cancelOrder call.
type CancelReceiver interface {
	OnCancelOrderSent()
	OnCancelOrderError(reason string)
}

// MarginRateReceiver receives the result of a queryMarginRate call.
type MarginRateReceiver interface {
	OnMarginRate(rate model.MarginRate)
}

// CommissionRateReceiver receives the result of a queryCommissionRate call.
type CommissionRateReceiver interface {
	OnCommissionRate(rate model.CommissionRate)
}

// AccountsReceiver receives the result of a queryAccounts call.
type AccountsReceiver interface {
	OnAccounts(accounts []model.Account)
}

// PositionDetailsReceiver receives the result of a queryPositionDetails call.
type PositionDetailsReceiver interface {
	OnPositionDetails(details []model.PositionDetail)
}

// Stable per-request error reasons (§7).
const (
	ReasonRiskRejected       = "Risk Rejected"
	ReasonInvalidVolume      = "Invalid Volume"
	ReasonInstrumentNotFound = "Instrument Not Found"
	ReasonExchangeIDError    = "Exchange Id Error"
	ReasonRequestError       = "Request Error"
	ReasonOrderNotFound      = "Order Not Found"
	ReasonAlreadyCanceled    = "Already Canceled"
)
