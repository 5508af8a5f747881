// Package gateway defines the contract the engine requires from the
// upstream brokerage gateway SDK (§6) and wraps its synchronous
// "queue request, get numeric return" API with a suspension-free
// submit/retry primitive (§4.1). The gateway SDK itself is an external
// collaborator — this package never implements a concrete transport, only
// the interfaces and the adapter logic layered on top of them.
package gateway

import "strconv"

// RspInfo is the gateway's generic error payload, attached to any Rsp*
// callback when the request failed.
type RspInfo struct {
	ErrorID  int
	ErrorMsg string
}

// RequestResult classifies a gateway request's synchronous return code.
type RequestResult int

const (
	// ResultOK means the request was accepted; the accepted request's id
	// is then available via TradeGateway.LastRequestID.
	ResultOK RequestResult = iota
	// ResultRetry means the gateway is applying flow control (-2/-3);
	// the caller should wait and resubmit.
	ResultRetry
	// ResultFailed is any other negative return: a terminal failure.
	ResultFailed
)

// Classify maps a gateway's raw integer return code to a RequestResult,
// per §4.1: 0 = accepted, -2/-3 = retry, anything else negative = failure.
func Classify(code int32) RequestResult {
	switch {
	case code == 0:
		return ResultOK
	case code == -2 || code == -3:
		return ResultRetry
	default:
		return ResultFailed
	}
}

// ErrorKind enumerates the global error sink's error classes (§7).
type ErrorKind int

const (
	ErrorLogin ErrorKind = iota
	ErrorQueryOrder
	ErrorQueryTrade
	ErrorQueryInstrument
	ErrorQueryMarginRate
	ErrorQueryCommissionRate
	ErrorQueryAccounts
	ErrorQueryPositions
	ErrorQueryPositionDetails
	ErrorQueryDepthMarketData
	ErrorSubscribeMarketData
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorLogin:
		return "login-error"
	case ErrorQueryOrder:
		return "query-order-error"
	case ErrorQueryTrade:
		return "query-trade-error"
	case ErrorQueryInstrument:
		return "query-instrument-error"
	case ErrorQueryMarginRate:
		return "query-margin-rate-error"
	case ErrorQueryCommissionRate:
		return "query-commission-rate-error"
	case ErrorQueryAccounts:
		return "query-accounts-error"
	case ErrorQueryPositions:
		return "query-positions-error"
	case ErrorQueryPositionDetails:
		return "query-position-details-error"
	case ErrorQueryDepthMarketData:
		return "query-depth-market-data-error"
	case ErrorSubscribeMarketData:
		return "subscribe-market-data-error"
	default:
		return "unknown-error"
	}
}

// ErrorSink receives global, non-request-scoped errors (§7).
type ErrorSink interface {
	OnError(kind ErrorKind, message string)
}

// FormatRspInfo renders a RspInfo into the "{errorId}:{errorMsg}" wire
// message format §4.1/§7 specify.
func FormatRspInfo(info *RspInfo) string {
	if info == nil {
		return ""
	}
	return formatErr(info.ErrorID, info.ErrorMsg)
}

func formatErr(id int, msg string) string {
	return strconv.Itoa(id) + ":" + msg
}
