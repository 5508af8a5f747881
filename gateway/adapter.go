package gateway

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"tradeengine/logger"
)

// RetryConfig tunes the backpressure retry loop (§4.1, §9: "Rate/limit/
// backoff tuning for network retries is treated as a policy knob").
type RetryConfig struct {
	// Interval between retry attempts on -2/-3. Defaults to 100ms.
	Interval time.Duration
	// MaxAttempts caps the number of Submit attempts; 0 means unlimited.
	MaxAttempts int
}

func (c RetryConfig) withDefaults() RetryConfig {
	if c.Interval <= 0 {
		c.Interval = 100 * time.Millisecond
	}
	return c
}

// Adapter wraps a TradeGateway with the suspension-free "submit request,
// get the accepted request id" model described in §4.1. Its retry loop,
// Retry, is the only place in the engine that suspends cooperatively (§5);
// market.Router and trading.Coordinator call Retry directly.
type Adapter struct {
	trade  TradeGateway
	retry  RetryConfig
}

// NewAdapter builds an Adapter over trade. retry's zero value takes the
// documented defaults.
func NewAdapter(trade TradeGateway, retry RetryConfig) *Adapter {
	return &Adapter{trade: trade, retry: retry.withDefaults()}
}

// Submit issues reqFn, retrying on -2/-3 backpressure every retry.Interval,
// and returns the accepted request's id (via LastRequestID) on success, or
// an error once the request fails terminally or MaxAttempts is exhausted.
// ctx is honored between retry attempts only — a single reqFn() call is
// never itself interrupted, matching the gateway's synchronous call shape.
func (a *Adapter) Submit(ctx context.Context, reqFn func() int32) (int, error) {
	if err := Retry(ctx, a.retry, reqFn); err != nil {
		return 0, err
	}
	return a.trade.LastRequestID(), nil
}

// Retry runs reqFn under the same backpressure-retry loop Submit uses,
// without resolving a request id afterward. It is the primitive behind
// Submit and is also what callers with no per-request id to correlate
// (e.g. market.Router's batched subscribe/unsubscribe) use directly.
func Retry(ctx context.Context, retry RetryConfig, reqFn func() int32) error {
	retry = retry.withDefaults()
	traceID := uuid.NewString()
	attempt := 0
	for {
		attempt++
		code := reqFn()
		result := Classify(code)

		switch result {
		case ResultOK:
			logger.WithFields(logrus.Fields{
				"trace": traceID, "attempt": attempt,
			}).Debug("gateway request accepted")
			return nil
		case ResultRetry:
			logger.WithFields(logrus.Fields{
				"trace": traceID, "attempt": attempt, "code": code,
			}).Debug("gateway request backpressure, retrying")
			if retry.MaxAttempts > 0 && attempt >= retry.MaxAttempts {
				return &RequestError{Code: int(code)}
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retry.Interval):
			}
		default:
			return &RequestError{Code: int(code)}
		}
	}
}

// RequestError is returned by Submit when the gateway reports a terminal
// failure or backpressure retries are exhausted.
type RequestError struct {
	Code int
}

func (e *RequestError) Error() string {
	return "gateway: request failed, code=" + strconv.Itoa(e.Code)
}

// ClassifyError is the §4.1/§7 helper: given a callback's optional error
// payload, it maps it to an engine-level error kind and routes it through
// sink, returning whether the payload indicated an error at all ("was
// error").
func ClassifyError(sink ErrorSink, kind ErrorKind, info *RspInfo) bool {
	if info == nil || info.ErrorID == 0 {
		return false
	}
	if sink != nil {
		sink.OnError(kind, FormatRspInfo(info))
	}
	return true
}
