// Package model defines the engine's shared, immutable data types: ticks,
// tape records, bars, orders, trades, positions, rates and instruments.
// Types here are handed to strategy/risk-manager callbacks as read-only
// snapshots (see the Clone methods). The few mutating methods
// (PendingPosition.Set, Bucket.Set, Order.RecalcTraded) act on the owning
// component's working copies, never on a snapshot already handed out.
package model

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxValue is the gateway's sentinel for "field absent" on price/volume
// fields, matching the source protocol's use of a numeric maximum in place
// of an explicit optional.
const MaxValue = 1.7976931348623157e+308 // DBL_MAX sentinel, as the gateway reports it

// Symbol identifies a tradable instrument as instrumentId.exchangeId. The
// gateway only ever addresses an instrument by instrumentId; the engine is
// responsible for the exchangeId half of the round trip (§3).
type Symbol struct {
	InstrumentID string
	ExchangeID   string
}

// ParseSymbol splits "instrumentId.exchangeId" into a Symbol. It returns an
// error if s does not contain exactly one '.'.
func ParseSymbol(s string) (Symbol, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Symbol{}, fmt.Errorf("model: invalid symbol %q, want instrumentId.exchangeId", s)
	}
	return Symbol{InstrumentID: parts[0], ExchangeID: parts[1]}, nil
}

// String renders the symbol back to "instrumentId.exchangeId".
func (s Symbol) String() string {
	return s.InstrumentID + "." + s.ExchangeID
}

// IsZero reports whether s was never populated.
func (s Symbol) IsZero() bool {
	return s.InstrumentID == "" && s.ExchangeID == ""
}

// OrderID identifies an accepted order as exchangeId:traderId:orderLocalId.
// It becomes stable only once the exchange has accepted the order; before
// that, callers correlate via ReceiptID.
type OrderID struct {
	ExchangeID   string
	TraderID     string
	OrderLocalID string
}

func (o OrderID) String() string {
	return strings.Join([]string{o.ExchangeID, o.TraderID, o.OrderLocalID}, ":")
}

func (o OrderID) IsZero() bool {
	return o.ExchangeID == "" && o.TraderID == "" && o.OrderLocalID == ""
}

// ParseOrderID parses "exchangeId:traderId:orderLocalId".
func ParseOrderID(s string) (OrderID, error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) != 3 {
		return OrderID{}, fmt.Errorf("model: invalid order id %q, want exchangeId:traderId:orderLocalId", s)
	}
	return OrderID{ExchangeID: parts[0], TraderID: parts[1], OrderLocalID: parts[2]}, nil
}

// ReceiptID is minted by the client at submission time, before the exchange
// assigns an OrderID, so the requester can correlate the eventual result.
type ReceiptID struct {
	FrontID   int32
	SessionID int32
	OrderRef  int64
}

func (r ReceiptID) String() string {
	return fmt.Sprintf("%d:%d:%d", r.FrontID, r.SessionID, r.OrderRef)
}

// ParseReceiptID parses "frontId:sessionId:orderRef".
func ParseReceiptID(s string) (ReceiptID, error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) != 3 {
		return ReceiptID{}, fmt.Errorf("model: invalid receipt id %q", s)
	}
	front, err := strconv.ParseInt(parts[0], 10, 32)
	if err != nil {
		return ReceiptID{}, fmt.Errorf("model: invalid front id in %q: %w", s, err)
	}
	session, err := strconv.ParseInt(parts[1], 10, 32)
	if err != nil {
		return ReceiptID{}, fmt.Errorf("model: invalid session id in %q: %w", s, err)
	}
	ref, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return ReceiptID{}, fmt.Errorf("model: invalid order ref in %q: %w", s, err)
	}
	return ReceiptID{FrontID: int32(front), SessionID: int32(session), OrderRef: ref}, nil
}
