package model

// Side is the direction of an order or position: long (buy) or short (sell).
type Side int

const (
	SideUnknown Side = iota
	SideLong
	SideShort
)

func (s Side) String() string {
	switch s {
	case SideLong:
		return "long"
	case SideShort:
		return "short"
	default:
		return "unknown"
	}
}

// Opposite returns the other side; SideUnknown maps to itself.
func (s Side) Opposite() Side {
	switch s {
	case SideLong:
		return SideShort
	case SideShort:
		return SideLong
	default:
		return SideUnknown
	}
}

// Offset says whether an order opens a new position, closes a history
// position, or closes a today position. Close-today is an exchange-specific
// concept (SHFE/INE split "today" from "history" positions).
type Offset int

const (
	OffsetUnknown Offset = iota
	OffsetOpen
	OffsetClose
	OffsetCloseToday
)

func (o Offset) String() string {
	switch o {
	case OffsetOpen:
		return "open"
	case OffsetClose:
		return "close"
	case OffsetCloseToday:
		return "close-today"
	default:
		return "unknown"
	}
}

// OrderFlag distinguishes a limit order (explicit price) from a market
// order (converted to a limit order at an exchange price bound, §4.5).
type OrderFlag int

const (
	OrderFlagLimit OrderFlag = iota
	OrderFlagMarket
)

func (f OrderFlag) String() string {
	if f == OrderFlagMarket {
		return "market"
	}
	return "limit"
}

// OrderStatus is the client-side reduction of the gateway's raw order state
// (§4.5 "Order lifecycle reduction").
type OrderStatus int

const (
	OrderStatusSubmitted OrderStatus = iota
	OrderStatusPartiallyFilled
	OrderStatusFilled
	OrderStatusCanceled
	OrderStatusRejected
)

func (s OrderStatus) String() string {
	switch s {
	case OrderStatusSubmitted:
		return "submitted"
	case OrderStatusPartiallyFilled:
		return "partially-filled"
	case OrderStatusFilled:
		return "filled"
	case OrderStatusCanceled:
		return "canceled"
	case OrderStatusRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// ProductType classifies an instrument.
type ProductType int

const (
	ProductUnknown ProductType = iota
	ProductFutures
	ProductOptions
	ProductSpot
	ProductSpotOptions
)

func (p ProductType) String() string {
	switch p {
	case ProductFutures:
		return "futures"
	case ProductOptions:
		return "options"
	case ProductSpot:
		return "spot"
	case ProductSpotOptions:
		return "spot-options"
	default:
		return "unknown"
	}
}

// TapeType classifies the position-change intent implied by a tick (§4.2).
type TapeType int

const (
	TapeTypeOpen TapeType = iota
	TapeTypeClose
	TapeTypeDualOpen
	TapeTypeDualClose
	TapeTypeTurnover
	TapeTypeNoDeal
)

func (t TapeType) String() string {
	switch t {
	case TapeTypeOpen:
		return "open"
	case TapeTypeClose:
		return "close"
	case TapeTypeDualOpen:
		return "dual-open"
	case TapeTypeDualClose:
		return "dual-close"
	case TapeTypeTurnover:
		return "turnover"
	default:
		return "no-deal"
	}
}

// TapeDirection is the price-move direction implied by a tick (§4.2).
type TapeDirection int

const (
	TapeDirectionNone TapeDirection = iota
	TapeDirectionUp
	TapeDirectionDown
)

func (d TapeDirection) String() string {
	switch d {
	case TapeDirectionUp:
		return "up"
	case TapeDirectionDown:
		return "down"
	default:
		return "none"
	}
}

// TapeStatus is the composition of TapeType and TapeDirection (§4.2).
type TapeStatus int

const (
	TapeStatusInvalid TapeStatus = iota
	TapeStatusOpenLong
	TapeStatusOpenShort
	TapeStatusCloseLong
	TapeStatusCloseShort
	TapeStatusTurnoverLong
	TapeStatusTurnoverShort
	TapeStatusDualOpen
	TapeStatusDualClose
)

func (s TapeStatus) String() string {
	switch s {
	case TapeStatusOpenLong:
		return "open-long"
	case TapeStatusOpenShort:
		return "open-short"
	case TapeStatusCloseLong:
		return "close-long"
	case TapeStatusCloseShort:
		return "close-short"
	case TapeStatusTurnoverLong:
		return "turnover-long"
	case TapeStatusTurnoverShort:
		return "turnover-short"
	case TapeStatusDualOpen:
		return "dual-open"
	case TapeStatusDualClose:
		return "dual-close"
	default:
		return "invalid"
	}
}
