package trading

import (
	"fmt"

	"tradeengine/gateway"
	"tradeengine/model"
)

// ReduceOrderStatus maps a gateway's raw order status onto the engine's
// model.OrderStatus (§4.5 "Order lifecycle reduction"). A raw canceled
// status carrying a non-none cancel reason means the exchange rejected the
// order rather than genuinely canceling it.
func ReduceOrderStatus(raw gateway.RawOrder) model.OrderStatus {
	switch raw.OrderStatus {
	case gateway.RawOrderStatusAllTraded:
		return model.OrderStatusFilled
	case gateway.RawOrderStatusCanceled:
		if raw.CancelReason != gateway.RawCancelReasonNone {
			return model.OrderStatusRejected
		}
		return model.OrderStatusCanceled
	case gateway.RawOrderStatusPartTraded:
		return model.OrderStatusPartiallyFilled
	case gateway.RawOrderStatusNoneTraded:
		return model.OrderStatusSubmitted
	default:
		switch {
		case raw.VolumeTotalOriginal > 0 && raw.VolumeTraded >= raw.VolumeTotalOriginal:
			return model.OrderStatusFilled
		case raw.VolumeTraded > 0:
			return model.OrderStatusPartiallyFilled
		default:
			return model.OrderStatusSubmitted
		}
	}
}

func translateSide(direction int) model.Side {
	if direction == 1 {
		return model.SideShort
	}
	return model.SideLong
}

func translateOffset(offsetFlag int) model.Offset {
	switch offsetFlag {
	case 1:
		return model.OffsetClose
	case 2:
		return model.OffsetCloseToday
	default:
		return model.OffsetOpen
	}
}

func translateFlag(orderPriceType int) model.OrderFlag {
	if orderPriceType == 1 {
		return model.OrderFlagMarket
	}
	return model.OrderFlagLimit
}

// buildOrderFromRaw constructs an *model.Order from a raw callback payload,
// leaving Traded/Trades untouched — callers decide whether those carry
// over from an existing snapshot (live updates) or are set directly from
// the raw payload (login reload, §4.5).
func buildOrderFromRaw(traderID string, raw gateway.RawOrder) *model.Order {
	var id model.OrderID
	if raw.OrderSysID != "" {
		id = model.OrderID{ExchangeID: raw.ExchangeID, TraderID: traderID, OrderLocalID: raw.OrderSysID}
	}
	return &model.Order{
		ID:         id,
		ReceiptID:  model.ReceiptID{FrontID: raw.FrontID, SessionID: raw.SessionID, OrderRef: raw.OrderRef},
		Symbol:     model.Symbol{InstrumentID: raw.InstrumentID, ExchangeID: raw.ExchangeID},
		InsertDate: raw.InsertDate,
		InsertTime: raw.InsertTime,
		Side:       translateSide(raw.Direction),
		Offset:     translateOffset(raw.OffsetFlag),
		Flag:       translateFlag(raw.OrderPriceType),
		Price:      raw.LimitPrice,
		Volume:     raw.VolumeTotalOriginal,
		Status:     ReduceOrderStatus(raw),
		CancelTime: raw.CancelTime,
	}
}

// applyRawOrder folds one OnRspQryOrder record into the order book during
// login reload; trades are attached afterward by applyRawTrade, so Traded
// is taken from the raw snapshot directly here.
func (c *Coordinator) applyRawOrder(raw gateway.RawOrder) {
	order := buildOrderFromRaw(c.cfg.TraderID, raw)
	order.Traded = raw.VolumeTraded
	c.orders[raw.OrderRef] = order
}

// applyRawTrade attaches a historical trade record during login reload; it
// does not touch positions or statistics, which are reloaded wholesale
// from ReqQryInvestorPosition instead (§4.5).
func (c *Coordinator) applyRawTrade(raw gateway.RawTrade, _ bool) {
	order, ok := c.orders[raw.OrderRef]
	if !ok {
		return
	}
	order.Trades = append(order.Trades, model.Trade{
		ID:     raw.TradeID,
		OrderID: order.ID,
		Date:   raw.TradeDate,
		Time:   raw.TradeTime,
		Price:  raw.Price,
		Volume: raw.Volume,
	})
	order.RecalcTraded()
}

// OnRtnOrder reduces a live order-state push (§4.5). Repeated callbacks
// that change neither OrderSubmitStatus nor OrderStatus are deduplicated
// and produce no side effects. The first sighting of an order records its
// pending/frozen reservation and emits OnEntrust; a transition into
// Canceled or Rejected releases that reservation and emits OnCancel/
// OnReject.
func (c *Coordinator) OnRtnOrder(raw gateway.RawOrder) {
	if c.lastRawOrderStatus == nil {
		c.lastRawOrderStatus = make(map[int64][2]int)
	}
	cur := [2]int{raw.OrderSubmitStatus, raw.OrderStatus}
	if prev, seen := c.lastRawOrderStatus[raw.OrderRef]; seen && prev == cur {
		return
	}
	c.lastRawOrderStatus[raw.OrderRef] = cur

	existing, existed := c.orders[raw.OrderRef]
	order := buildOrderFromRaw(c.cfg.TraderID, raw)
	if existed {
		order.Trades = existing.Trades
		order.Traded = existing.Traded
	} else {
		order.Traded = raw.VolumeTraded
	}
	c.orders[raw.OrderRef] = order

	if !existed {
		c._recordPending(order)
		c._freezePosition(order)
		c.statFor(order.Symbol).Entrusts++
		if c.listener != nil {
			c.listener.OnEntrust(order.Clone())
		}
	}

	switch order.Status {
	case model.OrderStatusFilled:
		c.statFor(order.Symbol).Filleds++
	case model.OrderStatusCanceled:
		c._recoverPending(order)
		c._unfreezePosition(order)
		c.statFor(order.Symbol).Cancels++
		if c.listener != nil {
			c.listener.OnCancel(order.Clone())
		}
	case model.OrderStatusRejected:
		c._recoverPending(order)
		c._unfreezePosition(order)
		c.statFor(order.Symbol).Rejects++
		if c.listener != nil {
			c.listener.OnReject(order.Clone())
		}
	}
}

// OnRtnTrade reduces a live fill (§4.5): the trade is appended, Traded is
// recalculated to keep invariant 1 from §8, the position view is updated,
// the position-details cache is invalidated, and OnTrade fires.
func (c *Coordinator) OnRtnTrade(raw gateway.RawTrade) {
	order, ok := c.orders[raw.OrderRef]
	if !ok {
		return
	}
	trade := model.Trade{
		ID:      raw.TradeID,
		OrderID: order.ID,
		Date:    raw.TradeDate,
		Time:    raw.TradeTime,
		Price:   raw.Price,
		Volume:  raw.Volume,
	}
	order.Trades = append(order.Trades, trade)
	order.RecalcTraded()
	if order.Traded >= order.Volume {
		order.Status = model.OrderStatusFilled
	} else if order.Traded > 0 {
		order.Status = model.OrderStatusPartiallyFilled
	}

	c.positionDetailsChanged = true
	c._calcPosition(order.Symbol, order.Side, order.Offset, trade.Volume)

	if c.listener != nil {
		c.listener.OnTrade(order.Clone(), &trade)
	}
}

func (c *Coordinator) submitForRequestID(reqFn func() int32) (int, error) {
	if err := gateway.Retry(c.ctx, c.cfg.Retry, reqFn); err != nil {
		return 0, err
	}
	return c.gw.LastRequestID(), nil
}

// PlaceLimitOrder submits a limit order at an explicit price (§4.5).
func (c *Coordinator) PlaceLimitOrder(sym model.Symbol, side model.Side, offset model.Offset, price float64, volume int64, receiver PlaceReceiver) {
	if volume <= 0 {
		receiver.OnPlaceOrderError(ReasonInvalidVolume)
		return
	}
	inst, ok := c.instruments[sym.InstrumentID]
	if !ok {
		receiver.OnPlaceOrderError(ReasonInstrumentNotFound)
		return
	}
	if inst.Symbol.ExchangeID != sym.ExchangeID {
		receiver.OnPlaceOrderError(ReasonExchangeIDError)
		return
	}
	c.submitLimitOrder(sym, side, offset, price, volume, receiver)
}

func (c *Coordinator) submitLimitOrder(sym model.Symbol, side model.Side, offset model.Offset, price float64, volume int64, receiver PlaceReceiver) {
	ref := c.nextOrderRef()
	req := gateway.OrderInsertRequest{
		InstrumentID: sym.InstrumentID,
		OrderRef:     ref,
		Side:         int(sideToWire(side)),
		Offset:       int(offsetToWire(offset)),
		Price:        price,
		Volume:       volume,
	}
	requestID, err := c.submitForRequestID(func() int32 { return c.gw.ReqOrderInsert(req) })
	if err != nil || requestID <= 0 {
		receiver.OnPlaceOrderError(ReasonRequestError)
		return
	}
	c.statFor(sym).Places++
	c.placeByRequestID[requestID] = receiver
	c.placeOrderRef[requestID] = ref
	receiptID := model.ReceiptID{FrontID: c.frontID, SessionID: c.sessionID, OrderRef: ref}
	receiver.OnPlaceOrderSent(receiptID)
}

func sideToWire(s model.Side) int {
	if s == model.SideShort {
		return 1
	}
	return 0
}

func offsetToWire(o model.Offset) int {
	switch o {
	case model.OffsetClose:
		return 1
	case model.OffsetCloseToday:
		return 2
	default:
		return 0
	}
}

// CancelOrder requests cancellation of the order identified by its
// OrderRef. Canceling an order that does not exist, or one whose cancel
// has already been accepted, fails synchronously (§4.5, §7).
func (c *Coordinator) CancelOrder(orderRef int64, receiver CancelReceiver) {
	order, ok := c.orders[orderRef]
	if !ok {
		receiver.OnCancelOrderError(ReasonOrderNotFound)
		return
	}
	if !order.CanCancel() {
		receiver.OnCancelOrderError(ReasonAlreadyCanceled)
		return
	}
	req := gateway.OrderActionRequest{
		InstrumentID: order.Symbol.InstrumentID,
		ExchangeID:   order.Symbol.ExchangeID,
		OrderSysID:   order.ID.OrderLocalID,
		FrontID:      c.frontID,
		SessionID:    c.sessionID,
		OrderRef:     orderRef,
	}
	requestID, err := c.submitForRequestID(func() int32 { return c.gw.ReqOrderAction(req) })
	if err != nil || requestID <= 0 {
		receiver.OnCancelOrderError(ReasonRequestError)
		return
	}
	c.cancelByRequestID[requestID] = receiver
	receiver.OnCancelOrderSent()
}

// OnRspOrderInsert routes an order-insert rejection back to the receiver
// that submitted it; a clean response needs no further action, since the
// original OnPlaceOrderSent already ran at submission time and the order's
// lifecycle from here on is carried by OnRtnOrder.
func (c *Coordinator) OnRspOrderInsert(requestID int, info *gateway.RspInfo) {
	receiver, ok := c.placeByRequestID[requestID]
	if !ok {
		return
	}
	delete(c.placeByRequestID, requestID)
	delete(c.placeOrderRef, requestID)
	if info != nil && info.ErrorID != 0 {
		receiver.OnPlaceOrderError(formatRejectReason(info))
	}
}

// OnRspOrderAction routes an order-action (cancel) rejection back to the
// receiver that submitted it.
func (c *Coordinator) OnRspOrderAction(requestID int, info *gateway.RspInfo) {
	receiver, ok := c.cancelByRequestID[requestID]
	if !ok {
		return
	}
	delete(c.cancelByRequestID, requestID)
	if info != nil && info.ErrorID != 0 {
		receiver.OnCancelOrderError(formatRejectReason(info))
	}
}

// formatRejectReason renders a RspInfo into the "{errId}: {errMsg}" reason
// string a place/cancel receiver sees (spec.md:200/:240) — distinct from
// gateway.FormatRspInfo's colon-only "{errorId}:{errorMsg}" wire format,
// which is reserved for the global error sink (spec.md:238).
func formatRejectReason(info *gateway.RspInfo) string {
	return fmt.Sprintf("%d: %s", info.ErrorID, info.ErrorMsg)
}
