package trading

import (
	"time"

	"tradeengine/gateway"
	"tradeengine/model"
)

// accountsStaleAfter is spec.md's exact snapshot staleness window (§4.5):
// a cached account snapshot answers a query only while it is younger than
// this.
const accountsStaleAfter = 3 * time.Second

// marginRateCache implements §4.5's margin-rate query coalescing: a cache
// plus a single global FIFO of instrument ids awaiting a response, mutated
// only from the coordinator's callback thread (see DESIGN.md for why
// golang.org/x/sync/singleflight does not fit this role).
type marginRateCache struct {
	cache   map[string]model.MarginRate
	queue   []string
	waiters map[string][]MarginRateReceiver
}

func newMarginRateCache() marginRateCache {
	return marginRateCache{
		cache:   make(map[string]model.MarginRate),
		waiters: make(map[string][]MarginRateReceiver),
	}
}

func (m *marginRateCache) query(c *Coordinator, instrumentID string, receiver MarginRateReceiver) {
	if rate, ok := m.cache[instrumentID]; ok {
		receiver.OnMarginRate(rate)
		return
	}
	_, alreadyQueued := m.waiters[instrumentID]
	wasEmpty := len(m.queue) == 0
	m.waiters[instrumentID] = append(m.waiters[instrumentID], receiver)
	if !alreadyQueued {
		m.queue = append(m.queue, instrumentID)
	}
	if wasEmpty && c.isReady() {
		c.submit(func() int32 { return c.gw.ReqQryInstrumentMarginRate(instrumentID) })
	}
}

func (m *marginRateCache) onResponse(c *Coordinator, raw gateway.RawMarginRate, info *gateway.RspInfo) {
	if len(m.queue) == 0 {
		return
	}
	instrumentID := m.queue[0]
	m.queue = m.queue[1:]
	waiters := m.waiters[instrumentID]
	delete(m.waiters, instrumentID)

	if !gateway.ClassifyError(c.sink, gateway.ErrorQueryMarginRate, info) {
		rate := translateMarginRate(instrumentID, raw)
		m.cache[instrumentID] = rate
		for _, w := range waiters {
			w.OnMarginRate(rate)
		}
	}
	m.issueNext(c)
}

func (m *marginRateCache) issueNext(c *Coordinator) {
	for len(m.queue) > 0 {
		next := m.queue[0]
		rate, cached := m.cache[next]
		if !cached {
			c.submit(func() int32 { return c.gw.ReqQryInstrumentMarginRate(next) })
			return
		}
		m.queue = m.queue[1:]
		waiters := m.waiters[next]
		delete(m.waiters, next)
		for _, w := range waiters {
			w.OnMarginRate(rate)
		}
	}
}

// kick issues the head-of-queue request once the coordinator reaches Ready,
// for any query made while the pipeline was still logging in.
func (m *marginRateCache) kick(c *Coordinator) {
	if len(m.queue) == 0 {
		return
	}
	c.submit(func() int32 { return c.gw.ReqQryInstrumentMarginRate(m.queue[0]) })
}

func translateMarginRate(instrumentID string, raw gateway.RawMarginRate) model.MarginRate {
	return model.MarginRate{
		Symbol: model.Symbol{InstrumentID: instrumentID},
		Long:   model.RateComponent{Ratio: raw.LongMarginRatioByMoney, Amount: raw.LongMarginRatioByVolume},
		Short:  model.RateComponent{Ratio: raw.ShortMarginRatioByMoney, Amount: raw.ShortMarginRatioByVolume},
	}
}

// commissionRateCache mirrors marginRateCache for commission-rate queries.
type commissionRateCache struct {
	cache   map[string]model.CommissionRate
	queue   []string
	waiters map[string][]CommissionRateReceiver
}

func newCommissionRateCache() commissionRateCache {
	return commissionRateCache{
		cache:   make(map[string]model.CommissionRate),
		waiters: make(map[string][]CommissionRateReceiver),
	}
}

func (m *commissionRateCache) query(c *Coordinator, instrumentID string, receiver CommissionRateReceiver) {
	if rate, ok := m.cache[instrumentID]; ok {
		receiver.OnCommissionRate(rate)
		return
	}
	_, alreadyQueued := m.waiters[instrumentID]
	wasEmpty := len(m.queue) == 0
	m.waiters[instrumentID] = append(m.waiters[instrumentID], receiver)
	if !alreadyQueued {
		m.queue = append(m.queue, instrumentID)
	}
	if wasEmpty && c.isReady() {
		c.submit(func() int32 { return c.gw.ReqQryInstrumentCommissionRate(instrumentID) })
	}
}

func (m *commissionRateCache) onResponse(c *Coordinator, raw gateway.RawCommissionRate, info *gateway.RspInfo) {
	if len(m.queue) == 0 {
		return
	}
	instrumentID := m.queue[0]
	m.queue = m.queue[1:]
	waiters := m.waiters[instrumentID]
	delete(m.waiters, instrumentID)

	if !gateway.ClassifyError(c.sink, gateway.ErrorQueryCommissionRate, info) {
		rate := translateCommissionRate(instrumentID, raw)
		m.cache[instrumentID] = rate
		for _, w := range waiters {
			w.OnCommissionRate(rate)
		}
	}
	m.issueNext(c)
}

func (m *commissionRateCache) issueNext(c *Coordinator) {
	for len(m.queue) > 0 {
		next := m.queue[0]
		rate, cached := m.cache[next]
		if !cached {
			c.submit(func() int32 { return c.gw.ReqQryInstrumentCommissionRate(next) })
			return
		}
		m.queue = m.queue[1:]
		waiters := m.waiters[next]
		delete(m.waiters, next)
		for _, w := range waiters {
			w.OnCommissionRate(rate)
		}
	}
}

func (m *commissionRateCache) kick(c *Coordinator) {
	if len(m.queue) == 0 {
		return
	}
	c.submit(func() int32 { return c.gw.ReqQryInstrumentCommissionRate(m.queue[0]) })
}

func translateCommissionRate(instrumentID string, raw gateway.RawCommissionRate) model.CommissionRate {
	return model.CommissionRate{
		Symbol:     model.Symbol{InstrumentID: instrumentID},
		Open:       model.RateComponent{Ratio: raw.OpenRatioByMoney, Amount: raw.OpenRatioByVolume},
		Close:      model.RateComponent{Ratio: raw.CloseRatioByMoney, Amount: raw.CloseRatioByVolume},
		CloseToday: model.RateComponent{Ratio: raw.CloseTodayRatioByMoney, Amount: raw.CloseTodayRatioByVolume},
	}
}

// isReady reports whether the login pipeline has completed at least once.
func (c *Coordinator) isReady() bool { return c.openedOnce }

// QueryMarginRate answers from cache synchronously on a hit, or enqueues the
// request and answers once the gateway responds (§4.5).
func (c *Coordinator) QueryMarginRate(sym model.Symbol, receiver MarginRateReceiver) {
	c.marginRates.query(c, sym.InstrumentID, receiver)
}

// OnRspQryInstrumentMarginRate resolves the head of the margin-rate queue.
func (c *Coordinator) OnRspQryInstrumentMarginRate(raw gateway.RawMarginRate, info *gateway.RspInfo) {
	c.marginRates.onResponse(c, raw, info)
}

// QueryCommissionRate mirrors QueryMarginRate for commission rates.
func (c *Coordinator) QueryCommissionRate(sym model.Symbol, receiver CommissionRateReceiver) {
	c.commRates.query(c, sym.InstrumentID, receiver)
}

// OnRspQryInstrumentCommissionRate resolves the head of the commission-rate
// queue.
func (c *Coordinator) OnRspQryInstrumentCommissionRate(raw gateway.RawCommissionRate, info *gateway.RspInfo) {
	c.commRates.onResponse(c, raw, info)
}

// QueryAccounts answers from a fresh (<3s old) cached snapshot, joins an
// in-flight request, or issues a new one (§4.5).
func (c *Coordinator) QueryAccounts(receiver AccountsReceiver) {
	if c.accountsInFlight {
		c.accountsWaiters = append(c.accountsWaiters, receiver)
		return
	}
	if !c.accountsSnapshotAt.IsZero() && model.Now().Sub(c.accountsSnapshotAt) < accountsStaleAfter {
		receiver.OnAccounts(c.accountsCache)
		return
	}
	c.accountsInFlight = true
	c.accountsAccum = nil
	c.accountsWaiters = append(c.accountsWaiters, receiver)
	if c.isReady() {
		c.submit(func() int32 { return c.gw.ReqQryTradingAccount() })
	}
}

// OnRspQryTradingAccount accumulates the streamed account snapshot and, on
// the last record, flushes every waiter and refreshes the cache.
func (c *Coordinator) OnRspQryTradingAccount(raw gateway.RawAccount, isLast bool, info *gateway.RspInfo) {
	if !gateway.ClassifyError(c.sink, gateway.ErrorQueryAccounts, info) && raw.AccountID != "" {
		c.accountsAccum = append(c.accountsAccum, translateAccount(raw))
	}
	if !isLast {
		return
	}
	c.accountsCache = c.accountsAccum
	c.accountsSnapshotAt = model.Now()
	c.accountsInFlight = false
	waiters := c.accountsWaiters
	c.accountsWaiters = nil
	for _, w := range waiters {
		w.OnAccounts(c.accountsCache)
	}
}

func translateAccount(raw gateway.RawAccount) model.Account {
	return model.Account{
		AccountID:      raw.AccountID,
		Available:      raw.Available,
		Balance:        raw.Balance,
		Margin:         raw.Margin,
		FrozenMargin:   raw.FrozenMargin,
		Commission:     raw.Commission,
		CloseProfit:    raw.CloseProfit,
		PositionProfit: raw.PositionProfit,
	}
}

// QueryPositionDetails answers from cache unless a trade has landed since
// the last query invalidated it (§4.5).
func (c *Coordinator) QueryPositionDetails(receiver PositionDetailsReceiver) {
	if c.positionDetailsInFlight {
		c.positionDetailsWaiters = append(c.positionDetailsWaiters, receiver)
		return
	}
	if !c.positionDetailsChanged {
		receiver.OnPositionDetails(c.positionDetailsCache)
		return
	}
	c.positionDetailsInFlight = true
	c.positionDetailsAccum = nil
	c.positionDetailsWaiters = append(c.positionDetailsWaiters, receiver)
	if c.isReady() {
		c.submit(func() int32 { return c.gw.ReqQryInvestorPositionDetail() })
	}
}

// OnRspQryInvestorPositionDetail accumulates the streamed detail rows and,
// on the last record, flushes every waiter and marks the cache current.
func (c *Coordinator) OnRspQryInvestorPositionDetail(raw gateway.RawPositionDetail, isLast bool, info *gateway.RspInfo) {
	if !gateway.ClassifyError(c.sink, gateway.ErrorQueryPositionDetails, info) && raw.InstrumentID != "" {
		c.positionDetailsAccum = append(c.positionDetailsAccum, translatePositionDetail(raw))
	}
	if !isLast {
		return
	}
	c.positionDetailsCache = c.positionDetailsAccum
	c.positionDetailsChanged = false
	c.positionDetailsInFlight = false
	waiters := c.positionDetailsWaiters
	c.positionDetailsWaiters = nil
	for _, w := range waiters {
		w.OnPositionDetails(c.positionDetailsCache)
	}
}

func translatePositionDetail(raw gateway.RawPositionDetail) model.PositionDetail {
	side := model.SideLong
	if raw.Direction == 1 {
		side = model.SideShort
	}
	return model.PositionDetail{
		Symbol:    model.Symbol{InstrumentID: raw.InstrumentID, ExchangeID: raw.ExchangeID},
		Side:      side,
		Volume:    raw.Volume,
		OpenPrice: raw.OpenPrice,
		OpenDate:  raw.OpenDate,
	}
}
