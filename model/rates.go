package model

// RateComponent is a ratio + per-volume amount pair, the shape shared by
// commission and margin rates for each offset/side bucket (§3).
type RateComponent struct {
	Ratio  float64
	Amount float64
}

// CommissionRate is split by open/close/close-today.
type CommissionRate struct {
	Symbol     Symbol
	Open       RateComponent
	Close      RateComponent
	CloseToday RateComponent
}

// MarginRate is split by long/short.
type MarginRate struct {
	Symbol Symbol
	Long   RateComponent
	Short  RateComponent
}

// OrderStatistic carries per-symbol, per-trading-day monotonic counters
// (§3, §8 property 2: places >= entrusts >= filleds+cancels+rejects).
type OrderStatistic struct {
	Symbol     Symbol
	TradingDay string
	Places     int64
	Entrusts   int64
	Filleds    int64
	Cancels    int64
	Rejects    int64
}

// Consistent reports whether the statistic satisfies property 2 from §8.
func (s OrderStatistic) Consistent() bool {
	return s.Places >= s.Entrusts && s.Entrusts >= s.Filleds+s.Cancels+s.Rejects
}

// Clone returns a copy (value type, no reference fields).
func (s OrderStatistic) Clone() OrderStatistic { return s }

// Account is the trading-account snapshot returned by the accounts query
// (§4.5); the engine treats the whole account list as one cached unit
// rather than keying it per symbol.
type Account struct {
	AccountID      string
	Available      float64
	Balance        float64
	Margin         float64
	FrozenMargin   float64
	Commission     float64
	CloseProfit    float64
	PositionProfit float64
}
