package model

// Instrument describes one tradable contract (§3).
type Instrument struct {
	Symbol      Symbol
	Name        string
	ProductID   string
	ProductType ProductType

	// DeliveryTime is year*100+month, as the wire encodes it.
	DeliveryTime int

	OpenDate   string
	ExpireDate string

	VolumeMultiple float64
	PriceTick      float64

	MinLimitOrderVolume int64
	MaxLimitOrderVolume int64

	// Options-specific fields; zero value means "not an option".
	StrikePrice float64
	IsCall      bool
}

// Multiple returns the contract's volume multiple, defaulting to 1 when the
// field was never populated (spot instruments commonly omit it).
func (i Instrument) Multiple() float64 {
	if i.VolumeMultiple == 0 {
		return 1
	}
	return i.VolumeMultiple
}

// Tick returns the instrument's minimum price increment.
func (i Instrument) Tick() float64 {
	return i.PriceTick
}

// IsDerivative reports whether the instrument is futures or options, the
// filter the login pipeline applies when loading instruments (§4.5, state
// LoadingInstruments: "keep only futures/options").
func (i Instrument) IsDerivative() bool {
	return i.ProductType == ProductFutures || i.ProductType == ProductOptions
}

// TodayHistoryQuirk identifies exchanges that report "today" position in a
// separate wire field (TodayPosition), with history derived as
// Position-TodayPosition; other exchanges report today and history as
// separate rows told apart by PositionDate (§4.5, "Exchange-specific quirk").
func TodayHistoryQuirk(exchangeID string) bool {
	switch exchangeID {
	case "SHFE", "INE":
		return true
	default:
		return false
	}
}
