package shared

import (
	"time"
)

// Signal represents the classified direction of a trading pair.
type Signal int

const (
	Neutral Signal = iota
	LongSignal
	ShortSignal
)

// String stringifies the provided signal.
func (s Signal) String() string {
	switch s {
	case Neutral:
		return "Neutral"
	case LongSignal:
		return "Long Signal"
	case ShortSignal:
		return "Short Signal"
	default:
		return "unknown"
	}
}

// CloudStatus represents the position of price relative to the cloud.
type CloudStatus int

const (
	InCloud CloudStatus = iota
	AboveCloud
	BelowCloud
)

// String stringifies the provided cloud status.
func (c CloudStatus) String() string {
	switch c {
	case InCloud:
		return "In Cloud"
	case AboveCloud:
		return "Above Cloud"
	case BelowCloud:
		return "Below Cloud"
	default:
		return "unknown"
	}
}

// TKCross represents the relationship between the tenkan-sen and kijun-sen.
type TKCross int

const (
	NoCross TKCross = iota
	BullishCross
	BearishCross
)

// String stringifies the provided tk cross.
func (t TKCross) String() string {
	switch t {
	case NoCross:
		return "No Cross"
	case BullishCross:
		return "Bullish Cross"
	case BearishCross:
		return "Bearish Cross"
	default:
		return "unknown"
	}
}

// ChikouStatus represents the lagging span relative to the close it is compared against.
type ChikouStatus int

const (
	ChikouEqual ChikouStatus = iota
	ChikouAbove
	ChikouBelow
)

// String stringifies the provided chikou status.
func (c ChikouStatus) String() string {
	switch c {
	case ChikouEqual:
		return "Equal"
	case ChikouAbove:
		return "Above"
	case ChikouBelow:
		return "Below"
	default:
		return "unknown"
	}
}

// Grade represents the confidence tier of a classified signal.
type Grade int

const (
	GradeC Grade = iota
	GradeB
	GradeA
)

// String stringifies the provided grade.
func (g Grade) String() string {
	switch g {
	case GradeA:
		return "A"
	case GradeB:
		return "B"
	case GradeC:
		return "C"
	default:
		return "unknown"
	}
}

// TradingSignal represents the classification of a market on a single timeframe.
type TradingSignal struct {
	Market       string
	Timeframe    Timeframe
	CurrentPrice float64
	Signal       Signal
	CloudStatus  CloudStatus
	TKCross      TKCross
	ChikouStatus ChikouStatus
	RSI          float64
	Grade        Grade

	// Optional fields, nil when unavailable.
	SignalStrength        *float64
	PriceChange24h        *float64
	PriceChangePercent24h *float64
	Volume24h             *float64

	CreatedOn time.Time
}

// Direction returns the trend implied by the signal.
func (s *TradingSignal) Direction() Trend {
	switch s.Signal {
	case LongSignal:
		return BullishTrend
	case ShortSignal:
		return BearishTrend
	default:
		return NeutralTrend
	}
}
