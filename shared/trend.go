package shared

// Trend represents the market trend.
type Trend int

const (
	NeutralTrend Trend = iota
	BullishTrend
	BearishTrend
)

// String stringifies the provided trend.
func (t Trend) String() string {
	switch t {
	case NeutralTrend:
		return "neutral"
	case BullishTrend:
		return "bullish"
	case BearishTrend:
		return "bearish"
	default:
		return "unknown"
	}
}

// Opposite returns the mirrored trend.
func (t Trend) Opposite() Trend {
	switch t {
	case BullishTrend:
		return BearishTrend
	case BearishTrend:
		return BullishTrend
	default:
		return NeutralTrend
	}
}
