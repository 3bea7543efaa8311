package shared

import (
	"time"
)

// Recommendation represents the final multi-timeframe recommendation for a market.
type Recommendation int

const (
	NeutralRecommendation Recommendation = iota
	StrongBuy
	Buy
	Sell
	StrongSell
	Conflicted
)

// String stringifies the provided recommendation.
func (r Recommendation) String() string {
	switch r {
	case NeutralRecommendation:
		return "neutral"
	case StrongBuy:
		return "strong_buy"
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	case StrongSell:
		return "strong_sell"
	case Conflicted:
		return "conflicted"
	default:
		return "unknown"
	}
}

// TimeframeAlignment represents the degree to which timeframes agree on direction.
type TimeframeAlignment struct {
	Aligned               bool
	AlignedTimeframes     []Timeframe
	ConflictingTimeframes []Timeframe
	DominantTrend         Trend
	AlignmentScore        float64
}

// MultiTimeframeAnalysis represents the combination of a market's per-timeframe signals.
type MultiTimeframeAnalysis struct {
	ID              string
	Market          string
	Signals         map[Timeframe]*TradingSignal
	Alignment       TimeframeAlignment
	ConflictWarning *string
	OverallStrength float64
	Recommendation  Recommendation
	CreatedOn       time.Time
}

// Signal returns the signal of the provided timeframe, nil if absent.
func (a *MultiTimeframeAnalysis) Signal(timeframe Timeframe) *TradingSignal {
	if a.Signals == nil {
		return nil
	}

	return a.Signals[timeframe]
}
