package engine

import (
	"github.com/dnldd/kumo/shared"
)

const (
	// rsiMidline separates bullish from bearish momentum.
	rsiMidline = float64(50)
	// rsiOverbought is the upper bound of the bullish confirmation band.
	rsiOverbought = float64(70)
	// rsiOversold is the lower bound of the bearish confirmation band.
	rsiOversold = float64(30)
)

// Classification represents the categorical evaluation of an ichimoku state.
type Classification struct {
	Signal       shared.Signal
	CloudStatus  shared.CloudStatus
	TKCross      shared.TKCross
	ChikouStatus shared.ChikouStatus
	Grade        shared.Grade
}

// CloudPosition returns the position of the current price relative to the cloud.
func CloudPosition(state *shared.IchimokuState) shared.CloudStatus {
	switch {
	case state.CurrentPrice > state.CloudTop():
		return shared.AboveCloud
	case state.CurrentPrice < state.CloudBottom():
		return shared.BelowCloud
	default:
		return shared.InCloud
	}
}

// TKCrossStatus returns the relation of the tenkan-sen to the kijun-sen.
func TKCrossStatus(state *shared.IchimokuState) shared.TKCross {
	switch {
	case state.Tenkan > state.Kijun:
		return shared.BullishCross
	case state.Tenkan < state.Kijun:
		return shared.BearishCross
	default:
		return shared.NoCross
	}
}

// ChikouPosition returns the relation of the lagging span to the close it is compared against.
func ChikouPosition(state *shared.IchimokuState) shared.ChikouStatus {
	switch {
	case state.Chikou > state.ChikouCompare:
		return shared.ChikouAbove
	case state.Chikou < state.ChikouCompare:
		return shared.ChikouBelow
	default:
		return shared.ChikouEqual
	}
}

// CloudTrend returns the trend implied by price relative to the cloud. A nil state is neutral.
func CloudTrend(state *shared.IchimokuState) shared.Trend {
	if state == nil {
		return shared.NeutralTrend
	}

	switch CloudPosition(state) {
	case shared.AboveCloud:
		return shared.BullishTrend
	case shared.BelowCloud:
		return shared.BearishTrend
	default:
		return shared.NeutralTrend
	}
}

// RSIBullish checks whether the rsi confirms bullish momentum without being overbought.
func RSIBullish(rsi float64) bool {
	return rsi > rsiMidline && rsi < rsiOverbought
}

// RSIBearish checks whether the rsi confirms bearish momentum without being oversold.
func RSIBearish(rsi float64) bool {
	return rsi > rsiOversold && rsi < rsiMidline
}

// Classify maps the provided ichimoku state to a signal and grade. A non-directional signal
// requires the cloud, tk cross and chikou span to agree. Grade A additionally requires the
// higher timeframe cloud trend and the rsi band to confirm the direction. The higher timeframe
// state is optional.
func Classify(state *shared.IchimokuState, higher *shared.IchimokuState) Classification {
	class := Classification{
		Signal:       shared.Neutral,
		CloudStatus:  CloudPosition(state),
		TKCross:      TKCrossStatus(state),
		ChikouStatus: ChikouPosition(state),
		Grade:        shared.GradeC,
	}

	higherTrend := CloudTrend(higher)

	switch {
	case class.CloudStatus == shared.AboveCloud && class.TKCross == shared.BullishCross &&
		class.ChikouStatus == shared.ChikouAbove:
		class.Signal = shared.LongSignal
		class.Grade = shared.GradeB
		if higherTrend == shared.BullishTrend && RSIBullish(state.RSI) {
			class.Grade = shared.GradeA
		}

	case class.CloudStatus == shared.BelowCloud && class.TKCross == shared.BearishCross &&
		class.ChikouStatus == shared.ChikouBelow:
		class.Signal = shared.ShortSignal
		class.Grade = shared.GradeB
		if higherTrend == shared.BearishTrend && RSIBearish(state.RSI) {
			class.Grade = shared.GradeA
		}
	}

	return class
}
