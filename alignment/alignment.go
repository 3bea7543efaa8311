package alignment

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dnldd/kumo/shared"
	"github.com/google/uuid"
)

const (
	// alignedScore is the alignment score of unanimous timeframes.
	alignedScore = float64(100)
	// alignedBonus is added to the overall strength of unanimous timeframes.
	alignedBonus = float64(15)
	// maxStrength is the overall strength ceiling.
	maxStrength = float64(100)
	// strongThreshold is the minimum overall strength of a strong recommendation.
	strongThreshold = float64(80)
	// threshold is the minimum overall strength of a directional recommendation.
	threshold = float64(60)
	// conflictSeparator joins simultaneous conflict warnings.
	conflictSeparator = " | "
	// mixedSignalsWarning is reported when timeframes disagree without a specific conflict.
	mixedSignalsWarning = "mixed signals across timeframes, no clear direction"
)

// dominancePriority lists timeframes by their precedence when picking the dominant signal.
var dominancePriority = []shared.Timeframe{shared.OneDay, shared.FourHour, shared.OneHour}

// present returns the timeframes with a signal, lowest first.
func present(signals map[shared.Timeframe]*shared.TradingSignal) []shared.Timeframe {
	timeframes := make([]shared.Timeframe, 0, len(shared.Timeframes))
	for _, timeframe := range shared.Timeframes {
		if signals[timeframe] != nil {
			timeframes = append(timeframes, timeframe)
		}
	}

	return timeframes
}

// Align determines the degree to which the provided timeframe signals agree on direction.
// Neutral signals count towards neither direction.
func Align(signals map[shared.Timeframe]*shared.TradingSignal) shared.TimeframeAlignment {
	timeframes := present(signals)

	var bullish, bearish int
	for _, timeframe := range timeframes {
		switch signals[timeframe].Direction() {
		case shared.BullishTrend:
			bullish++
		case shared.BearishTrend:
			bearish++
		}
	}

	alignment := shared.TimeframeAlignment{
		Aligned:               len(timeframes) > 0 && (bullish == len(timeframes) || bearish == len(timeframes)),
		AlignedTimeframes:     []shared.Timeframe{},
		ConflictingTimeframes: []shared.Timeframe{},
		DominantTrend:         shared.NeutralTrend,
	}

	switch {
	case bullish > bearish:
		alignment.DominantTrend = shared.BullishTrend
	case bearish > bullish:
		alignment.DominantTrend = shared.BearishTrend
	}

	var alignedWeight, totalWeight float64
	for _, timeframe := range timeframes {
		totalWeight += timeframe.Weight()
		if alignment.DominantTrend != shared.NeutralTrend &&
			signals[timeframe].Direction() == alignment.DominantTrend {
			alignedWeight += timeframe.Weight()
			alignment.AlignedTimeframes = append(alignment.AlignedTimeframes, timeframe)
			continue
		}

		alignment.ConflictingTimeframes = append(alignment.ConflictingTimeframes, timeframe)
	}

	switch {
	case alignment.Aligned:
		alignment.AlignmentScore = alignedScore
	case totalWeight > 0:
		alignment.AlignmentScore = math.Round(alignedWeight / totalWeight * 100)
	}

	return alignment
}

// conflict describes the disagreement between a higher and a lower timeframe, empty if they
// do not oppose each other.
func conflict(signals map[shared.Timeframe]*shared.TradingSignal, higher shared.Timeframe, lower shared.Timeframe) string {
	higherSignal := signals[higher]
	lowerSignal := signals[lower]
	if higherSignal == nil || lowerSignal == nil {
		return ""
	}

	higherTrend := higherSignal.Direction()
	lowerTrend := lowerSignal.Direction()
	if higherTrend == shared.NeutralTrend || lowerTrend != higherTrend.Opposite() {
		return ""
	}

	switch higherTrend {
	case shared.BullishTrend:
		return fmt.Sprintf("%s trend is bullish but %s is bearish, likely a pullback within the uptrend",
			higher.String(), lower.String())
	default:
		return fmt.Sprintf("%s trend is bearish but %s is bullish, likely a relief bounce within the downtrend",
			higher.String(), lower.String())
	}
}

// ConflictWarning returns a human readable description of disagreeing timeframes. The daily
// against hourly conflict is reported ahead of the 4h against hourly one, both are joined when
// they occur together.
func ConflictWarning(signals map[shared.Timeframe]*shared.TradingSignal) string {
	warnings := make([]string, 0, 2)
	for _, pair := range [][2]shared.Timeframe{
		{shared.OneDay, shared.OneHour},
		{shared.FourHour, shared.OneHour},
	} {
		warning := conflict(signals, pair[0], pair[1])
		if warning != "" {
			warnings = append(warnings, warning)
		}
	}

	if len(warnings) == 0 {
		return mixedSignalsWarning
	}

	return strings.Join(warnings, conflictSeparator)
}

// OverallStrength returns the timeframe weighted average of the provided signal strengths.
// Signals without a strength are excluded. Aligned timeframes earn a bonus.
func OverallStrength(signals map[shared.Timeframe]*shared.TradingSignal, aligned bool) float64 {
	var weighted, totalWeight float64
	for _, timeframe := range present(signals) {
		strength := signals[timeframe].SignalStrength
		if strength == nil {
			continue
		}

		weighted += *strength * timeframe.Weight()
		totalWeight += timeframe.Weight()
	}

	var overall float64
	if totalWeight > 0 {
		overall = weighted / totalWeight
	}

	if aligned {
		overall += alignedBonus
	}

	return min(overall, maxStrength)
}

// Recommend derives the final recommendation from the alignment and overall strength.
func Recommend(signals map[shared.Timeframe]*shared.TradingSignal, alignment shared.TimeframeAlignment, strength float64) shared.Recommendation {
	timeframes := present(signals)
	if len(timeframes) == 0 {
		return shared.NeutralRecommendation
	}

	if !alignment.Aligned {
		return shared.Conflicted
	}

	var dominant *shared.TradingSignal
	for _, timeframe := range dominancePriority {
		if signals[timeframe] != nil {
			dominant = signals[timeframe]
			break
		}
	}

	daily := signals[shared.OneDay]

	switch dominant.Direction() {
	case shared.BullishTrend:
		switch {
		case strength >= strongThreshold && daily != nil && daily.Direction() == shared.BullishTrend:
			return shared.StrongBuy
		case strength >= threshold:
			return shared.Buy
		}

	case shared.BearishTrend:
		switch {
		case strength >= strongThreshold && daily != nil && daily.Direction() == shared.BearishTrend:
			return shared.StrongSell
		case strength >= threshold:
			return shared.Sell
		}
	}

	return shared.NeutralRecommendation
}

// Analyze combines the provided per-timeframe signals of a market into a multi-timeframe
// analysis. Absent timeframes may be omitted or nil.
func Analyze(market string, signals map[shared.Timeframe]*shared.TradingSignal) *shared.MultiTimeframeAnalysis {
	set := make(map[shared.Timeframe]*shared.TradingSignal, len(shared.Timeframes))
	for _, timeframe := range shared.Timeframes {
		set[timeframe] = signals[timeframe]
	}

	alignment := Align(set)
	strength := OverallStrength(set, alignment.Aligned)

	analysis := &shared.MultiTimeframeAnalysis{
		ID:              uuid.New().String(),
		Market:          market,
		Signals:         set,
		Alignment:       alignment,
		OverallStrength: strength,
		Recommendation:  Recommend(set, alignment, strength),
		CreatedOn:       time.Now().UTC(),
	}

	if !alignment.Aligned && len(present(set)) > 0 {
		warning := ConflictWarning(set)
		analysis.ConflictWarning = &warning
	}

	return analysis
}
