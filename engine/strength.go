package engine

import (
	"github.com/dnldd/kumo/shared"
)

const (
	// cloudPoints is awarded for price outside the cloud.
	cloudPoints = float64(25)
	// tkCrossPoints is awarded for a directional tk cross.
	tkCrossPoints = float64(20)
	// chikouPoints is awarded for the lagging span clearing its comparison close.
	chikouPoints = float64(20)
	// rsiPoints is awarded for rsi in a confirmation band.
	rsiPoints = float64(15)
	// cloudColourPoints is awarded for the leading spans agreeing with the direction.
	cloudColourPoints = float64(10)
	// volumePoints is awarded for volume above its moving average.
	volumePoints = float64(10)
	// maxStrength is the strength ceiling.
	maxStrength = float64(100)
)

// ScoreStrength computes a continuous 0-100 confidence score for the provided state. Bullish
// and bearish factors are tallied separately with partial credit and the larger tally wins.
// The score is independent of the classification grade.
func ScoreStrength(state *shared.IchimokuState) float64 {
	var bullish, bearish float64

	switch CloudPosition(state) {
	case shared.AboveCloud:
		bullish += cloudPoints
	case shared.BelowCloud:
		bearish += cloudPoints
	}

	switch TKCrossStatus(state) {
	case shared.BullishCross:
		bullish += tkCrossPoints
	case shared.BearishCross:
		bearish += tkCrossPoints
	}

	switch ChikouPosition(state) {
	case shared.ChikouAbove:
		bullish += chikouPoints
	case shared.ChikouBelow:
		bearish += chikouPoints
	}

	switch {
	case RSIBullish(state.RSI):
		bullish += rsiPoints
	case RSIBearish(state.RSI):
		bearish += rsiPoints
	}

	switch {
	case state.SenkouA > state.SenkouB:
		bullish += cloudColourPoints
	case state.SenkouA < state.SenkouB:
		bearish += cloudColourPoints
	}

	score := max(bullish, bearish)
	if score > 0 && state.AverageVolume > 0 && state.Volume > state.AverageVolume {
		score += volumePoints
	}

	return min(score, maxStrength)
}
