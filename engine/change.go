package engine

// PriceChange24h returns the 24 hour change of the provided absolute change as a percentage of
// the price 24 hours prior, derived as currentPrice - change. A zero prior price reports no change.
func PriceChange24h(currentPrice float64, change float64) float64 {
	prior := currentPrice - change
	if prior == 0 {
		return 0
	}

	return change / prior * 100
}
