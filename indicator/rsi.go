package indicator

import "math"

const (
	// NeutralRSI is the rsi reported when the ratio of average gain to average loss is undefined.
	NeutralRSI = 50
)

// RSI computes the relative strength index from the trailing period+1 closes using the ratio
// of average gain to average loss. An undefined ratio, including a zero average loss,
// collapses to NeutralRSI. Fewer than period+1 closes also report NeutralRSI.
func RSI(closes []float64, period int) float64 {
	if period <= 0 || len(closes) < period+1 {
		return NeutralRSI
	}

	window := closes[len(closes)-period-1:]

	var gains, losses float64
	for idx := 1; idx < len(window); idx++ {
		change := window[idx] - window[idx-1]
		switch {
		case change > 0:
			gains += change
		case change < 0:
			losses -= change
		}
	}

	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)

	if avgLoss == 0 {
		return NeutralRSI
	}

	rs := avgGain / avgLoss
	rsi := 100 - 100/(1+rs)

	switch {
	case math.IsNaN(rsi) || math.IsInf(rsi, 0):
		return NeutralRSI
	case rsi < 0:
		return 0
	case rsi > 100:
		return 100
	}

	return rsi
}
