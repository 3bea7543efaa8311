package shared

import "fmt"

// InsufficientDataError is returned when fewer candles than the required lookback are
// provided for an evaluation.
type InsufficientDataError struct {
	Market    string
	Timeframe Timeframe
	Have      int
	Need      int
}

// Error implements the error interface.
func (e *InsufficientDataError) Error() string {
	if e.Market == "" {
		return fmt.Sprintf("insufficient data: have %d candles, need %d", e.Have, e.Need)
	}

	return fmt.Sprintf("insufficient %s data for %s: have %d candles, need %d",
		e.Timeframe.String(), e.Market, e.Have, e.Need)
}
