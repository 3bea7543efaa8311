package shared

import "math"

// IchimokuState represents the ichimoku lines and rsi as of the latest candle of a window.
type IchimokuState struct {
	Tenkan        float64
	Kijun         float64
	SenkouA       float64
	SenkouB       float64
	Chikou        float64
	ChikouCompare float64
	CurrentPrice  float64
	RSI           float64

	// Volume context for strength scoring.
	Volume        float64
	AverageVolume float64
}

// CloudTop returns the upper boundary of the cloud.
func (s *IchimokuState) CloudTop() float64 {
	return math.Max(s.SenkouA, s.SenkouB)
}

// CloudBottom returns the lower boundary of the cloud.
func (s *IchimokuState) CloudBottom() float64 {
	return math.Min(s.SenkouA, s.SenkouB)
}
