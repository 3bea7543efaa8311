package indicator

import (
	"fmt"

	"github.com/dnldd/kumo/shared"
	"github.com/markcheno/go-talib"
)

// Calculator computes ichimoku and rsi state for the latest candle of a series.
type Calculator struct {
	cfg Config
}

// NewCalculator initializes a new ichimoku calculator. Unset periods fall back to defaults.
func NewCalculator(cfg *Config) (*Calculator, error) {
	c := DefaultConfig()
	if cfg != nil {
		c = cfg.WithDefaults()
	}

	err := c.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating indicator config: %w", err)
	}

	return &Calculator{cfg: c}, nil
}

// Config returns the calculator's indicator periods.
func (c *Calculator) Config() Config {
	return c.cfg
}

// Midpoint returns the average of the highest high and the lowest low over the trailing
// period entries of the provided series.
func Midpoint(highs []float64, lows []float64, period int) float64 {
	start := len(highs) - period
	highest := highs[start]
	lowest := lows[start]
	for idx := start + 1; idx < len(highs); idx++ {
		highest = max(highest, highs[idx])
		lowest = min(lowest, lows[idx])
	}

	return (highest + lowest) / 2
}

// Compute calculates the ichimoku state as of the latest candle of the provided series,
// ordered oldest-first. Series shorter than the required lookback return an
// InsufficientDataError. The provided candles are not modified.
func (c *Calculator) Compute(candles []shared.Candlestick) (*shared.IchimokuState, error) {
	need := c.cfg.MinCandles()
	if len(candles) < need {
		var market string
		var timeframe shared.Timeframe
		if len(candles) > 0 {
			market = candles[0].Market
			timeframe = candles[0].Timeframe
		}

		return nil, &shared.InsufficientDataError{
			Market:    market,
			Timeframe: timeframe,
			Have:      len(candles),
			Need:      need,
		}
	}

	err := shared.ValidateCandlesticks(candles[len(candles)-need:])
	if err != nil {
		return nil, err
	}

	highs := make([]float64, len(candles))
	lows := make([]float64, len(candles))
	closes := make([]float64, len(candles))
	volumes := make([]float64, len(candles))
	for idx := range candles {
		highs[idx] = candles[idx].High
		lows[idx] = candles[idx].Low
		closes[idx] = candles[idx].Close
		volumes[idx] = candles[idx].Volume
	}

	last := len(candles) - 1
	tenkan := Midpoint(highs, lows, c.cfg.TenkanPeriod)
	kijun := Midpoint(highs, lows, c.cfg.KijunPeriod)

	state := &shared.IchimokuState{
		Tenkan:        tenkan,
		Kijun:         kijun,
		SenkouA:       (tenkan + kijun) / 2,
		SenkouB:       Midpoint(highs, lows, c.cfg.SenkouPeriod),
		Chikou:        closes[last],
		ChikouCompare: closes[last-c.cfg.ChikouPeriod],
		CurrentPrice:  closes[last],
		RSI:           RSI(closes, c.cfg.RSIPeriod),
		Volume:        volumes[last],
	}

	// The volume average excludes the latest candle so it can be compared against it.
	if len(volumes) > c.cfg.VolumePeriod {
		sma := talib.Sma(volumes[:last], c.cfg.VolumePeriod)
		state.AverageVolume = sma[len(sma)-1]
	}

	return state, nil
}
