package chart

import (
	"fmt"

	"github.com/dnldd/kumo/indicator"
	"github.com/dnldd/kumo/shared"
	"github.com/markcheno/go-talib"
)

// Point represents a candlestick annotated with its indicator values. Values are nil until
// the series is long enough to compute them.
type Point struct {
	shared.Candlestick

	Tenkan  *float64
	Kijun   *float64
	SenkouA *float64
	SenkouB *float64
	Chikou  *float64
	RSI     *float64
}

// rollingMax returns the highest value of each trailing window of the provided period, values
// before the first full window are unset.
func rollingMax(values []float64, period int) []float64 {
	if period < 2 {
		return append([]float64(nil), values...)
	}

	return talib.Max(values, period)
}

// rollingMin returns the lowest value of each trailing window of the provided period, values
// before the first full window are unset.
func rollingMin(values []float64, period int) []float64 {
	if period < 2 {
		return append([]float64(nil), values...)
	}

	return talib.Min(values, period)
}

// midpoints returns the rolling midpoint of highs and lows over the provided period.
func midpoints(highs []float64, lows []float64, period int) []float64 {
	maxes := rollingMax(highs, period)
	mins := rollingMin(lows, period)

	mids := make([]float64, len(highs))
	for idx := period - 1; idx < len(highs); idx++ {
		mids[idx] = (maxes[idx] + mins[idx]) / 2
	}

	return mids
}

func value(v float64) *float64 {
	return &v
}

// Enrich annotates every candlestick of the provided series, oldest-first, with its causal
// ichimoku and rsi values. Each value only depends on the candles up to its index.
func Enrich(candles []shared.Candlestick, cfg *indicator.Config) ([]Point, error) {
	periods := indicator.DefaultConfig()
	if cfg != nil {
		periods = cfg.WithDefaults()
	}

	err := periods.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating indicator config: %w", err)
	}

	err = shared.ValidateCandlesticks(candles)
	if err != nil {
		return nil, err
	}

	if len(candles) == 0 {
		return []Point{}, nil
	}

	highs := make([]float64, len(candles))
	lows := make([]float64, len(candles))
	closes := make([]float64, len(candles))
	for idx := range candles {
		highs[idx] = candles[idx].High
		lows[idx] = candles[idx].Low
		closes[idx] = candles[idx].Close
	}

	tenkans := midpoints(highs, lows, periods.TenkanPeriod)
	kijuns := midpoints(highs, lows, periods.KijunPeriod)
	senkouBs := midpoints(highs, lows, periods.SenkouPeriod)

	points := make([]Point, len(candles))
	for idx := range candles {
		point := Point{
			Candlestick: candles[idx],
			Chikou:      value(closes[idx]),
		}

		if idx >= periods.TenkanPeriod-1 {
			point.Tenkan = value(tenkans[idx])
		}
		if idx >= periods.KijunPeriod-1 {
			point.Kijun = value(kijuns[idx])
		}
		if point.Tenkan != nil && point.Kijun != nil {
			point.SenkouA = value((*point.Tenkan + *point.Kijun) / 2)
		}
		if idx >= periods.SenkouPeriod-1 {
			point.SenkouB = value(senkouBs[idx])
		}
		if idx >= periods.RSIPeriod {
			point.RSI = value(indicator.RSI(closes[:idx+1], periods.RSIPeriod))
		}

		points[idx] = point
	}

	return points, nil
}

// Displace shifts the leading spans forward by the kijun period and the lagging span backward
// by the chikou period for plotting. Shifted values without a source within the series are
// unset. The provided points are not modified.
func Displace(points []Point, cfg *indicator.Config) []Point {
	periods := indicator.DefaultConfig()
	if cfg != nil {
		periods = cfg.WithDefaults()
	}

	displaced := make([]Point, len(points))
	for idx := range points {
		point := points[idx]
		point.SenkouA = nil
		point.SenkouB = nil
		point.Chikou = nil

		lead := idx - periods.KijunPeriod
		if lead >= 0 {
			point.SenkouA = points[lead].SenkouA
			point.SenkouB = points[lead].SenkouB
		}

		lag := idx + periods.ChikouPeriod
		if lag < len(points) {
			point.Chikou = points[lag].Chikou
		}

		displaced[idx] = point
	}

	return displaced
}
