package indicator

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/dnldd/kumo/shared"
	"github.com/google/go-cmp/cmp"
	"github.com/peterldowns/testy/assert"
)

// trendingCandles generates hourly candles whose closes move by step each period.
func trendingCandles(n int, start float64, step float64) []shared.Candlestick {
	date := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	candles := make([]shared.Candlestick, n)
	for idx := range candles {
		price := start + float64(idx)*step
		open := price - step/4
		candles[idx] = shared.Candlestick{
			Open:      open,
			High:      max(open, price) + 0.5,
			Low:       min(open, price) - 0.5,
			Close:     price,
			Volume:    10,
			Date:      date.Add(time.Hour * time.Duration(idx)),
			Market:    "BTCUSDT",
			Timeframe: shared.OneHour,
		}
	}

	return candles
}

// randomCandles generates a seeded random walk of well formed hourly candles.
func randomCandles(seed int64, n int) []shared.Candlestick {
	rng := rand.New(rand.NewSource(seed))
	date := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	candles := make([]shared.Candlestick, n)
	price := float64(100)
	for idx := range candles {
		open := price
		price = max(open+(rng.Float64()-0.5)*4, 1)
		candles[idx] = shared.Candlestick{
			Open:      open,
			High:      max(open, price) + rng.Float64(),
			Low:       min(open, price) - rng.Float64(),
			Close:     price,
			Volume:    rng.Float64() * 100,
			Date:      date.Add(time.Hour * time.Duration(idx)),
			Market:    "ETHUSDT",
			Timeframe: shared.OneHour,
		}
	}

	return candles
}

func TestNewCalculator(t *testing.T) {
	// Ensure a nil config uses the defaults.
	calc, err := NewCalculator(nil)
	assert.NoError(t, err)
	assert.Equal(t, calc.Config(), DefaultConfig())

	// Ensure unset periods are defaulted.
	calc, err = NewCalculator(&Config{TenkanPeriod: 7})
	assert.NoError(t, err)
	assert.Equal(t, calc.Config().TenkanPeriod, 7)
	assert.Equal(t, calc.Config().KijunPeriod, KijunPeriod)

	// Ensure invalid configs error.
	_, err = NewCalculator(&Config{TenkanPeriod: 30, KijunPeriod: 26})
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"defaults", DefaultConfig(), false},
		{"negative period", Config{TenkanPeriod: -1, KijunPeriod: 26, SenkouPeriod: 52,
			ChikouPeriod: 26, RSIPeriod: 14, VolumePeriod: 20}, true},
		{"zero rsi period", Config{TenkanPeriod: 9, KijunPeriod: 26, SenkouPeriod: 52,
			ChikouPeriod: 26, VolumePeriod: 20}, true},
		{"kijun above senkou", Config{TenkanPeriod: 9, KijunPeriod: 60, SenkouPeriod: 52,
			ChikouPeriod: 26, RSIPeriod: 14, VolumePeriod: 20}, true},
	}

	for _, test := range tests {
		err := test.cfg.Validate()
		if (err != nil) != test.wantErr {
			t.Errorf("%s: expected error %v, got %v", test.name, test.wantErr, err)
		}
	}
}

func TestConfigLookback(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, cfg.MinCandles(), 52)
	assert.Equal(t, cfg.Lookback(), 100)

	// Ensure a long chikou displacement raises the minimum.
	cfg.ChikouPeriod = 60
	assert.Equal(t, cfg.MinCandles(), 61)
}

func TestMidpoint(t *testing.T) {
	highs := []float64{10, 12, 11, 15, 14}
	lows := []float64{8, 9, 7, 13, 12}

	assert.Equal(t, Midpoint(highs, lows, 5), float64(11))
	assert.Equal(t, Midpoint(highs, lows, 2), float64(13.5))
	assert.Equal(t, Midpoint(highs, lows, 1), float64(13))
}

func TestCompute(t *testing.T) {
	calc, err := NewCalculator(nil)
	assert.NoError(t, err)

	// Ensure computing with insufficient data returns a typed error.
	_, err = calc.Compute(trendingCandles(51, 100, 1))
	var insufficient *shared.InsufficientDataError
	assert.True(t, errors.As(err, &insufficient))
	assert.Equal(t, insufficient.Have, 51)
	assert.Equal(t, insufficient.Need, 52)
	assert.Equal(t, insufficient.Market, "BTCUSDT")

	_, err = calc.Compute(nil)
	assert.True(t, errors.As(err, &insufficient))
	assert.Equal(t, insufficient.Have, 0)

	// Ensure the lines are computed over their trailing windows.
	candles := trendingCandles(60, 100, 1)
	state, err := calc.Compute(candles)
	assert.NoError(t, err)

	want := &shared.IchimokuState{
		Tenkan:        154.875,
		Kijun:         146.375,
		SenkouA:       150.625,
		SenkouB:       133.375,
		Chikou:        159,
		ChikouCompare: 133,
		CurrentPrice:  159,
		RSI:           NeutralRSI,
		Volume:        10,
		AverageVolume: 10,
	}
	if diff := cmp.Diff(want, state); diff != "" {
		t.Fatalf("unexpected state (-want +got):\n%s", diff)
	}

	// Ensure an uptrend places tenkan above kijun and a downtrend below.
	assert.GreaterThan(t, state.Tenkan, state.Kijun)

	down, err := calc.Compute(trendingCandles(60, 200, -1))
	assert.NoError(t, err)
	assert.LessThan(t, down.Tenkan, down.Kijun)
	assert.LessThan(t, down.Chikou, down.ChikouCompare)

	// Ensure the input is not mutated.
	original := trendingCandles(60, 100, 1)
	assert.True(t, cmp.Equal(candles, original))

	// Ensure malformed candles in the evaluation window error.
	candles[59].Low = candles[59].Close + 1
	_, err = calc.Compute(candles)
	assert.True(t, errors.Is(err, shared.ErrMalformedCandle))
}

func TestComputeDeterministic(t *testing.T) {
	calc, err := NewCalculator(nil)
	assert.NoError(t, err)

	candles := randomCandles(7, 120)
	first, err := calc.Compute(candles)
	assert.NoError(t, err)

	for range 5 {
		next, err := calc.Compute(candles)
		assert.NoError(t, err)
		assert.True(t, cmp.Equal(first, next))
	}
}

func TestComputeBounds(t *testing.T) {
	calc, err := NewCalculator(nil)
	assert.NoError(t, err)

	windowBounds := func(candles []shared.Candlestick, period int) (float64, float64) {
		window := candles[len(candles)-period:]
		lowest, highest := window[0].Low, window[0].High
		for _, candle := range window[1:] {
			lowest = min(lowest, candle.Low)
			highest = max(highest, candle.High)
		}
		return lowest, highest
	}

	for seed := int64(1); seed <= 25; seed++ {
		candles := randomCandles(seed, 52+int(seed)*3)
		state, err := calc.Compute(candles)
		assert.NoError(t, err)

		lines := []struct {
			name   string
			value  float64
			period int
		}{
			{"tenkan", state.Tenkan, TenkanPeriod},
			{"kijun", state.Kijun, KijunPeriod},
			{"senkou b", state.SenkouB, SenkouPeriod},
		}

		for _, line := range lines {
			lowest, highest := windowBounds(candles, line.period)
			if line.value < lowest || line.value > highest {
				t.Errorf("seed %d: %s %f outside [%f, %f]", seed, line.name, line.value,
					lowest, highest)
			}
		}

		if state.RSI < 0 || state.RSI > 100 {
			t.Errorf("seed %d: rsi %f out of bounds", seed, state.RSI)
		}
	}
}
