package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/dnldd/kumo/indicator"
	"github.com/dnldd/kumo/shared"
	"github.com/rs/zerolog"
)

// EngineConfig represents the configuration for the signal engine.
type EngineConfig struct {
	// Indicator represents the indicator periods, defaults are used when nil.
	Indicator *indicator.Config
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// Engine evaluates a market's candle series into per-timeframe trading signals.
type Engine struct {
	cfg  *EngineConfig
	calc *indicator.Calculator
}

// NewEngine initializes a new signal engine.
func NewEngine(cfg *EngineConfig) (*Engine, error) {
	calc, err := indicator.NewCalculator(cfg.Indicator)
	if err != nil {
		return nil, err
	}

	return &Engine{
		cfg:  cfg,
		calc: calc,
	}, nil
}

// Lookback returns the number of candles to request per timeframe.
func (e *Engine) Lookback() int {
	cfg := e.calc.Config()
	return cfg.Lookback()
}

// NewTradingSignal creates a trading signal for the provided market and timeframe from its
// ichimoku state. The higher timeframe state is optional.
func NewTradingSignal(market string, timeframe shared.Timeframe, state *shared.IchimokuState, higher *shared.IchimokuState) *shared.TradingSignal {
	class := Classify(state, higher)
	strength := ScoreStrength(state)

	return &shared.TradingSignal{
		Market:         market,
		Timeframe:      timeframe,
		CurrentPrice:   state.CurrentPrice,
		Signal:         class.Signal,
		CloudStatus:    class.CloudStatus,
		TKCross:        class.TKCross,
		ChikouStatus:   class.ChikouStatus,
		RSI:            state.RSI,
		Grade:          class.Grade,
		SignalStrength: &strength,
		CreatedOn:      time.Now().UTC(),
	}
}

// AttachTicker sets the 24 hour statistics of the provided signal.
func AttachTicker(signal *shared.TradingSignal, ticker *shared.Ticker24h) {
	change := ticker.PriceChange
	percent := PriceChange24h(signal.CurrentPrice, change)
	volume := ticker.Volume

	signal.PriceChange24h = &change
	signal.PriceChangePercent24h = &percent
	signal.Volume24h = &volume
}

// Evaluate computes the trading signals of the provided market from its per-timeframe candle
// series, oldest-first. Each timeframe is confirmed against the state of its higher timeframe
// when available. Timeframes that cannot be evaluated are logged and skipped; an error is
// returned only when no timeframe could be evaluated. When no ticker is provided the 24 hour
// statistics are derived from the hourly series.
func (e *Engine) Evaluate(market string, series map[shared.Timeframe][]shared.Candlestick, ticker *shared.Ticker24h) (map[shared.Timeframe]*shared.TradingSignal, error) {
	states := make(map[shared.Timeframe]*shared.IchimokuState, len(shared.Timeframes))

	var errs error
	for _, timeframe := range shared.Timeframes {
		candles, ok := series[timeframe]
		if !ok {
			continue
		}

		state, err := e.calc.Compute(candles)
		if err != nil {
			var insufficient *shared.InsufficientDataError
			if errors.As(err, &insufficient) {
				insufficient.Market = market
				insufficient.Timeframe = timeframe
				e.cfg.Logger.Warn().Msgf("skipping %s %s: %v", market, timeframe.String(), err)
			} else {
				e.cfg.Logger.Error().Msgf("computing %s %s ichimoku state: %v",
					market, timeframe.String(), err)
			}

			errs = errors.Join(errs, fmt.Errorf("%s %s: %w", market, timeframe.String(), err))
			continue
		}

		states[timeframe] = state
	}

	if len(states) == 0 {
		if errs == nil {
			errs = fmt.Errorf("no candles provided for %s", market)
		}

		return nil, errs
	}

	if ticker == nil {
		hourly, ok := series[shared.OneHour]
		if ok {
			derived, err := shared.DeriveTicker24h(market, hourly)
			if err != nil {
				e.cfg.Logger.Warn().Msgf("deriving 24h stats for %s: %v", market, err)
			}
			ticker = derived
		}
	}

	signals := make(map[shared.Timeframe]*shared.TradingSignal, len(states))
	for timeframe, state := range states {
		var higherState *shared.IchimokuState
		higher, ok := timeframe.Higher()
		if ok {
			higherState = states[higher]
		}

		signal := NewTradingSignal(market, timeframe, state, higherState)
		if ticker != nil {
			AttachTicker(signal, ticker)
		}

		signals[timeframe] = signal
	}

	return signals, nil
}
