package shared

import (
	"context"
	"fmt"
	"os"
	"slices"
	"sync"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

// HistoricDataConfig represents the historic data source configuration.
type HistoricDataConfig struct {
	// FilePath is the filepath to the historic market data.
	FilePath string
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// HistoricData represents historic market data loaded from file. It serves scans without
// network access.
type HistoricData struct {
	cfg        *HistoricDataConfig
	candles    map[string]map[Timeframe][]Candlestick
	candlesMtx sync.RWMutex
	markets    []string
}

// Ensure historic data implements the MarketFetcher interface.
var _ MarketFetcher = (*HistoricData)(nil)

// loadHistoricData loads the historic data bytes from the provided file path.
func loadHistoricData(filepath string) (*gjson.Result, error) {
	readb, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("reading historic data from file with path '%s': %v", filepath, err)
	}

	if !gjson.ValidBytes(readb) {
		return nil, fmt.Errorf("historic data at '%s' is not valid json", filepath)
	}

	b := gjson.ParseBytes(readb)

	return &b, nil
}

// NewHistoricData initializes a new historic data source. The file holds either a single
// market object or an array of them, each keyed by market and timeframe:
//
//	{"market": "BTCUSDT", "1h": [...], "4h": [...], "1d": [...]}
func NewHistoricData(cfg *HistoricDataConfig) (*HistoricData, error) {
	b, err := loadHistoricData(cfg.FilePath)
	if err != nil {
		return nil, fmt.Errorf("loading historic data: %v", err)
	}

	entries := []gjson.Result{*b}
	if b.IsArray() {
		entries = b.Array()
	}

	historicData := HistoricData{
		cfg:     cfg,
		candles: make(map[string]map[Timeframe][]Candlestick),
	}

	for _, entry := range entries {
		market := entry.Get("market").String()
		if market == "" {
			return nil, fmt.Errorf("historic data entry has no market")
		}

		set := make(map[Timeframe][]Candlestick)
		for _, timeframe := range Timeframes {
			data := entry.Get(timeframe.String()).Array()
			if len(data) == 0 {
				continue
			}

			candles, err := ParseCandlesticks(data, market, timeframe)
			if err != nil {
				return nil, fmt.Errorf("parsing %s %s candlesticks: %v", market, timeframe.String(), err)
			}

			slices.SortFunc(candles, func(a, b Candlestick) int {
				return a.Date.Compare(b.Date)
			})

			set[timeframe] = candles
		}

		historicData.candles[market] = set
		historicData.markets = append(historicData.markets, market)
	}

	cfg.Logger.Info().Msgf("loaded historic data for %d markets", len(historicData.markets))

	return &historicData, nil
}

// FetchHistoricalCandles returns up to limit of the most recent candles for the provided
// market and timeframe, oldest-first.
func (h *HistoricData) FetchHistoricalCandles(_ context.Context, market string, timeframe Timeframe, limit int) ([]Candlestick, error) {
	h.candlesMtx.RLock()
	defer h.candlesMtx.RUnlock()

	set, ok := h.candles[market]
	if !ok {
		return nil, fmt.Errorf("no historic data for market %s", market)
	}

	candles := set[timeframe]
	if limit > 0 && len(candles) > limit {
		candles = candles[len(candles)-limit:]
	}

	return slices.Clone(candles), nil
}

// FetchTicker24h derives the rolling 24 hour statistics of the provided market from its
// hourly candles.
func (h *HistoricData) FetchTicker24h(ctx context.Context, market string) (*Ticker24h, error) {
	candles, err := h.FetchHistoricalCandles(ctx, market, OneHour, 0)
	if err != nil {
		return nil, err
	}

	return DeriveTicker24h(market, candles)
}

// FetchMarkets returns the markets in the historic data. Historic data has no quote asset
// metadata so the quote asset is ignored.
func (h *HistoricData) FetchMarkets(_ context.Context, _ string) ([]string, error) {
	h.candlesMtx.RLock()
	defer h.candlesMtx.RUnlock()

	return slices.Clone(h.markets), nil
}

// DeriveTicker24h computes rolling 24 hour statistics from hourly candles, oldest-first.
func DeriveTicker24h(market string, hourly []Candlestick) (*Ticker24h, error) {
	const window = 24

	if len(hourly) <= window {
		return nil, &InsufficientDataError{Market: market, Timeframe: OneHour, Have: len(hourly), Need: window + 1}
	}

	last := hourly[len(hourly)-1]
	prior := hourly[len(hourly)-1-window]

	ticker := &Ticker24h{
		Market:      market,
		LastPrice:   last.Close,
		PriceChange: last.Close - prior.Close,
	}

	if prior.Close != 0 {
		ticker.PriceChangePercent = ticker.PriceChange / prior.Close * 100
	}

	for _, candle := range hourly[len(hourly)-window:] {
		ticker.Volume += candle.Volume
		ticker.QuoteVolume += candle.Volume * candle.Close
	}

	return ticker, nil
}
