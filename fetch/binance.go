package fetch

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/dnldd/kumo/shared"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	// defaultRequestsPerSecond is the default outbound request rate.
	defaultRequestsPerSecond = float64(5)
	// requestBurst is the number of requests allowed to exceed the rate at once.
	requestBurst = 1
	// defaultTimeout is the default per-request timeout.
	defaultTimeout = time.Second * 10
	// maxKlinesLimit is the largest number of klines the exchange returns per request.
	maxKlinesLimit = 1000
	// tradingStatus is the status of actively traded symbols.
	tradingStatus = "TRADING"
)

// BinanceConfig represents the configuration for the binance client.
type BinanceConfig struct {
	// APIKey is the binance api key, optional for market data.
	APIKey string
	// APISecret is the binance api secret, optional for market data.
	APISecret string
	// BaseURL overrides the binance api url when set.
	BaseURL string
	// RequestsPerSecond is the maximum outbound request rate.
	RequestsPerSecond float64
	// Timeout is the per-request timeout.
	Timeout time.Duration
	// MaxMarkets caps the number of discovered markets, zero for no cap.
	MaxMarkets int
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// Validate asserts the config sane inputs.
func (cfg *BinanceConfig) Validate() error {
	var errs error

	if cfg.RequestsPerSecond < 0 {
		errs = errors.Join(errs, fmt.Errorf("requests per second cannot be negative"))
	}
	if cfg.Timeout < 0 {
		errs = errors.Join(errs, fmt.Errorf("timeout cannot be negative"))
	}
	if cfg.MaxMarkets < 0 {
		errs = errors.Join(errs, fmt.Errorf("max markets cannot be negative"))
	}
	if cfg.Logger == nil {
		errs = errors.Join(errs, fmt.Errorf("no logger provided"))
	}

	return errs
}

// BinanceClient represents the binance spot market data client.
type BinanceClient struct {
	cfg     *BinanceConfig
	client  *binance.Client
	limiter *rate.Limiter
	timeout time.Duration
}

// Ensure the BinanceClient implements the MarketFetcher interface.
var _ shared.MarketFetcher = (*BinanceClient)(nil)

// NewBinanceClient instantiates a new binance client.
func NewBinanceClient(cfg *BinanceConfig) (*BinanceClient, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating binance config: %w", err)
	}

	client := binance.NewClient(cfg.APIKey, cfg.APISecret)
	if cfg.BaseURL != "" {
		client.BaseURL = cfg.BaseURL
	}

	rps := cfg.RequestsPerSecond
	if rps == 0 {
		rps = defaultRequestsPerSecond
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	return &BinanceClient{
		cfg:     cfg,
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(rps), requestBurst),
		timeout: timeout,
	}, nil
}

// prepare waits for the rate limiter before deriving a request context bounded by the
// client timeout.
func (c *BinanceClient) prepare(ctx context.Context) (context.Context, context.CancelFunc, error) {
	err := c.limiter.Wait(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("waiting on rate limiter: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	return reqCtx, cancel, nil
}

// parseFloat parses the named decimal string field of an exchange response.
func parseFloat(name string, value string) (float64, error) {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %s %q: %w", name, value, err)
	}

	return f, nil
}

// ParseKline converts the provided exchange kline into a candlestick.
func ParseKline(kline *binance.Kline, market string, timeframe shared.Timeframe) (shared.Candlestick, error) {
	var candle shared.Candlestick
	var errs error
	var err error

	candle.Open, err = parseFloat("open", kline.Open)
	errs = errors.Join(errs, err)
	candle.High, err = parseFloat("high", kline.High)
	errs = errors.Join(errs, err)
	candle.Low, err = parseFloat("low", kline.Low)
	errs = errors.Join(errs, err)
	candle.Close, err = parseFloat("close", kline.Close)
	errs = errors.Join(errs, err)
	candle.Volume, err = parseFloat("volume", kline.Volume)
	errs = errors.Join(errs, err)
	if errs != nil {
		return shared.Candlestick{}, errs
	}

	candle.Date = time.UnixMilli(kline.OpenTime).UTC()
	candle.Market = market
	candle.Timeframe = timeframe

	return candle, nil
}

// FetchHistoricalCandles fetches up to limit of the most recent candles for the provided
// market and timeframe, oldest-first.
func (c *BinanceClient) FetchHistoricalCandles(ctx context.Context, market string, timeframe shared.Timeframe, limit int) ([]shared.Candlestick, error) {
	if limit <= 0 || limit > maxKlinesLimit {
		limit = maxKlinesLimit
	}

	reqCtx, cancel, err := c.prepare(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	klines, err := c.client.NewKlinesService().
		Symbol(market).
		Interval(timeframe.String()).
		Limit(limit).
		Do(reqCtx)
	if err != nil {
		return nil, fmt.Errorf("fetching %s klines for %s: %w", timeframe.String(), market, err)
	}

	candles := make([]shared.Candlestick, 0, len(klines))
	for idx := range klines {
		candle, err := ParseKline(klines[idx], market, timeframe)
		if err != nil {
			return nil, fmt.Errorf("parsing %s kline %d for %s: %w", timeframe.String(), idx, market, err)
		}

		candles = append(candles, candle)
	}

	sort.SliceStable(candles, func(i, j int) bool {
		return candles[i].Date.Before(candles[j].Date)
	})

	return candles, nil
}

// parseTicker converts the provided exchange price change stats into a ticker.
func parseTicker(stats *binance.PriceChangeStats) (*shared.Ticker24h, error) {
	ticker := &shared.Ticker24h{Market: stats.Symbol}

	var errs error
	var err error

	ticker.LastPrice, err = parseFloat("last price", stats.LastPrice)
	errs = errors.Join(errs, err)
	ticker.PriceChange, err = parseFloat("price change", stats.PriceChange)
	errs = errors.Join(errs, err)
	ticker.PriceChangePercent, err = parseFloat("price change percent", stats.PriceChangePercent)
	errs = errors.Join(errs, err)
	ticker.Volume, err = parseFloat("volume", stats.Volume)
	errs = errors.Join(errs, err)
	ticker.QuoteVolume, err = parseFloat("quote volume", stats.QuoteVolume)
	errs = errors.Join(errs, err)
	if errs != nil {
		return nil, errs
	}

	return ticker, nil
}

// FetchTicker24h fetches the rolling 24 hour statistics of the provided market.
func (c *BinanceClient) FetchTicker24h(ctx context.Context, market string) (*shared.Ticker24h, error) {
	reqCtx, cancel, err := c.prepare(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	stats, err := c.client.NewListPriceChangeStatsService().Symbol(market).Do(reqCtx)
	if err != nil {
		return nil, fmt.Errorf("fetching 24h ticker for %s: %w", market, err)
	}

	for idx := range stats {
		if stats[idx].Symbol != market {
			continue
		}

		ticker, err := parseTicker(stats[idx])
		if err != nil {
			return nil, fmt.Errorf("parsing 24h ticker for %s: %w", market, err)
		}

		return ticker, nil
	}

	return nil, fmt.Errorf("no 24h ticker found for %s", market)
}

// FetchMarkets discovers the actively traded markets quoted in the provided asset, ordered by
// descending 24 hour quote volume and capped at the configured maximum.
func (c *BinanceClient) FetchMarkets(ctx context.Context, quoteAsset string) ([]string, error) {
	reqCtx, cancel, err := c.prepare(ctx)
	if err != nil {
		return nil, err
	}

	info, err := c.client.NewExchangeInfoService().Do(reqCtx)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("fetching exchange info: %w", err)
	}

	markets := make([]string, 0, len(info.Symbols))
	for idx := range info.Symbols {
		symbol := info.Symbols[idx]
		if symbol.Status != tradingStatus || symbol.QuoteAsset != quoteAsset {
			continue
		}

		markets = append(markets, symbol.Symbol)
	}

	reqCtx, cancel, err = c.prepare(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	stats, err := c.client.NewListPriceChangeStatsService().Do(reqCtx)
	if err != nil {
		return nil, fmt.Errorf("fetching 24h tickers: %w", err)
	}

	quoteVolumes := make(map[string]float64, len(stats))
	for idx := range stats {
		volume, err := strconv.ParseFloat(stats[idx].QuoteVolume, 64)
		if err != nil {
			c.cfg.Logger.Warn().Msgf("parsing quote volume of %s: %v", stats[idx].Symbol, err)
			continue
		}

		quoteVolumes[stats[idx].Symbol] = volume
	}

	sort.SliceStable(markets, func(i, j int) bool {
		if quoteVolumes[markets[i]] != quoteVolumes[markets[j]] {
			return quoteVolumes[markets[i]] > quoteVolumes[markets[j]]
		}

		return markets[i] < markets[j]
	})

	if c.cfg.MaxMarkets > 0 && len(markets) > c.cfg.MaxMarkets {
		markets = markets[:c.cfg.MaxMarkets]
	}

	c.cfg.Logger.Info().Msgf("discovered %d %s markets", len(markets), quoteAsset)

	return markets, nil
}
