package scan

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dnldd/kumo/alignment"
	"github.com/dnldd/kumo/engine"
	"github.com/dnldd/kumo/shared"
	"github.com/go-co-op/gocron"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.uber.org/atomic"
	"golang.org/x/time/rate"
)

const (
	// bufferSize is the default buffer size for channels.
	bufferSize = 8
	// defaultInterval is the default duration between scheduled scans.
	defaultInterval = time.Hour
	// defaultMarketsPerSecond is the default pace of market scans.
	defaultMarketsPerSecond = float64(2)
	// defaultQuoteAsset is the default quote asset of discovered markets.
	defaultQuoteAsset = "USDT"
)

// ErrScanInProgress is returned when a scan is requested while another is running.
var ErrScanInProgress = errors.New("scan already in progress")

// Result represents the outcome of scanning a single market.
type Result struct {
	// ScanID is the id of the scan pass the result belongs to.
	ScanID string
	// Market is the scanned market.
	Market string
	// Analysis is the multi-timeframe analysis of the market.
	Analysis *shared.MultiTimeframeAnalysis
}

// ManagerConfig represents the scan manager configuration.
type ManagerConfig struct {
	// Markets represents the markets to scan, discovered from the fetcher when empty.
	Markets []string
	// QuoteAsset is the quote asset of discovered markets.
	QuoteAsset string
	// Fetcher represents the market data source.
	Fetcher shared.MarketFetcher
	// Engine evaluates market candles into trading signals.
	Engine *engine.Engine
	// Interval is the duration between scheduled scans.
	Interval time.Duration
	// MarketsPerSecond paces scans across markets.
	MarketsPerSecond float64
	// NotifyResult relays each market result as soon as it is available.
	NotifyResult func(result Result)
	// Notify relays grade A trading signals with the context of the scan producing them.
	Notify func(ctx context.Context, signal shared.TradingSignal)
	// PersistResult stores the provided analysis, optional.
	PersistResult func(ctx context.Context, analysis *shared.MultiTimeframeAnalysis) error
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// Validate asserts the config sane inputs.
func (cfg *ManagerConfig) Validate() error {
	var errs error

	if cfg.Fetcher == nil {
		errs = errors.Join(errs, fmt.Errorf("no market fetcher provided"))
	}
	if cfg.Engine == nil {
		errs = errors.Join(errs, fmt.Errorf("no signal engine provided"))
	}
	if cfg.Interval < 0 {
		errs = errors.Join(errs, fmt.Errorf("scan interval cannot be negative"))
	}
	if cfg.MarketsPerSecond < 0 {
		errs = errors.Join(errs, fmt.Errorf("markets per second cannot be negative"))
	}
	if cfg.NotifyResult == nil {
		errs = errors.Join(errs, fmt.Errorf("no result notifier provided"))
	}
	if cfg.Notify == nil {
		errs = errors.Join(errs, fmt.Errorf("no signal notifier provided"))
	}
	if cfg.Logger == nil {
		errs = errors.Join(errs, fmt.Errorf("no logger provided"))
	}

	return errs
}

// Manager scans markets for trading signals.
type Manager struct {
	cfg         *ManagerConfig
	pacer       *rate.Limiter
	scanning    atomic.Bool
	completed   atomic.Uint64
	scanSignals chan struct{}
	workers     sync.WaitGroup

	snapshots    map[string]map[shared.Timeframe]*shared.CandlestickSnapshot
	snapshotsMtx sync.Mutex
}

// NewManager initializes a new scan manager.
func NewManager(cfg *ManagerConfig) (*Manager, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating scan manager config: %w", err)
	}

	if cfg.Interval == 0 {
		cfg.Interval = defaultInterval
	}
	if cfg.MarketsPerSecond == 0 {
		cfg.MarketsPerSecond = defaultMarketsPerSecond
	}
	if cfg.QuoteAsset == "" {
		cfg.QuoteAsset = defaultQuoteAsset
	}

	return &Manager{
		cfg:         cfg,
		pacer:       rate.NewLimiter(rate.Limit(cfg.MarketsPerSecond), 1),
		scanSignals: make(chan struct{}, bufferSize),
		snapshots:   make(map[string]map[shared.Timeframe]*shared.CandlestickSnapshot),
	}, nil
}

// Scanning checks whether a scan is in progress.
func (m *Manager) Scanning() bool {
	return m.scanning.Load()
}

// Completed returns the number of completed scans.
func (m *Manager) Completed() uint64 {
	return m.completed.Load()
}

// MarketsPerSecond returns the pace of market scans.
func (m *Manager) MarketsPerSecond() float64 {
	return m.cfg.MarketsPerSecond
}

// SendScanSignal relays a scan request for processing.
func (m *Manager) SendScanSignal() {
	select {
	case m.scanSignals <- struct{}{}:
		// do nothing.
	default:
		m.cfg.Logger.Error().Msgf("scan signal channel at capacity: %d/%d",
			len(m.scanSignals), bufferSize)
	}
}

// markets returns the configured markets, discovering them when none are configured.
func (m *Manager) markets(ctx context.Context) ([]string, error) {
	if len(m.cfg.Markets) > 0 {
		return m.cfg.Markets, nil
	}

	markets, err := m.cfg.Fetcher.FetchMarkets(ctx, m.cfg.QuoteAsset)
	if err != nil {
		return nil, fmt.Errorf("discovering %s markets: %w", m.cfg.QuoteAsset, err)
	}

	return markets, nil
}

// snapshot returns the rolling candle window of the provided market timeframe, creating it
// when it does not exist.
func (m *Manager) snapshot(market string, timeframe shared.Timeframe) (*shared.CandlestickSnapshot, error) {
	m.snapshotsMtx.Lock()
	defer m.snapshotsMtx.Unlock()

	set, ok := m.snapshots[market]
	if !ok {
		set = make(map[shared.Timeframe]*shared.CandlestickSnapshot, len(shared.Timeframes))
		m.snapshots[market] = set
	}

	snapshot, ok := set[timeframe]
	if ok {
		return snapshot, nil
	}

	size := max(int32(m.cfg.Engine.Lookback()), shared.SnapshotSize)
	snapshot, err := shared.NewCandlestickSnapshot(size, timeframe)
	if err != nil {
		return nil, fmt.Errorf("creating %s %s snapshot: %w", market, timeframe.String(), err)
	}

	set[timeframe] = snapshot

	return snapshot, nil
}

// updateSnapshot merges the provided candles into the market timeframe window and returns
// its most recent candles, oldest-first. Candles refetched across scans are deduplicated and
// a still forming last candle is replaced.
func (m *Manager) updateSnapshot(market string, timeframe shared.Timeframe, candles []shared.Candlestick) ([]shared.Candlestick, error) {
	snapshot, err := m.snapshot(market, timeframe)
	if err != nil {
		return nil, err
	}

	for idx := range candles {
		err := snapshot.Update(&candles[idx])
		if err != nil {
			return nil, fmt.Errorf("updating %s %s snapshot: %w", market, timeframe.String(), err)
		}
	}

	return snapshot.Candles(int32(m.cfg.Engine.Lookback())), nil
}

// scanMarket fetches the provided market's candles and evaluates them into an analysis.
// Timeframes that cannot be fetched are skipped.
func (m *Manager) scanMarket(ctx context.Context, market string) (*shared.MultiTimeframeAnalysis, error) {
	lookback := m.cfg.Engine.Lookback()
	series := make(map[shared.Timeframe][]shared.Candlestick, len(shared.Timeframes))
	for _, timeframe := range shared.Timeframes {
		candles, err := m.cfg.Fetcher.FetchHistoricalCandles(ctx, market, timeframe, lookback)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}

			m.cfg.Logger.Error().Msgf("fetching %s candles for %s: %v", timeframe.String(), market, err)
			continue
		}

		window, err := m.updateSnapshot(market, timeframe, candles)
		if err != nil {
			m.cfg.Logger.Error().Msg(err.Error())
			continue
		}

		series[timeframe] = window
	}

	if len(series) == 0 {
		return nil, fmt.Errorf("no candles fetched for %s", market)
	}

	ticker, err := m.cfg.Fetcher.FetchTicker24h(ctx, market)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		m.cfg.Logger.Warn().Msgf("fetching 24h ticker for %s, deriving from candles: %v", market, err)
		ticker = nil
	}

	signals, err := m.cfg.Engine.Evaluate(market, series, ticker)
	if err != nil {
		return nil, fmt.Errorf("evaluating %s: %w", market, err)
	}

	return alignment.Analyze(market, signals), nil
}

// handleResult relays the provided result and its grade A signals.
func (m *Manager) handleResult(ctx context.Context, result Result) {
	m.cfg.NotifyResult(result)

	for _, timeframe := range shared.Timeframes {
		signal := result.Analysis.Signal(timeframe)
		if signal != nil && signal.Grade == shared.GradeA {
			m.cfg.Notify(ctx, *signal)
		}
	}

	if m.cfg.PersistResult != nil {
		err := m.cfg.PersistResult(ctx, result.Analysis)
		if err != nil {
			m.cfg.Logger.Error().Msgf("persisting %s analysis: %v", result.Market, err)
		}
	}
}

// Scan evaluates the provided markets sequentially, discovering them when none are provided.
// Results are relayed as each market completes. Markets that fail to evaluate are logged and
// skipped. On cancellation the results gathered so far are returned with the context error.
func (m *Manager) Scan(ctx context.Context, markets []string) ([]Result, error) {
	if !m.scanning.CAS(false, true) {
		return nil, ErrScanInProgress
	}
	defer m.scanning.Store(false)

	if len(markets) == 0 {
		var err error
		markets, err = m.markets(ctx)
		if err != nil {
			return nil, err
		}
	}

	scanID := uuid.New().String()
	m.cfg.Logger.Info().Msgf("starting scan %s of %d markets", scanID, len(markets))

	results := make([]Result, 0, len(markets))
	for _, market := range markets {
		err := m.pacer.Wait(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return results, ctx.Err()
			}
			return results, fmt.Errorf("pacing scan of %s: %w", market, err)
		}

		analysis, err := m.scanMarket(ctx, market)
		if err != nil {
			if ctx.Err() != nil {
				return results, ctx.Err()
			}

			m.cfg.Logger.Error().Msgf("skipping %s: %v", market, err)
			continue
		}

		result := Result{
			ScanID:   scanID,
			Market:   market,
			Analysis: analysis,
		}

		m.handleResult(ctx, result)
		results = append(results, result)
	}

	m.completed.Inc()
	m.cfg.Logger.Info().Msgf("completed scan %s with %d/%d markets", scanID, len(results), len(markets))

	return results, nil
}

// handleScanSignal runs a scan of the configured markets.
func (m *Manager) handleScanSignal(ctx context.Context) {
	_, err := m.Scan(ctx, m.cfg.Markets)
	switch {
	case errors.Is(err, ErrScanInProgress):
		m.cfg.Logger.Warn().Msg("dropping scan request, a scan is already in progress")
	case err != nil:
		m.cfg.Logger.Error().Msgf("scanning markets: %v", err)
	}
}

// Run manages the lifecycle processes of the scan manager. A scan is scheduled immediately and
// then at every configured interval until the context is cancelled.
func (m *Manager) Run(ctx context.Context) {
	scheduler := gocron.NewScheduler(time.UTC)
	_, err := scheduler.Every(m.cfg.Interval).StartImmediately().SingletonMode().Do(m.SendScanSignal)
	if err != nil {
		m.cfg.Logger.Error().Msgf("scheduling scans: %v", err)
		return
	}

	scheduler.StartAsync()

	for {
		select {
		case <-ctx.Done():
			scheduler.Stop()
			m.workers.Wait()
			return

		case <-m.scanSignals:
			if m.scanning.Load() {
				m.cfg.Logger.Warn().Msg("dropping scan request, a scan is already in progress")
				continue
			}

			m.workers.Add(1)
			go func() {
				defer m.workers.Done()
				m.handleScanSignal(ctx)
			}()
		}
	}
}
