package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dnldd/kumo/database"
	"github.com/dnldd/kumo/engine"
	"github.com/dnldd/kumo/fetch"
	"github.com/dnldd/kumo/indicator"
	"github.com/dnldd/kumo/scan"
	"github.com/dnldd/kumo/shared"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
)

// ScannerConfig represents the configuration struct for the scanner service.
type ScannerConfig struct {
	// Markets represents the scanned markets, discovered when empty.
	Markets []string
	// QuoteAsset is the quote asset of discovered markets.
	QuoteAsset string
	// MaxMarkets caps the number of discovered markets, zero for no cap.
	MaxMarkets int
	// BinanceAPIKey is the binance api key.
	BinanceAPIKey string
	// BinanceAPISecret is the binance api secret.
	BinanceAPISecret string
	// RequestsPerSecond is the maximum outbound request rate to binance.
	RequestsPerSecond float64
	// MarketsPerSecond paces scans across markets.
	MarketsPerSecond float64
	// ScanInterval is the duration between scheduled scans.
	ScanInterval time.Duration
	// DBEndpoint is the database endpoint, signals are not persisted when empty.
	DBEndpoint string
	// DBUser is the database user.
	DBUser string
	// DBPass is the database user pass.
	DBPass string
	// HistoricDataFilepath is the filepath to historic market data. When set a single
	// offline scan is run against it.
	HistoricDataFilepath string
	// Indicator represents the indicator periods.
	Indicator indicator.Config
	// Cancel is the context cancellation function.
	Cancel context.CancelFunc
}

// Validate asserts the config sane inputs.
func (cfg *ScannerConfig) Validate() error {
	var errs error

	if cfg.MaxMarkets < 0 {
		errs = errors.Join(errs, fmt.Errorf("max markets cannot be negative"))
	}
	if cfg.RequestsPerSecond < 0 {
		errs = errors.Join(errs, fmt.Errorf("requests per second cannot be negative"))
	}
	if cfg.MarketsPerSecond < 0 {
		errs = errors.Join(errs, fmt.Errorf("markets per second cannot be negative"))
	}
	if cfg.ScanInterval < 0 {
		errs = errors.Join(errs, fmt.Errorf("scan interval cannot be negative"))
	}
	if cfg.DBEndpoint == "" && (cfg.DBUser != "" || cfg.DBPass != "") {
		errs = errors.Join(errs, fmt.Errorf("database credentials provided without an endpoint"))
	}
	if cfg.Cancel == nil {
		errs = errors.Join(errs, fmt.Errorf("context cancellation function cannot be nil"))
	}

	return errs
}

// Scanner represents a market signal scanning service.
type Scanner struct {
	cfg          *ScannerConfig
	fetcher      shared.MarketFetcher
	historicData *shared.HistoricData
	scanManager  *scan.Manager
	db           shared.SignalStorer
	logger       *zerolog.Logger
	wg           sync.WaitGroup
}

// NewScanner initializes a new scanner service.
func NewScanner(ctx context.Context, cfg *ScannerConfig) (*Scanner, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating scanner config: %w", err)
	}

	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	logger := log.With().Str("service", "kumo").Logger()

	service := &Scanner{
		cfg:    cfg,
		logger: &logger,
	}

	switch cfg.HistoricDataFilepath {
	case "":
		binanceLogger := logger.With().Str("component", "binance").Logger()
		service.fetcher, err = fetch.NewBinanceClient(&fetch.BinanceConfig{
			APIKey:            cfg.BinanceAPIKey,
			APISecret:         cfg.BinanceAPISecret,
			RequestsPerSecond: cfg.RequestsPerSecond,
			MaxMarkets:        cfg.MaxMarkets,
			Logger:            &binanceLogger,
		})
		if err != nil {
			return nil, fmt.Errorf("creating binance client: %v", err)
		}

	default:
		historicDataLogger := logger.With().Str("component", "historicdata").Logger()
		service.historicData, err = shared.NewHistoricData(&shared.HistoricDataConfig{
			FilePath: cfg.HistoricDataFilepath,
			Logger:   &historicDataLogger,
		})
		if err != nil {
			return nil, fmt.Errorf("creating historic data: %v", err)
		}

		service.fetcher = service.historicData
	}

	if cfg.DBEndpoint != "" {
		dbLogger := logger.With().Str("component", "database").Logger()
		service.db, err = database.NewDatabase(ctx, &database.DatabaseConfig{
			Endpoint: cfg.DBEndpoint,
			User:     cfg.DBUser,
			Pass:     cfg.DBPass,
			Logger:   &dbLogger,
		})
		if err != nil {
			return nil, fmt.Errorf("creating database: %v", err)
		}
	}

	engineLogger := logger.With().Str("component", "engine").Logger()
	signalEngine, err := engine.NewEngine(&engine.EngineConfig{
		Indicator: &cfg.Indicator,
		Logger:    &engineLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating signal engine: %v", err)
	}

	var persistResult func(ctx context.Context, analysis *shared.MultiTimeframeAnalysis) error
	if service.db != nil {
		persistResult = service.db.PersistAnalysis
	}

	scanMgrLogger := logger.With().Str("component", "scanmanager").Logger()
	service.scanManager, err = scan.NewManager(&scan.ManagerConfig{
		Markets:          cfg.Markets,
		QuoteAsset:       cfg.QuoteAsset,
		Fetcher:          service.fetcher,
		Engine:           signalEngine,
		Interval:         cfg.ScanInterval,
		MarketsPerSecond: cfg.MarketsPerSecond,
		NotifyResult:     service.notifyResult,
		Notify:           service.notify,
		PersistResult:    persistResult,
		Logger:           &scanMgrLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating scan manager: %v", err)
	}

	return service, nil
}

// notifyResult reports the analysis of a scanned market.
func (s *Scanner) notifyResult(result scan.Result) {
	analysis := result.Analysis
	event := s.logger.Info().
		Str("scan", result.ScanID).
		Str("market", result.Market).
		Str("recommendation", analysis.Recommendation.String()).
		Str("trend", analysis.Alignment.DominantTrend.String()).
		Float64("alignment", analysis.Alignment.AlignmentScore).
		Float64("strength", analysis.OverallStrength)

	if analysis.ConflictWarning != nil {
		event = event.Str("conflict", *analysis.ConflictWarning)
	}

	event.Msgf("analysed %s", result.Market)
}

// notify alerts on grade A trading signals. The grade stats lookup is bound to the provided
// scan context.
func (s *Scanner) notify(ctx context.Context, signal shared.TradingSignal) {
	s.logger.Info().Msgf("grade %s %s signal for %s on %s at %.8f (rsi %.2f)",
		signal.Grade.String(), signal.Signal.String(), signal.Market, signal.Timeframe.String(),
		signal.CurrentPrice, signal.RSI)

	if s.db == nil {
		return
	}

	stats, err := s.db.FetchGradeStats(ctx, signal.Market)
	if err != nil {
		s.logger.Error().Msgf("fetching grade stats for %s: %v", signal.Market, err)
		return
	}

	for _, stat := range stats {
		if stat.Grade != signal.Grade {
			continue
		}

		s.logger.Info().Msgf("%s grade %s history: %d signals, %d long, %d short",
			stat.Market, stat.Grade.String(), stat.Total, stat.Long, stat.Short)
	}
}

// Run handles the lifecycle processes of the scanner service.
func (s *Scanner) Run(ctx context.Context) {
	if s.historicData != nil {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()

			results, err := s.scanManager.Scan(ctx, s.cfg.Markets)
			if err != nil {
				s.logger.Error().Msgf("scanning historic data: %v", err)
			}

			s.logger.Info().Msgf("offline scan of %d markets done", len(results))
			s.cfg.Cancel()
		}()

		s.wg.Wait()
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.scanManager.Run(ctx)
	}()

	s.wg.Wait()
}
