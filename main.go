package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/dnldd/kumo/indicator"
	"github.com/dnldd/kumo/service"
)

// handleTermination processes context cancellation signals or interrupt signals from the OS.
func handleTermination(ctx context.Context, cancel context.CancelFunc) {
	// Listen for interrupt signals.
	signals := []os.Signal{os.Interrupt}
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, signals...)

	// Wait for the context to be cancelled or an interrupt signal.
	for {
		select {
		case <-ctx.Done():
			return

		case <-interrupt:
			cancel()
		}
	}
}

func main() {
	var cfg Config
	err := loadConfig(&cfg, "")
	if err != nil {
		log.Printf("loading config: %v", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	scannerCfg := service.ScannerConfig{
		Markets:              cfg.Markets,
		QuoteAsset:           cfg.QuoteAsset,
		MaxMarkets:           cfg.MaxMarkets,
		BinanceAPIKey:        cfg.BinanceAPIKey,
		BinanceAPISecret:     cfg.BinanceAPISecret,
		RequestsPerSecond:    cfg.RequestsPerSecond,
		MarketsPerSecond:     cfg.MarketsPerSecond,
		ScanInterval:         time.Minute * time.Duration(cfg.ScanIntervalMinutes),
		DBEndpoint:           cfg.DBEndpoint,
		DBUser:               cfg.DBUser,
		DBPass:               cfg.DBPass,
		HistoricDataFilepath: cfg.HistoricDataFilepath,
		Indicator: indicator.Config{
			TenkanPeriod: cfg.TenkanPeriod,
			KijunPeriod:  cfg.KijunPeriod,
			SenkouPeriod: cfg.SenkouPeriod,
			ChikouPeriod: cfg.ChikouPeriod,
			RSIPeriod:    cfg.RSIPeriod,
		},
		Cancel: cancel,
	}
	scanner, err := service.NewScanner(ctx, &scannerCfg)
	if err != nil {
		log.Printf("creating scanner service: %v", err)
		return
	}

	go handleTermination(ctx, cancel)
	scanner.Run(ctx)
}
