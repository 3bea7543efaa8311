package shared

import (
	"context"
)

// Ticker24h represents rolling 24 hour statistics for a market.
type Ticker24h struct {
	Market             string
	LastPrice          float64
	PriceChange        float64
	PriceChangePercent float64
	Volume             float64
	QuoteVolume        float64
}

// MarketFetcher defines the requirements for fetching market data.
type MarketFetcher interface {
	// FetchHistoricalCandles fetches up to limit of the most recent candles for the provided
	// market and timeframe, oldest-first.
	FetchHistoricalCandles(ctx context.Context, market string, timeframe Timeframe, limit int) ([]Candlestick, error)
	// FetchTicker24h fetches the rolling 24 hour statistics of the provided market.
	FetchTicker24h(ctx context.Context, market string) (*Ticker24h, error)
	// FetchMarkets discovers tradeable markets quoted in the provided asset.
	FetchMarkets(ctx context.Context, quoteAsset string) ([]string, error)
}

// GradeStats represents the historical signal counts of a market for a grade.
type GradeStats struct {
	Market string
	Grade  Grade
	Total  int
	Long   int
	Short  int
}

// SignalStorer defines the requirements for storing signals and their historical stats.
type SignalStorer interface {
	// PersistAnalysis stores the provided analysis and its non-nil timeframe signals.
	PersistAnalysis(ctx context.Context, analysis *MultiTimeframeAnalysis) error
	// FetchGradeStats returns the historical per-grade stats of the provided market.
	FetchGradeStats(ctx context.Context, market string) ([]GradeStats, error)
}
