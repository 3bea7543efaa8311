package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dnldd/kumo/shared"
	"github.com/peterldowns/testy/assert"
	"github.com/rs/zerolog/log"
)

type StorerMock struct {
	mtx      sync.Mutex
	contexts []context.Context
	stats    []shared.GradeStats
}

// Ensure the storer mock implements the SignalStorer interface.
var _ shared.SignalStorer = (*StorerMock)(nil)

func (m *StorerMock) PersistAnalysis(ctx context.Context, analysis *shared.MultiTimeframeAnalysis) error {
	return nil
}

func (m *StorerMock) FetchGradeStats(ctx context.Context, market string) ([]shared.GradeStats, error) {
	m.mtx.Lock()
	m.contexts = append(m.contexts, ctx)
	m.mtx.Unlock()

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	return m.stats, nil
}

func TestScannerConfigValidate(t *testing.T) {
	cancel := func() {}

	tests := []struct {
		name    string
		cfg     ScannerConfig
		wantErr bool
	}{
		{
			name: "valid config",
			cfg:  ScannerConfig{Markets: []string{"BTCUSDT"}, Cancel: cancel},
		},
		{
			name:    "missing cancel",
			cfg:     ScannerConfig{},
			wantErr: true,
		},
		{
			name:    "negative max markets",
			cfg:     ScannerConfig{MaxMarkets: -1, Cancel: cancel},
			wantErr: true,
		},
		{
			name:    "negative request rate",
			cfg:     ScannerConfig{RequestsPerSecond: -1, Cancel: cancel},
			wantErr: true,
		},
		{
			name:    "negative market pace",
			cfg:     ScannerConfig{MarketsPerSecond: -1, Cancel: cancel},
			wantErr: true,
		},
		{
			name:    "negative scan interval",
			cfg:     ScannerConfig{ScanInterval: -time.Minute, Cancel: cancel},
			wantErr: true,
		},
		{
			name:    "credentials without endpoint",
			cfg:     ScannerConfig{DBUser: "user", Cancel: cancel},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestScannerOfflineScan(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	scanner, err := NewScanner(ctx, &ScannerConfig{
		HistoricDataFilepath: "../testdata/historicdata.json",
		Cancel:               cancel,
	})
	assert.NoError(t, err)

	// Ensure the offline scan runs to completion and terminates the service.
	done := make(chan struct{})
	go func() {
		scanner.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second * 10):
		t.Fatal("timed out waiting for the offline scan")
	}

	assert.Equal(t, scanner.scanManager.Completed(), uint64(1))
	assert.Error(t, ctx.Err())
}

func TestScannerGracefulShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	scanner, err := NewScanner(ctx, &ScannerConfig{
		Markets:      []string{"BTCUSDT"},
		ScanInterval: time.Hour,
		Cancel:       cancel,
	})
	assert.NoError(t, err)

	// Ensure the scanner service can be run and gracefully terminated.
	cancel()
	done := make(chan struct{})
	go func() {
		scanner.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second * 5):
		t.Fatal("timed out waiting for the scanner to terminate")
	}
}

func TestScannerMarketPace(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Ensure the configured market pace reaches the scan manager.
	scanner, err := NewScanner(ctx, &ScannerConfig{
		HistoricDataFilepath: "../testdata/historicdata.json",
		MarketsPerSecond:     7,
		Cancel:               cancel,
	})
	assert.NoError(t, err)
	assert.Equal(t, scanner.scanManager.MarketsPerSecond(), float64(7))
}

func TestScannerNotifyHonoursCancellation(t *testing.T) {
	storer := &StorerMock{
		stats: []shared.GradeStats{{Market: "BTCUSDT", Grade: shared.GradeA, Total: 3, Long: 2, Short: 1}},
	}
	scanner := &Scanner{
		cfg:    &ScannerConfig{Cancel: func() {}},
		db:     storer,
		logger: &log.Logger,
	}

	signal := shared.TradingSignal{
		Market:    "BTCUSDT",
		Timeframe: shared.OneHour,
		Signal:    shared.LongSignal,
		Grade:     shared.GradeA,
	}

	// Ensure the grade stats lookup uses the scan context.
	scanner.notify(context.Background(), signal)
	assert.Equal(t, len(storer.contexts), 1)
	assert.NoError(t, storer.contexts[0].Err())

	// Ensure a cancelled scan cancels the grade stats lookup.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	scanner.notify(ctx, signal)
	assert.Equal(t, len(storer.contexts), 2)
	assert.True(t, errors.Is(storer.contexts[1].Err(), context.Canceled))
}
