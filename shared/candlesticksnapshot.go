package shared

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/atomic"
)

const (
	// SnapshotSize is the default maximum number of entries for a candlestick snapshot.
	SnapshotSize = 120
)

// CandlestickSnapshot represents a rolling window of candlestick data for a market timeframe.
type CandlestickSnapshot struct {
	data      []*Candlestick
	dataMtx   sync.RWMutex
	start     atomic.Int32
	count     atomic.Int32
	size      atomic.Int32
	timeframe Timeframe
}

// NewCandlestickSnapshot initializes a new candlestick snapshot.
func NewCandlestickSnapshot(size int32, timeframe Timeframe) (*CandlestickSnapshot, error) {
	if size < 0 {
		return nil, errors.New("snapshot size cannot be negative")
	}
	if size == 0 {
		return nil, errors.New("snapshot size cannot be zero")
	}

	snapshot := &CandlestickSnapshot{
		data:      make([]*Candlestick, size),
		timeframe: timeframe,
	}

	snapshot.size.Store(size)
	return snapshot, nil
}

// Update adds the provided candlestick to the snapshot. A candlestick sharing the date of the
// last entry replaces it, candlesticks older than the last entry are ignored.
func (s *CandlestickSnapshot) Update(candle *Candlestick) error {
	if candle.Timeframe != s.timeframe {
		return fmt.Errorf("unexpected timeframe for candle, expected %s, got %s",
			s.timeframe.String(), candle.Timeframe.String())
	}

	s.dataMtx.Lock()
	defer s.dataMtx.Unlock()

	start := s.start.Load()
	count := s.count.Load()
	size := s.size.Load()

	if count > 0 {
		lastIdx := (start + count - 1) % size
		last := s.data[lastIdx]
		switch {
		case candle.Date.Equal(last.Date):
			// The last candle is still forming, replace it.
			s.data[lastIdx] = candle
			return nil
		case candle.Date.Before(last.Date):
			return nil
		}
	}

	end := (start + count) % size
	s.data[end] = candle

	if count == size {
		// Overwrite the oldest entry when the snapshot is at capacity.
		s.start.Store((start + 1) % size)
	} else {
		s.count.Add(1)
	}

	return nil
}

// Count returns the number of entries in the snapshot.
func (s *CandlestickSnapshot) Count() int32 {
	return s.count.Load()
}

// Last returns the last added entry for the snapshot.
func (s *CandlestickSnapshot) Last() *Candlestick {
	s.dataMtx.RLock()
	defer s.dataMtx.RUnlock()

	start := s.start.Load()
	count := s.count.Load()
	size := s.size.Load()
	if count == 0 {
		return nil
	}

	end := (start + count - 1) % size
	return s.data[end]
}

// LastN fetches the last n number of elements from the snapshot.
func (s *CandlestickSnapshot) LastN(n int32) []*Candlestick {
	s.dataMtx.RLock()
	defer s.dataMtx.RUnlock()

	if n <= 0 {
		return nil
	}

	start := s.start.Load()
	count := s.count.Load()
	size := s.size.Load()

	// Clamp the number of elements expected if it is greater than the snapshot count.
	if n > count {
		n = count
	}

	set := make([]*Candlestick, n)
	start = (start + count - n + size) % size

	for i := range n {
		idx := (start + i) % size
		set[i] = s.data[idx]
	}

	return set
}

// Candles returns copies of the last n entries, oldest-first.
func (s *CandlestickSnapshot) Candles(n int32) []Candlestick {
	set := s.LastN(n)
	candles := make([]Candlestick, len(set))
	for idx := range set {
		candles[idx] = *set[idx]
	}

	return candles
}
