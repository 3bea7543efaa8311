package shared

import (
	"fmt"
	"time"
)

const (
	// DateLayout is the format layout for parsing dates.
	DateLayout = "2006-01-02 15:04:05"
)

// Timeframe represents the market data time period.
type Timeframe int

const (
	OneHour Timeframe = iota
	FourHour
	OneDay
)

// Timeframes lists the tracked timeframes from the lowest to the highest.
var Timeframes = []Timeframe{OneHour, FourHour, OneDay}

// String stringifies the provided timeframe. The returned values double as
// exchange kline intervals.
func (t Timeframe) String() string {
	switch t {
	case OneHour:
		return "1h"
	case FourHour:
		return "4h"
	case OneDay:
		return "1d"
	default:
		return "unknown"
	}
}

// ParseTimeframe parses the provided interval string into a timeframe.
func ParseTimeframe(interval string) (Timeframe, error) {
	switch interval {
	case "1h", "1H":
		return OneHour, nil
	case "4h", "4H":
		return FourHour, nil
	case "1d", "1D":
		return OneDay, nil
	default:
		return 0, fmt.Errorf("unknown timeframe: %s", interval)
	}
}

// Weight returns the priority weight of the timeframe. Higher timeframes carry
// more influence, the daily the most.
func (t Timeframe) Weight() float64 {
	switch t {
	case OneHour:
		return 1
	case FourHour:
		return 2
	case OneDay:
		return 3
	default:
		return 0
	}
}

// Higher returns the timeframe used as a confirmation filter for the provided
// timeframe. The boolean is false for the highest tracked timeframe.
func (t Timeframe) Higher() (Timeframe, bool) {
	switch t {
	case OneHour:
		return FourHour, true
	case FourHour:
		return OneDay, true
	default:
		return 0, false
	}
}

// Duration returns the length of a single candle of the timeframe.
func (t Timeframe) Duration() (time.Duration, error) {
	switch t {
	case OneHour:
		return time.Hour, nil
	case FourHour:
		return time.Hour * 4, nil
	case OneDay:
		return time.Hour * 24, nil
	default:
		return 0, fmt.Errorf("unknown timeframe provided: %s", t.String())
	}
}
