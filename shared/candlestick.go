package shared

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/tidwall/gjson"
)

// ErrMalformedCandle is returned for candlesticks violating price or volume invariants.
var ErrMalformedCandle = errors.New("malformed candlestick")

// Candlestick represents a unit candlestick for a market.
type Candlestick struct {
	Open   float64
	Low    float64
	High   float64
	Close  float64
	Volume float64
	Date   time.Time

	// Metadata fields.
	Market    string
	Timeframe Timeframe
}

// Timestamp returns the candlestick open time as milliseconds since epoch.
func (c *Candlestick) Timestamp() int64 {
	return c.Date.UnixMilli()
}

// Validate asserts the candlestick satisfies low <= min(open, close) <= max(open, close) <= high
// with a non-negative volume.
func (c *Candlestick) Validate() error {
	bodyLow := min(c.Open, c.Close)
	bodyHigh := max(c.Open, c.Close)

	switch {
	case c.Low > bodyLow:
		return fmt.Errorf("%w: low %f above body low %f", ErrMalformedCandle, c.Low, bodyLow)
	case bodyHigh > c.High:
		return fmt.Errorf("%w: high %f below body high %f", ErrMalformedCandle, c.High, bodyHigh)
	case c.Volume < 0:
		return fmt.Errorf("%w: negative volume %f", ErrMalformedCandle, c.Volume)
	}

	return nil
}

// ValidateCandlesticks asserts every candlestick in the provided series is well formed and
// that the series is ordered oldest-first.
func ValidateCandlesticks(candles []Candlestick) error {
	for idx := range candles {
		err := candles[idx].Validate()
		if err != nil {
			return fmt.Errorf("candle at index %d: %w", idx, err)
		}

		if idx > 0 && candles[idx].Date.Before(candles[idx-1].Date) {
			return fmt.Errorf("%w: candle at index %d is older than its predecessor",
				ErrMalformedCandle, idx)
		}
	}

	return nil
}

// parseNumber reads a float from json values which may be encoded as numbers or strings.
func parseNumber(value gjson.Result) (float64, error) {
	switch value.Type {
	case gjson.Number:
		return value.Float(), nil
	case gjson.String:
		return strconv.ParseFloat(value.String(), 64)
	default:
		return 0, fmt.Errorf("unexpected value type %s", value.Type.String())
	}
}

// ParseCandlesticks parses candlesticks from the provided json data. Entries are either objects
// keyed by open/high/low/close/volume/time or exchange kline arrays.
func ParseCandlesticks(data []gjson.Result, market string, timeframe Timeframe) ([]Candlestick, error) {
	candles := make([]Candlestick, 0, len(data))

	for idx := range data {
		var candle Candlestick
		var err error

		entry := data[idx]
		switch {
		case entry.IsArray():
			// Exchange kline layout: [openTime, open, high, low, close, volume, ...].
			fields := entry.Array()
			if len(fields) < 6 {
				return nil, fmt.Errorf("kline at index %d has %d fields, expected at least 6", idx, len(fields))
			}

			values := make([]float64, 5)
			for i := range values {
				values[i], err = parseNumber(fields[i+1])
				if err != nil {
					return nil, fmt.Errorf("parsing kline at index %d: %w", idx, err)
				}
			}

			candle.Date = time.UnixMilli(fields[0].Int()).UTC()
			candle.Open, candle.High, candle.Low, candle.Close, candle.Volume =
				values[0], values[1], values[2], values[3], values[4]

		default:
			fields := []struct {
				key   string
				value *float64
			}{
				{"open", &candle.Open},
				{"high", &candle.High},
				{"low", &candle.Low},
				{"close", &candle.Close},
				{"volume", &candle.Volume},
			}

			for _, field := range fields {
				*field.value, err = parseNumber(entry.Get(field.key))
				if err != nil {
					return nil, fmt.Errorf("parsing %s of candle at index %d: %w", field.key, idx, err)
				}
			}

			ts := entry.Get("timestamp")
			switch {
			case ts.Exists():
				candle.Date = time.UnixMilli(ts.Int()).UTC()
			default:
				dt, err := time.Parse(DateLayout, entry.Get("date").String())
				if err != nil {
					return nil, fmt.Errorf("parsing candlestick date: %w", err)
				}
				candle.Date = dt
			}
		}

		candle.Market = market
		candle.Timeframe = timeframe
		candles = append(candles, candle)
	}

	return candles, nil
}
