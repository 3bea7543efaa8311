package shared

import "testing"

func TestTrendString(t *testing.T) {
	tests := []struct {
		name  string
		trend Trend
		want  string
	}{
		{"neutral trend", NeutralTrend, "neutral"},
		{"bullish trend", BullishTrend, "bullish"},
		{"bearish trend", BearishTrend, "bearish"},
		{"unknown trend", Trend(999), "unknown"},
	}

	for _, test := range tests {
		str := test.trend.String()
		if str != test.want {
			t.Errorf("%s: expected %v, got %v", test.name, test.want, str)
		}
	}
}

func TestTrendOpposite(t *testing.T) {
	tests := []struct {
		name  string
		trend Trend
		want  Trend
	}{
		{"bullish flips to bearish", BullishTrend, BearishTrend},
		{"bearish flips to bullish", BearishTrend, BullishTrend},
		{"neutral stays neutral", NeutralTrend, NeutralTrend},
		{"unknown maps to neutral", Trend(999), NeutralTrend},
	}

	for _, test := range tests {
		opposite := test.trend.Opposite()
		if opposite != test.want {
			t.Errorf("%s: expected %v, got %v", test.name, test.want, opposite)
		}
	}

	// Ensure directional trends round trip.
	for _, trend := range []Trend{BullishTrend, BearishTrend} {
		if trend.Opposite().Opposite() != trend {
			t.Errorf("expected %v to round trip, got %v", trend, trend.Opposite().Opposite())
		}
	}
}
