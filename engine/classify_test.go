package engine

import (
	"testing"

	"github.com/dnldd/kumo/shared"
	"github.com/peterldowns/testy/assert"
)

// bullishState returns a state with full bullish confluence and rsi in the bullish band.
func bullishState() shared.IchimokuState {
	return shared.IchimokuState{
		Tenkan:        105,
		Kijun:         100,
		SenkouA:       95,
		SenkouB:       90,
		Chikou:        110,
		ChikouCompare: 100,
		CurrentPrice:  110,
		RSI:           60,
	}
}

// bearishState returns a state with full bearish confluence and rsi in the bearish band.
func bearishState() shared.IchimokuState {
	return shared.IchimokuState{
		Tenkan:        95,
		Kijun:         100,
		SenkouA:       105,
		SenkouB:       110,
		Chikou:        90,
		ChikouCompare: 100,
		CurrentPrice:  90,
		RSI:           40,
	}
}

func TestCloudPosition(t *testing.T) {
	tests := []struct {
		name  string
		price float64
		want  shared.CloudStatus
	}{
		{"above cloud", 100, shared.AboveCloud},
		{"in cloud", 92, shared.InCloud},
		{"below cloud", 85, shared.BelowCloud},
		{"at cloud top", 95, shared.InCloud},
		{"at cloud bottom", 90, shared.InCloud},
	}

	for _, test := range tests {
		state := &shared.IchimokuState{CurrentPrice: test.price, SenkouA: 90, SenkouB: 95}
		got := CloudPosition(state)
		if got != test.want {
			t.Errorf("%s: expected %s, got %s", test.name, test.want.String(), got.String())
		}

		// Ensure the cloud boundaries are order independent.
		state.SenkouA, state.SenkouB = state.SenkouB, state.SenkouA
		got = CloudPosition(state)
		if got != test.want {
			t.Errorf("%s (swapped spans): expected %s, got %s", test.name, test.want.String(),
				got.String())
		}
	}
}

func TestTKCrossAndChikou(t *testing.T) {
	state := &shared.IchimokuState{Tenkan: 10, Kijun: 9, Chikou: 5, ChikouCompare: 6}
	assert.Equal(t, TKCrossStatus(state), shared.BullishCross)
	assert.Equal(t, ChikouPosition(state), shared.ChikouBelow)

	state = &shared.IchimokuState{Tenkan: 9, Kijun: 10, Chikou: 6, ChikouCompare: 5}
	assert.Equal(t, TKCrossStatus(state), shared.BearishCross)
	assert.Equal(t, ChikouPosition(state), shared.ChikouAbove)

	state = &shared.IchimokuState{Tenkan: 10, Kijun: 10, Chikou: 5, ChikouCompare: 5}
	assert.Equal(t, TKCrossStatus(state), shared.NoCross)
	assert.Equal(t, ChikouPosition(state), shared.ChikouEqual)
}

func TestRSIBands(t *testing.T) {
	tests := []struct {
		rsi     float64
		bullish bool
		bearish bool
	}{
		{50, false, false},
		{60, true, false},
		{70, false, false},
		{75, false, false},
		{40, false, true},
		{30, false, false},
		{20, false, false},
	}

	for _, test := range tests {
		if RSIBullish(test.rsi) != test.bullish {
			t.Errorf("rsi %f: expected bullish %v", test.rsi, test.bullish)
		}
		if RSIBearish(test.rsi) != test.bearish {
			t.Errorf("rsi %f: expected bearish %v", test.rsi, test.bearish)
		}
	}
}

func TestClassify(t *testing.T) {
	bullish := bullishState()
	bearish := bearishState()

	overbought := bullishState()
	overbought.RSI = 75

	oversold := bearishState()
	oversold.RSI = 25

	inCloud := bullishState()
	inCloud.CurrentPrice = 92

	noCross := bullishState()
	noCross.Tenkan = noCross.Kijun

	chikouBelow := bullishState()
	chikouBelow.ChikouCompare = 120

	tests := []struct {
		name   string
		state  shared.IchimokuState
		higher *shared.IchimokuState
		signal shared.Signal
		grade  shared.Grade
	}{
		{"confirmed long", bullish, &bullish, shared.LongSignal, shared.GradeA},
		{"long without higher timeframe", bullish, nil, shared.LongSignal, shared.GradeB},
		{"long against higher timeframe", bullish, &bearish, shared.LongSignal, shared.GradeB},
		{"long with overbought rsi", overbought, &bullish, shared.LongSignal, shared.GradeB},
		{"confirmed short", bearish, &bearish, shared.ShortSignal, shared.GradeA},
		{"short without higher timeframe", bearish, nil, shared.ShortSignal, shared.GradeB},
		{"short with oversold rsi", oversold, &bearish, shared.ShortSignal, shared.GradeB},
		{"price in cloud", inCloud, &bullish, shared.Neutral, shared.GradeC},
		{"no tk cross", noCross, &bullish, shared.Neutral, shared.GradeC},
		{"chikou disagrees", chikouBelow, &bullish, shared.Neutral, shared.GradeC},
	}

	for _, test := range tests {
		class := Classify(&test.state, test.higher)
		if class.Signal != test.signal {
			t.Errorf("%s: expected signal %s, got %s", test.name, test.signal.String(),
				class.Signal.String())
		}
		if class.Grade != test.grade {
			t.Errorf("%s: expected grade %s, got %s", test.name, test.grade.String(),
				class.Grade.String())
		}
	}
}

func TestClassifyGradeRefinesConfluence(t *testing.T) {
	prices := []float64{80, 92, 100, 120}
	tenkans := []float64{95, 100, 105}
	chikouCompares := []float64{90, 100, 110}
	rsis := []float64{20, 40, 50, 60, 80}
	highers := []*shared.IchimokuState{nil, {CurrentPrice: 200, SenkouA: 100, SenkouB: 110},
		{CurrentPrice: 50, SenkouA: 100, SenkouB: 110}}

	for _, price := range prices {
		for _, tenkan := range tenkans {
			for _, compare := range chikouCompares {
				for _, rsi := range rsis {
					for _, higher := range highers {
						state := &shared.IchimokuState{
							Tenkan:        tenkan,
							Kijun:         100,
							SenkouA:       90,
							SenkouB:       95,
							Chikou:        price,
							ChikouCompare: compare,
							CurrentPrice:  price,
							RSI:           rsi,
						}

						class := Classify(state, higher)
						base := Classify(state, nil)

						// Ensure exactly one cloud status holds and matches the price.
						switch class.CloudStatus {
						case shared.AboveCloud:
							assert.True(t, price > state.CloudTop())
						case shared.BelowCloud:
							assert.True(t, price < state.CloudBottom())
						default:
							assert.True(t, price >= state.CloudBottom() && price <= state.CloudTop())
						}

						// Ensure grade A never occurs without the base confluence.
						if class.Grade == shared.GradeA {
							assert.Equal(t, base.Grade, shared.GradeB)
							assert.Equal(t, base.Signal, class.Signal)
						}

						// Ensure neutral signals are always grade C.
						if class.Signal == shared.Neutral {
							assert.Equal(t, class.Grade, shared.GradeC)
						}
					}
				}
			}
		}
	}
}

func TestScoreStrength(t *testing.T) {
	bullish := bullishState()
	assert.Equal(t, ScoreStrength(&bullish), float64(90))

	// Ensure above average volume adds to the winning side.
	bullish.Volume = 20
	bullish.AverageVolume = 10
	assert.Equal(t, ScoreStrength(&bullish), float64(100))

	bearish := bearishState()
	assert.Equal(t, ScoreStrength(&bearish), float64(90))

	// Ensure partial confluence earns partial credit.
	partial := bullishState()
	partial.CurrentPrice = 92
	partial.RSI = 50
	assert.Equal(t, ScoreStrength(&partial), float64(50))

	// Ensure a directionless state scores zero, regardless of volume.
	flat := shared.IchimokuState{
		Tenkan:        100,
		Kijun:         100,
		SenkouA:       100,
		SenkouB:       100,
		Chikou:        100,
		ChikouCompare: 100,
		CurrentPrice:  100,
		RSI:           50,
		Volume:        20,
		AverageVolume: 10,
	}
	assert.Equal(t, ScoreStrength(&flat), float64(0))

	// Ensure scores are mirrored between directions.
	mixed := bullishState()
	mixed.Tenkan = 95
	mirror := bearishState()
	mirror.Tenkan = 105
	assert.Equal(t, ScoreStrength(&mixed), ScoreStrength(&mirror))
}
