package risk

import (
	"testing"

	"github.com/ducminhle1904/mt5-trade-engine/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSizePosition_Forex(t *testing.T) {
	c := NewCalculator()

	// 50 pips at $10/pip: 100 / (50 × 10) = 0.20
	volume, err := c.SizePosition(SizingInput{
		RiskUSD:    100,
		EntryPrice: 1.1000,
		StopPrice:  1.0950,
		TickValue:  10,
		TickSize:   0.00001,
		VolumeStep: 0.01,
		VolumeMin:  0.01,
		VolumeMax:  100,
	})
	require.NoError(t, err)
	assert.Equal(t, 0.20, volume)
}

func TestSizePosition_Gold(t *testing.T) {
	c := NewCalculator()

	// 50 / (5 × 100) = 0.10
	volume, err := c.SizePosition(SizingInput{
		RiskUSD:    50,
		EntryPrice: 2000.00,
		StopPrice:  1995.00,
		TickValue:  1,
		TickSize:   0.01,
		VolumeStep: 0.01,
		VolumeMin:  0.01,
		VolumeMax:  100,
	})
	require.NoError(t, err)
	assert.Equal(t, 0.10, volume)
}

func TestSizePosition_ExplicitClassWinsOverTickSize(t *testing.T) {
	c := NewCalculator()

	// Tick size says forex, explicit class says fixed multiplier. The
	// class must win: 50 / (10 × 100) = 0.05.
	volume, err := c.SizePosition(SizingInput{
		RiskUSD:    50,
		EntryPrice: 2000,
		StopPrice:  1990,
		Class:      types.ClassFixedMultiplier,
		TickValue:  10,
		TickSize:   0.001,
		VolumeStep: 0.01,
		VolumeMin:  0.01,
		VolumeMax:  100,
	})
	require.NoError(t, err)
	assert.Equal(t, 0.05, volume)
}

func TestSizePosition_InvalidInputs(t *testing.T) {
	c := NewCalculator()

	tests := []struct {
		name string
		in   SizingInput
	}{
		{"zero risk", SizingInput{RiskUSD: 0, EntryPrice: 2000, StopPrice: 1995, TickSize: 0.01}},
		{"negative risk", SizingInput{RiskUSD: -50, EntryPrice: 2000, StopPrice: 1995, TickSize: 0.01}},
		{"zero distance", SizingInput{RiskUSD: 50, EntryPrice: 2000, StopPrice: 2000, TickSize: 0.01}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.SizePosition(tt.in)
			assert.Error(t, err)
		})
	}
}

func TestSizePosition_MaxVolumeCapBeforeRounding(t *testing.T) {
	c := NewCalculator()

	// Raw volume 10 / (0.1 × 100) = 1000, far above the cap
	volume, err := c.SizePosition(SizingInput{
		RiskUSD:    10000,
		EntryPrice: 2000.0,
		StopPrice:  1999.0,
		TickValue:  1,
		TickSize:   0.01,
		VolumeStep: 0.01,
		VolumeMin:  0.01,
		VolumeMax:  5.0,
	})
	require.NoError(t, err)
	assert.Equal(t, 5.0, volume)
}

func TestSizePosition_MinVolumeFloor(t *testing.T) {
	c := NewCalculator()

	// 1 / (50 × 100) = 0.0002, below the broker minimum
	volume, err := c.SizePosition(SizingInput{
		RiskUSD:    1,
		EntryPrice: 2050,
		StopPrice:  2000,
		TickValue:  1,
		TickSize:   0.01,
		VolumeStep: 0.01,
		VolumeMin:  0.01,
		VolumeMax:  100,
	})
	require.NoError(t, err)
	assert.Equal(t, 0.01, volume)
}

func TestSizePosition_RoundsDownToStep(t *testing.T) {
	c := NewCalculator()

	// 100 / (7 × 100) = 0.142857... → floored to 0.14
	volume, err := c.SizePosition(SizingInput{
		RiskUSD:    100,
		EntryPrice: 2007,
		StopPrice:  2000,
		TickValue:  1,
		TickSize:   0.01,
		VolumeStep: 0.01,
		VolumeMin:  0.01,
		VolumeMax:  100,
	})
	require.NoError(t, err)
	assert.Equal(t, 0.14, volume)
}

func TestSizePosition_FloatDriftSnapping(t *testing.T) {
	c := NewCalculator()

	// 0.1+0.2 style drift must not drop a whole step when the raw volume
	// lands a hair under a step boundary.
	volume, err := c.SizePosition(SizingInput{
		RiskUSD:    30,
		EntryPrice: 2001.0,
		StopPrice:  2000.0,
		TickValue:  1,
		TickSize:   0.01,
		VolumeStep: 0.01,
		VolumeMin:  0.01,
		VolumeMax:  100,
	})
	require.NoError(t, err)
	assert.Equal(t, 0.30, volume)
}

func TestSizePosition_Monotonicity(t *testing.T) {
	c := NewCalculator()

	prev := 0.0
	for riskUSD := 10.0; riskUSD <= 2000; riskUSD += 10 {
		volume, err := c.SizePosition(SizingInput{
			RiskUSD:    riskUSD,
			EntryPrice: 2000,
			StopPrice:  1995,
			TickValue:  1,
			TickSize:   0.01,
			VolumeStep: 0.01,
			VolumeMin:  0.01,
			VolumeMax:  100,
		})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, volume, prev, "risk %.0f", riskUSD)
		prev = volume
	}
}

func TestPipValue(t *testing.T) {
	// $1 per 0.00001 tick → $10 per pip
	assert.InDelta(t, 10.0, PipValue(&types.InstrumentMetadata{TickValue: 1, TickSize: 0.00001}), 1e-9)

	// $1 per 0.0001 tick → $1 per pip
	assert.InDelta(t, 1.0, PipValue(&types.InstrumentMetadata{TickValue: 1, TickSize: 0.0001}), 1e-9)

	// Degenerate tick size falls back to the raw tick value
	assert.Equal(t, 7.0, PipValue(&types.InstrumentMetadata{TickValue: 7, TickSize: 0}))
}
