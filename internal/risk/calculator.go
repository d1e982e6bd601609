package risk

import (
	"math"

	engerr "github.com/ducminhle1904/mt5-trade-engine/internal/errors"
	"github.com/ducminhle1904/mt5-trade-engine/pkg/types"
)

// pipSize is the standard pip for currency pairs (4th decimal). 5-digit
// quotes tick at 0.00001; a pip is still 0.0001.
const pipSize = 0.0001

// contractMultiplier is the fixed contract size for metals-style
// instruments (100 oz per lot for gold).
const contractMultiplier = 100.0

// Calculator converts a risk budget in account currency into a position
// size, using instrument metadata reported live by the terminal.
type Calculator struct{}

// NewCalculator creates a risk calculator
func NewCalculator() *Calculator {
	return &Calculator{}
}

// SizingInput carries everything SizePosition needs. TickValue is the
// monetary value per pip per lot for pip-value instruments (see PipValue),
// and is unused for fixed-multiplier instruments.
type SizingInput struct {
	RiskUSD    float64
	EntryPrice float64
	StopPrice  float64

	Class      types.ContractClass
	TickValue  float64
	TickSize   float64
	VolumeStep float64
	VolumeMin  float64
	VolumeMax  float64
}

// SizePosition computes the lot volume that loses at most RiskUSD if the
// stop is hit.
//
// Fixed-multiplier instruments (metals): volume = risk / (distance × 100).
// Pip-value instruments (forex): volume = risk / (pips × pip value).
//
// Clamp order matters: the maximum-volume cap applies to the raw volume
// first, so an oversized risk request degrades to the cap instead of a
// rounding artifact near it. The result is then floored to the volume step
// (never rounding up — rounding up would risk more than requested), and the
// broker minimum applies last. A broker-imposed minimum may risk slightly
// more than requested; that is accepted and not re-validated.
func (c *Calculator) SizePosition(in SizingInput) (float64, error) {
	if in.RiskUSD <= 0 {
		return 0, engerr.NewValidationError("risk", "size_position", "risk amount must be positive")
	}

	distance := math.Abs(in.EntryPrice - in.StopPrice)
	if distance == 0 {
		return 0, engerr.NewValidationError("risk", "size_position", "entry and stop are equal, sizing undefined")
	}

	var raw float64
	switch classify(in.Class, in.TickSize) {
	case types.ClassFixedMultiplier:
		raw = in.RiskUSD / (distance * contractMultiplier)
	case types.ClassPipValue:
		if in.TickValue <= 0 {
			return 0, engerr.NewValidationError("risk", "size_position", "pip value must be positive")
		}
		pips := distance / pipSize
		raw = in.RiskUSD / (pips * in.TickValue)
	}

	if in.VolumeMax > 0 && raw > in.VolumeMax {
		raw = in.VolumeMax
	}

	volume := roundDownToStep(raw, in.VolumeStep)

	if volume < in.VolumeMin {
		volume = in.VolumeMin
	}

	return volume, nil
}

// classify resolves the sizing regime. An explicit contract class from the
// terminal or configuration always wins; the tick-size threshold is the
// legacy heuristic and misclassifies any exotic instrument whose tick size
// straddles 0.01.
func classify(class types.ContractClass, tickSize float64) types.ContractClass {
	if class != types.ClassUnknown {
		return class
	}
	if tickSize >= 0.01 {
		return types.ClassFixedMultiplier
	}
	return types.ClassPipValue
}

// roundDownToStep floors value to the nearest multiple of step. The step
// quotient is snapped to 8 decimals before flooring: 0.2/0.01 evaluates to
// 19.999999999999996 in float64, and flooring that raw would silently drop
// a whole step.
func roundDownToStep(value, step float64) float64 {
	if step <= 0 {
		return value
	}
	steps := math.Floor(math.Round(value/step*1e8) / 1e8)
	return math.Round(steps*step*1e8) / 1e8
}

// PipValue converts the terminal's per-tick value into a per-pip value per
// lot, which is what pip-value sizing consumes.
func PipValue(meta *types.InstrumentMetadata) float64 {
	if meta.TickSize <= 0 {
		return meta.TickValue
	}
	return meta.TickValue * (pipSize / meta.TickSize)
}
