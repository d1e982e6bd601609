package validate

import (
	"math"

	engerr "github.com/ducminhle1904/mt5-trade-engine/internal/errors"
	"github.com/ducminhle1904/mt5-trade-engine/pkg/types"
)

// Validator checks trade geometry before any money is committed. It is the
// single source of truth for stop-side correctness and risk:reward, and is
// run twice per trade: once at preview time and again at execution time
// with the authoritative prices, because the market may have moved between
// the two.
type Validator struct{}

// NewValidator creates a trade validator
func NewValidator() *Validator {
	return &Validator{}
}

// Result carries the outcome of a full trade validation.
type Result struct {
	Valid          bool
	StopValid      bool
	Ratio          float64
	RiskDistance   float64
	RewardDistance float64
	Err            error
}

// CheckStopSide validates the stop-loss position relative to entry.
//
// LIMIT BUY requires stop strictly below entry; LIMIT SELL requires stop
// strictly above. A stop equal to entry contains no risk and is always
// rejected.
func (v *Validator) CheckStopSide(side types.OrderSide, entry, stop float64) bool {
	switch side {
	case types.SideBuy:
		return stop < entry
	case types.SideSell:
		return stop > entry
	default:
		return false
	}
}

// RiskReward computes the risk:reward ratio for a trade.
//
// Risk is the absolute entry-to-stop distance. Reward is signed: a target
// on the losing side of entry (below entry for a BUY, above for a SELL)
// yields a negative reward and therefore a negative ratio. Returns 0 when
// risk is zero. The ratio is rounded to two decimals for display parity
// with the preview.
func (v *Validator) RiskReward(side types.OrderSide, entry, stop, target float64) float64 {
	risk := math.Abs(entry - stop)
	if risk == 0 {
		return 0
	}

	reward := math.Abs(target - entry)
	switch side {
	case types.SideBuy:
		if target < entry {
			reward = -(entry - target)
		}
	case types.SideSell:
		if target > entry {
			reward = -(target - entry)
		}
	}

	return math.Round(reward/risk*100) / 100
}

// Validate performs the full geometric check, short-circuiting with a
// side-specific error when the stop is on the wrong side of entry.
func (v *Validator) Validate(side types.OrderSide, entry, stop, target float64) Result {
	result := Result{}

	if !v.CheckStopSide(side, entry, stop) {
		switch side {
		case types.SideBuy:
			result.Err = engerr.NewValidationError("validate", "stop_side",
				"for LIMIT BUY, stop loss must be below entry price")
		case types.SideSell:
			result.Err = engerr.NewValidationError("validate", "stop_side",
				"for LIMIT SELL, stop loss must be above entry price")
		default:
			result.Err = engerr.NewValidationError("validate", "stop_side",
				"invalid order side")
		}
		return result
	}

	result.StopValid = true
	result.Ratio = v.RiskReward(side, entry, stop, target)
	result.RiskDistance = math.Abs(entry - stop)
	result.RewardDistance = math.Abs(target - entry)
	result.Valid = true

	return result
}
