package symbol

import (
	engerr "github.com/ducminhle1904/mt5-trade-engine/internal/errors"
)

// Resolve builds a terminal symbol from user-configured parts:
//
//	symbol = prefix + base + "USD" + suffix
//
// Brokers decorate symbols inconsistently ("BROKER.XAUUSDm", "EURUSD.pro"),
// so prefix and suffix are passed through verbatim, including casing.
// Uppercasing the base is the caller's job.
func Resolve(base, prefix, suffix string) (string, error) {
	if base == "" {
		return "", engerr.NewValidationError("symbol", "resolve", "base symbol is empty")
	}

	return prefix + base + "USD" + suffix, nil
}
