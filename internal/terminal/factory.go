package terminal

import (
	engerr "github.com/ducminhle1904/mt5-trade-engine/internal/errors"
)

// NewTerminal creates a concrete terminal binding by driver name.
//
// Only the in-process sim driver ships with the engine; a live MT5 bridge
// is a deployment-specific binding that satisfies the same Terminal
// interface.
func NewTerminal(driver string) (Terminal, error) {
	switch driver {
	case "sim":
		return NewSimTerminal(DefaultSimInstruments()), nil
	default:
		return nil, engerr.NewConfigurationError("terminal", "new_terminal",
			"unknown terminal driver: "+driver)
	}
}
