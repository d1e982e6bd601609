package terminal

import (
	"github.com/ducminhle1904/mt5-trade-engine/pkg/types"
)

// Terminal is the narrow capability surface the engine needs from a
// trading terminal. Any concrete binding (an MT5 IPC bridge, a broker
// gateway, the in-process sim) is interchangeable behind it; the engine
// never sees terminal-specific types.
type Terminal interface {
	// Initialize starts or attaches to the terminal process/channel.
	Initialize() error

	// Login authenticates an account on the initialized terminal.
	Login(login int64, password, server string) error

	// Shutdown tears down the terminal channel. Safe to call when not
	// initialized.
	Shutdown()

	// AccountIdentity reports the currently authenticated account, or an
	// error when no live session exists.
	AccountIdentity() (*types.AccountIdentity, error)

	// InstrumentMetadata fetches live sizing metadata for a symbol.
	InstrumentMetadata(symbol string) (*types.InstrumentMetadata, error)

	// SubmitLimitOrder places a pending LIMIT order.
	SubmitLimitOrder(req LimitOrderRequest) (*OrderResult, error)

	// CancelPendingOrder deletes a pending order by ticket.
	CancelPendingOrder(ticket int64) error
}

// LimitOrderRequest is a fully-sized order ready for submission.
type LimitOrderRequest struct {
	Instrument  string
	Side        types.OrderSide
	EntryPrice  float64
	StopPrice   float64
	TargetPrice float64
	Volume      float64
	Comment     string
}

// OrderResult is the terminal's acknowledgment of a placed order.
type OrderResult struct {
	Ticket    int64
	FillPrice float64
	Volume    float64
}

// Credentials identify an account to authenticate on connect. A nil
// *Credentials means "use whatever session the terminal already has".
type Credentials struct {
	Login    int64
	Password string
	Server   string
}
