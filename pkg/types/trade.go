package types

import "time"

// OrderSide is the direction of a pending LIMIT order.
type OrderSide string

const (
	SideBuy  OrderSide = "LIMIT_BUY"
	SideSell OrderSide = "LIMIT_SELL"
)

// Valid reports whether the side is one of the two supported order types.
func (s OrderSide) Valid() bool {
	return s == SideBuy || s == SideSell
}

// TradeCommand is a fully-specified LIMIT order request built by the chat
// layer. Immutable once enqueued; ownership transfers to the execution
// worker when dequeued.
type TradeCommand struct {
	CommandID string    `json:"command_id"`
	UserID    int64     `json:"user_id"`
	AccountID int64     `json:"account_id"`
	OrderSide OrderSide `json:"order_side"`

	// Instrument is the resolved terminal symbol. When empty, the worker
	// resolves it from the symbol parts below.
	Instrument   string `json:"instrument,omitempty"`
	SymbolBase   string `json:"symbol_base,omitempty"`
	SymbolPrefix string `json:"symbol_prefix,omitempty"`
	SymbolSuffix string `json:"symbol_suffix,omitempty"`

	EntryPrice  float64 `json:"entry_price"`
	StopPrice   float64 `json:"stop_price"`
	TargetPrice float64 `json:"target_price"`
	RiskUSD     float64 `json:"risk_amount_usd"`

	EmotionTag string    `json:"emotion_tag,omitempty"`
	SetupTag   string    `json:"setup_tag,omitempty"`
	ChartRef   string    `json:"chart_ref,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// ExecutionResult is the outcome of processing one TradeCommand. Produced
// exactly once per command; failed commands are never retried automatically.
type ExecutionResult struct {
	Success        bool
	TerminalTicket int64
	FillPrice      float64
	ResolvedVolume float64
	Err            error
}

// ContractClass classifies an instrument's sizing regime. The terminal (or
// configuration) should supply this explicitly; inferring it from tick size
// is a legacy fallback only.
type ContractClass string

const (
	// ClassUnknown falls back to tick-size inference.
	ClassUnknown ContractClass = ""

	// ClassFixedMultiplier covers metals-style contracts sized with the
	// fixed 100-unit contract multiplier.
	ClassFixedMultiplier ContractClass = "fixed_multiplier"

	// ClassPipValue covers currency pairs sized from pip distance and
	// per-pip value.
	ClassPipValue ContractClass = "pip_value"
)

// InstrumentMetadata is live sizing metadata reported by the terminal.
// Fetched fresh for every command: broker-side changes to tick value or
// volume limits must be honored per trade, so it is never cached.
type InstrumentMetadata struct {
	Symbol     string
	Class      ContractClass
	TickSize   float64
	TickValue  float64
	VolumeStep float64
	VolumeMin  float64
	VolumeMax  float64
}

// AccountIdentity is the terminal-reported identity of the logged-in
// account.
type AccountIdentity struct {
	Login    int64
	Server   string
	Currency string
	Balance  float64
}
