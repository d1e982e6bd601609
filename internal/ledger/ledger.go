package ledger

import (
	"time"

	"github.com/ducminhle1904/mt5-trade-engine/pkg/types"
)

// Trade statuses as persisted in the ledger.
const (
	StatusPending = "pending"
	StatusFilled  = "filled"
	StatusFailed  = "failed"
)

// TradeRecord is one row of the trade ledger.
type TradeRecord struct {
	ID         int64
	CommandID  string
	UserID     int64
	AccountID  int64
	Symbol     string
	OrderType  string
	Entry      float64
	StopLoss   float64
	TakeProfit float64
	Volume     float64
	RiskUSD    float64
	RRRatio    float64
	Emotion    string
	SetupCode  string
	ChartURL   string
	Status     string
	Ticket     int64
	OpenPrice  float64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// StatusUpdate carries the execution outcome for a recorded trade. Zero
// Ticket/FillPrice/Volume leave the stored values untouched (failures
// carry no fill data).
type StatusUpdate struct {
	Status    string
	Ticket    int64
	FillPrice float64
	Volume    float64
	Error     string
}

// Ledger records each trade command and its final status. The worker
// calls it exactly twice per command: once on claim (pending) and once
// with the execution outcome (filled or failed).
type Ledger interface {
	RecordTrade(cmd types.TradeCommand, instrument string, rrRatio float64) (int64, error)
	UpdateTradeStatus(tradeID int64, update StatusUpdate) error
	ListTrades() ([]TradeRecord, error)
	Close() error
}
