package ledger

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"

	engerr "github.com/ducminhle1904/mt5-trade-engine/internal/errors"
	"github.com/ducminhle1904/mt5-trade-engine/pkg/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS trades (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	command_id     TEXT,
	user_id        INTEGER NOT NULL,
	account_id     INTEGER NOT NULL,
	symbol         TEXT NOT NULL,
	order_type     TEXT NOT NULL,
	entry          REAL NOT NULL,
	sl             REAL NOT NULL,
	tp             REAL NOT NULL,
	volume         REAL NOT NULL DEFAULT 0,
	risk_usd       REAL NOT NULL,
	rr_ratio       REAL NOT NULL DEFAULT 0,
	emotion        TEXT,
	setup_code     TEXT,
	chart_url      TEXT,
	status         TEXT NOT NULL DEFAULT 'pending',
	mt5_ticket     INTEGER NOT NULL DEFAULT 0,
	mt5_open_price REAL NOT NULL DEFAULT 0,
	error          TEXT,
	created_at     TIMESTAMP NOT NULL,
	updated_at     TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_status ON trades(status);
CREATE INDEX IF NOT EXISTS idx_trades_user ON trades(user_id);
`

// SQLiteLedger persists trades in a local sqlite database.
type SQLiteLedger struct {
	db *sql.DB
}

// NewSQLite opens (creating if needed) the trade ledger at path.
func NewSQLite(path string) (*SQLiteLedger, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, engerr.NewDurabilityError("ledger", "open", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, engerr.NewDurabilityError("ledger", "init_schema", err)
	}

	return &SQLiteLedger{db: db}, nil
}

// RecordTrade inserts a pending trade row for a claimed command and
// returns the trade id.
func (l *SQLiteLedger) RecordTrade(cmd types.TradeCommand, instrument string, rrRatio float64) (int64, error) {
	now := time.Now().UTC()

	res, err := l.db.Exec(`
		INSERT INTO trades
		(command_id, user_id, account_id, symbol, order_type, entry, sl, tp,
		 risk_usd, rr_ratio, emotion, setup_code, chart_url, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		cmd.CommandID, cmd.UserID, cmd.AccountID, instrument, string(cmd.OrderSide),
		cmd.EntryPrice, cmd.StopPrice, cmd.TargetPrice,
		cmd.RiskUSD, rrRatio, cmd.EmotionTag, cmd.SetupTag, cmd.ChartRef,
		StatusPending, now, now,
	)
	if err != nil {
		return 0, engerr.NewDurabilityError("ledger", "record_trade", err)
	}

	tradeID, err := res.LastInsertId()
	if err != nil {
		return 0, engerr.NewDurabilityError("ledger", "record_trade", err)
	}

	return tradeID, nil
}

// UpdateTradeStatus writes the execution outcome for a trade.
func (l *SQLiteLedger) UpdateTradeStatus(tradeID int64, update StatusUpdate) error {
	_, err := l.db.Exec(`
		UPDATE trades
		SET status = ?,
		    mt5_ticket = CASE WHEN ? != 0 THEN ? ELSE mt5_ticket END,
		    mt5_open_price = CASE WHEN ? != 0 THEN ? ELSE mt5_open_price END,
		    volume = CASE WHEN ? != 0 THEN ? ELSE volume END,
		    error = CASE WHEN ? != '' THEN ? ELSE error END,
		    updated_at = ?
		WHERE id = ?`,
		update.Status,
		update.Ticket, update.Ticket,
		update.FillPrice, update.FillPrice,
		update.Volume, update.Volume,
		update.Error, update.Error,
		time.Now().UTC(), tradeID,
	)
	if err != nil {
		return engerr.NewDurabilityError("ledger", "update_trade_status", err)
	}

	return nil
}

// ListTrades returns all recorded trades, newest first.
func (l *SQLiteLedger) ListTrades() ([]TradeRecord, error) {
	rows, err := l.db.Query(`
		SELECT id, command_id, user_id, account_id, symbol, order_type,
		       entry, sl, tp, volume, risk_usd, rr_ratio,
		       emotion, setup_code, chart_url, status,
		       mt5_ticket, mt5_open_price, created_at, updated_at
		FROM trades
		ORDER BY id DESC`)
	if err != nil {
		return nil, engerr.NewDurabilityError("ledger", "list_trades", err)
	}
	defer rows.Close()

	var trades []TradeRecord
	for rows.Next() {
		var t TradeRecord
		var chartURL sql.NullString
		var emotion, setupCode sql.NullString

		err := rows.Scan(
			&t.ID, &t.CommandID, &t.UserID, &t.AccountID, &t.Symbol, &t.OrderType,
			&t.Entry, &t.StopLoss, &t.TakeProfit, &t.Volume, &t.RiskUSD, &t.RRRatio,
			&emotion, &setupCode, &chartURL, &t.Status,
			&t.Ticket, &t.OpenPrice, &t.CreatedAt, &t.UpdatedAt,
		)
		if err != nil {
			return nil, engerr.NewDurabilityError("ledger", "list_trades", err)
		}

		t.Emotion = emotion.String
		t.SetupCode = setupCode.String
		t.ChartURL = chartURL.String
		trades = append(trades, t)
	}
	if err := rows.Err(); err != nil {
		return nil, engerr.NewDurabilityError("ledger", "list_trades", err)
	}

	return trades, nil
}

// Close closes the database handle.
func (l *SQLiteLedger) Close() error {
	return l.db.Close()
}
