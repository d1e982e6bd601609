package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	engerr "github.com/ducminhle1904/mt5-trade-engine/internal/errors"
	"github.com/ducminhle1904/mt5-trade-engine/internal/ledger"
	"github.com/ducminhle1904/mt5-trade-engine/internal/logger"
	"github.com/ducminhle1904/mt5-trade-engine/internal/monitoring"
	"github.com/ducminhle1904/mt5-trade-engine/internal/queue"
	"github.com/ducminhle1904/mt5-trade-engine/internal/risk"
	"github.com/ducminhle1904/mt5-trade-engine/internal/symbol"
	"github.com/ducminhle1904/mt5-trade-engine/internal/terminal"
	"github.com/ducminhle1904/mt5-trade-engine/internal/validate"
	"github.com/ducminhle1904/mt5-trade-engine/pkg/types"
)

// Options tune the worker loop. Logger and Health are optional.
type Options struct {
	PollInterval time.Duration
	Logger       *logger.Logger
	Health       *monitoring.HealthChecker
}

// Worker drains the command queue and turns each TradeCommand into a
// pending LIMIT order on the terminal. Commands are processed strictly one
// at a time, oldest first; a failed command is recorded, notified, and
// never retried.
type Worker struct {
	commands      *queue.CommandQueue
	notifications *queue.NotificationQueue
	conn          *terminal.Connection
	ledger        ledger.Ledger

	validator  *validate.Validator
	calculator *risk.Calculator

	pollInterval time.Duration
	fileLog      *logger.Logger
	health       *monitoring.HealthChecker
}

// New creates an execution worker over the given queues, connection, and
// ledger.
func New(commands *queue.CommandQueue, notifications *queue.NotificationQueue, conn *terminal.Connection, led ledger.Ledger, opts Options) *Worker {
	if opts.PollInterval <= 0 {
		opts.PollInterval = time.Second
	}

	return &Worker{
		commands:      commands,
		notifications: notifications,
		conn:          conn,
		ledger:        led,
		validator:     validate.NewValidator(),
		calculator:    risk.NewCalculator(),
		pollInterval:  opts.PollInterval,
		fileLog:       opts.Logger,
		health:        opts.Health,
	}
}

// Run polls the command queue until the context is canceled. Cancellation
// is honored between commands, never mid-command: an in-flight order
// submission always runs to completion so the ledger and notification
// reflect what actually reached the terminal.
func (w *Worker) Run(ctx context.Context) {
	log.Printf("worker: started, polling %s every %s", w.commands.Dir(), w.pollInterval)

	for {
		select {
		case <-ctx.Done():
			log.Printf("worker: shutting down")
			w.conn.Disconnect()
			return
		default:
		}

		processed, err := w.ProcessNext()
		if err != nil {
			log.Printf("worker: %v", err)
		}

		if !processed {
			select {
			case <-ctx.Done():
			case <-time.After(w.pollInterval):
			}
		}
	}
}

// ProcessNext claims and executes the oldest pending command. Returns
// false when the queue is empty. A command that was claimed but failed to
// execute still counts as processed; the failure lands in the ledger and
// the notification queue, not in the returned error.
func (w *Worker) ProcessNext() (bool, error) {
	ids, err := w.commands.ListPending()
	if err != nil {
		return false, err
	}

	monitoring.UpdateQueueDepth("commands", len(ids))
	if len(ids) == 0 {
		return false, nil
	}

	env, err := w.commands.Dequeue(ids[0])
	if err != nil {
		if err == queue.ErrNotFound {
			// Claimed by a concurrent dequeue; nothing to do this pass.
			return true, nil
		}
		return false, err
	}

	w.Execute(env.Command)
	return true, nil
}

// Execute runs one command end to end: resolve, record, validate, size,
// submit. Exactly one ledger status update and exactly one notification
// are produced no matter where the pipeline stops.
func (w *Worker) Execute(cmd types.TradeCommand) types.ExecutionResult {
	start := time.Now()

	instrument, resolveErr := w.resolveInstrument(cmd)

	previewRatio := w.validator.RiskReward(cmd.OrderSide, cmd.EntryPrice, cmd.StopPrice, cmd.TargetPrice)
	tradeID, err := w.ledger.RecordTrade(cmd, instrument, previewRatio)
	if err != nil {
		log.Printf("worker: ledger record for %s failed: %v", cmd.CommandID, err)
	}

	var result types.ExecutionResult
	if resolveErr != nil {
		result = types.ExecutionResult{Err: resolveErr}
	} else {
		result = w.placeOrder(cmd, instrument)
	}

	w.finishCommand(cmd, instrument, tradeID, result)

	outcome := ledger.StatusFailed
	if result.Success {
		outcome = ledger.StatusFilled
	}
	monitoring.RecordCommand(outcome, time.Since(start).Seconds())
	if result.Err != nil {
		monitoring.RecordError(string(engerr.CategoryOf(result.Err)))
	}
	if w.health != nil {
		w.health.CommandProcessed()
		w.health.SetConnected(w.conn.State() == terminal.StateConnected)
	}

	return result
}

// resolveInstrument returns the terminal symbol for the command, building
// it from the symbol parts when the chat layer left Instrument empty.
func (w *Worker) resolveInstrument(cmd types.TradeCommand) (string, error) {
	if cmd.Instrument != "" {
		return cmd.Instrument, nil
	}
	return symbol.Resolve(cmd.SymbolBase, cmd.SymbolPrefix, cmd.SymbolSuffix)
}

// placeOrder performs the terminal-facing half of execution.
func (w *Worker) placeOrder(cmd types.TradeCommand, instrument string) types.ExecutionResult {
	if !cmd.OrderSide.Valid() {
		return types.ExecutionResult{
			Err: engerr.NewValidationError("worker", "execute", fmt.Sprintf("unsupported order side %q", cmd.OrderSide)),
		}
	}

	// Metadata is fetched fresh per command, and the fetch itself verifies
	// the session.
	meta, err := w.conn.InstrumentMetadata(instrument)
	if err != nil {
		return types.ExecutionResult{Err: err}
	}

	// Authoritative validation happens here, not at enqueue time: the
	// command may have sat in the queue across a restart.
	if res := w.validator.Validate(cmd.OrderSide, cmd.EntryPrice, cmd.StopPrice, cmd.TargetPrice); !res.Valid {
		return types.ExecutionResult{Err: res.Err}
	}

	volume, err := w.calculator.SizePosition(risk.SizingInput{
		RiskUSD:    cmd.RiskUSD,
		EntryPrice: cmd.EntryPrice,
		StopPrice:  cmd.StopPrice,
		Class:      meta.Class,
		TickValue:  risk.PipValue(meta),
		TickSize:   meta.TickSize,
		VolumeStep: meta.VolumeStep,
		VolumeMin:  meta.VolumeMin,
		VolumeMax:  meta.VolumeMax,
	})
	if err != nil {
		return types.ExecutionResult{Err: err}
	}

	order, err := w.conn.SubmitLimitOrder(terminal.LimitOrderRequest{
		Instrument:  instrument,
		Side:        cmd.OrderSide,
		EntryPrice:  cmd.EntryPrice,
		StopPrice:   cmd.StopPrice,
		TargetPrice: cmd.TargetPrice,
		Volume:      volume,
		Comment:     cmd.CommandID,
	})
	if err != nil {
		return types.ExecutionResult{ResolvedVolume: volume, Err: err}
	}

	return types.ExecutionResult{
		Success:        true,
		TerminalTicket: order.Ticket,
		FillPrice:      order.FillPrice,
		ResolvedVolume: order.Volume,
	}
}

// finishCommand writes the final ledger status and enqueues the single
// notification for the command's owner.
func (w *Worker) finishCommand(cmd types.TradeCommand, instrument string, tradeID int64, result types.ExecutionResult) {
	var update ledger.StatusUpdate
	var message string

	if result.Success {
		update = ledger.StatusUpdate{
			Status:    ledger.StatusFilled,
			Ticket:    result.TerminalTicket,
			FillPrice: result.FillPrice,
			Volume:    result.ResolvedVolume,
		}
		message = fmt.Sprintf("LIMIT order placed: %s %s %.2f lots @ %g (ticket %d)",
			instrument, cmd.OrderSide, result.ResolvedVolume, cmd.EntryPrice, result.TerminalTicket)

		if w.fileLog != nil {
			w.fileLog.LogOrderPlaced(cmd.CommandID, instrument, string(cmd.OrderSide),
				result.TerminalTicket, result.ResolvedVolume, cmd.EntryPrice, cmd.StopPrice, cmd.TargetPrice)
		}
	} else {
		reason := "unknown error"
		if result.Err != nil {
			reason = result.Err.Error()
		}
		update = ledger.StatusUpdate{
			Status: ledger.StatusFailed,
			Error:  reason,
		}
		message = fmt.Sprintf("trade failed: %s", reason)

		if w.fileLog != nil {
			w.fileLog.LogCommandFailed(cmd.CommandID, instrument, reason)
		}
	}

	if tradeID > 0 {
		if err := w.ledger.UpdateTradeStatus(tradeID, update); err != nil {
			log.Printf("worker: ledger update for trade %d failed: %v", tradeID, err)
		}
	}

	details := map[string]string{
		"command_id": cmd.CommandID,
		"symbol":     instrument,
		"side":       string(cmd.OrderSide),
	}
	if result.Success {
		details["ticket"] = fmt.Sprintf("%d", result.TerminalTicket)
		details["volume"] = fmt.Sprintf("%.2f", result.ResolvedVolume)
	}

	if _, err := w.notifications.Enqueue(cmd.UserID, tradeID, result.Success, message, details); err != nil {
		log.Printf("worker: notification enqueue for %s failed: %v", cmd.CommandID, err)
	}
	monitoring.UpdateQueueDepth("notifications", w.notifications.PendingCount())
}
