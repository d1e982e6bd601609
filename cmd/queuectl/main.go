package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/joho/godotenv"

	"github.com/ducminhle1904/mt5-trade-engine/internal/config"
	"github.com/ducminhle1904/mt5-trade-engine/internal/ledger"
	"github.com/ducminhle1904/mt5-trade-engine/internal/queue"
	"github.com/ducminhle1904/mt5-trade-engine/internal/reporting"
	"github.com/ducminhle1904/mt5-trade-engine/pkg/types"
)

const usage = `queuectl - inspect and manage the trade engine queues

Commands:
  commands                 List pending trade commands
  notifications            List pending notifications
  trades                   List ledger trades
  enqueue -file <path>     Enqueue a trade command from a JSON file
  clear -queue <name>      Clear a queue (commands or notifications)
  export -out <path>       Export the trade ledger to an Excel workbook
`

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: could not load .env: %v", err)
	}

	cfg := config.Load()

	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "commands":
		err = listCommands(cfg)
	case "notifications":
		err = listNotifications(cfg)
	case "trades":
		err = listTrades(cfg)
	case "enqueue":
		err = enqueueCommand(cfg, os.Args[2:])
	case "clear":
		err = clearQueue(cfg, os.Args[2:])
	case "export":
		err = exportLedger(cfg, os.Args[2:])
	default:
		fmt.Print(usage)
		os.Exit(1)
	}

	if err != nil {
		log.Fatalf("queuectl: %v", err)
	}
}

func listCommands(cfg *config.Config) error {
	q, err := queue.NewCommandQueue(cfg.Queue.CommandDir)
	if err != nil {
		return err
	}

	ids, err := q.ListPending()
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		fmt.Println("No pending commands")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("PENDING COMMANDS")
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Queue ID", "Command", "User", "Symbol", "Side", "Entry", "SL", "TP", "Risk ($)"})

	for _, id := range ids {
		env, err := readEnvelope(cfg.Queue.CommandDir, id)
		if err != nil {
			t.AppendRow(table.Row{id, "<corrupt>", "", "", "", "", "", "", ""})
			continue
		}
		cmd := env.Command
		symbolCol := cmd.Instrument
		if symbolCol == "" {
			symbolCol = cmd.SymbolPrefix + cmd.SymbolBase + "USD" + cmd.SymbolSuffix
		}
		t.AppendRow(table.Row{
			id, cmd.CommandID, cmd.UserID, symbolCol, cmd.OrderSide,
			cmd.EntryPrice, cmd.StopPrice, cmd.TargetPrice, cmd.RiskUSD,
		})
	}

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 26, WidthMax: 26, Align: text.AlignLeft},
	})

	t.Render()
	return nil
}

// readEnvelope reads a pending entry without consuming it. Dequeue is
// destructive and must stay reserved for the worker.
func readEnvelope(dir, id string) (*queue.Envelope, error) {
	data, err := os.ReadFile(fmt.Sprintf("%s/%s.json", dir, id))
	if err != nil {
		return nil, err
	}
	var env queue.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

func listNotifications(cfg *config.Config) error {
	q, err := queue.NewNotificationQueue(cfg.Queue.NotificationDir)
	if err != nil {
		return err
	}

	pending, err := q.GetPending()
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		fmt.Println("No pending notifications")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("PENDING NOTIFICATIONS")
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"ID", "Recipient", "Trade", "OK", "Message", "Created"})

	for _, n := range pending {
		t.AppendRow(table.Row{
			n.NotificationID, n.RecipientID, n.TradeID, n.Success,
			n.Message, n.CreatedAt.Format(time.RFC3339),
		})
	}

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 5, WidthMin: 30, WidthMax: 60, Align: text.AlignLeft},
	})

	t.Render()
	return nil
}

func listTrades(cfg *config.Config) error {
	led, err := ledger.NewSQLite(cfg.Ledger.Path)
	if err != nil {
		return err
	}
	defer led.Close()

	trades, err := led.ListTrades()
	if err != nil {
		return err
	}
	if len(trades) == 0 {
		fmt.Println("No trades recorded")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("TRADE LEDGER")
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"ID", "Symbol", "Side", "Entry", "SL", "TP", "Volume", "Risk ($)", "R:R", "Status", "Ticket"})

	for _, tr := range trades {
		t.AppendRow(table.Row{
			tr.ID, tr.Symbol, tr.OrderType, tr.Entry, tr.StopLoss, tr.TakeProfit,
			tr.Volume, tr.RiskUSD, tr.RRRatio, tr.Status, tr.Ticket,
		})
	}

	t.Render()
	return nil
}

func enqueueCommand(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("enqueue", flag.ExitOnError)
	file := fs.String("file", "", "path to a TradeCommand JSON file")
	fs.Parse(args)

	if *file == "" {
		return fmt.Errorf("enqueue requires -file")
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		return err
	}

	var cmd types.TradeCommand
	if err := json.Unmarshal(data, &cmd); err != nil {
		return fmt.Errorf("parse %s: %w", *file, err)
	}
	if !cmd.OrderSide.Valid() {
		return fmt.Errorf("order_side must be %s or %s", types.SideBuy, types.SideSell)
	}
	if cmd.CreatedAt.IsZero() {
		cmd.CreatedAt = time.Now().UTC()
	}

	q, err := queue.NewCommandQueue(cfg.Queue.CommandDir)
	if err != nil {
		return err
	}

	id, err := q.Enqueue(cmd)
	if err != nil {
		return err
	}

	fmt.Printf("Enqueued %s as %s\n", cmd.CommandID, id)
	return nil
}

func clearQueue(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("clear", flag.ExitOnError)
	name := fs.String("queue", "", "queue to clear: commands or notifications")
	fs.Parse(args)

	switch *name {
	case "commands":
		q, err := queue.NewCommandQueue(cfg.Queue.CommandDir)
		if err != nil {
			return err
		}
		n := q.PendingCount()
		if err := q.Clear(); err != nil {
			return err
		}
		fmt.Printf("Cleared %d pending commands\n", n)
	case "notifications":
		q, err := queue.NewNotificationQueue(cfg.Queue.NotificationDir)
		if err != nil {
			return err
		}
		n := q.PendingCount()
		if err := q.Clear(); err != nil {
			return err
		}
		fmt.Printf("Cleared %d pending notifications\n", n)
	default:
		return fmt.Errorf("clear requires -queue commands|notifications")
	}

	return nil
}

func exportLedger(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	out := fs.String("out", "trades.xlsx", "output workbook path")
	fs.Parse(args)

	led, err := ledger.NewSQLite(cfg.Ledger.Path)
	if err != nil {
		return err
	}
	defer led.Close()

	trades, err := led.ListTrades()
	if err != nil {
		return err
	}

	reporter := reporting.NewExcelReporter()
	if err := reporter.WriteTradesXLSX(trades, *out); err != nil {
		return err
	}

	fmt.Printf("Exported %d trades to %s\n", len(trades), *out)
	return nil
}
