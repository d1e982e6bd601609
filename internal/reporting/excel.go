package reporting

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ducminhle1904/mt5-trade-engine/internal/ledger"
	"github.com/xuri/excelize/v2"
)

// ExcelReporter writes the trade ledger to an Excel workbook
type ExcelReporter struct{}

// NewExcelReporter creates a new Excel reporter
func NewExcelReporter() *ExcelReporter {
	return &ExcelReporter{}
}

type excelStyles struct {
	header   int
	currency int
	price    int
}

// WriteTradesXLSX writes the ledger trades to an Excel file
func (r *ExcelReporter) WriteTradesXLSX(trades []ledger.TradeRecord, path string) error {
	// Ensure directory exists before creating file
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	fx := excelize.NewFile()
	defer fx.Close()

	const tradesSheet = "Trades"
	const summarySheet = "Summary"

	fx.SetSheetName(fx.GetSheetName(0), tradesSheet)
	fx.NewSheet(summarySheet)

	styles, err := r.createStyles(fx)
	if err != nil {
		return err
	}

	if err := r.writeTradesSheet(fx, tradesSheet, trades, styles); err != nil {
		return err
	}
	if err := r.writeSummarySheet(fx, summarySheet, trades, styles); err != nil {
		return err
	}

	return fx.SaveAs(path)
}

func (r *ExcelReporter) createStyles(fx *excelize.File) (excelStyles, error) {
	var styles excelStyles
	var err error

	styles.header, err = fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold:   true,
			Size:   11,
			Color:  "FFFFFF",
			Family: "Calibri",
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"2F4F4F"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return styles, err
	}

	styles.currency, err = fx.NewStyle(&excelize.Style{
		NumFmt: 7,
		Alignment: &excelize.Alignment{
			Horizontal: "right",
		},
	})
	if err != nil {
		return styles, err
	}

	styles.price, err = fx.NewStyle(&excelize.Style{
		NumFmt: 4,
		Alignment: &excelize.Alignment{
			Horizontal: "right",
		},
	})
	return styles, err
}

func (r *ExcelReporter) writeTradesSheet(fx *excelize.File, sheet string, trades []ledger.TradeRecord, styles excelStyles) error {
	headers := []string{
		"ID", "Command", "User", "Account", "Symbol", "Side",
		"Entry", "Stop Loss", "Take Profit", "Volume", "Risk ($)", "R:R",
		"Status", "Ticket", "Open Price", "Emotion", "Setup", "Created",
	}

	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := fx.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
		if err := fx.SetCellStyle(sheet, cell, cell, styles.header); err != nil {
			return err
		}
	}

	for i, tr := range trades {
		row := i + 2
		values := []interface{}{
			tr.ID, tr.CommandID, tr.UserID, tr.AccountID, tr.Symbol, tr.OrderType,
			tr.Entry, tr.StopLoss, tr.TakeProfit, tr.Volume, tr.RiskUSD, tr.RRRatio,
			tr.Status, tr.Ticket, tr.OpenPrice, tr.Emotion, tr.SetupCode,
			tr.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return err
			}
			if err := fx.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}

		// Price and currency formatting for the numeric columns
		for _, col := range []int{7, 8, 9, 15} {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			fx.SetCellStyle(sheet, cell, cell, styles.price)
		}
		riskCell, _ := excelize.CoordinatesToCellName(11, row)
		fx.SetCellStyle(sheet, riskCell, riskCell, styles.currency)
	}

	fx.SetColWidth(sheet, "B", "B", 26)
	fx.SetColWidth(sheet, "E", "E", 12)
	fx.SetColWidth(sheet, "G", "I", 12)
	fx.SetColWidth(sheet, "R", "R", 20)

	return nil
}

func (r *ExcelReporter) writeSummarySheet(fx *excelize.File, sheet string, trades []ledger.TradeRecord, styles excelStyles) error {
	var filled, failed, pending int
	var riskTotal float64
	for _, tr := range trades {
		switch tr.Status {
		case ledger.StatusFilled:
			filled++
			riskTotal += tr.RiskUSD
		case ledger.StatusFailed:
			failed++
		default:
			pending++
		}
	}

	rows := [][]interface{}{
		{"Metric", "Value"},
		{"Total Commands", len(trades)},
		{"Orders Placed", filled},
		{"Failed", failed},
		{"Pending", pending},
		{"Total Risk Committed ($)", riskTotal},
	}

	for i, row := range rows {
		for col, v := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, i+1)
			if err != nil {
				return err
			}
			if err := fx.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
			if i == 0 {
				fx.SetCellStyle(sheet, cell, cell, styles.header)
			}
		}
	}

	fx.SetColWidth(sheet, "A", "A", 28)

	return nil
}
