// Package export writes transaction reports as Excel workbooks, the
// format the shop's accountant takes away at the end of the day.
package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"dailyregister/internal/core"
)

const currencyFormat = "#,##0.00"

type Exporter struct {
	dir string
}

// NewExporter writes workbooks into dir, creating it on first use.
func NewExporter(dir string) *Exporter {
	return &Exporter{dir: dir}
}

// ExportDay writes one day's transactions and their summary and returns
// the workbook path.
func (e *Exporter) ExportDay(txs []core.Transaction, s core.Summary, d core.Date) (string, error) {
	return e.export(txs, s, fmt.Sprintf("jewellery_sales_%s.xlsx", d))
}

// ExportRange writes a date range's transactions, newest first as
// loaded.
func (e *Exporter) ExportRange(txs []core.Transaction, s core.Summary, from, to core.Date) (string, error) {
	return e.export(txs, s, fmt.Sprintf("jewellery_sales_%s_to_%s.xlsx", from, to))
}

func (e *Exporter) export(txs []core.Transaction, s core.Summary, filename string) (string, error) {
	if err := os.MkdirAll(e.dir, 0755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	currency, err := f.NewStyle(&excelize.Style{CustomNumFmt: ptr(currencyFormat)})
	if err != nil {
		return "", fmt.Errorf("create currency style: %w", err)
	}

	if err := writeTransactionsSheet(f, txs, currency); err != nil {
		return "", err
	}
	if err := writeSalesSheet(f, txs, currency); err != nil {
		return "", err
	}
	if err := writeExchangesSheet(f, txs, currency); err != nil {
		return "", err
	}
	if err := writeSummarySheet(f, s, currency); err != nil {
		return "", err
	}

	path := filepath.Join(e.dir, filename)
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save workbook: %w", err)
	}
	return path, nil
}

// writeTransactionsSheet lists one row per transaction with its totals
// and payment split.
func writeTransactionsSheet(f *excelize.File, txs []core.Transaction, currency int) error {
	const sheet = "Transactions"
	f.SetSheetName("Sheet1", sheet)

	header := []any{"ID", "Date", "Time", "Total Amount", "Net Paid", "Cash", "Card", "UPI", "Comments"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, t := range txs {
		row := []any{
			t.ID, t.Date.String(), t.Timestamp.Format("15:04:05"),
			t.TotalAmount, t.NetAmountPaid,
			t.Payment.Cash, t.Payment.Card, t.Payment.UPI,
			t.Comments,
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write transaction row: %w", err)
		}
	}

	last := len(txs) + 1
	if err := f.SetCellStyle(sheet, "D2", fmt.Sprintf("H%d", last), currency); err != nil {
		return fmt.Errorf("style transaction amounts: %w", err)
	}
	return nil
}

// writeSalesSheet lists one row per sold line.
func writeSalesSheet(f *excelize.File, txs []core.Transaction, currency int) error {
	const sheet = "Sales"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sales sheet: %w", err)
	}

	header := []any{"Transaction", "Date", "Code", "Item Name", "Material", "Billable", "Weight (gm)", "Amount"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write sales header: %w", err)
	}

	rowNum := 2
	for _, t := range txs {
		for _, i := range t.NewItems {
			billable := "No"
			if i.Billable {
				billable = "Yes"
			}
			row := []any{t.ID, t.Date.String(), i.Code, i.Name, string(i.Material), billable, i.Weight, i.Amount}
			if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", rowNum), &row); err != nil {
				return fmt.Errorf("write sales row: %w", err)
			}
			rowNum++
		}
	}

	if err := f.SetCellStyle(sheet, "H2", fmt.Sprintf("H%d", rowNum-1), currency); err != nil {
		return fmt.Errorf("style sales amounts: %w", err)
	}
	return nil
}

// writeExchangesSheet lists one row per exchange line.
func writeExchangesSheet(f *excelize.File, txs []core.Transaction, currency int) error {
	const sheet = "Exchanges"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create exchanges sheet: %w", err)
	}

	header := []any{"Transaction", "Date", "Material", "Weight (gm)", "Amount"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write exchanges header: %w", err)
	}

	rowNum := 2
	for _, t := range txs {
		for _, i := range t.OldItems {
			row := []any{t.ID, t.Date.String(), string(i.Material), i.Weight, i.Amount}
			if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", rowNum), &row); err != nil {
				return fmt.Errorf("write exchanges row: %w", err)
			}
			rowNum++
		}
	}

	if err := f.SetCellStyle(sheet, "E2", fmt.Sprintf("E%d", rowNum-1), currency); err != nil {
		return fmt.Errorf("style exchange amounts: %w", err)
	}
	return nil
}

// writeSummarySheet lays out the aggregate block: weights by material,
// billable slice and the payment split.
func writeSummarySheet(f *excelize.File, s core.Summary, currency int) error {
	const sheet = "Summary"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}

	rows := [][]any{
		{"Transactions", s.Transactions},
		{"Total Amount", s.TotalAmount},
		{"Net Amount Paid", s.NetAmountPaid},
		{"Billable Amount", s.BillableAmount},
		{"Old Item Amount", s.OldAmount},
		{},
		{"Gold Weight (gm)", s.NewWeight[core.Gold]},
		{"Silver Weight (gm)", s.NewWeight[core.Silver]},
		{"Other Weight (gm)", s.NewWeight[core.Other]},
		{"Billable Gold (gm)", s.BillableWeight[core.Gold]},
		{"Billable Silver (gm)", s.BillableWeight[core.Silver]},
		{"Old Gold (gm)", s.OldWeight[core.Gold]},
		{"Old Silver (gm)", s.OldWeight[core.Silver]},
		{},
		{"Cash", s.Payments.Cash},
		{"Card", s.Payments.Card},
		{"UPI", s.Payments.UPI},
	}
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", i+1), &row); err != nil {
			return fmt.Errorf("write summary row: %w", err)
		}
	}

	for _, cell := range []string{"B2", "B3", "B4", "B5", "B15", "B16", "B17"} {
		if err := f.SetCellStyle(sheet, cell, cell, currency); err != nil {
			return fmt.Errorf("style summary amounts: %w", err)
		}
	}
	return nil
}

func ptr[T any](v T) *T { return &v }
