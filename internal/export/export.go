// Package export renders a ledger as a spreadsheet or CSV file.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"finance-tracker/internal/aggregate"
	"finance-tracker/internal/models"

	"github.com/xuri/excelize/v2"
)

const (
	transactionsSheet = "Transactions"
	summarySheet      = "Summary"
)

var header = []string{"Date", "Title", "Type", "Category", "Amount"}

func typeLabel(t models.TransactionType) string {
	if t == models.Income {
		return "Income"
	}
	return "Expense"
}

// WriteXLSX writes txs and their totals as an xlsx workbook.
func WriteXLSX(w io.Writer, txs []models.Transaction) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(transactionsSheet)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("delete default sheet: %w", err)
	}

	for i, h := range header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(transactionsSheet, cell, h)
	}

	for i, tx := range txs {
		row := i + 2
		f.SetCellValue(transactionsSheet, fmt.Sprintf("A%d", row), tx.Date.String())
		f.SetCellValue(transactionsSheet, fmt.Sprintf("B%d", row), tx.Title)
		f.SetCellValue(transactionsSheet, fmt.Sprintf("C%d", row), typeLabel(tx.Type))
		f.SetCellValue(transactionsSheet, fmt.Sprintf("D%d", row), tx.Category)
		f.SetCellValue(transactionsSheet, fmt.Sprintf("E%d", row), tx.SignedAmount())
	}

	f.SetColWidth(transactionsSheet, "A", "A", 12)
	f.SetColWidth(transactionsSheet, "B", "B", 30)
	f.SetColWidth(transactionsSheet, "C", "C", 10)
	f.SetColWidth(transactionsSheet, "D", "D", 16)
	f.SetColWidth(transactionsSheet, "E", "E", 12)

	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	totals := aggregate.ComputeTotals(txs)
	rows := [][]any{
		{"Income", totals.Income},
		{"Expense", totals.Expense},
		{"Balance", totals.Balance},
		{"Savings rate (%)", aggregate.SavingsRate(totals.Income, totals.Expense)},
	}
	for i, r := range rows {
		f.SetCellValue(summarySheet, fmt.Sprintf("A%d", i+1), r[0])
		f.SetCellValue(summarySheet, fmt.Sprintf("B%d", i+1), r[1])
	}
	f.SetColWidth(summarySheet, "A", "A", 18)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// WriteCSV writes txs as CSV with a header row.
func WriteCSV(w io.Writer, txs []models.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, tx := range txs {
		record := []string{
			tx.Date.String(),
			tx.Title,
			typeLabel(tx.Type),
			tx.Category,
			strconv.FormatFloat(tx.SignedAmount(), 'f', 2, 64),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
