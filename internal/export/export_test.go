package export

import (
	"bytes"
	"strings"
	"testing"

	"finance-tracker/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sample() []models.Transaction {
	return []models.Transaction{
		{ID: "1", Title: "Lunch", Amount: 12.5, Type: models.Expense, Category: "Food", Date: models.NewDate(2024, 5, 2)},
		{ID: "2", Title: "Salary", Amount: 1000, Type: models.Income, Category: "Salary", Date: models.NewDate(2024, 5, 1)},
	}
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, sample()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{transactionsSheet, summarySheet}, f.GetSheetList())

	rows, err := f.GetRows(transactionsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, header, rows[0])
	assert.Equal(t, []string{"2024-05-02", "Lunch", "Expense", "Food", "-12.5"}, rows[1])
	assert.Equal(t, "Income", rows[2][2])

	balance, err := f.GetCellValue(summarySheet, "B3")
	require.NoError(t, err)
	assert.Equal(t, "987.5", balance)

	rate, err := f.GetCellValue(summarySheet, "B4")
	require.NoError(t, err)
	assert.Equal(t, "99", rate)
}

func TestWriteXLSXEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(transactionsSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sample()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Date,Title,Type,Category,Amount", lines[0])
	assert.Equal(t, "2024-05-02,Lunch,Expense,Food,-12.50", lines[1])
	assert.Equal(t, "2024-05-01,Salary,Income,Salary,1000.00", lines[2])
}
