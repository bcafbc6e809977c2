// Package aggregate derives totals and statistics from a list of
// transactions. Every function is pure. Sums are accumulated as decimals
// and converted back to float64 at the end.
package aggregate

import (
	"sort"
	"time"

	"finance-tracker/internal/ledger"
	"finance-tracker/internal/models"

	"github.com/shopspring/decimal"
)

// RecentCount is the number of transactions shown on the dashboard.
const RecentCount = 5

// Totals holds the income, expense and balance of a set of transactions.
type Totals struct {
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
	Balance float64 `json:"balance"`
}

// CategoryAmount is the unsigned sum of one category.
type CategoryAmount struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
}

// Stats summarizes a set of transactions.
type Stats struct {
	Count          int     `json:"count"`
	Average        float64 `json:"average"`
	LargestExpense float64 `json:"largestExpense"`
	LargestIncome  float64 `json:"largestIncome"`
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

func computeTotals(txs []models.Transaction) (income, expense decimal.Decimal) {
	income, expense = decimal.Zero, decimal.Zero
	for _, tx := range txs {
		amount := decimal.NewFromFloat(tx.Amount)
		switch tx.Type {
		case models.Income:
			income = income.Add(amount)
		case models.Expense:
			expense = expense.Add(amount)
		}
	}
	return income, expense
}

// ComputeTotals sums income and expense; Balance is their difference.
func ComputeTotals(txs []models.Transaction) Totals {
	income, expense := computeTotals(txs)
	return Totals{
		Income:  toFloat(income),
		Expense: toFloat(expense),
		Balance: toFloat(income.Sub(expense)),
	}
}

// SavingsRate returns the share of income kept, as a whole percentage
// rounded half up and clamped to [0, 100]. It is 0 when income is not
// positive.
func SavingsRate(income, expense float64) int {
	if income <= 0 {
		return 0
	}
	in := decimal.NewFromFloat(income)
	kept := in.Sub(decimal.NewFromFloat(expense)).Mul(decimal.NewFromInt(100))
	if !kept.IsPositive() {
		return 0
	}
	q, r := kept.QuoRem(in, 0)
	pct := int(q.IntPart())
	if r.Mul(decimal.NewFromInt(2)).GreaterThanOrEqual(in) {
		pct++
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// CategoryTotals sums amounts per category regardless of type, in order
// of first appearance.
func CategoryTotals(txs []models.Transaction) []CategoryAmount {
	order := make([]string, 0)
	sums := make(map[string]decimal.Decimal)
	for _, tx := range txs {
		sum, ok := sums[tx.Category]
		if !ok {
			order = append(order, tx.Category)
			sum = decimal.Zero
		}
		sums[tx.Category] = sum.Add(decimal.NewFromFloat(tx.Amount))
	}

	out := make([]CategoryAmount, 0, len(order))
	for _, c := range order {
		out = append(out, CategoryAmount{Category: c, Amount: toFloat(sums[c])})
	}
	return out
}

// ComputeStats returns the count, the mean amount and the largest amount of
// each type. Amounts are unsigned, so the mean ignores direction. Empty
// input yields zeros.
func ComputeStats(txs []models.Transaction) Stats {
	if len(txs) == 0 {
		return Stats{}
	}

	sum := decimal.Zero
	var largestExpense, largestIncome float64
	for _, tx := range txs {
		sum = sum.Add(decimal.NewFromFloat(tx.Amount))
		switch tx.Type {
		case models.Expense:
			if tx.Amount > largestExpense {
				largestExpense = tx.Amount
			}
		case models.Income:
			if tx.Amount > largestIncome {
				largestIncome = tx.Amount
			}
		}
	}

	return Stats{
		Count:          len(txs),
		Average:        toFloat(sum.Div(decimal.NewFromInt(int64(len(txs))))),
		LargestExpense: largestExpense,
		LargestIncome:  largestIncome,
	}
}

// CategoryShare is a category total with its share of the type total.
type CategoryShare struct {
	Category   models.CategoryDef `json:"category"`
	Amount     float64            `json:"amount"`
	Count      int                `json:"count"`
	Percentage float64            `json:"percentage"`
}

// Breakdown groups the transactions of one type by category, largest first.
func Breakdown(txs []models.Transaction, t models.TransactionType) []CategoryShare {
	type acc struct {
		sum   decimal.Decimal
		count int
		first int
	}
	groups := make(map[string]*acc)
	total := decimal.Zero
	for i, tx := range txs {
		if tx.Type != t {
			continue
		}
		g, ok := groups[tx.Category]
		if !ok {
			g = &acc{sum: decimal.Zero, first: i}
			groups[tx.Category] = g
		}
		amount := decimal.NewFromFloat(tx.Amount)
		g.sum = g.sum.Add(amount)
		g.count++
		total = total.Add(amount)
	}

	out := make([]CategoryShare, 0, len(groups))
	firsts := make(map[string]int, len(groups))
	for name, g := range groups {
		def, _ := models.LookupCategory(name)
		def.Name = name
		pct := decimal.Zero
		if total.IsPositive() {
			pct = g.sum.Mul(decimal.NewFromInt(100)).DivRound(total, 1)
		}
		out = append(out, CategoryShare{
			Category:   def,
			Amount:     toFloat(g.sum),
			Count:      g.count,
			Percentage: toFloat(pct),
		})
		firsts[name] = g.first
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			return out[i].Amount > out[j].Amount
		}
		return firsts[out[i].Category.Name] < firsts[out[j].Category.Name]
	})
	return out
}

// InMonth keeps the transactions dated in the given month, preserving order.
func InMonth(txs []models.Transaction, year int, month time.Month) []models.Transaction {
	out := make([]models.Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx.Date.Year() == year && tx.Date.Month() == month {
			out = append(out, tx)
		}
	}
	return out
}

// MonthSummary is the income and expense of one calendar month.
type MonthSummary struct {
	Month   string  `json:"month"`
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
	Balance float64 `json:"balance"`
}

// Monthly groups transactions by the month of their date, oldest first.
func Monthly(txs []models.Transaction) []MonthSummary {
	byMonth := make(map[string][]models.Transaction)
	for _, tx := range txs {
		key := tx.Date.MonthKey()
		byMonth[key] = append(byMonth[key], tx)
	}

	months := make([]string, 0, len(byMonth))
	for m := range byMonth {
		months = append(months, m)
	}
	sort.Strings(months)

	out := make([]MonthSummary, 0, len(months))
	for _, m := range months {
		t := ComputeTotals(byMonth[m])
		out = append(out, MonthSummary{Month: m, Income: t.Income, Expense: t.Expense, Balance: t.Balance})
	}
	return out
}

// Dashboard bundles everything the overview screen shows.
type Dashboard struct {
	Totals      Totals               `json:"totals"`
	SavingsRate int                  `json:"savingsRate"`
	Stats       Stats                `json:"stats"`
	Categories  []CategoryAmount     `json:"categories"`
	Expenses    []CategoryShare      `json:"expenseBreakdown"`
	Monthly     []MonthSummary       `json:"monthly"`
	Recent      []models.Transaction `json:"recent"`
}

// Summarize computes the dashboard for txs, which must be in ledger order.
func Summarize(txs []models.Transaction) Dashboard {
	totals := ComputeTotals(txs)
	return Dashboard{
		Totals:      totals,
		SavingsRate: SavingsRate(totals.Income, totals.Expense),
		Stats:       ComputeStats(txs),
		Categories:  CategoryTotals(txs),
		Expenses:    Breakdown(txs, models.Expense),
		Monthly:     Monthly(txs),
		Recent:      ledger.Recent(txs, RecentCount),
	}
}
