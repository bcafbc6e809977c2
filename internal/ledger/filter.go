package ledger

import (
	"strings"

	"finance-tracker/internal/models"
)

// TypeFilter selects transactions by direction.
type TypeFilter string

const (
	All         TypeFilter = "all"
	OnlyIncome  TypeFilter = "income"
	OnlyExpense TypeFilter = "expense"
)

// ParseTypeFilter maps a query value to a TypeFilter. Anything unrecognized
// means all.
func ParseTypeFilter(s string) TypeFilter {
	switch TypeFilter(strings.ToLower(strings.TrimSpace(s))) {
	case OnlyIncome:
		return OnlyIncome
	case OnlyExpense:
		return OnlyExpense
	}
	return All
}

// Filter is a view over the ledger. It never changes stored data.
type Filter struct {
	Type   TypeFilter `json:"type"`
	Search string     `json:"search"`
}

func (f Filter) matches(tx models.Transaction, needle string) bool {
	switch f.Type {
	case OnlyIncome:
		if tx.Type != models.Income {
			return false
		}
	case OnlyExpense:
		if tx.Type != models.Expense {
			return false
		}
	}
	if needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(tx.Title), needle) ||
		strings.Contains(strings.ToLower(tx.Category), needle)
}

// Apply keeps the transactions matching f, preserving order. Search is a
// case-insensitive substring match on title or category; a blank search
// matches everything.
func Apply(txs []models.Transaction, f Filter) []models.Transaction {
	needle := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]models.Transaction, 0, len(txs))
	for _, tx := range txs {
		if f.matches(tx, needle) {
			out = append(out, tx)
		}
	}
	return out
}

// Recent returns at most n transactions from the head of txs.
func Recent(txs []models.Transaction, n int) []models.Transaction {
	if n < 0 {
		n = 0
	}
	if n > len(txs) {
		n = len(txs)
	}
	out := make([]models.Transaction, n)
	copy(out, txs[:n])
	return out
}
