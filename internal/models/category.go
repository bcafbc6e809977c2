package models

import "strings"

// CategoryDef defines the properties of a category.
type CategoryDef struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Type  TransactionType `json:"type"`
	Icon  string          `json:"icon"`
	Color string          `json:"color"`
}

// IncomeCategories is the fixed set of income labels.
var IncomeCategories = []CategoryDef{
	{"salary", "Salary", Income, "💼", "#34d399"},
	{"freelance", "Freelance", Income, "💻", "#2dd4bf"},
	{"investment", "Investment", Income, "📈", "#4ade80"},
	{"gift", "Gift", Income, "🎁", "#a3e635"},
	{"other-income", "Other Income", Income, "💰", "#86efac"},
}

// ExpenseCategories is the fixed set of expense labels.
var ExpenseCategories = []CategoryDef{
	{"housing", "Housing", Expense, "🏠", "#818cf8"},
	{"food", "Food", Expense, "🍽️", "#60a5fa"},
	{"transport", "Transport", Expense, "🚌", "#a78bfa"},
	{"health", "Health", Expense, "🩺", "#f87171"},
	{"entertainment", "Entertainment", Expense, "🎮", "#f472b6"},
	{"shopping", "Shopping", Expense, "🛍️", "#fb923c"},
	{"utilities", "Utilities", Expense, "💡", "#fbbf24"},
	{"education", "Education", Expense, "📚", "#38bdf8"},
	{"other-expense", "Other Expense", Expense, "📦", "#94a3b8"},
}

var fallbackCategory = CategoryDef{ID: "other", Name: "Other", Icon: "📦", Color: "#94a3b8"}

// CategoriesFor returns the categories of one type, or all of them when
// t is empty.
func CategoriesFor(t TransactionType) []CategoryDef {
	switch t {
	case Income:
		return append([]CategoryDef(nil), IncomeCategories...)
	case Expense:
		return append([]CategoryDef(nil), ExpenseCategories...)
	}
	all := make([]CategoryDef, 0, len(IncomeCategories)+len(ExpenseCategories))
	all = append(all, IncomeCategories...)
	return append(all, ExpenseCategories...)
}

// LookupCategory finds a category by display name or id, case-insensitively.
// Unknown names get a neutral style.
func LookupCategory(name string) (CategoryDef, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	for _, c := range CategoriesFor("") {
		if strings.ToLower(c.Name) == key || c.ID == key {
			return c, true
		}
	}
	def := fallbackCategory
	def.Name = name
	return def, false
}
