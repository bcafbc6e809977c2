package models

import (
	"math"
	"time"
)

// TransactionType is the direction of a transaction.
type TransactionType string

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

// Valid reports whether t is income or expense.
func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

// Transaction represents a single income or expense record.
// Amount is always positive; the sign is implied by Type.
type Transaction struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Amount    float64         `json:"amount"`
	Type      TransactionType `json:"type"`
	Category  string          `json:"category"`
	Date      Date            `json:"date"`
	CreatedAt time.Time       `json:"createdAt"`
}

// SignedAmount returns the contribution of the transaction to the balance.
func (t Transaction) SignedAmount() float64 {
	if t.Type == Expense {
		return -t.Amount
	}
	return t.Amount
}

// Draft is the unvalidated input for a new transaction.
type Draft struct {
	Title    string          `json:"title"`
	Amount   float64         `json:"amount"`
	Type     TransactionType `json:"type"`
	Category string          `json:"category"`
	Date     string          `json:"date"`
}

// Validate checks the draft and returns a *ValidationError naming the first
// failing field, along with the parsed date.
func (d Draft) Validate() (Date, error) {
	if trimmed(d.Title) == "" {
		return Date{}, NewValidationError("title", "title is required")
	}
	if d.Amount <= 0 || math.IsNaN(d.Amount) || math.IsInf(d.Amount, 0) {
		return Date{}, NewValidationError("amount", "amount must be a positive number")
	}
	if !d.Type.Valid() {
		return Date{}, NewValidationError("type", "type must be income or expense")
	}
	date, err := ParseDate(d.Date)
	if err != nil {
		return Date{}, NewValidationError("date", "date must be a valid YYYY-MM-DD calendar date")
	}
	if trimmed(d.Category) == "" {
		return Date{}, NewValidationError("category", "category is required")
	}
	return date, nil
}

// User represents a registered account. Password holds the stored
// credential produced by the configured verifier, never the raw password.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Password  string    `json:"password"`
	CreatedAt time.Time `json:"createdAt"`
}

// Session is the projection of the logged-in user.
type Session struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// SessionFor projects a user into a session.
func SessionFor(u *User) Session {
	return Session{ID: u.ID, Name: u.Name, Email: u.Email}
}

// Theme is the persisted UI preference.
type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

// DefaultTheme is used until the user picks one.
const DefaultTheme = ThemeDark

func (t Theme) Valid() bool {
	return t == ThemeDark || t == ThemeLight
}
