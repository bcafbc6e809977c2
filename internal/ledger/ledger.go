// Package ledger keeps each user's transactions, newest first.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"finance-tracker/internal/models"

	"github.com/google/uuid"
)

// Removal describes a deleted transaction and the position it held.
type Removal struct {
	Transaction models.Transaction `json:"transaction"`
	Index       int                `json:"index"`
}

// Ledger serializes read-modify-persist cycles over a Repository.
type Ledger struct {
	mu    sync.Mutex
	repo  Repository
	now   func() time.Time
	newID func() string
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock overrides the creation-time clock.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithIDGenerator overrides id generation.
func WithIDGenerator(gen func() string) Option {
	return func(l *Ledger) { l.newID = gen }
}

func New(repo Repository, opts ...Option) *Ledger {
	l := &Ledger{
		repo:  repo,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// List returns the user's transactions, most recent first.
func (l *Ledger) List(ctx context.Context, userID string) ([]models.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.load(ctx, userID)
}

// Add validates the draft and inserts the new transaction at the head.
func (l *Ledger) Add(ctx context.Context, userID string, d models.Draft) (*models.Transaction, error) {
	date, err := d.Validate()
	if err != nil {
		return nil, err
	}

	tx := models.Transaction{
		ID:        l.newID(),
		Title:     strings.TrimSpace(d.Title),
		Amount:    d.Amount,
		Type:      d.Type,
		Category:  strings.TrimSpace(d.Category),
		Date:      date,
		CreatedAt: l.now().UTC(),
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	txs, err := l.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	txs = append([]models.Transaction{tx}, txs...)
	if err := l.save(ctx, userID, txs); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "transaction added",
		slog.String("user_id", userID),
		slog.String("transaction_id", tx.ID),
		slog.String("type", string(tx.Type)))
	return &tx, nil
}

// RemoveByID deletes the transaction with the given id and reports where it
// was, so it can be put back with ReinsertAt.
func (l *Ledger) RemoveByID(ctx context.Context, userID, id string) (Removal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	txs, err := l.load(ctx, userID)
	if err != nil {
		return Removal{}, err
	}
	idx := indexOf(txs, id)
	if idx < 0 {
		return Removal{}, models.ErrNotFound
	}

	removed := txs[idx]
	rest := make([]models.Transaction, 0, len(txs)-1)
	rest = append(rest, txs[:idx]...)
	rest = append(rest, txs[idx+1:]...)
	if err := l.save(ctx, userID, rest); err != nil {
		return Removal{}, err
	}

	slog.InfoContext(ctx, "transaction removed",
		slog.String("user_id", userID),
		slog.String("transaction_id", id),
		slog.Int("index", idx))
	return Removal{Transaction: removed, Index: idx}, nil
}

// ReinsertAt puts tx back at index, clamped to [0, len].
func (l *Ledger) ReinsertAt(ctx context.Context, userID string, tx models.Transaction, index int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	txs, err := l.load(ctx, userID)
	if err != nil {
		return err
	}
	txs = insertAt(txs, tx, index)
	if err := l.save(ctx, userID, txs); err != nil {
		return err
	}

	slog.InfoContext(ctx, "transaction restored",
		slog.String("user_id", userID),
		slog.String("transaction_id", tx.ID))
	return nil
}

// Filter returns the user's transactions matching f, in ledger order.
func (l *Ledger) Filter(ctx context.Context, userID string, f Filter) ([]models.Transaction, error) {
	txs, err := l.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	return Apply(txs, f), nil
}

func (l *Ledger) load(ctx context.Context, userID string) ([]models.Transaction, error) {
	txs, err := l.repo.Load(ctx, userID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load ledger", slog.String("user_id", userID), slog.Any("error", err))
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	if txs == nil {
		txs = []models.Transaction{}
	}
	return txs, nil
}

func (l *Ledger) save(ctx context.Context, userID string, txs []models.Transaction) error {
	if err := l.repo.Save(ctx, userID, txs); err != nil {
		slog.ErrorContext(ctx, "failed to save ledger", slog.String("user_id", userID), slog.Any("error", err))
		return fmt.Errorf("save ledger: %w", err)
	}
	return nil
}

func indexOf(txs []models.Transaction, id string) int {
	for i, tx := range txs {
		if tx.ID == id {
			return i
		}
	}
	return -1
}

func insertAt(txs []models.Transaction, tx models.Transaction, index int) []models.Transaction {
	if index < 0 {
		index = 0
	}
	if index > len(txs) {
		index = len(txs)
	}
	out := make([]models.Transaction, 0, len(txs)+1)
	out = append(out, txs[:index]...)
	out = append(out, tx)
	return append(out, txs[index:]...)
}
