// Package undo holds the most recent deletion for a short window so it can
// be reverted.
package undo

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"finance-tracker/internal/ledger"
	"finance-tracker/internal/models"
)

// DefaultWindow is how long a deletion stays undoable.
const DefaultWindow = 4 * time.Second

// Restorer puts a removed transaction back at its position.
type Restorer interface {
	ReinsertAt(ctx context.Context, userID string, tx models.Transaction, index int) error
}

// Pending describes the deletion currently held by the buffer.
type Pending struct {
	UserID      string             `json:"-"`
	Transaction models.Transaction `json:"transaction"`
	Index       int                `json:"index"`
	ExpiresAt   time.Time          `json:"expiresAt"`
}

// Buffer holds at most one pending deletion. A new Push replaces the
// previous entry, which then becomes permanent.
type Buffer struct {
	mu       sync.Mutex
	restorer Restorer
	window   time.Duration
	now      func() time.Time

	pending *Pending
	timer   *time.Timer
	gen     uint64
}

func NewBuffer(restorer Restorer, window time.Duration) *Buffer {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Buffer{restorer: restorer, window: window, now: time.Now}
}

// Push records a removal and restarts the expiry timer.
func (b *Buffer) Push(userID string, r ledger.Removal) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.stopLocked()
	b.gen++
	gen := b.gen
	b.pending = &Pending{
		UserID:      userID,
		Transaction: r.Transaction,
		Index:       r.Index,
		ExpiresAt:   b.now().Add(b.window),
	}
	b.timer = time.AfterFunc(b.window, func() { b.expire(gen) })
}

// Undo restores the pending deletion. With nothing pending it returns nil
// and does nothing.
func (b *Buffer) Undo(ctx context.Context) (*models.Transaction, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.pending == nil {
		return nil, nil
	}
	p := *b.pending
	if err := b.restorer.ReinsertAt(ctx, p.UserID, p.Transaction, p.Index); err != nil {
		return nil, err
	}
	b.clearLocked()
	return &p.Transaction, nil
}

// Pending returns the held deletion, if any.
func (b *Buffer) Pending() (Pending, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pending == nil {
		return Pending{}, false
	}
	return *b.pending, true
}

// Discard drops the pending deletion without restoring it.
func (b *Buffer) Discard() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clearLocked()
}

func (b *Buffer) expire(gen uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if gen != b.gen || b.pending == nil {
		return
	}
	slog.Debug("undo window elapsed", slog.String("transaction_id", b.pending.Transaction.ID))
	b.pending = nil
	b.timer = nil
}

func (b *Buffer) clearLocked() {
	b.stopLocked()
	b.gen++
	b.pending = nil
}

func (b *Buffer) stopLocked() {
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
}
