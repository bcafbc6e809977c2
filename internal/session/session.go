// Package session holds the single logged-in user of the profile.
package session

import (
	"context"
	"fmt"
	"sync"

	"finance-tracker/internal/models"
	"finance-tracker/internal/storage"
)

// Holder persists at most one active session.
type Holder struct {
	mu    sync.Mutex
	store storage.Store
}

func NewHolder(s storage.Store) *Holder {
	return &Holder{store: s}
}

// Login stores the user's projection as the active session, replacing any
// previous one.
func (h *Holder) Login(ctx context.Context, user *models.User) (models.Session, error) {
	sess := models.SessionFor(user)

	h.mu.Lock()
	defer h.mu.Unlock()
	if err := storage.SetJSON(ctx, h.store, storage.KeySession, sess); err != nil {
		return models.Session{}, fmt.Errorf("save session: %w", err)
	}
	return sess, nil
}

// Logout clears the active session.
func (h *Holder) Logout(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.store.Remove(ctx, storage.KeySession); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// Current returns the active session, or nil when nobody is logged in.
func (h *Holder) Current(ctx context.Context) (*models.Session, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var sess models.Session
	found, err := storage.GetJSON(ctx, h.store, storage.KeySession, &sess)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if !found || sess.ID == "" {
		return nil, nil
	}
	return &sess, nil
}
