// Package storage provides the key-value blob store that every collection
// in the tracker is persisted to. Values are whole JSON documents; callers
// read the entire collection, change it in memory and write it back.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrKeyNotFound is returned by Get when nothing is stored under a key.
var ErrKeyNotFound = errors.New("key not found")

// Well-known keys.
const (
	KeyUsers   = "users"
	KeySession = "session"
	KeyTheme   = "theme"
)

// LedgerKey returns the key of a user's transaction list.
func LedgerKey(userID string) string {
	return "ledger:" + userID
}

// Store is a key to JSON blob store.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
}

// GetJSON decodes the value under key into v. It reports false when the key
// is absent, leaving v untouched.
func GetJSON(ctx context.Context, s Store, key string, v any) (bool, error) {
	raw, err := s.Get(ctx, key)
	if errors.Is(err, ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// SetJSON encodes v and stores it under key.
func SetJSON(ctx context.Context, s Store, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Set(ctx, key, raw)
}
