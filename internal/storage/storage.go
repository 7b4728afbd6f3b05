// Package storage defines the key-value blob store the storefront persists
// its local state into (cart snapshot, one-shot confirmation flag).
//
// The store is treated as effectively single-writer: one shopper session per
// process. Concurrent writers (two open sessions on the same key) race and
// last-write-wins is accepted as adequate.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get when no value exists under the key.
var ErrNotFound = errors.New("storage: key not found")

// Store is the port for a key-value blob store. Implementations: Memory,
// sqlite.Store, redis.Store.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
}

// GetJSON reads key and decodes it into v. A missing key or a corrupt blob
// both report ok=false with a nil error — local state must never wedge the
// app, so corruption degrades to "absent".
func GetJSON(ctx context.Context, s Store, key string, v any) (bool, error) {
	raw, err := s.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("storage: get %q: %w", key, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, nil
	}
	return true, nil
}

// SetJSON encodes v and writes it under key.
func SetJSON(ctx context.Context, s Store, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("storage: marshal %q: %w", key, err)
	}
	if err := s.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("storage: set %q: %w", key, err)
	}
	return nil
}
