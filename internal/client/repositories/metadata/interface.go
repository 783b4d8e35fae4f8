// Package metadata is a small key/value store for client bookkeeping, such
// as the marker of the session that is currently open on the service.
package metadata

import (
	"context"
)

// Well-known keys.
const (
	KeyActiveSession = "active_session"
	KeyCurrentDeck   = "current_deck"
	KeyLastSession   = "last_session"
)

type Repository interface {
	// Get returns ("", false, nil) when key is absent.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string]string, error)
}
