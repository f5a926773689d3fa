package repository

import "context"

// SessionStore is session-scoped key/value storage: device-local,
// expiring with the session. Continuity snapshots and the pending
// deferred action live here under distinct keys.
//
// Get returns domain.ErrNotFound for absent keys.
type SessionStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
