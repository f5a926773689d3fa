package redis

import (
	"context"
	"fmt"
	"time"

	"creator-analytics-client/internal/domain"
	"creator-analytics-client/internal/domain/ports/repository"
	"creator-analytics-client/internal/infra/security"
)

var _ repository.SessionStore = (*SessionStore)(nil)

// SessionStore is the Redis-backed session-scoped storage behind the
// repository.SessionStore port. Entries carry the configured TTL, so
// they lapse with the session; when a cipher is configured, values are
// sealed before they touch Redis (snapshots can carry conversation
// fragments and should not sit there in plaintext).
type SessionStore struct {
	client RedisClient
	ttl    time.Duration
	cipher *security.EncryptionService // nil disables sealing
}

func NewSessionStore(client RedisClient, ttl time.Duration, cipher *security.EncryptionService) *SessionStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SessionStore{client: client, ttl: ttl, cipher: cipher}
}

func (s *SessionStore) key(k string) string { return "session:" + k }

func (s *SessionStore) Get(ctx context.Context, key string) ([]byte, error) {
	raw, err := s.client.Get(ctx, s.key(key))
	if err != nil {
		if IsNil(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("session get: %w", err)
	}
	if s.cipher == nil {
		return []byte(raw), nil
	}
	plain, err := s.cipher.Open(raw)
	if err != nil {
		// An unreadable sealed value is as good as absent; the caller
		// treats it like a corrupt snapshot and clears it.
		_ = s.client.Del(ctx, s.key(key))
		return nil, domain.ErrNotFound
	}
	return plain, nil
}

func (s *SessionStore) Set(ctx context.Context, key string, value []byte) error {
	var payload string
	if s.cipher != nil {
		sealed, err := s.cipher.Seal(value)
		if err != nil {
			return fmt.Errorf("session seal: %w", err)
		}
		payload = sealed
	} else {
		payload = string(value)
	}
	if err := s.client.Set(ctx, s.key(key), payload, s.ttl); err != nil {
		return fmt.Errorf("session set: %w", err)
	}
	return nil
}

func (s *SessionStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)); err != nil {
		return fmt.Errorf("session delete: %w", err)
	}
	return nil
}
