package adapter

import "context"

// CredentialSource yields the bearer credential attached to backend calls.
// Implementations return domain.ErrAuthRequired when none is configured.
type CredentialSource interface {
	Token(ctx context.Context) (string, error)
}
