// File: internal/infra/auth/token.go
package auth

import (
	"context"
	"os"
	"strings"
	"sync"

	"creator-analytics-client/internal/domain"
	"creator-analytics-client/internal/domain/ports/adapter"
)

var _ adapter.CredentialSource = (*TokenSource)(nil)

// TokenSource yields the bearer credential from config: a literal token
// or a token file. The file wins when both are set and is re-read on
// every call, so an externally refreshed file takes effect without a
// restart. The literal token is fixed for the process lifetime.
type TokenSource struct {
	literal string
	file    string

	mu     sync.Mutex
	cached string
}

func NewTokenSource(literal, file string) *TokenSource {
	return &TokenSource{literal: strings.TrimSpace(literal), file: strings.TrimSpace(file)}
}

func (t *TokenSource) Token(_ context.Context) (string, error) {
	if t.file != "" {
		b, err := os.ReadFile(t.file)
		if err == nil {
			if tok := strings.TrimSpace(string(b)); tok != "" {
				t.mu.Lock()
				t.cached = tok
				t.mu.Unlock()
				return tok, nil
			}
		}
		// A transiently unreadable file falls back to the last good read.
		t.mu.Lock()
		cached := t.cached
		t.mu.Unlock()
		if cached != "" {
			return cached, nil
		}
	}
	if t.literal != "" {
		return t.literal, nil
	}
	return "", domain.ErrAuthRequired
}
