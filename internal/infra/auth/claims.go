// File: internal/infra/auth/claims.go
package auth

import (
	"fmt"
	"time"

	"creator-analytics-client/internal/domain/model"

	"github.com/golang-jwt/jwt/v5"
)

// ParseIdentity extracts display claims from the bearer credential
// without verifying the signature. The backend is the verifier; the
// client only needs to show who it is acting as and warn when the
// credential is about to lapse.
func ParseIdentity(token string) (model.Identity, error) {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return model.Identity{}, fmt.Errorf("parse credential: %w", err)
	}

	id := model.Identity{}
	if sub, err := claims.GetSubject(); err == nil {
		id.Subject = sub
	}
	if v, ok := claims["email"].(string); ok {
		id.Email = v
	}
	if v, ok := claims["name"].(string); ok {
		id.Name = v
	}
	if v, ok := claims["plan_id"].(string); ok {
		id.PlanID = v
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		t := exp.Time
		id.ExpiresAt = &t
	}
	return id, nil
}

// ExpiresWithin reports whether the identity's credential lapses inside
// the given window. Used for a startup warning only.
func ExpiresWithin(id model.Identity, window time.Duration) bool {
	return id.ExpiresAt != nil && time.Until(*id.ExpiresAt) < window
}
