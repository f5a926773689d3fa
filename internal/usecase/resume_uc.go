// File: internal/usecase/resume_uc.go
package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"creator-analytics-client/internal/domain"
	"creator-analytics-client/internal/domain/model"
	"creator-analytics-client/internal/domain/ports/repository"
	"creator-analytics-client/internal/infra/metrics"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
)

// Compile-time check
var _ ResumeUseCase = (*resumeUC)(nil)

// ResumeUseCase holds the single user intent refused by a usage limit
// and hands it back exactly once when the limit lifts. Replay is "ready
// to go", never "already sent": the claimed action goes back to the view
// for a user-confirmed resubmit, the core never fires it itself.
type ResumeUseCase interface {
	Defer(ctx context.Context, action model.DeferredAction) (model.DeferredAction, error)
	Pending(ctx context.Context) (model.DeferredAction, bool)
	ClaimIfUnblocked(ctx context.Context) (model.DeferredAction, bool, error)
	Clear(ctx context.Context) error
}

const pendingActionKey = "deferred_action"

type resumeUC struct {
	store   repository.SessionStore
	billing BillingUseCase
	log     *zerolog.Logger

	mu      sync.Mutex
	pending *model.DeferredAction
}

func NewResumeUseCase(store repository.SessionStore, billing BillingUseCase, logger *zerolog.Logger) *resumeUC {
	compLog := logger.With().Str("component", "ResumeUC").Logger()
	return &resumeUC{store: store, billing: billing, log: &compLog}
}

func (r *resumeUC) Defer(ctx context.Context, action model.DeferredAction) (model.DeferredAction, error) {
	if action.Kind != model.ActionRunAnalysis && action.Kind != model.ActionAskQuestion {
		return model.DeferredAction{}, fmt.Errorf("%w: action kind %q", domain.ErrInvalidArgument, action.Kind)
	}
	if action.ID == "" {
		action.ID = ulid.Make().String()
	}
	if action.DeferredAt.IsZero() {
		action.DeferredAt = time.Now()
	}

	b, err := json.Marshal(action)
	if err != nil {
		return model.DeferredAction{}, fmt.Errorf("marshal action: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// Newest wins: an existing pending action is overwritten.
	if err := r.store.Set(ctx, pendingActionKey, b); err != nil {
		return model.DeferredAction{}, err
	}
	r.pending = &action

	metrics.IncActionDeferred(string(action.Kind))
	r.log.Info().Str("action_id", action.ID).Str("kind", string(action.Kind)).
		Str("limit", string(action.Limit)).Msg("action deferred")
	return action, nil
}

func (r *resumeUC) Pending(ctx context.Context) (model.DeferredAction, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.pendingLocked(ctx)
	if !ok {
		return model.DeferredAction{}, false
	}
	return *a, true
}

// ClaimIfUnblocked returns the pending action exactly once, and only
// when a fresh usage read shows its blocking limit no longer exceeded.
// The action is cleared before it is returned, so two concurrent mounts
// cannot both replay it.
func (r *resumeUC) ClaimIfUnblocked(ctx context.Context) (model.DeferredAction, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.pendingLocked(ctx)
	if !ok {
		return model.DeferredAction{}, false, nil
	}

	usage, err := r.billing.Usage(ctx)
	if err != nil {
		return model.DeferredAction{}, false, err
	}
	if usage.Exceeded(a.Limit) {
		return model.DeferredAction{}, false, nil
	}

	if err := r.clearLocked(ctx); err != nil {
		return model.DeferredAction{}, false, err
	}
	metrics.IncActionClaimed(string(a.Kind))
	r.log.Info().Str("action_id", a.ID).Str("kind", string(a.Kind)).Msg("action claimed for replay")
	return *a, true, nil
}

func (r *resumeUC) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.clearLocked(ctx)
}

func (r *resumeUC) pendingLocked(ctx context.Context) (*model.DeferredAction, bool) {
	if r.pending != nil {
		return r.pending, true
	}
	// Memory is empty after a restart; fall back to session storage.
	raw, err := r.store.Get(ctx, pendingActionKey)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			r.log.Warn().Err(err).Msg("pending action read failed")
		}
		return nil, false
	}
	var a model.DeferredAction
	if err := json.Unmarshal(raw, &a); err != nil {
		// Corrupt stored action: drop it rather than crash every mount.
		_ = r.store.Delete(ctx, pendingActionKey)
		return nil, false
	}
	r.pending = &a
	return r.pending, true
}

func (r *resumeUC) clearLocked(ctx context.Context) error {
	r.pending = nil
	if err := r.store.Delete(ctx, pendingActionKey); err != nil {
		return err
	}
	return nil
}
