// File: internal/usecase/continuity_uc.go
package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"creator-analytics-client/internal/domain"
	"creator-analytics-client/internal/domain/model"
	"creator-analytics-client/internal/domain/ports/repository"
	"creator-analytics-client/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ ContinuityUseCase = (*continuityUC)(nil)

// ContinuityUseCase persists a compact snapshot of what the user was
// doing and restores it after a reload or a return-navigation. Restore
// is best effort: anything unreadable, mismatched, or stale is treated
// as "no snapshot" and deleted, never surfaced as an error to the view.
type ContinuityUseCase interface {
	Capture(ctx context.Context, snap model.ContinuitySnapshot) error
	Restore(ctx context.Context, kind model.SnapshotKind) (model.ContinuitySnapshot, bool, error)
	Clear(ctx context.Context, kind model.SnapshotKind) error
}

type continuityUC struct {
	store     repository.SessionStore
	staleness time.Duration
	now       func() time.Time
	log       *zerolog.Logger
}

func NewContinuityUseCase(store repository.SessionStore, staleness time.Duration, logger *zerolog.Logger) *continuityUC {
	if staleness <= 0 {
		staleness = 24 * time.Hour
	}
	compLog := logger.With().Str("component", "ContinuityUC").Logger()
	return &continuityUC{
		store:     store,
		staleness: staleness,
		now:       time.Now,
		log:       &compLog,
	}
}

func snapshotKey(kind model.SnapshotKind) string { return "continuity:" + string(kind) }

func (c *continuityUC) Capture(ctx context.Context, snap model.ContinuitySnapshot) error {
	if !snap.Kind.Valid() {
		return fmt.Errorf("%w: snapshot kind %q", domain.ErrInvalidArgument, snap.Kind)
	}
	if snap.SubjectID == "" {
		return fmt.Errorf("%w: snapshot subject empty", domain.ErrInvalidArgument)
	}
	if snap.CapturedAt.IsZero() {
		snap.CapturedAt = c.now()
	}
	b, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := c.store.Set(ctx, snapshotKey(snap.Kind), b); err != nil {
		return err
	}
	metrics.IncSnapshotCaptured(string(snap.Kind))
	c.log.Debug().Str("kind", string(snap.Kind)).Str("subject", snap.SubjectID).Msg("snapshot captured")
	return nil
}

func (c *continuityUC) Restore(ctx context.Context, kind model.SnapshotKind) (model.ContinuitySnapshot, bool, error) {
	raw, err := c.store.Get(ctx, snapshotKey(kind))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return model.ContinuitySnapshot{}, false, nil
		}
		return model.ContinuitySnapshot{}, false, err
	}

	var snap model.ContinuitySnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		c.discard(ctx, kind, "unreadable")
		return model.ContinuitySnapshot{}, false, nil
	}
	if snap.Kind != kind {
		c.discard(ctx, kind, "kind mismatch")
		return model.ContinuitySnapshot{}, false, nil
	}
	if snap.Stale(c.now(), c.staleness) {
		c.discard(ctx, kind, "stale")
		return model.ContinuitySnapshot{}, false, nil
	}

	metrics.IncSnapshotRestored(string(kind))
	return snap, true, nil
}

func (c *continuityUC) Clear(ctx context.Context, kind model.SnapshotKind) error {
	return c.store.Delete(ctx, snapshotKey(kind))
}

func (c *continuityUC) discard(ctx context.Context, kind model.SnapshotKind, reason string) {
	metrics.IncSnapshotExpired(string(kind))
	c.log.Debug().Str("kind", string(kind)).Str("reason", reason).Msg("snapshot discarded")
	_ = c.store.Delete(ctx, snapshotKey(kind))
}
