//go:build !integration

package usecase

import (
	"context"
	"testing"
	"time"

	"creator-analytics-client/internal/domain"
	"creator-analytics-client/internal/domain/model"
)

func TestContinuityCaptureRestore(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	uc := NewContinuityUseCase(store, 24*time.Hour, testLogger())

	snap := model.ContinuitySnapshot{
		Kind:          model.SnapshotActiveAnalysis,
		SubjectID:     "task-1",
		CorrelationID: "https://youtu.be/abc",
	}
	if err := uc.Capture(context.Background(), snap); err != nil {
		t.Fatalf("Capture: %v", err)
	}

	got, ok, err := uc.Restore(context.Background(), model.SnapshotActiveAnalysis)
	if err != nil || !ok {
		t.Fatalf("Restore = %v, %v", ok, err)
	}
	if got.SubjectID != "task-1" || got.CorrelationID != "https://youtu.be/abc" {
		t.Fatalf("restored snapshot = %+v", got)
	}
	if got.CapturedAt.IsZero() {
		t.Fatalf("CapturedAt not stamped on capture")
	}

	// Restore does not consume; a second restore sees the same snapshot.
	again, ok, err := uc.Restore(context.Background(), model.SnapshotActiveAnalysis)
	if err != nil || !ok || again.SubjectID != "task-1" {
		t.Fatalf("second restore = %+v, %v, %v", again, ok, err)
	}
}

func TestContinuityStalenessBoundary(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := newMemStore()
	uc := NewContinuityUseCase(store, 24*time.Hour, testLogger())
	uc.now = func() time.Time { return now }

	// Captured 1439 minutes ago: one minute inside the threshold.
	if err := uc.Capture(context.Background(), model.ContinuitySnapshot{
		Kind:       model.SnapshotActiveAnalysis,
		SubjectID:  "task-1",
		CapturedAt: now.Add(-1439 * time.Minute),
	}); err != nil {
		t.Fatal(err)
	}
	if _, ok, err := uc.Restore(context.Background(), model.SnapshotActiveAnalysis); err != nil || !ok {
		t.Fatalf("snapshot inside threshold not restored: %v, %v", ok, err)
	}

	// Captured 1441 minutes ago: one minute past. Discarded and deleted.
	if err := uc.Capture(context.Background(), model.ContinuitySnapshot{
		Kind:       model.SnapshotActiveAnalysis,
		SubjectID:  "task-2",
		CapturedAt: now.Add(-1441 * time.Minute),
	}); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := uc.Restore(context.Background(), model.SnapshotActiveAnalysis); ok {
		t.Fatalf("stale snapshot restored")
	}
	if _, err := store.Get(context.Background(), "continuity:active_analysis"); err != domain.ErrNotFound {
		t.Fatalf("stale snapshot not deleted: %v", err)
	}
}

func TestContinuityUnreadableSnapshotDiscarded(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	uc := NewContinuityUseCase(store, 24*time.Hour, testLogger())

	if err := store.Set(context.Background(), "continuity:active_analysis", []byte("{garbage")); err != nil {
		t.Fatal(err)
	}
	if _, ok, err := uc.Restore(context.Background(), model.SnapshotActiveAnalysis); ok || err != nil {
		t.Fatalf("unreadable snapshot = %v, %v", ok, err)
	}
	if _, err := store.Get(context.Background(), "continuity:active_analysis"); err != domain.ErrNotFound {
		t.Fatalf("unreadable snapshot not deleted")
	}
}

func TestContinuityKindsAreIndependent(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	uc := NewContinuityUseCase(store, 24*time.Hour, testLogger())

	if err := uc.Capture(context.Background(), model.ContinuitySnapshot{
		Kind: model.SnapshotActiveAnalysis, SubjectID: "task-1",
	}); err != nil {
		t.Fatal(err)
	}
	if err := uc.Capture(context.Background(), model.ContinuitySnapshot{
		Kind: model.SnapshotActiveConversation, SubjectID: "conv-1",
	}); err != nil {
		t.Fatal(err)
	}

	if err := uc.Clear(context.Background(), model.SnapshotActiveAnalysis); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := uc.Restore(context.Background(), model.SnapshotActiveAnalysis); ok {
		t.Fatalf("cleared kind still restorable")
	}
	if _, ok, _ := uc.Restore(context.Background(), model.SnapshotActiveConversation); !ok {
		t.Fatalf("clearing one kind wiped the other")
	}
}

func TestContinuityCaptureValidation(t *testing.T) {
	t.Parallel()

	uc := NewContinuityUseCase(newMemStore(), 24*time.Hour, testLogger())

	if err := uc.Capture(context.Background(), model.ContinuitySnapshot{Kind: "bogus", SubjectID: "x"}); err == nil {
		t.Fatalf("bogus kind accepted")
	}
	if err := uc.Capture(context.Background(), model.ContinuitySnapshot{Kind: model.SnapshotActiveAnalysis}); err == nil {
		t.Fatalf("empty subject accepted")
	}
}
