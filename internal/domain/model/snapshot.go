package model

import (
	"encoding/json"
	"time"
)

// SnapshotKind tags what the user was doing when a snapshot was captured.
type SnapshotKind string

const (
	SnapshotActiveAnalysis     SnapshotKind = "active_analysis"
	SnapshotActiveConversation SnapshotKind = "active_conversation"
)

func (k SnapshotKind) Valid() bool {
	return k == SnapshotActiveAnalysis || k == SnapshotActiveConversation
}

// ContinuitySnapshot is a compact persisted record of the user's current
// context, written so a reload or a return-navigation (checkout and back)
// resumes the same view. The Hint payload is a display aid only; restorers
// must re-fetch authoritative state for SubjectID/CorrelationID.
type ContinuitySnapshot struct {
	Kind          SnapshotKind    `json:"kind"`
	SubjectID     string          `json:"subject_id"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	CapturedAt    time.Time       `json:"captured_at"`
	Hint          json.RawMessage `json:"hint,omitempty"`
}

// Stale reports whether the snapshot is past the given threshold at now.
func (s ContinuitySnapshot) Stale(now time.Time, threshold time.Duration) bool {
	return now.Sub(s.CapturedAt) > threshold
}
