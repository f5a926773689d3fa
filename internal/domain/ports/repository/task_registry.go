package repository

import (
	"time"

	"creator-analytics-client/internal/domain/model"
)

type TaskEventType string

const (
	TaskCreated   TaskEventType = "created"
	TaskUpdated   TaskEventType = "updated"
	TaskCompleted TaskEventType = "completed"
	TaskFailed    TaskEventType = "failed"
	TaskRemoved   TaskEventType = "removed"
)

// TaskEvent is one registry state change, fanned out to subscribers.
type TaskEvent struct {
	Type TaskEventType `json:"type"`
	Task model.Task    `json:"task"`
	At   time.Time     `json:"at"`
}

// TaskRegistry is the single writable surface for tracked-task state: a
// reducer with a closed set of named transitions plus clone-on-read
// accessors. All transitions are synchronous; mutation happens nowhere
// else. Reads return copies that callers may not write back.
type TaskRegistry interface {
	// Create inserts a fresh queued record and prunes terminal records of
	// other tasks (the superseded foreground slot). Running records are
	// never pruned.
	Create(taskID, sourceURL string) model.Task

	// Apply merges one stream event into its task's record. It is a no-op
	// for unknown task IDs and for records already terminal, and reports
	// whether the record changed. Progress never decreases; optional
	// fields only overwrite when the event carries them; terminal phases
	// are reserved for MarkCompleted/MarkFailed.
	Apply(ev model.ProgressEvent) (model.Task, bool)

	// MarkCompleted finalizes the record at progress 100 and appends the
	// ID to the recently-completed log. The record is kept, not deleted.
	MarkCompleted(taskID string) (model.Task, bool)

	// MarkFailed finalizes the record with an error message. Kept as well.
	MarkFailed(taskID, message string) (model.Task, bool)

	// Remove deletes the record unconditionally (explicit user dismissal).
	// The recently-completed log is not touched.
	Remove(taskID string) bool

	// ClearCompletedLog empties the recently-completed log only.
	ClearCompletedLog()

	Get(taskID string) (model.Task, bool)
	List() []model.Task
	RecentlyCompleted() []string

	// Subscribe registers a buffered, lossy event channel. The returned
	// cancel must be called to release it; slow consumers drop events and
	// never block a transition.
	Subscribe() (<-chan TaskEvent, func())
}
