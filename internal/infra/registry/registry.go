// File: internal/infra/registry/registry.go
package registry

import (
	"sort"
	"sync"
	"time"

	"creator-analytics-client/internal/domain/model"
	"creator-analytics-client/internal/domain/ports/repository"

	"github.com/rs/zerolog"
)

var _ repository.TaskRegistry = (*Registry)(nil)

const subscriberBuffer = 256

// Registry is the in-memory task store behind the repository.TaskRegistry
// port. Transitions take the write lock one at a time; reads hand out
// clones; subscriber channels are buffered and drop on overflow so a slow
// view can never stall a stream consumer.
type Registry struct {
	mu sync.RWMutex

	tasks             map[string]*model.Task
	order             []string // insertion order, newest last
	recentlyCompleted []string

	subscribers map[int]chan repository.TaskEvent
	nextSubID   int

	log *zerolog.Logger
}

func New(logger *zerolog.Logger) *Registry {
	compLog := logger.With().Str("component", "TaskRegistry").Logger()
	return &Registry{
		tasks:       make(map[string]*model.Task),
		subscribers: make(map[int]chan repository.TaskEvent),
		log:         &compLog,
	}
}

func (r *Registry) Create(taskID, sourceURL string) model.Task {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Two concurrent restores can race Create for the same job; the
	// first record wins and keeps the events already applied to it.
	if existing, ok := r.tasks[taskID]; ok {
		return existing.Clone()
	}

	// The new task supersedes the foreground slot: terminal records of
	// other tasks are pruned now, not before. Running records stay.
	for id, t := range r.tasks {
		if id != taskID && t.Phase.Terminal() {
			delete(r.tasks, id)
			r.removeFromOrderLocked(id)
		}
	}

	task := model.NewTask(taskID, sourceURL)
	r.tasks[taskID] = task
	r.order = append(r.order, taskID)
	r.log.Debug().Str("task_id", taskID).Str("source", sourceURL).Msg("task created")

	r.publishLocked(repository.TaskEvent{Type: repository.TaskCreated, Task: task.Clone(), At: task.StartedAt})
	return task.Clone()
}

func (r *Registry) Apply(ev model.ProgressEvent) (model.Task, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	task, ok := r.tasks[ev.TaskID]
	if !ok {
		// A late event for an already-removed task.
		return model.Task{}, false
	}
	if task.Phase.Terminal() {
		return task.Clone(), false
	}

	if ev.Phase.Known() && !ev.Phase.Terminal() {
		task.Phase = ev.Phase
	}
	if ev.Progress > task.Progress {
		task.Progress = ev.Progress
	}
	if ev.Message != nil && *ev.Message != "" {
		task.Message = *ev.Message
	} else if ev.Phase.Known() {
		task.Message = ev.Phase.Label()
	}
	// Optional fields only overwrite when the event carries them.
	if ev.CommentsFetched != nil {
		task.CommentsFetched = *ev.CommentsFetched
	}
	if ev.TotalComments != nil {
		task.TotalComments = *ev.TotalComments
	}
	if ev.VideoID != nil && *ev.VideoID != "" {
		task.VideoID = *ev.VideoID
	}
	if ev.VideoTitle != nil && *ev.VideoTitle != "" {
		task.VideoTitle = *ev.VideoTitle
	}
	if ev.VideoThumbnail != nil && *ev.VideoThumbnail != "" {
		task.VideoThumbnail = *ev.VideoThumbnail
	}
	task.UpdatedAt = time.Now()

	r.publishLocked(repository.TaskEvent{Type: repository.TaskUpdated, Task: task.Clone(), At: task.UpdatedAt})
	return task.Clone(), true
}

func (r *Registry) MarkCompleted(taskID string) (model.Task, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	task, ok := r.tasks[taskID]
	if !ok {
		return model.Task{}, false
	}
	if task.Phase.Terminal() {
		return task.Clone(), false
	}
	now := time.Now()
	task.Phase = model.PhaseCompleted
	task.Progress = 100
	task.Message = model.PhaseCompleted.Label()
	task.UpdatedAt = now
	task.CompletedAt = &now
	r.recentlyCompleted = append(r.recentlyCompleted, taskID)
	r.log.Info().Str("task_id", taskID).Msg("task completed")

	r.publishLocked(repository.TaskEvent{Type: repository.TaskCompleted, Task: task.Clone(), At: now})
	return task.Clone(), true
}

func (r *Registry) MarkFailed(taskID, message string) (model.Task, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	task, ok := r.tasks[taskID]
	if !ok {
		return model.Task{}, false
	}
	if task.Phase.Terminal() {
		return task.Clone(), false
	}
	now := time.Now()
	task.Phase = model.PhaseFailed
	task.Error = message
	if message != "" {
		task.Message = message
	} else {
		task.Message = model.PhaseFailed.Label()
	}
	task.UpdatedAt = now
	task.CompletedAt = &now
	r.log.Warn().Str("task_id", taskID).Str("error", message).Msg("task failed")

	r.publishLocked(repository.TaskEvent{Type: repository.TaskFailed, Task: task.Clone(), At: now})
	return task.Clone(), true
}

func (r *Registry) Remove(taskID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	task, ok := r.tasks[taskID]
	if !ok {
		return false
	}
	snapshot := task.Clone()
	delete(r.tasks, taskID)
	r.removeFromOrderLocked(taskID)

	r.publishLocked(repository.TaskEvent{Type: repository.TaskRemoved, Task: snapshot, At: time.Now()})
	return true
}

func (r *Registry) ClearCompletedLog() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recentlyCompleted = nil
}

func (r *Registry) Get(taskID string) (model.Task, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	task, ok := r.tasks[taskID]
	if !ok {
		return model.Task{}, false
	}
	return task.Clone(), true
}

// List returns all records, newest start first.
func (r *Registry) List() []model.Task {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.Task, 0, len(r.tasks))
	for i := len(r.order) - 1; i >= 0; i-- {
		if t, ok := r.tasks[r.order[i]]; ok {
			out = append(out, t.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	return out
}

func (r *Registry) RecentlyCompleted() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.recentlyCompleted))
	copy(out, r.recentlyCompleted)
	return out
}

func (r *Registry) Subscribe() (<-chan repository.TaskEvent, func()) {
	ch := make(chan repository.TaskEvent, subscriberBuffer)
	r.mu.Lock()
	r.nextSubID++
	id := r.nextSubID
	r.subscribers[id] = ch
	r.mu.Unlock()

	return ch, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if c, ok := r.subscribers[id]; ok {
			delete(r.subscribers, id)
			close(c)
		}
	}
}

func (r *Registry) publishLocked(ev repository.TaskEvent) {
	for _, ch := range r.subscribers {
		select {
		case ch <- ev:
		default:
			// Lossy on purpose: a stalled consumer drops events.
		}
	}
}

func (r *Registry) removeFromOrderLocked(taskID string) {
	for i, id := range r.order {
		if id == taskID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			return
		}
	}
}
