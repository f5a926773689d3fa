// File: internal/usecase/tracker_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"creator-analytics-client/internal/domain"
	"creator-analytics-client/internal/domain/model"
	"creator-analytics-client/internal/domain/ports/adapter"
	"creator-analytics-client/internal/domain/ports/repository"
	derror "creator-analytics-client/internal/error"
	"creator-analytics-client/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ TrackerUseCase = (*trackerUC)(nil)

// TrackerUseCase owns the lifecycle of analysis tasks. It starts jobs on
// the backend, consumes each job's progress stream on a background
// goroutine whose lifetime is independent of any view, and folds every
// event into the task registry. Views render registry state and may come
// and go freely; a running stream keeps running until its terminal event,
// a local cancel, or Close.
type TrackerUseCase interface {
	StartAnalysis(ctx context.Context, sourceURL string) (model.Task, error)
	CancelAnalysis(ctx context.Context, taskID string) error
	DismissAnalysis(ctx context.Context, taskID string) error
	RestoreActiveAnalysis(ctx context.Context) (model.Task, bool, error)

	Task(taskID string) (model.Task, bool)
	Tasks() []model.Task
	IsRunning(taskID string) bool
	Subscribe() (<-chan repository.TaskEvent, func())
	DrainRecentlyCompleted() []string

	Close()
}

const cancelCallTimeout = 5 * time.Second

type trackerUC struct {
	backend     adapter.AnalyticsBackend
	registry    repository.TaskRegistry
	continuity  ContinuityUseCase
	resume      ResumeUseCase
	maxComments int
	log         *zerolog.Logger

	// ownerCtx bounds every consume goroutine; it is cancelled only by
	// Close, never by the caller contexts views pass in.
	ownerCtx    context.Context
	ownerCancel context.CancelFunc
	wg          sync.WaitGroup

	mu      sync.Mutex
	handles map[string]context.CancelFunc
}

func NewTrackerUseCase(
	backend adapter.AnalyticsBackend,
	registry repository.TaskRegistry,
	continuity ContinuityUseCase,
	resume ResumeUseCase,
	maxComments int,
	logger *zerolog.Logger,
) *trackerUC {
	if maxComments <= 0 {
		maxComments = 500
	}
	ctx, cancel := context.WithCancel(context.Background())
	compLog := logger.With().Str("component", "TrackerUC").Logger()
	return &trackerUC{
		backend:     backend,
		registry:    registry,
		continuity:  continuity,
		resume:      resume,
		maxComments: maxComments,
		log:         &compLog,
		ownerCtx:    ctx,
		ownerCancel: cancel,
		handles:     make(map[string]context.CancelFunc),
	}
}

// StartAnalysis submits a new job and begins consuming its progress
// stream in the background. Submitting a URL that already has a
// non-terminal task is a no-op returning the existing record, so a
// double-click cannot spend quota twice. A quota refusal parks the
// intent as a deferred action before the error is returned.
func (u *trackerUC) StartAnalysis(ctx context.Context, sourceURL string) (model.Task, error) {
	if sourceURL == "" {
		return model.Task{}, fmt.Errorf("%w: source url empty", domain.ErrInvalidArgument)
	}
	for _, t := range u.registry.List() {
		if t.SourceURL == sourceURL && !t.Phase.Terminal() {
			u.log.Debug().Str("task_id", t.ID).Msg("duplicate submit for running task")
			return t, nil
		}
	}

	res, err := u.backend.StartAnalysis(ctx, sourceURL, u.maxComments)
	if err != nil {
		var qe *model.QuotaError
		if errors.As(err, &qe) && u.resume != nil {
			if _, dErr := u.resume.Defer(ctx, model.DeferredAction{
				Kind:    model.ActionRunAnalysis,
				Limit:   qe.Kind,
				Payload: model.ActionPayload{SourceURL: sourceURL},
			}); dErr != nil {
				u.log.Warn().Err(dErr).Msg("could not defer blocked analysis")
			}
		}
		return model.Task{}, err
	}

	task := u.registry.Create(res.TaskID, sourceURL)
	metrics.IncTaskStarted()

	if u.continuity != nil {
		if err := u.continuity.Capture(ctx, model.ContinuitySnapshot{
			Kind:          model.SnapshotActiveAnalysis,
			SubjectID:     res.TaskID,
			CorrelationID: sourceURL,
		}); err != nil {
			u.log.Warn().Err(err).Msg("snapshot capture failed")
		}
	}

	u.attach(res.TaskID)
	u.log.Info().Str("task_id", res.TaskID).Str("source_url", sourceURL).Msg("analysis started")
	return task, nil
}

// attach spawns the background consume loop for a task. The loop's
// context descends from ownerCtx, not from any request context.
func (u *trackerUC) attach(taskID string) {
	u.mu.Lock()
	if _, ok := u.handles[taskID]; ok {
		u.mu.Unlock()
		return
	}
	taskCtx, cancel := context.WithCancel(u.ownerCtx)
	u.handles[taskID] = cancel
	u.mu.Unlock()

	u.wg.Add(1)
	go func() {
		defer u.wg.Done()
		defer u.detach(taskID)
		u.consume(taskCtx, taskID)
	}()
}

func (u *trackerUC) detach(taskID string) {
	u.mu.Lock()
	if cancel, ok := u.handles[taskID]; ok {
		cancel()
		delete(u.handles, taskID)
	}
	u.mu.Unlock()
}

// consume reads the progress stream until a terminal event, a stream
// fault, or a local cancel. A local cancel exits without touching the
// record; the canceller is responsible for its final state.
func (u *trackerUC) consume(ctx context.Context, taskID string) {
	stream, err := u.backend.OpenProgressStream(ctx, taskID)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		u.log.Error().Err(err).Str("task_id", taskID).Msg("progress stream open failed")
		u.registry.MarkFailed(taskID, "connection lost")
		metrics.IncTaskFinished("failed")
		return
	}
	defer stream.Close()

	for {
		ev, err := stream.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if errors.Is(err, io.EOF) {
				u.log.Warn().Str("task_id", taskID).Msg("stream closed before terminal event")
			} else {
				u.log.Error().Err(err).Str("task_id", taskID).Msg("stream read failed")
			}
			u.registry.MarkFailed(taskID, "connection lost")
			metrics.IncTaskFinished("failed")
			return
		}

		// A buffered event can win the select against the cancel signal;
		// re-check before folding it in so a cancel is a hard stop.
		if ctx.Err() != nil {
			return
		}
		u.registry.Apply(ev)

		if ev.Terminal() {
			if ev.Phase == model.PhaseFailed {
				u.registry.MarkFailed(taskID, ev.ErrorMessage())
				metrics.IncTaskFinished("failed")
			} else {
				u.registry.MarkCompleted(taskID)
				metrics.IncTaskFinished("completed")
			}
			u.log.Info().Str("task_id", taskID).Str("phase", string(ev.Phase)).Msg("analysis finished")
			return
		}
	}
}

// CancelAnalysis stops local consumption first, then tells the backend
// on a best-effort basis. Events already in flight are never delivered
// after the local cancel takes effect. The visible record is left as it
// was; callers that want it gone pair this with DismissAnalysis.
func (u *trackerUC) CancelAnalysis(ctx context.Context, taskID string) error {
	u.mu.Lock()
	cancel, ok := u.handles[taskID]
	u.mu.Unlock()
	if !ok {
		return derror.ErrTaskNotRunning
	}
	cancel()
	metrics.IncTaskCancelled()

	callCtx, done := context.WithTimeout(context.WithoutCancel(ctx), cancelCallTimeout)
	defer done()
	if err := u.backend.CancelAnalysis(callCtx, taskID); err != nil {
		// The local task is already stopped; the backend reaping the
		// orphaned job on its own is acceptable.
		u.log.Warn().Err(err).Str("task_id", taskID).Msg("backend cancel failed")
	}
	u.log.Info().Str("task_id", taskID).Msg("analysis cancelled")
	return nil
}

// DismissAnalysis drops the task record on explicit user dismissal. A
// still-running stream is cancelled first. The continuity snapshot is
// cleared when it points at the dismissed task.
func (u *trackerUC) DismissAnalysis(ctx context.Context, taskID string) error {
	u.mu.Lock()
	if cancel, ok := u.handles[taskID]; ok {
		cancel()
	}
	u.mu.Unlock()

	if !u.registry.Remove(taskID) {
		return domain.ErrNotFound
	}
	if u.continuity != nil {
		if snap, ok, _ := u.continuity.Restore(ctx, model.SnapshotActiveAnalysis); ok && snap.SubjectID == taskID {
			_ = u.continuity.Clear(ctx, model.SnapshotActiveAnalysis)
		}
	}
	return nil
}

// RestoreActiveAnalysis rebuilds tracking after a reload. A live registry
// record wins; otherwise the backend is asked for the job's current
// state, and a vanished job clears the snapshot so the next mount is
// clean. Restoring an already-tracked task is idempotent.
func (u *trackerUC) RestoreActiveAnalysis(ctx context.Context) (model.Task, bool, error) {
	if u.continuity == nil {
		return model.Task{}, false, nil
	}
	snap, ok, err := u.continuity.Restore(ctx, model.SnapshotActiveAnalysis)
	if err != nil {
		return model.Task{}, false, err
	}
	if !ok {
		return model.Task{}, false, nil
	}
	taskID := snap.SubjectID

	if t, ok := u.registry.Get(taskID); ok {
		if !t.Phase.Terminal() {
			u.attach(taskID)
		}
		return t, true, nil
	}

	ev, err := u.backend.JobStatus(ctx, taskID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			_ = u.continuity.Clear(ctx, model.SnapshotActiveAnalysis)
			return model.Task{}, false, nil
		}
		return model.Task{}, false, err
	}

	u.registry.Create(taskID, snap.CorrelationID)
	u.registry.Apply(ev)
	if ev.Terminal() {
		if ev.Phase == model.PhaseFailed {
			u.registry.MarkFailed(taskID, ev.ErrorMessage())
		} else {
			u.registry.MarkCompleted(taskID)
		}
	} else {
		u.attach(taskID)
	}

	t, _ := u.registry.Get(taskID)
	u.log.Info().Str("task_id", taskID).Str("phase", string(t.Phase)).Msg("analysis restored")
	return t, true, nil
}

func (u *trackerUC) Task(taskID string) (model.Task, bool) { return u.registry.Get(taskID) }

func (u *trackerUC) Tasks() []model.Task { return u.registry.List() }

func (u *trackerUC) IsRunning(taskID string) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	_, ok := u.handles[taskID]
	return ok
}

func (u *trackerUC) Subscribe() (<-chan repository.TaskEvent, func()) {
	return u.registry.Subscribe()
}

// DrainRecentlyCompleted returns the IDs of tasks that reached completed
// since the last drain and clears the log, so each completion is
// surfaced to a view at most once.
func (u *trackerUC) DrainRecentlyCompleted() []string {
	ids := u.registry.RecentlyCompleted()
	if len(ids) > 0 {
		u.registry.ClearCompletedLog()
	}
	return ids
}

// Close cancels every consume loop and waits for them to drain.
func (u *trackerUC) Close() {
	u.ownerCancel()
	u.wg.Wait()
}
