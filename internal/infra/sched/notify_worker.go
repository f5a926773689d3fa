// File: internal/infra/sched/notify_worker.go
package sched

import (
	"context"
	"fmt"

	"creator-analytics-client/internal/domain/model"
	"creator-analytics-client/internal/domain/ports/adapter"
	"creator-analytics-client/internal/domain/ports/repository"
	"creator-analytics-client/internal/infra/metrics"
	"creator-analytics-client/internal/infra/worker"

	"github.com/rs/zerolog"
)

// NotifyWorker watches the task registry for terminal transitions and
// pushes a short out-of-band message through the configured notifier.
// Sends run on the shared pool so a slow provider never stalls the
// registry fan-out.
type NotifyWorker struct {
	registry repository.TaskRegistry
	notifier adapter.Notifier
	pool     *worker.Pool
	log      *zerolog.Logger
}

func NewNotifyWorker(registry repository.TaskRegistry, notifier adapter.Notifier, pool *worker.Pool, logger *zerolog.Logger) *NotifyWorker {
	compLog := logger.With().Str("component", "NotifyWorker").Logger()
	return &NotifyWorker{
		registry: registry,
		notifier: notifier,
		pool:     pool,
		log:      &compLog,
	}
}

// Run blocks until ctx is done, consuming registry events as they come.
func (w *NotifyWorker) Run(ctx context.Context) error {
	events, cancel := w.registry.Subscribe()
	defer cancel()
	w.log.Info().Str("provider", w.notifier.Name()).Msg("notify worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("notify worker stopping")
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			w.handle(ev)
		}
	}
}

func (w *NotifyWorker) handle(ev repository.TaskEvent) {
	if ev.Type != repository.TaskCompleted && ev.Type != repository.TaskFailed {
		return
	}
	text := messageFor(ev)
	err := w.pool.Submit(func(ctx context.Context) error {
		if err := w.notifier.Notify(ctx, text); err != nil {
			metrics.IncNotification(w.notifier.Name(), "error")
			return fmt.Errorf("notify %s: %w", ev.Task.ID, err)
		}
		metrics.IncNotification(w.notifier.Name(), "sent")
		return nil
	})
	if err != nil {
		metrics.IncNotification(w.notifier.Name(), "dropped")
		w.log.Warn().Err(err).Str("task_id", ev.Task.ID).Msg("notification dropped")
	}
}

func messageFor(ev repository.TaskEvent) string {
	title := ev.Task.VideoTitle
	if title == "" {
		title = ev.Task.SourceURL
	}
	if ev.Type == repository.TaskFailed {
		reason := ev.Task.Error
		if reason == "" {
			reason = model.PhaseFailed.Label()
		}
		return fmt.Sprintf("❌ Analysis failed: %s (%s)", title, reason)
	}
	return fmt.Sprintf("✅ Analysis complete: %s", title)
}
