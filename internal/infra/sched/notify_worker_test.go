//go:build !integration

package sched

import (
	"context"
	"sync"
	"testing"
	"time"

	"creator-analytics-client/internal/domain/model"
	"creator-analytics-client/internal/infra/registry"
	"creator-analytics-client/internal/infra/worker"

	"github.com/rs/zerolog"
)

type captureNotifier struct {
	mu    sync.Mutex
	texts []string
}

func (c *captureNotifier) Name() string { return "capture" }

func (c *captureNotifier) Notify(ctx context.Context, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.texts = append(c.texts, text)
	return nil
}

func (c *captureNotifier) sent() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.texts...)
}

func TestNotifyWorkerSendsOnTerminalOnly(t *testing.T) {
	t.Parallel()

	logger := zerolog.Nop()
	reg := registry.New(&logger)
	notifier := &captureNotifier{}
	pool := worker.NewPool(2, &logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)
	defer pool.Stop()

	w := NewNotifyWorker(reg, notifier, pool, &logger)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()

	reg.Create("task-1", "https://youtu.be/abc")
	title := "My Video"
	reg.Apply(model.ProgressEvent{TaskID: "task-1", Phase: model.PhaseSaving, Progress: 90, VideoTitle: &title})
	reg.MarkCompleted("task-1")

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(notifier.sent()) > 0 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	got := notifier.sent()
	if len(got) != 1 {
		t.Fatalf("expected exactly one notification, got %v", got)
	}
	if got[0] != "✅ Analysis complete: My Video" {
		t.Fatalf("notification text = %q", got[0])
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("worker did not stop on cancel")
	}
}

func TestNotifyWorkerFailureMessage(t *testing.T) {
	t.Parallel()

	logger := zerolog.Nop()
	reg := registry.New(&logger)
	notifier := &captureNotifier{}
	pool := worker.NewPool(1, &logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)
	defer pool.Stop()

	w := NewNotifyWorker(reg, notifier, pool, &logger)
	go func() { _ = w.Run(ctx) }()

	reg.Create("task-2", "https://youtu.be/xyz")
	reg.MarkFailed("task-2", "video is private")

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(notifier.sent()) > 0 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	got := notifier.sent()
	if len(got) != 1 {
		t.Fatalf("expected one notification, got %v", got)
	}
	want := "❌ Analysis failed: https://youtu.be/xyz (video is private)"
	if got[0] != want {
		t.Fatalf("notification text = %q, want %q", got[0], want)
	}
}
