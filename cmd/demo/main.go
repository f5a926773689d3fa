// File: cmd/demo/main.go
//
// End-to-end walkthrough against an embedded scripted backend: streams an
// analysis to completion, cancels a second run, restores tracking after a
// simulated restart, and replays a quota-blocked intent after an upgrade.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"creator-analytics-client/internal/domain"
	"creator-analytics-client/internal/domain/model"
	"creator-analytics-client/internal/domain/ports/adapter"
	"creator-analytics-client/internal/domain/ports/repository"
	"creator-analytics-client/internal/infra/memkv"
	"creator-analytics-client/internal/infra/registry"
	"creator-analytics-client/internal/usecase"

	"github.com/rs/zerolog"
)

// demoBackend runs analysis jobs in-process, scripting the full phase
// pipeline at a fixed cadence.
type demoBackend struct {
	mu       sync.Mutex
	nextID   int
	streams  map[string]*demoStream
	quotaOut bool // when set, StartAnalysis refuses with a quota error
	videos   int
}

func newDemoBackend() *demoBackend {
	return &demoBackend{streams: make(map[string]*demoStream), videos: 3}
}

type demoStream struct{ events chan model.ProgressEvent }

func (s *demoStream) Next(ctx context.Context) (model.ProgressEvent, error) {
	select {
	case ev, ok := <-s.events:
		if !ok {
			return model.ProgressEvent{}, io.EOF
		}
		return ev, nil
	case <-ctx.Done():
		return model.ProgressEvent{}, ctx.Err()
	}
}

func (s *demoStream) Close() error { return nil }

func (b *demoBackend) StartAnalysis(ctx context.Context, sourceURL string, maxComments int) (adapter.StartResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.quotaOut {
		return adapter.StartResult{}, &model.QuotaError{
			Kind:            model.LimitVideos,
			Current:         b.videos,
			Limit:           b.videos,
			Remaining:       0,
			Message:         "monthly video quota exceeded",
			UpgradeRequired: true,
		}
	}
	b.nextID++
	id := fmt.Sprintf("demo-task-%d", b.nextID)
	stream := &demoStream{events: make(chan model.ProgressEvent, 32)}
	b.streams[id] = stream
	go b.runPipeline(id, stream)
	return adapter.StartResult{TaskID: id, Status: "started"}, nil
}

func (b *demoBackend) runPipeline(id string, stream *demoStream) {
	phases := []model.TaskPhase{
		model.PhaseConnecting, model.PhaseFetchingVideo, model.PhaseFetchingComments,
		model.PhaseAnalyzingSentiment, model.PhaseClassifying,
		model.PhaseExtractingInsights, model.PhaseGeneratingSummary, model.PhaseSaving,
	}
	title := "Demo Video: Go Concurrency Patterns"
	for i, p := range phases {
		time.Sleep(150 * time.Millisecond)
		ev := model.ProgressEvent{
			TaskID:   id,
			Status:   "processing",
			Phase:    p,
			Progress: (i + 1) * 100 / (len(phases) + 1),
		}
		if p == model.PhaseFetchingVideo {
			ev.VideoTitle = &title
		}
		stream.events <- ev
	}
	time.Sleep(150 * time.Millisecond)
	stream.events <- model.ProgressEvent{TaskID: id, Status: "completed", Phase: model.PhaseCompleted, Progress: 100}
	close(stream.events)
}

func (b *demoBackend) OpenProgressStream(ctx context.Context, taskID string) (adapter.EventStream, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.streams[taskID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return s, nil
}

func (b *demoBackend) JobStatus(ctx context.Context, taskID string) (model.ProgressEvent, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.streams[taskID]; !ok {
		return model.ProgressEvent{}, domain.ErrNotFound
	}
	return model.ProgressEvent{TaskID: taskID, Status: "processing", Phase: model.PhaseAnalyzingSentiment, Progress: 55}, nil
}

func (b *demoBackend) Result(ctx context.Context, taskID string) (model.AnalysisResult, error) {
	return model.AnalysisResult{ID: taskID, Summary: "Viewers loved the pacing; several asked for a follow-up."}, nil
}

func (b *demoBackend) CancelAnalysis(ctx context.Context, taskID string) error { return nil }

func (b *demoBackend) Usage(ctx context.Context) (model.UsageReport, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	remaining := 0
	if !b.quotaOut {
		remaining = b.videos
	}
	return model.UsageReport{
		VideosUsed: b.videos, VideosLimit: b.videos, VideosRemaining: remaining,
		PlanID: "free", PlanName: "Free", FetchedAt: time.Now(),
	}, nil
}

func (b *demoBackend) Plans(ctx context.Context) ([]model.Plan, error) {
	return []model.Plan{{ID: "pro", Name: "Pro"}}, nil
}

func (b *demoBackend) Checkout(ctx context.Context, planID string, cycle model.BillingCycle) (model.CheckoutSession, error) {
	return model.CheckoutSession{CheckoutURL: "https://pay.example/demo", TransactionID: "demo-txn", PlanID: planID}, nil
}

func (b *demoBackend) Ask(ctx context.Context, q model.Question) (model.Answer, error) {
	return model.Answer{ConversationID: "demo-conv", Text: "The top theme is pacing."}, nil
}

func (b *demoBackend) Conversation(ctx context.Context, id string) (model.Conversation, error) {
	return model.Conversation{ID: id}, nil
}

func (b *demoBackend) setQuotaOut(v bool) {
	b.mu.Lock()
	b.quotaOut = v
	b.mu.Unlock()
}

// newStack wires a fresh client core over a shared backend and session
// store, the way a process start would.
func newStack(backend adapter.AnalyticsBackend, store repository.SessionStore, logger *zerolog.Logger) (usecase.TrackerUseCase, usecase.ResumeUseCase) {
	reg := registry.New(logger)
	cont := usecase.NewContinuityUseCase(store, 24*time.Hour, logger)
	billing := usecase.NewBillingUseCase(backend, logger)
	resume := usecase.NewResumeUseCase(store, billing, logger)
	tracker := usecase.NewTrackerUseCase(backend, reg, cont, resume, 100, logger)
	return tracker, resume
}

func watch(tracker usecase.TrackerUseCase, taskID string) {
	events, cancel := tracker.Subscribe()
	defer cancel()
	for ev := range events {
		if ev.Task.ID != taskID {
			continue
		}
		fmt.Printf("  [%s] %-20s %3d%%  %s\n", ev.Type, ev.Task.Phase, ev.Task.Progress, ev.Task.Message)
		if ev.Task.Phase.Terminal() {
			return
		}
	}
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(zerolog.WarnLevel).With().Timestamp().Logger()
	ctx := context.Background()

	backend := newDemoBackend()
	store := memkv.New()

	// --- 1. Start an analysis and stream it to completion ---------------
	fmt.Println("== 1. analysis runs to completion ==")
	tracker, _ := newStack(backend, store, &logger)
	task, err := tracker.StartAnalysis(ctx, "https://youtu.be/demo1")
	if err != nil {
		fatalf("start: %v", err)
	}
	watch(tracker, task.ID)

	// --- 2. Cancellation stops delivery ---------------------------------
	fmt.Println("== 2. cancellation ==")
	task2, err := tracker.StartAnalysis(ctx, "https://youtu.be/demo2")
	if err != nil {
		fatalf("start: %v", err)
	}
	time.Sleep(400 * time.Millisecond)
	if err := tracker.CancelAnalysis(ctx, task2.ID); err != nil {
		fatalf("cancel: %v", err)
	}
	got, _ := tracker.Task(task2.ID)
	fmt.Printf("  after cancel: phase=%s progress=%d (record kept until dismissed)\n", got.Phase, got.Progress)
	if err := tracker.DismissAnalysis(ctx, task2.ID); err != nil {
		fatalf("dismiss: %v", err)
	}

	// --- 3. Restore after a simulated restart ---------------------------
	fmt.Println("== 3. restore after restart ==")
	task3, err := tracker.StartAnalysis(ctx, "https://youtu.be/demo3")
	if err != nil {
		fatalf("start: %v", err)
	}
	time.Sleep(300 * time.Millisecond)
	tracker.Close() // the old process dies; the session store survives

	tracker2, resume2 := newStack(backend, store, &logger)
	restored, ok, err := tracker2.RestoreActiveAnalysis(ctx)
	if err != nil || !ok {
		fatalf("restore: ok=%v err=%v", ok, err)
	}
	fmt.Printf("  restored %s at phase=%s progress=%d%%\n", restored.ID, restored.Phase, restored.Progress)
	watch(tracker2, task3.ID)

	// --- 4. Quota hit defers the intent; upgrade replays it -------------
	fmt.Println("== 4. deferred action replay ==")
	backend.setQuotaOut(true)
	if _, err := tracker2.StartAnalysis(ctx, "https://youtu.be/demo4"); err != nil {
		fmt.Printf("  blocked: %v\n", err)
	}
	if _, ok, _ := resume2.ClaimIfUnblocked(ctx); ok {
		fatalf("unexpected claim while quota is out")
	}
	fmt.Println("  intent parked; simulating upgrade...")
	backend.setQuotaOut(false)

	// A real return-from-checkout invalidates the usage cache and the
	// view mounts fresh; model that with a fresh stack over the same store.
	_, resume3 := newStack(backend, store, &logger)
	action, ok, err := resume3.ClaimIfUnblocked(ctx)
	if err != nil || !ok {
		fatalf("claim: ok=%v err=%v", ok, err)
	}
	fmt.Printf("  replaying %s for %s\n", action.Kind, action.Payload.SourceURL)
	task5, err := tracker2.StartAnalysis(ctx, action.Payload.SourceURL)
	if err != nil {
		fatalf("replay: %v", err)
	}
	watch(tracker2, task5.ID)

	tracker2.Close()
	fmt.Println("done")
}
