//go:build !integration

package application

import (
	"context"
	"testing"

	"creator-analytics-client/internal/domain"
	"creator-analytics-client/internal/domain/model"
	"creator-analytics-client/internal/domain/ports/repository"

	"github.com/rs/zerolog"
)

type stubTracker struct {
	tasks     []model.Task
	restored  *model.Task
	completed []string
}

func (s *stubTracker) StartAnalysis(ctx context.Context, sourceURL string) (model.Task, error) {
	return model.Task{}, nil
}
func (s *stubTracker) CancelAnalysis(ctx context.Context, taskID string) error  { return nil }
func (s *stubTracker) DismissAnalysis(ctx context.Context, taskID string) error { return nil }
func (s *stubTracker) RestoreActiveAnalysis(ctx context.Context) (model.Task, bool, error) {
	if s.restored == nil {
		return model.Task{}, false, nil
	}
	return *s.restored, true, nil
}
func (s *stubTracker) Task(taskID string) (model.Task, bool) { return model.Task{}, false }
func (s *stubTracker) Tasks() []model.Task                   { return s.tasks }
func (s *stubTracker) IsRunning(taskID string) bool          { return false }
func (s *stubTracker) Subscribe() (<-chan repository.TaskEvent, func()) {
	ch := make(chan repository.TaskEvent)
	return ch, func() {}
}
func (s *stubTracker) DrainRecentlyCompleted() []string {
	ids := s.completed
	s.completed = nil
	return ids
}
func (s *stubTracker) Close() {}

type stubAsk struct {
	conv *model.Conversation
}

func (s *stubAsk) Ask(ctx context.Context, q model.Question) (model.Answer, error) {
	return model.Answer{}, nil
}
func (s *stubAsk) Conversation(ctx context.Context, id string) (model.Conversation, error) {
	return model.Conversation{}, domain.ErrNotFound
}
func (s *stubAsk) RestoreConversation(ctx context.Context) (model.Conversation, bool, error) {
	if s.conv == nil {
		return model.Conversation{}, false, nil
	}
	return *s.conv, true, nil
}

type stubBilling struct {
	usage model.UsageReport
	err   error
}

func (s *stubBilling) Usage(ctx context.Context) (model.UsageReport, error) {
	return s.usage, s.err
}
func (s *stubBilling) InvalidateUsage()                                  {}
func (s *stubBilling) Plans(ctx context.Context) ([]model.Plan, error)   { return nil, nil }
func (s *stubBilling) Checkout(ctx context.Context, planID string, cycle model.BillingCycle) (model.CheckoutSession, error) {
	return model.CheckoutSession{}, nil
}

type stubResume struct {
	claimable *model.DeferredAction
}

func (s *stubResume) Defer(ctx context.Context, a model.DeferredAction) (model.DeferredAction, error) {
	return a, nil
}
func (s *stubResume) Pending(ctx context.Context) (model.DeferredAction, bool) {
	return model.DeferredAction{}, false
}
func (s *stubResume) ClaimIfUnblocked(ctx context.Context) (model.DeferredAction, bool, error) {
	if s.claimable == nil {
		return model.DeferredAction{}, false, nil
	}
	a := *s.claimable
	s.claimable = nil
	return a, true, nil
}
func (s *stubResume) Clear(ctx context.Context) error { return nil }

type stubCreds struct{ token string }

func (s *stubCreds) Token(ctx context.Context) (string, error) {
	if s.token == "" {
		return "", domain.ErrAuthRequired
	}
	return s.token, nil
}

func TestMountStateComposesEverything(t *testing.T) {
	t.Parallel()

	active := model.Task{ID: "task-1", Phase: model.PhaseAnalyzingSentiment, Progress: 60}
	conv := model.Conversation{ID: "conv-1"}
	action := model.DeferredAction{ID: "act-1", Kind: model.ActionRunAnalysis}

	logger := zerolog.Nop()
	f := NewClientFacade(
		&stubTracker{tasks: []model.Task{active}, restored: &active, completed: []string{"task-0"}},
		&stubAsk{conv: &conv},
		&stubBilling{usage: model.UsageReport{VideosRemaining: 2}},
		&stubResume{claimable: &action},
		nil,
		&stubCreds{},
		&logger,
	)

	state, err := f.MountState(context.Background())
	if err != nil {
		t.Fatalf("MountState: %v", err)
	}
	if state.ActiveTask == nil || state.ActiveTask.ID != "task-1" {
		t.Fatalf("active task = %+v", state.ActiveTask)
	}
	if state.Conversation == nil || state.Conversation.ID != "conv-1" {
		t.Fatalf("conversation = %+v", state.Conversation)
	}
	if state.Usage == nil || state.Usage.VideosRemaining != 2 {
		t.Fatalf("usage = %+v", state.Usage)
	}
	if state.ResumedAction == nil || state.ResumedAction.ID != "act-1" {
		t.Fatalf("resumed action = %+v", state.ResumedAction)
	}
	if len(state.Tasks) != 1 {
		t.Fatalf("task list = %+v", state.Tasks)
	}
	if len(state.JustCompleted) != 1 || state.JustCompleted[0] != "task-0" {
		t.Fatalf("just completed = %+v", state.JustCompleted)
	}
	if state.Identity != nil {
		t.Fatalf("identity should be absent without a credential")
	}
}

func TestMountStateDegradesPerPiece(t *testing.T) {
	t.Parallel()

	logger := zerolog.Nop()
	f := NewClientFacade(
		&stubTracker{},
		&stubAsk{},
		&stubBilling{err: domain.ErrUnavailable},
		&stubResume{},
		nil,
		&stubCreds{},
		&logger,
	)

	state, err := f.MountState(context.Background())
	if err != nil {
		t.Fatalf("MountState must not fail on a degraded piece: %v", err)
	}
	if state.Usage != nil || state.ActiveTask != nil || state.Conversation != nil || state.ResumedAction != nil {
		t.Fatalf("degraded mount leaked state: %+v", state)
	}
	if state.Tasks == nil {
		t.Fatalf("task list must be non-nil for JSON shape")
	}
}
