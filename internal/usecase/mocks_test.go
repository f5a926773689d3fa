//go:build !integration

package usecase

import (
	"context"
	"io"
	"sync"

	"creator-analytics-client/internal/domain"
	"creator-analytics-client/internal/domain/model"
	"creator-analytics-client/internal/domain/ports/adapter"

	"github.com/rs/zerolog"
)

func testLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// --- Backend fake ------------------------------------------------------

// fakeBackend scripts the remote job runner per test via function fields.
// Unset fields return zero values.
type fakeBackend struct {
	mu sync.Mutex

	startFn    func(ctx context.Context, sourceURL string, maxComments int) (adapter.StartResult, error)
	streamFn   func(ctx context.Context, taskID string) (adapter.EventStream, error)
	statusFn   func(ctx context.Context, taskID string) (model.ProgressEvent, error)
	usageFn    func(ctx context.Context) (model.UsageReport, error)
	askFn      func(ctx context.Context, q model.Question) (model.Answer, error)
	convFn     func(ctx context.Context, id string) (model.Conversation, error)
	checkoutFn func(ctx context.Context, planID string, cycle model.BillingCycle) (model.CheckoutSession, error)

	startCalls  int
	usageCalls  int
	cancelCalls []string
}

func (f *fakeBackend) StartAnalysis(ctx context.Context, sourceURL string, maxComments int) (adapter.StartResult, error) {
	f.mu.Lock()
	f.startCalls++
	fn := f.startFn
	f.mu.Unlock()
	if fn == nil {
		return adapter.StartResult{TaskID: "task-1", Status: "started"}, nil
	}
	return fn(ctx, sourceURL, maxComments)
}

func (f *fakeBackend) OpenProgressStream(ctx context.Context, taskID string) (adapter.EventStream, error) {
	if f.streamFn == nil {
		return newScriptedStream(), nil
	}
	return f.streamFn(ctx, taskID)
}

func (f *fakeBackend) JobStatus(ctx context.Context, taskID string) (model.ProgressEvent, error) {
	if f.statusFn == nil {
		return model.ProgressEvent{}, domain.ErrNotFound
	}
	return f.statusFn(ctx, taskID)
}

func (f *fakeBackend) Result(ctx context.Context, taskID string) (model.AnalysisResult, error) {
	return model.AnalysisResult{}, nil
}

func (f *fakeBackend) CancelAnalysis(ctx context.Context, taskID string) error {
	f.mu.Lock()
	f.cancelCalls = append(f.cancelCalls, taskID)
	f.mu.Unlock()
	return nil
}

func (f *fakeBackend) Usage(ctx context.Context) (model.UsageReport, error) {
	f.mu.Lock()
	f.usageCalls++
	fn := f.usageFn
	f.mu.Unlock()
	if fn == nil {
		return model.UsageReport{VideosRemaining: 10, QuestionsRemaining: 10}, nil
	}
	return fn(ctx)
}

func (f *fakeBackend) Plans(ctx context.Context) ([]model.Plan, error) { return nil, nil }

func (f *fakeBackend) Checkout(ctx context.Context, planID string, cycle model.BillingCycle) (model.CheckoutSession, error) {
	if f.checkoutFn == nil {
		return model.CheckoutSession{CheckoutURL: "https://pay.example/x", TransactionID: "txn-1", PlanID: planID}, nil
	}
	return f.checkoutFn(ctx, planID, cycle)
}

func (f *fakeBackend) Ask(ctx context.Context, q model.Question) (model.Answer, error) {
	if f.askFn == nil {
		return model.Answer{ConversationID: "conv-1", Text: "answer"}, nil
	}
	return f.askFn(ctx, q)
}

func (f *fakeBackend) Conversation(ctx context.Context, id string) (model.Conversation, error) {
	if f.convFn == nil {
		return model.Conversation{ID: id}, nil
	}
	return f.convFn(ctx, id)
}

func (f *fakeBackend) startCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.startCalls
}

func (f *fakeBackend) cancelled() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.cancelCalls...)
}

// --- Event stream fake -------------------------------------------------

// scriptedStream feeds events from a channel; closing the script ends the
// stream with io.EOF, like a server hangup.
type scriptedStream struct {
	events chan model.ProgressEvent

	mu        sync.Mutex
	closed    bool
	closeNote chan struct{}
}

func newScriptedStream() *scriptedStream {
	return &scriptedStream{
		events:    make(chan model.ProgressEvent, 16),
		closeNote: make(chan struct{}),
	}
}

func (s *scriptedStream) push(ev model.ProgressEvent) { s.events <- ev }

func (s *scriptedStream) finish() { close(s.events) }

func (s *scriptedStream) Next(ctx context.Context) (model.ProgressEvent, error) {
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

func (s *scriptedStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.closeNote)
	}
	return nil
}

// --- Session store fake ------------------------------------------------

// memStore is a map-backed SessionStore for tests.
type memStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemStore() *memStore { return &memStore{data: make(map[string][]byte)} }

func (m *memStore) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *memStore) Set(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *memStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}
