package analytics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"creator-analytics-client/internal/domain/model"
)

// sseServer streams the given frames and then closes the connection.
func sseServer(t *testing.T, frames []string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-123" {
			t.Errorf("stream opened without credential, got %q", got)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		fl, ok := w.(http.Flusher)
		if !ok {
			t.Fatal("recorder must support flushing")
		}
		for _, f := range frames {
			fmt.Fprint(w, f)
			fl.Flush()
		}
	}))
}

func event(id string, phase model.TaskPhase, progress int) string {
	return fmt.Sprintf("data: {\"analysis_id\":%q,\"step\":%q,\"progress\":%d}\n\n", id, phase, progress)
}

func TestStreamYieldsEventsInOrder(t *testing.T) {
	t.Parallel()

	srv := sseServer(t, []string{
		event("a1", model.PhaseQueued, 0),
		": keepalive\n\n",
		event("a1", model.PhaseFetchingComments, 22),
		event("a1", model.PhaseCompleted, 100),
	})
	defer srv.Close()

	s, err := newTestClient(t, srv).OpenProgressStream(context.Background(), "a1")
	if err != nil {
		t.Fatalf("OpenProgressStream: %v", err)
	}
	defer s.Close()

	want := []model.TaskPhase{model.PhaseQueued, model.PhaseFetchingComments, model.PhaseCompleted}
	for _, phase := range want {
		ev, err := s.Next(context.Background())
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if ev.Phase != phase {
			t.Fatalf("expected phase %s, got %s", phase, ev.Phase)
		}
	}
}

func TestStreamLineFaultIsolation(t *testing.T) {
	t.Parallel()

	srv := sseServer(t, []string{
		"data: {not json at all\n\n",
		event("a1", model.PhaseConnecting, 2),
		event("a1", model.PhaseFetchingVideo, 7),
		event("a1", model.PhaseSaving, 95),
	})
	defer srv.Close()

	s, err := newTestClient(t, srv).OpenProgressStream(context.Background(), "a1")
	if err != nil {
		t.Fatalf("OpenProgressStream: %v", err)
	}
	defer s.Close()

	var got []model.TaskPhase
	for {
		ev, err := s.Next(context.Background())
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		got = append(got, ev.Phase)
	}
	want := []model.TaskPhase{model.PhaseConnecting, model.PhaseFetchingVideo, model.PhaseSaving}
	if len(got) != len(want) {
		t.Fatalf("one bad line must cost exactly that line: got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order broken at %d: got %v", i, got)
		}
	}
}

func TestStreamEOFWithoutTerminal(t *testing.T) {
	t.Parallel()

	srv := sseServer(t, []string{event("a1", model.PhaseClassifying, 60)})
	defer srv.Close()

	s, err := newTestClient(t, srv).OpenProgressStream(context.Background(), "a1")
	if err != nil {
		t.Fatalf("OpenProgressStream: %v", err)
	}
	defer s.Close()

	if _, err := s.Next(context.Background()); err != nil {
		t.Fatalf("first event: %v", err)
	}
	if _, err := s.Next(context.Background()); !errors.Is(err, io.EOF) {
		t.Fatalf("server close without terminal must yield io.EOF, got %v", err)
	}
}

func TestStreamCancellationStopsDelivery(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fl := w.(http.Flusher)
		fmt.Fprint(w, event("a1", model.PhaseQueued, 0))
		fl.Flush()
		// Hold the connection open until the client has cancelled.
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	s, err := newTestClient(t, srv).OpenProgressStream(ctx, "a1")
	if err != nil {
		t.Fatalf("OpenProgressStream: %v", err)
	}
	defer s.Close()

	if _, err := s.Next(ctx); err != nil {
		t.Fatalf("first event: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := s.Next(ctx)
		done <- err
	}()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled after cancel, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Next did not unblock after cancellation")
	}
}

func TestStreamOpenFailureSurfacesOnce(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such job", http.StatusNotFound)
	}))
	defer srv.Close()

	if _, err := newTestClient(t, srv).OpenProgressStream(context.Background(), "missing"); err == nil {
		t.Fatalf("expected a terminal error when the stream cannot be opened")
	}
}

func TestStreamFillsMissingTaskID(t *testing.T) {
	t.Parallel()

	srv := sseServer(t, []string{"data: {\"step\":\"queued\",\"progress\":0}\n\n"})
	defer srv.Close()

	s, err := newTestClient(t, srv).OpenProgressStream(context.Background(), "a9")
	if err != nil {
		t.Fatalf("OpenProgressStream: %v", err)
	}
	defer s.Close()

	ev, err := s.Next(context.Background())
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if ev.TaskID != "a9" {
		t.Fatalf("reader must stamp its task id on bare events, got %q", ev.TaskID)
	}
}
