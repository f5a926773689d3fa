package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestTaskPhaseOrdering(t *testing.T) {
	t.Parallel()

	ordered := []TaskPhase{
		PhaseQueued, PhaseConnecting, PhaseFetchingVideo, PhaseFetchingComments,
		PhaseAnalyzingSentiment, PhaseClassifying, PhaseExtractingInsights,
		PhaseGeneratingSummary, PhaseSaving,
	}
	for i := 1; i < len(ordered); i++ {
		if ordered[i].Rank() <= ordered[i-1].Rank() {
			t.Fatalf("expected %s to rank above %s", ordered[i], ordered[i-1])
		}
	}
	if PhaseCompleted.Rank() != PhaseFailed.Rank() {
		t.Fatalf("terminal phases must share the highest rank")
	}
	if TaskPhase("reticulating").Known() {
		t.Fatalf("unknown phase must not be Known")
	}
	if TaskPhase("reticulating").Rank() != -1 {
		t.Fatalf("unknown phase rank should be -1")
	}
}

func TestTaskPhaseTerminal(t *testing.T) {
	t.Parallel()

	if !PhaseCompleted.Terminal() || !PhaseFailed.Terminal() {
		t.Fatalf("completed and failed must be terminal")
	}
	if PhaseSaving.Terminal() {
		t.Fatalf("saving must not be terminal")
	}
}

func TestTaskClone(t *testing.T) {
	t.Parallel()

	task := NewTask("a1", "https://youtube.com/watch?v=abc")
	done := time.Now()
	task.CompletedAt = &done

	c := task.Clone()
	c.Phase = PhaseFailed
	*c.CompletedAt = done.Add(time.Hour)

	if task.Phase == PhaseFailed {
		t.Fatalf("clone mutation leaked into original phase")
	}
	if !task.CompletedAt.Equal(done) {
		t.Fatalf("clone mutation leaked into original CompletedAt")
	}
}

func TestProgressEventDecode(t *testing.T) {
	t.Parallel()

	raw := `{"analysis_id":"a1","status":"processing","step":"fetching_comments",` +
		`"step_label":"Selecting quality comments","progress":22,` +
		`"comments_fetched":40,"total_comments":200,"video_title":"Launch day"}`

	var ev ProgressEvent
	if err := json.Unmarshal([]byte(raw), &ev); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev.TaskID != "a1" || ev.Phase != PhaseFetchingComments || ev.Progress != 22 {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if ev.CommentsFetched == nil || *ev.CommentsFetched != 40 {
		t.Fatalf("expected comments_fetched pointer 40")
	}
	if ev.VideoID != nil {
		t.Fatalf("absent video_id must decode as nil, got %v", *ev.VideoID)
	}
	if ev.Terminal() {
		t.Fatalf("fetching_comments is not terminal")
	}
}

func TestProgressEventErrorMessage(t *testing.T) {
	t.Parallel()

	msg := "comments disabled for this video"
	ev := ProgressEvent{TaskID: "a1", Phase: PhaseFailed, Error: &msg}
	if got := ev.ErrorMessage(); got != msg {
		t.Fatalf("expected carried message, got %q", got)
	}
	bare := ProgressEvent{TaskID: "a1", Phase: PhaseFailed}
	if got := bare.ErrorMessage(); got == "" {
		t.Fatalf("expected fallback message for bare failure")
	}
}

func TestClassifyQuotaResponseStructured(t *testing.T) {
	t.Parallel()

	body := `{"detail":{"error":"quota_exceeded","usage_type":"ai_questions",` +
		`"current":50,"limit":50,"remaining":0,` +
		`"message":"AI question limit reached","upgrade_required":true}}`

	q := ClassifyQuotaResponse(402, []byte(body))
	if q == nil {
		t.Fatalf("expected quota error")
	}
	if q.Kind != LimitQuestions || q.Current != 50 || !q.UpgradeRequired {
		t.Fatalf("unexpected classification: %+v", q)
	}
}

func TestClassifyQuotaResponseLegacyUpgrade(t *testing.T) {
	t.Parallel()

	body := `{"detail":{"action":"upgrade","message":"Video quota reached, please upgrade"}}`
	q := ClassifyQuotaResponse(402, []byte(body))
	if q == nil {
		t.Fatalf("expected quota error from legacy shape")
	}
	if q.Kind != LimitVideos || !q.UpgradeRequired {
		t.Fatalf("unexpected classification: %+v", q)
	}
}

func TestClassifyQuotaResponseTextFallback(t *testing.T) {
	t.Parallel()

	q := ClassifyQuotaResponse(402, []byte("monthly question limit exceeded"))
	if q == nil {
		t.Fatalf("expected heuristic quota error")
	}
	if q.Kind != LimitQuestions {
		t.Fatalf("expected question kind, got %s", q.Kind)
	}
}

func TestClassifyQuotaResponseRejectsNonQuota(t *testing.T) {
	t.Parallel()

	if q := ClassifyQuotaResponse(500, []byte("quota backend exploded")); q != nil {
		t.Fatalf("non-402 must never classify as quota, got %+v", q)
	}
	if q := ClassifyQuotaResponse(402, []byte("payment declined")); q != nil {
		t.Fatalf("unrecognizable 402 must surface as plain error, got %+v", q)
	}
}

func TestUsageReportExceeded(t *testing.T) {
	t.Parallel()

	u := UsageReport{VideosRemaining: 0, QuestionsRemaining: 3}
	if !u.Exceeded(LimitVideos) {
		t.Fatalf("zero remaining videos must read exceeded")
	}
	if u.Exceeded(LimitQuestions) {
		t.Fatalf("remaining questions must not read exceeded")
	}
	if u.Exceeded(LimitComments) {
		t.Fatalf("per-video comment cap never reads exceeded")
	}
}

func TestSnapshotStale(t *testing.T) {
	t.Parallel()

	captured := time.Now()
	s := ContinuitySnapshot{Kind: SnapshotActiveAnalysis, SubjectID: "a1", CapturedAt: captured}

	if s.Stale(captured.Add(1439*time.Minute), 24*time.Hour) {
		t.Fatalf("snapshot at 1439min must still be restorable")
	}
	if !s.Stale(captured.Add(1441*time.Minute), 24*time.Hour) {
		t.Fatalf("snapshot at 1441min must be stale")
	}
}

func TestIdentityExpired(t *testing.T) {
	t.Parallel()

	now := time.Now()
	past := now.Add(-time.Minute)
	if !(Identity{ExpiresAt: &past}).Expired(now) {
		t.Fatalf("past expiry must read expired")
	}
	if (Identity{}).Expired(now) {
		t.Fatalf("identity without expiry claim never expires")
	}
}
