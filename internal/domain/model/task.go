package model

import "time"

// TaskPhase is the lifecycle phase of an analysis task as reported by the
// backend progress pipeline. Phases advance in rank order; completed and
// failed are terminal.
type TaskPhase string

const (
	PhaseQueued             TaskPhase = "queued"
	PhaseConnecting         TaskPhase = "connecting"
	PhaseFetchingVideo      TaskPhase = "fetching_video"
	PhaseFetchingComments   TaskPhase = "fetching_comments"
	PhaseAnalyzingSentiment TaskPhase = "analyzing_sentiment"
	PhaseClassifying        TaskPhase = "classifying"
	PhaseExtractingInsights TaskPhase = "extracting_insights"
	PhaseGeneratingSummary  TaskPhase = "generating_summary"
	PhaseSaving             TaskPhase = "saving"
	PhaseCompleted          TaskPhase = "completed"
	PhaseFailed             TaskPhase = "failed"
)

var phaseRank = map[TaskPhase]int{
	PhaseQueued:             0,
	PhaseConnecting:         1,
	PhaseFetchingVideo:      2,
	PhaseFetchingComments:   3,
	PhaseAnalyzingSentiment: 4,
	PhaseClassifying:        5,
	PhaseExtractingInsights: 6,
	PhaseGeneratingSummary:  7,
	PhaseSaving:             8,
	PhaseCompleted:          9,
	PhaseFailed:             9,
}

// Fallback labels for events that carry no step_label of their own.
var phaseLabel = map[TaskPhase]string{
	PhaseQueued:             "Queued",
	PhaseConnecting:         "Connecting to YouTube",
	PhaseFetchingVideo:      "Fetching video metadata",
	PhaseFetchingComments:   "Selecting quality comments",
	PhaseAnalyzingSentiment: "Analyzing sentiment",
	PhaseClassifying:        "Categorizing comments",
	PhaseExtractingInsights: "Extracting insights",
	PhaseGeneratingSummary:  "Generating summary",
	PhaseSaving:             "Saving results",
	PhaseCompleted:          "Analysis complete",
	PhaseFailed:             "Analysis failed",
}

func (p TaskPhase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseFailed
}

func (p TaskPhase) Known() bool {
	_, ok := phaseRank[p]
	return ok
}

// Rank returns the position of the phase in the pipeline, -1 for unknown
// phases. Both terminal phases share the highest rank.
func (p TaskPhase) Rank() int {
	r, ok := phaseRank[p]
	if !ok {
		return -1
	}
	return r
}

// Label returns the human-readable fallback label for the phase.
func (p TaskPhase) Label() string {
	if l, ok := phaseLabel[p]; ok {
		return l
	}
	return string(p)
}

// Task is one tracked analysis job: the registry record views render from.
type Task struct {
	ID              string     `json:"id"`
	SourceURL       string     `json:"source_url"`
	Phase           TaskPhase  `json:"phase"`
	Progress        int        `json:"progress"`
	Message         string     `json:"message,omitempty"`
	CommentsFetched int        `json:"comments_fetched,omitempty"`
	TotalComments   int        `json:"total_comments,omitempty"`
	VideoID         string     `json:"video_id,omitempty"`
	VideoTitle      string     `json:"video_title,omitempty"`
	VideoThumbnail  string     `json:"video_thumbnail,omitempty"`
	Error           string     `json:"error,omitempty"`
	StartedAt       time.Time  `json:"started_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

func NewTask(id, sourceURL string) *Task {
	now := time.Now()
	return &Task{
		ID:        id,
		SourceURL: sourceURL,
		Phase:     PhaseQueued,
		Message:   PhaseQueued.Label(),
		StartedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a copy safe to hand outside the registry.
func (t *Task) Clone() Task {
	c := *t
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		c.CompletedAt = &at
	}
	return c
}
