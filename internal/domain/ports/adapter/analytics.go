package adapter

import (
	"context"

	"creator-analytics-client/internal/domain/model"
)

// StartResult is the backend's acknowledgement of a task-start request.
type StartResult struct {
	TaskID  string `json:"analysis_id"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// EventStream is a live per-task progress subscription. Next blocks until
// the next decoded event, the stream closes (io.EOF), or ctx is done.
// Close tears down the underlying connection; it is safe to call twice.
type EventStream interface {
	Next(ctx context.Context) (model.ProgressEvent, error)
	Close() error
}

// AnalyticsBackend is the remote job runner and result store. Every call
// carries the configured bearer credential; calls fail with
// domain.ErrAuthRequired before dialing when no credential is available.
// Quota refusals surface as *model.QuotaError.
type AnalyticsBackend interface {
	StartAnalysis(ctx context.Context, sourceURL string, maxComments int) (StartResult, error)
	OpenProgressStream(ctx context.Context, taskID string) (EventStream, error)
	JobStatus(ctx context.Context, taskID string) (model.ProgressEvent, error)
	Result(ctx context.Context, taskID string) (model.AnalysisResult, error)
	CancelAnalysis(ctx context.Context, taskID string) error

	Usage(ctx context.Context) (model.UsageReport, error)
	Plans(ctx context.Context) ([]model.Plan, error)
	Checkout(ctx context.Context, planID string, cycle model.BillingCycle) (model.CheckoutSession, error)

	Ask(ctx context.Context, q model.Question) (model.Answer, error)
	Conversation(ctx context.Context, id string) (model.Conversation, error)
}
