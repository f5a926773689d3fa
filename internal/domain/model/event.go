package model

import "time"

// ProgressEvent is one decoded frame of the backend progress stream.
// Wire names follow the backend's progress payload: the coarse job status
// travels as "status", the pipeline phase as "step". Optional fields are
// pointers so that absence is distinguishable from a zero value; the
// registry must never overwrite a known value with absence.
type ProgressEvent struct {
	TaskID          string     `json:"analysis_id"`
	Status          string     `json:"status,omitempty"` // processing | completed | failed
	Phase           TaskPhase  `json:"step"`
	Message         *string    `json:"step_label,omitempty"`
	Progress        int        `json:"progress"`
	CommentsFetched *int       `json:"comments_fetched,omitempty"`
	TotalComments   *int       `json:"total_comments,omitempty"`
	VideoID         *string    `json:"video_id,omitempty"`
	VideoTitle      *string    `json:"video_title,omitempty"`
	VideoThumbnail  *string    `json:"video_thumbnail,omitempty"`
	Error           *string    `json:"error,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

// Terminal reports whether this event ends the stream for its task.
func (e ProgressEvent) Terminal() bool { return e.Phase.Terminal() }

// ErrorMessage returns the carried error text, or a fallback when the
// backend marked the task failed without a message.
func (e ProgressEvent) ErrorMessage() string {
	if e.Error != nil && *e.Error != "" {
		return *e.Error
	}
	return PhaseFailed.Label()
}
