package model

import "time"

// ActionKind names a user intent that can be deferred past a quota hit.
type ActionKind string

const (
	ActionRunAnalysis ActionKind = "run_analysis"
	ActionAskQuestion ActionKind = "ask_question"
)

// ActionPayload carries the kind-specific inputs needed to replay the
// blocked intent.
type ActionPayload struct {
	SourceURL      string `json:"source_url,omitempty"`
	VideoID        string `json:"video_id,omitempty"`
	Question       string `json:"question,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// DeferredAction is a user intent refused by a usage limit, stored for
// replay once the limit lifts. At most one is pending at a time; a new
// deferral overwrites the old.
type DeferredAction struct {
	ID         string        `json:"id"`
	Kind       ActionKind    `json:"kind"`
	Limit      LimitKind     `json:"limit"`
	Payload    ActionPayload `json:"payload"`
	DeferredAt time.Time     `json:"deferred_at"`
}
