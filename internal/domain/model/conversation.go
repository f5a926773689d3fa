package model

import "time"

// Question is one user question about an analyzed video, optionally
// continuing an existing conversation.
type Question struct {
	VideoID        string `json:"video_id"`
	AnalysisID     string `json:"analysis_id,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
	Text           string `json:"question"`
}

// Answer is the backend's reply to a Question.
type Answer struct {
	ConversationID string    `json:"conversation_id"`
	MessageID      string    `json:"message_id"`
	Text           string    `json:"answer"`
	CreatedAt      time.Time `json:"created_at"`
}

type ConversationMessage struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"` // user | assistant
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Conversation is the authoritative message history for one Q&A thread.
type Conversation struct {
	ID        string                `json:"id"`
	VideoID   string                `json:"video_id"`
	Messages  []ConversationMessage `json:"messages"`
	UpdatedAt time.Time             `json:"updated_at"`
}
