package model

import "time"

// SentimentBreakdown is the per-polarity share of analyzed comments.
type SentimentBreakdown struct {
	Positive float64 `json:"positive"`
	Neutral  float64 `json:"neutral"`
	Negative float64 `json:"negative"`
}

// CategoryCount is one comment category with its frequency.
type CategoryCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// AnalysisResult is the finished, stored output of an analysis task as
// served by the backend's fetch-by-id read.
type AnalysisResult struct {
	ID               string             `json:"id"`
	VideoID          string             `json:"video_id"`
	VideoTitle       string             `json:"video_title"`
	VideoThumbnail   string             `json:"video_thumbnail,omitempty"`
	CommentsAnalyzed int                `json:"comments_analyzed"`
	Sentiment        SentimentBreakdown `json:"sentiment"`
	TopCategories    []CategoryCount    `json:"top_categories"`
	KeyThemes        []string           `json:"key_themes"`
	Summary          string             `json:"summary"`
	CreatedAt        time.Time          `json:"created_at"`
}
