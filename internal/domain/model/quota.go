package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// LimitKind names a metered action the backend enforces a quota on.
type LimitKind string

const (
	LimitVideos    LimitKind = "videos"
	LimitQuestions LimitKind = "ai_questions"
	LimitComments  LimitKind = "comments"
)

// UsageReport mirrors the backend usage read: consumption counters and
// limits per metered action for the current billing period.
type UsageReport struct {
	VideosUsed            int    `json:"videos_used"`
	VideosLimit           int    `json:"videos_limit"`
	VideosRemaining       int    `json:"videos_remaining"`
	QuestionsUsed         int    `json:"ai_questions_used"`
	QuestionsLimit        int    `json:"ai_questions_limit"`
	QuestionsRemaining    int    `json:"ai_questions_remaining"`
	CommentsPerVideoLimit int    `json:"comments_per_video_limit"`
	PeriodStart           string `json:"period_start,omitempty"`
	PeriodEnd             string `json:"period_end,omitempty"`
	PlanID                string `json:"plan_id"`
	PlanName              string `json:"plan_name"`

	FetchedAt time.Time `json:"-"`
}

// Exceeded reports whether the given limit kind has no remaining credit.
// Comments are a per-video cap, not a countable pool, so they never read
// as exceeded here.
func (u UsageReport) Exceeded(kind LimitKind) bool {
	switch kind {
	case LimitVideos:
		return u.VideosRemaining <= 0
	case LimitQuestions:
		return u.QuestionsRemaining <= 0
	default:
		return false
	}
}

// QuotaError is the typed form of a backend 402: the user hit a usage
// limit and the request was refused, not failed.
type QuotaError struct {
	Kind            LimitKind `json:"usage_type"`
	Current         int       `json:"current"`
	Limit           int       `json:"limit"`
	Remaining       int       `json:"remaining"`
	Message         string    `json:"message"`
	UpgradeRequired bool      `json:"upgrade_required"`
}

func (q *QuotaError) Error() string {
	if q.Message != "" {
		return q.Message
	}
	return fmt.Sprintf("quota exceeded for %s (%d/%d)", q.Kind, q.Current, q.Limit)
}

// quotaDetail is the structured 402 body: {"detail": {...}}. A legacy
// variant carries action:"upgrade" and no usage_type.
type quotaDetail struct {
	Detail struct {
		Error           string    `json:"error"`
		Action          string    `json:"action"`
		UsageType       LimitKind `json:"usage_type"`
		Current         int       `json:"current"`
		Limit           int       `json:"limit"`
		Remaining       int       `json:"remaining"`
		Message         string    `json:"message"`
		UpgradeRequired bool      `json:"upgrade_required"`
	} `json:"detail"`
}

// ClassifyQuotaResponse turns an HTTP status and response body into a
// *QuotaError when the response is a recognizable limit hit. It returns
// nil when the response is not a quota refusal; callers then surface the
// original error unchanged. The structured path is the contract; the
// keyword fallback below is a heuristic for transports that flatten the
// detail into plain text.
func ClassifyQuotaResponse(status int, body []byte) *QuotaError {
	if status != 402 {
		return nil
	}
	var d quotaDetail
	if err := json.Unmarshal(body, &d); err == nil {
		det := d.Detail
		if det.Error == "quota_exceeded" || det.Action == "upgrade" {
			kind := det.UsageType
			if kind == "" {
				kind = classifyKindFromText(det.Message)
			}
			return &QuotaError{
				Kind:            kind,
				Current:         det.Current,
				Limit:           det.Limit,
				Remaining:       det.Remaining,
				Message:         det.Message,
				UpgradeRequired: det.UpgradeRequired || det.Action == "upgrade",
			}
		}
	}
	return classifyQuotaText(string(body))
}

// classifyQuotaText is the lowest-confidence path: infer a quota hit from
// keyword presence in an unstructured 402 body.
func classifyQuotaText(body string) *QuotaError {
	lower := strings.ToLower(body)
	if !strings.Contains(lower, "quota") && !strings.Contains(lower, "limit") &&
		!strings.Contains(lower, "upgrade") {
		return nil
	}
	return &QuotaError{
		Kind:            classifyKindFromText(lower),
		Message:         strings.TrimSpace(body),
		UpgradeRequired: strings.Contains(lower, "upgrade"),
	}
}

func classifyKindFromText(s string) LimitKind {
	lower := strings.ToLower(s)
	switch {
	case strings.Contains(lower, "question"):
		return LimitQuestions
	case strings.Contains(lower, "comment"):
		return LimitComments
	case strings.Contains(lower, "video"):
		return LimitVideos
	}
	return LimitVideos
}
