// File: internal/usecase/ask_uc.go
package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"creator-analytics-client/internal/domain"
	"creator-analytics-client/internal/domain/model"
	"creator-analytics-client/internal/domain/ports/adapter"
	derror "creator-analytics-client/internal/error"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ AskUseCase = (*askUC)(nil)

// AskUseCase fronts the Q&A surface. A successful answer pins the
// conversation in a continuity snapshot; a quota refusal parks the
// question as a deferred action before the error is surfaced.
type AskUseCase interface {
	Ask(ctx context.Context, q model.Question) (model.Answer, error)
	Conversation(ctx context.Context, id string) (model.Conversation, error)
	RestoreConversation(ctx context.Context) (model.Conversation, bool, error)
}

type askUC struct {
	backend    adapter.AnalyticsBackend
	continuity ContinuityUseCase
	resume     ResumeUseCase
	log        *zerolog.Logger
}

func NewAskUseCase(backend adapter.AnalyticsBackend, continuity ContinuityUseCase, resume ResumeUseCase, logger *zerolog.Logger) *askUC {
	compLog := logger.With().Str("component", "AskUC").Logger()
	return &askUC{backend: backend, continuity: continuity, resume: resume, log: &compLog}
}

// conversationHint is the display payload stored with the conversation
// snapshot so a restored view can show context before the re-fetch lands.
type conversationHint struct {
	VideoID      string `json:"video_id,omitempty"`
	LastQuestion string `json:"last_question,omitempty"`
}

func (a *askUC) Ask(ctx context.Context, q model.Question) (model.Answer, error) {
	if q.Text == "" {
		return model.Answer{}, fmt.Errorf("%w: question text empty", domain.ErrInvalidArgument)
	}
	if q.VideoID == "" && q.ConversationID == "" {
		return model.Answer{}, fmt.Errorf("%w: question has no video or conversation", domain.ErrInvalidArgument)
	}

	ans, err := a.backend.Ask(ctx, q)
	if err != nil {
		var qe *model.QuotaError
		if errors.As(err, &qe) && a.resume != nil {
			if _, dErr := a.resume.Defer(ctx, model.DeferredAction{
				Kind:  model.ActionAskQuestion,
				Limit: qe.Kind,
				Payload: model.ActionPayload{
					VideoID:        q.VideoID,
					Question:       q.Text,
					ConversationID: q.ConversationID,
				},
			}); dErr != nil {
				a.log.Warn().Err(dErr).Msg("could not defer blocked question")
			}
		}
		return model.Answer{}, err
	}

	if a.continuity != nil && ans.ConversationID != "" {
		hint, _ := json.Marshal(conversationHint{VideoID: q.VideoID, LastQuestion: q.Text})
		if err := a.continuity.Capture(ctx, model.ContinuitySnapshot{
			Kind:          model.SnapshotActiveConversation,
			SubjectID:     ans.ConversationID,
			CorrelationID: q.VideoID,
			Hint:          hint,
		}); err != nil {
			a.log.Warn().Err(err).Msg("conversation snapshot capture failed")
		}
	}
	return ans, nil
}

func (a *askUC) Conversation(ctx context.Context, id string) (model.Conversation, error) {
	if id == "" {
		return model.Conversation{}, fmt.Errorf("%w: conversation id empty", domain.ErrInvalidArgument)
	}
	conv, err := a.backend.Conversation(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return model.Conversation{}, derror.ErrConversationClosed
		}
		return model.Conversation{}, err
	}
	return conv, nil
}

// RestoreConversation reopens the snapshotted conversation with an
// authoritative history fetch. A conversation the backend no longer
// knows clears the snapshot and restores nothing.
func (a *askUC) RestoreConversation(ctx context.Context) (model.Conversation, bool, error) {
	if a.continuity == nil {
		return model.Conversation{}, false, nil
	}
	snap, ok, err := a.continuity.Restore(ctx, model.SnapshotActiveConversation)
	if err != nil {
		return model.Conversation{}, false, err
	}
	if !ok {
		return model.Conversation{}, false, nil
	}

	conv, err := a.backend.Conversation(ctx, snap.SubjectID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			_ = a.continuity.Clear(ctx, model.SnapshotActiveConversation)
			return model.Conversation{}, false, nil
		}
		return model.Conversation{}, false, err
	}
	a.log.Info().Str("conversation_id", conv.ID).Msg("conversation restored")
	return conv, true, nil
}
