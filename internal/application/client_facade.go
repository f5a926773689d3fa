// File: internal/application/client_facade.go
package application

import (
	"context"

	"creator-analytics-client/internal/domain/model"
	"creator-analytics-client/internal/domain/ports/adapter"
	"creator-analytics-client/internal/infra/auth"
	"creator-analytics-client/internal/usecase"

	"github.com/rs/zerolog"
)

// MountState is everything a freshly loaded view needs in one shot: who
// the user is, where their quota stands, which tasks are tracked, and
// whatever context survived the reload.
type MountState struct {
	Identity      *model.Identity       `json:"identity,omitempty"`
	Usage         *model.UsageReport    `json:"usage,omitempty"`
	Tasks         []model.Task          `json:"tasks"`
	ActiveTask    *model.Task           `json:"active_task,omitempty"`
	JustCompleted []string              `json:"just_completed,omitempty"`
	Conversation  *model.Conversation   `json:"conversation,omitempty"`
	ResumedAction *model.DeferredAction `json:"resumed_action,omitempty"`
}

// ClientFacade composes the usecases into the coarse operations the view
// layer calls. Mount is deliberately tolerant: each piece of state is
// best effort, and a backend hiccup on one piece never blanks the rest.
type ClientFacade struct {
	Tracker    usecase.TrackerUseCase
	Ask        usecase.AskUseCase
	Billing    usecase.BillingUseCase
	Resume     usecase.ResumeUseCase
	Continuity usecase.ContinuityUseCase
	Creds      adapter.CredentialSource

	log *zerolog.Logger
}

func NewClientFacade(
	tracker usecase.TrackerUseCase,
	ask usecase.AskUseCase,
	billing usecase.BillingUseCase,
	resume usecase.ResumeUseCase,
	continuity usecase.ContinuityUseCase,
	creds adapter.CredentialSource,
	logger *zerolog.Logger,
) *ClientFacade {
	compLog := logger.With().Str("component", "ClientFacade").Logger()
	return &ClientFacade{
		Tracker:    tracker,
		Ask:        ask,
		Billing:    billing,
		Resume:     resume,
		Continuity: continuity,
		Creds:      creds,
		log:        &compLog,
	}
}

// MountState assembles the view-mount payload: identity from the bearer
// credential, fresh usage, the tracked task list, restored analysis and
// conversation context, and a deferred action claimed for replay when
// its limit has lifted.
func (f *ClientFacade) MountState(ctx context.Context) (MountState, error) {
	state := MountState{Tasks: []model.Task{}}

	if f.Creds != nil {
		if tok, err := f.Creds.Token(ctx); err == nil {
			if id, err := auth.ParseIdentity(tok); err == nil {
				state.Identity = &id
			} else {
				f.log.Warn().Err(err).Msg("credential claims unreadable")
			}
		}
	}

	if f.Billing != nil {
		if u, err := f.Billing.Usage(ctx); err == nil {
			state.Usage = &u
		} else {
			f.log.Warn().Err(err).Msg("usage unavailable at mount")
		}
	}

	if f.Tracker != nil {
		if task, ok, err := f.Tracker.RestoreActiveAnalysis(ctx); err == nil && ok {
			state.ActiveTask = &task
		} else if err != nil {
			f.log.Warn().Err(err).Msg("analysis restore failed")
		}
		state.Tasks = f.Tracker.Tasks()
		state.JustCompleted = f.Tracker.DrainRecentlyCompleted()
	}

	if f.Ask != nil {
		if conv, ok, err := f.Ask.RestoreConversation(ctx); err == nil && ok {
			state.Conversation = &conv
		} else if err != nil {
			f.log.Warn().Err(err).Msg("conversation restore failed")
		}
	}

	if f.Resume != nil {
		if action, ok, err := f.Resume.ClaimIfUnblocked(ctx); err == nil && ok {
			state.ResumedAction = &action
		} else if err != nil {
			f.log.Warn().Err(err).Msg("deferred action claim failed")
		}
	}

	return state, nil
}
