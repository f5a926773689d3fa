// File: internal/infra/web/handlers.go
package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"creator-analytics-client/internal/domain"
	"creator-analytics-client/internal/domain/model"
	derror "creator-analytics-client/internal/error"
	"creator-analytics-client/internal/infra/auth"

	"github.com/go-chi/chi/v5"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError maps domain errors onto the bridge's status contract.
// Quota refusals keep the backend's detail envelope so views handle one
// 402 shape end to end.
func writeDomainError(w http.ResponseWriter, err error) {
	var qe *model.QuotaError
	switch {
	case errors.As(err, &qe):
		writeJSON(w, http.StatusPaymentRequired, map[string]any{"detail": map[string]any{
			"error":            "quota_exceeded",
			"usage_type":       qe.Kind,
			"current":          qe.Current,
			"limit":            qe.Limit,
			"remaining":        qe.Remaining,
			"message":          qe.Message,
			"upgrade_required": qe.UpgradeRequired,
		}})
	case errors.Is(err, domain.ErrAuthRequired):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, derror.ErrTaskNotRunning):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, derror.ErrNoPendingAction):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, derror.ErrConversationClosed):
		writeError(w, http.StatusGone, err.Error())
	case errors.Is(err, domain.ErrUnavailable):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return false
	}
	return true
}

// --- Analyses ----------------------------------------------------------

func (s *Server) handleStartAnalysis(w http.ResponseWriter, r *http.Request) {
	var req struct {
		VideoURL string `json:"video_url"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	task, err := s.tracker.StartAnalysis(r.Context(), req.VideoURL)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"task_id": task.ID, "task": task})
}

func (s *Server) handleListAnalyses(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"tasks": s.tracker.Tasks()})
}

func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	task, ok := s.tracker.Task(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown task")
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleDismissAnalysis(w http.ResponseWriter, r *http.Request) {
	if err := s.tracker.DismissAnalysis(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCancelAnalysis(w http.ResponseWriter, r *http.Request) {
	if err := s.tracker.CancelAnalysis(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAnalysisResult(w http.ResponseWriter, r *http.Request) {
	result, err := s.backend.Result(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// --- Session -----------------------------------------------------------

func (s *Server) handleMount(w http.ResponseWriter, r *http.Request) {
	state, err := s.facade.MountState(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleClearSnapshot(w http.ResponseWriter, r *http.Request) {
	kind := model.SnapshotKind(chi.URLParam(r, "kind"))
	if !kind.Valid() {
		writeError(w, http.StatusBadRequest, "unknown snapshot kind")
		return
	}
	if err := s.continuity.Clear(r.Context(), kind); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Q&A ---------------------------------------------------------------

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var q model.Question
	if !decodeBody(w, r, &q) {
		return
	}
	ans, err := s.ask.Ask(r.Context(), q)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ans)
}

func (s *Server) handleConversation(w http.ResponseWriter, r *http.Request) {
	conv, err := s.ask.Conversation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

// --- Billing -----------------------------------------------------------

func (s *Server) handleUsage(w http.ResponseWriter, r *http.Request) {
	u, err := s.billing.Usage(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handlePlans(w http.ResponseWriter, r *http.Request) {
	plans, err := s.billing.Plans(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"plans": plans})
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PlanID       string             `json:"plan_id"`
		BillingCycle model.BillingCycle `json:"billing_cycle"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	cs, err := s.billing.Checkout(r.Context(), req.PlanID, req.BillingCycle)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cs)
}

// --- Deferred actions --------------------------------------------------

func (s *Server) handleClaimAction(w http.ResponseWriter, r *http.Request) {
	action, ok, err := s.resume.ClaimIfUnblocked(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, action)
}

func (s *Server) handleClearAction(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.resume.Pending(r.Context()); !ok {
		writeDomainError(w, derror.ErrNoPendingAction)
		return
	}
	if err := s.resume.Clear(r.Context()); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Identity ----------------------------------------------------------

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	tok, err := s.creds.Token(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	id, err := auth.ParseIdentity(tok)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "credential claims unreadable")
		return
	}
	writeJSON(w, http.StatusOK, id)
}
