// File: internal/infra/web/server.go
package web

import (
	"net/http"
	"strings"
	"time"

	"creator-analytics-client/internal/application"
	"creator-analytics-client/internal/domain/ports/adapter"
	"creator-analytics-client/internal/infra/api"
	"creator-analytics-client/internal/infra/redis"
	"creator-analytics-client/internal/usecase"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Server is the local bridge views talk to: REST for commands and reads,
// WebSocket for registry push. It binds to loopback; the optional static
// API key guards against other local processes, not the network.
type Server struct {
	facade     *application.ClientFacade
	tracker    usecase.TrackerUseCase
	ask        usecase.AskUseCase
	billing    usecase.BillingUseCase
	resume     usecase.ResumeUseCase
	continuity usecase.ContinuityUseCase
	backend    adapter.AnalyticsBackend
	creds      adapter.CredentialSource

	limiter   *redis.RateLimiter
	rateLimit int // mutating requests per client per minute, 0 = off
	apiKey    string
	timeout   time.Duration

	upgrader websocket.Upgrader
	log      *zerolog.Logger
}

type ServerDeps struct {
	Facade     *application.ClientFacade
	Tracker    usecase.TrackerUseCase
	Ask        usecase.AskUseCase
	Billing    usecase.BillingUseCase
	Resume     usecase.ResumeUseCase
	Continuity usecase.ContinuityUseCase
	Backend    adapter.AnalyticsBackend
	Creds      adapter.CredentialSource
	Limiter    *redis.RateLimiter
	RateLimit  int
	APIKey     string
	Timeout    time.Duration
}

func NewServer(d ServerDeps, logger *zerolog.Logger) *Server {
	if d.Timeout <= 0 {
		d.Timeout = 30 * time.Second
	}
	compLog := logger.With().Str("component", "Bridge").Logger()
	return &Server{
		facade:     d.Facade,
		tracker:    d.Tracker,
		ask:        d.Ask,
		billing:    d.Billing,
		resume:     d.Resume,
		continuity: d.Continuity,
		backend:    d.Backend,
		creds:      d.Creds,
		limiter:    d.Limiter,
		rateLimit:  d.RateLimit,
		apiKey:     d.APIKey,
		timeout:    d.Timeout,
		upgrader: websocket.Upgrader{
			// Loopback-only service; views are local pages with arbitrary origins.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		log: &compLog,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(api.TraceID(s.log))
	r.Use(api.RequestLog(s.log))
	r.Use(api.Recover(s.log))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// The socket stays open past the request timeout; everything else
	// gets the standard chain.
	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Get("/ws", s.handleWS)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Use(api.Timeout(s.timeout))
		r.Use(s.rateLimitMiddleware)

		r.Post("/analyses", s.handleStartAnalysis)
		r.Get("/analyses", s.handleListAnalyses)
		r.Get("/analyses/{id}", s.handleGetAnalysis)
		r.Delete("/analyses/{id}", s.handleDismissAnalysis)
		r.Post("/analyses/{id}/cancel", s.handleCancelAnalysis)
		r.Get("/analyses/{id}/result", s.handleAnalysisResult)

		r.Get("/session/mount", s.handleMount)
		r.Delete("/session/{kind}", s.handleClearSnapshot)

		r.Post("/questions", s.handleAsk)
		r.Get("/conversations/{id}", s.handleConversation)

		r.Get("/usage", s.handleUsage)
		r.Get("/plans", s.handlePlans)
		r.Post("/checkout", s.handleCheckout)

		r.Post("/actions/claim", s.handleClaimAction)
		r.Delete("/actions", s.handleClearAction)

		r.Get("/me", s.handleMe)
	})
	return r
}

// authMiddleware checks the optional static bearer key. An empty key
// leaves the loopback socket open, which is the dev default.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey == "" {
			next.ServeHTTP(w, r)
			return
		}
		header := r.Header.Get("Authorization")
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] != s.apiKey {
			writeError(w, http.StatusUnauthorized, "invalid api key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// rateLimitMiddleware caps mutating requests per client per minute using
// the Redis fixed-window counter. Reads pass through; a limiter outage
// fails open, the bridge is not in the blast radius of a Redis restart.
func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter == nil || s.rateLimit <= 0 ||
			(r.Method != http.MethodPost && r.Method != http.MethodDelete) {
			next.ServeHTTP(w, r)
			return
		}
		key := redis.ClientRouteKey(clientAddr(r), r.URL.Path)
		ok, err := s.limiter.Allow(r.Context(), key, s.rateLimit, time.Minute)
		if err != nil {
			s.log.Warn().Err(err).Msg("rate limiter unavailable")
			next.ServeHTTP(w, r)
			return
		}
		if !ok {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientAddr(r *http.Request) string {
	host := r.RemoteAddr
	if i := strings.LastIndex(host, ":"); i >= 0 {
		host = host[:i]
	}
	return host
}
