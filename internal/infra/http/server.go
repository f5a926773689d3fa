// File: internal/infra/http/server.go
package http

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"creator-analytics-client/internal/usecase"

	"github.com/rs/zerolog"
)

// ReturnServer is the tiny standalone listener checkout redirects land
// on. It renders a "back to the app" page and invalidates the cached
// usage so the next view mount sees the lifted limit. Payment truth
// stays with the backend; nothing is verified here.
type ReturnServer struct {
	billing usecase.BillingUseCase
	path    string
	server  *http.Server
	log     *zerolog.Logger
}

func NewReturnServer(port int, path string, billing usecase.BillingUseCase, logger *zerolog.Logger) *ReturnServer {
	if path == "" {
		path = "/billing/return"
	}
	compLog := logger.With().Str("component", "ReturnServer").Logger()
	s := &ReturnServer{
		billing: billing,
		path:    path,
		log:     &compLog,
	}

	mux := http.NewServeMux()
	mux.HandleFunc(path, s.handleReturn)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	s.server = &http.Server{
		Addr:         fmt.Sprintf("127.0.0.1:%d", port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

func (s *ReturnServer) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Str("path", s.path).Msg("return listener started")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *ReturnServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *ReturnServer) handleReturn(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	txn := q.Get("transaction_id")
	status := q.Get("status")

	// The backend settles the payment on its own webhook; all this side
	// does is drop the stale usage cache and send the user back.
	if s.billing != nil {
		s.billing.InvalidateUsage()
	}
	s.log.Info().Str("transaction_id", txn).Str("status", status).Msg("checkout return")

	ok := status == "" || status == "success" || status == "completed"
	s.renderHTML(w, http.StatusOK, ok, txn)
}

var page = template.Must(template.New("return").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8" />
<meta name="viewport" content="width=device-width,initial-scale=1" />
<title>{{if .OK}}Checkout Complete{{else}}Checkout Result{{end}}</title>
<style>
body{font-family:system-ui,Arial,sans-serif;margin:2rem;}
.card{max-width:560px;border:1px solid #ddd;border-radius:12px;padding:24px;}
.ok{color:#057a55} .fail{color:#b00020}
.small{font-size:12px;color:#666}
</style>
</head>
<body>
<div class="card">
  <h2 class="{{if .OK}}ok{{else}}fail{{end}}">{{if .OK}}✅ Checkout Complete{{else}}⚠️ Checkout Processed{{end}}</h2>
  <p>You can return to the app now. Your updated plan limits will be picked up automatically.</p>
  {{if .Txn}}<div class="small">Reference: {{.Txn}}</div>{{end}}
</div>
</body>
</html>`))

func (s *ReturnServer) renderHTML(w http.ResponseWriter, code int, ok bool, txn string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	_ = page.Execute(w, struct {
		OK  bool
		Txn string
	}{OK: ok, Txn: txn})
}
