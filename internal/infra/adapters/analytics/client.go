// File: internal/infra/adapters/analytics/client.go
package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"creator-analytics-client/internal/domain"
	"creator-analytics-client/internal/domain/model"
	"creator-analytics-client/internal/domain/ports/adapter"

	"github.com/rs/zerolog"
)

var _ adapter.AnalyticsBackend = (*Client)(nil)

// Client implements adapter.AnalyticsBackend over the backend REST API.
// Unary calls use a client with a request timeout; the progress stream
// uses a separate client with no timeout, because streams outlive any
// sane request deadline and are torn down via context instead.
type Client struct {
	baseURL   string
	creds     adapter.CredentialSource
	client    *http.Client
	streamCli *http.Client
	log       *zerolog.Logger
}

func NewClient(baseURL string, creds adapter.CredentialSource, timeout time.Duration, logger *zerolog.Logger) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("backend url empty")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid backend url: %w", err)
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	compLog := logger.With().Str("component", "AnalyticsClient").Logger()
	return &Client{
		baseURL:   baseURL,
		creds:     creds,
		client:    &http.Client{Timeout: timeout},
		streamCli: &http.Client{},
		log:       &compLog,
	}, nil
}

func (c *Client) endpoint(path string) string { return c.baseURL + path }

// newRequest builds a request with the bearer credential attached,
// failing fast with domain.ErrAuthRequired before dialing.
func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	token, err := c.creds.Token(ctx)
	if err != nil {
		return nil, err
	}
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), rd)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// do executes a unary call and decodes a 2xx body into out (when non-nil).
// 402 responses are classified into *model.QuotaError; other non-2xx
// statuses become wrapped sentinel errors.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
		return c.statusError(resp.StatusCode, body)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) statusError(status int, body []byte) error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: backend status %d", domain.ErrAuthRequired, status)
	case http.StatusNotFound:
		return domain.ErrNotFound
	case http.StatusPaymentRequired:
		if q := model.ClassifyQuotaResponse(status, body); q != nil {
			return q
		}
		return fmt.Errorf("backend status 402: %s", strings.TrimSpace(string(body)))
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %s", domain.ErrInvalidArgument, strings.TrimSpace(string(body)))
	default:
		return fmt.Errorf("%w: backend status %d", domain.ErrUnavailable, status)
	}
}

func (c *Client) StartAnalysis(ctx context.Context, sourceURL string, maxComments int) (adapter.StartResult, error) {
	payload := map[string]any{
		"video_url_or_id": sourceURL,
		"max_comments":    maxComments,
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/api/analysis/start", payload)
	if err != nil {
		return adapter.StartResult{}, err
	}
	var out adapter.StartResult
	if err := c.do(req, &out); err != nil {
		return adapter.StartResult{}, err
	}
	if out.TaskID == "" {
		return adapter.StartResult{}, errors.New("backend returned no analysis id")
	}
	c.log.Debug().Str("task_id", out.TaskID).Msg("analysis started")
	return out, nil
}

func (c *Client) JobStatus(ctx context.Context, taskID string) (model.ProgressEvent, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/analysis/job/"+url.PathEscape(taskID), nil)
	if err != nil {
		return model.ProgressEvent{}, err
	}
	var out model.ProgressEvent
	if err := c.do(req, &out); err != nil {
		return model.ProgressEvent{}, err
	}
	return out, nil
}

func (c *Client) Result(ctx context.Context, taskID string) (model.AnalysisResult, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/analysis/"+url.PathEscape(taskID), nil)
	if err != nil {
		return model.AnalysisResult{}, err
	}
	var out model.AnalysisResult
	if err := c.do(req, &out); err != nil {
		return model.AnalysisResult{}, err
	}
	return out, nil
}

func (c *Client) CancelAnalysis(ctx context.Context, taskID string) error {
	req, err := c.newRequest(ctx, http.MethodPost, "/api/analysis/"+url.PathEscape(taskID)+"/cancel", nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

func (c *Client) Usage(ctx context.Context) (model.UsageReport, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/billing/usage", nil)
	if err != nil {
		return model.UsageReport{}, err
	}
	var out model.UsageReport
	if err := c.do(req, &out); err != nil {
		return model.UsageReport{}, err
	}
	out.FetchedAt = time.Now()
	return out, nil
}

func (c *Client) Plans(ctx context.Context) ([]model.Plan, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/billing/plans", nil)
	if err != nil {
		return nil, err
	}
	var out struct {
		Plans []model.Plan `json:"plans"`
	}
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return out.Plans, nil
}

func (c *Client) Checkout(ctx context.Context, planID string, cycle model.BillingCycle) (model.CheckoutSession, error) {
	payload := map[string]any{
		"plan_id":       planID,
		"billing_cycle": string(cycle),
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/api/billing/checkout", payload)
	if err != nil {
		return model.CheckoutSession{}, err
	}
	var out model.CheckoutSession
	if err := c.do(req, &out); err != nil {
		return model.CheckoutSession{}, err
	}
	return out, nil
}

func (c *Client) Ask(ctx context.Context, q model.Question) (model.Answer, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/api/ask/question", q)
	if err != nil {
		return model.Answer{}, err
	}
	var out model.Answer
	if err := c.do(req, &out); err != nil {
		return model.Answer{}, err
	}
	return out, nil
}

func (c *Client) Conversation(ctx context.Context, id string) (model.Conversation, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/ask/conversation/"+url.PathEscape(id), nil)
	if err != nil {
		return model.Conversation{}, err
	}
	var out model.Conversation
	if err := c.do(req, &out); err != nil {
		return model.Conversation{}, err
	}
	return out, nil
}
