// File: internal/infra/adapters/analytics/stream.go
package analytics

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"creator-analytics-client/internal/domain"
	"creator-analytics-client/internal/domain/model"
	"creator-analytics-client/internal/domain/ports/adapter"
	"creator-analytics-client/internal/infra/metrics"

	"github.com/rs/zerolog"
)

var _ adapter.EventStream = (*eventStream)(nil)

// OpenProgressStream subscribes to the per-task SSE feed. The request is
// bound to ctx: cancelling it tears down the connection and unblocks any
// pending Next. There is no reconnect; a dropped connection surfaces as
// an error from Next and the subscription is over.
func (c *Client) OpenProgressStream(ctx context.Context, taskID string) (adapter.EventStream, error) {
	token, err := c.creds.Token(ctx)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/api/analysis/progress/"+url.PathEscape(taskID)), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.streamCli.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: open progress stream: %v", domain.ErrUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		resp.Body.Close()
		return nil, c.statusError(resp.StatusCode, body)
	}

	streamLog := c.log.With().Str("task_id", taskID).Logger()
	sc := bufio.NewScanner(resp.Body)
	// Lines carry whole JSON events; leave headroom well past any
	// realistic payload so a long summary never splits mid-line.
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	return &eventStream{
		taskID:   taskID,
		body:     resp.Body,
		scanner:  sc,
		openedAt: time.Now(),
		log:      &streamLog,
	}, nil
}

// eventStream decodes `data: <json>` frames off one SSE connection.
// Comment lines (keepalives) and blank separators are skipped; a line
// that fails to decode is dropped and counted, never fatal.
type eventStream struct {
	taskID   string
	body     io.ReadCloser
	scanner  *bufio.Scanner
	openedAt time.Time
	log      *zerolog.Logger

	closeOnce sync.Once
}

func (s *eventStream) Next(ctx context.Context) (model.ProgressEvent, error) {
	for {
		if err := ctx.Err(); err != nil {
			return model.ProgressEvent{}, err
		}
		if !s.scanner.Scan() {
			if err := ctx.Err(); err != nil {
				// The connection died because the caller cancelled.
				return model.ProgressEvent{}, err
			}
			if err := s.scanner.Err(); err != nil {
				return model.ProgressEvent{}, fmt.Errorf("stream read: %w", err)
			}
			return model.ProgressEvent{}, io.EOF
		}

		line := strings.TrimSpace(s.scanner.Text())
		if line == "" || strings.HasPrefix(line, ":") {
			// Blank separator or keepalive comment.
			continue
		}
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "" {
			continue
		}

		var ev model.ProgressEvent
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			metrics.IncStreamMalformedLine()
			s.log.Warn().Err(err).Msg("dropping malformed progress line")
			continue
		}
		if ev.TaskID == "" {
			ev.TaskID = s.taskID
		}
		metrics.IncStreamEvent()
		return ev, nil
	}
}

func (s *eventStream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.body.Close()
		metrics.ObserveStreamDuration(time.Since(s.openedAt))
	})
	return err
}
