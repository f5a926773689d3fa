// File: internal/infra/adapters/notify/noop.go
package notify

import (
	"context"

	"creator-analytics-client/internal/domain/ports/adapter"

	"github.com/rs/zerolog"
)

var _ adapter.Notifier = (*NoopNotifier)(nil)

// NoopNotifier logs instead of sending. Default when no provider is
// configured.
type NoopNotifier struct {
	log *zerolog.Logger
}

func NewNoopNotifier(logger *zerolog.Logger) *NoopNotifier {
	compLog := logger.With().Str("component", "NoopNotifier").Logger()
	return &NoopNotifier{log: &compLog}
}

func (n *NoopNotifier) Name() string { return "noop" }

func (n *NoopNotifier) Notify(ctx context.Context, text string) error {
	n.log.Info().Str("text", text).Msg("notification (noop)")
	return nil
}
