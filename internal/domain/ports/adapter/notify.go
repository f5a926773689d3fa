package adapter

import "context"

// Notifier delivers a short out-of-band message to the user when a task
// reaches a terminal phase while no view may be watching.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, text string) error
}
