package messenger

import "context"

// Noop satisfies the messenger port when no NATS URL is configured.
type Noop struct{}

func NewNoop() *Noop { return &Noop{} }

func (n *Noop) SendProgress(ctx context.Context, runID, stage string, percent int) error { return nil }
func (n *Noop) SendCompleted(ctx context.Context, runID string) error                    { return nil }
func (n *Noop) SendFailed(ctx context.Context, runID string, cause error) error          { return nil }
