package messenger

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// NATSPublisher emits run progress events. Subscribers (dashboards, the
// invoking service) are informational only: delivery failures never fail
// the pipeline.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
	logger  *slog.Logger
}

func NewNATSPublisher(conn *nats.Conn, subject string) *NATSPublisher {
	if subject == "" {
		subject = "reelforge.run.progress"
	}
	return &NATSPublisher{
		conn:    conn,
		subject: subject,
		logger:  slog.Default().With("component", "messenger"),
	}
}

type progressEvent struct {
	RunID     string    `json:"run_id"`
	Status    string    `json:"status"`
	Stage     string    `json:"stage,omitempty"`
	Percent   int       `json:"percent,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func (p *NATSPublisher) SendProgress(ctx context.Context, runID, stage string, percent int) error {
	return p.publish(progressEvent{
		RunID:     runID,
		Status:    "processing",
		Stage:     stage,
		Percent:   percent,
		Timestamp: time.Now().UTC(),
	})
}

func (p *NATSPublisher) SendCompleted(ctx context.Context, runID string) error {
	return p.publish(progressEvent{
		RunID:     runID,
		Status:    "completed",
		Percent:   100,
		Timestamp: time.Now().UTC(),
	})
}

func (p *NATSPublisher) SendFailed(ctx context.Context, runID string, cause error) error {
	return p.publish(progressEvent{
		RunID:     runID,
		Status:    "failed",
		Error:     cause.Error(),
		Timestamp: time.Now().UTC(),
	})
}

func (p *NATSPublisher) publish(event progressEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal progress event: %w", err)
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("publish progress event: %w", err)
	}
	return nil
}
