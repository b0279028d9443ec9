package ports

import "context"

// Stage identifiers for progress events.
const (
	StageScript       = "script"
	StageChunking     = "chunking"
	StageVoice        = "voice"
	StageDescriptions = "descriptions"
	StageVideo        = "video"
	StagePublish      = "publish"
)

// MessengerPort - progress notifications for one run. Backed by NATS when
// configured, a no-op otherwise. Errors from the messenger never fail the
// pipeline.
type MessengerPort interface {
	SendProgress(ctx context.Context, runID, stage string, percent int) error
	SendCompleted(ctx context.Context, runID string) error
	SendFailed(ctx context.Context, runID string, cause error) error
}
