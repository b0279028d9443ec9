package ports

import (
	"context"

	"reelforge/domain/models"
)

// TTSPort - text-to-speech capability. One call voices one chunk.
// Errors are per-item recoverable: the orchestrator logs them and leaves
// the item missing for the next run to retry.
type TTSPort interface {
	// Synthesize renders text to encoded audio. The returned artifact
	// carries the derived playback duration; the Key field is left for the
	// caller to fill in.
	Synthesize(ctx context.Context, text string) (*models.AudioArtifact, error)
}
