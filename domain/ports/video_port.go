package ports

import "context"

// VideoPort - video-generation capability. One call renders one
// description to encoded video. Implementations try an ordered list of
// backend models, falling through to the next on any error, and report a
// definitive failure only after all are exhausted. A poll timeout must
// surface as a distinct error kind from a generation failure.
type VideoPort interface {
	Render(ctx context.Context, prompt string) ([]byte, error)
}
