package models

import "time"

// Run - one end-to-end pipeline execution with its own artifact directory.
// A Run is either freshly created (new directory) or reattached to an
// existing directory for resumption. After attachment it only ever grows:
// artifacts are appended, never rewritten.
type Run struct {
	ID        string
	Dir       string
	CreatedAt time.Time
}

// Chunk - a self-contained narration segment derived from the script.
// Order matters for the final video timeline; identity for caching is the
// content key, not the index.
type Chunk struct {
	Index int
	Text  string
	Key   string
}

// AudioArtifact - voiced audio for one chunk, keyed by the chunk's content
// key. Duration drives the description budget downstream.
type AudioArtifact struct {
	Key      string
	Data     []byte
	Duration float64 // seconds
}

// Description - a video-generation prompt derived from a chunk.
type Description struct {
	ChunkKey string
	Index    int
	Text     string
	Key      string
}

// VideoArtifact - rendered video for one description. The key is the
// composite <chunkKey>_<descriptionKey>, so identical description text
// under two different chunks never collides.
type VideoArtifact struct {
	Key  string
	Data []byte
}
