package ports

import "context"

// ScriptWriterPort - LLM capability that turns a query into the narration
// script. A failure here is fatal: no script means no pipeline.
type ScriptWriterPort interface {
	// WriteScript generates the full narration text. knowledge is optional
	// retrieved context (empty string when the run has no knowledge store).
	WriteScript(ctx context.Context, query, knowledge string) (string, error)
}

// ChunkerPort - LLM capability that splits the script into self-contained
// narration chunks. Chunks are rewritten segments, not verbatim slices;
// each must stand alone (no "then", no "after"). Order is significant.
type ChunkerPort interface {
	SplitScript(ctx context.Context, script string) ([]string, error)
}

// PromptExpanderPort - LLM capability that derives video-generation
// prompts from one chunk. count is the target number of prompts, computed
// upstream from the chunk's audio duration.
type PromptExpanderPort interface {
	ExpandPrompts(ctx context.Context, chunk string, count int) ([]string, error)
}
