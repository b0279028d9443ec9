package ports

import "context"

// KnowledgePort - retrieval over the knowledge store backing the script
// stage. The returned text is injected into the writer prompt as grounding
// context.
type KnowledgePort interface {
	RetrieveContext(ctx context.Context, query string) (string, error)
}

// EmbedderPort - text embedding used by the pgvector knowledge store.
type EmbedderPort interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}
