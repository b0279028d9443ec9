package knowledge

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pgvector/pgvector-go"

	"reelforge/domain/ports"
)

// PgVectorClient retrieves grounding context for the script stage from a
// pgvector-backed knowledge table:
//
//	CREATE TABLE knowledge_chunks (
//	    id        bigserial PRIMARY KEY,
//	    content   text NOT NULL,
//	    embedding vector(768) NOT NULL
//	);
//
// The query is embedded and the nearest chunks by cosine distance are
// joined into one context block.
type PgVectorClient struct {
	db       *sql.DB
	embedder ports.EmbedderPort
	limit    int
	logger   *slog.Logger
}

func NewPgVectorClient(db *sql.DB, embedder ports.EmbedderPort, limit int) *PgVectorClient {
	if limit <= 0 {
		limit = 8
	}
	return &PgVectorClient{
		db:       db,
		embedder: embedder,
		limit:    limit,
		logger:   slog.Default().With("component", "pgvector"),
	}
}

func (c *PgVectorClient) RetrieveContext(ctx context.Context, query string) (string, error) {
	vector, err := c.embedder.EmbedText(ctx, query)
	if err != nil {
		return "", fmt.Errorf("embed query: %w", err)
	}

	rows, err := c.db.QueryContext(ctx, `
		SELECT content
		FROM knowledge_chunks
		ORDER BY embedding <=> $1
		LIMIT $2
	`, pgvector.NewVector(vector), c.limit)
	if err != nil {
		return "", fmt.Errorf("knowledge search: %w", err)
	}
	defer rows.Close()

	var parts []string
	for rows.Next() {
		var content string
		if err := rows.Scan(&content); err != nil {
			return "", fmt.Errorf("scan knowledge row: %w", err)
		}
		parts = append(parts, content)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("knowledge search: %w", err)
	}

	c.logger.InfoContext(ctx, "Knowledge retrieved", "chunks", len(parts))
	return strings.Join(parts, "\n\n"), nil
}
