package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema creates the chat and chunk tables if they do not exist.
// The embedding column width is fixed by the configured embedder, so a
// dimension change requires recreating data_chunks.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("embedding dimension must be positive")
	}

	stmts := []string{
		"CREATE EXTENSION IF NOT EXISTS vector",
		`CREATE TABLE IF NOT EXISTS participants (
			id BIGSERIAL PRIMARY KEY,
			name TEXT UNIQUE NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id BIGSERIAL PRIMARY KEY,
			content TEXT NOT NULL,
			participant_id BIGINT NOT NULL REFERENCES participants(id),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS data_chunks (
			id UUID PRIMARY KEY,
			filename TEXT NOT NULL,
			chunk_index INT NOT NULL,
			chunk_text TEXT NOT NULL,
			embedding VECTOR(%d) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`, dimension),
		"CREATE INDEX IF NOT EXISTS idx_messages_created ON messages(created_at)",
		"CREATE INDEX IF NOT EXISTS idx_data_chunks_filename ON data_chunks(filename)",
		"CREATE INDEX IF NOT EXISTS idx_data_chunks_embedding ON data_chunks USING ivfflat (embedding vector_cosine_ops)",
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("execute schema statement: %w", err)
		}
	}

	return nil
}
