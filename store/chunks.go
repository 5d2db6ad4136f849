// Package store holds the Postgres-backed persistence capabilities: the
// chunk store with write-time vector deduplication and the append-only
// message store.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// DedupThreshold is the cosine distance below which two chunks are
// considered the same content. Tunable at compile time only.
const DedupThreshold = 0.01

// Chunk is one token-bounded span of extracted text with its embedding.
// Chunks are immutable once created; they are either inserted or dropped.
type Chunk struct {
	Filename   string
	ChunkIndex int
	Text       string
	Embedding  []float32
}

// Scored is a stored chunk returned from a nearest-neighbor query,
// carrying its cosine distance to the query vector.
type Scored struct {
	Filename   string
	ChunkIndex int
	Text       string
	Distance   float64
}

type ChunkStore interface {
	// InsertNew stores the chunks whose embeddings are not within
	// DedupThreshold of an already stored chunk and reports how many were
	// inserted. Accepted chunks commit atomically together.
	InsertNew(ctx context.Context, chunks []Chunk) (int, error)
	// Nearest returns the k stored chunks closest to embedding, ascending
	// by cosine distance.
	Nearest(ctx context.Context, embedding []float32, k int) ([]Scored, error)
}

type PostgresChunkStore struct {
	pool *pgxpool.Pool
}

func NewPostgresChunkStore(pool *pgxpool.Pool) *PostgresChunkStore {
	return &PostgresChunkStore{pool: pool}
}

func (s *PostgresChunkStore) InsertNew(ctx context.Context, chunks []Chunk) (inserted int, err error) {
	if s.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}
	if len(chunks) == 0 {
		return 0, nil
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	// Every candidate is probed before any insert, so candidates from the
	// same batch are not deduplicated against each other, only against
	// previously committed chunks.
	fresh := make([]Chunk, 0, len(chunks))
	for _, chunk := range chunks {
		var existing uuid.UUID
		probeErr := tx.QueryRow(ctx,
			"SELECT id FROM data_chunks WHERE embedding <=> $1 < $2 LIMIT 1",
			pgvector.NewVector(chunk.Embedding), DedupThreshold,
		).Scan(&existing)
		if probeErr == nil {
			continue
		}
		if !errors.Is(probeErr, pgx.ErrNoRows) {
			return 0, fmt.Errorf("probe duplicate chunk: %w", probeErr)
		}
		fresh = append(fresh, chunk)
	}

	for _, chunk := range fresh {
		if _, err = tx.Exec(ctx, `
			INSERT INTO data_chunks (id, filename, chunk_index, chunk_text, embedding, created_at)
			VALUES ($1, $2, $3, $4, $5, NOW())
		`, uuid.New(), chunk.Filename, chunk.ChunkIndex, chunk.Text, pgvector.NewVector(chunk.Embedding)); err != nil {
			return 0, fmt.Errorf("insert chunk %s/%d: %w", chunk.Filename, chunk.ChunkIndex, err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit chunk batch: %w", err)
	}

	return len(fresh), nil
}

func (s *PostgresChunkStore) Nearest(ctx context.Context, embedding []float32, k int) ([]Scored, error) {
	if s.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if len(embedding) == 0 {
		return nil, fmt.Errorf("embedding is empty")
	}
	if k <= 0 {
		k = 5
	}

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	probes := k * 10
	if probes < 10 {
		probes = 10
	}
	if _, err := conn.Exec(ctx, fmt.Sprintf("SET ivfflat.probes = %d", probes)); err != nil {
		return nil, fmt.Errorf("set ivfflat probes: %w", err)
	}

	rows, err := conn.Query(ctx, `
		SELECT filename, chunk_index, chunk_text, (embedding <=> $1) AS distance
		FROM data_chunks
		ORDER BY embedding <=> $1
		LIMIT $2
	`, pgvector.NewVector(embedding), k)
	if err != nil {
		return nil, fmt.Errorf("query nearest chunks: %w", err)
	}
	defer rows.Close()

	results := make([]Scored, 0, k)
	for rows.Next() {
		var item Scored
		if scanErr := rows.Scan(&item.Filename, &item.ChunkIndex, &item.Text, &item.Distance); scanErr != nil {
			return nil, fmt.Errorf("scan nearest chunk: %w", scanErr)
		}
		results = append(results, item)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return results, nil
}

var _ ChunkStore = (*PostgresChunkStore)(nil)
