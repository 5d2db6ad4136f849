package rag

import (
	"context"
	"fmt"

	"github.com/aoleynikov/bobchat/embeddings"
	"github.com/aoleynikov/bobchat/store"
)

const defaultRetrievalLimit = 5

// Retriever embeds a query and finds the closest stored chunks.
type Retriever struct {
	embedder embeddings.Embedder
	chunks   store.ChunkStore
}

func NewRetriever(embedder embeddings.Embedder, chunks store.ChunkStore) *Retriever {
	return &Retriever{embedder: embedder, chunks: chunks}
}

// Retrieve returns the k stored chunks nearest to query, ascending by
// distance. An empty store yields an empty slice, not an error.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]store.Scored, error) {
	if r.embedder == nil {
		return nil, fmt.Errorf("embedder is not configured")
	}
	if r.chunks == nil {
		return nil, fmt.Errorf("chunk store is not configured")
	}
	if k <= 0 {
		k = defaultRetrievalLimit
	}

	vectors, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("embedder returned no vectors")
	}

	results, err := r.chunks.Nearest(ctx, vectors[0], k)
	if err != nil {
		return nil, fmt.Errorf("nearest chunks: %w", err)
	}

	return results, nil
}
