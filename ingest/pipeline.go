// Package ingest orchestrates a batch ingestion run: dispatch each file
// to its extraction processor, chunk the extracted items, embed the
// chunks, and store the batch with write-time deduplication.
package ingest

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/aoleynikov/bobchat/chunker"
	"github.com/aoleynikov/bobchat/embeddings"
	"github.com/aoleynikov/bobchat/extraction"
	"github.com/aoleynikov/bobchat/store"
)

// Summary reports what one ingestion run did.
type Summary struct {
	FilesProcessed int
	ItemsExtracted int
	ChunksCreated  int
	ChunksInserted int
}

type Pipeline struct {
	registry *extraction.Registry
	chunker  *chunker.Chunker
	embedder embeddings.Embedder
	chunks   store.ChunkStore
	logger   *log.Logger
}

func NewPipeline(registry *extraction.Registry, ch *chunker.Chunker, embedder embeddings.Embedder, chunks store.ChunkStore, logger *log.Logger) *Pipeline {
	if logger == nil {
		logger = log.Default()
	}

	return &Pipeline{
		registry: registry,
		chunker:  ch,
		embedder: embedder,
		chunks:   chunks,
		logger:   logger,
	}
}

// IngestDirectory processes every regular, non-hidden file in dir.
// Per-file failures are logged and skipped; the batch continues. All
// surviving chunks are stored in one dedup-insert pass at the end of the
// run, so each run writes at most once.
func (p *Pipeline) IngestDirectory(ctx context.Context, dir string) (Summary, error) {
	if p.embedder == nil {
		return Summary{}, fmt.Errorf("embedder not configured")
	}
	if p.chunks == nil {
		return Summary{}, fmt.Errorf("chunk store not configured")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return Summary{}, fmt.Errorf("read data directory: %w", err)
	}

	var summary Summary
	batch := make([]store.Chunk, 0)

	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}

		fileChunks, items, err := p.ingestFile(ctx, filepath.Join(dir, entry.Name()))
		if err != nil {
			p.logger.Printf("skip %s: %v", entry.Name(), err)
			continue
		}

		summary.FilesProcessed++
		summary.ItemsExtracted += items
		summary.ChunksCreated += len(fileChunks)
		batch = append(batch, fileChunks...)

		p.logger.Printf("processed %s (%d items, %d chunks)", entry.Name(), items, len(fileChunks))
	}

	if len(batch) > 0 {
		inserted, err := p.chunks.InsertNew(ctx, batch)
		if err != nil {
			return summary, fmt.Errorf("store chunk batch: %w", err)
		}
		summary.ChunksInserted = inserted
		p.logger.Printf("stored %d new chunks (skipped %d duplicates)", inserted, len(batch)-inserted)
	}

	return summary, nil
}

// ingestFile extracts, chunks, and embeds one file. The chunk index is
// file-scoped and runs contiguously across every item the file produced.
func (p *Pipeline) ingestFile(ctx context.Context, path string) ([]store.Chunk, int, error) {
	processor, err := p.registry.Resolve(path)
	if err != nil {
		return nil, 0, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("read file: %w", err)
	}

	items, err := processor.Extract(data)
	if err != nil {
		return nil, 0, fmt.Errorf("extract: %w", err)
	}

	filename := filepath.Base(path)
	fileChunks := make([]store.Chunk, 0)
	chunkIndex := 0

	for _, item := range items {
		pieces := p.chunker.Split(item)
		if len(pieces) == 0 {
			continue
		}

		vectors, err := p.embedder.Embed(ctx, pieces)
		if err != nil {
			return nil, 0, fmt.Errorf("embed chunks: %w", err)
		}
		if len(vectors) != len(pieces) {
			return nil, 0, fmt.Errorf("embedding count mismatch: have %d chunks, %d vectors", len(pieces), len(vectors))
		}

		for i, piece := range pieces {
			fileChunks = append(fileChunks, store.Chunk{
				Filename:   filename,
				ChunkIndex: chunkIndex,
				Text:       piece,
				Embedding:  vectors[i],
			})
			chunkIndex++
		}
	}

	return fileChunks, len(items), nil
}
