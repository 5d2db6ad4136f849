package ingest

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aoleynikov/bobchat/chunker"
	"github.com/aoleynikov/bobchat/extraction"
	"github.com/aoleynikov/bobchat/store"
	"github.com/aoleynikov/bobchat/tokens"
)

type fakeEmbedder struct {
	err   error
	calls int
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = []float32{float32(len(text)), 1}
	}
	return vectors, nil
}

type fakeChunkStore struct {
	inserted    [][]store.Chunk
	insertedNew int
}

func (f *fakeChunkStore) InsertNew(_ context.Context, chunks []store.Chunk) (int, error) {
	f.inserted = append(f.inserted, chunks)
	return f.insertedNew, nil
}

func (f *fakeChunkStore) Nearest(context.Context, []float32, int) ([]store.Scored, error) {
	return nil, fmt.Errorf("not used")
}

func newTestPipeline(embedder *fakeEmbedder, chunks *fakeChunkStore) *Pipeline {
	ch := chunker.New(tokens.Estimator{}, 8, 0)
	logger := log.New(io.Discard, "", 0)
	return NewPipeline(extraction.NewRegistry(), ch, embedder, chunks, logger)
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestIngestDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "doc.txt", "One short sentence here. Another short sentence follows. A third sentence closes it.")
	writeFile(t, dir, "page.html", "<html><body><p>Hello from markup.</p><script>x()</script></body></html>")
	writeFile(t, dir, "notes.xyz", "unsupported format")
	writeFile(t, dir, ".hidden.txt", "skip me")

	embedder := &fakeEmbedder{}
	chunks := &fakeChunkStore{insertedNew: 3}
	p := newTestPipeline(embedder, chunks)

	summary, err := p.IngestDirectory(context.Background(), dir)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}

	if summary.FilesProcessed != 2 {
		t.Fatalf("expected 2 files processed, got %d", summary.FilesProcessed)
	}
	if summary.ItemsExtracted != 2 {
		t.Fatalf("expected 2 extracted items, got %d", summary.ItemsExtracted)
	}
	if summary.ChunksCreated == 0 {
		t.Fatal("expected chunks to be created")
	}
	if summary.ChunksInserted != 3 {
		t.Fatalf("expected store's inserted count in summary, got %d", summary.ChunksInserted)
	}

	if len(chunks.inserted) != 1 {
		t.Fatalf("batch must be stored in exactly one call, got %d", len(chunks.inserted))
	}
	batch := chunks.inserted[0]
	if len(batch) != summary.ChunksCreated {
		t.Fatalf("batch size %d does not match summary %d", len(batch), summary.ChunksCreated)
	}

	// Per-file chunk indices must run contiguously from zero.
	byFile := map[string][]int{}
	for _, c := range batch {
		if len(c.Embedding) == 0 {
			t.Fatalf("chunk %s #%d stored without embedding", c.Filename, c.ChunkIndex)
		}
		byFile[c.Filename] = append(byFile[c.Filename], c.ChunkIndex)
	}
	for filename, indices := range byFile {
		for i, idx := range indices {
			if idx != i {
				t.Fatalf("%s: expected index %d at position %d, got %d", filename, i, i, idx)
			}
		}
	}
	if _, ok := byFile["notes.xyz"]; ok {
		t.Fatal("unsupported file must be skipped")
	}
	if _, ok := byFile[".hidden.txt"]; ok {
		t.Fatal("hidden file must be skipped")
	}
}

func TestIngestDirectoryEmbedFailureSkipsFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "doc.txt", "Some content that will fail to embed.")

	embedder := &fakeEmbedder{err: fmt.Errorf("embedding backend down")}
	chunks := &fakeChunkStore{}
	p := newTestPipeline(embedder, chunks)

	summary, err := p.IngestDirectory(context.Background(), dir)
	if err != nil {
		t.Fatalf("per-file failure must not abort the run: %v", err)
	}
	if summary.FilesProcessed != 0 || summary.ChunksCreated != 0 {
		t.Fatalf("failed file must contribute nothing: %+v", summary)
	}
	if len(chunks.inserted) != 0 {
		t.Fatal("nothing should be stored when every file fails")
	}
}

func TestIngestDirectoryEmpty(t *testing.T) {
	embedder := &fakeEmbedder{}
	chunks := &fakeChunkStore{}
	p := newTestPipeline(embedder, chunks)

	summary, err := p.IngestDirectory(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if summary != (Summary{}) {
		t.Fatalf("expected zero summary, got %+v", summary)
	}
	if len(chunks.inserted) != 0 {
		t.Fatal("empty batch must not hit the store")
	}
}

func TestIngestDirectoryMissing(t *testing.T) {
	p := newTestPipeline(&fakeEmbedder{}, &fakeChunkStore{})
	_, err := p.IngestDirectory(context.Background(), filepath.Join(t.TempDir(), "absent"))
	if err == nil || !strings.Contains(err.Error(), "read data directory") {
		t.Fatalf("expected directory error, got %v", err)
	}
}
