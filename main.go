package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aoleynikov/bobchat/api"
	"github.com/aoleynikov/bobchat/chunker"
	"github.com/aoleynikov/bobchat/config"
	"github.com/aoleynikov/bobchat/database"
	"github.com/aoleynikov/bobchat/embeddings"
	"github.com/aoleynikov/bobchat/extraction"
	"github.com/aoleynikov/bobchat/ingest"
	"github.com/aoleynikov/bobchat/llm"
	"github.com/aoleynikov/bobchat/prompt"
	"github.com/aoleynikov/bobchat/rag"
	"github.com/aoleynikov/bobchat/store"
	"github.com/aoleynikov/bobchat/tokens"
)

func main() {
	logger := log.New(os.Stdout, "", log.LstdFlags)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg := config.Load()

	switch os.Args[1] {
	case "serve":
		serveCmd(cfg, logger, os.Args[2:])
	case "ingest":
		ingestCmd(cfg, logger, os.Args[2:])
	case "ask":
		askCmd(cfg, logger, os.Args[2:])
	case "clear":
		clearCmd(cfg, logger, os.Args[2:])
	default:
		logger.Printf("unknown command: %s", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func serveCmd(cfg config.Config, logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := flags.String("addr", fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort), "listen address")
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse serve flags: %v", err)
	}

	if err := cfg.Validate(); err != nil {
		logger.Fatalf("config: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatalf("postgres connection: %v", err)
	}
	defer pool.Close()

	if err := database.EnsureSchema(ctx, pool, cfg.Embeddings.Dimension); err != nil {
		logger.Fatalf("ensure schema: %v", err)
	}

	embedder, err := embeddings.NewEmbedder(cfg)
	if err != nil {
		logger.Fatalf("embedder setup: %v", err)
	}

	llmClient, err := llm.NewClient(cfg)
	if err != nil {
		logger.Fatalf("llm setup: %v", err)
	}

	chunkStore := store.NewPostgresChunkStore(pool)
	messageStore := store.NewPostgresMessageStore(pool)

	pipeline := ingest.NewPipeline(
		extraction.NewRegistry(),
		chunker.New(newCounter(cfg, logger), cfg.Chunking.MaxTokens, cfg.Chunking.OverlapTokens),
		embedder,
		chunkStore,
		logger,
	)

	retriever := rag.NewRetriever(embedder, chunkStore)
	orchestrator := rag.NewOrchestrator(retriever, prompt.NewDefault(), llmClient, logger, cfg.RetrievalLimit, cfg.HistoryWindow)
	worker := rag.NewWorker(cfg.WorkerQueueSize, logger)

	server := api.New(cfg, messageStore, orchestrator, pipeline, worker, logger)

	httpServer := &http.Server{
		Addr:    *addr,
		Handler: server.Handler(),
	}

	go func() {
		logger.Printf("listening on %s", *addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Println("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Printf("http shutdown: %v", err)
	}

	drainCtx, drainCancel := context.WithTimeout(context.Background(), cfg.WorkerDrainTimeout)
	defer drainCancel()
	if err := worker.Shutdown(drainCtx); err != nil {
		logger.Printf("worker shutdown: %v", err)
	}
}

func ingestCmd(cfg config.Config, logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("ingest", flag.ExitOnError)
	dataDir := flags.String("dir", cfg.DataDir, "path to directory containing documents")
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse ingest flags: %v", err)
	}

	if err := cfg.Validate(); err != nil {
		logger.Fatalf("config: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatalf("postgres connection: %v", err)
	}
	defer pool.Close()

	if err := database.EnsureSchema(ctx, pool, cfg.Embeddings.Dimension); err != nil {
		logger.Fatalf("ensure schema: %v", err)
	}

	embedder, err := embeddings.NewEmbedder(cfg)
	if err != nil {
		logger.Fatalf("embedder setup: %v", err)
	}

	pipeline := ingest.NewPipeline(
		extraction.NewRegistry(),
		chunker.New(newCounter(cfg, logger), cfg.Chunking.MaxTokens, cfg.Chunking.OverlapTokens),
		embedder,
		store.NewPostgresChunkStore(pool),
		logger,
	)

	logger.Printf("ingesting documents from %s using %s/%s embeddings", *dataDir, strings.ToUpper(cfg.Embeddings.Provider), cfg.Embeddings.Model)

	summary, err := pipeline.IngestDirectory(ctx, *dataDir)
	if err != nil {
		logger.Fatalf("ingestion failed: %v", err)
	}

	fmt.Printf("Files processed:  %d\n", summary.FilesProcessed)
	fmt.Printf("Items extracted:  %d\n", summary.ItemsExtracted)
	fmt.Printf("Chunks created:   %d\n", summary.ChunksCreated)
	fmt.Printf("Chunks inserted:  %d\n", summary.ChunksInserted)
}

func askCmd(cfg config.Config, logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("ask", flag.ExitOnError)
	question := flags.String("question", "", "question to ask")
	limit := flags.Int("limit", cfg.RetrievalLimit, "number of context chunks to retrieve")
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse ask flags: %v", err)
	}

	if strings.TrimSpace(*question) == "" {
		fmt.Print("Enter your question: ")
		scanner := bufio.NewScanner(os.Stdin)
		if scanner.Scan() {
			*question = scanner.Text()
		}
		if err := scanner.Err(); err != nil {
			logger.Fatalf("read question: %v", err)
		}
	}
	if strings.TrimSpace(*question) == "" {
		logger.Fatal("question cannot be empty")
	}

	if err := cfg.Validate(); err != nil {
		logger.Fatalf("config: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatalf("postgres connection: %v", err)
	}
	defer pool.Close()

	embedder, err := embeddings.NewEmbedder(cfg)
	if err != nil {
		logger.Fatalf("embedder setup: %v", err)
	}

	llmClient, err := llm.NewClient(cfg)
	if err != nil {
		logger.Fatalf("llm setup: %v", err)
	}

	retriever := rag.NewRetriever(embedder, store.NewPostgresChunkStore(pool))
	orchestrator := rag.NewOrchestrator(retriever, prompt.NewDefault(), llmClient, logger, *limit, cfg.HistoryWindow)

	history := []store.Message{{Content: *question, Participant: "user", Timestamp: time.Now()}}
	result, err := orchestrator.Answer(ctx, history)
	if err != nil {
		logger.Fatalf("ask failed: %v", err)
	}

	fmt.Println(result.Answer)
	if len(result.Chunks) > 0 {
		fmt.Println()
		fmt.Println("Sources:")
		for idx, chunk := range result.Chunks {
			fmt.Printf("%d. %s #%d (distance %.4f)\n", idx+1, chunk.Filename, chunk.ChunkIndex, chunk.Distance)
		}
	}
}

func clearCmd(cfg config.Config, logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("clear", flag.ExitOnError)
	confirmed := flags.Bool("confirm", false, "skip confirmation prompt")
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse clear flags: %v", err)
	}

	if !*confirmed {
		fmt.Print("This will permanently delete all ingested chunks. Continue? [y/N]: ")
		scanner := bufio.NewScanner(os.Stdin)
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				logger.Fatalf("read confirmation: %v", err)
			}
			logger.Println("clear aborted")
			return
		}
		answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if answer != "y" && answer != "yes" {
			logger.Println("clear aborted")
			return
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatalf("postgres connection: %v", err)
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, "TRUNCATE data_chunks"); err != nil {
		logger.Fatalf("truncate data_chunks: %v", err)
	}
	logger.Println("cleared data_chunks")
}

// newCounter prefers exact model token counts and degrades to the word
// heuristic when the tiktoken vocabulary cannot be loaded (e.g. offline).
func newCounter(cfg config.Config, logger *log.Logger) tokens.Counter {
	counter, err := tokens.NewTiktokenCounter(cfg.Embeddings.Model)
	if err != nil {
		logger.Printf("tiktoken unavailable (%v), using approximate token counts", err)
		return tokens.Estimator{}
	}
	return counter
}

func printUsage() {
	fmt.Println("Usage: bobchat <command> [options]")
	fmt.Println("Commands:")
	fmt.Println("  serve    Run the HTTP API")
	fmt.Println("  ingest   Process a directory of documents into the chunk store (use --dir to override)")
	fmt.Println("  ask      Ask a one-off question against the ingested documents")
	fmt.Println("  clear    Remove all ingested chunks")
}
