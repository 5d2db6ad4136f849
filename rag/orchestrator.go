// Package rag answers a question against the chunk store: it windows the
// conversation, retrieves the nearest chunks, assembles a prompt, and
// calls the generator. One linear pass, no internal retries.
package rag

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/aoleynikov/bobchat/llm"
	"github.com/aoleynikov/bobchat/prompt"
	"github.com/aoleynikov/bobchat/store"
)

// RefusalMessage is returned when the latest windowed message is not
// user-authored. It is a fixed answer, not an error, and is never
// persisted.
const RefusalMessage = "I need a user message to respond to."

// Result is the outcome of one orchestration run.
type Result struct {
	Answer   string
	Rejected bool
	Chunks   []store.Scored
}

type Orchestrator struct {
	retriever  *Retriever
	template   prompt.Template
	generator  llm.Client
	logger     *log.Logger
	limit      int
	windowSize int
}

func NewOrchestrator(retriever *Retriever, template prompt.Template, generator llm.Client, logger *log.Logger, limit, windowSize int) *Orchestrator {
	if logger == nil {
		logger = log.Default()
	}

	return &Orchestrator{
		retriever:  retriever,
		template:   template,
		generator:  generator,
		logger:     logger,
		limit:      limit,
		windowSize: windowSize,
	}
}

// Answer runs retrieval and generation for the latest user turn in
// history. When the latest windowed message is not from the user the run
// terminates rejected with the refusal text. Any capability failure
// aborts the run; nothing is retried and nothing is persisted here.
func (o *Orchestrator) Answer(ctx context.Context, history []store.Message) (Result, error) {
	if o.retriever == nil {
		return Result{}, fmt.Errorf("retriever is not configured")
	}
	if o.template == nil {
		return Result{}, fmt.Errorf("prompt template is not configured")
	}
	if o.generator == nil {
		return Result{}, fmt.Errorf("llm client is not configured")
	}

	window := Window(history, o.windowSize)
	latest, ok := LatestUser(window)
	if !ok {
		o.logger.Printf("refusing to answer: latest message is not user-authored")
		return Result{Answer: RefusalMessage, Rejected: true}, nil
	}

	chunks, err := o.retriever.Retrieve(ctx, latest.Content, o.limit)
	if err != nil {
		return Result{}, fmt.Errorf("retrieve context: %w", err)
	}

	promptText, err := o.template.Render(latest.Content, chunks, window[:len(window)-1])
	if err != nil {
		return Result{}, fmt.Errorf("assemble prompt: %w", err)
	}

	answer, err := o.generator.Generate(ctx, promptText)
	if err != nil {
		return Result{}, fmt.Errorf("generate answer: %w", err)
	}

	return Result{Answer: strings.TrimSpace(answer), Chunks: chunks}, nil
}
