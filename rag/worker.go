package rag

import (
	"context"
	"fmt"
	"log"
	"sync"
)

// Task is one unit of background work, typically "answer the latest
// question and append the result". Tasks are not cancellable once
// started; the ctx only bounds external calls made inside.
type Task func(ctx context.Context)

// Worker runs submitted tasks serially on one goroutine. It replaces the
// fire-and-forget daemon thread pattern with an explicit bounded queue
// that can be drained on shutdown.
type Worker struct {
	tasks  chan Task
	done   chan struct{}
	logger *log.Logger

	mu     sync.Mutex
	closed bool
}

func NewWorker(queueSize int, logger *log.Logger) *Worker {
	if queueSize <= 0 {
		queueSize = 16
	}
	if logger == nil {
		logger = log.Default()
	}

	w := &Worker{
		tasks:  make(chan Task, queueSize),
		done:   make(chan struct{}),
		logger: logger,
	}
	go w.run()
	return w
}

func (w *Worker) run() {
	defer close(w.done)
	for task := range w.tasks {
		task(context.Background())
	}
}

// Submit enqueues a task without blocking. A full queue or a worker that
// has begun shutting down drops the task and reports false; callers treat
// that as a logged, silent failure.
func (w *Worker) Submit(task Task) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		w.logger.Printf("worker shut down, dropping task")
		return false
	}

	select {
	case w.tasks <- task:
		return true
	default:
		w.logger.Printf("background queue full, dropping task")
		return false
	}
}

// Shutdown stops accepting tasks and drains queued and in-flight work
// until ctx expires. Work still pending at that point is abandoned.
// Calling Shutdown more than once is safe; later calls only wait.
func (w *Worker) Shutdown(ctx context.Context) error {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.tasks)
	}
	w.mu.Unlock()
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Printf("shutdown timeout, abandoning %d queued tasks", len(w.tasks))
		return fmt.Errorf("drain background tasks: %w", ctx.Err())
	}
}
