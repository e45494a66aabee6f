// Package worker runs the background task processors that execute the
// ingest pipeline asynchronously.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/helix-labs/quarry-core/internal/core/domain"
	"github.com/helix-labs/quarry-core/internal/core/ports/driven"
	"github.com/helix-labs/quarry-core/internal/core/ports/driving"
	"github.com/helix-labs/quarry-core/internal/core/services"
)

// lockTTL bounds how long a document indexing lock is held
const lockTTL = 10 * time.Minute

// Worker processes tasks from the task queue.
// It runs the ingest pipeline for index tasks and removes documents
// for delete tasks.
type Worker struct {
	taskQueue       driven.TaskQueue
	orchestrator    *services.IngestOrchestrator
	documentService driving.DocumentService
	lock            driven.DistributedLock
	logger          *slog.Logger

	// Configuration
	concurrency    int
	dequeueTimeout int // seconds

	// Internal state
	mu      sync.RWMutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// WorkerConfig holds configuration for the worker.
type WorkerConfig struct {
	TaskQueue       driven.TaskQueue
	Orchestrator    *services.IngestOrchestrator
	DocumentService driving.DocumentService
	Lock            driven.DistributedLock // optional; skips locking when nil
	Logger          *slog.Logger
	Concurrency     int // Number of concurrent task processors
	DequeueTimeout  int // Seconds to wait for a task before checking again
}

// NewWorker creates a new task worker.
func NewWorker(cfg WorkerConfig) *Worker {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	dequeueTimeout := cfg.DequeueTimeout
	if dequeueTimeout <= 0 {
		dequeueTimeout = 5
	}

	return &Worker{
		taskQueue:       cfg.TaskQueue,
		orchestrator:    cfg.Orchestrator,
		documentService: cfg.DocumentService,
		lock:            cfg.Lock,
		logger:          logger,
		concurrency:     concurrency,
		dequeueTimeout:  dequeueTimeout,
	}
}

// Start begins the worker loop.
// It runs until Stop is called or context is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.mu.Unlock()

	w.logger.Info("worker starting",
		"concurrency", w.concurrency,
		"dequeue_timeout", w.dequeueTimeout,
	)

	// Start worker goroutines
	var wg sync.WaitGroup
	for i := 0; i < w.concurrency; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			w.processLoop(ctx, workerID)
		}(i)
	}

	// Wait for all workers to finish
	go func() {
		wg.Wait()
		close(w.doneCh)
	}()

	return nil
}

// Stop gracefully stops the worker.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	close(w.stopCh)
	w.mu.Unlock()

	// Wait for workers to finish
	<-w.doneCh

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	w.logger.Info("worker stopped")
}

// Wait blocks until the worker stops.
func (w *Worker) Wait() {
	<-w.doneCh
}

// processLoop is the main processing loop for a worker goroutine.
func (w *Worker) processLoop(ctx context.Context, workerID int) {
	logger := w.logger.With("worker_id", workerID)
	logger.Info("worker goroutine started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("worker context cancelled")
			return
		case <-w.stopCh:
			logger.Info("worker stop signal received")
			return
		default:
		}

		// Dequeue a task with timeout
		task, err := w.taskQueue.DequeueWithTimeout(ctx, w.dequeueTimeout)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			logger.Error("failed to dequeue task", "error", err)
			time.Sleep(time.Second) // Back off on error
			continue
		}

		if task == nil {
			// No task available, continue
			continue
		}

		// Process the task
		w.processTask(ctx, task, logger)
	}
}

// processTask processes a single task.
func (w *Worker) processTask(ctx context.Context, task *domain.Task, logger *slog.Logger) {
	logger = logger.With("task_id", task.ID, "task_type", task.Type)
	logger.Info("processing task")

	startTime := time.Now()
	var err error

	switch task.Type {
	case domain.TaskTypeIndexDocument:
		err = w.handleIndexDocument(ctx, task)
	case domain.TaskTypeDeleteDocument:
		err = w.handleDeleteDocument(ctx, task)
	default:
		err = fmt.Errorf("unknown task type: %s", task.Type)
	}

	duration := time.Since(startTime)

	if err != nil {
		logger.Error("task failed",
			"duration", duration,
			"error", err,
		)

		// Nack the task so it can be retried
		if nackErr := w.taskQueue.Nack(ctx, task.ID, err.Error()); nackErr != nil {
			logger.Error("failed to nack task", "nack_error", nackErr)
		}
		return
	}

	logger.Info("task completed", "duration", duration)

	// Ack the task
	if ackErr := w.taskQueue.Ack(ctx, task.ID); ackErr != nil {
		logger.Error("failed to ack task", "ack_error", ackErr)
	}
}

// handleIndexDocument handles an index_document task.
// The task payload carries the raw content plus optional chunking overrides.
func (w *Worker) handleIndexDocument(ctx context.Context, task *domain.Task) error {
	documentID := task.DocumentID()
	if documentID == "" {
		return fmt.Errorf("document_id not found in task payload")
	}

	content, ok := task.Payload["content"]
	if !ok {
		return fmt.Errorf("content not found in task payload")
	}

	chunkSize := payloadInt(task.Payload, "chunk_size")
	chunkOverlap := payloadInt(task.Payload, "chunk_overlap")

	release, err := w.acquireLock(ctx, "index:"+documentID)
	if err != nil {
		return err
	}
	defer release()

	result, err := w.orchestrator.ProcessStored(ctx, documentID, content, chunkSize, chunkOverlap)
	if err != nil {
		return err
	}

	w.logger.Info("document indexed",
		"document_id", documentID,
		"chunks", result.ChunksIndexed,
		"duration_ms", result.DurationMs,
	)

	return nil
}

// handleDeleteDocument handles a delete_document task.
func (w *Worker) handleDeleteDocument(ctx context.Context, task *domain.Task) error {
	documentID := task.DocumentID()
	if documentID == "" {
		return fmt.Errorf("document_id not found in task payload")
	}

	release, err := w.acquireLock(ctx, "index:"+documentID)
	if err != nil {
		return err
	}
	defer release()

	if err := w.documentService.Delete(ctx, documentID); err != nil {
		// Already gone counts as done
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}

	return nil
}

// acquireLock takes the distributed lock for a key when a lock backend is
// configured. The returned release func is always safe to call.
func (w *Worker) acquireLock(ctx context.Context, key string) (func(), error) {
	if w.lock == nil {
		return func() {}, nil
	}

	acquired, err := w.lock.Acquire(ctx, key, lockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", key, err)
	}
	if !acquired {
		return nil, fmt.Errorf("document is being processed by another worker")
	}

	return func() {
		if err := w.lock.Release(context.Background(), key); err != nil {
			w.logger.Warn("failed to release lock", "key", key, "error", err)
		}
	}, nil
}

// payloadInt reads an int payload value, returning 0 when absent or invalid.
func payloadInt(payload map[string]string, key string) int {
	if payload == nil {
		return 0
	}
	v, err := strconv.Atoi(payload[key])
	if err != nil {
		return 0
	}
	return v
}

// Health returns health status of the worker.
type Health struct {
	Running     bool   `json:"running"`
	QueueHealth bool   `json:"queue_health"`
	Error       string `json:"error,omitempty"`
}

// Health returns the health status of the worker.
func (w *Worker) Health(ctx context.Context) Health {
	w.mu.RLock()
	running := w.running
	w.mu.RUnlock()

	health := Health{
		Running: running,
	}

	// Check queue health
	if err := w.taskQueue.Ping(ctx); err != nil {
		health.QueueHealth = false
		health.Error = err.Error()
	} else {
		health.QueueHealth = true
	}

	return health
}
