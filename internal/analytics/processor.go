package analytics

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"Shortly-Backend/internal/repository"

	"go.uber.org/zap"
)

// ClickData is one queued analytics job.
type ClickData struct {
	Code    string
	Request RequestContext
}

// ProcessorConfig holds configuration for the analytics processor.
type ProcessorConfig struct {
	WorkerCount     int           // Number of worker goroutines
	BufferSize      int           // Size of the job queue buffer
	RetryAttempts   int           // Number of retry attempts for failed jobs
	RetryDelay      time.Duration // Base delay between retries
	ShutdownTimeout time.Duration // Time to wait for graceful shutdown
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() ProcessorConfig {
	return ProcessorConfig{
		WorkerCount:     3,
		BufferSize:      1000,
		RetryAttempts:   3,
		RetryDelay:      time.Second,
		ShutdownTimeout: 30 * time.Second,
	}
}

// Processor appends analytics events asynchronously so redirects never wait
// on the store's read-modify-write. It retries transient failures; events for
// codes that no longer exist are dropped.
type Processor struct {
	config   ProcessorConfig
	recorder *Recorder
	log      *zap.Logger
	jobQueue chan *ClickData
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
	started  bool
	mu       sync.RWMutex
}

// NewProcessor creates a new analytics processor.
func NewProcessor(recorder *Recorder, log *zap.Logger, config ProcessorConfig) *Processor {
	ctx, cancel := context.WithCancel(context.Background())

	return &Processor{
		config:   config,
		recorder: recorder,
		log:      log,
		jobQueue: make(chan *ClickData, config.BufferSize),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start begins processing analytics data.
func (p *Processor) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return fmt.Errorf("processor already started")
	}

	p.log.Info("starting analytics processor",
		zap.Int("workers", p.config.WorkerCount),
		zap.Int("buffer_size", p.config.BufferSize),
	)

	for i := 0; i < p.config.WorkerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	p.started = true
	return nil
}

// Stop gracefully shuts down the processor, draining the queue.
func (p *Processor) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return fmt.Errorf("processor not started")
	}

	p.log.Info("stopping analytics processor")

	p.cancel()
	close(p.jobQueue)

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.log.Info("analytics processor stopped gracefully")
	case <-time.After(p.config.ShutdownTimeout):
		p.log.Warn("analytics processor shutdown timeout reached")
		return fmt.Errorf("shutdown timeout reached")
	}

	p.started = false
	return nil
}

// Record enqueues a click for asynchronous recording. It satisfies the same
// contract as Recorder.Record: failures never reach the redirect path.
func (p *Processor) Record(_ context.Context, code string, req RequestContext) {
	if req.Time.IsZero() {
		req.Time = time.Now()
	}
	if err := p.submit(&ClickData{Code: code, Request: req}); err != nil {
		p.log.Error("failed to submit click for processing",
			zap.String("short_code", code),
			zap.Error(err))
	}
}

func (p *Processor) submit(clickData *ClickData) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.started {
		return fmt.Errorf("processor not started")
	}

	select {
	case p.jobQueue <- clickData:
		return nil
	case <-p.ctx.Done():
		return fmt.Errorf("processor is shutting down")
	default:
		return fmt.Errorf("analytics queue is full (len %d)", len(p.jobQueue))
	}
}

// worker processes analytics jobs with retry logic.
func (p *Processor) worker(workerID int) {
	defer p.wg.Done()

	log := p.log.With(zap.Int("worker_id", workerID))
	log.Debug("analytics worker started")

	for clickData := range p.jobQueue {
		p.processWithRetry(log, clickData)
	}

	log.Debug("analytics worker stopped")
}

// processWithRetry appends a single click with exponential backoff.
func (p *Processor) processWithRetry(log *zap.Logger, clickData *ClickData) {
	var lastErr error

	for attempt := 1; attempt <= p.config.RetryAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := p.recorder.Append(ctx, clickData.Code, clickData.Request)
		cancel()

		if err == nil {
			if attempt > 1 {
				log.Info("click recording succeeded after retry",
					zap.String("short_code", clickData.Code),
					zap.Int("attempt", attempt))
			}
			return
		}

		// The link is gone; retrying cannot help.
		if errors.Is(err, repository.ErrCodeNotFound) {
			log.Warn("dropping click for unknown short code", zap.String("short_code", clickData.Code))
			return
		}

		lastErr = err
		log.Warn("click recording failed",
			zap.String("short_code", clickData.Code),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", p.config.RetryAttempts),
			zap.Error(err))

		if attempt == p.config.RetryAttempts {
			break
		}

		delay := p.config.RetryDelay * time.Duration(1<<(attempt-1))
		select {
		case <-time.After(delay):
		case <-p.ctx.Done():
			log.Info("worker shutdown during retry delay")
			return
		}
	}

	log.Error("click recording failed after all retries",
		zap.String("short_code", clickData.Code),
		zap.Int("attempts", p.config.RetryAttempts),
		zap.Error(lastErr))
}

// Stats returns processor statistics for the metrics endpoint.
func (p *Processor) Stats() map[string]interface{} {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return map[string]interface{}{
		"started":        p.started,
		"queue_length":   len(p.jobQueue),
		"queue_capacity": cap(p.jobQueue),
		"worker_count":   p.config.WorkerCount,
	}
}
