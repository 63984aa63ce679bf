// Package jobs runs background work on a bounded goroutine pool. Its only
// consumer today is the schedule cache warmer, which re-primes a project's
// schedule after the project changes so the next read is a cache hit.
package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// WarmRequest asks the pool to rebuild one project's cached schedule.
type WarmRequest struct {
	ProjectID string
	Reason    string
	Attempt   int
	Enqueued  time.Time
}

// WarmFunc recomputes and caches the schedule for a project.
type WarmFunc func(ctx context.Context, projectID string) error

// WarmerConfig tunes the pool. Zero values fall back to sane defaults.
type WarmerConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
	Logger     *zap.Logger
}

// Warmer dispatches warm requests to a fixed set of workers.
type Warmer struct {
	warm WarmFunc

	workers    int
	maxRetries int
	retryDelay time.Duration
	logger     *zap.Logger

	requests chan WarmRequest
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	mu       sync.Mutex
	started  bool
}

// NewWarmer builds a warmer around the given recompute function.
func NewWarmer(warm WarmFunc, cfg WarmerConfig) *Warmer {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 4
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Warmer{
		warm:       warm,
		workers:    cfg.Workers,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		logger:     cfg.Logger,
		requests:   make(chan WarmRequest, cfg.BufferSize),
	}
}

// Start launches the workers. Safe to call once.
func (w *Warmer) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return
	}
	w.ctx, w.cancel = context.WithCancel(ctx)
	for i := 0; i < w.workers; i++ {
		w.wg.Add(1)
		go w.worker()
	}
	w.started = true
	w.logger.Sugar().Infow("schedule warmer started", "workers", w.workers)
}

// Stop cancels the workers and waits for them to drain.
func (w *Warmer) Stop() {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return
	}
	w.cancel()
	w.mu.Unlock()
	w.wg.Wait()
	w.logger.Sugar().Infow("schedule warmer stopped")
}

// Enqueue schedules a warm-up for the project. Non-blocking failure modes
// return an error so callers can log and move on; a cold cache is not fatal.
func (w *Warmer) Enqueue(projectID, reason string) error {
	w.mu.Lock()
	ctx := w.ctx
	started := w.started
	w.mu.Unlock()

	if !started {
		return fmt.Errorf("schedule warmer not started")
	}
	req := WarmRequest{ProjectID: projectID, Reason: reason, Enqueued: time.Now().UTC()}

	select {
	case <-ctx.Done():
		return fmt.Errorf("schedule warmer stopped: %w", ctx.Err())
	case w.requests <- req:
		return nil
	default:
		return fmt.Errorf("schedule warmer queue full")
	}
}

func (w *Warmer) worker() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case req := <-w.requests:
			if err := w.warm(w.ctx, req.ProjectID); err != nil {
				w.retry(req, err)
			}
		}
	}
}

func (w *Warmer) retry(req WarmRequest, err error) {
	req.Attempt++
	if req.Attempt > w.maxRetries {
		w.logger.Sugar().Errorw("schedule warm-up gave up",
			"project_id", req.ProjectID, "reason", req.Reason, "error", err)
		return
	}
	w.logger.Sugar().Warnw("schedule warm-up failed, retrying",
		"project_id", req.ProjectID, "attempt", req.Attempt, "error", err)

	go func(r WarmRequest) {
		timer := time.NewTimer(w.retryDelay)
		defer timer.Stop()
		select {
		case <-w.ctx.Done():
			return
		case <-timer.C:
			select {
			case w.requests <- r:
			default:
				w.logger.Sugar().Errorw("schedule warm-up requeue dropped", "project_id", r.ProjectID)
			}
		}
	}(req)
}
