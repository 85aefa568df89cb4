package worker

import (
	"context"
	"sync"
	"time"

	"github.com/adesina-dev/panelpay/internal/observability"
	"github.com/adesina-dev/panelpay/internal/service"
	"go.uber.org/zap"
)

// DispatchWorker submits pending orders in the background. It polls at a
// fixed interval; each run is an independent bounded batch, so concurrent
// instances only cost duplicate-submission log noise, never corruption.
type DispatchWorker struct {
	svc      *service.DispatchService
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewDispatchWorker constructs a worker with a default one-minute interval.
func NewDispatchWorker(svc *service.DispatchService) *DispatchWorker {
	return &DispatchWorker{
		svc:      svc,
		interval: time.Minute,
		stopCh:   make(chan struct{}),
	}
}

// WithInterval updates the poll interval.
func (w *DispatchWorker) WithInterval(interval time.Duration) *DispatchWorker {
	if interval > 0 {
		w.interval = interval
	}
	return w
}

// Start blocks and dispatches batches at the configured interval.
func (w *DispatchWorker) Start(ctx context.Context) {
	zap.L().Info("dispatch worker starting", zap.Duration("interval", w.interval))
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("dispatch worker context canceled")
			return
		case <-w.stopCh:
			zap.L().Info("dispatch worker stop signal received")
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

// Stop stops the running worker loop.
func (w *DispatchWorker) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
	})
}

// Run starts the worker in a goroutine and returns a stop function.
func (w *DispatchWorker) Run(ctx context.Context) func() {
	go w.Start(ctx)
	return w.Stop
}

// ProcessOnce dispatches a single batch immediately. Useful for the manual
// trigger endpoint and tests.
func (w *DispatchWorker) ProcessOnce(ctx context.Context) (service.DispatchResult, error) {
	return w.svc.ProcessPending(ctx)
}

func (w *DispatchWorker) runOnce(ctx context.Context) {
	result, err := w.svc.ProcessPending(ctx)
	if err != nil {
		observability.IncrementWorkerRun("dispatch", "failed")
		zap.L().Error("dispatch run failed", zap.Error(err))
		return
	}
	observability.IncrementWorkerRun("dispatch", "success")
	if result.Submitted > 0 || result.Failed > 0 {
		zap.L().Info("dispatch run finished",
			zap.Int("submitted", result.Submitted),
			zap.Int("failed", result.Failed),
			zap.Int("skipped", result.Skipped),
		)
	}
}
