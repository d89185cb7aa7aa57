package pipeline

import (
	"context"
	"log/slog"
	"sync/atomic"

	"odras.app/odras/internal/capture"
	"odras.app/odras/internal/events"
	"odras.app/odras/internal/queue"
	"odras.app/odras/internal/routing"
	"odras.app/odras/internal/worker"
)

// Pipeline is the process-wide context object owning the capture pipeline:
// capturer, queue, router, and worker. It replaces module-level singletons
// with an explicit Start/Shutdown lifecycle and is passed by reference to
// the middleware and the HTTP layer.
type Pipeline struct {
	capturer *capture.Capturer
	queue    queue.Queue
	router   *routing.Router
	worker   *worker.Worker
	logger   *slog.Logger

	initialized atomic.Bool
}

// Status is the administrative/health view of the pipeline.
type Status struct {
	Initialized         bool     `json:"initialized"`
	WorkerState         string   `json:"worker_state"`
	QueueDepth          int64    `json:"queue_depth"`
	CapturedCount       int64    `json:"captured_count"`
	ProcessedCount      int64    `json:"processed_count"`
	SupportedOperations []string `json:"supported_operations"`
}

func New(capturer *capture.Capturer, q queue.Queue, router *routing.Router, w *worker.Worker, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{
		capturer: capturer,
		queue:    q,
		router:   router,
		worker:   w,
		logger:   log,
	}
}

// Capturer exposes the capture surface for the ingress middleware and the
// DAS layer.
func (p *Pipeline) Capturer() capture.Service {
	return p.capturer
}

// Start launches the background worker. Must run before the first request.
func (p *Pipeline) Start(ctx context.Context) {
	p.worker.Start(ctx)
	p.initialized.Store(true)
	p.logger.InfoContext(ctx, "event pipeline started")
}

// Shutdown stops the worker, letting it finish its current item.
func (p *Pipeline) Shutdown(ctx context.Context) {
	p.initialized.Store(false)
	p.worker.Stop(ctx)
	p.logger.InfoContext(ctx, "event pipeline stopped")
}

// ProcessBatch drains up to maxEvents outside the worker's own cycle, for
// operational use.
func (p *Pipeline) ProcessBatch(ctx context.Context, maxEvents int) (int, error) {
	return p.worker.ProcessBatch(ctx, maxEvents)
}

func (p *Pipeline) Status(ctx context.Context) Status {
	depth, err := p.queue.Depth(ctx)
	if err != nil {
		p.logger.WarnContext(ctx, "failed to read queue depth", "error", err)
		depth = -1
	}

	supported := make([]string, 0, len(events.All()))
	for _, t := range events.All() {
		supported = append(supported, string(t))
	}

	return Status{
		Initialized:         p.initialized.Load(),
		WorkerState:         p.worker.State().String(),
		QueueDepth:          depth,
		CapturedCount:       p.capturer.Captured(),
		ProcessedCount:      p.worker.Processed(),
		SupportedOperations: supported,
	}
}
