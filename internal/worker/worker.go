package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"odras.app/odras/internal/events"
	"odras.app/odras/internal/queue"
)

// Routing is the worker's view of the event router.
type Routing interface {
	Route(ctx context.Context, evt *events.Event) bool
}

// State tracks the worker lifecycle.
type State int32

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	}
	return "unknown"
}

type Config struct {
	// PopTimeout bounds each blocking dequeue.
	PopTimeout time.Duration
	// IdleInterval is the sleep between cycles when the queue is empty.
	IdleInterval time.Duration
	// ErrorBackoff is the longer sleep after a failed cycle.
	ErrorBackoff time.Duration
}

func (c Config) withDefaults() Config {
	if c.PopTimeout <= 0 {
		c.PopTimeout = time.Second
	}
	if c.IdleInterval <= 0 {
		c.IdleInterval = time.Second
	}
	if c.ErrorBackoff <= 0 {
		c.ErrorBackoff = 5 * time.Second
	}
	return c
}

// Worker is the single long-running loop that drains the event queue and
// hands each event to the router. A transient error backs the loop off;
// nothing makes it exit except Stop or context cancellation.
type Worker struct {
	queue  queue.Queue
	router Routing
	cfg    Config
	logger *slog.Logger

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc
	done   chan struct{}

	processed atomic.Int64
}

func New(q queue.Queue, router Routing, cfg Config, log *slog.Logger) *Worker {
	if log == nil {
		log = slog.Default()
	}
	return &Worker{
		queue:  q,
		router: router,
		cfg:    cfg.withDefaults(),
		logger: log,
	}
}

// Start launches the drain loop. Calling Start on a worker that is already
// running is a warned no-op, so at most one loop ever exists.
func (w *Worker) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != StateStopped {
		w.logger.WarnContext(ctx, "worker already started", "state", w.state.String())
		return
	}
	w.state = StateStarting

	loopCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})
	w.state = StateRunning

	go w.run(loopCtx, w.done)
	w.logger.InfoContext(ctx, "event worker started")
}

// Stop cancels the loop and waits for it to finish its current item.
// Safe to call when already stopped.
func (w *Worker) Stop(ctx context.Context) {
	w.mu.Lock()
	if w.state != StateRunning {
		w.mu.Unlock()
		return
	}
	w.state = StateStopping
	cancel, done := w.cancel, w.done
	w.mu.Unlock()

	cancel()
	select {
	case <-done:
	case <-ctx.Done():
		w.logger.WarnContext(ctx, "timed out waiting for worker to stop")
	}

	w.mu.Lock()
	w.state = StateStopped
	w.mu.Unlock()
	w.logger.InfoContext(ctx, "event worker stopped")
}

func (w *Worker) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Processed reports how many events the worker has handed to the router.
func (w *Worker) Processed() int64 {
	return w.processed.Load()
}

func (w *Worker) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		n, err := w.drain(ctx, 0)
		switch {
		case ctx.Err() != nil:
			return
		case err != nil:
			w.logger.ErrorContext(ctx, "drain cycle failed", "error", err)
			sleep(ctx, w.cfg.ErrorBackoff)
		case n == 0:
			sleep(ctx, w.cfg.IdleInterval)
		}
	}
}

// ProcessBatch drains up to maxEvents for operational or testing use,
// stopping early when the queue is empty.
func (w *Worker) ProcessBatch(ctx context.Context, maxEvents int) (int, error) {
	return w.drain(ctx, maxEvents)
}

// drain pops and routes events until the queue reports empty, the limit is
// reached, or the context is cancelled. An event that was already popped
// is always routed before cancellation is observed.
func (w *Worker) drain(ctx context.Context, limit int) (int, error) {
	count := 0
	for limit <= 0 || count < limit {
		evt, err := w.queue.BlockingPop(ctx, w.cfg.PopTimeout)
		if err != nil {
			return count, fmt.Errorf("dequeue: %w", err)
		}
		if evt == nil {
			return count, nil
		}

		if err := w.routeSafe(ctx, evt); err != nil {
			return count, err
		}
		w.processed.Add(1)
		count++

		if ctx.Err() != nil {
			return count, nil
		}
	}
	return count, nil
}

// routeSafe shields the loop from a panicking router: the panic becomes a
// cycle error, which the loop absorbs with its error backoff.
func (w *Worker) routeSafe(ctx context.Context, evt *events.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.ErrorContext(ctx, "panic recovered while routing",
				"panic", r,
				"event_id", evt.EventID)
			err = fmt.Errorf("routing %s: panic: %v", evt.EventID, r)
		}
	}()
	w.router.Route(ctx, evt)
	return nil
}

func sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
