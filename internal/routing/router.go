package routing

import (
	"context"
	"errors"
	"log/slog"

	"odras.app/odras/common/logger"
	"odras.app/odras/internal/events"
	"odras.app/odras/internal/thread"
)

// CapturedBy tags routed thread entries with the system that recorded them.
const CapturedBy = "event_capture"

// Engine is a ranked delivery target: a consumer engine identified by name
// whose thread manager the router may read and append to. A nil Threads
// field marks the engine unavailable.
type Engine struct {
	Name    string
	Threads thread.Manager
}

// Router decides if and where a dequeued event is delivered. Delivery is
// best-effort across the ranked engines; an event that cannot be delivered
// anywhere stays in the audit trail only.
type Router struct {
	engines []Engine
	logger  *slog.Logger
}

// New builds a router over the ranked engine list, primary first.
func New(engines []Engine, log *slog.Logger) *Router {
	if log == nil {
		log = slog.Default()
	}
	return &Router{engines: engines, logger: log}
}

// Route attempts delivery and reports whether any engine accepted the
// event. "Not routed" is a normal outcome, never an error: events without
// a project, and projects without a thread, are expected.
func (r *Router) Route(ctx context.Context, evt *events.Event) bool {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component: "odras.routing",
		EventID:   logger.Ptr(evt.EventID),
		EventType: logger.Ptr(string(evt.EventType)),
	})

	if evt.ProjectID == "" {
		r.logger.DebugContext(ctx, "event has no project, not routed")
		return false
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{ProjectID: logger.Ptr(evt.ProjectID)})

	for _, engine := range r.engines {
		if r.deliver(ctx, engine, evt) {
			return true
		}
	}

	r.logger.DebugContext(ctx, "no engine accepted event, not routed")
	return false
}

// deliver runs the per-engine algorithm. Every failure mode, including a
// panic out of an engine's thread manager, degrades to "try next engine".
func (r *Router) deliver(ctx context.Context, engine Engine, evt *events.Event) (ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.DebugContext(ctx, "panic recovered during delivery",
				"engine", engine.Name,
				"panic", rec)
			ok = false
		}
	}()

	if engine.Threads == nil {
		r.logger.DebugContext(ctx, "engine unavailable", "engine", engine.Name)
		return false
	}

	th, err := engine.Threads.GetThread(ctx, evt.ProjectID)
	if err != nil {
		if errors.Is(err, thread.ErrNotFound) {
			// Capture never creates threads; a missing thread means this
			// engine simply is not ready for the project yet.
			r.logger.DebugContext(ctx, "no thread for project", "engine", engine.Name)
		} else {
			r.logger.DebugContext(ctx, "thread lookup failed", "engine", engine.Name, "error", err)
		}
		return false
	}

	entry := thread.Entry{
		ActorID:    evt.Actor.UserID,
		EventType:  ThreadEventType(evt.EventType),
		Summary:    evt.Summary,
		Data:       evt.Details,
		CapturedBy: CapturedBy,
		CapturedAt: evt.Timestamp,
	}
	if err := engine.Threads.AppendEvent(ctx, th, entry); err != nil {
		r.logger.DebugContext(ctx, "append failed", "engine", engine.Name, "error", err)
		return false
	}

	r.logger.DebugContext(ctx, "event routed", "engine", engine.Name, "thread_id", th.ID)
	return true
}
