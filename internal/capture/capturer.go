package capture

import (
	"context"
	"log/slog"
	"sync/atomic"

	"odras.app/odras/common/logger"
	"odras.app/odras/internal/events"
	"odras.app/odras/internal/queue"
)

// Service is the capture surface exposed to producers (the ingress
// middleware and the DAS layer). Every method is fire-and-forget: it
// returns whether the event reached the queue and never returns an error
// or panics, because callers sit in the middle of an HTTP response.
type Service interface {
	CaptureProjectOperation(ctx context.Context, actor events.Actor, projectID, operation string, details map[string]any, responseTimeMS float64) bool
	CaptureOntologyOperation(ctx context.Context, actor events.Actor, projectID, operation string, details map[string]any, responseTimeMS float64) bool
	CaptureFileOperation(ctx context.Context, actor events.Actor, projectID, operation string, details map[string]any, responseTimeMS float64) bool
	CaptureWorkflowOperation(ctx context.Context, actor events.Actor, projectID, operation string, details map[string]any, responseTimeMS float64) bool
	CaptureDASInteraction(ctx context.Context, actor events.Actor, projectID, interaction string, details map[string]any, responseTimeMS float64) bool
	CaptureKnowledgeAssetCreated(ctx context.Context, actor events.Actor, projectID string, details map[string]any, responseTimeMS float64) bool
	CaptureKnowledgeAssetUpdated(ctx context.Context, actor events.Actor, projectID string, details map[string]any, responseTimeMS float64) bool
	CaptureKnowledgeAssetPublished(ctx context.Context, actor events.Actor, projectID string, details map[string]any, responseTimeMS float64) bool
	CaptureKnowledgeSearch(ctx context.Context, actor events.Actor, projectID string, details map[string]any, responseTimeMS float64) bool
	CaptureRAGQuery(ctx context.Context, actor events.Actor, projectID string, details map[string]any, responseTimeMS float64) bool
}

// Capturer builds enriched Event records from domain operation data and
// enqueues them. It is safe for concurrent use.
type Capturer struct {
	queue    queue.Queue
	logger   *slog.Logger
	captured atomic.Int64
}

func New(q queue.Queue, log *slog.Logger) *Capturer {
	if log == nil {
		log = slog.Default()
	}
	return &Capturer{queue: q, logger: log}
}

// Captured reports how many events this capturer has enqueued.
func (c *Capturer) Captured() int64 {
	return c.captured.Load()
}

func (c *Capturer) CaptureProjectOperation(ctx context.Context, actor events.Actor, projectID, operation string, details map[string]any, responseTimeMS float64) bool {
	eventType, ok := projectEventType(operation)
	if !ok {
		c.logger.WarnContext(ctx, "unknown project operation", "operation", operation)
		return false
	}
	summary := projectSummary(actor.Username, operation, details)
	return c.capture(ctx, eventType, actor, projectID, summary, details, "project", responseTimeMS)
}

func (c *Capturer) CaptureOntologyOperation(ctx context.Context, actor events.Actor, projectID, operation string, details map[string]any, responseTimeMS float64) bool {
	eventType, ok := ontologyEventType(operation, details)
	if !ok {
		c.logger.WarnContext(ctx, "unknown ontology operation", "operation", operation)
		return false
	}
	summary := ontologySummary(actor.Username, operation, details)
	return c.capture(ctx, eventType, actor, projectID, summary, details, "ontology", responseTimeMS)
}

func (c *Capturer) CaptureFileOperation(ctx context.Context, actor events.Actor, projectID, operation string, details map[string]any, responseTimeMS float64) bool {
	eventType, ok := fileEventType(operation)
	if !ok {
		c.logger.WarnContext(ctx, "unknown file operation", "operation", operation)
		return false
	}
	summary := fileSummary(actor.Username, operation, details)
	return c.capture(ctx, eventType, actor, projectID, summary, details, "files", responseTimeMS)
}

func (c *Capturer) CaptureWorkflowOperation(ctx context.Context, actor events.Actor, projectID, operation string, details map[string]any, responseTimeMS float64) bool {
	eventType, ok := workflowEventType(operation)
	if !ok {
		c.logger.WarnContext(ctx, "unknown workflow operation", "operation", operation)
		return false
	}
	summary := workflowSummary(actor.Username, operation, details)
	return c.capture(ctx, eventType, actor, projectID, summary, details, "workflow", responseTimeMS)
}

func (c *Capturer) CaptureDASInteraction(ctx context.Context, actor events.Actor, projectID, interaction string, details map[string]any, responseTimeMS float64) bool {
	eventType, ok := dasEventType(interaction)
	if !ok {
		c.logger.WarnContext(ctx, "unknown das interaction", "interaction", interaction)
		return false
	}
	summary := dasSummary(actor.Username, interaction, details)
	return c.capture(ctx, eventType, actor, projectID, summary, details, "das", responseTimeMS)
}

func (c *Capturer) CaptureKnowledgeAssetCreated(ctx context.Context, actor events.Actor, projectID string, details map[string]any, responseTimeMS float64) bool {
	summary := knowledgeAssetSummary(actor.Username, "created", details)
	return c.capture(ctx, events.KnowledgeAssetCreated, actor, projectID, summary, details, "knowledge", responseTimeMS)
}

func (c *Capturer) CaptureKnowledgeAssetUpdated(ctx context.Context, actor events.Actor, projectID string, details map[string]any, responseTimeMS float64) bool {
	summary := knowledgeAssetSummary(actor.Username, "updated", details)
	return c.capture(ctx, events.KnowledgeAssetUpdated, actor, projectID, summary, details, "knowledge", responseTimeMS)
}

func (c *Capturer) CaptureKnowledgeAssetPublished(ctx context.Context, actor events.Actor, projectID string, details map[string]any, responseTimeMS float64) bool {
	summary := knowledgeAssetSummary(actor.Username, "published", details)
	return c.capture(ctx, events.KnowledgeAssetPublished, actor, projectID, summary, details, "knowledge", responseTimeMS)
}

func (c *Capturer) CaptureKnowledgeSearch(ctx context.Context, actor events.Actor, projectID string, details map[string]any, responseTimeMS float64) bool {
	summary := knowledgeSearchSummary(actor.Username, details)
	return c.capture(ctx, events.KnowledgeSearch, actor, projectID, summary, details, "knowledge", responseTimeMS)
}

func (c *Capturer) CaptureRAGQuery(ctx context.Context, actor events.Actor, projectID string, details map[string]any, responseTimeMS float64) bool {
	summary := ragQuerySummary(actor.Username, details)
	return c.capture(ctx, events.KnowledgeRAGQuery, actor, projectID, summary, details, "knowledge", responseTimeMS)
}

// capture is the single error boundary for the whole capture surface:
// it converts every failure, panics included, into a logged false so the
// originating request path is never affected.
func (c *Capturer) capture(ctx context.Context, eventType events.EventType, actor events.Actor, projectID, summary string, details map[string]any, area string, responseTimeMS float64) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.ErrorContext(ctx, "panic recovered in event capture",
				"panic", r,
				"event_type", eventType)
			ok = false
		}
	}()

	evt := events.New(eventType, actor, projectID, summary, details)
	evt.Context = map[string]string{"area": area, "source": "api"}
	evt.ResponseTimeMS = responseTimeMS

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component: "odras.capture",
		EventID:   logger.Ptr(evt.EventID),
		EventType: logger.Ptr(string(eventType)),
	})

	if err := c.queue.Push(ctx, evt); err != nil {
		c.logger.ErrorContext(ctx, "failed to enqueue event", "error", err)
		return false
	}

	c.captured.Add(1)
	c.logger.DebugContext(ctx, "event captured", "summary", summary)
	return true
}

func projectEventType(operation string) (events.EventType, bool) {
	switch operation {
	case "created":
		return events.ProjectCreated, true
	case "updated":
		return events.ProjectUpdated, true
	case "deleted":
		return events.ProjectDeleted, true
	}
	return "", false
}

func ontologyEventType(operation string, details map[string]any) (events.EventType, bool) {
	// Class-level operations share the ontology family but carry a
	// class_name detail.
	if detailString(details, "class_name") != "" {
		switch operation {
		case "created", "added":
			return events.ClassCreated, true
		case "modified", "updated":
			return events.ClassModified, true
		case "deleted":
			return events.ClassDeleted, true
		}
		return "", false
	}
	switch operation {
	case "created":
		return events.OntologyCreated, true
	case "modified", "updated":
		return events.OntologyModified, true
	case "deleted":
		return events.OntologyDeleted, true
	}
	return "", false
}

func fileEventType(operation string) (events.EventType, bool) {
	switch operation {
	case "uploaded":
		return events.FileUploaded, true
	case "deleted":
		return events.FileDeleted, true
	case "processed":
		return events.FileProcessed, true
	}
	return "", false
}

func workflowEventType(operation string) (events.EventType, bool) {
	switch operation {
	case "started":
		return events.WorkflowStarted, true
	case "completed":
		return events.WorkflowCompleted, true
	case "failed":
		return events.WorkflowFailed, true
	}
	return "", false
}

func dasEventType(interaction string) (events.EventType, bool) {
	switch interaction {
	case "question":
		return events.DASQuestion, true
	case "response":
		return events.DASResponse, true
	case "command":
		return events.DASCommand, true
	}
	return "", false
}
