package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"odras.app/odras/internal/capture"
	"odras.app/odras/internal/events"
)

// EventCapture observes completed requests and feeds matching ones to the
// capture service. The original response is never delayed or failed by
// this middleware: capture runs strictly after the handler, and every
// failure inside it is swallowed and logged.
func EventCapture(svc capture.Service, table *Table, log *slog.Logger) gin.HandlerFunc {
	if log == nil {
		log = slog.Default()
	}
	return func(c *gin.Context) {
		pattern, params, matched := table.Match(c.Request.Method, c.Request.URL.Path)
		if !matched {
			c.Next()
			return
		}

		// Buffer the request body so the handler can still read it.
		var reqBody []byte
		if c.Request.Body != nil {
			reqBody, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewReader(reqBody))
		}

		writer := &bodyCaptureWriter{ResponseWriter: c.Writer}
		c.Writer = writer

		start := time.Now()
		c.Next()
		elapsedMS := float64(time.Since(start).Microseconds()) / 1000

		captureCompleted(c, svc, pattern, params, reqBody, writer.body.Bytes(), elapsedMS, log)
	}
}

// bodyCaptureWriter tees the response body so the capture step can extract
// result counts and identifiers from it.
type bodyCaptureWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bodyCaptureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyCaptureWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// captureCompleted is the middleware's error boundary: nothing below it may
// raise into the response path.
func captureCompleted(c *gin.Context, svc capture.Service, pattern Pattern, params map[string]string, reqBody, respBody []byte, elapsedMS float64, log *slog.Logger) {
	ctx := c.Request.Context()
	defer func() {
		if r := recover(); r != nil {
			log.ErrorContext(ctx, "panic recovered in event capture middleware",
				"panic", r,
				"path", c.Request.URL.Path)
		}
	}()

	if !isSuccess(c.Writer.Status()) {
		return
	}

	actor, ok := ActorFrom(ctx)
	if !ok {
		log.DebugContext(ctx, "no actor for captured operation, skipping",
			"operation", pattern.Operation)
		return
	}

	details := decodeBody(reqBody)
	response := decodeBody(respBody)
	enrichFromResponse(pattern.Operation, details, response)

	projectID := resolveProjectID(c, params, details, response)
	dispatch(ctx, svc, pattern.Operation, actor, projectID, details, elapsedMS)
}

var successStatuses = map[int]bool{
	http.StatusOK:        true,
	http.StatusCreated:   true,
	http.StatusAccepted:  true,
	http.StatusNoContent: true,
}

func isSuccess(status int) bool {
	return successStatuses[status]
}

func decodeBody(body []byte) map[string]any {
	out := make(map[string]any)
	if len(body) == 0 {
		return out
	}
	// Non-object bodies are ignored; capture details are best-effort.
	_ = json.Unmarshal(body, &out)
	return out
}

// enrichFromResponse copies response payload fields the summaries depend on
// into the detail map.
func enrichFromResponse(op events.EventType, details, response map[string]any) {
	switch op {
	case events.KnowledgeSearch, events.KnowledgeRAGQuery:
		countKey := "results_count"
		if op == events.KnowledgeRAGQuery {
			countKey = "chunks_found"
		}
		if v, ok := response[countKey]; ok {
			details[countKey] = v
		} else if results, ok := response["results"].([]any); ok {
			details[countKey] = len(results)
		}
		if sources, ok := response["sources"]; ok {
			details["sources"] = sources
		}
	case events.FileUploaded:
		for _, key := range []string{"filename", "size", "content_type"} {
			if _, present := details[key]; !present {
				if v, ok := response[key]; ok {
					details[key] = v
				}
			}
		}
	case events.KnowledgeAssetCreated:
		if v, ok := response["chunks_created"]; ok {
			details["chunks_created"] = v
		}
	}
}

// resolveProjectID looks for a project in the matched path parameters, the
// request payload, the query string, and finally the response payload (a
// freshly created project only has its ID in the response).
func resolveProjectID(c *gin.Context, params map[string]string, details, response map[string]any) string {
	if id := params["project_id"]; id != "" {
		return id
	}
	if id, ok := details["project_id"].(string); ok && id != "" {
		return id
	}
	if id := c.Query("project_id"); id != "" {
		return id
	}
	if id, ok := response["project_id"].(string); ok && id != "" {
		return id
	}
	if id, ok := response["id"].(string); ok && id != "" {
		return id
	}
	return ""
}

func dispatch(ctx context.Context, svc capture.Service, op events.EventType, actor events.Actor, projectID string, details map[string]any, elapsedMS float64) {
	switch op {
	case events.ProjectCreated:
		svc.CaptureProjectOperation(ctx, actor, projectID, "created", details, elapsedMS)
	case events.ProjectUpdated:
		svc.CaptureProjectOperation(ctx, actor, projectID, "updated", details, elapsedMS)
	case events.ProjectDeleted:
		svc.CaptureProjectOperation(ctx, actor, projectID, "deleted", details, elapsedMS)
	case events.OntologyCreated:
		svc.CaptureOntologyOperation(ctx, actor, projectID, "created", details, elapsedMS)
	case events.OntologyModified:
		svc.CaptureOntologyOperation(ctx, actor, projectID, "modified", details, elapsedMS)
	case events.ClassCreated:
		svc.CaptureOntologyOperation(ctx, actor, projectID, "created", details, elapsedMS)
	case events.FileUploaded:
		svc.CaptureFileOperation(ctx, actor, projectID, "uploaded", details, elapsedMS)
	case events.FileDeleted:
		svc.CaptureFileOperation(ctx, actor, projectID, "deleted", details, elapsedMS)
	case events.WorkflowStarted:
		svc.CaptureWorkflowOperation(ctx, actor, projectID, "started", details, elapsedMS)
	case events.DASQuestion:
		svc.CaptureDASInteraction(ctx, actor, projectID, "question", details, elapsedMS)
	case events.KnowledgeAssetCreated:
		svc.CaptureKnowledgeAssetCreated(ctx, actor, projectID, details, elapsedMS)
	case events.KnowledgeAssetUpdated:
		svc.CaptureKnowledgeAssetUpdated(ctx, actor, projectID, details, elapsedMS)
	case events.KnowledgeAssetPublished:
		svc.CaptureKnowledgeAssetPublished(ctx, actor, projectID, details, elapsedMS)
	case events.KnowledgeSearch:
		svc.CaptureKnowledgeSearch(ctx, actor, projectID, details, elapsedMS)
	case events.KnowledgeRAGQuery:
		svc.CaptureRAGQuery(ctx, actor, projectID, details, elapsedMS)
	}
}
