package events

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType is the closed set of operations the capture pipeline records.
type EventType string

const (
	ProjectCreated EventType = "project_created"
	ProjectUpdated EventType = "project_updated"
	ProjectDeleted EventType = "project_deleted"

	OntologyCreated  EventType = "ontology_created"
	OntologyModified EventType = "ontology_modified"
	OntologyDeleted  EventType = "ontology_deleted"

	ClassCreated  EventType = "class_created"
	ClassModified EventType = "class_modified"
	ClassDeleted  EventType = "class_deleted"

	FileUploaded  EventType = "file_uploaded"
	FileDeleted   EventType = "file_deleted"
	FileProcessed EventType = "file_processed"

	WorkflowStarted   EventType = "workflow_started"
	WorkflowCompleted EventType = "workflow_completed"
	WorkflowFailed    EventType = "workflow_failed"

	DASQuestion EventType = "das_question"
	DASResponse EventType = "das_response"
	DASCommand  EventType = "das_command"

	KnowledgeAssetCreated   EventType = "knowledge_asset_created"
	KnowledgeAssetUpdated   EventType = "knowledge_asset_updated"
	KnowledgeAssetPublished EventType = "knowledge_asset_published"
	KnowledgeSearch         EventType = "knowledge_search"
	KnowledgeRAGQuery       EventType = "knowledge_rag_query"
)

// All lists every member of the closed event type set, in declaration order.
func All() []EventType {
	return []EventType{
		ProjectCreated, ProjectUpdated, ProjectDeleted,
		OntologyCreated, OntologyModified, OntologyDeleted,
		ClassCreated, ClassModified, ClassDeleted,
		FileUploaded, FileDeleted, FileProcessed,
		WorkflowStarted, WorkflowCompleted, WorkflowFailed,
		DASQuestion, DASResponse, DASCommand,
		KnowledgeAssetCreated, KnowledgeAssetUpdated, KnowledgeAssetPublished,
		KnowledgeSearch, KnowledgeRAGQuery,
	}
}

func (t EventType) Valid() bool {
	for _, known := range All() {
		if t == known {
			return true
		}
	}
	return false
}

// Actor identifies who performed the captured operation. Anonymous events
// are not modeled: every event carries both fields.
type Actor struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// Event is an immutable audit record of a successfully completed domain
// operation, enriched with a human-readable summary at capture time.
// Construct one with New and treat it as read-only afterwards; the summary
// is never recomputed at consumption time.
type Event struct {
	EventID   string    `json:"event_id"`
	EventType EventType `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
	Actor     Actor     `json:"actor"`

	// ProjectID is optional. An event without one stays in the audit trail
	// but can never be routed to a project thread.
	ProjectID string `json:"project_id,omitempty"`

	Summary string            `json:"summary"`
	Details map[string]any    `json:"details,omitempty"`
	Context map[string]string `json:"context,omitempty"`

	// Performance fields, captured for later analytics.
	ResponseTimeMS float64 `json:"response_time_ms,omitempty"`
	Endpoint       string  `json:"endpoint,omitempty"`
	Method         string  `json:"method,omitempty"`
}

// New constructs an event with a fresh ID and capture timestamp.
func New(eventType EventType, actor Actor, projectID, summary string, details map[string]any) *Event {
	now := time.Now().UTC()
	return &Event{
		EventID:   NewID(eventType, now),
		EventType: eventType,
		Timestamp: now,
		Actor:     actor,
		ProjectID: projectID,
		Summary:   summary,
		Details:   details,
	}
}

// NewID builds the event identifier as {event_type}_{millisecond_timestamp}.
// Uniqueness is best-effort: two captures of the same type within the same
// millisecond collide, which is acceptable for an audit trail.
func NewID(eventType EventType, at time.Time) string {
	return fmt.Sprintf("%s_%d", eventType, at.UnixMilli())
}

// Encode serializes the event for queue transport.
func (e *Event) Encode() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encoding event %s: %w", e.EventID, err)
	}
	return data, nil
}

// Decode parses a queued event and verifies its type is a member of the
// closed enumeration. Timestamps survive the round trip at full precision.
func Decode(data []byte) (*Event, error) {
	var evt Event
	if err := json.Unmarshal(data, &evt); err != nil {
		return nil, fmt.Errorf("decoding event: %w", err)
	}
	if !evt.EventType.Valid() {
		return nil, fmt.Errorf("decoding event %s: unknown event type %q", evt.EventID, evt.EventType)
	}
	return &evt, nil
}
