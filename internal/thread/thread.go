package thread

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound reports that a project has no conversation thread yet. This
// is an expected state early in a project's lifecycle, not a failure.
var ErrNotFound = errors.New("project thread not found")

// ErrAlreadyExists reports that a project already has a thread. Threads are
// one-per-project.
var ErrAlreadyExists = errors.New("project thread already exists")

// Type is the consumer-side event vocabulary used inside project threads.
type Type string

const (
	TypeProjectManagement   Type = "project_management"
	TypeOntologyChange      Type = "ontology_change"
	TypeFileOperation       Type = "file_operation"
	TypeWorkflowExecution   Type = "workflow_execution"
	TypeDASInteraction      Type = "das_interaction"
	TypeKnowledgeManagement Type = "knowledge_management"
	TypeSearchOperation     Type = "search_operation"
	TypeCommand             Type = "command"
)

// Thread is a per-project conversation record owned by a consumer engine.
type Thread struct {
	ID        string
	ProjectID string
	CreatedAt time.Time
}

// Entry is one event stored in a thread.
type Entry struct {
	ID         int64
	ThreadID   string
	ProjectID  string
	ActorID    string
	EventType  Type
	Summary    string
	Data       map[string]any
	CapturedBy string    // audit marker: which system recorded the entry
	CapturedAt time.Time // original capture timestamp, not append time
	CreatedAt  time.Time
}

// Manager is the read/append surface the event router is allowed to use.
// It deliberately has no thread-creation method: routing must never cause
// a thread to exist.
type Manager interface {
	// GetThread returns the project's thread, or ErrNotFound.
	GetThread(ctx context.Context, projectID string) (*Thread, error)
	// AppendEvent stores an entry in an existing thread.
	AppendEvent(ctx context.Context, th *Thread, entry Entry) error
}

// Bootstrapper creates threads. Only the DAS thread-bootstrap API holds
// one; the pipeline sees threads exclusively through Manager.
type Bootstrapper interface {
	CreateThread(ctx context.Context, projectID string) (*Thread, error)
}

// Reader exposes thread history for the DAS assistant's context building.
type Reader interface {
	RecentEvents(ctx context.Context, projectID string, limit int) ([]Entry, error)
}
