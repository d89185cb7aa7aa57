package routing

import (
	"odras.app/odras/internal/events"
	"odras.app/odras/internal/thread"
)

// ThreadEventType projects a capture-side event type into the thread-side
// vocabulary. The switch is exhaustive over the closed enumeration so that
// adding a capture type forces a mapping decision here; the generic
// command fallback is only reachable for values outside the enum, which
// Decode already rejects.
func ThreadEventType(t events.EventType) thread.Type {
	switch t {
	case events.ProjectCreated, events.ProjectUpdated, events.ProjectDeleted:
		return thread.TypeProjectManagement
	case events.OntologyCreated, events.OntologyModified, events.OntologyDeleted,
		events.ClassCreated, events.ClassModified, events.ClassDeleted:
		return thread.TypeOntologyChange
	case events.FileUploaded, events.FileDeleted, events.FileProcessed:
		return thread.TypeFileOperation
	case events.WorkflowStarted, events.WorkflowCompleted, events.WorkflowFailed:
		return thread.TypeWorkflowExecution
	case events.DASQuestion, events.DASResponse, events.DASCommand:
		return thread.TypeDASInteraction
	case events.KnowledgeAssetCreated, events.KnowledgeAssetUpdated, events.KnowledgeAssetPublished:
		return thread.TypeKnowledgeManagement
	case events.KnowledgeSearch, events.KnowledgeRAGQuery:
		return thread.TypeSearchOperation
	}
	return thread.TypeCommand
}
