package dto

import "time"

type AskRequest struct {
	Question  string `json:"question" binding:"required"`
	ProjectID string `json:"project_id"`
}

type AskResponse struct {
	Answer     string   `json:"answer"`
	Confidence string   `json:"confidence,omitempty"`
	Sources    []string `json:"sources,omitempty"`
}

type CreateThreadRequest struct {
	ProjectID string `json:"project_id" binding:"required"`
}

type ThreadResponse struct {
	ThreadID  string    `json:"thread_id"`
	ProjectID string    `json:"project_id"`
	CreatedAt time.Time `json:"created_at"`
}

type StartWorkflowRequest struct {
	ProjectID    string         `json:"project_id"`
	WorkflowName string         `json:"workflow_name" binding:"required"`
	Parameters   map[string]any `json:"parameters"`
}

type StartWorkflowResponse struct {
	WorkflowID   string `json:"workflow_id"`
	WorkflowName string `json:"workflow_name"`
	Status       string `json:"status"`
}

type OntologyRequest struct {
	ProjectID    string `json:"project_id"`
	OntologyName string `json:"ontology_name" binding:"required"`
	ClassName    string `json:"class_name,omitempty"`
}

type OntologyResponse struct {
	OntologyName string `json:"ontology_name"`
	ClassName    string `json:"class_name,omitempty"`
	Status       string `json:"status"`
}
