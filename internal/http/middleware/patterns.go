package middleware

import (
	"fmt"
	"strings"

	"odras.app/odras/internal/events"
)

// Pattern is one capture rule: an HTTP method plus a compiled path template
// whose dynamic segments are named (`/api/projects/{project_id}`). Template
// matching replaces the older "segment count + known prefix" heuristic,
// which both under- and over-matched on unlisted collections.
type Pattern struct {
	Method    string
	Template  string
	Operation events.EventType

	segments []segment
}

type segment struct {
	literal string
	param   string // non-empty for {named} segments
}

// CompilePattern parses a template. Templates are static configuration, so
// a malformed one is a programming error and panics at startup.
func CompilePattern(method, template string, op events.EventType) Pattern {
	parts := strings.Split(strings.Trim(template, "/"), "/")
	segments := make([]segment, 0, len(parts))
	for _, part := range parts {
		if strings.HasPrefix(part, "{") && strings.HasSuffix(part, "}") {
			name := part[1 : len(part)-1]
			if name == "" {
				panic(fmt.Sprintf("capture pattern %q has an unnamed segment", template))
			}
			segments = append(segments, segment{param: name})
			continue
		}
		if strings.ContainsAny(part, "{}") {
			panic(fmt.Sprintf("capture pattern %q has a malformed segment %q", template, part))
		}
		segments = append(segments, segment{literal: part})
	}
	return Pattern{
		Method:    method,
		Template:  template,
		Operation: op,
		segments:  segments,
	}
}

// Match reports whether the method and path satisfy the pattern, returning
// the extracted dynamic segment values.
func (p Pattern) Match(method, path string) (map[string]string, bool) {
	if method != p.Method {
		return nil, false
	}
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != len(p.segments) {
		return nil, false
	}

	var params map[string]string
	for i, seg := range p.segments {
		if seg.param != "" {
			if parts[i] == "" {
				return nil, false
			}
			if params == nil {
				params = make(map[string]string)
			}
			params[seg.param] = parts[i]
			continue
		}
		if parts[i] != seg.literal {
			return nil, false
		}
	}
	return params, true
}

// Table holds the capture patterns in declaration order; first match wins.
type Table struct {
	patterns []Pattern
}

func NewTable(patterns []Pattern) *Table {
	return &Table{patterns: patterns}
}

func (t *Table) Match(method, path string) (Pattern, map[string]string, bool) {
	for _, p := range t.patterns {
		if params, ok := p.Match(method, path); ok {
			return p, params, true
		}
	}
	return Pattern{}, nil, false
}

// DefaultPatterns is the capture pattern table for the ODRAS API surface.
func DefaultPatterns() []Pattern {
	return []Pattern{
		CompilePattern("POST", "/api/projects", events.ProjectCreated),
		CompilePattern("PUT", "/api/projects/{project_id}", events.ProjectUpdated),
		CompilePattern("DELETE", "/api/projects/{project_id}", events.ProjectDeleted),

		CompilePattern("POST", "/api/ontology", events.OntologyCreated),
		CompilePattern("PUT", "/api/ontology", events.OntologyModified),
		CompilePattern("POST", "/api/ontology/classes", events.ClassCreated),

		CompilePattern("POST", "/api/files/upload", events.FileUploaded),
		CompilePattern("DELETE", "/api/files/{file_id}", events.FileDeleted),

		CompilePattern("POST", "/api/knowledge/assets", events.KnowledgeAssetCreated),
		CompilePattern("PUT", "/api/knowledge/assets/{asset_id}", events.KnowledgeAssetUpdated),
		CompilePattern("POST", "/api/knowledge/assets/{asset_id}/publish", events.KnowledgeAssetPublished),
		CompilePattern("POST", "/api/knowledge/search", events.KnowledgeSearch),
		CompilePattern("POST", "/api/knowledge/query", events.KnowledgeRAGQuery),

		CompilePattern("POST", "/api/workflows/start", events.WorkflowStarted),

		CompilePattern("POST", "/api/das/ask", events.DASQuestion),
	}
}
