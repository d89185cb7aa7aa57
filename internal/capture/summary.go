package capture

import (
	"fmt"
	"strings"
)

// Summary synthesis. Each builder composes a base "{actor} {verb} {target}"
// sentence and conditionally appends clauses depending on which detail
// fields are present. Downstream consumers (the DAS context builder)
// depend on these exact shapes, so the branching here is part of the
// capture contract, not cosmetic formatting.

const maxTextFragment = 50

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// formatSize renders a byte count as one-decimal KB or MB, switching at 1 MiB.
func formatSize(size int64) string {
	const mib = 1 << 20
	if size >= mib {
		return fmt.Sprintf("%.1f MB", float64(size)/float64(mib))
	}
	return fmt.Sprintf("%.1f KB", float64(size)/1024)
}

// contentTypeLabel maps a MIME type to a human label by case-insensitive
// substring match. Unknown types produce no label.
func contentTypeLabel(contentType string) string {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "pdf"):
		return "PDF document"
	case strings.Contains(ct, "word"):
		return "Word document"
	case strings.Contains(ct, "text"):
		return "Text file"
	default:
		return ""
	}
}

// resultsClause renders "(found N results)" or "(no results)", followed by
// up to the first two source titles and an "and N more" suffix.
func resultsClause(count int, sources []string) string {
	if count <= 0 {
		return " (no results)"
	}
	clause := fmt.Sprintf(" (found %d results)", count)
	if len(sources) == 0 {
		return clause
	}
	shown := sources
	if len(shown) > 2 {
		shown = shown[:2]
	}
	quoted := make([]string, len(shown))
	for i, s := range shown {
		quoted[i] = "'" + s + "'"
	}
	clause += " from " + strings.Join(quoted, ", ")
	if extra := len(sources) - 2; extra > 0 {
		clause += fmt.Sprintf(" and %d more", extra)
	}
	return clause
}

func projectSummary(username, operation string, details map[string]any) string {
	name := detailString(details, "name")
	summary := fmt.Sprintf("%s %s project '%s'", username, operation, name)
	if desc := detailString(details, "description"); desc != "" {
		summary += ": " + truncate(desc, maxTextFragment)
	}
	return summary
}

func ontologySummary(username, operation string, details map[string]any) string {
	ontology := detailString(details, "ontology_name")
	if class := detailString(details, "class_name"); class != "" {
		return fmt.Sprintf("%s %s class '%s' in ontology '%s'", username, operation, class, ontology)
	}
	summary := fmt.Sprintf("%s %s ontology '%s'", username, operation, ontology)
	if n := detailInt(details, "classes_affected"); n > 0 {
		summary += fmt.Sprintf(" (%d classes affected)", n)
	}
	return summary
}

func fileSummary(username, operation string, details map[string]any) string {
	filename := detailString(details, "filename")
	summary := fmt.Sprintf("%s %s '%s'", username, operation, filename)
	if size := detailInt64(details, "size"); size > 0 {
		summary += " (" + formatSize(size) + ")"
	}
	if label := contentTypeLabel(detailString(details, "content_type")); label != "" {
		summary += " - " + label
	}
	return summary
}

func workflowSummary(username, operation string, details map[string]any) string {
	name := detailString(details, "workflow_name")
	summary := fmt.Sprintf("%s %s workflow '%s'", username, operation, name)
	if reason := detailString(details, "failure_reason"); reason != "" {
		summary += ": " + truncate(reason, maxTextFragment)
	}
	return summary
}

func dasSummary(username, interaction string, details map[string]any) string {
	switch interaction {
	case "question":
		question := detailString(details, "question")
		return fmt.Sprintf("%s asked DAS: '%s'", username, truncate(question, maxTextFragment))
	case "response":
		summary := fmt.Sprintf("DAS responded to %s", username)
		if n := detailInt(details, "sources_used"); n > 0 {
			summary += fmt.Sprintf(" using %d sources", n)
		}
		return summary
	default:
		command := detailString(details, "command")
		return fmt.Sprintf("%s issued DAS command '%s'", username, truncate(command, maxTextFragment))
	}
}

func knowledgeAssetSummary(username, operation string, details map[string]any) string {
	title := detailString(details, "title")
	summary := fmt.Sprintf("%s %s knowledge asset '%s'", username, operation, title)
	if label := contentTypeLabel(detailString(details, "document_type")); label != "" {
		summary += " - " + label
	}
	if n := detailInt(details, "chunks_created"); n > 0 {
		summary += fmt.Sprintf(" (%d chunks)", n)
	}
	return summary
}

func knowledgeSearchSummary(username string, details map[string]any) string {
	query := detailString(details, "query")
	summary := fmt.Sprintf("%s searched knowledge for '%s'", username, truncate(query, maxTextFragment))
	return summary + resultsClause(detailInt(details, "results_count"), detailStrings(details, "sources"))
}

func ragQuerySummary(username string, details map[string]any) string {
	question := detailString(details, "question")
	summary := fmt.Sprintf("%s queried knowledge base: '%s'", username, truncate(question, maxTextFragment))
	return summary + resultsClause(detailInt(details, "chunks_found"), detailStrings(details, "sources"))
}

// Detail maps arrive from JSON request/response bodies, so numbers show up
// as float64 and lists as []any.

func detailString(details map[string]any, key string) string {
	if details == nil {
		return ""
	}
	if s, ok := details[key].(string); ok {
		return s
	}
	return ""
}

func detailInt(details map[string]any, key string) int {
	return int(detailInt64(details, key))
}

func detailInt64(details map[string]any, key string) int64 {
	if details == nil {
		return 0
	}
	switch v := details[key].(type) {
	case int:
		return int64(v)
	case int64:
		return v
	case float64:
		return int64(v)
	default:
		return 0
	}
}

func detailStrings(details map[string]any, key string) []string {
	if details == nil {
		return nil
	}
	switch v := details[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
