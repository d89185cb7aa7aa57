package logger

import "context"

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields contains structured fields automatically added to all logs
// within a context. Business context (project_id, event_id, ...) set once
// flows into every log statement underneath.
type LogFields struct {
	ProjectID *string // project the operation belongs to
	EventID   *string // capture event identifier
	EventType *string // capture event type (e.g. "file_uploaded")
	ThreadID  *string // project thread identifier
	UserID    *string // acting user
	Component string  // component name (e.g. "odras.capture")
}

// WithLogFields enriches context with structured log fields. Multiple
// calls merge, with newer non-nil/non-empty values taking precedence.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	merged := mergeFields(GetLogFields(ctx), fields)
	return context.WithValue(ctx, logFieldsKey, merged)
}

// GetLogFields retrieves log fields from context, empty if none are set.
func GetLogFields(ctx context.Context) LogFields {
	if fields, ok := ctx.Value(logFieldsKey).(LogFields); ok {
		return fields
	}
	return LogFields{}
}

func mergeFields(existing, update LogFields) LogFields {
	result := existing

	if update.ProjectID != nil {
		result.ProjectID = update.ProjectID
	}
	if update.EventID != nil {
		result.EventID = update.EventID
	}
	if update.EventType != nil {
		result.EventType = update.EventType
	}
	if update.ThreadID != nil {
		result.ThreadID = update.ThreadID
	}
	if update.UserID != nil {
		result.UserID = update.UserID
	}
	if update.Component != "" {
		result.Component = update.Component
	}

	return result
}

// Ptr creates a pointer from a value, for setting LogFields inline.
func Ptr[T any](v T) *T {
	return &v
}

// Truncate truncates a string to maxLen characters, appending "..." when
// truncated. Useful for logging long queries or error messages.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
