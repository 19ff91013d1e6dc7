package logger

import "context"

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields contains structured fields automatically added to all logs within
// a context. Fields flow through context enrichment so business context
// (comment_id, thread_id, recipient) shows up in every log statement without
// threading it through call sites.
type LogFields struct {
	CommentID *int64  // Comment being confirmed, flagged or moderated
	TargetID  *int64  // Content target the comment attaches to
	ThreadID  *int64  // Thread root comment ID
	Recipient *string // Notification recipient email
	MessageID *string // Redis stream message ID
	Component string  // Component name, e.g. "commentary.notify.fanout"
}

// WithLogFields enriches context with structured log fields.
// Multiple calls merge fields, with newer non-nil/non-empty values taking
// precedence. Context timeouts and cancellation are preserved.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	existing := GetLogFields(ctx)
	merged := mergeFields(existing, fields)
	return context.WithValue(ctx, logFieldsKey, merged)
}

// GetLogFields retrieves log fields from context.
// Returns empty LogFields if none are set.
func GetLogFields(ctx context.Context) LogFields {
	if fields, ok := ctx.Value(logFieldsKey).(LogFields); ok {
		return fields
	}
	return LogFields{}
}

func mergeFields(existing, next LogFields) LogFields {
	result := existing

	if next.CommentID != nil {
		result.CommentID = next.CommentID
	}
	if next.TargetID != nil {
		result.TargetID = next.TargetID
	}
	if next.ThreadID != nil {
		result.ThreadID = next.ThreadID
	}
	if next.Recipient != nil {
		result.Recipient = next.Recipient
	}
	if next.MessageID != nil {
		result.MessageID = next.MessageID
	}
	if next.Component != "" {
		result.Component = next.Component
	}

	return result
}

// Ptr is a helper to create a pointer from a value, for setting LogFields
// inline: logger.WithLogFields(ctx, logger.LogFields{CommentID: logger.Ptr(id)})
func Ptr[T any](v T) *T {
	return &v
}
