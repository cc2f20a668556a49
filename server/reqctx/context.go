// Package reqctx holds the context keys used to thread request-scoped
// identifiers (request id, user id) from the HTTP middleware down into
// log lines, mirroring how the teacher threads account/request ids.
package reqctx

type contextKey string

const (
	// RequestIDKey tags the context with a per-request correlation id.
	RequestIDKey contextKey = "requestID"
	// UserIDKey tags the context with the authenticated (or path-embedded) user id.
	UserIDKey contextKey = "userID"
	// SourceKey tags the context with the log source (HTTP, SYSTEM, CLEANUP).
	SourceKey contextKey = "source"
)
