package ports

import "context"

// APIRequest describes one call to the ordering API.
type APIRequest struct {
	// Operation is the user-facing name of the flow, e.g. "Failed to fetch user".
	Operation string
	Method    string
	Path      string
	// Body is JSON-encoded when non-nil.
	Body any
}

// APIClient performs authenticated calls to the ordering API.
type APIClient interface {
	// Do acquires a token from tokens, performs req, and decodes a 2xx body into out
	// (out may be nil). Non-2xx responses fail with a RequestFailed error.
	Do(ctx context.Context, tokens TokenSource, req APIRequest, out any) error
}

// Notifier delivers transient user-facing notifications.
type Notifier interface {
	Success(message string)
	Error(message string)
}
