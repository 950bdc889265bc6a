package gitrepo

import (
	"errors"
	"fmt"
)

// NotFoundError is returned when the referenced repository, user, path or
// ref does not exist upstream.
type NotFoundError struct {
	Resource string // e.g. "repo acme/widgets", "user alice", "acme/widgets/docs/api.md"
	Ref      string // branch/tag/commit, empty for the default branch
}

// Error implements the error interface.
func (e NotFoundError) Error() string {
	if e.Ref != "" {
		return fmt.Sprintf("%s not found at ref %q", e.Resource, e.Ref)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// TransportError is returned for network, auth, rate-limit and
// malformed-response failures at the remote boundary.
type TransportError struct {
	Op     string // e.g. "list tree acme/widgets/docs"
	Status int    // HTTP status, 0 when the request never completed
	Err    error
}

// Error implements the error interface.
func (e TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: remote returned %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap exposes the underlying cause.
func (e TransportError) Unwrap() error { return e.Err }

// LocalIOError is returned when local directory or file creation fails
// during materialization.
type LocalIOError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e LocalIOError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Path, e.Err)
}

// Unwrap exposes the underlying cause.
func (e LocalIOError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf NotFoundError
	return errors.As(err, &nf)
}

// IsTransport reports whether err is (or wraps) a TransportError.
func IsTransport(err error) bool {
	var te TransportError
	return errors.As(err, &te)
}
