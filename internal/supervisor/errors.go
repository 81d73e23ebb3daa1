package supervisor

import (
	"fmt"
	"time"
)

// notFoundError signals an unknown server id for 404 mapping.
type notFoundError struct{ id string }

func (e notFoundError) Error() string { return "server not found: " + e.id }

// ErrNotFound constructs a not-found error for id.
func ErrNotFound(id string) error { return notFoundError{id: id} }

// IsNotFound reports whether err indicates a missing server id.
func IsNotFound(err error) bool {
	_, ok := err.(notFoundError)
	return ok
}

// alreadyRunningError signals a start on a live server for 409 mapping.
type alreadyRunningError struct{ id string }

func (e alreadyRunningError) Error() string { return "server already running: " + e.id }

// ErrAlreadyRunning constructs an already-running error for id.
func ErrAlreadyRunning(id string) error { return alreadyRunningError{id: id} }

// IsAlreadyRunning reports whether err indicates the server has a live process.
func IsAlreadyRunning(err error) bool {
	_, ok := err.(alreadyRunningError)
	return ok
}

// cannotUpdateWhileRunningError rejects config replacement or deletion of a
// live server.
type cannotUpdateWhileRunningError struct{ id string }

func (e cannotUpdateWhileRunningError) Error() string {
	return "cannot update or delete server while running: " + e.id
}

// ErrCannotUpdateWhileRunning constructs the live-server config conflict error.
func ErrCannotUpdateWhileRunning(id string) error { return cannotUpdateWhileRunningError{id: id} }

// IsCannotUpdateWhileRunning reports whether err indicates a config change
// was refused because the server is live.
func IsCannotUpdateWhileRunning(err error) bool {
	_, ok := err.(cannotUpdateWhileRunningError)
	return ok
}

// portUnavailableError signals that no free port could be found.
type portUnavailableError struct {
	id   string
	port int
}

func (e portUnavailableError) Error() string {
	return fmt.Sprintf("no available port for server %s from %d", e.id, e.port)
}

// ErrPortUnavailable constructs a port allocation failure for id scanning from port.
func ErrPortUnavailable(id string, port int) error { return portUnavailableError{id: id, port: port} }

// IsPortUnavailable reports whether err indicates port allocation failed.
func IsPortUnavailable(err error) bool {
	_, ok := err.(portUnavailableError)
	return ok
}

// spawnError wraps a process start failure.
type spawnError struct {
	id    string
	cause error
}

func (e spawnError) Error() string { return fmt.Sprintf("spawn server %s: %v", e.id, e.cause) }
func (e spawnError) Unwrap() error { return e.cause }

// ErrSpawnFailed wraps cause as a spawn failure for id.
func ErrSpawnFailed(id string, cause error) error { return spawnError{id: id, cause: cause} }

// IsSpawnFailed reports whether err indicates the child process could not
// be started (including a lost port race surfacing at bind time).
func IsSpawnFailed(err error) bool {
	_, ok := err.(spawnError)
	return ok
}

// stopTimeoutError is non-fatal: the state machine still settles to a
// terminal status, but the caller learns the process had to be killed.
type stopTimeoutError struct {
	id      string
	timeout time.Duration
}

func (e stopTimeoutError) Error() string {
	return fmt.Sprintf("stop server %s: timed out after %s; process killed", e.id, e.timeout)
}

// ErrStopTimeout constructs a stop-timeout error for id with its bound.
func ErrStopTimeout(id string, timeout time.Duration) error {
	return stopTimeoutError{id: id, timeout: timeout}
}

// IsStopTimeout reports whether err indicates a stop exceeded its bound.
func IsStopTimeout(err error) bool {
	_, ok := err.(stopTimeoutError)
	return ok
}

// validationError carries a structured field + reason instead of the
// fragile match-on-message dispatch it replaces.
type validationError struct {
	field  string
	reason string
}

func (e validationError) Error() string { return "invalid config: " + e.field + ": " + e.reason }

// ErrValidation constructs a validation error for field.
func ErrValidation(field, reason string) error { return validationError{field: field, reason: reason} }

// IsValidation reports whether err indicates a rejected config (400 mapping).
func IsValidation(err error) bool {
	_, ok := err.(validationError)
	return ok
}
