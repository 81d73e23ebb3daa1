package httpapi

import (
	"encoding/json"
	"net/http"

	"runtimed/internal/queue"
	"runtimed/internal/supervisor"
	"runtimed/pkg/types"
)

// HTTPError allows services to provide an HTTP status code for an error.
type HTTPError interface {
	error
	StatusCode() int
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: msg, Code: status})
}

// statusForError maps well-known service errors to HTTP status codes.
// Unknown errors become 500.
func statusForError(err error) int {
	switch {
	case supervisor.IsNotFound(err):
		return http.StatusNotFound
	case supervisor.IsAlreadyRunning(err), supervisor.IsCannotUpdateWhileRunning(err):
		return http.StatusConflict
	case supervisor.IsValidation(err):
		return http.StatusBadRequest
	case queue.IsQueueFull(err):
		return http.StatusTooManyRequests
	case supervisor.IsSpawnFailed(err), supervisor.IsPortUnavailable(err), supervisor.IsStopTimeout(err):
		return http.StatusBadGateway
	}
	if he, ok := err.(HTTPError); ok {
		return he.StatusCode()
	}
	return http.StatusInternalServerError
}

// writeServiceError maps err through statusForError and records
// backpressure rejections.
func writeServiceError(w http.ResponseWriter, err error) {
	status := statusForError(err)
	if status == http.StatusTooManyRequests {
		IncrementBackpressure("queue_full")
	}
	writeJSONError(w, status, err.Error())
}
