package types

// ServersResponse wraps the list of declared servers returned by GET /servers.
type ServersResponse struct {
	// All persisted server configs.
	Servers []ServerConfig `json:"servers"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: server not found: llama-8b
	Error string `json:"error" example:"server not found: llama-8b"`
	// HTTP status code.
	// example: 404
	Code int `json:"code" example:"404"`
}

// ServerStatusResponse is returned by GET /servers/{id}/status.
type ServerStatusResponse struct {
	// Persisted server config, including current status and port.
	Server ServerConfig `json:"server"`
	// Milliseconds since the process started; zero when not running.
	// example: 60000
	UptimeMs int64 `json:"uptime_ms,omitempty" example:"60000"`
	// Most recent resource sample; absent when not running or not yet sampled.
	Stats *ProcessStats `json:"stats,omitempty"`
}

// EnqueueRequest is the payload accepted by POST /queue.
type EnqueueRequest struct {
	// Optional stable identity for the work item; generated when empty.
	// example: req-42
	RequestID string `json:"request_id,omitempty" example:"req-42"`
	// Opaque payload handed back to the consumer.
	Payload any `json:"payload,omitempty"`
	// Priority ranking; higher values are served first.
	// example: 5
	Priority int `json:"priority" example:"5"`
}

// EnqueueResponse echoes the accepted item's identity and position state.
type EnqueueResponse struct {
	// Identity of the queued item.
	// example: req-42
	RequestID string `json:"request_id" example:"req-42"`
	// Item status immediately after admission (always pending).
	// example: pending
	Status string `json:"status" example:"pending"`
}

// CompleteRequest is the payload accepted by POST /queue/{id}/complete.
type CompleteRequest struct {
	// Failure message when the consumer failed the item; empty means success.
	Error string `json:"error,omitempty"`
}

// PriorityUpdateRequest is the payload accepted by PATCH /queue/{id}/priority.
type PriorityUpdateRequest struct {
	// New priority ranking for the waiting item.
	// example: 9
	Priority int `json:"priority" example:"9"`
}

// QueueItemResponse is returned by GET /queue/{id} and PATCH /queue/{id}/priority.
type QueueItemResponse struct {
	// Identity of the item.
	// example: req-42
	RequestID string `json:"request_id" example:"req-42"`
	// Priority ranking; higher values are served first.
	// example: 5
	Priority int `json:"priority" example:"5"`
	// Lifecycle status: pending, processing, completed, or failed.
	// example: processing
	Status string `json:"status" example:"processing"`
	// RFC3339 timestamp of admission.
	QueuedAt string `json:"queued_at"`
	// RFC3339 timestamp of the dispatch transition; absent while pending.
	StartedAt string `json:"started_at,omitempty"`
	// Failure message recorded on completion; empty means no failure.
	Error string `json:"error,omitempty"`
}

// QueueStatusResponse is returned by GET /queue/status. Counts only, never payloads.
type QueueStatusResponse struct {
	// Items waiting for dispatch.
	// example: 3
	WaitingCount int `json:"waiting_count" example:"3"`
	// Items currently being processed.
	// example: 2
	ProcessingCount int `json:"processing_count" example:"2"`
	// Concurrency bound on the processing set.
	// example: 2
	MaxConcurrent int `json:"max_concurrent" example:"2"`
	// Bound on waiting + processing before enqueue is rejected.
	// example: 100
	MaxQueueSize int `json:"max_queue_size" example:"100"`
}
