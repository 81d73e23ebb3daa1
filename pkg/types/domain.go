package types

import "time"

// ServerKind identifies which class of managed server a config describes.
type ServerKind string

const (
	// KindInferenceRuntime is a local model-serving runtime reached over HTTP.
	KindInferenceRuntime ServerKind = "inference-runtime"
	// KindBridgeServer is a protocol-bridge server fronting external tools.
	KindBridgeServer ServerKind = "bridge-server"
)

// ServerStatus is the persisted lifecycle status of a managed server.
type ServerStatus string

const (
	StatusStopped ServerStatus = "stopped"
	StatusRunning ServerStatus = "running"
	StatusError   ServerStatus = "error"
)

// SchemaVersion is the current on-disk version stamped onto ServerConfig records.
const SchemaVersion = 1

// ServerConfig is the declared configuration and last-known status of one
// managed server. Persisted by the store; mutated only through the supervisor.
type ServerConfig struct {
	// Stable identifier for the server.
	// example: llama-8b
	ID string `json:"id" example:"llama-8b"`
	// Human-friendly name.
	// example: Llama 8B (local)
	Name string `json:"name" example:"Llama 8B (local)"`
	// Server class: inference-runtime or bridge-server.
	// example: inference-runtime
	Kind ServerKind `json:"kind" example:"inference-runtime"`
	// Last persisted lifecycle status.
	// example: stopped
	Status ServerStatus `json:"status" example:"stopped"`
	// TCP port the server listens on. May be reassigned upward on start if occupied.
	// example: 30001
	Port int `json:"port" example:"30001"`
	// Absolute path to the model file (inference-runtime only).
	// example: /home/user/models/llama-8b.Q4_K_M.gguf
	ModelPath string `json:"model_path,omitempty" example:"/home/user/models/llama-8b.Q4_K_M.gguf"`
	// Context window size in tokens (inference-runtime only).
	// example: 4096
	ContextSize int `json:"context_size,omitempty" example:"4096"`
	// Maximum concurrent bridged calls (bridge-server only).
	// example: 4
	MaxConcurrent int `json:"max_concurrent,omitempty" example:"4"`
	// Per-call timeout in seconds (bridge-server only).
	// example: 30
	TimeoutSec int `json:"timeout_sec,omitempty" example:"30"`
	// Time of the most recent successful start.
	LastStarted *time.Time `json:"last_started,omitempty"`
	// Most recent start/exit error, if any.
	LastError string `json:"last_error,omitempty"`
	// On-disk record version.
	// example: 1
	SchemaVersion int `json:"schema_version" example:"1"`
}

// MemoryStats breaks down a sampled process memory snapshot.
type MemoryStats struct {
	// Resident set size in bytes.
	// example: 524288000
	Resident uint64 `json:"resident" example:"524288000"`
	// Total heap reserved by the process in bytes.
	// example: 805306368
	HeapTotal uint64 `json:"heap_total" example:"805306368"`
	// Heap bytes in active use.
	// example: 402653184
	HeapUsed uint64 `json:"heap_used" example:"402653184"`
}

// ProcessStats is one ephemeral resource sample of a running child process.
type ProcessStats struct {
	// Process ID the sample was taken from.
	// example: 12345
	PID int `json:"pid" example:"12345"`
	// CPU usage percentage.
	// example: 12.5
	CPUPercent float64 `json:"cpu_percent" example:"12.5"`
	// Memory snapshot.
	Memory MemoryStats `json:"memory"`
	// Milliseconds since the process started.
	// example: 60000
	UptimeMs int64 `json:"uptime_ms" example:"60000"`
}
