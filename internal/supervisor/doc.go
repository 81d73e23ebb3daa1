// Package supervisor owns the mapping from logical server ids to spawned
// child processes. It orchestrates start/stop/update against the persisted
// config store, reconciles port conflicts through the allocator, attaches
// one resource monitor per running process, and keeps persisted status in
// step with true process liveness. It is structured into small files by
// concern:
//
//   - supervisor.go: Supervisor type, Config and defaults, constructor,
//     read-side operations (GetStatus, ListServers).
//   - command.go: per-kind spawn command resolution and config validation.
//   - start.go: Start and the spontaneous-exit watcher.
//   - stop.go: Stop with its bounded termination race, and Shutdown.
//   - update.go: UpdateConfig (idempotent upsert) and RemoveServer.
//   - errors.go: error types and predicate helpers (IsNotFound, ...).
//   - events.go: EventPublisher and lifecycle/stats event fan-out.
//
// Every process-state transition is followed by a persisted store write
// before the public call returns, so callers never observe a process
// running without a matching persisted status. The supervisor is the only
// writer of the store.
package supervisor
