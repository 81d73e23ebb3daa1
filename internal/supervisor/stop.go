package supervisor

import (
	"syscall"
	"time"

	"runtimed/pkg/types"
)

// Stop terminates a running server, racing the process exit against the
// configured timeout. On timeout the process is killed and the persisted
// status is still forced terminal, so the caller is never left with an
// indeterminate state or an unbounded wait.
func (s *Supervisor) Stop(id string) error {
	s.mu.Lock()
	h := s.running[id]
	if h == nil {
		s.mu.Unlock()
		return notFoundError{id: id}
	}
	h.stopping = true
	s.mu.Unlock()

	h.mon.Stop()
	_ = h.cmd.Process.Signal(syscall.SIGTERM)

	timedOut := false
	select {
	case <-h.waitDone:
	case <-time.After(s.stopTimeout):
		timedOut = true
		_ = h.cmd.Process.Kill()
	}

	s.mu.Lock()
	delete(s.running, id)
	s.mu.Unlock()

	if cfg, ok := s.st.Get(id); ok {
		cfg.Status = types.StatusStopped
		if timedOut {
			cfg.LastError = stopTimeoutError{id: id, timeout: s.stopTimeout}.Error()
		} else {
			cfg.LastError = ""
		}
		if err := s.st.Upsert(cfg); err != nil {
			s.log.Error().Str("server", id).Err(err).Msg("persist stop status")
		}
	}
	s.pub.Publish(Event{Name: "stop", ServerID: id, Fields: map[string]any{"timed_out": timedOut}})
	if timedOut {
		s.log.Warn().Str("server", id).Dur("timeout", s.stopTimeout).Msg("stop timed out, process killed")
		return stopTimeoutError{id: id, timeout: s.stopTimeout}
	}
	s.log.Info().Str("server", id).Msg("server stopped")
	return nil
}

// Shutdown stops every running server. Used on daemon exit; stop timeouts
// are tolerated since each server still settles terminal.
func (s *Supervisor) Shutdown() {
	s.mu.Lock()
	ids := make([]string, 0, len(s.running))
	for id := range s.running {
		ids = append(ids, id)
	}
	s.mu.Unlock()
	for _, id := range ids {
		if err := s.Stop(id); err != nil && !IsStopTimeout(err) && !IsNotFound(err) {
			s.log.Error().Str("server", id).Err(err).Msg("shutdown stop failed")
		}
	}
}
