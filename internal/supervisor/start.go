package supervisor

import (
	"bytes"
	"fmt"
	"os/exec"
	"time"

	"runtimed/internal/monitor"
	"runtimed/pkg/types"
)

// Start spawns the process for a declared server, reconciling a port
// conflict first and persisting the resulting status before returning.
func (s *Supervisor) Start(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running[id] != nil {
		return alreadyRunningError{id: id}
	}
	cfg, ok := s.st.Get(id)
	if !ok {
		return notFoundError{id: id}
	}

	// Reconcile the port before resolving the command so the child is
	// spawned with the port it will actually bind. The probe is
	// best-effort; a lost race surfaces later as a spawn failure.
	if !s.ports.IsAvailable(cfg.Port) {
		next, err := s.ports.FindAvailableFrom(cfg.Port + 1)
		if err != nil {
			return s.failStart(cfg, portUnavailableError{id: id, port: cfg.Port})
		}
		s.log.Info().Str("server", id).Int("from", cfg.Port).Int("to", next).Msg("port occupied, reassigned")
		s.pub.Publish(Event{Name: "port_reassigned", ServerID: id, Fields: map[string]any{"from": cfg.Port, "to": next}})
		cfg.Port = next
		if err := s.st.Upsert(cfg); err != nil {
			return fmt.Errorf("persist reassigned port: %w", err)
		}
	}

	bin, args, err := s.resolver(cfg)
	if err != nil {
		return s.failStart(cfg, spawnError{id: id, cause: err})
	}
	cmd := exec.Command(bin, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Start(); err != nil {
		return s.failStart(cfg, spawnError{id: id, cause: err})
	}

	now := time.Now()
	h := &runningHandle{
		id:        id,
		cmd:       cmd,
		startedAt: now,
		waitDone:  make(chan struct{}),
	}
	h.mon = monitor.New(cmd.Process.Pid, s.monitorInterval, &serverListener{s: s, id: id})
	s.running[id] = h

	cfg.Status = types.StatusRunning
	cfg.LastStarted = &now
	cfg.LastError = ""
	if err := s.st.Upsert(cfg); err != nil {
		// The process must never be observed running without a persisted
		// running status; undo the spawn.
		delete(s.running, id)
		_ = cmd.Process.Kill()
		go func() { _ = cmd.Wait() }()
		return fmt.Errorf("persist running status: %w", err)
	}

	h.mon.Start()
	s.log.Info().Str("server", id).Int("pid", cmd.Process.Pid).Int("port", cfg.Port).Msg("server started")
	s.pub.Publish(Event{Name: "start", ServerID: id, Fields: map[string]any{"pid": cmd.Process.Pid, "port": cfg.Port}})
	go s.watchExit(h, &stderr)
	return nil
}

// failStart records a start failure into the persisted config and returns
// the causing error. Callers must hold s.mu.
func (s *Supervisor) failStart(cfg types.ServerConfig, cause error) error {
	cfg.Status = types.StatusError
	cfg.LastError = cause.Error()
	if err := s.st.Upsert(cfg); err != nil {
		s.log.Error().Str("server", cfg.ID).Err(err).Msg("persist failed start")
	}
	s.log.Error().Str("server", cfg.ID).Err(cause).Msg("start failed")
	return cause
}

// watchExit waits for the process to exit. A spontaneous exit (not driven
// by Stop) is the only unsolicited transition in the subsystem: zero exit
// code settles to stopped, anything else to error. Never auto-retried.
func (s *Supervisor) watchExit(h *runningHandle, stderr *bytes.Buffer) {
	h.exitErr = h.cmd.Wait()
	close(h.waitDone)

	s.mu.Lock()
	if s.running[h.id] != h || h.stopping {
		// Stop owns the terminal transition.
		s.mu.Unlock()
		return
	}
	delete(s.running, h.id)
	s.mu.Unlock()
	h.mon.Stop()

	cfg, ok := s.st.Get(h.id)
	if !ok {
		return
	}
	fields := map[string]any{"pid": h.cmd.Process.Pid}
	if h.exitErr == nil {
		cfg.Status = types.StatusStopped
		cfg.LastError = ""
		s.log.Info().Str("server", h.id).Msg("server exited cleanly")
	} else {
		cfg.Status = types.StatusError
		if ee, ok := h.exitErr.(*exec.ExitError); ok {
			cfg.LastError = fmt.Sprintf("exited with code %d", ee.ExitCode())
			fields["code"] = ee.ExitCode()
		} else {
			cfg.LastError = fmt.Sprintf("exited: %v", h.exitErr)
		}
		if tail := tailOf(stderr.String(), 1024); tail != "" {
			cfg.LastError += "; stderr: " + tail
		}
		s.log.Error().Str("server", h.id).Str("last_error", cfg.LastError).Msg("server exited")
	}
	fields["status"] = string(cfg.Status)
	if err := s.st.Upsert(cfg); err != nil {
		s.log.Error().Str("server", h.id).Err(err).Msg("persist exit status")
	}
	s.pub.Publish(Event{Name: "exit", ServerID: h.id, Fields: fields})
}

// tailOf returns at most n trailing bytes of msg.
func tailOf(msg string, n int) string {
	if len(msg) > n {
		return msg[len(msg)-n:]
	}
	return msg
}
