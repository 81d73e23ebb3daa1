package supervisor

import (
	"os/exec"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"runtimed/internal/monitor"
	"runtimed/internal/ports"
	"runtimed/internal/store"
	"runtimed/pkg/types"
)

// Defaults applied when corresponding Config fields are unset.
const (
	defaultStopTimeout = 5 * time.Second
)

// CommandResolver maps a server config to the binary and arguments used to
// spawn it. Overridable for tests.
type CommandResolver func(cfg types.ServerConfig) (bin string, args []string, err error)

// Config encapsulates all tunables for Supervisor construction.
type Config struct {
	Store *store.Store
	Ports *ports.Allocator
	// Binaries for the two server kinds; consulted by the default resolver.
	RuntimeBin string
	BridgeBin  string
	// Bound on how long Stop waits for a terminating process.
	StopTimeout time.Duration
	// Sampling period handed to each attached monitor.
	MonitorInterval time.Duration
	Resolver        CommandResolver
	Publisher       EventPublisher
	Logger          zerolog.Logger
}

// runningHandle pairs a server id with its live process. Exists only while
// the process is live; never persisted.
type runningHandle struct {
	id        string
	cmd       *exec.Cmd
	mon       *monitor.Monitor
	startedAt time.Time
	lastStats *types.ProcessStats
	// set under Supervisor.mu before signaling, so the exit watcher can
	// tell a solicited stop from a spontaneous exit
	stopping bool
	// closed by the exit watcher once cmd.Wait has returned
	waitDone chan struct{}
	exitErr  error
}

// Supervisor orchestrates managed server processes.
type Supervisor struct {
	mu      sync.Mutex
	st      *store.Store
	ports   *ports.Allocator
	running map[string]*runningHandle

	stopTimeout     time.Duration
	monitorInterval time.Duration
	resolver        CommandResolver
	pub             EventPublisher
	log             zerolog.Logger
}

// New constructs a Supervisor from Config, applying defaults for unset
// fields.
func New(cfg Config) *Supervisor {
	s := &Supervisor{
		st:              cfg.Store,
		ports:           cfg.Ports,
		running:         make(map[string]*runningHandle),
		stopTimeout:     cfg.StopTimeout,
		monitorInterval: cfg.MonitorInterval,
		resolver:        cfg.Resolver,
		pub:             cfg.Publisher,
		log:             cfg.Logger,
	}
	if s.ports == nil {
		s.ports = &ports.Allocator{}
	}
	if s.stopTimeout <= 0 {
		s.stopTimeout = defaultStopTimeout
	}
	if s.resolver == nil {
		s.resolver = defaultResolver(cfg.RuntimeBin, cfg.BridgeBin)
	}
	if s.pub == nil {
		s.pub = noopPublisher{}
	}
	return s
}

// ListServers returns all persisted configs.
func (s *Supervisor) ListServers() []types.ServerConfig {
	return s.st.List()
}

// GetStatus returns the persisted config plus, when running, the computed
// uptime and the most recent stats bucket.
func (s *Supervisor) GetStatus(id string) (types.ServerStatusResponse, error) {
	var uptime int64
	var stats *types.ProcessStats
	s.mu.Lock()
	if h := s.running[id]; h != nil {
		uptime = time.Since(h.startedAt).Milliseconds()
		if h.lastStats != nil {
			c := *h.lastStats
			stats = &c
		}
	}
	s.mu.Unlock()
	cfg, ok := s.st.Get(id)
	if !ok {
		return types.ServerStatusResponse{}, notFoundError{id: id}
	}
	return types.ServerStatusResponse{Server: cfg, UptimeMs: uptime, Stats: stats}, nil
}

// IsRunning reports whether a RunningHandle exists for id.
func (s *Supervisor) IsRunning(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running[id] != nil
}

// RunningCount returns the number of live managed processes.
func (s *Supervisor) RunningCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.running)
}
