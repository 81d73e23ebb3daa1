package supervisor

import (
	"sync"

	"runtimed/pkg/types"
)

// Event represents a supervisor lifecycle or stats notification, tagged
// with the server id it concerns.
type Event struct {
	Name     string
	ServerID string
	Fields   map[string]any
}

// EventPublisher receives events from the supervisor. Implementations
// should be lightweight and non-blocking; Publish must not panic.
type EventPublisher interface {
	Publish(Event)
}

// noopPublisher is the default; it drops events.
type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}

// MemoryPublisher stores events in-memory for tests.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []Event
}

func NewMemoryPublisher() *MemoryPublisher { return &MemoryPublisher{} }

func (p *MemoryPublisher) Publish(e Event) {
	p.mu.Lock()
	p.events = append(p.events, e)
	p.mu.Unlock()
}

func (p *MemoryPublisher) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Event, len(p.events))
	copy(out, p.events)
	return out
}

// serverListener adapts monitor callbacks for one server: stats are kept
// as the latest bucket on the running handle and republished tagged with
// the server id.
type serverListener struct {
	s  *Supervisor
	id string
}

func (l *serverListener) OnStats(st types.ProcessStats) {
	l.s.mu.Lock()
	if h := l.s.running[l.id]; h != nil {
		h.lastStats = &st
	}
	l.s.mu.Unlock()
	l.s.pub.Publish(Event{Name: "stats", ServerID: l.id, Fields: map[string]any{
		"pid":         st.PID,
		"cpu_percent": st.CPUPercent,
		"resident":    st.Memory.Resident,
		"uptime_ms":   st.UptimeMs,
	}})
}

func (l *serverListener) OnSampleError(err error) {
	// Sampling failures are observational only; they never alter process
	// state or stop monitoring.
	l.s.log.Debug().Str("server", l.id).Err(err).Msg("monitor sample failed")
	l.s.pub.Publish(Event{Name: "monitor_error", ServerID: l.id, Fields: map[string]any{
		"error": err.Error(),
	}})
}
