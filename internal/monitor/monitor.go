// Package monitor samples CPU and memory for a single child process on a
// fixed interval. It is purely observational: sampling failures are
// reported to the listener, never acted on, and the monitor does not touch
// process lifecycle.
package monitor

import (
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/process"

	"runtimed/pkg/types"
)

// DefaultInterval is the sampling period applied when none is configured.
const DefaultInterval = 5 * time.Second

// Listener receives monitor output. Implementations should be lightweight
// and non-blocking; callbacks run on the monitor's goroutine.
type Listener interface {
	OnStats(types.ProcessStats)
	OnSampleError(error)
}

// Monitor samples one PID until stopped.
type Monitor struct {
	pid      int
	interval time.Duration
	listener Listener

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// New builds a monitor for pid. A zero or negative interval selects
// DefaultInterval.
func New(pid int, interval time.Duration, l Listener) *Monitor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Monitor{
		pid:      pid,
		interval: interval,
		listener: l,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start takes one immediate sample and then samples on the interval until
// Stop is called.
func (m *Monitor) Start() {
	go func() {
		defer close(m.doneCh)
		m.sample()
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.sample()
			case <-m.stopCh:
				return
			}
		}
	}()
}

// Stop cancels sampling and waits for the loop to exit. Idempotent.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
	<-m.doneCh
}

func (m *Monitor) sample() {
	st, err := Sample(m.pid)
	if err != nil {
		m.listener.OnSampleError(err)
		return
	}
	m.listener.OnStats(st)
}

// Sample takes a single resource snapshot of pid.
func Sample(pid int) (types.ProcessStats, error) {
	p, err := process.NewProcess(int32(pid))
	if err != nil {
		return types.ProcessStats{}, err
	}
	cpu, err := p.CPUPercent()
	if err != nil {
		return types.ProcessStats{}, err
	}
	mem, err := p.MemoryInfo()
	if err != nil {
		return types.ProcessStats{}, err
	}
	st := types.ProcessStats{
		PID:        pid,
		CPUPercent: cpu,
		Memory: types.MemoryStats{
			Resident:  mem.RSS,
			HeapTotal: mem.VMS,
			HeapUsed:  mem.Data,
		},
	}
	if created, err := p.CreateTime(); err == nil {
		st.UptimeMs = time.Now().UnixMilli() - created
	}
	return st, nil
}
