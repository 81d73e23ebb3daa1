// Package ports probes TCP port availability for the supervisor. Probing
// is best-effort: a port reported free can still be taken by an unrelated
// process before the managed server binds it, which then surfaces as a
// spawn failure.
package ports

import (
	"errors"
	"fmt"
	"net"
	"syscall"
)

const maxPort = 65535

// Allocator probes ports on a single host interface.
type Allocator struct {
	// Host to bind probes on. Empty means 127.0.0.1 (managed servers are local).
	Host string
}

func (a *Allocator) host() string {
	if a == nil || a.Host == "" {
		return "127.0.0.1"
	}
	return a.Host
}

// IsAvailable reports whether port can currently be bound. The throwaway
// listener is closed immediately. Only address-in-use failures count as
// busy; unrelated bind errors are treated as available since they say
// nothing about occupancy.
func (a *Allocator) IsAvailable(port int) bool {
	l, err := net.Listen("tcp", fmt.Sprintf("%s:%d", a.host(), port))
	if err != nil {
		return !errors.Is(err, syscall.EADDRINUSE)
	}
	_ = l.Close()
	return true
}

// FindAvailableFrom scans upward from startPort until a free port is found.
// Bounded by the OS port range.
func (a *Allocator) FindAvailableFrom(startPort int) (int, error) {
	if startPort < 1 {
		startPort = 1
	}
	for p := startPort; p <= maxPort; p++ {
		if a.IsAvailable(p) {
			return p, nil
		}
	}
	return 0, fmt.Errorf("no free port in range %d-%d", startPort, maxPort)
}
