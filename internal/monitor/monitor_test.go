package monitor

import (
	"os"
	"sync"
	"testing"
	"time"

	"runtimed/pkg/types"
)

// recordingListener collects callbacks for assertions.
type recordingListener struct {
	mu    sync.Mutex
	stats []types.ProcessStats
	errs  []error
}

func (l *recordingListener) OnStats(s types.ProcessStats) {
	l.mu.Lock()
	l.stats = append(l.stats, s)
	l.mu.Unlock()
}

func (l *recordingListener) OnSampleError(err error) {
	l.mu.Lock()
	l.errs = append(l.errs, err)
	l.mu.Unlock()
}

func (l *recordingListener) counts() (int, int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.stats), len(l.errs)
}

func TestMonitorEmitsImmediateSample(t *testing.T) {
	l := &recordingListener{}
	m := New(os.Getpid(), time.Hour, l)
	m.Start()
	// Long interval: any sample observed must be the immediate one.
	deadline := time.Now().Add(2 * time.Second)
	for {
		if n, _ := l.counts(); n >= 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("no immediate sample within deadline")
		}
		time.Sleep(10 * time.Millisecond)
	}
	m.Stop()
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stats[0].PID != os.Getpid() {
		t.Fatalf("expected pid %d got %d", os.Getpid(), l.stats[0].PID)
	}
	if l.stats[0].Memory.Resident == 0 {
		t.Fatalf("expected nonzero resident memory")
	}
}

func TestMonitorSamplesOnInterval(t *testing.T) {
	l := &recordingListener{}
	m := New(os.Getpid(), 20*time.Millisecond, l)
	m.Start()
	deadline := time.Now().Add(2 * time.Second)
	for {
		if n, _ := l.counts(); n >= 3 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected repeated samples within deadline")
		}
		time.Sleep(10 * time.Millisecond)
	}
	m.Stop()
}

func TestMonitorReportsGoneProcessAsError(t *testing.T) {
	l := &recordingListener{}
	// A PID that cannot exist keeps sampling failures on the error path.
	m := New(1<<30, 20*time.Millisecond, l)
	m.Start()
	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, n := l.counts(); n >= 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("no sample error within deadline")
		}
		time.Sleep(10 * time.Millisecond)
	}
	m.Stop()
	if n, _ := l.counts(); n != 0 {
		t.Fatalf("expected no stats for missing process, got %d", n)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	l := &recordingListener{}
	m := New(os.Getpid(), 10*time.Millisecond, l)
	m.Start()
	m.Stop()
	m.Stop()
}
