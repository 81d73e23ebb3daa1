package queue

import (
	"errors"
	"testing"
	"time"
)

// helper: poll until cond returns true or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func processingCount(q *Queue) int { return q.Status().ProcessingCount }

// setPublisher swaps the queue's publisher under the lock; tests use it to
// observe only the events after a known point.
func setPublisher(q *Queue, p Publisher) {
	q.mu.Lock()
	q.pub = p
	q.mu.Unlock()
}

func TestDispatchOrderByPriority(t *testing.T) {
	// Saturate the single slot first so the [1, 5, 3] arrivals all wait,
	// then release and observe the 5, 3, 1 dispatch order.
	q := NewWithConfig(Config{MaxConcurrent: 1})
	if _, err := q.Enqueue("hold", nil, 100); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	waitFor(t, "holder to process", func() bool { return processingCount(q) == 1 })
	if _, err := q.Enqueue("p1", nil, 1); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if _, err := q.Enqueue("p5", nil, 5); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if _, err := q.Enqueue("p3", nil, 3); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	pub := NewMemoryPublisher()
	setPublisher(q, pub)
	q.Complete("hold", nil)
	var order []string
	for i := 0; i < 3; i++ {
		waitFor(t, "next item", func() bool { return processingCount(q) == 1 })
		var current string
		for _, e := range pub.Events() {
			if e.Kind == EventProcessing {
				current = e.RequestID
			}
		}
		order = append(order, current)
		q.Complete(current, nil)
	}
	if order[0] != "p5" || order[1] != "p3" || order[2] != "p1" {
		t.Fatalf("expected priority order p5,p3,p1 got %v", order)
	}
}

func TestFIFOAmongEqualPriorities(t *testing.T) {
	q := NewWithConfig(Config{MaxConcurrent: 1})
	_, _ = q.Enqueue("hold", nil, 100)
	waitFor(t, "holder to process", func() bool { return processingCount(q) == 1 })
	_, _ = q.Enqueue("first", nil, 2)
	_, _ = q.Enqueue("second", nil, 2)
	_, _ = q.Enqueue("third", nil, 2)

	pub := NewMemoryPublisher()
	setPublisher(q, pub)
	q.Complete("hold", nil)
	var order []string
	for i := 0; i < 3; i++ {
		waitFor(t, "next item", func() bool { return processingCount(q) == 1 })
		var current string
		for _, e := range pub.Events() {
			if e.Kind == EventProcessing {
				current = e.RequestID
			}
		}
		order = append(order, current)
		q.Complete(current, nil)
	}
	if order[0] != "first" || order[1] != "second" || order[2] != "third" {
		t.Fatalf("expected FIFO ties got %v", order)
	}
}

func TestProcessingNeverExceedsMaxConcurrent(t *testing.T) {
	q := NewWithConfig(Config{MaxConcurrent: 2})
	for i := 0; i < 6; i++ {
		if _, err := q.Enqueue("", nil, i); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}
	waitFor(t, "processing to fill", func() bool { return processingCount(q) == 2 })
	st := q.Status()
	if st.ProcessingCount != 2 || st.WaitingCount != 4 {
		t.Fatalf("unexpected status: %+v", st)
	}
}

func TestEnqueueBeyondCapacityFails(t *testing.T) {
	q := NewWithConfig(Config{MaxConcurrent: 1, MaxQueueSize: 2})
	_, _ = q.Enqueue("a", nil, 1)
	_, _ = q.Enqueue("b", nil, 1)
	before := q.Status()
	if _, err := q.Enqueue("c", nil, 1); !IsQueueFull(err) {
		t.Fatalf("expected queue-full error, got %v", err)
	}
	after := q.Status()
	if before.WaitingCount+before.ProcessingCount != after.WaitingCount+after.ProcessingCount {
		t.Fatalf("rejected enqueue mutated state: before=%+v after=%+v", before, after)
	}
	if _, ok := q.GetItem("c"); ok {
		t.Fatalf("rejected item is visible in the queue")
	}
}

func TestQueuedEventPrecedesProcessing(t *testing.T) {
	pub := NewMemoryPublisher()
	q := NewWithConfig(Config{MaxConcurrent: 1, Publisher: pub})
	id, err := q.Enqueue("", "payload", 1)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if id == "" {
		t.Fatalf("expected generated request id")
	}
	// The queued event is published synchronously on the enqueue path and
	// must show the item pending before any processing event.
	evs := pub.Events()
	if len(evs) == 0 || evs[0].Kind != EventQueued || evs[0].Status != StatusPending {
		t.Fatalf("expected leading queued/pending event, got %+v", evs)
	}
	waitFor(t, "dispatch", func() bool { return processingCount(q) == 1 })
	evs = pub.Events()
	sawQueued := false
	for _, e := range evs {
		if e.Kind == EventQueued && e.RequestID == id {
			sawQueued = true
		}
		if e.Kind == EventProcessing && e.RequestID == id && !sawQueued {
			t.Fatalf("processing event observed before queued")
		}
	}
}

func TestCompleteUnknownIsNoop(t *testing.T) {
	q := New()
	q.Complete("nope", nil)
	q.Complete("nope", errors.New("boom"))
}

func TestCompleteRecordsOutcome(t *testing.T) {
	pub := NewMemoryPublisher()
	q := NewWithConfig(Config{MaxConcurrent: 1, Publisher: pub})
	id, _ := q.Enqueue("", nil, 1)
	waitFor(t, "dispatch", func() bool { return processingCount(q) == 1 })
	q.Complete(id, errors.New("downstream 500"))
	var done *Event
	for _, e := range pub.Events() {
		if e.Kind == EventCompleted {
			ev := e
			done = &ev
		}
	}
	if done == nil || done.Status != StatusFailed || done.Err != "downstream 500" {
		t.Fatalf("expected failed completion event, got %+v", done)
	}
	if _, ok := q.GetItem(id); ok {
		t.Fatalf("completed item still present")
	}
	if processingCount(q) != 0 {
		t.Fatalf("processing set not drained")
	}
}

func TestUpdatePriority(t *testing.T) {
	pub := NewMemoryPublisher()
	q := NewWithConfig(Config{MaxConcurrent: 1, Publisher: pub})
	_, _ = q.Enqueue("hold", nil, 100)
	waitFor(t, "holder to process", func() bool { return processingCount(q) == 1 })
	_, _ = q.Enqueue("a", nil, 5)
	_, _ = q.Enqueue("b", nil, 1)
	if !q.UpdatePriority("b", 9) {
		t.Fatalf("expected update to succeed for waiting item")
	}
	if it, _ := q.GetItem("b"); it.Priority != 9 {
		t.Fatalf("priority not applied: %+v", it)
	}
	// Already dispatched and unknown ids both miss.
	if q.UpdatePriority("hold", 1) {
		t.Fatalf("expected false for dispatched item")
	}
	if q.UpdatePriority("ghost", 1) {
		t.Fatalf("expected false for unknown item")
	}
	q.Complete("hold", nil)
	waitFor(t, "reprioritized head", func() bool {
		it, ok := q.GetItem("b")
		return ok && it.Status == StatusProcessing
	})
}

func TestClearDropsWaitingOnly(t *testing.T) {
	pub := NewMemoryPublisher()
	q := NewWithConfig(Config{MaxConcurrent: 1, Publisher: pub})
	id, _ := q.Enqueue("", nil, 5)
	waitFor(t, "dispatch", func() bool { return processingCount(q) == 1 })
	_, _ = q.Enqueue("w1", nil, 1)
	_, _ = q.Enqueue("w2", nil, 1)
	q.Clear()
	st := q.Status()
	if st.WaitingCount != 0 {
		t.Fatalf("waiting not cleared: %+v", st)
	}
	if st.ProcessingCount != 1 {
		t.Fatalf("processing disturbed by clear: %+v", st)
	}
	var cleared *Event
	for _, e := range pub.Events() {
		if e.Kind == EventCleared {
			ev := e
			cleared = &ev
		}
	}
	if cleared == nil || cleared.Count != 2 {
		t.Fatalf("expected cleared event with count 2, got %+v", cleared)
	}
	// The in-flight item still completes normally.
	q.Complete(id, nil)
	if processingCount(q) != 0 {
		t.Fatalf("processing item lifecycle affected by clear")
	}
}

func TestNewWithConfigDefaults(t *testing.T) {
	q := NewWithConfig(Config{})
	st := q.Status()
	if st.MaxConcurrent != defaultMaxConcurrent || st.MaxQueueSize != defaultMaxQueueSize {
		t.Fatalf("defaults not applied: %+v", st)
	}
}
