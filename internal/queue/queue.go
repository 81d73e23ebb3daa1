// Package queue buffers inbound work items and releases them to a bounded
// number of concurrent consumers. Waiting items are held in non-increasing
// priority order with FIFO ties; the processing set never exceeds the
// configured concurrency.
package queue

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"runtimed/pkg/types"
)

// ItemStatus is the lifecycle state of a queued work item.
type ItemStatus string

const (
	StatusPending    ItemStatus = "pending"
	StatusProcessing ItemStatus = "processing"
	StatusCompleted  ItemStatus = "completed"
	StatusFailed     ItemStatus = "failed"
)

// Item is one unit of admitted work. Owned exclusively by the queue;
// accessors return copies.
type Item struct {
	RequestID   string
	Payload     any
	Priority    int
	Status      ItemStatus
	QueuedAt    time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
	Err         string
}

// Defaults applied when corresponding Config fields are unset.
const (
	defaultMaxConcurrent = 2
	defaultMaxQueueSize  = 100
)

// Config encapsulates all tunables for Queue construction.
type Config struct {
	MaxConcurrent int
	MaxQueueSize  int
	Publisher     Publisher
}

// Queue is the priority admission-control queue.
type Queue struct {
	mu            sync.Mutex
	waiting       []*Item
	processing    map[string]*Item
	maxConcurrent int
	maxQueueSize  int
	pub           Publisher
}

// New constructs a Queue with package defaults.
func New() *Queue { return NewWithConfig(Config{}) }

// NewWithConfig constructs a Queue from Config, applying defaults for
// unset fields.
func NewWithConfig(cfg Config) *Queue {
	q := &Queue{
		processing: make(map[string]*Item),
		pub:        cfg.Publisher,
	}
	if cfg.MaxConcurrent <= 0 {
		q.maxConcurrent = defaultMaxConcurrent
	} else {
		q.maxConcurrent = cfg.MaxConcurrent
	}
	if cfg.MaxQueueSize <= 0 {
		q.maxQueueSize = defaultMaxQueueSize
	} else {
		q.maxQueueSize = cfg.MaxQueueSize
	}
	if q.pub == nil {
		q.pub = noopPublisher{}
	}
	return q
}

// Enqueue admits a work item, returning its request id (generated when
// empty). Fails when waiting + processing has reached the size bound and
// leaves state untouched in that case. Dispatch is deliberately deferred
// off the enqueue path so observers of the queued event always see the
// item pending before any processing transition is visible.
func (q *Queue) Enqueue(requestID string, payload any, priority int) (string, error) {
	q.mu.Lock()
	if len(q.waiting)+len(q.processing) >= q.maxQueueSize {
		q.mu.Unlock()
		return "", queueFullError{max: q.maxQueueSize}
	}
	if requestID == "" {
		requestID = uuid.NewString()
	}
	it := &Item{
		RequestID: requestID,
		Payload:   payload,
		Priority:  priority,
		Status:    StatusPending,
		QueuedAt:  time.Now(),
	}
	q.insertLocked(it)
	q.pub.Publish(Event{Kind: EventQueued, RequestID: it.RequestID, Priority: it.Priority, Status: StatusPending})
	q.mu.Unlock()
	go q.dispatch()
	return it.RequestID, nil
}

// insertLocked places it at the first position whose existing priority is
// strictly lower, keeping FIFO order among equal priorities.
func (q *Queue) insertLocked(it *Item) {
	idx := sort.Search(len(q.waiting), func(i int) bool {
		return q.waiting[i].Priority < it.Priority
	})
	q.waiting = append(q.waiting, nil)
	copy(q.waiting[idx+1:], q.waiting[idx:])
	q.waiting[idx] = it
}

func (q *Queue) dispatch() {
	q.mu.Lock()
	q.dispatchLocked()
	q.mu.Unlock()
}

// dispatchLocked promotes waiting heads into the processing set while
// capacity allows. Callers must hold q.mu.
func (q *Queue) dispatchLocked() {
	for len(q.waiting) > 0 && len(q.processing) < q.maxConcurrent {
		it := q.waiting[0]
		q.waiting = q.waiting[1:]
		now := time.Now()
		it.Status = StatusProcessing
		it.StartedAt = &now
		q.processing[it.RequestID] = it
		q.pub.Publish(Event{Kind: EventProcessing, RequestID: it.RequestID, Priority: it.Priority, Status: StatusProcessing})
	}
}

// Complete finishes a processing item, recording the outcome, evicting it
// from the processing set and immediately re-dispatching. Unknown ids are
// a no-op so completion is idempotent.
func (q *Queue) Complete(requestID string, failure error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	it, ok := q.processing[requestID]
	if !ok {
		return
	}
	now := time.Now()
	it.CompletedAt = &now
	if failure != nil {
		it.Status = StatusFailed
		it.Err = failure.Error()
	} else {
		it.Status = StatusCompleted
	}
	delete(q.processing, requestID)
	q.pub.Publish(Event{Kind: EventCompleted, RequestID: it.RequestID, Priority: it.Priority, Status: it.Status, Err: it.Err})
	q.dispatchLocked()
}

// GetItem returns a copy of the item with requestID, searching the
// processing set and then the waiting sequence.
func (q *Queue) GetItem(requestID string) (Item, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if it, ok := q.processing[requestID]; ok {
		return *it, true
	}
	for _, it := range q.waiting {
		if it.RequestID == requestID {
			return *it, true
		}
	}
	return Item{}, false
}

// UpdatePriority reorders a still-waiting item to its new priority-ordered
// position. Returns false when the id is not waiting, including when it
// was already dispatched.
func (q *Queue) UpdatePriority(requestID string, priority int) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, it := range q.waiting {
		if it.RequestID != requestID {
			continue
		}
		q.waiting = append(q.waiting[:i], q.waiting[i+1:]...)
		it.Priority = priority
		q.insertLocked(it)
		q.pub.Publish(Event{Kind: EventPriorityUpdated, RequestID: it.RequestID, Priority: priority, Status: it.Status})
		return true
	}
	return false
}

// Clear discards all waiting items. Processing items are untouched.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.waiting)
	q.waiting = nil
	q.pub.Publish(Event{Kind: EventCleared, Count: n})
}

// Status returns counts and limits only, never payloads.
func (q *Queue) Status() types.QueueStatusResponse {
	q.mu.Lock()
	defer q.mu.Unlock()
	return types.QueueStatusResponse{
		WaitingCount:    len(q.waiting),
		ProcessingCount: len(q.processing),
		MaxConcurrent:   q.maxConcurrent,
		MaxQueueSize:    q.maxQueueSize,
	}
}
