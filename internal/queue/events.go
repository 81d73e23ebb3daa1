package queue

// EventKind names a queue lifecycle notification.
type EventKind string

const (
	EventQueued          EventKind = "queued"
	EventProcessing      EventKind = "processing"
	EventCompleted       EventKind = "completed"
	EventPriorityUpdated EventKind = "priorityUpdated"
	EventCleared         EventKind = "cleared"
)

// Event is a typed queue notification. Completed events carry the final
// status and failure message; cleared events carry the discarded count.
type Event struct {
	Kind      EventKind
	RequestID string
	Priority  int
	Status    ItemStatus
	Err       string
	Count     int
}

// Publisher receives events from the queue. Implementations should be
// lightweight and non-blocking; Publish must not panic.
type Publisher interface {
	Publish(Event)
}

// noopPublisher is the default; it drops events.
type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}
