package queue

import "fmt"

// queueFullError signals that waiting + processing reached the size bound.
type queueFullError struct{ max int }

func (e queueFullError) Error() string {
	return fmt.Sprintf("queue full: limit %d reached", e.max)
}

// ErrQueueFull constructs a queue-full error with the size bound that was hit.
func ErrQueueFull(max int) error { return queueFullError{max: max} }

// IsQueueFull reports whether err indicates admission backpressure (429 mapping).
func IsQueueFull(err error) bool {
	_, ok := err.(queueFullError)
	return ok
}
