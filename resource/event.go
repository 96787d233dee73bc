package resource

import "sync"

// Event wraps a payload that must be handled at most once.
// A redelivered Event (e.g. to a re-subscribed observer) yields nothing.
type Event[T any] struct {
	mu      sync.Mutex
	content T
	handled bool
}

// NewEvent creates a new unhandled Event.
func NewEvent[T any](content T) *Event[T] {
	return &Event[T]{content: content}
}

// GetContentIfNotHandled returns the content and marks it handled.
// Only the first caller gets ok == true.
func (e *Event[T]) GetContentIfNotHandled() (content T, ok bool) {
	if e == nil {
		return content, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.handled {
		return content, false
	}
	e.handled = true

	return e.content, true
}

// PeekContent returns the content without consuming it.
func (e *Event[T]) PeekContent() T {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.content
}

// HasBeenHandled reports whether the content was consumed.
func (e *Event[T]) HasBeenHandled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.handled
}
