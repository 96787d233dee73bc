package resource

import (
	"context"
	"sync"
)

// Subscription is a single-producer stream of values.
// The consumer reads Values until it is closed, or calls Cancel to stop
// listening. Once canceled, Emit drops values and returns false, and the
// producer context is canceled.
type Subscription[T any] struct {
	values chan T
	done   chan struct{}

	mu       sync.Mutex
	canceled bool
	onCancel []func()

	finishOnce sync.Once
}

// NewSubscription creates an active Subscription with the given channel buffer.
func NewSubscription[T any](buffer int) *Subscription[T] {
	if buffer < 0 {
		buffer = 0
	}

	return &Subscription[T]{
		values: make(chan T, buffer),
		done:   make(chan struct{}),
	}
}

// Start creates a Subscription and runs produce in a new goroutine (the
// activation callback). The stream is finished when produce returns.
func Start[T any](ctx context.Context, buffer int, produce func(ctx context.Context, s *Subscription[T])) *Subscription[T] {
	s := NewSubscription[T](buffer)

	ctx, cancel := context.WithCancel(ctx)
	s.OnCancel(cancel)

	go func() {
		defer s.Finish()
		defer cancel()
		produce(ctx, s)
	}()

	return s
}

// Values returns the stream channel. It is closed by Finish.
func (s *Subscription[T]) Values() <-chan T {
	return s.values
}

// Done is closed on Cancel.
func (s *Subscription[T]) Done() <-chan struct{} {
	return s.done
}

// Canceled reports whether the consumer unsubscribed.
func (s *Subscription[T]) Canceled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.canceled
}

// OnCancel registers a callback run on Cancel (immediately if already canceled).
func (s *Subscription[T]) OnCancel(fn func()) {
	s.mu.Lock()
	if !s.canceled {
		s.onCancel = append(s.onCancel, fn)
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	fn()
}

// Cancel unsubscribes. Safe to call multiple times.
func (s *Subscription[T]) Cancel() {
	s.mu.Lock()
	if s.canceled {
		s.mu.Unlock()
		return
	}
	s.canceled = true
	callbacks := s.onCancel
	s.onCancel = nil
	close(s.done)
	s.mu.Unlock()

	for _, fn := range callbacks {
		fn()
	}
}

// Emit publishes a value, blocking until it is buffered or the consumer cancels.
// Must not be called after Finish.
func (s *Subscription[T]) Emit(v T) bool {
	select {
	case <-s.done:
		return false
	default:
	}

	select {
	case s.values <- v:
		return true
	case <-s.done:
		return false
	}
}

// Finish closes the stream. Producer side only.
func (s *Subscription[T]) Finish() {
	s.finishOnce.Do(func() {
		close(s.values)
	})
}

// Collect drains the stream until it is finished or ctx is done.
func (s *Subscription[T]) Collect(ctx context.Context) ([]T, error) {
	out := make([]T, 0)
	for {
		select {
		case v, ok := <-s.values:
			if !ok {
				return out, nil
			}
			out = append(out, v)
		case <-ctx.Done():
			s.Cancel()
			return out, ctx.Err()
		}
	}
}
