package storage

import "sync"

type (
	// Feed keeps the cache version and notifies subscribers on every change.
	// Notifications are coalesced: a slow subscriber only sees the latest version.
	Feed struct {
		sync.Mutex
		// The current cache version
		version uint64
		// Subscriber channels (buffer of 1)
		subs   map[uint64]chan uint64
		nextId uint64
	}
)

// Publish bumps the version and notifies the subscribers.
func (f *Feed) Publish() uint64 {
	f.Lock()
	defer f.Unlock()

	f.version++
	for _, ch := range f.subs {
		// Drop the pending (older) version if the subscriber did not read it yet
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- f.version:
		default:
		}
	}

	return f.version
}

// Subscribe returns a channel receiving new versions and the unsubscribe func.
func (f *Feed) Subscribe() (<-chan uint64, func()) {
	f.Lock()
	defer f.Unlock()

	f.nextId++
	id := f.nextId
	ch := make(chan uint64, 1)
	f.subs[id] = ch

	return ch, func() {
		f.Lock()
		defer f.Unlock()

		delete(f.subs, id)
	}
}

// Version returns the current version.
func (f *Feed) Version() uint64 {
	f.Lock()
	defer f.Unlock()

	return f.version
}

// NewFeed creates a new Feed object.
func NewFeed() *Feed {
	return &Feed{
		subs: make(map[uint64]chan uint64),
	}
}
