// Package queue provides the mailbox that hands notification events from
// producer goroutines to the overlay render thread.
package queue

import (
	"sync"
	"time"
)

// Mailbox is an unbounded FIFO safe for any number of concurrent producers
// and a single consumer. Insertion order is dequeue order.
type Mailbox[T any] struct {
	mu    sync.Mutex
	items []T

	// wake holds at most one pending wake-up for the consumer.
	wake chan struct{}
}

// NewMailbox creates an empty Mailbox.
func NewMailbox[T any]() *Mailbox[T] {
	return &Mailbox[T]{
		wake: make(chan struct{}, 1),
	}
}

// Enqueue appends v to the tail. It never blocks.
func (m *Mailbox[T]) Enqueue(v T) {
	m.mu.Lock()
	m.items = append(m.items, v)
	m.mu.Unlock()

	select {
	case m.wake <- struct{}{}:
	default:
		// A wake-up is already pending
	}
}

// TryDequeueAll waits up to timeout for at least one item, then removes and
// returns every queued item in FIFO order. It returns nil if nothing arrived
// before the timeout.
func (m *Mailbox[T]) TryDequeueAll(timeout time.Duration) []T {
	if items := m.drain(); items != nil {
		return items
	}
	if timeout <= 0 {
		return nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case <-m.wake:
			// The wake-up may be stale (its items were drained by an
			// earlier call), so keep waiting until the deadline.
			if items := m.drain(); items != nil {
				return items
			}
		case <-timer.C:
			return m.drain()
		}
	}
}

// Len returns the number of queued items.
func (m *Mailbox[T]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// drain atomically takes every queued item.
func (m *Mailbox[T]) drain() []T {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.items) == 0 {
		return nil
	}
	items := m.items
	m.items = nil
	return items
}
