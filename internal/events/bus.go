package events

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	// ErrTimeout is returned by Receive when no event arrived in time.
	ErrTimeout = errors.New("event receive timed out")
	// ErrClosed is returned by Publish after Close, and by Receive once the
	// bus is closed and drained.
	ErrClosed = errors.New("event bus closed")
)

// Bus is an unbounded FIFO queue with many publishers and one receiver.
// Publish never blocks, so a slow notifier cannot stall a monitor and no
// event is dropped.
type Bus struct {
	mu     sync.Mutex
	queue  []Event
	closed bool
	signal chan struct{}
}

// NewBus returns an empty, open bus.
func NewBus() *Bus {
	return &Bus{signal: make(chan struct{}, 1)}
}

// Publish appends ev to the queue.
func (b *Bus) Publish(ev Event) error {
	if ev == nil {
		return errors.New("publish nil event")
	}
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrClosed
	}
	b.queue = append(b.queue, ev)
	b.mu.Unlock()
	b.notify()
	return nil
}

// Receive blocks until an event is available, the timeout elapses, or ctx is
// done. A timeout <= 0 waits without a deadline.
func (b *Bus) Receive(ctx context.Context, timeout time.Duration) (Event, error) {
	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}
	for {
		ev, closed := b.pop()
		if ev != nil {
			return ev, nil
		}
		if closed {
			return nil, ErrClosed
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-expired:
			return nil, ErrTimeout
		case <-b.signal:
		}
	}
}

// Len returns the number of queued events.
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}

// Close stops accepting events. Queued events can still be received.
func (b *Bus) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	b.notify()
}

func (b *Bus) pop() (Event, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.queue) == 0 {
		return nil, b.closed
	}
	ev := b.queue[0]
	b.queue[0] = nil
	b.queue = b.queue[1:]
	return ev, false
}

func (b *Bus) notify() {
	select {
	case b.signal <- struct{}{}:
	default:
	}
}
