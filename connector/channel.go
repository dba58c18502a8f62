package connector

import "sync"

// Channel implements a [Connector] using a channel.
type Channel[T any] struct {
	buffer chan T
	done   chan struct{}

	mux       sync.RWMutex
	closeOnce sync.Once
}

// NewChannel creates a new [Channel] with the given capacity.
func NewChannel[T any](size uint64) *Channel[T] {
	return &Channel[T]{
		buffer: make(chan T, size),
		done:   make(chan struct{}),
	}
}

func (c *Channel[T]) Write(item T) error {
	c.mux.RLock()
	defer c.mux.RUnlock()

	select {
	case <-c.done:
		return ErrClosed
	default:
	}

	select {
	case c.buffer <- item:
		return nil
	case <-c.done:
		return ErrClosed
	}
}

func (c *Channel[T]) Read() (T, error) {
	item, ok := <-c.buffer
	if !ok {
		return item, ErrClosed
	}
	return item, nil
}

// Close closes the [Channel]. Blocked writers return [ErrClosed],
// readers drain the buffered items before getting [ErrClosed].
func (c *Channel[T]) Close() {
	c.closeOnce.Do(func() {
		close(c.done)

		c.mux.Lock()
		close(c.buffer)
		c.mux.Unlock()
	})
}
