// Package connector links the stages of a pipeline.
package connector

import "github.com/cockroachdb/errors"

// ErrClosed is returned by a closed connector.
// Reads return it once the buffered items are drained.
var ErrClosed = errors.New("connector: closed")

// Writer is the producing side of a connector.
type Writer[T any] interface {
	// Write adds an item, blocking while the connector is full.
	Write(item T) error
	// Close stops accepting items.
	Close()
}

// Reader is the consuming side of a connector.
type Reader[T any] interface {
	// Read returns the next item, blocking while the connector is empty.
	Read() (T, error)
}

// Connector is a buffered queue between two stages.
type Connector[T any] interface {
	Writer[T]
	Reader[T]
}
