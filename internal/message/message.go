// Package message contains the interfaces of the messages
// exchanged by the stages of a pipeline.
package message

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// Message defines the common methods for all message types.
type Message interface {
	// SetReceiveTime sets the time the message was received.
	SetReceiveTime(receiveTime time.Time)
	// GetReceiveTime returns the time the message was received.
	GetReceiveTime() time.Time

	// SetTimestamp sets the timestamp of the message.
	SetTimestamp(timestamp time.Time)
	// GetTimestamp returns the timestamp of the message.
	// It may be different from the receive time.
	GetTimestamp() time.Time

	// SaveSpan saves the trace span for the message.
	SaveSpan(span trace.Span)
	// LoadSpanContext loads the trace of the message
	// into the provided context.
	LoadSpanContext(ctx context.Context) context.Context
}

// Sequenced is a message that belongs to an ordered stream.
type Sequenced interface {
	Message

	// GetStreamID returns the identifier of the stream.
	GetStreamID() uint64
	// GetSequenceNumber returns the position of the message in its stream.
	GetSequenceNumber() uint64
}
