package message

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// Base implements [Message] and has to be embedded in all message types.
type Base struct {
	receiveTime time.Time
	timestamp   time.Time
	span        trace.SpanContext
}

func (b *Base) SetReceiveTime(receiveTime time.Time) {
	b.receiveTime = receiveTime
}

func (b *Base) GetReceiveTime() time.Time {
	return b.receiveTime
}

func (b *Base) SetTimestamp(timestamp time.Time) {
	b.timestamp = timestamp
}

func (b *Base) GetTimestamp() time.Time {
	return b.timestamp
}

func (b *Base) SaveSpan(span trace.Span) {
	b.span = span.SpanContext()
}

func (b *Base) LoadSpanContext(ctx context.Context) context.Context {
	if !b.span.IsValid() {
		return ctx
	}
	return trace.ContextWithSpanContext(ctx, b.span)
}
