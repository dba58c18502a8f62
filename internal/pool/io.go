package pool

import (
	"context"

	"github.com/anand2532/SAE-J1939-parser/internal/message"
)

type withOutput[T message.Message] struct {
	ch chan T
}

func newWithOutput[T message.Message](chSize int) *withOutput[T] {
	return &withOutput[T]{
		ch: make(chan T, chSize),
	}
}

// GetOutputCh returns the channel the pool sends its processed messages to.
// It is closed when the pool is closed.
func (wo *withOutput[T]) GetOutputCh() <-chan T {
	return wo.ch
}

func (wo *withOutput[T]) sendOutput(ctx context.Context, item T) bool {
	select {
	case <-ctx.Done():
		return false
	case wo.ch <- item:
		return true
	}
}

func (wo *withOutput[T]) closeOutput() {
	close(wo.ch)
}
