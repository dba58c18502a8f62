package pool

import (
	"context"

	"github.com/anand2532/SAE-J1939-parser/internal"
)

type worker[InitArgs any] interface {
	Init(ctx context.Context, args InitArgs) error
	Close(ctx context.Context) error
	SetTelemetry(tel *internal.Telemetry)
}

// BaseWorker can be embedded by workers to receive the telemetry of the pool.
type BaseWorker struct {
	Tel *internal.Telemetry
}

func (bw *BaseWorker) SetTelemetry(tel *internal.Telemetry) {
	bw.Tel = tel
}

type EgressWorker[InitArgs, In any] interface {
	worker[InitArgs]
	Deliver(ctx context.Context, task In) error
}

type EgressWorkerPtr[W, InitArgs, In any] interface {
	*W
	EgressWorker[InitArgs, In]
}

type HandlerWorker[InitArgs, In, Out any] interface {
	worker[InitArgs]
	Handle(ctx context.Context, task In) (Out, error)
}

type HandlerWorkerPtr[W, InitArgs, In, Out any] interface {
	*W
	HandlerWorker[InitArgs, In, Out]
}

// IngressWorker receives messages from outside the pipeline.
// Receive returns true when the source is exhausted and the worker must stop.
type IngressWorker[InitArgs, Out any] interface {
	worker[InitArgs]
	Receive(ctx context.Context) (Out, bool, error)
}

type IngressWorkerPtr[W, InitArgs, Out any] interface {
	*W
	IngressWorker[InitArgs, Out]
}
