package stage

import (
	"context"
	"sync/atomic"

	"github.com/anand2532/SAE-J1939-parser/connector"
	"github.com/anand2532/SAE-J1939-parser/internal"
	"github.com/anand2532/SAE-J1939-parser/internal/pool"
	"github.com/cockroachdb/errors"
)

// Egress reads messages from its input connector
// and hands them to its worker pool for delivery.
type Egress[M msg, W, WArgs any, WPtr egressWorkerPtr[W, WArgs, M]] struct {
	Tel *internal.Telemetry

	inputConnector connector.Reader[M]

	workerPool *pool.Egress[M, W, WArgs, WPtr]

	skippedMessages atomic.Int64
}

func NewEgress[M msg, W, WArgs any, WPtr egressWorkerPtr[W, WArgs, M]](
	name string, inputConnector connector.Reader[M], poolCfg *pool.Config,
) *Egress[M, W, WArgs, WPtr] {

	tel := internal.NewTelemetry("egress", name)

	return &Egress[M, W, WArgs, WPtr]{
		Tel: tel,

		inputConnector: inputConnector,

		workerPool: pool.NewEgress[M, W, WArgs, WPtr](tel, poolCfg),
	}
}

func (e *Egress[M, W, WArgs, WPtr]) initMetrics() {
	e.Tel.NewCounter("skipped_messages", func() int64 { return e.skippedMessages.Load() })
}

func (e *Egress[M, W, WArgs, WPtr]) Init(ctx context.Context, workerArgs WArgs) error {
	defer e.Tel.LogInfo("initialized")

	if err := e.workerPool.Init(ctx, workerArgs); err != nil {
		return err
	}

	e.initMetrics()

	return nil
}

func (e *Egress[M, W, WArgs, WPtr]) Run(ctx context.Context) {
	e.Tel.LogInfo("running")
	defer e.Tel.LogInfo("stopped")

	e.workerPool.Run(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		msgIn, err := e.inputConnector.Read()
		if err != nil {
			if errors.Is(err, connector.ErrClosed) {
				e.Tel.LogInfo("input connector is closed, stopping")
				return
			}

			e.Tel.LogError("failed to read from input connector", err)
			continue
		}

		if !e.workerPool.AddTask(ctx, msgIn) {
			e.skippedMessages.Add(1)
		}
	}
}

func (e *Egress[M, W, WArgs, WPtr]) Close() {
	e.Tel.LogInfo("closing")

	e.workerPool.Close()
}

// SkippedMessages returns the number of messages dropped
// because the queue of the worker pool was full.
func (e *Egress[M, W, WArgs, WPtr]) SkippedMessages() int64 {
	return e.skippedMessages.Load()
}
