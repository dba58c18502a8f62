package stage

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/anand2532/SAE-J1939-parser/connector"
	"github.com/anand2532/SAE-J1939-parser/internal"
	"github.com/anand2532/SAE-J1939-parser/internal/pool"
	"github.com/cockroachdb/errors"
)

// Handler reads messages from its input connector, hands them to its
// worker pool and writes the results into its output connector.
type Handler[MIn, MOut msg, W, WArgs any, WPtr handlerWorkerPtr[W, WArgs, MIn, MOut]] struct {
	Tel *internal.Telemetry

	inputConnector  connector.Reader[MIn]
	outputConnector connector.Writer[MOut]

	writerWg sync.WaitGroup

	workerPool *pool.Handler[W, WArgs, MIn, MOut, WPtr]

	skippedMessages atomic.Int64
}

func NewHandler[MIn, MOut msg, W, WArgs any, WPtr handlerWorkerPtr[W, WArgs, MIn, MOut]](
	name string, inputConnector connector.Reader[MIn], outputConnector connector.Writer[MOut], poolCfg *pool.Config,
) *Handler[MIn, MOut, W, WArgs, WPtr] {

	tel := internal.NewTelemetry("handler", name)

	return &Handler[MIn, MOut, W, WArgs, WPtr]{
		Tel: tel,

		inputConnector:  inputConnector,
		outputConnector: outputConnector,

		workerPool: pool.NewHandler[W, WArgs, MIn, MOut, WPtr](tel, poolCfg),
	}
}

func (h *Handler[MIn, MOut, W, WArgs, WPtr]) initMetrics() {
	h.Tel.NewCounter("skipped_messages", func() int64 { return h.skippedMessages.Load() })
}

func (h *Handler[MIn, MOut, W, WArgs, WPtr]) Init(ctx context.Context, workerArgs WArgs) error {
	defer h.Tel.LogInfo("initialized")

	if err := h.workerPool.Init(ctx, workerArgs); err != nil {
		return err
	}

	h.initMetrics()

	return nil
}

func (h *Handler[MIn, MOut, W, WArgs, WPtr]) runWriter() {
	defer h.writerWg.Done()

	for msgOut := range h.workerPool.GetOutputCh() {
		if err := h.outputConnector.Write(msgOut); err != nil {
			h.Tel.LogError("failed to write into output connector", err)
		}
	}
}

func (h *Handler[MIn, MOut, W, WArgs, WPtr]) Run(ctx context.Context) {
	h.Tel.LogInfo("running")
	defer h.Tel.LogInfo("stopped")

	h.workerPool.Run(ctx)

	h.writerWg.Add(1)
	go h.runWriter()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		msgIn, err := h.inputConnector.Read()
		if err != nil {
			if errors.Is(err, connector.ErrClosed) {
				h.Tel.LogInfo("input connector is closed, stopping")
				return
			}

			h.Tel.LogError("failed to read from input connector", err)
			continue
		}

		if !h.workerPool.AddTask(ctx, msgIn) {
			h.skippedMessages.Add(1)
		}
	}
}

// Close stops the worker pool, waits for the pending results
// to be written and closes the output connector.
func (h *Handler[MIn, MOut, W, WArgs, WPtr]) Close() {
	h.Tel.LogInfo("closing")

	h.workerPool.Close()
	h.writerWg.Wait()

	h.outputConnector.Close()
}
