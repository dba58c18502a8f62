package stage

import (
	"context"
	"sync"

	"github.com/anand2532/SAE-J1939-parser/connector"
	"github.com/anand2532/SAE-J1939-parser/internal"
	"github.com/anand2532/SAE-J1939-parser/internal/pool"
)

// Ingress receives messages from outside the pipeline
// and writes them into its output connector.
type Ingress[M msg, W, WArgs any, WPtr ingressWorkerPtr[W, WArgs, M]] struct {
	Tel *internal.Telemetry

	outputConnector connector.Writer[M]

	writerWg sync.WaitGroup

	workerPool *pool.Ingress[W, WArgs, M, WPtr]
}

func NewIngress[M msg, W, WArgs any, WPtr ingressWorkerPtr[W, WArgs, M]](
	name string, outputConnector connector.Writer[M], poolCfg *pool.Config,
) *Ingress[M, W, WArgs, WPtr] {

	tel := internal.NewTelemetry("ingress", name)

	return &Ingress[M, W, WArgs, WPtr]{
		Tel: tel,

		outputConnector: outputConnector,

		workerPool: pool.NewIngress[W, WArgs, M, WPtr](tel, poolCfg),
	}
}

func (i *Ingress[M, W, WArgs, WPtr]) Init(ctx context.Context, workerArgs WArgs) error {
	defer i.Tel.LogInfo("initialized")

	return i.workerPool.Init(ctx, workerArgs)
}

func (i *Ingress[M, W, WArgs, WPtr]) runWriter() {
	defer i.writerWg.Done()

	for msgOut := range i.workerPool.GetOutputCh() {
		if err := i.outputConnector.Write(msgOut); err != nil {
			i.Tel.LogError("failed to write into output connector", err)
		}
	}
}

func (i *Ingress[M, W, WArgs, WPtr]) Run(ctx context.Context) {
	i.Tel.LogInfo("running")
	defer i.Tel.LogInfo("stopped")

	i.writerWg.Add(1)
	go i.runWriter()

	i.workerPool.Run(ctx)
}

// Close waits for the pending messages to be written
// and closes the output connector.
func (i *Ingress[M, W, WArgs, WPtr]) Close() {
	i.Tel.LogInfo("closing")

	i.workerPool.Close()
	i.writerWg.Wait()

	i.outputConnector.Close()
}
