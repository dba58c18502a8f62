package pool

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/anand2532/SAE-J1939-parser/internal"
	"github.com/anand2532/SAE-J1939-parser/internal/message"
)

// Ingress is a worker pool intended to be used by an ingress stage.
// It runs a single worker that receives messages until its source is exhausted.
type Ingress[W, InitArgs any, Out message.Message, WPtr IngressWorkerPtr[W, InitArgs, Out]] struct {
	*withOutput[Out]

	tel *internal.Telemetry

	cfg *Config

	initArgs InitArgs

	wg sync.WaitGroup

	receivedMessages atomic.Int64
	receivingErrors  atomic.Int64
}

// NewIngress returns a new ingress worker pool.
func NewIngress[W, InitArgs any, Out message.Message, WPtr IngressWorkerPtr[W, InitArgs, Out]](tel *internal.Telemetry, cfg *Config) *Ingress[W, InitArgs, Out, WPtr] {
	return &Ingress[W, InitArgs, Out, WPtr]{
		withOutput: newWithOutput[Out](cfg.channelSize()),

		tel: tel,

		cfg: cfg,
	}
}

// Init initialises the worker pool.
func (ip *Ingress[W, InitArgs, Out, WPtr]) Init(_ context.Context, initArgs InitArgs) error {
	ip.initMetrics()

	ip.initArgs = initArgs
	return nil
}

func (ip *Ingress[W, InitArgs, Out, WPtr]) initMetrics() {
	ip.tel.NewCounter("worker_pool_received_messages", func() int64 { return ip.receivedMessages.Load() })
	ip.tel.NewCounter("worker_pool_receiving_errors", func() int64 { return ip.receivingErrors.Load() })
}

// Run runs the worker until the context is done
// or the worker reports its source as exhausted.
func (ip *Ingress[W, InitArgs, Out, WPtr]) Run(ctx context.Context) {
	ip.wg.Add(1)
	defer ip.wg.Done()

	var dummyWorker W
	worker := WPtr(&dummyWorker)

	worker.SetTelemetry(ip.tel)

	if err := worker.Init(ctx, ip.initArgs); err != nil {
		ip.tel.LogError("failed to init worker", err)
		return
	}

	defer func() {
		if err := worker.Close(context.WithoutCancel(ctx)); err != nil {
			ip.tel.LogError("failed to close worker", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		msgOut, stop, err := worker.Receive(ctx)
		if err != nil {
			ip.tel.LogError("failed to receive message", err)
			ip.receivingErrors.Add(1)
		} else if !stop {
			ip.receivedMessages.Add(1)

			if !ip.sendOutput(ctx, msgOut) {
				return
			}
		}

		if stop {
			return
		}
	}
}

// Close waits for the worker to return and closes the output channel.
func (ip *Ingress[W, InitArgs, Out, WPtr]) Close() {
	ip.tel.LogInfo("closing worker pool")

	ip.wg.Wait()
	ip.closeOutput()
}
