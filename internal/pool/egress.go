package pool

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/anand2532/SAE-J1939-parser/internal"
	"github.com/anand2532/SAE-J1939-parser/internal/message"
	"go.opentelemetry.io/otel/metric"
)

// Egress is a worker pool intended to be used by an egress stage.
// Each worker delivers messages outside the pipeline.
type Egress[In message.Message, W, InitArgs any, WPtr EgressWorkerPtr[W, InitArgs, In]] struct {
	tel *internal.Telemetry

	cfg *Config

	scaler *scaler
	group  *group

	initArgs InitArgs

	inputCh chan In
	runCtx  context.Context

	deliveredMessages  atomic.Int64
	deliveringErrors   atomic.Int64
	totalTimeHistogram metric.Int64Histogram
}

// NewEgress returns a new egress worker pool.
func NewEgress[In message.Message, W, InitArgs any, WPtr EgressWorkerPtr[W, InitArgs, In]](tel *internal.Telemetry, cfg *Config) *Egress[In, W, InitArgs, WPtr] {
	return &Egress[In, W, InitArgs, WPtr]{
		tel: tel,

		cfg: cfg,

		scaler: newScaler(tel, cfg.toScaler()),
		group:  &group{},

		runCtx: context.Background(),

		inputCh: make(chan In, cfg.channelSize()),
	}
}

// Init initialises the worker pool.
func (ep *Egress[In, W, InitArgs, WPtr]) Init(ctx context.Context, initArgs InitArgs) error {
	if err := ep.cfg.Validate(); err != nil {
		return err
	}

	ep.initMetrics()

	ep.initArgs = initArgs
	ep.scaler.init(ctx, ep.cfg.InitialWorkers)

	return nil
}

func (ep *Egress[In, W, InitArgs, WPtr]) initMetrics() {
	ep.tel.NewCounter("worker_pool_delivered_messages", func() int64 { return ep.deliveredMessages.Load() })
	ep.tel.NewCounter("worker_pool_delivering_errors", func() int64 { return ep.deliveringErrors.Load() })

	ep.totalTimeHistogram = ep.tel.NewHistogram("total_message_processing_time", metric.WithUnit("ms"))
}

// Run runs the worker pool.
func (ep *Egress[In, W, InitArgs, WPtr]) Run(ctx context.Context) {
	ep.runCtx = ctx
	ep.scaler.start(ctx)

	go ep.scaler.listen(ctx, func() {
		ep.group.spawn(func() { ep.runWorker(ctx) })
	})
}

func (ep *Egress[In, W, InitArgs, WPtr]) runWorker(ctx context.Context) {
	var dummyWorker W
	worker := WPtr(&dummyWorker)

	worker.SetTelemetry(ep.tel)

	if err := worker.Init(ctx, ep.initArgs); err != nil {
		ep.tel.LogError("failed to init worker", err)
		return
	}

	workerID := ep.scaler.notifyWorkerStart()
	defer ep.scaler.notifyWorkerStop()

	ep.tel.LogInfo("starting worker", "worker_id", workerID)

	defer func() {
		ep.tel.LogInfo("stopping worker", "worker_id", workerID)

		if err := worker.Close(context.WithoutCancel(ctx)); err != nil {
			ep.tel.LogError("failed to close worker", err, "worker_id", workerID)
		}
	}()

	stopCh := ep.scaler.getStopCh(workerID)

	for {
		select {
		case <-ctx.Done():
			return

		case <-stopCh:
			return

		case msgIn := <-ep.inputCh:
			if err := worker.Deliver(ctx, msgIn); err != nil {
				ep.tel.LogError("failed to deliver message", err, "worker_id", workerID)
				ep.deliveringErrors.Add(1)
			} else {
				ep.deliveredMessages.Add(1)
				ep.totalTimeHistogram.Record(ctx, time.Since(msgIn.GetReceiveTime()).Milliseconds())
			}

			ep.scaler.notifyTaskCompleted()
		}
	}
}

// Close stops the workers.
func (ep *Egress[In, W, InitArgs, WPtr]) Close() {
	ep.tel.LogInfo("closing worker pool")

	if !ep.scaler.waitIdle(ep.runCtx, ep.cfg.DrainTimeout) {
		ep.tel.LogWarn("closing with pending tasks", "pending_tasks", ep.scaler.pendingTasks.Load())
	}

	ep.scaler.stop()
	ep.group.close()
}

// AddTask adds a new task to the worker pool.
// It returns false when the queue of the pool is full.
func (ep *Egress[In, W, InitArgs, WPtr]) AddTask(ctx context.Context, task In) bool {
	select {
	case <-ctx.Done():
		return false

	case ep.inputCh <- task:
		ep.scaler.notifyTaskAdded()
		return true

	default:
		return false
	}
}
