package pool

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/anand2532/SAE-J1939-parser/internal"
	"github.com/anand2532/SAE-J1939-parser/internal/message"
	"go.opentelemetry.io/otel/metric"
)

// Handler is a worker pool intended to be used by an handler stage.
// Each worker turns an input message into an output message.
type Handler[W, InitArgs any, In, Out message.Message, WPtr HandlerWorkerPtr[W, InitArgs, In, Out]] struct {
	*withOutput[Out]

	tel *internal.Telemetry

	cfg *Config

	scaler *scaler
	group  *group

	initArgs InitArgs

	inputCh chan In
	runCtx  context.Context

	handledMessages       atomic.Int64
	handlingErrors        atomic.Int64
	handlingTimeHistogram metric.Int64Histogram
}

// NewHandler returns a new handler worker pool.
func NewHandler[W, InitArgs any, In, Out message.Message, WPtr HandlerWorkerPtr[W, InitArgs, In, Out]](tel *internal.Telemetry, cfg *Config) *Handler[W, InitArgs, In, Out, WPtr] {
	channelSize := cfg.channelSize()

	return &Handler[W, InitArgs, In, Out, WPtr]{
		withOutput: newWithOutput[Out](channelSize),

		tel: tel,

		cfg: cfg,

		scaler: newScaler(tel, cfg.toScaler()),
		group:  &group{},

		runCtx: context.Background(),

		inputCh: make(chan In, channelSize),
	}
}

// Init initialises the worker pool.
func (p *Handler[W, InitArgs, In, Out, WPtr]) Init(ctx context.Context, initArgs InitArgs) error {
	if err := p.cfg.Validate(); err != nil {
		return err
	}

	p.initMetrics()

	p.initArgs = initArgs
	p.scaler.init(ctx, p.cfg.InitialWorkers)

	return nil
}

func (p *Handler[W, InitArgs, In, Out, WPtr]) initMetrics() {
	p.tel.NewCounter("worker_pool_handled_messages", func() int64 { return p.handledMessages.Load() })
	p.tel.NewCounter("worker_pool_handling_errors", func() int64 { return p.handlingErrors.Load() })

	p.handlingTimeHistogram = p.tel.NewHistogram("handling_time", metric.WithUnit("us"))
}

// Run runs the worker pool.
func (p *Handler[W, InitArgs, In, Out, WPtr]) Run(ctx context.Context) {
	p.runCtx = ctx
	p.scaler.start(ctx)

	go p.scaler.listen(ctx, func() {
		p.group.spawn(func() { p.runWorker(ctx) })
	})
}

func (p *Handler[W, InitArgs, In, Out, WPtr]) runWorker(ctx context.Context) {
	var dummyWorker W
	worker := WPtr(&dummyWorker)

	worker.SetTelemetry(p.tel)

	if err := worker.Init(ctx, p.initArgs); err != nil {
		p.tel.LogError("failed to init worker", err)
		return
	}

	workerID := p.scaler.notifyWorkerStart()
	defer p.scaler.notifyWorkerStop()

	p.tel.LogInfo("starting worker", "worker_id", workerID)

	defer func() {
		p.tel.LogInfo("stopping worker", "worker_id", workerID)

		if err := worker.Close(context.WithoutCancel(ctx)); err != nil {
			p.tel.LogError("failed to close worker", err, "worker_id", workerID)
		}
	}()

	stopCh := p.scaler.getStopCh(workerID)

	for {
		select {
		case <-ctx.Done():
			return

		case <-stopCh:
			return

		case msgIn := <-p.inputCh:
			p.handle(ctx, worker, workerID, msgIn)
			p.scaler.notifyTaskCompleted()
		}
	}
}

func (p *Handler[W, InitArgs, In, Out, WPtr]) handle(ctx context.Context, worker WPtr, workerID int, msgIn In) {
	start := time.Now()

	msgOut, err := worker.Handle(ctx, msgIn)
	if err != nil {
		p.tel.LogError("failed to handle message", err, "worker_id", workerID)
		p.handlingErrors.Add(1)
		return
	}

	p.handledMessages.Add(1)
	p.handlingTimeHistogram.Record(ctx, time.Since(start).Microseconds())

	p.sendOutput(ctx, msgOut)
}

// Close stops the workers and closes the output channel.
func (p *Handler[W, InitArgs, In, Out, WPtr]) Close() {
	p.tel.LogInfo("closing worker pool")

	if !p.scaler.waitIdle(p.runCtx, p.cfg.DrainTimeout) {
		p.tel.LogWarn("closing with pending tasks", "pending_tasks", p.scaler.pendingTasks.Load())
	}

	p.scaler.stop()
	p.group.close()

	p.closeOutput()
}

// AddTask adds a new task to the worker pool.
// It returns false when the queue of the pool is full.
func (p *Handler[W, InitArgs, In, Out, WPtr]) AddTask(ctx context.Context, task In) bool {
	select {
	case <-ctx.Done():
		return false

	case p.inputCh <- task:
		p.scaler.notifyTaskAdded()
		return true

	default:
		return false
	}
}
