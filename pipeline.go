// Package j1939parser assembles the stages of the telemetry server
// into a pipeline.
package j1939parser

import (
	"context"
	"sync"
)

type Stage interface {
	Init(ctx context.Context) error
	Run(ctx context.Context)
	Close()
}

// Pipeline runs its stages in the order they were added, the first
// one being the source of the messages.
//
// The context given to Run stops the source only. The other stages keep
// running until their input connector is closed by the upstream stage,
// so Close delivers every message already received.
type Pipeline struct {
	stages []Stage
	runWgs []*sync.WaitGroup

	isRunning bool

	cancelDownstream context.CancelFunc
}

func NewPipeline() *Pipeline {
	return &Pipeline{
		stages: []Stage{},
		runWgs: []*sync.WaitGroup{},

		isRunning: false,
	}
}

func (p *Pipeline) AddStage(stage Stage) {
	if p.isRunning {
		return
	}

	p.stages = append(p.stages, stage)
	p.runWgs = append(p.runWgs, &sync.WaitGroup{})
}

func (p *Pipeline) Init(ctx context.Context) error {
	for _, stage := range p.stages {
		if err := stage.Init(ctx); err != nil {
			return err
		}
	}

	return nil
}

func (p *Pipeline) Run(ctx context.Context) {
	p.isRunning = true

	downstreamCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	p.cancelDownstream = cancel

	for idx, stage := range p.stages {
		stageCtx := downstreamCtx
		if idx == 0 {
			stageCtx = ctx
		}

		p.runWgs[idx].Add(1)
		go func() {
			defer p.runWgs[idx].Done()
			stage.Run(stageCtx)
		}()
	}
}

// Close must be called once the context given to Run is done.
// Each stage is closed after its run has returned, in order,
// so the closing of a stage ends the run of the next one.
func (p *Pipeline) Close() {
	for idx, stage := range p.stages {
		p.runWgs[idx].Wait()
		stage.Close()
	}

	if p.cancelDownstream != nil {
		p.cancelDownstream()
	}
}
