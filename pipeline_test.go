package j1939parser

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type recorder struct {
	mux    sync.Mutex
	events []string
}

func (r *recorder) add(event string) {
	r.mux.Lock()
	defer r.mux.Unlock()

	r.events = append(r.events, event)
}

type testStage struct {
	name string
	rec  *recorder

	// closed by the previous stage
	input chan struct{}
	// closed by Close
	output chan struct{}
}

func (s *testStage) Init(_ context.Context) error {
	s.rec.add(s.name + " init")
	return nil
}

func (s *testStage) Run(ctx context.Context) {
	if s.input == nil {
		<-ctx.Done()
	} else {
		<-s.input
	}
	s.rec.add(s.name + " stopped")
}

func (s *testStage) Close() {
	s.rec.add(s.name + " closed")
	close(s.output)
}

func Test_Pipeline(t *testing.T) {
	assert := assert.New(t)

	rec := &recorder{}

	source := &testStage{name: "source", rec: rec, output: make(chan struct{})}
	handler := &testStage{name: "handler", rec: rec, input: source.output, output: make(chan struct{})}
	sink := &testStage{name: "sink", rec: rec, input: handler.output, output: make(chan struct{})}

	p := NewPipeline()
	p.AddStage(source)
	p.AddStage(handler)
	p.AddStage(sink)

	ctx, cancel := context.WithCancel(context.Background())
	assert.NoError(p.Init(ctx))

	p.Run(ctx)

	// stages added while running are ignored
	p.AddStage(&testStage{name: "late", rec: rec})

	cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		p.Close()
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("pipeline did not close")
	}

	assert.Equal([]string{
		"source init", "handler init", "sink init",
		"source stopped", "source closed",
		"handler stopped", "handler closed",
		"sink stopped", "sink closed",
	}, rec.events)
}
