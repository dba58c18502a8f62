package pool

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/anand2532/SAE-J1939-parser/internal"
)

type scalerCfg struct {
	enabled             bool
	minWorkers          int
	maxWorkers          int
	queueDepthThreshold float64
	scaleDownFactor     float64
	scaleDownBackoff    float64
	interval            time.Duration
}

// scaler decides how many workers a pool runs. It asks the pool to start
// a worker through the start channel and stops a worker through
// the stop channel matching its id.
type scaler struct {
	tel *internal.Telemetry

	cfg *scalerCfg

	consecutiveScaleDown int
	scaleDownAt          float64

	startCh    chan struct{}
	stopChList []chan struct{}
	doneCh     chan struct{}
	runWg      sync.WaitGroup
	stopOnce   sync.Once

	currWorkers   atomic.Int32
	activeWorkers atomic.Int32

	pendingTasks atomic.Int64
}

func newScaler(tel *internal.Telemetry, cfg *scalerCfg) *scaler {
	stopChList := make([]chan struct{}, cfg.maxWorkers)
	for idx := range stopChList {
		stopChList[idx] = make(chan struct{})
	}

	return &scaler{
		tel: tel,

		cfg: cfg,

		scaleDownAt: 1,

		startCh:    make(chan struct{}, cfg.maxWorkers),
		stopChList: stopChList,
		doneCh:     make(chan struct{}),
	}
}

func (s *scaler) initMetrics() {
	s.tel.NewUpDownCounter("worker_pool_pending_tasks", func() int64 {
		return s.pendingTasks.Load()
	})

	s.tel.NewUpDownCounter("worker_pool_active_workers", func() int64 {
		return int64(s.activeWorkers.Load())
	})
}

func (s *scaler) init(ctx context.Context, initialWorkers int) {
	for range initialWorkers {
		s.sendStart(ctx)
	}

	s.currWorkers.Store(int32(initialWorkers))

	s.initMetrics()
}

// listen calls spawn every time a worker has to be started.
func (s *scaler) listen(ctx context.Context, spawn func()) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.doneCh:
			return
		case <-s.startCh:
			spawn()
		}
	}
}

func (s *scaler) start(ctx context.Context) {
	if !s.cfg.enabled {
		return
	}

	s.runWg.Add(1)
	go func() {
		defer s.runWg.Done()
		s.run(ctx)
	}()
}

func (s *scaler) run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.doneCh:
			return
		case <-ticker.C:
			s.evaluateAndScale(ctx)
		}
	}
}

func (s *scaler) evaluateAndScale(ctx context.Context) {
	currWorkers := int(s.currWorkers.Load())
	pendingTasks := int(s.pendingTasks.Load())

	queueDepthPerWorker := float64(pendingTasks) / float64(max(currWorkers, 1))

	s.tel.LogDebug("auto-scaling metrics",
		"active_workers", s.activeWorkers.Load(),
		"pending_tasks", pendingTasks,
		"queue_depth_per_worker", queueDepthPerWorker,
	)

	if queueDepthPerWorker > s.cfg.queueDepthThreshold {
		workersToAdd := max(int(math.Ceil(float64(pendingTasks)/s.cfg.queueDepthThreshold)), 1)
		targetWorkers := min(currWorkers+workersToAdd, s.cfg.maxWorkers)

		if targetWorkers > currWorkers {
			s.tel.LogInfo("scaling up", "from", currWorkers, "to", targetWorkers)
			s.scaleWorkers(ctx, targetWorkers)
		}

		s.resetScaleDownTiming()
		return
	}

	if currWorkers > s.cfg.minWorkers && pendingTasks < currWorkers {
		if !s.checkScaleDownTiming() {
			return
		}

		workersToRemove := max(int(math.Ceil(float64(currWorkers)*s.cfg.scaleDownFactor)), 1)
		targetWorkers := max(currWorkers-workersToRemove, s.cfg.minWorkers)

		if targetWorkers < currWorkers {
			s.tel.LogInfo("scaling down", "from", currWorkers, "to", targetWorkers)
			s.scaleWorkers(ctx, targetWorkers)
		}
	}
}

func (s *scaler) resetScaleDownTiming() {
	s.consecutiveScaleDown = 0
	s.scaleDownAt = 1
}

// checkScaleDownTiming reports whether the pool can scale down now.
// Consecutive scale downs are spaced by an exponential backoff.
func (s *scaler) checkScaleDownTiming() bool {
	s.consecutiveScaleDown++

	if float64(s.consecutiveScaleDown) < s.scaleDownAt {
		return false
	}

	s.consecutiveScaleDown = 0
	s.scaleDownAt = min(s.scaleDownAt*s.cfg.scaleDownBackoff, 15)

	return true
}

func (s *scaler) sendStart(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-s.doneCh:
	case s.startCh <- struct{}{}:
	}
}

func (s *scaler) sendStop(ctx context.Context, id int) {
	if id < 0 || id >= len(s.stopChList) {
		return
	}

	select {
	case <-ctx.Done():
	case <-s.doneCh:
	case s.stopChList[id] <- struct{}{}:
	}
}

func (s *scaler) scaleWorkers(ctx context.Context, targetCount int) {
	currWorkerCount := int(s.currWorkers.Swap(int32(targetCount)))
	delta := targetCount - currWorkerCount

	if delta > 0 {
		for range delta {
			s.sendStart(ctx)
		}
		return
	}

	for id := currWorkerCount - 1; id >= targetCount; id-- {
		s.sendStop(ctx, id)
	}
}

// waitIdle waits until every queued task is completed. It gives up
// when the context of the workers is done or the timeout expires.
func (s *scaler) waitIdle(ctx context.Context, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)

	for s.pendingTasks.Load() > 0 {
		if ctx.Err() != nil || time.Now().After(deadline) {
			return false
		}
		time.Sleep(time.Millisecond)
	}

	return true
}

// stop ends the scaling loop and asks every worker to stop.
func (s *scaler) stop() {
	s.stopOnce.Do(func() {
		close(s.doneCh)
		s.runWg.Wait()

		for _, stopCh := range s.stopChList {
			close(stopCh)
		}
	})
}

func (s *scaler) notifyWorkerStart() int {
	return int(s.activeWorkers.Add(1)) - 1
}

func (s *scaler) notifyWorkerStop() {
	s.activeWorkers.Add(-1)
}

func (s *scaler) notifyTaskAdded() {
	s.pendingTasks.Add(1)
}

func (s *scaler) notifyTaskCompleted() {
	s.pendingTasks.Add(-1)
}

func (s *scaler) getStopCh(workerID int) <-chan struct{} {
	if workerID >= len(s.stopChList) {
		return nil
	}
	return s.stopChList[workerID]
}

// group tracks the running workers of a pool.
// Once closed it refuses to start new ones.
type group struct {
	mux    sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func (g *group) spawn(fn func()) {
	g.mux.Lock()
	defer g.mux.Unlock()

	if g.closed {
		return
	}

	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		fn()
	}()
}

func (g *group) close() {
	g.mux.Lock()
	g.closed = true
	g.mux.Unlock()

	g.wg.Wait()
}
