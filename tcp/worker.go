package tcp

import (
	"context"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/anand2532/SAE-J1939-parser/internal/pool"
	"github.com/cockroachdb/errors"
)

type workerArgs struct {
	listener net.Listener
	cfg      *Config
}

// worker accepts connections and multiplexes the messages
// produced by every session into a single channel.
type worker struct {
	pool.BaseWorker

	listener net.Listener
	cfg      *Config

	outCh chan *Message

	mux      sync.Mutex
	sessions map[uint64]net.Conn
	nextID   uint64

	acceptWg  sync.WaitGroup
	sessionWg sync.WaitGroup
	closeOnce sync.Once

	// Telemetry metrics
	activeSessions atomic.Int64
	totalSessions  atomic.Int64
	receivedBytes  atomic.Int64
	receivedFrames atomic.Int64
	overflows      atomic.Int64
}

func (w *worker) Init(ctx context.Context, args *workerArgs) error {
	if args == nil || args.listener == nil {
		return errors.New("tcp: missing listener")
	}

	w.listener = args.listener
	w.cfg = args.cfg

	w.outCh = make(chan *Message, w.cfg.MaxWorkers*w.cfg.QueueDepthPerWorker)
	w.sessions = make(map[uint64]net.Conn)

	w.initMetrics()

	go func() {
		<-ctx.Done()
		w.shutdown()
	}()

	w.acceptWg.Add(1)
	go w.acceptLoop(ctx)

	go func() {
		w.acceptWg.Wait()
		w.sessionWg.Wait()
		close(w.outCh)
	}()

	w.Tel.LogInfo("listening", "address", w.listener.Addr().String())

	return nil
}

func (w *worker) initMetrics() {
	w.Tel.NewUpDownCounter("active_sessions", func() int64 { return w.activeSessions.Load() })
	w.Tel.NewCounter("total_sessions", func() int64 { return w.totalSessions.Load() })
	w.Tel.NewCounter("received_bytes", func() int64 { return w.receivedBytes.Load() })
	w.Tel.NewCounter("received_frames", func() int64 { return w.receivedFrames.Load() })
	w.Tel.NewCounter("buffer_overflows", func() int64 { return w.overflows.Load() })
}

func (w *worker) acceptLoop(ctx context.Context) {
	defer w.acceptWg.Done()

	var retryDelay time.Duration

	for {
		conn, err := w.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				return
			}

			retryDelay = nextAcceptDelay(retryDelay)
			w.Tel.LogError("failed to accept connection", err, "retry_in", retryDelay)

			select {
			case <-ctx.Done():
				return
			case <-time.After(retryDelay):
			}
			continue
		}
		retryDelay = 0

		id, ok := w.track(conn)
		if !ok {
			conn.Close()
			return
		}

		sess := newSession(w.Tel, id, conn, w.cfg)

		w.sessionWg.Add(1)
		go func() {
			defer w.sessionWg.Done()
			defer w.untrack(id)

			sess.run(ctx, w.outCh, w)
		}()
	}
}

// track registers a connection. It returns false when the worker is shutting down.
func (w *worker) track(conn net.Conn) (uint64, bool) {
	w.mux.Lock()
	defer w.mux.Unlock()

	if w.sessions == nil {
		return 0, false
	}

	w.nextID++
	id := w.nextID
	w.sessions[id] = conn

	w.activeSessions.Add(1)
	w.totalSessions.Add(1)

	return id, true
}

func (w *worker) untrack(id uint64) {
	w.mux.Lock()
	defer w.mux.Unlock()

	if w.sessions == nil {
		return
	}

	if _, ok := w.sessions[id]; ok {
		delete(w.sessions, id)
		w.activeSessions.Add(-1)
	}
}

// shutdown closes the listener and every open session.
func (w *worker) shutdown() {
	w.closeOnce.Do(func() {
		if err := w.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			w.Tel.LogError("failed to close listener", err)
		}

		w.mux.Lock()
		for id, conn := range w.sessions {
			conn.Close()
			delete(w.sessions, id)
			w.activeSessions.Add(-1)
		}
		w.sessions = nil
		w.mux.Unlock()
	})
}

func (w *worker) addBytes(n int64)  { w.receivedBytes.Add(n) }
func (w *worker) addFrames(n int64) { w.receivedFrames.Add(n) }
func (w *worker) addOverflow()      { w.overflows.Add(1) }

// Receive returns the next message of any session.
func (w *worker) Receive(ctx context.Context) (*Message, bool, error) {
	select {
	case <-ctx.Done():
		return nil, true, nil

	case msg, ok := <-w.outCh:
		if !ok {
			return nil, true, nil
		}
		return msg, false, nil
	}
}

func (w *worker) Close(_ context.Context) error {
	w.shutdown()
	w.acceptWg.Wait()
	w.sessionWg.Wait()
	return nil
}

const (
	minAcceptDelay = 5 * time.Millisecond
	maxAcceptDelay = time.Second
)

// nextAcceptDelay doubles the wait after a failed accept, up to one second.
func nextAcceptDelay(prev time.Duration) time.Duration {
	if prev == 0 {
		return minAcceptDelay
	}
	return min(2*prev, maxAcceptDelay)
}
