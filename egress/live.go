package egress

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/anand2532/SAE-J1939-parser/connector"
	"github.com/anand2532/SAE-J1939-parser/internal"
	"github.com/anand2532/SAE-J1939-parser/internal/pool"
	"github.com/anand2532/SAE-J1939-parser/internal/stage"
	"github.com/anand2532/SAE-J1939-parser/j1939"
	"github.com/anand2532/SAE-J1939-parser/report"
	"github.com/cockroachdb/errors"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
)

//////////////
//  CONFIG  //
//////////////

type LiveConfig struct {
	PoolConfig *pool.Config `yaml:"pool"`

	Host string `yaml:"host"`
	Port uint16 `yaml:"port"`
	Path string `yaml:"path"`

	// ClientQueueSize is the number of records buffered per client,
	// records for a client with a full queue are dropped.
	ClientQueueSize int `yaml:"client_queue_size"`

	WriteTimeout time.Duration `yaml:"write_timeout"`
}

func DefaultLiveConfig() *LiveConfig {
	return &LiveConfig{
		PoolConfig: pool.FixedConfig(1),

		Host: "0.0.0.0",
		Port: 8081,
		Path: "/ws",

		ClientQueueSize: 256,
		WriteTimeout:    5 * time.Second,
	}
}

///////////
//  HUB  //
///////////

type liveClient struct {
	conn   *websocket.Conn
	sendCh chan []byte
	doneCh chan struct{}
	once   sync.Once
}

func (c *liveClient) close() {
	c.once.Do(func() {
		close(c.doneCh)
		c.conn.Close()
	})
}

// liveHub broadcasts the encoded records to every connected client.
type liveHub struct {
	tel *internal.Telemetry

	upgrader     websocket.Upgrader
	queueSize    int
	writeTimeout time.Duration

	mux     sync.Mutex
	clients map[*liveClient]struct{}
	closed  bool

	wg sync.WaitGroup

	connectedClients atomic.Int64
	droppedRecords   atomic.Int64
}

func newLiveHub(tel *internal.Telemetry, queueSize int, writeTimeout time.Duration) *liveHub {
	return &liveHub{
		tel: tel,

		upgrader: websocket.Upgrader{
			CheckOrigin: func(_ *http.Request) bool {
				return true
			},
		},
		queueSize:    queueSize,
		writeTimeout: writeTimeout,

		clients: make(map[*liveClient]struct{}),
	}
}

func (h *liveHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader already replied to the client
		h.tel.LogWarn("failed to upgrade connection", "remote", r.RemoteAddr, "cause", err)
		return
	}

	client := &liveClient{
		conn:   conn,
		sendCh: make(chan []byte, h.queueSize),
		doneCh: make(chan struct{}),
	}

	if !h.add(client) {
		conn.Close()
		return
	}

	h.tel.LogInfo("live client connected", "remote", r.RemoteAddr)

	go h.writeLoop(client)
	go h.readLoop(client)
}

func (h *liveHub) add(c *liveClient) bool {
	h.mux.Lock()
	defer h.mux.Unlock()

	if h.closed {
		return false
	}

	h.clients[c] = struct{}{}
	h.connectedClients.Add(1)

	// one for each loop of the client
	h.wg.Add(2)

	return true
}

func (h *liveHub) remove(c *liveClient) {
	h.mux.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		h.connectedClients.Add(-1)
	}
	h.mux.Unlock()

	c.close()
}

// readLoop discards the incoming messages and detects the closing of the client.
func (h *liveHub) readLoop(c *liveClient) {
	defer h.wg.Done()
	defer h.remove(c)

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *liveHub) writeLoop(c *liveClient) {
	defer h.wg.Done()
	defer h.remove(c)

	for {
		select {
		case <-c.doneCh:
			return

		case data := <-c.sendCh:
			if err := c.conn.SetWriteDeadline(time.Now().Add(h.writeTimeout)); err != nil {
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.tel.LogWarn("failed to write to live client", "remote", c.conn.RemoteAddr().String(), "cause", err)
				return
			}
		}
	}
}

// broadcast queues data for every client and returns the number of clients reached.
func (h *liveHub) broadcast(data []byte) int {
	h.mux.Lock()
	defer h.mux.Unlock()

	reached := 0
	for c := range h.clients {
		select {
		case c.sendCh <- data:
			reached++
		default:
			h.droppedRecords.Add(1)
		}
	}

	return reached
}

func (h *liveHub) clientCount() int {
	return int(h.connectedClients.Load())
}

func (h *liveHub) close() {
	h.mux.Lock()
	h.closed = true
	clients := make([]*liveClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mux.Unlock()

	for _, c := range clients {
		c.close()
	}

	h.wg.Wait()
}

//////////////
//  WORKER  //
//////////////

type liveWorkerArgs struct {
	hub *liveHub
}

type liveWorker struct {
	pool.BaseWorker

	hub *liveHub
}

func (lw *liveWorker) Init(_ context.Context, args *liveWorkerArgs) error {
	lw.hub = args.hub
	return nil
}

func (lw *liveWorker) Deliver(ctx context.Context, msg *j1939.Message) error {
	_, span := lw.Tel.NewTrace(msg.LoadSpanContext(ctx), "broadcast live records")
	defer span.End()

	if lw.hub.clientCount() == 0 {
		return nil
	}

	for _, decoded := range msg.Messages {
		data, err := json.Marshal(report.NewRecord(decoded))
		if err != nil {
			return errors.Wrapf(err, "encode record of pgn %s", decoded.PGNHex)
		}

		lw.hub.broadcast(data)
	}

	span.SetAttributes(attribute.Int("record_count", len(msg.Messages)))

	return nil
}

func (lw *liveWorker) Close(_ context.Context) error { return nil }

/////////////
//  STAGE  //
/////////////

// LiveStage serves the decoded records to websocket clients.
type LiveStage struct {
	*stage.Egress[*j1939.Message, liveWorker, *liveWorkerArgs, *liveWorker]

	cfg *LiveConfig

	hub    *liveHub
	server *http.Server

	mux  sync.Mutex
	addr net.Addr

	serveWg sync.WaitGroup
}

func NewLiveStage(inputConnector connector.Reader[*j1939.Message], cfg *LiveConfig) *LiveStage {
	return &LiveStage{
		Egress: stage.NewEgress[*j1939.Message, liveWorker, *liveWorkerArgs]("live", inputConnector, cfg.PoolConfig),

		cfg: cfg,
	}
}

func (ls *LiveStage) Init(ctx context.Context) error {
	ls.hub = newLiveHub(ls.Tel, ls.cfg.ClientQueueSize, ls.cfg.WriteTimeout)

	mux := http.NewServeMux()
	mux.Handle(ls.cfg.Path, ls.hub)

	address := net.JoinHostPort(ls.cfg.Host, strconv.Itoa(int(ls.cfg.Port)))
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return errors.Wrapf(err, "live: listen on %s", address)
	}

	ls.mux.Lock()
	ls.addr = listener.Addr()
	ls.mux.Unlock()

	ls.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ls.serveWg.Add(1)
	go func() {
		defer ls.serveWg.Done()

		if err := ls.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			ls.Tel.LogError("live server failed", err)
		}
	}()

	ls.Tel.NewUpDownCounter("connected_clients", func() int64 { return ls.hub.connectedClients.Load() })
	ls.Tel.NewCounter("dropped_records", func() int64 { return ls.hub.droppedRecords.Load() })

	ls.Tel.LogInfo("serving live records", "address", listener.Addr().String(), "path", ls.cfg.Path)

	return ls.Egress.Init(ctx, &liveWorkerArgs{hub: ls.hub})
}

// Addr returns the address of the HTTP server, nil before Init.
func (ls *LiveStage) Addr() net.Addr {
	ls.mux.Lock()
	defer ls.mux.Unlock()

	return ls.addr
}

func (ls *LiveStage) Close() {
	ls.Egress.Close()

	if ls.server == nil {
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ls.cfg.WriteTimeout)
	defer cancel()

	if err := ls.server.Shutdown(shutdownCtx); err != nil {
		ls.Tel.LogError("failed to shutdown live server", err)
	}
	ls.serveWg.Wait()

	// hijacked websocket connections are not closed by Shutdown
	ls.hub.close()
}
