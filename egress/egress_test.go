package egress

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/anand2532/SAE-J1939-parser/catalog"
	"github.com/anand2532/SAE-J1939-parser/connector"
	"github.com/anand2532/SAE-J1939-parser/decode"
	"github.com/anand2532/SAE-J1939-parser/frame"
	"github.com/anand2532/SAE-J1939-parser/j1939"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMessage() *j1939.Message {
	ts := time.Unix(1700000000, 0)
	e := decode.NewEngine(catalog.Default())

	msg := &j1939.Message{SessionID: 42}
	for _, f := range []frame.CANFrame{
		{ID: 0x0CF00400, Data: [8]byte{0x03, 0x7D, 0x82, 0xE8, 0x03, 0x00, 0x01, 0x7D}, Timestamp: ts},
		{ID: 0x18ABCD00, Timestamp: ts},
	} {
		msg.Frames = append(msg.Frames, f)
		msg.Messages = append(msg.Messages, e.DecodeFrame(f))
	}

	return msg
}

func Test_kafkaRecords(t *testing.T) {
	assert := assert.New(t)

	records, err := kafkaRecords("topic", testMessage())
	require.NoError(t, err)
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal("topic", first.Topic)
	assert.Equal([]byte("0xF004"), first.Key)
	assert.Equal(time.Unix(1700000000, 0), first.Time)

	headers := map[string]string{}
	for _, h := range first.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal("success", headers[kafkaHeaderStatus])
	assert.Equal("42", headers[kafkaHeaderSession])

	value := map[string]any{}
	require.NoError(t, json.Unmarshal(first.Value, &value))
	assert.Equal("Electronic Engine Controller 1 - EEC1", value["pgn_name"])

	assert.Equal([]byte("0xABCD"), records[1].Key)
}

func Test_LiveStage(t *testing.T) {
	assert := assert.New(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := DefaultLiveConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = 0

	input := connector.NewChannel[*j1939.Message](16)
	live := NewLiveStage(input, cfg)
	require.NoError(t, live.Init(ctx))

	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		live.Run(ctx)
	}()

	url := "ws://" + live.Addr().String() + cfg.Path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return live.hub.clientCount() == 1 }, 5*time.Second, 5*time.Millisecond)

	require.NoError(t, input.Write(testMessage()))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	pgns := []string{}
	for range 2 {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)

		rec := map[string]any{}
		require.NoError(t, json.Unmarshal(data, &rec))
		pgns = append(pgns, rec["pgn_hex"].(string))
	}
	assert.Equal([]string{"0xF004", "0xABCD"}, pgns)

	input.Close()
	select {
	case <-runDone:
	case <-time.After(5 * time.Second):
		t.Fatal("stage did not stop")
	}
	live.Close()

	assert.Zero(live.hub.clientCount())
}

func Test_liveHub_DropsForSlowClient(t *testing.T) {
	hub := newLiveHub(nil, 1, time.Second)

	// a client that is never drained
	c := &liveClient{sendCh: make(chan []byte, 1), doneCh: make(chan struct{})}
	hub.clients[c] = struct{}{}

	assert.Equal(t, 1, hub.broadcast([]byte("a")))
	assert.Equal(t, 0, hub.broadcast([]byte("b")))
	assert.Equal(t, int64(1), hub.droppedRecords.Load())
	assert.Equal(t, "a", string(<-c.sendCh))
}
