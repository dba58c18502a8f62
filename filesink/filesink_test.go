package filesink

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/anand2532/SAE-J1939-parser/catalog"
	"github.com/anand2532/SAE-J1939-parser/connector"
	"github.com/anand2532/SAE-J1939-parser/decode"
	"github.com/anand2532/SAE-J1939-parser/frame"
	"github.com/anand2532/SAE-J1939-parser/j1939"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMessage() *j1939.Message {
	ts := time.Unix(1700000000, 0)
	e := decode.NewEngine(catalog.Default())

	msg := &j1939.Message{SessionID: 1}
	for _, f := range []frame.CANFrame{
		{ID: 0x0CF00400, Data: [8]byte{0x03, 0x7D, 0x82, 0xE8, 0x03, 0x00, 0x01, 0x7D}, Timestamp: ts},
		{ID: 0x18ABCD00, Data: [8]byte{1, 2, 3, 4, 5, 6, 7, 8}, Timestamp: ts},
	} {
		msg.Frames = append(msg.Frames, f)
		msg.Messages = append(msg.Messages, e.DecodeFrame(f))
	}

	return msg
}

func decodeLines(t *testing.T, data []byte) []map[string]any {
	t.Helper()

	lines := []map[string]any{}
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := map[string]any{}
		require.NoError(t, json.Unmarshal(sc.Bytes(), &line))
		lines = append(lines, line)
	}
	require.NoError(t, sc.Err())

	return lines
}

func Test_files_write(t *testing.T) {
	assert := assert.New(t)

	raw := &bytes.Buffer{}
	decoded := &bytes.Buffer{}
	f := newFiles(raw, decoded)

	frames, records, err := f.write(testMessage())
	require.NoError(t, err)
	assert.Equal(2, frames)
	assert.Equal(2, records)

	require.Equal(t, 2*frame.Size, raw.Len())

	first, err := frame.Decode(raw.Bytes()[:frame.Size])
	require.NoError(t, err)
	assert.Equal(uint32(0x0CF00400), first.ID)

	lines := decodeLines(t, decoded.Bytes())
	require.Len(t, lines, 2)
	assert.Equal("0xF004", lines[0]["pgn_hex"])
	assert.Equal(string(decode.StatusUnknownPGN), lines[1]["status"])

	require.NoError(t, f.close())
}

func Test_Stage(t *testing.T) {
	assert := assert.New(t)

	dir := t.TempDir()

	cfg := NewDefaultConfig()
	cfg.RawLogPath = filepath.Join(dir, "raw_data.log")
	cfg.DecodedLogPath = filepath.Join(dir, "decoded_data.json")

	// existing content is kept
	require.NoError(t, os.WriteFile(cfg.DecodedLogPath, []byte(`{"old":true}`+"\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	input := connector.NewChannel[*j1939.Message](16)
	stage := NewStage(input, cfg)
	require.NoError(t, stage.Init(ctx))

	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		stage.Run(ctx)
	}()

	for range 3 {
		require.NoError(t, input.Write(testMessage()))
	}
	input.Close()

	select {
	case <-runDone:
	case <-time.After(5 * time.Second):
		t.Fatal("stage did not stop")
	}
	stage.Close()

	raw, err := os.ReadFile(cfg.RawLogPath)
	require.NoError(t, err)
	assert.Len(raw, 6*frame.Size)

	decoded, err := os.ReadFile(cfg.DecodedLogPath)
	require.NoError(t, err)
	assert.True(strings.HasPrefix(string(decoded), `{"old":true}`))
	assert.Len(decodeLines(t, decoded), 7)
}
