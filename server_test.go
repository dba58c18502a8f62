package j1939parser

import (
	"context"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/anand2532/SAE-J1939-parser/config"
	"github.com/anand2532/SAE-J1939-parser/frame"
	"github.com/anand2532/SAE-J1939-parser/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Server(t *testing.T) {
	assert := assert.New(t)

	dir := t.TempDir()

	cfg := config.Default()
	cfg.TCP.Host = "127.0.0.1"
	cfg.TCP.Port = 0
	cfg.FileSink.Config.RawLogPath = filepath.Join(dir, "raw_data.log")
	cfg.FileSink.Config.DecodedLogPath = filepath.Join(dir, "decoded_data.json")
	cfg.SummaryPath = filepath.Join(dir, "summary.json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := NewServer(cfg)
	require.NoError(t, srv.Init(ctx))
	srv.Run(ctx)

	payload := []byte{}
	for _, f := range []frame.CANFrame{
		{ID: 0x0CF00400, Data: [8]byte{0x03, 0x7D, 0x82, 0xE8, 0x03, 0x00, 0x01, 0x7D}},
		{ID: 0x18ABCD00},
		{ID: 0x18FEEE00, Data: [8]byte{120, 90, 32, 35, 255, 255, 255, 255}},
	} {
		payload = frame.AppendEncode(payload, f)
	}

	conn, err := net.Dial("tcp", srv.Addr().String())
	require.NoError(t, err)

	// split inside the second frame
	_, err = conn.Write(payload[:17])
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)
	_, err = conn.Write(payload[17:])
	require.NoError(t, err)
	require.NoError(t, conn.Close())

	require.Eventually(t, func() bool { return srv.Stats().Total == 3 }, 5*time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, srv.Close())

	stats := srv.Stats()
	assert.Equal(uint64(2), stats.Decoded)
	assert.Equal(uint64(1), stats.Unknown)

	raw, err := os.ReadFile(cfg.FileSink.Config.RawLogPath)
	require.NoError(t, err)
	assert.Equal(payload, raw)

	decoded, err := os.ReadFile(cfg.FileSink.Config.DecodedLogPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(decoded)), "\n")
	require.Len(t, lines, 3)

	rec := report.Record{}
	require.NoError(t, json.Unmarshal([]byte(lines[2]), &rec))
	assert.Equal("0xFEEE", rec.PGNHex)

	summaryData, err := os.ReadFile(cfg.SummaryPath)
	require.NoError(t, err)

	summary := report.Summary{}
	require.NoError(t, json.Unmarshal(summaryData, &summary))
	assert.Equal(uint64(3), summary.Total)
	assert.Equal([]string{"0xABCD"}, summary.UnknownPGNs)
}
