package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Decode(t *testing.T) {
	assert := assert.New(t)

	doc := `
log_level: debug
vehicle:
  vin: "42"
  make: ACME
  model: X-1
tcp:
  port: 9090
  read_timeout: 5s
  pool:
    drain_timeout: 1s
j1939:
  duplicate_policy: reject
  stats_interval: 1m
questdb:
  enabled: true
  config:
    address: questdb:9000
kafka:
  enabled: true
  config:
    brokers: [kafka-1:9092, kafka-2:9092]
    topic: decoded
summary_path: summary.json
`

	cfg, err := Decode(strings.NewReader(doc))
	require.NoError(t, err)

	assert.Equal("debug", cfg.LogLevel)
	assert.Equal("ACME", cfg.Vehicle.Make)

	assert.Equal(uint16(9090), cfg.TCP.Port)
	assert.Equal(5*time.Second, cfg.TCP.ReadTimeout)
	assert.Equal(time.Second, cfg.TCP.DrainTimeout)
	// defaults are kept next to the overridden keys
	assert.Equal("0.0.0.0", cfg.TCP.Host)
	assert.Equal(1024, cfg.TCP.ReadBufferSize)
	assert.Equal(128, cfg.TCP.QueueDepthPerWorker)

	assert.Equal("reject", cfg.J1939.DuplicatePolicy)
	assert.Equal(time.Minute, cfg.J1939.StatsInterval)
	assert.Equal(1, cfg.J1939.MaxWorkers)

	assert.Equal("questdb:9000", cfg.QuestDB.Config.Address)
	assert.Equal("j1939_spns", cfg.QuestDB.Config.SPNTable)
	assert.Equal([]string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Config.Brokers)
	assert.NotNil(cfg.Kafka.Config.Balancer)

	assert.Equal([]string{"filesink", "questdb", "kafka"}, cfg.EnabledSinks())
	assert.Equal("summary.json", cfg.SummaryPath)
}

func Test_Decode_Empty(t *testing.T) {
	cfg, err := Decode(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func Test_Decode_Errors(t *testing.T) {
	testCases := []struct {
		name string
		doc  string
	}{
		{name: "unknown key", doc: "tcp:\n  hostname: x\n"},
		{name: "bad log level", doc: "log_level: loud\n"},
		{name: "bad duplicate policy", doc: "j1939:\n  duplicate_policy: merge\n"},
		{name: "bad pool", doc: "tcp:\n  pool:\n    min_workers: 0\n"},
		{name: "no brokers", doc: "kafka:\n  enabled: true\n  config:\n    brokers: []\n"},
		{name: "zero connector size", doc: "connector_size: 0\n"},
		{name: "tcp buffer below a read", doc: "tcp:\n  max_buffered: 1024\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tc.doc))
			assert.Error(t, err)
		})
	}
}

func Test_Load(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.yaml")
	require.NoError(t, os.WriteFile(path, []byte("live:\n  enabled: true\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.Live.Enabled)
	assert.Equal(t, "/ws", cfg.Live.Config.Path)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
