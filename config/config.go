// Package config loads the configuration of the telemetry server
// from a YAML file. Missing keys keep their default value.
package config

import (
	"io"
	"os"

	"github.com/anand2532/SAE-J1939-parser/catalog"
	"github.com/anand2532/SAE-J1939-parser/egress"
	"github.com/anand2532/SAE-J1939-parser/filesink"
	"github.com/anand2532/SAE-J1939-parser/internal"
	"github.com/anand2532/SAE-J1939-parser/internal/telemetry"
	"github.com/anand2532/SAE-J1939-parser/j1939"
	"github.com/anand2532/SAE-J1939-parser/questdb"
	"github.com/anand2532/SAE-J1939-parser/report"
	"github.com/anand2532/SAE-J1939-parser/tcp"
	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// Sink is the configuration of an optional egress stage.
type Sink[C any] struct {
	Enabled bool `yaml:"enabled"`
	Config  C    `yaml:"config"`
}

type Config struct {
	LogLevel string `yaml:"log_level"`

	Vehicle   report.VehicleInfo `yaml:"vehicle"`
	Telemetry *telemetry.Config  `yaml:"telemetry"`

	// ConnectorSize is the capacity of the connectors between the stages.
	ConnectorSize uint32 `yaml:"connector_size"`

	TCP   *tcp.Config   `yaml:"tcp"`
	J1939 *j1939.Config `yaml:"j1939"`

	FileSink Sink[*filesink.Config]    `yaml:"filesink"`
	QuestDB  Sink[*questdb.Config]     `yaml:"questdb"`
	Kafka    Sink[*egress.KafkaConfig] `yaml:"kafka"`
	Live     Sink[*egress.LiveConfig]  `yaml:"live"`

	// SummaryPath receives the statistics of the run as JSON on shutdown.
	SummaryPath string `yaml:"summary_path"`
}

// Default returns the configuration used when no file is given:
// the TCP ingress, the decoder and the log files.
func Default() *Config {
	return &Config{
		LogLevel: "info",

		Vehicle:   report.DefaultVehicleInfo(),
		Telemetry: telemetry.NewDefaultConfig(),

		ConnectorSize: 16_384,

		TCP:   tcp.NewDefaultConfig(),
		J1939: j1939.NewDefaultConfig(),

		FileSink: Sink[*filesink.Config]{Enabled: true, Config: filesink.NewDefaultConfig()},
		QuestDB:  Sink[*questdb.Config]{Config: questdb.NewDefaultConfig()},
		Kafka:    Sink[*egress.KafkaConfig]{Config: egress.DefaultKafkaConfig()},
		Live:     Sink[*egress.LiveConfig]{Config: egress.DefaultLiveConfig()},
	}
}

// Load reads the file at path over the default configuration.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open config file")
	}
	defer f.Close()

	cfg, err := Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "load config file %s", path)
	}

	return cfg, nil
}

// Decode reads a YAML document over the default configuration.
// Unknown keys are rejected.
func Decode(r io.Reader) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrap(err, "decode config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the values that would only fail once the server is running.
func (c *Config) Validate() error {
	if _, err := internal.ParseLogLevel(c.LogLevel); err != nil {
		return err
	}

	if c.ConnectorSize == 0 {
		return errors.New("connector size must be positive")
	}

	if err := c.TCP.Validate(); err != nil {
		return errors.Wrap(err, "tcp")
	}
	if err := c.J1939.Validate(); err != nil {
		return errors.Wrap(err, "j1939")
	}
	if _, err := catalog.ParseDuplicatePolicy(c.J1939.DuplicatePolicy); err != nil {
		return errors.Wrap(err, "j1939")
	}

	if c.FileSink.Enabled {
		if err := c.FileSink.Config.Validate(); err != nil {
			return errors.Wrap(err, "filesink")
		}
	}
	if c.QuestDB.Enabled {
		if err := c.QuestDB.Config.Validate(); err != nil {
			return errors.Wrap(err, "questdb")
		}
	}
	if c.Kafka.Enabled {
		if err := c.Kafka.Config.PoolConfig.Validate(); err != nil {
			return errors.Wrap(err, "kafka")
		}
		if len(c.Kafka.Config.Brokers) == 0 {
			return errors.New("kafka: no brokers")
		}
	}
	if c.Live.Enabled {
		if err := c.Live.Config.PoolConfig.Validate(); err != nil {
			return errors.Wrap(err, "live")
		}
	}

	return nil
}

// EnabledSinks returns the names of the enabled egress stages.
func (c *Config) EnabledSinks() []string {
	sinks := []string{}
	if c.FileSink.Enabled {
		sinks = append(sinks, "filesink")
	}
	if c.QuestDB.Enabled {
		sinks = append(sinks, "questdb")
	}
	if c.Kafka.Enabled {
		sinks = append(sinks, "kafka")
	}
	if c.Live.Enabled {
		sinks = append(sinks, "live")
	}
	return sinks
}
