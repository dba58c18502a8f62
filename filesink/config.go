package filesink

import "github.com/anand2532/SAE-J1939-parser/internal/pool"

type Config struct {
	*pool.Config `yaml:"pool"`

	// RawLogPath receives every frame in its 12 byte wire form.
	RawLogPath string `yaml:"raw_log_path"`
	// DecodedLogPath receives one JSON record per decoded frame.
	DecodedLogPath string `yaml:"decoded_log_path"`
}

func NewDefaultConfig() *Config {
	return &Config{
		// a single worker keeps the lines in arrival order
		Config: pool.FixedConfig(1),

		RawLogPath:     "raw_data.log",
		DecodedLogPath: "decoded_data.json",
	}
}
