package questdb

import (
	"time"

	"github.com/anand2532/SAE-J1939-parser/internal/pool"
)

type Config struct {
	*pool.Config `yaml:"pool"`

	Address string `yaml:"address"`

	SPNTable        string `yaml:"spn_table"`
	UnknownPGNTable string `yaml:"unknown_pgn_table"`

	AutoFlushRows int           `yaml:"auto_flush_rows"`
	RetryTimeout  time.Duration `yaml:"retry_timeout"`
}

func NewDefaultConfig() *Config {
	return &Config{
		Config: pool.DefaultConfig(),

		Address: "localhost:9000",

		SPNTable:        "j1939_spns",
		UnknownPGNTable: "j1939_unknown_pgns",

		AutoFlushRows: 75_000,
		RetryTimeout:  time.Second,
	}
}
