package tcp

import (
	"time"

	"github.com/anand2532/SAE-J1939-parser/frame"
	"github.com/anand2532/SAE-J1939-parser/internal/pool"
	"github.com/cockroachdb/errors"
)

type Config struct {
	*pool.Config `yaml:"pool"`

	Host string `yaml:"host"`
	Port uint16 `yaml:"port"`

	// ReadTimeout closes a session that sends nothing for this long.
	// Zero disables the deadline.
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// MaxBuffered bounds the bytes a session keeps between two reads.
	// It must hold a full read next to a partial frame.
	MaxBuffered int `yaml:"max_buffered"`

	// ReadBufferSize is the size of a single socket read.
	ReadBufferSize int `yaml:"read_buffer_size"`
}

func NewDefaultConfig() *Config {
	return &Config{
		Config: pool.DefaultConfig(),

		Host: "0.0.0.0",
		Port: 8080,

		ReadTimeout:    30 * time.Second,
		MaxBuffered:    frame.DefaultMaxBuffered,
		ReadBufferSize: 1024,
	}
}

// Validate checks the pool bounds and the buffer sizes.
func (c *Config) Validate() error {
	if err := c.Config.Validate(); err != nil {
		return err
	}

	if c.ReadBufferSize <= 0 {
		return errors.Newf("read buffer size must be positive, got %d", c.ReadBufferSize)
	}
	if minBuffered := c.ReadBufferSize + frame.Size - 1; c.MaxBuffered < minBuffered {
		return errors.Newf("max buffered bytes (%d) lower than a read plus a partial frame (%d)",
			c.MaxBuffered, minBuffered)
	}

	return nil
}
