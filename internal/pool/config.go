package pool

import (
	"runtime"
	"time"

	"github.com/cockroachdb/errors"
)

// Config is the configuration of a worker pool.
type Config struct {
	AutoScale           bool          `yaml:"auto_scale"`
	InitialWorkers      int           `yaml:"initial_workers"`
	MinWorkers          int           `yaml:"min_workers"`
	MaxWorkers          int           `yaml:"max_workers"`
	QueueDepthPerWorker int           `yaml:"queue_depth_per_worker"`
	ScaleDownFactor     float64       `yaml:"scale_down_factor"`
	ScaleDownBackoff    float64       `yaml:"scale_down_backoff"`
	AutoScaleInterval   time.Duration `yaml:"auto_scale_interval"`

	// DrainTimeout bounds how long Close waits for the queued tasks.
	DrainTimeout time.Duration `yaml:"drain_timeout"`
}

// DefaultConfig returns an auto scaling pool
// starting with one worker and growing up to the number of CPUs.
func DefaultConfig() *Config {
	return &Config{
		AutoScale:           true,
		InitialWorkers:      1,
		MinWorkers:          1,
		MaxWorkers:          runtime.NumCPU(),
		QueueDepthPerWorker: 128,
		ScaleDownFactor:     0.1,
		ScaleDownBackoff:    1.5,
		AutoScaleInterval:   3 * time.Second,
		DrainTimeout:        5 * time.Second,
	}
}

// FixedConfig returns a pool that always runs the given number of workers.
func FixedConfig(workers int) *Config {
	cfg := DefaultConfig()

	cfg.AutoScale = false
	cfg.InitialWorkers = workers
	cfg.MinWorkers = workers
	cfg.MaxWorkers = workers

	return cfg
}

// Validate checks the worker bounds of the configuration.
func (cfg *Config) Validate() error {
	if cfg.MinWorkers < 1 {
		return errors.Newf("min workers must be at least 1, got %d", cfg.MinWorkers)
	}
	if cfg.MaxWorkers < cfg.MinWorkers {
		return errors.Newf("max workers (%d) lower than min workers (%d)", cfg.MaxWorkers, cfg.MinWorkers)
	}
	if cfg.InitialWorkers < cfg.MinWorkers || cfg.InitialWorkers > cfg.MaxWorkers {
		return errors.Newf("initial workers (%d) outside [%d, %d]", cfg.InitialWorkers, cfg.MinWorkers, cfg.MaxWorkers)
	}
	if cfg.QueueDepthPerWorker < 1 {
		return errors.Newf("queue depth per worker must be positive, got %d", cfg.QueueDepthPerWorker)
	}
	if cfg.AutoScale && cfg.AutoScaleInterval <= 0 {
		return errors.New("auto scale interval must be positive")
	}
	return nil
}

func (cfg *Config) channelSize() int {
	return cfg.MaxWorkers * cfg.QueueDepthPerWorker * 8
}

func (cfg *Config) toScaler() *scalerCfg {
	return &scalerCfg{
		enabled:             cfg.AutoScale,
		maxWorkers:          cfg.MaxWorkers,
		minWorkers:          cfg.MinWorkers,
		queueDepthThreshold: float64(cfg.QueueDepthPerWorker),
		scaleDownFactor:     cfg.ScaleDownFactor,
		scaleDownBackoff:    cfg.ScaleDownBackoff,
		interval:            cfg.AutoScaleInterval,
	}
}
