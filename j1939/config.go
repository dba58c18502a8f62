package j1939

import (
	"time"

	"github.com/anand2532/SAE-J1939-parser/catalog"
	"github.com/anand2532/SAE-J1939-parser/internal/pool"
)

type Config struct {
	*pool.Config `yaml:"pool"`

	// Catalog is the PGN catalog used by the workers.
	// When nil the built-in catalog is used.
	Catalog *catalog.Catalog `yaml:"-"`

	CatalogFile     string `yaml:"catalog_file"`
	DuplicatePolicy string `yaml:"duplicate_policy"`

	EnableAlerts    bool `yaml:"enable_alerts"`
	EnableAnomalies bool `yaml:"enable_anomalies"`

	// StatsInterval is the period of the statistics log line, zero disables it.
	StatsInterval time.Duration `yaml:"stats_interval"`
}

func NewDefaultConfig() *Config {
	return &Config{
		// a single worker keeps the decoded batches in arrival order
		Config: pool.FixedConfig(1),

		DuplicatePolicy: catalog.LastWins.String(),

		EnableAlerts:    true,
		EnableAnomalies: true,

		StatsInterval: 10 * time.Second,
	}
}
