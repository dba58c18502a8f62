// Package j1939 contains the handler stage decoding the frames
// received by the ingress into J1939 messages.
package j1939

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/anand2532/SAE-J1939-parser/alert"
	"github.com/anand2532/SAE-J1939-parser/anomaly"
	"github.com/anand2532/SAE-J1939-parser/catalog"
	"github.com/anand2532/SAE-J1939-parser/connector"
	"github.com/anand2532/SAE-J1939-parser/decode"
	"github.com/anand2532/SAE-J1939-parser/internal/stage"
	"github.com/anand2532/SAE-J1939-parser/tcp"
	"github.com/cockroachdb/errors"
)

type Stage struct {
	*stage.Handler[*tcp.Message, *Message, worker, *workerArgs, *worker]

	cfg *Config

	stats *decode.SharedStatistics

	reporterWg sync.WaitGroup
	stopCh     chan struct{}
}

func NewStage(inputConnector connector.Reader[*tcp.Message], outputConnector connector.Writer[*Message], cfg *Config) *Stage {
	return &Stage{
		Handler: stage.NewHandler[*tcp.Message, *Message, worker, *workerArgs](
			"j1939", inputConnector, outputConnector, cfg.Config,
		),

		cfg: cfg,

		stats: decode.NewSharedStatistics(),

		stopCh: make(chan struct{}),
	}
}

// LoadCatalog returns the catalog described by cfg: the configured one,
// the one read from CatalogFile or the built-in one.
func LoadCatalog(cfg *Config) (*catalog.Catalog, error) {
	if cfg.Catalog != nil {
		return cfg.Catalog, nil
	}

	policy, err := catalog.ParseDuplicatePolicy(cfg.DuplicatePolicy)
	if err != nil {
		return nil, err
	}

	if cfg.CatalogFile == "" {
		if policy == catalog.LastWins {
			return catalog.Default(), nil
		}
		return catalog.NewBuilder(policy).Add(catalog.DefaultDefinitions()...).Build()
	}

	dir, name := filepath.Split(cfg.CatalogFile)
	if dir == "" {
		dir = "."
	}

	return catalog.LoadFile(os.DirFS(dir), name, policy)
}

func (s *Stage) Init(ctx context.Context) error {
	cat, err := LoadCatalog(s.cfg)
	if err != nil {
		return errors.Wrap(err, "j1939: load catalog")
	}

	s.Tel.LogInfo("catalog loaded", "pgn_count", cat.Len(), "replaced_pgns", len(cat.Replaced()))

	args := &workerArgs{
		catalog: cat,
		stats:   s.stats,
	}

	if s.cfg.EnableAlerts {
		args.alerts = alert.NewDefaultEvaluator()
	}
	if s.cfg.EnableAnomalies {
		// shared by every worker
		args.anomalies = anomaly.NewDefaultDetector()
	}

	s.initMetrics()

	return s.Handler.Init(ctx, args)
}

func (s *Stage) initMetrics() {
	s.Tel.NewCounter("total_messages", func() int64 { return int64(s.stats.Snapshot().Total) })
	s.Tel.NewCounter("decoded_messages", func() int64 { return int64(s.stats.Snapshot().Decoded) })
	s.Tel.NewCounter("unknown_messages", func() int64 { return int64(s.stats.Snapshot().Unknown) })
	s.Tel.NewCounter("error_messages", func() int64 { return int64(s.stats.Snapshot().Errors) })
}

func (s *Stage) Run(ctx context.Context) {
	if s.cfg.StatsInterval > 0 {
		s.reporterWg.Add(1)
		go s.runReporter(ctx, s.cfg.StatsInterval)
	}

	s.Handler.Run(ctx)
}

func (s *Stage) runReporter(ctx context.Context, interval time.Duration) {
	defer s.reporterWg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.logStats()
		}
	}
}

func (s *Stage) logStats() {
	snap := s.stats.Snapshot()

	s.Tel.LogInfo("statistics",
		"total", snap.Total,
		"decoded", snap.Decoded,
		"unknown", snap.Unknown,
		"errors", snap.Errors,
		"unknown_pgns", snap.UnknownPGNsHex(),
	)
}

// Stats returns the statistics of every frame decoded so far.
func (s *Stage) Stats() decode.Statistics {
	return s.stats.Snapshot()
}

func (s *Stage) Close() {
	s.Handler.Close()

	close(s.stopCh)
	s.reporterWg.Wait()

	s.logStats()
}
