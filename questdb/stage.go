// Package questdb contains the egress stage writing the decoded
// SPN values into QuestDB over the ILP/HTTP protocol.
package questdb

import (
	"context"
	"sync/atomic"

	"github.com/anand2532/SAE-J1939-parser/connector"
	"github.com/anand2532/SAE-J1939-parser/internal/stage"
	"github.com/anand2532/SAE-J1939-parser/j1939"
	qdb "github.com/questdb/go-questdb-client/v3"
)

type Stage struct {
	*stage.Egress[*j1939.Message, worker, *workerArgs, *worker]

	cfg *Config

	senderPool *qdb.LineSenderPool

	insertedRows atomic.Int64
}

func NewStage(inputConnector connector.Reader[*j1939.Message], cfg *Config) *Stage {
	return &Stage{
		Egress: stage.NewEgress[*j1939.Message, worker, *workerArgs]("questdb", inputConnector, cfg.Config),

		cfg: cfg,
	}
}

func (s *Stage) Init(ctx context.Context) error {
	senderPool, err := qdb.PoolFromOptions(
		qdb.WithAddress(s.cfg.Address),
		qdb.WithHttp(),
		qdb.WithAutoFlushRows(s.cfg.AutoFlushRows),
		qdb.WithRetryTimeout(s.cfg.RetryTimeout),
	)
	if err != nil {
		return err
	}
	s.senderPool = senderPool

	s.Tel.NewCounter("inserted_rows", func() int64 { return s.insertedRows.Load() })

	return s.Egress.Init(ctx, &workerArgs{
		senderPool: senderPool,
		tables: tables{
			spn:        s.cfg.SPNTable,
			unknownPGN: s.cfg.UnknownPGNTable,
		},
		insertedRows: &s.insertedRows,
	})
}

func (s *Stage) Close() {
	s.Egress.Close()

	if err := s.senderPool.Close(context.Background()); err != nil {
		s.Tel.LogError("failed to close sender pool", err)
	}
}
