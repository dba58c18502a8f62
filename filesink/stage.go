// Package filesink contains the egress stage appending the received
// frames to a raw log and the decoded messages to a JSON-lines log.
package filesink

import (
	"context"
	"sync/atomic"

	"github.com/anand2532/SAE-J1939-parser/connector"
	"github.com/anand2532/SAE-J1939-parser/internal/stage"
	"github.com/anand2532/SAE-J1939-parser/j1939"
)

type Stage struct {
	*stage.Egress[*j1939.Message, worker, *workerArgs, *worker]

	cfg *Config

	files *files

	writtenFrames  atomic.Int64
	writtenRecords atomic.Int64
}

func NewStage(inputConnector connector.Reader[*j1939.Message], cfg *Config) *Stage {
	return &Stage{
		Egress: stage.NewEgress[*j1939.Message, worker, *workerArgs]("filesink", inputConnector, cfg.Config),

		cfg: cfg,
	}
}

func (s *Stage) Init(ctx context.Context) error {
	files, err := openFiles(s.cfg.RawLogPath, s.cfg.DecodedLogPath)
	if err != nil {
		return err
	}
	s.files = files

	s.Tel.NewCounter("written_frames", func() int64 { return s.writtenFrames.Load() })
	s.Tel.NewCounter("written_records", func() int64 { return s.writtenRecords.Load() })

	s.Tel.LogInfo("appending to log files", "raw", s.cfg.RawLogPath, "decoded", s.cfg.DecodedLogPath)

	return s.Egress.Init(ctx, &workerArgs{
		files: files,

		writtenFrames:  &s.writtenFrames,
		writtenRecords: &s.writtenRecords,
	})
}

func (s *Stage) Close() {
	s.Egress.Close()

	if s.files == nil {
		return
	}

	if err := s.files.close(); err != nil {
		s.Tel.LogError("failed to close log files", err)
	}
}
