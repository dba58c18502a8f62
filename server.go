package j1939parser

import (
	"context"
	"net"
	"os"

	"github.com/anand2532/SAE-J1939-parser/config"
	"github.com/anand2532/SAE-J1939-parser/connector"
	"github.com/anand2532/SAE-J1939-parser/decode"
	"github.com/anand2532/SAE-J1939-parser/egress"
	"github.com/anand2532/SAE-J1939-parser/filesink"
	"github.com/anand2532/SAE-J1939-parser/internal"
	"github.com/anand2532/SAE-J1939-parser/j1939"
	"github.com/anand2532/SAE-J1939-parser/questdb"
	"github.com/anand2532/SAE-J1939-parser/report"
	"github.com/anand2532/SAE-J1939-parser/tcp"
	"github.com/cockroachdb/errors"
)

// Server receives frames over TCP, decodes them and hands
// the decoded messages to the enabled sinks.
type Server struct {
	cfg    *config.Config
	logger *internal.Logger

	pipeline *Pipeline

	ingress *tcp.Stage
	decoder *j1939.Stage
}

func NewServer(cfg *config.Config) *Server {
	return &Server{
		cfg:    cfg,
		logger: internal.NewLogger("server", "j1939"),

		pipeline: NewPipeline(),
	}
}

func (s *Server) build() {
	size := s.cfg.ConnectorSize

	ingressToDecoder := connector.NewRingBuffer[*tcp.Message](size)
	decoderToSinks := connector.NewFanout[*j1939.Message]()

	s.ingress = tcp.NewStage(ingressToDecoder, s.cfg.TCP)
	s.decoder = j1939.NewStage(ingressToDecoder, decoderToSinks, s.cfg.J1939)

	s.pipeline.AddStage(s.ingress)
	s.pipeline.AddStage(s.decoder)

	newSinkInput := func() connector.Connector[*j1939.Message] {
		c := connector.NewChannel[*j1939.Message](uint64(size))
		decoderToSinks.Add(c)
		return c
	}

	if s.cfg.FileSink.Enabled {
		s.pipeline.AddStage(filesink.NewStage(newSinkInput(), s.cfg.FileSink.Config))
	}
	if s.cfg.QuestDB.Enabled {
		s.pipeline.AddStage(questdb.NewStage(newSinkInput(), s.cfg.QuestDB.Config))
	}
	if s.cfg.Kafka.Enabled {
		s.pipeline.AddStage(egress.NewKafkaStage(newSinkInput(), s.cfg.Kafka.Config))
	}
	if s.cfg.Live.Enabled {
		s.pipeline.AddStage(egress.NewLiveStage(newSinkInput(), s.cfg.Live.Config))
	}
}

func (s *Server) Init(ctx context.Context) error {
	s.build()

	s.logger.Info("initializing", "sinks", s.cfg.EnabledSinks())

	return s.pipeline.Init(ctx)
}

// Run starts the pipeline and returns. The server stops receiving
// frames when ctx is done.
func (s *Server) Run(ctx context.Context) {
	s.pipeline.Run(ctx)
}

// Addr returns the address the server listens on, nil before Init.
func (s *Server) Addr() net.Addr {
	if s.ingress == nil {
		return nil
	}
	return s.ingress.Addr()
}

// Stats returns the statistics of the frames decoded so far.
func (s *Server) Stats() decode.Statistics {
	if s.decoder == nil {
		return decode.Statistics{}
	}
	return s.decoder.Stats()
}

// Close delivers the pending messages, closes every stage
// and reports the statistics of the run.
func (s *Server) Close() error {
	s.pipeline.Close()

	summary := report.NewSummary(s.Stats())
	s.logger.Info("run summary",
		"total", summary.Total,
		"decoded", summary.Decoded,
		"unknown", summary.Unknown,
		"errors", summary.Error,
		"unknown_pgns", summary.UnknownPGNs,
	)

	if s.cfg.SummaryPath == "" {
		return nil
	}

	return writeSummary(s.cfg.SummaryPath, summary)
}

func writeSummary(path string, summary report.Summary) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create summary file")
	}

	if err := report.WriteSummary(f, summary); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}
