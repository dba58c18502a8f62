package j1939

import (
	"context"

	"github.com/anand2532/SAE-J1939-parser/decode"
	"github.com/anand2532/SAE-J1939-parser/internal/pool"
	"github.com/anand2532/SAE-J1939-parser/tcp"
	"go.opentelemetry.io/otel/attribute"
)

type workerArgs struct {
	catalog   decode.Catalog
	alerts    decode.AlertEvaluator
	anomalies decode.AnomalyDetector

	stats *decode.SharedStatistics
}

// worker owns a decoding engine. The statistics of the engine
// are moved into the shared ones after every batch.
type worker struct {
	pool.BaseWorker

	engine *decode.Engine
	stats  *decode.SharedStatistics
}

func (w *worker) Init(_ context.Context, args *workerArgs) error {
	opts := []decode.Option{}
	if args.alerts != nil {
		opts = append(opts, decode.WithAlertEvaluator(args.alerts))
	}
	if args.anomalies != nil {
		opts = append(opts, decode.WithAnomalyDetector(args.anomalies))
	}

	w.engine = decode.NewEngine(args.catalog, opts...)
	w.stats = args.stats

	return nil
}

func (w *worker) Handle(ctx context.Context, msgIn *tcp.Message) (*Message, error) {
	_, span := w.Tel.NewTrace(msgIn.LoadSpanContext(ctx), "decode J1939 frames")
	defer span.End()

	msgOut := newMessage(msgIn.SessionID, msgIn.SeqNum, len(msgIn.Frames))

	msgOut.SetReceiveTime(msgIn.GetReceiveTime())
	msgOut.SetTimestamp(msgIn.GetTimestamp())

	errorCount := 0
	for _, f := range msgIn.Frames {
		decoded := w.engine.DecodeFrame(f)
		decoded.Source = msgIn.Remote

		if decoded.Status == decode.StatusError {
			errorCount++
			w.Tel.LogWarn("failed to decode frame", "frame", f.String(), "cause", decoded.Err)
		}

		msgOut.Frames = append(msgOut.Frames, f)
		msgOut.Messages = append(msgOut.Messages, decoded)
	}

	w.stats.Merge(w.engine.TakeStats())

	span.SetAttributes(
		attribute.Int("frame_count", len(msgIn.Frames)),
		attribute.Int("error_count", errorCount),
	)
	msgOut.SaveSpan(span)

	return msgOut, nil
}

func (w *worker) Close(_ context.Context) error {
	return nil
}
