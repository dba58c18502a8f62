package filesink

import (
	"context"
	"sync/atomic"

	"github.com/anand2532/SAE-J1939-parser/internal/pool"
	"github.com/anand2532/SAE-J1939-parser/j1939"
	"go.opentelemetry.io/otel/attribute"
)

type workerArgs struct {
	files *files

	writtenFrames  *atomic.Int64
	writtenRecords *atomic.Int64
}

type worker struct {
	pool.BaseWorker

	files *files

	writtenFrames  *atomic.Int64
	writtenRecords *atomic.Int64
}

func (w *worker) Init(_ context.Context, args *workerArgs) error {
	w.files = args.files
	w.writtenFrames = args.writtenFrames
	w.writtenRecords = args.writtenRecords
	return nil
}

func (w *worker) Deliver(ctx context.Context, msg *j1939.Message) error {
	_, span := w.Tel.NewTrace(msg.LoadSpanContext(ctx), "append to log files")
	defer span.End()

	frames, records, err := w.files.write(msg)

	w.writtenFrames.Add(int64(frames))
	w.writtenRecords.Add(int64(records))

	span.SetAttributes(
		attribute.Int("written_frames", frames),
		attribute.Int("written_records", records),
	)

	return err
}

func (w *worker) Close(_ context.Context) error { return nil }
