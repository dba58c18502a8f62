package questdb

import (
	"context"
	"sync/atomic"

	"github.com/anand2532/SAE-J1939-parser/internal/pool"
	"github.com/anand2532/SAE-J1939-parser/j1939"
	qdb "github.com/questdb/go-questdb-client/v3"
	"go.opentelemetry.io/otel/attribute"
)

type workerArgs struct {
	senderPool *qdb.LineSenderPool
	tables     tables

	insertedRows *atomic.Int64
}

type worker struct {
	pool.BaseWorker

	sender qdb.LineSender
	tables tables

	insertedRows *atomic.Int64
}

func (w *worker) Init(ctx context.Context, args *workerArgs) error {
	sender, err := args.senderPool.Sender(ctx)
	if err != nil {
		return err
	}

	w.sender = sender
	w.tables = args.tables
	w.insertedRows = args.insertedRows

	return nil
}

func (w *worker) Deliver(ctx context.Context, msg *j1939.Message) error {
	ctx, span := w.Tel.NewTrace(msg.LoadSpanContext(ctx), "deliver QuestDB rows")
	defer span.End()

	tmpInsRows := int64(0)
	for r := range rowsOf(msg, w.tables) {
		query := w.sender.Table(r.table)

		for _, sym := range r.symbols {
			query = query.Symbol(sym.name, sym.value)
		}

		for _, col := range r.columns {
			switch col.typ {
			case columnTypeBool:
				query = query.BoolColumn(col.name, col.value.(bool))
			case columnTypeInt:
				query = query.Int64Column(col.name, col.value.(int64))
			case columnTypeFloat:
				query = query.Float64Column(col.name, col.value.(float64))
			case columnTypeString:
				query = query.StringColumn(col.name, col.value.(string))
			}
		}

		if err := query.At(ctx, r.timestamp); err != nil {
			w.insertedRows.Add(tmpInsRows)
			return err
		}

		tmpInsRows++
	}

	span.SetAttributes(attribute.Int64("inserted_rows", tmpInsRows))

	w.insertedRows.Add(tmpInsRows)

	return nil
}

func (w *worker) Close(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return w.sender.Close(context.Background())
	default:
		return w.sender.Close(ctx)
	}
}
