// Package egress contains the egress stages forwarding the decoded
// messages to external consumers.
package egress

import (
	"context"
	"encoding/json"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/anand2532/SAE-J1939-parser/connector"
	"github.com/anand2532/SAE-J1939-parser/internal/pool"
	"github.com/anand2532/SAE-J1939-parser/internal/stage"
	"github.com/anand2532/SAE-J1939-parser/internal/telemetry"
	"github.com/anand2532/SAE-J1939-parser/j1939"
	"github.com/anand2532/SAE-J1939-parser/report"
	"github.com/cockroachdb/errors"
	"go.opentelemetry.io/otel/attribute"

	"github.com/segmentio/kafka-go"
)

//////////////
//  CONFIG  //
//////////////

type KafkaConfig struct {
	PoolConfig *pool.Config `yaml:"pool"`

	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`

	// The balancer used to distribute messages across partitions.
	//
	// The default hashes the key, so the records of a PGN stay on one partition.
	Balancer kafka.Balancer `yaml:"-"`

	// Limit on how many attempts will be made to deliver a message.
	//
	// The default is to try at most 10 times.
	MaxAttempts int `yaml:"max_attempts"`

	// WriteBackoffMin optionally sets the smallest amount of time the writer waits before
	// it attempts to write a batch of messages
	//
	// Default: 100ms
	WriteBackoffMin time.Duration `yaml:"write_backoff_min"`

	// WriteBackoffMax optionally sets the maximum amount of time the writer waits before
	// it attempts to write a batch of messages
	//
	// Default: 1s
	WriteBackoffMax time.Duration `yaml:"write_backoff_max"`

	// Limit on how many messages will be buffered before being sent to a
	// partition.
	//
	// The default is to use a target batch size of 100 messages.
	BatchSize int `yaml:"batch_size"`

	// Limit the maximum size of a request in bytes before being sent to
	// a partition.
	//
	// The default is to use a kafka default value of 1048576.
	BatchBytes int64 `yaml:"batch_bytes"`

	// Time limit on how often incomplete message batches will be flushed to
	// kafka.
	//
	// The default is to flush at least every second.
	BatchTimeout time.Duration `yaml:"batch_timeout"`

	// Timeout for read operations performed by the Writer.
	//
	// Defaults to 10 seconds.
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// Timeout for write operation performed by the Writer.
	//
	// Defaults to 10 seconds.
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// Number of acknowledges from partition replicas required before receiving
	// a response to a produce request, the following values are supported:
	//
	//  RequireNone (0)  fire-and-forget, do not wait for acknowledgements from the
	//  RequireOne  (1)  wait for the leader to acknowledge the writes
	//  RequireAll  (-1) wait for the full ISR to acknowledge the writes
	//
	// Defaults to RequireOne.
	RequiredAcks kafka.RequiredAcks `yaml:"required_acks"`

	// Setting this flag to true causes the WriteMessages method to never block.
	// It also means that errors are ignored since the caller will not receive
	// the returned value.
	//
	// Defaults to false.
	Async bool `yaml:"async"`

	// Compression set the compression codec to be used to compress messages.
	Compression kafka.Compression `yaml:"-"`

	// AllowAutoTopicCreation notifies writer to create topic if missing.
	AllowAutoTopicCreation bool `yaml:"allow_auto_topic_creation"`
}

func DefaultKafkaConfig() *KafkaConfig {
	return &KafkaConfig{
		PoolConfig: pool.DefaultConfig(),

		Brokers:                []string{"localhost:9092"},
		Topic:                  "j1939-decoded",
		Balancer:               &kafka.Hash{},
		MaxAttempts:            10,
		WriteBackoffMin:        100 * time.Millisecond,
		WriteBackoffMax:        1 * time.Second,
		BatchSize:              100,
		BatchBytes:             1048576,
		BatchTimeout:           time.Second,
		ReadTimeout:            10 * time.Second,
		WriteTimeout:           10 * time.Second,
		RequiredAcks:           kafka.RequireOne,
		Async:                  false,
		Compression:            kafka.Snappy,
		AllowAutoTopicCreation: true,
	}
}

///////////////
//  MESSAGE  //
///////////////

const (
	kafkaHeaderStatus  = "j1939-status"
	kafkaHeaderSession = "j1939-session"
)

// kafkaRecords turns a decoded batch into one kafka message per frame.
// The key is the PGN, so the records of a PGN keep their order
// with a key based balancer.
func kafkaRecords(topic string, msg *j1939.Message) ([]kafka.Message, error) {
	records := make([]kafka.Message, 0, len(msg.Messages))

	session := []byte(strconv.FormatUint(msg.SessionID, 10))

	for _, decoded := range msg.Messages {
		value, err := json.Marshal(report.NewRecord(decoded))
		if err != nil {
			return nil, errors.Wrapf(err, "encode record of pgn %s", decoded.PGNHex)
		}

		records = append(records, kafka.Message{
			Topic: topic,
			Key:   []byte(decoded.PGNHex),
			Value: value,
			Time:  decoded.Timestamp,

			Headers: []kafka.Header{
				{Key: kafkaHeaderStatus, Value: []byte(decoded.Status)},
				{Key: kafkaHeaderSession, Value: session},
			},
		})
	}

	return records, nil
}

//////////////
//  WORKER  //
//////////////

type kafkaWorkerArgs struct {
	writer *kafka.Writer
	topic  string

	writtenRecords *atomic.Int64
}

type kafkaWorker struct {
	pool.BaseWorker

	writer *kafka.Writer
	topic  string

	writtenRecords *atomic.Int64
}

func (kw *kafkaWorker) Init(_ context.Context, args *kafkaWorkerArgs) error {
	kw.writer = args.writer
	kw.topic = args.topic
	kw.writtenRecords = args.writtenRecords

	return nil
}

func (kw *kafkaWorker) Deliver(ctx context.Context, msg *j1939.Message) error {
	// Extract the span context from the input message
	ctx, span := kw.Tel.NewTrace(msg.LoadSpanContext(ctx), "deliver kafka messages")
	defer span.End()

	records, err := kafkaRecords(kw.topic, msg)
	if err != nil {
		return err
	}

	if len(records) == 0 {
		return nil
	}

	for idx := range records {
		// Inject the trace into the headers of every record
		headerCarrier := telemetry.NewKafkaHeaderCarrier(records[idx].Headers)
		kw.Tel.InjectTrace(ctx, headerCarrier)
		records[idx].Headers = headerCarrier.Headers()
	}

	span.SetAttributes(attribute.Int("record_count", len(records)))

	if err := kw.writer.WriteMessages(ctx, records...); err != nil {
		return err
	}

	kw.writtenRecords.Add(int64(len(records)))

	return nil
}

func (kw *kafkaWorker) Close(_ context.Context) error { return nil }

/////////////
//  STAGE  //
/////////////

type KafkaStage struct {
	*stage.Egress[*j1939.Message, kafkaWorker, *kafkaWorkerArgs, *kafkaWorker]

	cfg *KafkaConfig

	writer *kafka.Writer

	writtenRecords atomic.Int64
}

func NewKafkaStage(inputConnector connector.Reader[*j1939.Message], cfg *KafkaConfig) *KafkaStage {
	return &KafkaStage{
		Egress: stage.NewEgress[*j1939.Message, kafkaWorker, *kafkaWorkerArgs]("kafka", inputConnector, cfg.PoolConfig),

		cfg: cfg,
	}
}

func (ks *KafkaStage) Init(ctx context.Context) error {
	if len(ks.cfg.Brokers) == 0 {
		return errors.New("kafka: no brokers")
	}

	ks.writer = &kafka.Writer{
		Addr:                   kafka.TCP(ks.cfg.Brokers...),
		Balancer:               ks.cfg.Balancer,
		MaxAttempts:            ks.cfg.MaxAttempts,
		WriteBackoffMin:        ks.cfg.WriteBackoffMin,
		WriteBackoffMax:        ks.cfg.WriteBackoffMax,
		BatchSize:              ks.cfg.BatchSize,
		BatchBytes:             ks.cfg.BatchBytes,
		BatchTimeout:           ks.cfg.BatchTimeout,
		ReadTimeout:            ks.cfg.ReadTimeout,
		WriteTimeout:           ks.cfg.WriteTimeout,
		RequiredAcks:           ks.cfg.RequiredAcks,
		Async:                  ks.cfg.Async,
		Compression:            ks.cfg.Compression,
		AllowAutoTopicCreation: ks.cfg.AllowAutoTopicCreation,
	}

	ks.Tel.NewCounter("written_records", func() int64 { return ks.writtenRecords.Load() })

	return ks.Egress.Init(ctx, &kafkaWorkerArgs{
		writer: ks.writer,
		topic:  ks.cfg.Topic,

		writtenRecords: &ks.writtenRecords,
	})
}

func (ks *KafkaStage) Close() {
	ks.Egress.Close()

	if ks.writer == nil {
		return
	}

	if err := ks.writer.Close(); err != nil {
		ks.Tel.LogError("failed to close writer", err)
	}
}
