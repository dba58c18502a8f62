package tcp

import (
	"context"
	"io"
	"net"
	"os"
	"time"

	"github.com/anand2532/SAE-J1939-parser/frame"
	"github.com/anand2532/SAE-J1939-parser/internal"
	"github.com/cockroachdb/errors"
	"go.opentelemetry.io/otel/attribute"
)

// session reads the byte stream of one connection
// and turns it into frames with its own assembler.
type session struct {
	tel *internal.Telemetry

	id     uint64
	conn   net.Conn
	remote string

	readTimeout time.Duration
	buf         []byte
	assembler   *frame.Assembler

	seqNum     uint64
	byteCount  int64
	frameCount int64
}

func newSession(tel *internal.Telemetry, id uint64, conn net.Conn, cfg *Config) *session {
	return &session{
		tel: tel,

		id:     id,
		conn:   conn,
		remote: conn.RemoteAddr().String(),

		readTimeout: cfg.ReadTimeout,
		buf:         make([]byte, cfg.ReadBufferSize),
		assembler:   frame.NewAssembler(cfg.MaxBuffered),
	}
}

type sessionCounters interface {
	addBytes(n int64)
	addFrames(n int64)
	addOverflow()
}

// run reads until the peer closes the connection, the read deadline
// expires or the connection is closed by the worker.
func (s *session) run(ctx context.Context, out chan<- *Message, counters sessionCounters) {
	s.tel.LogInfo("session opened", "session_id", s.id, "remote", s.remote)

	defer func() {
		s.conn.Close()

		s.tel.LogInfo("session closed",
			"session_id", s.id, "remote", s.remote,
			"bytes", s.byteCount, "frames", s.frameCount,
			"residual_bytes", s.assembler.Buffered(),
		)
	}()

	for {
		if s.readTimeout > 0 {
			if err := s.conn.SetReadDeadline(time.Now().Add(s.readTimeout)); err != nil {
				s.tel.LogError("failed to set read deadline", err, "session_id", s.id)
				return
			}
		}

		n, err := s.conn.Read(s.buf)
		if n > 0 {
			recvTime := time.Now()

			s.byteCount += int64(n)
			counters.addBytes(int64(n))

			if msg := s.handleChunk(ctx, s.buf[:n], recvTime, counters); msg != nil {
				select {
				case out <- msg:
				case <-ctx.Done():
					return
				}
			}
		}

		if err != nil {
			s.handleReadErr(ctx, err)
			return
		}
	}
}

func (s *session) handleChunk(ctx context.Context, chunk []byte, recvTime time.Time, counters sessionCounters) *Message {
	_, span := s.tel.NewTrace(ctx, "receive TCP chunk")
	defer span.End()

	frames, err := s.assembler.Push(chunk)
	if err != nil {
		// the stream cannot be realigned, start over from the next byte
		s.tel.LogError("dropping buffered bytes", err,
			"session_id", s.id, "buffered", s.assembler.Buffered(), "chunk", len(chunk),
		)
		counters.addOverflow()
		s.assembler.Reset()
		return nil
	}

	batch := []frame.CANFrame{}
	for f := range frames {
		f.Timestamp = recvTime
		batch = append(batch, f)
	}

	span.SetAttributes(
		attribute.Int("chunk_size", len(chunk)),
		attribute.Int("frame_count", len(batch)),
	)

	if len(batch) == 0 {
		return nil
	}

	s.frameCount += int64(len(batch))
	counters.addFrames(int64(len(batch)))

	msg := newMessage(s.id, s.seqNum, s.remote, batch)
	s.seqNum++

	msg.SetReceiveTime(recvTime)
	msg.SetTimestamp(recvTime)
	msg.SaveSpan(span)

	return msg
}

func (s *session) handleReadErr(ctx context.Context, err error) {
	switch {
	case errors.Is(err, io.EOF):
		return

	case errors.Is(err, os.ErrDeadlineExceeded):
		s.tel.LogWarn("closing idle session", "session_id", s.id, "read_timeout", s.readTimeout)

	case errors.Is(err, net.ErrClosed):
		if ctx.Err() == nil {
			s.tel.LogError("session connection closed", err, "session_id", s.id)
		}

	default:
		s.tel.LogError("failed to read session", err, "session_id", s.id)
	}
}
