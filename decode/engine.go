// Package decode turns CAN frames into named SPN values
// using a PGN catalog, and keeps the statistics of a decoding run.
package decode

import (
	"time"

	"github.com/anand2532/SAE-J1939-parser/alert"
	"github.com/anand2532/SAE-J1939-parser/anomaly"
	"github.com/anand2532/SAE-J1939-parser/catalog"
	"github.com/anand2532/SAE-J1939-parser/frame"
	"github.com/anand2532/SAE-J1939-parser/protocol"
	"github.com/cockroachdb/errors"
)

// ErrNilDefinition is the cause of a frame failure when the catalog
// reports a PGN as known without returning its definition.
var ErrNilDefinition = errors.New("catalog returned a nil definition")

// Catalog is the PGN lookup used by the engine.
type Catalog interface {
	Lookup(pgn uint32) (*catalog.PGN, bool)
}

// AlertEvaluator evaluates a decoded value against static thresholds.
type AlertEvaluator interface {
	Evaluate(spnName string, value float64) (alert.Result, bool)
}

// AnomalyDetector evaluates a decoded value against its recent history.
type AnomalyDetector interface {
	Evaluate(spnName string, value float64) (anomaly.Result, bool)
}

// Option configures an [Engine].
type Option func(*Engine)

// WithAlertEvaluator attaches alert results to the decoded values.
func WithAlertEvaluator(evaluator AlertEvaluator) Option {
	return func(e *Engine) {
		e.alerts = evaluator
	}
}

// WithAnomalyDetector attaches anomaly results to the decoded values.
func WithAnomalyDetector(detector AnomalyDetector) Option {
	return func(e *Engine) {
		e.anomalies = detector
	}
}

// Engine decodes frames one at a time and counts the outcomes.
//
// An Engine is not safe for concurrent use, every goroutine decoding
// frames must own its engine. Statistics of several engines are combined
// with [Statistics.Merge] or a [SharedStatistics].
type Engine struct {
	catalog   Catalog
	alerts    AlertEvaluator
	anomalies AnomalyDetector

	stats Statistics
}

// NewEngine returns an engine decoding with the given catalog.
func NewEngine(cat Catalog, opts ...Option) *Engine {
	e := &Engine{
		catalog: cat,
		stats:   newStatistics(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// DecodeFrame decodes a frame. It never panics: any failure outside
// the extraction of a single SPN becomes a message with [StatusError].
func (e *Engine) DecodeFrame(f frame.CANFrame) (msg Message) {
	header := protocol.Decompose(f.ID)

	e.stats.Total++

	msg = Message{
		Timestamp: f.Timestamp,
		Header:    header,
		PGNHex:    protocol.FormatPGN(header.PGN),
		Data:      f.Data,
	}

	defer func() {
		if r := recover(); r != nil {
			e.fail(&msg, errors.Newf("panic: %v", r))
		}
	}()

	def, ok := e.catalog.Lookup(header.PGN)
	if !ok {
		e.stats.Unknown++
		e.stats.UnknownPGNs[header.PGN] = struct{}{}

		msg.Status = StatusUnknownPGN
		return msg
	}

	if def == nil {
		e.fail(&msg, ErrNilDefinition)
		return msg
	}

	msg.PGNName = def.Name
	msg.SPNs = make([]SPNValue, 0, len(def.SPNs))

	for _, spn := range def.SPNs {
		msg.SPNs = append(msg.SPNs, e.decodeSPN(f.Data, spn))
	}

	msg.Status = StatusSuccess
	e.stats.Decoded++

	return msg
}

func (e *Engine) decodeSPN(data [protocol.DataLength]byte, spn catalog.SPN) SPNValue {
	val := SPNValue{
		ID:   spn.ID,
		Name: spn.Name,
	}

	res, err := protocol.Extract(data, spn.Position, spn.Resolution, spn.Offset)
	if err != nil {
		val.Err = err
		return val
	}

	val.Raw = res.Raw
	val.Value = res.Value
	val.Truncated = res.Truncated

	if val.Truncated {
		return val
	}

	if e.alerts != nil {
		if a, ok := e.alerts.Evaluate(spn.Name, val.Value); ok {
			val.Alert = &a
		}
	}

	if e.anomalies != nil {
		if a, ok := e.anomalies.Evaluate(spn.Name, val.Value); ok {
			val.Anomaly = &a
		}
	}

	return val
}

func (e *Engine) fail(msg *Message, cause error) {
	pgn := msg.PGN

	msg.Status = StatusError
	msg.SPNs = nil
	msg.Err = &FrameDecodeError{PGN: &pgn, Cause: cause}

	e.stats.Errors++
}

// RecordFailure counts an input that could not be turned into a frame
// and returns the matching error message.
func (e *Engine) RecordFailure(source string, timestamp time.Time, cause error) Message {
	e.stats.Total++
	e.stats.Errors++

	return Message{
		Timestamp: timestamp,
		Source:    source,
		Status:    StatusError,
		Err:       &FrameDecodeError{Cause: cause},
	}
}

// Stats returns a copy of the statistics of the engine.
func (e *Engine) Stats() Statistics {
	return e.stats.Clone()
}

// ResetStats clears the statistics of the engine.
func (e *Engine) ResetStats() {
	e.stats = newStatistics()
}

// TakeStats returns the statistics of the engine and clears them.
func (e *Engine) TakeStats() Statistics {
	s := e.stats
	e.stats = newStatistics()
	return s
}
