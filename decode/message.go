package decode

import (
	"fmt"
	"time"

	"github.com/anand2532/SAE-J1939-parser/alert"
	"github.com/anand2532/SAE-J1939-parser/anomaly"
	"github.com/anand2532/SAE-J1939-parser/protocol"
)

// Status is the outcome of decoding a frame.
type Status string

const (
	StatusSuccess    Status = "success"
	StatusUnknownPGN Status = "unknown_pgn"
	StatusError      Status = "error"
)

// SPNValue is a decoded SPN. Err is set when the SPN could not be extracted,
// in that case Raw and Value are zero.
type SPNValue struct {
	ID        uint32
	Name      string
	Raw       uint64
	Value     float64
	Truncated bool
	Err       error

	Alert   *alert.Result
	Anomaly *anomaly.Result
}

// Message is the decoded form of a frame.
type Message struct {
	Timestamp time.Time

	// Source identifies where the frame came from,
	// e.g. a session id or a log row id.
	Source string

	protocol.Header

	PGNHex  string
	PGNName string
	Status  Status
	SPNs    []SPNValue
	Data    [protocol.DataLength]byte

	// Err is the frame level failure of an error status message.
	Err error
}

// FrameDecodeError is the frame level failure attached to a message
// with [StatusError].
// PGN is nil when the failure happened before the identifier was known.
type FrameDecodeError struct {
	PGN   *uint32
	Cause error
}

func (e *FrameDecodeError) Error() string {
	if e.PGN == nil {
		return fmt.Sprintf("decode frame: %v", e.Cause)
	}
	return fmt.Sprintf("decode frame with pgn %s: %v", protocol.FormatPGN(*e.PGN), e.Cause)
}

func (e *FrameDecodeError) Unwrap() error {
	return e.Cause
}
