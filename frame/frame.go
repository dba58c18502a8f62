// Package frame contains the CAN frame representation used on the wire
// and the assembler that rebuilds frames from a byte stream.
package frame

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/anand2532/SAE-J1939-parser/protocol"
	"github.com/cockroachdb/errors"
)

// Size is the number of bytes of an encoded frame:
// a 4-byte big-endian identifier followed by 8 data bytes.
const Size = 4 + protocol.DataLength

// ErrShortFrame is returned when decoding less than [Size] bytes.
var ErrShortFrame = errors.New("short frame")

// CANFrame is a CAN frame carrying a 29-bit identifier.
type CANFrame struct {
	ID   uint32
	Data [protocol.DataLength]byte

	// Timestamp is when the frame was received or logged.
	// It is not part of the wire format.
	Timestamp time.Time
}

// Header returns the J1939 header of the frame.
func (f CANFrame) Header() protocol.Header {
	return protocol.Decompose(f.ID)
}

func (f CANFrame) String() string {
	return fmt.Sprintf("%08X#% X", f.ID, f.Data[:])
}

// Decode reads a frame from the first [Size] bytes of buf.
func Decode(buf []byte) (CANFrame, error) {
	if len(buf) < Size {
		return CANFrame{}, errors.Wrapf(ErrShortFrame, "got %d bytes", len(buf))
	}

	f := CANFrame{ID: binary.BigEndian.Uint32(buf[:4])}
	copy(f.Data[:], buf[4:Size])

	return f, nil
}

// Encode returns the wire form of the frame.
func Encode(f CANFrame) []byte {
	return AppendEncode(make([]byte, 0, Size), f)
}

// AppendEncode appends the wire form of the frame to dst.
func AppendEncode(dst []byte, f CANFrame) []byte {
	dst = binary.BigEndian.AppendUint32(dst, f.ID)
	return append(dst, f.Data[:]...)
}
