package protocol

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// DataLength is the payload size of a classic CAN frame.
const DataLength = 8

const maxFieldBits = 64

var (
	// ErrDataTooShort is returned when a byte-positioned field
	// does not fit inside the frame payload.
	ErrDataTooShort = errors.New("data too short")
	// ErrInvalidPosition is returned when a field position
	// has a zero start, a zero length, or is wider than 64 bits.
	ErrInvalidPosition = errors.New("invalid field position")
)

// PositionKind states how the start and length of a [Position] are measured.
type PositionKind uint8

const (
	// BitPosition measures start and length in bits.
	BitPosition PositionKind = iota
	// BytePosition measures start and length in bytes.
	BytePosition
)

func (k PositionKind) String() string {
	switch k {
	case BitPosition:
		return "bit"
	case BytePosition:
		return "byte"
	default:
		return "unknown"
	}
}

// Position locates an SPN inside the 8 bytes of a frame.
// Start is 1-indexed for both kinds.
type Position struct {
	Kind   PositionKind
	Start  uint16
	Length uint16
}

// Bits returns a bit position starting at the 1-indexed bit start.
func Bits(start, length uint16) Position {
	return Position{Kind: BitPosition, Start: start, Length: length}
}

// Bytes returns a byte position starting at the 1-indexed byte start.
func Bytes(start, length uint16) Position {
	return Position{Kind: BytePosition, Start: start, Length: length}
}

// Validate checks the static constraints of the position.
func (p Position) Validate() error {
	if p.Start == 0 {
		return errors.Wrapf(ErrInvalidPosition, "%s start must be >= 1", p.Kind)
	}

	if p.Length == 0 {
		return errors.Wrapf(ErrInvalidPosition, "%s length must be > 0", p.Kind)
	}

	switch p.Kind {
	case BitPosition:
		if p.Length > maxFieldBits {
			return errors.Wrapf(ErrInvalidPosition, "bit length %d exceeds %d", p.Length, maxFieldBits)
		}
	case BytePosition:
		if p.Length > maxFieldBits/8 {
			return errors.Wrapf(ErrInvalidPosition, "byte length %d exceeds %d", p.Length, maxFieldBits/8)
		}
	default:
		return errors.Wrapf(ErrInvalidPosition, "unknown kind %d", p.Kind)
	}

	return nil
}

func (p Position) String() string {
	return fmt.Sprintf("%s %d+%d", p.Kind, p.Start, p.Length)
}

// Extraction is the result of reading one field out of a frame payload.
type Extraction struct {
	Raw   uint64
	Value float64

	// Truncated is set when the payload ended before
	// all the bits of a bit-positioned field were read.
	// Raw then holds the bits read so far.
	Truncated bool
}

// Extract reads the field at pos from data and scales it
// as raw*resolution + offset.
func Extract(data [DataLength]byte, pos Position, resolution, offset float64) (Extraction, error) {
	if err := pos.Validate(); err != nil {
		return Extraction{}, err
	}

	var res Extraction
	switch pos.Kind {
	case BytePosition:
		raw, err := extractBytes(data[:], int(pos.Start)-1, int(pos.Length))
		if err != nil {
			return Extraction{}, err
		}
		res.Raw = raw

	case BitPosition:
		res.Raw, res.Truncated = extractBits(data[:], int(pos.Start)-1, int(pos.Length))
	}

	res.Value = float64(res.Raw)*resolution + offset

	return res, nil
}

// extractBytes accumulates length bytes starting at the zero-based index
// start in little-endian order.
func extractBytes(data []byte, start, length int) (uint64, error) {
	if start+length > len(data) {
		return 0, errors.Wrapf(ErrDataTooShort, "need %d bytes from byte %d, have %d", length, start+1, len(data))
	}

	raw := uint64(0)
	for i := range length {
		raw |= uint64(data[start+i]) << (8 * i)
	}

	return raw, nil
}

// extractBits reads length bits starting at the zero-based bit index start.
// Bits are taken least significant first, a field may span several bytes.
func extractBits(data []byte, start, length int) (uint64, bool) {
	byteIdx := start / 8
	bitOffset := start % 8

	raw := uint64(0)
	remaining := length
	filled := 0

	for remaining > 0 && byteIdx < len(data) {
		bits := min(8-bitOffset, remaining)
		mask := uint64(1)<<bits - 1

		chunk := (uint64(data[byteIdx]) >> bitOffset) & mask
		raw |= chunk << filled

		filled += bits
		remaining -= bits

		byteIdx++
		bitOffset = 0
	}

	return raw, remaining > 0
}
