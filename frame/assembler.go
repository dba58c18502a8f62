package frame

import (
	"iter"

	"github.com/cockroachdb/errors"
)

// DefaultMaxBuffered is the default bound of the assembler buffer.
const DefaultMaxBuffered = 4096

// ErrBufferOverflow is returned by [Assembler.Push] when complete frames of
// earlier pushes were never read and the pushed bytes do not fit next to them.
var ErrBufferOverflow = errors.New("assembler buffer overflow")

// Assembler rebuilds frames from a byte stream that may be split at arbitrary
// points. Bytes that do not complete a frame stay buffered until the next push.
//
// An Assembler is not safe for concurrent use.
type Assembler struct {
	buf []byte
	off int

	maxBuffered int
}

// NewAssembler returns an assembler that buffers at most maxBuffered bytes.
// Values smaller than [Size] select [DefaultMaxBuffered].
func NewAssembler(maxBuffered int) *Assembler {
	if maxBuffered < Size {
		maxBuffered = DefaultMaxBuffered
	}

	return &Assembler{
		buf:         make([]byte, 0, maxBuffered),
		maxBuffered: maxBuffered,
	}
}

// Push appends p to the buffer and returns the sequence of the complete frames
// available. The sequence is lazy: frames are removed from the buffer only
// while they are iterated, so stopping early keeps the rest for [Assembler.Frames].
//
// The bound applies to the bytes carried over between pushes. A caller that
// reads every frame only carries a partial frame, so its pushes never fail,
// whatever their size. When whole frames of earlier pushes are still unread
// and p does not fit, [ErrBufferOverflow] is returned and the buffer is left untouched.
func (a *Assembler) Push(p []byte) (iter.Seq[CANFrame], error) {
	carried := a.Buffered()
	if carried >= Size && carried+len(p) > a.maxBuffered {
		return nil, errors.Wrapf(ErrBufferOverflow, "buffered %d, pushed %d, max %d", carried, len(p), a.maxBuffered)
	}

	a.compact()
	a.buf = append(a.buf, p...)

	return a.Frames(), nil
}

// Frames returns the sequence of the complete frames currently buffered.
func (a *Assembler) Frames() iter.Seq[CANFrame] {
	return func(yield func(CANFrame) bool) {
		for a.Buffered() >= Size {
			f, err := Decode(a.buf[a.off:])
			if err != nil {
				return
			}

			a.off += Size

			if !yield(f) {
				return
			}
		}
	}
}

// Buffered returns the number of bytes waiting in the buffer.
func (a *Assembler) Buffered() int {
	return len(a.buf) - a.off
}

// Reset drops every buffered byte.
func (a *Assembler) Reset() {
	a.buf = a.buf[:0]
	a.off = 0
}

func (a *Assembler) compact() {
	if a.off == 0 {
		return
	}

	n := copy(a.buf, a.buf[a.off:])
	a.buf = a.buf[:n]
	a.off = 0
}
