package frame

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFrames() []CANFrame {
	return []CANFrame{
		{ID: 0x0CF00400, Data: [8]byte{0xF0, 0x7D, 0x7D, 0xE8, 0x03, 0x00, 0xF0, 0x7D}},
		{ID: 0x18FEEE00, Data: [8]byte{0x78, 0x5A, 0x20, 0x23, 0xFF, 0xFF, 0xFF, 0xFF}},
		{ID: 0x18FEEF00, Data: [8]byte{0x10, 0x00, 0xFA, 0x64, 0x40, 0x1F, 0x32, 0xFA}},
		{ID: 0x18FF0000, Data: [8]byte{1, 2, 3, 4, 5, 6, 7, 8}},
	}
}

func testStream(frames []CANFrame) []byte {
	stream := []byte{}
	for _, f := range frames {
		stream = AppendEncode(stream, f)
	}
	return stream
}

func Test_EncodeDecode(t *testing.T) {
	assert := assert.New(t)

	f := testFrames()[0]
	buf := Encode(f)
	assert.Len(buf, Size)
	assert.Equal([]byte{0x0C, 0xF0, 0x04, 0x00}, buf[:4])

	decoded, err := Decode(buf)
	assert.NoError(err)
	assert.Equal(f, decoded)

	_, err = Decode(buf[:Size-1])
	assert.ErrorIs(err, ErrShortFrame)
}

func Test_Assembler_Chunking(t *testing.T) {
	frames := testFrames()[:2]
	stream := testStream(frames)

	testCases := []struct {
		name   string
		chunks []int
	}{
		{name: "whole", chunks: []int{24}},
		{name: "5 7 12", chunks: []int{5, 7, 12}},
		{name: "byte by byte", chunks: slices.Repeat([]int{1}, 24)},
		{name: "11 2 11", chunks: []int{11, 2, 11}},
		{name: "13 11", chunks: []int{13, 11}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			a := NewAssembler(0)
			got := []CANFrame{}

			pos := 0
			for _, n := range tc.chunks {
				seq, err := a.Push(stream[pos : pos+n])
				require.NoError(t, err)
				got = slices.AppendSeq(got, seq)
				pos += n
			}

			assert.Equal(frames, got)
			assert.Zero(a.Buffered())
		})
	}
}

func Test_Assembler_Residual(t *testing.T) {
	assert := assert.New(t)

	stream := testStream(testFrames())
	a := NewAssembler(0)

	seq, err := a.Push(stream[:Size+5])
	assert.NoError(err)
	assert.Len(slices.Collect(seq), 1)
	assert.Equal(5, a.Buffered())

	seq, err = a.Push(stream[Size+5:])
	assert.NoError(err)
	assert.Equal(testFrames()[1:], slices.Collect(seq))
	assert.Zero(a.Buffered())
}

func Test_Assembler_Restartable(t *testing.T) {
	assert := assert.New(t)

	frames := testFrames()
	a := NewAssembler(0)

	seq, err := a.Push(testStream(frames))
	assert.NoError(err)

	for f := range seq {
		assert.Equal(frames[0], f)
		break
	}
	assert.Equal(3*Size, a.Buffered())

	// iterating again resumes after the consumed frame
	assert.Equal(frames[1:], slices.Collect(a.Frames()))
	assert.Empty(slices.Collect(a.Frames()))
}

func Test_Assembler_Overflow(t *testing.T) {
	assert := assert.New(t)

	a := NewAssembler(2 * Size)

	_, err := a.Push(make([]byte, Size+4))
	assert.NoError(err)

	_, err = a.Push(make([]byte, Size))
	assert.ErrorIs(err, ErrBufferOverflow)
	assert.Equal(Size+4, a.Buffered())

	// draining makes room again
	assert.Len(slices.Collect(a.Frames()), 1)
	_, err = a.Push(make([]byte, Size))
	assert.NoError(err)
	assert.Equal(Size+4, a.Buffered())

	a.Reset()
	assert.Zero(a.Buffered())
}

func Test_Assembler_LargePush(t *testing.T) {
	assert := assert.New(t)

	frames := make([]CANFrame, 0, 342)
	for i := range 342 {
		frames = append(frames, CANFrame{ID: uint32(0x18FEEE00 | i&0xFF), Data: [8]byte{byte(i)}})
	}
	stream := append(testStream(frames), 0x18, 0xFE, 0xEF, 0x00)

	whole := NewAssembler(0)
	seq, err := whole.Push(stream)
	require.NoError(t, err)
	assert.Equal(frames, slices.Collect(seq))
	assert.Equal(4, whole.Buffered())

	split := NewAssembler(0)
	got := []CANFrame{}
	for _, part := range [][]byte{stream[:2000], stream[2000:]} {
		seq, err := split.Push(part)
		require.NoError(t, err)
		got = slices.AppendSeq(got, seq)
	}
	assert.Equal(frames, got)
	assert.Equal(4, split.Buffered())
}

func Benchmark_Assembler(b *testing.B) {
	stream := testStream(testFrames())
	a := NewAssembler(0)

	for b.Loop() {
		for i := 0; i < len(stream); i += 7 {
			seq, _ := a.Push(stream[i:min(i+7, len(stream))])
			for range seq {
			}
		}
	}
}
