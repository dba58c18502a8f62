package connector

import (
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

type slot[T any] struct {
	dataReady atomic.Bool
	data      T
}

// RingBuffer is a bounded multi producer, multi consumer [Connector].
// Producers and consumers claim slots with a compare and swap on the packed
// head and tail indexes, and only fall back to a condition variable
// when the buffer stays full or empty.
type RingBuffer[T any] struct {
	// top 32 bits: head, bottom 32 bits: tail
	headTail atomic.Uint64

	_ cpu.CacheLinePad

	closed atomic.Bool

	_ cpu.CacheLinePad

	waitingWriters atomic.Bool

	_ cpu.CacheLinePad

	waitingReaders atomic.Bool

	_ cpu.CacheLinePad

	capacity uint32
	capMask  uint32

	mux      *sync.Mutex
	notEmpty *sync.Cond
	notFull  *sync.Cond

	buffer []slot[T]
}

// NewRingBuffer returns a ring buffer holding at least capacity items.
// The capacity is rounded up to a power of two.
func NewRingBuffer[T any](capacity uint32) *RingBuffer[T] {
	capacity = nextPowerOfTwo(capacity)

	mux := &sync.Mutex{}

	return &RingBuffer[T]{
		capacity: capacity,
		capMask:  capacity - 1,

		mux:      mux,
		notEmpty: sync.NewCond(mux),
		notFull:  sync.NewCond(mux),

		buffer: make([]slot[T], capacity),
	}
}

func nextPowerOfTwo(v uint32) uint32 {
	if v <= 1 {
		return 1
	}

	v--
	v |= v >> 1
	v |= v >> 2
	v |= v >> 4
	v |= v >> 8
	v |= v >> 16
	return v + 1
}

func pack(head, tail uint32) uint64 {
	return uint64(head)<<32 | uint64(tail)
}

func unpack(headTail uint64) (head, tail uint32) {
	return uint32(headTail >> 32), uint32(headTail)
}

// Cap returns the capacity of the buffer.
func (rb *RingBuffer[T]) Cap() int {
	return int(rb.capacity)
}

// Len returns the number of buffered items.
func (rb *RingBuffer[T]) Len() int {
	head, tail := unpack(rb.headTail.Load())
	return int(head - tail)
}

func (rb *RingBuffer[T]) push(item T) bool {
	for {
		headTail := rb.headTail.Load()
		head, tail := unpack(headTail)

		if head-tail >= rb.capacity {
			return false
		}

		s := &rb.buffer[head&rb.capMask]

		// the slot still holds an item a reader has claimed but not copied yet
		if s.dataReady.Load() {
			runtime.Gosched()
			continue
		}

		if !rb.headTail.CompareAndSwap(headTail, pack(head+1, tail)) {
			runtime.Gosched()
			continue
		}

		s.data = item
		s.dataReady.Store(true)

		return true
	}
}

func (rb *RingBuffer[T]) pop() (T, bool) {
	for {
		headTail := rb.headTail.Load()
		head, tail := unpack(headTail)

		if head == tail {
			var zero T
			return zero, false
		}

		s := &rb.buffer[tail&rb.capMask]

		// a writer claimed the slot but has not stored the item yet
		if !s.dataReady.Load() {
			runtime.Gosched()
			continue
		}

		if !rb.headTail.CompareAndSwap(headTail, pack(head, tail+1)) {
			runtime.Gosched()
			continue
		}

		item := s.data

		var zero T
		s.data = zero
		s.dataReady.Store(false)

		return item, true
	}
}

// Write adds an item to the [RingBuffer].
// It blocks until the buffer is not full.
//
// Returns [ErrClosed] if the [RingBuffer] is closed.
func (rb *RingBuffer[T]) Write(item T) error {
	if rb.closed.Load() {
		return ErrClosed
	}

	for !rb.push(item) {
		runtime.Gosched()

		if rb.push(item) {
			break
		}

		rb.mux.Lock()
		rb.waitingWriters.Store(true)

		// a read may have freed a slot between the push and the lock
		if rb.push(item) {
			rb.mux.Unlock()
			break
		}

		if rb.closed.Load() {
			rb.mux.Unlock()
			return ErrClosed
		}

		rb.notFull.Wait()
		rb.mux.Unlock()
	}

	if rb.waitingReaders.Load() {
		rb.mux.Lock()
		rb.waitingReaders.Store(false)
		rb.notEmpty.Broadcast()
		rb.mux.Unlock()
	}

	return nil
}

// Read retrieves an item from the [RingBuffer].
// It blocks until the buffer is not empty.
//
// Returns [ErrClosed] if the [RingBuffer] is closed and empty.
func (rb *RingBuffer[T]) Read() (T, error) {
	item, ok := rb.pop()

	for !ok {
		runtime.Gosched()

		if item, ok = rb.pop(); ok {
			break
		}

		rb.mux.Lock()
		rb.waitingReaders.Store(true)

		// a write may have landed between the pop and the lock
		if item, ok = rb.pop(); ok {
			rb.mux.Unlock()
			break
		}

		if rb.closed.Load() {
			rb.mux.Unlock()
			return item, ErrClosed
		}

		rb.notEmpty.Wait()
		rb.mux.Unlock()

		item, ok = rb.pop()
	}

	if rb.waitingWriters.Load() {
		rb.mux.Lock()
		rb.waitingWriters.Store(false)
		rb.notFull.Broadcast()
		rb.mux.Unlock()
	}

	return item, nil
}

// Close marks the [RingBuffer] as closed and wakes up the blocked
// readers and writers.
func (rb *RingBuffer[T]) Close() {
	if !rb.closed.CompareAndSwap(false, true) {
		return
	}

	rb.mux.Lock()
	rb.notEmpty.Broadcast()
	rb.notFull.Broadcast()
	rb.mux.Unlock()
}
