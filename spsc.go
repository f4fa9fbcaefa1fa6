package ringbuffer

import (
	"sync/atomic"
	"unsafe"
)

// SPSC is a bounded, lock-free, single-producer single-consumer ring of
// plain-data values.
//
// head and tail are free-running uint32 totals of elements ever written and
// ever consumed. They are never wrapped to the capacity; only the storage
// index is masked, so head-tail is the stored count and a full ring can be
// told apart from an empty one.
//
// Exactly one goroutine (or process) may call the producer methods Write,
// Push and WriteAvailable, and exactly one may call the consumer methods Read,
// Peek, Pop, Skip and ReadAvailable. Anything else is undefined behaviour and
// is not detected.
type SPSC[T any] struct {
	_ noCopy

	head *atomic.Uint32 // total written, owned by the producer
	tail *atomic.Uint32 // total consumed, owned by the consumer
	data []T

	mask     uint32
	capacity uint32
	lineSize uint32

	mem []byte // region holding the counters and data
}

// New allocates a ring for capacity elements of T.
// Capacity must be a power of two (1<<k). T must be plain data.
func New[T any](capacity uint32, opts ...Option) *SPSC[T] {
	o := buildOptions(opts)
	validate[T](capacity, o.lineSize)

	size := regionSize[T](capacity, o.lineSize)

	// Over-allocate by one line so the region base can be aligned to it.
	// The Go heap does not move objects, so the alignment is stable.
	raw := make([]byte, size+int(o.lineSize))
	pad := alignPad(unsafe.Pointer(unsafe.SliceData(raw)), o.lineSize)

	return newOver[T](raw[pad:pad+size:pad+size], capacity, o.lineSize)
}

func newOver[T any](mem []byte, capacity, lineSize uint32) *SPSC[T] {
	base := unsafe.Pointer(unsafe.SliceData(mem))

	return &SPSC[T]{
		head:     (*atomic.Uint32)(base),
		tail:     (*atomic.Uint32)(unsafe.Add(base, lineSize)),
		data:     unsafe.Slice((*T)(unsafe.Add(base, 2*uintptr(lineSize))), capacity),
		mask:     capacity - 1,
		capacity: capacity,
		lineSize: lineSize,
		mem:      mem,
	}
}

// Reset empties the ring by zeroing both counters.
// Not safe while a producer or consumer is active.
func (q *SPSC[T]) Reset() {
	q.head.Store(0)
	q.tail.Store(0)
}

// WriteAvailable returns the number of free slots.
// Producer side.
func (q *SPSC[T]) WriteAvailable() uint32 {
	head := q.head.Load()
	tail := q.tail.Load()
	return q.capacity - (head - tail)
}

// Write copies all of src into the ring, or nothing.
// Returns false if fewer than len(src) slots are free.
// Producer side.
func (q *SPSC[T]) Write(src []T) bool {
	head := q.head.Load()
	tail := q.tail.Load()

	if uint64(len(src)) > uint64(q.capacity-(head-tail)) {
		return false
	}
	if len(src) == 0 {
		return true
	}

	// First copy runs to the end of storage, second one continues at 0.
	off := head & q.mask
	n := copy(q.data[off:], src)
	copy(q.data, src[n:])

	// publish: the slots above become visible together with head
	q.head.Store(head + uint32(len(src)))
	return true
}

// Push appends one element.
// Returns false if the ring is full.
// Producer side.
func (q *SPSC[T]) Push(v T) bool {
	head := q.head.Load()
	tail := q.tail.Load()

	if head-tail == q.capacity {
		return false
	}

	q.data[head&q.mask] = v
	q.head.Store(head + 1)
	return true
}

// ReadAvailable returns the number of stored elements.
// Consumer side.
func (q *SPSC[T]) ReadAvailable() uint32 {
	head := q.head.Load()
	tail := q.tail.Load()
	return head - tail
}

// Peek copies the next len(dst) elements into dst without consuming them.
// Returns false, leaving dst untouched, if fewer are stored.
// Consumer side.
func (q *SPSC[T]) Peek(dst []T) bool {
	head := q.head.Load()
	tail := q.tail.Load()

	if uint64(len(dst)) > uint64(head-tail) {
		return false
	}

	q.copyOut(dst, tail)
	return true
}

// Read moves the next len(dst) elements into dst.
// Returns false, leaving dst and the ring untouched, if fewer are stored.
// Consumer side.
func (q *SPSC[T]) Read(dst []T) bool {
	head := q.head.Load()
	tail := q.tail.Load()

	if uint64(len(dst)) > uint64(head-tail) {
		return false
	}
	if len(dst) == 0 {
		return true
	}

	q.copyOut(dst, tail)

	// release the slots only once they have been copied out
	q.tail.Store(tail + uint32(len(dst)))
	return true
}

// Pop removes the oldest element.
// Returns (zero, false) if the ring is empty.
// Consumer side.
func (q *SPSC[T]) Pop() (T, bool) {
	head := q.head.Load()
	tail := q.tail.Load()

	var zero T
	if head == tail {
		return zero, false
	}

	v := q.data[tail&q.mask]
	q.tail.Store(tail + 1)
	return v, true
}

// Skip discards the next n elements without copying them.
// Returns false if fewer than n are stored.
// Consumer side.
func (q *SPSC[T]) Skip(n uint32) bool {
	head := q.head.Load()
	tail := q.tail.Load()

	if n > head-tail {
		return false
	}
	if n == 0 {
		return true
	}

	q.tail.Store(tail + n)
	return true
}

func (q *SPSC[T]) copyOut(dst []T, tail uint32) {
	off := tail & q.mask
	n := copy(dst, q.data[off:])
	copy(dst[n:], q.data)
}

// Capacity returns the fixed ring capacity.
func (q *SPSC[T]) Capacity() uint32 {
	return q.capacity
}

// LineSize returns the padding unit of the control block.
func (q *SPSC[T]) LineSize() uint32 {
	return q.lineSize
}

// IsEmpty reports whether nothing is stored. Racy under concurrent use.
func (q *SPSC[T]) IsEmpty() bool {
	return q.ReadAvailable() == 0
}

// IsFull reports whether no slot is free. Racy under concurrent use.
func (q *SPSC[T]) IsFull() bool {
	return q.WriteAvailable() == 0
}

// ByteRing is the byte-stream flavour of SPSC, the usual building block for
// framed messages and shared-memory IPC.
type ByteRing = SPSC[byte]

// NewByteRing allocates a ByteRing of capacity bytes.
func NewByteRing(capacity uint32, opts ...Option) *ByteRing {
	return New[byte](capacity, opts...)
}
