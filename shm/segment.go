// Package shm places rings in file-backed shared memory so that a producer
// and a consumer in different processes can exchange data through them.
//
// A segment is a regular file (use a path under /dev/shm on Linux to keep it
// in RAM) mapped MAP_SHARED into each participating process. Each process
// maps the file itself and attaches its own ring view with AttachRing; the
// ring layout is fixed, so views built by different binaries agree as long
// as they agree on element type, capacity and line size.
package shm

import (
	"errors"

	ringbuffer "github.com/Mrunmoy/ms-ringbuffer"
)

var (
	// ErrInvalidSize is returned for a zero or negative segment size.
	ErrInvalidSize = errors.New("shm: segment size must be positive")
	// ErrClosed is returned when a segment is used after Close.
	ErrClosed = errors.New("shm: segment closed")
	// ErrUnsupported is returned on platforms without mmap support.
	ErrUnsupported = errors.New("shm: shared memory segments not supported on this platform")
)

// Segment is one mapping of a shared-memory file.
type Segment struct {
	path string
	mem  []byte
}

// Path returns the backing file path.
func (s *Segment) Path() string {
	return s.path
}

// Size returns the mapped length in bytes.
func (s *Segment) Size() int {
	return len(s.mem)
}

// Bytes returns the mapping. It is invalid after Close.
func (s *Segment) Bytes() []byte {
	return s.mem
}

// AttachRing attaches a ring view of capacity elements of T to the start of
// the segment. The segment must outlive the ring.
func AttachRing[T any](seg *Segment, capacity uint32, opts ...ringbuffer.Option) (*ringbuffer.SPSC[T], error) {
	if seg.mem == nil {
		return nil, ErrClosed
	}
	return ringbuffer.Attach[T](seg.mem, capacity, opts...)
}

// CreateRing creates a segment file at path sized for the ring and attaches
// the creator's view. The new ring is empty.
func CreateRing[T any](path string, capacity uint32, opts ...ringbuffer.Option) (*Segment, *ringbuffer.SPSC[T], error) {
	seg, err := Create(path, ringbuffer.RegionSize[T](capacity, opts...))
	if err != nil {
		return nil, nil, err
	}

	r, err := AttachRing[T](seg, capacity, opts...)
	if err != nil {
		_ = seg.Close()
		_ = seg.Remove()
		return nil, nil, err
	}
	return seg, r, nil
}

// OpenRing maps an existing segment and attaches a view of its ring.
func OpenRing[T any](path string, capacity uint32, opts ...ringbuffer.Option) (*Segment, *ringbuffer.SPSC[T], error) {
	seg, err := Open(path)
	if err != nil {
		return nil, nil, err
	}

	r, err := AttachRing[T](seg, capacity, opts...)
	if err != nil {
		_ = seg.Close()
		return nil, nil, err
	}
	return seg, r, nil
}
