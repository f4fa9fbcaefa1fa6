package ringbuffer

import (
	"errors"
	"fmt"
	"unsafe"
)

// counterSize is the footprint of one control counter.
const counterSize = 4

var (
	// ErrRegionTooSmall is returned by Attach when mem is shorter than RegionSize.
	ErrRegionTooSmall = errors.New("region too small for ring")
	// ErrRegionMisaligned is returned by Attach when mem does not start on a line boundary.
	ErrRegionMisaligned = errors.New("region base not aligned to line size")
)

// Memory layout of a ring region, offsets relative to a line-aligned base:
//
//	[0, 4)                        head (uint32)
//	[4, line)                     padding
//	[line, line+4)                tail (uint32)
//	[line+4, 2*line)              padding
//	[2*line, 2*line+capacity*T)   element storage
//
// The layout is the same for heap rings and for rings placed in a
// shared-memory segment by another process.

// RegionSize returns the number of bytes a ring of capacity elements of T
// occupies with the given options.
func RegionSize[T any](capacity uint32, opts ...Option) int {
	o := buildOptions(opts)
	validate[T](capacity, o.lineSize)
	return regionSize[T](capacity, o.lineSize)
}

func regionSize[T any](capacity, lineSize uint32) int {
	var zero T
	return 2*int(lineSize) + int(capacity)*int(unsafe.Sizeof(zero))
}

// Attach lays a ring over caller-provided memory, typically a shared-memory
// mapping. The counters already present in mem are kept as they are, so a
// second process attaching to a live region continues where the first left
// off. A fresh region must be zeroed (or Reset) before first use.
//
// Configuration errors panic as in New; problems with mem itself are
// returned.
func Attach[T any](mem []byte, capacity uint32, opts ...Option) (*SPSC[T], error) {
	o := buildOptions(opts)
	validate[T](capacity, o.lineSize)

	size := regionSize[T](capacity, o.lineSize)
	if len(mem) < size {
		return nil, fmt.Errorf("attach %d-byte region, need %d: %w", len(mem), size, ErrRegionTooSmall)
	}
	if pad := alignPad(unsafe.Pointer(unsafe.SliceData(mem)), o.lineSize); pad != 0 {
		return nil, fmt.Errorf("attach region %d bytes past a %d-byte boundary: %w",
			int(o.lineSize)-pad, o.lineSize, ErrRegionMisaligned)
	}

	return newOver[T](mem[:size:size], capacity, o.lineSize), nil
}

// validate panics on configurations no ring can be built from.
func validate[T any](capacity, lineSize uint32) {
	if capacity == 0 || (capacity&(capacity-1)) != 0 {
		panic("ringbuffer: capacity must be power of 2 and > 0")
	}
	if lineSize < counterSize || (lineSize&(lineSize-1)) != 0 {
		panic(fmt.Sprintf("ringbuffer: line size %d must be a power of 2 and >= %d", lineSize, counterSize))
	}

	var zero T
	if align := unsafe.Alignof(zero); align > uintptr(lineSize) {
		panic(fmt.Sprintf("ringbuffer: element alignment %d exceeds line size %d", align, lineSize))
	}
	if err := checkElement[T](); err != nil {
		panic("ringbuffer: " + err.Error())
	}
}

// alignPad returns how many bytes to skip from p to reach a multiple of align.
func alignPad(p unsafe.Pointer, align uint32) int {
	a := uintptr(align)
	return int((a - uintptr(p)%a) % a)
}
