package ringbuffer

import (
	"unsafe"

	"golang.org/x/sys/cpu"
)

// DefaultLineSize is the control block padding unit used unless an Option
// says otherwise. Rings shared with other processes must agree on it.
const DefaultLineSize = 64

// Option configures a ring at construction.
type Option func(*options)

type options struct {
	lineSize uint32
}

// WithLineSize sets the padding unit between head, tail and the data.
// Use 128 on cores with 128-byte lines (Apple M-series, some ARM servers).
func WithLineSize(n uint32) Option {
	return func(o *options) {
		o.lineSize = n
	}
}

// WithHostLineSize pads to the false-sharing distance of the running CPU.
// Not suitable for regions shared with binaries built for other hosts.
func WithHostLineSize() Option {
	return WithLineSize(HostLineSize())
}

// HostLineSize returns the cache line padding golang.org/x/sys/cpu uses on
// this architecture.
func HostLineSize() uint32 {
	return uint32(unsafe.Sizeof(cpu.CacheLinePad{}))
}

func buildOptions(opts []Option) options {
	o := options{lineSize: DefaultLineSize}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
