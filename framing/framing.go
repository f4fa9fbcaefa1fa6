// Package framing carries variable-length messages over a ringbuffer.ByteRing
// as a 4-byte length prefix in host byte order followed by the payload.
//
// The ring knows nothing about frames. WriteFrame must only be called by the
// ring's producer and the read functions only by its consumer; a frame is
// read by peeking the prefix and then reading the payload, which is
// consistent only because nobody else moves the tail in between.
package framing

import (
	"encoding/binary"
	"errors"
	"fmt"
	"slices"

	ringbuffer "github.com/Mrunmoy/ms-ringbuffer"
)

// HeaderSize is the length of the frame prefix.
const HeaderSize = 4

var (
	// ErrNoSpace means the ring has too little free space right now. Retry.
	ErrNoSpace = errors.New("framing: not enough space in ring")
	// ErrNoFrame means no complete frame is stored yet. Retry.
	ErrNoFrame = errors.New("framing: no complete frame available")
	// ErrShortBuffer means the destination cannot hold the next payload.
	ErrShortBuffer = errors.New("framing: destination buffer too small")
	// ErrFrameTooLarge means the frame can never fit in the ring.
	ErrFrameTooLarge = errors.New("framing: frame larger than ring")
)

// FrameSize returns the ring space a payload of n bytes takes.
func FrameSize(n int) int {
	return HeaderSize + n
}

// WriteFrame stores payload as one frame, or nothing.
func WriteFrame(r *ringbuffer.ByteRing, payload []byte) error {
	size := uint64(FrameSize(len(payload)))
	if size > uint64(r.Capacity()) {
		return fmt.Errorf("%d-byte payload in %d-byte ring: %w", len(payload), r.Capacity(), ErrFrameTooLarge)
	}
	if size > uint64(r.WriteAvailable()) {
		return ErrNoSpace
	}

	var hdr [HeaderSize]byte
	binary.NativeEndian.PutUint32(hdr[:], uint32(len(payload)))

	// Space was checked above and only this goroutine consumes it.
	r.Write(hdr[:])
	r.Write(payload)
	return nil
}

// PeekFrameLen returns the payload length of the next frame without
// consuming anything. The payload itself may not have arrived yet.
func PeekFrameLen(r *ringbuffer.ByteRing) (uint32, bool) {
	var hdr [HeaderSize]byte
	if !r.Peek(hdr[:]) {
		return 0, false
	}
	return binary.NativeEndian.Uint32(hdr[:]), true
}

// ReadFrame consumes the next frame into dst and returns the payload length.
// On ErrShortBuffer the returned length is what dst needs; the frame stays
// in the ring.
func ReadFrame(r *ringbuffer.ByteRing, dst []byte) (int, error) {
	n, err := nextFrame(r)
	if err != nil {
		return 0, err
	}
	if int(n) > len(dst) {
		return int(n), ErrShortBuffer
	}

	r.Skip(HeaderSize)
	r.Read(dst[:n])
	return int(n), nil
}

// AppendFrame consumes the next frame and appends its payload to dst.
func AppendFrame(r *ringbuffer.ByteRing, dst []byte) ([]byte, error) {
	n, err := nextFrame(r)
	if err != nil {
		return dst, err
	}

	dst = slices.Grow(dst, int(n))
	payload := dst[len(dst) : len(dst)+int(n)]

	r.Skip(HeaderSize)
	r.Read(payload)
	return dst[:len(dst)+int(n)], nil
}

// SkipFrame discards the next frame.
func SkipFrame(r *ringbuffer.ByteRing) error {
	n, err := nextFrame(r)
	if err != nil {
		return err
	}
	r.Skip(HeaderSize + n)
	return nil
}

// nextFrame returns the payload length of the next frame once the whole
// frame is stored.
func nextFrame(r *ringbuffer.ByteRing) (uint32, error) {
	n, ok := PeekFrameLen(r)
	if !ok {
		return 0, ErrNoFrame
	}
	size := uint64(n) + HeaderSize
	if size > uint64(r.Capacity()) {
		return 0, fmt.Errorf("prefix announces %d bytes in %d-byte ring: %w", n, r.Capacity(), ErrFrameTooLarge)
	}
	if size > uint64(r.ReadAvailable()) {
		return 0, ErrNoFrame
	}
	return n, nil
}
