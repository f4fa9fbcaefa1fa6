//go:build unix

package shm

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Create makes a new zero-filled segment file of size bytes at path and maps
// it. It fails if the file already exists.
func Create(path string, size int) (*Segment, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}

	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CREAT|unix.O_EXCL|unix.O_CLOEXEC, 0o600)
	if err != nil {
		return nil, fmt.Errorf("shm: create %s: %w", path, err)
	}
	defer unix.Close(fd)

	if err := unix.Ftruncate(fd, int64(size)); err != nil {
		_ = unix.Unlink(path)
		return nil, fmt.Errorf("shm: size %s to %d bytes: %w", path, size, err)
	}

	mem, err := unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		_ = unix.Unlink(path)
		return nil, fmt.Errorf("shm: map %s: %w", path, err)
	}

	return &Segment{path: path, mem: mem}, nil
}

// Open maps an existing segment file in full.
func Open(path string) (*Segment, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("shm: open %s: %w", path, err)
	}
	defer unix.Close(fd)

	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		return nil, fmt.Errorf("shm: stat %s: %w", path, err)
	}
	if st.Size <= 0 {
		return nil, fmt.Errorf("shm: open %s: %w", path, ErrInvalidSize)
	}

	mem, err := unix.Mmap(fd, 0, int(st.Size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("shm: map %s: %w", path, err)
	}

	return &Segment{path: path, mem: mem}, nil
}

// Sync flushes the mapping to the backing file.
func (s *Segment) Sync() error {
	if s.mem == nil {
		return ErrClosed
	}
	if err := unix.Msync(s.mem, unix.MS_SYNC); err != nil {
		return fmt.Errorf("shm: sync %s: %w", s.path, err)
	}
	return nil
}

// Close unmaps the segment. Rings attached to it must not be used
// afterwards. Closing twice is a no-op.
func (s *Segment) Close() error {
	if s.mem == nil {
		return nil
	}
	mem := s.mem
	s.mem = nil
	if err := unix.Munmap(mem); err != nil {
		return fmt.Errorf("shm: unmap %s: %w", s.path, err)
	}
	return nil
}

// Remove deletes the backing file. Existing mappings stay valid.
func (s *Segment) Remove() error {
	if err := unix.Unlink(s.path); err != nil {
		return fmt.Errorf("shm: remove %s: %w", s.path, err)
	}
	return nil
}
