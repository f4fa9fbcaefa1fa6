//go:build !unix

package shm

// Create always fails with ErrUnsupported.
func Create(path string, size int) (*Segment, error) {
	return nil, ErrUnsupported
}

// Open always fails with ErrUnsupported.
func Open(path string) (*Segment, error) {
	return nil, ErrUnsupported
}

// Sync always fails with ErrUnsupported.
func (s *Segment) Sync() error {
	return ErrUnsupported
}

// Close is a no-op.
func (s *Segment) Close() error {
	return nil
}

// Remove always fails with ErrUnsupported.
func (s *Segment) Remove() error {
	return ErrUnsupported
}
