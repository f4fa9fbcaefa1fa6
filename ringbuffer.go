// Package ringbuffer provides a fixed-capacity, lock-free single-producer
// single-consumer ring for plain-data values.
//
// The producer and the consumer each own one counter; the only
// synchronisation is an atomic store of the owned counter after touching
// the data and an atomic load of the other side's counter before it. No
// operation blocks, allocates, logs or makes a syscall. Callers that need
// to wait busy-poll or build their own wait strategy on top.
//
// A ring can live on the Go heap (New) or in any caller-provided region
// such as a shared-memory mapping (Attach); the byte layout is identical.
//
// Peeking a length prefix and then reading the payload it announces, as
// the framing package does, is consistent only because a single consumer
// performs both reads. It is a caller convention, not a ring guarantee.
package ringbuffer

// noCopy may be embedded into structs which must not be copied
// after first use. See https://golang.org/issues/8005#issuecomment-190753527.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
