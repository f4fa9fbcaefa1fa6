package ringbuffer

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/valyala/fastrand"
)

// Concurrent test: one producer pushes [0..N), one consumer pops.
// The consumer must see every value exactly once and in order.
func TestSPSCConcurrentOrdered(t *testing.T) {
	const N = 500_000

	for _, capacity := range []uint32{1, 2, 8, 1024} {
		t.Run(fmt.Sprintf("capacity=%d", capacity), func(t *testing.T) {
			q := New[uint32](capacity)

			var failed atomic.Bool
			var wg sync.WaitGroup
			wg.Add(2)

			go func() {
				defer wg.Done()
				for i := uint32(0); i < N; i++ {
					// keep retrying while the consumer drains
					for !q.Push(i) {
						if failed.Load() {
							return
						}
						runtime.Gosched()
					}
				}
			}()

			received := 0
			go func() {
				defer wg.Done()
				for want := uint32(0); want < N; want++ {
					v, ok := q.Pop()
					for !ok {
						runtime.Gosched()
						v, ok = q.Pop()
					}
					if v != want {
						t.Errorf("capacity %d: expected %d, got %d (FIFO violated)", capacity, want, v)
						failed.Store(true)
						return
					}
					received++
				}
			}()

			wg.Wait()

			if received != N {
				t.Fatalf("capacity %d: received %d values, want %d", capacity, received, N)
			}
			if !q.IsEmpty() {
				t.Fatalf("capacity %d: %d values left over", capacity, q.ReadAvailable())
			}
		})
	}
}

type event struct {
	ID      uint32
	Payload uint32
}

func TestSPSCConcurrentStructs(t *testing.T) {
	const N = 100_000

	q := New[event](512)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for i := uint32(0); i < N; i++ {
			for !q.Push(event{ID: i, Payload: i * 10}) {
				runtime.Gosched()
			}
		}
	}()

	for i := uint32(0); i < N; i++ {
		e, ok := q.Pop()
		for !ok {
			runtime.Gosched()
			e, ok = q.Pop()
		}
		if e.ID != i || e.Payload != i*10 {
			t.Fatalf("event %d: got %+v", i, e)
		}
	}
	<-done
}

// Bulk transfers with random batch sizes on both sides, so writes and reads
// regularly straddle the end of storage.
//
// Write and Read are all-or-nothing, so a producer waiting for more free
// space than the consumer leaves behind would stall forever. Either both
// sides stay within half the ring, or the consumer takes what is stored.
func TestSPSCConcurrentRandomBatches(t *testing.T) {
	const capacity = 64

	cases := []struct {
		name     string
		maxBatch uint32
		clamp    bool
	}{
		{"half capacity batches", capacity / 2, false},
		{"consumer takes what is stored", capacity, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			testRandomBatches(t, capacity, tc.maxBatch, tc.clamp)
		})
	}
}

func testRandomBatches(t *testing.T, capacity, maxBatch uint32, clamp bool) {
	const N = 300_000

	q := New[uint64](capacity)
	done := make(chan struct{})

	go func() {
		defer close(done)

		var rng fastrand.RNG
		rng.Seed(1)
		batch := make([]uint64, maxBatch)

		next := uint64(0)
		for next < N {
			n := min(uint64(rng.Uint32n(maxBatch)+1), N-next)
			for i := uint64(0); i < n; i++ {
				batch[i] = next + i
			}
			for !q.Write(batch[:n]) {
				runtime.Gosched()
			}
			next += n
		}
	}()

	var rng fastrand.RNG
	rng.Seed(2)
	buf := make([]uint64, maxBatch)
	peeked := make([]uint64, maxBatch)

	wrapped := false
	want := uint64(0)
	for want < N {
		n := min(uint64(rng.Uint32n(maxBatch)+1), N-want)
		if clamp {
			avail := uint64(q.ReadAvailable())
			for avail == 0 {
				runtime.Gosched()
				avail = uint64(q.ReadAvailable())
			}
			n = min(n, avail)
		}
		if want%uint64(capacity)+n > uint64(capacity) {
			wrapped = true
		}

		// all-or-nothing: a short ring refuses the whole read
		for !q.Peek(peeked[:n]) {
			runtime.Gosched()
		}
		if !q.Read(buf[:n]) {
			t.Fatalf("read of %d failed after peek succeeded", n)
		}
		for i := uint64(0); i < n; i++ {
			if buf[i] != want || peeked[i] != want {
				t.Fatalf("expected %d, got read=%d peek=%d", want, buf[i], peeked[i])
			}
			want++
		}
	}
	<-done

	require.True(t, wrapped, "no read crossed the end of storage")
	require.True(t, q.IsEmpty())
}

// Producer writes variable length, length-prefixed byte records; the
// consumer skips every third one.
func TestSPSCConcurrentByteStream(t *testing.T) {
	const (
		capacity = 256
		records  = 50_000
	)

	q := NewByteRing(capacity)
	done := make(chan struct{})

	go func() {
		defer close(done)
		var rng fastrand.RNG
		rng.Seed(3)
		rec := make([]byte, 64)
		for i := 0; i < records; i++ {
			n := int(rng.Uint32n(63)) + 1
			rec[0] = byte(n)
			for j := 1; j <= n; j++ {
				rec[j] = byte(i + j)
			}
			for !q.Write(rec[:n+1]) {
				runtime.Gosched()
			}
		}
	}()

	var hdr [1]byte
	body := make([]byte, 64)
	for i := 0; i < records; i++ {
		for !q.Peek(hdr[:]) {
			runtime.Gosched()
		}
		n := int(hdr[0])
		if i%3 == 2 {
			for !q.Skip(uint32(n + 1)) {
				runtime.Gosched()
			}
			continue
		}
		for !q.Read(body[:n+1]) {
			runtime.Gosched()
		}
		for j := 1; j <= n; j++ {
			if body[j] != byte(i+j) {
				t.Fatalf("record %d byte %d: got %d want %d", i, j, body[j], byte(i+j))
			}
		}
	}
	<-done

	require.True(t, q.IsEmpty())
}

// Invariants hold at every observation point under concurrent traffic.
func TestSPSCConcurrentInvariant(t *testing.T) {
	const N = 200_000

	q := New[uint16](16)
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < N; i++ {
			for !q.Push(uint16(i)) {
				runtime.Gosched()
			}
		}
	}()

	go func() {
		defer wg.Done()
		for i := 0; i < N; i++ {
			// consumer-side observation: avail can only grow until we read
			avail := q.ReadAvailable()
			if avail > q.Capacity() {
				t.Errorf("read available %d exceeds capacity", avail)
				return
			}
			for {
				if _, ok := q.Pop(); ok {
					break
				}
				runtime.Gosched()
			}
		}
	}()

	wg.Wait()

	require.Equal(t, q.Capacity(), q.ReadAvailable()+q.WriteAvailable())
}

// Sequential model check: random operations against a slice model.
func TestSPSCMatchesModel(t *testing.T) {
	const capacity = 16

	var rng fastrand.RNG
	rng.Seed(42)

	q := New[int](capacity)
	model := make([]int, 0, capacity)
	next := 0

	for step := 0; step < 100_000; step++ {
		n := int(rng.Uint32n(capacity + 3)) // sometimes more than capacity
		switch rng.Uint32n(5) {
		case 0:
			src := make([]int, n)
			for i := range src {
				src[i] = next + i
			}
			ok := q.Write(src)
			fits := n <= capacity-len(model)
			require.Equal(t, fits, ok, "step %d write %d", step, n)
			if ok {
				model = append(model, src...)
				next += n
			}
		case 1:
			ok := q.Push(next)
			require.Equal(t, len(model) < capacity, ok, "step %d push", step)
			if ok {
				model = append(model, next)
				next++
			}
		case 2:
			dst := make([]int, n)
			ok := q.Read(dst)
			require.Equal(t, n <= len(model), ok, "step %d read %d", step, n)
			if ok {
				require.Equal(t, model[:n], dst)
				model = model[n:]
			}
		case 3:
			dst := make([]int, n)
			ok := q.Peek(dst)
			require.Equal(t, n <= len(model), ok, "step %d peek %d", step, n)
			if ok {
				require.Equal(t, model[:n], dst)
			}
		case 4:
			ok := q.Skip(uint32(n))
			require.Equal(t, n <= len(model), ok, "step %d skip %d", step, n)
			if ok {
				model = model[n:]
			}
		}

		require.Equal(t, uint32(len(model)), q.ReadAvailable())
		require.Equal(t, uint32(capacity-len(model)), q.WriteAvailable())
	}
}

// Benchmark: single producer, single consumer, one element at a time.
func BenchmarkSPSC_1P1C(b *testing.B) {
	const capacity = 1 << 16
	q := New[int](capacity)

	done := make(chan struct{})

	// Consumer
	go func() {
		for i := 0; i < b.N; i++ {
			for {
				if _, ok := q.Pop(); ok {
					break
				}
				runtime.Gosched()
			}
		}
		close(done)
	}()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for !q.Push(i) {
			runtime.Gosched()
		}
	}
	<-done
	b.StopTimer()
}

// Benchmark: single producer, single consumer, 64-element batches.
func BenchmarkSPSC_1P1C_Batch64(b *testing.B) {
	const (
		capacity = 1 << 16
		batch    = 64
	)
	q := New[int](capacity)
	total := b.N * batch

	done := make(chan struct{})

	go func() {
		dst := make([]int, batch)
		for got := 0; got < total; got += batch {
			for !q.Read(dst) {
				runtime.Gosched()
			}
		}
		close(done)
	}()

	src := make([]int, batch)
	b.SetBytes(int64(batch * 8))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for !q.Write(src) {
			runtime.Gosched()
		}
	}
	<-done
	b.StopTimer()
}

func BenchmarkByteRing_Write4K(b *testing.B) {
	q := NewByteRing(1 << 16)
	src := make([]byte, 4096)
	dst := make([]byte, 4096)

	b.SetBytes(int64(len(src)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		q.Write(src)
		q.Read(dst)
	}
}
