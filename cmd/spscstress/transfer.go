package main

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	ringbuffer "github.com/Mrunmoy/ms-ringbuffer"
	"github.com/Mrunmoy/ms-ringbuffer/shm"
)

// message is the sequenced record moved through the ring.
type message struct {
	Sequence uint32
	Payload  uint32
}

func payloadFor(seq uint32) uint32 {
	return seq * 7
}

const goschedEvery = 64 // spins between runtime.Gosched() and ctx checks

type result struct {
	Received uint64
	Errors   uint64
	Elapsed  time.Duration
}

func (r result) rate() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Received) / r.Elapsed.Seconds()
}

// openRings returns the producer's and the consumer's view of one ring.
// On the heap both views are the same ring; over shared memory each side
// maps the segment on its own, as two processes would.
func openRings(cfg *CLIConfig, opts []ringbuffer.Option) (producer, consumer *ringbuffer.SPSC[message], cleanup func(), err error) {
	capacity := uint32(cfg.Capacity)

	if cfg.ShmPath == "" {
		q := ringbuffer.New[message](capacity, opts...)
		return q, q, func() {}, nil
	}

	prodSeg, producer, err := shm.CreateRing[message](cfg.ShmPath, capacity, opts...)
	if err != nil {
		return nil, nil, nil, err
	}
	consSeg, consumer, err := shm.OpenRing[message](cfg.ShmPath, capacity, opts...)
	if err != nil {
		_ = prodSeg.Close()
		_ = prodSeg.Remove()
		return nil, nil, nil, err
	}

	cleanup = func() {
		_ = consSeg.Close()
		_ = prodSeg.Close()
		_ = prodSeg.Remove()
	}
	return producer, consumer, cleanup, nil
}

// transfer moves count messages from producer to consumer in batches and
// verifies order and payload on the way out.
func transfer(ctx context.Context, producer, consumer *ringbuffer.SPSC[message], count uint64, batch int, logger *slog.Logger) (result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	start := time.Now()

	errc := make(chan error, 1)
	go func() {
		errc <- produce(ctx, producer, count, batch)
	}()

	res, err := consume(ctx, consumer, count, batch, logger)
	if err != nil {
		cancel()
	}
	res.Elapsed = time.Since(start)

	if perr := <-errc; err == nil && perr != nil {
		err = perr
	}
	if err != nil {
		return res, fmt.Errorf("transfer stopped after %d of %d messages: %w", res.Received, count, err)
	}
	return res, nil
}

func produce(ctx context.Context, q *ringbuffer.SPSC[message], count uint64, batch int) error {
	buf := make([]message, batch)

	var spins uint32
	for next := uint64(0); next < count; {
		n := min(uint64(batch), count-next)
		for i := uint64(0); i < n; i++ {
			seq := uint32(next + i)
			buf[i] = message{Sequence: seq, Payload: payloadFor(seq)}
		}

		for !put(q, buf[:n]) {
			spins++
			if spins%goschedEvery == 0 {
				if err := ctx.Err(); err != nil {
					return err
				}
				runtime.Gosched()
			}
		}
		next += n
	}
	return nil
}

func put(q *ringbuffer.SPSC[message], msgs []message) bool {
	if len(msgs) == 1 {
		return q.Push(msgs[0])
	}
	return q.Write(msgs)
}

func consume(ctx context.Context, q *ringbuffer.SPSC[message], count uint64, batch int, logger *slog.Logger) (result, error) {
	var res result
	buf := make([]message, batch)

	var spins uint32
	for res.Received < count {
		avail := uint64(q.ReadAvailable())
		if avail == 0 {
			spins++
			if spins%goschedEvery == 0 {
				if err := ctx.Err(); err != nil {
					return res, err
				}
				runtime.Gosched()
			}
			continue
		}

		n := min(avail, uint64(batch), count-res.Received)
		if n == 1 {
			buf[0], _ = q.Pop()
		} else {
			q.Read(buf[:n])
		}

		for _, m := range buf[:n] {
			want := uint32(res.Received)
			if m.Sequence != want || m.Payload != payloadFor(want) {
				res.Errors++
				logger.Warn("integrity error",
					"index", res.Received,
					"sequence", m.Sequence,
					"payload", m.Payload)
			}
			res.Received++
		}
	}
	return res, nil
}
