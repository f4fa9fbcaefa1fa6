// Command spscstress pushes sequenced messages through an SPSC ring from one
// goroutine to another and reports throughput and integrity errors. With
// -shm the ring lives in a shared-memory segment mapped separately by each
// side.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	ringbuffer "github.com/Mrunmoy/ms-ringbuffer"
)

const appName = "spscstress"

func version() string {
	return fmt.Sprintf("%d.%d.%d", ringbuffer.VersionMajor, ringbuffer.VersionMinor, ringbuffer.VersionPatch)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		slog.Error("Application failed", "error", err, "exit_code", 1)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet(appName, flag.ContinueOnError)
	cfg, err := parseFlags(fs, args)
	if errors.Is(err, flag.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := validateFlags(cfg); err != nil {
		return err
	}

	if cfg.ShowVersion {
		_, _ = fmt.Fprintf(stdout, "%s %s\n", appName, version())
		return nil
	}
	if cfg.Layout {
		printLayout(stdout)
		return nil
	}

	logger := setupLogger(stdout, cfg.LogLevel, cfg.LogFormat)

	opts := []ringbuffer.Option{ringbuffer.WithLineSize(uint32(cfg.LineSize))}
	if cfg.HostLineSize {
		opts = []ringbuffer.Option{ringbuffer.WithHostLineSize()}
	}

	producer, consumer, cleanup, err := openRings(cfg, opts)
	if err != nil {
		return err
	}
	defer cleanup()

	logger.Info("Starting transfer",
		"messages", cfg.Count,
		"capacity", producer.Capacity(),
		"line_size", producer.LineSize(),
		"batch", cfg.Batch,
		"shm", cfg.ShmPath)

	res, err := transfer(ctx, producer, consumer, uint64(cfg.Count), int(cfg.Batch), logger)
	if err != nil {
		return err
	}

	logger.Info("Transfer complete",
		"messages", res.Received,
		"errors", res.Errors,
		"elapsed", res.Elapsed,
		"msgs_per_sec", int64(res.rate()))

	if res.Errors > 0 {
		return fmt.Errorf("%d integrity errors in %d messages", res.Errors, res.Received)
	}
	return nil
}

// printLayout prints region sizes for a few common configurations.
func printLayout(w io.Writer) {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', tabwriter.AlignRight)
	_, _ = fmt.Fprintln(tw, "element\tcapacity\tline\tbytes\t")

	for _, line := range []uint32{64, 128} {
		opt := ringbuffer.WithLineSize(line)
		for _, capacity := range []uint32{64, 1024, 4096} {
			_, _ = fmt.Fprintf(tw, "byte\t%d\t%d\t%d\t\n", capacity, line, ringbuffer.RegionSize[byte](capacity, opt))
			_, _ = fmt.Fprintf(tw, "uint32\t%d\t%d\t%d\t\n", capacity, line, ringbuffer.RegionSize[uint32](capacity, opt))
			_, _ = fmt.Fprintf(tw, "message\t%d\t%d\t%d\t\n", capacity, line, ringbuffer.RegionSize[message](capacity, opt))
		}
	}
	_ = tw.Flush()

	_, _ = fmt.Fprintf(w, "host line size: %d\n", ringbuffer.HostLineSize())
}
