package main

import (
	"flag"
	"fmt"
	"os"
	"slices"
	"strconv"
)

// CLIConfig holds command-line configuration
type CLIConfig struct {
	Count        uint
	Capacity     uint
	Batch        uint
	LineSize     uint
	HostLineSize bool
	ShmPath      string
	LogLevel     string
	LogFormat    string
	Layout       bool
	ShowVersion  bool
}

func parseFlags(fs *flag.FlagSet, args []string) (*CLIConfig, error) {
	cfg := &CLIConfig{}

	fs.UintVar(&cfg.Count, "count",
		getEnvUint("SPSCSTRESS_COUNT", 1_000_000),
		"Number of messages to transfer (env: SPSCSTRESS_COUNT)")

	fs.UintVar(&cfg.Capacity, "capacity",
		getEnvUint("SPSCSTRESS_CAPACITY", 1024),
		"Ring capacity in messages, power of 2 (env: SPSCSTRESS_CAPACITY)")

	fs.UintVar(&cfg.Batch, "batch",
		getEnvUint("SPSCSTRESS_BATCH", 1),
		"Messages per write/read call, 1 uses push/pop (env: SPSCSTRESS_BATCH)")

	fs.UintVar(&cfg.LineSize, "line-size",
		getEnvUint("SPSCSTRESS_LINE_SIZE", 64),
		"Control block padding in bytes, power of 2 (env: SPSCSTRESS_LINE_SIZE)")

	fs.BoolVar(&cfg.HostLineSize, "host-line-size", false,
		"Pad to this CPU's cache line size, overrides -line-size")

	fs.StringVar(&cfg.ShmPath, "shm",
		getEnv("SPSCSTRESS_SHM", ""),
		"Run over a shared-memory segment created at this path (env: SPSCSTRESS_SHM)")

	fs.StringVar(&cfg.LogLevel, "log-level",
		getEnv("SPSCSTRESS_LOG_LEVEL", "info"),
		"Log level: debug, info, warn, error (env: SPSCSTRESS_LOG_LEVEL)")

	fs.StringVar(&cfg.LogFormat, "log-format",
		getEnv("SPSCSTRESS_LOG_FORMAT", "text"),
		"Log format: json, text (env: SPSCSTRESS_LOG_FORMAT)")

	fs.BoolVar(&cfg.Layout, "layout", false, "Print ring region sizes and exit")
	fs.BoolVar(&cfg.ShowVersion, "version", false, "Show version information")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validateFlags(cfg *CLIConfig) error {
	if cfg.ShowVersion || cfg.Layout {
		return nil
	}

	if cfg.Count == 0 {
		return fmt.Errorf("invalid count: %d", cfg.Count)
	}
	if !isPow2(cfg.Capacity) || cfg.Capacity > 1<<31 {
		return fmt.Errorf("invalid capacity: %d (must be a power of 2)", cfg.Capacity)
	}
	if cfg.Batch == 0 || cfg.Batch > cfg.Capacity {
		return fmt.Errorf("invalid batch: %d (must be between 1 and capacity %d)", cfg.Batch, cfg.Capacity)
	}
	if !cfg.HostLineSize && (!isPow2(cfg.LineSize) || cfg.LineSize < 4 || cfg.LineSize > 4096) {
		return fmt.Errorf("invalid line size: %d", cfg.LineSize)
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLevels, cfg.LogLevel) {
		return fmt.Errorf("invalid log level: %s", cfg.LogLevel)
	}
	validFormats := []string{"json", "text"}
	if !slices.Contains(validFormats, cfg.LogFormat) {
		return fmt.Errorf("invalid log format: %s", cfg.LogFormat)
	}

	return nil
}

func isPow2(n uint) bool {
	return n != 0 && n&(n-1) == 0
}

// Environment variable helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvUint(key string, defaultValue uint) uint {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseUint(value, 10, 0); err == nil {
			return uint(parsed)
		}
	}
	return defaultValue
}
