package learning

import (
	"io"
	"log/slog"
	"runtime"

	"github.com/klauspost/cpuid/v2"
	"github.com/pkg/errors"
	"gopkg.in/natefinch/lumberjack.v2"
)

// SetLogger sends solver progress to a size rotated log file.
func (h *HyperParameters) SetLogger(filename string) error {
	if filename == "" {
		return errors.New("solver log: empty filename")
	}
	h.closeLogger()
	rotated := &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
	}
	h.l = slog.New(slog.NewTextHandler(rotated, nil))
	h.closer = rotated
	return nil
}

// Close closes the solver log, if any.
func (h *HyperParameters) Close() error {
	return h.closeLogger()
}

func (h *HyperParameters) closeLogger() error {
	if h.closer == nil {
		return nil
	}
	err := h.closer.Close()
	h.closer = nil
	h.l = nil
	return err
}

type HyperParameters struct {
	Threads int // number of threads for learning, 0 means one per logical core

	Seed int64 // seed of the salt prng, 0 seeds from true rng

	Balance bool // pad the smaller class with random features before solving

	Attempts uint32 // salts tried per modulo before the modulo is given up

	// affects how fast the modulo is reduced once a solution exists (by Numerator/Denominator and then by -Subtractor)
	Numerator   uint32
	Denominator uint32
	Subtractor  uint32

	MaxModulo uint32 // give up when no salt separates the classes below this modulo

	Name string // shown in the solver log

	l      *slog.Logger
	closer io.Closer
}

// Defaults fills zero fields with working values.
func (h *HyperParameters) Defaults() {
	if h.Threads <= 0 {
		h.Threads = DefaultThreads()
	}
	if h.Attempts == 0 {
		h.Attempts = 256
	}
	if h.Numerator == 0 || h.Denominator == 0 || h.Numerator >= h.Denominator {
		h.Numerator = 7
		h.Denominator = 8
	}
	if h.MaxModulo == 0 {
		h.MaxModulo = 1 << 26
	}
}

// DefaultThreads is the number of logical cores, as reported by the cpu.
func DefaultThreads() int {
	if n := cpuid.CPU.LogicalCores; n > 0 {
		return n
	}
	return runtime.NumCPU()
}
