// Package ticklog persists per-tick simulation summaries as compressed JSONL.
package ticklog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"agentsim.dev/internal/sim/kernel"
)

// Logger appends one JSON line per executed tick to an hourly-rotated zstd
// file under <runDir>/ticks. Re-opening within the same hour appends a new
// zstd frame to the same file; readers decode the frames as one stream.
type Logger struct {
	dir string

	mu   sync.Mutex
	hour string
	f    *os.File
	enc  *zstd.Encoder
}

func NewLogger(runDir string) *Logger {
	return &Logger{dir: filepath.Join(runDir, "ticks")}
}

// WriteTick satisfies the kernel's tick-sink contract. Every entry is
// flushed through the encoder, so a crash loses at most the current tick.
func (l *Logger) WriteTick(e kernel.TickLogEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	hour := time.Now().UTC().Format("2006-01-02-15")
	if hour != l.hour {
		if err := l.openLocked(hour); err != nil {
			return err
		}
	}

	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if _, err := l.enc.Write(append(b, '\n')); err != nil {
		return err
	}
	return l.enc.Flush()
}

func (l *Logger) openLocked(hour string) error {
	if err := l.closeLocked(); err != nil {
		return err
	}
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(l.dir, fmt.Sprintf("ticks-%s.jsonl.zst", hour))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	l.f = f
	l.enc = enc
	l.hour = hour
	return nil
}

func (l *Logger) closeLocked() error {
	var err error
	if l.enc != nil {
		err = l.enc.Close()
		l.enc = nil
	}
	if l.f != nil {
		if cerr := l.f.Close(); err == nil {
			err = cerr
		}
		l.f = nil
	}
	l.hour = ""
	return err
}

// Close flushes and closes the current log file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closeLocked()
}
