package ticklog

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"

	"agentsim.dev/internal/sim/kernel"
)

func readEntries(t *testing.T, dir string) []kernel.TickLogEntry {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "ticks", "*.jsonl.zst"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected one log file, got %v", matches)
	}
	f, err := os.Open(matches[0])
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		t.Fatalf("zstd reader: %v", err)
	}
	defer dec.Close()

	var out []kernel.TickLogEntry
	sc := bufio.NewScanner(dec)
	for sc.Scan() {
		var e kernel.TickLogEntry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			t.Fatalf("unmarshal line: %v", err)
		}
		out = append(out, e)
	}
	if err := sc.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}
	return out
}

func TestLogger_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	l := NewLogger(dir)

	want := []kernel.TickLogEntry{
		{Tick: 0, NAlive: 100, NewDeaths: 0, Digest: "aa"},
		{Tick: 1, NAlive: 98, NewDeaths: 2, Digest: "bb"},
		{Tick: 2, NAlive: 98, NewDeaths: 0, Digest: "cc"},
	}
	for _, e := range want {
		if err := l.WriteTick(e); err != nil {
			t.Fatalf("write tick %d: %v", e.Tick, err)
		}
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	got := readEntries(t, dir)
	if len(got) != len(want) {
		t.Fatalf("read %d entries, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("entry %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestLogger_AppendsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	l := NewLogger(dir)
	if err := l.WriteTick(kernel.TickLogEntry{Tick: 0, NAlive: 5, Digest: "x"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// Re-opening within the same hour appends a second zstd frame to the
	// same file; both frames decode as one stream.
	l2 := NewLogger(dir)
	if err := l2.WriteTick(kernel.TickLogEntry{Tick: 1, NAlive: 5, Digest: "y"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := l2.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	got := readEntries(t, dir)
	if len(got) != 2 || got[0].Tick != 0 || got[1].Tick != 1 {
		t.Fatalf("entries after reopen = %+v", got)
	}
}
