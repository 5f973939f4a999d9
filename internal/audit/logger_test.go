package audit

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestRecordAppendsOneJSONLinePerEvent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	logger, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if err := logger.Record(SignalEmitted, "BTC-USDT", map[string]any{"score": 42.5}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := logger.Record(PositionOpened, "BTC-USDT", nil); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Open for read: %v", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if len(lines) != 2 {
		t.Fatalf("len(lines) = %d, want 2", len(lines))
	}

	var first Event
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("unmarshal first line: %v", err)
	}
	if first.Kind != SignalEmitted {
		t.Errorf("first.Kind = %v, want SignalEmitted", first.Kind)
	}
	if first.Instrument != "BTC-USDT" {
		t.Errorf("first.Instrument = %q, want BTC-USDT", first.Instrument)
	}
	if first.Timestamp.IsZero() {
		t.Error("expected Record to stamp a non-zero timestamp")
	}

	var second Event
	if err := json.Unmarshal([]byte(lines[1]), &second); err != nil {
		t.Fatalf("unmarshal second line: %v", err)
	}
	if second.Kind != PositionOpened {
		t.Errorf("second.Kind = %v, want PositionOpened", second.Kind)
	}
}

func TestOpenAppendsToExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")

	first, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	_ = first.Record(SignalEmitted, "BTC-USDT", nil)
	_ = first.Close()

	second, err := Open(path)
	if err != nil {
		t.Fatalf("Open (reopen): %v", err)
	}
	_ = second.Record(OrderSubmitted, "BTC-USDT", nil)
	_ = second.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	count := 0
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		count++
	}
	if count != 2 {
		t.Errorf("line count after reopen+append = %d, want 2", count)
	}
}
