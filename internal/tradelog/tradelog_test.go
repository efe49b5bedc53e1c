package tradelog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestAppendWritesJSONLine(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TRADER_LOG_DIR", dir)

	err := Append(Entry{
		Symbol:     "RELIANCE",
		Side:       "LONG",
		Entry:      114,
		StopLoss:   100,
		TakeProfit: 142,
		Volume:     1,
		OrderID:    "F-1",
		Tag:        "ORB20260901",
	})
	if err != nil {
		t.Fatal(err)
	}

	p := filepath.Join(dir, time.Now().UTC().Format("2006-01-02")+".txt")
	b, err := os.ReadFile(p)
	if err != nil {
		t.Fatal(err)
	}

	line := strings.TrimSpace(string(b))
	var e Entry
	if err := json.Unmarshal([]byte(line), &e); err != nil {
		t.Fatalf("expected a JSON line, got %q: %v", line, err)
	}
	if e.OrderID != "F-1" || e.Tag != "ORB20260901" {
		t.Errorf("round-trip mismatch: %+v", e)
	}
	if e.Time == "" {
		t.Error("expected a timestamp to be stamped on the entry")
	}
}
