package host

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"syscall"
	"testing"
	"time"
)

func mkTestFIFO(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wdt")
	if err := syscall.Mkfifo(path, 0o600); err != nil {
		t.Fatalf("mkfifo: %v", err)
	}
	return path
}

func TestWatchdogBridgeSendsKeepAliveAndDeactivatesOnMagicClose(t *testing.T) {
	path := mkTestFIFO(t)
	port := &scriptedPort{releaseAfter: 0}
	bridge := NewWatchdogBridge(path, false, port, &sync.Mutex{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- bridge.Run(ctx) }()

	w, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		t.Fatalf("open fifo for write: %v", err)
	}
	if _, err := w.Write([]byte{'V'}); err != nil {
		t.Fatalf("write: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	w.Close()
	time.Sleep(20 * time.Millisecond)

	if len(port.writes) < 2 {
		t.Fatalf("got %d writes, want at least 2 (keep-alive, deactivate)", len(port.writes))
	}
	last := port.writes[len(port.writes)-1]
	if string(last) != "W1\n" {
		t.Fatalf("got final command %q, want deactivate %q", last, "W1\n")
	}
}

func TestWatchdogBridgeLeavesTimerRunningWithoutMagicCharacter(t *testing.T) {
	path := mkTestFIFO(t)
	port := &scriptedPort{}
	bridge := NewWatchdogBridge(path, false, port, &sync.Mutex{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go bridge.Run(ctx)

	w, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		t.Fatalf("open fifo for write: %v", err)
	}
	if _, err := w.Write([]byte{'x'}); err != nil {
		t.Fatalf("write: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	w.Close()
	time.Sleep(20 * time.Millisecond)

	for _, wr := range port.writes {
		if string(wr) == "W1\n" {
			t.Fatalf("deactivate sent despite no magic character: %v", port.writes)
		}
	}
}

func TestWatchdogBridgeRateLimitsKeepAlive(t *testing.T) {
	path := mkTestFIFO(t)
	port := &scriptedPort{}
	bridge := NewWatchdogBridge(path, false, port, &sync.Mutex{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go bridge.Run(ctx)

	w, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		t.Fatalf("open fifo for write: %v", err)
	}
	defer w.Close()
	w.Write([]byte{'a', 'b', 'c'})
	time.Sleep(20 * time.Millisecond)

	keepAlives := 0
	for _, wr := range port.writes {
		if string(wr) == "W0\n" {
			keepAlives++
		}
	}
	if keepAlives != 1 {
		t.Fatalf("got %d keep-alive sends for a burst of 3 bytes, want 1 (rate-limited)", keepAlives)
	}
}
