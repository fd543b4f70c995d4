package host

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/ardnew/wrn/device"
	"github.com/ardnew/wrn/host/hal"
	"github.com/ardnew/wrn/pkg"
)

// WatchdogBridge exposes a dedicated FIFO that external keep-alive writers
// open, mirroring the /dev/watchdog ioctl surface this system's original
// kernel-module incarnation exposed: every byte received refreshes
// ok_to_close (only the magic character 'V' sets it) and triggers a
// rate-limited Watchdog/KeepAlive send; the reader disappearing either
// deactivates the device watchdog or, if the magic character was never
// seen, leaves it running and logs a critical warning.
type WatchdogBridge struct {
	path     string
	nowayout bool

	port       hal.Port
	writeMutex *sync.Mutex

	okToClose bool
	lastSend  time.Time
}

// NewWatchdogBridge returns a bridge serving path. writeMutex must be the
// same lock the sync engine's serial writes use, since both goroutines
// share a single serial line.
func NewWatchdogBridge(path string, nowayout bool, port hal.Port, writeMutex *sync.Mutex) *WatchdogBridge {
	return &WatchdogBridge{path: path, nowayout: nowayout, port: port, writeMutex: writeMutex}
}

// Run opens the FIFO and services keep-alive writers until ctx is
// cancelled, reopening the FIFO after each reader disconnects. A blocking
// FIFO open is not itself interruptible by ctx; shutdown cancellation is
// asynchronous, matching the thread being expected to sit at a blocking
// read when the process terminates.
func (b *WatchdogBridge) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		if err := b.serveOnce(ctx); err != nil {
			return err
		}
	}
}

func (b *WatchdogBridge) serveOnce(ctx context.Context) error {
	f, err := os.OpenFile(b.path, os.O_RDONLY, 0)
	if err != nil {
		return err
	}
	defer f.Close()

	var buf [1]byte
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		n, err := f.Read(buf[:])
		if err != nil || n == 0 {
			b.release(ctx)
			return nil
		}
		b.feed(ctx, buf[0])
	}
}

func (b *WatchdogBridge) feed(ctx context.Context, c byte) {
	if c == 'V' {
		b.okToClose = true
	} else if !b.nowayout {
		b.okToClose = false
	}
	b.enable(ctx)
}

func (b *WatchdogBridge) enable(ctx context.Context) {
	now := time.Now()
	if now.Sub(b.lastSend) < MinKeepAliveInterval {
		return
	}
	b.lastSend = now
	b.send(ctx, EncodeCommand(device.KindWatchdog, device.WatchdogKeepAlive))
}

func (b *WatchdogBridge) release(ctx context.Context) {
	if b.okToClose {
		b.send(ctx, EncodeCommand(device.KindWatchdog, device.WatchdogDeactivate))
		return
	}
	pkg.LogError(pkg.ComponentWatchdog, "watchdog fifo closed without magic character, timer will not stop",
		"error", pkg.ErrUnexpectedClose)
}

func (b *WatchdogBridge) send(ctx context.Context, cmd []byte) {
	b.writeMutex.Lock()
	defer b.writeMutex.Unlock()
	if _, err := b.port.Write(ctx, cmd); err != nil {
		pkg.LogWarn(pkg.ComponentWatchdog, "keep-alive send failed", "error", err)
	}
}
