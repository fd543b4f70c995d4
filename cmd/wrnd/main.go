// Command wrnd is the host daemon: it opens the serial link to a wrn
// device, drives the sync handshake, demultiplexes decoded frames into
// per-category FIFOs and rotated log files, and runs the watchdog
// keep-alive bridge on a dedicated goroutine.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"

	"github.com/ardnew/wrn/device"
	"github.com/ardnew/wrn/host"
	"github.com/ardnew/wrn/host/hal"
	"github.com/ardnew/wrn/host/hal/serialhal"
	"github.com/ardnew/wrn/pkg"
	_ "github.com/ardnew/wrn/pkg/prof" // registers /debug/pprof/ when built with -tags profile
)

func main() {
	cmd := host.NewRootCommand(os.Args[1:], run)
	cmd.SetArgs(os.Args[1:])
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfg host.Config) error {
	port, err := serialhal.Open(serialhal.Config{
		Name:              cfg.Port,
		Baud:              cfg.Baud,
		ReadTimeoutMillis: cfg.ReadTimeoutDeciseconds * 100,
	})
	if err != nil {
		return fmt.Errorf("open serial port: %w", err)
	}
	defer port.Close()

	if err := os.MkdirAll(cfg.LogDir, 0o755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}
	logSink := host.NewLogSink(host.LogSinkConfig{Dir: cfg.LogDir})
	defer logSink.Close()

	if err := writePIDFile(cfg.PIDFile); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(cfg.PIDFile)

	demux := host.NewDemultiplexer(
		host.NewFIFOSink(cfg.CommandFIFO),
		host.NewFIFOSink(cfg.RNGFIFO),
		host.NewFIFOSink(cfg.RadioFIFO),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	go func() {
		for sig := range sigCh {
			switch sig {
			case syscall.SIGHUP:
				if err := logSink.Rotate(); err != nil {
					pkg.LogWarn(pkg.ComponentHost, "log rotation failed", "error", err)
				}
			default:
				cancel()
				return
			}
		}
	}()

	var writeMutex sync.Mutex
	bridge := host.NewWatchdogBridge(cfg.WatchdogFIFO, cfg.WatchdogNowayout, port, &writeMutex)
	go func() {
		if err := bridge.Run(ctx); err != nil {
			pkg.LogError(pkg.ComponentWatchdog, "watchdog bridge exited", "error", err)
		}
	}()

	return runSyncLoop(ctx, port, &writeMutex, demux, logSink)
}

// runSyncLoop repeats the handshake/read cycle for as long as the device
// keeps rebooting or desyncing, until ctx is cancelled or the handshake
// itself fails structurally (§7: sync exhaustion terminates the process).
func runSyncLoop(ctx context.Context, port hal.Port, writeMutex *sync.Mutex, demux *host.Demultiplexer, logSink *host.LogSink) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		writeMutex.Lock()
		engine := host.NewSyncEngine()
		handshake := host.NewHandshake(port, engine)
		err := handshake.Run(ctx)
		writeMutex.Unlock()
		if err != nil {
			return fmt.Errorf("sync handshake: %w", err)
		}
		pkg.LogInfo(pkg.ComponentSync, "synchronized")

		if err := readFrames(ctx, port, engine, demux, logSink); err != nil {
			pkg.LogWarn(pkg.ComponentSync, "desynchronized, resyncing", "error", err)
			continue
		}
		return nil
	}
}

func readFrames(ctx context.Context, port hal.Port, engine *host.SyncEngine, demux *host.Demultiplexer, logSink *host.LogSink) error {
	var buf [1]byte
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		n, err := port.Read(ctx, buf[:])
		if err != nil {
			return err
		}
		if n == 0 {
			continue
		}
		frame, ok, err := engine.Feed(buf[0])
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		kind := device.DeviceKind(frame.Header.TypeID)
		category := host.CategoryFor(kind)
		if frame.Status == pkg.FrameStatusNAK {
			category = host.LogCategoryError
		}
		logSink.Write(category, frameSummary(kind, frame))
		demux.Handle(frame)
		if frame.Reboot {
			return fmt.Errorf("device rebooted unsolicited")
		}
	}
}

// frameSummary renders one wire-trace line distinguishing Confirmation,
// Payload, and bare-Header (NAK) frames.
func frameSummary(kind device.DeviceKind, f host.Frame) string {
	switch f.Status {
	case pkg.FrameStatusAck:
		return fmt.Sprintf("Confirmation %s seq=%d", kind, f.Header.SeqNum)
	case pkg.FrameStatusNAK:
		return fmt.Sprintf("Header(NAK) %s seq=%d", kind, f.Header.SeqNum)
	default:
		return fmt.Sprintf("Payload %s seq=%d bytes=%d", kind, f.Header.SeqNum, len(f.Payload))
	}
}

func writePIDFile(path string) error {
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}
