// Command wrnsim runs a simulated device firmware loop over named pipes,
// standing in for real hardware so a host daemon (or an integration test)
// can be driven end-to-end without a serial cable.
//
// Usage:
//
//	go run . [options] <bus-dir>
//
// The bus directory holds a device-{uuid}/ subdirectory containing the
// three FIFOs (host-to-device UART, device-to-host UART, scripted radio
// frames). Point a host/hal/serialhal consumer, or another FIFO-based test
// harness, at the printed device directory.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ardnew/wrn/device"
	"github.com/ardnew/wrn/device/hal/fifo"
	"github.com/ardnew/wrn/pkg"
)

func main() {
	tickInterval := flag.Duration("tick-interval", 10*time.Millisecond, "main-loop tick period")
	eepromRecords := flag.Int("eeprom-records", 64, "capacity of the simulated EEPROM event log, in records")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: wrnsim [options] <bus-dir>")
		os.Exit(1)
	}
	busDir := flag.Arg(0)

	if *verbose {
		pkg.SetLogLevel(slog.LevelDebug)
	}

	hal := fifo.New(busDir)
	if err := hal.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "init simulated HAL: %v\n", err)
		os.Exit(1)
	}
	if err := hal.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "start simulated HAL: %v\n", err)
		os.Exit(1)
	}
	defer hal.Stop()

	eepromPath := filepath.Join(hal.DeviceDir(), "eeprom.bin")
	storage, err := fifo.NewEEPROMFile(eepromPath, *eepromRecords*device.LogRecordSize)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create eeprom file: %v\n", err)
		os.Exit(1)
	}
	defer storage.Close()

	log, err := device.NewEEPROMLog(storage)
	if err != nil {
		fmt.Fprintf(os.Stderr, "discover eeprom log: %v\n", err)
		os.Exit(1)
	}

	common := device.NewCommon(hal, hal, log)
	watchdog := device.NewWatchdog(hal, log)
	rng := device.NewRNG(hal)
	radio := device.NewRadio(hal)
	framer := device.NewFramer(hal)
	registry := device.NewRegistry(framer, hal, common, watchdog, rng, log)
	loop := device.NewLoop(hal, framer, registry, radio, rng, watchdog)

	fmt.Printf("Simulated device ready: %s\n", hal.DeviceDir())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nShutting down...")
		cancel()
	}()

	ticker := time.NewTicker(*tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := loop.Tick(ctx); err != nil {
				pkg.LogError(pkg.ComponentDevice, "loop tick failed", "error", err)
			}
		}
	}
}
