// Package serialhal implements host/hal.Port over a real serial device
// using github.com/tarm/serial.
package serialhal

import (
	"context"
	"fmt"
	"time"

	"github.com/tarm/serial"

	"github.com/ardnew/wrn/host/hal"
	"github.com/ardnew/wrn/pkg"
)

func durationMillis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// Config describes how to open the serial port.
type Config struct {
	// Name is the device path, e.g. /dev/ttyUSB0 or COM3.
	Name string
	// Baud is the line rate in bits per second.
	Baud int
	// ReadTimeoutMillis bounds how long a single Read call may block
	// waiting for at least one byte before returning 0, nil.
	ReadTimeoutMillis int
}

// DefaultReadTimeoutMillis is used when Config.ReadTimeoutMillis is zero.
const DefaultReadTimeoutMillis = 50

// Port wraps a tarm/serial connection to satisfy host/hal.Port.
type Port struct {
	port *serial.Port
	name string
}

// Open opens the serial port described by cfg.
func Open(cfg Config) (*Port, error) {
	timeout := cfg.ReadTimeoutMillis
	if timeout <= 0 {
		timeout = DefaultReadTimeoutMillis
	}
	sc := &serial.Config{
		Name:        cfg.Name,
		Baud:        cfg.Baud,
		ReadTimeout: durationMillis(timeout),
	}
	p, err := serial.OpenPort(sc)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", cfg.Name, err)
	}
	pkg.LogInfo(pkg.ComponentHAL, "serial port opened", "name", cfg.Name, "baud", cfg.Baud)
	return &Port{port: p, name: cfg.Name}, nil
}

// Read makes one attempt to read from the port. A platform read timeout is
// reported as (0, nil), matching host/hal.Port's "nothing available yet"
// contract.
func (p *Port) Read(ctx context.Context, buf []byte) (int, error) {
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	default:
	}
	n, err := p.port.Read(buf)
	if err != nil {
		return 0, nil
	}
	return n, nil
}

// Write writes the full buffer, retrying partial writes.
func (p *Port) Write(ctx context.Context, data []byte) (int, error) {
	written := 0
	for written < len(data) {
		select {
		case <-ctx.Done():
			return written, ctx.Err()
		default:
		}
		n, err := p.port.Write(data[written:])
		written += n
		if err != nil {
			return written, fmt.Errorf("write serial port %s: %w", p.name, err)
		}
	}
	return written, nil
}

// Close closes the underlying serial connection.
func (p *Port) Close() error {
	return p.port.Close()
}

var _ hal.Port = (*Port)(nil)
