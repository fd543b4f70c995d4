// Package hal defines the host side's transport abstraction: a single
// opened serial port. It exists so host.Sync and the rest of the host
// package never import a concrete transport directly, matching the
// device package's own hal.UART boundary.
package hal

import "context"

// Port is an open serial connection to the device.
type Port interface {
	// Read reads up to len(buf) available bytes without blocking past
	// ctx's deadline. 0 bytes with a nil error means nothing was
	// available yet.
	Read(ctx context.Context, buf []byte) (int, error)

	// Write writes data to the port, blocking (subject to ctx) until the
	// full buffer is queued.
	Write(ctx context.Context, data []byte) (int, error)

	// Close releases the underlying file descriptor.
	Close() error
}
