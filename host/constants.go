package host

import "time"

// Sync/resync tuning.
const (
	// DefaultSyncPreamble is the number of 0xFF bytes requested in a
	// Common/Sync handshake.
	DefaultSyncPreamble int32 = 3

	// MaxSyncAttempts bounds how many times Sync retries the handshake
	// before giving up.
	MaxSyncAttempts = 3

	// SyncAttemptTimeout bounds how long a single handshake attempt may
	// wait for the device to respond.
	SyncAttemptTimeout = 2 * time.Second
)

// ReadPollInterval is how often the read loop retries a UART Read call
// that returned no bytes.
const ReadPollInterval = 2 * time.Millisecond

// DefaultWatchdogKeepAliveInterval is a keep-alive period comfortably inside
// the device's minimum timeout. The watchdog bridge does not use it: it sends
// keep-alives only in response to FIFO traffic, rate-limited by
// MinKeepAliveInterval.
const DefaultWatchdogKeepAliveInterval = 10 * time.Second

// DefaultBaud is the line rate assumed when the operator does not specify
// one explicitly.
const DefaultBaud = 57600

// MaxPayloadSize bounds the largest payload the host will allocate for a
// single frame, guarding against a corrupt or adversarial header claiming
// an unreasonable size.
const MaxPayloadSize = 1024

// MinKeepAliveInterval rate-limits Watchdog/KeepAlive sends triggered by
// bridge FIFO traffic, so a fast writer cannot flood the device.
const MinKeepAliveInterval = 1 * time.Second
