package hal

import "context"

// UART is the serial transport the firmware model reads commands from and
// writes framed responses to. Implementations are not required to be safe
// for concurrent use from more than one goroutine; the firmware's main loop
// is strictly cooperative and never calls into the HAL concurrently.
type UART interface {
	// Read reads up to len(buf) available bytes without blocking past ctx's
	// deadline. It returns the number of bytes read; 0 with a nil error is
	// a legitimate "nothing available right now" result, matching a UART
	// receive ring buffer with no complete bytes pending.
	Read(ctx context.Context, buf []byte) (int, error)

	// Write writes data to the UART transmit path. Blocks until queued or
	// ctx is cancelled. Returns the number of bytes written.
	Write(ctx context.Context, data []byte) (int, error)
}

// ADC samples the RNG's analog noise source.
type ADC interface {
	// Sample returns an 8-bit reduction of a raw ADC reading from the
	// high-impedance RNG source pin.
	Sample(ctx context.Context) (uint8, error)
}

// GPIO drives the discrete output lines the firmware controls directly:
// the hardware reset line pulsed by the watchdog, and the programming
// interlock line released by Common/Program.
type GPIO interface {
	// SetResetLine drives the hardware reset line high (true) or low
	// (false).
	SetResetLine(high bool) error

	// ReleaseInterlock releases the programming interlock line so the
	// device can be reflashed without a manual toggle.
	ReleaseInterlock() error
}

// OnChipWatchdog pets the microcontroller's own hardware watchdog timer.
// This is independent of the user-facing Watchdog handler exposed over the
// wire: it is the low-level MCU peripheral that resets the device if the
// main loop ever stalls outright.
type OnChipWatchdog interface {
	// Pet resets the on-chip watchdog timer's countdown.
	Pet() error
}

// RadioFrame is a single frame read from the sub-GHz radio link.
type RadioFrame struct {
	// Type is the frame's leading type byte; only 'L' (light telemetry) is
	// recognized by the Radio handler.
	Type byte
	// Payload holds the frame body following the type byte.
	Payload [16]byte
	// PayloadLen is the number of valid bytes in Payload.
	PayloadLen int
}

// Radio polls the sub-GHz radio peripheral for inbound telemetry frames.
type Radio interface {
	// Poll checks for a newly arrived frame. ok is false when nothing is
	// pending.
	Poll(ctx context.Context) (frame RadioFrame, ok bool, err error)
}

// Clock provides the firmware's notion of time: a free-running monotonic
// uptime counter, and a settable wall clock.
type Clock interface {
	// UptimeMillis returns milliseconds elapsed since boot.
	UptimeMillis() uint32

	// WallClockSeconds returns the current wall-clock time as Unix seconds.
	WallClockSeconds() int32

	// SetWallClockSeconds sets the wall clock to t.
	SetWallClockSeconds(t int32)

	// VCC returns the last-sampled supply voltage, in millivolts, reported
	// via Common/Status.
	VCC() int32
}

// DeviceHAL bundles the collaborators the firmware model needs. A platform
// vendor supplies one concrete implementation of each to run the firmware
// model on real hardware; tests and simulation substitute the fifo package's
// reference implementation.
type DeviceHAL interface {
	UART
	ADC
	GPIO
	Radio
	Clock
	OnChipWatchdog
}
