// Package fifo implements the device-side reference hal.DeviceHAL using
// named pipes, standing in for a UART, an ADC noise source, discrete GPIO
// lines, and a sub-GHz radio peripheral.
//
// # Architecture
//
// Each device instance creates a unique subdirectory under a shared bus
// directory:
//
//	/tmp/wrn-bus/                      # Bus directory (shared with host)
//	└── device-{uuid}/                 # Device subdirectory (unique per device)
//	    ├── uart_host_to_device        # Host commands, read by the device
//	    ├── uart_device_to_host        # Device responses, read by the host
//	    └── radio_in                   # Scripted inbound radio frames
//
// The UUID is generated with crypto/rand, so concurrent simulator instances
// never collide on a shared bus directory.
//
// Read is non-blocking: it makes one best-effort attempt per call and
// returns (0, nil) when nothing is pending, matching a real UART receive
// ring buffer. Write blocks (subject to ctx) until the full buffer is
// queued.
//
// The companion host-side HAL (host/hal/serialhal) talks to the real
// tarm/serial transport; this package exists purely for the simulator
// command and integration tests, where no physical UART is available.
package fifo
