// Package device implements the firmware-side model of the telemetry and
// watchdog bridge: a single cooperative main loop driving four logical
// sub-devices (Common, Watchdog, RNG, Radio) over one serial link.
//
// It is platform-agnostic and interacts with hardware via the
// [hal.DeviceHAL] interface defined in the
// [github.com/ardnew/wrn/device/hal] package. The HAL exposes the UART,
// ADC, GPIO and radio operations a platform must provide; the device
// package never touches hardware registers directly.
//
// # Architecture
//
//   - [Command] / [Parser] turn ASCII bytes into a [DeviceKind]-tagged
//     request (§4.1 of the protocol).
//   - [Framer] serializes the 6-byte wire header and payloads back onto
//     the UART, owning the monotonic sequence counter.
//   - [Registry] dispatches a completed [Command] to the matching
//     handler and emits ACK/NAK on its behalf.
//   - [Common], [Watchdog], [RNG] and [Radio] are the four handlers.
//   - [EEPROMLog] is the fixed-size circular event log shared by [Common]
//     and [Watchdog].
//   - [Loop] runs one iteration of the main loop in the fixed order the
//     protocol requires.
//
// # Zero-allocation-friendly design
//
// Wire structures serialize via MarshalTo(buf) rather than allocating
// Bytes(); fixed-size arrays back the loop's UART receive buffer and the RNG
// payload batch.
//
// A FIFO-based HAL for testing without real hardware is available in
// [github.com/ardnew/wrn/device/hal/fifo].
package device
