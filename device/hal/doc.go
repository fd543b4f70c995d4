// Package hal defines the Hardware Abstraction Layer interface consumed by
// the firmware model in [github.com/ardnew/wrn/device].
//
// The HAL separates the protocol state machines (parser, framer, dispatch,
// RNG calibration, EEPROM log) from the platform-specific means of talking
// to a UART, an ADC pin, a couple of GPIO lines, and a radio peripheral.
// Platform vendors implement [DeviceHAL] once per target; the device
// package never touches a register directly.
//
// A FIFO-based reference implementation for testing without real hardware
// is available in [github.com/ardnew/wrn/device/hal/fifo].
package hal
