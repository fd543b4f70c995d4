package device

import (
	"time"

	"github.com/ardnew/wrn/device/hal"
	"github.com/ardnew/wrn/pkg"
)

// Watchdog is the device-side hardware watchdog model: it tracks whether a
// keep-alive stream is active, how much headroom remains before a forced
// reset, and pulses the hardware reset line plus logs a Reset event when the
// timeout elapses.
type Watchdog struct {
	gpio hal.GPIO
	log  *EEPROMLog

	active          bool
	timeout         uint16 // seconds
	minDelta        uint16 // seconds, smallest observed headroom
	keepAliveUptime uint32 // seconds, uptime at last keep-alive
}

// NewWatchdog returns a Watchdog with the firmware's default timeout,
// pulsing resets through gpio and logging expiry events to log.
func NewWatchdog(gpio hal.GPIO, log *EEPROMLog) *Watchdog {
	return &Watchdog{gpio: gpio, log: log, timeout: WatchdogTimeoutDefault}
}

// Active reports whether the watchdog is currently armed.
func (w *Watchdog) Active() bool {
	return w.active
}

// Timeout returns the configured timeout in seconds.
func (w *Watchdog) Timeout() uint16 {
	return w.timeout
}

// MinDelta returns the smallest headroom observed since activation. Zero
// after boot signals the last reboot was watchdog-induced.
func (w *Watchdog) MinDelta() uint16 {
	return w.minDelta
}

// KeepAlive refreshes the watchdog. min_delta only resets on an idle→active
// transition, matching WDTDevice.cpp's WDT_KEEP_ALIVE handling exactly.
func (w *Watchdog) KeepAlive(uptimeSeconds uint32) {
	if !w.active {
		w.minDelta = w.timeout
	}
	w.active = true
	w.keepAliveUptime = uptimeSeconds
}

// Deactivate disarms the watchdog.
func (w *Watchdog) Deactivate() {
	w.active = false
}

// SetTimeout validates and applies a new timeout. Returns false (and leaves
// the timeout unchanged) when t is outside [WatchdogTimeoutMin,
// WatchdogTimeoutMax].
func (w *Watchdog) SetTimeout(t int32) bool {
	if t < WatchdogTimeoutMin || t > WatchdogTimeoutMax {
		return false
	}
	if uint16(t) != w.timeout {
		w.minDelta = uint16(t)
	}
	w.timeout = uint16(t)
	return true
}

// Update recomputes delta from the stored keep-alive uptime and the current
// uptime, tracks the smallest observed headroom, and — when delta reaches
// zero while active — pulses the hardware reset line, appends a Reset event
// to the EEPROM log, and deactivates.
func (w *Watchdog) Update(uptimeSeconds uint32) error {
	if !w.active {
		return nil
	}
	elapsed := uptimeSeconds - w.keepAliveUptime
	delta := int32(w.timeout) - int32(elapsed)
	clamped := uint16(max32(delta, 0))
	if clamped < w.minDelta {
		w.minDelta = clamped
	}
	if delta <= 0 {
		w.active = false
		if err := w.gpio.SetResetLine(true); err != nil {
			return err
		}
		time.Sleep(WatchdogResetPulseMillis * time.Millisecond)
		if err := w.gpio.SetResetLine(false); err != nil {
			return err
		}
		if w.log != nil {
			if err := w.log.Append(LogRecord{Time: int32(uptimeSeconds), Event: LogReset}); err != nil {
				pkg.LogError(pkg.ComponentWatchdog, "failed to log reset event", "error", err)
			}
		}
		return pkg.ErrWatchdogExpired
	}
	return nil
}

func max32(a, b int32) int32 {
	if a > b {
		return a
	}
	return b
}

// WatchdogStatusPayload is the Watchdog/Status wire payload.
type WatchdogStatusPayload struct {
	Active    uint8
	Timeout   uint16
	MinDelta  uint16
	LogLength uint16
}

// MarshalTo writes the payload in wire order (packed, little-endian).
func (p WatchdogStatusPayload) MarshalTo(buf []byte) int {
	const size = 7
	if len(buf) < size {
		return 0
	}
	if p.Active != 0 {
		buf[0] = 1
	} else {
		buf[0] = 0
	}
	buf[1] = byte(p.Timeout)
	buf[2] = byte(p.Timeout >> 8)
	buf[3] = byte(p.MinDelta)
	buf[4] = byte(p.MinDelta >> 8)
	buf[5] = byte(p.LogLength)
	buf[6] = byte(p.LogLength >> 8)
	return size
}

// Status returns the wire Watchdog/Status payload.
func (w *Watchdog) Status() WatchdogStatusPayload {
	length := 0
	if w.log != nil {
		length = w.log.Length()
	}
	return WatchdogStatusPayload{
		Active:    boolToByte(w.active),
		Timeout:   w.timeout,
		MinDelta:  w.minDelta,
		LogLength: uint16(length),
	}
}
