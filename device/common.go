package device

import (
	"github.com/ardnew/wrn/device/hal"
)

// Common implements the system/common device: sync preamble, wall clock,
// status reporting, reset arming, the programming interlock, and log
// wiping.
type Common struct {
	clock hal.Clock
	gpio  hal.GPIO
	log   *EEPROMLog

	bootLogged bool
}

// NewCommon returns a Common handler sharing clock, gpio and log with the
// rest of the device.
func NewCommon(clock hal.Clock, gpio hal.GPIO, log *EEPROMLog) *Common {
	return &Common{clock: clock, gpio: gpio, log: log}
}

// SetTime sets the wall clock. On the first successful set after boot it
// appends a Boot event to the EEPROM log exactly once, matching
// CommonDevice::time's boot_logged guard.
func (c *Common) SetTime(t int32) error {
	c.clock.SetWallClockSeconds(t)
	if !c.bootLogged {
		c.bootLogged = true
		if c.log != nil {
			return c.log.Append(LogRecord{Time: t, Event: LogBoot})
		}
	}
	return nil
}

// ReleaseProgrammingInterlock releases the GPIO line guarding in-field
// reflashing.
func (c *Common) ReleaseProgrammingInterlock() error {
	return c.gpio.ReleaseInterlock()
}

// CleanLog wipes the EEPROM log.
func (c *Common) CleanLog() error {
	if c.log == nil {
		return nil
	}
	return c.log.Clean()
}

// CommonStatusPayload is the Common/Status wire payload.
type CommonStatusPayload struct {
	Time   int32
	Uptime uint32
	VCC    int32
	NLock  uint8
}

// MarshalTo writes the payload in wire order (packed, little-endian).
func (p CommonStatusPayload) MarshalTo(buf []byte) int {
	const size = 13
	if len(buf) < size {
		return 0
	}
	buf[0] = byte(p.Time)
	buf[1] = byte(p.Time >> 8)
	buf[2] = byte(p.Time >> 16)
	buf[3] = byte(p.Time >> 24)
	buf[4] = byte(p.Uptime)
	buf[5] = byte(p.Uptime >> 8)
	buf[6] = byte(p.Uptime >> 16)
	buf[7] = byte(p.Uptime >> 24)
	buf[8] = byte(p.VCC)
	buf[9] = byte(p.VCC >> 8)
	buf[10] = byte(p.VCC >> 16)
	buf[11] = byte(p.VCC >> 24)
	buf[12] = p.NLock
	return size
}

// Status returns the wire Common/Status payload.
func (c *Common) Status() CommonStatusPayload {
	return CommonStatusPayload{
		Time:   c.clock.WallClockSeconds(),
		Uptime: c.clock.UptimeMillis() / 1000,
		VCC:    c.clock.VCC(),
		NLock:  0,
	}
}
