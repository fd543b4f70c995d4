package device

import "github.com/ardnew/wrn/device/hal"

// uptimeSeconds converts the HAL's millisecond uptime counter to whole
// seconds, the unit the watchdog and Common/Status operate in.
func uptimeSeconds(clk hal.Clock) uint32 {
	return clk.UptimeMillis() / 1000
}
