package device

import "fmt"

// DeviceKind identifies one of the four logical sub-devices multiplexed over
// the single serial link, plus the sentinel Unknown value the parser
// produces for anything it cannot recognize.
type DeviceKind uint8

// Device kind tags, matching the leading ASCII command character.
const (
	KindCommon  DeviceKind = iota // 'C' - system/common device
	KindWatchdog                  // 'W' - hardware watchdog
	KindRNG                       // 'R' - random number generator
	KindRadio                     // 'N' - sub-GHz radio forwarder
	KindUnknown                   // parser has not recognized a type yet
)

// String returns a human-readable device kind name.
func (k DeviceKind) String() string {
	switch k {
	case KindCommon:
		return "Common"
	case KindWatchdog:
		return "Watchdog"
	case KindRNG:
		return "RNG"
	case KindRadio:
		return "Radio"
	default:
		return "Unknown"
	}
}

// Common device command ids.
const (
	CommonSync     uint8 = 0 // C0:n - emit sync preamble
	CommonTime     uint8 = 1 // C1:t - set wall clock
	CommonStatus   uint8 = 2 // C2 - emit Common/Status
	CommonReset    uint8 = 3 // C3 - arm on-chip watchdog for imminent reset
	CommonProgram  uint8 = 4 // C4 - release programming interlock
	CommonLogClean uint8 = 5 // C5 - wipe EEPROM log
)

// Watchdog device command ids.
const (
	WatchdogKeepAlive  uint8 = 0 // W0 - refresh keep-alive
	WatchdogDeactivate uint8 = 1 // W1 - deactivate
	WatchdogStatus     uint8 = 2 // W2 - emit Watchdog/Status
	WatchdogTimeout    uint8 = 3 // W3:t - set timeout
	WatchdogLog        uint8 = 4 // W4:n - stream log records
)

// RNG device command ids.
const (
	RNGFloodOn   uint8 = 0 // R0 - enable continuous emission
	RNGFloodOff  uint8 = 1 // R1 - disable emission
	RNGStatus    uint8 = 2 // R2 - emit RNG/Status
	RNGSendPayload uint8 = 3 // synthetic: emit buffered payload
)

// Radio device command ids.
const (
	RadioForwardL uint8 = 0 // synthetic: forward an 'L'-typed radio frame
)

// Wire geometry.
const (
	// FrameHeaderSize is the packed size of the frame header in bytes.
	FrameHeaderSize = 6

	// MaxSyncSequence is the largest preamble length C0:n may request.
	MaxSyncSequence = 8

	// CommandSizeSoftLimit bounds how many ASCII command bytes the firmware
	// drains from the UART receive buffer per polling pass.
	CommandSizeSoftLimit = 16
)

// EEPROM log geometry.
const (
	// LogRecordSize is the packed size of one event-log record in bytes
	// (int32 time + uint8 event).
	LogRecordSize = 5
)

// LogEvent enumerates the events the firmware appends to the circular
// EEPROM log.
type LogEvent uint8

// Log event values.
const (
	LogEmpty LogEvent = iota // terminator / unused slot
	LogBoot                  // firmware completed its first wall-clock set
	LogReset                 // hardware watchdog forced a reset
)

// String returns a human-readable log event name.
func (e LogEvent) String() string {
	switch e {
	case LogEmpty:
		return "EMPTY"
	case LogBoot:
		return "BOOT"
	case LogReset:
		return "RESET"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint8(e))
	}
}

// RNG engine constants.
const (
	// RNGPayloadSize is the size in bytes of one flood-mode payload batch.
	RNGPayloadSize = 64

	// RNGFastCalibration is the measurement window used to force a
	// recalibration after a degenerate calibration result; it is the same
	// length as RNGDefaultMeasureLimit.
	RNGFastCalibration = 2048

	// RNGDefaultMeasureLimit is the measurement window used for the first
	// calibration pass after boot.
	RNGDefaultMeasureLimit = 2048

	// RNGDefaultThreshold is the initial ADC threshold before any
	// calibration has run.
	RNGDefaultThreshold = 127
)

// Hardware watchdog timeout bounds, in seconds.
const (
	WatchdogTimeoutDefault = 180
	WatchdogTimeoutMin     = 30
	WatchdogTimeoutMax     = 300
)

// WatchdogResetPulseMillis is how long, in milliseconds, the GPIO reset line
// is held high to force a hardware reset.
const WatchdogResetPulseMillis = 1000
