package host

import (
	"encoding/binary"
	"fmt"

	"github.com/ardnew/wrn/device"
)

// kindLetter returns the ASCII type character the device parser expects
// for kind, or '?' if kind has no wire representation.
func kindLetter(kind device.DeviceKind) byte {
	switch kind {
	case device.KindCommon:
		return 'C'
	case device.KindWatchdog:
		return 'W'
	case device.KindRNG:
		return 'R'
	case device.KindRadio:
		return 'N'
	default:
		return '?'
	}
}

// EncodeCommand renders a command in the wire ASCII grammar the device
// parser consumes: TYPE ID[:ARG1[:ARG2]]\n.
func EncodeCommand(kind device.DeviceKind, id uint8, args ...int32) []byte {
	s := fmt.Sprintf("%c%d", kindLetter(kind), id)
	for _, a := range args {
		s += fmt.Sprintf(":%d", a)
	}
	s += "\n"
	return []byte(s)
}

// DecodeCommonStatus parses a Common/Status payload.
func DecodeCommonStatus(buf []byte) (device.CommonStatusPayload, bool) {
	const size = 13
	if len(buf) < size {
		return device.CommonStatusPayload{}, false
	}
	return device.CommonStatusPayload{
		Time:   int32(binary.LittleEndian.Uint32(buf[0:4])),
		Uptime: binary.LittleEndian.Uint32(buf[4:8]),
		VCC:    int32(binary.LittleEndian.Uint32(buf[8:12])),
		NLock:  buf[12],
	}, true
}

// DecodeWatchdogStatus parses a Watchdog/Status payload.
func DecodeWatchdogStatus(buf []byte) (device.WatchdogStatusPayload, bool) {
	const size = 7
	if len(buf) < size {
		return device.WatchdogStatusPayload{}, false
	}
	return device.WatchdogStatusPayload{
		Active:    buf[0],
		Timeout:   binary.LittleEndian.Uint16(buf[1:3]),
		MinDelta:  binary.LittleEndian.Uint16(buf[3:5]),
		LogLength: binary.LittleEndian.Uint16(buf[5:7]),
	}, true
}

// DecodeRNGStatus parses an RNG/Status payload.
func DecodeRNGStatus(buf []byte) (device.RNGStatusPayload, bool) {
	const size = 5
	if len(buf) < size {
		return device.RNGStatusPayload{}, false
	}
	return device.RNGStatusPayload{
		Threshold:  buf[0],
		Calibrated: buf[1],
		Flood:      buf[2],
		Fault:      binary.LittleEndian.Uint16(buf[3:5]),
	}, true
}

// DecodeRadioLightPayload parses a Radio-forward/L payload.
func DecodeRadioLightPayload(buf []byte) (device.RadioLightPayload, bool) {
	const size = 16
	if len(buf) < size {
		return device.RadioLightPayload{}, false
	}
	return device.RadioLightPayload{
		ID:     binary.LittleEndian.Uint16(buf[0:2]),
		Uptime: binary.LittleEndian.Uint32(buf[2:6]),
		Light:  buf[6],
		VCC:    int32(binary.LittleEndian.Uint32(buf[7:11])),
		Tmp36:  int32(binary.LittleEndian.Uint32(buf[11:15])),
		Stat:   buf[15],
	}, true
}

// DecodeLogRecords splits a Watchdog/Log payload into individual records.
func DecodeLogRecords(buf []byte) []device.LogRecord {
	n := len(buf) / device.LogRecordSize
	records := make([]device.LogRecord, 0, n)
	for i := 0; i < n; i++ {
		off := i * device.LogRecordSize
		records = append(records, device.LogRecord{
			Time:  int32(binary.LittleEndian.Uint32(buf[off : off+4])),
			Event: device.LogEvent(buf[off+4]),
		})
	}
	return records
}
