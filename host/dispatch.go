package host

import (
	"fmt"
	"time"

	"github.com/ardnew/wrn/device"
	"github.com/ardnew/wrn/pkg"
)

// commandNames gives each device/command pair a symbolic name so a NAK or
// protocol error names the device and command ("Watchdog:Timeout") rather
// than a bare numeric type/id pair.
var commandNames = map[device.DeviceKind][]string{
	device.KindCommon:   {"Sync", "Time", "Status", "Reset", "Program", "LogClean"},
	device.KindWatchdog: {"KeepAlive", "Deactivate", "Status", "Timeout", "Log"},
	device.KindRNG:      {"FloodOn", "FloodOff", "Status", "SendPayload"},
	device.KindRadio:    {"ForwardL"},
}

// commandName resolves a (kind, id) pair to a symbolic name for logging,
// falling back to the numeric id when it is out of range.
func commandName(kind device.DeviceKind, id uint8) string {
	names := commandNames[kind]
	if int(id) < len(names) {
		return fmt.Sprintf("%s:%s", kind, names[id])
	}
	return fmt.Sprintf("%s:%d", kind, id)
}

// Demultiplexer routes decoded frames to the per-category FIFO sinks named
// in the dispatch table: one-shot command responses, a continuous RNG
// byte stream, and a continuous radio INSERT stream.
type Demultiplexer struct {
	command sink
	rng     sink
	radio   sink
}

// NewDemultiplexer returns a Demultiplexer writing through the given sinks.
func NewDemultiplexer(command, rng, radio sink) *Demultiplexer {
	return &Demultiplexer{command: command, rng: rng, radio: radio}
}

// Handle routes one completed frame to its sink. NAK frames are logged and
// otherwise ignored; Reboot frames are the sync driver's concern, not the
// demultiplexer's.
func (d *Demultiplexer) Handle(f Frame) {
	if f.Status == pkg.FrameStatusNAK {
		pkg.LogWarn(pkg.ComponentHost, "device reported failure",
			"command", commandName(device.DeviceKind(f.Header.TypeID), f.Header.CmdID))
		return
	}
	switch device.DeviceKind(f.Header.TypeID) {
	case device.KindCommon:
		d.handleCommon(f)
	case device.KindWatchdog:
		d.handleWatchdog(f)
	case device.KindRNG:
		d.handleRNG(f)
	case device.KindRadio:
		d.handleRadio(f)
	}
}

func (d *Demultiplexer) handleCommon(f Frame) {
	if f.Header.CmdID != device.CommonStatus {
		return
	}
	status, ok := DecodeCommonStatus(f.Payload)
	if !ok {
		return
	}
	line := fmt.Sprintf("common: time=%d uptime=%ds vcc=%dmV nlock=%d\n",
		status.Time, status.Uptime, status.VCC, status.NLock)
	d.command.WriteAndClose([]byte(line))
}

func (d *Demultiplexer) handleWatchdog(f Frame) {
	switch f.Header.CmdID {
	case device.WatchdogStatus:
		status, ok := DecodeWatchdogStatus(f.Payload)
		if !ok {
			return
		}
		line := fmt.Sprintf("watchdog: active=%d timeout=%ds min_delta=%ds log_length=%d\n",
			status.Active, status.Timeout, status.MinDelta, status.LogLength)
		d.command.WriteAndClose([]byte(line))

	case device.WatchdogLog:
		records := DecodeLogRecords(f.Payload)
		for _, r := range records {
			ts := time.Unix(int64(r.Time), 0).UTC().Format(time.RFC3339)
			line := fmt.Sprintf("%s watchdog-log %s\n", ts, r.Event)
			d.command.Write([]byte(line))
		}
		d.command.Close()
	}
}

func (d *Demultiplexer) handleRNG(f Frame) {
	switch f.Header.CmdID {
	case device.RNGStatus:
		status, ok := DecodeRNGStatus(f.Payload)
		if !ok {
			return
		}
		line := fmt.Sprintf("rng: threshold=%d calibrated=%d flood=%d fault=%d\n",
			status.Threshold, status.Calibrated, status.Flood, status.Fault)
		d.command.WriteAndClose([]byte(line))

	case device.RNGSendPayload:
		d.rng.Write(f.Payload)
	}
}

func (d *Demultiplexer) handleRadio(f Frame) {
	if f.Header.CmdID != device.RadioForwardL {
		return
	}
	light, ok := DecodeRadioLightPayload(f.Payload)
	if !ok {
		return
	}
	line := fmt.Sprintf(
		"INSERT INTO sensor_light (id, uptime, light, vcc, tmp36, stat) VALUES "+
			"('%d', '%d', '%d', '%d', '%d', '%d');\n",
		light.ID, light.Uptime, light.Light, light.VCC, light.Tmp36, light.Stat)
	d.radio.Write([]byte(line))
}
