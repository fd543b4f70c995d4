package device

import (
	"context"
	"fmt"

	"github.com/ardnew/wrn/device/hal"
	"github.com/ardnew/wrn/pkg"
)

// Registry dispatches a completed Command to its handler and emits the
// ACK/NAK/payload response on the handler's behalf, per the dispatch table
// in the protocol's component design.
type Registry struct {
	framer   *Framer
	clock    hal.Clock
	common   *Common
	watchdog *Watchdog
	rng      *RNG
	log      *EEPROMLog
}

// NewRegistry wires a Registry to the four device handlers and the Framer
// used to respond.
func NewRegistry(framer *Framer, clock hal.Clock, common *Common, watchdog *Watchdog, rng *RNG, log *EEPROMLog) *Registry {
	return &Registry{framer: framer, clock: clock, common: common, watchdog: watchdog, rng: rng, log: log}
}

// Dispatch executes cmd and writes its response. A returned error indicates
// a framing I/O failure (short write); logical command failures are
// reported to the host as a NAK and do not return an error here.
func (r *Registry) Dispatch(ctx context.Context, cmd Command) error {
	switch cmd.Type {
	case KindCommon:
		return r.dispatchCommon(ctx, cmd)
	case KindWatchdog:
		return r.dispatchWatchdog(ctx, cmd)
	case KindRNG:
		return r.dispatchRNG(ctx, cmd)
	case KindRadio:
		return r.dispatchRadio(ctx, cmd)
	default:
		pkg.LogWarn(pkg.ComponentDevice, "dispatch: unknown device kind", "type", cmd.Type)
		return r.framer.SendNAK(ctx, cmd)
	}
}

func (r *Registry) dispatchCommon(ctx context.Context, cmd Command) error {
	switch cmd.ID {
	case CommonSync:
		// The sync preamble itself *is* the response; no header follows.
		if cmd.Arg1 < 1 || cmd.Arg1 > MaxSyncSequence {
			return r.framer.SendNAK(ctx, cmd)
		}
		if err := r.framer.SendSync(ctx, cmd.Arg1); err != nil {
			return fmt.Errorf("common sync: %w", err)
		}
		return nil
	case CommonTime:
		if err := r.common.SetTime(cmd.Arg1); err != nil {
			pkg.LogError(pkg.ComponentDevice, "set time failed", "error", err)
			return r.framer.SendNAK(ctx, cmd)
		}
		return r.framer.SendAck(ctx, cmd)
	case CommonStatus:
		return r.sendPayload(ctx, cmd, r.common.Status())
	case CommonReset:
		// Arms the on-chip watchdog for an imminent, unconditional reset;
		// the device spins until it fires. Modeled as a no-op ACK since the
		// reboot itself is outside the firmware model's control flow.
		return r.framer.SendAck(ctx, cmd)
	case CommonProgram:
		if err := r.common.ReleaseProgrammingInterlock(); err != nil {
			return r.framer.SendNAK(ctx, cmd)
		}
		return r.framer.SendAck(ctx, cmd)
	case CommonLogClean:
		if err := r.common.CleanLog(); err != nil {
			pkg.LogError(pkg.ComponentDevice, "log clean failed", "error", err)
			return r.framer.SendNAK(ctx, cmd)
		}
		return r.framer.SendAck(ctx, cmd)
	default:
		return r.framer.SendNAK(ctx, cmd)
	}
}

func (r *Registry) dispatchWatchdog(ctx context.Context, cmd Command) error {
	switch cmd.ID {
	case WatchdogKeepAlive:
		r.watchdog.KeepAlive(r.clock.UptimeMillis() / 1000)
		return r.framer.SendAck(ctx, cmd)
	case WatchdogDeactivate:
		r.watchdog.Deactivate()
		return r.framer.SendAck(ctx, cmd)
	case WatchdogStatus:
		return r.sendPayload(ctx, cmd, r.watchdog.Status())
	case WatchdogTimeout:
		if !r.watchdog.SetTimeout(cmd.Arg1) {
			return r.framer.SendNAK(ctx, cmd)
		}
		return r.framer.SendAck(ctx, cmd)
	case WatchdogLog:
		return r.dispatchWatchdogLog(ctx, cmd)
	default:
		return r.framer.SendNAK(ctx, cmd)
	}
}

func (r *Registry) dispatchWatchdogLog(ctx context.Context, cmd Command) error {
	if r.log == nil {
		return r.framer.SendNAK(ctx, cmd)
	}
	n := int(cmd.Arg1)
	r.log.SetReverse(false)
	r.log.SetLimit(n)

	var records []LogRecord
	for {
		rec, ok, err := r.log.Read()
		if err != nil {
			pkg.LogError(pkg.ComponentDevice, "log read failed", "error", err)
			return r.framer.SendNAK(ctx, cmd)
		}
		if !ok {
			break
		}
		records = append(records, rec)
	}

	payload := make([]byte, len(records)*LogRecordSize)
	for i, rec := range records {
		off := i * LogRecordSize
		payload[off] = byte(rec.Time)
		payload[off+1] = byte(rec.Time >> 8)
		payload[off+2] = byte(rec.Time >> 16)
		payload[off+3] = byte(rec.Time >> 24)
		payload[off+4] = byte(rec.Event)
	}

	if err := r.framer.SendHeader(ctx, cmd, int16(len(payload))); err != nil {
		return err
	}
	if len(payload) == 0 {
		return nil
	}
	return r.framer.SendPayload(ctx, payload)
}

func (r *Registry) dispatchRNG(ctx context.Context, cmd Command) error {
	switch cmd.ID {
	case RNGFloodOn, RNGFloodOff:
		HandleRNG(r.rng, cmd)
		return r.framer.SendAck(ctx, cmd)
	case RNGStatus:
		HandleRNG(r.rng, cmd)
		return r.sendPayload(ctx, cmd, r.rng.Status())
	case RNGSendPayload:
		payload, n := r.rng.Payload()
		if err := r.framer.SendHeader(ctx, cmd, int16(n)); err != nil {
			return err
		}
		r.rng.ResetPayload()
		if n == 0 {
			return nil
		}
		return r.framer.SendPayload(ctx, payload[:n])
	default:
		return r.framer.SendNAK(ctx, cmd)
	}
}

// dispatchRadio only runs for a Radio command parsed off the serial line,
// which never legitimately happens: radio telemetry is forwarded
// spontaneously by the loop via ForwardRadioFrame, not requested by the
// host.
func (r *Registry) dispatchRadio(ctx context.Context, cmd Command) error {
	return r.framer.SendNAK(ctx, cmd)
}

// ForwardRadioFrame emits a decoded radio telemetry frame upstream as an
// unsolicited Radio-forward/L header and payload.
func (r *Registry) ForwardRadioFrame(ctx context.Context, payload RadioLightPayload) error {
	cmd := Command{Type: KindRadio, ID: RadioForwardL}
	return r.sendPayload(ctx, cmd, payload)
}

// marshaler is satisfied by every fixed-size wire payload type.
type marshaler interface {
	MarshalTo(buf []byte) int
}

func (r *Registry) sendPayload(ctx context.Context, cmd Command, payload marshaler) error {
	buf := make([]byte, 32)
	n := payload.MarshalTo(buf)
	if err := r.framer.SendHeader(ctx, cmd, int16(n)); err != nil {
		return err
	}
	return r.framer.SendPayload(ctx, buf[:n])
}
