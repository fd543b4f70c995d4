package device

import (
	"context"

	"github.com/ardnew/wrn/device/hal"
	"github.com/ardnew/wrn/pkg"
)

// Loop runs one cooperative iteration of the firmware's main loop: pet the
// on-chip watchdog, poll the radio and forward any decoded frame, advance
// the RNG by one measurement (flushing a full batch upstream when one
// completes), tick the user-facing Watchdog, and dispatch at most one
// completed serial command. Nothing here blocks past a single HAL call;
// the loop is meant to spin continuously.
type Loop struct {
	dev hal.DeviceHAL

	framer   *Framer
	parser   *Parser
	registry *Registry
	radio    *Radio
	rng      *RNG
	watchdog *Watchdog

	rxBuf   [64]byte
	pending []byte // bytes read but not yet fed to the parser
}

// NewLoop wires a Loop from its HAL and handlers.
func NewLoop(dev hal.DeviceHAL, framer *Framer, registry *Registry, radio *Radio, rng *RNG, watchdog *Watchdog) *Loop {
	return &Loop{
		dev:      dev,
		framer:   framer,
		parser:   NewParser(),
		registry: registry,
		radio:    radio,
		rng:      rng,
		watchdog: watchdog,
	}
}

// Tick runs a single iteration.
func (l *Loop) Tick(ctx context.Context) error {
	if err := l.dev.Pet(); err != nil {
		pkg.LogError(pkg.ComponentDevice, "on-chip watchdog pet failed", "error", err)
		return err
	}

	if err := l.tickRadio(ctx); err != nil {
		return err
	}

	if err := l.tickRNG(ctx); err != nil {
		return err
	}

	uptimeSeconds := l.dev.UptimeMillis() / 1000
	if err := l.watchdog.Update(uptimeSeconds); err != nil {
		pkg.LogWarn(pkg.ComponentWatchdog, "watchdog expired", "error", err)
	}

	return l.tickSerial(ctx)
}

func (l *Loop) tickRadio(ctx context.Context) error {
	payload, ok, err := l.radio.Poll(ctx)
	if err != nil {
		pkg.LogError(pkg.ComponentRadio, "radio poll failed", "error", err)
		return err
	}
	if !ok {
		return nil
	}
	return l.registry.ForwardRadioFrame(ctx, payload)
}

func (l *Loop) tickRNG(ctx context.Context) error {
	ready, err := l.rng.Sample(ctx)
	if err != nil {
		pkg.LogError(pkg.ComponentRNG, "rng sample failed", "error", err)
		return err
	}
	if !ready {
		return nil
	}
	return l.registry.Dispatch(ctx, Command{Type: KindRNG, ID: RNGSendPayload})
}

// tickSerial reads whatever bytes are immediately available from the UART
// and feeds them to the parser, dispatching at most one completed command
// per tick. Bytes past the first completed command are held in pending and
// fed to the parser on a later tick, so a burst that contains more than one
// command never loses any of them.
func (l *Loop) tickSerial(ctx context.Context) error {
	n, err := l.dev.Read(ctx, l.rxBuf[:])
	if err != nil {
		pkg.LogError(pkg.ComponentDevice, "uart read failed", "error", err)
		return err
	}
	l.pending = append(l.pending, l.rxBuf[:n]...)

	for i, b := range l.pending {
		cmd, complete := l.parser.Write(b)
		if complete {
			l.pending = append([]byte(nil), l.pending[i+1:]...)
			return l.registry.Dispatch(ctx, cmd)
		}
	}
	l.pending = l.pending[:0]
	return nil
}
