package device

import "testing"

type fakeGPIO struct {
	resetPulses  int
	resetHigh    bool
	interlockSet bool
}

func (g *fakeGPIO) SetResetLine(high bool) error {
	g.resetHigh = high
	if high {
		g.resetPulses++
	}
	return nil
}

func (g *fakeGPIO) ReleaseInterlock() error {
	g.interlockSet = true
	return nil
}

func TestWatchdogKeepAliveResetsMinDeltaOnlyOnActivation(t *testing.T) {
	gpio := &fakeGPIO{}
	w := NewWatchdog(gpio, nil)
	w.SetTimeout(60)

	w.KeepAlive(0)
	if w.MinDelta() != 60 {
		t.Fatalf("min_delta = %d, want 60 on first activation", w.MinDelta())
	}

	w.Update(30) // delta = 30, smaller than 60
	if w.MinDelta() != 30 {
		t.Fatalf("min_delta = %d, want 30 after tick", w.MinDelta())
	}

	// A second keep-alive while already active must not reset min_delta.
	w.KeepAlive(30)
	if w.MinDelta() != 30 {
		t.Fatalf("min_delta = %d, want unchanged 30 on repeat keep-alive", w.MinDelta())
	}
}

func TestWatchdogExpiryPulsesResetAndLogs(t *testing.T) {
	storage := newMemStorage(8)
	log, _ := NewEEPROMLog(storage)
	gpio := &fakeGPIO{}
	w := NewWatchdog(gpio, log)
	w.SetTimeout(30)
	w.KeepAlive(0)

	err := w.Update(31)
	if err == nil {
		t.Fatalf("expected watchdog expiry error")
	}
	if w.Active() {
		t.Fatalf("watchdog should deactivate after expiry")
	}
	if gpio.resetPulses != 1 {
		t.Fatalf("reset pulses = %d, want 1", gpio.resetPulses)
	}
	if gpio.resetHigh {
		t.Fatalf("reset line should be low after the pulse completes")
	}
	if log.Length() != 1 {
		t.Fatalf("expected one logged event, got %d", log.Length())
	}
}

func TestWatchdogTimeoutBounds(t *testing.T) {
	w := NewWatchdog(&fakeGPIO{}, nil)
	if w.SetTimeout(29) {
		t.Fatalf("29 should be rejected (below min)")
	}
	if w.SetTimeout(301) {
		t.Fatalf("301 should be rejected (above max)")
	}
	if !w.SetTimeout(180) {
		t.Fatalf("180 should be accepted")
	}
	if w.Timeout() != 180 {
		t.Fatalf("timeout = %d, want 180", w.Timeout())
	}
}

func TestWatchdogInactiveUpdateIsNoop(t *testing.T) {
	gpio := &fakeGPIO{}
	w := NewWatchdog(gpio, nil)
	if err := w.Update(1000); err != nil {
		t.Fatalf("Update on inactive watchdog should be a no-op, got %v", err)
	}
	if gpio.resetPulses != 0 {
		t.Fatalf("inactive watchdog must never pulse reset")
	}
}
