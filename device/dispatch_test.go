package device

import (
	"context"
	"testing"
)

func newTestRegistry(t *testing.T) (*Registry, *fakeUART, *fakeClock, *fakeGPIO, *EEPROMLog) {
	t.Helper()
	u := &fakeUART{}
	framer := NewFramer(u)
	clock := &fakeClock{uptimeMillis: 1000, wallClock: 10}
	gpio := &fakeGPIO{}
	storage := newMemStorage(8)
	log, err := NewEEPROMLog(storage)
	if err != nil {
		t.Fatalf("NewEEPROMLog: %v", err)
	}
	common := NewCommon(clock, gpio, log)
	watchdog := NewWatchdog(gpio, log)
	rng := NewRNG(&scriptedADC{samples: []uint8{0}})
	reg := NewRegistry(framer, clock, common, watchdog, rng, log)
	return reg, u, clock, gpio, log
}

func headerAt(t *testing.T, buf []byte) Header {
	t.Helper()
	var hdr Header
	if !ParseHeader(buf, &hdr) {
		t.Fatalf("failed to parse header from %v", buf)
	}
	return hdr
}

func TestDispatchCommonSyncSendsOnlyPreamble(t *testing.T) {
	reg, u, _, _, _ := newTestRegistry(t)
	cmd := Command{Type: KindCommon, ID: CommonSync, Arg1: 4}
	if err := reg.Dispatch(context.Background(), cmd); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if len(u.written) != 4 {
		t.Fatalf("wrote %d bytes, want 4 sync bytes only", len(u.written))
	}
	for _, b := range u.written {
		if b != 0xFF {
			t.Fatalf("sync byte = %#x, want 0xFF", b)
		}
	}
}

func TestDispatchCommonTimeLogsBootAndAcks(t *testing.T) {
	reg, u, clock, _, log := newTestRegistry(t)
	cmd := Command{Type: KindCommon, ID: CommonTime, Arg1: 555}
	if err := reg.Dispatch(context.Background(), cmd); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if clock.WallClockSeconds() != 555 {
		t.Fatalf("wall clock = %d, want 555", clock.WallClockSeconds())
	}
	if log.Length() != 1 {
		t.Fatalf("length = %d, want 1 boot event", log.Length())
	}
	hdr := headerAt(t, u.written)
	if hdr.PayloadSize != 0 {
		t.Fatalf("want ACK (payload size 0), got %+v", hdr)
	}
}

func TestDispatchCommonStatusEmitsPayload(t *testing.T) {
	reg, u, _, _, _ := newTestRegistry(t)
	cmd := Command{Type: KindCommon, ID: CommonStatus}
	if err := reg.Dispatch(context.Background(), cmd); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	hdr := headerAt(t, u.written)
	if hdr.PayloadSize != 13 {
		t.Fatalf("payload size = %d, want 13", hdr.PayloadSize)
	}
	if len(u.written) != FrameHeaderSize+13 {
		t.Fatalf("wrote %d bytes, want header+payload", len(u.written))
	}
}

func TestDispatchCommonLogCleanWipesLog(t *testing.T) {
	reg, u, _, _, log := newTestRegistry(t)
	log.Append(LogRecord{Time: 1, Event: LogBoot})
	cmd := Command{Type: KindCommon, ID: CommonLogClean}
	if err := reg.Dispatch(context.Background(), cmd); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if log.Length() != 0 {
		t.Fatalf("length after clean = %d, want 0", log.Length())
	}
	hdr := headerAt(t, u.written)
	if hdr.PayloadSize != 0 {
		t.Fatalf("want ACK, got %+v", hdr)
	}
}

func TestDispatchCommonProgramReleasesInterlock(t *testing.T) {
	reg, u, _, gpio, _ := newTestRegistry(t)
	cmd := Command{Type: KindCommon, ID: CommonProgram}
	if err := reg.Dispatch(context.Background(), cmd); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if !gpio.interlockSet {
		t.Fatalf("interlock should have been released")
	}
	hdr := headerAt(t, u.written)
	if hdr.PayloadSize != 0 {
		t.Fatalf("want ACK, got %+v", hdr)
	}
}

func TestDispatchWatchdogTimeoutOutOfRangeNAKs(t *testing.T) {
	reg, u, _, _, _ := newTestRegistry(t)
	cmd := Command{Type: KindWatchdog, ID: WatchdogTimeout, Arg1: 5}
	if err := reg.Dispatch(context.Background(), cmd); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	hdr := headerAt(t, u.written)
	if hdr.PayloadSize != -1 {
		t.Fatalf("want NAK, got %+v", hdr)
	}
}

func TestDispatchWatchdogKeepAliveUsesDeviceUptime(t *testing.T) {
	reg, u, _, _, _ := newTestRegistry(t)
	cmd := Command{Type: KindWatchdog, ID: WatchdogKeepAlive}
	if err := reg.Dispatch(context.Background(), cmd); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if !reg.watchdog.Active() {
		t.Fatalf("watchdog should be active after keep-alive")
	}
	if reg.watchdog.keepAliveUptime != 1 {
		t.Fatalf("keepAliveUptime = %d, want 1", reg.watchdog.keepAliveUptime)
	}
	hdr := headerAt(t, u.written)
	if hdr.PayloadSize != 0 {
		t.Fatalf("want ACK, got %+v", hdr)
	}
}

func TestDispatchWatchdogLogStreamsRecords(t *testing.T) {
	reg, u, _, _, log := newTestRegistry(t)
	log.Append(LogRecord{Time: 1, Event: LogBoot})
	log.Append(LogRecord{Time: 2, Event: LogReset})
	cmd := Command{Type: KindWatchdog, ID: WatchdogLog, Arg1: 2}
	if err := reg.Dispatch(context.Background(), cmd); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	hdr := headerAt(t, u.written)
	wantSize := int16(2 * LogRecordSize)
	if hdr.PayloadSize != wantSize {
		t.Fatalf("payload size = %d, want %d", hdr.PayloadSize, wantSize)
	}
	if len(u.written) != FrameHeaderSize+int(wantSize) {
		t.Fatalf("wrote %d bytes, want header+%d", len(u.written), wantSize)
	}
}

func TestDispatchRNGStatusEmitsPayload(t *testing.T) {
	reg, u, _, _, _ := newTestRegistry(t)
	cmd := Command{Type: KindRNG, ID: RNGStatus}
	if err := reg.Dispatch(context.Background(), cmd); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	hdr := headerAt(t, u.written)
	if hdr.PayloadSize != 5 {
		t.Fatalf("payload size = %d, want 5", hdr.PayloadSize)
	}
}

func TestDispatchRNGFloodOnAcks(t *testing.T) {
	reg, u, _, _, _ := newTestRegistry(t)
	cmd := Command{Type: KindRNG, ID: RNGFloodOn}
	if err := reg.Dispatch(context.Background(), cmd); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if !reg.rng.Flood() {
		t.Fatalf("flood should be enabled")
	}
	hdr := headerAt(t, u.written)
	if hdr.PayloadSize != 0 {
		t.Fatalf("want ACK, got %+v", hdr)
	}
}

func TestDispatchUnknownDeviceKindNAKs(t *testing.T) {
	reg, u, _, _, _ := newTestRegistry(t)
	cmd := Command{Type: KindUnknown}
	if err := reg.Dispatch(context.Background(), cmd); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	hdr := headerAt(t, u.written)
	if hdr.PayloadSize != -1 {
		t.Fatalf("want NAK, got %+v", hdr)
	}
}

func TestDispatchRadioCommandFromHostAlwaysNAKs(t *testing.T) {
	reg, u, _, _, _ := newTestRegistry(t)
	cmd := Command{Type: KindRadio, ID: RadioForwardL}
	if err := reg.Dispatch(context.Background(), cmd); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	hdr := headerAt(t, u.written)
	if hdr.PayloadSize != -1 {
		t.Fatalf("want NAK, got %+v", hdr)
	}
}

func TestForwardRadioFrameEmitsPayload(t *testing.T) {
	reg, u, _, _, _ := newTestRegistry(t)
	payload := RadioLightPayload{ID: 3, Light: 9}
	if err := reg.ForwardRadioFrame(context.Background(), payload); err != nil {
		t.Fatalf("ForwardRadioFrame: %v", err)
	}
	hdr := headerAt(t, u.written)
	if hdr.TypeID != uint8(KindRadio) || hdr.CmdID != RadioForwardL || hdr.PayloadSize != 16 {
		t.Fatalf("got %+v", hdr)
	}
}
