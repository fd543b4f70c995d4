package host

import (
	"context"
	"time"

	"github.com/ardnew/wrn/device"
	"github.com/ardnew/wrn/host/hal"
	"github.com/ardnew/wrn/pkg"
)

// Frame is a fully received header plus its payload (if any). Status
// classifies payload_size per the wire convention.
type Frame struct {
	Header  device.Header
	Payload []byte
	Status  pkg.FrameStatus
	// Reboot is set on a bare Common/Reset confirmation, which the device
	// only ever sends unsolicited after rebooting. The engine drops back
	// to stateUnknown when this happens; the caller must resync.
	Reboot bool
}

type syncState int

const (
	stateUnknown syncState = iota
	stateSync
	stateHeader
	statePayload
)

// SyncEngine consumes raw bytes off the wire and reassembles them into
// Frames. It starts in stateUnknown: every byte is discarded until
// BeginSync requests a preamble of n bytes, after which the engine looks
// for n consecutive 0xFF bytes before accepting any header. Once synced it
// stays in stateHeader/statePayload, checking each header's SeqNum against
// the sequence it expects and reporting pkg.ErrDesync on mismatch.
type SyncEngine struct {
	state       syncState
	wantSync    int
	sawSync     int
	hdrBuf      [device.FrameHeaderSize]byte
	hdrLen      int
	payload       []byte
	payloadWant   int
	pendingHeader device.Header
	expectSeq     uint16
}

// NewSyncEngine returns an engine with no pending sync request; it will
// discard bytes until BeginSync is called.
func NewSyncEngine() *SyncEngine {
	return &SyncEngine{state: stateUnknown}
}

// BeginSync arms the engine to look for n consecutive 0xFF bytes before
// accepting frames again. n must match the preamble length requested in
// the Common/Sync command sent to the device.
func (e *SyncEngine) BeginSync(n int) {
	e.state = stateSync
	e.wantSync = n
	e.sawSync = 0
	e.hdrLen = 0
	e.payload = nil
	e.expectSeq = 0
}

// Feed consumes one byte. It returns a complete Frame and true when a full
// header (and payload, if any) has been assembled. A non-nil error means
// the engine detected a desync and has reset itself to stateUnknown; the
// caller must request a fresh BeginSync.
func (e *SyncEngine) Feed(b byte) (Frame, bool, error) {
	switch e.state {
	case stateUnknown:
		return Frame{}, false, nil

	case stateSync:
		if b != 0xFF {
			e.sawSync = 0
			return Frame{}, false, nil
		}
		e.sawSync++
		if e.sawSync < e.wantSync {
			return Frame{}, false, nil
		}
		e.state = stateHeader
		e.hdrLen = 0
		e.expectSeq = 0
		return Frame{}, false, nil

	case stateHeader:
		e.hdrBuf[e.hdrLen] = b
		e.hdrLen++
		if e.hdrLen < device.FrameHeaderSize {
			return Frame{}, false, nil
		}
		var h device.Header
		device.ParseHeader(e.hdrBuf[:], &h)
		e.hdrLen = 0
		if h.SeqNum != e.expectSeq {
			e.state = stateUnknown
			return Frame{}, false, pkg.ErrDesync
		}
		e.expectSeq++
		switch {
		case h.PayloadSize == 0 && h.TypeID == uint8(device.KindCommon) && h.CmdID == device.CommonReset:
			e.state = stateUnknown
			return Frame{Header: h, Status: pkg.FrameStatusAck, Reboot: true}, true, nil
		case h.PayloadSize == 0:
			return Frame{Header: h, Status: pkg.FrameStatusAck}, true, nil
		case h.PayloadSize < 0:
			return Frame{Header: h, Status: pkg.FrameStatusNAK}, true, nil
		default:
			if int(h.PayloadSize) > MaxPayloadSize {
				e.state = stateUnknown
				return Frame{}, false, pkg.ErrDesync
			}
			e.state = statePayload
			e.payloadWant = int(h.PayloadSize)
			e.payload = make([]byte, 0, e.payloadWant)
			e.pendingHeader = h
			return Frame{}, false, nil
		}

	case statePayload:
		e.payload = append(e.payload, b)
		if len(e.payload) < e.payloadWant {
			return Frame{}, false, nil
		}
		e.state = stateHeader
		f := Frame{Header: e.pendingHeader, Payload: e.payload, Status: pkg.FrameStatusPayload}
		e.payload = nil
		return f, true, nil

	default:
		return Frame{}, false, nil
	}
}

// Handshake drives the Common/Sync request/response exchange over port: it
// sends C0:n, then feeds incoming bytes to a freshly armed SyncEngine until
// the preamble is recognized (the device sends no header after it), runs
// post-sync initialisation, and retries up to MaxSyncAttempts times.
type Handshake struct {
	port    hal.Port
	engine  *SyncEngine
	preamble int32
}

// NewHandshake returns a Handshake that drives port using engine.
func NewHandshake(port hal.Port, engine *SyncEngine) *Handshake {
	return &Handshake{port: port, engine: engine, preamble: DefaultSyncPreamble}
}

// Run performs the handshake, retrying until MaxSyncAttempts is exhausted.
func (h *Handshake) Run(ctx context.Context) error {
	for attempt := 0; attempt < MaxSyncAttempts; attempt++ {
		pkg.LogInfo(pkg.ComponentSync, "sync attempt", "attempt", attempt+1)
		if err := h.attempt(ctx); err != nil {
			if attempt == MaxSyncAttempts-1 {
				return pkg.ErrSyncExhausted
			}
			continue
		}
		return nil
	}
	return pkg.ErrSyncExhausted
}

func (h *Handshake) attempt(ctx context.Context) error {
	floodOff := EncodeCommand(device.KindRNG, device.RNGFloodOff)
	if _, err := h.port.Write(ctx, floodOff); err != nil {
		return err
	}
	h.drain(ctx)

	cmd := EncodeCommand(device.KindCommon, device.CommonSync, h.preamble)
	if _, err := h.port.Write(ctx, cmd); err != nil {
		return err
	}
	h.engine.BeginSync(int(h.preamble))

	deadline := time.Now().Add(SyncAttemptTimeout)
	var buf [1]byte
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		n, err := h.port.Read(ctx, buf[:])
		if err != nil {
			return err
		}
		if n == 0 {
			time.Sleep(ReadPollInterval)
			continue
		}
		if _, _, err := h.engine.Feed(buf[0]); err != nil {
			return err
		}
		if h.engine.state == stateHeader {
			return h.postSyncInit(ctx)
		}
	}
	return pkg.ErrSyncTimeout
}

// drain discards any bytes sitting in the port's receive buffer before a
// fresh sync attempt, so a prior session's stray bytes cannot be mistaken
// for the new preamble.
func (h *Handshake) drain(ctx context.Context) {
	var buf [64]byte
	for {
		n, err := h.port.Read(ctx, buf[:])
		if err != nil || n == 0 {
			return
		}
	}
}

// postSyncInit runs the two commands the device expects immediately after
// a successful sync: stamp the wall clock, then resume RNG flooding.
// Failure of either is structural and aborts the handshake.
func (h *Handshake) postSyncInit(ctx context.Context) error {
	now := int32(time.Now().Unix())
	timeCmd := EncodeCommand(device.KindCommon, device.CommonTime, now)
	if _, err := h.port.Write(ctx, timeCmd); err != nil {
		return err
	}
	floodOn := EncodeCommand(device.KindRNG, device.RNGFloodOn)
	if _, err := h.port.Write(ctx, floodOn); err != nil {
		return err
	}
	return nil
}
