package device

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/ardnew/wrn/device/hal"
	"github.com/ardnew/wrn/pkg"
)

// Header is the 6-byte packed little-endian frame header sent ahead of
// every response.
type Header struct {
	TypeID      uint8
	CmdID       uint8
	SeqNum      uint16
	PayloadSize int16
}

// MarshalTo writes the header to buf in wire order. Returns the number of
// bytes written (FrameHeaderSize), or 0 if buf is too small.
func (h *Header) MarshalTo(buf []byte) int {
	if len(buf) < FrameHeaderSize {
		return 0
	}
	buf[0] = h.TypeID
	buf[1] = h.CmdID
	binary.LittleEndian.PutUint16(buf[2:4], h.SeqNum)
	binary.LittleEndian.PutUint16(buf[4:6], uint16(h.PayloadSize))
	return FrameHeaderSize
}

// ParseHeader decodes a Header from the first FrameHeaderSize bytes of data.
// Returns false if data is too short.
func ParseHeader(data []byte, out *Header) bool {
	if len(data) < FrameHeaderSize {
		return false
	}
	out.TypeID = data[0]
	out.CmdID = data[1]
	out.SeqNum = binary.LittleEndian.Uint16(data[2:4])
	out.PayloadSize = int16(binary.LittleEndian.Uint16(data[4:6]))
	return true
}

// Framer serializes frame headers and payloads onto the UART and owns the
// monotonically increasing sequence counter. It is the device-side
// counterpart of the host's wire decoder.
type Framer struct {
	uart   hal.UART
	seqNum uint16
}

// NewFramer returns a Framer writing through uart.
func NewFramer(uart hal.UART) *Framer {
	return &Framer{uart: uart}
}

// SeqNum returns the next sequence number that will be stamped.
func (f *Framer) SeqNum() uint16 {
	return f.seqNum
}

// SendHeader builds a header from cmd's type/id, stamps the live sequence
// number, writes all 6 bytes, and increments the sequence counter. A short
// write is reported as a failure and the counter is still advanced; there
// is no retry.
func (f *Framer) SendHeader(ctx context.Context, cmd Command, payloadSize int16) error {
	var buf [FrameHeaderSize]byte
	h := Header{
		TypeID:      uint8(cmd.Type),
		CmdID:       cmd.ID,
		SeqNum:      f.seqNum,
		PayloadSize: payloadSize,
	}
	h.MarshalTo(buf[:])
	f.seqNum++

	n, err := f.uart.Write(ctx, buf[:])
	if err != nil {
		return fmt.Errorf("send header: %w", err)
	}
	if n != FrameHeaderSize {
		return fmt.Errorf("send header: %w", pkg.ErrShortWrite)
	}
	return nil
}

// SendPayload writes the full payload or fails.
func (f *Framer) SendPayload(ctx context.Context, payload []byte) error {
	n, err := f.uart.Write(ctx, payload)
	if err != nil {
		return fmt.Errorf("send payload: %w", err)
	}
	if n != len(payload) {
		return fmt.Errorf("send payload: %w", pkg.ErrShortWrite)
	}
	return nil
}

// SendSync writes n bytes of 0xFF (1 <= n <= MaxSyncSequence) and resets the
// sequence counter to 0. This is the only legal way to reset SeqNum; it is
// reachable only via the Common/Sync command.
func (f *Framer) SendSync(ctx context.Context, n int32) error {
	if n < 1 || n > MaxSyncSequence {
		return fmt.Errorf("send sync: %w", pkg.ErrInvalidArgument)
	}
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = 0xFF
	}
	written, err := f.uart.Write(ctx, buf)
	if err != nil {
		return fmt.Errorf("send sync: %w", err)
	}
	if written != int(n) {
		return fmt.Errorf("send sync: %w", pkg.ErrShortWrite)
	}
	f.seqNum = 0
	return nil
}

// SendNAK emits a header with PayloadSize -1 for the given command.
func (f *Framer) SendNAK(ctx context.Context, cmd Command) error {
	pkg.LogWarn(pkg.ComponentDevice, "nak", "type", cmd.Type.String(), "id", cmd.ID)
	return f.SendHeader(ctx, cmd, -1)
}

// SendAck emits a header with PayloadSize 0 for the given command.
func (f *Framer) SendAck(ctx context.Context, cmd Command) error {
	return f.SendHeader(ctx, cmd, 0)
}
