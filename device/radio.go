package device

import (
	"context"

	"github.com/ardnew/wrn/device/hal"
	"github.com/ardnew/wrn/pkg"
)

// radioFrameTypeLight is the only radio frame type the firmware recognizes
// for forwarding upstream.
const radioFrameTypeLight = 'L'

// RadioLightPayload is the Radio-forward/L wire payload.
type RadioLightPayload struct {
	ID     uint16
	Uptime uint32
	Light  uint8
	VCC    int32
	Tmp36  int32
	Stat   uint8
}

// MarshalTo writes the payload in wire order (packed, little-endian).
func (p RadioLightPayload) MarshalTo(buf []byte) int {
	const size = 16
	if len(buf) < size {
		return 0
	}
	buf[0] = byte(p.ID)
	buf[1] = byte(p.ID >> 8)
	buf[2] = byte(p.Uptime)
	buf[3] = byte(p.Uptime >> 8)
	buf[4] = byte(p.Uptime >> 16)
	buf[5] = byte(p.Uptime >> 24)
	buf[6] = p.Light
	buf[7] = byte(p.VCC)
	buf[8] = byte(p.VCC >> 8)
	buf[9] = byte(p.VCC >> 16)
	buf[10] = byte(p.VCC >> 24)
	buf[11] = byte(p.Tmp36)
	buf[12] = byte(p.Tmp36 >> 8)
	buf[13] = byte(p.Tmp36 >> 16)
	buf[14] = byte(p.Tmp36 >> 24)
	buf[15] = p.Stat
	return size
}

// Radio polls the radio HAL and, when an 'L'-typed telemetry frame arrives,
// decodes it into a RadioLightPayload ready to forward.
type Radio struct {
	radio hal.Radio
}

// NewRadio returns a Radio forwarder polling through radio.
func NewRadio(radio hal.Radio) *Radio {
	return &Radio{radio: radio}
}

// Poll checks for an inbound frame. ok is true only when a recognized
// ('L'-typed) frame was decoded; unknown frame types are dropped silently,
// matching Devices.cpp's NRFDevice::read.
func (r *Radio) Poll(ctx context.Context) (RadioLightPayload, bool, error) {
	frame, ok, err := r.radio.Poll(ctx)
	if err != nil {
		return RadioLightPayload{}, false, err
	}
	if !ok {
		return RadioLightPayload{}, false, nil
	}
	if frame.Type != radioFrameTypeLight {
		pkg.LogDebug(pkg.ComponentRadio, "dropping unrecognized frame type", "type", frame.Type)
		return RadioLightPayload{}, false, nil
	}
	const wireSize = 16
	if frame.PayloadLen < wireSize {
		pkg.LogWarn(pkg.ComponentRadio, "light frame too short", "len", frame.PayloadLen)
		return RadioLightPayload{}, false, nil
	}
	b := frame.Payload[:]
	payload := RadioLightPayload{
		ID:     uint16(b[0]) | uint16(b[1])<<8,
		Uptime: uint32(b[2]) | uint32(b[3])<<8 | uint32(b[4])<<16 | uint32(b[5])<<24,
		Light:  b[6],
		VCC:    int32(uint32(b[7]) | uint32(b[8])<<8 | uint32(b[9])<<16 | uint32(b[10])<<24),
		Tmp36:  int32(uint32(b[11]) | uint32(b[12])<<8 | uint32(b[13])<<16 | uint32(b[14])<<24),
		Stat:   b[15],
	}
	return payload, true, nil
}
