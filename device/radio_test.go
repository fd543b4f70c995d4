package device

import (
	"context"
	"testing"

	"github.com/ardnew/wrn/device/hal"
)

type scriptedRadio struct {
	frames []hal.RadioFrame
	i      int
}

func (r *scriptedRadio) Poll(ctx context.Context) (hal.RadioFrame, bool, error) {
	if r.i >= len(r.frames) {
		return hal.RadioFrame{}, false, nil
	}
	f := r.frames[r.i]
	r.i++
	return f, true, nil
}

func lightFrame(id uint16, light uint8) hal.RadioFrame {
	f := hal.RadioFrame{Type: 'L', PayloadLen: 16}
	f.Payload[0] = byte(id)
	f.Payload[1] = byte(id >> 8)
	f.Payload[6] = light
	return f
}

func TestRadioForwardsLightFrame(t *testing.T) {
	radio := NewRadio(&scriptedRadio{frames: []hal.RadioFrame{lightFrame(7, 42)}})
	payload, ok, err := radio.Poll(context.Background())
	if err != nil || !ok {
		t.Fatalf("Poll: ok=%v err=%v", ok, err)
	}
	if payload.ID != 7 || payload.Light != 42 {
		t.Fatalf("got %+v", payload)
	}
}

func TestRadioDropsUnknownFrameType(t *testing.T) {
	frame := hal.RadioFrame{Type: 'X', PayloadLen: 16}
	radio := NewRadio(&scriptedRadio{frames: []hal.RadioFrame{frame}})
	_, ok, err := radio.Poll(context.Background())
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if ok {
		t.Fatalf("unrecognized frame type should be dropped silently")
	}
}

func TestRadioNoFrameAvailable(t *testing.T) {
	radio := NewRadio(&scriptedRadio{})
	_, ok, err := radio.Poll(context.Background())
	if err != nil || ok {
		t.Fatalf("expected no frame, got ok=%v err=%v", ok, err)
	}
}

func TestRadioLightPayloadMarshal(t *testing.T) {
	p := RadioLightPayload{ID: 7, Uptime: 123, Light: 42, VCC: 3300, Tmp36: 250, Stat: 1}
	buf := make([]byte, 16)
	if n := p.MarshalTo(buf); n != 16 {
		t.Fatalf("MarshalTo returned %d", n)
	}
}
