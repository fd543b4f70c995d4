package device

import (
	"context"
	"testing"
)

type fakeUART struct {
	written   []byte
	shortBy   int      // truncate the next Write's reported count by this many bytes
	readQueue [][]byte // chunks returned by successive Read calls, then exhausted to 0, nil
}

func (f *fakeUART) Read(ctx context.Context, buf []byte) (int, error) {
	if len(f.readQueue) == 0 {
		return 0, nil
	}
	chunk := f.readQueue[0]
	f.readQueue = f.readQueue[1:]
	return copy(buf, chunk), nil
}

func (f *fakeUART) Write(ctx context.Context, data []byte) (int, error) {
	f.written = append(f.written, data...)
	n := len(data) - f.shortBy
	f.shortBy = 0
	return n, nil
}

func TestFramerSendHeaderIncrementsSeq(t *testing.T) {
	u := &fakeUART{}
	f := NewFramer(u)
	cmd := Command{Type: KindCommon, ID: CommonStatus}

	if err := f.SendHeader(context.Background(), cmd, 0); err != nil {
		t.Fatalf("SendHeader: %v", err)
	}
	if f.SeqNum() != 1 {
		t.Fatalf("seq = %d, want 1", f.SeqNum())
	}

	var hdr Header
	if !ParseHeader(u.written, &hdr) {
		t.Fatalf("failed to parse written header")
	}
	if hdr.SeqNum != 0 || hdr.TypeID != uint8(KindCommon) || hdr.CmdID != CommonStatus {
		t.Fatalf("got %+v", hdr)
	}
}

func TestFramerShortWriteFails(t *testing.T) {
	u := &fakeUART{shortBy: 1}
	f := NewFramer(u)
	cmd := Command{Type: KindCommon, ID: CommonStatus}
	if err := f.SendHeader(context.Background(), cmd, 0); err == nil {
		t.Fatalf("expected short write to fail")
	}
}

func TestFramerSendSyncResetsSeq(t *testing.T) {
	u := &fakeUART{}
	f := NewFramer(u)
	cmd := Command{Type: KindCommon, ID: CommonStatus}
	f.SendHeader(context.Background(), cmd, 0)
	f.SendHeader(context.Background(), cmd, 0)
	if f.SeqNum() != 2 {
		t.Fatalf("seq = %d, want 2", f.SeqNum())
	}

	u.written = nil
	if err := f.SendSync(context.Background(), 3); err != nil {
		t.Fatalf("SendSync: %v", err)
	}
	if f.SeqNum() != 0 {
		t.Fatalf("seq after sync = %d, want 0", f.SeqNum())
	}
	if len(u.written) != 3 {
		t.Fatalf("wrote %d bytes, want 3", len(u.written))
	}
	for _, b := range u.written {
		if b != 0xFF {
			t.Fatalf("sync byte = %#x, want 0xFF", b)
		}
	}
}

func TestFramerSendSyncBounds(t *testing.T) {
	u := &fakeUART{}
	f := NewFramer(u)
	if err := f.SendSync(context.Background(), 0); err == nil {
		t.Fatalf("n=0 should be rejected")
	}
	if err := f.SendSync(context.Background(), MaxSyncSequence+1); err == nil {
		t.Fatalf("n > MaxSyncSequence should be rejected")
	}
}

func TestFramerSendNAK(t *testing.T) {
	u := &fakeUART{}
	f := NewFramer(u)
	cmd := Command{Type: KindWatchdog, ID: WatchdogTimeout}
	if err := f.SendNAK(context.Background(), cmd); err != nil {
		t.Fatalf("SendNAK: %v", err)
	}
	var hdr Header
	ParseHeader(u.written, &hdr)
	if hdr.PayloadSize != -1 {
		t.Fatalf("payload size = %d, want -1", hdr.PayloadSize)
	}
}

func TestHeaderRoundTrip(t *testing.T) {
	h := Header{TypeID: 2, CmdID: 1, SeqNum: 0xBEEF, PayloadSize: -1}
	var buf [FrameHeaderSize]byte
	if n := h.MarshalTo(buf[:]); n != FrameHeaderSize {
		t.Fatalf("MarshalTo returned %d", n)
	}
	var got Header
	if !ParseHeader(buf[:], &got) {
		t.Fatalf("ParseHeader failed")
	}
	if got != h {
		t.Fatalf("got %+v, want %+v", got, h)
	}
}
