package hal

import (
	"context"
	"testing"
)

type fakePort struct {
	written []byte
	toRead  []byte
	closed  bool
}

func (f *fakePort) Read(ctx context.Context, buf []byte) (int, error) {
	n := copy(buf, f.toRead)
	f.toRead = f.toRead[n:]
	return n, nil
}

func (f *fakePort) Write(ctx context.Context, data []byte) (int, error) {
	f.written = append(f.written, data...)
	return len(data), nil
}

func (f *fakePort) Close() error {
	f.closed = true
	return nil
}

var _ Port = (*fakePort)(nil)

func TestFakePortSatisfiesInterface(t *testing.T) {
	var p Port = &fakePort{toRead: []byte("hi")}
	buf := make([]byte, 2)
	n, err := p.Read(context.Background(), buf)
	if err != nil || n != 2 || string(buf) != "hi" {
		t.Fatalf("got n=%d err=%v buf=%q", n, err, buf)
	}
	if _, err := p.Write(context.Background(), []byte("ok")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}
