package host

import (
	"os"
	"sync"
	"syscall"

	"github.com/ardnew/wrn/pkg"
)

// sink is the narrow interface Demultiplexer writes through, letting tests
// substitute an in-memory recorder for a real FIFO.
type sink interface {
	Write(data []byte)
	WriteAndClose(data []byte)
	Close()
}

// FIFOSink writes to a named pipe under the lazy-open, drop-on-block policy:
// opened O_WRONLY|O_NONBLOCK on first use, a write that would block (no
// reader attached, or a full pipe) is silently dropped rather than
// propagated, and WriteAndClose implements the one-shot interactive-reply
// convention.
type FIFOSink struct {
	path  string
	mutex sync.Mutex
	file  *os.File
}

// NewFIFOSink returns a sink bound to path. Nothing is opened until the
// first Write.
func NewFIFOSink(path string) *FIFOSink {
	return &FIFOSink{path: path}
}

func (s *FIFOSink) ensureOpenLocked() error {
	if s.file != nil {
		return nil
	}
	f, err := os.OpenFile(s.path, os.O_WRONLY|syscall.O_NONBLOCK, 0)
	if err != nil {
		return err
	}
	s.file = f
	return nil
}

// Write sends data to the FIFO, dropping it silently if no reader is
// attached or the pipe is full.
func (s *FIFOSink) Write(data []byte) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if err := s.ensureOpenLocked(); err != nil {
		pkg.LogDebug(pkg.ComponentHost, "fifo has no reader, dropping", "path", s.path)
		return
	}
	if _, err := s.file.Write(data); err != nil {
		pkg.LogDebug(pkg.ComponentHost, "fifo write would block, dropping", "path", s.path)
	}
}

// WriteAndClose writes data then closes the handle, used for one-shot
// interactive command responses.
func (s *FIFOSink) WriteAndClose(data []byte) {
	s.Write(data)
	s.Close()
}

// Close releases the underlying file handle, if open, so the next Write
// reopens it for a new reader.
func (s *FIFOSink) Close() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.file != nil {
		s.file.Close()
		s.file = nil
	}
}

var _ sink = (*FIFOSink)(nil)
