package fifo

import (
	"fmt"
	"os"

	"github.com/ardnew/wrn/device"
)

// EEPROMFile implements device.EEPROMStorage over a fixed-size flat file,
// standing in for the real device's on-chip EEPROM so the simulated event
// log survives across a single run the same way the firmware's does across
// reboots (though not across simulator restarts, since Stop removes it
// along with the rest of the device directory).
type EEPROMFile struct {
	f    *os.File
	size int
}

// NewEEPROMFile creates (or truncates) a zero-filled file of size bytes at
// path to back the circular log.
func NewEEPROMFile(path string, size int) (*EEPROMFile, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create eeprom file: %w", err)
	}
	if err := f.Truncate(int64(size)); err != nil {
		f.Close()
		return nil, fmt.Errorf("size eeprom file: %w", err)
	}
	return &EEPROMFile{f: f, size: size}, nil
}

// Size implements device.EEPROMStorage.
func (e *EEPROMFile) Size() int { return e.size }

// ReadRecord implements device.EEPROMStorage.
func (e *EEPROMFile) ReadRecord(offset int) (device.LogRecord, error) {
	var buf [device.LogRecordSize]byte
	if _, err := e.f.ReadAt(buf[:], int64(offset)); err != nil {
		return device.LogRecord{}, fmt.Errorf("read eeprom record at %d: %w", offset, err)
	}
	t := int32(buf[0]) | int32(buf[1])<<8 | int32(buf[2])<<16 | int32(buf[3])<<24
	return device.LogRecord{Time: t, Event: device.LogEvent(buf[4])}, nil
}

// WriteRecord implements device.EEPROMStorage.
func (e *EEPROMFile) WriteRecord(offset int, rec device.LogRecord) error {
	var buf [device.LogRecordSize]byte
	buf[0] = byte(rec.Time)
	buf[1] = byte(rec.Time >> 8)
	buf[2] = byte(rec.Time >> 16)
	buf[3] = byte(rec.Time >> 24)
	buf[4] = byte(rec.Event)
	if _, err := e.f.WriteAt(buf[:], int64(offset)); err != nil {
		return fmt.Errorf("write eeprom record at %d: %w", offset, err)
	}
	return nil
}

// Close releases the backing file descriptor.
func (e *EEPROMFile) Close() error {
	return e.f.Close()
}

var _ device.EEPROMStorage = (*EEPROMFile)(nil)
