package device

import "testing"

// memStorage is a byte-slice-backed EEPROMStorage for tests.
type memStorage struct {
	buf []byte
}

func newMemStorage(records int) *memStorage {
	return &memStorage{buf: make([]byte, records*LogRecordSize)}
}

func (m *memStorage) Size() int { return len(m.buf) }

func (m *memStorage) ReadRecord(offset int) (LogRecord, error) {
	b := m.buf[offset : offset+LogRecordSize]
	t := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16 | int32(b[3])<<24
	return LogRecord{Time: t, Event: LogEvent(b[4])}, nil
}

func (m *memStorage) WriteRecord(offset int, rec LogRecord) error {
	b := m.buf[offset : offset+LogRecordSize]
	b[0] = byte(rec.Time)
	b[1] = byte(rec.Time >> 8)
	b[2] = byte(rec.Time >> 16)
	b[3] = byte(rec.Time >> 24)
	b[4] = byte(rec.Event)
	return nil
}

func TestEEPROMDiscoveryEmpty(t *testing.T) {
	storage := newMemStorage(8)
	log, err := NewEEPROMLog(storage)
	if err != nil {
		t.Fatalf("NewEEPROMLog: %v", err)
	}
	if log.Length() != 0 {
		t.Fatalf("length = %d, want 0", log.Length())
	}
}

func TestEEPROMAppendAndLength(t *testing.T) {
	storage := newMemStorage(8)
	log, err := NewEEPROMLog(storage)
	if err != nil {
		t.Fatalf("NewEEPROMLog: %v", err)
	}
	for i := 1; i <= 3; i++ {
		if err := log.Append(LogRecord{Time: int32(i), Event: LogBoot}); err != nil {
			t.Fatalf("Append %d: %v", i, err)
		}
	}
	if log.Length() != 3 {
		t.Fatalf("length = %d, want 3", log.Length())
	}
}

func TestEEPROMEvictsOldestAtCapacity(t *testing.T) {
	const records = 4
	storage := newMemStorage(records)
	log, err := NewEEPROMLog(storage)
	if err != nil {
		t.Fatalf("NewEEPROMLog: %v", err)
	}
	// Capacity-1 usable records (the terminator always occupies one slot).
	for i := 1; i <= records-1; i++ {
		if err := log.Append(LogRecord{Time: int32(i), Event: LogBoot}); err != nil {
			t.Fatalf("Append %d: %v", i, err)
		}
	}
	if log.Length() != records-1 {
		t.Fatalf("length = %d, want %d", log.Length(), records-1)
	}
	// One more append must evict exactly the oldest entry.
	if err := log.Append(LogRecord{Time: int32(records), Event: LogReset}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if log.Length() != records-1 {
		t.Fatalf("length after eviction = %d, want %d", log.Length(), records-1)
	}
	log.SetReverse(false)
	rec, ok, err := log.Read()
	if err != nil || !ok {
		t.Fatalf("Read: ok=%v err=%v", ok, err)
	}
	if rec.Time != 2 {
		t.Fatalf("oldest surviving record = %d, want 2 (record 1 evicted)", rec.Time)
	}
}

func TestEEPROMForwardTraversalOrder(t *testing.T) {
	storage := newMemStorage(8)
	log, _ := NewEEPROMLog(storage)
	for i := 1; i <= 5; i++ {
		log.Append(LogRecord{Time: int32(i), Event: LogBoot})
	}
	log.SetReverse(false)
	var got []int32
	for {
		rec, ok, err := log.Read()
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		if !ok {
			break
		}
		got = append(got, rec.Time)
	}
	want := []int32{1, 2, 3, 4, 5}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestEEPROMSetLimitMostRecent(t *testing.T) {
	storage := newMemStorage(16)
	log, _ := NewEEPROMLog(storage)
	for i := 1; i <= 10; i++ {
		log.Append(LogRecord{Time: int32(i), Event: LogBoot})
	}
	log.SetReverse(false)
	log.SetLimit(3)
	var got []int32
	for {
		rec, ok, err := log.Read()
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		if !ok {
			break
		}
		got = append(got, rec.Time)
	}
	want := []int32{8, 9, 10}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestEEPROMClean(t *testing.T) {
	storage := newMemStorage(8)
	log, _ := NewEEPROMLog(storage)
	log.Append(LogRecord{Time: 1, Event: LogBoot})
	log.Append(LogRecord{Time: 2, Event: LogReset})
	if err := log.Clean(); err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if log.Length() != 0 {
		t.Fatalf("length after clean = %d, want 0", log.Length())
	}
}

func TestEEPROMDiscoveryPrePopulatedNonWrapped(t *testing.T) {
	const records = 4
	storage := newMemStorage(records)
	// Slots 0,1 occupied; slot 2 is the terminator; slot 3 is unused
	// (also a terminator, since it was never written). This is the
	// common cold-start case: a log that has accumulated entries but
	// never wrapped around to evict anything.
	storage.WriteRecord(0*LogRecordSize, LogRecord{Time: 1, Event: LogBoot})
	storage.WriteRecord(1*LogRecordSize, LogRecord{Time: 2, Event: LogReset})

	log, err := NewEEPROMLog(storage)
	if err != nil {
		t.Fatalf("NewEEPROMLog: %v", err)
	}
	if log.Length() != 2 {
		t.Fatalf("length = %d, want 2 (begin=0, end=2 not begin=end=0)", log.Length())
	}
	log.SetReverse(false)
	rec, ok, err := log.Read()
	if err != nil || !ok {
		t.Fatalf("Read: ok=%v err=%v", ok, err)
	}
	if rec.Time != 1 || rec.Event != LogBoot {
		t.Fatalf("first record = %+v, want Time=1 Event=LogBoot", rec)
	}
}

func TestEEPROMDiscoveryDetectsCorruption(t *testing.T) {
	storage := newMemStorage(4)
	// Slot 0: occupied, slot 1: mixed zero/non-zero (corrupt), matching
	// neither isTerminator nor isOccupied.
	storage.WriteRecord(0, LogRecord{Time: 1, Event: LogBoot})
	storage.WriteRecord(LogRecordSize, LogRecord{Time: 0, Event: LogBoot})
	if _, err := NewEEPROMLog(storage); err == nil {
		t.Fatalf("expected corruption to be detected")
	}
}
