package device

import "github.com/ardnew/wrn/pkg"

// LogRecord is one entry of the circular EEPROM event log.
type LogRecord struct {
	Time  int32
	Event LogEvent
}

func (r LogRecord) isTerminator() bool {
	return r.Time == 0 && r.Event == LogEmpty
}

func (r LogRecord) isOccupied() bool {
	return r.Time > 0 && r.Event != LogEmpty
}

// EEPROMStorage is the byte-addressable backing store for the circular log.
// A real device backs this with on-chip or external EEPROM; tests back it
// with a plain byte slice.
type EEPROMStorage interface {
	// Size returns the usable capacity in bytes.
	Size() int
	// ReadRecord reads the record at byte offset.
	ReadRecord(offset int) (LogRecord, error)
	// WriteRecord writes the record at byte offset.
	WriteRecord(offset int, rec LogRecord) error
}

// EEPROMLog is the fixed-size circular event log described in the data
// model: exactly one zero-terminator record lives at `end`; every slot in
// [begin, end) is occupied; everything else is zero.
type EEPROMLog struct {
	storage EEPROMStorage
	records int // capacity in whole records

	begin, end int // record indices, not byte offsets
	cursor     int
	reverse    bool
	limit      int // 0 means unlimited
	visited    int
}

// NewEEPROMLog wraps storage and performs the cold-start discovery scan.
func NewEEPROMLog(storage EEPROMStorage) (*EEPROMLog, error) {
	records := storage.Size() / LogRecordSize
	l := &EEPROMLog{storage: storage, records: records}
	if err := l.discover(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *EEPROMLog) recordAt(i int) (LogRecord, error) {
	return l.storage.ReadRecord((i % l.records) * LogRecordSize)
}

func (l *EEPROMLog) writeRecordAt(i int, rec LogRecord) error {
	return l.storage.WriteRecord((i%l.records)*LogRecordSize, rec)
}

// discover scans forward from record 0 until it finds the terminator,
// matching EepromLog.cpp's begin()/cold-start behavior exactly: the first
// terminator encountered marks `end`; the record immediately after it is
// `begin` when occupied (the log has wrapped), while a second terminator
// there means the log has not wrapped and `begin` is 0 (empty when `end` is
// also 0).
func (l *EEPROMLog) discover() error {
	if l.records == 0 {
		return pkg.ErrLogFull
	}
	i := 0
	for ; i < l.records; i++ {
		rec, err := l.recordAt(i)
		if err != nil {
			return err
		}
		if rec.isTerminator() {
			break
		}
		if !rec.isOccupied() {
			return pkg.ErrLogCorrupt
		}
	}
	if i == l.records {
		// No terminator found anywhere: corrupted.
		return pkg.ErrLogCorrupt
	}
	l.end = i
	candidate := (i + 1) % l.records
	rec, err := l.recordAt(candidate)
	if err != nil {
		return err
	}
	if rec.isTerminator() {
		l.begin = 0
	} else if rec.isOccupied() {
		l.begin = candidate
	} else {
		return pkg.ErrLogCorrupt
	}
	l.SetReverse(false)
	return nil
}

// Length returns the number of occupied records currently stored.
func (l *EEPROMLog) Length() int {
	return (l.records + l.end - l.begin) % l.records
}

// Append writes rec at `end`, advances `end`, writes a fresh terminator, and
// evicts the oldest record if the new `end` collided with `begin`.
func (l *EEPROMLog) Append(rec LogRecord) error {
	if l.records == 0 {
		return pkg.ErrLogFull
	}
	if err := l.writeRecordAt(l.end, rec); err != nil {
		return err
	}
	l.end = (l.end + 1) % l.records
	if err := l.writeRecordAt(l.end, LogRecord{}); err != nil {
		return err
	}
	if l.begin == l.end {
		l.begin = (l.begin + 1) % l.records
	}
	return nil
}

// SetReverse repositions the traversal cursor to `begin` (forward) or `end`
// (reverse) and clears any limit from a previous pass.
func (l *EEPROMLog) SetReverse(reverse bool) {
	l.reverse = reverse
	l.limit = 0
	l.visited = 0
	if reverse {
		l.cursor = l.end
	} else {
		l.cursor = l.begin
	}
}

// SetLimit clamps how many records a traversal pass may visit, snapping the
// cursor so the pass yields the n most-recent records when traversing
// forward, or n oldest-first when traversing in reverse.
func (l *EEPROMLog) SetLimit(n int) {
	length := l.Length()
	if n <= 0 || n > length {
		n = length
	}
	l.limit = n
	l.visited = 0
	if l.reverse {
		// n oldest-first in reverse: start n records after begin.
		l.cursor = (l.begin + n) % l.records
	} else {
		// n most-recent forward: start n records before end.
		l.cursor = (l.records + l.end - n) % l.records
	}
}

// Read advances (or rewinds) the cursor one slot and returns the record
// there. ok is false once the traversal pass is exhausted (cursor reached
// the opposite endpoint, or the limit was consumed).
func (l *EEPROMLog) Read() (LogRecord, bool, error) {
	limit := l.limit
	if limit == 0 {
		limit = l.Length()
	}
	if l.visited >= limit {
		return LogRecord{}, false, nil
	}
	if l.reverse {
		if l.cursor == l.begin {
			return LogRecord{}, false, nil
		}
		l.cursor = (l.cursor - 1 + l.records) % l.records
		rec, err := l.recordAt(l.cursor)
		if err != nil {
			return LogRecord{}, false, err
		}
		l.visited++
		return rec, true, nil
	}
	if l.cursor == l.end {
		return LogRecord{}, false, nil
	}
	rec, err := l.recordAt(l.cursor)
	if err != nil {
		return LogRecord{}, false, err
	}
	l.cursor = (l.cursor + 1) % l.records
	l.visited++
	return rec, true, nil
}

// Clean zeroes every slot and resets all pointers.
func (l *EEPROMLog) Clean() error {
	for i := 0; i < l.records; i++ {
		if err := l.writeRecordAt(i, LogRecord{}); err != nil {
			return err
		}
	}
	l.begin, l.end, l.cursor, l.limit, l.visited = 0, 0, 0, 0, 0
	l.reverse = false
	return nil
}
