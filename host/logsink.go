package host

import (
	"fmt"
	"io"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ardnew/wrn/device"
	"github.com/ardnew/wrn/pkg"
)

// LogCategory names one of the rotated on-disk log files an operator reads,
// distinct from the FIFO sinks Demultiplexer writes for live consumers.
type LogCategory string

// Log categories, one file each.
const (
	LogCategoryCommon   LogCategory = "common"
	LogCategoryError    LogCategory = "error"
	LogCategoryRNG      LogCategory = "rng"
	LogCategoryWatchdog LogCategory = "watchdog"
	LogCategoryRadio    LogCategory = "radio"
)

var allLogCategories = []LogCategory{
	LogCategoryCommon, LogCategoryError, LogCategoryRNG, LogCategoryWatchdog, LogCategoryRadio,
}

// LogSinkConfig controls rotation for every category file. Zero values fall
// back to lumberjack's own defaults (100MB, no age/backup limit, no compress).
type LogSinkConfig struct {
	Dir        string
	MaxSizeMB  int
	MaxAgeDays int
	MaxBackups int
	Compress   bool
}

// LogSink owns one rotated file per category, each dated with the line's
// own timestamp rather than relying on the file's mtime. SIGHUP should call
// Rotate to reopen every file in place, matching externally-rotated logs
// elsewhere in this stack.
type LogSink struct {
	files map[LogCategory]*lumberjack.Logger
}

// NewLogSink creates (but does not yet write to) one lumberjack.Logger per
// category under cfg.Dir.
func NewLogSink(cfg LogSinkConfig) *LogSink {
	s := &LogSink{files: make(map[LogCategory]*lumberjack.Logger, len(allLogCategories))}
	for _, cat := range allLogCategories {
		s.files[cat] = &lumberjack.Logger{
			Filename:   fmt.Sprintf("%s/%s.log", cfg.Dir, cat),
			MaxSize:    cfg.MaxSizeMB,
			MaxAge:     cfg.MaxAgeDays,
			MaxBackups: cfg.MaxBackups,
			Compress:   cfg.Compress,
		}
	}
	return s
}

// Writer returns the io.Writer backing category, for callers (e.g. a log
// formatter) that want to write directly.
func (s *LogSink) Writer(category LogCategory) io.Writer {
	return s.files[category]
}

// Write formats message with a leading RFC3339 timestamp and appends it to
// category's file.
func (s *LogSink) Write(category LogCategory, message string) {
	f, ok := s.files[category]
	if !ok {
		return
	}
	line := fmt.Sprintf("%s %s\n", time.Now().UTC().Format(time.RFC3339), message)
	if _, err := f.Write([]byte(line)); err != nil {
		pkg.LogWarn(pkg.ComponentLogSink, "write failed", "category", category, "error", err)
	}
}

// Rotate closes and reopens every category file, called in response to
// SIGHUP so externally-rotated files (renamed out from under the daemon)
// get a fresh descriptor.
func (s *LogSink) Rotate() error {
	for cat, f := range s.files {
		if err := f.Rotate(); err != nil {
			return fmt.Errorf("rotate %s log: %w", cat, err)
		}
	}
	return nil
}

// CategoryFor maps a device kind to the log file an operator expects its
// traffic recorded in.
func CategoryFor(kind device.DeviceKind) LogCategory {
	switch kind {
	case device.KindCommon:
		return LogCategoryCommon
	case device.KindWatchdog:
		return LogCategoryWatchdog
	case device.KindRNG:
		return LogCategoryRNG
	case device.KindRadio:
		return LogCategoryRadio
	default:
		return LogCategoryError
	}
}

// Close closes every category file.
func (s *LogSink) Close() error {
	for _, f := range s.files {
		if err := f.Close(); err != nil {
			return err
		}
	}
	return nil
}
