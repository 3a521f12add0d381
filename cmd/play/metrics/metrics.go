// Package metrics writes a per-session CSV log of playback activity:
// periodic level/frequency samples plus one row per notable event
// (track changes, fade cycles, cancellations).
package metrics

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

var header = []string{
	"timestamp",
	"volume",
	"frequency_hz",
	"cycle_number",
	"track",
	"event_type",
	"playhead_seconds",
}

// Logger appends rows to a single session file. Safe for concurrent
// use; every row is flushed so a crash never loses more than the row
// being written.
type Logger struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
	path   string

	track     string
	cycle     int
	frequency float64
}

// NewLogger starts a new session file named
// metrics_<timestamp>_<uuid>.csv under dir, creating dir if needed.
func NewLogger(dir string) (*Logger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating metrics dir: %w", err)
	}
	name := fmt.Sprintf("metrics_%s_%s.csv", time.Now().Format("20060102_150405"), uuid.NewString())
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating metrics file: %w", err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		f.Close()
		return nil, fmt.Errorf("writing metrics header: %w", err)
	}
	w.Flush()
	return &Logger{file: f, writer: w, path: path}, nil
}

// Path returns the session file location.
func (l *Logger) Path() string { return l.path }

// SetTrack records the track name stamped on subsequent rows.
func (l *Logger) SetTrack(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.track = name
}

// SetCycle records the fade cycle count stamped on subsequent rows.
func (l *Logger) SetCycle(n int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cycle = n
}

// Sample logs a periodic data row with the current level and dominant
// frequency. The frequency is remembered and stamped on event rows.
func (l *Logger) Sample(volume, frequencyHz float64, playhead time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.frequency = frequencyHz
	return l.writeLocked(volume, "data", playhead, true)
}

// Event logs a single event row, e.g. "hooray_start" or "track_change".
func (l *Logger) Event(eventType string, playhead time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.writeLocked(0, eventType, playhead, true)
}

func (l *Logger) writeLocked(volume float64, eventType string, playhead time.Duration, hasPlayhead bool) error {
	if l.writer == nil {
		return nil
	}
	playheadCol := ""
	if hasPlayhead {
		playheadCol = strconv.FormatFloat(playhead.Seconds(), 'f', 1, 64)
	}
	row := []string{
		time.Now().Format("2006-01-02 15:04:05.000"),
		strconv.FormatFloat(volume, 'f', 2, 64),
		strconv.FormatFloat(l.frequency, 'f', 1, 64),
		strconv.Itoa(l.cycle),
		l.track,
		eventType,
		playheadCol,
	}
	if err := l.writer.Write(row); err != nil {
		return fmt.Errorf("writing metrics row: %w", err)
	}
	l.writer.Flush()
	return l.writer.Error()
}

// Close flushes and closes the session file. Further calls are no-ops.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	l.writer.Flush()
	err := l.file.Close()
	l.file = nil
	l.writer = nil
	return err
}
