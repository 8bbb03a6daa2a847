package tweetstat

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync"
)

// Listener receives stream messages. Returning false from either method ends the subscription.
type Listener interface {
	OnData(raw []byte) bool
	OnError(code int) bool
}

// ListenerState is the lifecycle state of a FileListener.
type ListenerState int

const (
	Active ListenerState = iota
	Stopped
)

func (s ListenerState) String() string {
	if s == Stopped {
		return "stopped"
	}
	return "active"
}

// FileListener appends every payload to a newline-delimited log and echoes it.
// One record per line: trailing CR/LF is trimmed and JSON payloads are compacted.
type FileListener struct {
	path string
	file *os.File
	echo io.Writer

	mu       sync.Mutex
	state    ListenerState
	stopCode int
	written  int
}

// NewFileListener opens path for appending, creating it if needed.
// Payloads are echoed to echo; nil means os.Stdout.
func NewFileListener(path string, echo io.Writer) (*FileListener, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open stream log %s: %w", path, err)
	}
	if echo == nil {
		echo = os.Stdout
	}
	return &FileListener{path: path, file: f, echo: echo}, nil
}

// OnData writes one record. Write failures are logged and the subscription continues.
func (l *FileListener) OnData(raw []byte) bool {
	record := frameRecord(raw)
	if len(record) == 0 {
		return true
	}
	line := append(record, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.echo.Write(line); err != nil {
		slog.Warn("stream echo failed", slog.Any("error", err))
	}
	if _, err := l.file.Write(line); err != nil {
		slog.Error("stream log write failed", slog.String("path", l.path), slog.Any("error", err))
		return true
	}
	l.written++
	return true
}

// OnError stops on rate-limit statuses (420, 429) and on other client errors,
// which cannot clear without caller action. Server errors and in-band codes are logged
// and the listener stays active.
func (l *FileListener) OnError(code int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch {
	case isRateLimitStatus(code):
		slog.Warn("stream rate limited, stopping", slog.Int("code", code))
	case code >= 400 && code < 500:
		slog.Error("stream rejected, stopping", slog.Int("code", code), slog.String("status", http.StatusText(code)))
	default:
		slog.Warn("stream error", slog.Int("code", code))
		return true
	}
	l.state = Stopped
	l.stopCode = code
	return false
}

// State returns the current lifecycle state.
func (l *FileListener) State() ListenerState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// StopCode returns the status code that stopped the listener, or 0.
func (l *FileListener) StopCode() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stopCode
}

// Written returns the number of records appended to the log.
func (l *FileListener) Written() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.written
}

// Close closes the log file.
func (l *FileListener) Close() error {
	return l.file.Close()
}

// frameRecord turns a raw payload into a single-line record.
func frameRecord(raw []byte) []byte {
	record := bytes.TrimRight(raw, "\r\n")
	if !bytes.ContainsAny(record, "\r\n") {
		return bytes.Clone(record)
	}
	if json.Valid(record) {
		var buf bytes.Buffer
		if err := json.Compact(&buf, record); err == nil {
			return buf.Bytes()
		}
	}
	return bytes.ReplaceAll(bytes.ReplaceAll(record, []byte("\r"), nil), []byte("\n"), []byte(" "))
}
