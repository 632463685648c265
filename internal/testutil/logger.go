// Package testutil provides test loggers and registry export fixtures.
package testutil

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"testing"
)

// NewTestLogger returns a debug logger that writes through t.Log, so its
// output shows only on failure or with -v.
func NewTestLogger(t testing.TB) *slog.Logger {
	t.Helper()
	return slog.New(newTextHandler(t))
}

func newTextHandler(t testing.TB) slog.Handler {
	return slog.NewTextHandler(testWriter{t}, &slog.HandlerOptions{Level: slog.LevelDebug})
}

type testWriter struct {
	t testing.TB
}

func (w testWriter) Write(p []byte) (n int, err error) {
	w.t.Helper()
	w.t.Log(strings.TrimSuffix(string(p), "\n"))
	return len(p), nil
}

// Recorder is a test logger that also keeps the message of every record,
// for tests that assert a load or query step actually ran.
type Recorder struct {
	Logger *slog.Logger

	mu       sync.Mutex
	messages []string
}

// NewRecorder returns a Recorder whose Logger writes through t.Log.
func NewRecorder(t testing.TB) *Recorder {
	t.Helper()
	r := &Recorder{}
	r.Logger = slog.New(recordingHandler{Handler: newTextHandler(t), rec: r})
	return r
}

// Messages returns the logged messages in order.
func (r *Recorder) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.messages)
}

// Logged reports whether msg was logged at least once.
func (r *Recorder) Logged(msg string) bool {
	return slices.Contains(r.Messages(), msg)
}

type recordingHandler struct {
	slog.Handler
	rec *Recorder
}

func (h recordingHandler) Handle(ctx context.Context, record slog.Record) error {
	h.rec.mu.Lock()
	h.rec.messages = append(h.rec.messages, record.Message)
	h.rec.mu.Unlock()
	return h.Handler.Handle(ctx, record)
}

func (h recordingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return recordingHandler{Handler: h.Handler.WithAttrs(attrs), rec: h.rec}
}

func (h recordingHandler) WithGroup(name string) slog.Handler {
	return recordingHandler{Handler: h.Handler.WithGroup(name), rec: h.rec}
}
