package cari

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// testHost starts a server for handler and returns its address as a host.
func testHost(t *testing.T, handler http.HandlerFunc) string {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server.URL
}

// deadHost returns the address of a server that is no longer listening.
func deadHost(t *testing.T) string {
	t.Helper()
	server := httptest.NewServer(http.NotFoundHandler())
	host := server.URL
	server.Close()
	return host
}

func jsonHandler(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}
}

// newTestClient builds a client with fast failover delays.
func newTestClient(t *testing.T, read, write []string, opts ...Option) *Client {
	t.Helper()
	base := []Option{
		WithHostList(read, write),
		WithInitialBackoff(time.Millisecond),
		WithMaxBackoff(2 * time.Millisecond),
		WithAttemptTimeout(2 * time.Second),
	}
	c := New(append(base, opts...)...)
	if !c.IsValid() {
		t.Fatalf("invalid test client: %v", c.ValidationError())
	}
	return c
}

// hitLog records the order in which named hosts were contacted.
type hitLog struct {
	mu   sync.Mutex
	hits []string
}

func (h *hitLog) wrap(name string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.mu.Lock()
		h.hits = append(h.hits, name)
		h.mu.Unlock()
		next(w, r)
	}
}

func (h *hitLog) get() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.hits...)
}

type logEntry struct {
	level string
	msg   string
	args  []any
}

type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *recordingLogger) add(level, msg string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level: level, msg: msg, args: args})
}

func (l *recordingLogger) Debug(msg string, args ...any) { l.add("debug", msg, args) }
func (l *recordingLogger) Info(msg string, args ...any)  { l.add("info", msg, args) }
func (l *recordingLogger) Warn(msg string, args ...any)  { l.add("warn", msg, args) }
func (l *recordingLogger) Error(msg string, args ...any) { l.add("error", msg, args) }

func (l *recordingLogger) has(msg string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		if e.msg == msg {
			return true
		}
	}
	return false
}

// waitDone fails the test if ch is not closed within a second.
func waitDone(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for completion")
	}
}
