package cari

import (
	"log/slog"
	"os"

	"github.com/google/uuid"
)

// DefaultDebugConfig returns a disabled configuration with every category on,
// so enabling debug output is a single switch.
func DefaultDebugConfig() *DebugConfig {
	return &DebugConfig{
		Enabled:      false,
		LogRequests:  true,
		LogRetries:   true,
		LogCache:     true,
		LogCircuit:   true,
		LogRateLimit: true,
		LogBrowse:    true,
		RequestIDGen: generateRequestID,
	}
}

func generateRequestID() string {
	return uuid.NewString()
}

// SimpleLogger writes text lines to stderr.
type SimpleLogger struct {
	l *slog.Logger
}

// NewSimpleLogger returns a logger that prints every level, debug included.
func NewSimpleLogger() *SimpleLogger {
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
	return &SimpleLogger{l: slog.New(h).With("lib", "cari")}
}

func (s *SimpleLogger) Debug(msg string, args ...any) { s.l.Debug(msg, args...) }
func (s *SimpleLogger) Info(msg string, args ...any)  { s.l.Info(msg, args...) }
func (s *SimpleLogger) Warn(msg string, args ...any)  { s.l.Warn(msg, args...) }
func (s *SimpleLogger) Error(msg string, args ...any) { s.l.Error(msg, args...) }

func (c *Client) debugOn(flag bool) bool {
	return c.debug != nil && c.debug.Enabled && flag && c.logger != nil
}

func (c *Client) newRequestID() string {
	if c.debug != nil && c.debug.Enabled && c.debug.RequestIDGen != nil {
		return c.debug.RequestIDGen()
	}
	return ""
}
