package cari

import "testing"

func TestSimpleLoggerLevels(t *testing.T) {
	logger := NewSimpleLogger()

	logger.Debug("debug message", "key", "value")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")
}

func TestDefaultDebugConfig(t *testing.T) {
	cfg := DefaultDebugConfig()

	if cfg.Enabled {
		t.Error("Expected debug disabled by default")
	}
	if !cfg.LogRequests || !cfg.LogRetries || !cfg.LogCache || !cfg.LogBrowse {
		t.Error("Expected every category enabled")
	}
	if a, b := cfg.RequestIDGen(), cfg.RequestIDGen(); a == "" || a == b {
		t.Errorf("Expected unique request IDs, got %q and %q", a, b)
	}
}

func TestRequestIDOnlyWhenDebugging(t *testing.T) {
	client := New(WithHostList([]string{"a.example"}, []string{"a.example"}))
	if id := client.newRequestID(); id != "" {
		t.Errorf("Expected no request ID without debug, got %q", id)
	}

	client = New(WithHostList([]string{"a.example"}, []string{"a.example"}), WithSimpleLogger())
	if id := client.newRequestID(); id == "" {
		t.Error("Expected a request ID with debug enabled")
	}
}

func TestDebugOnRespectsCategories(t *testing.T) {
	client := New(
		WithHostList([]string{"a.example"}, []string{"a.example"}),
		WithDebugConfig(&DebugConfig{Enabled: true, LogCache: true}),
		WithLogger(&recordingLogger{}),
	)

	if !client.debugOn(client.debug.LogCache) {
		t.Error("Expected cache logging on")
	}
	if client.debugOn(client.debug.LogBrowse) {
		t.Error("Expected browse logging off")
	}
}
