package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvAppID, EnvAPIKey, EnvReadHosts, EnvWriteHosts, EnvAttemptTimeout, EnvCacheTTL, EnvDebug} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadYAML(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "cari.yaml", `
app_id: APP
api_key: secret
read_hosts: [r1.example, r2.example]
write_hosts: [w1.example]
attempt_timeout: 2s
search_cache_ttl: 90s
`)

	cfg, err := Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, "APP", cfg.AppID)
	assert.Equal(t, "secret", cfg.APIKey)
	assert.Equal(t, []string{"r1.example", "r2.example"}, cfg.ReadHosts)
	assert.Equal(t, []string{"w1.example"}, cfg.WriteHosts)
	assert.Equal(t, 2*time.Second, cfg.AttemptTimeout)
	assert.Equal(t, 90*time.Second, cfg.SearchCacheTTL)
}

func TestEnvOverridesYAML(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "cari.yaml", "app_id: APP\napi_key: secret\nread_hosts: [r1.example]\n")
	t.Setenv(EnvReadHosts, "a.example, b.example,,")
	t.Setenv(EnvAttemptTimeout, "750ms")

	cfg, err := Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.example", "b.example"}, cfg.ReadHosts)
	assert.Equal(t, cfg.ReadHosts, cfg.WriteHosts, "write hosts default to read hosts")
	assert.Equal(t, 750*time.Millisecond, cfg.AttemptTimeout)
}

func TestLoadEnvFile(t *testing.T) {
	clearEnv(t)
	envFile := writeFile(t, ".env", "CARI_APP_ID=FROMFILE\nCARI_API_KEY=k\nCARI_READ_HOSTS=h.example\nCARI_DEBUG=true\n")
	t.Cleanup(func() { clearEnv(t) })

	cfg, err := Load("", envFile)
	require.NoError(t, err)
	assert.Equal(t, "FROMFILE", cfg.AppID)
	assert.True(t, cfg.Debug)
	assert.Len(t, cfg.Options(), 4)
}

func TestLoadRejectsInvalid(t *testing.T) {
	clearEnv(t)

	_, err := Load("", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "app_id is required")
	assert.Contains(t, err.Error(), "read_hosts is required")

	t.Setenv(EnvAttemptTimeout, "soon")
	_, err = Load("", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvAttemptTimeout)
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), "")
	require.Error(t, err)
}

func TestOptionsWithCache(t *testing.T) {
	cfg := Config{
		AppID:          "APP",
		APIKey:         "k",
		ReadHosts:      []string{"r.example"},
		WriteHosts:     []string{"w.example"},
		AttemptTimeout: time.Second,
		SearchCacheTTL: time.Minute,
	}
	require.NoError(t, cfg.Validate())
	assert.Len(t, cfg.Options(), 4)
}
