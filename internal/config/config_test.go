package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "dhcp4", cfg.Service)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, 5, cfg.Retries)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, ":9547", cfg.Listen)
	assert.Empty(t, cfg.Servers)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("KEAVIEW_SERVICE", "dhcp6")
	t.Setenv("KEAVIEW_TIMEOUT", "2s")
	t.Setenv("KEAVIEW_EXCLUDED_PARAMETERS", "option-data,user-context")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "dhcp6", cfg.Service)
	assert.Equal(t, 2*time.Second, cfg.Timeout)
	assert.Equal(t, []string{"option-data", "user-context"}, cfg.Excluded)
}

func TestLoad_InvalidEnvironment(t *testing.T) {
	t.Setenv("KEAVIEW_TIMEOUT", "soon")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env:")
}

func TestLoad_FileOverridesEnvironment(t *testing.T) {
	t.Setenv("KEAVIEW_SERVICE", "dhcp6")

	path := filepath.Join(t.TempDir(), "keaview.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
servers:
  - name: kea-1
    url: http://192.0.2.1:8000/
  - name: kea-2
    url: http://192.0.2.2:8000/
service: dhcp4
timeout: 10s
excluded-parameters: [option-data]
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "dhcp4", cfg.Service)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Equal(t, []Server{
		{Name: "kea-1", URL: "http://192.0.2.1:8000/"},
		{Name: "kea-2", URL: "http://192.0.2.2:8000/"},
	}, cfg.Servers)
	assert.Equal(t, "info", cfg.LogLevel)
	require.NoError(t, cfg.Validate())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParseServer(t *testing.T) {
	s, err := ParseServer("kea-1=http://localhost:8000/")
	require.NoError(t, err)
	assert.Equal(t, Server{Name: "kea-1", URL: "http://localhost:8000/"}, s)

	s, err = ParseServer("http://localhost:8000/")
	require.NoError(t, err)
	assert.Equal(t, Server{Name: "localhost:8000", URL: "http://localhost:8000/"}, s)

	_, err = ParseServer("kea-1=")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := &Config{Service: "dhcp4", Timeout: time.Second}
	assert.ErrorContains(t, cfg.Validate(), "at least one server")

	cfg.Servers = []Server{{Name: "a", URL: "http://a"}, {Name: "a", URL: ""}}
	err := cfg.Validate()
	assert.ErrorContains(t, err, "duplicate server name")
	assert.ErrorContains(t, err, "has no url")

	cfg.Servers = cfg.Servers[:1]
	cfg.Timeout = 0
	assert.ErrorContains(t, cfg.Validate(), "--timeout must be positive")
}
