package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadValidConfig(t *testing.T) {
	path := writeTempConfig(t, `
workers: 4
defaultLevel: INFO
defaultFormat: json
sinks:
  - kind: console
  - kind: file
    path: /tmp/app.log
    rotation: sizeAndTime
    maxSize: 64MB
    rotationInterval: 1h
    maxBackups: 5
    compressBackups: true
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, "INFO", cfg.DefaultLevel)
	assert.Len(t, cfg.Sinks, 2)
}

func TestLoadRejectsUnknownLevel(t *testing.T) {
	path := writeTempConfig(t, "defaultLevel: NOPE\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsUnknownSinkKind(t *testing.T) {
	path := writeTempConfig(t, "sinks:\n  - kind: carrier-pigeon\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestBuildSinksAndFormat(t *testing.T) {
	cfg := &Config{
		DefaultFormat: "text",
		Sinks: []SinkConfig{
			{Kind: SinkConsole},
		},
	}
	f, err := cfg.BuildFormat()
	require.NoError(t, err)
	assert.NotNil(t, f)

	sinks, err := cfg.BuildSinks()
	require.NoError(t, err)
	assert.Len(t, sinks, 1)
}
