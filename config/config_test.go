package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/toutaio/toutago-nasc-scopes/projector"
)

const manifest = `
log:
  level: debug
projector:
  mode: fail
services:
  - name: db
    lifetime: singleton
    strategy: postgres
    aliases: [database, primary-db]
  - name: request
    lifetime: transient
    pool: 4
`

func writeManifest(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nasc.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	require.Equal(t, "info", cfg.Log.Level)
	require.Equal(t, "json", cfg.Log.Encoding)
	require.Equal(t, projector.SkipOnMismatch, cfg.ProjectorMode())
	require.NoError(t, cfg.Validate())
}

func TestLoad_File(t *testing.T) {
	cfg, err := Load(writeManifest(t, manifest))
	require.NoError(t, err)

	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, "json", cfg.Log.Encoding, "defaults fill unset keys")
	require.Equal(t, projector.FailOnMismatch, cfg.ProjectorMode())
	require.Len(t, cfg.Services, 2)

	db := cfg.Services[0]
	require.Equal(t, "db", db.Name)
	require.Equal(t, "singleton", db.Lifetime)
	require.Equal(t, "postgres", db.Strategy)
	require.Equal(t, []string{"database", "primary-db"}, db.Aliases)
	require.Equal(t, 4, cfg.Services[1].Pool)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("NASC_LOG_LEVEL", "warn")

	cfg, err := Load(writeManifest(t, manifest))
	require.NoError(t, err)
	require.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoad_EmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Empty(t, cfg.Services)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"missing name", "services:\n  - lifetime: scoped\n", "name is required"},
		{"missing lifetime", "services:\n  - name: a\n", "lifetime is required"},
		{"negative pool", "services:\n  - {name: a, lifetime: transient, pool: -1}\n", "pool must not be negative"},
		{"duplicate", "services:\n  - {name: a, lifetime: scoped}\n  - {name: a, lifetime: scoped}\n", "duplicates"},
		{"bad level", "log:\n  level: loud\n", "log.level"},
		{"bad mode", "projector:\n  mode: maybe\n", "projector.mode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.body))
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestYAML_RoundTrip(t *testing.T) {
	cfg, err := Parse([]byte(manifest))
	require.NoError(t, err)

	out, err := cfg.YAML()
	require.NoError(t, err)

	var back Config
	require.NoError(t, yaml.Unmarshal(out, &back))
	require.Equal(t, cfg.Services, back.Services)
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(LogConfig{Level: "debug", Development: true, Encoding: "console"})
	require.NoError(t, err)
	require.True(t, logger.Core().Enabled(-1), "debug should be enabled")

	_, err = NewLogger(LogConfig{Level: "nope"})
	require.Error(t, err)
}
