package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("GITLET_DIR", "")
	t.Setenv("GITLET_LOG_LEVEL", "")
	t.Setenv("GITLET_LOG_FORMAT", "")

	s, err := Load()
	require.NoError(t, err)

	wd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, wd, s.Dir)
	assert.Equal(t, "warn", s.LogLevel)
	assert.Equal(t, "console", s.LogFormat)
}

func TestLoad_Env(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("GITLET_DIR", dir)
	t.Setenv("GITLET_LOG_LEVEL", "debug")
	t.Setenv("GITLET_LOG_FORMAT", "json")

	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, dir, s.Dir)
	assert.Equal(t, "debug", s.LogLevel)
	assert.Equal(t, "json", s.LogFormat)
}

func TestLoad_File(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("GITLET_DIR", "")
	t.Setenv("GITLET_LOG_LEVEL", "")
	t.Setenv("GITLET_LOG_FORMAT", "")

	cfgDir := filepath.Join(home, ".config", "gitlet")
	require.NoError(t, os.MkdirAll(cfgDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(cfgDir, "config.yaml"), []byte("log_level: info\nlog_format: json\n"), 0644))

	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "info", s.LogLevel)
	assert.Equal(t, "json", s.LogFormat)
}
