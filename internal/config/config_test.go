package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	v := New()
	v.Set("data_dir", filepath.Join(dir, "data"))
	v.Set("gin_mode", "debug")

	cfg, err := Load(v, "")
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, filepath.Join(dir, "data", "topoviz.db"), cfg.DBPath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "debug", cfg.GinMode)
	assert.True(t, cfg.InsecureSecret())
	assert.DirExists(t, cfg.DataDir)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "topoviz.yaml")
	require.NoError(t, os.WriteFile(file, []byte("port: \"9090\"\nlog_format: json\njwt_secret: from-file\ndata_dir: "+dir+"\n"), 0o644))
	t.Setenv("TOPOVIZ_LOG_LEVEL", "DEBUG")
	t.Setenv("TOPOVIZ_JWT_SECRET", "from-env")

	cfg, err := Load(New(), file)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "from-env", cfg.JWTSecret, "environment beats the file")
	assert.False(t, cfg.InsecureSecret())
}

func TestLoadConfigFromEnvVar(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "c.yaml")
	require.NoError(t, os.WriteFile(file, []byte("static_dir: /srv/ui\njwt_secret: s3cret\ndata_dir: "+dir+"\n"), 0o644))
	t.Setenv("TOPOVIZ_CONFIG", file)

	cfg, err := Load(New(), "")
	require.NoError(t, err)
	assert.Equal(t, "/srv/ui", cfg.StaticDir)
	assert.Equal(t, "release", cfg.GinMode)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(New(), filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err, "an explicit config file must exist")

	v := New()
	v.Set("data_dir", dir)
	v.Set("log_format", "xml")
	_, err = Load(v, "")
	assert.ErrorContains(t, err, "unknown log format")

	v = New()
	v.Set("data_dir", dir)
	v.Set("jwt_secret", "")
	_, err = Load(v, "")
	assert.ErrorContains(t, err, "jwt_secret")

	v = New()
	v.Set("data_dir", dir)
	_, err = Load(v, "")
	assert.ErrorContains(t, err, "built-in default", "release mode refuses the placeholder secret")

	v = New()
	v.Set("data_dir", dir)
	v.Set("gin_mode", "release")
	v.Set("jwt_secret", "a-real-secret")
	_, err = Load(v, "")
	assert.NoError(t, err)
}
