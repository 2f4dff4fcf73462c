package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"boxbridge/pkg/flex"
	"boxbridge/pkg/style"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, DefaultPath)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	cfg, err := Load(filepath.Join(dir, "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	assert.Equal(t, "layout.html", cfg.Output.Path)
	assert.Equal(t, BuildModeJSX, cfg.Build.Mode)
	assert.Equal(t, 0, cfg.Headers())
	assert.Equal(t, style.Strict, cfg.Policy())
	assert.Equal(t, flex.DefaultConfig(), cfg.Engine())
	d, err := cfg.WatchDebounce()
	require.NoError(t, err)
	assert.Equal(t, 300*time.Millisecond, d)
	timeout, err := cfg.BuildTimeout()
	require.NoError(t, err)
	assert.Equal(t, time.Minute, timeout)
}

func TestLoadCommandModeDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := writeConfig(t, dir, "build:\n  mode: command\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"npm", "run", "build"}, cfg.Build.Command)
	assert.Equal(t, 3, cfg.Headers())
}

func TestLoadExplicitZeroHeaderLines(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := writeConfig(t, dir, "build:\n  mode: command\n  header_lines: 0\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Headers())
}

func TestLoadExpandsEnvAndDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("BOXBRIDGE_POLICY=lenient\n"), 0o644))
	t.Setenv("BOXBRIDGE_OUT", "site/index.html")
	t.Cleanup(func() { os.Unsetenv("BOXBRIDGE_POLICY") })
	path := writeConfig(t, dir, `
output:
  path: ${BOXBRIDGE_OUT}
  png: preview.png
style:
  policy: ${BOXBRIDGE_POLICY}
layout:
  point_scale_factor: 0
  direction: rtl
preview:
  width: 640
  height: 480
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "site/index.html", cfg.Output.Path)
	assert.Equal(t, "preview.png", cfg.Output.PNG)
	assert.Equal(t, style.Lenient, cfg.Policy())
	assert.Equal(t, float32(0), cfg.Engine().PointScaleFactor)
	dir2, err := cfg.Direction()
	require.NoError(t, err)
	assert.Equal(t, flex.RTL, dir2)
	assert.Equal(t, 640, cfg.Preview.Width)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"mode", "build:\n  mode: webpack\n", "build.mode"},
		{"policy", "style:\n  policy: loose\n", "style policy"},
		{"headers", "build:\n  header_lines: -1\n", "header_lines"},
		{"timeout", "build:\n  timeout: soon\n", "build.timeout"},
		{"direction", "layout:\n  direction: up\n", "layout.direction"},
		{"scale", "layout:\n  point_scale_factor: -2\n", "point_scale_factor"},
		{"preview", "preview:\n  width: -1\n", "preview size"},
		{"debounce", "watch:\n  debounce: -1s\n", "watch.debounce"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			t.Chdir(dir)
			_, err := Load(writeConfig(t, dir, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	_, err := Load(writeConfig(t, dir, "output: [unclosed\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal")
}

func TestInitWritesLoadableDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, DefaultPath)

	require.NoError(t, Init(path, false))
	assert.Error(t, Init(path, false), "refuses to overwrite")
	require.NoError(t, Init(path, true))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}
