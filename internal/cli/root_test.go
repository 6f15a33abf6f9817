package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_explicitPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 6001\n"), 0600))

	cfg, resolved, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, path, resolved)
	assert.Equal(t, 6001, cfg.Server.Port)
}

func TestLoadConfig_missingExplicitPath(t *testing.T) {
	_, _, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})
	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "cyborgbench version dev\n", out.String())
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	orig, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(orig) })
}

func TestLoadConfig_prefersCwdConfigWhenDefaultPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("debug: true\nserver:\n  port: 8080\n"), 0600))
	chdir(t, dir)

	cfg, resolved, err := loadConfig(defaultConfigPath)
	require.NoError(t, err)
	// cwd can resolve through a symlink (/private/var on macOS)
	resolvedCanon, _ := filepath.EvalSymlinks(resolved)
	pathCanon, _ := filepath.EvalSymlinks(path)
	assert.Equal(t, pathCanon, resolvedCanon)
	assert.True(t, cfg.Debug)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoadConfig_defaultsWhenNothingExists(t *testing.T) {
	if _, err := os.Stat(defaultConfigPath); err == nil {
		t.Skip("a system config exists at " + defaultConfigPath)
	}
	chdir(t, t.TempDir())
	t.Setenv("CYBORGBENCH_PORT", "6123")

	cfg, resolved, err := loadConfig(defaultConfigPath)
	require.NoError(t, err)
	assert.Empty(t, resolved)
	assert.Equal(t, 6123, cfg.Server.Port)
}
