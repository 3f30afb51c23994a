package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"arcade/internal/world"
)

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoadOverridesDefaultsFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: 9999\ntick_ms: 50\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 9999, cfg.Port)
	require.Equal(t, 50, cfg.TickMS)
	require.Equal(t, world.DefaultWidth, cfg.GridWidth) // left at default
}

func TestLoadMissingFileReturnsError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestWatchTunablesReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("workers: 2\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	watcher := WatchTunables(path, cfg.Tunable)
	require.Equal(t, 2, watcher.Tunables().Workers)

	require.NoError(t, os.WriteFile(path, []byte("workers: 8\n"), 0o644))

	require.Eventually(t, func() bool {
		return watcher.Tunables().Workers == 8
	}, 2*time.Second, 20*time.Millisecond)
}

func TestWatchTunablesWithEmptyPathStaysAtInitial(t *testing.T) {
	watcher := WatchTunables("", Tunable{Workers: 4})
	require.Equal(t, 4, watcher.Tunables().Workers)
}
