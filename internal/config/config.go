// Package config loads server tunables from an optional YAML file and
// hot-reloads the subset of fields that don't size fixed-width arrays
// (spec.md §3's MAX_* constants are fixed at process start; tick rate,
// worker count, and the periodic food-spawn interval are not).
package config

import (
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"arcade/internal/logx"
	"arcade/internal/world"
)

// Structural fields are fixed for the process lifetime — they size the
// world's fixed arrays (spec.md §3).
type Structural struct {
	GridWidth  int `yaml:"grid_width"`
	GridHeight int `yaml:"grid_height"`
	Port       int `yaml:"port"`
}

// Tunable fields may be changed at runtime via a config file rewrite.
type Tunable struct {
	TickMS              int `yaml:"tick_ms"`
	Workers             int `yaml:"workers"`
	FoodSpawnIntervalMS int `yaml:"food_spawn_interval_ms"`
}

// Config is the full, loaded configuration.
type Config struct {
	Structural `yaml:",inline"`
	Tunable    `yaml:",inline"`
}

// Default returns the spec's default tuning.
func Default() Config {
	return Config{
		Structural: Structural{
			GridWidth:  world.DefaultWidth,
			GridHeight: world.DefaultHeight,
			Port:       8888,
		},
		Tunable: Tunable{
			TickMS:              world.GameTickMS,
			Workers:              4,
			FoodSpawnIntervalMS: world.FoodSpawnIntervalMS,
		},
	}
}

// Load reads and parses a YAML config file, filling in defaults for any
// field the file omits; a field the file sets explicitly, even to zero,
// keeps that value. An empty path returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Watcher holds the live, hot-reloadable Tunable fields and refreshes
// them when the backing file is rewritten.
type Watcher struct {
	path string
	mu   sync.RWMutex
	cur  Tunable
	log  *logx.Logger
}

// WatchTunables starts watching path (if non-empty) for rewrites and
// returns a Watcher seeded with initial. Watcher has no Close method; the
// watch goroutine runs until the process exits. A watch failure (e.g.
// missing file) is logged, not fatal — tunables simply stay at their
// initial values.
func WatchTunables(path string, initial Tunable) *Watcher {
	w := &Watcher{path: path, cur: initial, log: logx.Component("config")}
	if path == "" {
		return w
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.log.Warn().Err(err).Msg("config hot-reload disabled: could not start watcher")
		return w
	}
	if err := watcher.Add(path); err != nil {
		w.log.Warn().Err(err).Str("path", path).Msg("config hot-reload disabled: could not watch file")
		watcher.Close()
		return w
	}

	go w.watchLoop(watcher)
	return w
}

func (w *Watcher) watchLoop(watcher *fsnotify.Watcher) {
	defer watcher.Close()
	for event := range watcher.Events {
		if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
			continue
		}
		cfg, err := Load(w.path)
		if err != nil {
			w.log.Warn().Err(err).Msg("config reload failed, keeping previous tunables")
			continue
		}
		w.mu.Lock()
		w.cur = cfg.Tunable
		w.mu.Unlock()
		w.log.Info().Interface("tunables", cfg.Tunable).Msg("config reloaded")
	}
}

// Tunables returns the current live tunable values.
func (w *Watcher) Tunables() Tunable {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.cur
}
