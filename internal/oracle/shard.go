package oracle

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// ShardConfig is the subset of shard.yml liger needs: the project name and
// its build targets, each naming a main entry file.
type ShardConfig struct {
	Name    string                 `yaml:"name"`
	Targets map[string]ShardTarget `yaml:"targets"`
}

type ShardTarget struct {
	Main string `yaml:"main"`
}

// ShardFinder discovers each workspace's shard.yml and its main file, and
// caches the result for five seconds so a burst of oracle calls against
// the same workspace doesn't re-stat and re-parse shard.yml on every
// keystroke (spec.md §4.H).
type ShardFinder struct {
	mu       sync.Mutex
	cache    map[string]shardCacheEntry
	cacheTTL time.Duration
}

type shardCacheEntry struct {
	mainFile string
	at       time.Time
}

func NewShardFinder() *ShardFinder {
	return &ShardFinder{
		cache:    make(map[string]shardCacheEntry),
		cacheTTL: 5 * time.Second,
	}
}

// MainFile returns the entry-point source file for the shard rooted at
// root, following this fallback order when shard.yml is missing or
// unreadable:
//
//  1. shard.yml's targets[name].main, where name is shard.yml's own "name"
//  2. the first targets[*].main if "name" doesn't match any target
//  3. src/<root-dir-name>.cr
//  4. src/main.cr
//  5. the sole *.cr file directly under src/, if there is exactly one
//  6. root itself, meaning "no project context could be established"
func (f *ShardFinder) MainFile(root string) string {
	f.mu.Lock()
	if e, ok := f.cache[root]; ok && time.Since(e.at) < f.cacheTTL {
		f.mu.Unlock()
		return e.mainFile
	}
	f.mu.Unlock()

	main := f.discover(root)

	f.mu.Lock()
	f.cache[root] = shardCacheEntry{mainFile: main, at: time.Now()}
	f.mu.Unlock()
	return main
}

func (f *ShardFinder) discover(root string) string {
	if cfg, err := readShardYAML(filepath.Join(root, "shard.yml")); err == nil {
		if t, ok := cfg.Targets[cfg.Name]; ok && t.Main != "" {
			return filepath.Join(root, t.Main)
		}
		for _, t := range cfg.Targets {
			if t.Main != "" {
				return filepath.Join(root, t.Main)
			}
		}
	}

	srcDir := filepath.Join(root, "src")
	candidate := filepath.Join(srcDir, filepath.Base(root)+".cr")
	if fileExists(candidate) {
		return candidate
	}

	candidate = filepath.Join(srcDir, "main.cr")
	if fileExists(candidate) {
		return candidate
	}

	if sole, ok := soleCrystalFile(srcDir); ok {
		return sole
	}

	return root
}

func readShardYAML(path string) (ShardConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ShardConfig{}, err
	}
	var cfg ShardConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return ShardConfig{}, err
	}
	return cfg, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func soleCrystalFile(dir string) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	var found string
	count := 0
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".cr" {
			count++
			found = filepath.Join(dir, e.Name())
		}
	}
	if count == 1 {
		return found, true
	}
	return "", false
}
