package workspace

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/navid-m/liger/internal/oracle"
)

// Depth caps from spec.md §4.G's scanning policy. The scan root itself is
// depth 0, so e.g. projectScanMaxDepth=10 walks ten levels of
// subdirectories below it.
const (
	projectScanMaxDepth = 10
	libScanMaxDepth     = 3
	stdlibScanMaxDepth  = 2
)

// stdlibDenyDirs excludes compiler-internal directories the stdlib scan
// should never descend into, per spec.md §4.G's "deny-list of internal
// dirs".
var stdlibDenyDirs = map[string]bool{
	".git":     true,
	"compiler": true,
	"ecr":      true,
}

// ProjectScan recursively walks root, excluding hidden directories, bin/,
// and lib/ (lib/ is covered separately by LibScan), reading and
// symbol-extracting every .cr file it finds into workspace_cache. Matches
// spec.md §4.G's project scan, capped at depth 10.
func (idx *Index) ProjectScan(root string) {
	walkCrystalFiles(root, 0, projectScanMaxDepth, func(name string) bool {
		return name == "bin" || name == "lib" || strings.HasPrefix(name, ".")
	}, idx.scanFileAt)
}

// LibScan walks <root>/lib/*/src to depth 3 exactly once, populating
// lib_cache with every shard dependency's symbols. Subsequent calls are
// no-ops, matching spec.md §4.G's "exactly once".
func (idx *Index) LibScan(root string) {
	idx.mu.Lock()
	if idx.libScanned {
		idx.mu.Unlock()
		return
	}
	idx.libScanned = true
	idx.mu.Unlock()

	libDir := filepath.Join(root, "lib")
	shards, err := os.ReadDir(libDir)
	if err != nil {
		return
	}
	for _, shard := range shards {
		if !shard.IsDir() {
			continue
		}
		srcDir := filepath.Join(libDir, shard.Name(), "src")
		walkCrystalFiles(srcDir, 0, libScanMaxDepth, func(string) bool { return false }, func(path string) {
			text, err := os.ReadFile(path)
			if err != nil {
				return
			}
			uri := oracle.PathToURI(path)
			idx.SetLibEntries(uri, ScanFile(uri, string(text)))
		})
	}
}

// ConfigureStdlibDiscovery installs the callback FindSymbolInfo uses, on
// its first miss, to locate the standard library's search roots (spec.md
// §4.G: "discovers the stdlib root via compiler oracle env lookup, or
// tries a small fallback list"). resolve returns candidates in preference
// order; the first one that exists on disk is walked.
func (idx *Index) ConfigureStdlibDiscovery(resolve func() []string) {
	idx.mu.Lock()
	idx.stdlibResolver = resolve
	idx.mu.Unlock()
}

// scanStdlibOnce walks the first usable discovered stdlib root to depth
// 2, denying compiler-internal directories, the first time it runs;
// every later call is a no-op.
func (idx *Index) scanStdlibOnce() {
	idx.mu.Lock()
	if idx.stdlibScanned {
		idx.mu.Unlock()
		return
	}
	idx.stdlibScanned = true
	resolve := idx.stdlibResolver
	idx.mu.Unlock()

	if resolve == nil {
		return
	}
	for _, root := range resolve() {
		info, err := os.Stat(root)
		if err != nil || !info.IsDir() {
			continue
		}
		walkCrystalFiles(root, 0, stdlibScanMaxDepth, func(name string) bool {
			return stdlibDenyDirs[name]
		}, idx.scanStdlibFileAt)
		return
	}
}

func (idx *Index) scanFileAt(path string) {
	text, err := os.ReadFile(path)
	if err != nil {
		return
	}
	uri := oracle.PathToURI(path)
	entries := ScanFile(uri, string(text))
	idx.mu.Lock()
	idx.workspaceCache[uri] = entries
	idx.lastScan[uri] = now()
	idx.mu.Unlock()
}

func (idx *Index) scanStdlibFileAt(path string) {
	uri := oracle.PathToURI(path)
	entries := idx.StdlibEntries(uri, func() []Entry {
		text, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		return ScanFile(uri, string(text))
	})
	idx.mu.Lock()
	idx.stdlibEntries = append(idx.stdlibEntries, entries...)
	idx.mu.Unlock()
}

// walkCrystalFiles walks dir (depth 0) down to maxDepth, calling onFile
// for every ".cr" file and skipping any directory whose base name
// skipDir reports true for.
func walkCrystalFiles(dir string, depth, maxDepth int, skipDir func(name string) bool, onFile func(path string)) {
	if depth > maxDepth {
		return
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		name := e.Name()
		path := filepath.Join(dir, name)
		if e.IsDir() {
			if skipDir(name) {
				continue
			}
			walkCrystalFiles(path, depth+1, maxDepth, skipDir, onFile)
			continue
		}
		if strings.HasSuffix(name, ".cr") {
			onFile(path)
		}
	}
}
