package workspace

import (
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/navid-m/liger/internal/lsptypes"
)

// Index holds the three symbol-table tiers spec.md §4.G describes:
// workspace_cache and lib_cache as plain maps invalidated per-URI on edit,
// and stdlib_cache backed by ristretto since the standard library's symbol
// set is large, read-mostly, and never invalidated by a document edit.
type Index struct {
	mu sync.RWMutex

	workspaceCache map[string][]Entry // URI -> entries from that file
	libCache       map[string][]Entry // shard URI -> entries

	stdlib *ristretto.Cache[string, []Entry]

	lastScan map[string]time.Time
	debounce time.Duration

	libScanned     bool
	stdlibScanned  bool
	stdlibResolver func() []string
	stdlibEntries  []Entry
}

func New() *Index {
	stdlib, err := ristretto.NewCache(&ristretto.Config[string, []Entry]{
		NumCounters: 1e4,
		MaxCost:     1 << 20,
		BufferItems: 64,
	})
	if err != nil {
		// A misconfigured cache is a programmer error, not a runtime
		// condition callers can recover from; the zero Index with a nil
		// stdlib cache still works, it simply never caches stdlib lookups.
		stdlib = nil
	}
	return &Index{
		workspaceCache: make(map[string][]Entry),
		libCache:       make(map[string][]Entry),
		stdlib:         stdlib,
		lastScan:       make(map[string]time.Time),
		debounce:       5 * time.Second,
	}
}

// UpdateSource re-scans a document immediately and replaces its entries in
// workspace_cache, invalidating whatever was there before (spec.md §4.G:
// "updateSource invalidates the previous scan for that URI").
func (idx *Index) UpdateSource(uri, text string) {
	entries := ScanFile(uri, text)
	idx.mu.Lock()
	idx.workspaceCache[uri] = entries
	idx.lastScan[uri] = now()
	idx.mu.Unlock()
}

// ScanIfNeeded re-scans uri only if it has never been scanned or the last
// scan is older than the debounce window, matching spec.md §4.G's
// "scanIfNeeded" rate limit for workspace-wide rescans triggered by
// unrelated requests (e.g. workspace/symbol).
func (idx *Index) ScanIfNeeded(uri, text string) {
	idx.mu.RLock()
	last, ok := idx.lastScan[uri]
	idx.mu.RUnlock()
	if ok && now().Sub(last) < idx.debounce {
		return
	}
	idx.UpdateSource(uri, text)
}

// ForceScan bypasses the debounce window entirely.
func (idx *Index) ForceScan(uri, text string) {
	idx.UpdateSource(uri, text)
}

// Forget drops a URI's cached entries, used when a document is closed and
// is no longer an open buffer backing the workspace scan.
func (idx *Index) Forget(uri string) {
	idx.mu.Lock()
	delete(idx.workspaceCache, uri)
	delete(idx.lastScan, uri)
	idx.mu.Unlock()
}

// AllEntries returns every entry from every scanned workspace file, for
// workspace/symbol fuzzy matching.
func (idx *Index) AllEntries() []Entry {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	var out []Entry
	for _, es := range idx.workspaceCache {
		out = append(out, es...)
	}
	for _, es := range idx.libCache {
		out = append(out, es...)
	}
	return out
}

// SetLibEntries replaces the cached entries for a shard source file,
// scanned once by LibScan rather than on every request.
func (idx *Index) SetLibEntries(uri string, entries []Entry) {
	idx.mu.Lock()
	idx.libCache[uri] = entries
	idx.mu.Unlock()
}

// StdlibEntries returns the cached entries for a stdlib source file if
// present, scanning and caching them via fill otherwise. Matches spec.md
// §4.G's "scan-once read-through" semantics for stdlib_cache.
func (idx *Index) StdlibEntries(uri string, fill func() []Entry) []Entry {
	if idx.stdlib != nil {
		if v, ok := idx.stdlib.Get(uri); ok {
			return v
		}
	}
	entries := fill()
	if idx.stdlib != nil {
		idx.stdlib.SetWithTTL(uri, entries, int64(len(entries)+1), 0)
		idx.stdlib.Wait()
	}
	return entries
}

// FindSymbolInfo looks up a symbol by its short or fully-qualified name
// across all three tiers, workspace first, then lib, then stdlib. A miss
// in the first two tiers triggers the one-time lazy stdlib scan (spec.md
// §4.G: "first time findSymbolInfo misses in workspace + lib").
func (idx *Index) FindSymbolInfo(name string) (Entry, bool) {
	if e, ok := idx.findInWorkspaceOrLib(name); ok {
		return e, true
	}

	idx.scanStdlibOnce()

	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return matchByName(idx.stdlibEntries, name)
}

func (idx *Index) findInWorkspaceOrLib(name string) (Entry, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	for _, es := range idx.workspaceCache {
		if e, ok := matchByName(es, name); ok {
			return e, true
		}
	}
	for _, es := range idx.libCache {
		if e, ok := matchByName(es, name); ok {
			return e, true
		}
	}
	return Entry{}, false
}

// Search returns every entry whose name or fully-qualified name contains
// query, case-insensitively, for workspace/symbol. An empty query matches
// everything.
func (idx *Index) Search(query string) []Entry {
	q := strings.ToLower(query)
	var out []Entry
	for _, e := range idx.AllEntries() {
		if q == "" || strings.Contains(strings.ToLower(e.Name), q) || strings.Contains(strings.ToLower(e.FQN), q) {
			out = append(out, e)
		}
	}
	return out
}

// WorkspaceSymbols implements workspace/symbol: every entry matching query
// (see Search), converted to the flat SymbolInformation shape the LSP
// response expects.
func (idx *Index) WorkspaceSymbols(query string) []lsptypes.SymbolInformation {
	entries := idx.Search(query)
	out := make([]lsptypes.SymbolInformation, 0, len(entries))
	for _, e := range entries {
		out = append(out, lsptypes.SymbolInformation{
			Name:     e.FQN,
			Kind:     lspSymbolKindFor(e.Kind),
			Location: lsptypes.Location{URI: e.URI, Range: e.Range()},
		})
	}
	return out
}

func lspSymbolKindFor(k SymbolKind) int {
	switch k {
	case SymClass:
		return lsptypes.SKClass
	case SymModule, SymLib:
		return lsptypes.SKModule
	case SymStruct:
		return lsptypes.SKStruct
	case SymEnum:
		return lsptypes.SKEnum
	case SymDef, SymFun:
		return lsptypes.SKMethod
	case SymProperty:
		return lsptypes.SKProperty
	case SymIVar:
		return lsptypes.SKField
	case SymConst:
		return lsptypes.SKConstant
	case SymAlias:
		return lsptypes.SKVariable
	default:
		return lsptypes.SKVariable
	}
}

func matchByName(entries []Entry, name string) (Entry, bool) {
	for _, e := range entries {
		if e.Name == name || e.FQN == name {
			return e, true
		}
	}
	return Entry{}, false
}

// now is a seam so tests can avoid depending on wall-clock timing; the
// running server always uses time.Now.
var now = time.Now
