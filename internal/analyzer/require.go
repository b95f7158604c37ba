package analyzer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/navid-m/liger/internal/crystal"
	"github.com/navid-m/liger/internal/oracle"
)

// requireLineRe matches a require statement and captures the byte offset
// of its quoted path via submatch group 1.
var requireLineRe = regexp.MustCompile(`^\s*require\s+"([^"]*)"`)

// requireQuoteRange returns the [start,end] rune-index bounds of the
// quoted path on line, inclusive of both quote characters so a cursor
// resting on either one still counts as "within" the require.
func requireQuoteRange(line string) (start, end int, ok bool) {
	loc := requireLineRe.FindStringSubmatchIndex(line)
	if loc == nil {
		return 0, 0, false
	}
	// loc[2]/loc[3] are the byte offsets of the captured path; the quotes
	// sit one byte to either side of it.
	prefix := []rune(line[:loc[2]])
	path := []rune(line[loc[2]:loc[3]])
	return len(prefix) - 1, len(prefix) + len(path), true
}

// classifyRequire labels a require path the way spec.md §4.H's resolution
// rules do: relative (./ or ../), shard (first segment is a directory
// under <root>/lib), or stdlib-or-unknown.
func (a *Analyzer) classifyRequire(path string) string {
	if strings.HasPrefix(path, "./") || strings.HasPrefix(path, "../") {
		return "relative"
	}
	shard := path
	if i := strings.IndexByte(shard, '/'); i >= 0 {
		shard = shard[:i]
	}
	if info, err := os.Stat(filepath.Join(a.root, "lib", shard)); err == nil && info.IsDir() {
		return "shard"
	}
	return "stdlib-or-unknown"
}

// resolveRequirePath implements spec.md §4.H's require-path resolution: a
// leading "./" or "../" is relative to the requiring file's own
// directory; otherwise the first path segment is tried as a shard name
// under <root>/lib/<shard>/src, then the bare path under each discovered
// stdlib root. The first candidate that exists on disk wins.
func (a *Analyzer) resolveRequirePath(ctx context.Context, uri, path string) (string, bool) {
	withExt := path
	if !strings.HasSuffix(withExt, ".cr") {
		withExt += ".cr"
	}

	if strings.HasPrefix(path, "./") || strings.HasPrefix(path, "../") {
		base, err := oracle.URIToPath(uri)
		if err != nil {
			return "", false
		}
		candidate := filepath.Join(filepath.Dir(base), withExt)
		if fileExists(candidate) {
			return oracle.PathToURI(candidate), true
		}
		return "", false
	}

	shard, rest := path, ""
	if i := strings.IndexByte(path, '/'); i >= 0 {
		shard, rest = path[:i], path[i+1:]
	}
	shardSrc := filepath.Join(a.root, "lib", shard, "src")
	shardCandidate := filepath.Join(shardSrc, shard+".cr")
	if rest != "" {
		shardCandidate = filepath.Join(shardSrc, rest)
		if !strings.HasSuffix(shardCandidate, ".cr") {
			shardCandidate += ".cr"
		}
	}
	if fileExists(shardCandidate) {
		return oracle.PathToURI(shardCandidate), true
	}

	for _, root := range a.stdlibRootsHint(ctx) {
		candidate := filepath.Join(root, withExt)
		if fileExists(candidate) {
			return oracle.PathToURI(candidate), true
		}
	}
	return "", false
}

// stdlibRootsHint asks the compiler oracle for its stdlib search roots,
// when one is configured; callers tolerate an empty result.
func (a *Analyzer) stdlibRootsHint(ctx context.Context) []string {
	if a.oracle == nil {
		return nil
	}
	return a.oracle.CandidateStdlibRoots(ctx)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// funHoverText renders a fun extern declaration's markdown, distinguishing
// the Crystal-side name from an aliased C name when parseFun captured one.
func funHoverText(fn crystal.Node) string {
	if idx := strings.Index(fn.Detail, " = "); idx >= 0 {
		cname := fn.Detail[idx+3:]
		if end := strings.IndexByte(cname, '('); end >= 0 {
			cname = cname[:end]
		}
		return fmt.Sprintf("fun %s = %s (extern)", fn.Name, strings.TrimSpace(cname))
	}
	return fmt.Sprintf("fun %s (extern)", fn.Name)
}
