// Package oracle bridges to an external `crystal` compiler binary for the
// semantic queries no heuristic or workspace scan can answer precisely:
// cross-file implementations and real type-checked context (spec.md §4.H).
package oracle

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/navid-m/liger/internal/lsptypes"
)

// Oracle runs `crystal tool implementations` / `crystal tool context`
// subprocesses after writing the open buffer to disk (see writeScratch), capped to a small
// number of concurrent invocations via a weighted semaphore (grounded on
// CodeForge's internal/git.Pool, the same library used to cap concurrent
// git CLI calls).
type Oracle struct {
	binary     string
	timeout    time.Duration
	sem        *semaphore.Weighted
	shards     *ShardFinder
	scratchDir string

	mu     sync.Mutex
	hashes map[string]string // URI -> sha256 of last content written to scratch
}

// New creates an Oracle. binary is the `crystal` executable name or path,
// timeout bounds each subprocess call, maxConcurrent caps how many may run
// at once, and scratchDir is where content-hash-gated scratch copies of
// open documents are written before invoking the compiler.
func New(binary string, timeout time.Duration, maxConcurrent int, scratchDir string) *Oracle {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Oracle{
		binary:     binary,
		timeout:    timeout,
		sem:        semaphore.NewWeighted(int64(maxConcurrent)),
		shards:     NewShardFinder(),
		scratchDir: scratchDir,
		hashes:     make(map[string]string),
	}
}

// Available reports whether the configured binary resolves on PATH at all;
// callers use this to skip the oracle tier entirely rather than pay a
// failed-exec round trip on every request.
func (o *Oracle) Available() bool {
	_, err := exec.LookPath(o.binary)
	return err == nil
}

// StdlibRoot resolves the standard library search path the same way the
// compiler itself would: the CRYSTAL_PATH environment variable if set,
// otherwise `crystal env CRYSTAL_PATH`.
func (o *Oracle) StdlibRoot(ctx context.Context) (string, error) {
	if v := os.Getenv("CRYSTAL_PATH"); v != "" {
		return v, nil
	}
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	cmd := exec.CommandContext(ctx, o.binary, "env", "CRYSTAL_PATH")
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("crystal env CRYSTAL_PATH: %w", err)
	}
	return trimNewline(string(out)), nil
}

// fallbackStdlibRoots are tried when CRYSTAL_PATH is unset and the
// `crystal` binary itself can't be invoked to ask it, matching spec.md
// §4.G's "or tries a small fallback list".
var fallbackStdlibRoots = []string{
	"/usr/share/crystal/src",
	"/usr/local/share/crystal/src",
	"/usr/lib/crystal/src",
	"/opt/homebrew/share/crystal/src",
}

// CandidateStdlibRoots resolves standard-library search roots the way the
// compiler itself would: split CRYSTAL_PATH on the platform path-list
// separator, keep only entries that look like a real stdlib root
// (containing prelude.cr or object.cr per spec.md §4.H), and fall back to
// a short list of common install locations when that yields nothing.
func (o *Oracle) CandidateStdlibRoots(ctx context.Context) []string {
	var roots []string
	if raw, err := o.StdlibRoot(ctx); err == nil && raw != "" {
		for _, p := range filepath.SplitList(raw) {
			if looksLikeStdlibRoot(p) {
				roots = append(roots, p)
			}
		}
	}
	if len(roots) > 0 {
		return roots
	}
	for _, p := range fallbackStdlibRoots {
		if looksLikeStdlibRoot(p) {
			roots = append(roots, p)
		}
	}
	return roots
}

func looksLikeStdlibRoot(path string) bool {
	if path == "" {
		return false
	}
	if _, err := os.Stat(filepath.Join(path, "prelude.cr")); err == nil {
		return true
	}
	if _, err := os.Stat(filepath.Join(path, "object.cr")); err == nil {
		return true
	}
	return false
}

// Location mirrors one entry of `crystal tool implementations`'s result.
type Location struct {
	Filename string
	Line     int
	Column   int
}

// toolResult is the shape both `crystal tool implementations` and
// `crystal tool context` report on the wire: {"status":..,"message":..}.
type toolResult struct {
	Status  string          `json:"status"`
	Message json.RawMessage `json:"message"`
}

// Implementations runs `crystal tool implementations` for the symbol at
// (line, col) (1-based, matching the compiler's own convention) in uri,
// returning every implementation site it reports.
func (o *Oracle) Implementations(ctx context.Context, root, uri, text string, line, col int) ([]lsptypes.Location, error) {
	scratch, err := o.writeScratch(root, uri, text)
	if err != nil {
		return nil, err
	}
	main := o.shards.MainFile(root)

	out, err := o.run(ctx, root, "tool", "implementations",
		"-c", fmt.Sprintf("%s:%d:%d", scratch, line, col),
		main)
	if err != nil {
		return nil, err
	}

	var res toolResult
	if err := json.Unmarshal(out, &res); err != nil {
		return nil, fmt.Errorf("decode implementations output: %w", err)
	}
	if res.Status != "ok" {
		return nil, nil
	}
	var locs []Location
	if err := json.Unmarshal(res.Message, &locs); err != nil {
		return nil, fmt.Errorf("decode implementations message: %w", err)
	}

	out2 := make([]lsptypes.Location, 0, len(locs))
	for _, l := range locs {
		fileURI := PathToURI(l.Filename)
		out2 = append(out2, lsptypes.Location{
			URI: fileURI,
			Range: lsptypes.Range{
				Start: lsptypes.Position{Line: l.Line - 1, Character: l.Column - 1},
				End:   lsptypes.Position{Line: l.Line - 1, Character: l.Column},
			},
		})
	}
	return out2, nil
}

// contextEntry is one variable binding `crystal tool context` reports at a
// cursor position.
type contextEntry struct {
	Name    string            `json:"name"`
	Context map[string]string `json:"context"`
}

// Context runs `crystal tool context` at (line, col) and returns a
// formatted summary of the type-checked bindings in scope, suitable for
// direct inclusion in a hover's Markdown body.
func (o *Oracle) Context(ctx context.Context, root, uri, text string, line, col int) (string, error) {
	scratch, err := o.writeScratch(root, uri, text)
	if err != nil {
		return "", err
	}
	main := o.shards.MainFile(root)

	out, err := o.run(ctx, root, "tool", "context",
		"-c", fmt.Sprintf("%s:%d:%d", scratch, line, col),
		main)
	if err != nil {
		return "", err
	}

	var res toolResult
	if err := json.Unmarshal(out, &res); err != nil {
		return "", fmt.Errorf("decode context output: %w", err)
	}
	if res.Status != "ok" {
		return "", nil
	}
	var entries []contextEntry
	if err := json.Unmarshal(res.Message, &entries); err != nil {
		return "", fmt.Errorf("decode context message: %w", err)
	}

	var buf bytes.Buffer
	for _, e := range entries {
		for name, typ := range e.Context {
			fmt.Fprintf(&buf, "%s : %s\n", name, typ)
		}
		if e.Name != "" {
			fmt.Fprintf(&buf, "%s\n", e.Name)
		}
	}
	return buf.String(), nil
}

func (o *Oracle) run(ctx context.Context, workspaceRoot string, args ...string) ([]byte, error) {
	if err := o.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer o.sem.Release(1)

	runCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, o.binary, args...)
	cmd.Dir = workspaceRoot
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		// crystal exits non-zero for "not found" results too; the caller
		// still wants stdout in that case since it carries the JSON error
		// envelope, not just a bare failure.
		if stdout.Len() > 0 {
			return stdout.Bytes(), nil
		}
		return nil, fmt.Errorf("%s %v: %w: %s", o.binary, args, err, stderr.String())
	}
	return stdout.Bytes(), nil
}

// writeScratch flushes the open document's current buffer to the real
// on-disk path it was opened from, so the compiler's own require
// resolution (relative to that file's real location) keeps working
// unmodified, and skips the write entirely when the content hash matches
// what was written last time (spec.md §4.H's content-hash-gated scratch
// writes — avoiding a disk write on every keystroke when the oracle is
// queried repeatedly against unchanged text). When the URI doesn't
// resolve to an absolute filesystem path (e.g. an unsaved buffer with no
// disk counterpart), it falls back to a flat file under the dedicated
// scratch directory instead; root is not consulted.
func (o *Oracle) writeScratch(root, uri, text string) (string, error) {
	sum := sha256.Sum256([]byte(text))
	hash := hex.EncodeToString(sum[:])

	path, err := URIToPath(uri)
	if err != nil || !filepath.IsAbs(path) {
		path = o.fallbackScratchPath(uri)
	}

	o.mu.Lock()
	if o.hashes[uri] == hash {
		o.mu.Unlock()
		return path, nil
	}
	o.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("mkdir scratch dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return "", fmt.Errorf("write scratch file: %w", err)
	}

	o.mu.Lock()
	o.hashes[uri] = hash
	o.mu.Unlock()
	return path, nil
}

func (o *Oracle) fallbackScratchPath(uri string) string {
	sum := sha256.Sum256([]byte(uri))
	name := hex.EncodeToString(sum[:8]) + ".cr"
	return filepath.Join(o.scratchDir, name)
}

func trimNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}
