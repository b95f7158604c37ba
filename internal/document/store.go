// Package document implements the in-memory mirror of every open source
// file the server owns: per-URI text, version, and line index, mutated in
// receipt order by didOpen/didChange/didClose.
package document

import (
	"strings"
	"sync"

	"github.com/navid-m/liger/internal/position"
)

// Document is the server's authoritative copy of one open buffer.
type Document struct {
	URI        string
	LanguageID string
	Version    int
	Text       string
	lineIndex  *position.LineIndex
}

// LineIndex exposes the split(text, '\n') invariant required by spec.md §3.
func (d *Document) LineIndex() *position.LineIndex { return d.lineIndex }

// ContentChange mirrors TextDocumentContentChangeEvent: a nil Range means a
// full-document replace, otherwise it is a ranged incremental edit.
type ContentChange struct {
	Range *position.Range
	Text  string
}

// Store is the process-wide DocumentUri -> Document map. Dispatch is
// single-threaded per spec.md §5, but the mutex lets query handlers that
// have been offloaded to a worker goroutine (the compiler oracle path) take
// a consistent snapshot without racing the next didChange.
type Store struct {
	mu   sync.RWMutex
	docs map[string]*Document
}

func New() *Store {
	return &Store{docs: make(map[string]*Document)}
}

// Open creates or replaces the document for uri.
func (s *Store) Open(uri, languageID string, version int, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[uri] = &Document{
		URI:        uri,
		LanguageID: languageID,
		Version:    version,
		Text:       text,
		lineIndex:  position.NewLineIndex(text),
	}
}

// Change applies a batch of content changes in arrival order, then sets the
// version. Unknown URIs are a no-op (spec.md §3, §8).
func (s *Store) Change(uri string, version int, changes []ContentChange) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[uri]
	if !ok {
		return
	}
	for _, c := range changes {
		d.Text = applyChange(d, c)
		d.lineIndex = position.NewLineIndex(d.Text)
	}
	d.Version = version
}

// applyChange implements the exact prefix/new-text/suffix construction from
// spec.md §4.C for a single change against d's *current* text.
func applyChange(d *Document, c ContentChange) string {
	if c.Range == nil {
		return c.Text
	}
	lines := strings.Split(d.Text, "\n")
	sL, sC := c.Range.Start.Line, c.Range.Start.Character
	eL, eC := c.Range.End.Line, c.Range.End.Character

	var prefix string
	if sL > 0 {
		prefix = strings.Join(lines[:sL], "\n") + "\n"
	}
	if sL >= 0 && sL < len(lines) {
		line := lines[sL]
		cut := utf16Clamp(line, sC)
		prefix += line[:cut]
	}

	var suffix string
	if eL >= 0 && eL < len(lines) {
		line := lines[eL]
		cut := utf16Clamp(line, eC)
		suffix = line[cut:]
	}
	if eL < len(lines)-1 {
		suffix += "\n" + strings.Join(lines[eL+1:], "\n")
	}

	return prefix + c.Text + suffix
}

// utf16Clamp converts a UTF-16 character offset to a byte offset within s,
// clamped to len(s).
func utf16Clamp(s string, character int) int {
	units := 0
	for i, r := range s {
		if units >= character {
			return i
		}
		if r >= 0x10000 {
			units += 2
		} else {
			units++
		}
	}
	return len(s)
}

// Close removes a document. Unknown URIs are a no-op.
func (s *Store) Close(uri string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, uri)
}

// Get returns a shallow copy of the document, or nil if it is not open.
// Callers never mutate the returned line index; Change always rebuilds it.
func (s *Store) Get(uri string) *Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.docs[uri]
	if !ok {
		return nil
	}
	cp := *d
	return &cp
}

// All returns a snapshot slice of every open document, in arbitrary order.
func (s *Store) All() []*Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Document, 0, len(s.docs))
	for _, d := range s.docs {
		cp := *d
		out = append(out, &cp)
	}
	return out
}
