// Package position implements the LSP position/range math shared by every
// feature handler: UTF-16 offset<->Position conversion, range containment,
// and Crystal's lexical notion of a "word" at a cursor.
package position

import (
	"strings"
)

// Position is 0-based line and 0-based character, counted in UTF-16 code
// units as LSP requires.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// Less orders positions lexicographically by (Line, Character).
func (p Position) Less(o Position) bool {
	if p.Line != o.Line {
		return p.Line < o.Line
	}
	return p.Character < o.Character
}

func (p Position) Equal(o Position) bool { return p.Line == o.Line && p.Character == o.Character }

// Range is an inclusive-start/inclusive-end pair of Positions.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Contains reports whether start <= p <= end under lexicographic order.
func (r Range) Contains(p Position) bool {
	return !p.Less(r.Start) && !r.End.Less(p)
}

// LineIndex holds the lines of some text, split on '\n', kept in sync with
// the owning document on every mutation.
type LineIndex struct {
	lines []string
}

// NewLineIndex splits text on '\n', matching the document invariant in
// spec.md §3 that lineIndex == split(text, '\n').
func NewLineIndex(text string) *LineIndex {
	return &LineIndex{lines: strings.Split(text, "\n")}
}

func (li *LineIndex) Lines() []string { return li.lines }

func (li *LineIndex) LineCount() int { return len(li.lines) }

func (li *LineIndex) Line(n int) (string, bool) {
	if n < 0 || n >= len(li.lines) {
		return "", false
	}
	return li.lines[n], true
}

// OffsetAt converts a Position to a byte offset into the joined text,
// treating each newline as one unit, and clamping out-of-range input.
func (li *LineIndex) OffsetAt(p Position) int {
	if p.Line < 0 {
		return 0
	}
	off := 0
	for i := 0; i < p.Line && i < len(li.lines); i++ {
		off += len(li.lines[i]) + 1 // +1 for the '\n' consumed by Split
	}
	if p.Line >= len(li.lines) {
		return max(off-1, 0)
	}
	line := li.lines[p.Line]
	off += utf16ByteOffset(line, p.Character)
	return off
}

// PositionAt converts a byte offset back to a Position. offsetAt and
// positionAt round-trip for any offset inside the document (spec.md §8).
func (li *LineIndex) PositionAt(offset int) Position {
	if offset < 0 {
		offset = 0
	}
	remaining := offset
	for i, line := range li.lines {
		lineLen := len(line)
		if remaining <= lineLen {
			return Position{Line: i, Character: utf16CodeUnits(line[:clampInt(remaining, 0, lineLen)])}
		}
		remaining -= lineLen + 1
		if remaining < 0 {
			remaining = 0
		}
	}
	last := len(li.lines) - 1
	if last < 0 {
		return Position{}
	}
	return Position{Line: last, Character: utf16CodeUnits(li.lines[last])}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// utf16CodeUnits counts the UTF-16 code units a UTF-8 string decodes to.
func utf16CodeUnits(s string) int {
	n := 0
	for _, r := range s {
		if r >= 0x10000 {
			n += 2
		} else {
			n++
		}
	}
	return n
}

// utf16ByteOffset returns the byte offset within s of the character-th
// UTF-16 code unit, clamped to len(s) if character overruns the line.
func utf16ByteOffset(s string, character int) int {
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

// isWordChar matches spec.md §4.D: alphanumeric, '_', '?', or '!'.
func isWordChar(r rune) bool {
	return r == '_' || r == '?' || r == '!' ||
		(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// GetWordAtPosition expands outward from p.Character over word-character
// runs on the addressed line, admitting a leading '@' so instance variables
// are captured whole. Returns ok=false if the run under the cursor is empty.
func (li *LineIndex) GetWordAtPosition(p Position) (word string, rng Range, ok bool) {
	line, exists := li.Line(p.Line)
	if !exists {
		return "", Range{}, false
	}
	runes := []rune(line)
	// p.Character is in UTF-16 units; for ASCII-heavy Crystal source this is
	// effectively a rune index, but walk via byte offset to stay correct for
	// any non-ASCII identifiers, then work in rune space from there.
	byteOff := utf16ByteOffset(line, p.Character)
	runeIdx := len([]rune(line[:clampInt(byteOff, 0, len(line))]))

	start, end := runeIdx, runeIdx
	for start > 0 && isWordChar(runes[start-1]) {
		start--
	}
	for end < len(runes) && isWordChar(runes[end]) {
		end++
	}
	if start == end {
		// The cursor may sit exactly on the '@' sigil itself, where the
		// word-char run is empty on both sides. Anchor there and expand
		// right so e.g. position 12 in "empty? nil! @var" still yields "@var".
		if runeIdx < len(runes) && runes[runeIdx] == '@' && runeIdx+1 < len(runes) && isWordChar(runes[runeIdx+1]) {
			start = runeIdx
			end = runeIdx + 1
			for end < len(runes) && isWordChar(runes[end]) {
				end++
			}
		} else {
			return "", Range{}, false
		}
	}
	if start > 0 && runes[start-1] == '@' {
		start--
	}
	word = string(runes[start:end])
	startPos := Position{Line: p.Line, Character: utf16CodeUnits(string(runes[:start]))}
	endPos := Position{Line: p.Line, Character: utf16CodeUnits(string(runes[:end]))}
	return word, Range{Start: startPos, End: endPos}, true
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// RuneLen reports the number of UTF-16 units a string would occupy, exposed
// for callers that build ranges from raw substrings (e.g. regex matches in
// the workspace scanner).
func RuneLen(s string) int { return utf16CodeUnits(s) }
