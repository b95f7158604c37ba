package position

import "testing"

func TestOffsetPositionRoundTrip(t *testing.T) {
	li := NewLineIndex("line 1\nline 2\nline 3")
	for off := 0; off <= len("line 1\nline 2\nline 3"); off++ {
		p := li.PositionAt(off)
		got := li.OffsetAt(p)
		if got != off {
			t.Fatalf("offsetAt(positionAt(%d)) = %d, want %d (pos=%+v)", off, got, off, p)
		}
	}
}

func TestRangeContains(t *testing.T) {
	r := Range{Start: Position{Line: 0, Character: 2}, End: Position{Line: 0, Character: 5}}
	cases := []struct {
		p    Position
		want bool
	}{
		{Position{0, 1}, false},
		{Position{0, 2}, true},
		{Position{0, 3}, true},
		{Position{0, 5}, true},
		{Position{0, 6}, false},
	}
	for _, c := range cases {
		if got := r.Contains(c.p); got != c.want {
			t.Errorf("Contains(%+v) = %v, want %v", c.p, got, c.want)
		}
	}
}

func TestGetWordAtPosition(t *testing.T) {
	li := NewLineIndex("empty? nil! @var")
	cases := []struct {
		char int
		want string
	}{
		{2, "empty?"},
		{8, "nil!"},
		{12, "@var"},
	}
	for _, c := range cases {
		word, _, ok := li.GetWordAtPosition(Position{Line: 0, Character: c.char})
		if !ok {
			t.Fatalf("character %d: expected a word", c.char)
		}
		if word != c.want {
			t.Errorf("character %d: got %q, want %q", c.char, word, c.want)
		}
	}
}

func TestGetWordAtPositionWhitespace(t *testing.T) {
	li := NewLineIndex("foo   bar")
	if _, _, ok := li.GetWordAtPosition(Position{Line: 0, Character: 4}); ok {
		t.Fatalf("expected no word on whitespace")
	}
}

func TestGetWordAtPositionPastEndOfLine(t *testing.T) {
	li := NewLineIndex("foo")
	if _, _, ok := li.GetWordAtPosition(Position{Line: 5, Character: 0}); ok {
		t.Fatalf("expected no word past end of document")
	}
}
