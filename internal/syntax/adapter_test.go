package syntax

import "testing"

func TestAnalyzeCleanSourceHasNoDiagnostics(t *testing.T) {
	a := Analyze("class Foo\n  def bar\n  end\nend\n")
	if !a.OK || len(a.Diagnostics) != 0 {
		t.Fatalf("got %+v", a)
	}
}

func TestAnalyzeUnterminatedBlockYieldsOneDiagnostic(t *testing.T) {
	a := Analyze("class Foo\n  def bar\n  end\n")
	if a.OK {
		t.Fatalf("expected parse failure")
	}
	if len(a.Diagnostics) != 1 {
		t.Fatalf("got %d diagnostics, want 1", len(a.Diagnostics))
	}
	d := a.Diagnostics[0]
	if d.Severity != 1 || d.Source != "crystal" {
		t.Fatalf("got %+v", d)
	}
}

func TestDocumentSymbolsNesting(t *testing.T) {
	a := Analyze("module M\n  class C\n    def m\n    end\n  end\nend\n")
	syms := DocumentSymbols(a.Root)
	if len(syms) != 1 || syms[0].Name != "M" {
		t.Fatalf("got %+v", syms)
	}
	if len(syms[0].Children) != 1 || syms[0].Children[0].Name != "C" {
		t.Fatalf("got %+v", syms[0].Children)
	}
	if len(syms[0].Children[0].Children) != 1 || syms[0].Children[0].Children[0].Name != "m" {
		t.Fatalf("got %+v", syms[0].Children[0].Children)
	}
}

func TestFileLocalCompletionsAfterDot(t *testing.T) {
	a := Analyze("arr = [1, 2]\n")
	items := FileLocalCompletions("arr.", 4, a.Root)
	found := false
	for _, it := range items {
		if it.Label == "each" {
			found = true
		}
		if it.Label == "class" && it.Kind == 7 {
			t.Fatalf("expected method-kind completions only after '.', got class-kind %+v", it)
		}
	}
	if !found {
		t.Fatalf("expected 'each' among dot completions, got %+v", items)
	}
}

func TestFileLocalCompletionsIncludesLocalDecls(t *testing.T) {
	a := Analyze("class Widget\n  def render\n  end\nend\n")
	items := FileLocalCompletions("", 0, a.Root)
	names := map[string]bool{}
	for _, it := range items {
		names[it.Label] = true
	}
	if !names["Widget"] || !names["render"] || !names["class"] || !names["String"] {
		t.Fatalf("got %+v", names)
	}
}

func TestFileLocalCompletionsDedup(t *testing.T) {
	a := Analyze("class String\nend\n")
	items := FileLocalCompletions("", 0, a.Root)
	seen := map[string]int{}
	for _, it := range items {
		seen[it.Label]++
	}
	if seen["String"] != 1 {
		t.Fatalf("expected String to be deduped, got count %d", seen["String"])
	}
}
