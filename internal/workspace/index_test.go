package workspace

import "testing"

func TestUpdateSourceAndFindSymbolInfo(t *testing.T) {
	idx := New()
	idx.UpdateSource("file:///a.cr", "class Widget\n  def render\n  end\nend\n")

	e, ok := idx.FindSymbolInfo("Widget")
	if !ok || e.Kind != SymClass {
		t.Fatalf("got %+v, %v", e, ok)
	}
	e, ok = idx.FindSymbolInfo("Widget::render")
	if !ok || e.Kind != SymDef {
		t.Fatalf("got %+v, %v", e, ok)
	}
}

func TestForgetRemovesEntries(t *testing.T) {
	idx := New()
	idx.UpdateSource("file:///a.cr", "class Widget\nend\n")
	idx.Forget("file:///a.cr")
	if _, ok := idx.FindSymbolInfo("Widget"); ok {
		t.Fatalf("expected Widget to be forgotten")
	}
}

func TestScanIfNeededDebounces(t *testing.T) {
	idx := New()
	idx.debounce = 0 // disable for a second pass below by re-enabling explicitly
	idx.UpdateSource("file:///a.cr", "class A\nend\n")
	idx.debounce = 1 << 30 // effectively never re-scan within the test

	idx.ScanIfNeeded("file:///a.cr", "class B\nend\n")
	if _, ok := idx.FindSymbolInfo("B"); ok {
		t.Fatalf("expected debounced scan to skip the update")
	}
	if _, ok := idx.FindSymbolInfo("A"); !ok {
		t.Fatalf("expected the original scan to survive")
	}
}

func TestSearchMatchesSubstringCaseInsensitively(t *testing.T) {
	idx := New()
	idx.UpdateSource("file:///a.cr", "class Widget\n  def render\n  end\nend\n")

	got := idx.Search("wid")
	if len(got) == 0 {
		t.Fatalf("expected at least one match for 'wid'")
	}
	found := false
	for _, e := range got {
		if e.Name == "Widget" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected Widget among matches, got %+v", got)
	}

	if len(idx.Search("doesnotexist")) != 0 {
		t.Fatalf("expected no matches for an unrelated query")
	}
}

func TestWorkspaceSymbolsConvertsEntries(t *testing.T) {
	idx := New()
	idx.UpdateSource("file:///a.cr", "class Widget\n  def render\n  end\nend\n")

	syms := idx.WorkspaceSymbols("Widget")
	if len(syms) == 0 {
		t.Fatalf("expected at least one symbol")
	}
	if syms[0].Location.URI != "file:///a.cr" {
		t.Fatalf("got %+v", syms[0])
	}
}

func TestForceScanBypassesDebounce(t *testing.T) {
	idx := New()
	idx.UpdateSource("file:///a.cr", "class A\nend\n")
	idx.debounce = 1 << 30
	idx.ForceScan("file:///a.cr", "class B\nend\n")
	if _, ok := idx.FindSymbolInfo("B"); !ok {
		t.Fatalf("expected forced scan to replace entries")
	}
}
