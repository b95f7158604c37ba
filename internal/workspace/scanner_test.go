package workspace

import "testing"

func TestScanFileNestedFQN(t *testing.T) {
	src := "module M\n  class C\n    property name : String\n    def greet\n    end\n  end\nend\n"
	entries := ScanFile("file:///a.cr", src)

	want := map[string]SymbolKind{
		"M":        SymModule,
		"M::C":     SymClass,
		"M::C::name": SymProperty,
		"M::C::greet": SymDef,
	}
	got := map[string]SymbolKind{}
	for _, e := range entries {
		got[e.FQN] = e.Kind
	}
	for fqn, kind := range want {
		gk, ok := got[fqn]
		if !ok {
			t.Fatalf("missing entry %q in %+v", fqn, entries)
		}
		if gk != kind {
			t.Errorf("entry %q: got kind %v, want %v", fqn, gk, kind)
		}
	}
}

func TestScanFileSuperclassAndInclude(t *testing.T) {
	src := "class Dog < Animal\n  include Comparable\nend\n"
	entries := ScanFile("file:///a.cr", src)
	if len(entries) != 1 {
		t.Fatalf("got %+v", entries)
	}
	e := entries[0]
	if e.Name != "Dog" || !contains(e.Super, "Animal") || !contains(e.Super, "Comparable") {
		t.Fatalf("got %+v", e)
	}
}

func TestScanFileIVarAndConst(t *testing.T) {
	src := "class Config\n  @timeout : Int32\n  MAX = 10\nend\n"
	entries := ScanFile("file:///a.cr", src)
	var foundIVar, foundConst bool
	for _, e := range entries {
		if e.Kind == SymIVar && e.Name == "timeout" && e.Detail == "Int32" {
			foundIVar = true
		}
		if e.Kind == SymConst && e.Name == "MAX" {
			foundConst = true
		}
	}
	if !foundIVar || !foundConst {
		t.Fatalf("got %+v", entries)
	}
}

func TestScanFileEnumMembers(t *testing.T) {
	src := "enum Color\n  Red\n  Green\n  Blue = 5\nend\n"
	entries := ScanFile("file:///a.cr", src)
	var names []string
	for _, e := range entries {
		if e.Kind == SymConst {
			names = append(names, e.Name)
		}
	}
	if len(names) != 3 {
		t.Fatalf("got %+v", entries)
	}
}

func contains(s, sub string) bool {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}
