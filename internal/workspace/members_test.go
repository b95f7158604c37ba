package workspace

import "testing"

func TestFindMemberDirectAndInherited(t *testing.T) {
	idx := New()
	idx.UpdateSource("file:///a.cr", "class Animal\n  def speak\n  end\nend\nclass Dog < Animal\n  def fetch\n  end\nend\n")

	if _, ok := idx.FindMethodDefinition("Dog", "fetch"); !ok {
		t.Fatalf("expected direct method")
	}
	if _, ok := idx.FindMethodDefinition("Dog", "speak"); !ok {
		t.Fatalf("expected inherited method via superclass chain")
	}
}

func TestGetClassMembers(t *testing.T) {
	idx := New()
	idx.UpdateSource("file:///a.cr", "class Widget\n  property name : String\n  def render\n  end\nend\n")
	members := idx.GetClassMembers("Widget")
	if len(members) != 2 {
		t.Fatalf("got %+v", members)
	}
}

func TestGetEnumValues(t *testing.T) {
	idx := New()
	idx.UpdateSource("file:///a.cr", "enum Color\n  Red\n  Green\n  Blue\nend\n")
	values := idx.GetEnumValues("Color")
	if len(values) != 3 {
		t.Fatalf("got %+v", values)
	}
}

func TestGetCompletionsForReceiver(t *testing.T) {
	idx := New()
	idx.UpdateSource("file:///a.cr", "class Widget\n  def render\n  end\nend\n")
	items := idx.GetCompletionsForReceiver("Widget")
	found := false
	for _, it := range items {
		if it.Label == "render" {
			found = true
		}
	}
	if !found {
		t.Fatalf("got %+v", items)
	}
}
