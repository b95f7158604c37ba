package crystal

import "testing"

func TestLexIdentifiersAndKeywords(t *testing.T) {
	toks := NewLexer("class Foo\n  def bar\n  end\nend\n").Scan()
	var kinds []TokenType
	for _, tk := range toks {
		if tk.Type == Newline || tk.Type == EOF {
			continue
		}
		kinds = append(kinds, tk.Type)
	}
	want := []TokenType{Keyword, Const, Keyword, Ident, Keyword, Keyword}
	if len(kinds) != len(want) {
		t.Fatalf("got %d tokens %v, want %d", len(kinds), kinds, len(want))
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("token %d: got %v, want %v", i, kinds[i], want[i])
		}
	}
}

func TestLexIVarAndSymbol(t *testing.T) {
	toks := NewLexer("@name : String\nfoo(:bar)").Scan()
	if toks[0].Type != IVar || toks[0].Lexeme != "@name" {
		t.Fatalf("got %+v", toks[0])
	}
	found := false
	for _, tk := range toks {
		if tk.Type == Symbol && tk.Lexeme == ":bar" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a :bar symbol token")
	}
}

func TestLexStringWithEscape(t *testing.T) {
	toks := NewLexer(`"a \"b\" c"`).Scan()
	if toks[0].Type != String {
		t.Fatalf("got %+v", toks[0])
	}
	if toks[0].Lexeme != `"a \"b\" c"` {
		t.Fatalf("got lexeme %q", toks[0].Lexeme)
	}
}
