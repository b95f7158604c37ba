package workspace

import (
	"regexp"
	"strings"
)

// inferRule pairs a value-expression pattern with the Crystal type name it
// implies, checked in order — first match wins. This is the heuristic
// table spec.md §4.G calls for when a variable has no explicit `: Type`
// annotation and its type must be guessed from its initializer.
var inferRules = []struct {
	re   *regexp.Regexp
	kind string
}{
	{regexp.MustCompile(`^"`), "String"},
	{regexp.MustCompile(`^'`), "Char"},
	{regexp.MustCompile(`^:\w`), "Symbol"},
	{regexp.MustCompile(`^\[`), "Array"},
	{regexp.MustCompile(`^\{[^}]*=>`), "Hash"},
	{regexp.MustCompile(`^\{`), "Tuple"},
	{regexp.MustCompile(`^(true|false)\b`), "Bool"},
	{regexp.MustCompile(`^nil\b`), "Nil"},
	{regexp.MustCompile(`^-?\d+\.\d+`), "Float64"},
	{regexp.MustCompile(`^-?\d+\b`), "Int32"},
	{regexp.MustCompile(`^([A-Z][\w:]*)\.new\b`), "$1"},
	{regexp.MustCompile(`^([A-Z][\w:]*)\b`), "$1"},
}

// InferType guesses the Crystal type of a value expression's literal
// source text, e.g. the right-hand side of an assignment or an ivar's
// default value.
func InferType(expr string) (string, bool) {
	expr = strings.TrimSpace(expr)
	for _, rule := range inferRules {
		if m := rule.re.FindStringSubmatch(expr); m != nil {
			if rule.kind == "$1" {
				return m[1], true
			}
			return rule.kind, true
		}
	}
	return "", false
}

// GetTypeAtPosition resolves the type of word from uri's scanned entries:
// the first entry with that name wins, an ivar yielding its `: Type`
// annotation and a constant or alias the type inferred from its value.
// Property/getter/setter declarations and local variable assignments are
// not consulted.
func (idx *Index) GetTypeAtPosition(uri, word string) (string, bool) {
	idx.mu.RLock()
	entries := idx.workspaceCache[uri]
	idx.mu.RUnlock()

	for _, e := range entries {
		if e.Name != word {
			continue
		}
		switch e.Kind {
		case SymIVar:
			return e.Detail, true
		case SymConst, SymAlias:
			if t, ok := InferType(e.Detail); ok {
				return t, true
			}
		}
	}
	return "", false
}
