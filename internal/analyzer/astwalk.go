package analyzer

import (
	"strings"
	"unicode"

	"github.com/navid-m/liger/internal/crystal"
	"github.com/navid-m/liger/internal/lsptypes"
	"github.com/navid-m/liger/internal/syntax"
	"github.com/navid-m/liger/internal/workspace"
)

func isContainerNode(k crystal.NodeKind) bool {
	switch k {
	case crystal.NodeClass, crystal.NodeModule, crystal.NodeStruct, crystal.NodeEnum, crystal.NodeLib:
		return true
	default:
		return false
	}
}

// findIVarInTree finds an @name : Type declaration anywhere in the tree
// and returns its name-token range. name is given without the "@"; the
// parser keeps the "@" in NodeIVarDecl names.
func findIVarInTree(n crystal.Node, name string) (lsptypes.Range, bool) {
	for _, c := range n.Children {
		if c.Kind == crystal.NodeIVarDecl && strings.TrimPrefix(c.Name, "@") == name {
			return spanRange(c.NameSpan, c.Name), true
		}
		if r, ok := findIVarInTree(c, name); ok {
			return r, true
		}
	}
	return lsptypes.Range{}, false
}

func findIVarType(n crystal.Node, name string) (string, bool) {
	for _, c := range n.Children {
		if c.Kind == crystal.NodeIVarDecl && strings.TrimPrefix(c.Name, "@") == name {
			return c.Detail, true
		}
		if t, ok := findIVarType(c, name); ok {
			return t, true
		}
	}
	return "", false
}

// findDeclInTree finds any named declaration (class, module, struct, enum,
// def, fun, alias, property) anywhere in the tree by its short name.
func findDeclInTree(n crystal.Node, name string) (lsptypes.Range, bool) {
	for _, c := range n.Children {
		switch c.Kind {
		case crystal.NodeClass, crystal.NodeModule, crystal.NodeStruct, crystal.NodeEnum,
			crystal.NodeDef, crystal.NodeFun, crystal.NodeAlias, crystal.NodeProperty:
			if c.Name == name {
				return spanRange(c.NameSpan, c.Name), true
			}
		}
		if r, ok := findDeclInTree(c, name); ok {
			return r, true
		}
	}
	return lsptypes.Range{}, false
}

// findAssignedType walks NodeAssign nodes (CONST = expr or var = expr) for
// a matching name and infers the right-hand side's type.
func findAssignedType(n crystal.Node, name string) (string, bool) {
	for _, c := range n.Children {
		if c.Kind == crystal.NodeAssign && c.Name == name {
			if t, ok := workspace.InferType(c.Detail); ok {
				return t, true
			}
		}
		if t, ok := findAssignedType(c, name); ok {
			return t, true
		}
	}
	return "", false
}

func spanRange(sp crystal.Span, name string) lsptypes.Range {
	line := sp.StartLine - 1
	if line < 0 {
		line = 0
	}
	return lsptypes.Range{
		Start: lsptypes.Position{Line: line, Character: 0},
		End:   lsptypes.Position{Line: line, Character: len([]rune(name))},
	}
}

func isBuiltinType(word string) bool {
	for _, t := range syntax.BuiltinTypes() {
		if t == word {
			return true
		}
	}
	return false
}

func isKeyword(word string) bool {
	for _, k := range syntax.Keywords() {
		if k == word {
			return true
		}
	}
	return false
}

func dedupByLabel(items []lsptypes.CompletionItem) []lsptypes.CompletionItem {
	seen := make(map[string]bool, len(items))
	out := make([]lsptypes.CompletionItem, 0, len(items))
	for _, it := range items {
		if seen[it.Label] {
			continue
		}
		seen[it.Label] = true
		out = append(out, it)
	}
	return out
}

// receiverBefore reports the bare identifier immediately before a "."
// ending right at character, e.g. for "w.re" at character 2 it returns
// ("w", true). A leading "@" is included, so ivar receivers come back as
// e.g. "@count" rather than "count".
func receiverBefore(line string, character int) (string, bool) {
	runes := []rune(line)
	if character < 0 || character > len(runes) {
		return "", false
	}
	before := runes[:character]
	if len(before) == 0 || before[len(before)-1] != '.' {
		return "", false
	}
	end := len(before) - 1
	start := end
	for start > 0 && isIdentRune(before[start-1]) {
		start--
	}
	if start > 0 && before[start-1] == '@' {
		start--
	}
	if start == end {
		return "", false
	}
	return string(before[start:end]), true
}

// receiverType resolves the type of a receiver name captured by
// receiverBefore: an ivar walks the current file's @name : Type
// declarations, anything else walks its assignments.
func receiverType(root crystal.Node, receiver string) (string, bool) {
	if strings.HasPrefix(receiver, "@") {
		return findIVarType(root, strings.TrimPrefix(receiver, "@"))
	}
	return findAssignedType(root, receiver)
}

// findFunAtLine finds a NodeFun declared on the given 0-based line whose
// own name matches word, i.e. the cursor sits on the fun's name token in
// its own "fun name(...) : T" declaration.
func findFunAtLine(n crystal.Node, line int, word string) (crystal.Node, bool) {
	for _, c := range n.Children {
		if c.Kind == crystal.NodeFun && c.Span.StartLine-1 == line && c.Name == word {
			return c, true
		}
		if f, ok := findFunAtLine(c, line, word); ok {
			return f, true
		}
	}
	return crystal.Node{}, false
}

// findRequireAtLine finds the require statement, if any, declared on the
// given 0-based line.
func findRequireAtLine(n crystal.Node, line int) (crystal.Node, bool) {
	for _, c := range n.Children {
		if c.Kind == crystal.NodeRequire && c.Span.StartLine-1 == line {
			return c, true
		}
		if r, ok := findRequireAtLine(c, line); ok {
			return r, true
		}
	}
	return crystal.Node{}, false
}

func isIdentRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

// wholeWordOccurrences returns the [start,end) rune-index ranges of every
// whole-word occurrence of target in line. When isIVar is true, the match
// must be immediately preceded by "@" and the returned range includes the
// "@".
func wholeWordOccurrences(line, target string, isIVar bool) [][2]int {
	var out [][2]int
	runes := []rune(line)
	needle := target
	if isIVar {
		needle = "@" + target
	}
	needleRunes := []rune(needle)
	for i := 0; i+len(needleRunes) <= len(runes); i++ {
		if string(runes[i:i+len(needleRunes)]) != needle {
			continue
		}
		if i > 0 && isIdentRune(runes[i-1]) {
			continue
		}
		endIdx := i + len(needleRunes)
		if endIdx < len(runes) && isIdentRune(runes[endIdx]) {
			continue
		}
		out = append(out, [2]int{i, endIdx})
	}
	return out
}
