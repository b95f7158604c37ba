// Package workspace is the workspace index component from spec.md §4.G:
// a line-oriented regex scanner builds a flat symbol table per file, kept
// fresh by a short debounce window, and three tiers of lookup caches serve
// definition/hover/completion requests without re-parsing every keystroke.
package workspace

import (
	"regexp"
	"strings"

	"github.com/navid-m/liger/internal/lsptypes"
)

// SymbolKind tags what kind of declaration a scanned entry names.
type SymbolKind int

const (
	SymClass SymbolKind = iota
	SymModule
	SymStruct
	SymEnum
	SymLib
	SymDef
	SymFun
	SymProperty
	SymIVar
	SymAlias
	SymConst
)

// containerKinds can hold nested declarations and participate in the
// namespace stack; the rest are leaves.
func (k SymbolKind) isContainer() bool {
	switch k {
	case SymClass, SymModule, SymStruct, SymEnum, SymLib:
		return true
	default:
		return false
	}
}

// Entry is one scanned declaration: its short name, its fully-qualified
// name built from the enclosing namespace stack, and where it lives.
type Entry struct {
	Name   string
	FQN    string
	Kind   SymbolKind
	URI    string
	Line   int // 0-based
	Detail string
	Super  string // superclass/included-module name, when present
}

func (e Entry) Range() lsptypes.Range {
	return lsptypes.Range{
		Start: lsptypes.Position{Line: e.Line, Character: 0},
		End:   lsptypes.Position{Line: e.Line, Character: len(e.Name)},
	}
}

// Regex table in the precedence order ScanFile applies: a bare "end" that
// closes the innermost namespace is handled before anything else; then lib
// beats class/module/struct/enum, which beat fun, which beats def, which
// beats property/getter/setter, which beats @ivar : T, which beats alias,
// which beats include/extend, which beats CONST = expr, and an enum member
// inside an enum is tried last.
var (
	libRe     = regexp.MustCompile(`^\s*lib\s+([A-Z]\w*)`)
	classRe   = regexp.MustCompile(`^\s*(?:abstract\s+)?class\s+([A-Z][\w:]*)(?:\s*<\s*([A-Z][\w:]*))?`)
	moduleRe  = regexp.MustCompile(`^\s*module\s+([A-Z][\w:]*)`)
	structRe  = regexp.MustCompile(`^\s*struct\s+([A-Z][\w:]*)(?:\s*<\s*([A-Z][\w:]*))?`)
	enumRe    = regexp.MustCompile(`^\s*enum\s+([A-Z][\w:]*)`)
	funRe     = regexp.MustCompile(`^\s*fun\s+(\w+)`)
	defRe     = regexp.MustCompile(`^\s*(?:private\s+|protected\s+)?def\s+(?:self\.)?([A-Za-z_]\w*[?!=]?)`)
	propRe    = regexp.MustCompile(`^\s*(property|getter|setter)[!?]?\s+(.+)`)
	ivarRe    = regexp.MustCompile(`^\s*@(\w+)\s*:\s*([^\s=]+)`)
	aliasRe   = regexp.MustCompile(`^\s*alias\s+(\w+)\s*=\s*(.+)`)
	constRe   = regexp.MustCompile(`^\s*([A-Z][A-Z0-9_]*)\s*=\s*(.+)`)
	endRe     = regexp.MustCompile(`^\s*end\b`)
	includeRe = regexp.MustCompile(`^\s*(?:include|extend)\s+([A-Z][\w:]*)`)
)

type frame struct {
	name   string
	indent int
	kind   SymbolKind
}

var enumMemberRe = regexp.MustCompile(`^([A-Z]\w*)(?:\s*=\s*(.+))?$`)

// ScanFile runs the regex table over one document's text and returns the
// flat entry list, keyed under its own URI so the caller can merge it into
// the workspace-wide index.
func ScanFile(uri, text string) []Entry {
	var entries []Entry
	var stack []frame

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		indent := leadingSpaces(line)
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		if endRe.MatchString(line) && len(stack) > 0 && indent <= stack[len(stack)-1].indent {
			stack = stack[:len(stack)-1]
			continue
		}

		switch {
		case libRe.MatchString(line):
			m := libRe.FindStringSubmatch(line)
			e := push(&stack, uri, i, indent, m[1], SymLib, "")
			entries = append(entries, e)
		case classRe.MatchString(line):
			m := classRe.FindStringSubmatch(line)
			e := push(&stack, uri, i, indent, m[1], SymClass, m[2])
			entries = append(entries, e)
		case moduleRe.MatchString(line):
			m := moduleRe.FindStringSubmatch(line)
			e := push(&stack, uri, i, indent, m[1], SymModule, "")
			entries = append(entries, e)
		case structRe.MatchString(line):
			m := structRe.FindStringSubmatch(line)
			e := push(&stack, uri, i, indent, m[1], SymStruct, m[2])
			entries = append(entries, e)
		case enumRe.MatchString(line):
			m := enumRe.FindStringSubmatch(line)
			e := push(&stack, uri, i, indent, m[1], SymEnum, "")
			entries = append(entries, e)
		case funRe.MatchString(line):
			m := funRe.FindStringSubmatch(line)
			entries = append(entries, leaf(stack, uri, i, m[1], SymFun, ""))
		case defRe.MatchString(line):
			m := defRe.FindStringSubmatch(line)
			entries = append(entries, leaf(stack, uri, i, m[1], SymDef, ""))
		case propRe.MatchString(line):
			m := propRe.FindStringSubmatch(line)
			for _, name := range splitNames(m[2]) {
				entries = append(entries, leaf(stack, uri, i, name, SymProperty, m[1]))
			}
		case ivarRe.MatchString(line):
			m := ivarRe.FindStringSubmatch(line)
			entries = append(entries, leaf(stack, uri, i, m[1], SymIVar, m[2]))
		case aliasRe.MatchString(line):
			m := aliasRe.FindStringSubmatch(line)
			entries = append(entries, leaf(stack, uri, i, m[1], SymAlias, m[2]))
		case includeRe.MatchString(line):
			// Recorded as detail on the enclosing container, not a symbol
			// of its own; used by member resolution to widen lookups.
			if len(stack) > 0 {
				m := includeRe.FindStringSubmatch(line)
				for idx := range entries {
					if entries[idx].FQN == fqn(stack) && entries[idx].Kind.isContainer() {
						entries[idx].Super = appendSuper(entries[idx].Super, m[1])
					}
				}
			}
		case constRe.MatchString(line):
			m := constRe.FindStringSubmatch(line)
			entries = append(entries, leaf(stack, uri, i, m[1], SymConst, m[2]))
		case len(stack) > 0 && stack[len(stack)-1].kind == SymEnum && enumMemberRe.MatchString(trimmed):
			m := enumMemberRe.FindStringSubmatch(trimmed)
			entries = append(entries, leaf(stack, uri, i, m[1], SymConst, m[2]))
		}
	}

	return entries
}

func push(stack *[]frame, uri string, line, indent int, name string, kind SymbolKind, super string) Entry {
	e := Entry{
		Name:   name,
		FQN:    joinFQN(*stack, name),
		Kind:   kind,
		URI:    uri,
		Line:   line,
		Super:  super,
	}
	*stack = append(*stack, frame{name: name, indent: indent, kind: kind})
	return e
}

func leaf(stack []frame, uri string, line int, name string, kind SymbolKind, detail string) Entry {
	return Entry{
		Name:   name,
		FQN:    joinFQN(stack, name),
		Kind:   kind,
		URI:    uri,
		Line:   line,
		Detail: detail,
	}
}

func joinFQN(stack []frame, name string) string {
	if len(stack) == 0 {
		return name
	}
	return fqn(stack) + "::" + name
}

func fqn(stack []frame) string {
	parts := make([]string, len(stack))
	for i, f := range stack {
		parts[i] = f.name
	}
	return strings.Join(parts, "::")
}

func appendSuper(existing, add string) string {
	if existing == "" {
		return add
	}
	return existing + "," + add
}

func leadingSpaces(line string) int {
	n := 0
	for _, r := range line {
		if r == ' ' || r == '\t' {
			n++
			continue
		}
		break
	}
	return n
}

func splitNames(rest string) []string {
	rest = strings.TrimSpace(rest)
	// strip a trailing type annotation: "property name : Type"
	if idx := strings.Index(rest, ":"); idx >= 0 && !strings.Contains(rest[:idx], ",") {
		rest = rest[:idx]
	}
	var names []string
	for _, part := range strings.Split(rest, ",") {
		part = strings.TrimSpace(part)
		part = strings.TrimPrefix(part, "@")
		part = strings.TrimSuffix(part, "!")
		part = strings.TrimSuffix(part, "?")
		if part != "" {
			names = append(names, part)
		}
	}
	return names
}
