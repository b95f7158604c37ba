package crystal

import (
	"fmt"
	"strings"
)

// ParseError mirrors the teacher's *mindscript.Error shape for lex/parse
// failures: a 1-based line/col and a message, so diagnostics can be built
// uniformly (spec.md §4.E).
type ParseError struct {
	Line, Col int
	Msg       string
}

func (e *ParseError) Error() string { return fmt.Sprintf("%d:%d: %s", e.Line, e.Col, e.Msg) }

// blockOpeners are keywords that open an "end"-terminated block but do not
// themselves produce a document symbol (if/while/case/begin/do, etc.).
var blockOpeners = map[string]bool{
	"if": true, "unless": true, "while": true, "until": true, "case": true,
	"begin": true, "macro": true,
}

// frame tracks one open block on the parser's stack: the Node it is filling
// in (by pointer into the parent's Children slice) and whether it is a
// named, symbol-bearing block or an anonymous one (if/while/do/...).
type frame struct {
	node  *Node
	named bool
}

// Parse lexes and structurally parses src, returning the synthetic root
// Node (Kind == NodeBlock) whose Children are the top-level declarations.
// It never panics; a malformed "end"/unterminated block becomes a single
// *ParseError, matching the "one diagnostic on syntax failure" contract.
func Parse(src string) (Node, error) {
	lx := NewLexer(src)
	toks := lx.Scan()
	lines := groupLines(toks)

	root := Node{Kind: NodeBlock, Span: Span{StartLine: 1, EndLine: len(lines) + 1, EndByte: len(src)}}
	stack := []frame{{node: &root, named: true}}

	var pendingDoc []string
	flushDoc := func() string {
		doc := strings.Join(pendingDoc, "\n")
		pendingDoc = nil
		return doc
	}

	for _, line := range lines {
		sig := firstSignificant(line)
		if sig == nil {
			continue
		}
		if sig.Type == Comment {
			pendingDoc = append(pendingDoc, strings.TrimLeft(strings.TrimPrefix(sig.Lexeme, "#"), " "))
			continue
		}
		if len(line) == 0 {
			pendingDoc = nil
			continue
		}

		top := &stack[len(stack)-1]
		kw := ""
		if sig.Type == Keyword {
			kw = sig.Lexeme
		}

		switch {
		case kw == "end":
			if len(stack) <= 1 {
				return root, &ParseError{Line: sig.Line, Col: sig.Col, Msg: "unexpected 'end' with no matching block"}
			}
			closing := stack[len(stack)-1]
			closing.node.Span.EndByte = sig.EndByte
			closing.node.Span.EndLine = sig.Line
			stack = stack[:len(stack)-1]
			pendingDoc = nil

		case kw == "class" || kw == "module" || kw == "struct" || kw == "enum" || kw == "lib":
			n := parseTypeDecl(kw, line, flushDoc())
			top.node.Children = append(top.node.Children, n)
			pushed := &top.node.Children[len(top.node.Children)-1]
			stack = append(stack, frame{node: pushed, named: true})

		case kw == "def":
			n := parseDef(line, flushDoc(), false)
			top.node.Children = append(top.node.Children, n)
			pushed := &top.node.Children[len(top.node.Children)-1]
			stack = append(stack, frame{node: pushed, named: true})

		case kw == "private" || kw == "protected" || kw == "abstract":
			rest := skipLeading(line, 1)
			if len(rest) > 0 && rest[0].Type == Keyword && rest[0].Lexeme == "def" {
				n := parseDef(rest, flushDoc(), true)
				top.node.Children = append(top.node.Children, n)
				pushed := &top.node.Children[len(top.node.Children)-1]
				stack = append(stack, frame{node: pushed, named: true})
			} else {
				pendingDoc = nil
			}

		case kw == "fun":
			n := parseFun(line, flushDoc())
			top.node.Children = append(top.node.Children, n)
			pendingDoc = nil

		case kw == "require":
			n := parseRequire(line)
			top.node.Children = append(top.node.Children, n)
			pendingDoc = nil

		case kw == "alias":
			n := parseAlias(line, flushDoc())
			top.node.Children = append(top.node.Children, n)
			pendingDoc = nil

		case sig.Type == Ident && (sig.Lexeme == "property" || sig.Lexeme == "getter" || sig.Lexeme == "setter"):
			nodes := parseAccessors(line, flushDoc())
			top.node.Children = append(top.node.Children, nodes...)

		case sig.Type == IVar:
			if n, ok := parseIVarDecl(line); ok {
				top.node.Children = append(top.node.Children, n)
			}
			pendingDoc = nil

		case sig.Type == Const && hasAssign(line):
			n := parseConstAssign(line, flushDoc(), src)
			top.node.Children = append(top.node.Children, n)

		case sig.Type == Ident && hasAssign(line):
			n := parseVarAssign(line, flushDoc(), src)
			top.node.Children = append(top.node.Children, n)

		case isEnumMember(top, line):
			n := parseEnumMember(line)
			top.node.Children = append(top.node.Children, n)

		case blockOpeners[kw] || endsWithDo(line):
			anon := &Node{Kind: NodeBlock, Span: Span{StartByte: sig.StartByte, StartLine: sig.Line}}
			top.node.Children = append(top.node.Children, *anon)
			pushed := &top.node.Children[len(top.node.Children)-1]
			stack = append(stack, frame{node: pushed, named: false})
			pendingDoc = nil

		default:
			pendingDoc = nil
		}
	}

	if len(stack) > 1 {
		last := stack[len(stack)-1]
		return root, &ParseError{Line: last.node.Span.StartLine, Col: 1, Msg: fmt.Sprintf("unterminated block starting at line %d", last.node.Span.StartLine)}
	}
	return root, nil
}

func groupLines(toks []Token) [][]Token {
	var lines [][]Token
	var cur []Token
	for _, t := range toks {
		if t.Type == EOF {
			if len(cur) > 0 {
				lines = append(lines, cur)
			}
			break
		}
		if t.Type == Newline {
			lines = append(lines, cur)
			cur = nil
			continue
		}
		cur = append(cur, t)
	}
	return lines
}

func firstSignificant(line []Token) *Token {
	if len(line) == 0 {
		return nil
	}
	return &line[0]
}

func skipLeading(line []Token, n int) []Token {
	if n >= len(line) {
		return nil
	}
	return line[n:]
}

func hasAssign(line []Token) bool {
	for _, t := range line {
		if t.Type == Operator && t.Lexeme == "=" {
			return true
		}
		if t.Type == Operator && (t.Lexeme == "==" || t.Lexeme == "<=" || t.Lexeme == ">=" || t.Lexeme == "!=") {
			return false
		}
	}
	return false
}

func endsWithDo(line []Token) bool {
	last := line[len(line)-1]
	return last.Type == Keyword && last.Lexeme == "do"
}

func isEnumMember(top *frame, line []Token) bool {
	if top.node.Kind != NodeEnum {
		return false
	}
	return len(line) > 0 && line[0].Type == Const
}

func nameSpanOf(t Token) Span {
	return Span{StartByte: t.StartByte, EndByte: t.EndByte, StartLine: t.Line, EndLine: t.Line}
}

func parseTypeDecl(kw string, line []Token, doc string) Node {
	kind := NodeClass
	switch kw {
	case "module":
		kind = NodeModule
	case "struct":
		kind = NodeStruct
	case "enum":
		kind = NodeEnum
	case "lib":
		kind = NodeLib
	}
	name := ""
	var nameSpan Span
	detail := ""
	for i := 1; i < len(line); i++ {
		if line[i].Type == Const && name == "" {
			name = line[i].Lexeme
			nameSpan = nameSpanOf(line[i])
			continue
		}
		if name != "" && line[i].Type == Operator && line[i].Lexeme == "<" && i+1 < len(line) {
			detail = line[i+1].Lexeme
			break
		}
	}
	start := line[0]
	return Node{
		Kind: kind, Name: name, Detail: detail, Doc: doc,
		Span:     Span{StartByte: start.StartByte, StartLine: start.Line, EndLine: start.Line, EndByte: line[len(line)-1].EndByte},
		NameSpan: nameSpan,
	}
}

func parseDef(line []Token, doc string, private bool) Node {
	name := ""
	var nameSpan Span
	returnType := ""
	depth := 0
	sawColon := false
	for i := 1; i < len(line); i++ {
		t := line[i]
		if name == "" && (t.Type == Ident || t.Type == Const || t.Type == Keyword) {
			// allow "self." prefix: def self.foo
			if t.Lexeme == "self" && i+1 < len(line) && line[i+1].Lexeme == "." {
				i++
				continue
			}
			name = t.Lexeme
			nameSpan = nameSpanOf(t)
			continue
		}
		if t.Type == Operator && t.Lexeme == "(" {
			depth++
			continue
		}
		if t.Type == Operator && t.Lexeme == ")" {
			depth--
			continue
		}
		if depth == 0 && t.Type == Operator && t.Lexeme == ":" {
			sawColon = true
			continue
		}
		if sawColon && returnType == "" && (t.Type == Const || t.Type == Ident) {
			returnType = t.Lexeme
		}
	}
	if returnType == "" {
		returnType = "Nil" // default inferred return, overridden by workspace body inference
	}
	detail := name + "(...) : " + returnType
	if private {
		detail = "private " + detail
	}
	start := line[0]
	return Node{
		Kind: NodeDef, Name: name, Detail: detail, Doc: doc,
		Span:     Span{StartByte: start.StartByte, StartLine: start.Line, EndLine: start.Line, EndByte: line[len(line)-1].EndByte},
		NameSpan: nameSpan,
	}
}

func parseFun(line []Token, doc string) Node {
	name := ""
	var nameSpan Span
	cname := ""
	returnType := "Void"
	depth := 0
	sawAssign, sawColon := false, false
	for i := 1; i < len(line); i++ {
		t := line[i]
		if name == "" && (t.Type == Ident || t.Type == Const) {
			name = t.Lexeme
			nameSpan = nameSpanOf(t)
			continue
		}
		if t.Type == Operator && t.Lexeme == "=" && depth == 0 {
			sawAssign = true
			continue
		}
		if sawAssign && cname == "" && (t.Type == Ident || t.Type == Const) {
			cname = t.Lexeme
			sawAssign = false
			continue
		}
		if t.Type == Operator && t.Lexeme == "(" {
			depth++
		}
		if t.Type == Operator && t.Lexeme == ")" {
			depth--
		}
		if depth == 0 && t.Type == Operator && t.Lexeme == ":" {
			sawColon = true
			continue
		}
		if sawColon && (t.Type == Const || t.Type == Ident) {
			returnType = t.Lexeme
			sawColon = false
		}
	}
	detail := name
	if cname != "" {
		detail += " = " + cname
	}
	detail += "(...) : " + returnType
	start := line[0]
	return Node{
		Kind: NodeFun, Name: name, Detail: detail, Doc: doc,
		Span:     Span{StartByte: start.StartByte, StartLine: start.Line, EndLine: start.Line, EndByte: line[len(line)-1].EndByte},
		NameSpan: nameSpan,
	}
}

func parseRequire(line []Token) Node {
	path := ""
	for _, t := range line {
		if t.Type == String {
			path = strings.Trim(t.Lexeme, `"`)
			break
		}
	}
	start := line[0]
	return Node{
		Kind: NodeRequire, Name: path, Detail: path,
		Span: Span{StartByte: start.StartByte, StartLine: start.Line, EndLine: start.Line, EndByte: line[len(line)-1].EndByte},
	}
}

func parseAlias(line []Token, doc string) Node {
	name := ""
	var nameSpan Span
	target := ""
	sawAssign := false
	for i := 1; i < len(line); i++ {
		t := line[i]
		if name == "" && t.Type == Const {
			name = t.Lexeme
			nameSpan = nameSpanOf(t)
			continue
		}
		if t.Type == Operator && t.Lexeme == "=" {
			sawAssign = true
			continue
		}
		if sawAssign {
			target += t.Lexeme
		}
	}
	start := line[0]
	return Node{
		Kind: NodeAlias, Name: name, Detail: target, Doc: doc,
		Span:     Span{StartByte: start.StartByte, StartLine: start.Line, EndLine: start.Line, EndByte: line[len(line)-1].EndByte},
		NameSpan: nameSpan,
	}
}

func parseAccessors(line []Token, doc string) []Node {
	kind := line[0].Lexeme
	var out []Node
	cur := ""
	var curSpan Span
	curType := ""
	sawColon := false
	flush := func() {
		if cur == "" {
			return
		}
		start := line[0]
		out = append(out, Node{
			Kind: NodeProperty, Name: cur, Detail: kind + " : " + curType, Doc: doc,
			Span:     Span{StartByte: start.StartByte, StartLine: start.Line, EndLine: start.Line, EndByte: line[len(line)-1].EndByte},
			NameSpan: curSpan,
		})
		cur, curType, sawColon = "", "", false
	}
	for i := 1; i < len(line); i++ {
		t := line[i]
		if t.Type == Operator && t.Lexeme == "," {
			flush()
			continue
		}
		if t.Type == Operator && t.Lexeme == ":" {
			sawColon = true
			continue
		}
		if sawColon {
			if curType == "" {
				curType = t.Lexeme
			}
			continue
		}
		if t.Type == Ident && cur == "" {
			cur = t.Lexeme
			curSpan = nameSpanOf(t)
		}
	}
	flush()
	return out
}

func parseIVarDecl(line []Token) (Node, bool) {
	if len(line) < 3 {
		return Node{}, false
	}
	ivar := line[0]
	if line[1].Type != Operator || line[1].Lexeme != ":" {
		return Node{}, false
	}
	typ := line[2].Lexeme
	return Node{
		Kind: NodeIVarDecl, Name: ivar.Lexeme, Detail: typ,
		Span:     Span{StartByte: ivar.StartByte, StartLine: ivar.Line, EndLine: ivar.Line, EndByte: line[len(line)-1].EndByte},
		NameSpan: nameSpanOf(ivar),
	}, true
}

func parseConstAssign(line []Token, doc, src string) Node {
	name := line[0]
	start := line[0]
	return Node{
		Kind: NodeAssign, Name: name.Lexeme, Detail: rhsExpr(line, src), Doc: doc,
		Span:     Span{StartByte: start.StartByte, StartLine: start.Line, EndLine: start.Line, EndByte: line[len(line)-1].EndByte},
		NameSpan: nameSpanOf(name),
	}
}

func parseVarAssign(line []Token, doc, src string) Node {
	name := line[0]
	start := line[0]
	return Node{
		Kind: NodeAssign, Name: name.Lexeme, Detail: rhsExpr(line, src), Doc: doc,
		Span:     Span{StartByte: start.StartByte, StartLine: start.Line, EndLine: start.Line, EndByte: line[len(line)-1].EndByte},
		NameSpan: nameSpanOf(name),
	}
}

// rhsExpr slices the original source text after the first "=" on the line,
// preserving exact spacing (e.g. "Widget.new") so workspace.InferType's
// pattern table matches it, rather than rejoining token lexemes.
func rhsExpr(line []Token, src string) string {
	for i, t := range line {
		if t.Type == Operator && t.Lexeme == "=" {
			if i+1 >= len(line) {
				return ""
			}
			start := line[i+1].StartByte
			end := line[len(line)-1].EndByte
			if start < 0 || end > len(src) || start > end {
				return ""
			}
			return strings.TrimSpace(src[start:end])
		}
	}
	return ""
}

func parseEnumMember(line []Token) Node {
	name := line[0]
	return Node{
		Kind: NodeEnumMember, Name: name.Lexeme,
		Span:     Span{StartByte: name.StartByte, StartLine: name.Line, EndLine: name.Line, EndByte: line[len(line)-1].EndByte},
		NameSpan: nameSpanOf(name),
	}
}
