package fenics

import (
	"strings"
	"testing"
)

func scanAll(t *testing.T, src string) []Token {
	t.Helper()
	toks, err := NewLexer(src).Scan()
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	return toks
}

func kinds(toks []Token) []TokenType {
	out := make([]TokenType, len(toks))
	for i, tk := range toks {
		out[i] = tk.Type
	}
	return out
}

func wantKinds(t *testing.T, src string, want ...TokenType) {
	t.Helper()
	got := kinds(scanAll(t, src))
	if len(got) != len(want) {
		t.Fatalf("%q: got %d tokens %v, want %d", src, len(got), got, len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("%q: token %d is %v, want %v", src, i, got[i], want[i])
		}
	}
}

func Test_Lexer_BasicStatement(t *testing.T) {
	wantKinds(t, `x: 1 + 2`, IDENT, COLON, INT, PLUS, INT, NEWLINE, EOF)
	wantKinds(t, `const y: 1.5`, CONST, IDENT, COLON, FLOAT, NEWLINE, EOF)
	wantKinds(t, `fn f(a) -> Int:`, FN, IDENT, LPAREN, IDENT, RPAREN, ARROW, IDENT, COLON, NEWLINE, EOF)
}

func Test_Lexer_Operators(t *testing.T) {
	wantKinds(t, `a == b != c === d !== e`, IDENT, EQ, IDENT, NEQ, IDENT, STRICTEQ, IDENT, STRICTNEQ, IDENT, NEWLINE, EOF)
	wantKinds(t, `a ** b ^ c`, IDENT, POW, IDENT, POW, IDENT, NEWLINE, EOF)
	wantKinds(t, `x +: 1`, IDENT, PLUSASSIGN, INT, NEWLINE, EOF)
	wantKinds(t, `x %: 2`, IDENT, PERCENTASSIGN, INT, NEWLINE, EOF)
	wantKinds(t, `x++`, IDENT, INCR, NEWLINE, EOF)
	wantKinds(t, `--x`, DECR, IDENT, NEWLINE, EOF)
	wantKinds(t, `s ~ r`, IDENT, MATCH, IDENT, NEWLINE, EOF)
	wantKinds(t, `s !~ r`, IDENT, NOTMATCH, IDENT, NEWLINE, EOF)
}

func Test_Lexer_RangeVsFloat(t *testing.T) {
	wantKinds(t, `1..5`, INT, DOTDOT, INT, NEWLINE, EOF)
	toks := scanAll(t, `1.5`)
	if toks[0].Type != FLOAT || toks[0].Float != 1.5 {
		t.Fatalf("got %v", toks[0])
	}
	toks = scanAll(t, `2e3`)
	if toks[0].Type != FLOAT || toks[0].Float != 2000 {
		t.Fatalf("got %v", toks[0])
	}
}

// '/' is a regex only where a value is expected.
func Test_Lexer_RegexVsDivision(t *testing.T) {
	wantKinds(t, `a / b`, IDENT, SLASH, IDENT, NEWLINE, EOF)
	wantKinds(t, `x: /ab/`, IDENT, COLON, REGEX, NEWLINE, EOF)
	wantKinds(t, `f(/a/, 1)`, IDENT, LPAREN, REGEX, COMMA, INT, RPAREN, NEWLINE, EOF)
	wantKinds(t, `[/a/]`, LBRACKET, REGEX, RBRACKET, NEWLINE, EOF)
	wantKinds(t, `s ~ /a+/i`, IDENT, MATCH, REGEX, NEWLINE, EOF)
	wantKinds(t, `(a) / 2`, LPAREN, IDENT, RPAREN, SLASH, INT, NEWLINE, EOF)

	toks := scanAll(t, `x: /a\/b/im`)
	re := toks[2]
	if re.Type != REGEX || re.Str != "a/b" || re.Flags != "im" {
		t.Fatalf("got %+v", re)
	}
}

func Test_Lexer_Comments(t *testing.T) {
	wantKinds(t, "x: 1 // trailing\n// whole line\ny: 2",
		IDENT, COLON, INT, NEWLINE, IDENT, COLON, INT, NEWLINE, EOF)
}

func Test_Lexer_StringSegments(t *testing.T) {
	toks := scanAll(t, `"a#{b}c"`)
	segs := toks[0].Segs
	if len(segs) != 3 {
		t.Fatalf("want 3 segments, got %d: %+v", len(segs), segs)
	}
	if segs[0].Text != "a" || segs[1].Expr != "b" || segs[2].Text != "c" {
		t.Fatalf("got %+v", segs)
	}

	// Nested braces stay inside one segment.
	toks = scanAll(t, `"#{f({a: 1})}"`)
	segs = toks[0].Segs
	if len(segs) != 1 || segs[0].Expr != "f({a: 1})" {
		t.Fatalf("got %+v", segs)
	}
}

func Test_Lexer_StringEscapes(t *testing.T) {
	toks := scanAll(t, `"a\n\t\"\\\#{x}"`)
	segs := toks[0].Segs
	if len(segs) != 1 || segs[0].Text != "a\n\t\"\\#{x}" {
		t.Fatalf("got %+v", segs)
	}
}

func Test_Lexer_Ephemeral(t *testing.T) {
	toks := scanAll(t, `#name: #0`)
	if toks[0].Type != EPHEMERAL || toks[0].Str != "name" {
		t.Fatalf("got %+v", toks[0])
	}
	if toks[2].Type != EPHEMERAL || toks[2].Str != "0" {
		t.Fatalf("got %+v", toks[2])
	}
}

func Test_Lexer_NewlineSuppressionInBrackets(t *testing.T) {
	src := "xs: [1,\n    2,\n    3]\n"
	wantKinds(t, src, IDENT, COLON, LBRACKET, INT, COMMA, INT, COMMA, INT, RBRACKET, NEWLINE, EOF)
}

func Test_Lexer_IndentTracking(t *testing.T) {
	src := "if x:\n    y: 1\n\ty: 2\n"
	toks := scanAll(t, src)
	if toks[0].Indent != 0 {
		t.Fatalf("if indent = %d", toks[0].Indent)
	}
	var indents []int
	for _, tk := range toks {
		if tk.Type == IDENT && tk.Str == "y" {
			indents = append(indents, tk.Indent)
		}
	}
	// A tab counts as four spaces.
	if len(indents) != 2 || indents[0] != 4 || indents[1] != 4 {
		t.Fatalf("indents = %v", indents)
	}
}

func Test_Lexer_CRLFNormalized(t *testing.T) {
	wantKinds(t, "x: 1\r\ny: 2\r\n", IDENT, COLON, INT, NEWLINE, IDENT, COLON, INT, NEWLINE, EOF)
}

func Test_Lexer_KeywordAfterDotIsProperty(t *testing.T) {
	wantKinds(t, `x.not`, IDENT, DOT, IDENT, NEWLINE, EOF)
}

func Test_Lexer_Errors(t *testing.T) {
	cases := []string{
		`"unterminated`,
		`"bad \q escape"`,
		`x = 1`,
		`# `,
		`x: /unterminated`,
	}
	for _, src := range cases {
		if _, err := NewLexer(src).Scan(); err == nil {
			t.Errorf("%q: expected a lex error", src)
		} else if !strings.Contains(err.Error(), "ParseError") {
			t.Errorf("%q: unexpected error %v", src, err)
		}
	}
}
