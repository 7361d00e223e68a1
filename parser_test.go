package fenics

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// astEqual compares ASTs structurally, ignoring source positions.
func astEqual(t *testing.T, got, want interface{}) {
	t.Helper()
	if diff := cmp.Diff(want, got, cmpopts.IgnoreTypes(Pos{})); diff != "" {
		t.Fatalf("AST mismatch (-want +got):\n%s", diff)
	}
}

func parseOne(t *testing.T, src string) Stmt {
	t.Helper()
	p, err := Parse(src)
	if err != nil {
		t.Fatalf("parse failed: %v\nsource:\n%s", err, src)
	}
	if len(p.Statements) != 1 {
		t.Fatalf("want 1 statement, got %d", len(p.Statements))
	}
	return p.Statements[0]
}

func parseExprOf(t *testing.T, src string) Expr {
	t.Helper()
	st := parseOne(t, src)
	es, ok := st.(*ExprStmt)
	if !ok {
		t.Fatalf("want ExprStmt, got %T", st)
	}
	return es.E
}

func Test_Parser_Declarations(t *testing.T) {
	astEqual(t, parseOne(t, `x: 1`), &AssignStmt{
		Target: &Ident{Name: "x"}, Op: ":", Value: &IntLit{V: 1},
	})
	astEqual(t, parseOne(t, `const pi: 3.14`), &VarDecl{
		Const: true, Name: "pi", Value: &FloatLit{V: 3.14},
	})
	astEqual(t, parseOne(t, `global hits: 0`), &VarDecl{
		Global: true, Name: "hits", Value: &IntLit{V: 0},
	})
	astEqual(t, parseOne(t, `Int const n: 1`), &VarDecl{
		TypeName: "Int", Const: true, Name: "n", Value: &IntLit{V: 1},
	})
	astEqual(t, parseOne(t, `String name: "x"`), &VarDecl{
		TypeName: "String", Name: "name",
		Value: &StringLit{Parts: []StringPart{{Text: "x"}}},
	})
}

func Test_Parser_DashedObjectBlock(t *testing.T) {
	src := `u:
    - name: "Ada",
    - "full name": "Ada Lovelace"
`
	astEqual(t, parseOne(t, src), &VarDecl{
		Name: "u",
		Value: &ObjectLit{
			Keys: []string{"name", "full name"},
			Values: []Expr{
				&StringLit{Parts: []StringPart{{Text: "Ada"}}},
				&StringLit{Parts: []StringPart{{Text: "Ada Lovelace"}}},
			},
		},
	})
}

func Test_Parser_FunctionDecl(t *testing.T) {
	src := `fn add(a: Int, b) -> Int:
    return a + b
`
	astEqual(t, parseOne(t, src), &FnDecl{
		Name:       "add",
		Params:     []Param{{Name: "a", TypeName: "Int"}, {Name: "b"}},
		ReturnType: "Int",
		Body: []Stmt{&ReturnStmt{
			Value: &Binary{Op: "+", L: &Ident{Name: "a"}, R: &Ident{Name: "b"}},
		}},
	})
}

func Test_Parser_IfElseChain(t *testing.T) {
	src := `if a:
    x: 1
else if b:
    x: 2
else:
    x: 3
`
	st := parseOne(t, src).(*IfStmt)
	if len(st.ElseIfs) != 1 || st.Else == nil {
		t.Fatalf("got %+v", st)
	}
}

func Test_Parser_NestedBlocks(t *testing.T) {
	src := `if a:
    if b:
        x: 1
    y: 2
z: 3
`
	p, err := Parse(src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(p.Statements) != 2 {
		t.Fatalf("want 2 top-level statements, got %d", len(p.Statements))
	}
	outer := p.Statements[0].(*IfStmt)
	if len(outer.Then) != 2 {
		t.Fatalf("outer body: %d statements", len(outer.Then))
	}
	inner := outer.Then[0].(*IfStmt)
	if len(inner.Then) != 1 {
		t.Fatalf("inner body: %d statements", len(inner.Then))
	}
}

func Test_Parser_TryCatch(t *testing.T) {
	src := `try:
    risky()
catch (e)
    handle(e)
`
	st := parseOne(t, src).(*TryStmt)
	if st.ErrName != "e" || len(st.Body) != 1 || len(st.Catch) != 1 {
		t.Fatalf("got %+v", st)
	}
}

func Test_Parser_LibAndImport(t *testing.T) {
	src := `lib mylib:
    - add
    - sub
`
	astEqual(t, parseOne(t, src), &LibStmt{Name: "mylib", Exports: []string{"add", "sub"}})

	astEqual(t, parseOne(t, `import mylib`), &ImportStmt{Ref: "mylib"})
	astEqual(t, parseOne(t, `import mylib as m`), &ImportStmt{Ref: "mylib", Alias: "m"})
	astEqual(t, parseOne(t, `import "dir/thing" as x`), &ImportStmt{Ref: "dir/thing", IsPath: true, Alias: "x"})
}

func Test_Parser_Precedence(t *testing.T) {
	// 1 + 2 * 3 parses as 1 + (2 * 3)
	astEqual(t, parseExprOf(t, `1 + 2 * 3`), &Binary{
		Op: "+",
		L:  &IntLit{V: 1},
		R:  &Binary{Op: "*", L: &IntLit{V: 2}, R: &IntLit{V: 3}},
	})
	// comparison binds tighter than equality
	astEqual(t, parseExprOf(t, `a < b == c`), &Binary{
		Op: "==",
		L:  &Binary{Op: "<", L: &Ident{Name: "a"}, R: &Ident{Name: "b"}},
		R:  &Ident{Name: "c"},
	})
	// not / and / or
	astEqual(t, parseExprOf(t, `not a and b or c`), &Binary{
		Op: "or",
		L: &Binary{
			Op: "and",
			L:  &Unary{Op: "not", Operand: &Ident{Name: "a"}},
			R:  &Ident{Name: "b"},
		},
		R: &Ident{Name: "c"},
	})
	// exponent is right-associative
	astEqual(t, parseExprOf(t, `2 ** 3 ** 2`), &Binary{
		Op: "**",
		L:  &IntLit{V: 2},
		R:  &Binary{Op: "**", L: &IntLit{V: 3}, R: &IntLit{V: 2}},
	})
	// postfix chains are left-associative
	astEqual(t, parseExprOf(t, `a.b[0](1).c`), &Member{
		Base: &Call{
			Fn: &Index{
				Base: &Member{Base: &Ident{Name: "a"}, Name: "b"},
				Idx:  &IntLit{V: 0},
			},
			Args: []Expr{&IntLit{V: 1}},
		},
		Name: "c",
	})
}

func Test_Parser_Ternaries(t *testing.T) {
	astEqual(t, parseExprOf(t, `a ? b : c`), &Ternary{
		Cond: &Ident{Name: "a"}, Then: &Ident{Name: "b"}, Else: &Ident{Name: "c"},
	})
	// Word form at statement level.
	astEqual(t, parseOne(t, `if a then b otherwise c`), &ExprStmt{
		E: &Ternary{
			Cond: &Ident{Name: "a"}, Then: &Ident{Name: "b"}, Else: &Ident{Name: "c"},
			WordForm: true,
		},
	})
	// Word form binds looser: its branches may contain `?:`.
	e := parseExprOf(t, `if a then b ? c : d otherwise e`).(*Ternary)
	if !e.WordForm {
		t.Fatal("want word form")
	}
	if _, ok := e.Then.(*Ternary); !ok {
		t.Fatalf("then branch: %T", e.Then)
	}
}

func Test_Parser_Interpolation(t *testing.T) {
	e := parseExprOf(t, `"a #{1 + x} b"`).(*StringLit)
	astEqual(t, e.Parts, []StringPart{
		{Text: "a "},
		{E: &Binary{Op: "+", L: &IntLit{V: 1}, R: &Ident{Name: "x"}}},
		{Text: " b"},
	})
}

func Test_Parser_RangeAndRegex(t *testing.T) {
	astEqual(t, parseExprOf(t, `0..10`), &RangeExpr{Lo: &IntLit{V: 0}, Hi: &IntLit{V: 10}})
	astEqual(t, parseExprOf(t, `x ~ /a+b/i`), &Binary{
		Op: "~",
		L:  &Ident{Name: "x"},
		R:  &RegexLit{Pattern: "a+b", Flags: "i"},
	})
}

func Test_Parser_AugmentedAndIncDec(t *testing.T) {
	astEqual(t, parseOne(t, `x +: 1`), &AssignStmt{
		Target: &Ident{Name: "x"}, Op: "+:", Value: &IntLit{V: 1},
	})
	astEqual(t, parseOne(t, `u.n -: 2`), &AssignStmt{
		Target: &Member{Base: &Ident{Name: "u"}, Name: "n"}, Op: "-:", Value: &IntLit{V: 2},
	})
	astEqual(t, parseOne(t, `xs[0] *: 3`), &AssignStmt{
		Target: &Index{Base: &Ident{Name: "xs"}, Idx: &IntLit{V: 0}}, Op: "*:", Value: &IntLit{V: 3},
	})
	astEqual(t, parseOne(t, `x++`), &ExprStmt{
		E: &Unary{Op: "++", Operand: &Ident{Name: "x"}, Postfix: true},
	})
	astEqual(t, parseOne(t, `--x`), &ExprStmt{
		E: &Unary{Op: "--", Operand: &Ident{Name: "x"}},
	})
}

func Test_Parser_ForVariants(t *testing.T) {
	src := `for k, v in m:
    use(k, v)
`
	st := parseOne(t, src).(*ForStmt)
	if st.Key != "k" || st.Name != "v" {
		t.Fatalf("got %+v", st)
	}
}

func Test_Parser_Ephemerals(t *testing.T) {
	astEqual(t, parseOne(t, `#n: 1`), &AssignStmt{
		Target: &Ephemeral{Name: "n"}, Op: ":", Value: &IntLit{V: 1},
	})
	astEqual(t, parseExprOf(t, `#n + 1`), &Binary{
		Op: "+", L: &Ephemeral{Name: "n"}, R: &IntLit{V: 1},
	})
}

func Test_Parser_Errors(t *testing.T) {
	cases := []struct {
		src string
		sub string
	}{
		{"if x:\nprint(1)", "indented block"},
		{"fn f(:\n    return 1", "parameter name"},
		{"try:\n    x: 1\nprint(2)", "expected 'catch'"},
		{"import", "module name or path"},
		{"x: ", "at least one"},
		{"1: 2", "invalid assignment target"},
		{"lib m:\nx: 1", "at least one"},
	}
	for _, tc := range cases {
		_, err := Parse(tc.src)
		if err == nil {
			t.Errorf("%q: expected parse error", tc.src)
			continue
		}
		pe, ok := err.(*ParseError)
		if !ok {
			t.Errorf("%q: got %T (%v)", tc.src, err, err)
			continue
		}
		if !strings.Contains(pe.Msg, tc.sub) {
			t.Errorf("%q: message %q does not mention %q", tc.src, pe.Msg, tc.sub)
		}
	}
}

func Test_Parser_ErrorPositions(t *testing.T) {
	_, err := Parse("x: 1\ny: (2 +\n")
	pe, ok := err.(*ParseError)
	if !ok {
		t.Fatalf("got %T: %v", err, err)
	}
	if pe.Line < 2 {
		t.Fatalf("want error on line >= 2, got %d", pe.Line)
	}
}
