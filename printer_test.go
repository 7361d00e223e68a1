package fenics

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// roundTrip asserts parse(FormatProgram(parse(src))) equals parse(src)
// structurally: the printer/parser round-trip property.
func roundTrip(t *testing.T, src string) {
	t.Helper()
	first, err := Parse(src)
	if err != nil {
		t.Fatalf("parse failed: %v\nsource:\n%s", err, src)
	}
	printed := FormatProgram(first)
	second, err := Parse(printed)
	if err != nil {
		t.Fatalf("reparse failed: %v\nprinted:\n%s", err, printed)
	}
	if diff := cmp.Diff(first, second, cmpopts.IgnoreTypes(Pos{})); diff != "" {
		t.Fatalf("round trip changed the AST (-first +second):\n%s\nprinted:\n%s", diff, printed)
	}
}

func Test_RoundTrip_Statements(t *testing.T) {
	cases := []string{
		"x: 1\n",
		"const pi: 3.14\n",
		"global hits: 0\n",
		"Int const n: 7\n",
		"u:\n    - name: \"Ada\",\n    - age: 36\n",
		"fn add(a: Int, b) -> Int:\n    return a + b\n",
		"fn f():\n    return\n",
		"if a:\n    x: 1\nelse if b:\n    x: 2\nelse:\n    x: 3\n",
		"for x in xs:\n    print(x)\n",
		"for k, v in m:\n    print(k, v)\n",
		"for i in 0..10:\n    print(i)\n",
		"while n < 3:\n    n +: 1\n",
		"loop ready:\n    block tick\n",
		"try:\n    risky()\ncatch (e)\n    print(e.kind)\n",
		"lib mylib:\n    - add\n    - sub\n",
		"import mylib\n",
		"import mylib as m\n",
		"import \"dir/thing\" as x\n",
		"x +: 1\nu.n -: 2\nxs[0] *: 3\n",
		"x++\n--y\n",
	}
	for _, src := range cases {
		roundTrip(t, src)
	}
}

func Test_RoundTrip_Expressions(t *testing.T) {
	cases := []string{
		"x: 1 + 2 * 3\n",
		"x: (1 + 2) * 3\n",
		"x: 2 ** 3 ** 2\n",
		"x: -a + !b\n",
		"x: not a and b or c\n",
		"x: a < b == c >= d\n",
		"x: a === b !== c\n",
		"x: s ~ /a+b/i\n",
		"x: s !~ /\\d/\n",
		"x: a ? b : c\n",
		"x: a ? b : c ? d : e\n",
		"x: if a then b otherwise c\n",
		"x: if a then b ? c : d otherwise e\n",
		"x: a.b[0](1, 2).c\n",
		"x: [1, 2.5, \"s\", true, null, undefined]\n",
		"x: {a: 1, \"two words\": 2}\n",
		"x: \"plain\"\n",
		"x: \"a #{b} c #{1 + 2}\"\n",
		"x: \"tab\\t quote\\\" hash\\#{}\"\n",
		"x: #eph + 1\n",
		"#eph: 5\n",
		"x: 0..10\n",
		"x: f(g(1), h())\n",
		"x: y++\n",
	}
	for _, src := range cases {
		roundTrip(t, src)
	}
}

func Test_RoundTrip_WholePrograms(t *testing.T) {
	progs := []string{
		`fn fib(n) -> Int:
    if n < 2:
        return n
    return fib(n-1) + fib(n-2)
print(fib(10))
`,
		`u:
    - name: "Ada",
    - age: 36
for k in u:
    print(k)
`,
		`fn grade(n):
    if n >= 90:
        return "A"
    else if n >= 80:
        return "B"
    else:
        return "C"
total: 0
for i in 0..5:
    total +: i
print(grade(total * 9))
`,
	}
	for _, src := range progs {
		roundTrip(t, src)
	}
}

// Printing is idempotent: print(parse(print(parse(src)))) == print(parse(src)).
func Test_Printer_Idempotent(t *testing.T) {
	src := `fn f(a, b):
    u:
        - x: a ? 1 : 2,
        - y: "v=#{b}"
    return u
print(f(true, [1, 2]).x)
`
	first, err := Parse(src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	once := FormatProgram(first)
	again, err := Parse(once)
	if err != nil {
		t.Fatalf("reparse: %v\n%s", err, once)
	}
	twice := FormatProgram(again)
	if once != twice {
		t.Fatalf("printer not idempotent:\n--- once ---\n%s\n--- twice ---\n%s", once, twice)
	}
}

func Test_Display_Regex(t *testing.T) {
	v := evalSrc(t, `x: /a\/b/im
x`)
	if got := ToDisplay(v); got != "/a\\/b/im" {
		t.Fatalf("got %q", got)
	}
}
