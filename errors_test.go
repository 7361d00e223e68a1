package fenics

import (
	"strings"
	"testing"
)

func Test_Diagnostic_Shapes(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{&LexError{Line: 2, Col: 5, Msg: "bad token"}, "ParseError: bad token at main.fenics:2:5"},
		{&ParseError{Line: 1, Col: 1, Msg: "expected ':'"}, "ParseError: expected ':' at main.fenics:1:1"},
		{&RuntimeError{Kind: KindValue, Msg: "boom", Line: 3, Col: 7}, "ValueError: boom at main.fenics:3:7"},
	}
	for _, tc := range cases {
		if got := Diagnostic(tc.err, "main.fenics"); got != tc.want {
			t.Errorf("got %q, want %q", got, tc.want)
		}
	}
}

func Test_WrapErrorWithSource_Caret(t *testing.T) {
	src := "x: 1\ny: (2 +\nz: 3\n"
	_, perr := Parse(src)
	if perr == nil {
		t.Fatal("expected parse error")
	}
	wrapped := WrapErrorWithSource(perr, src).Error()
	if !strings.Contains(wrapped, "ParseError at ") {
		t.Fatalf("missing header: %q", wrapped)
	}
	if !strings.Contains(wrapped, "| ") || !strings.Contains(wrapped, "^") {
		t.Fatalf("missing caret snippet: %q", wrapped)
	}
}

func Test_WrapErrorWithSource_PassThrough(t *testing.T) {
	err := &RuntimeError{Kind: KindRuntime, Msg: "no position"}
	if got := WrapErrorWithSource(err, "src"); got != err {
		t.Fatalf("expected pass-through, got %v", got)
	}
}

func Test_ThrownObjectRoundTrip(t *testing.T) {
	obj := errorObject(KindIndex, "out of bounds", Pos{Line: 4, Col: 2})
	re := runtimeErrorFromThrown(obj)
	if re.Kind != KindIndex || re.Msg != "out of bounds" || re.Line != 4 || re.Col != 2 {
		t.Fatalf("got %+v", re)
	}

	// Non-object payloads stringify.
	re = runtimeErrorFromThrown(Str("plain"))
	if re.Kind != KindRuntime || re.Msg != "plain" {
		t.Fatalf("got %+v", re)
	}
}
