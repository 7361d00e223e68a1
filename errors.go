// errors.go: runtime error kinds, diagnostics and caret-snippet rendering.
//
// Runtime failures travel through the evaluator as thrown Objects
// `{kind, message, line}` (see interpreter_exec.go); this file converts
// between that shape and the Go error types surfaced to hosts, and renders
// the user-facing forms:
//
//   - Diagnostic(err, file) — the one-line form required at process exit:
//     `<kind>: <message> at <file>:<line>:<column>`
//
//   - WrapErrorWithSource(err, src) — a multi-line snippet with a caret
//     under the offending column, used by the REPL.
//
// For the source "x: 1\ny: (2 +\nz: 3", WrapErrorWithSource renders:
//
//	ParseError at 3:2: expected ')'
//
//	   2 | y: (2 +
//	   3 | z: 3
//	     |  ^
package fenics

import (
	"fmt"
	"strings"
)

// Error kinds carried by thrown Objects and *RuntimeError.
const (
	KindParse   = "ParseError"
	KindName    = "NameError"
	KindType    = "TypeError"
	KindValue   = "ValueError"
	KindIndex   = "IndexError"
	KindImport  = "ImportError"
	KindBridge  = "BridgeError"
	KindRuntime = "RuntimeError"
)

// RuntimeError is an execution-time failure that escaped every try/catch.
// Line/Col are 1-based; Col may be 0 when only the line is known.
type RuntimeError struct {
	Kind string
	Msg  string
	Line int
	Col  int
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%s at %d:%d: %s", e.Kind, e.Line, e.Col, e.Msg)
}

// Diagnostic renders the exit diagnostic `<kind>: <message> at
// <file>:<line>:<column>` for any scan, parse or runtime error.
func Diagnostic(err error, file string) string {
	switch e := err.(type) {
	case *LexError:
		return fmt.Sprintf("%s: %s at %s:%d:%d", KindParse, e.Msg, file, e.Line, e.Col)
	case *ParseError:
		return fmt.Sprintf("%s: %s at %s:%d:%d", KindParse, e.Msg, file, e.Line, e.Col)
	case *RuntimeError:
		return fmt.Sprintf("%s: %s at %s:%d:%d", e.Kind, e.Msg, file, e.Line, e.Col)
	}
	return err.Error()
}

// runtimeErrorFromThrown converts a thrown error Object back into the Go
// error returned by Run. Non-Object thrown values are stringified.
func runtimeErrorFromThrown(v Value) *RuntimeError {
	out := &RuntimeError{Kind: KindRuntime}
	if v.Tag != VTObject {
		out.Msg = ToDisplay(v)
		return out
	}
	mo := v.Data.(*MapObject)
	if kv, ok := mo.Get("kind"); ok && kv.Tag == VTStr {
		out.Kind = kv.Data.(string)
	}
	if mv, ok := mo.Get("message"); ok && mv.Tag == VTStr {
		out.Msg = mv.Data.(string)
	}
	if lv, ok := mo.Get("line"); ok && lv.Tag == VTInt {
		out.Line = int(lv.Data.(int64))
	}
	if cv, ok := mo.Get("column"); ok && cv.Tag == VTInt {
		out.Col = int(cv.Data.(int64))
	}
	return out
}

// errorObject builds the thrown Object shape for a runtime failure.
func errorObject(kind, msg string, pos Pos) Value {
	mo := &MapObject{Entries: map[string]Value{}}
	mo.Set("kind", Str(kind))
	mo.Set("message", Str(msg))
	if pos.Line > 0 {
		mo.Set("line", Int(int64(pos.Line)))
	}
	if pos.Col > 0 {
		mo.Set("column", Int(int64(pos.Col)))
	}
	return Value{Tag: VTObject, Data: mo}
}

// WrapErrorWithSource returns an error whose message is a caret-annotated
// snippet of src. Errors that carry no position are returned unchanged.
func WrapErrorWithSource(err error, src string) error {
	switch e := err.(type) {
	case *LexError:
		return fmt.Errorf("%s", caretSnippet(src, KindParse, e.Line, e.Col, e.Msg))
	case *ParseError:
		return fmt.Errorf("%s", caretSnippet(src, KindParse, e.Line, e.Col, e.Msg))
	case *RuntimeError:
		if e.Line > 0 {
			return fmt.Errorf("%s", caretSnippet(src, e.Kind, e.Line, e.Col, e.Msg))
		}
	}
	return err
}

// caretSnippet renders the header, one line of context either side, and a
// caret under the 1-based column (clamped to the source bounds).
func caretSnippet(src, header string, line, col int, msg string) string {
	lines := strings.Split(src, "\n")
	if len(lines) == 0 {
		lines = []string{""}
	}
	if line < 1 {
		line = 1
	}
	if line > len(lines) {
		line = len(lines)
	}
	if col < 1 {
		col = 1
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s at %d:%d: %s\n\n", header, line, col, msg)
	if line > 1 {
		fmt.Fprintf(&b, "%4d | %s\n", line-1, lines[line-2])
	}
	fmt.Fprintf(&b, "%4d | %s\n", line, lines[line-1])
	fmt.Fprintf(&b, "     | %s^\n", strings.Repeat(" ", col-1))
	if line < len(lines) {
		fmt.Fprintf(&b, "%4d | %s\n", line+1, lines[line])
	}
	return b.String()
}
