// interpreter.go — public API surface of the Fenics interpreter.
//
// OVERVIEW
// ========
// This file exposes the public surface of the Fenics runtime: the tagged
// value model, the lexical environment, and the Interpreter with its entry
// points. Implementation lives in the private files wired around it:
//
//   - lexer.go / parser.go / ast.go — source → Program
//   - interpreter_exec.go           — statement execution & calls
//   - interpreter_ops.go            — operators, dispatch, assignment
//   - builtins.go                   — free-function builtins
//   - modules.go                    — import resolution & lib exports
//   - bridges.go                    — host-native bridge registry
//   - printer.go / errors.go        — formatting & diagnostics
//
// EXECUTION & SCOPING
// -------------------
// Code evaluates against environments (*Env) forming a lexical chain. The
// Interpreter exposes two well-known frames:
//   - Core:   builtins and registered bridges (parent of Global).
//   - Global: the program's global frame; `global name: value` declarations
//     always target it, and module files share it.
//
// RunFile/Run evaluate top-level statements directly in Global. Imported
// modules run in a fresh child of Global, so their private bindings stay
// isolated while `global` declarations remain shared (see modules.go).
//
// ERRORS
// ------
// Scan/parse failures are *LexError / *ParseError. Runtime failures
// propagate as thrown Objects `{kind, message, line}` which `try/catch`
// intercepts; uncaught, they surface as *RuntimeError and RunFile prints
// `<kind>: <message> at <file>:<line>:<column>` before returning a non-zero
// exit status.
package fenics

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
)

// Version is the interpreter release tag reported by `fenics version`.
const Version = "0.3.1"

// ValueTag enumerates all runtime kinds a Value may hold.
type ValueTag int

const (
	VTNull      ValueTag = iota // no payload
	VTUndefined                 // no payload; produced by permissive lookups
	VTBool                      // bool
	VTInt                       // int64
	VTFloat                     // float64
	VTStr                       // string
	VTArray                     // *ArrayObject (shared by reference)
	VTObject                    // *MapObject (ordered, shared by reference)
	VTRegex                     // *RegexObject
	VTFun                       // *Fun (closure or native)
	VTModule                    // *Module
	VTBridge                    // *BridgeObject
)

// TypeName returns the user-facing name of the tag, as reported by type().
func (t ValueTag) TypeName() string {
	switch t {
	case VTNull:
		return "Null"
	case VTUndefined:
		return "Undefined"
	case VTBool:
		return "Boolean"
	case VTInt:
		return "Int"
	case VTFloat:
		return "Float"
	case VTStr:
		return "String"
	case VTArray:
		return "Array"
	case VTObject:
		return "Object"
	case VTRegex:
		return "Regex"
	case VTFun:
		return "Function"
	case VTModule:
		return "Module"
	case VTBridge:
		return "Bridge"
	}
	return "Unknown"
}

// Value is the universal runtime carrier. Tag selects which Go type Data
// holds (see ValueTag). Compound values (Array, Object, Module) hold shared
// pointers: assignment copies the handle, and mutations are visible through
// every alias. Scalars are stored inline.
type Value struct {
	Tag  ValueTag
	Data interface{}
}

// Null and Undefined are the payload-less singletons.
var (
	Null      = Value{Tag: VTNull}
	Undefined = Value{Tag: VTUndefined}
)

// Primitive constructors.
func Bool(b bool) Value     { return Value{Tag: VTBool, Data: b} }
func Int(n int64) Value     { return Value{Tag: VTInt, Data: n} }
func Float(f float64) Value { return Value{Tag: VTFloat, Data: f} }
func Str(s string) Value    { return Value{Tag: VTStr, Data: s} }

// Arr wraps a slice into a fresh array value (reference identity).
func Arr(xs []Value) Value { return Value{Tag: VTArray, Data: &ArrayObject{Elems: xs}} }

// FunVal wraps *Fun into a Value.
func FunVal(f *Fun) Value { return Value{Tag: VTFun, Data: f} }

// ArrayObject is the shared payload of a VTArray value.
type ArrayObject struct {
	Elems []Value
}

// MapObject is an ordered string-keyed map preserving insertion order; it is
// the shared payload of VTObject values and the export table of modules.
type MapObject struct {
	Entries map[string]Value
	Keys    []string
}

// NewMap creates an empty ordered map value.
func NewMap() Value {
	return Value{Tag: VTObject, Data: &MapObject{Entries: map[string]Value{}}}
}

// Set inserts or updates a key, appending new keys to the insertion order.
func (m *MapObject) Set(key string, v Value) {
	if m.Entries == nil {
		m.Entries = map[string]Value{}
	}
	if _, ok := m.Entries[key]; !ok {
		m.Keys = append(m.Keys, key)
	}
	m.Entries[key] = v
}

// Get returns the value bound to key and whether it exists.
func (m *MapObject) Get(key string) (Value, bool) {
	v, ok := m.Entries[key]
	return v, ok
}

// Len returns the number of entries.
func (m *MapObject) Len() int { return len(m.Keys) }

// RegexObject is the payload of a VTRegex value. The compiled form is
// built lazily and cached.
type RegexObject struct {
	Pattern string
	Flags   string
	re      *regexp.Regexp
}

// Compile returns the compiled pattern, honoring the i/m/s flags.
func (r *RegexObject) Compile() (*regexp.Regexp, error) {
	if r.re != nil {
		return r.re, nil
	}
	pat := r.Pattern
	if r.Flags != "" {
		pat = "(?" + r.Flags + ")" + pat
	}
	re, err := regexp.Compile(pat)
	if err != nil {
		return nil, err
	}
	r.re = re
	return re, nil
}

// NativeFunc is the implementation signature of host-implemented functions
// (builtins and bridge methods). Arguments arrive fully evaluated; a
// returned *RuntimeError becomes a catchable thrown Object.
type NativeFunc func(in *Interpreter, args []Value) (Value, error)

// Fun is a function value: either a user closure (Body+Env) or a native
// (Native non-nil). The captured Env is the environment active at the
// definition site; the declared types are documentation only.
type Fun struct {
	Name       string
	Params     []Param
	ReturnType string
	Body       []Stmt
	Env        *Env
	Native     NativeFunc
}

// Module is the payload of a VTModule value: an ordered export table of
// functions plus the environment the module file evaluated in.
type Module struct {
	Name string
	Path string
	Map  *MapObject
	Env  *Env
}

// Get returns an exported binding and whether it exists.
func (m *Module) Get(key string) (Value, bool) { return m.Map.Get(key) }

// BridgeFunc dispatches one bridge method call. Arguments arrive fully
// evaluated; errors propagate to the language as catchable BridgeErrors.
type BridgeFunc func(method string, args []Value) (Value, error)

// BridgeObject is the payload of a VTBridge value.
type BridgeObject struct {
	Name string
	Call BridgeFunc
}

// ---------------------------------------------------------------------------
// Environment
// ---------------------------------------------------------------------------

// Environment operation failures.
var (
	ErrNotFound   = fmt.Errorf("binding not found")
	ErrConstant   = fmt.Errorf("binding is constant")
	ErrRedeclared = fmt.Errorf("binding already declared")
)

type binding struct {
	val Value
	con bool
}

// Env is one frame of the lexical environment chain. Lookup walks
// parent-ward; Declare always targets this frame; Assign mutates the frame
// where the binding is found. A sealed frame stops the Assign walk: reads
// still climb past it, writes do not. Module top frames are sealed so a
// module's `name: value` cannot clobber an importer's same-named global.
type Env struct {
	parent *Env
	table  map[string]binding
	eph    map[string]Value // ephemeral side table; non-nil on call frames
	sealed bool
}

// SealParentWrites stops assignment walks at this frame.
func (e *Env) SealParentWrites() { e.sealed = true }

// NewEnv creates a frame with the given parent (which may be nil).
func NewEnv(parent *Env) *Env {
	return &Env{parent: parent, table: map[string]binding{}}
}

// Child creates a new innermost frame on top of e.
func (e *Env) Child() *Env { return NewEnv(e) }

// Declare binds name in this frame. Redeclaring in the same frame fails.
func (e *Env) Declare(name string, v Value, constant bool) error {
	if _, ok := e.table[name]; ok {
		return fmt.Errorf("%w: %s", ErrRedeclared, name)
	}
	e.table[name] = binding{val: v, con: constant}
	return nil
}

// Assign updates the nearest visible binding. Constants cannot be rebound;
// assigning an unknown name fails (it does not implicitly declare).
func (e *Env) Assign(name string, v Value) error {
	for f := e; f != nil; f = f.parent {
		if b, ok := f.table[name]; ok {
			if b.con {
				return fmt.Errorf("%w: %s", ErrConstant, name)
			}
			f.table[name] = binding{val: v}
			return nil
		}
		if f.sealed {
			break
		}
	}
	return fmt.Errorf("%w: %s", ErrNotFound, name)
}

// Lookup retrieves the nearest visible binding for name.
func (e *Env) Lookup(name string) (Value, bool) {
	for f := e; f != nil; f = f.parent {
		if b, ok := f.table[name]; ok {
			return b.val, true
		}
	}
	return Value{}, false
}

// ephFrame returns the nearest frame carrying an ephemeral side table.
func (e *Env) ephFrame() *Env {
	for f := e; f != nil; f = f.parent {
		if f.eph != nil {
			return f
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Interpreter
// ---------------------------------------------------------------------------

// Interpreter evaluates Fenics programs.
//
// Public fields:
//   - Core:   builtins and bridges; parent of Global.
//   - Global: the program's global frame.
//   - Stdin/Stdout/Stderr: I/O used by print/input and diagnostics.
type Interpreter struct {
	Core   *Env
	Global *Env

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	bridges     map[string]BridgeFunc
	modules     map[string]*moduleRec
	loadStack   []string
	modulePaths []string // extra module search roots (manifest-provided)
	scriptPath  string   // entry script; importer identity for top-level imports
	stdinBuf    *bufio.Reader
}

// NewInterpreter constructs an engine with builtins installed in Core and an
// empty Global frame. The top-level frame owns an ephemeral side table.
func NewInterpreter() *Interpreter {
	in := &Interpreter{
		Stdin:   os.Stdin,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		bridges: map[string]BridgeFunc{},
		modules: map[string]*moduleRec{},
	}
	in.Core = NewEnv(nil)
	in.Global = NewEnv(in.Core)
	in.Global.eph = map[string]Value{}
	registerBuiltins(in)
	return in
}

// RegisterBridge installs a host bridge under name, addressable as a global
// identifier. Register bridges before running any program.
func (in *Interpreter) RegisterBridge(name string, call BridgeFunc) {
	in.bridges[name] = call
	in.Core.table[name] = binding{val: Value{Tag: VTBridge, Data: &BridgeObject{Name: name, Call: call}}, con: true}
}

// SetModulePaths adds extra module search roots, e.g. from a fenics.yaml
// project manifest (see cmd/fenics).
func (in *Interpreter) SetModulePaths(paths []string) {
	in.modulePaths = append([]string{}, paths...)
}

// Run parses and executes source in the Global frame. name is the display
// path used in diagnostics and as the importer identity for imports.
// Returns nil on normal completion, or *LexError / *ParseError /
// *RuntimeError.
func (in *Interpreter) Run(src, name string) error {
	prog, err := Parse(src)
	if err != nil {
		return err
	}
	prev := in.scriptPath
	in.scriptPath = name
	defer func() { in.scriptPath = prev }()

	if c := in.execBlock(prog.Statements, in.Global); c != nil && c.kind == ctlThrow {
		return runtimeErrorFromThrown(c.val)
	}
	return nil
}

// RunFile reads and runs a script, printing a diagnostic of the form
// `<kind>: <message> at <file>:<line>:<column>` to Stderr on failure.
// The return value is the process exit status: 0 on success, 1 otherwise.
func (in *Interpreter) RunFile(path string) int {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(in.Stderr, "ImportError: cannot read %s: %v\n", path, err)
		return 1
	}
	if err := in.Run(string(src), path); err != nil {
		fmt.Fprintln(in.Stderr, Diagnostic(err, path))
		return 1
	}
	return 0
}

// EvalPersistent parses and executes source in the Global frame and returns
// the value of the last expression statement (REPL entry point).
func (in *Interpreter) EvalPersistent(src string) (Value, error) {
	prog, err := Parse(src)
	if err != nil {
		return Null, err
	}
	last := Null
	for _, st := range prog.Statements {
		if es, ok := st.(*ExprStmt); ok {
			v, c := in.evalExpr(es.E, in.Global)
			if c != nil {
				return Null, runtimeErrorFromThrown(c.val)
			}
			last = v
			continue
		}
		if c := in.execStmt(st, in.Global); c != nil {
			if c.kind == ctlThrow {
				return Null, runtimeErrorFromThrown(c.val)
			}
			break // top-level return stops evaluation
		}
	}
	return last, nil
}
