// interpreter_exec.go — statement execution, control flow and calls.
//
// Control flow is modeled as completion tags rather than Go panics: every
// statement execution returns a *control (nil for normal completion).
//   - ctlReturn unwinds to the nearest function call frame.
//   - ctlThrow unwinds to the nearest try/catch; the payload is the thrown
//     error Object `{kind, message, line}`.
//   - ctlBlock is the `block expr` signal consumed by the enclosing `loop`.
package fenics

import "errors"

type ctlKind int

const (
	ctlReturn ctlKind = iota
	ctlThrow
	ctlBlock
)

// control is a non-normal statement completion.
type control struct {
	kind ctlKind
	val  Value
}

// throwKind builds a ctlThrow carrying the standard error Object.
func (in *Interpreter) throwKind(kind, msg string, pos Pos) *control {
	return &control{kind: ctlThrow, val: errorObject(kind, msg, pos)}
}

// execBlock runs statements in order until one completes non-normally.
func (in *Interpreter) execBlock(stmts []Stmt, env *Env) *control {
	for _, st := range stmts {
		if c := in.execStmt(st, env); c != nil {
			return c
		}
	}
	return nil
}

func (in *Interpreter) execStmt(st Stmt, env *Env) *control {
	switch s := st.(type) {
	case *VarDecl:
		return in.execVarDecl(s, env)

	case *FnDecl:
		f := &Fun{
			Name:       s.Name,
			Params:     s.Params,
			ReturnType: s.ReturnType,
			Body:       s.Body,
			Env:        env,
		}
		return in.assignOrDeclare(s.Name, FunVal(f), env, s.Pos)

	case *AssignStmt:
		_, c := in.execAssign(s, env)
		return c

	case *ExprStmt:
		_, c := in.evalExpr(s.E, env)
		return c

	case *ReturnStmt:
		v := Null
		if s.Value != nil {
			var c *control
			v, c = in.evalExpr(s.Value, env)
			if c != nil {
				return c
			}
		}
		return &control{kind: ctlReturn, val: v}

	case *IfStmt:
		cond, c := in.evalExpr(s.Cond, env)
		if c != nil {
			return c
		}
		if isTruthy(cond) {
			return in.execBlock(s.Then, env.Child())
		}
		for _, ei := range s.ElseIfs {
			cv, c := in.evalExpr(ei.Cond, env)
			if c != nil {
				return c
			}
			if isTruthy(cv) {
				return in.execBlock(ei.Body, env.Child())
			}
		}
		if s.Else != nil {
			return in.execBlock(s.Else, env.Child())
		}
		return nil

	case *ForStmt:
		return in.execFor(s, env)

	case *WhileStmt:
		for {
			cond, c := in.evalExpr(s.Cond, env)
			if c != nil {
				return c
			}
			if !isTruthy(cond) {
				return nil
			}
			if c := in.execBlock(s.Body, env.Child()); c != nil {
				return c
			}
		}

	case *LoopStmt:
		return in.execLoop(s, env)

	case *BlockMark:
		if _, c := in.evalExpr(s.Value, env); c != nil {
			return c
		}
		return &control{kind: ctlBlock}

	case *TryStmt:
		c := in.execBlock(s.Body, env.Child())
		if c == nil || c.kind != ctlThrow {
			return c
		}
		catchEnv := env.Child()
		_ = catchEnv.Declare(s.ErrName, c.val, false)
		return in.execBlock(s.Catch, catchEnv)

	case *LibStmt:
		return in.execLib(s, env)

	case *ImportStmt:
		return in.execImport(s, env)
	}
	return nil
}

// execVarDecl handles `[Type] [const|global] name: value` declarations.
// A plain unqualified declaration keeps the `name: value` assign-or-declare
// semantics; `const` always declares in the innermost frame; `global`
// targets the global frame.
func (in *Interpreter) execVarDecl(s *VarDecl, env *Env) *control {
	v, c := in.evalExpr(s.Value, env)
	if c != nil {
		return c
	}
	switch {
	case s.Global:
		g := in.Global
		if b, ok := g.table[s.Name]; ok {
			if b.con || s.Const {
				return in.throwKind(KindName, "cannot rebind constant: "+s.Name, s.Pos)
			}
			g.table[s.Name] = binding{val: v}
			return nil
		}
		g.table[s.Name] = binding{val: v, con: s.Const}
		return nil
	case s.Const:
		if err := env.Declare(s.Name, v, true); err != nil {
			return in.throwKind(KindName, "cannot redeclare: "+s.Name, s.Pos)
		}
		return nil
	default:
		return in.assignOrDeclare(s.Name, v, env, s.Pos)
	}
}

// assignOrDeclare implements `name: value`: assign the existing visible
// binding when mutable, else declare in the innermost frame (constants
// cannot be rebound).
func (in *Interpreter) assignOrDeclare(name string, v Value, env *Env, pos Pos) *control {
	if err := env.Assign(name, v); err == nil {
		return nil
	} else if errors.Is(err, ErrConstant) {
		return in.throwKind(KindName, "cannot rebind constant: "+name, pos)
	}
	if err := env.Declare(name, v, false); err != nil {
		return in.throwKind(KindName, "cannot declare: "+name, pos)
	}
	return nil
}

func (in *Interpreter) execFor(s *ForStmt, env *Env) *control {
	// Streaming iteration for literal ranges; other iterables evaluate
	// fully before the loop starts.
	if r, ok := s.Iter.(*RangeExpr); ok {
		lo, hi, c := in.evalRangeBounds(r, env)
		if c != nil {
			return c
		}
		step := int64(1)
		if lo > hi {
			step = -1
		}
		idx := int64(0)
		for i := lo; i != hi; i += step {
			if c := in.runForBody(s, env, Int(idx), Int(i)); c != nil {
				return c
			}
			idx++
		}
		return nil
	}

	iter, c := in.evalExpr(s.Iter, env)
	if c != nil {
		return c
	}
	switch iter.Tag {
	case VTArray:
		elems := iter.Data.(*ArrayObject).Elems
		for i, el := range elems {
			if c := in.runForBody(s, env, Int(int64(i)), el); c != nil {
				return c
			}
		}
	case VTObject:
		mo := iter.Data.(*MapObject)
		keys := append([]string{}, mo.Keys...)
		for _, k := range keys {
			if s.Key != "" {
				v := mo.Entries[k]
				if c := in.runForBody(s, env, Str(k), v); c != nil {
					return c
				}
			} else {
				if c := in.runForBody(s, env, Undefined, Str(k)); c != nil {
					return c
				}
			}
		}
	case VTStr:
		i := 0
		for _, r := range iter.Data.(string) {
			if c := in.runForBody(s, env, Int(int64(i)), Str(string(r))); c != nil {
				return c
			}
			i++
		}
	default:
		return in.throwKind(KindType, "for loop requires an array, object, string or range", s.Pos)
	}
	return nil
}

// runForBody runs one iteration with the loop variables bound in a fresh
// frame. key is the two-variable binding (index for arrays/strings, key for
// objects); it is ignored in the one-variable form.
func (in *Interpreter) runForBody(s *ForStmt, env *Env, key, val Value) *control {
	frame := env.Child()
	if s.Key != "" {
		_ = frame.Declare(s.Key, key, false)
	}
	_ = frame.Declare(s.Name, val, false)
	return in.execBlock(s.Body, frame)
}

func (in *Interpreter) evalRangeBounds(r *RangeExpr, env *Env) (int64, int64, *control) {
	lov, c := in.evalExpr(r.Lo, env)
	if c != nil {
		return 0, 0, c
	}
	hiv, c := in.evalExpr(r.Hi, env)
	if c != nil {
		return 0, 0, c
	}
	if lov.Tag != VTInt || hiv.Tag != VTInt {
		return 0, 0, in.throwKind(KindType, "range bounds must be Int", r.Pos)
	}
	return lov.Data.(int64), hiv.Data.(int64), nil
}

// execLoop is the reactive loop: it behaves as `while` until a `block`
// marker runs in its body. Once the body is suppressed nothing in a
// single-threaded run can change the condition again, so suppression ends
// the loop's current activation.
func (in *Interpreter) execLoop(s *LoopStmt, env *Env) *control {
	for {
		cond, c := in.evalExpr(s.Cond, env)
		if c != nil {
			return c
		}
		if !isTruthy(cond) {
			return nil
		}
		if c := in.execBlock(s.Body, env.Child()); c != nil {
			if c.kind == ctlBlock {
				return nil
			}
			return c
		}
	}
}

// execLib builds an Object of the named functions and binds it under the
// library name; every export must resolve to a Function in scope.
func (in *Interpreter) execLib(s *LibStmt, env *Env) *control {
	mo := &MapObject{Entries: map[string]Value{}}
	for _, name := range s.Exports {
		v, ok := env.Lookup(name)
		if !ok || v.Tag != VTFun {
			return in.throwKind(KindImport, "export '"+name+"' not found or not a function", s.Pos)
		}
		mo.Set(name, v)
	}
	return in.assignOrDeclare(s.Name, Value{Tag: VTObject, Data: mo}, env, s.Pos)
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

// evalExpr evaluates an expression; a non-nil *control is always a throw.
func (in *Interpreter) evalExpr(e Expr, env *Env) (Value, *control) {
	switch x := e.(type) {
	case *IntLit:
		return Int(x.V), nil
	case *FloatLit:
		return Float(x.V), nil
	case *BoolLit:
		return Bool(x.V), nil
	case *NullLit:
		return Null, nil
	case *UndefinedLit:
		return Undefined, nil

	case *StringLit:
		return in.evalString(x, env)

	case *RegexLit:
		ro := &RegexObject{Pattern: x.Pattern, Flags: x.Flags}
		if _, err := ro.Compile(); err != nil {
			return Null, in.throwKind(KindValue, "invalid regex: "+err.Error(), x.Pos)
		}
		return Value{Tag: VTRegex, Data: ro}, nil

	case *ArrayLit:
		elems := make([]Value, 0, len(x.Elems))
		for _, el := range x.Elems {
			v, c := in.evalExpr(el, env)
			if c != nil {
				return Null, c
			}
			elems = append(elems, v)
		}
		return Arr(elems), nil

	case *ObjectLit:
		mo := &MapObject{Entries: map[string]Value{}}
		for i, k := range x.Keys {
			v, c := in.evalExpr(x.Values[i], env)
			if c != nil {
				return Null, c
			}
			mo.Set(k, v)
		}
		return Value{Tag: VTObject, Data: mo}, nil

	case *Ident:
		if v, ok := env.Lookup(x.Name); ok {
			return v, nil
		}
		return Null, in.throwKind(KindName, "undefined variable: "+x.Name, x.Pos)

	case *Ephemeral:
		if f := env.ephFrame(); f != nil {
			if v, ok := f.eph[x.Name]; ok {
				return v, nil
			}
		}
		return Undefined, nil

	case *Member:
		base, c := in.evalExpr(x.Base, env)
		if c != nil {
			return Null, c
		}
		return in.member(base, x.Name, x.Pos)

	case *Index:
		base, c := in.evalExpr(x.Base, env)
		if c != nil {
			return Null, c
		}
		idx, c := in.evalExpr(x.Idx, env)
		if c != nil {
			return Null, c
		}
		return in.indexValue(base, idx, x.Pos)

	case *Call:
		return in.evalCall(x, env)

	case *Unary:
		if x.Op == "++" || x.Op == "--" {
			return in.incDec(x, env)
		}
		v, c := in.evalExpr(x.Operand, env)
		if c != nil {
			return Null, c
		}
		return in.evalUnary(x.Op, v, x.Pos)

	case *Binary:
		return in.evalBinary(x, env)

	case *Ternary:
		cond, c := in.evalExpr(x.Cond, env)
		if c != nil {
			return Null, c
		}
		if isTruthy(cond) {
			return in.evalExpr(x.Then, env)
		}
		return in.evalExpr(x.Else, env)

	case *RangeExpr:
		lo, hi, c := in.evalRangeBounds(x, env)
		if c != nil {
			return Null, c
		}
		step := int64(1)
		if lo > hi {
			step = -1
		}
		var elems []Value
		for i := lo; i != hi; i += step {
			elems = append(elems, Int(i))
		}
		return Arr(elems), nil
	}
	return Null, in.throwKind(KindRuntime, "unsupported expression", e.At())
}

// evalString concatenates a literal's parts, stringifying embedded
// expression results with the display form.
func (in *Interpreter) evalString(x *StringLit, env *Env) (Value, *control) {
	out := ""
	for _, part := range x.Parts {
		if part.E == nil {
			out += part.Text
			continue
		}
		v, c := in.evalExpr(part.E, env)
		if c != nil {
			return Null, c
		}
		out += ToDisplay(v)
	}
	return Str(out), nil
}

// ---------------------------------------------------------------------------
// Calls
// ---------------------------------------------------------------------------

// evalCall evaluates a call. For `base.name(args)` the base is evaluated
// first, then every argument left-to-right, and only then is the method
// resolved on the base — no lookup handle into the base is retained across
// argument evaluation.
func (in *Interpreter) evalCall(x *Call, env *Env) (Value, *control) {
	if m, ok := x.Fn.(*Member); ok {
		base, c := in.evalExpr(m.Base, env)
		if c != nil {
			return Null, c
		}
		args, c := in.evalArgs(x.Args, env)
		if c != nil {
			return Null, c
		}
		return in.callMethod(base, m.Name, args, x.Pos)
	}

	fv, c := in.evalExpr(x.Fn, env)
	if c != nil {
		return Null, c
	}
	args, c := in.evalArgs(x.Args, env)
	if c != nil {
		return Null, c
	}
	return in.apply(fv, args, x.Pos)
}

func (in *Interpreter) evalArgs(exprs []Expr, env *Env) ([]Value, *control) {
	args := make([]Value, 0, len(exprs))
	for _, a := range exprs {
		v, c := in.evalExpr(a, env)
		if c != nil {
			return nil, c
		}
		args = append(args, v)
	}
	return args, nil
}

// apply invokes a function value with already-evaluated arguments.
// Missing parameters bind Undefined; extra arguments are discarded.
func (in *Interpreter) apply(fv Value, args []Value, pos Pos) (Value, *control) {
	if fv.Tag != VTFun {
		return Null, in.throwKind(KindType, "not callable: "+fv.Tag.TypeName(), pos)
	}
	f := fv.Data.(*Fun)

	if f.Native != nil {
		v, err := f.Native(in, args)
		if err != nil {
			return Null, in.throwNative(err, pos)
		}
		return v, nil
	}

	frame := f.Env.Child()
	frame.eph = map[string]Value{}
	for i, p := range f.Params {
		v := Undefined
		if i < len(args) {
			v = args[i]
		}
		_ = frame.Declare(p.Name, v, false)
	}
	c := in.execBlock(f.Body, frame)
	if c != nil {
		switch c.kind {
		case ctlReturn:
			return c.val, nil
		case ctlThrow:
			return Null, c
		}
	}
	return Null, nil
}

// throwNative converts a native error into a thrown Object, preserving the
// kind when the native raised a *RuntimeError.
func (in *Interpreter) throwNative(err error, pos Pos) *control {
	if re, ok := err.(*RuntimeError); ok {
		p := pos
		if re.Line > 0 {
			p = Pos{Line: re.Line, Col: re.Col}
		}
		return in.throwKind(re.Kind, re.Msg, p)
	}
	return in.throwKind(KindRuntime, err.Error(), pos)
}
