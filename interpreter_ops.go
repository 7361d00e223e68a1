// interpreter_ops.go — operators, coercions, property/method dispatch and
// assignment targets.
//
// Dispatch order for `base.name` follows the value model:
//  1. Module  → exported function
//  2. Bridge  → bound method invoking the registered handler
//  3. Object  → reserved properties, then entry lookup (absent → Undefined)
//  4. Array/String → reserved properties and known methods; anything else
//     is a runtime error
package fenics

import (
	"errors"
	"math"
	"sort"
	"strings"
)

// isTruthy implements the language's truthiness table: Null, Undefined,
// false, 0, 0.0, NaN, "" and empty Array/Object are falsy.
func isTruthy(v Value) bool {
	switch v.Tag {
	case VTNull, VTUndefined:
		return false
	case VTBool:
		return v.Data.(bool)
	case VTInt:
		return v.Data.(int64) != 0
	case VTFloat:
		f := v.Data.(float64)
		return f != 0 && !math.IsNaN(f)
	case VTStr:
		return v.Data.(string) != ""
	case VTArray:
		return len(v.Data.(*ArrayObject).Elems) > 0
	case VTObject:
		return v.Data.(*MapObject).Len() > 0
	}
	return true
}

func asFloat(v Value) (float64, bool) {
	switch v.Tag {
	case VTInt:
		return float64(v.Data.(int64)), true
	case VTFloat:
		return v.Data.(float64), true
	}
	return 0, false
}

func isNumeric(v Value) bool { return v.Tag == VTInt || v.Tag == VTFloat }

// valuesEqual is `==`: value equality across numeric tags, deep structural
// equality on arrays/objects (cycle-guarded), identity on functions,
// modules and bridges.
func valuesEqual(a, b Value) bool {
	return valuesEqualSeen(a, b, nil)
}

func valuesEqualSeen(a, b Value, seen map[[2]interface{}]bool) bool {
	if isNumeric(a) && isNumeric(b) {
		fa, _ := asFloat(a)
		fb, _ := asFloat(b)
		return fa == fb // NaN != NaN under ==
	}
	if a.Tag != b.Tag {
		return false
	}
	switch a.Tag {
	case VTNull, VTUndefined:
		return true
	case VTBool:
		return a.Data.(bool) == b.Data.(bool)
	case VTStr:
		return a.Data.(string) == b.Data.(string)
	case VTRegex:
		ra := a.Data.(*RegexObject)
		rb := b.Data.(*RegexObject)
		return ra.Pattern == rb.Pattern && ra.Flags == rb.Flags
	case VTArray:
		if a.Data == b.Data {
			return true
		}
		if seen == nil {
			seen = map[[2]interface{}]bool{}
		}
		key := [2]interface{}{a.Data, b.Data}
		if seen[key] {
			return true
		}
		seen[key] = true
		xa := a.Data.(*ArrayObject).Elems
		xb := b.Data.(*ArrayObject).Elems
		if len(xa) != len(xb) {
			return false
		}
		for i := range xa {
			if !valuesEqualSeen(xa[i], xb[i], seen) {
				return false
			}
		}
		return true
	case VTObject:
		if a.Data == b.Data {
			return true
		}
		if seen == nil {
			seen = map[[2]interface{}]bool{}
		}
		key := [2]interface{}{a.Data, b.Data}
		if seen[key] {
			return true
		}
		seen[key] = true
		ma := a.Data.(*MapObject)
		mb := b.Data.(*MapObject)
		if len(ma.Entries) != len(mb.Entries) {
			return false
		}
		for k, va := range ma.Entries {
			vb, ok := mb.Entries[k]
			if !ok || !valuesEqualSeen(va, vb, seen) {
				return false
			}
		}
		return true
	default:
		return a.Data == b.Data
	}
}

// strictEquals is `===`/`is`: same variant, then value for scalars and
// identity for compound values. NaN is identical to itself here.
func strictEquals(a, b Value) bool {
	if a.Tag != b.Tag {
		return false
	}
	switch a.Tag {
	case VTNull, VTUndefined:
		return true
	case VTBool:
		return a.Data.(bool) == b.Data.(bool)
	case VTInt:
		return a.Data.(int64) == b.Data.(int64)
	case VTFloat:
		fa := a.Data.(float64)
		fb := b.Data.(float64)
		if math.IsNaN(fa) && math.IsNaN(fb) {
			return true
		}
		return fa == fb
	case VTStr:
		return a.Data.(string) == b.Data.(string)
	default:
		return a.Data == b.Data
	}
}

// ---------------------------------------------------------------------------
// Unary and binary operators
// ---------------------------------------------------------------------------

func (in *Interpreter) evalUnary(op string, v Value, pos Pos) (Value, *control) {
	switch op {
	case "-":
		switch v.Tag {
		case VTInt:
			return Int(-v.Data.(int64)), nil
		case VTFloat:
			return Float(-v.Data.(float64)), nil
		}
		return Null, in.throwKind(KindType, "cannot negate "+v.Tag.TypeName(), pos)
	case "!", "not":
		return Bool(!isTruthy(v)), nil
	}
	return Null, in.throwKind(KindRuntime, "unsupported unary operator: "+op, pos)
}

func (in *Interpreter) evalBinary(x *Binary, env *Env) (Value, *control) {
	switch x.Op {
	case "and":
		l, c := in.evalExpr(x.L, env)
		if c != nil {
			return Null, c
		}
		if !isTruthy(l) {
			return Bool(false), nil
		}
		r, c := in.evalExpr(x.R, env)
		if c != nil {
			return Null, c
		}
		return Bool(isTruthy(r)), nil
	case "or":
		l, c := in.evalExpr(x.L, env)
		if c != nil {
			return Null, c
		}
		if isTruthy(l) {
			return Bool(true), nil
		}
		r, c := in.evalExpr(x.R, env)
		if c != nil {
			return Null, c
		}
		return Bool(isTruthy(r)), nil
	}

	l, c := in.evalExpr(x.L, env)
	if c != nil {
		return Null, c
	}
	r, c := in.evalExpr(x.R, env)
	if c != nil {
		return Null, c
	}
	return in.binOp(x.Op, l, r, x.Pos)
}

// binOp applies a (non-logical) binary operator to evaluated operands.
// Also used by the augmented assignment forms.
func (in *Interpreter) binOp(op string, l, r Value, pos Pos) (Value, *control) {
	switch op {
	case "+":
		if l.Tag == VTStr || r.Tag == VTStr {
			return Str(ToDisplay(l) + ToDisplay(r)), nil
		}
		if l.Tag == VTInt && r.Tag == VTInt {
			return Int(l.Data.(int64) + r.Data.(int64)), nil
		}
		if isNumeric(l) && isNumeric(r) {
			fl, _ := asFloat(l)
			fr, _ := asFloat(r)
			return Float(fl + fr), nil
		}
		return Null, in.throwKind(KindType, "invalid operands for '+'", pos)

	case "-", "*":
		if l.Tag == VTInt && r.Tag == VTInt {
			a := l.Data.(int64)
			b := r.Data.(int64)
			if op == "-" {
				return Int(a - b), nil
			}
			return Int(a * b), nil
		}
		if isNumeric(l) && isNumeric(r) {
			fl, _ := asFloat(l)
			fr, _ := asFloat(r)
			if op == "-" {
				return Float(fl - fr), nil
			}
			return Float(fl * fr), nil
		}
		return Null, in.throwKind(KindType, "invalid operands for '"+op+"'", pos)

	case "/":
		if !isNumeric(l) || !isNumeric(r) {
			return Null, in.throwKind(KindType, "invalid operands for '/'", pos)
		}
		fl, _ := asFloat(l)
		fr, _ := asFloat(r)
		if l.Tag == VTInt && r.Tag == VTInt && r.Data.(int64) == 0 {
			return Null, in.throwKind(KindRuntime, "division by zero", pos)
		}
		return Float(fl / fr), nil

	case "%":
		if l.Tag == VTInt && r.Tag == VTInt {
			b := r.Data.(int64)
			if b == 0 {
				return Null, in.throwKind(KindRuntime, "modulo by zero", pos)
			}
			return Int(l.Data.(int64) % b), nil
		}
		if isNumeric(l) && isNumeric(r) {
			fl, _ := asFloat(l)
			fr, _ := asFloat(r)
			return Float(math.Mod(fl, fr)), nil
		}
		return Null, in.throwKind(KindType, "invalid operands for '%'", pos)

	case "**", "^":
		if !isNumeric(l) || !isNumeric(r) {
			return Null, in.throwKind(KindType, "invalid operands for '"+op+"'", pos)
		}
		fl, _ := asFloat(l)
		fr, _ := asFloat(r)
		return Float(math.Pow(fl, fr)), nil

	case "<", "<=", ">", ">=":
		cmp, ok := compareValues(l, r)
		if !ok {
			return Null, in.throwKind(KindType, "invalid operands for '"+op+"'", pos)
		}
		switch op {
		case "<":
			return Bool(cmp < 0), nil
		case "<=":
			return Bool(cmp <= 0), nil
		case ">":
			return Bool(cmp > 0), nil
		default:
			return Bool(cmp >= 0), nil
		}

	case "==":
		return Bool(valuesEqual(l, r)), nil
	case "!=":
		return Bool(!valuesEqual(l, r)), nil
	case "===", "is":
		return Bool(strictEquals(l, r)), nil
	case "!==":
		return Bool(!strictEquals(l, r)), nil

	case "~", "!~":
		matched, c := in.regexMatch(l, r, pos)
		if c != nil {
			return Null, c
		}
		if op == "~" {
			return Bool(matched), nil
		}
		return Bool(!matched), nil
	}
	return Null, in.throwKind(KindRuntime, "unsupported operator: "+op, pos)
}

// compareValues orders numbers numerically and strings lexicographically.
func compareValues(l, r Value) (int, bool) {
	if isNumeric(l) && isNumeric(r) {
		fl, _ := asFloat(l)
		fr, _ := asFloat(r)
		switch {
		case fl < fr:
			return -1, true
		case fl > fr:
			return 1, true
		}
		return 0, true
	}
	if l.Tag == VTStr && r.Tag == VTStr {
		return strings.Compare(l.Data.(string), r.Data.(string)), true
	}
	return 0, false
}

// regexMatch tests `s ~ /re/` (either operand order).
func (in *Interpreter) regexMatch(l, r Value, pos Pos) (bool, *control) {
	var s string
	var ro *RegexObject
	switch {
	case l.Tag == VTStr && r.Tag == VTRegex:
		s = l.Data.(string)
		ro = r.Data.(*RegexObject)
	case l.Tag == VTRegex && r.Tag == VTStr:
		s = r.Data.(string)
		ro = l.Data.(*RegexObject)
	default:
		return false, in.throwKind(KindType, "'~' needs a string and a regex", pos)
	}
	re, err := ro.Compile()
	if err != nil {
		return false, in.throwKind(KindValue, "invalid regex: "+err.Error(), pos)
	}
	return re.MatchString(s), nil
}

// ---------------------------------------------------------------------------
// Property access
// ---------------------------------------------------------------------------

// member resolves `base.name` per the dispatch order in the file header.
func (in *Interpreter) member(base Value, name string, pos Pos) (Value, *control) {
	switch base.Tag {
	case VTModule:
		m := base.Data.(*Module)
		if v, ok := m.Get(name); ok {
			return v, nil
		}
		return Null, in.throwKind(KindName, "module '"+m.Name+"' has no export '"+name+"'", pos)

	case VTBridge:
		return in.bridgeMethod(base.Data.(*BridgeObject), name), nil

	case VTObject:
		mo := base.Data.(*MapObject)
		if name == "length" {
			return Int(int64(mo.Len())), nil
		}
		if v, ok := mo.Get(name); ok {
			return v, nil
		}
		return Undefined, nil

	case VTArray:
		ao := base.Data.(*ArrayObject)
		switch name {
		case "length":
			return Int(int64(len(ao.Elems))), nil
		case "first":
			if len(ao.Elems) == 0 {
				return Null, in.throwKind(KindIndex, "array is empty", pos)
			}
			return ao.Elems[0], nil
		case "last":
			if len(ao.Elems) == 0 {
				return Null, in.throwKind(KindIndex, "array is empty", pos)
			}
			return ao.Elems[len(ao.Elems)-1], nil
		case "reverse", "sort", "has":
			return in.boundArrayMethod(ao, name), nil
		}
		return Null, in.throwKind(KindType, "arrays have no property '"+name+"'", pos)

	case VTStr:
		s := base.Data.(string)
		switch name {
		case "length":
			return Int(int64(len([]rune(s)))), nil
		case "split", "reverse", "has":
			return in.boundStringMethod(s, name), nil
		}
		return Null, in.throwKind(KindType, "strings have no property '"+name+"'", pos)
	}
	return Null, in.throwKind(KindType, base.Tag.TypeName()+" has no property '"+name+"'", pos)
}

// indexValue resolves `base[idx]`. Indexed object reads are strict: a
// missing key is an IndexError (member reads are the permissive path).
func (in *Interpreter) indexValue(base, idx Value, pos Pos) (Value, *control) {
	switch base.Tag {
	case VTArray:
		if idx.Tag != VTInt {
			return Null, in.throwKind(KindType, "array index must be Int", pos)
		}
		elems := base.Data.(*ArrayObject).Elems
		i := idx.Data.(int64)
		if i < 0 || i >= int64(len(elems)) {
			return Null, in.throwKind(KindIndex, "index out of bounds", pos)
		}
		return elems[i], nil
	case VTObject:
		if idx.Tag != VTStr {
			return Null, in.throwKind(KindType, "object key must be String", pos)
		}
		key := idx.Data.(string)
		if v, ok := base.Data.(*MapObject).Get(key); ok {
			return v, nil
		}
		return Null, in.throwKind(KindIndex, "key '"+key+"' not found", pos)
	case VTStr:
		if idx.Tag != VTInt {
			return Null, in.throwKind(KindType, "string index must be Int", pos)
		}
		rs := []rune(base.Data.(string))
		i := idx.Data.(int64)
		if i < 0 || i >= int64(len(rs)) {
			return Null, in.throwKind(KindIndex, "index out of bounds", pos)
		}
		return Str(string(rs[i])), nil
	}
	return Null, in.throwKind(KindType, "cannot index "+base.Tag.TypeName(), pos)
}

// ---------------------------------------------------------------------------
// Method dispatch
// ---------------------------------------------------------------------------

// callMethod invokes `base.name(args...)` with arguments already evaluated.
func (in *Interpreter) callMethod(base Value, name string, args []Value, pos Pos) (Value, *control) {
	switch base.Tag {
	case VTBridge:
		br := base.Data.(*BridgeObject)
		v, err := br.Call(name, args)
		if err != nil {
			return Null, in.throwKind(KindBridge, err.Error(), pos)
		}
		return v, nil

	case VTModule:
		m := base.Data.(*Module)
		f, ok := m.Get(name)
		if !ok {
			return Null, in.throwKind(KindName, "module '"+m.Name+"' has no export '"+name+"'", pos)
		}
		return in.apply(f, args, pos)

	case VTObject:
		mo := base.Data.(*MapObject)
		switch name {
		case "keys":
			out := make([]Value, 0, len(mo.Keys))
			for _, k := range mo.Keys {
				out = append(out, Str(k))
			}
			return Arr(out), nil
		case "has":
			if len(args) != 1 || args[0].Tag != VTStr {
				return Null, in.throwKind(KindType, "has(key) takes one string argument", pos)
			}
			_, ok := mo.Get(args[0].Data.(string))
			return Bool(ok), nil
		}
		if v, ok := mo.Get(name); ok {
			return in.apply(v, args, pos)
		}
		return Null, in.throwKind(KindType, "method '"+name+"' not found", pos)

	case VTArray:
		ao := base.Data.(*ArrayObject)
		switch name {
		case "reverse":
			return reverseArray(ao), nil
		case "has":
			if len(args) != 1 {
				return Null, in.throwKind(KindType, "has(value) takes one argument", pos)
			}
			for _, el := range ao.Elems {
				if valuesEqual(el, args[0]) {
					return Bool(true), nil
				}
			}
			return Bool(false), nil
		case "sort":
			if len(args) != 1 || args[0].Tag != VTStr {
				return Null, in.throwKind(KindType, "sort(order) takes a string order like \"0-9\" or \"a-z\"", pos)
			}
			return in.sortOrdered(ao, args[0].Data.(string), pos)
		}
		return Null, in.throwKind(KindType, "arrays have no method '"+name+"'", pos)

	case VTStr:
		s := base.Data.(string)
		switch name {
		case "split":
			if len(args) != 1 || args[0].Tag != VTStr {
				return Null, in.throwKind(KindType, "split(delim) takes one string argument", pos)
			}
			parts := strings.Split(s, args[0].Data.(string))
			out := make([]Value, len(parts))
			for i, p := range parts {
				out[i] = Str(p)
			}
			return Arr(out), nil
		case "reverse":
			return Str(reverseString(s)), nil
		case "has":
			if len(args) != 1 || args[0].Tag != VTStr {
				return Null, in.throwKind(KindType, "has(substring) takes one string argument", pos)
			}
			return Bool(strings.Contains(s, args[0].Data.(string))), nil
		}
		return Null, in.throwKind(KindType, "strings have no method '"+name+"'", pos)

	case VTFun:
		// A function stored in a variable called through `obj.f` style
		// never reaches here; this is `f.call`-like misuse.
		return Null, in.throwKind(KindType, "functions have no method '"+name+"'", pos)
	}
	return Null, in.throwKind(KindType, base.Tag.TypeName()+" has no method '"+name+"'", pos)
}

// bridgeMethod wraps one bridge method as a first-class function value.
func (in *Interpreter) bridgeMethod(br *BridgeObject, name string) Value {
	return FunVal(&Fun{
		Name: br.Name + "." + name,
		Native: func(_ *Interpreter, args []Value) (Value, error) {
			v, err := br.Call(name, args)
			if err != nil {
				return Null, &RuntimeError{Kind: KindBridge, Msg: err.Error()}
			}
			return v, nil
		},
	})
}

func (in *Interpreter) boundArrayMethod(ao *ArrayObject, name string) Value {
	return FunVal(&Fun{
		Name: "Array." + name,
		Native: func(in *Interpreter, args []Value) (Value, error) {
			v, c := in.callMethod(Value{Tag: VTArray, Data: ao}, name, args, Pos{})
			if c != nil {
				return Null, runtimeErrorFromThrown(c.val)
			}
			return v, nil
		},
	})
}

func (in *Interpreter) boundStringMethod(s, name string) Value {
	return FunVal(&Fun{
		Name: "String." + name,
		Native: func(in *Interpreter, args []Value) (Value, error) {
			v, c := in.callMethod(Str(s), name, args, Pos{})
			if c != nil {
				return Null, runtimeErrorFromThrown(c.val)
			}
			return v, nil
		},
	})
}

func reverseArray(ao *ArrayObject) Value {
	out := make([]Value, len(ao.Elems))
	for i, el := range ao.Elems {
		out[len(ao.Elems)-1-i] = el
	}
	return Arr(out)
}

func reverseString(s string) string {
	rs := []rune(s)
	for i, j := 0, len(rs)-1; i < j; i, j = i+1, j-1 {
		rs[i], rs[j] = rs[j], rs[i]
	}
	return string(rs)
}

// sortOrdered is the explicit-order `xs.sort("0-9")` method form.
func (in *Interpreter) sortOrdered(ao *ArrayObject, order string, pos Pos) (Value, *control) {
	out := make([]Value, len(ao.Elems))
	copy(out, ao.Elems)

	switch order {
	case "0-9", "9-0":
		for _, v := range out {
			if !isNumeric(v) {
				return Null, in.throwKind(KindType, "sort(\""+order+"\") requires a numeric array", pos)
			}
		}
		sort.SliceStable(out, func(i, j int) bool {
			a, _ := asFloat(out[i])
			b, _ := asFloat(out[j])
			if order == "0-9" {
				return a < b
			}
			return a > b
		})
	case "a-z", "z-a":
		for _, v := range out {
			if v.Tag != VTStr {
				return Null, in.throwKind(KindType, "sort(\""+order+"\") requires a string array", pos)
			}
		}
		sort.SliceStable(out, func(i, j int) bool {
			a := out[i].Data.(string)
			b := out[j].Data.(string)
			if order == "a-z" {
				return a < b
			}
			return a > b
		})
	default:
		return Null, in.throwKind(KindValue, "unsupported sort order; use \"0-9\", \"9-0\", \"a-z\" or \"z-a\"", pos)
	}
	return Arr(out), nil
}

// ---------------------------------------------------------------------------
// Assignment targets
// ---------------------------------------------------------------------------

// execAssign handles `target: value` and the augmented forms on
// identifier, member, index and ephemeral targets. Mutations to arrays and
// objects go through the shared handle, so they are visible to all aliases.
func (in *Interpreter) execAssign(s *AssignStmt, env *Env) (Value, *control) {
	val, c := in.evalExpr(s.Value, env)
	if c != nil {
		return Null, c
	}

	switch t := s.Target.(type) {
	case *Ident:
		if s.Op == ":" {
			if c := in.assignOrDeclare(t.Name, val, env, s.Pos); c != nil {
				return Null, c
			}
			return val, nil
		}
		cur, ok := env.Lookup(t.Name)
		if !ok {
			return Null, in.throwKind(KindName, "undefined variable: "+t.Name, s.Pos)
		}
		nv, c := in.augApply(s.Op, cur, val, s.Pos)
		if c != nil {
			return Null, c
		}
		if err := env.Assign(t.Name, nv); err != nil {
			if errors.Is(err, ErrConstant) {
				return Null, in.throwKind(KindName, "cannot rebind constant: "+t.Name, s.Pos)
			}
			return Null, in.throwKind(KindName, "undefined variable: "+t.Name, s.Pos)
		}
		return nv, nil

	case *Ephemeral:
		f := env.ephFrame()
		if f == nil {
			return Null, in.throwKind(KindRuntime, "no ephemeral scope", s.Pos)
		}
		nv := val
		if s.Op != ":" {
			cur, ok := f.eph[t.Name]
			if !ok {
				cur = Undefined
			}
			var c *control
			nv, c = in.augApply(s.Op, cur, val, s.Pos)
			if c != nil {
				return Null, c
			}
		}
		f.eph[t.Name] = nv
		return nv, nil

	case *Member:
		base, c := in.evalExpr(t.Base, env)
		if c != nil {
			return Null, c
		}
		if base.Tag != VTObject {
			return Null, in.throwKind(KindType, "can only assign properties on objects", s.Pos)
		}
		mo := base.Data.(*MapObject)
		nv := val
		if s.Op != ":" {
			cur, ok := mo.Get(t.Name)
			if !ok {
				return Null, in.throwKind(KindIndex, "key '"+t.Name+"' not found", s.Pos)
			}
			nv, c = in.augApply(s.Op, cur, val, s.Pos)
			if c != nil {
				return Null, c
			}
		}
		mo.Set(t.Name, nv)
		return nv, nil

	case *Index:
		base, c := in.evalExpr(t.Base, env)
		if c != nil {
			return Null, c
		}
		idx, c := in.evalExpr(t.Idx, env)
		if c != nil {
			return Null, c
		}
		switch base.Tag {
		case VTArray:
			if idx.Tag != VTInt {
				return Null, in.throwKind(KindType, "array index must be Int", s.Pos)
			}
			ao := base.Data.(*ArrayObject)
			i := idx.Data.(int64)
			if i < 0 || i >= int64(len(ao.Elems)) {
				return Null, in.throwKind(KindIndex, "index out of bounds", s.Pos)
			}
			nv := val
			if s.Op != ":" {
				nv, c = in.augApply(s.Op, ao.Elems[i], val, s.Pos)
				if c != nil {
					return Null, c
				}
			}
			ao.Elems[i] = nv
			return nv, nil
		case VTObject:
			if idx.Tag != VTStr {
				return Null, in.throwKind(KindType, "object key must be String", s.Pos)
			}
			mo := base.Data.(*MapObject)
			key := idx.Data.(string)
			nv := val
			if s.Op != ":" {
				cur, ok := mo.Get(key)
				if !ok {
					return Null, in.throwKind(KindIndex, "key '"+key+"' not found", s.Pos)
				}
				nv, c = in.augApply(s.Op, cur, val, s.Pos)
				if c != nil {
					return Null, c
				}
			}
			mo.Set(key, nv)
			return nv, nil
		}
		return Null, in.throwKind(KindType, "cannot index-assign "+base.Tag.TypeName(), s.Pos)
	}
	return Null, in.throwKind(KindRuntime, "invalid assignment target", s.Pos)
}

// augApply maps an augmented operator to its base operation. `+:` appends
// to arrays and concatenates strings; the rest require numbers.
func (in *Interpreter) augApply(op string, cur, val Value, pos Pos) (Value, *control) {
	base := strings.TrimSuffix(op, ":")
	if base == "+" && cur.Tag == VTArray {
		ao := cur.Data.(*ArrayObject)
		ao.Elems = append(ao.Elems, val)
		return cur, nil
	}
	return in.binOp(base, cur, val, pos)
}

// incDec implements prefix and postfix `++`/`--`. Postfix yields the value
// before mutation, prefix the value after.
func (in *Interpreter) incDec(x *Unary, env *Env) (Value, *control) {
	delta := int64(1)
	if x.Op == "--" {
		delta = -1
	}

	bump := func(cur Value) (Value, *control) {
		switch cur.Tag {
		case VTInt:
			return Int(cur.Data.(int64) + delta), nil
		case VTFloat:
			return Float(cur.Data.(float64) + float64(delta)), nil
		}
		return Null, in.throwKind(KindType, "'"+x.Op+"' needs a number", x.Pos)
	}

	switch t := x.Operand.(type) {
	case *Ident:
		cur, ok := env.Lookup(t.Name)
		if !ok {
			return Null, in.throwKind(KindName, "undefined variable: "+t.Name, x.Pos)
		}
		nv, c := bump(cur)
		if c != nil {
			return Null, c
		}
		if err := env.Assign(t.Name, nv); err != nil {
			if errors.Is(err, ErrConstant) {
				return Null, in.throwKind(KindName, "cannot rebind constant: "+t.Name, x.Pos)
			}
			return Null, in.throwKind(KindName, "undefined variable: "+t.Name, x.Pos)
		}
		if x.Postfix {
			return cur, nil
		}
		return nv, nil

	case *Member, *Index, *Ephemeral:
		cur, c := in.evalExpr(x.Operand, env)
		if c != nil {
			return Null, c
		}
		nv, c := bump(cur)
		if c != nil {
			return Null, c
		}
		assign := &AssignStmt{Pos: x.Pos, Target: x.Operand, Op: ":", Value: litFor(nv)}
		if _, c := in.execAssign(assign, env); c != nil {
			return Null, c
		}
		if x.Postfix {
			return cur, nil
		}
		return nv, nil
	}
	return Null, in.throwKind(KindType, "'"+x.Op+"' needs an assignable operand", x.Pos)
}

// litFor wraps an already-computed numeric value as a literal expression so
// it can flow through execAssign.
func litFor(v Value) Expr {
	if v.Tag == VTInt {
		return &IntLit{V: v.Data.(int64)}
	}
	return &FloatLit{V: v.Data.(float64)}
}
