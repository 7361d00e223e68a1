// builtins.go — free-function builtins installed in the Core frame.
package fenics

import (
	"bufio"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

func registerBuiltins(in *Interpreter) {
	in.defineNative("print", nativePrint)
	in.defineNative("input", nativeInput)
	in.defineNative("len", nativeLen)
	in.defineNative("type", nativeType)
	in.defineNative("str", nativeStr)
	in.defineNative("int", nativeInt)
	in.defineNative("sort", nativeSort)
	in.defineNative("reverse", nativeReverse)
	in.defineNative("has", nativeHas)
	in.defineNative("keys", nativeKeys)
}

// defineNative installs a native function as a constant Core binding.
func (in *Interpreter) defineNative(name string, fn NativeFunc) {
	in.Core.table[name] = binding{
		val: FunVal(&Fun{Name: name, Native: fn}),
		con: true,
	}
}

func arityError(name string, n int) error {
	plural := "s"
	if n == 1 {
		plural = ""
	}
	return &RuntimeError{Kind: KindType, Msg: fmt.Sprintf("%s() takes exactly %d argument%s", name, n, plural)}
}

// print writes its arguments space-joined and newline-terminated.
func nativePrint(in *Interpreter, args []Value) (Value, error) {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = ToDisplay(a)
	}
	fmt.Fprintln(in.Stdout, strings.Join(parts, " "))
	return Null, nil
}

// input reads one line from Stdin, printing the optional prompt first.
func nativeInput(in *Interpreter, args []Value) (Value, error) {
	if len(args) > 1 {
		return Null, &RuntimeError{Kind: KindType, Msg: "input() takes at most 1 argument"}
	}
	if len(args) == 1 {
		fmt.Fprint(in.Stdout, ToDisplay(args[0]))
	}
	if in.stdinBuf == nil {
		in.stdinBuf = bufio.NewReader(in.Stdin)
	}
	line, err := in.stdinBuf.ReadString('\n')
	if err != nil && line == "" {
		return Str(""), nil
	}
	return Str(strings.TrimRight(line, "\n")), nil
}

func nativeLen(in *Interpreter, args []Value) (Value, error) {
	if len(args) != 1 {
		return Null, arityError("len", 1)
	}
	switch v := args[0]; v.Tag {
	case VTStr:
		return Int(int64(len([]rune(v.Data.(string))))), nil
	case VTArray:
		return Int(int64(len(v.Data.(*ArrayObject).Elems))), nil
	case VTObject:
		return Int(int64(v.Data.(*MapObject).Len())), nil
	case VTModule:
		return Int(int64(v.Data.(*Module).Map.Len())), nil
	}
	return Null, &RuntimeError{Kind: KindType, Msg: "len() requires a string, array or object"}
}

func nativeType(in *Interpreter, args []Value) (Value, error) {
	if len(args) != 1 {
		return Null, arityError("type", 1)
	}
	return Str(args[0].Tag.TypeName()), nil
}

func nativeStr(in *Interpreter, args []Value) (Value, error) {
	if len(args) != 1 {
		return Null, arityError("str", 1)
	}
	return Str(ToDisplay(args[0])), nil
}

func nativeInt(in *Interpreter, args []Value) (Value, error) {
	if len(args) != 1 {
		return Null, arityError("int", 1)
	}
	switch v := args[0]; v.Tag {
	case VTInt:
		return v, nil
	case VTFloat:
		return Int(int64(v.Data.(float64))), nil
	case VTStr:
		s := strings.TrimSpace(v.Data.(string))
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return Null, &RuntimeError{Kind: KindValue, Msg: fmt.Sprintf("cannot convert %q to Int", v.Data.(string))}
		}
		return Int(n), nil
	}
	return Null, &RuntimeError{Kind: KindType, Msg: "int() requires an Int, Float or String"}
}

// sort returns a new array: numeric order for homogeneous numeric arrays,
// lexicographic for homogeneous string arrays.
func nativeSort(in *Interpreter, args []Value) (Value, error) {
	if len(args) != 1 {
		return Null, arityError("sort", 1)
	}
	if args[0].Tag != VTArray {
		return Null, &RuntimeError{Kind: KindType, Msg: "sort() requires an array"}
	}
	src := args[0].Data.(*ArrayObject).Elems
	out := make([]Value, len(src))
	copy(out, src)
	if len(out) == 0 {
		return Arr(out), nil
	}

	allNum, allStr := true, true
	for _, v := range out {
		if !isNumeric(v) {
			allNum = false
		}
		if v.Tag != VTStr {
			allStr = false
		}
	}
	switch {
	case allNum:
		sort.SliceStable(out, func(i, j int) bool {
			a, _ := asFloat(out[i])
			b, _ := asFloat(out[j])
			return a < b
		})
	case allStr:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Data.(string) < out[j].Data.(string)
		})
	default:
		return Null, &RuntimeError{Kind: KindType, Msg: "sort() requires a homogeneous numeric or string array"}
	}
	return Arr(out), nil
}

func nativeReverse(in *Interpreter, args []Value) (Value, error) {
	if len(args) != 1 {
		return Null, arityError("reverse", 1)
	}
	switch v := args[0]; v.Tag {
	case VTArray:
		return reverseArray(v.Data.(*ArrayObject)), nil
	case VTStr:
		return Str(reverseString(v.Data.(string))), nil
	}
	return Null, &RuntimeError{Kind: KindType, Msg: "reverse() requires an array or string"}
}

// has tests key membership for objects and value membership for arrays and
// strings.
func nativeHas(in *Interpreter, args []Value) (Value, error) {
	if len(args) != 2 {
		return Null, arityError("has", 2)
	}
	coll, key := args[0], args[1]
	switch coll.Tag {
	case VTObject:
		if key.Tag != VTStr {
			return Null, &RuntimeError{Kind: KindType, Msg: "has() object keys must be strings"}
		}
		_, ok := coll.Data.(*MapObject).Get(key.Data.(string))
		return Bool(ok), nil
	case VTArray:
		for _, el := range coll.Data.(*ArrayObject).Elems {
			if valuesEqual(el, key) {
				return Bool(true), nil
			}
		}
		return Bool(false), nil
	case VTStr:
		if key.Tag != VTStr {
			return Null, &RuntimeError{Kind: KindType, Msg: "has() on a string needs a string"}
		}
		return Bool(strings.Contains(coll.Data.(string), key.Data.(string))), nil
	}
	return Null, &RuntimeError{Kind: KindType, Msg: "has() requires an object, array or string"}
}

func nativeKeys(in *Interpreter, args []Value) (Value, error) {
	if len(args) != 1 {
		return Null, arityError("keys", 1)
	}
	var mo *MapObject
	switch v := args[0]; v.Tag {
	case VTObject:
		mo = v.Data.(*MapObject)
	case VTModule:
		mo = v.Data.(*Module).Map
	default:
		return Null, &RuntimeError{Kind: KindType, Msg: "keys() requires an object"}
	}
	out := make([]Value, 0, len(mo.Keys))
	for _, k := range mo.Keys {
		out = append(out, Str(k))
	}
	return Arr(out), nil
}
