// printer.go — value display and the canonical program pretty-printer.
//
// ToDisplay renders runtime values the way `print` and string interpolation
// see them: Int/Float in canonical decimal, booleans as true/false, null and
// undefined by name, arrays and objects structurally. A cycle guard emits
// `[...]` / `{...}` placeholders for self-referential containers.
//
// FormatProgram re-emits a parsed Program as canonical source. The printer
// and parser form a round-trip pair: reparsing the printed form yields a
// structurally identical AST (positions aside).
package fenics

import (
	"fmt"
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// Value display
// ---------------------------------------------------------------------------

// ToDisplay renders a value for print/interpolation.
func ToDisplay(v Value) string {
	return displayValue(v, map[interface{}]bool{})
}

// FormatValue is the REPL-facing form; identical to ToDisplay.
func FormatValue(v Value) string { return ToDisplay(v) }

func displayValue(v Value, active map[interface{}]bool) string {
	switch v.Tag {
	case VTNull:
		return "null"
	case VTUndefined:
		return "undefined"
	case VTBool:
		if v.Data.(bool) {
			return "true"
		}
		return "false"
	case VTInt:
		return strconv.FormatInt(v.Data.(int64), 10)
	case VTFloat:
		return strconv.FormatFloat(v.Data.(float64), 'f', -1, 64)
	case VTStr:
		return v.Data.(string)
	case VTRegex:
		ro := v.Data.(*RegexObject)
		return "/" + strings.ReplaceAll(ro.Pattern, "/", "\\/") + "/" + ro.Flags
	case VTArray:
		ao := v.Data.(*ArrayObject)
		if active[v.Data] {
			return "[...]"
		}
		active[v.Data] = true
		defer delete(active, v.Data)
		parts := make([]string, len(ao.Elems))
		for i, el := range ao.Elems {
			parts[i] = displayValue(el, active)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case VTObject:
		mo := v.Data.(*MapObject)
		if active[v.Data] {
			return "{...}"
		}
		active[v.Data] = true
		defer delete(active, v.Data)
		parts := make([]string, 0, len(mo.Keys))
		for _, k := range mo.Keys {
			parts = append(parts, k+": "+displayValue(mo.Entries[k], active))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case VTFun:
		f := v.Data.(*Fun)
		if f.Name != "" {
			return "<function " + f.Name + ">"
		}
		return "<function>"
	case VTModule:
		return "<module " + v.Data.(*Module).Name + ">"
	case VTBridge:
		return "<bridge:" + v.Data.(*BridgeObject).Name + ">"
	}
	return "<unknown>"
}

// ---------------------------------------------------------------------------
// Program printer
// ---------------------------------------------------------------------------

const indentUnit = "    "

// FormatProgram renders a Program as canonical Fenics source.
func FormatProgram(p *Program) string {
	var b strings.Builder
	for _, st := range p.Statements {
		writeStmt(&b, st, 0)
	}
	return b.String()
}

func writeBlock(b *strings.Builder, stmts []Stmt, depth int) {
	for _, st := range stmts {
		writeStmt(b, st, depth)
	}
}

func ind(depth int) string { return strings.Repeat(indentUnit, depth) }

func writeStmt(b *strings.Builder, st Stmt, depth int) {
	pad := ind(depth)
	switch s := st.(type) {
	case *VarDecl:
		head := pad
		if s.TypeName != "" {
			head += s.TypeName + " "
		}
		if s.Global {
			head += "global "
		}
		if s.Const {
			head += "const "
		}
		if obj, ok := s.Value.(*ObjectLit); ok {
			fmt.Fprintf(b, "%s%s:\n", head, s.Name)
			for i, k := range obj.Keys {
				fmt.Fprintf(b, "%s- %s: %s\n", ind(depth+1), keyText(k), exprString(obj.Values[i], 0))
			}
			return
		}
		fmt.Fprintf(b, "%s%s: %s\n", head, s.Name, exprString(s.Value, 0))

	case *FnDecl:
		params := make([]string, len(s.Params))
		for i, p := range s.Params {
			params[i] = p.Name
			if p.TypeName != "" {
				params[i] += ": " + p.TypeName
			}
		}
		ret := ""
		if s.ReturnType != "" {
			ret = " -> " + s.ReturnType
		}
		fmt.Fprintf(b, "%sfn %s(%s)%s:\n", pad, s.Name, strings.Join(params, ", "), ret)
		writeBlock(b, s.Body, depth+1)

	case *IfStmt:
		fmt.Fprintf(b, "%sif %s:\n", pad, exprString(s.Cond, 0))
		writeBlock(b, s.Then, depth+1)
		for _, ei := range s.ElseIfs {
			fmt.Fprintf(b, "%selse if %s:\n", pad, exprString(ei.Cond, 0))
			writeBlock(b, ei.Body, depth+1)
		}
		if s.Else != nil {
			fmt.Fprintf(b, "%selse:\n", pad)
			writeBlock(b, s.Else, depth+1)
		}

	case *ForStmt:
		vars := s.Name
		if s.Key != "" {
			vars = s.Key + ", " + s.Name
		}
		fmt.Fprintf(b, "%sfor %s in %s:\n", pad, vars, exprString(s.Iter, 0))
		writeBlock(b, s.Body, depth+1)

	case *WhileStmt:
		fmt.Fprintf(b, "%swhile %s:\n", pad, exprString(s.Cond, 0))
		writeBlock(b, s.Body, depth+1)

	case *LoopStmt:
		fmt.Fprintf(b, "%sloop %s:\n", pad, exprString(s.Cond, 0))
		writeBlock(b, s.Body, depth+1)

	case *BlockMark:
		fmt.Fprintf(b, "%sblock %s\n", pad, exprString(s.Value, 0))

	case *TryStmt:
		fmt.Fprintf(b, "%stry:\n", pad)
		writeBlock(b, s.Body, depth+1)
		fmt.Fprintf(b, "%scatch (%s)\n", pad, s.ErrName)
		writeBlock(b, s.Catch, depth+1)

	case *ReturnStmt:
		if s.Value != nil {
			fmt.Fprintf(b, "%sreturn %s\n", pad, exprString(s.Value, 0))
		} else {
			fmt.Fprintf(b, "%sreturn\n", pad)
		}

	case *LibStmt:
		fmt.Fprintf(b, "%slib %s:\n", pad, s.Name)
		for _, e := range s.Exports {
			fmt.Fprintf(b, "%s- %s\n", ind(depth+1), e)
		}

	case *ImportStmt:
		ref := s.Ref
		if s.IsPath {
			ref = quoteString(s.Ref)
		}
		if s.Alias != "" {
			fmt.Fprintf(b, "%simport %s as %s\n", pad, ref, s.Alias)
		} else {
			fmt.Fprintf(b, "%simport %s\n", pad, ref)
		}

	case *AssignStmt:
		fmt.Fprintf(b, "%s%s%s %s\n", pad, exprString(s.Target, precPostfix), s.Op, exprString(s.Value, 0))

	case *ExprStmt:
		fmt.Fprintf(b, "%s%s\n", pad, exprString(s.E, 0))
	}
}

// Precedence levels matching the parser; children printed at a level below
// their context are parenthesized.
const (
	precWordTernary = iota
	precTernary
	precOr
	precAnd
	precNot
	precEquality
	precComparison
	precRange
	precAdditive
	precMultiplicative
	precPower
	precUnary
	precPostfix
	precPrimary
)

func binaryPrec(op string) int {
	switch op {
	case "or":
		return precOr
	case "and":
		return precAnd
	case "==", "!=", "===", "!==", "~", "!~", "is":
		return precEquality
	case "<", "<=", ">", ">=":
		return precComparison
	case "+", "-":
		return precAdditive
	case "*", "/", "%":
		return precMultiplicative
	case "**", "^":
		return precPower
	}
	return precPrimary
}

// exprString renders e, adding parentheses when its precedence is below the
// minimum the context requires.
func exprString(e Expr, min int) string {
	s, prec := exprParts(e)
	if prec < min {
		return "(" + s + ")"
	}
	return s
}

func exprParts(e Expr) (string, int) {
	switch x := e.(type) {
	case *IntLit:
		return strconv.FormatInt(x.V, 10), precPrimary
	case *FloatLit:
		s := strconv.FormatFloat(x.V, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		return s, precPrimary
	case *BoolLit:
		if x.V {
			return "true", precPrimary
		}
		return "false", precPrimary
	case *NullLit:
		return "null", precPrimary
	case *UndefinedLit:
		return "undefined", precPrimary
	case *StringLit:
		return stringLitText(x), precPrimary
	case *RegexLit:
		return "/" + strings.ReplaceAll(x.Pattern, "/", "\\/") + "/" + x.Flags, precPrimary
	case *ArrayLit:
		parts := make([]string, len(x.Elems))
		for i, el := range x.Elems {
			parts[i] = exprString(el, 0)
		}
		return "[" + strings.Join(parts, ", ") + "]", precPrimary
	case *ObjectLit:
		parts := make([]string, len(x.Keys))
		for i, k := range x.Keys {
			parts[i] = keyText(k) + ": " + exprString(x.Values[i], 0)
		}
		return "{" + strings.Join(parts, ", ") + "}", precPrimary
	case *Ident:
		return x.Name, precPrimary
	case *Ephemeral:
		return "#" + x.Name, precPrimary
	case *Member:
		return exprString(x.Base, precPostfix) + "." + x.Name, precPostfix
	case *Index:
		return exprString(x.Base, precPostfix) + "[" + exprString(x.Idx, 0) + "]", precPostfix
	case *Call:
		args := make([]string, len(x.Args))
		for i, a := range x.Args {
			args[i] = exprString(a, 0)
		}
		return exprString(x.Fn, precPostfix) + "(" + strings.Join(args, ", ") + ")", precPostfix
	case *Unary:
		if x.Postfix {
			return exprString(x.Operand, precPostfix) + x.Op, precPostfix
		}
		if x.Op == "not" {
			return "not " + exprString(x.Operand, precNot), precNot
		}
		operand := exprString(x.Operand, precUnary)
		if x.Op == "-" && strings.HasPrefix(operand, "-") {
			// "--" would lex as a decrement.
			operand = "(" + operand + ")"
		}
		return x.Op + operand, precUnary
	case *Binary:
		prec := binaryPrec(x.Op)
		var l, r string
		if x.Op == "**" || x.Op == "^" {
			// right-associative
			l = exprString(x.L, prec+1)
			r = exprString(x.R, prec)
		} else {
			l = exprString(x.L, prec)
			r = exprString(x.R, prec+1)
		}
		return l + " " + x.Op + " " + r, prec
	case *Ternary:
		if x.WordForm {
			return "if " + exprString(x.Cond, precOr) + " then " +
				exprString(x.Then, precTernary) + " otherwise " +
				exprString(x.Else, precTernary), precWordTernary
		}
		return exprString(x.Cond, precOr) + " ? " + exprString(x.Then, precOr) +
			" : " + exprString(x.Else, precTernary), precTernary
	case *RangeExpr:
		return exprString(x.Lo, precAdditive) + ".." + exprString(x.Hi, precAdditive), precRange
	}
	return "<?>", precPrimary
}

// keyText renders an object key: bare when it is a plain identifier,
// quoted otherwise.
func keyText(k string) string {
	if k == "" {
		return quoteString(k)
	}
	if _, isKw := keywords[k]; isKw {
		return quoteString(k)
	}
	for i := 0; i < len(k); i++ {
		c := k[i]
		if i == 0 && !isAlpha(c) {
			return quoteString(k)
		}
		if !isAlphaNum(c) {
			return quoteString(k)
		}
	}
	return k
}

func stringLitText(x *StringLit) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, part := range x.Parts {
		if part.E != nil {
			b.WriteString("#{")
			b.WriteString(exprString(part.E, 0))
			b.WriteByte('}')
			continue
		}
		b.WriteString(escapeText(part.Text))
	}
	b.WriteByte('"')
	return b.String()
}

func quoteString(s string) string {
	return "\"" + escapeText(s) + "\""
}

func escapeText(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\\':
			b.WriteString("\\\\")
		case '"':
			b.WriteString("\\\"")
		case '\n':
			b.WriteString("\\n")
		case '\t':
			b.WriteString("\\t")
		case '\r':
			b.WriteString("\\r")
		case '#':
			b.WriteString("\\#")
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
