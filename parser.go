// parser.go — recursive-descent parser for Fenics.
//
// The parser consumes the token stream produced by the indent-aware lexer
// (lexer.go) and builds the typed AST defined in ast.go.
//
// Blocks are delimited by indentation: a block-introducing line ends with
// ':' and its body is the maximal run of statements whose indentation is
// strictly greater than the header's. `else if` / `else` / `catch` lines are
// continuations recognized at the header's own indentation.
//
// Expression precedence (low → high):
//
//	ternary (`?:` and `if/then/otherwise`; the word form binds looser)
//	or
//	and
//	not
//	== != === !== ~ !~ is
//	< <= > >=
//	.. (range)
//	+ -
//	* / %
//	** ^ (right-associative)
//	unary - ! ++ -- (prefix), ++ -- (postfix)
//	member / index / call (left-associative postfix)
//
// String interpolation segments captured by the lexer are sub-parsed here
// with a fresh lexer, so `#{...}` bodies support the full expression
// grammar.
package fenics

import "fmt"

// ParseError is a syntax failure with a 1-based position.
type ParseError struct {
	Line int
	Col  int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("ParseError at %d:%d: %s", e.Line, e.Col, e.Msg)
}

// Parse turns source text into a Program.
func Parse(src string) (*Program, error) {
	toks, err := NewLexer(src).Scan()
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	return p.program()
}

type parser struct {
	toks []Token
	i    int
}

// ─────────────────────────── token basics ───────────────────────────

func (p *parser) peek() Token {
	if p.i >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.i]
}

func (p *parser) peekN(n int) Token {
	if p.i+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.i+n]
}

func (p *parser) prev() Token { return p.toks[p.i-1] }

func (p *parser) atEnd() bool { return p.peek().Type == EOF }

func (p *parser) advance() Token {
	t := p.peek()
	if !p.atEnd() {
		p.i++
	}
	return t
}

func (p *parser) match(tt ...TokenType) bool {
	for _, t := range tt {
		if p.peek().Type == t {
			p.i++
			return true
		}
	}
	return false
}

func (p *parser) need(t TokenType, msg string) (Token, error) {
	if p.match(t) {
		return p.prev(), nil
	}
	g := p.peek()
	return Token{}, &ParseError{Line: g.Line, Col: g.Col, Msg: msg}
}

func (p *parser) errAt(t Token, msg string) error {
	return &ParseError{Line: t.Line, Col: t.Col, Msg: msg}
}

func (p *parser) skipNewlines() {
	for p.peek().Type == NEWLINE {
		p.i++
	}
}

// endStatement consumes the statement-terminating newline (or EOF).
func (p *parser) endStatement() error {
	if p.match(NEWLINE) || p.atEnd() {
		return nil
	}
	g := p.peek()
	return p.errAt(g, fmt.Sprintf("unexpected %q at end of statement", g.Lexeme))
}

func at(t Token) Pos { return Pos{Line: t.Line, Col: t.Col} }

// ─────────────────────────── program & blocks ───────────────────────────

func (p *parser) program() (*Program, error) {
	prog := &Program{}
	p.skipNewlines()
	for !p.atEnd() {
		st, err := p.statement()
		if err != nil {
			return nil, err
		}
		prog.Statements = append(prog.Statements, st)
		p.skipNewlines()
	}
	return prog, nil
}

// block parses the indented body following a `header:` line. The header's
// trailing ':' and newline must already be consumed.
func (p *parser) block(headerIndent int) ([]Stmt, error) {
	var body []Stmt
	for {
		p.skipNewlines()
		if p.atEnd() || p.peek().Indent <= headerIndent {
			break
		}
		st, err := p.statement()
		if err != nil {
			return nil, err
		}
		body = append(body, st)
	}
	if len(body) == 0 {
		return nil, p.errAt(p.peek(), "expected an indented block")
	}
	return body, nil
}

// headerColonBlock consumes `: NEWLINE` then the indented body.
func (p *parser) headerColonBlock(headerIndent int) ([]Stmt, error) {
	if _, err := p.need(COLON, "expected ':' to open a block"); err != nil {
		return nil, err
	}
	if _, err := p.need(NEWLINE, "expected a newline after ':'"); err != nil {
		return nil, err
	}
	return p.block(headerIndent)
}

// ─────────────────────────── statements ───────────────────────────

func (p *parser) statement() (Stmt, error) {
	switch p.peek().Type {
	case FN:
		return p.fnDecl()
	case IF:
		return p.ifStmt()
	case FOR:
		return p.forStmt()
	case WHILE:
		return p.whileStmt()
	case LOOP:
		return p.loopStmt()
	case TRY:
		return p.tryStmt()
	case RETURN:
		return p.returnStmt()
	case LIB:
		return p.libStmt()
	case IMPORT:
		return p.importStmt()
	case BLOCKKW:
		return p.blockMark()
	case CONST, GLOBAL:
		return p.varDecl("")
	case IDENT:
		// `Type name: ...` or `Type const name: ...` — a leading type
		// annotation followed by another word.
		if n := p.peekN(1); n.Type == CONST || n.Type == GLOBAL ||
			(n.Type == IDENT && p.peekN(2).Type == COLON) {
			ty := p.advance()
			return p.varDecl(ty.Str)
		}
	}
	return p.simpleStatement()
}

// varDecl parses `[const|global]* name: value` after an optional leading
// type annotation (already consumed by the caller).
func (p *parser) varDecl(typeName string) (Stmt, error) {
	start := p.peek()
	isConst, isGlobal := false, false
	for {
		if p.match(CONST) {
			isConst = true
			continue
		}
		if p.match(GLOBAL) {
			isGlobal = true
			continue
		}
		break
	}
	name, err := p.need(IDENT, "expected a name in declaration")
	if err != nil {
		return nil, err
	}
	if _, err := p.need(COLON, "expected ':' in declaration"); err != nil {
		return nil, err
	}
	val, err := p.declValue(start.Indent)
	if err != nil {
		return nil, err
	}
	return &VarDecl{
		Pos: at(start), TypeName: typeName,
		Const: isConst, Global: isGlobal,
		Name: name.Str, Value: val,
	}, nil
}

// declValue parses the right side of a declaration: either a one-line
// expression, or a dashed object block when the ':' ends the line.
func (p *parser) declValue(headerIndent int) (Expr, error) {
	if p.peek().Type == NEWLINE {
		p.advance()
		return p.dashedObject(headerIndent)
	}
	val, err := p.expression()
	if err != nil {
		return nil, err
	}
	return val, p.endStatement()
}

// dashedObject parses an indented run of `- key: value` entries.
func (p *parser) dashedObject(headerIndent int) (Expr, error) {
	obj := &ObjectLit{Pos: at(p.peek())}
	for {
		p.skipNewlines()
		if p.atEnd() || p.peek().Indent <= headerIndent {
			break
		}
		if _, err := p.need(MINUS, "expected '-' to start an object entry"); err != nil {
			return nil, err
		}
		var key string
		switch p.peek().Type {
		case IDENT:
			key = p.advance().Str
		case STRING:
			tok := p.advance()
			if len(tok.Segs) != 1 || tok.Segs[0].Expr != "" {
				return nil, p.errAt(tok, "object keys cannot be interpolated")
			}
			key = tok.Segs[0].Text
		default:
			return nil, p.errAt(p.peek(), "expected an object key")
		}
		if _, err := p.need(COLON, "expected ':' after object key"); err != nil {
			return nil, err
		}
		val, err := p.expression()
		if err != nil {
			return nil, err
		}
		obj.Keys = append(obj.Keys, key)
		obj.Values = append(obj.Values, val)
		p.match(COMMA)
		if err := p.endStatement(); err != nil {
			return nil, err
		}
	}
	if len(obj.Keys) == 0 {
		return nil, p.errAt(p.peek(), "expected at least one '- key: value' entry")
	}
	return obj, nil
}

func (p *parser) fnDecl() (Stmt, error) {
	start := p.advance() // fn
	name, err := p.need(IDENT, "expected a function name after 'fn'")
	if err != nil {
		return nil, err
	}
	if _, err := p.need(LPAREN, "expected '(' after the function name"); err != nil {
		return nil, err
	}
	var params []Param
	for p.peek().Type != RPAREN {
		pn, err := p.need(IDENT, "expected a parameter name")
		if err != nil {
			return nil, err
		}
		param := Param{Name: pn.Str}
		if p.match(COLON) {
			tn, err := p.need(IDENT, "expected a type after ':'")
			if err != nil {
				return nil, err
			}
			param.TypeName = tn.Str
		}
		params = append(params, param)
		if !p.match(COMMA) {
			break
		}
	}
	if _, err := p.need(RPAREN, "expected ')' after parameters"); err != nil {
		return nil, err
	}
	retType := ""
	if p.match(ARROW) {
		tn, err := p.need(IDENT, "expected a return type after '->'")
		if err != nil {
			return nil, err
		}
		retType = tn.Str
	}
	body, err := p.headerColonBlock(start.Indent)
	if err != nil {
		return nil, err
	}
	return &FnDecl{Pos: at(start), Name: name.Str, Params: params, ReturnType: retType, Body: body}, nil
}

func (p *parser) ifStmt() (Stmt, error) {
	start := p.advance() // if
	cond, err := p.ternary()
	if err != nil {
		return nil, err
	}
	// `if cond then a otherwise b` at statement level is the word-form
	// ternary used for its effect, not an if statement.
	if p.peek().Type == THEN {
		p.advance()
		thenE, err := p.expression()
		if err != nil {
			return nil, err
		}
		if _, err := p.need(OTHERWISE, "expected 'otherwise' in conditional expression"); err != nil {
			return nil, err
		}
		elseE, err := p.expression()
		if err != nil {
			return nil, err
		}
		t := &Ternary{Pos: at(start), Cond: cond, Then: thenE, Else: elseE, WordForm: true}
		return &ExprStmt{Pos: at(start), E: t}, p.endStatement()
	}

	then, err := p.headerColonBlock(start.Indent)
	if err != nil {
		return nil, err
	}
	st := &IfStmt{Pos: at(start), Cond: cond, Then: then}

	for {
		p.skipNewlines()
		if p.atEnd() || p.peek().Type != ELSE || p.peek().Indent != start.Indent {
			break
		}
		p.advance() // else
		if p.match(IF) {
			c, err := p.expression()
			if err != nil {
				return nil, err
			}
			body, err := p.headerColonBlock(start.Indent)
			if err != nil {
				return nil, err
			}
			st.ElseIfs = append(st.ElseIfs, ElseIf{Cond: c, Body: body})
			continue
		}
		body, err := p.headerColonBlock(start.Indent)
		if err != nil {
			return nil, err
		}
		st.Else = body
		break
	}
	return st, nil
}

func (p *parser) forStmt() (Stmt, error) {
	start := p.advance() // for
	first, err := p.need(IDENT, "expected a loop variable after 'for'")
	if err != nil {
		return nil, err
	}
	key, name := "", first.Str
	if p.match(COMMA) {
		second, err := p.need(IDENT, "expected a second loop variable after ','")
		if err != nil {
			return nil, err
		}
		key, name = first.Str, second.Str
	}
	if _, err := p.need(IN, "expected 'in' in for loop"); err != nil {
		return nil, err
	}
	iter, err := p.expression()
	if err != nil {
		return nil, err
	}
	body, err := p.headerColonBlock(start.Indent)
	if err != nil {
		return nil, err
	}
	return &ForStmt{Pos: at(start), Key: key, Name: name, Iter: iter, Body: body}, nil
}

func (p *parser) whileStmt() (Stmt, error) {
	start := p.advance() // while
	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	body, err := p.headerColonBlock(start.Indent)
	if err != nil {
		return nil, err
	}
	return &WhileStmt{Pos: at(start), Cond: cond, Body: body}, nil
}

func (p *parser) loopStmt() (Stmt, error) {
	start := p.advance() // loop
	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	body, err := p.headerColonBlock(start.Indent)
	if err != nil {
		return nil, err
	}
	return &LoopStmt{Pos: at(start), Cond: cond, Body: body}, nil
}

func (p *parser) tryStmt() (Stmt, error) {
	start := p.advance() // try
	body, err := p.headerColonBlock(start.Indent)
	if err != nil {
		return nil, err
	}
	p.skipNewlines()
	if p.peek().Type != CATCH || p.peek().Indent != start.Indent {
		return nil, p.errAt(p.peek(), "expected 'catch' after try block")
	}
	p.advance() // catch
	if _, err := p.need(LPAREN, "expected '(' after 'catch'"); err != nil {
		return nil, err
	}
	name, err := p.need(IDENT, "expected an exception name")
	if err != nil {
		return nil, err
	}
	if _, err := p.need(RPAREN, "expected ')' after the exception name"); err != nil {
		return nil, err
	}
	p.match(COLON)
	if _, err := p.need(NEWLINE, "expected a newline after 'catch (...)'"); err != nil {
		return nil, err
	}
	catch, err := p.block(start.Indent)
	if err != nil {
		return nil, err
	}
	return &TryStmt{Pos: at(start), Body: body, ErrName: name.Str, Catch: catch}, nil
}

func (p *parser) returnStmt() (Stmt, error) {
	start := p.advance() // return
	st := &ReturnStmt{Pos: at(start)}
	if p.peek().Type != NEWLINE && !p.atEnd() {
		v, err := p.expression()
		if err != nil {
			return nil, err
		}
		st.Value = v
	}
	return st, p.endStatement()
}

func (p *parser) blockMark() (Stmt, error) {
	start := p.advance() // block
	v, err := p.expression()
	if err != nil {
		return nil, err
	}
	return &BlockMark{Pos: at(start), Value: v}, p.endStatement()
}

func (p *parser) libStmt() (Stmt, error) {
	start := p.advance() // lib
	name, err := p.need(IDENT, "expected a library name after 'lib'")
	if err != nil {
		return nil, err
	}
	if _, err := p.need(COLON, "expected ':' after the library name"); err != nil {
		return nil, err
	}
	if _, err := p.need(NEWLINE, "expected a newline after ':'"); err != nil {
		return nil, err
	}
	st := &LibStmt{Pos: at(start), Name: name.Str}
	for {
		p.skipNewlines()
		if p.atEnd() || p.peek().Indent <= start.Indent {
			break
		}
		if _, err := p.need(MINUS, "expected '-' to start a lib item"); err != nil {
			return nil, err
		}
		item, err := p.need(IDENT, "expected an exported function name")
		if err != nil {
			return nil, err
		}
		st.Exports = append(st.Exports, item.Str)
		p.match(COMMA)
		if err := p.endStatement(); err != nil {
			return nil, err
		}
	}
	if len(st.Exports) == 0 {
		return nil, p.errAt(p.peek(), "expected at least one '- name' item in lib block")
	}
	return st, nil
}

func (p *parser) importStmt() (Stmt, error) {
	start := p.advance() // import
	st := &ImportStmt{Pos: at(start)}
	switch p.peek().Type {
	case IDENT:
		st.Ref = p.advance().Str
	case STRING:
		tok := p.advance()
		if len(tok.Segs) != 1 || tok.Segs[0].Expr != "" {
			return nil, p.errAt(tok, "import paths cannot be interpolated")
		}
		st.Ref = tok.Segs[0].Text
		st.IsPath = true
	default:
		return nil, p.errAt(p.peek(), "expected a module name or path after 'import'")
	}
	if p.match(AS) {
		alias, err := p.need(IDENT, "expected an alias after 'as'")
		if err != nil {
			return nil, err
		}
		st.Alias = alias.Str
	}
	return st, p.endStatement()
}

// simpleStatement parses declarations, assignments, augmented assignments
// and expression statements. All of them start with an expression.
func (p *parser) simpleStatement() (Stmt, error) {
	start := p.peek()
	e, err := p.expression()
	if err != nil {
		return nil, err
	}

	switch p.peek().Type {
	case COLON:
		if !isAssignable(e) {
			return nil, p.errAt(p.peek(), "invalid assignment target")
		}
		p.advance()
		if id, ok := e.(*Ident); ok && p.peek().Type == NEWLINE {
			p.advance()
			obj, err := p.dashedObject(start.Indent)
			if err != nil {
				return nil, err
			}
			return &VarDecl{Pos: at(start), Name: id.Name, Value: obj}, nil
		}
		val, err := p.expression()
		if err != nil {
			return nil, err
		}
		return &AssignStmt{Pos: at(start), Target: e, Op: ":", Value: val}, p.endStatement()

	case PLUSASSIGN, MINUSASSIGN, STARASSIGN, SLASHASSIGN, PERCENTASSIGN:
		if !isAssignable(e) {
			return nil, p.errAt(p.peek(), "invalid assignment target")
		}
		op := p.advance().Lexeme
		val, err := p.expression()
		if err != nil {
			return nil, err
		}
		return &AssignStmt{Pos: at(start), Target: e, Op: op, Value: val}, p.endStatement()
	}

	return &ExprStmt{Pos: at(start), E: e}, p.endStatement()
}

func isAssignable(e Expr) bool {
	switch e.(type) {
	case *Ident, *Member, *Index, *Ephemeral:
		return true
	}
	return false
}

// ─────────────────────────── expressions ───────────────────────────

// expression parses at the word-ternary level, the loosest binding.
func (p *parser) expression() (Expr, error) {
	if p.peek().Type == IF {
		start := p.advance()
		cond, err := p.ternary()
		if err != nil {
			return nil, err
		}
		if _, err := p.need(THEN, "expected 'then' in conditional expression"); err != nil {
			return nil, err
		}
		thenE, err := p.expression()
		if err != nil {
			return nil, err
		}
		if _, err := p.need(OTHERWISE, "expected 'otherwise' in conditional expression"); err != nil {
			return nil, err
		}
		elseE, err := p.expression()
		if err != nil {
			return nil, err
		}
		return &Ternary{Pos: at(start), Cond: cond, Then: thenE, Else: elseE, WordForm: true}, nil
	}
	return p.ternary()
}

// ternary parses the `cond ? a : b` form (right-associative in b).
func (p *parser) ternary() (Expr, error) {
	cond, err := p.orExpr()
	if err != nil {
		return nil, err
	}
	if !p.match(QUESTION) {
		return cond, nil
	}
	q := p.prev()
	thenE, err := p.orExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.need(COLON, "expected ':' in '?:' expression"); err != nil {
		return nil, err
	}
	elseE, err := p.ternary()
	if err != nil {
		return nil, err
	}
	return &Ternary{Pos: at(q), Cond: cond, Then: thenE, Else: elseE}, nil
}

func (p *parser) orExpr() (Expr, error) {
	e, err := p.andExpr()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == OR {
		op := p.advance()
		r, err := p.andExpr()
		if err != nil {
			return nil, err
		}
		e = &Binary{Pos: at(op), Op: "or", L: e, R: r}
	}
	return e, nil
}

func (p *parser) andExpr() (Expr, error) {
	e, err := p.notExpr()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == AND {
		op := p.advance()
		r, err := p.notExpr()
		if err != nil {
			return nil, err
		}
		e = &Binary{Pos: at(op), Op: "and", L: e, R: r}
	}
	return e, nil
}

func (p *parser) notExpr() (Expr, error) {
	if p.peek().Type == NOT {
		op := p.advance()
		operand, err := p.notExpr()
		if err != nil {
			return nil, err
		}
		return &Unary{Pos: at(op), Op: "not", Operand: operand}, nil
	}
	return p.equality()
}

func (p *parser) equality() (Expr, error) {
	e, err := p.comparison()
	if err != nil {
		return nil, err
	}
	for {
		switch p.peek().Type {
		case EQ, NEQ, STRICTEQ, STRICTNEQ, MATCH, NOTMATCH, IS:
			op := p.advance()
			r, err := p.comparison()
			if err != nil {
				return nil, err
			}
			e = &Binary{Pos: at(op), Op: op.Lexeme, L: e, R: r}
		default:
			return e, nil
		}
	}
}

func (p *parser) comparison() (Expr, error) {
	e, err := p.rangeExpr()
	if err != nil {
		return nil, err
	}
	for {
		switch p.peek().Type {
		case LT, LE, GT, GE:
			op := p.advance()
			r, err := p.rangeExpr()
			if err != nil {
				return nil, err
			}
			e = &Binary{Pos: at(op), Op: op.Lexeme, L: e, R: r}
		default:
			return e, nil
		}
	}
}

func (p *parser) rangeExpr() (Expr, error) {
	lo, err := p.additive()
	if err != nil {
		return nil, err
	}
	if p.peek().Type == DOTDOT {
		op := p.advance()
		hi, err := p.additive()
		if err != nil {
			return nil, err
		}
		return &RangeExpr{Pos: at(op), Lo: lo, Hi: hi}, nil
	}
	return lo, nil
}

func (p *parser) additive() (Expr, error) {
	e, err := p.multiplicative()
	if err != nil {
		return nil, err
	}
	for {
		switch p.peek().Type {
		case PLUS, MINUS:
			op := p.advance()
			r, err := p.multiplicative()
			if err != nil {
				return nil, err
			}
			e = &Binary{Pos: at(op), Op: op.Lexeme, L: e, R: r}
		default:
			return e, nil
		}
	}
}

func (p *parser) multiplicative() (Expr, error) {
	e, err := p.power()
	if err != nil {
		return nil, err
	}
	for {
		switch p.peek().Type {
		case STAR, SLASH, PERCENT:
			op := p.advance()
			r, err := p.power()
			if err != nil {
				return nil, err
			}
			e = &Binary{Pos: at(op), Op: op.Lexeme, L: e, R: r}
		default:
			return e, nil
		}
	}
}

func (p *parser) power() (Expr, error) {
	base, err := p.unary()
	if err != nil {
		return nil, err
	}
	if p.peek().Type == POW {
		op := p.advance()
		exp, err := p.power() // right-associative
		if err != nil {
			return nil, err
		}
		return &Binary{Pos: at(op), Op: op.Lexeme, L: base, R: exp}, nil
	}
	return base, nil
}

func (p *parser) unary() (Expr, error) {
	switch p.peek().Type {
	case MINUS, BANG:
		op := p.advance()
		operand, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &Unary{Pos: at(op), Op: op.Lexeme, Operand: operand}, nil
	case INCR, DECR:
		op := p.advance()
		operand, err := p.unary()
		if err != nil {
			return nil, err
		}
		if !isAssignable(operand) {
			return nil, p.errAt(op, fmt.Sprintf("'%s' needs an assignable operand", op.Lexeme))
		}
		return &Unary{Pos: at(op), Op: op.Lexeme, Operand: operand}, nil
	}
	return p.postfix()
}

func (p *parser) postfix() (Expr, error) {
	e, err := p.primary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.peek().Type {
		case DOT:
			dot := p.advance()
			name, err := p.need(IDENT, "expected a property name after '.'")
			if err != nil {
				return nil, err
			}
			e = &Member{Pos: at(dot), Base: e, Name: name.Str}
		case LBRACKET:
			lb := p.advance()
			idx, err := p.expression()
			if err != nil {
				return nil, err
			}
			if _, err := p.need(RBRACKET, "expected ']' after index"); err != nil {
				return nil, err
			}
			e = &Index{Pos: at(lb), Base: e, Idx: idx}
		case LPAREN:
			lp := p.advance()
			var args []Expr
			for p.peek().Type != RPAREN {
				a, err := p.expression()
				if err != nil {
					return nil, err
				}
				args = append(args, a)
				if !p.match(COMMA) {
					break
				}
			}
			if _, err := p.need(RPAREN, "expected ')' after arguments"); err != nil {
				return nil, err
			}
			e = &Call{Pos: at(lp), Fn: e, Args: args}
		case INCR, DECR:
			op := p.advance()
			if !isAssignable(e) {
				return nil, p.errAt(op, fmt.Sprintf("'%s' needs an assignable operand", op.Lexeme))
			}
			e = &Unary{Pos: at(op), Op: op.Lexeme, Operand: e, Postfix: true}
		default:
			return e, nil
		}
	}
}

func (p *parser) primary() (Expr, error) {
	tok := p.peek()
	switch tok.Type {
	case INT:
		p.advance()
		return &IntLit{Pos: at(tok), V: tok.Int}, nil
	case FLOAT:
		p.advance()
		return &FloatLit{Pos: at(tok), V: tok.Float}, nil
	case TRUE:
		p.advance()
		return &BoolLit{Pos: at(tok), V: true}, nil
	case FALSE:
		p.advance()
		return &BoolLit{Pos: at(tok), V: false}, nil
	case NULL, NIL:
		p.advance()
		return &NullLit{Pos: at(tok)}, nil
	case UNDEFINED:
		p.advance()
		return &UndefinedLit{Pos: at(tok)}, nil
	case STRING:
		p.advance()
		return p.stringLit(tok)
	case REGEX:
		p.advance()
		return &RegexLit{Pos: at(tok), Pattern: tok.Str, Flags: tok.Flags}, nil
	case IDENT:
		p.advance()
		return &Ident{Pos: at(tok), Name: tok.Str}, nil
	case EPHEMERAL:
		p.advance()
		return &Ephemeral{Pos: at(tok), Name: tok.Str}, nil
	case LPAREN:
		p.advance()
		e, err := p.expression()
		if err != nil {
			return nil, err
		}
		if _, err := p.need(RPAREN, "expected ')'"); err != nil {
			return nil, err
		}
		return e, nil
	case LBRACKET:
		p.advance()
		arr := &ArrayLit{Pos: at(tok)}
		for p.peek().Type != RBRACKET {
			e, err := p.expression()
			if err != nil {
				return nil, err
			}
			arr.Elems = append(arr.Elems, e)
			if !p.match(COMMA) {
				break
			}
		}
		if _, err := p.need(RBRACKET, "expected ']' after array elements"); err != nil {
			return nil, err
		}
		return arr, nil
	case LBRACE:
		p.advance()
		obj := &ObjectLit{Pos: at(tok)}
		for p.peek().Type != RBRACE {
			var key string
			switch p.peek().Type {
			case IDENT:
				key = p.advance().Str
			case STRING:
				kt := p.advance()
				if len(kt.Segs) != 1 || kt.Segs[0].Expr != "" {
					return nil, p.errAt(kt, "object keys cannot be interpolated")
				}
				key = kt.Segs[0].Text
			default:
				return nil, p.errAt(p.peek(), "expected an object key")
			}
			if _, err := p.need(COLON, "expected ':' after object key"); err != nil {
				return nil, err
			}
			v, err := p.expression()
			if err != nil {
				return nil, err
			}
			obj.Keys = append(obj.Keys, key)
			obj.Values = append(obj.Values, v)
			if !p.match(COMMA) {
				break
			}
		}
		if _, err := p.need(RBRACE, "expected '}' after object entries"); err != nil {
			return nil, err
		}
		return obj, nil
	}
	return nil, p.errAt(tok, fmt.Sprintf("unexpected %q in expression", tok.Lexeme))
}

// stringLit converts a STRING token's raw segments into a StringLit,
// sub-parsing each `#{...}` body with a fresh lexer.
func (p *parser) stringLit(tok Token) (Expr, error) {
	lit := &StringLit{Pos: at(tok)}
	for _, seg := range tok.Segs {
		if seg.Expr == "" && (seg.Text != "" || len(tok.Segs) == 1) {
			lit.Parts = append(lit.Parts, StringPart{Text: seg.Text})
			continue
		}
		e, err := parseEmbedded(seg)
		if err != nil {
			return nil, err
		}
		lit.Parts = append(lit.Parts, StringPart{E: e})
	}
	return lit, nil
}

// parseEmbedded parses the raw text of one interpolation segment as a
// complete expression. Errors are reported at the segment's position in the
// enclosing literal.
func parseEmbedded(seg StringSeg) (Expr, error) {
	toks, err := NewLexer(seg.Expr).Scan()
	if err != nil {
		return nil, &ParseError{Line: seg.Line, Col: seg.Col, Msg: "in interpolation: " + err.Error()}
	}
	sub := &parser{toks: toks}
	e, perr := sub.expression()
	if perr != nil {
		return nil, &ParseError{Line: seg.Line, Col: seg.Col, Msg: "in interpolation: " + perr.Error()}
	}
	sub.skipNewlines()
	if !sub.atEnd() {
		return nil, &ParseError{Line: seg.Line, Col: seg.Col, Msg: "unexpected trailing tokens in interpolation"}
	}
	return e, nil
}
