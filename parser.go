// parser.go — recursive-descent parser for Nikl.
//
// The parser consumes the token stream produced by the lexer and builds the
// typed AST from ast.go, one top-level statement at a time until EOF. Binary
// expressions are parsed with one function per precedence level:
//
//	or < and < equality < comparison < additive < multiplicative < unary
//
// with the postfix operators (call, index, member access) binding tighter
// than anything else. All binary operators are left-associative. A '(' or
// '[' at the start of a line never continues the previous expression, so a
// tuple or array literal can open a statement; a '{' opens a hashmap literal
// instead of a block when followed by '}' or by a key and ':'.
//
// Parsing is fail-fast: the first token that cannot continue the current
// production aborts the parse with a *ParseError naming the unexpected token
// and its 1-based position. No partial AST is returned and there is no
// error recovery.
package nikl

import (
	"fmt"
	"strconv"
)

// ParseError reports the first structural error found while parsing.
type ParseError struct {
	Line int
	Col  int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("PARSE ERROR at %d:%d: %s", e.Line, e.Col, e.Msg)
}

// Parse consumes tokens (as produced by Tokenize, EOF-terminated) and
// returns the program's top-level statements.
func Parse(tokens []Token) ([]Stmt, error) {
	p := &parser{toks: tokens}
	var stmts []Stmt
	for !p.atEnd() {
		st, err := p.statement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, st)
	}
	return stmts, nil
}

// ParseSource tokenizes and parses src in one step.
func ParseSource(src string) ([]Stmt, error) {
	toks, err := Tokenize(src)
	if err != nil {
		return nil, err
	}
	return Parse(toks)
}

type parser struct {
	toks []Token
	i    int
}

// ----- token basics -----

func (p *parser) atEnd() bool { return p.peek().Type == EOF }

func (p *parser) peek() Token {
	if p.i >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.i]
}

func (p *parser) peekN(n int) Token {
	idx := p.i + n
	if idx >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[idx]
}

func (p *parser) prev() Token { return p.toks[p.i-1] }

func (p *parser) match(tt ...TokenType) bool {
	if p.atEnd() {
		return false
	}
	for _, t := range tt {
		if p.peek().Type == t {
			p.i++
			return true
		}
	}
	return false
}

func (p *parser) need(t TokenType, what string) (Token, error) {
	if p.match(t) {
		return p.prev(), nil
	}
	return Token{}, p.errHere(what)
}

func (p *parser) errHere(what string) error {
	g := p.peek()
	if g.Type == EOF {
		return &ParseError{Line: g.Line, Col: g.Col, Msg: fmt.Sprintf("expected %s, got end of input", what)}
	}
	return &ParseError{Line: g.Line, Col: g.Col, Msg: fmt.Sprintf("expected %s, got '%s'", what, g.Lexeme)}
}

// canStartExpr reports whether tt can begin an expression; used to decide
// whether `return` carries a value.
func canStartExpr(tt TokenType) bool {
	switch tt {
	case INTEGER, FLOAT, STRING, BOOLEAN, NONE, ID,
		LPAREN, LSQUARE, LCURLY, FUNCTION, MINUS, NOT:
		return true
	default:
		return false
	}
}

// ----- statements -----

func (p *parser) statement() (Stmt, error) {
	switch p.peek().Type {
	case LET:
		return p.letStatement()
	case IF:
		return p.ifStatement()
	case WHILE:
		return p.whileStatement()
	case FUNCTION:
		// `fun name(...)` is a definition; `fun(...)` is an expression.
		if p.peekN(1).Type == ID {
			return p.funStatement()
		}
	case RETURN:
		return p.returnStatement()
	case IMPORT:
		return p.importStatement()
	case LCURLY:
		if !p.mapAhead() {
			return p.blockStatement()
		}
	}
	return p.exprOrAssignStatement()
}

// mapAhead disambiguates a '{' at statement position: '{}' and
// '{' KEY ':' (string or identifier key) open a hashmap literal, anything
// else opens a block.
func (p *parser) mapAhead() bool {
	switch p.peekN(1).Type {
	case RCURLY:
		return true
	case STRING, ID:
		return p.peekN(2).Type == COLON
	default:
		return false
	}
}

func (p *parser) letStatement() (Stmt, error) {
	p.match(LET)
	name, err := p.need(ID, "variable name after 'let'")
	if err != nil {
		return nil, err
	}
	if _, err := p.need(ASSIGN, "'=' in let binding"); err != nil {
		return nil, err
	}
	value, err := p.expression()
	if err != nil {
		return nil, err
	}
	return &LetStmt{Name: name.Lexeme, Value: value}, nil
}

func (p *parser) ifStatement() (Stmt, error) {
	p.match(IF)
	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	then, err := p.blockStatement()
	if err != nil {
		return nil, err
	}
	var elseBranch Stmt
	if p.match(ELSE) {
		if p.peek().Type == IF {
			elseBranch, err = p.ifStatement()
		} else {
			elseBranch, err = p.blockStatement()
		}
		if err != nil {
			return nil, err
		}
	}
	return &IfStmt{Cond: cond, Then: then.(*BlockStmt), Else: elseBranch}, nil
}

func (p *parser) whileStatement() (Stmt, error) {
	p.match(WHILE)
	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	body, err := p.blockStatement()
	if err != nil {
		return nil, err
	}
	return &WhileStmt{Cond: cond, Body: body.(*BlockStmt)}, nil
}

func (p *parser) funStatement() (Stmt, error) {
	p.match(FUNCTION)
	name, err := p.need(ID, "function name after 'fun'")
	if err != nil {
		return nil, err
	}
	params, body, err := p.funRest()
	if err != nil {
		return nil, err
	}
	return &FunStmt{Name: name.Lexeme, Params: params, Body: body}, nil
}

// funRest parses "(params) { body }" shared by named and anonymous forms.
func (p *parser) funRest() ([]string, *BlockStmt, error) {
	if _, err := p.need(LPAREN, "'(' after function name"); err != nil {
		return nil, nil, err
	}
	var params []string
	if p.peek().Type != RPAREN {
		for {
			id, err := p.need(ID, "parameter name")
			if err != nil {
				return nil, nil, err
			}
			params = append(params, id.Lexeme)
			if !p.match(COMMA) {
				break
			}
		}
	}
	if _, err := p.need(RPAREN, "')' after parameters"); err != nil {
		return nil, nil, err
	}
	body, err := p.blockStatement()
	if err != nil {
		return nil, nil, err
	}
	return params, body.(*BlockStmt), nil
}

func (p *parser) returnStatement() (Stmt, error) {
	p.match(RETURN)
	var value Expr
	if canStartExpr(p.peek().Type) {
		v, err := p.expression()
		if err != nil {
			return nil, err
		}
		value = v
	}
	return &ReturnStmt{Value: value}, nil
}

func (p *parser) importStatement() (Stmt, error) {
	p.match(IMPORT)
	path, err := p.need(STRING, "string path after 'import'")
	if err != nil {
		return nil, err
	}
	return &ImportStmt{Path: path.Lexeme}, nil
}

func (p *parser) blockStatement() (Stmt, error) {
	if _, err := p.need(LCURLY, "'{'"); err != nil {
		return nil, err
	}
	var stmts []Stmt
	for p.peek().Type != RCURLY && !p.atEnd() {
		st, err := p.statement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, st)
	}
	if _, err := p.need(RCURLY, "'}' to close block"); err != nil {
		return nil, err
	}
	return &BlockStmt{Stmts: stmts}, nil
}

func (p *parser) exprOrAssignStatement() (Stmt, error) {
	expr, err := p.expression()
	if err != nil {
		return nil, err
	}
	if p.match(ASSIGN) {
		switch expr.(type) {
		case *IdentExpr, *IndexExpr, *MemberExpr:
		default:
			at := p.prev()
			return nil, &ParseError{Line: at.Line, Col: at.Col, Msg: "invalid assignment target"}
		}
		value, err := p.expression()
		if err != nil {
			return nil, err
		}
		return &AssignStmt{Target: expr, Value: value}, nil
	}
	return &ExprStmt{Expr: expr}, nil
}

// ----- expressions -----

func (p *parser) expression() (Expr, error) { return p.orExpr() }

func (p *parser) orExpr() (Expr, error) {
	left, err := p.andExpr()
	if err != nil {
		return nil, err
	}
	for p.match(OR) {
		right, err := p.andExpr()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: "or", Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) andExpr() (Expr, error) {
	left, err := p.equality()
	if err != nil {
		return nil, err
	}
	for p.match(AND) {
		right, err := p.equality()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: "and", Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) equality() (Expr, error) {
	left, err := p.comparison()
	if err != nil {
		return nil, err
	}
	for p.match(EQ, NEQ) {
		op := p.prev().Lexeme
		right, err := p.comparison()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) comparison() (Expr, error) {
	left, err := p.additive()
	if err != nil {
		return nil, err
	}
	for p.match(LESS, LESSEQ, GREATER, GREATEREQ) {
		op := p.prev().Lexeme
		right, err := p.additive()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) additive() (Expr, error) {
	left, err := p.multiplicative()
	if err != nil {
		return nil, err
	}
	for p.match(PLUS, MINUS) {
		op := p.prev().Lexeme
		right, err := p.multiplicative()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) multiplicative() (Expr, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for p.match(MULT, DIV, MOD) {
		op := p.prev().Lexeme
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) unary() (Expr, error) {
	if p.match(MINUS, NOT) {
		op := p.prev().Lexeme
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: op, Right: right}, nil
	}
	return p.postfix()
}

func (p *parser) postfix() (Expr, error) {
	expr, err := p.primary()
	if err != nil {
		return nil, err
	}
	for {
		// a '(' or '[' that begins a new line starts a new statement, not a
		// call or index on the previous expression
		if t := p.peek(); (t.Type == LPAREN || t.Type == LSQUARE) && t.Line != p.prev().Line {
			return expr, nil
		}
		switch {
		case p.match(LPAREN):
			var args []Expr
			if p.peek().Type != RPAREN {
				for {
					a, err := p.expression()
					if err != nil {
						return nil, err
					}
					args = append(args, a)
					if !p.match(COMMA) {
						break
					}
				}
			}
			if _, err := p.need(RPAREN, "')' after arguments"); err != nil {
				return nil, err
			}
			expr = &CallExpr{Callee: expr, Args: args}
		case p.match(LSQUARE):
			idx, err := p.expression()
			if err != nil {
				return nil, err
			}
			if _, err := p.need(RSQUARE, "']' after index"); err != nil {
				return nil, err
			}
			expr = &IndexExpr{Obj: expr, Index: idx}
		case p.match(PERIOD):
			name, err := p.need(ID, "property name after '.'")
			if err != nil {
				return nil, err
			}
			expr = &MemberExpr{Obj: expr, Name: name.Lexeme}
		default:
			return expr, nil
		}
	}
}

func (p *parser) primary() (Expr, error) {
	tok := p.peek()
	switch tok.Type {
	case INTEGER:
		p.i++
		v, err := strconv.ParseInt(tok.Lexeme, 10, 64)
		if err != nil {
			return nil, &ParseError{Line: tok.Line, Col: tok.Col, Msg: fmt.Sprintf("integer literal out of range: %s", tok.Lexeme)}
		}
		return &IntLit{Value: v}, nil
	case FLOAT:
		p.i++
		v, err := strconv.ParseFloat(tok.Lexeme, 64)
		if err != nil {
			return nil, &ParseError{Line: tok.Line, Col: tok.Col, Msg: fmt.Sprintf("invalid float literal: %s", tok.Lexeme)}
		}
		return &FloatLit{Value: v}, nil
	case STRING:
		p.i++
		return &StrLit{Raw: tok.Lexeme}, nil
	case BOOLEAN:
		p.i++
		return &BoolLit{Value: tok.Lexeme == "true"}, nil
	case NONE:
		p.i++
		return &NoneLit{}, nil
	case ID:
		p.i++
		return &IdentExpr{Name: tok.Lexeme, Line: tok.Line, Col: tok.Col}, nil
	case FUNCTION:
		p.i++
		params, body, err := p.funRest()
		if err != nil {
			return nil, err
		}
		return &FunLit{Params: params, Body: body}, nil
	case LPAREN:
		return p.groupOrTuple()
	case LSQUARE:
		return p.arrayLiteral()
	case LCURLY:
		return p.mapLiteral()
	}
	return nil, p.errHere("expression")
}

// groupOrTuple disambiguates "(e)" grouping from tuple construction: a comma
// makes it a tuple, "()" is the empty tuple, and a one-element tuple needs a
// trailing comma.
func (p *parser) groupOrTuple() (Expr, error) {
	p.match(LPAREN)
	if p.match(RPAREN) {
		return &TupleLit{}, nil
	}
	first, err := p.expression()
	if err != nil {
		return nil, err
	}
	if !p.match(COMMA) {
		if _, err := p.need(RPAREN, "')' after expression"); err != nil {
			return nil, err
		}
		return first, nil
	}
	elems := []Expr{first}
	for p.peek().Type != RPAREN {
		e, err := p.expression()
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
		if !p.match(COMMA) {
			break
		}
	}
	if _, err := p.need(RPAREN, "')' after tuple elements"); err != nil {
		return nil, err
	}
	return &TupleLit{Elems: elems}, nil
}

func (p *parser) arrayLiteral() (Expr, error) {
	p.match(LSQUARE)
	var elems []Expr
	for p.peek().Type != RSQUARE {
		e, err := p.expression()
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
		if !p.match(COMMA) {
			break
		}
	}
	if _, err := p.need(RSQUARE, "']' after array elements"); err != nil {
		return nil, err
	}
	return &ArrayLit{Elems: elems}, nil
}

func (p *parser) mapLiteral() (Expr, error) {
	p.match(LCURLY)
	m := &MapLit{}
	for p.peek().Type != RCURLY {
		var key string
		switch p.peek().Type {
		case STRING, ID:
			key = p.peek().Lexeme
			p.i++
		default:
			return nil, p.errHere("hashmap key")
		}
		if _, err := p.need(COLON, "':' after hashmap key"); err != nil {
			return nil, err
		}
		v, err := p.expression()
		if err != nil {
			return nil, err
		}
		m.Keys = append(m.Keys, key)
		m.Values = append(m.Values, v)
		if !p.match(COMMA) {
			break
		}
	}
	if _, err := p.need(RCURLY, "'}' after hashmap entries"); err != nil {
		return nil, err
	}
	return m, nil
}
