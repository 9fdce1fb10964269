package parser

import (
	"strconv"

	"github.com/cwbudde/slangc/internal/ast"
	"github.com/cwbudde/slangc/internal/token"
)

// Precedence levels, lowest to highest.
const (
	lowest int = iota
	orPrec
	andPrec
	equality
	comparison
	additive
	multiplicative
	unary
	callOrIndex
)

var precedences = map[token.Type]int{
	token.OR:       orPrec,
	token.AND:      andPrec,
	token.EQ:       equality,
	token.NEQ:      equality,
	token.LT:       comparison,
	token.LTEQ:     comparison,
	token.GT:       comparison,
	token.GTEQ:     comparison,
	token.PLUS:     additive,
	token.MINUS:    additive,
	token.STAR:     multiplicative,
	token.SLASH:    multiplicative,
	token.LPAREN:   callOrIndex,
	token.LBRACKET: callOrIndex,
	token.DOT:      callOrIndex,
	token.LBRACE:   callOrIndex,
}

func (p *Parser) peekPrecedence() int {
	if pr, ok := precedences[p.peek.Type]; ok {
		return pr
	}
	return lowest
}

// parseExpr implements Pratt-style precedence climbing (grounded on the
// teacher's expression parser shape, rebuilt for Slang's grammar).
func (p *Parser) parseExpr(precedence int) ast.Expr {
	left := p.parsePrefix()
	for precedence < p.curPrecedence() {
		switch p.cur.Type {
		case token.LPAREN:
			left = p.parseCallExpr(left)
		case token.LBRACKET:
			left = p.parseIndexExpr(left)
		case token.DOT:
			left = p.parseAttrExpr(left)
		case token.LBRACE:
			ref, ok := left.(*ast.ObjectRef)
			if !ok || p.noBraceExpr > 0 {
				return left
			}
			left = p.parseObjectInit(ref)
		default:
			left = p.parseInfix(left)
		}
	}
	return left
}

// curPrecedence reports the binding power of the CURRENT token, which is
// the operator/continuation candidate once a left operand has been
// parsed (the loop in parseExpr advances cur as it consumes).
func (p *Parser) curPrecedence() int {
	if p.cur.Type == token.LBRACE && p.noBraceExpr > 0 {
		return lowest
	}
	if pr, ok := precedences[p.cur.Type]; ok {
		return pr
	}
	return lowest
}

func (p *Parser) parsePrefix() ast.Expr {
	switch p.cur.Type {
	case token.INT:
		return p.parseIntLiteral()
	case token.FLOAT:
		return p.parseFloatLiteral()
	case token.STRING:
		return p.parseStringLiteral()
	case token.TRUE, token.FALSE:
		return p.parseBoolLiteral()
	case token.IDENT, token.THIS:
		return p.parseObjectRef()
	case token.NEW:
		p.next()
		return p.parsePrefix()
	case token.MINUS:
		pos := p.cur.Pos
		p.next()
		operand := p.parseExpr(unary)
		return &ast.UnaryOp{Position: pos, Op: token.MINUS, Operand: operand}
	case token.NOT:
		pos := p.cur.Pos
		p.next()
		operand := p.parseExpr(unary)
		return &ast.UnaryOp{Position: pos, Op: token.NOT, Operand: operand}
	case token.LPAREN:
		p.next()
		e := p.parseExpr(lowest)
		p.expect(token.RPAREN)
		return e
	case token.LBRACKET:
		return p.parseListLiteral()
	default:
		p.errorf("unexpected token %v (%q) in expression", p.cur.Type, p.cur.Literal)
		pos := p.cur.Pos
		p.next()
		return &ast.IntLiteral{Position: pos, Value: 0}
	}
}

func (p *Parser) parseInfix(left ast.Expr) ast.Expr {
	op := p.cur.Type
	pos := p.cur.Pos
	prec := p.curPrecedence()
	p.next()
	right := p.parseExpr(prec)
	return &ast.BinaryOp{Position: pos, Op: op, Left: left, Right: right}
}

func (p *Parser) parseIntLiteral() ast.Expr {
	tok := p.cur
	v, err := strconv.ParseInt(tok.Literal, 10, 64)
	if err != nil {
		p.errorf("invalid integer literal %q", tok.Literal)
	}
	p.next()
	return &ast.IntLiteral{Position: tok.Pos, Value: v}
}

func (p *Parser) parseFloatLiteral() ast.Expr {
	tok := p.cur
	v, err := strconv.ParseFloat(tok.Literal, 64)
	if err != nil {
		p.errorf("invalid float literal %q", tok.Literal)
	}
	p.next()
	return &ast.FloatLiteral{Position: tok.Pos, Value: v}
}

func (p *Parser) parseStringLiteral() ast.Expr {
	tok := p.cur
	p.next()
	return &ast.StringLiteral{Position: tok.Pos, Value: tok.Literal}
}

func (p *Parser) parseBoolLiteral() ast.Expr {
	tok := p.cur
	p.next()
	return &ast.BoolLiteral{Position: tok.Pos, Value: tok.Type == token.TRUE}
}

func (p *Parser) parseObjectRef() ast.Expr {
	pos := p.cur.Pos
	path := []string{p.cur.Literal}
	p.next()
	for p.at(token.COLONCOLON) {
		p.next()
		path = append(path, p.expect(token.IDENT).Literal)
	}
	return &ast.ObjectRef{Position: pos, Path: path}
}

func (p *Parser) parseListLiteral() ast.Expr {
	pos := p.cur.Pos
	p.expect(token.LBRACKET)
	var elems []ast.Expr
	for !p.at(token.RBRACKET) {
		elems = append(elems, p.parseExpr(lowest))
		if p.at(token.COMMA) {
			p.next()
		}
	}
	p.expect(token.RBRACKET)
	return &ast.ListLiteral{Position: pos, Elements: elems}
}

func (p *Parser) parseCallExpr(callee ast.Expr) ast.Expr {
	pos := p.cur.Pos
	p.expect(token.LPAREN)
	var args []ast.Expr
	for !p.at(token.RPAREN) {
		args = append(args, p.parseExpr(lowest))
		if p.at(token.COMMA) {
			p.next()
		}
	}
	p.expect(token.RPAREN)
	return &ast.CallExpr{Position: pos, Callee: callee, Args: args}
}

func (p *Parser) parseIndexExpr(base ast.Expr) ast.Expr {
	pos := p.cur.Pos
	p.expect(token.LBRACKET)
	idx := p.parseExpr(lowest)
	p.expect(token.RBRACKET)
	return &ast.GetIndex{Position: pos, Base: base, Index: idx}
}

func (p *Parser) parseAttrExpr(base ast.Expr) ast.Expr {
	pos := p.cur.Pos
	p.expect(token.DOT)
	attr := p.expect(token.IDENT).Literal
	return &ast.GetAttr{Position: pos, Base: base, Attr: attr}
}

// parseObjectInit parses a struct literal `S{f1=v1, f2=v2}`, reusing the
// already-parsed ObjectRef as the type name.
func (p *Parser) parseObjectInit(typeRef ast.Expr) ast.Expr {
	pos := p.cur.Pos
	p.expect(token.LBRACE)
	var fields []ast.FieldInit
	for !p.at(token.RBRACE) {
		name := p.expect(token.IDENT).Literal
		p.expect(token.ASSIGN)
		val := p.parseExpr(lowest)
		fields = append(fields, ast.FieldInit{Name: name, Value: val})
		if p.at(token.COMMA) {
			p.next()
		}
	}
	p.expect(token.RBRACE)
	return &ast.ObjectInit{Position: pos, Type: typeRef, Fields: fields}
}
