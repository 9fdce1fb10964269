package parser

import (
	"github.com/cwbudde/slangc/internal/ast"
	"github.com/cwbudde/slangc/internal/token"
)

// parseBlockAsStmts parses a brace-delimited statement list.
func (p *Parser) parseBlockAsStmts() []ast.Stmt {
	p.expect(token.LBRACE)
	var stmts []ast.Stmt
	for !p.at(token.RBRACE) && !p.at(token.EOF) {
		stmts = append(stmts, p.parseStmt())
	}
	p.expect(token.RBRACE)
	return stmts
}

func (p *Parser) parseBlock() *ast.Block {
	pos := p.cur.Pos
	return &ast.Block{Position: pos, Stmts: p.parseBlockAsStmts()}
}

func (p *Parser) parseStmt() ast.Stmt {
	switch p.cur.Type {
	case token.LET:
		return p.parseLetStmt()
	case token.IF:
		return p.parseIfStmt()
	case token.WHILE:
		return p.parseWhileStmt()
	case token.LOOP:
		return p.parseLoopStmt()
	case token.FOR:
		return p.parseForStmt()
	case token.CASE:
		return p.parseCaseStmt()
	case token.RETURN:
		return p.parseReturnStmt()
	case token.PASS:
		pos := p.cur.Pos
		p.next()
		return &ast.PassStmt{Position: pos}
	case token.BREAK:
		pos := p.cur.Pos
		p.next()
		return &ast.BreakStmt{Position: pos}
	case token.CONTINUE:
		pos := p.cur.Pos
		p.next()
		return &ast.ContinueStmt{Position: pos}
	case token.LBRACE:
		return p.parseBlock()
	default:
		return p.parseExprOrAssignStmt()
	}
}

func (p *Parser) parseLetStmt() ast.Stmt {
	pos := p.cur.Pos
	p.expect(token.LET)
	name := p.expect(token.IDENT).Literal
	var typ ast.Expr
	if p.at(token.COLON) {
		p.next()
		typ = p.parseExpr(lowest)
	}
	p.expect(token.ASSIGN)
	val := p.parseExpr(lowest)
	p.consumeSemi()
	return &ast.LetStmt{Position: pos, Name: name, Type: typ, Value: val}
}

func (p *Parser) parseCond() ast.Expr {
	p.noBraceExpr++
	cond := p.parseExpr(lowest)
	p.noBraceExpr--
	return cond
}

func (p *Parser) parseIfStmt() ast.Stmt {
	pos := p.cur.Pos
	p.expect(token.IF)
	cond := p.parseCond()
	then := p.parseBlock()
	var els *ast.Block
	if p.at(token.ELSE) {
		p.next()
		if p.at(token.IF) {
			inner := p.parseIfStmt()
			els = &ast.Block{Position: inner.Pos(), Stmts: []ast.Stmt{inner}}
		} else {
			els = p.parseBlock()
		}
	}
	return &ast.IfStmt{Position: pos, Cond: cond, Then: then, Else: els}
}

func (p *Parser) parseWhileStmt() ast.Stmt {
	pos := p.cur.Pos
	p.expect(token.WHILE)
	cond := p.parseCond()
	body := p.parseBlock()
	return &ast.WhileStmt{Position: pos, Cond: cond, Body: body}
}

func (p *Parser) parseLoopStmt() ast.Stmt {
	pos := p.cur.Pos
	p.expect(token.LOOP)
	body := p.parseBlock()
	return &ast.LoopStmt{Position: pos, Body: body}
}

func (p *Parser) parseForStmt() ast.Stmt {
	pos := p.cur.Pos
	p.expect(token.FOR)
	v := p.expect(token.IDENT).Literal
	p.expect(token.IN)
	iterand := p.parseCond()
	body := p.parseBlock()
	return &ast.ForStmt{Position: pos, Var: v, Iterand: iterand, Body: body}
}

func (p *Parser) parseCaseStmt() ast.Stmt {
	pos := p.cur.Pos
	p.expect(token.CASE)
	scrutinee := p.parseCond()
	p.expect(token.LBRACE)
	var arms []*ast.CaseArm
	for !p.at(token.RBRACE) && !p.at(token.EOF) {
		apos := p.cur.Pos
		variant := p.expect(token.IDENT).Literal
		var bindings []string
		if p.at(token.LPAREN) {
			p.next()
			for !p.at(token.RPAREN) {
				bindings = append(bindings, p.expect(token.IDENT).Literal)
				if p.at(token.COMMA) {
					p.next()
				}
			}
			p.expect(token.RPAREN)
		}
		p.expect(token.COLON)
		body := p.parseBlock()
		arms = append(arms, &ast.CaseArm{Position: apos, Variant: variant, Bindings: bindings, Body: body})
	}
	p.expect(token.RBRACE)
	return &ast.CaseStmt{Position: pos, Scrutinee: scrutinee, Arms: arms}
}

func (p *Parser) parseReturnStmt() ast.Stmt {
	pos := p.cur.Pos
	p.expect(token.RETURN)
	if p.at(token.SEMI) || p.at(token.RBRACE) {
		p.consumeSemi()
		return &ast.ReturnStmt{Position: pos}
	}
	val := p.parseExpr(lowest)
	p.consumeSemi()
	return &ast.ReturnStmt{Position: pos, Value: val}
}

func (p *Parser) parseExprOrAssignStmt() ast.Stmt {
	pos := p.cur.Pos
	x := p.parseExpr(lowest)
	if p.at(token.ASSIGN) {
		p.next()
		val := p.parseExpr(lowest)
		p.consumeSemi()
		return &ast.AssignStmt{Position: pos, Target: x, Value: val}
	}
	p.consumeSemi()
	return &ast.ExprStmt{Position: pos, X: x}
}

func (p *Parser) consumeSemi() {
	if p.at(token.SEMI) {
		p.next()
	}
}
