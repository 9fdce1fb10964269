// Package parser implements a recursive-descent parser producing the
// parsed AST in package ast. Parsing is an external collaborator to the
// semantic middle-end — this implementation exists so the
// CLI driver is runnable end to end, and is deliberately small relative
// to the phases it feeds.
package parser

import (
	"fmt"

	"github.com/cwbudde/slangc/internal/ast"
	"github.com/cwbudde/slangc/internal/lexer"
	"github.com/cwbudde/slangc/internal/token"
)

// Parser consumes a token stream and produces an *ast.Program.
type Parser struct {
	l    *lexer.Lexer
	cur  token.Token
	peek token.Token

	errors []error

	// noBraceExpr disables struct-literal parsing while nonzero, so the
	// brace opening an if/while/for/case body is never mistaken for a
	// struct literal following a bare condition identifier.
	noBraceExpr int
}

// New creates a Parser over src.
func New(src string) *Parser {
	p := &Parser{l: lexer.New(src)}
	p.next()
	p.next()
	return p
}

// Errors returns every parse error collected so far.
func (p *Parser) Errors() []error { return p.errors }

func (p *Parser) next() {
	p.cur = p.peek
	p.peek = p.l.NextToken()
}

func (p *Parser) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Errorf("%s: %s", p.cur.Pos, fmt.Sprintf(format, args...)))
}

func (p *Parser) expect(t token.Type) token.Token {
	tok := p.cur
	if p.cur.Type != t {
		p.errorf("expected token %v, got %v (%q)", t, p.cur.Type, p.cur.Literal)
	}
	p.next()
	return tok
}

func (p *Parser) at(t token.Type) bool { return p.cur.Type == t }

// ParseProgram parses an entire compilation unit.
func (p *Parser) ParseProgram(name string) *ast.Program {
	prog := &ast.Program{Name: name}

	for p.at(token.IMPORT) || p.at(token.FROM) {
		prog.Imports = append(prog.Imports, p.parseImport())
	}

	for !p.at(token.EOF) {
		d := p.parseDecl()
		if d != nil {
			prog.Decls = append(prog.Decls, d)
		} else {
			p.next() // avoid infinite loop on unrecoverable input
		}
	}
	return prog
}

func (p *Parser) parseImport() *ast.ImportDecl {
	pos := p.cur.Pos
	if p.at(token.IMPORT) {
		p.next()
		mod := p.expect(token.IDENT).Literal
		return &ast.ImportDecl{Position: pos, Module: mod}
	}
	// from M import a, b
	p.next() // 'from'
	mod := p.expect(token.IDENT).Literal
	p.expect(token.IMPORT)
	names := []string{p.expect(token.IDENT).Literal}
	for p.at(token.COMMA) {
		p.next()
		names = append(names, p.expect(token.IDENT).Literal)
	}
	return &ast.ImportDecl{Position: pos, Module: mod, Names: names}
}

func (p *Parser) parseTypeParams() []*ast.TypeParam {
	if !p.at(token.LBRACKET) {
		return nil
	}
	p.next()
	var params []*ast.TypeParam
	for {
		tok := p.expect(token.IDENT)
		params = append(params, &ast.TypeParam{Position: tok.Pos, Name: tok.Literal})
		if p.at(token.COMMA) {
			p.next()
			continue
		}
		break
	}
	p.expect(token.RBRACKET)
	return params
}

func (p *Parser) parseDecl() ast.Decl {
	switch p.cur.Type {
	case token.FN:
		return p.parseFuncDecl("")
	case token.STRUCT:
		d := p.parseStructDecl()
		if len(d.TypeParams) > 0 {
			return &ast.GenericDecl{Inner: d}
		}
		return d
	case token.ENUM:
		d := p.parseEnumDecl()
		if len(d.TypeParams) > 0 {
			return &ast.GenericDecl{Inner: d}
		}
		return d
	case token.CLASS:
		return p.parseClassDecl()
	default:
		p.errorf("expected a declaration, got %v", p.cur.Type)
		return nil
	}
}

func (p *Parser) parseFuncDecl(receiverOf string) *ast.FuncDecl {
	pos := p.cur.Pos
	p.expect(token.FN)
	name := p.expect(token.IDENT).Literal
	p.expect(token.LPAREN)
	var params []*ast.Param
	for !p.at(token.RPAREN) {
		ppos := p.cur.Pos
		pname := p.expect(token.IDENT).Literal
		p.expect(token.COLON)
		ptyp := p.parseExpr(lowest)
		params = append(params, &ast.Param{Position: ppos, Name: pname, Type: ptyp})
		if p.at(token.COMMA) {
			p.next()
		}
	}
	p.expect(token.RPAREN)
	var result ast.Expr
	if p.at(token.ARROW) {
		p.next()
		result = p.parseExpr(lowest)
	}
	p.expect(token.COLON)
	body := p.parseBlockAsStmts()
	return &ast.FuncDecl{Position: pos, Name: name, ReceiverOf: receiverOf, Params: params, Result: result, Body: &ast.Block{Position: pos, Stmts: body}}
}

func (p *Parser) parseStructDecl() *ast.StructDecl {
	pos := p.cur.Pos
	p.expect(token.STRUCT)
	name := p.expect(token.IDENT).Literal
	tparams := p.parseTypeParams()
	p.expect(token.COLON)
	var fields []*ast.Field
	for p.at(token.IDENT) {
		fields = append(fields, p.parseField())
	}
	return &ast.StructDecl{Position: pos, Name: name, TypeParams: tparams, Fields: fields}
}

func (p *Parser) parseField() *ast.Field {
	pos := p.cur.Pos
	name := p.expect(token.IDENT).Literal
	p.expect(token.COLON)
	typ := p.parseExpr(lowest)
	var init ast.Expr
	if p.at(token.ASSIGN) {
		p.next()
		init = p.parseExpr(lowest)
	}
	return &ast.Field{Position: pos, Name: name, Type: typ, Init: init}
}

func (p *Parser) parseEnumDecl() *ast.EnumDecl {
	pos := p.cur.Pos
	p.expect(token.ENUM)
	name := p.expect(token.IDENT).Literal
	tparams := p.parseTypeParams()
	p.expect(token.COLON)
	var variants []*ast.VariantDecl
	for p.at(token.IDENT) {
		vpos := p.cur.Pos
		vname := p.expect(token.IDENT).Literal
		var payload []ast.Expr
		if p.at(token.LPAREN) {
			p.next()
			for !p.at(token.RPAREN) {
				payload = append(payload, p.parseExpr(lowest))
				if p.at(token.COMMA) {
					p.next()
				}
			}
			p.expect(token.RPAREN)
		}
		variants = append(variants, &ast.VariantDecl{Position: vpos, Name: vname, PayloadTypes: payload})
	}
	return &ast.EnumDecl{Position: pos, Name: name, TypeParams: tparams, Variants: variants}
}

func (p *Parser) parseClassDecl() *ast.ClassDecl {
	pos := p.cur.Pos
	p.expect(token.CLASS)
	name := p.expect(token.IDENT).Literal
	tparams := p.parseTypeParams()
	p.expect(token.COLON)
	c := &ast.ClassDecl{Position: pos, Name: name, TypeParams: tparams}
	for p.at(token.IDENT) || p.at(token.FN) {
		if p.at(token.FN) {
			c.Methods = append(c.Methods, p.parseFuncDecl(name))
		} else {
			c.Fields = append(c.Fields, p.parseField())
		}
	}
	return c
}
