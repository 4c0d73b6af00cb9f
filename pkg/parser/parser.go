// Package parser builds a Lumin syntax tree from a token stream. Statements
// and declarations use recursive descent; expressions use precedence
// climbing.
package parser

import (
	"fmt"
	"strconv"

	"github.com/lemonberrylabs/lumin/pkg/ast"
	"github.com/lemonberrylabs/lumin/pkg/lexer"
)

// Parser is a recursive descent parser over a token slice.
type Parser struct {
	tokens []lexer.Token
	pos    int
}

// New creates a parser over tokens. The slice should end with an EOF token.
func New(tokens []lexer.Token) *Parser {
	return &Parser{tokens: tokens}
}

// Parse parses a complete program from tokens.
func Parse(tokens []lexer.Token) (*ast.Program, error) {
	return New(tokens).ParseProgram()
}

// ParseSource tokenizes and parses source text.
func ParseSource(source string) (*ast.Program, error) {
	tokens, err := lexer.Tokenize(source)
	if err != nil {
		return nil, err
	}
	return Parse(tokens)
}

// ParseProgram parses top-level declarations and statements until EOF. On
// error no program is returned.
func (p *Parser) ParseProgram() (*ast.Program, error) {
	prog := &ast.Program{}

	for {
		p.skipNewlines()
		if p.current().Kind == lexer.EOF {
			return prog, nil
		}

		switch {
		case p.atWord("func") && p.peek().Kind == lexer.Ident,
			p.atWord("async") && p.peek().Is("func"):
			fn, err := p.parseFunction(0)
			if err != nil {
				return nil, err
			}
			prog.Functions = append(prog.Functions, fn)
		case p.atWord("class") && p.peek().Kind == lexer.Ident:
			cls, err := p.parseClass()
			if err != nil {
				return nil, err
			}
			prog.Classes = append(prog.Classes, cls)
		case p.atWord("struct") && p.peek().Kind == lexer.Ident:
			st, err := p.parseStruct()
			if err != nil {
				return nil, err
			}
			prog.Structs = append(prog.Structs, st)
		case p.atWord("enum") && p.peek().Kind == lexer.Ident:
			en, err := p.parseEnum()
			if err != nil {
				return nil, err
			}
			prog.Enums = append(prog.Enums, en)
		default:
			stmt, err := p.parseStatement()
			if err != nil {
				return nil, err
			}
			prog.Globals = append(prog.Globals, stmt)
		}

		if err := p.endStatement(); err != nil {
			return nil, err
		}
	}
}

// --- Token helpers ---

// current returns the current token.
func (p *Parser) current() lexer.Token {
	if p.pos >= len(p.tokens) {
		return p.eofToken()
	}
	return p.tokens[p.pos]
}

// peek returns the next token without consuming it.
func (p *Parser) peek() lexer.Token {
	if p.pos+1 >= len(p.tokens) {
		return p.eofToken()
	}
	return p.tokens[p.pos+1]
}

func (p *Parser) eofToken() lexer.Token {
	if n := len(p.tokens); n > 0 {
		return lexer.Token{Kind: lexer.EOF, Pos: p.tokens[n-1].Pos}
	}
	return lexer.Token{Kind: lexer.EOF, Pos: lexer.Position{Line: 1, Col: 1}}
}

// advance consumes the current token and returns it.
func (p *Parser) advance() lexer.Token {
	tok := p.current()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

// atWord reports whether the current token is the identifier word.
func (p *Parser) atWord(word string) bool {
	return p.current().Is(word)
}

// expect consumes a token of the given kind or returns a SyntaxError naming
// what was wanted.
func (p *Parser) expect(kind lexer.Kind, what string) (lexer.Token, error) {
	tok := p.current()
	if tok.Kind != kind {
		return tok, p.unexpected(what)
	}
	return p.advance(), nil
}

// expectWord consumes the identifier word or returns a SyntaxError.
func (p *Parser) expectWord(word string) error {
	if !p.atWord(word) {
		return p.unexpected("'" + word + "'")
	}
	p.advance()
	return nil
}

func (p *Parser) unexpected(expected string) *SyntaxError {
	tok := p.current()
	return &SyntaxError{Pos: tok.Pos, Expected: expected, Found: tok.Describe()}
}

func (p *Parser) skipNewlines() {
	for p.current().Kind == lexer.Newline {
		p.advance()
	}
}

// endStatement checks that a statement is followed by a newline, the end of
// input, or one of the stop words of the enclosing block. Nothing is
// consumed.
func (p *Parser) endStatement(stops ...string) error {
	tok := p.current()
	if tok.Kind == lexer.Newline || tok.Kind == lexer.EOF {
		return nil
	}
	for _, stop := range stops {
		if tok.Is(stop) {
			return nil
		}
	}
	return p.unexpected("newline")
}

// parseBlock parses statements up to one of the stop words, which is left
// unconsumed. Reaching EOF first is an unterminated-block error.
func (p *Parser) parseBlock(construct string, open lexer.Token, stops ...string) ([]ast.Stmt, error) {
	stmts := []ast.Stmt{}
	for {
		p.skipNewlines()
		tok := p.current()
		if tok.Kind == lexer.EOF {
			return nil, p.unterminated(construct, open)
		}
		for _, stop := range stops {
			if tok.Is(stop) {
				return stmts, nil
			}
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
		if err := p.endStatement(stops...); err != nil {
			return nil, err
		}
	}
}

func (p *Parser) unterminated(construct string, open lexer.Token) *SyntaxError {
	err := p.unexpected("'end'")
	err.Message = fmt.Sprintf("unterminated %s opened at %s", construct, open.Pos)
	return err
}

// expectEnd consumes the 'end' closing construct.
func (p *Parser) expectEnd(construct string, open lexer.Token) error {
	if p.current().Kind == lexer.EOF {
		return p.unterminated(construct, open)
	}
	return p.expectWord("end")
}

// --- Declarations ---

// parseFunction parses [async] func name(params) [-> type] body end.
func (p *Parser) parseFunction(mods ast.Modifiers) (*ast.Function, error) {
	open := p.current()
	fn := &ast.Function{Modifiers: mods}
	if p.atWord("async") {
		fn.Async = true
		p.advance()
	}
	if err := p.expectWord("func"); err != nil {
		return nil, err
	}
	name, err := p.expect(lexer.Ident, "function name")
	if err != nil {
		return nil, err
	}
	fn.Name = name.Lexeme

	if fn.Params, err = p.parseParams(); err != nil {
		return nil, err
	}
	if fn.Return, err = p.parseReturnType(); err != nil {
		return nil, err
	}

	construct := fmt.Sprintf("function '%s'", fn.Name)
	if fn.Body, err = p.parseBlock(construct, open, "end"); err != nil {
		return nil, err
	}
	if err := p.expectEnd(construct, open); err != nil {
		return nil, err
	}
	return fn, nil
}

// parseParams parses (name[: type][= default], ...). A parameter may also be
// written as `exception name`, the placeholder for a caught failure.
func (p *Parser) parseParams() ([]ast.Param, error) {
	if _, err := p.expect(lexer.LParen, "'('"); err != nil {
		return nil, err
	}

	var params []ast.Param
	p.skipNewlines()
	for p.current().Kind != lexer.RParen {
		if len(params) > 0 {
			if _, err := p.expect(lexer.Comma, "',' or ')'"); err != nil {
				return nil, err
			}
			p.skipNewlines()
		}

		var param ast.Param
		if p.atWord("exception") && p.peek().Kind == lexer.Ident {
			p.advance()
			param.Type = "exception"
		}
		name, err := p.expect(lexer.Ident, "parameter name")
		if err != nil {
			return nil, err
		}
		param.Name = name.Lexeme

		if param.Type == "" && p.current().Kind == lexer.Colon {
			p.advance()
			typ, err := p.expect(lexer.Ident, "parameter type")
			if err != nil {
				return nil, err
			}
			param.Type = typ.Lexeme
		}
		if p.current().Kind == lexer.Assign {
			p.advance()
			// The default marks the parameter optional; its value is not kept.
			if _, err := p.parseExpression(); err != nil {
				return nil, err
			}
			param.Optional = true
		}
		params = append(params, param)
		p.skipNewlines()
	}
	p.advance() // )

	return params, nil
}

func (p *Parser) parseReturnType() (string, error) {
	if p.current().Kind != lexer.Arrow {
		return "", nil
	}
	p.advance()
	typ, err := p.expect(lexer.Ident, "return type")
	if err != nil {
		return "", err
	}
	return typ.Lexeme, nil
}

var fieldModifiers = map[string]ast.Modifiers{
	"pub":      ast.ModPublic,
	"priv":     ast.ModPrivate,
	"readonly": ast.ModReadonly,
	"static":   ast.ModStatic,
	"prop":     0,
}

// parseClass parses class Name <fields | methods | prototype blocks> end.
func (p *Parser) parseClass() (*ast.Class, error) {
	open := p.advance() // class
	name, err := p.expect(lexer.Ident, "class name")
	if err != nil {
		return nil, err
	}
	cls := &ast.Class{Name: name.Lexeme}
	construct := fmt.Sprintf("class '%s'", cls.Name)

	for {
		p.skipNewlines()
		tok := p.current()
		if tok.Kind == lexer.EOF {
			return nil, p.unterminated(construct, open)
		}
		if tok.Is("end") {
			p.advance()
			return cls, nil
		}

		if tok.Is("prototype") && p.peek().Kind == lexer.Ident {
			proto, err := p.parsePrototype()
			if err != nil {
				return nil, err
			}
			cls.Prototypes = append(cls.Prototypes, proto)
		} else if err := p.parseMember(cls); err != nil {
			return nil, err
		}

		if err := p.endStatement("end"); err != nil {
			return nil, err
		}
	}
}

// parseMember parses one field or method of a class body.
func (p *Parser) parseMember(cls *ast.Class) error {
	var mods ast.Modifiers
	for {
		tok := p.current()
		mod, ok := fieldModifiers[tok.Lexeme]
		if tok.Kind != lexer.Ident || !ok || p.peek().Kind != lexer.Ident {
			break
		}
		mods |= mod
		p.advance()
	}

	if p.atWord("func") || (p.atWord("async") && p.peek().Is("func")) {
		if mods.Has(ast.ModReadonly) {
			return &SyntaxError{Pos: p.current().Pos, Message: "readonly cannot modify a method"}
		}
		fn, err := p.parseFunction(mods)
		if err != nil {
			return err
		}
		cls.Methods = append(cls.Methods, fn)
		return nil
	}

	typ, err := p.expect(lexer.Ident, "field type")
	if err != nil {
		return err
	}
	name, err := p.expect(lexer.Ident, "field name")
	if err != nil {
		return err
	}
	field := ast.Field{Modifiers: mods, Type: typ.Lexeme, Name: name.Lexeme}
	if p.current().Kind == lexer.Assign {
		p.advance()
		if field.Init, err = p.parseExpression(); err != nil {
			return err
		}
	}
	cls.Fields = append(cls.Fields, field)
	return nil
}

// parsePrototype parses prototype Name <one function> end.
func (p *Parser) parsePrototype() (*ast.Prototype, error) {
	open := p.advance() // prototype
	target := p.advance()
	construct := fmt.Sprintf("prototype '%s'", target.Lexeme)

	p.skipNewlines()
	if p.current().Kind == lexer.EOF {
		return nil, p.unterminated(construct, open)
	}
	if !p.atWord("func") && !p.atWord("async") {
		return nil, p.unexpected("'func'")
	}
	fn, err := p.parseFunction(0)
	if err != nil {
		return nil, err
	}
	p.skipNewlines()
	if err := p.expectEnd(construct, open); err != nil {
		return nil, err
	}
	return &ast.Prototype{Class: target.Lexeme, Func: fn}, nil
}

var structModifiers = map[string]ast.Modifiers{
	"pub":      ast.ModPublic,
	"priv":     ast.ModPrivate,
	"readonly": ast.ModReadonly,
}

// parseStruct parses struct Name <[modifier] type name lines> end.
func (p *Parser) parseStruct() (*ast.Struct, error) {
	open := p.advance() // struct
	name, err := p.expect(lexer.Ident, "struct name")
	if err != nil {
		return nil, err
	}
	st := &ast.Struct{Name: name.Lexeme}
	construct := fmt.Sprintf("struct '%s'", st.Name)

	for {
		p.skipNewlines()
		tok := p.current()
		if tok.Kind == lexer.EOF {
			return nil, p.unterminated(construct, open)
		}
		if tok.Is("end") {
			p.advance()
			return st, nil
		}

		var field ast.StructField
		if mod, ok := structModifiers[tok.Lexeme]; ok && tok.Kind == lexer.Ident && p.peek().Kind == lexer.Ident {
			field.Modifiers = mod
			p.advance()
		}
		typ, err := p.expect(lexer.Ident, "field type")
		if err != nil {
			return nil, err
		}
		fname, err := p.expect(lexer.Ident, "field name")
		if err != nil {
			return nil, err
		}
		field.Type, field.Name = typ.Lexeme, fname.Lexeme
		st.Fields = append(st.Fields, field)

		if err := p.endStatement("end"); err != nil {
			return nil, err
		}
	}
}

// parseEnum parses enum Name <member names> end. Members may be separated by
// newlines, spaces or commas.
func (p *Parser) parseEnum() (*ast.Enum, error) {
	open := p.advance() // enum
	name, err := p.expect(lexer.Ident, "enum name")
	if err != nil {
		return nil, err
	}
	en := &ast.Enum{Name: name.Lexeme}
	construct := fmt.Sprintf("enum '%s'", en.Name)
	seen := make(map[string]bool)

	for {
		for p.current().Kind == lexer.Newline || p.current().Kind == lexer.Comma {
			p.advance()
		}
		tok := p.current()
		if tok.Kind == lexer.EOF {
			return nil, p.unterminated(construct, open)
		}
		if tok.Is("end") {
			p.advance()
			return en, nil
		}
		member, err := p.expect(lexer.Ident, "enum member")
		if err != nil {
			return nil, err
		}
		if seen[member.Lexeme] {
			return nil, &SyntaxError{
				Pos:     member.Pos,
				Message: fmt.Sprintf("duplicate member '%s' in %s", member.Lexeme, construct),
			}
		}
		seen[member.Lexeme] = true
		en.Members = append(en.Members, member.Lexeme)
	}
}

// --- Statements ---

// parseStatement dispatches on contextual keywords. A keyword followed by
// '=' is an ordinary assignment target instead.
func (p *Parser) parseStatement() (ast.Stmt, error) {
	tok := p.current()
	if tok.Kind == lexer.Ident && p.peek().Kind != lexer.Assign {
		switch tok.Lexeme {
		case "*g", "*r", "*l":
			return p.parseMarkerDecl()
		case "let":
			if p.peek().Kind == lexer.Ident {
				return p.parseLet()
			}
		case "return":
			return p.parseReturn()
		case "if":
			return p.parseIf()
		case "while", "until":
			return p.parseWhile()
		case "for":
			if p.peek().Kind == lexer.Ident {
				return p.parseFor()
			}
		case "output":
			p.advance()
			value, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			return &ast.Output{Value: value}, nil
		case "protect":
			if p.peek().Kind == lexer.LParen {
				return p.parseProtect()
			}
		case "else", "end":
			return nil, &SyntaxError{
				Pos:      tok.Pos,
				Expected: "statement",
				Found:    tok.Describe(),
				Message:  fmt.Sprintf("'%s' does not close an open block", tok.Lexeme),
			}
		}
	}
	return p.parseAssignOrExpr()
}

var markerScopes = map[string]ast.Scope{
	"*g": ast.ScopeVar,
	"*r": ast.ScopeConst,
	"*l": ast.ScopeLet,
}

// parseMarkerDecl parses *g|*r|*l [type] name [= init].
func (p *Parser) parseMarkerDecl() (ast.Stmt, error) {
	decl := &ast.VarDecl{Scope: markerScopes[p.advance().Lexeme]}

	first, err := p.expect(lexer.Ident, "variable type or name")
	if err != nil {
		return nil, err
	}
	if p.current().Kind == lexer.Ident {
		decl.Type = first.Lexeme
		decl.Name = p.advance().Lexeme
	} else {
		decl.Name = first.Lexeme
	}

	if p.current().Kind == lexer.Assign {
		p.advance()
		if decl.Init, err = p.parseExpression(); err != nil {
			return nil, err
		}
	}
	return decl, nil
}

// parseLet parses let name [: type] [= init].
func (p *Parser) parseLet() (ast.Stmt, error) {
	p.advance() // let
	decl := &ast.VarDecl{Scope: ast.ScopeLet, Name: p.advance().Lexeme}

	if p.current().Kind == lexer.Colon {
		p.advance()
		typ, err := p.expect(lexer.Ident, "variable type")
		if err != nil {
			return nil, err
		}
		decl.Type = typ.Lexeme
	}
	if p.current().Kind == lexer.Assign {
		p.advance()
		init, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		decl.Init = init
	}
	return decl, nil
}

func (p *Parser) parseReturn() (ast.Stmt, error) {
	p.advance() // return
	tok := p.current()
	if tok.Kind == lexer.Newline || tok.Kind == lexer.EOF || tok.Is("end") || tok.Is("else") {
		return &ast.Return{}, nil
	}
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &ast.Return{Value: value}, nil
}

// parseIf parses if cond <then> [else <else>] end.
func (p *Parser) parseIf() (ast.Stmt, error) {
	open := p.advance() // if
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	stmt := &ast.If{Cond: cond}
	if stmt.Then, err = p.parseBlock("if", open, "else", "end"); err != nil {
		return nil, err
	}
	if p.atWord("else") {
		p.advance()
		if stmt.Else, err = p.parseBlock("if", open, "end"); err != nil {
			return nil, err
		}
	}
	if err := p.expectEnd("if", open); err != nil {
		return nil, err
	}
	return stmt, nil
}

// parseWhile parses while|until cond <body> end.
func (p *Parser) parseWhile() (ast.Stmt, error) {
	open := p.advance()
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	stmt := &ast.While{Cond: cond, Until: open.Lexeme == "until"}
	if stmt.Body, err = p.parseBlock(open.Lexeme, open, "end"); err != nil {
		return nil, err
	}
	if err := p.expectEnd(open.Lexeme, open); err != nil {
		return nil, err
	}
	return stmt, nil
}

// parseFor parses for name in collection <body> end.
func (p *Parser) parseFor() (ast.Stmt, error) {
	open := p.advance() // for
	stmt := &ast.ForEach{Var: p.advance().Lexeme}
	if err := p.expectWord("in"); err != nil {
		return nil, err
	}
	var err error
	if stmt.Collection, err = p.parseExpression(); err != nil {
		return nil, err
	}
	if stmt.Body, err = p.parseBlock("for", open, "end"); err != nil {
		return nil, err
	}
	if err := p.expectEnd("for", open); err != nil {
		return nil, err
	}
	return stmt, nil
}

// parseProtect parses protect(tryFunc [, catchFunc] [, [args]]).
func (p *Parser) parseProtect() (ast.Stmt, error) {
	p.advance() // protect
	p.advance() // (
	p.skipNewlines()

	if !p.atWord("func") {
		return nil, p.unexpected("function expression")
	}
	try, err := p.parseFuncLit()
	if err != nil {
		return nil, err
	}
	stmt := &ast.Protect{Try: try}

	p.skipNewlines()
	if p.current().Kind == lexer.Comma {
		p.advance()
		p.skipNewlines()
		if p.atWord("func") {
			if stmt.Catch, err = p.parseFuncLit(); err != nil {
				return nil, err
			}
			p.skipNewlines()
			if p.current().Kind == lexer.Comma {
				p.advance()
				p.skipNewlines()
			}
		}
		if p.current().Kind == lexer.LBracket {
			p.advance()
			if stmt.Args, err = p.parseList(lexer.RBracket, "']'"); err != nil {
				return nil, err
			}
			p.skipNewlines()
		}
	}

	if _, err := p.expect(lexer.RParen, "')'"); err != nil {
		return nil, err
	}
	return stmt, nil
}

// parseAssignOrExpr parses the leading postfix expression once. If it has
// the shape of an assignment target and '=' follows, the statement is an
// assignment; otherwise the same operand continues as the left side of an
// expression, so no token is parsed twice.
func (p *Parser) parseAssignOrExpr() (ast.Stmt, error) {
	if p.current().Kind == lexer.Minus || (p.atWord("await") && startsOperand(p.peek())) {
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		return &ast.ExprStmt{Expr: expr}, nil
	}

	left, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	if target, ok := asTarget(left); ok && p.current().Kind == lexer.Assign {
		p.advance()
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		return &ast.Assign{Target: target, Value: value}, nil
	}

	expr, err := p.parseBinaryFrom(left, 1)
	if err != nil {
		return nil, err
	}
	return &ast.ExprStmt{Expr: expr}, nil
}

// asTarget converts a variable, property or index expression to an
// assignment target.
func asTarget(expr ast.Expr) (ast.Target, bool) {
	switch n := expr.(type) {
	case *ast.Var:
		return &ast.VarTarget{Name: n.Name}, true
	case *ast.Property:
		return &ast.PropertyTarget{Object: n.Object, Name: n.Name}, true
	case *ast.Index:
		return &ast.IndexTarget{Object: n.Object, Index: n.Index}, true
	}
	return nil, false
}

// --- Expressions ---

// Binding powers, lowest first.
var precedence = map[lexer.Kind]int{
	lexer.Eq:      1,
	lexer.Neq:     1,
	lexer.Lt:      2,
	lexer.Lte:     2,
	lexer.Gt:      2,
	lexer.Gte:     2,
	lexer.Plus:    3,
	lexer.Minus:   3,
	lexer.Star:    4,
	lexer.Slash:   4,
	lexer.Percent: 4,
}

// parseExpression is the entry point for expressions.
func (p *Parser) parseExpression() (ast.Expr, error) {
	return p.parseBinary(1)
}

// parseBinary climbs operators whose binding power is at least minPrec.
// Operators at the same level associate to the left.
func (p *Parser) parseBinary(minPrec int) (ast.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return p.parseBinaryFrom(left, minPrec)
}

// parseBinaryFrom continues climbing with left as the first operand.
func (p *Parser) parseBinaryFrom(left ast.Expr, minPrec int) (ast.Expr, error) {
	for {
		op := p.current()
		prec, ok := precedence[op.Kind]
		if !ok || prec < minPrec {
			return left, nil
		}
		p.advance()
		right, err := p.parseBinary(prec + 1)
		if err != nil {
			return nil, err
		}
		left = &ast.Binary{Op: op.Lexeme, Left: left, Right: right}
	}
}

func (p *Parser) parseUnary() (ast.Expr, error) {
	if p.current().Kind == lexer.Minus {
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.Unary{Op: "-", Operand: operand}, nil
	}
	if p.atWord("await") && startsOperand(p.peek()) {
		p.advance()
		value, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.Await{Value: value}, nil
	}
	return p.parsePostfix()
}

func startsOperand(tok lexer.Token) bool {
	switch tok.Kind {
	case lexer.Ident, lexer.Number, lexer.String, lexer.LParen, lexer.LBracket, lexer.LBrace:
		return true
	}
	return false
}

// parsePostfix parses a primary followed by .name, .name(args) and [index]
// suffixes.
func (p *Parser) parsePostfix() (ast.Expr, error) {
	node, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for {
		switch p.current().Kind {
		case lexer.Dot:
			p.advance()
			name, err := p.expect(lexer.Ident, "property name after '.'")
			if err != nil {
				return nil, err
			}
			if p.current().Kind == lexer.LParen {
				p.advance()
				args, err := p.parseList(lexer.RParen, "')'")
				if err != nil {
					return nil, err
				}
				node = &ast.Call{Receiver: node, Name: name.Lexeme, Args: args}
			} else {
				node = &ast.Property{Object: node, Name: name.Lexeme}
			}
		case lexer.LBracket:
			p.advance()
			index, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(lexer.RBracket, "']'"); err != nil {
				return nil, err
			}
			node = &ast.Index{Object: node, Index: index}
		default:
			return node, nil
		}
	}
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	tok := p.current()

	switch tok.Kind {
	case lexer.Number:
		p.advance()
		v, err := strconv.ParseFloat(tok.Lexeme, 64)
		if err != nil {
			return nil, &SyntaxError{Pos: tok.Pos, Message: fmt.Sprintf("invalid number %s", tok.Lexeme)}
		}
		return &ast.NumberLit{Lexeme: tok.Lexeme, Value: v}, nil
	case lexer.String:
		p.advance()
		return &ast.StringLit{Value: tok.Lexeme}, nil
	case lexer.Ident:
		switch tok.Lexeme {
		case "true", "false":
			p.advance()
			return &ast.BoolLit{Value: tok.Lexeme == "true"}, nil
		case "nil":
			p.advance()
			return &ast.NilLit{}, nil
		case "self", "this":
			p.advance()
			return &ast.This{}, nil
		case "func":
			if p.peek().Kind == lexer.LParen {
				return p.parseFuncLit()
			}
		}
		p.advance()
		if p.current().Kind == lexer.LParen {
			p.advance()
			args, err := p.parseList(lexer.RParen, "')'")
			if err != nil {
				return nil, err
			}
			return &ast.Call{Name: tok.Lexeme, Args: args}, nil
		}
		return &ast.Var{Name: tok.Lexeme}, nil
	case lexer.LParen:
		p.advance()
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RParen, "')'"); err != nil {
			return nil, err
		}
		return expr, nil
	case lexer.LBracket:
		p.advance()
		elems, err := p.parseList(lexer.RBracket, "']'")
		if err != nil {
			return nil, err
		}
		return &ast.ArrayLit{Elements: elems}, nil
	case lexer.LBrace:
		return p.parseObjectLiteral()
	}

	return nil, p.unexpected("expression")
}

// parseList parses comma-separated expressions up to and including close.
// The opening bracket is already consumed. Newlines between elements and a
// trailing comma are allowed.
func (p *Parser) parseList(close lexer.Kind, closeName string) ([]ast.Expr, error) {
	var items []ast.Expr
	p.skipNewlines()
	for p.current().Kind != close {
		item, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		p.skipNewlines()
		if p.current().Kind != lexer.Comma {
			break
		}
		p.advance()
		p.skipNewlines()
	}
	if _, err := p.expect(close, closeName); err != nil {
		return nil, err
	}
	return items, nil
}

// parseObjectLiteral parses { key: value, ... }. Keys are identifiers or
// strings and may not repeat.
func (p *Parser) parseObjectLiteral() (ast.Expr, error) {
	p.advance() // {

	obj := &ast.ObjectLit{}
	seen := make(map[string]bool)
	p.skipNewlines()
	for p.current().Kind != lexer.RBrace {
		key := p.current()
		if key.Kind != lexer.Ident && key.Kind != lexer.String {
			return nil, p.unexpected("object key")
		}
		p.advance()
		if seen[key.Lexeme] {
			return nil, &SyntaxError{Pos: key.Pos, Message: fmt.Sprintf("duplicate key '%s' in object literal", key.Lexeme)}
		}
		seen[key.Lexeme] = true

		if k := p.current().Kind; k != lexer.Colon && k != lexer.Assign {
			return nil, p.unexpected("':'")
		}
		p.advance()
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		obj.Entries = append(obj.Entries, ast.ObjectEntry{
			Key:    key.Lexeme,
			Quoted: key.Kind == lexer.String,
			Value:  value,
		})

		p.skipNewlines()
		if p.current().Kind != lexer.Comma {
			break
		}
		p.advance()
		p.skipNewlines()
	}
	if _, err := p.expect(lexer.RBrace, "'}'"); err != nil {
		return nil, err
	}
	return obj, nil
}

// parseFuncLit parses func(params) [-> type] body end.
func (p *Parser) parseFuncLit() (*ast.FuncLit, error) {
	open := p.advance() // func
	fn := &ast.FuncLit{}
	var err error
	if fn.Params, err = p.parseParams(); err != nil {
		return nil, err
	}
	if fn.Return, err = p.parseReturnType(); err != nil {
		return nil, err
	}
	if fn.Body, err = p.parseBlock("function expression", open, "end"); err != nil {
		return nil, err
	}
	if err := p.expectEnd("function expression", open); err != nil {
		return nil, err
	}
	return fn, nil
}
