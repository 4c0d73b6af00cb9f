package lexer

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Lexer tokenizes Lumin source text in a single forward pass.
type Lexer struct {
	input  string
	pos    int
	line   int
	col    int
	tokens []Token
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input, line: 1, col: 1}
}

// Tokenize is shorthand for NewLexer(source).Tokenize().
func Tokenize(source string) ([]Token, error) {
	return NewLexer(source).Tokenize()
}

// Tokenize scans the entire input and returns all tokens. The last token is
// always EOF. The first lexical error aborts the scan.
func (l *Lexer) Tokenize() ([]Token, error) {
	for {
		tok, skip, err := l.next()
		if err != nil {
			return nil, err
		}
		if skip {
			continue
		}
		l.tokens = append(l.tokens, tok)
		if tok.Kind == EOF {
			return l.tokens, nil
		}
	}
}

// next scans one token. skip is true when only whitespace or a comment was
// consumed.
func (l *Lexer) next() (tok Token, skip bool, err error) {
	l.skipBlanks()

	start := Position{Line: l.line, Col: l.col}
	if l.pos >= len(l.input) {
		return Token{Kind: EOF, Pos: start}, false, nil
	}

	ch := l.input[l.pos]

	if ch == '\n' {
		l.advance(1)
		return Token{Kind: Newline, Lexeme: "\n", Pos: start}, false, nil
	}

	// Line comments
	if ch == '-' && l.peekByte(1) == '-' {
		for l.pos < len(l.input) && l.input[l.pos] != '\n' {
			l.advance(1)
		}
		return Token{}, true, nil
	}

	// Two-character operators
	if l.pos+1 < len(l.input) {
		var kind Kind = -1
		switch l.input[l.pos : l.pos+2] {
		case "->":
			kind = Arrow
		case "==":
			kind = Eq
		case "!=":
			kind = Neq
		case "<=":
			kind = Lte
		case ">=":
			kind = Gte
		}
		if kind >= 0 {
			lexeme := l.input[l.pos : l.pos+2]
			l.advance(2)
			return Token{Kind: kind, Lexeme: lexeme, Pos: start}, false, nil
		}
	}

	if ch == '*' && l.atDeclMarker() {
		lexeme := l.input[l.pos : l.pos+2]
		l.advance(2)
		return Token{Kind: Ident, Lexeme: lexeme, Pos: start}, false, nil
	}

	if kind, ok := singles[ch]; ok {
		l.advance(1)
		return Token{Kind: kind, Lexeme: string(ch), Pos: start}, false, nil
	}

	if ch == '"' || ch == '\'' {
		tok, err := l.readString(ch, start)
		return tok, false, err
	}

	if isDigit(ch) {
		return l.readNumber(start), false, nil
	}

	if isIdentStart(ch) {
		return l.readIdentifier(start), false, nil
	}

	r, _ := utf8.DecodeRuneInString(l.input[l.pos:])
	return Token{}, false, &LexicalError{Pos: start, Message: fmt.Sprintf("unexpected character %q", r)}
}

var singles = map[byte]Kind{
	'(': LParen,
	')': RParen,
	'{': LBrace,
	'}': RBrace,
	'[': LBracket,
	']': RBracket,
	',': Comma,
	':': Colon,
	'.': Dot,
	'+': Plus,
	'-': Minus,
	'*': Star,
	'/': Slash,
	'%': Percent,
	'=': Assign,
	'<': Lt,
	'>': Gt,
}

// atDeclMarker reports whether the '*' at the cursor starts one of the
// declaration markers *g, *r or *l. After an operand the '*' is always
// multiplication, so `a *l` still lexes as a product.
func (l *Lexer) atDeclMarker() bool {
	switch l.peekByte(1) {
	case 'g', 'r', 'l':
	default:
		return false
	}
	if isIdentPart(l.peekByte(2)) {
		return false
	}
	if n := len(l.tokens); n > 0 {
		switch l.tokens[n-1].Kind {
		case Ident, Number, String, RParen, RBracket, RBrace:
			return false
		}
	}
	return true
}

// readString reads a quoted string literal. A backslash keeps the following
// character verbatim, except that an escaped delimiter is unescaped.
func (l *Lexer) readString(quote byte, start Position) (Token, error) {
	l.advance(1) // opening quote

	var sb strings.Builder
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		if ch == '\\' && l.pos+1 < len(l.input) {
			escaped := l.input[l.pos+1]
			if escaped != quote {
				sb.WriteByte('\\')
			}
			sb.WriteByte(escaped)
			l.advance(2)
			continue
		}
		if ch == quote {
			l.advance(1)
			return Token{Kind: String, Lexeme: sb.String(), Pos: start}, nil
		}
		sb.WriteByte(ch)
		l.advance(1)
	}

	return Token{}, &LexicalError{Pos: start, Message: "unterminated string"}
}

// readNumber reads digits with optional '_' separators and at most one '.'.
func (l *Lexer) readNumber(start Position) Token {
	var sb strings.Builder
	l.readDigits(&sb)
	if l.peekByte(0) == '.' && isDigit(l.peekByte(1)) {
		sb.WriteByte('.')
		l.advance(1)
		l.readDigits(&sb)
	}
	return Token{Kind: Number, Lexeme: sb.String(), Pos: start}
}

func (l *Lexer) readDigits(sb *strings.Builder) {
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		if !isDigit(ch) && ch != '_' {
			return
		}
		if ch != '_' {
			sb.WriteByte(ch)
		}
		l.advance(1)
	}
}

func (l *Lexer) readIdentifier(start Position) Token {
	begin := l.pos
	for l.pos < len(l.input) && isIdentPart(l.input[l.pos]) {
		l.advance(1)
	}
	return Token{Kind: Ident, Lexeme: l.input[begin:l.pos], Pos: start}
}

func (l *Lexer) skipBlanks() {
	for l.pos < len(l.input) {
		switch l.input[l.pos] {
		case ' ', '\t', '\r':
			l.advance(1)
		default:
			return
		}
	}
}

// advance moves the cursor n bytes, keeping line and column in step.
// Columns count runes: continuation bytes of a multi-byte character do not
// move the column.
func (l *Lexer) advance(n int) {
	for i := 0; i < n && l.pos < len(l.input); i++ {
		ch := l.input[l.pos]
		switch {
		case ch == '\n':
			l.line++
			l.col = 1
		case utf8.RuneStart(ch):
			l.col++
		}
		l.pos++
	}
}

func (l *Lexer) peekByte(off int) byte {
	if l.pos+off >= len(l.input) {
		return 0
	}
	return l.input[l.pos+off]
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentStart(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}
