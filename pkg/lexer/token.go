// Package lexer implements the Lumin tokenizer. It turns source text into a
// flat, newline-sensitive token stream consumed by the parser.
package lexer

import "fmt"

// Kind represents the kind of a lexical token.
type Kind int

const (
	// Literals and names. Keywords are lexed as identifiers; the parser
	// decides keyword-ness from context.
	Ident  Kind = iota // identifier or keyword
	Number             // numeric literal, underscores stripped
	String             // quoted string literal, quotes stripped

	// Punctuation
	LParen   // (
	RParen   // )
	LBrace   // {
	RBrace   // }
	LBracket // [
	RBracket // ]
	Comma    // ,
	Colon    // :
	Arrow    // ->
	Dot      // .

	// Arithmetic
	Plus    // +
	Minus   // -
	Star    // *
	Slash   // /
	Percent // %

	// Assignment and comparison
	Assign // =
	Eq     // ==
	Neq    // !=
	Lt     // <
	Lte    // <=
	Gt     // >
	Gte    // >=

	// Layout
	Newline // \n
	EOF     // end of input
)

var kindNames = [...]string{
	Ident:    "IDENT",
	Number:   "NUMBER",
	String:   "STRING",
	LParen:   "LPAREN",
	RParen:   "RPAREN",
	LBrace:   "LBRACE",
	RBrace:   "RBRACE",
	LBracket: "LBRACKET",
	RBracket: "RBRACKET",
	Comma:    "COMMA",
	Colon:    "COLON",
	Arrow:    "ARROW",
	Dot:      "DOT",
	Plus:     "PLUS",
	Minus:    "MINUS",
	Star:     "STAR",
	Slash:    "SLASH",
	Percent:  "PERCENT",
	Assign:   "ASSIGN",
	Eq:       "EQ",
	Neq:      "NEQ",
	Lt:       "LT",
	Lte:      "LTE",
	Gt:       "GT",
	Gte:      "GTE",
	Newline:  "NEWLINE",
	EOF:      "EOF",
}

// String returns a debug-friendly representation of the token kind.
func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "UNKNOWN"
}

// Position is a 1-based line and column in the source text.
type Position struct {
	Line int
	Col  int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// Before reports whether p comes strictly before q.
func (p Position) Before(q Position) bool {
	return p.Line < q.Line || (p.Line == q.Line && p.Col < q.Col)
}

// Token represents a single lexical token. Pos is where the token starts.
type Token struct {
	Kind   Kind
	Lexeme string
	Pos    Position
}

// Is reports whether the token is an identifier spelled exactly word.
func (t Token) Is(word string) bool {
	return t.Kind == Ident && t.Lexeme == word
}

// Describe renders the token for diagnostics, e.g. `'end'` or `newline`.
func (t Token) Describe() string {
	switch t.Kind {
	case EOF:
		return "end of input"
	case Newline:
		return "newline"
	case String:
		return fmt.Sprintf("string %q", t.Lexeme)
	case Number:
		return "number " + t.Lexeme
	}
	return "'" + t.Lexeme + "'"
}
