package lexer

import "fmt"

// LexicalError reports an unterminated string or an unrecognized character.
type LexicalError struct {
	Pos     Position
	Message string
}

// Error implements the error interface.
func (e *LexicalError) Error() string {
	return fmt.Sprintf("lexical error at %s: %s", e.Pos, e.Message)
}
