package parser

import (
	"fmt"

	"github.com/lemonberrylabs/lumin/pkg/lexer"
)

// SyntaxError represents a grammar violation. Parsing stops at the first one.
type SyntaxError struct {
	Pos      lexer.Position
	Expected string // e.g. "')'" or "expression"
	Found    string // description of the offending token
	Message  string // optional context, e.g. "unterminated class 'Point'"
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	msg := fmt.Sprintf("syntax error at %s: ", e.Pos)
	if e.Message != "" {
		msg += e.Message
		if e.Expected != "" {
			msg += ": "
		}
	}
	if e.Expected != "" {
		msg += fmt.Sprintf("expected %s, found %s", e.Expected, e.Found)
	}
	return msg
}
