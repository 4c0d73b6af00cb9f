// Package transpiler composes the lexer, parser and emitter into a single
// source-to-source entry point.
package transpiler

import (
	"errors"
	"fmt"

	"github.com/lemonberrylabs/lumin/pkg/emitter"
	"github.com/lemonberrylabs/lumin/pkg/lexer"
	"github.com/lemonberrylabs/lumin/pkg/parser"
)

// DefaultMaxSourceSize is the largest accepted source in bytes (128 KB).
const DefaultMaxSourceSize = 128 * 1024

// Options configures a Transpiler. The zero value is usable.
type Options struct {
	Indent        int               // spaces per level, default 2
	Types         map[string]string // type-name overrides
	MaxSourceSize int               // bytes, default DefaultMaxSourceSize
}

// SizeError is returned for sources over the configured limit.
type SizeError struct {
	Size int
	Max  int
}

func (e *SizeError) Error() string {
	return fmt.Sprintf("source size %d exceeds maximum %d bytes", e.Size, e.Max)
}

// Transpiler converts Lumin source to TypeScript. It is safe for concurrent
// use.
type Transpiler struct {
	emitter *emitter.Emitter
	maxSize int
}

// New creates a Transpiler.
func New(opts Options) *Transpiler {
	maxSize := opts.MaxSourceSize
	if maxSize <= 0 {
		maxSize = DefaultMaxSourceSize
	}
	return &Transpiler{
		emitter: emitter.New(emitter.Config{Indent: opts.Indent, Types: opts.Types}),
		maxSize: maxSize,
	}
}

var std = New(Options{})

// Transpile converts source with default options.
func Transpile(source string) (string, error) {
	return std.Transpile(source)
}

// Transpile converts source to TypeScript. The first lexical or syntax error
// is returned unwrapped; no partial output is produced.
func (t *Transpiler) Transpile(source string) (string, error) {
	if len(source) > t.maxSize {
		return "", &SizeError{Size: len(source), Max: t.maxSize}
	}
	tokens, err := lexer.Tokenize(source)
	if err != nil {
		return "", err
	}
	prog, err := parser.Parse(tokens)
	if err != nil {
		return "", err
	}
	return t.emitter.Emit(prog)
}

// Tokenize returns the token stream for source, subject to the same size
// limit as Transpile.
func (t *Transpiler) Tokenize(source string) ([]lexer.Token, error) {
	if len(source) > t.maxSize {
		return nil, &SizeError{Size: len(source), Max: t.maxSize}
	}
	return lexer.Tokenize(source)
}

// Position returns the source location carried by a lexical or syntax error.
func Position(err error) (lexer.Position, bool) {
	var lexErr *lexer.LexicalError
	if errors.As(err, &lexErr) {
		return lexErr.Pos, true
	}
	var synErr *parser.SyntaxError
	if errors.As(err, &synErr) {
		return synErr.Pos, true
	}
	return lexer.Position{}, false
}

// IsSourceError reports whether err was caused by the input text rather than
// by the transpiler itself.
func IsSourceError(err error) bool {
	if _, ok := Position(err); ok {
		return true
	}
	var sizeErr *SizeError
	return errors.As(err, &sizeErr)
}
