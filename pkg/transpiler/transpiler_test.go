package transpiler

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/lemonberrylabs/lumin/pkg/emitter"
	"github.com/lemonberrylabs/lumin/pkg/lexer"
	"github.com/lemonberrylabs/lumin/pkg/parser"
)

func TestTranspile(t *testing.T) {
	out, err := Transpile(`func add(a: num, b: num) -> num
  let c = a + b
  output c
  return c
end
`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `function add(a: number, b: number): number {
  let c = (a + b);
  console.log(c);
  return c;
}
`
	if out != want {
		t.Errorf("got:\n%s\nwant:\n%s", out, want)
	}
}

func TestTranspileErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		pos    lexer.Position
		lex    bool
	}{
		{"unterminated string", "x = 'abc", lexer.Position{Line: 1, Col: 5}, true},
		{"bad character", "x = 1\ny = #", lexer.Position{Line: 2, Col: 5}, true},
		{"missing end", "func f()\n", lexer.Position{Line: 2, Col: 1}, false},
		{"unexpected token", "x = )", lexer.Position{Line: 1, Col: 5}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Transpile(tt.source)
			if err == nil {
				t.Fatal("expected error")
			}
			if out != "" {
				t.Errorf("expected no output, got %q", out)
			}
			pos, ok := Position(err)
			if !ok {
				t.Fatalf("expected a position in %v", err)
			}
			if pos != tt.pos {
				t.Errorf("got position %s, want %s", pos, tt.pos)
			}
			var lexErr *lexer.LexicalError
			var synErr *parser.SyntaxError
			if tt.lex && !errors.As(err, &lexErr) {
				t.Errorf("expected *lexer.LexicalError, got %T", err)
			}
			if !tt.lex && !errors.As(err, &synErr) {
				t.Errorf("expected *parser.SyntaxError, got %T", err)
			}
			if !IsSourceError(err) {
				t.Error("expected a source error")
			}
		})
	}
}

func TestPositionOfWrappedError(t *testing.T) {
	_, err := Transpile("x = (")
	wrapped := fmt.Errorf("compiling main.lum: %w", err)
	if _, ok := Position(wrapped); !ok {
		t.Error("expected position through wrapping")
	}
	if _, ok := Position(errors.New("other")); ok {
		t.Error("expected no position for unrelated error")
	}
}

func TestMaxSourceSize(t *testing.T) {
	tr := New(Options{MaxSourceSize: 16})
	_, err := tr.Transpile(strings.Repeat("x = 1\n", 10))
	var sizeErr *SizeError
	if !errors.As(err, &sizeErr) {
		t.Fatalf("expected *SizeError, got %v", err)
	}
	if sizeErr.Max != 16 || sizeErr.Size != 60 {
		t.Errorf("unexpected size error %+v", sizeErr)
	}
	if !IsSourceError(err) {
		t.Error("size errors are source errors")
	}
	if _, err := tr.Tokenize(strings.Repeat("a", 17)); err == nil {
		t.Error("expected Tokenize to enforce the limit")
	}
}

func TestOptions(t *testing.T) {
	tr := New(Options{Indent: 4, Types: map[string]string{"text": "String"}})
	out, err := tr.Transpile("func greet(name: text)\n  output name\nend\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "function greet(name: String) {\n    console.log(name);\n}\n"
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestInternalErrorIsNotSourceError(t *testing.T) {
	if IsSourceError(&emitter.InternalError{}) {
		t.Error("internal errors are not source errors")
	}
}

func TestConcurrentTranspile(t *testing.T) {
	tr := New(Options{})
	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			src := fmt.Sprintf("class C%d\nend\nx = C%d(%d)\n", n, n, n)
			out, err := tr.Transpile(src)
			if err != nil {
				errs <- err
				return
			}
			if want := fmt.Sprintf("x = new C%d(%d);", n, n); !strings.Contains(out, want) {
				errs <- fmt.Errorf("output %q missing %q", out, want)
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestTokenize(t *testing.T) {
	toks, err := New(Options{}).Tokenize("output 1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(toks) != 3 || toks[2].Kind != lexer.EOF {
		t.Errorf("unexpected tokens %v", toks)
	}
}
