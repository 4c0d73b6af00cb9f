package lexer

import (
	"errors"
	"testing"
)

func kinds(toks []Token) []Kind {
	out := make([]Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func TestTokenizeOperators(t *testing.T) {
	tests := []struct {
		input string
		want  []Kind
	}{
		{"->", []Kind{Arrow, EOF}},
		{"- >", []Kind{Minus, Gt, EOF}},
		{"== =", []Kind{Eq, Assign, EOF}},
		{"<= < >= >", []Kind{Lte, Lt, Gte, Gt, EOF}},
		{"!=", []Kind{Neq, EOF}},
		{"+ - * / %", []Kind{Plus, Minus, Star, Slash, Percent, EOF}},
		{"( ) { } [ ] , : .", []Kind{LParen, RParen, LBrace, RBrace, LBracket, RBracket, Comma, Colon, Dot, EOF}},
		{"a\nb", []Kind{Ident, Newline, Ident, EOF}},
		{"", []Kind{EOF}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			toks, err := Tokenize(tt.input)
			if err != nil {
				t.Fatalf("tokenize error: %v", err)
			}
			got := kinds(toks)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("token %d: got %s, want %s", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestTokenizeLiterals(t *testing.T) {
	tests := []struct {
		input  string
		kind   Kind
		lexeme string
	}{
		{"42", Number, "42"},
		{"1_000_000", Number, "1000000"},
		{"3.14", Number, "3.14"},
		{"1_0.2_5", Number, "10.25"},
		{`"hello"`, String, "hello"},
		{`'single'`, String, "single"},
		{`"say \"hi\""`, String, `say "hi"`},
		{`'it\'s'`, String, "it's"},
		{`"a\nb"`, String, `a\nb`},
		{`"a\\"`, String, `a\\`},
		{"snake_case9", Ident, "snake_case9"},
		{"_x", Ident, "_x"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			toks, err := Tokenize(tt.input)
			if err != nil {
				t.Fatalf("tokenize error: %v", err)
			}
			if len(toks) != 2 {
				t.Fatalf("expected 1 token + EOF, got %d", len(toks))
			}
			if toks[0].Kind != tt.kind || toks[0].Lexeme != tt.lexeme {
				t.Errorf("got %s %q, want %s %q", toks[0].Kind, toks[0].Lexeme, tt.kind, tt.lexeme)
			}
		})
	}
}

func TestNumberFollowedByDot(t *testing.T) {
	toks, err := Tokenize("1.x")
	if err != nil {
		t.Fatalf("tokenize error: %v", err)
	}
	want := []Kind{Number, Dot, Ident, EOF}
	got := kinds(toks)
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if toks[0].Lexeme != "1" {
		t.Errorf("expected lexeme 1, got %q", toks[0].Lexeme)
	}
}

func TestComments(t *testing.T) {
	toks, err := Tokenize("a -- ignored (\" unbalanced\nb")
	if err != nil {
		t.Fatalf("tokenize error: %v", err)
	}
	got := kinds(toks)
	want := []Kind{Ident, Newline, Ident, EOF}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestDeclMarkers(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"*g num x", []string{"*g", "num", "x"}},
		{"*r num x", []string{"*r", "num", "x"}},
		{"*l num x", []string{"*l", "num", "x"}},
		{"\n*l x", []string{"\n", "*l", "x"}},
		{"a *l", []string{"a", "*", "l"}},
		{"(b) *g", []string{"(", "b", ")", "*", "g"}},
		{"*len", []string{"*", "len"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			toks, err := Tokenize(tt.input)
			if err != nil {
				t.Fatalf("tokenize error: %v", err)
			}
			toks = toks[:len(toks)-1]
			if len(toks) != len(tt.want) {
				t.Fatalf("got %d tokens, want %d", len(toks), len(tt.want))
			}
			for i, tok := range toks {
				if tok.Lexeme != tt.want[i] {
					t.Errorf("token %d: got %q, want %q", i, tok.Lexeme, tt.want[i])
				}
			}
		})
	}
}

func TestPositions(t *testing.T) {
	toks, err := Tokenize("func add\n  x = 'a'\n")
	if err != nil {
		t.Fatalf("tokenize error: %v", err)
	}
	want := []Position{
		{1, 1}, {1, 6}, {1, 9},
		{2, 3}, {2, 5}, {2, 7}, {2, 10},
		{3, 1},
	}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d", len(toks), len(want))
	}
	for i, tok := range toks {
		if tok.Pos != want[i] {
			t.Errorf("token %d (%s): got %s, want %s", i, tok.Describe(), tok.Pos, want[i])
		}
	}
}

func TestPositionsCountRunes(t *testing.T) {
	toks, err := Tokenize("s = \"héllo\" + x -- naïve\ny")
	if err != nil {
		t.Fatalf("tokenize error: %v", err)
	}
	want := []Position{{1, 1}, {1, 3}, {1, 5}, {1, 13}, {1, 15}, {1, 25}, {2, 1}, {2, 2}}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d", len(toks), len(want))
	}
	for i, tok := range toks {
		if tok.Pos != want[i] {
			t.Errorf("token %d (%s): got %s, want %s", i, tok.Describe(), tok.Pos, want[i])
		}
	}
	if toks[2].Lexeme != "héllo" {
		t.Errorf("expected string bytes kept, got %q", toks[2].Lexeme)
	}
}

func TestPositionsMonotonic(t *testing.T) {
	src := `class Point
  pub num x = 0
  func init(x: num)
    self.x = x -- store
  end
end
*g text s = "multi
line"
output [1, 2.5, {a: s}]
`
	toks, err := Tokenize(src)
	if err != nil {
		t.Fatalf("tokenize error: %v", err)
	}
	for i := 1; i < len(toks); i++ {
		if toks[i].Pos.Before(toks[i-1].Pos) {
			t.Errorf("token %d at %s precedes token %d at %s", i, toks[i].Pos, i-1, toks[i-1].Pos)
		}
	}
}

func TestLexicalErrors(t *testing.T) {
	tests := []struct {
		input string
		pos   Position
	}{
		{`x = "open`, Position{1, 5}},
		{"a\n  'open", Position{2, 3}},
		{"x = 1 & 2", Position{1, 7}},
		{"!", Position{1, 1}},
		{"a\n\n  @", Position{3, 3}},
		{"x = 'é' & 1", Position{1, 9}},
		{`"日本" @`, Position{1, 6}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := Tokenize(tt.input)
			if err == nil {
				t.Fatal("expected error")
			}
			var lexErr *LexicalError
			if !errors.As(err, &lexErr) {
				t.Fatalf("expected *LexicalError, got %T", err)
			}
			if lexErr.Pos != tt.pos {
				t.Errorf("got position %s, want %s", lexErr.Pos, tt.pos)
			}
		})
	}
}
