// Package emitter renders a Lumin syntax tree as TypeScript source.
package emitter

import (
	"fmt"
	"strings"

	"github.com/lemonberrylabs/lumin/pkg/ast"
)

// Config controls the emitted text.
type Config struct {
	// Indent is the number of spaces per nesting level. Zero means 2.
	Indent int

	// Types overrides entries of DefaultTypes.
	Types map[string]string
}

// Emitter converts programs to TypeScript. It holds no per-program state and
// may be shared between goroutines.
type Emitter struct {
	indent string
	types  TypeMap
}

// New creates an Emitter from cfg.
func New(cfg Config) *Emitter {
	width := cfg.Indent
	if width <= 0 {
		width = 2
	}
	return &Emitter{
		indent: strings.Repeat(" ", width),
		types:  DefaultTypes.With(cfg.Types),
	}
}

// Emit renders prog with the default configuration.
func Emit(prog *ast.Program) (string, error) {
	return New(Config{}).Emit(prog)
}

// Emit renders prog. Globals come first, then enums, structs, classes and
// functions, each section separated by a blank line.
func (e *Emitter) Emit(prog *ast.Program) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			ie, ok := r.(*InternalError)
			if !ok {
				panic(r)
			}
			out, err = "", ie
		}
	}()

	p := &printer{
		indent:  e.indent,
		types:   e.types,
		classes: prog.ClassNames(),
	}

	var sections []string
	if len(prog.Globals) > 0 {
		var b strings.Builder
		p.block(&b, prog.Globals, 0)
		sections = append(sections, b.String())
	}
	for _, decl := range prog.Declarations() {
		var b strings.Builder
		p.decl(&b, decl)
		sections = append(sections, b.String())
	}
	return strings.Join(sections, "\n"), nil
}

// printer carries the lookup tables for one Emit call.
type printer struct {
	indent  string
	types   TypeMap
	classes map[string]bool
}

func (p *printer) line(b *strings.Builder, depth int, format string, args ...any) {
	b.WriteString(strings.Repeat(p.indent, depth))
	fmt.Fprintf(b, format, args...)
	b.WriteByte('\n')
}

func (p *printer) pad(depth int) string {
	return strings.Repeat(p.indent, depth)
}

// typeOr resolves name, falling back to def when name is empty.
func (p *printer) typeOr(name, def string) string {
	if name == "" {
		return def
	}
	return p.types.Resolve(name)
}

// annotation renders ": T", or nothing when name is empty.
func (p *printer) annotation(name string) string {
	if name == "" {
		return ""
	}
	return ": " + p.types.Resolve(name)
}

// returnAnnotation renders a function's return type. Async functions return
// a Promise of the declared type.
func (p *printer) returnAnnotation(name string, async bool) string {
	if async {
		return ": Promise<" + p.typeOr(name, "any") + ">"
	}
	return p.annotation(name)
}

func (p *printer) params(params []ast.Param, def string) string {
	parts := make([]string, len(params))
	for i, param := range params {
		s := param.Name
		if param.Optional {
			s += "?"
		}
		if t := p.typeOr(param.Type, def); t != "" {
			s += ": " + t
		}
		parts[i] = s
	}
	return strings.Join(parts, ", ")
}

// --- Declarations ---

func (p *printer) decl(b *strings.Builder, d ast.Decl) {
	switch n := d.(type) {
	case *ast.Enum:
		p.enum(b, n)
	case *ast.Struct:
		p.structDecl(b, n)
	case *ast.Class:
		p.class(b, n)
	case *ast.Function:
		p.function(b, n)
	default:
		panic(&InternalError{Node: d})
	}
}

func (p *printer) enum(b *strings.Builder, en *ast.Enum) {
	p.line(b, 0, "enum %s {", en.Name)
	for i, member := range en.Members {
		p.line(b, 1, "%s = %d,", member, i)
	}
	p.line(b, 0, "}")
}

func (p *printer) structDecl(b *strings.Builder, st *ast.Struct) {
	p.line(b, 0, "interface %s {", st.Name)
	for _, f := range st.Fields {
		typ := p.typeOr(f.Type, "any")
		switch {
		case f.Modifiers.Has(ast.ModPrivate):
			p.line(b, 1, "// private %s: %s;", f.Name, typ)
		case f.Modifiers.Has(ast.ModReadonly):
			p.line(b, 1, "readonly %s: %s;", f.Name, typ)
		default:
			p.line(b, 1, "%s: %s;", f.Name, typ)
		}
	}
	p.line(b, 0, "}")
}

func (p *printer) function(b *strings.Builder, fn *ast.Function) {
	prefix := "function "
	if fn.Async {
		prefix = "async function "
	}
	p.line(b, 0, "%s%s(%s)%s {", prefix, fn.Name, p.params(fn.Params, ""), p.returnAnnotation(fn.Return, fn.Async))
	p.block(b, fn.Body, 1)
	p.line(b, 0, "}")
}

func (p *printer) class(b *strings.Builder, cls *ast.Class) {
	p.line(b, 0, "class %s {", cls.Name)
	for _, f := range cls.Fields {
		s := fieldPrefix(f.Modifiers) + f.Name + ": " + p.typeOr(f.Type, "any")
		if f.Init != nil {
			s += " = " + p.expr(f.Init, 1)
		}
		p.line(b, 1, "%s;", s)
	}
	for _, m := range cls.Methods {
		p.method(b, m)
	}
	p.line(b, 0, "}")

	// Prototype extensions attach to the enclosing class regardless of the
	// name written after the prototype keyword.
	for _, proto := range cls.Prototypes {
		fn := proto.Func
		prefix := "function"
		if fn.Async {
			prefix = "async function"
		}
		p.line(b, 0, "%s.prototype.%s = %s(%s)%s {", cls.Name, fn.Name, prefix,
			p.params(fn.Params, ""), p.returnAnnotation(fn.Return, fn.Async))
		p.block(b, fn.Body, 1)
		p.line(b, 0, "};")
	}
}

func fieldPrefix(mods ast.Modifiers) string {
	var s string
	switch {
	case mods.Has(ast.ModStatic):
		s = "static "
	case mods.Has(ast.ModPrivate):
		s = "private "
	case mods.Has(ast.ModPublic):
		s = "public "
	}
	if mods.Has(ast.ModReadonly) {
		s += "readonly "
	}
	return s
}

func (p *printer) method(b *strings.Builder, fn *ast.Function) {
	if fn.IsConstructor() {
		p.line(b, 1, "constructor(%s) {", p.params(fn.Params, ""))
		p.block(b, fn.Body, 2)
		p.line(b, 1, "}")
		return
	}

	var prefix string
	switch {
	case fn.Modifiers.Has(ast.ModStatic):
		prefix = "static "
	case fn.Modifiers.Has(ast.ModPrivate):
		prefix = "private "
	case fn.Modifiers.Has(ast.ModPublic):
		prefix = "public "
	}
	if fn.Async {
		prefix += "async "
	}
	p.line(b, 1, "%s%s(%s)%s {", prefix, fn.Name, p.params(fn.Params, ""), p.returnAnnotation(fn.Return, fn.Async))
	p.block(b, fn.Body, 2)
	p.line(b, 1, "}")
}

// --- Statements ---

func (p *printer) block(b *strings.Builder, stmts []ast.Stmt, depth int) {
	for _, s := range stmts {
		p.stmt(b, s, depth)
	}
}

func (p *printer) stmt(b *strings.Builder, s ast.Stmt, depth int) {
	switch n := s.(type) {
	case *ast.VarDecl:
		text := n.Scope.String() + " " + n.Name + p.annotation(n.Type)
		switch {
		case n.Init != nil:
			text += " = " + p.expr(n.Init, depth)
		case n.Scope == ast.ScopeConst:
			text += " = undefined"
		}
		p.line(b, depth, "%s;", text)
	case *ast.ExprStmt:
		p.line(b, depth, "%s;", p.expr(n.Expr, depth))
	case *ast.Return:
		if n.Value == nil {
			p.line(b, depth, "return;")
		} else {
			p.line(b, depth, "return %s;", p.expr(n.Value, depth))
		}
	case *ast.If:
		p.line(b, depth, "if (%s) {", p.cond(n.Cond, depth))
		p.block(b, n.Then, depth+1)
		if n.Else != nil {
			p.line(b, depth, "} else {")
			p.block(b, n.Else, depth+1)
		}
		p.line(b, depth, "}")
	case *ast.While:
		if n.Until {
			p.line(b, depth, "while (!(%s)) {", p.cond(n.Cond, depth))
		} else {
			p.line(b, depth, "while (%s) {", p.cond(n.Cond, depth))
		}
		p.block(b, n.Body, depth+1)
		p.line(b, depth, "}")
	case *ast.ForEach:
		p.line(b, depth, "for (let %s of %s) {", n.Var, p.expr(n.Collection, depth))
		p.block(b, n.Body, depth+1)
		p.line(b, depth, "}")
	case *ast.Assign:
		p.line(b, depth, "%s = %s;", p.target(n.Target, depth), p.expr(n.Value, depth))
	case *ast.Output:
		p.line(b, depth, "console.log(%s);", p.expr(n.Value, depth))
	case *ast.Protect:
		p.protect(b, n, depth)
	default:
		panic(&InternalError{Node: s})
	}
}

func (p *printer) target(t ast.Target, depth int) string {
	switch n := t.(type) {
	case *ast.VarTarget:
		return n.Name
	case *ast.PropertyTarget:
		return p.operand(n.Object, depth) + "." + n.Name
	case *ast.IndexTarget:
		return p.operand(n.Object, depth) + "[" + p.expr(n.Index, depth) + "]"
	default:
		panic(&InternalError{Node: t})
	}
}

// protect lowers a protect statement to a Promise that resolves with the try
// function's result. A failure is passed to the catch function and then
// rejected, so the catch function observes the failure without recovering
// from it.
func (p *printer) protect(b *strings.Builder, n *ast.Protect, depth int) {
	try := n.Try
	void := try.Return == "nil"
	result := p.typeOr(try.Return, "any")

	args := make([]string, len(n.Args))
	for i, a := range n.Args {
		args[i] = p.expr(a, depth+3)
	}
	call := "(" + strings.Join(args, ", ") + ")"

	p.line(b, depth, "new Promise<%s>((resolve, reject) => {", result)
	p.line(b, depth+1, "try {")
	fn := fmt.Sprintf("((%s)%s => {", p.params(try.Params, "any"), p.annotation(try.Return))
	if void {
		p.line(b, depth+2, "%s", fn)
	} else {
		p.line(b, depth+2, "resolve(%s", fn)
	}
	p.block(b, try.Body, depth+3)
	if void {
		p.line(b, depth+2, "})%s;", call)
		p.line(b, depth+2, "resolve();")
	} else {
		p.line(b, depth+2, "})%s);", call)
	}
	p.line(b, depth+1, "} catch (err) {")
	if c := n.Catch; c != nil {
		p.line(b, depth+2, "((%s)%s => {", p.params(c.Params, "any"), p.annotation(c.Return))
		p.block(b, c.Body, depth+3)
		if len(c.Params) > 0 {
			p.line(b, depth+2, "})(err);")
		} else {
			p.line(b, depth+2, "})();")
		}
	}
	p.line(b, depth+2, "reject(err);")
	p.line(b, depth+1, "}")
	p.line(b, depth, "});")
}

// --- Expressions ---

// cond renders a condition, dropping the outer parentheses of a binary
// expression.
func (p *printer) cond(e ast.Expr, depth int) string {
	if bin, ok := e.(*ast.Binary); ok {
		return p.expr(bin.Left, depth) + " " + bin.Op + " " + p.expr(bin.Right, depth)
	}
	return p.expr(e, depth)
}

// operand renders e as the receiver of a member access or call.
func (p *printer) operand(e ast.Expr, depth int) string {
	switch e.(type) {
	case *ast.Unary, *ast.Await, *ast.FuncLit, *ast.ObjectLit, *ast.NumberLit:
		return "(" + p.expr(e, depth) + ")"
	}
	return p.expr(e, depth)
}

func (p *printer) expr(e ast.Expr, depth int) string {
	switch n := e.(type) {
	case *ast.NumberLit:
		return n.Lexeme
	case *ast.StringLit:
		return quote(n.Value)
	case *ast.BoolLit:
		if n.Value {
			return "true"
		}
		return "false"
	case *ast.NilLit:
		return "undefined"
	case *ast.Var:
		return n.Name
	case *ast.This:
		return "this"
	case *ast.Call:
		args := p.exprList(n.Args, depth)
		if n.Receiver != nil {
			return p.operand(n.Receiver, depth) + "." + n.Name + "(" + args + ")"
		}
		if p.classes[n.Name] {
			return "new " + n.Name + "(" + args + ")"
		}
		return n.Name + "(" + args + ")"
	case *ast.Property:
		return p.operand(n.Object, depth) + "." + n.Name
	case *ast.Index:
		return p.operand(n.Object, depth) + "[" + p.expr(n.Index, depth) + "]"
	case *ast.ObjectLit:
		if len(n.Entries) == 0 {
			return "{}"
		}
		parts := make([]string, len(n.Entries))
		for i, entry := range n.Entries {
			key := entry.Key
			if entry.Quoted {
				key = quote(key)
			}
			parts[i] = key + ": " + p.expr(entry.Value, depth)
		}
		return "{ " + strings.Join(parts, ", ") + " }"
	case *ast.ArrayLit:
		return "[" + p.exprList(n.Elements, depth) + "]"
	case *ast.Unary:
		switch n.Operand.(type) {
		case *ast.Unary, *ast.Await:
			return n.Op + "(" + p.expr(n.Operand, depth) + ")"
		}
		return n.Op + p.expr(n.Operand, depth)
	case *ast.Binary:
		return "(" + p.expr(n.Left, depth) + " " + n.Op + " " + p.expr(n.Right, depth) + ")"
	case *ast.FuncLit:
		var b strings.Builder
		fmt.Fprintf(&b, "(%s)%s => {\n", p.params(n.Params, ""), p.annotation(n.Return))
		p.block(&b, n.Body, depth+1)
		b.WriteString(p.pad(depth) + "}")
		return b.String()
	case *ast.Await:
		return "await " + p.operand(n.Value, depth)
	default:
		panic(&InternalError{Node: e})
	}
}

func (p *printer) exprList(list []ast.Expr, depth int) string {
	parts := make([]string, len(list))
	for i, e := range list {
		parts[i] = p.expr(e, depth)
	}
	return strings.Join(parts, ", ")
}

// quote renders a string literal in double quotes. Backslash pairs are
// copied as written; bare double quotes and raw line breaks are escaped.
func quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\\':
			if i+1 < len(s) {
				b.WriteByte(c)
				b.WriteByte(s[i+1])
				i++
			} else {
				b.WriteString(`\\`)
			}
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}
