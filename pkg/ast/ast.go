// Package ast defines the syntax tree shared by the Lumin parser and the
// TypeScript emitter. Each grammar category (Expr, Stmt, Decl, Target) is a
// closed set of node types: the marker methods are unexported, so only this
// package can add variants.
package ast

// Expr is any expression node.
type Expr interface {
	exprNode()
}

// Stmt is any statement node.
type Stmt interface {
	stmtNode()
}

// Decl is a top-level declaration: *Function, *Class, *Struct or *Enum.
type Decl interface {
	declNode()
	DeclName() string
}

// Target is the left-hand side of an assignment: *VarTarget,
// *PropertyTarget or *IndexTarget.
type Target interface {
	targetNode()
}

// Program is the root of a parsed source file.
type Program struct {
	// Globals are top-level statements in source order.
	Globals []Stmt

	// Declarations, each collection in source order.
	Functions []*Function
	Classes   []*Class
	Structs   []*Struct
	Enums     []*Enum
}

// Declarations returns every declaration in emission order: enums, structs,
// classes, then functions.
func (p *Program) Declarations() []Decl {
	decls := make([]Decl, 0, len(p.Enums)+len(p.Structs)+len(p.Classes)+len(p.Functions))
	for _, e := range p.Enums {
		decls = append(decls, e)
	}
	for _, s := range p.Structs {
		decls = append(decls, s)
	}
	for _, c := range p.Classes {
		decls = append(decls, c)
	}
	for _, f := range p.Functions {
		decls = append(decls, f)
	}
	return decls
}

// ClassNames returns the set of declared class names.
func (p *Program) ClassNames() map[string]bool {
	names := make(map[string]bool, len(p.Classes))
	for _, c := range p.Classes {
		names[c.Name] = true
	}
	return names
}

// Modifiers is a set of declaration modifiers.
type Modifiers uint8

const (
	ModPublic Modifiers = 1 << iota
	ModPrivate
	ModReadonly
	ModStatic
)

// Has reports whether every modifier in m is set.
func (s Modifiers) Has(m Modifiers) bool {
	return s&m == m
}

func (s Modifiers) String() string {
	var out string
	for _, m := range []struct {
		bit  Modifiers
		name string
	}{
		{ModPublic, "public"},
		{ModPrivate, "private"},
		{ModReadonly, "readonly"},
		{ModStatic, "static"},
	} {
		if s.Has(m.bit) {
			if out != "" {
				out += " "
			}
			out += m.name
		}
	}
	return out
}

// Scope is the binding kind of a variable declaration.
type Scope int

const (
	ScopeVar   Scope = iota // *g
	ScopeConst              // *r
	ScopeLet                // *l and let
)

func (s Scope) String() string {
	switch s {
	case ScopeVar:
		return "var"
	case ScopeConst:
		return "const"
	default:
		return "let"
	}
}

// Param is a function parameter. Type is empty when unannotated.
type Param struct {
	Name string
	Type string

	// Optional is set when the parameter declares a default value. The
	// default expression itself is not kept.
	Optional bool
}

// --- Declarations ---

// Function is a named function, method or prototype extension.
type Function struct {
	Name      string
	Params    []Param
	Return    string // empty when unannotated
	Body      []Stmt
	Modifiers Modifiers // only ModPublic, ModPrivate, ModStatic apply
	Async     bool
}

// IsConstructor reports whether the function is a class initializer.
func (f *Function) IsConstructor() bool { return f.Name == "init" }

// Field is a class member variable.
type Field struct {
	Modifiers Modifiers
	Type      string
	Name      string
	Init      Expr // nil when absent
}

// Prototype is a method attached to a class after its body.
type Prototype struct {
	// Class is the name written after the prototype keyword.
	Class string
	Func  *Function
}

// Class is a class declaration.
type Class struct {
	Name       string
	Fields     []Field
	Methods    []*Function
	Prototypes []*Prototype
}

// StructField is a field of a plain data struct.
type StructField struct {
	Modifiers Modifiers
	Type      string
	Name      string
}

// Struct is a plain data shape without methods.
type Struct struct {
	Name   string
	Fields []StructField
}

// Enum is an enumeration. A member's value is its index in Members.
type Enum struct {
	Name    string
	Members []string
}

func (*Function) declNode() {}
func (*Class) declNode()    {}
func (*Struct) declNode()   {}
func (*Enum) declNode()     {}

func (f *Function) DeclName() string { return f.Name }
func (c *Class) DeclName() string    { return c.Name }
func (s *Struct) DeclName() string   { return s.Name }
func (e *Enum) DeclName() string     { return e.Name }

// --- Statements ---

// VarDecl declares a variable.
type VarDecl struct {
	Scope Scope
	Name  string
	Type  string
	Init  Expr // nil when absent
}

// ExprStmt is an expression evaluated for its effect.
type ExprStmt struct {
	Expr Expr
}

// Return exits the enclosing function. Value is nil for a bare return.
type Return struct {
	Value Expr
}

// If is a conditional. Else is nil when there is no else branch and an
// empty non-nil slice for an empty one.
type If struct {
	Cond Expr
	Then []Stmt
	Else []Stmt
}

// While loops while Cond holds, or until it holds when Until is set.
type While struct {
	Cond  Expr
	Body  []Stmt
	Until bool
}

// ForEach iterates Var over the elements of Collection.
type ForEach struct {
	Var        string
	Collection Expr
	Body       []Stmt
}

// Assign stores Value into Target.
type Assign struct {
	Target Target
	Value  Expr
}

// Output prints a value.
type Output struct {
	Value Expr
}

// Protect runs Try with Args, handing a failure to Catch before
// propagating it.
type Protect struct {
	Try   *FuncLit
	Catch *FuncLit // nil when absent
	Args  []Expr
}

func (*VarDecl) stmtNode()  {}
func (*ExprStmt) stmtNode() {}
func (*Return) stmtNode()   {}
func (*If) stmtNode()       {}
func (*While) stmtNode()    {}
func (*ForEach) stmtNode()  {}
func (*Assign) stmtNode()   {}
func (*Output) stmtNode()   {}
func (*Protect) stmtNode()  {}

// --- Assignment targets ---

// VarTarget assigns to a plain variable.
type VarTarget struct {
	Name string
}

// PropertyTarget assigns to Object.Name.
type PropertyTarget struct {
	Object Expr
	Name   string
}

// IndexTarget assigns to Object[Index].
type IndexTarget struct {
	Object Expr
	Index  Expr
}

func (*VarTarget) targetNode()      {}
func (*PropertyTarget) targetNode() {}
func (*IndexTarget) targetNode()    {}

// --- Expressions ---

// NumberLit is a numeric literal. Lexeme holds the digits as written, with
// separators removed.
type NumberLit struct {
	Lexeme string
	Value  float64
}

// StringLit is a string literal. Backslash sequences other than an escaped
// delimiter are kept verbatim in Value.
type StringLit struct {
	Value string
}

// BoolLit is true or false.
type BoolLit struct {
	Value bool
}

// NilLit is nil.
type NilLit struct{}

// Var references a variable by name.
type Var struct {
	Name string
}

// This references the current instance (self or this).
type This struct{}

// Call invokes Name with Args. Receiver is nil for a plain call and holds
// the object for a dotted method call.
type Call struct {
	Receiver Expr
	Name     string
	Args     []Expr
}

// Property is Object.Name.
type Property struct {
	Object Expr
	Name   string
}

// Index is Object[Index].
type Index struct {
	Object Expr
	Index  Expr
}

// ObjectEntry is one key/value pair of an object literal.
type ObjectEntry struct {
	Key    string
	Quoted bool // key was written as a string literal
	Value  Expr
}

// ObjectLit is { key: value, ... }. Keys are unique.
type ObjectLit struct {
	Entries []ObjectEntry
}

// ArrayLit is [ elem, ... ].
type ArrayLit struct {
	Elements []Expr
}

// Unary is a prefix operation. The only operator is "-".
type Unary struct {
	Op      string
	Operand Expr
}

// Binary is Left Op Right.
type Binary struct {
	Op    string
	Left  Expr
	Right Expr
}

// FuncLit is an inline function expression.
type FuncLit struct {
	Params []Param
	Return string
	Body   []Stmt
}

// Await suspends on an asynchronous value.
type Await struct {
	Value Expr
}

func (*NumberLit) exprNode() {}
func (*StringLit) exprNode() {}
func (*BoolLit) exprNode()   {}
func (*NilLit) exprNode()    {}
func (*Var) exprNode()       {}
func (*This) exprNode()      {}
func (*Call) exprNode()      {}
func (*Property) exprNode()  {}
func (*Index) exprNode()     {}
func (*ObjectLit) exprNode() {}
func (*ArrayLit) exprNode()  {}
func (*Unary) exprNode()     {}
func (*Binary) exprNode()    {}
func (*FuncLit) exprNode()   {}
func (*Await) exprNode()     {}

// Callee renders the dotted callee path of a call in source form, e.g.
// "add", "list.push" or "self.items.push". Receivers that are not a chain of
// names render as "<expr>".
func (c *Call) Callee() string {
	if c.Receiver == nil {
		return c.Name
	}
	return pathOf(c.Receiver) + "." + c.Name
}

func pathOf(e Expr) string {
	switch n := e.(type) {
	case *Var:
		return n.Name
	case *This:
		return "self"
	case *Property:
		return pathOf(n.Object) + "." + n.Name
	case *Call:
		return n.Callee() + "()"
	default:
		return "<expr>"
	}
}
