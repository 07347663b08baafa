package ast

// FuncDecl is a top-level `function name(params) { body }`, possibly
// a generator and/or async function. It is both a declaration (usable
// as a Program top-level Node) and a Stmt.
type FuncDecl struct {
	Name        string
	Params      []Param
	Body        *Block
	IsGenerator bool
	IsAsync     bool
	Pos         Pos
}

func (f *FuncDecl) Position() Pos { return f.Pos }
func (f *FuncDecl) stmtNode()     {}

// FieldDecl is one class field, with an optional initializer
// evaluated in the constructor before the user's constructor body.
type FieldDecl struct {
	Name string
	Init Expr // nil for a zero-initialized field
	Pos  Pos
}

// MethodDecl is one class method, getter, setter, or static method.
type MethodDecl struct {
	Name   string
	Params []Param
	Body   *Block
	Pos    Pos
}

// ClassDecl is `class Name [extends Extends] { ... }`.
type ClassDecl struct {
	Name          string
	Extends       string // "" if no superclass
	Fields        []FieldDecl
	Constructor   *MethodDecl // nil if the class has no explicit constructor
	Methods       []MethodDecl
	Getters       []MethodDecl
	Setters       []MethodDecl
	StaticMethods []MethodDecl
	StaticFields  []FieldDecl
	Pos           Pos
}

func (c *ClassDecl) Position() Pos { return c.Pos }
func (c *ClassDecl) stmtNode()     {}
