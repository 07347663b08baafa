// Package ast defines the surface AST node shapes the Lowerer
// consumes. Per spec §1, the lexer and parser that actually produce
// this tree are an external collaborator outside this module's scope;
// this package is the "named interface" contract between that
// producer and internal/lower, not a parser implementation.
package ast

import "fmt"

// Pos is a source position, carried through to IR spans for
// diagnostics.
type Pos struct {
	Line   int
	Column int
	File   string
}

func (p Pos) String() string { return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column) }

// Span is a source range.
type Span struct {
	Start Pos
	End   Pos
}

// Node is the base interface every AST node implements.
type Node interface {
	Position() Pos
}

// Expr is any expression node.
type Expr interface {
	Node
	exprNode()
}

// Stmt is any statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Program is the root of one source file's AST: its top-level
// declarations and statements in source order. It carries no module
// name; the choice between "main" and "__module_init_<name>" comes
// from lower.Config.ModuleName.
type Program struct {
	Decls []Node
	Pos   Pos
}

func (p *Program) Position() Pos { return p.Pos }
