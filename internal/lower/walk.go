package lower

import "github.com/zacostudio/zacoc/internal/ast"

// walkChildren calls visit once per immediate child node of n. It
// covers every ast node the parser's contract defines; the Lowerer
// uses it for the two whole-tree scans capture analysis needs
// (free-variable collection and mutation detection, spec §4.2.5)
// without duplicating a traversal per scan.
func walkChildren(n ast.Node, visit func(ast.Node)) {
	switch t := n.(type) {
	case *ast.Program:
		for _, d := range t.Decls {
			visit(d)
		}
	case *ast.Block:
		for _, s := range t.Stmts {
			visit(s)
		}
	case *ast.ExprStmt:
		visit(t.Expr)
	case *ast.VarDecl:
		if t.Init != nil {
			visit(t.Init)
		}
	case *ast.IfStmt:
		visit(t.Cond)
		visit(t.Then)
		if t.Else != nil {
			visit(t.Else)
		}
	case *ast.WhileStmt:
		visit(t.Cond)
		visit(t.Body)
	case *ast.ForStmt:
		if t.Init != nil {
			visit(t.Init)
		}
		if t.Cond != nil {
			visit(t.Cond)
		}
		if t.Update != nil {
			visit(t.Update)
		}
		visit(t.Body)
	case *ast.ForInStmt:
		visit(t.Object)
		visit(t.Body)
	case *ast.ForOfStmt:
		visit(t.Iterable)
		visit(t.Body)
	case *ast.SwitchStmt:
		visit(t.Discriminant)
		for _, c := range t.Cases {
			if c.Test != nil {
				visit(c.Test)
			}
			for _, s := range c.Body {
				visit(s)
			}
		}
	case *ast.ReturnStmt:
		if t.Value != nil {
			visit(t.Value)
		}
	case *ast.ThrowStmt:
		visit(t.Value)
	case *ast.TryStmt:
		visit(t.Try)
		if t.Catch != nil {
			visit(t.Catch)
		}
		if t.Finally != nil {
			visit(t.Finally)
		}
	case *ast.FuncDecl:
		if t.Body != nil {
			visit(t.Body)
		}

	case *ast.TemplateLiteral:
		for _, e := range t.Exprs {
			visit(e)
		}
	case *ast.ArrayLit:
		for _, e := range t.Elements {
			visit(e)
		}
	case *ast.ObjectLit:
		for _, p := range t.Props {
			visit(p.Value)
		}
	case *ast.BinaryOp:
		visit(t.Left)
		visit(t.Right)
	case *ast.LogicalOp:
		visit(t.Left)
		visit(t.Right)
	case *ast.UnaryOp:
		visit(t.Expr)
	case *ast.ConditionalExpr:
		visit(t.Cond)
		visit(t.Then)
		visit(t.Else)
	case *ast.AssignExpr:
		visit(t.Target)
		visit(t.Value)
	case *ast.CallExpr:
		visit(t.Callee)
		for _, a := range t.Args {
			visit(a)
		}
	case *ast.NewExpr:
		visit(t.Callee)
		for _, a := range t.Args {
			visit(a)
		}
	case *ast.MemberExpr:
		visit(t.Object)
	case *ast.IndexExpr:
		visit(t.Object)
		visit(t.Index)
	case *ast.SpreadExpr:
		visit(t.Value)
	case *ast.ArrowFunc:
		visit(t.Body)
	case *ast.FuncExpr:
		if t.Body != nil {
			visit(t.Body)
		}
	case *ast.YieldExpr:
		if t.Value != nil {
			visit(t.Value)
		}
	case *ast.AwaitExpr:
		visit(t.Value)
	}
}

// walkAll visits n and every descendant, depth-first.
func walkAll(n ast.Node, visit func(ast.Node)) {
	visit(n)
	walkChildren(n, func(c ast.Node) { walkAll(c, visit) })
}
