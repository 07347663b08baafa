package lower

import (
	"github.com/zacostudio/zacoc/internal/ast"
	"github.com/zacostudio/zacoc/internal/ir"
)

// inferType is best-effort forward inference sufficient to choose one
// IR type per local/temp (spec §4.2 "Type inference"). It is not a
// type checker: its only obligation is internal consistency, not
// soundness. The numeric type is always F64 (the source language has
// a single number type); known class names resolve to Struct(id);
// Promise<T> is recognized by call shape; anything else falls back to
// Ptr.
func (l *Lowerer) inferType(e ast.Expr) ir.Type {
	switch n := e.(type) {
	case *ast.Literal:
		switch n.Kind {
		case ast.IntLit, ast.FloatLit:
			return ir.F64()
		case ast.StringLit:
			return ir.Str()
		case ast.BoolLit:
			return ir.Bool()
		default:
			return ir.Ptr()
		}
	case *ast.TemplateLiteral:
		return ir.Str()
	case *ast.ArrayLit:
		return ir.Array(ir.F64())
	case *ast.ObjectLit:
		return ir.Ptr()
	case *ast.Identifier:
		if v, ok := l.resolve(n.Name); ok {
			return v.ty
		}
		return ir.Ptr()
	case *ast.BinaryOp:
		return l.inferBinaryType(n)
	case *ast.LogicalOp:
		// A short-circuit diamond's merge local takes the LHS type
		// when both branches agree, else falls back to Ptr.
		lt := l.inferType(n.Left)
		rt := l.inferType(n.Right)
		if lt.Equal(rt) {
			return lt
		}
		return ir.Ptr()
	case *ast.UnaryOp:
		if n.Op == "!" {
			return ir.Bool()
		}
		return ir.F64()
	case *ast.ConditionalExpr:
		tt := l.inferType(n.Then)
		et := l.inferType(n.Else)
		if tt.Equal(et) {
			return tt
		}
		return ir.Ptr()
	case *ast.NewExpr:
		if ident, ok := n.Callee.(*ast.Identifier); ok {
			if ci, ok := l.classes[ident.Name]; ok {
				return ir.Struct(ci.structID)
			}
		}
		return ir.Ptr()
	case *ast.AwaitExpr:
		return l.inferType(n.Value)
	case *ast.CallExpr:
		return l.inferCallType(n)
	case *ast.ArrowFunc, *ast.FuncExpr:
		return ir.Ptr() // closures are opaque function-value pointers
	default:
		return ir.Ptr()
	}
}

func (l *Lowerer) inferBinaryType(n *ast.BinaryOp) ir.Type {
	switch n.Op {
	case "+":
		lt, rt := l.inferType(n.Left), l.inferType(n.Right)
		if lt.Kind == ir.TStr || rt.Kind == ir.TStr {
			return ir.Str()
		}
		return ir.F64()
	case "-", "*", "/", "%":
		return ir.F64()
	case "==", "!=", "<", "<=", ">", ">=", "in", "instanceof":
		return ir.Bool()
	default:
		return ir.F64()
	}
}

func (l *Lowerer) inferCallType(n *ast.CallExpr) ir.Type {
	if member, ok := n.Callee.(*ast.MemberExpr); ok {
		switch member.Property {
		case "map", "filter", "slice", "concat", "reverse":
			return l.inferType(member.Object)
		case "length", "indexOf":
			return ir.F64()
		case "then", "catch", "finally":
			return ir.Promise(ir.Ptr())
		}
	}
	return ir.Ptr()
}

// isPromiseReturning reports whether e is an async function or arrow
// expression,
// used to recognize Promise<T> per spec §4.2 ("Promise<T> is
// recognised").
func isPromiseReturning(e ast.Expr) bool {
	switch n := e.(type) {
	case *ast.FuncExpr:
		return n.IsAsync
	case *ast.ArrowFunc:
		return n.IsAsync
	}
	return false
}
