package lower

import (
	"github.com/zacostudio/zacoc/internal/ast"
	"github.com/zacostudio/zacoc/internal/errcode"
	"github.com/zacostudio/zacoc/internal/ir"
)

// lowerArrayCallback lowers `array.map(cb)` / `.filter(cb)` /
// `.forEach(cb)` as an inline index loop rather than a runtime
// higher-order call, since the callee is a lowered IR function and not
// a runtime-visible value when it appears as a literal arrow function
// at the call site (spec §4.2.8). A callback that is not a literal
// closure at the call site is rejected: resolving an arbitrary closure
// value's arity for the inline loop isn't possible without a richer
// call convention.
func (l *Lowerer) lowerArrayCallback(fb *ir.FuncBuilder, m *ast.MemberExpr, argExprs []ast.Expr) ir.Value {
	if len(argExprs) != 1 {
		l.errorf(errcode.LOW001, m.Pos, "%s expects exactly one callback argument", m.Property)
		return ir.ValConst(ir.ConstNullVal())
	}
	params, body, ok := literalCallbackShape(argExprs[0])
	if !ok {
		l.errorf(errcode.LOW001, m.Pos, "%s requires a literal arrow/function callback", m.Property)
		return ir.ValConst(ir.ConstNullVal())
	}

	l.ensureExtern("zaco_array_len")
	l.ensureExtern("zaco_array_get")

	srcTy := l.inferType(m.Object)
	elemTy := ir.F64()
	if srcTy.Kind == ir.TArray && srcTy.Elem != nil {
		elemTy = *srcTy.Elem
	}

	src := l.lowerExpr(fb, m.Object)
	length := fb.AddTemp(ir.I64())
	fb.Emit(ir.Call(ptrTo(ir.PlaceOf(ir.ValTemp(length))), "zaco_array_len", []ir.Value{src}))

	var result ir.Value
	switch m.Property {
	case "map":
		l.ensureExtern("zaco_array_new")
		dest := fb.AddTemp(ir.Array(ir.F64()))
		fb.Emit(ir.Call(ptrTo(ir.PlaceOf(ir.ValTemp(dest))), "zaco_array_new", []ir.Value{ir.ValTemp(length)}))
		result = ir.ValTemp(dest)
	case "filter":
		l.ensureExtern("zaco_array_new")
		l.ensureExtern("zaco_array_push")
		dest := fb.AddTemp(ir.Array(ir.F64()))
		fb.Emit(ir.Call(ptrTo(ir.PlaceOf(ir.ValTemp(dest))), "zaco_array_new", []ir.Value{ir.ValConst(ir.ConstI(0))}))
		result = ir.ValTemp(dest)
	default: // forEach
		result = ir.ValConst(ir.ConstNullVal())
	}

	idxLocal := fb.AddLocal(ir.I64(), "")
	fb.Emit(ir.Assign(ir.PlaceOf(ir.ValLocal(idxLocal)), ir.RVUse(ir.ValConst(ir.ConstI(0)))))

	condBlock := fb.NewBlock()
	bodyBlock := fb.NewBlock()
	afterBlock := fb.NewBlock()
	fb.SetTerminator(ir.Jump(condBlock))

	fb.SwitchTo(condBlock)
	cmp := fb.AddTemp(ir.Bool())
	fb.Emit(ir.Assign(ir.PlaceOf(ir.ValTemp(cmp)), ir.RVBinOp(ir.OpLt, ir.ValLocal(idxLocal), ir.ValTemp(length))))
	fb.SetTerminator(ir.Branch(ir.ValTemp(cmp), bodyBlock, afterBlock))

	fb.SwitchTo(bodyBlock)
	elem := fb.AddTemp(elemTy)
	fb.Emit(ir.Call(ptrTo(ir.PlaceOf(ir.ValTemp(elem))), "zaco_array_get", []ir.Value{src, ir.ValLocal(idxLocal)}))

	l.pushScope()
	if len(params) > 0 {
		l.declareVar(params[0].Name, &varInfo{local: bindTempAsLocal(fb, elem, elemTy), ty: elemTy})
	}
	if len(params) > 1 {
		l.declareVar(params[1].Name, &varInfo{local: bindTempAsLocal(fb, ir.ValLocal(idxLocal), ir.I64()), ty: ir.I64()})
	}

	cbResult := l.lowerCallbackBody(fb, body)

	switch m.Property {
	case "map":
		l.ensureExtern("zaco_array_set")
		fb.Emit(ir.Call(nil, "zaco_array_set", []ir.Value{result, ir.ValLocal(idxLocal), cbResult}))
	case "filter":
		l.ensureExtern("zaco_array_push")
		keepBlock := fb.NewBlock()
		skipBlock := fb.NewBlock()
		fb.SetTerminator(ir.Branch(cbResult, keepBlock, skipBlock))

		fb.SwitchTo(keepBlock)
		fb.Emit(ir.Call(nil, "zaco_array_push", []ir.Value{result, ir.ValTemp(elem)}))
		incKeep := fb.AddTemp(ir.I64())
		fb.Emit(ir.Assign(ir.PlaceOf(ir.ValTemp(incKeep)), ir.RVBinOp(ir.OpAdd, ir.ValLocal(idxLocal), ir.ValConst(ir.ConstI(1)))))
		fb.Emit(ir.Assign(ir.PlaceOf(ir.ValLocal(idxLocal)), ir.RVUse(ir.ValTemp(incKeep))))
		fb.SetTerminator(ir.Jump(condBlock))

		fb.SwitchTo(skipBlock)
		incSkip := fb.AddTemp(ir.I64())
		fb.Emit(ir.Assign(ir.PlaceOf(ir.ValTemp(incSkip)), ir.RVBinOp(ir.OpAdd, ir.ValLocal(idxLocal), ir.ValConst(ir.ConstI(1)))))
		fb.Emit(ir.Assign(ir.PlaceOf(ir.ValLocal(idxLocal)), ir.RVUse(ir.ValTemp(incSkip))))
		fb.SetTerminator(ir.Jump(condBlock))

		l.popScope()
		fb.SwitchTo(afterBlock)
		return result
	}

	l.popScope()

	if !fb.HasTerminator() {
		inc := fb.AddTemp(ir.I64())
		fb.Emit(ir.Assign(ir.PlaceOf(ir.ValTemp(inc)), ir.RVBinOp(ir.OpAdd, ir.ValLocal(idxLocal), ir.ValConst(ir.ConstI(1)))))
		fb.Emit(ir.Assign(ir.PlaceOf(ir.ValLocal(idxLocal)), ir.RVUse(ir.ValTemp(inc))))
		fb.SetTerminator(ir.Jump(condBlock))
	}

	fb.SwitchTo(afterBlock)
	return result
}

// bindTempAsLocal copies a temp/value into a fresh local so the
// callback body can treat it as an ordinary assignable binding.
func bindTempAsLocal(fb *ir.FuncBuilder, v ir.Value, ty ir.Type) ir.LocalID {
	local := fb.AddLocal(ty, "")
	fb.Emit(ir.Assign(ir.PlaceOf(ir.ValLocal(local)), ir.RVUse(v)))
	return local
}

func literalCallbackShape(e ast.Expr) ([]ast.Param, ast.Node, bool) {
	switch n := e.(type) {
	case *ast.ArrowFunc:
		return n.Params, n.Body, true
	case *ast.FuncExpr:
		if n.Body == nil {
			return nil, nil, false
		}
		return n.Params, n.Body, true
	}
	return nil, nil, false
}

func (l *Lowerer) lowerCallbackBody(fb *ir.FuncBuilder, body ast.Node) ir.Value {
	switch b := body.(type) {
	case ast.Expr:
		return l.lowerExpr(fb, b)
	case *ast.Block:
		// A block-bodied callback's value is its last expression
		// statement; earlier statements run for side effects.
		var last ir.Value = ir.ValConst(ir.ConstNullVal())
		for i, s := range b.Stmts {
			if i == len(b.Stmts)-1 {
				if es, ok := s.(*ast.ExprStmt); ok {
					last = l.lowerExpr(fb, es.Expr)
					continue
				}
				if rs, ok := s.(*ast.ReturnStmt); ok && rs.Value != nil {
					last = l.lowerExpr(fb, rs.Value)
					continue
				}
			}
			l.lowerStmt(fb, s)
		}
		return last
	}
	return ir.ValConst(ir.ConstNullVal())
}
