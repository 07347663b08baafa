package lower

import (
	"github.com/zacostudio/zacoc/internal/ast"
	"github.com/zacostudio/zacoc/internal/ir"
)

// lowerThrow lowers `throw value` to zaco_throw(value) (spec §4.2.3).
// zaco_throw itself never returns (it longjmps to the nearest
// zaco_try_push frame). The block's terminator is set to Unreachable,
// which FuncBuilder.HasTerminator does not count as a terminator, so
// statements after the throw and an enclosing construct's fallthrough
// jump are still appended to this same block, behind the call.
func (l *Lowerer) lowerThrow(fb *ir.FuncBuilder, n *ast.ThrowStmt) {
	v := l.lowerExpr(fb, n.Value)
	l.ensureExtern("zaco_throw")
	fb.Emit(ir.Call(nil, "zaco_throw", []ir.Value{v}))
	fb.SetTerminator(ir.Unreachable())
}

// lowerTry implements the setjmp-style try/catch/finally protocol
// (spec §4.2.3): zaco_try_push returns 0 on the initial call and 1
// when control resumes there via a longjmp from zaco_throw inside the
// try body. The catch block reads and clears the pending error via
// zaco_get_error/zaco_clear_error. A finally block, if present, runs
// on both the normal and caught paths before falling through.
func (l *Lowerer) lowerTry(fb *ir.FuncBuilder, n *ast.TryStmt) {
	l.ensureExtern("zaco_try_push")
	l.ensureExtern("zaco_try_pop")

	pushed := fb.AddTemp(ir.I64())
	fb.Emit(ir.Call(ptrTo(ir.PlaceOf(ir.ValTemp(pushed))), "zaco_try_push", nil))

	tookException := fb.AddTemp(ir.Bool())
	fb.Emit(ir.Assign(ir.PlaceOf(ir.ValTemp(tookException)),
		ir.RVBinOp(ir.OpEq, ir.ValTemp(pushed), ir.ValConst(ir.ConstI(1)))))

	tryBlock := fb.NewBlock()
	catchBlock := fb.NewBlock()

	var finallyBlock ir.BlockID
	hasFinally := n.Finally != nil
	if hasFinally {
		finallyBlock = fb.NewBlock()
	}
	afterBlock := fb.NewBlock()

	fb.SetTerminator(ir.Branch(ir.ValTemp(tookException), catchBlock, tryBlock))

	joinTarget := afterBlock
	if hasFinally {
		joinTarget = finallyBlock
	}

	fb.SwitchTo(tryBlock)
	l.pushScope()
	l.lowerStmtList(fb, n.Try.Stmts)
	l.popScope()
	if !fb.HasTerminator() {
		fb.Emit(ir.Call(nil, "zaco_try_pop", nil))
		fb.SetTerminator(ir.Jump(joinTarget))
	}

	fb.SwitchTo(catchBlock)
	fb.Emit(ir.Call(nil, "zaco_try_pop", nil))
	if n.Catch != nil {
		l.ensureExtern("zaco_get_error")
		l.ensureExtern("zaco_clear_error")
		l.pushScope()
		if n.CatchParam != "" {
			errVal := fb.AddTemp(ir.Ptr())
			fb.Emit(ir.Call(ptrTo(ir.PlaceOf(ir.ValTemp(errVal))), "zaco_get_error", nil))
			local := fb.AddLocal(ir.Ptr(), n.CatchParam)
			fb.Emit(ir.Assign(ir.PlaceOf(ir.ValLocal(local)), ir.RVUse(ir.ValTemp(errVal))))
			l.declareVar(n.CatchParam, &varInfo{local: local, ty: ir.Ptr()})
		}
		fb.Emit(ir.Call(nil, "zaco_clear_error", nil))
		l.lowerStmtList(fb, n.Catch.Stmts)
		l.popScope()
	} else {
		l.ensureExtern("zaco_clear_error")
		fb.Emit(ir.Call(nil, "zaco_clear_error", nil))
	}
	if !fb.HasTerminator() {
		fb.SetTerminator(ir.Jump(joinTarget))
	}

	if hasFinally {
		fb.SwitchTo(finallyBlock)
		l.pushScope()
		l.lowerStmtList(fb, n.Finally.Stmts)
		l.popScope()
		if !fb.HasTerminator() {
			fb.SetTerminator(ir.Jump(afterBlock))
		}
	}

	fb.SwitchTo(afterBlock)
}
