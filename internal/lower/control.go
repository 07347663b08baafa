package lower

import (
	"github.com/zacostudio/zacoc/internal/ast"
	"github.com/zacostudio/zacoc/internal/errcode"
	"github.com/zacostudio/zacoc/internal/ir"
)

// lowerStmt lowers one statement into fb's current block, advancing
// the emission cursor through whatever control-flow blocks the
// statement introduces (spec §4.2.2).
func (l *Lowerer) lowerStmt(fb *ir.FuncBuilder, s ast.Stmt) {
	switch n := s.(type) {
	case *ast.Block:
		l.pushScope()
		l.lowerStmtList(fb, n.Stmts)
		l.popScope()
	case *ast.ExprStmt:
		l.lowerExpr(fb, n.Expr)
	case *ast.VarDecl:
		l.lowerVarDecl(fb, n, false)
	case *ast.IfStmt:
		l.lowerIf(fb, n)
	case *ast.WhileStmt:
		l.lowerWhile(fb, n)
	case *ast.ForStmt:
		l.lowerFor(fb, n)
	case *ast.ForInStmt:
		l.lowerForIn(fb, n)
	case *ast.ForOfStmt:
		l.lowerForOf(fb, n)
	case *ast.SwitchStmt:
		l.lowerSwitch(fb, n)
	case *ast.BreakStmt:
		if len(l.breakStack) == 0 && len(l.loopStack) == 0 {
			l.errorf(errcode.LOW006, n.Pos, "break used outside any loop or switch")
			return
		}
		target := l.currentBreakTarget()
		fb.SetTerminator(ir.Jump(target))
	case *ast.ContinueStmt:
		if len(l.loopStack) == 0 {
			l.errorf(errcode.LOW006, n.Pos, "continue used outside any loop")
			return
		}
		fb.SetTerminator(ir.Jump(l.loopStack[len(l.loopStack)-1].continueTo))
	case *ast.ReturnStmt:
		if n.Value == nil {
			fb.SetTerminator(ir.ReturnVoid())
			return
		}
		v := l.lowerExpr(fb, n.Value)
		fb.SetTerminator(ir.Return(v))
	case *ast.ThrowStmt:
		l.lowerThrow(fb, n)
	case *ast.TryStmt:
		l.lowerTry(fb, n)
	case *ast.FuncDecl:
		// Nested function declarations are treated as closures bound to
		// their name in the enclosing scope.
		fn := l.lowerClosureExpr(fb, n.Params, n.Body, n.IsAsync, n.IsGenerator, n.Pos)
		local := fb.AddLocal(ir.Ptr(), n.Name)
		fb.Emit(ir.Assign(ir.PlaceOf(ir.ValLocal(local)), ir.RVUse(fn)))
		l.declareVar(n.Name, &varInfo{local: local, ty: ir.Ptr()})
		if l.lastClosureInfo != nil {
			l.closureLocals[local] = l.lastClosureInfo
		}
	case *ast.ClassDecl:
		// Local class declarations are rejected; classes are hoisted
		// top-level by Lower.
		l.errorf(errcode.LOW001, n.Pos, "class declarations are only supported at module top level")
	default:
		l.errorf(errcode.LOW001, s.Position(), "unsupported statement form %T", s)
	}
}

func (l *Lowerer) lowerStmtList(fb *ir.FuncBuilder, stmts []ast.Stmt) {
	for i, s := range stmts {
		if fb.HasTerminator() {
			// Dead code after a terminator is skipped: it is neither
			// lowered nor checked for errors.
			continue
		}
		if vd, ok := s.(*ast.VarDecl); ok {
			boxed := false
			for _, later := range stmts[i+1:] {
				if closureCapturesMutation(vd.Name, later) {
					boxed = true
					break
				}
			}
			l.lowerVarDecl(fb, vd, boxed)
			continue
		}
		l.lowerStmt(fb, s)
	}
}

func (l *Lowerer) currentBreakTarget() ir.BlockID {
	if len(l.breakStack) > 0 {
		return l.breakStack[len(l.breakStack)-1]
	}
	return l.loopStack[len(l.loopStack)-1].breakTo
}

func (l *Lowerer) lowerVarDecl(fb *ir.FuncBuilder, n *ast.VarDecl, boxed bool) {
	var ty ir.Type
	var val ir.Value
	var ci *closureInfo
	if n.Init != nil {
		ty = l.inferType(n.Init)
		val = l.lowerExpr(fb, n.Init)
		switch n.Init.(type) {
		case *ast.ArrowFunc, *ast.FuncExpr:
			ci = l.lastClosureInfo
		}
	} else {
		ty = ir.Ptr()
		val = ir.ValConst(ir.ConstNullVal())
	}
	vi := l.declareBoxedOrPlain(fb, n.Name, ty, val, boxed)
	if ci != nil {
		l.closureLocals[vi.local] = ci
	}
}

// lowerIf builds the then/else/merge diamond (spec §4.2.2). A missing
// else branch jumps straight from cond's false edge to merge.
func (l *Lowerer) lowerIf(fb *ir.FuncBuilder, n *ast.IfStmt) {
	cond := l.lowerExpr(fb, n.Cond)
	thenBlock := fb.NewBlock()
	mergeBlock := fb.NewBlock()
	elseBlock := mergeBlock
	if n.Else != nil {
		elseBlock = fb.NewBlock()
	}
	fb.SetTerminator(ir.Branch(cond, thenBlock, elseBlock))

	fb.SwitchTo(thenBlock)
	l.lowerStmt(fb, n.Then)
	if !fb.HasTerminator() {
		fb.SetTerminator(ir.Jump(mergeBlock))
	}

	if n.Else != nil {
		fb.SwitchTo(elseBlock)
		l.lowerStmt(fb, n.Else)
		if !fb.HasTerminator() {
			fb.SetTerminator(ir.Jump(mergeBlock))
		}
	}

	fb.SwitchTo(mergeBlock)
}

// lowerWhile builds cond/body/after blocks, registering (cond, after)
// as the loop's (continue, break) targets (spec §4.2.2).
func (l *Lowerer) lowerWhile(fb *ir.FuncBuilder, n *ast.WhileStmt) {
	condBlock := fb.NewBlock()
	bodyBlock := fb.NewBlock()
	afterBlock := fb.NewBlock()
	fb.SetTerminator(ir.Jump(condBlock))

	fb.SwitchTo(condBlock)
	cond := l.lowerExpr(fb, n.Cond)
	fb.SetTerminator(ir.Branch(cond, bodyBlock, afterBlock))

	l.loopStack = append(l.loopStack, loopTarget{continueTo: condBlock, breakTo: afterBlock})
	fb.SwitchTo(bodyBlock)
	l.lowerStmt(fb, n.Body)
	if !fb.HasTerminator() {
		fb.SetTerminator(ir.Jump(condBlock))
	}
	l.loopStack = l.loopStack[:len(l.loopStack)-1]

	fb.SwitchTo(afterBlock)
}

// lowerFor desugars the classic for-loop into init; while(cond) {
// body; update }, matching the original lowerer's treatment of
// C-style for loops as syntactic sugar over while.
func (l *Lowerer) lowerFor(fb *ir.FuncBuilder, n *ast.ForStmt) {
	l.pushScope()
	defer l.popScope()

	if n.Init != nil {
		l.lowerStmt(fb, n.Init)
	}

	condBlock := fb.NewBlock()
	bodyBlock := fb.NewBlock()
	updateBlock := fb.NewBlock()
	afterBlock := fb.NewBlock()
	fb.SetTerminator(ir.Jump(condBlock))

	fb.SwitchTo(condBlock)
	if n.Cond != nil {
		cond := l.lowerExpr(fb, n.Cond)
		fb.SetTerminator(ir.Branch(cond, bodyBlock, afterBlock))
	} else {
		fb.SetTerminator(ir.Jump(bodyBlock))
	}

	l.loopStack = append(l.loopStack, loopTarget{continueTo: updateBlock, breakTo: afterBlock})
	fb.SwitchTo(bodyBlock)
	l.lowerStmt(fb, n.Body)
	if !fb.HasTerminator() {
		fb.SetTerminator(ir.Jump(updateBlock))
	}
	l.loopStack = l.loopStack[:len(l.loopStack)-1]

	fb.SwitchTo(updateBlock)
	if n.Update != nil {
		l.lowerStmt(fb, n.Update)
	}
	if !fb.HasTerminator() {
		fb.SetTerminator(ir.Jump(condBlock))
	}

	fb.SwitchTo(afterBlock)
}

// lowerForIn desugars `for (k in obj) body` to an index walk over
// zaco_obj_keys (spec §4.2.2, §4.1 object enumeration helpers).
func (l *Lowerer) lowerForIn(fb *ir.FuncBuilder, n *ast.ForInStmt) {
	l.ensureExtern("zaco_obj_keys")
	l.ensureExtern("zaco_array_len")
	l.ensureExtern("zaco_array_get")

	obj := l.lowerExpr(fb, n.Object)
	keys := fb.AddTemp(ir.Array(ir.Str()))
	fb.Emit(ir.Call(ptrTo(ir.PlaceOf(ir.ValTemp(keys))), "zaco_obj_keys", []ir.Value{obj}))
	l.lowerIndexedIteration(fb, ir.ValTemp(keys), ir.Str(), n.VarName, n.Body)
}

// lowerForOf desugars `for (x of iterable) body` to an index walk
// over the array using zaco_array_len/zaco_array_get (spec §4.2.2).
// Non-array iterables are out of scope.
func (l *Lowerer) lowerForOf(fb *ir.FuncBuilder, n *ast.ForOfStmt) {
	l.ensureExtern("zaco_array_len")
	l.ensureExtern("zaco_array_get")
	iterable := l.lowerExpr(fb, n.Iterable)
	elemTy := ir.F64()
	if ty := l.inferType(n.Iterable); ty.Kind == ir.TArray && ty.Elem != nil {
		elemTy = *ty.Elem
	}
	l.lowerIndexedIteration(fb, iterable, elemTy, n.VarName, n.Body)
}

func (l *Lowerer) lowerIndexedIteration(fb *ir.FuncBuilder, seq ir.Value, elemTy ir.Type, varName string, body ast.Stmt) {
	lenT := fb.AddTemp(ir.I64())
	fb.Emit(ir.Call(ptrTo(ir.PlaceOf(ir.ValTemp(lenT))), "zaco_array_len", []ir.Value{seq}))

	idx := fb.AddLocal(ir.I64(), "")
	fb.Emit(ir.Assign(ir.PlaceOf(ir.ValLocal(idx)), ir.RVUse(ir.ValConst(ir.ConstI(0)))))

	condBlock := fb.NewBlock()
	bodyBlock := fb.NewBlock()
	updateBlock := fb.NewBlock()
	afterBlock := fb.NewBlock()
	fb.SetTerminator(ir.Jump(condBlock))

	fb.SwitchTo(condBlock)
	cond := fb.AddTemp(ir.Bool())
	fb.Emit(ir.Assign(ir.PlaceOf(ir.ValTemp(cond)), ir.RVBinOp(ir.OpLt, ir.ValLocal(idx), ir.ValTemp(lenT))))
	fb.SetTerminator(ir.Branch(ir.ValTemp(cond), bodyBlock, afterBlock))

	l.pushScope()
	elemLocal := fb.AddLocal(elemTy, varName)
	l.declareVar(varName, &varInfo{local: elemLocal, ty: elemTy})

	l.loopStack = append(l.loopStack, loopTarget{continueTo: updateBlock, breakTo: afterBlock})
	fb.SwitchTo(bodyBlock)
	elem := fb.AddTemp(elemTy)
	fb.Emit(ir.Call(ptrTo(ir.PlaceOf(ir.ValTemp(elem))), "zaco_array_get", []ir.Value{seq, ir.ValLocal(idx)}))
	fb.Emit(ir.Assign(ir.PlaceOf(ir.ValLocal(elemLocal)), ir.RVUse(ir.ValTemp(elem))))
	l.lowerStmt(fb, body)
	if !fb.HasTerminator() {
		fb.SetTerminator(ir.Jump(updateBlock))
	}
	l.loopStack = l.loopStack[:len(l.loopStack)-1]
	l.popScope()

	fb.SwitchTo(updateBlock)
	next := fb.AddTemp(ir.I64())
	fb.Emit(ir.Assign(ir.PlaceOf(ir.ValTemp(next)), ir.RVBinOp(ir.OpAdd, ir.ValLocal(idx), ir.ValConst(ir.ConstI(1)))))
	fb.Emit(ir.Assign(ir.PlaceOf(ir.ValLocal(idx)), ir.RVUse(ir.ValTemp(next))))
	fb.SetTerminator(ir.Jump(condBlock))

	fb.SwitchTo(afterBlock)
}

// lowerSwitch lowers to a cascade of equality branches with C-style
// fallthrough: each case body, if it doesn't terminate itself, falls
// into the next case's block rather than to the merge block (spec
// §4.2.2 "Switch has fallthrough semantics").
func (l *Lowerer) lowerSwitch(fb *ir.FuncBuilder, n *ast.SwitchStmt) {
	disc := l.lowerExpr(fb, n.Discriminant)
	afterBlock := fb.NewBlock()

	caseBlocks := make([]ir.BlockID, len(n.Cases))
	for i := range n.Cases {
		caseBlocks[i] = fb.NewBlock()
	}

	defaultIdx := -1
	for i, c := range n.Cases {
		if c.Test == nil {
			defaultIdx = i
			continue
		}
		testVal := l.lowerExpr(fb, c.Test)
		eq := fb.AddTemp(ir.Bool())
		fb.Emit(ir.Assign(ir.PlaceOf(ir.ValTemp(eq)), ir.RVBinOp(ir.OpEq, disc, testVal)))
		nextCheck := fb.NewBlock()
		fb.SetTerminator(ir.Branch(ir.ValTemp(eq), caseBlocks[i], nextCheck))
		fb.SwitchTo(nextCheck)
	}
	if defaultIdx >= 0 {
		fb.SetTerminator(ir.Jump(caseBlocks[defaultIdx]))
	} else {
		fb.SetTerminator(ir.Jump(afterBlock))
	}

	l.breakStack = append(l.breakStack, afterBlock)
	for i, c := range n.Cases {
		fb.SwitchTo(caseBlocks[i])
		l.lowerStmtList(fb, c.Body)
		if !fb.HasTerminator() {
			fallTo := afterBlock
			if i+1 < len(caseBlocks) {
				fallTo = caseBlocks[i+1]
			}
			fb.SetTerminator(ir.Jump(fallTo))
		}
	}
	l.breakStack = l.breakStack[:len(l.breakStack)-1]

	fb.SwitchTo(afterBlock)
}
