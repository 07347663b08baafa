package lower

import (
	"github.com/zacostudio/zacoc/internal/ast"
	"github.com/zacostudio/zacoc/internal/errcode"
	"github.com/zacostudio/zacoc/internal/ir"
)

// yieldSegment is one state of a generator's state machine: pre runs
// before computing value (nil pre allowed), and value is the yield
// expression that ends the segment. The final segment's value is nil —
// its pre is whatever trails the last yield, run on resumption before
// falling into the done state (spec §4.2.6 step 1's "source order"
// scan).
type yieldSegment struct {
	pre   []ast.Stmt
	value *ast.YieldExpr
}

// lowerGeneratorFunc lowers a `function*` declaration into a state
// struct, a `<name>__next(state) -> Ptr` dispatcher, and a user-facing
// `<name>` wrapper (spec §4.2.6). The flat scan only supports yield
// expressions that are not nested inside a loop, conditional, switch
// or try (spec §9 open question 1); nested shapes are rejected with
// LOW007 rather than silently mis-lowered.
func (l *Lowerer) lowerGeneratorFunc(n *ast.FuncDecl) {
	var stmts []ast.Stmt
	if n.Body != nil {
		stmts = n.Body.Stmts
	}
	checkFlatYieldShape(l, stmts, false)
	segments := splitYieldSegments(stmts)

	ctorName := l.topFuncs[n.Name]
	nextName := ctorName + "__next"

	fields := []ir.StructField{{Name: "state_index", Type: ir.I64()}}
	for _, p := range n.Params {
		fields = append(fields, ir.StructField{Name: p.Name, Type: ir.Ptr()})
	}
	structID := l.module.AllocStructID()
	l.module.AddStruct(&ir.IrStruct{ID: structID, Name: ctorName + "__state", Fields: fields})

	l.lowerGeneratorWrapper(ctorName, nextName, structID, n.Params)
	l.lowerGeneratorNext(nextName, structID, n.Params, segments)
}

// splitYieldSegments partitions a flat statement list at each bare
// `yield value;` expression statement (spec §4.2.6 step 1). A trailing
// segment with a nil value always closes the list, holding whatever
// statements follow the last yield.
func splitYieldSegments(stmts []ast.Stmt) []yieldSegment {
	var segments []yieldSegment
	var pending []ast.Stmt
	for _, s := range stmts {
		if es, ok := s.(*ast.ExprStmt); ok {
			if y, ok := es.Expr.(*ast.YieldExpr); ok {
				segments = append(segments, yieldSegment{pre: pending, value: y})
				pending = nil
				continue
			}
		}
		pending = append(pending, s)
	}
	segments = append(segments, yieldSegment{pre: pending})
	return segments
}

// checkFlatYieldShape walks a statement list and flags any yield that
// appears underneath a nested control-flow construct.
func checkFlatYieldShape(l *Lowerer, stmts []ast.Stmt, nested bool) {
	for _, s := range stmts {
		switch n := s.(type) {
		case *ast.ExprStmt:
			checkYieldExpr(l, n.Expr, nested)
		case *ast.VarDecl:
			if n.Init != nil {
				checkYieldExpr(l, n.Init, nested)
			}
		case *ast.ReturnStmt:
			if n.Value != nil {
				checkYieldExpr(l, n.Value, nested)
			}
		case *ast.IfStmt:
			checkYieldExpr(l, n.Cond, nested)
			checkFlatYieldShape(l, blockStmts(n.Then), true)
			if n.Else != nil {
				checkFlatYieldShape(l, blockStmts(n.Else), true)
			}
		case *ast.WhileStmt:
			checkFlatYieldShape(l, blockStmts(n.Body), true)
		case *ast.ForStmt:
			checkFlatYieldShape(l, blockStmts(n.Body), true)
		case *ast.ForInStmt:
			checkFlatYieldShape(l, blockStmts(n.Body), true)
		case *ast.ForOfStmt:
			checkFlatYieldShape(l, blockStmts(n.Body), true)
		case *ast.SwitchStmt:
			for _, c := range n.Cases {
				checkFlatYieldShape(l, c.Body, true)
			}
		case *ast.TryStmt:
			checkFlatYieldShape(l, n.Try.Stmts, true)
			if n.Catch != nil {
				checkFlatYieldShape(l, n.Catch.Stmts, true)
			}
			if n.Finally != nil {
				checkFlatYieldShape(l, n.Finally.Stmts, true)
			}
		case *ast.Block:
			checkFlatYieldShape(l, n.Stmts, nested)
		}
	}
}

func blockStmts(s ast.Stmt) []ast.Stmt {
	if b, ok := s.(*ast.Block); ok {
		return b.Stmts
	}
	return []ast.Stmt{s}
}

func checkYieldExpr(l *Lowerer, e ast.Expr, nested bool) {
	if y, ok := e.(*ast.YieldExpr); ok {
		if nested {
			l.errorf(errcode.LOW007, y.Pos, "yield nested inside control flow is not supported by the flat generator scan")
		}
		if y.Delegate {
			l.errorf(errcode.LOW004, y.Pos, "yield* delegation is not supported")
		}
	}
}

// lowerGeneratorWrapper synthesizes the user-facing `<name>` function:
// allocate the state struct, zero state_index, copy the call arguments
// into their state-struct fields, and return
// zaco_generator_new(next_func_name, state) (spec §4.2.6 step 4).
func (l *Lowerer) lowerGeneratorWrapper(ctorName, nextName string, structID ir.StructID, params []ast.Param) {
	l.ensureExtern("zaco_generator_new")

	fb := ir.NewFuncBuilder(l.module.AllocFuncID(), ctorName, ir.Ptr(), true)
	entry := fb.NewBlock()
	fb.SwitchTo(entry)

	argLocals := make([]ir.LocalID, len(params))
	for i, p := range params {
		argLocals[i] = fb.AddParam(ir.Ptr(), p.Name)
	}

	state := fb.AddLocal(ir.Struct(structID), "__state")
	fb.Emit(ir.Alloc(ir.PlaceOf(ir.ValLocal(state)), ir.Struct(structID)))
	fb.Emit(ir.Assign(ir.PlaceOf(ir.ValLocal(state), ir.Field(0)), ir.RVUse(ir.ValConst(ir.ConstI(0)))))
	for i, argLocal := range argLocals {
		fb.Emit(ir.Assign(ir.PlaceOf(ir.ValLocal(state), ir.Field(i+1)), ir.RVUse(ir.ValLocal(argLocal))))
	}

	nextRef := l.internStr(nextName)
	gen := fb.AddTemp(ir.Ptr())
	fb.Emit(ir.Call(ptrTo(ir.PlaceOf(ir.ValTemp(gen))), "zaco_generator_new", []ir.Value{nextRef, ir.ValLocal(state)}))
	fb.SetTerminator(ir.Return(ir.ValTemp(gen)))
	l.module.AddFunction(fb.Finish())
}

// lowerGeneratorNext synthesizes `<name>__next(state) -> Ptr`: load
// state_index, dispatch via a linear icmp-eq-branch chain to one state
// block per segment plus a trailing done block, and run each segment's
// pre-yield statements before computing and storing its yield value
// (spec §4.2.6 step 3).
func (l *Lowerer) lowerGeneratorNext(nextName string, structID ir.StructID, params []ast.Param, segments []yieldSegment) {
	l.ensureExtern("zaco_generator_set_value")
	l.ensureExtern("zaco_generator_set_done")

	fb := ir.NewFuncBuilder(l.module.AllocFuncID(), nextName, ir.Ptr(), true)
	entry := fb.NewBlock()
	fb.SwitchTo(entry)

	stateLocal := fb.AddParam(ir.Struct(structID), "state")

	l.pushScope()
	for i, p := range params {
		field := fb.AddTemp(ir.Ptr())
		fb.Emit(ir.Assign(ir.PlaceOf(ir.ValTemp(field)), ir.RVRead(ir.PlaceOf(ir.ValLocal(stateLocal), ir.Field(i+1)))))
		local := fb.AddLocal(ir.Ptr(), p.Name)
		fb.Emit(ir.Assign(ir.PlaceOf(ir.ValLocal(local)), ir.RVUse(ir.ValTemp(field))))
		l.declareVar(p.Name, &varInfo{local: local, ty: ir.Ptr()})
	}

	idx := fb.AddTemp(ir.I64())
	fb.Emit(ir.Assign(ir.PlaceOf(ir.ValTemp(idx)), ir.RVRead(ir.PlaceOf(ir.ValLocal(stateLocal), ir.Field(0)))))

	stateBlocks := make([]ir.BlockID, len(segments))
	for i := range segments {
		stateBlocks[i] = fb.NewBlock()
	}
	doneBlock := fb.NewBlock()

	for i := range segments {
		eq := fb.AddTemp(ir.Bool())
		fb.Emit(ir.Assign(ir.PlaceOf(ir.ValTemp(eq)), ir.RVBinOp(ir.OpEq, ir.ValTemp(idx), ir.ValConst(ir.ConstI(int64(i))))))
		nextCheck := fb.NewBlock()
		fb.SetTerminator(ir.Branch(ir.ValTemp(eq), stateBlocks[i], nextCheck))
		fb.SwitchTo(nextCheck)
	}
	fb.SetTerminator(ir.Jump(doneBlock))

	for i, seg := range segments {
		fb.SwitchTo(stateBlocks[i])
		l.lowerStmtList(fb, seg.pre)
		if fb.HasTerminator() {
			continue
		}
		if seg.value == nil {
			fb.SetTerminator(ir.Jump(doneBlock))
			continue
		}
		var val ir.Value
		if seg.value.Value != nil {
			val = l.lowerExpr(fb, seg.value.Value)
		} else {
			val = ir.ValConst(ir.ConstNullVal())
		}
		fb.Emit(ir.Call(nil, "zaco_generator_set_value", []ir.Value{ir.ValLocal(stateLocal), val}))
		next := fb.AddTemp(ir.I64())
		fb.Emit(ir.Assign(ir.PlaceOf(ir.ValTemp(next)), ir.RVBinOp(ir.OpAdd, ir.ValTemp(idx), ir.ValConst(ir.ConstI(1)))))
		fb.Emit(ir.Assign(ir.PlaceOf(ir.ValLocal(stateLocal), ir.Field(0)), ir.RVUse(ir.ValTemp(next))))
		fb.SetTerminator(ir.Return(ir.ValLocal(stateLocal)))
	}

	fb.SwitchTo(doneBlock)
	fb.Emit(ir.Call(nil, "zaco_generator_set_done", []ir.Value{ir.ValLocal(stateLocal)}))
	fb.SetTerminator(ir.Return(ir.ValLocal(stateLocal)))

	l.popScope()
	l.module.AddFunction(fb.Finish())
}

// lowerYield handles a `yield` reached through ordinary expression
// lowering, i.e. one outside the statement positions the flat
// generator scan collects: it reports LOW007 and evaluates to null.
func (l *Lowerer) lowerYield(fb *ir.FuncBuilder, n *ast.YieldExpr) ir.Value {
	l.errorf(errcode.LOW007, n.Pos, "yield used outside a statement position is not supported by the flat generator scan")
	return ir.ValConst(ir.ConstNullVal())
}
