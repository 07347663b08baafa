package lower

import (
	"github.com/zacostudio/zacoc/internal/ast"
	"github.com/zacostudio/zacoc/internal/ir"
)

// lowerClosureExpr lowers an arrow function or function expression to
// a synthesized top-level function plus, if it captures anything from
// an enclosing scope, an environment object holding those captures
// (spec §4.2.5). There is no separate runtime closure value pairing a
// function with its environment: the function's identity is tracked
// at lower time in the closureInfo this call records on
// l.lastClosureInfo, and the "value" of the expression is just the
// env pointer itself (or null when nothing is captured), since
// calling a closure prepends that same pointer as the call's first
// argument (spec §4.2.5 "the call site prepends the env pointer").
// The isAsync and isGenerator flags are not consulted: an async or
// generator function expression lowers as an ordinary closure.
func (l *Lowerer) lowerClosureExpr(fb *ir.FuncBuilder, params []ast.Param, body ast.Node, isAsync, isGenerator bool, pos ast.Pos) ir.Value {
	fnName := l.freshClosureName()
	captured := l.collectCaptures(params, body)

	l.lowerClosureFunction(fnName, params, body, captured)

	if len(captured) == 0 {
		l.lastClosureInfo = &closureInfo{funcName: fnName}
		return ir.ValConst(ir.ConstNullVal())
	}

	l.ensureExtern("zaco_object_new")
	env := fb.AddTemp(ir.Ptr())
	fb.Emit(ir.Call(ptrTo(ir.PlaceOf(ir.ValTemp(env))), "zaco_object_new", nil))
	for _, capName := range captured {
		v, _ := l.resolve(capName)
		key := l.internStr(capName)
		val := ir.ValLocal(v.local) // boxed captures carry the box pointer itself, sharing mutation
		setter := "zaco_object_set_ptr"
		if !v.isBoxed {
			setter = setterForType(v.ty)
		}
		l.ensureExtern(setter)
		fb.Emit(ir.Call(nil, setter, []ir.Value{ir.ValTemp(env), key, val}))
	}

	l.lastClosureInfo = &closureInfo{funcName: fnName, capturedVars: captured, hasEnv: true}
	return ir.ValTemp(env)
}

// closureValueInfo lowers e and, if e is statically known to produce a
// closure — either a literal arrow/function expression, or an
// identifier previously bound to one by lowerVarDecl/lowerAssignExpr —
// returns the closureInfo recording which synthesized function must be
// called, alongside the env-pointer value to prepend. A nil closureInfo
// means the target cannot be resolved at lower time, which this IR's
// Call{func: Const::Str(name)} contract (spec §4.3) cannot express as
// a call at all.
func (l *Lowerer) closureValueInfo(fb *ir.FuncBuilder, e ast.Expr) (ir.Value, *closureInfo) {
	val := l.lowerExpr(fb, e)
	switch e.(type) {
	case *ast.ArrowFunc, *ast.FuncExpr:
		return val, l.lastClosureInfo
	}
	if ident, ok := e.(*ast.Identifier); ok {
		if v, ok := l.resolve(ident.Name); ok {
			if ci, ok := l.closureLocals[v.local]; ok {
				return val, ci
			}
		}
	}
	return val, nil
}

// callClosure emits a direct call to ci's synthesized function,
// prepending envVal when the closure captured anything (spec §4.2.5).
func (l *Lowerer) callClosure(fb *ir.FuncBuilder, ci *closureInfo, envVal ir.Value, args []ir.Value) ir.Value {
	callArgs := args
	if ci.hasEnv {
		callArgs = append([]ir.Value{envVal}, args...)
	}
	dest := fb.AddTemp(ir.Ptr())
	fb.Emit(ir.Call(ptrTo(ir.PlaceOf(ir.ValTemp(dest))), ci.funcName, callArgs))
	return ir.ValTemp(dest)
}

// lowerClosureFunction builds the synthesized function itself. A
// captured variable is read back out of the env parameter at function
// entry, through the box protocol when boxed so later writes stay
// visible to the defining scope (spec §4.2.5 step 4).
func (l *Lowerer) lowerClosureFunction(fnName string, params []ast.Param, body ast.Node, captured []string) {
	fb := ir.NewFuncBuilder(l.module.AllocFuncID(), fnName, ir.Ptr(), false)
	entry := fb.NewBlock()
	fb.SwitchTo(entry)

	var envLocal ir.LocalID
	if len(captured) > 0 {
		envLocal = fb.AddParam(ir.Ptr(), "__env")
	}

	l.pushScope()
	for _, p := range params {
		paramLocal := fb.AddParam(ir.Ptr(), p.Name)
		boxed := closureCapturesMutation(p.Name, body)
		l.declareBoxedOrPlain(fb, p.Name, ir.Ptr(), ir.ValLocal(paramLocal), boxed)
	}

	if len(captured) > 0 {
		l.ensureExtern("zaco_object_get_ptr")
		for _, name := range captured {
			outer, _ := l.resolve(name)
			key := l.internStr(name)
			dest := fb.AddTemp(ir.Ptr())
			fb.Emit(ir.Call(ptrTo(ir.PlaceOf(ir.ValTemp(dest))), "zaco_object_get_ptr", []ir.Value{ir.ValLocal(envLocal), key}))
			local := fb.AddLocal(ir.Ptr(), name)
			fb.Emit(ir.Assign(ir.PlaceOf(ir.ValLocal(local)), ir.RVUse(ir.ValTemp(dest))))
			isBoxed := outer != nil && outer.isBoxed
			l.declareVar(name, &varInfo{local: local, ty: ir.Ptr(), isBoxed: isBoxed})
		}
	}

	switch b := body.(type) {
	case *ast.Block:
		l.lowerStmtList(fb, b.Stmts)
	case ast.Expr:
		v := l.lowerExpr(fb, b)
		fb.SetTerminator(ir.Return(v))
	}

	l.popScope()

	if !fb.HasTerminator() {
		fb.SetTerminator(ir.Return(ir.ValConst(ir.ConstNullVal())))
	}
	l.module.AddFunction(fb.Finish())
}

// closureCapturesMutation reports whether some nested arrow/function
// expression beneath n assigns directly to name, i.e. whether name
// needs box indirection before any closure below n can capture it by
// reference (spec §4.2.5 "syntactic mutation-based escape analysis").
// A nested closure that re-declares name as its own parameter shadows
// it and is not descended into for this check.
func closureCapturesMutation(name string, n ast.Node) bool {
	return scanMutation(name, n, false)
}

func scanMutation(name string, n ast.Node, insideClosure bool) bool {
	if a, ok := n.(*ast.AssignExpr); ok && insideClosure {
		if id, ok := a.Target.(*ast.Identifier); ok && id.Name == name {
			return true
		}
	}
	switch t := n.(type) {
	case *ast.ArrowFunc:
		if paramsShadow(t.Params, name) {
			return false
		}
		return scanMutation(name, t.Body, true)
	case *ast.FuncExpr:
		if paramsShadow(t.Params, name) || t.Body == nil {
			return false
		}
		return scanMutation(name, t.Body, true)
	}
	found := false
	walkChildren(n, func(c ast.Node) {
		if !found && scanMutation(name, c, insideClosure) {
			found = true
		}
	})
	return found
}

func paramsShadow(params []ast.Param, name string) bool {
	for _, p := range params {
		if p.Name == name {
			return true
		}
	}
	return false
}

// collectCaptures finds every free identifier in body that resolves
// in the Lowerer's current (enclosing) scope chain and is not shadowed
// by one of the closure's own parameters.
func (l *Lowerer) collectCaptures(params []ast.Param, body ast.Node) []string {
	bound := map[string]bool{}
	for _, p := range params {
		bound[p.Name] = true
	}
	seen := map[string]bool{}
	var order []string
	walkAll(body, func(n ast.Node) {
		id, ok := n.(*ast.Identifier)
		if !ok || bound[id.Name] || seen[id.Name] {
			return
		}
		if _, ok := l.resolve(id.Name); ok {
			seen[id.Name] = true
			order = append(order, id.Name)
		}
	})
	return order
}
