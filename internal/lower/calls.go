package lower

import (
	"github.com/zacostudio/zacoc/internal/ast"
	"github.com/zacostudio/zacoc/internal/errcode"
	"github.com/zacostudio/zacoc/internal/ir"
)

// builtinMethod names one zero-object-allocation runtime method: the
// receiver becomes the first argument, call arguments follow in
// order.
type builtinMethod struct {
	symbol string
	ret    ir.Type
}

// stringMethods/arrayMethods map a source-level method name to its
// runtime ABI symbol, grounded in the table's string/array sections
// (spec §4.1, §4.2.1 "built-in method calls").
var stringMethods = map[string]builtinMethod{
	"toUpperCase": {"zaco_str_to_upper", ir.Str()},
	"toLowerCase": {"zaco_str_to_lower", ir.Str()},
	"trim":        {"zaco_str_trim", ir.Str()},
	"indexOf":     {"zaco_str_index_of", ir.F64()},
	"includes":    {"zaco_str_includes", ir.Bool()},
	"split":       {"zaco_str_split", ir.Array(ir.Str())},
	"startsWith":  {"zaco_str_starts_with", ir.Bool()},
	"endsWith":    {"zaco_str_ends_with", ir.Bool()},
	"charAt":      {"zaco_str_char_at", ir.Str()},
	"repeat":      {"zaco_str_repeat", ir.Str()},
	"padStart":    {"zaco_str_pad_start", ir.Str()},
	"padEnd":      {"zaco_str_pad_end", ir.Str()},
	"replace":     {"zaco_str_replace", ir.Str()},
}

// consoleMethods maps `console.<name>(arg)` to the runtime symbol that
// prints a string, grounded in the table's "Console" section. The
// source language's single console call form (one argument) is
// coerced to a string before the call.
var consoleMethods = map[string]string{
	"log":   "zaco_println_str",
	"error": "zaco_console_error_str",
	"warn":  "zaco_console_warn_str",
	"debug": "zaco_console_debug_str",
}

var arrayMethods = map[string]builtinMethod{
	"push":    {"zaco_array_push", ir.Void()},
	"pop":     {"zaco_array_pop", ir.Ptr()},
	"slice":   {"zaco_array_slice", ir.Array(ir.F64())},
	"concat":  {"zaco_array_concat", ir.Array(ir.F64())},
	"indexOf": {"zaco_array_index_of", ir.F64()},
	"join":    {"zaco_array_join", ir.Str()},
	"reverse": {"zaco_array_reverse", ir.Array(ir.F64())},
}

// lowerCallExpr dispatches a call by callee shape (spec §4.2.1): a
// plain identifier naming a hoisted top-level function calls directly;
// a member expression routes to a class method, a built-in
// string/array method, an array-callback method, or a promise-chain
// method; anything else must resolve at lower time to a closure
// (spec §4.2.5), since this IR's Call instruction always names its
// target as a constant function name, never a computed value (spec
// §4.3 "the func must be a Const::Str(name)").
func (l *Lowerer) lowerCallExpr(fb *ir.FuncBuilder, n *ast.CallExpr) ir.Value {
	switch callee := n.Callee.(type) {
	case *ast.SuperExpr:
		l.errorf(errcode.LOW003, n.Pos, "super() used outside a constructor body")
		return ir.ValConst(ir.ConstNullVal())

	case *ast.Identifier:
		if fnName, ok := l.topFuncs[callee.Name]; ok {
			args := l.lowerArgs(fb, n.Args)
			dest := fb.AddTemp(ir.Ptr())
			fb.Emit(ir.Call(ptrTo(ir.PlaceOf(ir.ValTemp(dest))), fnName, args))
			return ir.ValTemp(dest)
		}
		v, ok := l.resolve(callee.Name)
		if !ok {
			l.errorf(errcode.LOW002, callee.Pos, "call to unresolved identifier %q", callee.Name)
			return ir.ValConst(ir.ConstNullVal())
		}
		ci, ok := l.closureLocals[v.local]
		if !ok {
			l.errorf(errcode.LOW001, callee.Pos, "call target %q is not a statically known closure", callee.Name)
			return ir.ValConst(ir.ConstNullVal())
		}
		envVal := ir.ValLocal(v.local)
		if v.isBoxed {
			envVal = l.lowerIdentifier(fb, callee)
		}
		args := l.lowerArgs(fb, n.Args)
		return l.callClosure(fb, ci, envVal, args)

	case *ast.MemberExpr:
		return l.lowerMethodCall(fb, callee, n.Args)

	default:
		envVal, ci := l.closureValueInfo(fb, n.Callee)
		if ci == nil {
			l.errorf(errcode.LOW001, n.Pos, "call target is not a statically known closure")
			return ir.ValConst(ir.ConstNullVal())
		}
		args := l.lowerArgs(fb, n.Args)
		return l.callClosure(fb, ci, envVal, args)
	}
}

func (l *Lowerer) lowerArgs(fb *ir.FuncBuilder, exprs []ast.Expr) []ir.Value {
	args := make([]ir.Value, 0, len(exprs))
	for _, a := range exprs {
		if sp, ok := a.(*ast.SpreadExpr); ok {
			l.errorf(errcode.LOW001, sp.Pos, "call-argument spread is not supported")
			continue
		}
		args = append(args, l.lowerExpr(fb, a))
	}
	return args
}

// lowerMethodCall resolves `object.property(args)` to a class method,
// a built-in string/array method, an array-callback method, or a
// promise-chain method (spec §4.2.1, §4.2.4, §4.2.8, §4.2.7). A
// dynamic property that isn't one of these is a call target this IR
// cannot express, since Call always names a constant function (spec
// §4.3).
func (l *Lowerer) lowerMethodCall(fb *ir.FuncBuilder, m *ast.MemberExpr, argExprs []ast.Expr) ir.Value {
	if _, ok := m.Object.(*ast.SuperExpr); ok {
		return l.lowerSuperMethodCall(fb, m, argExprs)
	}

	if obj, ok := m.Object.(*ast.Identifier); ok && obj.Name == "console" {
		if symbol, ok := consoleMethods[m.Property]; ok {
			return l.lowerConsoleCall(fb, symbol, argExprs)
		}
	}

	switch m.Property {
	case "map", "filter", "forEach":
		return l.lowerArrayCallback(fb, m, argExprs)
	case "then", "catch", "finally":
		return l.lowerPromiseChain(fb, m, argExprs)
	}

	objTy := l.inferType(m.Object)

	if objTy.Kind == ir.TStruct {
		if ci := l.classInfoByStructID(objTy.StructID); ci != nil && containsStr(ci.methods, m.Property) {
			obj := l.lowerExpr(fb, m.Object)
			args := l.lowerArgs(fb, argExprs)
			dest := fb.AddTemp(ir.Ptr())
			fb.Emit(ir.Call(ptrTo(ir.PlaceOf(ir.ValTemp(dest))), mangleMethod(ci, m.Property), append([]ir.Value{obj}, args...)))
			return ir.ValTemp(dest)
		}
	}

	if objTy.Kind == ir.TStr {
		if bm, ok := stringMethods[m.Property]; ok {
			return l.lowerBuiltinMethod(fb, bm, m.Object, argExprs)
		}
	}
	if objTy.Kind == ir.TArray {
		if bm, ok := arrayMethods[m.Property]; ok {
			return l.lowerBuiltinMethod(fb, bm, m.Object, argExprs)
		}
	}

	l.errorf(errcode.LOW001, m.Pos, "call to dynamic property %q is not a statically known closure", m.Property)
	return ir.ValConst(ir.ConstNullVal())
}

func (l *Lowerer) lowerConsoleCall(fb *ir.FuncBuilder, symbol string, argExprs []ast.Expr) ir.Value {
	l.ensureExtern(symbol)
	if len(argExprs) == 0 {
		fb.Emit(ir.Call(nil, symbol, []ir.Value{l.internStr("")}))
		return ir.ValConst(ir.ConstNullVal())
	}
	arg := argExprs[0]
	v := l.coerceToStr(fb, l.lowerExpr(fb, arg), l.inferType(arg))
	fb.Emit(ir.Call(nil, symbol, []ir.Value{v}))
	return ir.ValConst(ir.ConstNullVal())
}

func (l *Lowerer) lowerBuiltinMethod(fb *ir.FuncBuilder, bm builtinMethod, objExpr ast.Expr, argExprs []ast.Expr) ir.Value {
	l.ensureExtern(bm.symbol)
	obj := l.lowerExpr(fb, objExpr)
	args := append([]ir.Value{obj}, l.lowerArgs(fb, argExprs)...)
	if bm.ret.Kind == ir.TVoid {
		fb.Emit(ir.Call(nil, bm.symbol, args))
		return ir.ValConst(ir.ConstNullVal())
	}
	dest := fb.AddTemp(bm.ret)
	fb.Emit(ir.Call(ptrTo(ir.PlaceOf(ir.ValTemp(dest))), bm.symbol, args))
	return ir.ValTemp(dest)
}

// lowerSuperMethodCall forwards `super.method(args)` to the parent
// class's mangled method, passing the current `this` (spec §4.2.4).
func (l *Lowerer) lowerSuperMethodCall(fb *ir.FuncBuilder, m *ast.MemberExpr, argExprs []ast.Expr) ir.Value {
	if l.currentThis == nil || l.currentClassParent == "" {
		l.errorf(errcode.LOW003, m.Pos, "super used outside a subclass method")
		return ir.ValConst(ir.ConstNullVal())
	}
	parent, ok := l.classes[l.currentClassParent]
	if !ok {
		l.errorf(errcode.LOW002, m.Pos, "super refers to unknown parent class %q", l.currentClassParent)
		return ir.ValConst(ir.ConstNullVal())
	}
	args := l.lowerArgs(fb, argExprs)
	dest := fb.AddTemp(ir.Ptr())
	fb.Emit(ir.Call(ptrTo(ir.PlaceOf(ir.ValTemp(dest))), mangleMethod(parent, m.Property), append([]ir.Value{ir.ValLocal(l.currentThis.local)}, args...)))
	return ir.ValTemp(dest)
}

// lowerNewExpr lowers `new ClassName(args)` to a call of the
// synthesized constructor function (spec §4.2.4 step 2).
func (l *Lowerer) lowerNewExpr(fb *ir.FuncBuilder, n *ast.NewExpr) ir.Value {
	ident, ok := n.Callee.(*ast.Identifier)
	if !ok {
		l.errorf(errcode.LOW001, n.Pos, "new with a non-identifier callee is not supported")
		return ir.ValConst(ir.ConstNullVal())
	}
	ci, ok := l.classes[ident.Name]
	if !ok {
		l.errorf(errcode.LOW002, n.Pos, "new of unknown class %q", ident.Name)
		return ir.ValConst(ir.ConstNullVal())
	}
	args := l.lowerArgs(fb, n.Args)
	dest := fb.AddTemp(ir.Struct(ci.structID))
	fb.Emit(ir.Call(ptrTo(ir.PlaceOf(ir.ValTemp(dest))), mangleMethod(ci, "new"), args))
	return ir.ValTemp(dest)
}
