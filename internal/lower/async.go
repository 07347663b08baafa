package lower

import (
	"github.com/zacostudio/zacoc/internal/ast"
	"github.com/zacostudio/zacoc/internal/errcode"
	"github.com/zacostudio/zacoc/internal/ir"
)

// promiseChainSymbol maps a chain method to its runtime symbol, all
// sharing the (promise, callback_fn_ptr, env_ptr) calling shape: the
// callback is decomposed into the interned name of its synthesized
// function plus its environment pointer, rather than passed as a
// runtime closure value (spec §4.2.7, §4.2.5).
var promiseChainSymbol = map[string]string{
	"then":    "zaco_promise_then",
	"catch":   "zaco_promise_catch",
	"finally": "zaco_promise_finally",
}

// lowerPromiseChain lowers `promise.then(cb)` / `.catch(cb)` /
// `.finally(cb)` to the matching zaco_promise_*(promise, fn_ptr,
// env_ptr) runtime call (spec §4.2.7). An omitted callback lowers to
// a null function pointer and null env.
func (l *Lowerer) lowerPromiseChain(fb *ir.FuncBuilder, m *ast.MemberExpr, argExprs []ast.Expr) ir.Value {
	symbol := promiseChainSymbol[m.Property]
	l.ensureExtern(symbol)

	promise := l.lowerExpr(fb, m.Object)
	fnPtr := ir.ValConst(ir.ConstNullVal())
	envPtr := ir.ValConst(ir.ConstNullVal())
	if len(argExprs) > 0 {
		env, ci := l.closureValueInfo(fb, argExprs[0])
		if ci == nil {
			l.errorf(errcode.LOW001, argExprs[0].Position(), "promise callback is not a statically known closure")
			return ir.ValConst(ir.ConstNullVal())
		}
		fnPtr = l.internStr(ci.funcName)
		envPtr = env
		if !ci.hasEnv {
			envPtr = ir.ValConst(ir.ConstNullVal())
		}
	}

	dest := fb.AddTemp(ir.Promise(ir.Ptr()))
	fb.Emit(ir.Call(ptrTo(ir.PlaceOf(ir.ValTemp(dest))), symbol, []ir.Value{promise, fnPtr, envPtr}))
	return ir.ValTemp(dest)
}

// lowerAwait lowers `await expr` to zaco_async_block_on: the source
// language's async functions run synchronously on the calling thread
// except at await points, which block on the runtime's executor
// rather than truly suspend (spec §4.2.7, §9 open question 2).
func (l *Lowerer) lowerAwait(fb *ir.FuncBuilder, n *ast.AwaitExpr) ir.Value {
	l.ensureExtern("zaco_async_block_on")
	promise := l.lowerExpr(fb, n.Value)
	dest := fb.AddTemp(ir.Ptr())
	fb.Emit(ir.Call(ptrTo(ir.PlaceOf(ir.ValTemp(dest))), "zaco_async_block_on", []ir.Value{promise}))
	return ir.ValTemp(dest)
}
