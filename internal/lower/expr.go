package lower

import (
	"github.com/zacostudio/zacoc/internal/ast"
	"github.com/zacostudio/zacoc/internal/errcode"
	"github.com/zacostudio/zacoc/internal/ir"
)

// lowerExpr evaluates e into the current block and returns the Value
// holding its result (spec §4.2.1 "Expression lowering").
func (l *Lowerer) lowerExpr(fb *ir.FuncBuilder, e ast.Expr) ir.Value {
	l.lastClosureInfo = nil
	switch n := e.(type) {
	case *ast.Literal:
		return l.lowerLiteral(n)
	case *ast.Identifier:
		return l.lowerIdentifier(fb, n)
	case *ast.ThisExpr:
		if l.currentThis == nil {
			l.errorf(errcode.LOW002, n.Pos, "'this' used outside a method or constructor")
			return ir.ValConst(ir.ConstNullVal())
		}
		return ir.ValLocal(l.currentThis.local)
	case *ast.TemplateLiteral:
		return l.lowerTemplateLiteral(fb, n)
	case *ast.ArrayLit:
		return l.lowerArrayLit(fb, n)
	case *ast.ObjectLit:
		return l.lowerObjectLit(fb, n)
	case *ast.BinaryOp:
		return l.lowerBinaryOp(fb, n)
	case *ast.LogicalOp:
		return l.lowerLogicalOp(fb, n)
	case *ast.UnaryOp:
		return l.lowerUnaryOp(fb, n)
	case *ast.ConditionalExpr:
		return l.lowerConditional(fb, n)
	case *ast.AssignExpr:
		return l.lowerAssignExpr(fb, n)
	case *ast.CallExpr:
		return l.lowerCallExpr(fb, n)
	case *ast.NewExpr:
		return l.lowerNewExpr(fb, n)
	case *ast.MemberExpr:
		return l.lowerMemberRead(fb, n)
	case *ast.IndexExpr:
		return l.lowerIndexRead(fb, n)
	case *ast.ArrowFunc:
		return l.lowerClosureExpr(fb, n.Params, n.Body, n.IsAsync, false, n.Pos)
	case *ast.FuncExpr:
		return l.lowerClosureExpr(fb, n.Params, n.Body, n.IsAsync, n.IsGenerator, n.Pos)
	case *ast.YieldExpr:
		return l.lowerYield(fb, n)
	case *ast.AwaitExpr:
		return l.lowerAwait(fb, n)
	case *ast.SpreadExpr:
		l.errorf(errcode.LOW001, n.Pos, "spread is only supported directly inside array literals and call arguments")
		return ir.ValConst(ir.ConstNullVal())
	default:
		l.errorf(errcode.LOW001, e.Position(), "unsupported expression form %T", e)
		return ir.ValConst(ir.ConstNullVal())
	}
}

func (l *Lowerer) lowerLiteral(n *ast.Literal) ir.Value {
	switch n.Kind {
	case ast.IntLit:
		return ir.ValConst(ir.ConstF(float64(n.Value.(int64))))
	case ast.FloatLit:
		return ir.ValConst(ir.ConstF(n.Value.(float64)))
	case ast.StringLit:
		return l.internStr(n.Value.(string))
	case ast.BoolLit:
		return ir.ValConst(ir.ConstB(n.Value.(bool)))
	case ast.NullLit, ast.UndefinedLit:
		return ir.ValConst(ir.ConstNullVal())
	default:
		return ir.ValConst(ir.ConstNullVal())
	}
}

// lowerIdentifier resolves a name to either Local(id) or, if boxed, a
// call to zaco_box_get(local) (spec §4.2.1).
func (l *Lowerer) lowerIdentifier(fb *ir.FuncBuilder, n *ast.Identifier) ir.Value {
	v, ok := l.resolve(n.Name)
	if !ok {
		l.errorf(errcode.LOW002, n.Pos, "unresolved identifier %q", n.Name)
		return ir.ValConst(ir.ConstNullVal())
	}
	if !v.isBoxed {
		return ir.ValLocal(v.local)
	}
	l.ensureExtern("zaco_box_get")
	dest := fb.AddTemp(ir.Ptr())
	fb.Emit(ir.Call(ptrTo(ir.PlaceOf(ir.ValTemp(dest))), "zaco_box_get", []ir.Value{ir.ValLocal(v.local)}))
	return ir.ValTemp(dest)
}

func ptrTo(p ir.Place) *ir.Place { return &p }

// lowerBinaryOp splits by operand type per spec §4.2.1: arithmetic on
// F64 maps to IR binops; any `+` with a string operand becomes a
// StrConcat after coercing the other via zaco_f64_to_str; string
// equality maps to zaco_str_eq; `in`/`instanceof` map to runtime
// calls.
func (l *Lowerer) lowerBinaryOp(fb *ir.FuncBuilder, n *ast.BinaryOp) ir.Value {
	switch n.Op {
	case "in":
		l.ensureExtern("zaco_obj_has_prop")
		left := l.lowerExpr(fb, n.Left)
		right := l.lowerExpr(fb, n.Right)
		dest := fb.AddTemp(ir.Bool())
		fb.Emit(ir.Call(ptrTo(ir.PlaceOf(ir.ValTemp(dest))), "zaco_obj_has_prop", []ir.Value{right, left}))
		return ir.ValTemp(dest)
	case "instanceof":
		l.ensureExtern("zaco_instanceof")
		left := l.lowerExpr(fb, n.Left)
		right := l.lowerExpr(fb, n.Right)
		dest := fb.AddTemp(ir.Bool())
		fb.Emit(ir.Call(ptrTo(ir.PlaceOf(ir.ValTemp(dest))), "zaco_instanceof", []ir.Value{left, right}))
		return ir.ValTemp(dest)
	}

	leftTy := l.inferType(n.Left)
	rightTy := l.inferType(n.Right)

	if n.Op == "+" && (leftTy.Kind == ir.TStr || rightTy.Kind == ir.TStr) {
		left := l.coerceToStr(fb, l.lowerExpr(fb, n.Left), leftTy)
		right := l.coerceToStr(fb, l.lowerExpr(fb, n.Right), rightTy)
		dest := fb.AddTemp(ir.Str())
		fb.Emit(ir.Assign(ir.PlaceOf(ir.ValTemp(dest)), ir.RVStrConcat([]ir.Value{left, right})))
		return ir.ValTemp(dest)
	}

	if n.Op == "==" || n.Op == "!=" {
		if leftTy.Kind == ir.TStr && rightTy.Kind == ir.TStr {
			l.ensureExtern("zaco_str_eq")
			left := l.lowerExpr(fb, n.Left)
			right := l.lowerExpr(fb, n.Right)
			dest := fb.AddTemp(ir.Bool())
			fb.Emit(ir.Call(ptrTo(ir.PlaceOf(ir.ValTemp(dest))), "zaco_str_eq", []ir.Value{left, right}))
			res := ir.ValTemp(dest)
			if n.Op == "!=" {
				neg := fb.AddTemp(ir.Bool())
				fb.Emit(ir.Assign(ir.PlaceOf(ir.ValTemp(neg)), ir.RVUnOp(ir.OpNot, res)))
				return ir.ValTemp(neg)
			}
			return res
		}
	}

	left := l.lowerExpr(fb, n.Left)
	right := l.lowerExpr(fb, n.Right)
	op := binOpFromSource(n.Op)
	resultTy := ir.F64()
	switch n.Op {
	case "==", "!=", "<", "<=", ">", ">=":
		resultTy = ir.Bool()
	}
	dest := fb.AddTemp(resultTy)
	fb.Emit(ir.Assign(ir.PlaceOf(ir.ValTemp(dest)), ir.RVBinOp(op, left, right)))
	return ir.ValTemp(dest)
}

func binOpFromSource(op string) ir.BinOp {
	switch op {
	case "+":
		return ir.OpAdd
	case "-":
		return ir.OpSub
	case "*":
		return ir.OpMul
	case "/":
		return ir.OpDiv
	case "%":
		return ir.OpMod
	case "==":
		return ir.OpEq
	case "!=":
		return ir.OpNeq
	case "<":
		return ir.OpLt
	case "<=":
		return ir.OpLte
	case ">":
		return ir.OpGt
	case ">=":
		return ir.OpGte
	default:
		return ir.OpAdd
	}
}

func (l *Lowerer) coerceToStr(fb *ir.FuncBuilder, v ir.Value, ty ir.Type) ir.Value {
	if ty.Kind == ir.TStr {
		return v
	}
	l.ensureExtern("zaco_f64_to_str")
	var f64v ir.Value
	if ty.Kind == ir.TF64 {
		f64v = v
	} else {
		cast := fb.AddTemp(ir.F64())
		fb.Emit(ir.Assign(ir.PlaceOf(ir.ValTemp(cast)), ir.RVCast(v, ir.F64())))
		f64v = ir.ValTemp(cast)
	}
	dest := fb.AddTemp(ir.Str())
	fb.Emit(ir.Call(ptrTo(ir.PlaceOf(ir.ValTemp(dest))), "zaco_f64_to_str", []ir.Value{f64v}))
	return ir.ValTemp(dest)
}

func (l *Lowerer) lowerUnaryOp(fb *ir.FuncBuilder, n *ast.UnaryOp) ir.Value {
	v := l.lowerExpr(fb, n.Expr)
	op := ir.OpNeg
	ty := ir.F64()
	if n.Op == "!" {
		op = ir.OpNot
		ty = ir.Bool()
	}
	dest := fb.AddTemp(ty)
	fb.Emit(ir.Assign(ir.PlaceOf(ir.ValTemp(dest)), ir.RVUnOp(op, v)))
	return ir.ValTemp(dest)
}

// lowerLogicalOp lowers `&&`/`||`/`??` to a three-block diamond:
// evaluate LHS, branch, evaluate RHS into a merge local (spec §4.2.1).
func (l *Lowerer) lowerLogicalOp(fb *ir.FuncBuilder, n *ast.LogicalOp) ir.Value {
	resultTy := l.inferType(n)
	merge := fb.AddLocal(resultTy, "")
	left := l.lowerExpr(fb, n.Left)
	fb.Emit(ir.Assign(ir.PlaceOf(ir.ValLocal(merge)), ir.RVUse(left))) // provisional; overwritten below when the RHS is evaluated

	rhsBlock := fb.NewBlock()
	mergeBlock := fb.NewBlock()

	var cond ir.Value
	switch n.Op {
	case "&&":
		cond = left // truthy LHS evaluates RHS
	case "||":
		notLeft := fb.AddTemp(ir.Bool())
		fb.Emit(ir.Assign(ir.PlaceOf(ir.ValTemp(notLeft)), ir.RVUnOp(ir.OpNot, left)))
		cond = ir.ValTemp(notLeft)
	case "??":
		isNull := fb.AddTemp(ir.Bool())
		fb.Emit(ir.Assign(ir.PlaceOf(ir.ValTemp(isNull)), ir.RVBinOp(ir.OpEq, left, ir.ValConst(ir.ConstNullVal()))))
		cond = ir.ValTemp(isNull)
	}
	fb.SetTerminator(ir.Branch(cond, rhsBlock, mergeBlock))

	fb.SwitchTo(rhsBlock)
	right := l.lowerExpr(fb, n.Right)
	fb.Emit(ir.Assign(ir.PlaceOf(ir.ValLocal(merge)), ir.RVUse(right)))
	fb.SetTerminator(ir.Jump(mergeBlock))

	fb.SwitchTo(mergeBlock)
	return ir.ValLocal(merge)
}

// lowerConditional lowers the ternary to the same if/then/else/merge
// diamond as an `if` statement producing a value (spec §4.2.2).
func (l *Lowerer) lowerConditional(fb *ir.FuncBuilder, n *ast.ConditionalExpr) ir.Value {
	resultTy := l.inferType(n)
	merge := fb.AddLocal(resultTy, "")
	cond := l.lowerExpr(fb, n.Cond)

	thenBlock := fb.NewBlock()
	elseBlock := fb.NewBlock()
	mergeBlock := fb.NewBlock()
	fb.SetTerminator(ir.Branch(cond, thenBlock, elseBlock))

	fb.SwitchTo(thenBlock)
	thenVal := l.lowerExpr(fb, n.Then)
	fb.Emit(ir.Assign(ir.PlaceOf(ir.ValLocal(merge)), ir.RVUse(thenVal)))
	if !fb.HasTerminator() {
		fb.SetTerminator(ir.Jump(mergeBlock))
	}

	fb.SwitchTo(elseBlock)
	elseVal := l.lowerExpr(fb, n.Else)
	fb.Emit(ir.Assign(ir.PlaceOf(ir.ValLocal(merge)), ir.RVUse(elseVal)))
	if !fb.HasTerminator() {
		fb.SetTerminator(ir.Jump(mergeBlock))
	}

	fb.SwitchTo(mergeBlock)
	return ir.ValLocal(merge)
}

// lowerTemplateLiteral concatenates alternating string parts and
// expression values via StrConcat (spec §4.2.1).
func (l *Lowerer) lowerTemplateLiteral(fb *ir.FuncBuilder, n *ast.TemplateLiteral) ir.Value {
	var parts []ir.Value
	for i, p := range n.Parts {
		if p != "" {
			parts = append(parts, l.internStr(p))
		}
		if i < len(n.Exprs) {
			v := l.lowerExpr(fb, n.Exprs[i])
			parts = append(parts, l.coerceToStr(fb, v, l.inferType(n.Exprs[i])))
		}
	}
	if len(parts) == 0 {
		return l.internStr("")
	}
	dest := fb.AddTemp(ir.Str())
	fb.Emit(ir.Assign(ir.PlaceOf(ir.ValTemp(dest)), ir.RVStrConcat(parts)))
	return ir.ValTemp(dest)
}

// lowerArrayLit produces ArrayInit of F64; the runtime boxes
// heterogeneous element types elsewhere (spec §4.2.1).
func (l *Lowerer) lowerArrayLit(fb *ir.FuncBuilder, n *ast.ArrayLit) ir.Value {
	elems := make([]ir.Value, 0, len(n.Elements))
	for _, e := range n.Elements {
		if sp, ok := e.(*ast.SpreadExpr); ok {
			l.errorf(errcode.LOW001, sp.Pos, "array-literal spread is not supported")
			continue
		}
		elems = append(elems, l.lowerExpr(fb, e))
	}
	dest := fb.AddTemp(ir.Array(ir.F64()))
	fb.Emit(ir.Assign(ir.PlaceOf(ir.ValTemp(dest)), ir.RVArrayInit(elems)))
	return ir.ValTemp(dest)
}

// lowerObjectLit calls zaco_object_new then a type-appropriate
// zaco_object_set_{f64|str|i64|ptr} per property (spec §4.2.1).
func (l *Lowerer) lowerObjectLit(fb *ir.FuncBuilder, n *ast.ObjectLit) ir.Value {
	l.ensureExtern("zaco_object_new")
	obj := fb.AddTemp(ir.Ptr())
	fb.Emit(ir.Call(ptrTo(ir.PlaceOf(ir.ValTemp(obj))), "zaco_object_new", nil))

	for _, prop := range n.Props {
		val := l.lowerExpr(fb, prop.Value)
		ty := l.inferType(prop.Value)
		setter := setterForType(ty)
		l.ensureExtern(setter)
		key := l.internStr(prop.Key)
		fb.Emit(ir.Call(nil, setter, []ir.Value{ir.ValTemp(obj), key, val}))
	}
	return ir.ValTemp(obj)
}

func setterForType(ty ir.Type) string {
	switch ty.Kind {
	case ir.TStr:
		return "zaco_object_set_str"
	case ir.TF64:
		return "zaco_object_set_f64"
	case ir.TI64, ir.TBool:
		return "zaco_object_set_i64"
	default:
		return "zaco_object_set_ptr"
	}
}
