package lower

import (
	"github.com/zacostudio/zacoc/internal/ast"
	"github.com/zacostudio/zacoc/internal/errcode"
	"github.com/zacostudio/zacoc/internal/ir"
)

// lowerMemberRead evaluates `object.property`. A known struct type
// reads the field in place via a Place projection; anything else
// (plain objects, `this` inside a class with unresolved static shape)
// falls back to the dynamic zaco_object_get_f64 accessor (spec
// §4.2.1, §4.2.4).
func (l *Lowerer) lowerMemberRead(fb *ir.FuncBuilder, n *ast.MemberExpr) ir.Value {
	objTy := l.inferType(n.Object)
	if objTy.Kind == ir.TStruct {
		if ci := l.classInfoByStructID(objTy.StructID); ci != nil {
			if idx, ok := fieldIndex(ci, n.Property); ok {
				obj := l.lowerExpr(fb, n.Object)
				fieldTy := ci.fields[idx].Type
				dest := fb.AddTemp(fieldTy)
				fb.Emit(ir.Assign(ir.PlaceOf(ir.ValTemp(dest)), ir.RVRead(ir.PlaceOf(obj, ir.Field(idx)))))
				return ir.ValTemp(dest)
			}
			if getterName, ok := hasGetter(ci, n.Property); ok {
				obj := l.lowerExpr(fb, n.Object)
				dest := fb.AddTemp(ir.Ptr())
				fb.Emit(ir.Call(ptrTo(ir.PlaceOf(ir.ValTemp(dest))), getterName, []ir.Value{obj}))
				return ir.ValTemp(dest)
			}
		}
	}

	l.ensureExtern("zaco_object_get_f64")
	obj := l.lowerExpr(fb, n.Object)
	key := l.internStr(n.Property)
	dest := fb.AddTemp(ir.F64())
	fb.Emit(ir.Call(ptrTo(ir.PlaceOf(ir.ValTemp(dest))), "zaco_object_get_f64", []ir.Value{obj, key}))
	return ir.ValTemp(dest)
}

func fieldIndex(ci *classInfo, name string) (int, bool) {
	for i, f := range ci.fields {
		if f.Name == name {
			return i, true
		}
	}
	return 0, false
}

func hasGetter(ci *classInfo, name string) (string, bool) {
	for _, g := range ci.getters {
		if g == name {
			return mangleMethod(ci, "get_"+name), true
		}
	}
	return "", false
}

func (l *Lowerer) classInfoByStructID(id ir.StructID) *classInfo {
	for _, ci := range l.classes {
		if ci.structID == id {
			return ci
		}
	}
	return nil
}

// lowerIndexRead evaluates `object[index]` through zaco_array_get for
// every object type. The result takes the element type of a known
// array type and F64 otherwise; plain objects get no computed-property
// lookup and are read as arrays.
func (l *Lowerer) lowerIndexRead(fb *ir.FuncBuilder, n *ast.IndexExpr) ir.Value {
	objTy := l.inferType(n.Object)
	elemTy := ir.F64()
	if objTy.Kind == ir.TArray && objTy.Elem != nil {
		elemTy = *objTy.Elem
	}
	l.ensureExtern("zaco_array_get")
	obj := l.lowerExpr(fb, n.Object)
	idx := l.lowerExpr(fb, n.Index)
	dest := fb.AddTemp(elemTy)
	fb.Emit(ir.Call(ptrTo(ir.PlaceOf(ir.ValTemp(dest))), "zaco_array_get", []ir.Value{obj, idx}))
	return ir.ValTemp(dest)
}

// lowerAssignExpr lowers `target = value` / `target op= value`,
// returning the assigned value (assignment is an expression, spec
// §4.2.1).
func (l *Lowerer) lowerAssignExpr(fb *ir.FuncBuilder, n *ast.AssignExpr) ir.Value {
	rhs := n.Value
	if n.Op != "=" {
		// Desugar `target op= value` to `target = target op value`.
		rhs = &ast.BinaryOp{Left: n.Target, Op: compoundBaseOp(n.Op), Right: n.Value, Pos: n.Pos}
	}

	switch target := n.Target.(type) {
	case *ast.Identifier:
		v, ok := l.resolve(target.Name)
		if !ok {
			l.errorf(errcode.LOW002, target.Pos, "unresolved identifier %q", target.Name)
			return ir.ValConst(ir.ConstNullVal())
		}
		val := l.lowerExpr(fb, rhs)
		switch rhs.(type) {
		case *ast.ArrowFunc, *ast.FuncExpr:
			if l.lastClosureInfo != nil {
				l.closureLocals[v.local] = l.lastClosureInfo
			}
		}
		if v.isBoxed {
			l.ensureExtern("zaco_box_set")
			fb.Emit(ir.Call(nil, "zaco_box_set", []ir.Value{ir.ValLocal(v.local), val}))
		} else {
			fb.Emit(ir.Assign(ir.PlaceOf(ir.ValLocal(v.local)), ir.RVUse(val)))
		}
		return val

	case *ast.MemberExpr:
		return l.lowerMemberAssign(fb, target, rhs)

	case *ast.IndexExpr:
		l.ensureExtern("zaco_array_set")
		obj := l.lowerExpr(fb, target.Object)
		idx := l.lowerExpr(fb, target.Index)
		val := l.lowerExpr(fb, rhs)
		fb.Emit(ir.Call(nil, "zaco_array_set", []ir.Value{obj, idx, val}))
		return val

	default:
		l.errorf(errcode.LOW001, n.Pos, "unsupported assignment target %T", n.Target)
		return ir.ValConst(ir.ConstNullVal())
	}
}

func (l *Lowerer) lowerMemberAssign(fb *ir.FuncBuilder, target *ast.MemberExpr, rhs ast.Expr) ir.Value {
	objTy := l.inferType(target.Object)
	if objTy.Kind == ir.TStruct {
		if ci := l.classInfoByStructID(objTy.StructID); ci != nil {
			if idx, ok := fieldIndex(ci, target.Property); ok {
				obj := l.lowerExpr(fb, target.Object)
				val := l.lowerExpr(fb, rhs)
				fb.Emit(ir.Assign(ir.PlaceOf(obj, ir.Field(idx)), ir.RVUse(val)))
				return val
			}
			if setterName, ok := hasSetter(ci, target.Property); ok {
				obj := l.lowerExpr(fb, target.Object)
				val := l.lowerExpr(fb, rhs)
				fb.Emit(ir.Call(nil, setterName, []ir.Value{obj, val}))
				return val
			}
		}
	}

	valTy := l.inferType(rhs)
	setter := setterForType(valTy)
	l.ensureExtern(setter)
	obj := l.lowerExpr(fb, target.Object)
	key := l.internStr(target.Property)
	val := l.lowerExpr(fb, rhs)
	fb.Emit(ir.Call(nil, setter, []ir.Value{obj, key, val}))
	return val
}

func hasSetter(ci *classInfo, name string) (string, bool) {
	for _, s := range ci.setters {
		if s == name {
			return mangleMethod(ci, "set_"+name), true
		}
	}
	return "", false
}

func compoundBaseOp(op string) string {
	return op[:len(op)-1] // "+=" -> "+"
}
