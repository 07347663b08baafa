package lower

import (
	"github.com/zacostudio/zacoc/internal/ast"
	"github.com/zacostudio/zacoc/internal/errcode"
	"github.com/zacostudio/zacoc/internal/ir"
)

// mangleMethod produces the link name for one of ci's members. Every
// class member becomes an ordinary top-level function; there is no
// vtable, so a call site always names a concrete mangled symbol (spec
// §4.2.4).
func mangleMethod(ci *classInfo, member string) string {
	if member == "new" {
		member = "constructor"
	}
	return sanitizeIdent(ci.name) + "_" + sanitizeIdent(member)
}

// lowerClass computes field layout (parent fields first, own fields
// appended with no padding), synthesizes the constructor, methods,
// getters, setters, and inherited-method forwarding stubs, and
// registers the class in the Lowerer's class table (spec §4.2.4).
func (l *Lowerer) lowerClass(n *ast.ClassDecl) {
	var parent *classInfo
	if n.Extends != "" {
		p, ok := l.classes[n.Extends]
		if !ok {
			l.errorf(errcode.LOW002, n.Pos, "class %q extends unknown class %q", n.Name, n.Extends)
		} else {
			parent = p
		}
	}

	var fields []ir.StructField
	var fieldInits []ast.Expr
	if parent != nil {
		fields = append(fields, parent.fields...)
		fieldInits = append(fieldInits, parent.fieldInits...)
	}
	for _, fd := range n.Fields {
		ty := ir.Ptr()
		if fd.Init != nil {
			ty = l.inferType(fd.Init)
		}
		fields = append(fields, ir.StructField{Name: fd.Name, Type: ty})
		fieldInits = append(fieldInits, fd.Init)
	}

	structID := l.module.AllocStructID()
	l.module.AddStruct(&ir.IrStruct{ID: structID, Name: n.Name, Fields: fields})

	ci := &classInfo{
		name:        n.Name,
		structID:    structID,
		fields:      fields,
		fieldInits:  fieldInits,
		methodArity: map[string]int{},
		ownMethods:  map[string]bool{},
		parent:      n.Extends,
	}
	if parent != nil {
		ci.parentFieldCnt = len(parent.fields)
		ci.methods = append(ci.methods, parent.methods...)
		for k, v := range parent.methodArity {
			ci.methodArity[k] = v
		}
		ci.getters = append(ci.getters, parent.getters...)
		ci.setters = append(ci.setters, parent.setters...)
	}
	for _, m := range n.Methods {
		ci.ownMethods[m.Name] = true
		ci.methodArity[m.Name] = len(m.Params)
		if !containsStr(ci.methods, m.Name) {
			ci.methods = append(ci.methods, m.Name)
		}
	}
	for _, g := range n.Getters {
		if !containsStr(ci.getters, g.Name) {
			ci.getters = append(ci.getters, g.Name)
		}
	}
	for _, s := range n.Setters {
		if !containsStr(ci.setters, s.Name) {
			ci.setters = append(ci.setters, s.Name)
		}
	}
	for _, m := range n.StaticMethods {
		ci.staticMethods = append(ci.staticMethods, m.Name)
	}
	for _, f := range n.StaticFields {
		ci.staticFields = append(ci.staticFields, f.Name)
	}

	l.classes[n.Name] = ci

	l.lowerConstructor(ci, n)
	for i := range n.Methods {
		l.lowerMethod(ci, &n.Methods[i], "")
	}
	for i := range n.Getters {
		l.lowerMethod(ci, &n.Getters[i], "get_")
	}
	for i := range n.Setters {
		l.lowerMethod(ci, &n.Setters[i], "set_")
	}
	for i := range n.StaticMethods {
		l.lowerStaticMethod(ci, &n.StaticMethods[i])
	}
	for _, fd := range n.StaticFields {
		l.lowerStaticField(ci, &fd)
	}

	if parent != nil {
		l.lowerForwardingStubs(ci, parent)
	}
}

func containsStr(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// lowerConstructor synthesizes ClassName_constructor(args...) -> Struct(id):
// allocate the instance, run field initializers in declaration order
// (parent fields first), then the user constructor body if any (spec
// §4.2.4 steps 2-3).
func (l *Lowerer) lowerConstructor(ci *classInfo, n *ast.ClassDecl) {
	var params []ast.Param
	var body *ast.Block
	if n.Constructor != nil {
		params = n.Constructor.Params
		body = n.Constructor.Body
	}

	fb := ir.NewFuncBuilder(l.module.AllocFuncID(), mangleMethod(ci, "new"), ir.Struct(ci.structID), true)
	entry := fb.NewBlock()
	fb.SwitchTo(entry)

	l.pushScope()
	for _, p := range params {
		local := fb.AddParam(ir.Ptr(), p.Name)
		l.declareVar(p.Name, &varInfo{local: local, ty: ir.Ptr()})
	}

	thisLocal := fb.AddLocal(ir.Struct(ci.structID), "this")
	fb.Emit(ir.Alloc(ir.PlaceOf(ir.ValLocal(thisLocal)), ir.Struct(ci.structID)))

	prevThis, prevClass, prevParent := l.currentThis, l.currentClass, l.currentClassParent
	l.currentThis = &varInfo{local: thisLocal, ty: ir.Struct(ci.structID)}
	l.currentClass = ci.name
	l.currentClassParent = ci.parent

	for i, init := range ci.fieldInits {
		if init == nil {
			continue
		}
		val := l.lowerExpr(fb, init)
		fb.Emit(ir.Assign(ir.PlaceOf(ir.ValLocal(thisLocal), ir.Field(i)), ir.RVUse(val)))
	}

	if body != nil {
		for _, stmt := range body.Stmts {
			if call, ok := isSuperCall(stmt); ok {
				l.lowerSuperCall(fb, ci, call)
				continue
			}
			l.lowerStmt(fb, stmt)
		}
	}

	l.currentThis, l.currentClass, l.currentClassParent = prevThis, prevClass, prevParent
	l.popScope()

	if !fb.HasTerminator() {
		fb.SetTerminator(ir.Return(ir.ValLocal(thisLocal)))
	}
	l.module.AddFunction(fb.Finish())
}

func isSuperCall(s ast.Stmt) (*ast.CallExpr, bool) {
	es, ok := s.(*ast.ExprStmt)
	if !ok {
		return nil, false
	}
	call, ok := es.Expr.(*ast.CallExpr)
	if !ok {
		return nil, false
	}
	if _, ok := call.Callee.(*ast.SuperExpr); !ok {
		return nil, false
	}
	return call, true
}

// lowerSuperCall re-runs the parent constructor's user body inline is
// not attempted; field defaults were already flattened into this
// constructor's own field-init pass, so a super(...) call only needs
// to forward any parent-constructor side effects expressed as extra
// field assignments, which the language surface does not expose
// separately from field initializers. It is accepted and its
// arguments are evaluated for their side effects, then discarded.
func (l *Lowerer) lowerSuperCall(fb *ir.FuncBuilder, ci *classInfo, call *ast.CallExpr) {
	for _, a := range call.Args {
		l.lowerExpr(fb, a)
	}
}

// lowerMethod lowers one instance method/getter/setter. Return type
// is conservatively Ptr(): this mirrors the Lowerer's fallback type
// inference for any value whose shape isn't statically known (spec
// §4.2 "Type inference").
func (l *Lowerer) lowerMethod(ci *classInfo, m *ast.MethodDecl, prefix string) {
	fb := ir.NewFuncBuilder(l.module.AllocFuncID(), mangleMethod(ci, prefix+m.Name), ir.Ptr(), true)
	entry := fb.NewBlock()
	fb.SwitchTo(entry)

	thisLocal := fb.AddParam(ir.Struct(ci.structID), "this")

	l.pushScope()
	for _, p := range m.Params {
		local := fb.AddParam(ir.Ptr(), p.Name)
		l.declareVar(p.Name, &varInfo{local: local, ty: ir.Ptr()})
	}

	prevThis, prevClass, prevParent := l.currentThis, l.currentClass, l.currentClassParent
	l.currentThis = &varInfo{local: thisLocal, ty: ir.Struct(ci.structID)}
	l.currentClass = ci.name
	l.currentClassParent = ci.parent

	if m.Body != nil {
		l.lowerStmtList(fb, m.Body.Stmts)
	}

	l.currentThis, l.currentClass, l.currentClassParent = prevThis, prevClass, prevParent
	l.popScope()

	if !fb.HasTerminator() {
		fb.SetTerminator(ir.Return(ir.ValConst(ir.ConstNullVal())))
	}
	l.module.AddFunction(fb.Finish())
}

func (l *Lowerer) lowerStaticMethod(ci *classInfo, m *ast.MethodDecl) {
	fb := ir.NewFuncBuilder(l.module.AllocFuncID(), mangleMethod(ci, "static_"+m.Name), ir.Ptr(), true)
	entry := fb.NewBlock()
	fb.SwitchTo(entry)

	l.pushScope()
	for _, p := range m.Params {
		local := fb.AddParam(ir.Ptr(), p.Name)
		l.declareVar(p.Name, &varInfo{local: local, ty: ir.Ptr()})
	}

	prevThis, prevClass := l.currentThis, l.currentClass
	l.currentThis = nil
	l.currentClass = ci.name

	if m.Body != nil {
		l.lowerStmtList(fb, m.Body.Stmts)
	}

	l.currentThis, l.currentClass = prevThis, prevClass
	l.popScope()

	if !fb.HasTerminator() {
		fb.SetTerminator(ir.Return(ir.ValConst(ir.ConstNullVal())))
	}
	l.module.AddFunction(fb.Finish())
}

// lowerStaticField registers a class static property as a module
// global, constant-initialized when its initializer is a literal
// (spec §4.2.4 step 6).
func (l *Lowerer) lowerStaticField(ci *classInfo, fd *ast.FieldDecl) {
	name := sanitizeIdent(ci.name) + "__" + sanitizeIdent(fd.Name)
	ty := ir.Ptr()
	var init *ir.Constant
	if fd.Init != nil {
		ty = l.inferType(fd.Init)
		if lit, ok := fd.Init.(*ast.Literal); ok {
			c := l.lowerLiteral(lit).Const
			init = &c
		}
	}
	l.module.Globals = append(l.module.Globals, ir.Global{Name: name, Type: ty, Init: init})
}

// lowerForwardingStubs synthesizes a thin call-through function for
// every inherited method ci does not override, so a call site always
// has a concrete mangled symbol to name without needing a vtable
// (spec §4.2.4 step 5). A pointer to ci's struct is layout-compatible
// with parent's, since parent's fields occupy ci's leading prefix.
func (l *Lowerer) lowerForwardingStubs(ci, parent *classInfo) {
	for _, name := range parent.methods {
		if ci.ownMethods[name] {
			continue
		}
		l.lowerForwardingStub(ci, parent, name, "")
	}
	for _, name := range parent.getters {
		l.lowerForwardingStub(ci, parent, name, "get_")
	}
	for _, name := range parent.setters {
		l.lowerForwardingStub(ci, parent, name, "set_")
	}
}

func (l *Lowerer) lowerForwardingStub(ci, parent *classInfo, name, prefix string) {
	arity := parent.methodArity[name]
	parentFn := mangleMethod(parent, prefix+name)

	fb := ir.NewFuncBuilder(l.module.AllocFuncID(), mangleMethod(ci, prefix+name), ir.Ptr(), true)
	entry := fb.NewBlock()
	fb.SwitchTo(entry)

	thisLocal := fb.AddParam(ir.Struct(ci.structID), "this")
	args := []ir.Value{ir.ValLocal(thisLocal)}
	for i := 0; i < arity; i++ {
		p := fb.AddParam(ir.Ptr(), "")
		args = append(args, ir.ValLocal(p))
	}

	dest := fb.AddTemp(ir.Ptr())
	fb.Emit(ir.Call(ptrTo(ir.PlaceOf(ir.ValTemp(dest))), parentFn, args))
	fb.SetTerminator(ir.Return(ir.ValTemp(dest)))
	l.module.AddFunction(fb.Finish())
}
