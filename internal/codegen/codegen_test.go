package codegen

import (
	"bytes"
	"testing"

	"github.com/zacostudio/zacoc/internal/ir"
)

func buildAddModule() *ir.IrModule {
	mod := ir.NewIrModule("addmod", 0, 0)
	mod.EnsureExtern("zaco_print_i64", []ir.Type{ir.I64()}, ir.Void())

	addFb := ir.NewFuncBuilder(mod.AllocFuncID(), "add", ir.I64(), true)
	a := addFb.AddParam(ir.I64(), "a")
	b := addFb.AddParam(ir.I64(), "b")
	sum := addFb.AddTemp(ir.I64())
	entry := addFb.NewBlock()
	addFb.SwitchTo(entry)
	addFb.Emit(ir.Assign(ir.PlaceOf(ir.ValTemp(sum)), ir.RVBinOp(ir.OpAdd, ir.ValLocal(a), ir.ValLocal(b))))
	addFb.SetTerminator(ir.Return(ir.ValTemp(sum)))
	mod.AddFunction(addFb.Finish())

	mainFb := ir.NewFuncBuilder(mod.AllocFuncID(), "main", ir.Void(), true)
	result := mainFb.AddTemp(ir.I64())
	entry2 := mainFb.NewBlock()
	mainFb.SwitchTo(entry2)
	dest := ir.PlaceOf(ir.ValTemp(result))
	mainFb.Emit(ir.Instruction{
		Kind:     ir.ICall,
		CallDest: &dest,
		CallFunc: ir.ValConst(ir.Constant{Kind: ir.ConstStr, StrVal: "add"}),
		CallArgs: []ir.Value{ir.ValConst(ir.ConstI(2)), ir.ValConst(ir.ConstI(3))},
	})
	mainFb.Emit(ir.Call(nil, "zaco_print_i64", []ir.Value{ir.ValTemp(result)}))
	mainFb.SetTerminator(ir.ReturnVoid())
	mod.AddFunction(mainFb.Finish())

	return mod
}

func TestCompileModuleProducesBytes(t *testing.T) {
	mod := buildAddModule()
	out, err := CompileModule(mod)
	if err != nil {
		t.Fatalf("CompileModule: %v", err)
	}
	if len(out) == 0 {
		t.Fatal("CompileModule returned empty output")
	}
	if !bytes.HasPrefix(out, []byte("ZACOOBJ1")) {
		t.Fatalf("output missing object header, got %q", out[:8])
	}
}

func TestCompileModuleIsDeterministic(t *testing.T) {
	out1, err := CompileModule(buildAddModule())
	if err != nil {
		t.Fatalf("CompileModule (1): %v", err)
	}
	out2, err := CompileModule(buildAddModule())
	if err != nil {
		t.Fatalf("CompileModule (2): %v", err)
	}
	if !bytes.Equal(out1, out2) {
		t.Fatal("CompileModule is not deterministic across identical inputs")
	}
}

func buildStructModule() *ir.IrModule {
	mod := ir.NewIrModule("structmod", 0, 0)
	sid := mod.AllocStructID()
	mod.AddStruct(&ir.IrStruct{
		ID:   sid,
		Name: "Point",
		Fields: []ir.StructField{
			{Name: "x", Type: ir.I64()},
			{Name: "y", Type: ir.I64()},
		},
	})

	fb := ir.NewFuncBuilder(mod.AllocFuncID(), "makePoint", ir.Struct(sid), true)
	p := fb.AddTemp(ir.Struct(sid))
	xv := fb.AddTemp(ir.I64())
	entry := fb.NewBlock()
	fb.SwitchTo(entry)
	fb.Emit(ir.Assign(ir.PlaceOf(ir.ValTemp(p)), ir.RVStructInit(sid, []ir.Value{ir.ValConst(ir.ConstI(1)), ir.ValConst(ir.ConstI(2))})))
	fb.Emit(ir.Assign(ir.PlaceOf(ir.ValTemp(xv)), ir.RVRead(ir.PlaceOf(ir.ValTemp(p), ir.Field(0)))))
	fb.SetTerminator(ir.Return(ir.ValTemp(xv)))
	mod.AddFunction(fb.Finish())
	return mod
}

func TestCompileModuleStructFieldAccess(t *testing.T) {
	out, err := CompileModule(buildStructModule())
	if err != nil {
		t.Fatalf("CompileModule: %v", err)
	}
	if len(out) == 0 {
		t.Fatal("CompileModule returned empty output")
	}
}

func buildStringLiteralModule() *ir.IrModule {
	mod := ir.NewIrModule("strmod", 0, 0)
	idx := mod.Intern("hello")
	fb := ir.NewFuncBuilder(mod.AllocFuncID(), "greet", ir.Str(), true)
	entry := fb.NewBlock()
	fb.SwitchTo(entry)
	fb.SetTerminator(ir.Return(ir.ValConst(ir.Constant{Kind: ir.ConstStr, StrIndex: idx, StrVal: "hello"})))
	mod.AddFunction(fb.Finish())
	return mod
}

func TestCompileModuleInternedString(t *testing.T) {
	out, err := CompileModule(buildStringLiteralModule())
	if err != nil {
		t.Fatalf("CompileModule: %v", err)
	}
	if len(out) == 0 {
		t.Fatal("CompileModule returned empty output")
	}
}

func TestCompileModuleDivisionByZeroDoesNotTrap(t *testing.T) {
	mod := ir.NewIrModule("divmod", 0, 0)
	fb := ir.NewFuncBuilder(mod.AllocFuncID(), "safeDiv", ir.I64(), true)
	a := fb.AddParam(ir.I64(), "a")
	b := fb.AddParam(ir.I64(), "b")
	r := fb.AddTemp(ir.I64())
	entry := fb.NewBlock()
	fb.SwitchTo(entry)
	fb.Emit(ir.Assign(ir.PlaceOf(ir.ValTemp(r)), ir.RVBinOp(ir.OpDiv, ir.ValLocal(a), ir.ValLocal(b))))
	fb.SetTerminator(ir.Return(ir.ValTemp(r)))
	mod.AddFunction(fb.Finish())

	if _, err := CompileModule(mod); err != nil {
		t.Fatalf("CompileModule: %v", err)
	}
}

func TestCompileModuleUnknownCalleeErrors(t *testing.T) {
	mod := ir.NewIrModule("badmod", 0, 0)
	fb := ir.NewFuncBuilder(mod.AllocFuncID(), "bad", ir.Void(), true)
	entry := fb.NewBlock()
	fb.SwitchTo(entry)
	fb.Emit(ir.Call(nil, "not_a_real_symbol", nil))
	fb.SetTerminator(ir.ReturnVoid())
	mod.AddFunction(fb.Finish())

	if _, err := CompileModule(mod); err == nil {
		t.Fatal("expected CompileModule to reject a call to an undeclared symbol")
	}
}
