package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeSizes(t *testing.T) {
	cases := []struct {
		ty   Type
		want int
	}{
		{Bool(), 1},
		{I64(), 8},
		{F64(), 8},
		{Ptr(), 8},
		{Str(), 8},
		{Array(F64()), 8},
		{Struct(3), 8},
		{Promise(Str()), 8},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, c.ty.Size(), c.ty.String())
	}
}

func TestIsPointer(t *testing.T) {
	assert.True(t, Ptr().IsPointer())
	assert.True(t, Str().IsPointer())
	assert.True(t, Array(I64()).IsPointer())
	assert.True(t, Struct(0).IsPointer())
	assert.True(t, Promise(I64()).IsPointer())
	assert.False(t, I64().IsPointer())
	assert.False(t, F64().IsPointer())
	assert.False(t, Bool().IsPointer())
}

func TestStructFieldOffsetsNoPadding(t *testing.T) {
	s := &IrStruct{
		ID:   1,
		Name: "Point",
		Fields: []StructField{
			{Name: "flag", Type: Bool()}, // 1 byte
			{Name: "x", Type: F64()},     // 8 bytes
			{Name: "y", Type: F64()},     // 8 bytes
		},
	}
	assert.Equal(t, 0, s.FieldOffset(0))
	assert.Equal(t, 1, s.FieldOffset(1)) // no alignment padding after the bool
	assert.Equal(t, 9, s.FieldOffset(2))
	assert.Equal(t, 17, s.Size())
}

func TestModuleInternPoolIsStableAndAppendOnly(t *testing.T) {
	m := NewIrModule("main", 0, 0)
	i1 := m.Intern("hello")
	i2 := m.Intern("world")
	i3 := m.Intern("hello")
	assert.Equal(t, 0, i1)
	assert.Equal(t, 1, i2)
	assert.Equal(t, i1, i3, "re-interning the same literal returns the original index")
	assert.Equal(t, []string{"hello", "world"}, m.StringLiterals)
}

func TestModuleIDCountersAdvanceMonotonically(t *testing.T) {
	m := NewIrModule("main", 0, 0)
	f1 := m.AllocFuncID()
	f2 := m.AllocFuncID()
	assert.Equal(t, FuncID(0), f1)
	assert.Equal(t, FuncID(1), f2)
	assert.Equal(t, FuncID(2), m.NextFuncID)
}

func TestMergeIsIDDisjointGivenProperOffsets(t *testing.T) {
	a := NewIrModule("a", 0, 0)
	fa := NewFuncBuilder(a.AllocFuncID(), "main", Void(), true)
	fa.NewBlock()
	fa.SwitchTo(fa.Func.EntryBlock)
	fa.SetTerminator(ReturnVoid())
	a.AddFunction(fa.Finish())

	b := NewIrModule("b", a.NextFuncID, a.NextStructID)
	fb := NewFuncBuilder(b.AllocFuncID(), "__module_init_b", Void(), false)
	fb.NewBlock()
	fb.SwitchTo(fb.Func.EntryBlock)
	fb.SetTerminator(ReturnVoid())
	b.AddFunction(fb.Finish())

	a.Merge(b)
	require.Len(t, a.Functions, 2)
	assert.NotEqual(t, a.Functions[0].ID, a.Functions[1].ID)
}

func TestFuncBuilderParamsArePrefixOfLocals(t *testing.T) {
	fb := NewFuncBuilder(0, "add", F64(), true)
	a := fb.AddParam(F64(), "a")
	b := fb.AddParam(F64(), "b")
	fb.NewBlock()
	fb.SwitchTo(fb.Func.EntryBlock)
	sum := fb.AddTemp(F64())
	fb.Emit(Assign(PlaceOf(ValTemp(sum)), RVBinOp(OpAdd, ValLocal(a), ValLocal(b))))
	fb.SetTerminator(Return(ValTemp(sum)))
	fn := fb.Finish()

	require.Len(t, fn.Params, 2)
	assert.Equal(t, LocalID(0), fn.Params[0].Local)
	assert.Equal(t, LocalID(1), fn.Params[1].Local)
	assert.Equal(t, fn.Locals[0].ID, fn.Params[0].Local)
}

func TestVerifyCatchesUndeclaredLocal(t *testing.T) {
	m := NewIrModule("main", 0, 0)
	fb := NewFuncBuilder(m.AllocFuncID(), "broken", I64(), true)
	fb.NewBlock()
	fb.SwitchTo(fb.Func.EntryBlock)
	fb.SetTerminator(Return(ValLocal(99))) // never declared
	m.AddFunction(fb.Finish())

	errs := Verify(m, func(string) bool { return false })
	require.NotEmpty(t, errs)
}

func TestVerifyAcceptsWellFormedUnreachableDeadCode(t *testing.T) {
	m := NewIrModule("main", 0, 0)
	fb := NewFuncBuilder(m.AllocFuncID(), "early_return", I64(), true)
	entry := fb.NewBlock()
	dead := fb.NewBlock() // unreachable block left by a `return` lowering
	fb.SwitchTo(entry)
	fb.SetTerminator(Return(ValConst(ConstI(0))))
	fb.SwitchTo(dead)
	// leave Unreachable: dead is not reachable from entry, so Verify must accept it
	fn := fb.Finish()
	m.AddFunction(fn)

	errs := Verify(m, func(string) bool { return false })
	assert.Empty(t, errs)
}

func TestVerifyFlagsReachableUnreachableBlock(t *testing.T) {
	m := NewIrModule("main", 0, 0)
	fb := NewFuncBuilder(m.AllocFuncID(), "falls_off", I64(), true)
	entry := fb.NewBlock()
	next := fb.NewBlock()
	fb.SwitchTo(entry)
	fb.SetTerminator(Jump(next))
	fb.SwitchTo(next)
	// left as Unreachable but IS reachable from entry via the jump above
	m.AddFunction(fb.Finish())

	errs := Verify(m, func(string) bool { return false })
	require.NotEmpty(t, errs)
}

func TestVerifyResolvesCallsAgainstRuntimeTable(t *testing.T) {
	m := NewIrModule("main", 0, 0)
	fb := NewFuncBuilder(m.AllocFuncID(), "main", I64(), true)
	fb.NewBlock()
	fb.SwitchTo(fb.Func.EntryBlock)
	fb.Emit(Call(nil, "zaco_println_str", []Value{ValConst(ConstI(0))}))
	fb.SetTerminator(Return(ValConst(ConstI(0))))
	m.AddFunction(fb.Finish())

	errs := Verify(m, func(name string) bool { return name == "zaco_println_str" })
	assert.Empty(t, errs)

	errs = Verify(m, func(string) bool { return false })
	require.NotEmpty(t, errs)
}
