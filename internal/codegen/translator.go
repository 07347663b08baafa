package codegen

import (
	"github.com/zacostudio/zacoc/internal/abi"
	"github.com/zacostudio/zacoc/internal/codegen/nativeasm"
	"github.com/zacostudio/zacoc/internal/ir"
)

// funcTranslator holds the per-function state needed to walk one
// IrFunction's blocks and emit the equivalent nativeasm instructions,
// mirroring translator.rs's FunctionTranslator.
type funcTranslator struct {
	nm          *nativeasm.Module
	mod         *ir.IrModule
	fn          *ir.IrFunction
	fb          *nativeasm.FunctionBuilder
	literalData []nativeasm.DataID
	localVal    map[ir.LocalID]nativeasm.Value
	tempVal     map[ir.TempID]nativeasm.Value
	blockMap    map[ir.BlockID]nativeasm.Block
	ptrTy       nativeasm.Type
}

func translateFunction(nm *nativeasm.Module, mod *ir.IrModule, fn *ir.IrFunction, literalData []nativeasm.DataID) *CodegenError {
	id, ok := nm.FuncIDByName(fn.Name)
	if !ok {
		return newErr(codeUndeclaredRef, "function %q was not declared", fn.Name)
	}
	sig := nm.SignatureByID(id)
	fb := nativeasm.NewFunctionBuilder(fn.Name, sig)

	t := &funcTranslator{
		nm:          nm,
		mod:         mod,
		fn:          fn,
		fb:          fb,
		literalData: literalData,
		localVal:    map[ir.LocalID]nativeasm.Value{},
		tempVal:     map[ir.TempID]nativeasm.Value{},
		blockMap:    map[ir.BlockID]nativeasm.Block{},
		ptrTy:       nm.PointerType(),
	}
	if err := t.translate(); err != nil {
		return err
	}
	if err := nm.DefineFunction(id, fb); err != nil {
		return newErr(codeBuilderFailure, "defining function %q: %v", fn.Name, err)
	}
	return nil
}

func (t *funcTranslator) translate() *CodegenError {
	entry := t.fb.CreateBlock()
	t.fb.AppendBlockParamsForFunctionParams(entry)
	t.fb.SwitchToBlock(entry)

	if t.fn.Name == "main" {
		if _, err := t.callByName("zaco_runtime_init", nil); err != nil {
			return err
		}
	}

	params := t.fb.BlockParams(entry)
	for i, p := range t.fn.Params {
		if i < len(params) {
			t.localVal[p.Local] = params[i]
		}
	}

	for _, l := range t.fn.Locals {
		if _, isParam := t.localVal[l.ID]; isParam {
			continue
		}
		slot := t.fb.CreateSizedStackSlot(uint32(l.Type.Size()))
		addr := t.fb.Ins().StackAddr(t.ptrTy, slot, 0)
		t.localVal[l.ID] = addr
	}

	for _, b := range t.fn.Blocks {
		t.blockMap[b.ID] = t.fb.CreateBlock()
	}

	entryTarget, ok := t.blockMap[t.fn.EntryBlock]
	if !ok {
		return newErr(codeUndeclaredRef, "function %s: entry block %d not found", t.fn.Name, t.fn.EntryBlock)
	}
	t.fb.Ins().Jump(entryTarget)
	t.fb.SealBlock(entry)

	for _, b := range t.fn.Blocks {
		if err := t.translateBlock(b); err != nil {
			return err
		}
	}

	t.fb.SealAllBlocks()
	t.fb.Finalize()
	return nil
}

func (t *funcTranslator) translateBlock(b *ir.Block) *CodegenError {
	blk, ok := t.blockMap[b.ID]
	if !ok {
		return newErr(codeUndeclaredRef, "function %s: block %d not found in block map", t.fn.Name, b.ID)
	}
	t.fb.SwitchToBlock(blk)
	for _, instr := range b.Instructions {
		if err := t.translateInstruction(instr); err != nil {
			return err
		}
	}
	return t.translateTerminator(b.Terminator)
}

func (t *funcTranslator) translateInstruction(instr ir.Instruction) *CodegenError {
	switch instr.Kind {
	case ir.IAssign:
		val, err := t.translateRValue(instr.AssignValue)
		if err != nil {
			return err
		}
		return t.storeToPlace(instr.AssignDest, val)

	case ir.ICall:
		result, err := t.translateCall(instr.CallFunc, instr.CallArgs)
		if err != nil {
			return err
		}
		if instr.CallDest != nil && result != nil {
			return t.storeToPlace(*instr.CallDest, *result)
		}
		return nil

	case ir.IAlloc:
		sizeVal := t.fb.Ins().Iconst(nativeasm.I64, int64(instr.AllocType.Size()))
		ptr, err := t.callByName("zaco_alloc", []nativeasm.Value{sizeVal})
		if err != nil {
			return err
		}
		if ptr == nil {
			return newErr(codeBuilderFailure, "function %s: zaco_alloc returned no value", t.fn.Name)
		}
		return t.storeToPlace(instr.AllocDest, *ptr)

	case ir.IFree:
		ptr, err := t.translateValue(instr.RCValue)
		if err != nil {
			return err
		}
		if _, err := t.callByName("zaco_free", []nativeasm.Value{ptr}); err != nil {
			return err
		}
		return nil

	case ir.IRefCount:
		return t.translateRefCount(instr)

	case ir.IClone:
		val, err := t.translateValue(instr.CloneSource)
		if err != nil {
			return err
		}
		if _, err := t.callByName("zaco_rc_inc", []nativeasm.Value{val}); err != nil {
			return err
		}
		return t.storeToPlace(instr.CloneDest, val)

	case ir.IStore:
		ptr, err := t.translateValue(instr.StorePtr)
		if err != nil {
			return err
		}
		val, err := t.translateValue(instr.StoreValue)
		if err != nil {
			return err
		}
		t.fb.Ins().Store(val, ptr, 0)
		return nil

	case ir.ILoad:
		ptr, err := t.translateValue(instr.LoadPtr)
		if err != nil {
			return err
		}
		nt, err := nativeType(instr.LoadType)
		if err != nil {
			return err
		}
		val := t.fb.Ins().Load(nt, ptr, 0)
		return t.storeToPlace(instr.LoadDest, val)
	}
	return newErr(codeBuilderFailure, "function %s: unknown instruction kind %v", t.fn.Name, instr.Kind)
}

func (t *funcTranslator) translateRefCount(instr ir.Instruction) *CodegenError {
	ptr, err := t.translateValue(instr.RCValue)
	if err != nil {
		return err
	}
	switch {
	case instr.RCDelta > 0:
		for i := int32(0); i < instr.RCDelta; i++ {
			if _, err := t.callByName("zaco_rc_inc", []nativeasm.Value{ptr}); err != nil {
				return err
			}
		}
	case instr.RCDelta < 0:
		name := "zaco_rc_dec"
		if instr.RCType.Kind == ir.TArray {
			name = "zaco_array_rc_dec"
		}
		for i := int32(0); i < -instr.RCDelta; i++ {
			if _, err := t.callByName(name, []nativeasm.Value{ptr}); err != nil {
				return err
			}
		}
	}
	return nil
}

func (t *funcTranslator) translateTerminator(term ir.Terminator) *CodegenError {
	ins := t.fb.Ins()
	switch term.Kind {
	case ir.TReturn:
		if t.fn.Name == "main" {
			if _, err := t.callByName("zaco_runtime_shutdown", nil); err != nil {
				return err
			}
		}
		if term.ReturnHasValue {
			val, err := t.translateValue(term.ReturnValue)
			if err != nil {
				return err
			}
			ins.Return([]nativeasm.Value{val})
		} else {
			ins.Return(nil)
		}
		return nil

	case ir.TBranch:
		cond, err := t.translateValue(term.Cond)
		if err != nil {
			return err
		}
		condBool := cond
		if t.fb.ValueType(cond) == nativeasm.F64 {
			zero := ins.F64const(0)
			condBool = ins.Fcmp(nativeasm.FNotEqual, cond, zero)
		}
		thenBlk, ok := t.blockMap[term.ThenBlock]
		if !ok {
			return newErr(codeUndeclaredRef, "function %s: block %d not found", t.fn.Name, term.ThenBlock)
		}
		elseBlk, ok := t.blockMap[term.ElseBlock]
		if !ok {
			return newErr(codeUndeclaredRef, "function %s: block %d not found", t.fn.Name, term.ElseBlock)
		}
		ins.Brif(condBool, thenBlk, elseBlk)
		return nil

	case ir.TJump:
		target, ok := t.blockMap[term.Target]
		if !ok {
			return newErr(codeUndeclaredRef, "function %s: block %d not found", t.fn.Name, term.Target)
		}
		ins.Jump(target)
		return nil

	case ir.TUnreachable:
		ins.Trap(0)
		return nil
	}
	return newErr(codeBuilderFailure, "function %s: unknown terminator kind %v", t.fn.Name, term.Kind)
}

func (t *funcTranslator) translateRValue(r ir.RValue) (nativeasm.Value, *CodegenError) {
	switch r.Kind {
	case ir.RUse:
		return t.translateValue(r.Use)
	case ir.RBinaryOp:
		lhs, err := t.translateValue(r.Left)
		if err != nil {
			return nativeasm.Value{}, err
		}
		rhs, err := t.translateValue(r.Right)
		if err != nil {
			return nativeasm.Value{}, err
		}
		return t.translateBinOp(r.Op, lhs, rhs), nil
	case ir.RUnaryOp:
		v, err := t.translateValue(r.Operand)
		if err != nil {
			return nativeasm.Value{}, err
		}
		return t.translateUnOp(r.UOp, v), nil
	case ir.RCast:
		v, err := t.translateValue(r.CastValue)
		if err != nil {
			return nativeasm.Value{}, err
		}
		return t.translateCast(v, r.CastTo)
	case ir.RStructInit:
		return t.translateStructInit(r)
	case ir.RArrayInit:
		return t.translateArrayInit(r)
	case ir.RStrConcat:
		return t.translateStrConcat(r)
	case ir.RRead:
		return t.translateRead(r)
	}
	return nativeasm.Value{}, newErr(codeBuilderFailure, "function %s: unknown rvalue kind %v", t.fn.Name, r.Kind)
}

func (t *funcTranslator) translateBinOp(op ir.BinOp, lhs, rhs nativeasm.Value) nativeasm.Value {
	isFloat := t.fb.ValueType(lhs) == nativeasm.F64
	ins := t.fb.Ins()
	switch op {
	case ir.OpAdd:
		if isFloat {
			return ins.Fadd(lhs, rhs)
		}
		return ins.Iadd(lhs, rhs)
	case ir.OpSub:
		if isFloat {
			return ins.Fsub(lhs, rhs)
		}
		return ins.Isub(lhs, rhs)
	case ir.OpMul:
		if isFloat {
			return ins.Fmul(lhs, rhs)
		}
		return ins.Imul(lhs, rhs)
	case ir.OpDiv:
		if isFloat {
			return ins.Fdiv(lhs, rhs)
		}
		return t.guardedIntDiv(lhs, rhs, false)
	case ir.OpMod:
		if isFloat {
			div := ins.Fdiv(lhs, rhs)
			floored := ins.Floor(div)
			product := ins.Fmul(floored, rhs)
			return ins.Fsub(lhs, product)
		}
		return t.guardedIntDiv(lhs, rhs, true)
	case ir.OpEq:
		if isFloat {
			return ins.Fcmp(nativeasm.FEqual, lhs, rhs)
		}
		return ins.Icmp(nativeasm.Equal, lhs, rhs)
	case ir.OpNeq:
		if isFloat {
			return ins.Fcmp(nativeasm.FNotEqual, lhs, rhs)
		}
		return ins.Icmp(nativeasm.NotEqual, lhs, rhs)
	case ir.OpLt:
		if isFloat {
			return ins.Fcmp(nativeasm.FLessThan, lhs, rhs)
		}
		return ins.Icmp(nativeasm.SignedLessThan, lhs, rhs)
	case ir.OpLte:
		if isFloat {
			return ins.Fcmp(nativeasm.FLessThanOrEqual, lhs, rhs)
		}
		return ins.Icmp(nativeasm.SignedLessThanOrEqual, lhs, rhs)
	case ir.OpGt:
		if isFloat {
			return ins.Fcmp(nativeasm.FGreaterThan, lhs, rhs)
		}
		return ins.Icmp(nativeasm.SignedGreaterThan, lhs, rhs)
	case ir.OpGte:
		if isFloat {
			return ins.Fcmp(nativeasm.FGreaterThanOrEqual, lhs, rhs)
		}
		return ins.Icmp(nativeasm.SignedGreaterThanOrEqual, lhs, rhs)
	case ir.OpAnd:
		return ins.Band(lhs, rhs)
	case ir.OpOr:
		return ins.Bor(lhs, rhs)
	}
	return lhs
}

// guardedIntDiv implements integer division/modulo with a
// divide-by-zero guard expressed as a select between the computed
// result and zero, never a raw trapping division (spec §4.3
// "Arithmetic").
func (t *funcTranslator) guardedIntDiv(lhs, rhs nativeasm.Value, mod bool) nativeasm.Value {
	ins := t.fb.Ins()
	zero := ins.Iconst(nativeasm.I64, 0)
	isZero := ins.Icmp(nativeasm.Equal, rhs, zero)
	one := ins.Iconst(nativeasm.I64, 1)
	safeRhs := ins.Select(isZero, one, rhs)
	var result nativeasm.Value
	if mod {
		result = ins.Srem(lhs, safeRhs)
	} else {
		result = ins.Sdiv(lhs, safeRhs)
	}
	return ins.Select(isZero, zero, result)
}

func (t *funcTranslator) translateUnOp(op ir.UnOp, v nativeasm.Value) nativeasm.Value {
	isFloat := t.fb.ValueType(v) == nativeasm.F64
	ins := t.fb.Ins()
	switch op {
	case ir.OpNeg:
		if isFloat {
			return ins.Fneg(v)
		}
		return ins.Ineg(v)
	case ir.OpNot:
		if isFloat {
			zero := ins.F64const(0)
			return ins.Fcmp(nativeasm.FEqual, v, zero)
		}
		zero := ins.Iconst(nativeasm.I8, 0)
		return ins.Icmp(nativeasm.Equal, v, zero)
	}
	return v
}

// translateCast implements the 3x3 I8/I64/F64 conversion matrix, plus
// the identity/pointer-width passthrough cases (spec §4.3 "Cast").
func (t *funcTranslator) translateCast(val nativeasm.Value, to ir.Type) (nativeasm.Value, *CodegenError) {
	srcTy := t.fb.ValueType(val)
	dstTy, err := nativeType(to)
	if err != nil {
		return nativeasm.Value{}, err
	}
	ins := t.fb.Ins()
	switch {
	case srcTy == dstTy:
		return val, nil
	case srcTy == nativeasm.I64 && dstTy == nativeasm.F64:
		return ins.FcvtFromSint(nativeasm.F64, val), nil
	case srcTy == nativeasm.F64 && dstTy == nativeasm.I64:
		return ins.FcvtToSintSat(nativeasm.I64, val), nil
	case srcTy == nativeasm.I64 && dstTy == nativeasm.I8:
		return ins.Ireduce(nativeasm.I8, val), nil
	case srcTy == nativeasm.I8 && dstTy == nativeasm.I64:
		return ins.Uextend(nativeasm.I64, val), nil
	case srcTy == nativeasm.F64 && dstTy == nativeasm.I8:
		i64v := ins.FcvtToSintSat(nativeasm.I64, val)
		return ins.Ireduce(nativeasm.I8, i64v), nil
	case srcTy == nativeasm.I8 && dstTy == nativeasm.F64:
		i64v := ins.Uextend(nativeasm.I64, val)
		return ins.FcvtFromSint(nativeasm.F64, i64v), nil
	case srcTy.IsInt() && dstTy.IsInt():
		if srcTy.Bits() < dstTy.Bits() {
			return ins.Uextend(dstTy, val), nil
		}
		return ins.Ireduce(dstTy, val), nil
	default:
		return val, nil
	}
}

func (t *funcTranslator) translateStructInit(r ir.RValue) (nativeasm.Value, *CodegenError) {
	sd := t.mod.StructByID(r.StructID)
	if sd == nil {
		return nativeasm.Value{}, newErr(codeUndeclaredRef, "function %s: struct #%d not found", t.fn.Name, r.StructID)
	}
	sizeVal := t.fb.Ins().Iconst(nativeasm.I64, int64(sd.Size()))
	ptr, err := t.callByName("zaco_alloc", []nativeasm.Value{sizeVal})
	if err != nil {
		return nativeasm.Value{}, err
	}
	if ptr == nil {
		return nativeasm.Value{}, newErr(codeBuilderFailure, "function %s: zaco_alloc returned no value", t.fn.Name)
	}
	for i, fv := range r.Fields {
		val, err := t.translateValue(fv)
		if err != nil {
			return nativeasm.Value{}, err
		}
		t.fb.Ins().Store(val, *ptr, int32(sd.FieldOffset(i)))
	}
	return *ptr, nil
}

// translateArrayInit allocates a length-prefixed buffer: an 8-byte
// element count followed by elements packed at the native width of
// the first translated element (8 bytes when the array is empty,
// since there is no element to measure), per spec §4.3 "ArrayInit".
func (t *funcTranslator) translateArrayInit(r ir.RValue) (nativeasm.Value, *CodegenError) {
	ins := t.fb.Ins()
	if len(r.Elements) == 0 {
		sizeVal := ins.Iconst(nativeasm.I64, 8)
		ptr, err := t.callByName("zaco_alloc", []nativeasm.Value{sizeVal})
		if err != nil {
			return nativeasm.Value{}, err
		}
		if ptr == nil {
			return nativeasm.Value{}, newErr(codeBuilderFailure, "function %s: zaco_alloc returned no value", t.fn.Name)
		}
		zero := ins.Iconst(nativeasm.I64, 0)
		ins.Store(zero, *ptr, 0)
		return *ptr, nil
	}

	vals := make([]nativeasm.Value, len(r.Elements))
	for i, e := range r.Elements {
		v, err := t.translateValue(e)
		if err != nil {
			return nativeasm.Value{}, err
		}
		vals[i] = v
	}
	elemSize := t.fb.ValueType(vals[0]).Bits() / 8
	if elemSize == 0 {
		elemSize = 8
	}
	total := 8 + len(vals)*elemSize
	sizeVal := ins.Iconst(nativeasm.I64, int64(total))
	ptr, err := t.callByName("zaco_alloc", []nativeasm.Value{sizeVal})
	if err != nil {
		return nativeasm.Value{}, err
	}
	if ptr == nil {
		return nativeasm.Value{}, newErr(codeBuilderFailure, "function %s: zaco_alloc returned no value", t.fn.Name)
	}
	lenVal := ins.Iconst(nativeasm.I64, int64(len(vals)))
	ins.Store(lenVal, *ptr, 0)
	for i, v := range vals {
		ins.Store(v, *ptr, int32(8+i*elemSize))
	}
	return *ptr, nil
}

// translateStrConcat folds left with zaco_str_concat; an empty part
// list materializes the interned empty string (spec §4.3 "StrConcat").
func (t *funcTranslator) translateStrConcat(r ir.RValue) (nativeasm.Value, *CodegenError) {
	if len(r.Parts) == 0 {
		emptyIdx := -1
		for i, s := range t.mod.StringLiterals {
			if s == "" {
				emptyIdx = i
				break
			}
		}
		if emptyIdx < 0 {
			raw := t.fb.Ins().GlobalValue(t.ptrTy, t.nm.DeclareData("str$empty", []byte("")))
			res, err := t.callByName("zaco_str_new", []nativeasm.Value{raw})
			if err != nil {
				return nativeasm.Value{}, err
			}
			if res == nil {
				return nativeasm.Value{}, newErr(codeBuilderFailure, "function %s: zaco_str_new returned no value", t.fn.Name)
			}
			return *res, nil
		}
		return t.translateConstant(ir.Constant{Kind: ir.ConstStr, StrIndex: emptyIdx})
	}

	result, err := t.translateValue(r.Parts[0])
	if err != nil {
		return nativeasm.Value{}, err
	}
	for _, p := range r.Parts[1:] {
		next, err := t.translateValue(p)
		if err != nil {
			return nativeasm.Value{}, err
		}
		res, err := t.callByName("zaco_str_concat", []nativeasm.Value{result, next})
		if err != nil {
			return nativeasm.Value{}, err
		}
		if res == nil {
			return nativeasm.Value{}, newErr(codeBuilderFailure, "function %s: zaco_str_concat returned no value", t.fn.Name)
		}
		result = *res
	}
	return result, nil
}

func (t *funcTranslator) translateRead(r ir.RValue) (nativeasm.Value, *CodegenError) {
	if r.ReadFrom.IsBare() {
		return t.translateValue(r.ReadFrom.Base)
	}
	addr, err := t.computePlaceAddress(r.ReadFrom)
	if err != nil {
		return nativeasm.Value{}, err
	}
	ty := t.projectedType(r.ReadFrom)
	nt, tyErr := nativeType(ty)
	if tyErr != nil {
		return nativeasm.Value{}, tyErr
	}
	return t.fb.Ins().Load(nt, addr, 0), nil
}

func (t *funcTranslator) translateValue(v ir.Value) (nativeasm.Value, *CodegenError) {
	switch v.Kind {
	case ir.VConst:
		return t.translateConstant(v.Const)
	case ir.VLocal:
		addr, ok := t.localVal[v.Local]
		if !ok {
			return nativeasm.Value{}, newErr(codeUndeclaredRef, "function %s: local %d not found", t.fn.Name, v.Local)
		}
		if t.isParamLocal(v.Local) {
			return addr, nil
		}
		l := t.fn.LocalByID(v.Local)
		if l == nil {
			return nativeasm.Value{}, newErr(codeUndeclaredRef, "function %s: local %d has no declared type", t.fn.Name, v.Local)
		}
		nt, err := nativeType(l.Type)
		if err != nil {
			return nativeasm.Value{}, err
		}
		return t.fb.Ins().Load(nt, addr, 0), nil
	case ir.VTemp:
		val, ok := t.tempVal[v.Temp]
		if !ok {
			return nativeasm.Value{}, newErr(codeUndeclaredRef, "function %s: temp %d not found", t.fn.Name, v.Temp)
		}
		return val, nil
	}
	return nativeasm.Value{}, newErr(codeBuilderFailure, "function %s: unknown value kind %v", t.fn.Name, v.Kind)
}

func (t *funcTranslator) isParamLocal(id ir.LocalID) bool {
	for _, p := range t.fn.Params {
		if p.Local == id {
			return true
		}
	}
	return false
}

func (t *funcTranslator) translateConstant(c ir.Constant) (nativeasm.Value, *CodegenError) {
	ins := t.fb.Ins()
	switch c.Kind {
	case ir.ConstI64:
		return ins.Iconst(nativeasm.I64, c.I64), nil
	case ir.ConstF64:
		return ins.F64const(c.F64), nil
	case ir.ConstBool:
		v := int64(0)
		if c.Bool {
			v = 1
		}
		return ins.Iconst(nativeasm.I8, v), nil
	case ir.ConstNull:
		return ins.Iconst(t.ptrTy, 0), nil
	case ir.ConstStr:
		if c.StrIndex < 0 || c.StrIndex >= len(t.literalData) {
			return nativeasm.Value{}, newErr(codeBadStringLit, "function %s: string literal index %d out of range", t.fn.Name, c.StrIndex)
		}
		raw := ins.GlobalValue(t.ptrTy, t.literalData[c.StrIndex])
		res, err := t.callByName("zaco_str_new", []nativeasm.Value{raw})
		if err != nil {
			return nativeasm.Value{}, err
		}
		if res == nil {
			return nativeasm.Value{}, newErr(codeBuilderFailure, "function %s: zaco_str_new returned no value", t.fn.Name)
		}
		return *res, nil
	}
	return nativeasm.Value{}, newErr(codeBuilderFailure, "function %s: unknown constant kind %v", t.fn.Name, c.Kind)
}

// translateCall resolves a call instruction's callee (which must be a
// Const(Str(name)) operand, a Lowerer invariant) and coerces its
// arguments before dispatching through callByName.
func (t *funcTranslator) translateCall(callee ir.Value, args []ir.Value) (*nativeasm.Value, *CodegenError) {
	if callee.Kind != ir.VConst || callee.Const.Kind != ir.ConstStr {
		return nil, newErr(codeUnresolvedCall, "function %s: call target must be a resolved name", t.fn.Name)
	}
	name := callee.Const.StrVal
	vals := make([]nativeasm.Value, len(args))
	for i, a := range args {
		v, err := t.translateValue(a)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return t.callByName(name, vals)
}

// callByName resolves name against the module's declarations (module
// functions, externs, runtime symbols all live in the same
// nativeasm.Module namespace), coerces args to the declared parameter
// types, and emits the call (spec §4.3 "Call"). A runtime ABI symbol
// that is not declared yet, such as one the translator calls on its
// own (zaco_runtime_init, zaco_alloc, zaco_str_new), is imported on
// first use; any other undeclared name is rejected.
func (t *funcTranslator) callByName(name string, args []nativeasm.Value) (*nativeasm.Value, *CodegenError) {
	id, ok := t.nm.FuncIDByName(name)
	if !ok {
		rsig, known := abi.Lookup(name)
		if !known {
			return nil, newErr(codeUnresolvedCall, "function %s: call to undeclared symbol %q", t.fn.Name, name)
		}
		nsig, err := nativeSignature(rsig.Params, rsig.Ret)
		if err != nil {
			return nil, err
		}
		var declErr error
		if id, declErr = t.nm.DeclareFunction(name, nativeasm.LinkageImport, nsig); declErr != nil {
			return nil, newErr(codeBuilderFailure, "declaring runtime symbol %q: %v", name, declErr)
		}
	}
	sig := t.nm.SignatureByID(id)
	if sig == nil {
		return nil, newErr(codeBuilderFailure, "function %s: symbol %q has no signature", t.fn.Name, name)
	}
	ref := t.nm.DeclareFuncInFunc(id, t.fb)
	coerced := t.coerceArgs(sig, args)

	hasRet := len(sig.Returns) > 0
	var retTy nativeasm.Type
	if hasRet {
		retTy = sig.Returns[0].Type
	}
	inst := t.fb.Ins().Call(ref, coerced, retTy, hasRet)
	results := t.fb.InstResults(inst)
	if len(results) == 0 {
		return nil, nil
	}
	return &results[0], nil
}

// coerceArgs widens a smaller integer argument to a larger declared
// parameter type via zero-extension, narrows a larger one via
// truncation, and passes any other mismatch through unchanged (spec
// §4.3 "Call": "coerce args — small-int to larger via zero-extension,
// larger to smaller via truncation").
func (t *funcTranslator) coerceArgs(sig *nativeasm.Signature, args []nativeasm.Value) []nativeasm.Value {
	out := make([]nativeasm.Value, len(args))
	ins := t.fb.Ins()
	for i, a := range args {
		if i >= len(sig.Params) {
			out[i] = a
			continue
		}
		want := sig.Params[i].Type
		have := t.fb.ValueType(a)
		switch {
		case have == want:
			out[i] = a
		case have.IsInt() && want.IsInt() && have.Bits() < want.Bits():
			out[i] = ins.Uextend(want, a)
		case have.IsInt() && want.IsInt() && have.Bits() > want.Bits():
			out[i] = ins.Ireduce(want, a)
		default:
			out[i] = a
		}
	}
	return out
}

// storeToPlace writes val to place: a bare place is a direct
// local/temp binding, a projected one requires computing a memory
// address first (spec §4.3 "Place addressing").
func (t *funcTranslator) storeToPlace(place ir.Place, val nativeasm.Value) *CodegenError {
	if place.IsBare() {
		switch place.Base.Kind {
		case ir.VLocal:
			if t.isParamLocal(place.Base.Local) {
				return newErr(codeBuilderFailure, "function %s: cannot store to parameter local %d", t.fn.Name, place.Base.Local)
			}
			addr, ok := t.localVal[place.Base.Local]
			if !ok {
				return newErr(codeUndeclaredRef, "function %s: local %d not found", t.fn.Name, place.Base.Local)
			}
			t.fb.Ins().Store(val, addr, 0)
			return nil
		case ir.VTemp:
			t.tempVal[place.Base.Temp] = val
			return nil
		default:
			return newErr(codeBuilderFailure, "function %s: cannot store to a constant place", t.fn.Name)
		}
	}
	addr, err := t.computePlaceAddress(place)
	if err != nil {
		return err
	}
	t.fb.Ins().Store(val, addr, 0)
	return nil
}

// computePlaceAddress walks place's projections left to right,
// resolving the running pointer value: Deref loads through it,
// Field(i) adds the struct's precomputed field offset, Index(v)
// multiplies by the element size and adds. A base type that is not a
// known struct/array falls back to an 8-byte stride, the documented
// limitation of spec §9.
func (t *funcTranslator) computePlaceAddress(place ir.Place) (nativeasm.Value, *CodegenError) {
	ptr, err := t.translateValue(place.Base)
	if err != nil {
		return nativeasm.Value{}, err
	}
	cur, _ := t.fn.TypeOfValue(place.Base)
	ins := t.fb.Ins()
	for _, proj := range place.Projections {
		switch proj.Kind {
		case ir.ProjDeref:
			loaded := ins.Load(t.ptrTy, ptr, 0)
			ptr = loaded
			if cur.Elem != nil {
				cur = *cur.Elem
			}
		case ir.ProjField:
			offset := int64(proj.Field) * 8
			if cur.Kind == ir.TStruct {
				if sd := t.mod.StructByID(cur.StructID); sd != nil && proj.Field < len(sd.Fields) {
					offset = int64(sd.FieldOffset(proj.Field))
					cur = sd.Fields[proj.Field].Type
				}
			}
			offVal := ins.Iconst(nativeasm.I64, offset)
			ptr = ins.Iadd(ptr, offVal)
		case ir.ProjIndex:
			idxVal, idxErr := t.translateValue(proj.Index)
			if idxErr != nil {
				return nativeasm.Value{}, idxErr
			}
			elemSize := int64(8)
			if cur.Kind == ir.TArray && cur.Elem != nil {
				elemSize = int64(cur.Elem.Size())
				cur = *cur.Elem
			}
			sizeVal := ins.Iconst(nativeasm.I64, elemSize)
			off := ins.Imul(idxVal, sizeVal)
			ptr = ins.Iadd(ptr, off)
		}
	}
	return ptr, nil
}

// projectedType mirrors computePlaceAddress's traversal purely at the
// type level, used by Read to know what native width to load.
func (t *funcTranslator) projectedType(p ir.Place) ir.Type {
	cur, ok := t.fn.TypeOfValue(p.Base)
	if !ok {
		cur = ir.Ptr()
	}
	for _, proj := range p.Projections {
		switch proj.Kind {
		case ir.ProjDeref:
			if cur.Elem != nil {
				cur = *cur.Elem
			} else {
				cur = ir.Ptr()
			}
		case ir.ProjField:
			if cur.Kind == ir.TStruct {
				if sd := t.mod.StructByID(cur.StructID); sd != nil && proj.Field < len(sd.Fields) {
					cur = sd.Fields[proj.Field].Type
					continue
				}
			}
			cur = ir.Ptr()
		case ir.ProjIndex:
			if cur.Kind == ir.TArray && cur.Elem != nil {
				cur = *cur.Elem
			} else {
				cur = ir.Ptr()
			}
		}
	}
	return cur
}
