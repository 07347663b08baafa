package nativeasm

import "fmt"

// Inst is an opaque handle to one emitted instruction, used to fetch
// its result value(s) after emission (mirrors Cranelift's Inst plus
// FunctionBuilder.inst_results).
type Inst struct{ id int }

type opKind int

const (
	opIconst opKind = iota
	opF64const
	opIadd
	opIsub
	opImul
	opSdiv
	opSrem
	opFadd
	opFsub
	opFmul
	opFdiv
	opFloor
	opIneg
	opFneg
	opBand
	opBor
	opBxor
	opBnot
	opIshl
	opSshr
	opIcmp
	opFcmp
	opSelect
	opUextend
	opIreduce
	opFcvtFromSint
	opFcvtToSintSat
	opStackAddr
	opGlobalValue
	opLoad
	opStore
	opCall
	opJump
	opBrif
	opReturn
	opTrap
)

// op is one recorded instruction; exactly which fields are
// meaningful depends on kind, matching the Ir package's own
// discriminated-union convention.
type op struct {
	kind     opKind
	result   Value  // valid when the op produces a value
	resTy    Type
	hasRes   bool
	args     []Value
	funcRef  FuncRef
	globalID DataID
	slot     StackSlot
	ty       Type
	iv       int64
	fv       float64
	intCC    IntCC
	floatCC  FloatCC
	target   Block
	elseBlk  Block
	offset   int32
	trapCode int
}

// fnBlock is one native block's recorded instruction stream.
type fnBlock struct {
	id     Block
	params []Value
	ops    []op
	sealed bool
}

// FunctionBuilder accumulates one function's blocks and instructions,
// mirroring Cranelift's FunctionBuilder bound to a Function.
type FunctionBuilder struct {
	Name    string
	Sig     *Signature
	blocks  []*fnBlock
	current int // index into blocks of the block currently being appended to
	valTy   map[int]Type
	nextVal int
	nextBlk int
	nextSlt int
	slots   []uint32 // size in bytes per stack slot, indexed by StackSlot.id
}

func NewFunctionBuilder(name string, sig *Signature) *FunctionBuilder {
	return &FunctionBuilder{Name: name, Sig: sig, valTy: map[int]Type{}, current: -1}
}

func (b *FunctionBuilder) newValue(ty Type) Value {
	v := Value{id: b.nextVal}
	b.nextVal++
	b.valTy[v.id] = ty
	return v
}

// ValueType returns the type a previously emitted value carries.
func (b *FunctionBuilder) ValueType(v Value) Type { return b.valTy[v.id] }

// CreateBlock allocates a fresh, empty block without switching to it.
func (b *FunctionBuilder) CreateBlock() Block {
	id := Block{id: b.nextBlk}
	b.nextBlk++
	b.blocks = append(b.blocks, &fnBlock{id: id})
	return id
}

// AppendBlockParamsForFunctionParams gives block one parameter value
// per signature parameter, in order — only meaningful for the entry
// block.
func (b *FunctionBuilder) AppendBlockParamsForFunctionParams(block Block) {
	fb := b.block(block)
	for _, p := range b.Sig.Params {
		fb.params = append(fb.params, b.newValue(p.Type))
	}
}

// BlockParams returns block's parameter values.
func (b *FunctionBuilder) BlockParams(block Block) []Value {
	return b.block(block).params
}

// SwitchToBlock moves the emission cursor to block; subsequent ins()
// calls append to it.
func (b *FunctionBuilder) SwitchToBlock(block Block) {
	for i, fb := range b.blocks {
		if fb.id == block {
			b.current = i
			return
		}
	}
	panic(fmt.Sprintf("nativeasm: unknown block %v", block))
}

// SealBlock marks block as having all of its predecessors known.
// Recorded for parity with Cranelift's API; this package has no SSA
// construction phase of its own to act on it.
func (b *FunctionBuilder) SealBlock(block Block) { b.block(block).sealed = true }

func (b *FunctionBuilder) SealAllBlocks() {
	for _, fb := range b.blocks {
		fb.sealed = true
	}
}

// CreateSizedStackSlot allocates a stack slot of the given byte size.
func (b *FunctionBuilder) CreateSizedStackSlot(size uint32) StackSlot {
	id := StackSlot{id: b.nextSlt}
	b.nextSlt++
	b.slots = append(b.slots, size)
	return id
}

func (b *FunctionBuilder) block(id Block) *fnBlock {
	for _, fb := range b.blocks {
		if fb.id == id {
			return fb
		}
	}
	panic(fmt.Sprintf("nativeasm: unknown block %v", id))
}

func (b *FunctionBuilder) emit(o op) Inst {
	fb := b.blocks[b.current]
	id := Inst{id: len(fb.ops)}
	fb.ops = append(fb.ops, o)
	return id
}

// InstResults returns the values an instruction produced, in order.
// A void instruction (store, jump, trap, a call to a Void-returning
// function) produces none.
func (b *FunctionBuilder) InstResults(i Inst) []Value {
	fb := b.blocks[b.current]
	o := fb.ops[i.id]
	if !o.hasRes {
		return nil
	}
	return []Value{o.result}
}

// Ins returns an instruction-issuing handle bound to the block
// currently selected by SwitchToBlock, mirroring Cranelift's
// `builder.ins()`.
func (b *FunctionBuilder) Ins() *InstBuilder { return &InstBuilder{b: b} }

// Finalize completes the function; in Cranelift this runs the SSA
// construction pass over unsealed blocks. This package's blocks never
// leave values implicit (every read is an explicit Value handle), so
// there is no pass left to run — Finalize exists for call-site parity
// with the original translator's structure.
func (b *FunctionBuilder) Finalize() {}

// InstBuilder issues instructions into the function's current block.
type InstBuilder struct{ b *FunctionBuilder }

func (i *InstBuilder) Iconst(ty Type, v int64) Value {
	val := i.b.newValue(ty)
	i.b.emit(op{kind: opIconst, result: val, hasRes: true, ty: ty, iv: v})
	return val
}

func (i *InstBuilder) F64const(v float64) Value {
	val := i.b.newValue(F64)
	i.b.emit(op{kind: opF64const, result: val, hasRes: true, fv: v})
	return val
}

func (i *InstBuilder) binop(kind opKind, resTy Type, a, b Value) Value {
	val := i.b.newValue(resTy)
	i.b.emit(op{kind: kind, result: val, hasRes: true, args: []Value{a, b}})
	return val
}

func (i *InstBuilder) Iadd(a, b Value) Value { return i.binop(opIadd, i.b.ValueType(a), a, b) }
func (i *InstBuilder) Isub(a, b Value) Value { return i.binop(opIsub, i.b.ValueType(a), a, b) }
func (i *InstBuilder) Imul(a, b Value) Value { return i.binop(opImul, i.b.ValueType(a), a, b) }
func (i *InstBuilder) Sdiv(a, b Value) Value { return i.binop(opSdiv, i.b.ValueType(a), a, b) }
func (i *InstBuilder) Srem(a, b Value) Value { return i.binop(opSrem, i.b.ValueType(a), a, b) }
func (i *InstBuilder) Fadd(a, b Value) Value { return i.binop(opFadd, F64, a, b) }
func (i *InstBuilder) Fsub(a, b Value) Value { return i.binop(opFsub, F64, a, b) }
func (i *InstBuilder) Fmul(a, b Value) Value { return i.binop(opFmul, F64, a, b) }
func (i *InstBuilder) Fdiv(a, b Value) Value { return i.binop(opFdiv, F64, a, b) }

func (i *InstBuilder) Floor(a Value) Value {
	val := i.b.newValue(F64)
	i.b.emit(op{kind: opFloor, result: val, hasRes: true, args: []Value{a}})
	return val
}

func (i *InstBuilder) Ineg(a Value) Value {
	val := i.b.newValue(i.b.ValueType(a))
	i.b.emit(op{kind: opIneg, result: val, hasRes: true, args: []Value{a}})
	return val
}

func (i *InstBuilder) Fneg(a Value) Value {
	val := i.b.newValue(F64)
	i.b.emit(op{kind: opFneg, result: val, hasRes: true, args: []Value{a}})
	return val
}

func (i *InstBuilder) Band(a, b Value) Value { return i.binop(opBand, i.b.ValueType(a), a, b) }
func (i *InstBuilder) Bor(a, b Value) Value  { return i.binop(opBor, i.b.ValueType(a), a, b) }
func (i *InstBuilder) Bxor(a, b Value) Value { return i.binop(opBxor, i.b.ValueType(a), a, b) }

func (i *InstBuilder) Bnot(a Value) Value {
	val := i.b.newValue(i.b.ValueType(a))
	i.b.emit(op{kind: opBnot, result: val, hasRes: true, args: []Value{a}})
	return val
}

func (i *InstBuilder) Ishl(a, b Value) Value { return i.binop(opIshl, i.b.ValueType(a), a, b) }
func (i *InstBuilder) Sshr(a, b Value) Value { return i.binop(opSshr, i.b.ValueType(a), a, b) }

func (i *InstBuilder) Icmp(cc IntCC, a, b Value) Value {
	val := i.b.newValue(I8)
	i.b.emit(op{kind: opIcmp, result: val, hasRes: true, args: []Value{a, b}, intCC: cc})
	return val
}

func (i *InstBuilder) Fcmp(cc FloatCC, a, b Value) Value {
	val := i.b.newValue(I8)
	i.b.emit(op{kind: opFcmp, result: val, hasRes: true, args: []Value{a, b}, floatCC: cc})
	return val
}

func (i *InstBuilder) Select(cond, a, b Value) Value {
	val := i.b.newValue(i.b.ValueType(a))
	i.b.emit(op{kind: opSelect, result: val, hasRes: true, args: []Value{cond, a, b}})
	return val
}

func (i *InstBuilder) Uextend(ty Type, v Value) Value {
	val := i.b.newValue(ty)
	i.b.emit(op{kind: opUextend, result: val, hasRes: true, args: []Value{v}, ty: ty})
	return val
}

func (i *InstBuilder) Ireduce(ty Type, v Value) Value {
	val := i.b.newValue(ty)
	i.b.emit(op{kind: opIreduce, result: val, hasRes: true, args: []Value{v}, ty: ty})
	return val
}

func (i *InstBuilder) FcvtFromSint(ty Type, v Value) Value {
	val := i.b.newValue(ty)
	i.b.emit(op{kind: opFcvtFromSint, result: val, hasRes: true, args: []Value{v}, ty: ty})
	return val
}

func (i *InstBuilder) FcvtToSintSat(ty Type, v Value) Value {
	val := i.b.newValue(ty)
	i.b.emit(op{kind: opFcvtToSintSat, result: val, hasRes: true, args: []Value{v}, ty: ty})
	return val
}

func (i *InstBuilder) StackAddr(ty Type, slot StackSlot, offset int32) Value {
	val := i.b.newValue(ty)
	i.b.emit(op{kind: opStackAddr, result: val, hasRes: true, slot: slot, offset: offset, ty: ty})
	return val
}

func (i *InstBuilder) GlobalValue(ty Type, id DataID) Value {
	val := i.b.newValue(ty)
	i.b.emit(op{kind: opGlobalValue, result: val, hasRes: true, globalID: id, ty: ty})
	return val
}

func (i *InstBuilder) Load(ty Type, ptr Value, offset int32) Value {
	val := i.b.newValue(ty)
	i.b.emit(op{kind: opLoad, result: val, hasRes: true, args: []Value{ptr}, ty: ty, offset: offset})
	return val
}

func (i *InstBuilder) Store(v, ptr Value, offset int32) {
	i.b.emit(op{kind: opStore, args: []Value{v, ptr}, offset: offset})
}

func (i *InstBuilder) Call(ref FuncRef, args []Value, retTy Type, hasRet bool) Inst {
	o := op{kind: opCall, funcRef: ref, args: args}
	if hasRet {
		o.result = i.b.newValue(retTy)
		o.hasRes = true
	}
	return i.b.emit(o)
}

func (i *InstBuilder) Jump(target Block) {
	i.b.emit(op{kind: opJump, target: target})
}

func (i *InstBuilder) Brif(cond Value, then, els Block) {
	i.b.emit(op{kind: opBrif, args: []Value{cond}, target: then, elseBlk: els})
}

func (i *InstBuilder) Return(vals []Value) {
	i.b.emit(op{kind: opReturn, args: vals})
}

func (i *InstBuilder) Trap(code int) {
	i.b.emit(op{kind: opTrap, trapCode: code})
}
