package ir

// FuncBuilder accumulates a single IrFunction's blocks, locals and
// temps while the Lowerer walks one function body. It mirrors the
// original lowerer's FuncCtx: emit appends to the current block,
// NewBlock allocates a fresh block without switching to it, SwitchTo
// moves the emission cursor.
type FuncBuilder struct {
	Func         *IrFunction
	CurrentBlock BlockID
	nextLocal    LocalID
	nextTemp     TempID
	nextBlock    BlockID
}

// NewFuncBuilder starts building a function with the given id, name
// and return type. The caller adds parameters via AddParam before
// lowering the body, then calls NewBlock to create the entry block.
func NewFuncBuilder(id FuncID, name string, ret Type, isPublic bool) *FuncBuilder {
	return &FuncBuilder{
		Func: &IrFunction{
			ID:         id,
			Name:       name,
			ReturnType: ret,
			IsPublic:   isPublic,
		},
	}
}

// AddParam declares a parameter; parameters must be added before any
// non-parameter local, since LocalID 0..N-1 = params (spec §3).
func (b *FuncBuilder) AddParam(ty Type, name string) LocalID {
	id := b.nextLocal
	b.nextLocal++
	b.Func.Locals = append(b.Func.Locals, Local{ID: id, Type: ty, Name: name})
	b.Func.Params = append(b.Func.Params, Param{Local: id, Type: ty})
	return id
}

// AddLocal declares a non-parameter local.
func (b *FuncBuilder) AddLocal(ty Type, name string) LocalID {
	id := b.nextLocal
	b.nextLocal++
	b.Func.Locals = append(b.Func.Locals, Local{ID: id, Type: ty, Name: name})
	return id
}

// AddTemp declares a fresh SSA temporary.
func (b *FuncBuilder) AddTemp(ty Type) TempID {
	id := b.nextTemp
	b.nextTemp++
	b.Func.Temps = append(b.Func.Temps, Temp{ID: id, Type: ty})
	return id
}

// NewBlock allocates a fresh block (default-Unreachable terminator)
// and appends it to the function, without switching the emission
// cursor to it.
func (b *FuncBuilder) NewBlock() BlockID {
	id := b.nextBlock
	b.nextBlock++
	blk := &Block{ID: id, Terminator: Unreachable()}
	b.Func.Blocks = append(b.Func.Blocks, blk)
	if len(b.Func.Blocks) == 1 {
		b.Func.EntryBlock = id
	}
	return id
}

// SwitchTo moves the emission cursor to block.
func (b *FuncBuilder) SwitchTo(block BlockID) { b.CurrentBlock = block }

// Emit appends instr to the current block.
func (b *FuncBuilder) Emit(instr Instruction) {
	b.Func.BlockByID(b.CurrentBlock).Instructions = append(b.Func.BlockByID(b.CurrentBlock).Instructions, instr)
}

// SetTerminator sets the current block's terminator. Per spec §3 this
// may be called more than once only before the block's instruction
// list is sealed (e.g. control-flow lowering sets a placeholder then
// refines it); callers follow that discipline, it is not enforced at
// runtime here.
func (b *FuncBuilder) SetTerminator(t Terminator) {
	b.Func.BlockByID(b.CurrentBlock).Terminator = t
}

// HasTerminator reports whether the current block already ended with
// something other than the default Unreachable — used by statement
// lowering to decide whether to append a fallthrough jump.
func (b *FuncBuilder) HasTerminator() bool {
	t := b.Func.BlockByID(b.CurrentBlock).Terminator
	return t.Kind != TUnreachable
}

// Finish returns the built function after sealing every block's
// instruction list.
func (b *FuncBuilder) Finish() *IrFunction {
	for _, blk := range b.Func.Blocks {
		blk.SealInstructions()
	}
	return b.Func
}
