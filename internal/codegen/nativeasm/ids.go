package nativeasm

// Value names one instruction's result within a function body, the
// same role Cranelift's Value plays: an opaque handle, never a raw
// register.
type Value struct{ id int }

// Block names a native basic block within a function, mirroring
// Cranelift's Block.
type Block struct{ id int }

// FuncRef is a function reference resolved within one function body
// (the result of Module.DeclareFuncInFunc), distinct from the
// module-wide FuncID.
type FuncRef struct{ id int }

// FuncID identifies a function declared at the module level.
type FuncID int

// DataID identifies a data object (e.g. an interned string) declared
// at the module level.
type DataID int

// StackSlot identifies one stack-allocated local slot within a
// function body.
type StackSlot struct{ id int }
