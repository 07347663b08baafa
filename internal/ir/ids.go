package ir

// FuncID, StructID, LocalID, TempID and BlockID are opaque, monotonic
// identifiers allocated within one IrModule build. Ordering matches
// emission order (spec §5 "Ordering").
type FuncID uint64
type StructID uint64
type LocalID uint64
type TempID uint64
type BlockID uint64
