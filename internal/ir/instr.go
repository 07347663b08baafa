package ir

import "fmt"

// InstrKind tags the closed set of instruction forms (spec §3).
type InstrKind int

const (
	IAssign InstrKind = iota
	ICall
	IAlloc
	IFree
	IRefCount
	IClone
	IStore
	ILoad
)

// Instruction is one non-terminating step of a basic block.
type Instruction struct {
	Kind InstrKind

	// IAssign
	AssignDest  Place
	AssignValue RValue

	// ICall (also doubles as the Call payload referenced by RValue-less calls)
	CallDest *Place // nil when the call result is discarded
	CallFunc Value  // must be Const(Str(name)) once resolved by the Lowerer
	CallArgs []Value

	// IAlloc
	AllocDest Place
	AllocType Type

	// IFree / IRefCount / IClone share the Value/Delta fields
	RCValue Value
	RCDelta int32
	RCType  Type // element type, needed to pick zaco_array_rc_dec at negative delta

	CloneDest   Place
	CloneSource Value

	// IStore
	StorePtr   Value
	StoreValue Value

	// ILoad
	LoadDest Place
	LoadPtr  Value
	LoadType Type
}

func Assign(dest Place, v RValue) Instruction {
	return Instruction{Kind: IAssign, AssignDest: dest, AssignValue: v}
}

func Call(dest *Place, funcName string, args []Value) Instruction {
	return Instruction{
		Kind:     ICall,
		CallDest: dest,
		CallFunc: ValConst(Constant{Kind: ConstStr, StrVal: funcName}),
		CallArgs: args,
	}
}

func Alloc(dest Place, ty Type) Instruction {
	return Instruction{Kind: IAlloc, AllocDest: dest, AllocType: ty}
}

func Free(v Value) Instruction {
	return Instruction{Kind: IFree, RCValue: v}
}

func RefCount(v Value, delta int32, elemType Type) Instruction {
	return Instruction{Kind: IRefCount, RCValue: v, RCDelta: delta, RCType: elemType}
}

func Clone(dest Place, source Value) Instruction {
	return Instruction{Kind: IClone, CloneDest: dest, CloneSource: source}
}

func Store(ptr, value Value) Instruction {
	return Instruction{Kind: IStore, StorePtr: ptr, StoreValue: value}
}

func Load(dest Place, ptr Value, ty Type) Instruction {
	return Instruction{Kind: ILoad, LoadDest: dest, LoadPtr: ptr, LoadType: ty}
}

// CalleeName extracts the resolved function name from a Call
// instruction's CallFunc operand. Panics if CallFunc is not a
// Const(Str) — a Lowerer invariant violation, not a runtime case.
func (i Instruction) CalleeName() string {
	if i.Kind != ICall {
		panic("ir: CalleeName on non-Call instruction")
	}
	if i.CallFunc.Kind != VConst || i.CallFunc.Const.Kind != ConstStr {
		panic("ir: Call.func must be Const(Str(name))")
	}
	return i.CallFunc.Const.StrVal
}

func (i Instruction) String() string {
	switch i.Kind {
	case IAssign:
		return fmt.Sprintf("%s = %s", i.AssignDest, i.AssignValue)
	case ICall:
		dest := ""
		if i.CallDest != nil {
			dest = i.CallDest.String() + " = "
		}
		return fmt.Sprintf("%scall %s%v", dest, i.CalleeName(), i.CallArgs)
	case IAlloc:
		return fmt.Sprintf("%s = alloc %s", i.AllocDest, i.AllocType)
	case IFree:
		return fmt.Sprintf("free %s", i.RCValue)
	case IRefCount:
		return fmt.Sprintf("refcount %s %+d", i.RCValue, i.RCDelta)
	case IClone:
		return fmt.Sprintf("%s = clone %s", i.CloneDest, i.CloneSource)
	case IStore:
		return fmt.Sprintf("store %s -> %s", i.StoreValue, i.StorePtr)
	case ILoad:
		return fmt.Sprintf("%s = load %s", i.LoadDest, i.LoadPtr)
	default:
		return "<bad-instruction>"
	}
}

// TermKind tags the closed set of block terminators (spec §3).
type TermKind int

const (
	TReturn TermKind = iota
	TBranch
	TJump
	TUnreachable
)

// Terminator ends a basic block. The Go zero value has Kind TReturn
// (a void return); FuncBuilder.NewBlock gives each new block an
// Unreachable terminator explicitly.
type Terminator struct {
	Kind TermKind

	// TReturn
	ReturnValue    Value
	ReturnHasValue bool

	// TBranch
	Cond       Value
	ThenBlock  BlockID
	ElseBlock  BlockID

	// TJump
	Target BlockID
}

func Return(v Value) Terminator {
	return Terminator{Kind: TReturn, ReturnValue: v, ReturnHasValue: true}
}
func ReturnVoid() Terminator {
	return Terminator{Kind: TReturn}
}
func Branch(cond Value, then, els BlockID) Terminator {
	return Terminator{Kind: TBranch, Cond: cond, ThenBlock: then, ElseBlock: els}
}
func Jump(target BlockID) Terminator {
	return Terminator{Kind: TJump, Target: target}
}
func Unreachable() Terminator {
	return Terminator{Kind: TUnreachable}
}

func (t Terminator) String() string {
	switch t.Kind {
	case TReturn:
		if t.ReturnHasValue {
			return fmt.Sprintf("return %s", t.ReturnValue)
		}
		return "return"
	case TBranch:
		return fmt.Sprintf("branch %s ? block%d : block%d", t.Cond, t.ThenBlock, t.ElseBlock)
	case TJump:
		return fmt.Sprintf("jump block%d", t.Target)
	case TUnreachable:
		return "unreachable"
	default:
		return "<bad-terminator>"
	}
}
