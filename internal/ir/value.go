package ir

import "fmt"

// ConstKind tags the closed set of compile-time constant values.
type ConstKind int

const (
	ConstI64 ConstKind = iota
	ConstF64
	ConstBool
	ConstNull
	ConstStr
)

// Constant is an immediate value embeddable directly in the IR: I64 |
// F64 | Bool | Null | Str(String). A Str literal carries its index
// into the owning module's intern pool (StrIndex), which codegen uses
// for lookups, alongside the raw text (StrVal); a Call's target is a
// Str constant that sets only StrVal.
type Constant struct {
	Kind     ConstKind
	I64      int64
	F64      float64
	Bool     bool
	StrIndex int // valid iff Kind == ConstStr
	StrVal   string
}

func ConstI(v int64) Constant  { return Constant{Kind: ConstI64, I64: v} }
func ConstF(v float64) Constant { return Constant{Kind: ConstF64, F64: v} }
func ConstB(v bool) Constant   { return Constant{Kind: ConstBool, Bool: v} }
func ConstNullVal() Constant   { return Constant{Kind: ConstNull} }

func (c Constant) String() string {
	switch c.Kind {
	case ConstI64:
		return fmt.Sprintf("%d", c.I64)
	case ConstF64:
		return fmt.Sprintf("%g", c.F64)
	case ConstBool:
		return fmt.Sprintf("%t", c.Bool)
	case ConstNull:
		return "null"
	case ConstStr:
		return fmt.Sprintf("str#%d(%q)", c.StrIndex, c.StrVal)
	default:
		return "<bad-const>"
	}
}

// ValueKind tags the closed set of SSA-shaped operand forms.
type ValueKind int

const (
	VConst ValueKind = iota
	VLocal
	VTemp
)

// Value is an operand: Const(Constant) | Local(LocalID) | Temp(TempID).
type Value struct {
	Kind  ValueKind
	Const Constant
	Local LocalID
	Temp  TempID
}

func ValConst(c Constant) Value { return Value{Kind: VConst, Const: c} }
func ValLocal(id LocalID) Value { return Value{Kind: VLocal, Local: id} }
func ValTemp(id TempID) Value   { return Value{Kind: VTemp, Temp: id} }

func (v Value) String() string {
	switch v.Kind {
	case VConst:
		return v.Const.String()
	case VLocal:
		return fmt.Sprintf("local%d", v.Local)
	case VTemp:
		return fmt.Sprintf("temp%d", v.Temp)
	default:
		return "<bad-value>"
	}
}
