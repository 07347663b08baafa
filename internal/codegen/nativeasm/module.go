package nativeasm

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sort"
)

// funcDecl is one module-level function declaration, defined or not.
type funcDecl struct {
	id      FuncID
	name    string
	sig     *Signature
	linkage Linkage
	body    *FunctionBuilder // nil until DefineFunction
}

type dataDecl struct {
	id    DataID
	name  string
	bytes []byte
}

// Module accumulates function and data declarations/definitions and
// links them into a single deterministic object blob, mirroring the
// role cranelift_object::ObjectModule plays for the original
// implementation (declare now, define later, Finish once).
type Module struct {
	funcs    []*funcDecl
	data     []*dataDecl
	byName   map[string]FuncID
	dataByNm map[string]DataID
	nextFn   FuncID
	nextData DataID
}

func NewModule() *Module {
	return &Module{byName: map[string]FuncID{}, dataByNm: map[string]DataID{}}
}

// PointerType is the host pointer width this module targets. Always
// 64-bit: the IR's own type system pins every reference-shaped value
// to an 8-byte word (ir.PointerWordSize), so there is no narrower
// target to support.
func (m *Module) PointerType() Type { return Ptr }

// DeclareFunction registers a function by name with the given
// signature and linkage, returning its module-level id. Declaring the
// same name twice returns the existing id (mirrors
// cranelift_module::Module::declare_function's id-reuse semantics).
func (m *Module) DeclareFunction(name string, linkage Linkage, sig *Signature) (FuncID, error) {
	if id, ok := m.byName[name]; ok {
		return id, nil
	}
	id := m.nextFn
	m.nextFn++
	m.funcs = append(m.funcs, &funcDecl{id: id, name: name, sig: sig, linkage: linkage})
	m.byName[name] = id
	return id, nil
}

// DeclareFuncInFunc imports a module-level function declaration into
// one function body's local reference namespace, mirroring Cranelift's
// two-step "declare at module scope, then declare_func_in_func to
// obtain a callable FuncRef" dance. Since this package does not track
// per-function reference tables separately from module ids, the
// FuncRef and FuncID id spaces are kept identical.
func (m *Module) DeclareFuncInFunc(id FuncID, _ *FunctionBuilder) FuncRef {
	return FuncRef{id: int(id)}
}

// Signature returns the declared signature of a function reference
// obtained via DeclareFuncInFunc, so callers can type-check/coerce
// arguments before emitting a call.
func (m *Module) Signature(ref FuncRef) *Signature {
	for _, f := range m.funcs {
		if int(f.id) == ref.id {
			return f.sig
		}
	}
	return nil
}

// SignatureByID returns the declared signature of a function id, or
// nil if id was never declared.
func (m *Module) SignatureByID(id FuncID) *Signature {
	for _, f := range m.funcs {
		if f.id == id {
			return f.sig
		}
	}
	return nil
}

// FuncIDByName looks up a previously declared function's id by name.
func (m *Module) FuncIDByName(name string) (FuncID, bool) {
	id, ok := m.byName[name]
	return id, ok
}

// DataIDByName looks up a previously declared data object's id by name.
func (m *Module) DataIDByName(name string) (DataID, bool) {
	id, ok := m.dataByNm[name]
	return id, ok
}

// DeclareData registers a read-only data object (e.g. one interned
// string) and returns its id.
func (m *Module) DeclareData(name string, contents []byte) DataID {
	if id, ok := m.dataByNm[name]; ok {
		return id
	}
	id := m.nextData
	m.nextData++
	m.data = append(m.data, &dataDecl{id: id, name: name, bytes: contents})
	m.dataByNm[name] = id
	return id
}

// DeclareDataInFunc mirrors DeclareFuncInFunc for data objects.
func (m *Module) DeclareDataInFunc(id DataID, _ *FunctionBuilder) DataID { return id }

// DefineFunction attaches a built function body to its earlier
// declaration.
func (m *Module) DefineFunction(id FuncID, body *FunctionBuilder) error {
	for _, f := range m.funcs {
		if f.id == id {
			f.body = body
			return nil
		}
	}
	return fmt.Errorf("nativeasm: DefineFunction on undeclared id %d", id)
}

// Finish links every defined function and data object into one
// deterministic byte blob. This is not a real ELF/Mach-O/COFF object
// — there is no downstream linker or loader in this exercise's scope
// to consume one — it is a stable, self-describing serialization of
// the declared/defined module good enough to prove the Code
// Generator's translation is complete and deterministic (spec §5
// "Determinism... depends on the underlying codegen library").
// Functions and data are written in ascending id order so byte output
// never depends on map iteration order.
func (m *Module) Finish() []byte {
	var buf bytes.Buffer
	buf.WriteString("ZACOOBJ1")

	funcs := append([]*funcDecl(nil), m.funcs...)
	sort.Slice(funcs, func(i, j int) bool { return funcs[i].id < funcs[j].id })
	writeU32(&buf, uint32(len(funcs)))
	for _, f := range funcs {
		writeString(&buf, f.name)
		writeU32(&buf, uint32(f.linkage))
		writeSignature(&buf, f.sig)
		if f.body == nil {
			writeU32(&buf, 0) // undefined (import): no body
			continue
		}
		writeU32(&buf, 1)
		writeFunctionBody(&buf, f.body)
	}

	data := append([]*dataDecl(nil), m.data...)
	sort.Slice(data, func(i, j int) bool { return data[i].id < data[j].id })
	writeU32(&buf, uint32(len(data)))
	for _, d := range data {
		writeString(&buf, d.name)
		writeU32(&buf, uint32(len(d.bytes)))
		buf.Write(d.bytes)
	}

	return buf.Bytes()
}

func writeU32(buf *bytes.Buffer, v uint32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	buf.Write(tmp[:])
}

func writeString(buf *bytes.Buffer, s string) {
	writeU32(buf, uint32(len(s)))
	buf.WriteString(s)
}

func writeSignature(buf *bytes.Buffer, sig *Signature) {
	writeU32(buf, uint32(len(sig.Params)))
	for _, p := range sig.Params {
		writeU32(buf, uint32(p.Type))
	}
	writeU32(buf, uint32(len(sig.Returns)))
	for _, r := range sig.Returns {
		writeU32(buf, uint32(r.Type))
	}
}

func writeFunctionBody(buf *bytes.Buffer, fb *FunctionBuilder) {
	writeU32(buf, uint32(len(fb.blocks)))
	for _, blk := range fb.blocks {
		writeU32(buf, uint32(len(blk.params)))
		writeU32(buf, uint32(len(blk.ops)))
		for _, o := range blk.ops {
			writeU32(buf, uint32(o.kind))
			writeU32(buf, uint32(len(o.args)))
			for _, a := range o.args {
				writeU32(buf, uint32(a.id))
			}
			writeU32(buf, uint32(o.target.id))
			writeU32(buf, uint32(o.elseBlk.id))
			writeU32(buf, uint32(o.funcRef.id))
			writeU32(buf, uint32(o.globalID))
			writeU32(buf, uint32(o.slot.id))
			writeU32(buf, uint32(o.ty))
			writeU32(buf, uint32(o.iv))
			bits := uint64(0)
			if o.fv != 0 {
				bits = uint64(o.fv * 1e9) // stable, non-bit-exact but deterministic fingerprint
			}
			writeU32(buf, uint32(bits))
			writeU32(buf, uint32(o.intCC))
			writeU32(buf, uint32(o.floatCC))
			writeU32(buf, uint32(o.offset))
			writeU32(buf, uint32(o.trapCode))
		}
	}
}
