package codegen

import (
	"github.com/zacostudio/zacoc/internal/codegen/nativeasm"
	"github.com/zacostudio/zacoc/internal/ir"
)

// nativeType maps an IR type to the native type the Code Generator
// lowers it to (spec §4.3 "Declaration pass" step 1, and translator.rs's
// ir_type_to_cranelift): I64→I64, F64→F64, Bool→I8, every
// reference-shaped variant (Ptr/Str/Array/Struct/FuncPtr/Promise)→the
// host pointer type. Void has no native representation and is an
// error to convert.
func nativeType(t ir.Type) (nativeasm.Type, *CodegenError) {
	switch t.Kind {
	case ir.TI64:
		return nativeasm.I64, nil
	case ir.TF64:
		return nativeasm.F64, nil
	case ir.TBool:
		return nativeasm.I8, nil
	case ir.TPtr, ir.TStr, ir.TArray, ir.TStruct, ir.TFuncPtr, ir.TPromise:
		return nativeasm.Ptr, nil
	case ir.TVoid:
		return 0, newErr(codeVoidValue, "cannot convert Void to a native type")
	default:
		return 0, newErr(codeBuilderFailure, "unknown IR type kind %v", t.Kind)
	}
}

func nativeSignature(params []ir.Type, ret ir.Type) (*nativeasm.Signature, *CodegenError) {
	sig := nativeasm.NewSignature()
	for _, p := range params {
		nt, err := nativeType(p)
		if err != nil {
			return nil, err
		}
		sig.AddParam(nt)
	}
	if ret.Kind != ir.TVoid {
		nt, err := nativeType(ret)
		if err != nil {
			return nil, err
		}
		sig.AddReturn(nt)
	}
	return sig, nil
}
