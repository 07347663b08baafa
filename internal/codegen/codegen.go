package codegen

import (
	"fmt"

	"github.com/zacostudio/zacoc/internal/abi"
	"github.com/zacostudio/zacoc/internal/codegen/nativeasm"
	"github.com/zacostudio/zacoc/internal/ir"
)

// CompileModule is the Code Generator's public contract (spec §4.3):
// translate a finished IrModule into a native object blob. A
// declaration pass runs first — every module function, every extern
// and runtime symbol the module actually calls, and every interned
// string — followed by a per-function translation pass grounded on
// original_source/crates/zaco-codegen/src/translator.rs.
func CompileModule(mod *ir.IrModule) ([]byte, *CodegenError) {
	nm := nativeasm.NewModule()

	for _, f := range mod.Functions {
		sig, err := nativeSignature(paramTypes(f), f.ReturnType)
		if err != nil {
			return nil, err
		}
		linkage := nativeasm.LinkageLocal
		if f.IsPublic {
			linkage = nativeasm.LinkageExport
		}
		if _, declErr := nm.DeclareFunction(f.Name, linkage, sig); declErr != nil {
			return nil, newErr(codeBuilderFailure, "declaring function %q: %v", f.Name, declErr)
		}
	}

	for _, e := range mod.ExternFunctions {
		sig, err := nativeSignature(e.Params, e.Ret)
		if err != nil {
			return nil, err
		}
		if _, declErr := nm.DeclareFunction(e.Name, nativeasm.LinkageImport, sig); declErr != nil {
			return nil, newErr(codeBuilderFailure, "declaring extern %q: %v", e.Name, declErr)
		}
	}
	for _, name := range scanRuntimeSymbols(mod) {
		rsig, ok := abi.Lookup(name)
		if !ok {
			continue
		}
		sig, err := nativeSignature(rsig.Params, rsig.Ret)
		if err != nil {
			return nil, err
		}
		if _, declErr := nm.DeclareFunction(name, nativeasm.LinkageImport, sig); declErr != nil {
			return nil, newErr(codeBuilderFailure, "declaring runtime symbol %q: %v", name, declErr)
		}
	}

	literalData := make([]nativeasm.DataID, len(mod.StringLiterals))
	for i, s := range mod.StringLiterals {
		literalData[i] = nm.DeclareData(fmt.Sprintf("str$%d", i), []byte(s))
	}

	for _, f := range mod.Functions {
		if err := translateFunction(nm, mod, f, literalData); err != nil {
			return nil, err
		}
	}

	return nm.Finish(), nil
}

func paramTypes(f *ir.IrFunction) []ir.Type {
	types := make([]ir.Type, len(f.Params))
	for i, p := range f.Params {
		types[i] = p.Type
	}
	return types
}
