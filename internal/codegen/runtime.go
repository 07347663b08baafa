package codegen

import (
	"sort"

	"github.com/zacostudio/zacoc/internal/abi"
	"github.com/zacostudio/zacoc/internal/ir"
)

// scanRuntimeSymbols collects every Call instruction target in mod
// that names a runtime ABI symbol but neither a module function nor a
// declared extern, so the declaration pass imports the runtime symbols
// the IR calls. Runtime symbols the translator calls on its own
// (allocation, reference counting, string construction, runtime
// init/shutdown) are not Call targets; callByName imports them on
// first use (spec §4.3
// "Declaration pass" step 2, grounded on the precomputed-scan
// approach original_source/crates/zaco-codegen's RuntimeFunctions
// table is built from).
func scanRuntimeSymbols(mod *ir.IrModule) []string {
	funcNames := map[string]bool{}
	for _, f := range mod.Functions {
		funcNames[f.Name] = true
	}
	externNames := map[string]bool{}
	for _, e := range mod.ExternFunctions {
		externNames[e.Name] = true
	}
	seen := map[string]bool{}
	var names []string
	for _, f := range mod.Functions {
		for _, b := range f.Blocks {
			for _, instr := range b.Instructions {
				if instr.Kind != ir.ICall {
					continue
				}
				name := instr.CalleeName()
				if funcNames[name] || externNames[name] || seen[name] {
					continue
				}
				if _, ok := abi.Lookup(name); ok {
					seen[name] = true
					names = append(names, name)
				}
			}
		}
	}
	sort.Strings(names)
	return names
}
