package ir

import "fmt"

// Verify checks the structural invariants spec §3/§8 require of a
// finished IrModule: declared-before-use locals/temps/blocks, call
// targets resolving to a known function/extern/runtime symbol, and
// every interned-string constant actually present in the pool. It
// does not know about the runtime ABI table (that lives in package
// abi); callers pass a resolver for "is this name a known runtime
// symbol" so this package stays free of an abi import cycle.
func Verify(m *IrModule, isRuntimeSymbol func(name string) bool) []error {
	var errs []error

	funcNames := map[string]bool{}
	for _, f := range m.Functions {
		funcNames[f.Name] = true
	}
	externNames := map[string]bool{}
	for _, e := range m.ExternFunctions {
		externNames[e.Name] = true
	}

	resolves := func(name string) bool {
		return funcNames[name] || externNames[name] || (isRuntimeSymbol != nil && isRuntimeSymbol(name))
	}

	for _, f := range m.Functions {
		errs = append(errs, verifyFunction(m, f, resolves)...)
	}
	return errs
}

func verifyFunction(m *IrModule, f *IrFunction, resolves func(string) bool) []error {
	var errs []error

	locals := map[LocalID]bool{}
	for _, l := range f.Locals {
		locals[l.ID] = true
	}
	temps := map[TempID]bool{}
	for _, t := range f.Temps {
		temps[t.ID] = true
	}
	blocks := map[BlockID]bool{}
	for _, b := range f.Blocks {
		blocks[b.ID] = true
	}

	checkValue := func(v Value) error {
		switch v.Kind {
		case VLocal:
			if !locals[v.Local] {
				return fmt.Errorf("function %s: local %d referenced but not declared", f.Name, v.Local)
			}
		case VTemp:
			if !temps[v.Temp] {
				return fmt.Errorf("function %s: temp %d referenced but not declared", f.Name, v.Temp)
			}
		case VConst:
			if v.Const.Kind == ConstStr {
				if v.Const.StrIndex < 0 || v.Const.StrIndex >= len(m.StringLiterals) {
					return fmt.Errorf("function %s: string constant index %d not in intern pool", f.Name, v.Const.StrIndex)
				}
			}
		}
		return nil
	}

	checkBlockRef := func(id BlockID) error {
		if !blocks[id] {
			return fmt.Errorf("function %s: block %d referenced but not created in this function", f.Name, id)
		}
		return nil
	}

	reachable := reachableBlocks(f)

	for _, b := range f.Blocks {
		for _, instr := range b.Instructions {
			for _, v := range instructionValues(instr) {
				if err := checkValue(v); err != nil {
					errs = append(errs, err)
				}
			}
			if instr.Kind == ICall {
				if !resolves(instr.CalleeName()) {
					errs = append(errs, fmt.Errorf("function %s: call to unresolved symbol %q", f.Name, instr.CalleeName()))
				}
			}
		}
		switch b.Terminator.Kind {
		case TReturn:
			if b.Terminator.ReturnHasValue {
				if err := checkValue(b.Terminator.ReturnValue); err != nil {
					errs = append(errs, err)
				}
			}
		case TBranch:
			if err := checkValue(b.Terminator.Cond); err != nil {
				errs = append(errs, err)
			}
			if err := checkBlockRef(b.Terminator.ThenBlock); err != nil {
				errs = append(errs, err)
			}
			if err := checkBlockRef(b.Terminator.ElseBlock); err != nil {
				errs = append(errs, err)
			}
		case TJump:
			if err := checkBlockRef(b.Terminator.Target); err != nil {
				errs = append(errs, err)
			}
		case TUnreachable:
			if reachable[b.ID] {
				errs = append(errs, fmt.Errorf("function %s: block %d is reachable from entry but still Unreachable", f.Name, b.ID))
			}
		}
	}
	return errs
}

// reachableBlocks computes the set of blocks reachable from the
// function's entry block by following Jump/Branch edges, per spec §8
// property 2's carve-out for dead-code leftovers from break/continue/
// throw/return.
func reachableBlocks(f *IrFunction) map[BlockID]bool {
	seen := map[BlockID]bool{f.EntryBlock: true}
	stack := []BlockID{f.EntryBlock}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		blk := f.BlockByID(id)
		if blk == nil {
			continue
		}
		var next []BlockID
		switch blk.Terminator.Kind {
		case TJump:
			next = []BlockID{blk.Terminator.Target}
		case TBranch:
			next = []BlockID{blk.Terminator.ThenBlock, blk.Terminator.ElseBlock}
		}
		for _, n := range next {
			if !seen[n] {
				seen[n] = true
				stack = append(stack, n)
			}
		}
	}
	return seen
}

func instructionValues(instr Instruction) []Value {
	switch instr.Kind {
	case IAssign:
		vs := placeValues(instr.AssignDest)
		vs = append(vs, rvalueValues(instr.AssignValue)...)
		return vs
	case ICall:
		vs := append([]Value{}, instr.CallArgs...)
		if instr.CallDest != nil {
			vs = append(vs, placeValues(*instr.CallDest)...)
		}
		return vs
	case IAlloc:
		return placeValues(instr.AllocDest)
	case IFree, IRefCount:
		return []Value{instr.RCValue}
	case IClone:
		return append(placeValues(instr.CloneDest), instr.CloneSource)
	case IStore:
		return []Value{instr.StorePtr, instr.StoreValue}
	case ILoad:
		return append(placeValues(instr.LoadDest), instr.LoadPtr)
	}
	return nil
}

func placeValues(p Place) []Value {
	vs := []Value{p.Base}
	for _, pr := range p.Projections {
		if pr.Kind == ProjIndex {
			vs = append(vs, pr.Index)
		}
	}
	return vs
}

func rvalueValues(r RValue) []Value {
	switch r.Kind {
	case RUse:
		return []Value{r.Use}
	case RBinaryOp:
		return []Value{r.Left, r.Right}
	case RUnaryOp:
		return []Value{r.Operand}
	case RCast:
		return []Value{r.CastValue}
	case RStructInit:
		return append([]Value{}, r.Fields...)
	case RArrayInit:
		return append([]Value{}, r.Elements...)
	case RStrConcat:
		return append([]Value{}, r.Parts...)
	case RRead:
		return placeValues(r.ReadFrom)
	}
	return nil
}
