// Package errcode provides centralized error code definitions for the
// Lowerer and Code Generator, following the same per-phase taxonomy
// the teacher interpreter uses for its diagnostics (internal/errors in
// the ancestor project): a short phase prefix plus a zero-padded
// sequence number, stable across releases so tooling can pattern-match
// on the code instead of the message text.
package errcode

const (
	// ============================================================
	// Lowering errors (LOW###) — spec §7 "Lowering errors"
	// ============================================================

	// LOW001 indicates an unsupported surface syntactic form.
	LOW001 = "LOW001"

	// LOW002 indicates an identifier could not be resolved in a
	// position requiring resolution.
	LOW002 = "LOW002"

	// LOW003 indicates super() was used outside a constructor body.
	LOW003 = "LOW003"

	// LOW004 indicates yield* delegation, which is rejected (spec §9
	// open question 2).
	LOW004 = "LOW004"

	// LOW005 indicates a destructuring pattern outside the supported
	// subset.
	LOW005 = "LOW005"

	// LOW006 indicates break/continue used outside any loop or
	// switch context.
	LOW006 = "LOW006"

	// LOW007 indicates an unsupported nested-yield shape under the
	// flat generator state-machine scan (spec §9 open question 1).
	LOW007 = "LOW007"

	// ============================================================
	// Code generation errors (COD###) — spec §7 "Codegen errors"
	// ============================================================

	// COD001 indicates a Call named a function that resolves to
	// neither a module function, an extern, nor a runtime ABI symbol.
	COD001 = "COD001"

	// COD002 indicates a Constant::Str referenced a literal missing
	// from the intern pool.
	COD002 = "COD002"

	// COD003 indicates a reference to an undeclared local, temp, or
	// block id.
	COD003 = "COD003"

	// COD004 indicates a Void value appeared in a value-producing
	// position.
	COD004 = "COD004"

	// COD005 indicates the underlying native codegen builder reported
	// a failure (e.g. an unencodable instruction selection).
	COD005 = "COD005"

	// COD006 indicates an argument/return type mismatch codegen could
	// not coerce by zero-extension/truncation.
	COD006 = "COD006"
)
