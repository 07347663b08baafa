package codegen

import (
	"fmt"

	"github.com/zacostudio/zacoc/internal/errcode"
)

// CodegenError reports an invariant violation in the IR contract
// discovered during translation: unknown function name, missing
// string literal, a type mismatch that cannot be coerced, or a
// failure surfaced by the underlying code generation library. Unlike
// Lowerer errors it carries no source span — it indicates an IR-level
// bug, not a source-level one (spec §4.3 "Errors", §9).
type CodegenError struct {
	Code    string
	Message string
}

func newErr(code, format string, args ...any) *CodegenError {
	return &CodegenError{Code: code, Message: fmt.Sprintf(format, args...)}
}

func (e *CodegenError) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Message) }

// codegenCodes re-exports errcode's COD### constants under names local
// to this file so call sites elsewhere in the package read as plain
// identifiers instead of a package-qualified constant on every line.
const (
	codeUnresolvedCall = errcode.COD001
	codeBadStringLit   = errcode.COD002
	codeUndeclaredRef  = errcode.COD003
	codeVoidValue      = errcode.COD004
	codeBuilderFailure = errcode.COD005
	codeBadCoercion    = errcode.COD006
)
