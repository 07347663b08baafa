// Package diagnostics renders Lowerer and Code Generator errors for a
// terminal, grouping by error code and coloring the way the teacher's
// own cmd/ailang front end colors its CLI output (green/red/yellow/
// cyan/bold via fatih/color.SprintFunc).
package diagnostics

import (
	"fmt"
	"io"
	"sort"

	"github.com/fatih/color"

	"github.com/zacostudio/zacoc/internal/ast"
	"github.com/zacostudio/zacoc/internal/codegen"
	"github.com/zacostudio/zacoc/internal/lower"
)

var (
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
)

// Diagnostic is the shape both lower.Error and codegen.CodegenError are
// normalized to before rendering: a stable Code, a human Message, and
// an optional source Span (codegen errors are IR-level and carry no
// span, since by the time IR reaches the Code Generator every
// source-level diagnostic has already been raised by the Lowerer).
type Diagnostic struct {
	Code    string
	Message string
	Span    *ast.Pos
}

// FromLowerErrors adapts a Lowerer error batch to Diagnostics.
func FromLowerErrors(errs []*lower.Error) []Diagnostic {
	out := make([]Diagnostic, len(errs))
	for i, e := range errs {
		span := e.Span
		out[i] = Diagnostic{Code: e.Code, Message: e.Message, Span: &span}
	}
	return out
}

// FromCodegenError adapts a single Code Generator error to a
// one-element Diagnostic slice, or nil if err is nil.
func FromCodegenError(err *codegen.CodegenError) []Diagnostic {
	if err == nil {
		return nil
	}
	return []Diagnostic{{Code: err.Code, Message: err.Message}}
}

// Render writes one line per diagnostic to w, sorted by Code then by
// source position so a run is reproducible across invocations. Codes
// beginning with "LOW" print their span; codegen's "COD" codes have
// none and are rendered bare.
func Render(w io.Writer, diags []Diagnostic) {
	sorted := make([]Diagnostic, len(diags))
	copy(sorted, diags)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Code != sorted[j].Code {
			return sorted[i].Code < sorted[j].Code
		}
		a, b := sorted[i].Span, sorted[j].Span
		if a == nil || b == nil {
			return a == nil && b != nil
		}
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Column < b.Column
	})
	for _, d := range sorted {
		if d.Span != nil {
			fmt.Fprintf(w, "%s[%s] %s %s %s\n", red("error"), cyan(d.Code), d.Message, yellow("at"), d.Span.String())
		} else {
			fmt.Fprintf(w, "%s[%s] %s\n", red("error"), cyan(d.Code), d.Message)
		}
	}
}

// Summarize writes a trailing count line: red "N errors" when diags is
// non-empty, green "no errors" otherwise — mirroring the teacher's
// bold/colored status-line convention in cmd/ailang.
func Summarize(w io.Writer, diags []Diagnostic) {
	if len(diags) == 0 {
		fmt.Fprintf(w, "%s\n", green(bold("no errors")))
		return
	}
	word := "error"
	if len(diags) != 1 {
		word = "errors"
	}
	fmt.Fprintf(w, "%s\n", red(bold(fmt.Sprintf("%d %s", len(diags), word))))
}

func spanString(p *ast.Pos) string {
	if p == nil {
		return ""
	}
	return p.String()
}
