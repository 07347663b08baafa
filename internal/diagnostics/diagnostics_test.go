package diagnostics

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zacostudio/zacoc/internal/ast"
	"github.com/zacostudio/zacoc/internal/codegen"
	"github.com/zacostudio/zacoc/internal/errcode"
	"github.com/zacostudio/zacoc/internal/lower"
)

func TestFromLowerErrorsPreservesCodeMessageSpan(t *testing.T) {
	src := []*lower.Error{
		{Code: errcode.LOW002, Message: "unresolved identifier 'x'", Span: ast.Pos{File: "a.ts", Line: 3, Column: 5}},
		{Code: errcode.LOW006, Message: "break outside loop", Span: ast.Pos{File: "a.ts", Line: 7, Column: 1}},
	}
	got := FromLowerErrors(src)
	require.Len(t, got, 2)

	want := []Diagnostic{
		{Code: errcode.LOW002, Message: "unresolved identifier 'x'", Span: &ast.Pos{File: "a.ts", Line: 3, Column: 5}},
		{Code: errcode.LOW006, Message: "break outside loop", Span: &ast.Pos{File: "a.ts", Line: 7, Column: 1}},
	}
	if diff := cmp.Diff(want, got, cmpopts.IgnoreUnexported()); diff != "" {
		t.Fatalf("FromLowerErrors mismatch (-want +got):\n%s", diff)
	}
}

func TestFromCodegenErrorNilIsNil(t *testing.T) {
	assert.Nil(t, FromCodegenError(nil))
}

func TestFromCodegenErrorHasNoSpan(t *testing.T) {
	err := &codegen.CodegenError{Code: errcode.COD001, Message: "call to undeclared symbol"}
	got := FromCodegenError(err)
	require.Len(t, got, 1)
	assert.Equal(t, errcode.COD001, got[0].Code)
	assert.Nil(t, got[0].Span)
}

func TestRenderSortsByCodeThenSpan(t *testing.T) {
	diags := []Diagnostic{
		{Code: errcode.LOW006, Message: "later code", Span: &ast.Pos{File: "a.ts", Line: 1, Column: 1}},
		{Code: errcode.LOW002, Message: "second span", Span: &ast.Pos{File: "a.ts", Line: 9, Column: 1}},
		{Code: errcode.LOW002, Message: "first span", Span: &ast.Pos{File: "a.ts", Line: 2, Column: 1}},
	}
	var buf bytes.Buffer
	Render(&buf, diags)
	out := buf.String()

	firstIdx := bytes.Index(buf.Bytes(), []byte("first span"))
	secondIdx := bytes.Index(buf.Bytes(), []byte("second span"))
	laterIdx := bytes.Index(buf.Bytes(), []byte("later code"))
	assert.True(t, firstIdx < secondIdx, "expected lower line number to sort first: %s", out)
	assert.True(t, secondIdx < laterIdx, "expected LOW002 to sort before LOW006: %s", out)
}

func TestSummarizeNoErrors(t *testing.T) {
	var buf bytes.Buffer
	Summarize(&buf, nil)
	assert.Contains(t, buf.String(), "no errors")
}

func TestSummarizeCountsSingularAndPlural(t *testing.T) {
	var one bytes.Buffer
	Summarize(&one, []Diagnostic{{Code: errcode.COD001, Message: "x"}})
	assert.Contains(t, one.String(), "1 error")
	assert.NotContains(t, one.String(), "1 errors")

	var many bytes.Buffer
	Summarize(&many, []Diagnostic{{Code: errcode.COD001}, {Code: errcode.COD002}})
	assert.Contains(t, many.String(), "2 errors")
}
