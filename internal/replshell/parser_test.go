package replshell

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zacostudio/zacoc/internal/ast"
)

func TestParseExprIntLiteral(t *testing.T) {
	e, err := ParseExpr("42", "t")
	require.NoError(t, err)
	lit, ok := e.(*ast.Literal)
	require.True(t, ok)
	assert.Equal(t, ast.IntLit, lit.Kind)
	assert.Equal(t, int64(42), lit.Value)
}

func TestParseExprFloatLiteral(t *testing.T) {
	e, err := ParseExpr("3.5", "t")
	require.NoError(t, err)
	lit, ok := e.(*ast.Literal)
	require.True(t, ok)
	assert.Equal(t, ast.FloatLit, lit.Kind)
	assert.Equal(t, 3.5, lit.Value)
}

func TestParseExprStringLiteral(t *testing.T) {
	e, err := ParseExpr(`"hello"`, "t")
	require.NoError(t, err)
	lit, ok := e.(*ast.Literal)
	require.True(t, ok)
	assert.Equal(t, ast.StringLit, lit.Kind)
	assert.Equal(t, "hello", lit.Value)
}

func TestParseExprPrecedence(t *testing.T) {
	// 1 + 2 * 3 must parse as 1 + (2 * 3), i.e. the top node is "+".
	e, err := ParseExpr("1 + 2 * 3", "t")
	require.NoError(t, err)
	bin, ok := e.(*ast.BinaryOp)
	require.True(t, ok)
	assert.Equal(t, "+", bin.Op)
	rhs, ok := bin.Right.(*ast.BinaryOp)
	require.True(t, ok)
	assert.Equal(t, "*", rhs.Op)
}

func TestParseExprParenOverridesPrecedence(t *testing.T) {
	e, err := ParseExpr("(1 + 2) * 3", "t")
	require.NoError(t, err)
	bin, ok := e.(*ast.BinaryOp)
	require.True(t, ok)
	assert.Equal(t, "*", bin.Op)
	_, ok = bin.Left.(*ast.BinaryOp)
	assert.True(t, ok)
}

func TestParseExprCall(t *testing.T) {
	e, err := ParseExpr("add(1, 2)", "t")
	require.NoError(t, err)
	call, ok := e.(*ast.CallExpr)
	require.True(t, ok)
	require.Len(t, call.Args, 2)
	ident, ok := call.Callee.(*ast.Identifier)
	require.True(t, ok)
	assert.Equal(t, "add", ident.Name)
}

func TestParseExprLogicalOp(t *testing.T) {
	e, err := ParseExpr("true && false", "t")
	require.NoError(t, err)
	_, ok := e.(*ast.LogicalOp)
	assert.True(t, ok)
}

func TestParseExprUnboundTrailingInputErrors(t *testing.T) {
	_, err := ParseExpr("1 2", "t")
	assert.Error(t, err)
}

func TestParseExprUnterminatedStringErrors(t *testing.T) {
	_, err := ParseExpr(`"unterminated`, "t")
	assert.Error(t, err)
}
