package replshell

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvalLineArithmeticCompilesSuccessfully(t *testing.T) {
	s := New()
	var buf bytes.Buffer
	s.evalLine("1 + 2 * 3", &buf)
	assert.Contains(t, buf.String(), "ok")
	require.NotNil(t, s.lastMod)
	require.NotEmpty(t, s.lastBytes)
}

func TestEvalLineParseErrorReportsWithoutCrashing(t *testing.T) {
	s := New()
	var buf bytes.Buffer
	s.evalLine("1 +", &buf)
	assert.Contains(t, strings.ToLower(buf.String()), "error")
	assert.Nil(t, s.lastMod)
}

func TestEvalLineUnresolvedIdentifierReportsLowerError(t *testing.T) {
	s := New()
	var buf bytes.Buffer
	s.evalLine("doesNotExist", &buf)
	assert.Contains(t, buf.String(), "LOW")
}

func TestHandleCommandIrBeforeEvalWarns(t *testing.T) {
	s := New()
	var buf bytes.Buffer
	s.handleCommand(":ir", &buf)
	assert.Contains(t, buf.String(), "no module")
}

func TestHandleCommandIrAfterEvalDumpsBlocks(t *testing.T) {
	s := New()
	var eval bytes.Buffer
	s.evalLine("5", &eval)
	var buf bytes.Buffer
	s.handleCommand(":ir", &buf)
	assert.Contains(t, buf.String(), "block")
}

func TestHandleCommandHistoryRoundTrips(t *testing.T) {
	s := New()
	s.history = append(s.history, "1 + 1")
	var buf bytes.Buffer
	s.handleCommand(":history", &buf)
	assert.Contains(t, buf.String(), "1 + 1")
}

func TestUnbalancedParensDetectsContinuation(t *testing.T) {
	assert.True(t, unbalancedParens("add(1, 2"))
	assert.False(t, unbalancedParens("add(1, 2)"))
}
