package driverconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "batch.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadParsesModuleFields(t *testing.T) {
	path := writeTempConfig(t, `
output_dir: out
modules:
  - name: greet
    source_path: greet.ts
    expr: "1 + 2"
    module_name: greet
    func_id_offset: 10
    struct_id_offset: 5
`)
	spec, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "out", spec.OutputDir)
	require.Len(t, spec.Modules, 1)
	m := spec.Modules[0]
	assert.Equal(t, "greet", m.Name)
	assert.Equal(t, "greet.ts", m.SourcePath)
	assert.Equal(t, "1 + 2", m.Expr)
	assert.Equal(t, "greet", m.ModuleName)
	assert.Equal(t, uint32(10), m.FuncIDOffset)
	assert.Equal(t, uint32(5), m.StructIDOffset)
}

func TestLoadRejectsEmptyModuleList(t *testing.T) {
	path := writeTempConfig(t, "output_dir: out\nmodules: []\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsMissingName(t *testing.T) {
	path := writeTempConfig(t, "modules:\n  - expr: \"1\"\n")
	_, err := Load(path)
	assert.ErrorContains(t, err, "name")
}

func TestLoadRejectsMissingExpr(t *testing.T) {
	path := writeTempConfig(t, "modules:\n  - name: m1\n")
	_, err := Load(path)
	assert.ErrorContains(t, err, "expr")
}

func TestLoadRejectsUnreadableFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	assert.Error(t, err)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := writeTempConfig(t, "modules: [this is not: valid: yaml")
	_, err := Load(path)
	assert.Error(t, err)
}
