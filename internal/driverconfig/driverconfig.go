// Package driverconfig loads the YAML batch-job configuration a
// command-line driver uses to run the Lowerer and Code Generator over
// several source modules in one invocation, following the teacher's
// internal/eval_harness.LoadSpec pattern: read the file, unmarshal with
// gopkg.in/yaml.v3, then validate the required fields by hand.
package driverconfig

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ModuleJob is one source module to lower and compile, mirroring
// lower.Config field for field so a batch file can seed every knob the
// Lowerer's public contract exposes (spec §4.2 "Public contract").
type ModuleJob struct {
	// Name identifies the job in logs and in OutputDir file naming; it
	// is independent of ModuleName, which only controls the wrapper
	// function name the Lowerer emits.
	Name string `yaml:"name"`

	// SourcePath names the .ts/.tsx file this job conceptually compiles;
	// it is carried through to logs and error messages but never read,
	// since the real lexer/parser that would turn it into an AST is an
	// external collaborator outside this module's scope (spec §1).
	SourcePath string `yaml:"source_path"`

	// Expr is the source-less IR-construction request this demonstration
	// driver actually runs: a single expression in internal/replshell's
	// micro-grammar, lowered as the module's entry-point return value.
	// A real driver would discard this field once a frontend exists to
	// populate the AST from SourcePath instead.
	Expr string `yaml:"expr"`

	// ModuleName, if set, makes the wrapper function
	// __module_init_<sanitized-name> returning void instead of the
	// entry-module main returning I64.
	ModuleName string `yaml:"module_name"`

	// FuncIDOffset / StructIDOffset seed the module's ID counters so a
	// batch run can splice several modules' IR together without
	// collision.
	FuncIDOffset   uint32 `yaml:"func_id_offset"`
	StructIDOffset uint32 `yaml:"struct_id_offset"`
}

// BatchSpec is the top-level shape of a driver config file: where to
// write compiled output and the ordered list of modules to process.
type BatchSpec struct {
	OutputDir string      `yaml:"output_dir"`
	Modules   []ModuleJob `yaml:"modules"`
}

// Load reads path, parses it as YAML into a BatchSpec, and validates
// the fields every job needs to run (spec must name at least one
// module, and every module must name itself and supply the expression
// it asks the Lowerer to build a module around).
func Load(path string) (*BatchSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("driverconfig: reading %s: %w", path, err)
	}

	var spec BatchSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("driverconfig: parsing %s: %w", path, err)
	}

	if len(spec.Modules) == 0 {
		return nil, fmt.Errorf("driverconfig: %s declares no modules", path)
	}
	for i, m := range spec.Modules {
		if m.Name == "" {
			return nil, fmt.Errorf("driverconfig: %s: modules[%d] missing required field: name", path, i)
		}
		if m.Expr == "" {
			return nil, fmt.Errorf("driverconfig: %s: modules[%d] (%s) missing required field: expr", path, i, m.Name)
		}
	}

	return &spec, nil
}
