// Package replshell implements an interactive one-expression-at-a-time
// lowering and disassembly shell: each line is parsed by this
// package's own minimal expression grammar (parser.go — not the real
// surface-language parser, which per spec §1 remains an external
// collaborator), wrapped in a synthetic single-function module, run
// through internal/lower and internal/codegen, and reported. It is
// grounded throughout on the teacher's internal/repl.REPL: the same
// peterh/liner history-file and multiline-continuation handling, the
// same fatih/color-based prompt and status coloring, and the same
// ":command" dispatch shape.
package replshell

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/peterh/liner"

	"github.com/zacostudio/zacoc/internal/ast"
	"github.com/zacostudio/zacoc/internal/codegen"
	"github.com/zacostudio/zacoc/internal/diagnostics"
	"github.com/zacostudio/zacoc/internal/ir"
	"github.com/zacostudio/zacoc/internal/lower"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
	dim    = color.New(color.Faint).SprintFunc()
)

var historyFile = filepath.Join(os.TempDir(), ".zacoc_history")

// Shell is the Read-Eval-Print Loop: parse one expression, lower it,
// compile it, and report. The last successfully lowered module and
// compiled object are retained so :ir and :asm can inspect them
// without re-running the pipeline.
type Shell struct {
	history   []string
	lastMod   *ir.IrModule
	lastBytes []byte
	evalCount int
}

// New creates a Shell with empty history.
func New() *Shell { return &Shell{} }

func (s *Shell) getPrompt() string {
	return fmt.Sprintf("zacoc[%d]> ", s.evalCount)
}

// Start runs the shell's main loop against in/out, following the
// teacher's Start(io.Reader, io.Writer) signature even though liner
// itself always reads the controlling terminal.
func (s *Shell) Start(in io.Reader, out io.Writer) {
	line := liner.NewLiner()
	defer line.Close()

	if f, err := os.Open(historyFile); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}
	line.SetMultiLineMode(true)

	fmt.Fprintf(out, "%s\n", bold("zacoc REPL"))
	fmt.Fprintln(out, dim("Type :help for help, :quit to exit"))
	fmt.Fprintln(out)

	line.SetCompleter(func(input string) (c []string) {
		if strings.HasPrefix(input, ":") {
			for _, cmd := range []string{":help", ":quit", ":ir", ":asm", ":history", ":clear"} {
				if strings.HasPrefix(cmd, input) {
					c = append(c, cmd)
				}
			}
		}
		return
	})

	for {
		input, err := line.Prompt(s.getPrompt())
		if err == io.EOF {
			fmt.Fprintln(out, green("\nGoodbye!"))
			break
		}
		if err != nil {
			fmt.Fprintf(out, "%s: %v\n", red("Error"), err)
			continue
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		// Multi-line continuation: an input with more open than closed
		// parens is incomplete, adapting the teacher's "ends with a
		// continuation marker" heuristic (there ` in`, here an
		// unbalanced call).
		for unbalancedParens(input) {
			cont, err := line.Prompt("... ")
			if err == io.EOF {
				fmt.Fprintln(out, red("\nIncomplete expression"))
				input = ""
				break
			}
			if err != nil {
				fmt.Fprintf(out, "%s: %v\n", red("Error"), err)
				input = ""
				break
			}
			input += "\n" + cont
		}
		if input == "" {
			continue
		}

		line.AppendHistory(input)
		s.history = append(s.history, input)

		if strings.HasPrefix(input, ":") {
			if input == ":quit" || input == ":q" || input == ":exit" {
				fmt.Fprintln(out, green("Goodbye!"))
				break
			}
			s.handleCommand(input, out)
			continue
		}

		s.evalLine(input, out)
	}

	if f, err := os.Create(historyFile); err == nil {
		_, _ = line.WriteHistory(f)
		f.Close()
	}
}

func unbalancedParens(s string) bool {
	depth := 0
	for _, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		}
	}
	return depth > 0
}

func (s *Shell) handleCommand(cmd string, out io.Writer) {
	switch {
	case cmd == ":help":
		fmt.Fprintln(out, bold("Commands:"))
		fmt.Fprintf(out, "  %s   show this message\n", cyan(":help"))
		fmt.Fprintf(out, "  %s   quit the shell\n", cyan(":quit"))
		fmt.Fprintf(out, "  %s     print the last lowered module's IR\n", cyan(":ir"))
		fmt.Fprintf(out, "  %s    print the last compiled object's byte length and header\n", cyan(":asm"))
		fmt.Fprintf(out, "  %s show line history\n", cyan(":history"))
		fmt.Fprintf(out, "  %s  clear line history\n", cyan(":clear"))
	case cmd == ":history":
		for i, h := range s.history {
			fmt.Fprintf(out, "%3d  %s\n", i+1, h)
		}
	case cmd == ":clear":
		s.history = nil
		fmt.Fprintln(out, green("history cleared"))
	case cmd == ":ir":
		if s.lastMod == nil {
			fmt.Fprintln(out, yellow("no module lowered yet"))
			return
		}
		dumpModule(out, s.lastMod)
	case cmd == ":asm":
		if s.lastBytes == nil {
			fmt.Fprintln(out, yellow("no module compiled yet"))
			return
		}
		fmt.Fprintf(out, "%d bytes, header %q\n", len(s.lastBytes), s.lastBytes[:min(8, len(s.lastBytes))])
	default:
		fmt.Fprintf(out, "%s: unknown command %q\n", red("Error"), cmd)
	}
}

// evalLine parses one expression, wraps it in a single-function
// module returning that value, and runs it through the Lowerer and
// Code Generator, reporting via internal/diagnostics on failure.
func (s *Shell) evalLine(input string, out io.Writer) {
	s.evalCount++
	file := fmt.Sprintf("<repl:%d>", s.evalCount)

	expr, err := ParseExpr(input, file)
	if err != nil {
		fmt.Fprintf(out, "%s: %v\n", red("parse error"), err)
		return
	}

	// A bare top-level ReturnStmt lowers directly into the entry
	// wrapper's body (lower.go's default case for a non-FuncDecl,
	// non-ClassDecl top-level node) — wrapping it in its own FuncDecl
	// named "main" would collide with the wrapper itself, since
	// Config{} with no ModuleName names the wrapper "main" too.
	prog := &ast.Program{
		Pos: ast.Pos{File: file, Line: 1, Column: 1},
		Decls: []ast.Node{
			&ast.ReturnStmt{Value: expr, Pos: ast.Pos{File: file, Line: 1, Column: 1}},
		},
	}

	mod, lowerErrs := lower.Lower(prog, lower.Config{SourceFile: file})
	if len(lowerErrs) > 0 {
		diagnostics.Render(out, diagnostics.FromLowerErrors(lowerErrs))
		return
	}
	s.lastMod = mod

	objBytes, cgErr := codegen.CompileModule(mod)
	if cgErr != nil {
		diagnostics.Render(out, diagnostics.FromCodegenError(cgErr))
		return
	}
	s.lastBytes = objBytes

	fmt.Fprintf(out, "%s (%d bytes of object code, type :ir or :asm for detail)\n", green("ok"), len(objBytes))
}

func dumpModule(out io.Writer, mod *ir.IrModule) {
	for _, f := range mod.Functions {
		fmt.Fprintf(out, "%s %s(...) -> %s {\n", bold("fn"), f.Name, f.ReturnType.String())
		for _, b := range f.Blocks {
			fmt.Fprintf(out, "  block%d:\n", b.ID)
			for _, instr := range b.Instructions {
				fmt.Fprintf(out, "    %s\n", instr.String())
			}
			fmt.Fprintf(out, "    %s\n", b.Terminator.String())
		}
		fmt.Fprintln(out, "}")
	}
}
