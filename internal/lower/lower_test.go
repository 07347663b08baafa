package lower

import (
	"testing"

	"github.com/zacostudio/zacoc/internal/abi"
	"github.com/zacostudio/zacoc/internal/ast"
	"github.com/zacostudio/zacoc/internal/ir"
)

func pos() ast.Pos { return ast.Pos{Line: 1, Column: 1, File: "t.zc"} }

func ident(name string) *ast.Identifier { return &ast.Identifier{Name: name, Pos: pos()} }

func strLit(s string) *ast.Literal {
	return &ast.Literal{Kind: ast.StringLit, Value: s, Pos: pos()}
}

func numLit(v float64) *ast.Literal {
	return &ast.Literal{Kind: ast.FloatLit, Value: v, Pos: pos()}
}

func exprStmt(e ast.Expr) *ast.ExprStmt { return &ast.ExprStmt{Expr: e, Pos: pos()} }

func lowerProgram(t *testing.T, decls []ast.Node) *ir.IrModule {
	t.Helper()
	prog := &ast.Program{Decls: decls, Pos: pos()}
	mod, errs := Lower(prog, Config{})
	if len(errs) > 0 {
		for _, e := range errs {
			t.Errorf("unexpected lowering error: %v", e)
		}
		t.FailNow()
	}
	if verifyErrs := ir.Verify(mod, abi.IsKnown); len(verifyErrs) > 0 {
		for _, e := range verifyErrs {
			t.Errorf("verify: %v", e)
		}
		t.FailNow()
	}
	return mod
}

func TestLowerHelloWorld(t *testing.T) {
	decls := []ast.Node{
		exprStmt(&ast.CallExpr{
			Callee: &ast.MemberExpr{Object: ident("console"), Property: "log", Pos: pos()},
			Args:   []ast.Expr{strLit("hello, world")},
			Pos:    pos(),
		}),
	}
	mod := lowerProgram(t, decls)
	if mod.FunctionByName("main") == nil {
		t.Fatal("expected a main entry function")
	}
}

func TestLowerArithmeticFunction(t *testing.T) {
	// function add(a, b) { return a + b; }
	fn := &ast.FuncDecl{
		Name:   "add",
		Params: []ast.Param{{Name: "a", Pos: pos()}, {Name: "b", Pos: pos()}},
		Body: &ast.Block{Pos: pos(), Stmts: []ast.Stmt{
			&ast.ReturnStmt{Pos: pos(), Value: &ast.BinaryOp{
				Left: ident("a"), Op: "+", Right: ident("b"), Pos: pos(),
			}},
		}},
		Pos: pos(),
	}
	mod := lowerProgram(t, []ast.Node{fn})
	if mod.FunctionByName("add") == nil {
		t.Fatal("expected a lowered add function")
	}
}

func TestLowerMutableClosure(t *testing.T) {
	// function counter() {
	//   let n = 0;
	//   return () => { n = n + 1; return n; };
	// }
	inner := &ast.ArrowFunc{
		Pos: pos(),
		Body: &ast.Block{Pos: pos(), Stmts: []ast.Stmt{
			exprStmt(&ast.AssignExpr{
				Target: ident("n"), Op: "=",
				Value: &ast.BinaryOp{Left: ident("n"), Op: "+", Right: numLit(1), Pos: pos()},
				Pos:   pos(),
			}),
			&ast.ReturnStmt{Pos: pos(), Value: ident("n")},
		}},
	}
	fn := &ast.FuncDecl{
		Name: "counter",
		Body: &ast.Block{Pos: pos(), Stmts: []ast.Stmt{
			&ast.VarDecl{Kind: ast.VarLet, Name: "n", Init: numLit(0), Pos: pos()},
			&ast.ReturnStmt{Pos: pos(), Value: inner},
		}},
		Pos: pos(),
	}
	mod := lowerProgram(t, []ast.Node{fn})
	if mod.FunctionByName("counter") == nil {
		t.Fatal("expected a lowered counter function")
	}
	found := false
	for _, f := range mod.Functions {
		if f.Name == "__closure_0" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a synthesized closure function for the returned arrow")
	}
}

func TestLowerCapturelessClosureCall(t *testing.T) {
	// const f = () => 42; f();
	lit := &ast.ArrowFunc{
		Pos:  pos(),
		Body: numLit(42),
	}
	decls := []ast.Node{
		&ast.VarDecl{Kind: ast.VarConst, Name: "f", Init: lit, Pos: pos()},
		exprStmt(&ast.CallExpr{Callee: ident("f"), Pos: pos()}),
	}
	mod := lowerProgram(t, decls)
	if mod.FunctionByName("main") == nil {
		t.Fatal("expected a main entry function")
	}
	found := false
	for _, f := range mod.Functions {
		if f.Name == "__closure_0" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a synthesized closure function for the captureless arrow")
	}
}

func TestLowerIndirectClosureCallThroughVariable(t *testing.T) {
	// const add = (x) => x; add(1);
	lit := &ast.ArrowFunc{
		Pos:    pos(),
		Params: []ast.Param{{Name: "x", Pos: pos()}},
		Body:   ident("x"),
	}
	decls := []ast.Node{
		&ast.VarDecl{Kind: ast.VarConst, Name: "add", Init: lit, Pos: pos()},
		exprStmt(&ast.CallExpr{Callee: ident("add"), Args: []ast.Expr{numLit(1)}, Pos: pos()}),
	}
	mod := lowerProgram(t, decls)
	if mod.FunctionByName("main") == nil {
		t.Fatal("expected a main entry function")
	}
}

func TestLowerPromiseThenWithClosureCallback(t *testing.T) {
	// somePromise.then(() => 1);
	lit := &ast.ArrowFunc{Pos: pos(), Body: numLit(1)}
	fn := &ast.FuncDecl{
		Name: "run",
		Params: []ast.Param{{Name: "p", Pos: pos()}},
		Body: &ast.Block{Pos: pos(), Stmts: []ast.Stmt{
			exprStmt(&ast.CallExpr{
				Callee: &ast.MemberExpr{Object: ident("p"), Property: "then", Pos: pos()},
				Args:   []ast.Expr{lit},
				Pos:    pos(),
			}),
		}},
		Pos: pos(),
	}
	mod := lowerProgram(t, []ast.Node{fn})
	if mod.FunctionByName("run") == nil {
		t.Fatal("expected a lowered run function")
	}
	found := false
	for _, f := range mod.Functions {
		if f.Name == "__closure_0" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a synthesized closure function for the then callback")
	}
}

func TestLowerClassWithOverride(t *testing.T) {
	// class Animal { speak() { return "..."; } }
	// class Dog extends Animal { speak() { return "woof"; } bark() { return "!"; } }
	animal := &ast.ClassDecl{
		Name: "Animal",
		Methods: []ast.MethodDecl{{
			Name: "speak",
			Body: &ast.Block{Pos: pos(), Stmts: []ast.Stmt{
				&ast.ReturnStmt{Pos: pos(), Value: strLit("...")},
			}},
			Pos: pos(),
		}},
		Pos: pos(),
	}
	dog := &ast.ClassDecl{
		Name:    "Dog",
		Extends: "Animal",
		Methods: []ast.MethodDecl{
			{
				Name: "speak",
				Body: &ast.Block{Pos: pos(), Stmts: []ast.Stmt{
					&ast.ReturnStmt{Pos: pos(), Value: strLit("woof")},
				}},
				Pos: pos(),
			},
			{
				Name: "bark",
				Body: &ast.Block{Pos: pos(), Stmts: []ast.Stmt{
					&ast.ReturnStmt{Pos: pos(), Value: strLit("!")},
				}},
				Pos: pos(),
			},
		},
		Pos: pos(),
	}
	mod := lowerProgram(t, []ast.Node{animal, dog})
	if mod.FunctionByName("Dog_speak") == nil {
		t.Fatal("expected Dog's own override Dog_speak")
	}
	if mod.FunctionByName("Dog_bark") == nil {
		t.Fatal("expected Dog_bark")
	}
	if mod.FunctionByName("Animal_speak") == nil {
		t.Fatal("expected Animal_speak to still exist")
	}
}

func TestLowerClassInheritsForwardingStub(t *testing.T) {
	// class Base { greet() { return "hi"; } }
	// class Sub extends Base {}
	base := &ast.ClassDecl{
		Name: "Base",
		Methods: []ast.MethodDecl{{
			Name: "greet",
			Body: &ast.Block{Pos: pos(), Stmts: []ast.Stmt{
				&ast.ReturnStmt{Pos: pos(), Value: strLit("hi")},
			}},
			Pos: pos(),
		}},
		Pos: pos(),
	}
	sub := &ast.ClassDecl{Name: "Sub", Extends: "Base", Pos: pos()}
	mod := lowerProgram(t, []ast.Node{base, sub})
	if mod.FunctionByName("Sub_greet") == nil {
		t.Fatal("expected a forwarding stub Sub_greet calling Base_greet")
	}
}

func TestLowerGenerator(t *testing.T) {
	// function* gen(start) { yield start; }
	fn := &ast.FuncDecl{
		Name:        "gen",
		IsGenerator: true,
		Params:      []ast.Param{{Name: "start", Pos: pos()}},
		Body: &ast.Block{Pos: pos(), Stmts: []ast.Stmt{
			exprStmt(&ast.YieldExpr{Pos: pos(), Value: ident("start")}),
		}},
		Pos: pos(),
	}
	mod := lowerProgram(t, []ast.Node{fn})
	if mod.FunctionByName("gen") == nil {
		t.Fatal("expected the generator wrapper function")
	}
	next := mod.FunctionByName("gen__next")
	if next == nil {
		t.Fatal("expected the exported gen__next dispatcher function")
	}
	found := false
	for _, s := range mod.Structs {
		if s.Name == "gen__state" {
			found = true
			if len(s.Fields) != 2 {
				t.Fatalf("expected state_index plus one field per param, got %d fields", len(s.Fields))
			}
			if s.Fields[0].Name != "state_index" {
				t.Fatalf("expected state_index as the first field, got %q", s.Fields[0].Name)
			}
		}
	}
	if !found {
		t.Fatal("expected a gen__state struct")
	}
}

func TestLowerGeneratorThreeStates(t *testing.T) {
	// function* gen() { yield 1; yield 2; }
	fn := &ast.FuncDecl{
		Name:        "gen",
		IsGenerator: true,
		Body: &ast.Block{Pos: pos(), Stmts: []ast.Stmt{
			exprStmt(&ast.YieldExpr{Pos: pos(), Value: numLit(1)}),
			exprStmt(&ast.YieldExpr{Pos: pos(), Value: numLit(2)}),
		}},
		Pos: pos(),
	}
	mod := lowerProgram(t, []ast.Node{fn})
	next := mod.FunctionByName("gen__next")
	if next == nil {
		t.Fatal("expected gen__next")
	}
	// two yields plus a done state: three state_index comparisons in the
	// dispatcher, i.e. three blocks beyond the entry/check chain.
	if len(next.Blocks) < 3 {
		t.Fatalf("expected at least 3 state blocks (two yields + done), got %d", len(next.Blocks))
	}
}

func TestLowerGeneratorRejectsNestedYield(t *testing.T) {
	// function* gen() { if (true) { yield 1; } }
	fn := &ast.FuncDecl{
		Name:        "gen",
		IsGenerator: true,
		Body: &ast.Block{Pos: pos(), Stmts: []ast.Stmt{
			&ast.IfStmt{
				Pos:  pos(),
				Cond: &ast.Literal{Kind: ast.BoolLit, Value: true, Pos: pos()},
				Then: &ast.Block{Pos: pos(), Stmts: []ast.Stmt{
					exprStmt(&ast.YieldExpr{Pos: pos(), Value: numLit(1)}),
				}},
			},
		}},
		Pos: pos(),
	}
	l := New(Config{})
	l.pushScope()
	l.declareTopLevelFunc(fn)
	l.lowerTopLevelFuncBody(fn)
	if len(l.errs) == 0 {
		t.Fatal("expected LOW007 for yield nested under if")
	}
}

func TestLowerTryCatchFinally(t *testing.T) {
	// function run() {
	//   try { throw "boom"; } catch (e) { } finally { }
	// }
	fn := &ast.FuncDecl{
		Name: "run",
		Body: &ast.Block{Pos: pos(), Stmts: []ast.Stmt{
			&ast.TryStmt{
				Pos: pos(),
				Try: &ast.Block{Pos: pos(), Stmts: []ast.Stmt{
					&ast.ThrowStmt{Pos: pos(), Value: strLit("boom")},
				}},
				CatchParam: "e",
				Catch:      &ast.Block{Pos: pos()},
				Finally:    &ast.Block{Pos: pos()},
			},
		}},
		Pos: pos(),
	}
	mod := lowerProgram(t, []ast.Node{fn})
	if mod.FunctionByName("run") == nil {
		t.Fatal("expected the lowered run function")
	}
}

func TestLowerBreakOutsideLoopIsError(t *testing.T) {
	fn := &ast.FuncDecl{
		Name: "bad",
		Body: &ast.Block{Pos: pos(), Stmts: []ast.Stmt{
			&ast.BreakStmt{Pos: pos()},
		}},
		Pos: pos(),
	}
	_, errs := Lower(&ast.Program{Decls: []ast.Node{fn}, Pos: pos()}, Config{})
	if len(errs) == 0 {
		t.Fatal("expected LOW006 for break outside a loop")
	}
}
