// Package lower implements the AST→IR Lowerer: scope and ownership
// tracking, de-sugaring of classes, closures, generators, async, and
// exceptions, and best-effort type inference sufficient to pick IR
// types (spec §4.2). It is grounded throughout on the teacher's
// internal/elaborate package (AST→Core ANF) for its accumulate-and-
// continue error policy and bottom-up single-pass structure, and on
// original_source/crates/zaco-ir/src/lower.rs for the concrete
// lowering semantics the distilled spec leaves implicit.
package lower

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/zacostudio/zacoc/internal/abi"
	"github.com/zacostudio/zacoc/internal/ast"
	"github.com/zacostudio/zacoc/internal/errcode"
	"github.com/zacostudio/zacoc/internal/ir"
)

// Config carries driver-supplied lowering options (spec §4.2 "Public
// contract").
type Config struct {
	// ModuleName, if set, makes the wrapper function
	// __module_init_<sanitized-name> returning void instead of the
	// entry-module `main` returning I64.
	ModuleName string

	// SourceFile is carried in the Config; the Lowerer does not read
	// it, so __dirname and __filename are not folded to constants.
	SourceFile string

	// FuncIDOffset / StructIDOffset seed the module's ID counters so
	// a driver can splice several modules' IR together without
	// collision (spec §3, §5).
	FuncIDOffset   ir.FuncID
	StructIDOffset ir.StructID
}

// Error is one lowering diagnostic: a semantic or structural problem
// in the AST that prevented full IR construction for that node (spec
// §7). Lowering accumulates these and keeps going, substituting a
// null placeholder, so a single run surfaces every problem at once.
type Error struct {
	Code    string
	Message string
	Span    ast.Pos
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s at %s", e.Code, e.Message, e.Span)
}

// varInfo tracks one bound name: its local slot, inferred IR type,
// and whether reads/writes must go through the box protocol (spec
// §4.2.5).
type varInfo struct {
	local   ir.LocalID
	ty      ir.Type
	isBoxed bool
}

// scope maps source names to their binding info. Scopes form a stack;
// resolution walks innermost to outermost (spec §4.2 "Scope model").
type scope struct {
	vars map[string]*varInfo
}

func newScope() *scope { return &scope{vars: map[string]*varInfo{}} }

// classInfo is side-table metadata the Lowerer keeps about a class
// declaration while lowering its own and later classes' bodies (spec
// §4.2.4 step 1).
type classInfo struct {
	name           string
	structID       ir.StructID
	fields         []ir.StructField // parent fields first, then own
	fieldInits     []ast.Expr       // parallel to fields; nil entry means zero-init
	methods        []string         // own + inherited (resolved) method names
	methodArity    map[string]int   // method name -> declared parameter count
	ownMethods     map[string]bool
	getters        []string
	setters        []string
	staticMethods  []string
	staticFields   []string
	parent         string
	parentFieldCnt int
}

// closureInfo is side-table metadata for one synthesized closure
// function (spec §4.2.5).
type closureInfo struct {
	funcName     string
	capturedVars []string
	envStructID  ir.StructID
	hasEnv       bool
}

// Lowerer is the bottom-up, single-pass AST→IR translator. One
// instance owns exclusive, process-local state for one IrModule build
// (spec §5 "Shared resources"): the class-info table, closure-info
// table, scope stack, and loop/break stacks never escape the instance.
type Lowerer struct {
	module *ir.IrModule
	cfg    Config
	errs   []*Error

	scopes []*scope

	loopStack  []loopTarget // (continue target, break target)
	breakStack []ir.BlockID // break-only targets (switch)

	classes map[string]*classInfo
	closureCounter int

	// currentThis is non-nil while lowering a class method/constructor
	// body; currentClass names the enclosing class for super()
	// resolution.
	currentThis  *varInfo
	currentClass string
	currentClassParent string

	topFuncs     map[string]string
	topFuncArity map[string]int

	hasUserMain bool

	// lastClosureInfo is set by lowerClosureExpr just before it
	// returns, and read immediately afterward by a caller lowering an
	// expression whose static AST shape is *ast.ArrowFunc/*ast.FuncExpr
	// (var-decl initializer, assignment RHS, callback argument) so the
	// binding can be recorded in closureLocals for a later direct call
	// (spec §4.2.5 "the call site prepends the env pointer").
	lastClosureInfo *closureInfo

	// closureLocals maps a local holding a closure's env pointer (or
	// no-capture placeholder) back to the synthesized function it must
	// be called through, since spec's Call instruction always names
	// its target as a constant string (spec §4.3 "the func must be a
	// Const::Str(name)") rather than an arbitrary computed pointer.
	closureLocals map[ir.LocalID]*closureInfo
}

type loopTarget struct {
	continueTo ir.BlockID
	breakTo    ir.BlockID
}

// New creates a Lowerer seeded with cfg's ID offsets.
func New(cfg Config) *Lowerer {
	name := cfg.ModuleName
	if name == "" {
		name = "main"
	}
	return &Lowerer{
		module:        ir.NewIrModule(name, cfg.FuncIDOffset, cfg.StructIDOffset),
		cfg:           cfg,
		classes:       map[string]*classInfo{},
		topFuncs:      map[string]string{},
		topFuncArity:  map[string]int{},
		closureLocals: map[ir.LocalID]*closureInfo{},
	}
}

// declareTopLevelFunc reserves a top-level function's link name and
// arity during the hoisting pass so forward references among
// top-level functions resolve before any body is lowered (spec §4.2
// "two-pass top-level handling").
func (l *Lowerer) declareTopLevelFunc(n *ast.FuncDecl) {
	l.topFuncs[n.Name] = sanitizeIdent(n.Name)
	l.topFuncArity[n.Name] = len(n.Params)
}

// lowerTopLevelFuncBody builds the function body reserved by
// declareTopLevelFunc. Generators are routed to the constructor/body
// split of lowerGeneratorFunc; everything else (including async
// functions, which run synchronously except at await points, spec
// §4.2.7) lowers as an ordinary function.
func (l *Lowerer) lowerTopLevelFuncBody(n *ast.FuncDecl) {
	if n.IsGenerator {
		l.lowerGeneratorFunc(n)
		return
	}

	fb := ir.NewFuncBuilder(l.module.AllocFuncID(), l.topFuncs[n.Name], ir.Ptr(), true)
	entry := fb.NewBlock()
	fb.SwitchTo(entry)

	l.pushScope()
	for _, p := range n.Params {
		paramLocal := fb.AddParam(ir.Ptr(), p.Name)
		boxed := n.Body != nil && closureCapturesMutation(p.Name, n.Body)
		l.declareBoxedOrPlain(fb, p.Name, ir.Ptr(), ir.ValLocal(paramLocal), boxed)
	}
	if n.Body != nil {
		l.lowerStmtList(fb, n.Body.Stmts)
	}
	l.popScope()

	if !fb.HasTerminator() {
		fb.SetTerminator(ir.Return(ir.ValConst(ir.ConstNullVal())))
	}
	l.module.AddFunction(fb.Finish())
}

// Lower translates prog into an IrModule, or returns the accumulated
// list of lowering errors if any occurred (spec §4.2 "Public
// contract").
func Lower(prog *ast.Program, cfg Config) (*ir.IrModule, []*Error) {
	l := New(cfg)
	l.pushScope()
	defer l.popScope()

	l.scanForUserMain(prog.Decls)

	wrapperName := "main"
	wrapperRet := ir.I64()
	isEntry := true
	if l.cfg.ModuleName != "" {
		wrapperName = "__module_init_" + sanitizeIdent(l.cfg.ModuleName)
		wrapperRet = ir.Void()
		isEntry = false
	}

	fb := ir.NewFuncBuilder(l.module.AllocFuncID(), wrapperName, wrapperRet, true)
	entry := fb.NewBlock()
	fb.SwitchTo(entry)

	// Hoist top-level function and class declarations first so forward
	// references resolve, matching the original lowerer's two-pass
	// top-level handling.
	for _, d := range prog.Decls {
		switch n := d.(type) {
		case *ast.FuncDecl:
			l.declareTopLevelFunc(n)
		case *ast.ClassDecl:
			l.lowerClass(n)
		}
	}
	for _, d := range prog.Decls {
		switch n := d.(type) {
		case *ast.FuncDecl:
			l.lowerTopLevelFuncBody(n)
		case *ast.ClassDecl:
			// already fully lowered above
		default:
			if stmt, ok := d.(ast.Stmt); ok {
				l.lowerStmt(fb, stmt)
			} else if expr, ok := d.(ast.Expr); ok {
				l.lowerExpr(fb, expr)
			}
		}
	}

	if !fb.HasTerminator() {
		if isEntry {
			fb.SetTerminator(ir.Return(ir.ValConst(ir.ConstI(0))))
		} else {
			fb.SetTerminator(ir.ReturnVoid())
		}
	}
	l.module.AddFunction(fb.Finish())

	if len(l.errs) > 0 {
		return nil, l.errs
	}
	return l.module, nil
}

func (l *Lowerer) scanForUserMain(decls []ast.Node) {
	for _, d := range decls {
		if fd, ok := d.(*ast.FuncDecl); ok && fd.Name == "main" {
			l.hasUserMain = true
		}
	}
}

// sanitizeIdent strips characters illegal in a symbol name, used to
// build __module_init_<sanitized-name> from a driver-supplied module
// name that may contain path separators or Unicode (spec §4.2, §6).
// The name is first folded to NFC so two Unicode-equivalent spellings
// of the same module name (e.g. a precomposed vs. combining accent)
// always sanitize to the same symbol, mirroring the normalization
// boundary the teacher's lexer applies to source text.
func sanitizeIdent(name string) string {
	if !norm.NFC.IsNormalString(name) {
		name = norm.NFC.String(name)
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

func (l *Lowerer) pushScope() { l.scopes = append(l.scopes, newScope()) }
func (l *Lowerer) popScope()  { l.scopes = l.scopes[:len(l.scopes)-1] }

func (l *Lowerer) declareVar(name string, v *varInfo) {
	l.scopes[len(l.scopes)-1].vars[name] = v
}

// resolve walks the scope stack from innermost to outermost (spec
// §4.2 "Scope model").
func (l *Lowerer) resolve(name string) (*varInfo, bool) {
	for i := len(l.scopes) - 1; i >= 0; i-- {
		if v, ok := l.scopes[i].vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

func (l *Lowerer) errorf(code string, span ast.Pos, format string, args ...interface{}) {
	l.errs = append(l.errs, &Error{Code: code, Message: fmt.Sprintf(format, args...), Span: span})
}

// ensureExtern records name as a callable extern, with the signature
// the runtime ABI table gives it, if not already declared (it panics
// on a name the table does not know), mirroring the original lowerer's
// `ensure_extern` helper used before every runtime call site.
func (l *Lowerer) ensureExtern(name string) {
	sig, ok := abi.Lookup(name)
	if !ok {
		panic("lower: emitting call to unknown runtime symbol " + name)
	}
	l.module.EnsureExtern(name, sig.Params, sig.Ret)
}

// declareBoxedOrPlain binds name to initVal, either as a plain local
// or, when boxed, as a zaco_box_new-wrapped indirection so a later
// closure capturing name by reference observes subsequent writes
// (spec §4.2.5 step 2).
func (l *Lowerer) declareBoxedOrPlain(fb *ir.FuncBuilder, name string, ty ir.Type, initVal ir.Value, boxed bool) *varInfo {
	if !boxed {
		local := fb.AddLocal(ty, name)
		fb.Emit(ir.Assign(ir.PlaceOf(ir.ValLocal(local)), ir.RVUse(initVal)))
		vi := &varInfo{local: local, ty: ty}
		l.declareVar(name, vi)
		return vi
	}
	l.ensureExtern("zaco_box_new")
	boxPtr := fb.AddTemp(ir.Ptr())
	fb.Emit(ir.Call(ptrTo(ir.PlaceOf(ir.ValTemp(boxPtr))), "zaco_box_new", []ir.Value{initVal}))
	local := fb.AddLocal(ir.Ptr(), name)
	fb.Emit(ir.Assign(ir.PlaceOf(ir.ValLocal(local)), ir.RVUse(ir.ValTemp(boxPtr))))
	vi := &varInfo{local: local, ty: ty, isBoxed: true}
	l.declareVar(name, vi)
	return vi
}

func (l *Lowerer) internStr(s string) ir.Value {
	idx := l.module.Intern(s)
	return ir.ValConst(ir.Constant{Kind: ir.ConstStr, StrIndex: idx, StrVal: s})
}

func (l *Lowerer) freshClosureName() string {
	n := l.closureCounter
	l.closureCounter++
	return fmt.Sprintf("__closure_%d", n)
}
