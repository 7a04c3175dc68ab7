//  Copyright (c) 2026 Uber Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package lower is the Go front end of OwnAway: it builds the SSA form of a package with
// golang.org/x/tools/go/ssa and lowers every source function into the analyzer's IR. It also
// scans the ownership directives (//own:safe, //own:unchecked) and recovers the names of
// variables from debug information.
package lower

import (
	"cmp"
	"errors"
	"fmt"
	"go/ast"
	"go/token"
	"go/types"
	"slices"
	"strings"

	"go.uber.org/ownaway/config"
	"go.uber.org/ownaway/effect"
	"go.uber.org/ownaway/ir"
	"go.uber.org/ownaway/util/asthelper"
	"go.uber.org/ownaway/util/tokenhelper"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"
)

// Func is one lowered source function.
type Func struct {
	// Name is the callee identity of the function (see Name).
	Name string
	SSA  *ssa.Function
	// IR is the lowered function, or nil if lowering failed (see Err).
	IR  *ir.Function
	Err error
	// Safe is true if the function (or the function enclosing it) carries the //own:safe
	// directive.
	Safe bool
}

// Package is the lowered view of one type-checked package.
type Package struct {
	fset  *token.FileSet
	pkg   *ssa.Package
	types *TypeMap
	// unchecked lists the //own:unchecked statement spans of every file.
	unchecked []asthelper.Span
	funcs     []*Func
	byName    map[string]*Func
}

// Build builds the SSA form of the package and lowers all of its source functions. The stage
// selects between the lifted (register) form and the naive (memory) form of SSA.
func Build(fset *token.FileSet, pkg *types.Package, files []*ast.File, info *types.Info, stage config.Stage) (*Package, error) {
	mode := ssa.GlobalDebug | ssa.InstantiateGenerics
	if stage == config.StageNaive {
		mode |= ssa.NaiveForm
	}
	prog := ssa.NewProgram(fset, mode)

	// Dependencies are created from type information only: their functions have no bodies.
	created := make(map[*types.Package]bool)
	var createAll func(pkgs []*types.Package)
	createAll = func(pkgs []*types.Package) {
		for _, p := range pkgs {
			if created[p] {
				continue
			}
			created[p] = true
			prog.CreatePackage(p, nil, nil, true)
			createAll(p.Imports())
		}
	}
	createAll(pkg.Imports())

	ssapkg := prog.CreatePackage(pkg, files, info, false)
	ssapkg.Build()

	p := &Package{
		fset:   fset,
		pkg:    ssapkg,
		types:  NewTypeMap(pkg),
		byName: make(map[string]*Func),
	}
	for _, f := range files {
		p.unchecked = append(p.unchecked, asthelper.DirectiveSpans(fset, f, config.UncheckedDirective)...)
	}

	for fn := range ssautil.AllFunctions(prog) {
		if len(fn.Blocks) == 0 || owner(fn) != ssapkg || (fn.Synthetic != "" && fn.Origin() == nil) {
			continue
		}
		p.funcs = append(p.funcs, &Func{Name: Name(fn), SSA: fn, Safe: isSafe(fn)})
	}
	slices.SortFunc(p.funcs, func(a, b *Func) int {
		if n := cmp.Compare(a.SSA.Pos(), b.SSA.Pos()); n != 0 {
			return n
		}
		return cmp.Compare(a.Name, b.Name)
	})
	for _, f := range p.funcs {
		f.IR, f.Err = p.lower(f.SSA)
		p.byName[f.Name] = f
	}
	return p, nil
}

// Path returns the import path of the package.
func (p *Package) Path() string { return p.pkg.Pkg.Path() }

// Funcs returns the source functions of the package (including function literals and generic
// instantiations) in source order.
func (p *Package) Funcs() []*Func { return p.funcs }

// Lookup returns the function with the given callee identity.
func (p *Package) Lookup(name string) (*Func, bool) {
	f, ok := p.byName[name]
	return f, ok
}

// Reflect implements effect.Reflector over the functions of the package.
func (p *Package) Reflect(callee string) (*ir.Function, error) {
	f, ok := p.byName[callee]
	if !ok {
		return nil, fmt.Errorf("%s is not a source function of %s: %w", callee, p.Path(), effect.ErrNoBody)
	}
	if f.Err != nil {
		return nil, f.Err
	}
	return f.IR, nil
}

// Name returns the callee identity of fn: its fully qualified name, e.g. "pkg/path.F",
// "(*pkg/path.T).M", "pkg/path.F$1" or "pkg/path.F[int]". Instantiations without a body are named
// after their generic origin, since that is all an override or an upstream summary can refer to.
func Name(fn *ssa.Function) string {
	if o := fn.Origin(); o != nil && len(fn.Blocks) == 0 {
		return o.String()
	}
	return fn.String()
}

// owner returns the package declaring fn, or nil for shared synthetic functions.
func owner(fn *ssa.Function) *ssa.Package {
	if o := fn.Origin(); o != nil {
		fn = o
	}
	for fn.Parent() != nil {
		fn = fn.Parent()
	}
	return fn.Pkg
}

// isSafe returns true if fn, or the declaration enclosing it, carries the //own:safe directive.
func isSafe(fn *ssa.Function) bool {
	if o := fn.Origin(); o != nil {
		fn = o
	}
	for fn.Parent() != nil {
		fn = fn.Parent()
	}
	decl, ok := fn.Syntax().(*ast.FuncDecl)
	return ok && asthelper.HasDirective(decl.Doc, config.SafeDirective)
}

// _fresh are the Alloc comments of allocations that construct a new object rather than a
// variable cell.
var _fresh = map[string]bool{
	"new":       true,
	"complit":   true,
	"slicelit":  true,
	"varargs":   true,
	"makeslice": true,
}

var errUnsupported = errors.New("unsupported instruction")

// lowering is the state of lowering one function.
type lowering struct {
	p  *Package
	fn *ssa.Function
	b  *ir.Builder
	// vals maps the SSA values defined by instructions to the IR statement results.
	vals map[ssa.Value]ir.Value
	// params maps parameters and free variables to argument slots.
	params map[ssa.Value]int
	names  map[ssa.Value]string
	// boxes are the Allocs lowered to captured-variable boxes.
	boxes map[ssa.Value]bool
}

func (p *Package) lower(fn *ssa.Function) (_ *ir.Function, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lower %s: %w: %v", fn, errUnsupported, r)
		}
	}()

	l := &lowering{
		p:      p,
		fn:     fn,
		vals:   make(map[ssa.Value]ir.Value),
		params: make(map[ssa.Value]int),
		names:  make(map[ssa.Value]string),
		boxes:  make(map[ssa.Value]bool),
	}
	var params []ir.Param
	for _, prm := range fn.Params {
		l.params[prm] = len(params)
		params = append(params, ir.Param{Name: prm.Name(), Type: p.types.Of(prm.Type())})
	}
	for _, fv := range fn.FreeVars {
		l.params[fv] = len(params)
		params = append(params, ir.Param{Name: fv.Name(), Type: p.types.Of(fv.Type())})
	}
	l.b = ir.NewBuilder(Name(fn), params...)
	l.number()
	l.recoverNames()

	for _, blk := range fn.Blocks {
		l.b.StartBlock()
		var last token.Pos
		for _, instr := range blk.Instrs {
			if pos := instr.Pos(); pos.IsValid() {
				last = pos
			}
			l.instr(instr, last)
		}
	}
	for _, blk := range fn.Blocks {
		for _, succ := range blk.Succs {
			l.b.Edge(blk.Index, succ.Index)
		}
	}

	out, err := l.b.Finish()
	if err != nil {
		return nil, err
	}
	out.Loc = p.loc(fn.Pos())
	return out, nil
}

// recoverNames binds source variable names to SSA values from the debug references.
func (l *lowering) recoverNames() {
	vars := make(map[ssa.Value]bool)
	for _, blk := range l.fn.Blocks {
		for _, instr := range blk.Instrs {
			switch instr := instr.(type) {
			case *ssa.DebugRef:
				// A variable name wins over an expression name, whichever reference comes first.
				if v, ok := instr.Object().(*types.Var); ok {
					if !vars[instr.X] {
						l.names[instr.X] = v.Name()
						vars[instr.X] = true
					}
					continue
				}
				if _, ok := l.names[instr.X]; ok {
					continue
				}
				if _, isIdent := instr.Expr.(*ast.Ident); !isIdent && !instr.IsAddr {
					l.names[instr.X] = asthelper.PrintExpr(instr.Expr, l.p.fset, true)
				}
			case *ssa.Alloc:
				if _, ok := l.names[instr]; !ok && !_fresh[instr.Comment] && instr.Comment != "" {
					l.names[instr] = instr.Comment
				}
			}
		}
	}
	// Box reads observe the named variable.
	for _, blk := range l.fn.Blocks {
		for _, instr := range blk.Instrs {
			if u, ok := instr.(*ssa.UnOp); ok && u.Op == token.MUL {
				if _, named := l.names[u]; !named {
					if n, ok := l.names[u.X]; ok && l.isBox(u.X) {
						l.names[u] = n
					}
				}
			}
		}
	}
}

// number pre-assigns the IR statement of every value-defining instruction, so that φ operands
// may refer to statements emitted later.
func (l *lowering) number() {
	next := 0
	for _, blk := range l.fn.Blocks {
		for _, instr := range blk.Instrs {
			n := l.width(instr)
			if v, ok := instr.(ssa.Value); ok && n > 0 {
				l.vals[v] = ir.SSA(next)
			}
			if a, ok := instr.(*ssa.Alloc); ok && !_fresh[a.Comment] {
				l.boxes[a] = true
			}
			next += n
		}
	}
}

// width returns the number of IR statements instr lowers to.
func (l *lowering) width(instr ssa.Instruction) int {
	switch instr := instr.(type) {
	case *ssa.DebugRef, *ssa.Jump:
		return 0
	case *ssa.Return:
		if len(instr.Results) > 1 {
			return 2
		}
	}
	return 1
}

func (l *lowering) isBox(v ssa.Value) bool { return l.boxes[v] }

// value maps an SSA operand to an IR value.
func (l *lowering) value(v ssa.Value) ir.Value {
	if i, ok := l.params[v]; ok {
		return ir.Arg(i)
	}
	if iv, ok := l.vals[v]; ok {
		return iv
	}
	// Constants, globals, functions and builtins.
	return ir.Const
}

func (l *lowering) values(vs []ssa.Value) []ir.Value {
	out := make([]ir.Value, 0, len(vs))
	for _, v := range vs {
		out = append(out, l.value(v))
	}
	return out
}

func (l *lowering) typeOf(v ssa.Value) *ir.Type {
	if t, ok := v.Type().(*types.Tuple); ok && t.Len() == 0 {
		return nil
	}
	return l.p.types.Of(v.Type())
}

// emit appends a statement lowered from instr.
func (l *lowering) emit(instr ssa.Instruction, pos token.Pos, s *ir.Stmt) ir.Value {
	s.Loc = l.p.loc(pos)
	s.Unchecked = l.p.isUnchecked(pos)
	if v, ok := instr.(ssa.Value); ok {
		s.Name = l.names[v]
		if s.Type == nil {
			s.Type = l.typeOf(v)
		}
	}
	return l.b.Emit(s)
}

func (l *lowering) instr(instr ssa.Instruction, pos token.Pos) {
	op := func(o ir.Op, args ...ssa.Value) *ir.Stmt {
		return &ir.Stmt{Op: o, Args: l.values(args)}
	}

	switch instr := instr.(type) {
	case *ssa.DebugRef, *ssa.Jump:
		return

	case *ssa.Phi:
		s := op(ir.OpPhi, instr.Edges...)
		for _, pred := range instr.Block().Preds {
			s.Edges = append(s.Edges, pred.Index)
		}
		l.emit(instr, pos, s)

	case *ssa.TypeAssert:
		l.emit(instr, pos, op(ir.OpPi, instr.X))

	case *ssa.ChangeType:
		l.emit(instr, pos, op(ir.OpCopy, instr.X))
	case *ssa.ChangeInterface:
		l.emit(instr, pos, op(ir.OpCopy, instr.X))
	case *ssa.MakeInterface:
		l.emit(instr, pos, op(ir.OpCopy, instr.X))
	case *ssa.SliceToArrayPointer:
		l.emit(instr, pos, op(ir.OpCopy, instr.X))
	case *ssa.Convert:
		if pointerLike(instr.X.Type()) && pointerLike(instr.Type()) {
			l.emit(instr, pos, op(ir.OpCopy, instr.X))
		} else {
			l.emit(instr, pos, op(ir.OpPure, instr.X))
		}
	case *ssa.Slice:
		if isString(instr.X.Type()) {
			l.emit(instr, pos, op(ir.OpPure, instr.X))
		} else {
			l.emit(instr, pos, op(ir.OpCopy, instr.X))
		}

	case *ssa.Extract:
		s := op(ir.OpExtract, instr.Tuple)
		s.Field = instr.Index
		l.emit(instr, pos, s)

	case *ssa.MakeSlice, *ssa.MakeMap, *ssa.MakeChan:
		l.emit(instr, pos, op(ir.OpNew))
	case *ssa.MakeClosure:
		l.emit(instr, pos, op(ir.OpNew, instr.Bindings...))
	case *ssa.Alloc:
		if l.isBox(instr) {
			// A box is tracked like the variable it holds.
			s := op(ir.OpBoxNew)
			s.Type = l.p.types.Of(instr.Type().Underlying().(*types.Pointer).Elem())
			l.emit(instr, pos, s)
		} else {
			l.emit(instr, pos, op(ir.OpNew))
		}

	case *ssa.Store:
		if l.isBox(instr.Addr) {
			l.emit(instr, pos, op(ir.OpBoxSet, instr.Addr, instr.Val))
		} else {
			l.emit(instr, pos, op(ir.OpStore, instr.Addr, instr.Val))
		}
	case *ssa.UnOp:
		switch {
		case instr.Op == token.MUL && l.isBox(instr.X):
			l.emit(instr, pos, op(ir.OpBoxGet, instr.X))
		case instr.Op == token.MUL:
			l.emit(instr, pos, op(ir.OpLoad, instr.X))
		case instr.Op == token.ARROW:
			l.emit(instr, pos, l.builtin("chanrecv", instr.X))
		default:
			l.emit(instr, pos, op(ir.OpPure, instr.X))
		}

	case *ssa.FieldAddr:
		s := op(ir.OpGetField, instr.X)
		s.Field = instr.Field
		l.emit(instr, pos, s)
	case *ssa.Field:
		s := op(ir.OpGetField, instr.X)
		s.Field = instr.Field
		l.emit(instr, pos, s)
	case *ssa.IndexAddr:
		l.emit(instr, pos, op(ir.OpGetField, instr.X, instr.Index))
	case *ssa.Index:
		l.emit(instr, pos, op(ir.OpGetField, instr.X, instr.Index))
	case *ssa.Lookup:
		if isString(instr.X.Type()) {
			l.emit(instr, pos, op(ir.OpPure, instr.X, instr.Index))
		} else {
			l.emit(instr, pos, op(ir.OpGetField, instr.X, instr.Index))
		}

	case *ssa.MapUpdate:
		l.emit(instr, pos, l.builtin("mapassign", instr.Map, instr.Key, instr.Value))
	case *ssa.Send:
		l.emit(instr, pos, l.builtin("chansend", instr.Chan, instr.X))
	case *ssa.Go:
		l.emit(instr, pos, l.builtin("go", instr.Call.Args...))
	case *ssa.Defer:
		l.emit(instr, pos, l.builtin("defer", instr.Call.Args...))
	case *ssa.Panic:
		l.emit(instr, pos, l.builtin("panic", instr.X))
	case *ssa.Call:
		l.emit(instr, pos, l.call(&instr.Call))

	case *ssa.Return:
		switch len(instr.Results) {
		case 0:
			l.emit(instr, pos, &ir.Stmt{Op: ir.OpReturn, Args: []ir.Value{ir.Const}})
		case 1:
			l.emit(instr, pos, op(ir.OpReturn, instr.Results[0]))
		default:
			tuple := l.emit(instr, pos, &ir.Stmt{
				Op:   ir.OpTuple,
				Type: l.p.types.Of(l.fn.Signature.Results()),
				Args: l.values(instr.Results),
			})
			l.emit(instr, pos, &ir.Stmt{Op: ir.OpReturn, Args: []ir.Value{tuple}})
		}
	case *ssa.If:
		l.emit(instr, pos, op(ir.OpBranch, instr.Cond))

	default:
		var args []ssa.Value
		for _, rand := range instr.Operands(nil) {
			if rand != nil && *rand != nil {
				args = append(args, *rand)
			}
		}
		l.emit(instr, pos, op(ir.OpPure, args...))
	}
}

func (l *lowering) builtin(name string, args ...ssa.Value) *ir.Stmt {
	return &ir.Stmt{Op: ir.OpCall, Callee: ir.Builtin(name), Args: l.values(args)}
}

// call lowers a call: builtins and static callees by name, cgo and bodiless same-package functions
// as foreign calls, and everything else as a dynamic call. The function value of a dynamic call is
// not an argument; the receiver of an interface method call is argument 0.
func (l *lowering) call(c *ssa.CallCommon) *ir.Stmt {
	if c.IsInvoke() {
		args := append([]ssa.Value{c.Value}, c.Args...)
		return &ir.Stmt{Op: ir.OpInvoke, Callee: ir.Dynamic(c.Method.FullName()), Args: l.values(args)}
	}
	if b, ok := c.Value.(*ssa.Builtin); ok {
		return l.builtin(b.Name(), c.Args...)
	}
	callee := c.StaticCallee()
	if callee == nil {
		return &ir.Stmt{Op: ir.OpInvoke, Callee: ir.Dynamic(c.Value.String()), Args: l.values(c.Args)}
	}
	if name, ok := strings.CutPrefix(callee.Name(), "_Cfunc_"); ok {
		return &ir.Stmt{Op: ir.OpForeign, Callee: ir.External("C." + name), Args: l.values(c.Args)}
	}
	if len(callee.Blocks) == 0 && owner(callee) == l.p.pkg {
		// Declared without a body: assembly or linkname.
		return &ir.Stmt{Op: ir.OpForeign, Callee: ir.External(Name(callee)), Args: l.values(c.Args)}
	}
	return &ir.Stmt{Op: ir.OpCall, Callee: ir.Static(Name(callee)), Args: l.values(c.Args)}
}

func (p *Package) loc(pos token.Pos) ir.Loc {
	if !pos.IsValid() {
		return ir.Loc{}
	}
	position := tokenhelper.Position(p.fset, pos)
	return ir.Loc{Pos: pos, File: position.Filename, Line: position.Line, Column: position.Column}
}

func (p *Package) isUnchecked(pos token.Pos) bool {
	for _, span := range p.unchecked {
		if span.Contains(pos) {
			return true
		}
	}
	return false
}

func pointerLike(t types.Type) bool {
	switch u := t.Underlying().(type) {
	case *types.Pointer:
		return true
	case *types.Basic:
		return u.Kind() == types.UnsafePointer
	}
	return false
}

func isString(t types.Type) bool {
	b, ok := t.Underlying().(*types.Basic)
	return ok && b.Info()&types.IsString != 0
}
