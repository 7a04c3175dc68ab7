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

// Package ir defines the intermediate representation that OwnAway analyzes: a control-flow graph
// of basic blocks holding typed statements drawn from a small, closed instruction vocabulary.
// Front ends (see package lower) translate host-language IR into this form; the rest of the
// pipeline (handle indexing, alias classes, liveness, effect summaries and the checker) only ever
// looks at these types.
package ir

import (
	"fmt"
	"go/token"
)

//go:generate go tool stringer -type Op -trimprefix Op

// Op is the closed set of instruction shapes understood by the analyzer.
type Op uint8

const (
	// OpPure is any computation whose result is fresh and that has no memory effect.
	OpPure Op = iota
	// OpPhi merges one value per predecessor edge (see Stmt.Edges).
	OpPhi
	// OpPi refines the type of Args[0] (e.g., a type assertion) without copying storage.
	OpPi
	// OpCopy is a literal copy of Args[0]: same storage, same binding.
	OpCopy
	// OpExtract projects component Field out of the multi-value Args[0].
	OpExtract
	// OpNew constructs a fresh aggregate from its constituents Args.
	OpNew
	// OpTuple constructs a tuple literal from Args.
	OpTuple
	// OpBoxNew creates a captured-variable box, optionally initialized with Args[0].
	OpBoxNew
	// OpBoxSet overwrites the contents of box Args[0] with Args[1].
	OpBoxSet
	// OpBoxGet reads the contents of box Args[0].
	OpBoxGet
	// OpGetField reads field Field (or an element selected by Args[1:]) of Args[0].
	OpGetField
	// OpSetField writes Args[1] into field Field of Args[0].
	OpSetField
	// OpLoad dereferences the pointer Args[0].
	OpLoad
	// OpStore writes Args[1] through the pointer Args[0].
	OpStore
	// OpCall calls a statically resolved Callee with Args.
	OpCall
	// OpInvoke calls a dynamically dispatched Callee with Args.
	OpInvoke
	// OpForeign calls a non-reflectable external Callee with Args.
	OpForeign
	// OpReturn returns Args[0] (if any) from the function.
	OpReturn
	// OpBranch is a conditional terminator testing Args[0].
	OpBranch
)

// IsCall returns true if the op transfers control to a Callee.
func (o Op) IsCall() bool {
	return o == OpCall || o == OpInvoke || o == OpForeign
}

// ValueKind tags the variant held by a Value.
type ValueKind uint8

const (
	// ValConst is a constant, global or function literal: never tracked.
	ValConst ValueKind = iota
	// ValArg refers to a formal argument slot of the enclosing function.
	ValArg
	// ValStmt refers to the result of a statement of the enclosing function.
	ValStmt
)

// Value is an operand of a statement.
type Value struct {
	Kind  ValueKind
	Index int
}

// Const is the untracked operand.
var Const = Value{Kind: ValConst}

// Arg returns a reference to formal argument i.
func Arg(i int) Value { return Value{Kind: ValArg, Index: i} }

// SSA returns a reference to the result of statement i.
func SSA(i int) Value { return Value{Kind: ValStmt, Index: i} }

// String returns "_N" for arguments, "%N" for statement results and "const" otherwise.
func (v Value) String() string {
	switch v.Kind {
	case ValArg:
		return fmt.Sprintf("_%d", v.Index)
	case ValStmt:
		return fmt.Sprintf("%%%d", v.Index)
	default:
		return "const"
	}
}

// CalleeKind tags how a call target was resolved.
type CalleeKind uint8

const (
	// CalleeStatic is a user-defined function resolved at compile time.
	CalleeStatic CalleeKind = iota
	// CalleeBuiltin is a language primitive.
	CalleeBuiltin
	// CalleeDynamic is an unresolved target (interface method, function value).
	CalleeDynamic
	// CalleeExternal is a target implemented outside the reflectable program.
	CalleeExternal
)

// Callee identifies the target of a call statement.
type Callee struct {
	Kind CalleeKind
	// Name is the stable identity of the callee, e.g. "pkg/path.Func" or "(*pkg/path.T).M".
	Name string
}

// Static returns a statically resolved callee.
func Static(name string) Callee { return Callee{Kind: CalleeStatic, Name: name} }

// Builtin returns a language-primitive callee.
func Builtin(name string) Callee { return Callee{Kind: CalleeBuiltin, Name: name} }

// Dynamic returns an unresolved callee.
func Dynamic(name string) Callee { return Callee{Kind: CalleeDynamic, Name: name} }

// External returns a callee implemented in non-reflectable code.
func External(name string) Callee { return Callee{Kind: CalleeExternal, Name: name} }

// Loc is a best-effort source location of a statement. InlinedAt, when set, is the location of
// the call site this statement was inlined into.
type Loc struct {
	Pos       token.Pos
	File      string
	Line      int
	Column    int
	InlinedAt *Loc
}

// IsValid returns true if the location refers to a source line.
func (l Loc) IsValid() bool { return l.Line > 0 }

// String returns "file:line:col".
func (l Loc) String() string {
	if !l.IsValid() {
		return "-"
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// Stmt is one instruction of a Function.
type Stmt struct {
	// Index is the position of the statement in Function.Stmts.
	Index int
	// Block is the index of the enclosing block.
	Block int
	Op    Op
	// Type is the static type of the result, or nil if the statement produces no value.
	Type *Type
	Args []Value
	// Edges holds, for OpPhi, the predecessor block index of each of Args.
	Edges []int
	// Callee is set for call statements.
	Callee Callee
	// Field is the component index for OpGetField, OpSetField and OpExtract.
	Field int
	Loc   Loc
	// Name is the symbolic name bound to the result, if recoverable.
	Name string
	// Unchecked marks statements inside a source-marked unchecked region.
	Unchecked bool
}

// Block is a basic block: the half-open statement range [Start, End) of Function.Stmts.
type Block struct {
	Index      int
	Start, End int
	Preds      []int
	Succs      []int
}

// Param is a formal argument of a Function.
type Param struct {
	Name string
	Type *Type
}

// Function is one analyzed IR unit (one function specialization).
type Function struct {
	// Name is the callee identity of the function (see Callee.Name).
	Name   string
	Params []Param
	Stmts  []*Stmt
	Blocks []*Block
	Loc    Loc
}

// BlockStmts returns the statements of block b.
func (f *Function) BlockStmts(b int) []*Stmt {
	blk := f.Blocks[b]
	return f.Stmts[blk.Start:blk.End]
}

// TypeOf returns the static type of v, or nil for constants.
func (f *Function) TypeOf(v Value) *Type {
	switch v.Kind {
	case ValArg:
		return f.Params[v.Index].Type
	case ValStmt:
		return f.Stmts[v.Index].Type
	default:
		return nil
	}
}

// Def returns the statement defining v, or nil if v is not a statement result.
func (f *Function) Def(v Value) *Stmt {
	if v.Kind != ValStmt {
		return nil
	}
	return f.Stmts[v.Index]
}

// NameOf returns the symbolic name of v, or "" if none is recoverable.
func (f *Function) NameOf(v Value) string {
	switch v.Kind {
	case ValArg:
		return f.Params[v.Index].Name
	case ValStmt:
		return f.Stmts[v.Index].Name
	default:
		return ""
	}
}

// Validate checks the structural invariants of the function: statement indices and block
// ranges are consistent, operands refer to existing slots, and φ edges match the operands.
func (f *Function) Validate() error {
	next := 0
	for i, b := range f.Blocks {
		if b.Index != i {
			return fmt.Errorf("block %d has index %d", i, b.Index)
		}
		if b.Start != next || b.End < b.Start || b.End > len(f.Stmts) {
			return fmt.Errorf("block %d has invalid statement range [%d, %d)", i, b.Start, b.End)
		}
		next = b.End
		for _, s := range append(append([]int(nil), b.Preds...), b.Succs...) {
			if s < 0 || s >= len(f.Blocks) {
				return fmt.Errorf("block %d refers to missing block %d", i, s)
			}
		}
	}
	if next != len(f.Stmts) {
		return fmt.Errorf("blocks cover %d of %d statements", next, len(f.Stmts))
	}
	for i, s := range f.Stmts {
		if s.Index != i {
			return fmt.Errorf("statement %d has index %d", i, s.Index)
		}
		for _, a := range s.Args {
			switch a.Kind {
			case ValArg:
				if a.Index < 0 || a.Index >= len(f.Params) {
					return fmt.Errorf("statement %d refers to missing argument %d", i, a.Index)
				}
			case ValStmt:
				if a.Index < 0 || a.Index >= len(f.Stmts) {
					return fmt.Errorf("statement %d refers to missing statement %d", i, a.Index)
				}
			}
		}
		if s.Op == OpPhi && len(s.Edges) != len(s.Args) {
			return fmt.Errorf("phi %d has %d operands but %d edges", i, len(s.Args), len(s.Edges))
		}
	}
	return nil
}
