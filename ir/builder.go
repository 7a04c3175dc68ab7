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

package ir

import (
	"fmt"
)

// Builder incrementally constructs a Function. Blocks are filled one at a time, in order: every
// statement emitted after StartBlock belongs to that block until the next StartBlock.
type Builder struct {
	fn  *Function
	loc Loc
}

// NewBuilder returns a builder for a function with the given name and formal parameters.
func NewBuilder(name string, params ...Param) *Builder {
	return &Builder{fn: &Function{Name: name, Params: params}}
}

// StartBlock closes the current block (if any) and opens a new one, returning its index.
func (b *Builder) StartBlock() int {
	idx := len(b.fn.Blocks)
	b.fn.Blocks = append(b.fn.Blocks, &Block{Index: idx, Start: len(b.fn.Stmts), End: len(b.fn.Stmts)})
	return idx
}

// Edge records a control-flow edge from block `from` to block `to`.
func (b *Builder) Edge(from, to int) {
	b.fn.Blocks[from].Succs = append(b.fn.Blocks[from].Succs, to)
	b.fn.Blocks[to].Preds = append(b.fn.Blocks[to].Preds, from)
}

// At sets the location attached to subsequently emitted statements.
func (b *Builder) At(loc Loc) *Builder {
	b.loc = loc
	return b
}

// Emit appends a statement to the current block and returns a reference to its result.
func (b *Builder) Emit(s *Stmt) Value {
	if len(b.fn.Blocks) == 0 {
		b.StartBlock()
	}
	cur := b.fn.Blocks[len(b.fn.Blocks)-1]
	s.Index = len(b.fn.Stmts)
	s.Block = cur.Index
	if !s.Loc.IsValid() {
		s.Loc = b.loc
	}
	b.fn.Stmts = append(b.fn.Stmts, s)
	cur.End = len(b.fn.Stmts)
	return SSA(s.Index)
}

// Stmt returns the statement defining v for further adjustment (e.g., setting its Name).
func (b *Builder) Stmt(v Value) *Stmt {
	return b.fn.Def(v)
}

// Call emits a static call of callee returning a value of type typ.
func (b *Builder) Call(callee Callee, typ *Type, args ...Value) Value {
	op := OpCall
	switch callee.Kind {
	case CalleeDynamic:
		op = OpInvoke
	case CalleeExternal:
		op = OpForeign
	}
	return b.Emit(&Stmt{Op: op, Callee: callee, Type: typ, Args: args})
}

// Named emits a statement and binds the given symbolic name to its result.
func (b *Builder) Named(name string, s *Stmt) Value {
	s.Name = name
	return b.Emit(s)
}

// Return emits a return of v; pass Const for a bare return.
func (b *Builder) Return(v Value) {
	b.Emit(&Stmt{Op: OpReturn, Args: []Value{v}})
}

// Finish validates and returns the constructed function.
func (b *Builder) Finish() (*Function, error) {
	if len(b.fn.Blocks) == 0 {
		b.StartBlock()
	}
	if err := b.fn.Validate(); err != nil {
		return nil, fmt.Errorf("build %q: %w", b.fn.Name, err)
	}
	return b.fn, nil
}
