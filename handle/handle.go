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

// Package handle maps the tracked values of one function body to small integers ("handles"),
// the coordinate system every later stage of the analysis operates in.
package handle

import (
	"slices"

	"go.uber.org/ownaway/ir"
	"go.uber.org/ownaway/tracking"
)

// Handle identifies one trackable storage location within one analyzed function body. Handles
// are not global: they are only meaningful together with the Index that produced them.
type Handle int

// None is the reserved handle for untracked values.
const None Handle = 0

// Index is the handle mapping of one function. Formal argument i maps to handle i+1 and the
// result of statement j maps to handle len(Params)+j+1; untracked values map to None.
type Index struct {
	fn         *ir.Function
	argTracked []bool
	valTracked []bool
}

// NewIndex computes the tracking masks of fn once, using a fresh tracking.Tracker.
func NewIndex(fn *ir.Function) *Index {
	tr := tracking.New()
	idx := &Index{
		fn:         fn,
		argTracked: make([]bool, len(fn.Params)),
		valTracked: make([]bool, len(fn.Stmts)),
	}
	for i, p := range fn.Params {
		idx.argTracked[i] = tr.IsTracked(p.Type)
	}
	for i, s := range fn.Stmts {
		idx.valTracked[i] = tr.IsTracked(s.Type)
	}
	return idx
}

// Func returns the function this index was computed for.
func (x *Index) Func() *ir.Function { return x.fn }

// Len returns one more than the largest handle of the function, i.e., the size of a slice
// indexed by handles.
func (x *Index) Len() int { return len(x.fn.Params) + len(x.fn.Stmts) + 1 }

// Of returns the handle of v, or None if v is untracked.
func (x *Index) Of(v ir.Value) Handle {
	switch v.Kind {
	case ir.ValArg:
		if x.argTracked[v.Index] {
			return Handle(v.Index + 1)
		}
	case ir.ValStmt:
		if x.valTracked[v.Index] {
			return Handle(len(x.fn.Params) + v.Index + 1)
		}
	}
	return None
}

// OfStmt returns the handle defined by statement i, or None.
func (x *Index) OfStmt(i int) Handle { return x.Of(ir.SSA(i)) }

// OfArg returns the handle of formal argument i, or None.
func (x *Index) OfArg(i int) Handle { return x.Of(ir.Arg(i)) }

// Value returns the IR value a handle was derived from. It panics on None.
func (x *Index) Value(h Handle) ir.Value {
	if h == None {
		panic("handle: Value called on the untracked handle")
	}
	n := int(h) - 1
	if n < len(x.fn.Params) {
		return ir.Arg(n)
	}
	return ir.SSA(n - len(x.fn.Params))
}

// Name returns the symbolic name of the value behind h, or "".
func (x *Index) Name(h Handle) string {
	if h == None {
		return ""
	}
	return x.fn.NameOf(x.Value(h))
}

// Set is a set of handles.
type Set map[Handle]struct{}

// NewSet returns a set holding the given (tracked) handles.
func NewSet(hs ...Handle) Set {
	s := make(Set, len(hs))
	for _, h := range hs {
		s.Add(h)
	}
	return s
}

// Add inserts h unless it is None.
func (s Set) Add(h Handle) {
	if h != None {
		s[h] = struct{}{}
	}
}

// Has returns true if h is in s.
func (s Set) Has(h Handle) bool {
	_, ok := s[h]
	return ok
}

// Remove deletes h from s.
func (s Set) Remove(h Handle) { delete(s, h) }

// AddAll inserts every element of o.
func (s Set) AddAll(o Set) {
	for h := range o {
		s[h] = struct{}{}
	}
}

// Clone returns a copy of s.
func (s Set) Clone() Set {
	c := make(Set, len(s))
	c.AddAll(s)
	return c
}

// Equal returns true if s and o hold the same handles.
func (s Set) Equal(o Set) bool {
	if len(s) != len(o) {
		return false
	}
	for h := range s {
		if !o.Has(h) {
			return false
		}
	}
	return true
}

// Sorted returns the handles of s in increasing order.
func (s Set) Sorted() []Handle {
	out := make([]Handle, 0, len(s))
	for h := range s {
		out = append(out, h)
	}
	slices.Sort(out)
	return out
}
