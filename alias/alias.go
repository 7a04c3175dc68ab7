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

// Package alias computes the two partitions of handles the checker compares: alias classes,
// which group handles that may denote overlapping storage, and binding origins, which group
// handles that are the same logical binding observed at different points. Two live handles in the
// same class but with different origins are two names for one object.
package alias

import (
	"go.uber.org/ownaway/handle"
	"go.uber.org/ownaway/ir"
	"go.uber.org/ownaway/summary"
)

// Resolver supplies the effect summaries of call statements during class construction.
type Resolver interface {
	// CallEffect returns the effect summary of call statement s of fn, or nil if nothing is
	// known about the callee.
	CallEffect(fn *ir.Function, s *ir.Stmt) *summary.Summary
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(fn *ir.Function, s *ir.Stmt) *summary.Summary

// CallEffect calls f.
func (f ResolverFunc) CallEffect(fn *ir.Function, s *ir.Stmt) *summary.Summary { return f(fn, s) }

// Classes is the alias partition of one function.
type Classes struct {
	idx *handle.Index
	uf  *UnionFind
}

// Build constructs the alias classes of fn in a single forward pass over its statements. A nil
// resolver makes every call result alias all of its arguments.
func Build(fn *ir.Function, idx *handle.Index, r Resolver) *Classes {
	c := &Classes{idx: idx, uf: NewUnionFind(idx.Len())}
	boxes := boxContents(fn, idx)

	for _, s := range fn.Stmts {
		def := idx.OfStmt(s.Index)
		if def == handle.None {
			continue
		}
		switch s.Op {
		case ir.OpPi, ir.OpCopy, ir.OpGetField, ir.OpLoad:
			c.uf.Union(def, idx.Of(s.Args[0]))
		case ir.OpPhi, ir.OpNew:
			for _, a := range s.Args {
				c.uf.Union(def, idx.Of(a))
			}
		case ir.OpTuple:
			// A tuple of two or more distinct tracked objects bundles independent values; only the
			// single-element case aliases.
			if h, ok := soleTracked(idx, s.Args); ok {
				c.uf.Union(def, h)
			}
		case ir.OpExtract:
			c.uf.Union(def, idx.Of(extractSource(fn, s)))
		case ir.OpBoxGet:
			if w, ok := boxes[s.Index]; ok {
				c.uf.Union(def, idx.Of(w))
			}
		case ir.OpCall, ir.OpInvoke, ir.OpForeign:
			var eff *summary.Summary
			if r != nil {
				eff = r.CallEffect(fn, s)
			}
			if eff == nil {
				for _, a := range s.Args {
					c.uf.Union(def, idx.Of(a))
				}
				continue
			}
			for _, p := range eff.RetAliases {
				if p < len(s.Args) {
					c.uf.Union(def, idx.Of(s.Args[p]))
				}
			}
		}
	}
	return c
}

// Index returns the handle index the classes were built over.
func (c *Classes) Index() *handle.Index { return c.idx }

// Root returns the representative of h's class, or handle.None for the untracked handle.
func (c *Classes) Root(h handle.Handle) handle.Handle {
	if h == handle.None {
		return handle.None
	}
	return c.uf.Find(h)
}

// Same returns true if a and b may denote overlapping storage.
func (c *Classes) Same(a, b handle.Handle) bool { return c.uf.Same(a, b) }

// soleTracked returns the tracked handle among vals if there is exactly one distinct one.
func soleTracked(idx *handle.Index, vals []ir.Value) (handle.Handle, bool) {
	found := handle.None
	for _, v := range vals {
		h := idx.Of(v)
		if h == handle.None || h == found {
			continue
		}
		if found != handle.None {
			return handle.None, false
		}
		found = h
	}
	return found, found != handle.None
}

// extractSource returns the value an Extract statement projects. Projections out of a tuple
// literal resolve to the corresponding element.
func extractSource(fn *ir.Function, s *ir.Stmt) ir.Value {
	src := s.Args[0]
	if d := fn.Def(src); d != nil && d.Op == ir.OpTuple && s.Field >= 0 && s.Field < len(d.Args) {
		return d.Args[s.Field]
	}
	return src
}

// boxContents maps every BoxGet statement to the value most recently stored into its box in
// program order, either by the box's construction or by a BoxSet.
func boxContents(fn *ir.Function, idx *handle.Index) map[int]ir.Value {
	last := make(map[ir.Value]ir.Value)
	reads := make(map[int]ir.Value)
	for _, s := range fn.Stmts {
		switch s.Op {
		case ir.OpBoxNew:
			if len(s.Args) > 0 && idx.Of(s.Args[0]) != handle.None {
				last[ir.SSA(s.Index)] = s.Args[0]
			}
		case ir.OpBoxSet:
			if idx.Of(s.Args[1]) != handle.None {
				last[s.Args[0]] = s.Args[1]
			} else {
				delete(last, s.Args[0])
			}
		case ir.OpBoxGet:
			if w, ok := last[s.Args[0]]; ok {
				reads[s.Index] = w
			}
		}
	}
	return reads
}
