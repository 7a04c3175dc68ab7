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

// Package liveness computes, for every basic block of a function, the handles that may still be
// read on some path forward from the block's entry and exit. Liveness works on raw handles, not on
// alias classes: whether a handle is read again is a syntactic fact.
//
// Operands of φ statements are read along a specific control-flow edge, so they are attributed to
// the exit of the corresponding predecessor rather than to the entry of the merge block.
package liveness

import (
	"go.uber.org/ownaway/handle"
	"go.uber.org/ownaway/ir"
)

// Options configures a liveness computation.
type Options struct {
	// Exclude reports statements that contribute neither uses nor definitions. When nil,
	// statements inside unchecked regions (ir.Stmt.Unchecked) are excluded.
	Exclude func(s *ir.Stmt) bool
}

func unchecked(s *ir.Stmt) bool { return s.Unchecked }

// Result holds the fixpoint of one function.
type Result struct {
	idx     *handle.Index
	exclude func(*ir.Stmt) bool

	// ueVar[b] holds handles read in b before any definition in b (upward exposed).
	ueVar []handle.Set
	// varKill[b] holds handles defined in b, including by φ statements.
	varKill []handle.Set
	// phiUse[p] holds the handles read by φ statements along the edges leaving p.
	phiUse []handle.Set

	in  []handle.Set
	out []handle.Set
}

// Compute runs the backward fixpoint over fn.
func Compute(fn *ir.Function, idx *handle.Index, opts Options) *Result {
	r := &Result{
		idx:     idx,
		exclude: opts.Exclude,
		ueVar:   make([]handle.Set, len(fn.Blocks)),
		varKill: make([]handle.Set, len(fn.Blocks)),
		phiUse:  make([]handle.Set, len(fn.Blocks)),
		in:      make([]handle.Set, len(fn.Blocks)),
		out:     make([]handle.Set, len(fn.Blocks)),
	}
	if r.exclude == nil {
		r.exclude = unchecked
	}
	for b := range fn.Blocks {
		r.ueVar[b], r.varKill[b] = handle.NewSet(), handle.NewSet()
		r.phiUse[b] = handle.NewSet()
		r.in[b], r.out[b] = handle.NewSet(), handle.NewSet()
	}
	r.prologue(fn)
	r.solve(fn)
	return r
}

// prologue computes the per-block use and kill sets.
func (r *Result) prologue(fn *ir.Function) {
	for b := range fn.Blocks {
		stmts := fn.BlockStmts(b)
		for i := len(stmts) - 1; i >= 0; i-- {
			s := stmts[i]
			if r.exclude(s) {
				continue
			}
			def := r.idx.OfStmt(s.Index)
			r.varKill[b].Add(def)
			r.ueVar[b].Remove(def)
			if s.Op == ir.OpPhi {
				for k, a := range s.Args {
					if k < len(s.Edges) {
						r.phiUse[s.Edges[k]].Add(r.idx.Of(a))
					}
				}
				continue
			}
			r.ueVar[b].AddAll(r.Uses(s))
		}
	}
}

// solve iterates live_out[b] = U_{s in succ(b)} (live_in[s] U phiUse[b]) and
// live_in[b] = ueVar[b] U (live_out[b] \ varKill[b]) until nothing changes.
func (r *Result) solve(fn *ir.Function) {
	work := make([]int, 0, len(fn.Blocks))
	queued := make([]bool, len(fn.Blocks))
	for b := len(fn.Blocks) - 1; b >= 0; b-- {
		work = append(work, b)
		queued[b] = true
	}

	for len(work) > 0 {
		b := work[0]
		work = work[1:]
		queued[b] = false

		out := r.phiUse[b].Clone()
		for _, s := range fn.Blocks[b].Succs {
			out.AddAll(r.in[s])
		}
		in := r.ueVar[b].Clone()
		for h := range out {
			if !r.varKill[b].Has(h) {
				in.Add(h)
			}
		}
		r.out[b] = out
		if in.Equal(r.in[b]) {
			continue
		}
		r.in[b] = in
		for _, p := range fn.Blocks[b].Preds {
			if !queued[p] {
				queued[p] = true
				work = append(work, p)
			}
		}
	}
}

// LiveIn returns the handles live at the entry of block b, after its φ statements. The set must
// not be modified.
func (r *Result) LiveIn(b int) handle.Set { return r.in[b] }

// LiveOut returns the handles live at the exit of block b, including the operands its successors'
// φ statements read along the edges leaving b. The set must not be modified.
func (r *Result) LiveOut(b int) handle.Set { return r.out[b] }

// Excluded returns true if s is opaque to the analysis.
func (r *Result) Excluded(s *ir.Stmt) bool { return r.exclude(s) }

// Uses returns the tracked handles directly read by s. φ statements read nothing here; their
// operands are read on the incoming edges.
func (r *Result) Uses(s *ir.Stmt) handle.Set {
	uses := handle.NewSet()
	if s.Op == ir.OpPhi {
		return uses
	}
	for _, a := range s.Args {
		uses.Add(r.idx.Of(a))
	}
	return uses
}
