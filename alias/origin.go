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

package alias

import (
	"go.uber.org/ownaway/handle"
	"go.uber.org/ownaway/ir"
	"go.uber.org/ownaway/summary"
)

var _ Bindings = (*summary.Registry)(nil)

// Bindings tells origin construction how registered callees treat the binding of their argument.
type Bindings interface {
	// IsMarker returns true if the named callee rebinds its argument under a fresh origin.
	IsMarker(name string) bool
	// KeepsBinding returns true if the named callee's result is its first argument's binding.
	KeepsBinding(name string) bool
}

// Origins maps every tracked handle of a function to the handle that started its binding.
type Origins struct {
	origin []handle.Handle
}

// BuildOrigins assigns binding origins in a single forward pass. Copies and refinements inherit
// the origin of their source, projections out of a multi-value inherit the origin of the
// projected element, and reads of a captured-variable box inherit the origin of the value last
// stored into it, since they observe the same named binding. Static calls to a pass-through
// named by b inherit the origin of their first argument. Everything else, including every other
// call and every rebind marker, starts a fresh origin. A nil b treats every call as fresh.
func BuildOrigins(fn *ir.Function, idx *handle.Index, b Bindings) *Origins {
	o := &Origins{origin: make([]handle.Handle, idx.Len())}
	for i := range fn.Params {
		if h := idx.OfArg(i); h != handle.None {
			o.origin[h] = h
		}
	}

	boxes := boxContents(fn, idx)
	for _, s := range fn.Stmts {
		def := idx.OfStmt(s.Index)
		if def == handle.None {
			continue
		}
		src := handle.None
		switch s.Op {
		case ir.OpPi, ir.OpCopy:
			src = idx.Of(s.Args[0])
		case ir.OpExtract:
			src = idx.Of(extractSource(fn, s))
		case ir.OpBoxGet:
			if w, ok := boxes[s.Index]; ok {
				src = idx.Of(w)
			}
		case ir.OpCall:
			if keepsBinding(b, s) {
				src = idx.Of(s.Args[0])
			}
		}
		if src != handle.None && o.origin[src] != handle.None {
			o.origin[def] = o.origin[src]
		} else {
			o.origin[def] = def
		}
	}
	return o
}

func keepsBinding(b Bindings, s *ir.Stmt) bool {
	if b == nil || len(s.Args) == 0 || b.IsMarker(s.Callee.Name) {
		return false
	}
	return b.KeepsBinding(s.Callee.Name)
}

// Of returns the origin of h, or handle.None if h is untracked.
func (o *Origins) Of(h handle.Handle) handle.Handle {
	if h == handle.None || int(h) >= len(o.origin) {
		return handle.None
	}
	return o.origin[h]
}

// Same returns true if a and b are the same logical binding.
func (o *Origins) Same(a, b handle.Handle) bool {
	oa := o.Of(a)
	return oa != handle.None && oa == o.Of(b)
}
