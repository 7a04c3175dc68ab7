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

// Package tracking decides which static types participate in ownership tracking.
//
// A type is tracked if values of that type can denote mutable storage: raw pointers, borrow-like
// references, mutable aggregates, and (conservatively) anything dynamic or unresolvable. Pure
// bit patterns, the empty type, and globally-shared handles (module and type-object references,
// concurrency primitives) are never tracked. Unions and immutable aggregates are tracked if any of
// their members or fields, recursively, is tracked.
//
// A narrower question is whether a type is owned, i.e., whether a value of that type can be moved.
// Raw pointers and borrow-like references are tracked for write-conflict purposes but consuming
// them never moves an owned value.
package tracking

import (
	"go.uber.org/ownaway/ir"
)

// Tracker answers trackability questions and memoizes the answers per type node. A Tracker is not
// safe for concurrent use; create one per analyzed function.
type Tracker struct {
	tracked map[*ir.Type]bool
	owned   map[*ir.Type]bool
}

// New returns an empty Tracker.
func New() *Tracker {
	return &Tracker{
		tracked: make(map[*ir.Type]bool),
		owned:   make(map[*ir.Type]bool),
	}
}

// IsTracked returns true if values of type t must participate in ownership tracking.
func (tr *Tracker) IsTracked(t *ir.Type) bool {
	if t == nil {
		return false
	}
	if v, ok := tr.tracked[t]; ok {
		return v
	}
	v := search(t, trackedLeaf)
	tr.tracked[t] = v
	return v
}

// IsOwned returns true if values of type t can be moved (consumed) away from their binding.
func (tr *Tracker) IsOwned(t *ir.Type) bool {
	if t == nil {
		return false
	}
	if v, ok := tr.owned[t]; ok {
		return v
	}
	v := search(t, ownedLeaf)
	tr.owned[t] = v
	return v
}

// IsTracked is a convenience wrapper around a throwaway Tracker.
func IsTracked(t *ir.Type) bool { return New().IsTracked(t) }

// IsOwned is a convenience wrapper around a throwaway Tracker.
func IsOwned(t *ir.Type) bool { return New().IsOwned(t) }

// verdict is the result of inspecting a single type node.
type verdict uint8

const (
	// no means the node by itself does not make the type qualify.
	no verdict = iota
	// yes means the node makes the whole type qualify.
	yes
	// descend means the answer depends on the node's members or fields.
	descend
)

func trackedLeaf(t *ir.Type) verdict {
	switch t.Kind {
	case ir.KindBottom, ir.KindShared, ir.KindBits:
		return no
	case ir.KindUnion, ir.KindImmutable:
		return descend
	default:
		// KindAny, KindUnresolved, KindPtr, KindRef, KindMutable.
		return yes
	}
}

func ownedLeaf(t *ir.Type) verdict {
	switch t.Kind {
	case ir.KindBottom, ir.KindShared, ir.KindBits, ir.KindPtr, ir.KindRef:
		return no
	case ir.KindUnion, ir.KindImmutable:
		return descend
	default:
		return yes
	}
}

// search walks the union members and immutable fields reachable from root with an explicit
// worklist, returning true as soon as some node qualifies. The visited set makes recursive type
// definitions terminate: a cycle never contributes a qualifying node by itself.
func search(root *ir.Type, leaf func(*ir.Type) verdict) bool {
	visited := map[*ir.Type]bool{root: true}
	worklist := []*ir.Type{root}
	for len(worklist) > 0 {
		t := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]

		switch leaf(t) {
		case yes:
			return true
		case no:
			continue
		}

		children := t.Fields
		if t.Kind == ir.KindUnion {
			children = t.Members
		}
		for _, c := range children {
			if c == nil || visited[c] {
				continue
			}
			visited[c] = true
			worklist = append(worklist, c)
		}
	}
	return false
}
