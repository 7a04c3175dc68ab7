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

package summary

import (
	"sync"

	"go.uber.org/ownaway/ir"
)

// Marker function names. The surface annotation layer (see package own) emits calls to these on
// every explicit rebinding; they always start a fresh binding origin and their result aliases
// exactly their sole argument.
const (
	// MoveMarker transfers ownership of its argument to the result.
	MoveMarker = "go.uber.org/ownaway/own.Move"
	// BorrowMarker rebinds its argument under a new, non-owning name.
	BorrowMarker = "go.uber.org/ownaway/own.Borrow"
	// OpaqueMarker is an identity barrier that hides the argument's provenance from inference.
	OpaqueMarker = "go.uber.org/ownaway/own.Opaque"
)

// RefGet is the accessor of a borrowed reference. Its result aliases the reference and keeps
// its binding.
const RefGet = "(go.uber.org/ownaway/own.Ref[T]).Get"

// Rule produces the summary of a call with the given number of arguments.
type Rule func(nargs int) *Summary

// Fixed returns a Rule that ignores the arity.
func Fixed(s *Summary) Rule {
	return func(int) *Summary { return s.Clone() }
}

// ConsumeAll is the Rule of operations that take ownership of every argument.
func ConsumeAll(nargs int) *Summary {
	return &Summary{Consumes: Range(nargs), RetAliases: Range(nargs)}
}

// entry is one registered override.
type entry struct {
	rule   Rule
	marker bool
	keeps  bool
}

// Registry is the table of explicit effect overrides: the ground truth for operations the analyzer
// cannot reflect into. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

// NewDefaultRegistry returns a registry preloaded with the language builtins and the marker
// functions.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	for name, rule := range _builtins {
		r.Register(name, rule)
	}
	r.RegisterMarker(MoveMarker, &Summary{Consumes: Of(0), RetAliases: Of(0)})
	r.RegisterMarker(BorrowMarker, &Summary{RetAliases: Of(0)})
	r.RegisterMarker(OpaqueMarker, &Summary{RetAliases: Of(0)})
	r.RegisterPassThrough(RefGet, &Summary{RetAliases: Of(0)})
	return r
}

// Register installs (or replaces) the override for the named callee.
func (r *Registry) Register(name string, rule Rule) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[name] = entry{rule: rule}
}

// RegisterSummary installs a fixed-arity override for the named callee.
func (r *Registry) RegisterSummary(name string, s *Summary) {
	r.Register(name, Fixed(s))
}

// RegisterMarker installs a fresh-origin marker with the given summary.
func (r *Registry) RegisterMarker(name string, s *Summary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[name] = entry{rule: Fixed(s), marker: true}
}

// RegisterPassThrough installs an override whose result keeps the binding of its first argument.
func (r *Registry) RegisterPassThrough(name string, s *Summary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[name] = entry{rule: Fixed(s), keeps: true}
}

// Lookup returns the override for the named callee called with nargs arguments.
func (r *Registry) Lookup(name string, nargs int) (*Summary, bool) {
	r.mu.RLock()
	e, ok := r.entries[name]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return e.rule(nargs), true
}

// IsMarker returns true if the named callee is a registered fresh-origin marker.
func (r *Registry) IsMarker(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entries[name].marker
}

// KeepsBinding returns true if the named callee is a registered pass-through.
func (r *Registry) KeepsBinding(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entries[name].keeps
}

// _builtins are the overrides for language primitives, keyed by builtin name. Channel send, map
// assignment, and goroutine start are modeled as builtins by the front end.
var _builtins = map[string]Rule{
	"append":   Fixed(&Summary{Writes: Of(0), Consumes: Of(1), RetAliases: Of(0)}),
	"copy":     Fixed(&Summary{Writes: Of(0)}),
	"clear":    Fixed(&Summary{Writes: Of(0)}),
	"delete":   Fixed(&Summary{Writes: Of(0)}),
	"close":    Fixed(&Summary{Writes: Of(0)}),
	"len":      Fixed(Empty),
	"cap":      Fixed(Empty),
	"min":      Fixed(Empty),
	"max":      Fixed(Empty),
	"print":    Fixed(Empty),
	"println":  Fixed(Empty),
	"real":     Fixed(Empty),
	"imag":     Fixed(Empty),
	"complex":  Fixed(Empty),
	"recover":  Fixed(Empty),
	"panic":    Fixed(Empty),
	"defer":    Fixed(Empty),
	"chanrecv": Fixed(Empty),
	// Sending on a channel hands the value over to the receiver.
	"chansend": Fixed(&Summary{Consumes: Of(1)}),
	// Map assignment stores both key and value into the map.
	"mapassign": Fixed(&Summary{Writes: Of(0), Consumes: Of(1, 2)}),
	// A started goroutine may keep every argument (including the closure) alive.
	"go":               ConsumeAll,
	"ssa:wrapnilchk":   Fixed(&Summary{RetAliases: Of(0)}),
	"unsafe.Add":       Fixed(&Summary{RetAliases: Of(0)}),
	"unsafe.Slice":     Fixed(&Summary{RetAliases: Of(0)}),
	"unsafe.SliceData": Fixed(&Summary{RetAliases: Of(0)}),
	"unsafe.String":    Fixed(&Summary{RetAliases: Of(0)}),
}

// ForOp returns the summary of a non-call statement, positions referring to the statement's
// Args. Call statements are not covered (ok is false).
func ForOp(s *ir.Stmt) (*Summary, bool) {
	switch s.Op {
	case ir.OpCall, ir.OpInvoke, ir.OpForeign:
		return nil, false
	case ir.OpNew, ir.OpTuple:
		return ConsumeAll(len(s.Args)), true
	case ir.OpSetField, ir.OpStore:
		return &Summary{Writes: Of(0), Consumes: Of(1)}, true
	case ir.OpBoxSet:
		// Writing into a captured-variable box is not an ownership transfer.
		return &Summary{Writes: Of(0)}, true
	case ir.OpPi, ir.OpCopy, ir.OpExtract, ir.OpGetField, ir.OpLoad:
		return &Summary{RetAliases: Of(0)}, true
	case ir.OpPhi:
		return &Summary{RetAliases: Range(len(s.Args))}, true
	default:
		// OpPure, OpBoxNew, OpBoxGet, OpReturn, OpBranch.
		return Empty, true
	}
}
