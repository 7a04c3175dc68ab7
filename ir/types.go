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
	"strings"
)

//go:generate go tool stringer -type TypeKind -trimprefix Kind

// TypeKind tags the variant held by a Type.
type TypeKind uint8

const (
	// KindUnresolved is a type that could not be concretely resolved.
	KindUnresolved TypeKind = iota
	// KindBottom is the empty type: values of this type are never produced (unreachable code).
	KindBottom
	// KindAny is the fully dynamic type.
	KindAny
	// KindUnion is a union of its Members.
	KindUnion
	// KindShared is a globally-shared handle type (module or type-object references, concurrency
	// primitives) that escapes into runtime structures as a matter of course.
	KindShared
	// KindPtr is a raw pointer into memory.
	KindPtr
	// KindRef is a borrow-like, non-owning reference to memory.
	KindRef
	// KindMutable is a concrete mutable aggregate.
	KindMutable
	// KindImmutable is a concrete immutable aggregate whose components are listed in Fields.
	KindImmutable
	// KindBits is a plain bit-pattern type (integers, floats, strings, bools).
	KindBits
)

// Type is one node of the static type lattice the analyzer reasons about. Types are linked
// through pointers so that recursive definitions form cycles, and must therefore be compared by
// identity rather than by value.
type Type struct {
	Kind TypeKind
	// Name is a human-readable name used in dumps and diagnostics.
	Name string
	// Members lists the alternatives of a KindUnion.
	Members []*Type
	// Fields lists the components of a KindImmutable or KindMutable aggregate.
	Fields []*Type
}

// Commonly used leaf types.
var (
	Bottom     = &Type{Kind: KindBottom, Name: "Never"}
	AnyType    = &Type{Kind: KindAny, Name: "Any"}
	Bits       = &Type{Kind: KindBits, Name: "Bits"}
	Unresolved = &Type{Kind: KindUnresolved, Name: "?"}
)

// NewUnion returns the union of the given member types.
func NewUnion(members ...*Type) *Type {
	return &Type{Kind: KindUnion, Members: members}
}

// NewMutable returns a mutable aggregate type with the given name and fields.
func NewMutable(name string, fields ...*Type) *Type {
	return &Type{Kind: KindMutable, Name: name, Fields: fields}
}

// NewImmutable returns an immutable aggregate type with the given name and fields.
func NewImmutable(name string, fields ...*Type) *Type {
	return &Type{Kind: KindImmutable, Name: name, Fields: fields}
}

// NewShared returns a globally-shared handle type with the given name.
func NewShared(name string) *Type {
	return &Type{Kind: KindShared, Name: name}
}

// NewPtr returns a raw pointer type with the given name.
func NewPtr(name string) *Type {
	return &Type{Kind: KindPtr, Name: name}
}

// NewRef returns a borrow-like reference type with the given name.
func NewRef(name string) *Type {
	return &Type{Kind: KindRef, Name: name}
}

// String returns a short human-readable representation of the type.
func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	if t.Name != "" {
		return t.Name
	}
	if t.Kind == KindUnion {
		names := make([]string, len(t.Members))
		for i, m := range t.Members {
			names[i] = m.String()
		}
		return "Union{" + strings.Join(names, ", ") + "}"
	}
	return t.Kind.String()
}
