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


package lower

import (
	"go/types"

	"go.uber.org/ownaway/config"
	"go.uber.org/ownaway/ir"
	"golang.org/x/tools/go/types/typeutil"
)

// _sharedPkgs are the packages whose named types are globally shared handles: they escape into
// runtime structures as a matter of course and are never tracked.
var _sharedPkgs = map[string]bool{
	"sync":        true,
	"sync/atomic": true,
	"context":     true,
	"reflect":     true,
	"go/types":    true,
}

// TypeMap maps Go types to the IR type lattice. Results are memoized by type identity, so
// recursive named types map to cyclic IR types. It is not safe for concurrent use.
type TypeMap struct {
	m typeutil.Map
	// opaque holds the types that are not go/types types (e.g. the internal type of the SSA
	// defer stack), which typeutil.Map cannot hash.
	opaque map[types.Type]*ir.Type
	qual   types.Qualifier
}

// NewTypeMap returns a TypeMap naming types relative to pkg.
func NewTypeMap(pkg *types.Package) *TypeMap {
	return &TypeMap{qual: types.RelativeTo(pkg)}
}

// Of returns the IR type of t. A nil t (no result) maps to nil.
func (tm *TypeMap) Of(t types.Type) *ir.Type {
	if t == nil {
		return nil
	}
	if !isGoType(t) {
		if v, ok := tm.opaque[t]; ok {
			return v
		}
		if tm.opaque == nil {
			tm.opaque = make(map[types.Type]*ir.Type)
		}
		res := &ir.Type{Name: t.String(), Kind: ir.KindUnresolved}
		tm.opaque[t] = res
		return res
	}
	if v := tm.m.At(t); v != nil {
		return v.(*ir.Type)
	}
	res := &ir.Type{Name: types.TypeString(t, tm.qual)}
	// Registered before filling so that recursive references resolve to res.
	tm.m.Set(t, res)
	tm.fill(res, t)
	return res
}

// isGoType returns true if t is one of the go/types type implementations.
func isGoType(t types.Type) bool {
	switch t.(type) {
	case *types.Basic, *types.Pointer, *types.Slice, *types.Map, *types.Chan, *types.Array,
		*types.Struct, *types.Tuple, *types.Signature, *types.Interface, *types.Union,
		*types.Named, *types.Alias, *types.TypeParam:
		return true
	default:
		return false
	}
}

func (tm *TypeMap) fill(res *ir.Type, t types.Type) {
	switch t := t.(type) {
	case *types.Alias:
		aliased := tm.Of(types.Unalias(t))
		res.Kind, res.Fields, res.Members = aliased.Kind, aliased.Fields, aliased.Members
	case *types.Named:
		obj := t.Origin().Obj()
		switch {
		case obj.Pkg() != nil && obj.Pkg().Path() == config.OwnPkgPath && obj.Name() == "Ref":
			res.Kind = ir.KindRef
		case obj.Pkg() != nil && _sharedPkgs[obj.Pkg().Path()]:
			res.Kind = ir.KindShared
		default:
			tm.fillUnderlying(res, t.Underlying())
		}
	case *types.TypeParam:
		terms := coreTerms(t)
		if len(terms) == 0 {
			res.Kind = ir.KindUnresolved
			return
		}
		res.Kind = ir.KindUnion
		for _, term := range terms {
			res.Members = append(res.Members, tm.Of(term))
		}
	default:
		tm.fillUnderlying(res, t)
	}
}

func (tm *TypeMap) fillUnderlying(res *ir.Type, u types.Type) {
	switch u := u.(type) {
	case *types.Basic:
		switch u.Kind() {
		case types.UnsafePointer:
			res.Kind = ir.KindPtr
		case types.Invalid:
			res.Kind = ir.KindAny
		default:
			res.Kind = ir.KindBits
		}
	case *types.Pointer:
		if elem := tm.Of(u.Elem()); elem.Kind == ir.KindShared {
			res.Kind = ir.KindShared
			return
		}
		res.Kind = ir.KindMutable
	case *types.Slice, *types.Map:
		res.Kind = ir.KindMutable
	case *types.Chan:
		res.Kind = ir.KindShared
	case *types.Interface, *types.Signature:
		res.Kind = ir.KindAny
	case *types.Struct:
		res.Kind = ir.KindImmutable
		for i := range u.NumFields() {
			res.Fields = append(res.Fields, tm.Of(u.Field(i).Type()))
		}
	case *types.Array:
		res.Kind = ir.KindImmutable
		res.Fields = []*ir.Type{tm.Of(u.Elem())}
	case *types.Tuple:
		res.Kind = ir.KindImmutable
		for i := range u.Len() {
			res.Fields = append(res.Fields, tm.Of(u.At(i).Type()))
		}
	case *types.TypeParam:
		tm.fill(res, u)
	default:
		res.Kind = ir.KindUnresolved
	}
}

// coreTerms returns the types of the union terms constraining tp, or nil if tp is constrained by
// methods only.
func coreTerms(tp *types.TypeParam) []types.Type {
	iface, ok := tp.Constraint().Underlying().(*types.Interface)
	if !ok {
		return nil
	}
	var terms []types.Type
	for i := range iface.NumEmbeddeds() {
		switch e := iface.EmbeddedType(i).(type) {
		case *types.Union:
			for j := range e.Len() {
				terms = append(terms, e.Term(j).Type())
			}
		case *types.Interface, *types.TypeParam:
			// Method sets and nested constraints add no terms.
		default:
			terms = append(terms, e)
		}
	}
	return terms
}
