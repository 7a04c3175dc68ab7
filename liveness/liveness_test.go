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

package liveness

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/ownaway/handle"
	"go.uber.org/ownaway/ir"
)

var _vec = ir.NewMutable("Vector")

// diamond builds
//
//	b0: x = new; branch
//	b1: y = new            -> b3
//	b2: use(x)             -> b3
//	b3: p = phi(b1: y, b2: x); return p
func diamond(t *testing.T, uncheckedUse bool) (*ir.Function, []ir.Value) {
	b := ir.NewBuilder("diamond", ir.Param{Name: "a", Type: _vec})
	b0 := b.StartBlock()
	x := b.Named("x", &ir.Stmt{Op: ir.OpNew, Type: _vec})
	b.Emit(&ir.Stmt{Op: ir.OpBranch, Args: []ir.Value{ir.Const}})
	b1 := b.StartBlock()
	y := b.Named("y", &ir.Stmt{Op: ir.OpNew, Type: _vec})
	b2 := b.StartBlock()
	use := b.Call(ir.Static("pkg.Use"), nil, x, ir.Arg(0))
	b.Stmt(use).Unchecked = uncheckedUse
	b3 := b.StartBlock()
	p := b.Emit(&ir.Stmt{Op: ir.OpPhi, Type: _vec, Args: []ir.Value{y, x}, Edges: []int{b1, b2}})
	b.Return(p)
	b.Edge(b0, b1)
	b.Edge(b0, b2)
	b.Edge(b1, b3)
	b.Edge(b2, b3)
	fn, err := b.Finish()
	require.NoError(t, err)
	return fn, []ir.Value{x, y, p}
}

func TestCompute_PhiEdges(t *testing.T) {
	t.Parallel()

	fn, vals := diamond(t, false)
	idx := handle.NewIndex(fn)
	x, y, p := idx.Of(vals[0]), idx.Of(vals[1]), idx.Of(vals[2])
	a := idx.OfArg(0)
	r := Compute(fn, idx, Options{})

	require.Empty(t, r.LiveIn(3), "phi results are defined at the merge")
	require.Equal(t, handle.NewSet(y), r.LiveOut(1), "only y flows along b1 -> b3")
	require.Equal(t, handle.NewSet(x), r.LiveOut(2), "only x flows along b2 -> b3")
	require.Empty(t, r.LiveIn(1), "x is not read along the b1 path")
	require.Equal(t, handle.NewSet(x, a), r.LiveIn(2))
	require.Equal(t, handle.NewSet(x, a), r.LiveOut(0))
	require.Equal(t, handle.NewSet(a), r.LiveIn(0))
	require.Empty(t, r.LiveOut(3))

	require.Empty(t, r.Uses(fn.Stmts[vals[2].Index]), "phi operands are not read at the merge")
	require.Equal(t, handle.NewSet(p), r.Uses(fn.Stmts[len(fn.Stmts)-1]))
}

func TestCompute_Unchecked(t *testing.T) {
	t.Parallel()

	fn, vals := diamond(t, true)
	idx := handle.NewIndex(fn)
	x := idx.Of(vals[0])
	r := Compute(fn, idx, Options{})

	// The unchecked call contributes no use of a, but x still flows into the phi.
	require.Equal(t, handle.NewSet(x), r.LiveIn(2))
	require.Empty(t, r.LiveIn(0))
	require.True(t, r.Excluded(fn.Stmts[vals[1].Index+1]))

	// A custom override replaces the default.
	r = Compute(fn, idx, Options{Exclude: func(*ir.Stmt) bool { return false }})
	require.Equal(t, handle.NewSet(x, idx.OfArg(0)), r.LiveIn(2))
}

func TestCompute_Loop(t *testing.T) {
	t.Parallel()

	// b0: v = new -> b1
	// b1: w = phi(b0: v, b2: z); branch -> b2, b3
	// b2: z = pkg.Grow(w) -> b1
	// b3: use(v); return
	b := ir.NewBuilder("loop")
	b0 := b.StartBlock()
	v := b.Named("v", &ir.Stmt{Op: ir.OpNew, Type: _vec})
	b1 := b.StartBlock()
	w := b.Emit(&ir.Stmt{Op: ir.OpPhi, Type: _vec, Args: []ir.Value{v, ir.SSA(3)}, Edges: []int{0, 2}})
	b.Emit(&ir.Stmt{Op: ir.OpBranch, Args: []ir.Value{ir.Const}})
	b2 := b.StartBlock()
	z := b.Call(ir.Static("pkg.Grow"), _vec, w)
	b3 := b.StartBlock()
	b.Call(ir.Static("pkg.Use"), nil, v)
	b.Return(ir.Const)
	b.Edge(b0, b1)
	b.Edge(b1, b2)
	b.Edge(b1, b3)
	b.Edge(b2, b1)
	fn, err := b.Finish()
	require.NoError(t, err)
	require.Equal(t, z, ir.SSA(3))

	idx := handle.NewIndex(fn)
	r := Compute(fn, idx, Options{})
	hv, hw, hz := idx.Of(v), idx.Of(w), idx.Of(z)

	require.Equal(t, handle.NewSet(hv), r.LiveIn(1), "v is used after the loop")
	require.Equal(t, handle.NewSet(hv, hw), r.LiveIn(2))
	require.Equal(t, handle.NewSet(hv, hz), r.LiveOut(2), "z flows along the back edge")
	require.Equal(t, handle.NewSet(hv), r.LiveOut(0))
}

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
