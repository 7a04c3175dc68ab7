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

package handle

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/ownaway/ir"
)

func TestIndex(t *testing.T) {
	t.Parallel()

	vec := ir.NewMutable("Vector")
	b := ir.NewBuilder("f",
		ir.Param{Name: "n", Type: ir.Bits},
		ir.Param{Name: "v", Type: vec},
		ir.Param{Name: "p", Type: ir.NewPtr("Ptr")},
	)
	sum := b.Emit(&ir.Stmt{Op: ir.OpPure, Type: ir.Bits, Args: []ir.Value{ir.Arg(0), ir.Const}})
	alloc := b.Named("w", &ir.Stmt{Op: ir.OpNew, Type: vec})
	b.Return(alloc)
	fn, err := b.Finish()
	require.NoError(t, err)

	idx := NewIndex(fn)
	require.Equal(t, 7, idx.Len())

	require.Equal(t, None, idx.OfArg(0))
	require.Equal(t, Handle(2), idx.OfArg(1))
	require.Equal(t, Handle(3), idx.OfArg(2))
	require.Equal(t, None, idx.Of(sum))
	require.Equal(t, Handle(5), idx.Of(alloc))
	require.Equal(t, None, idx.OfStmt(2), "return produces no value")
	require.Equal(t, None, idx.Of(ir.Const))

	require.Equal(t, alloc, idx.Value(5))
	require.Equal(t, ir.Arg(1), idx.Value(2))

	require.Equal(t, Handle(3), idx.Of(idx.Value(3)), "raw pointers are tracked")
	require.Equal(t, "w", idx.Name(5))
	require.Equal(t, "v", idx.Name(2))
	require.Empty(t, idx.Name(None))
}

func TestSet(t *testing.T) {
	t.Parallel()

	s := NewSet(3, None, 1)
	require.Len(t, s, 2)
	require.True(t, s.Has(1))
	require.False(t, s.Has(None))

	c := s.Clone()
	c.Add(7)
	require.False(t, s.Equal(c))
	c.Remove(7)
	require.True(t, s.Equal(c))
	require.Equal(t, []Handle{1, 3}, s.Sorted())
}

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
