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

package tracking

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/ownaway/ir"
)

func TestIsTracked(t *testing.T) {
	t.Parallel()

	plainPair := ir.NewImmutable("Pair", ir.Bits, ir.Bits)
	withMutable := ir.NewImmutable("Wrapper", ir.Bits, ir.NewMutable("Vector"))
	nested := ir.NewImmutable("Outer", plainPair, withMutable)

	tests := []struct {
		name    string
		typ     *ir.Type
		tracked bool
		owned   bool
	}{
		{"no value", nil, false, false},
		{"never", ir.Bottom, false, false},
		{"dynamic", ir.AnyType, true, true},
		{"unresolved", ir.Unresolved, true, true},
		{"bits", ir.Bits, false, false},
		{"shared handle", ir.NewShared("Task"), false, false},
		{"raw pointer", ir.NewPtr("Ptr"), true, false},
		{"borrow", ir.NewRef("Ref"), true, false},
		{"mutable", ir.NewMutable("Vector"), true, true},
		{"plain immutable", plainPair, false, false},
		{"immutable with mutable field", withMutable, true, true},
		{"nested immutable", nested, true, true},
		{"immutable with pointer field", ir.NewImmutable("View", ir.NewPtr("Ptr")), true, false},
		{"union of plain", ir.NewUnion(ir.Bits, plainPair), false, false},
		{"union with mutable", ir.NewUnion(ir.Bits, ir.NewMutable("Dict")), true, true},
		{"union with shared only", ir.NewUnion(ir.NewShared("Module"), ir.Bottom), false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tr := New()
			require.Equal(t, tt.tracked, tr.IsTracked(tt.typ))
			require.Equal(t, tt.owned, tr.IsOwned(tt.typ))
			// Answers are memoized and must be stable.
			require.Equal(t, tt.tracked, tr.IsTracked(tt.typ))
		})
	}
}

func TestIsTracked_RecursiveTypes(t *testing.T) {
	t.Parallel()

	// List = Immutable{Bits, List}: a recursive immutable type made only of plain data.
	list := ir.NewImmutable("List", ir.Bits)
	list.Fields = append(list.Fields, list)
	require.False(t, IsTracked(list))

	// Tree = Immutable{Tree, Tree, Union{Bits, Mutable}}: recursion plus a tracked leaf.
	tree := ir.NewImmutable("Tree")
	tree.Fields = []*ir.Type{tree, tree, ir.NewUnion(ir.Bits, ir.NewMutable("Buffer"))}
	require.True(t, IsTracked(tree))
	require.True(t, IsOwned(tree))

	// Mutual recursion through a union.
	a := ir.NewImmutable("A")
	b := ir.NewImmutable("B", ir.NewUnion(a, ir.Bits))
	a.Fields = []*ir.Type{b}
	require.False(t, IsTracked(a))
	require.False(t, IsTracked(b))
}

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
