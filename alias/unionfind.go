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

import "go.uber.org/ownaway/handle"

// UnionFind is a disjoint-set forest over the handles of one function. Merges are monotonic:
// there is no way to split a class again.
type UnionFind struct {
	parent []handle.Handle
	rank   []uint8
}

// NewUnionFind returns a forest of n singleton classes (handles 0 to n-1).
func NewUnionFind(n int) *UnionFind {
	u := &UnionFind{parent: make([]handle.Handle, n), rank: make([]uint8, n)}
	for i := range u.parent {
		u.parent[i] = handle.Handle(i)
	}
	return u
}

// Find returns the representative of h's class.
func (u *UnionFind) Find(h handle.Handle) handle.Handle {
	for u.parent[h] != h {
		// Path halving.
		u.parent[h] = u.parent[u.parent[h]]
		h = u.parent[h]
	}
	return h
}

// Union merges the classes of a and b. Merging with handle.None is a no-op, so the untracked
// handle never joins a class.
func (u *UnionFind) Union(a, b handle.Handle) {
	if a == handle.None || b == handle.None {
		return
	}
	ra, rb := u.Find(a), u.Find(b)
	if ra == rb {
		return
	}
	switch {
	case u.rank[ra] < u.rank[rb]:
		ra, rb = rb, ra
	case u.rank[ra] == u.rank[rb]:
		if rb < ra {
			ra, rb = rb, ra
		}
		u.rank[ra]++
	}
	u.parent[rb] = ra
}

// Same returns true if a and b are in the same class. The untracked handle is in no class.
func (u *UnionFind) Same(a, b handle.Handle) bool {
	if a == handle.None || b == handle.None {
		return false
	}
	return u.Find(a) == u.Find(b)
}
