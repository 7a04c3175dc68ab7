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


package accumulation

import (
	"go/types"
	"sync"

	"go.uber.org/ownaway/effect"
	"go.uber.org/ownaway/foreign"
	"go.uber.org/ownaway/trace"
)

// _cache is the summary cache shared by every package analyzed in this process.
var _cache = effect.NewCache()

// epochs advances the epoch of a summary cache whenever a package path is seen again with a
// different type-checked package, i.e., when the program is loaded again (e.g., after an edit).
type epochs struct {
	mu   sync.Mutex
	seen map[string]*types.Package
}

var _epochs = &epochs{seen: make(map[string]*types.Package)}

// observe records pkg and returns the epoch of cache to analyze it in.
func (e *epochs) observe(pkg *types.Package, cache *effect.Cache) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if prev, ok := e.seen[pkg.Path()]; ok && prev != pkg {
		// Every package seen so far belongs to the previous load.
		clear(e.seen)
		e.seen[pkg.Path()] = pkg
		return cache.Advance()
	}
	e.seen[pkg.Path()] = pkg
	return cache.Epoch()
}

// memo opens a resource once per key and serves it to every later package.
type memo[T any] struct {
	mu   sync.Mutex
	open func(key string) (T, error)
	vals map[string]T
}

func newMemo[T any](open func(string) (T, error)) *memo[T] {
	return &memo[T]{open: open, vals: make(map[string]T)}
}

func (m *memo[T]) get(key string) (T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.vals[key]; ok {
		return v, nil
	}
	v, err := m.open(key)
	if err != nil {
		return v, err
	}
	m.vals[key] = v
	return v, nil
}

// _sinks holds the trace sinks by path. A sink lives until the process exits and is flushed after
// every package.
var _sinks = newMemo(trace.Open)

// _tables holds the external-call effect tables by path. An empty path is the default table.
var _tables = newMemo(func(path string) (*foreign.Table, error) {
	t := foreign.NewDefaultTable()
	if path == "" {
		return t, nil
	}
	if err := t.LoadFile(path); err != nil {
		return nil, err
	}
	return t, nil
})
