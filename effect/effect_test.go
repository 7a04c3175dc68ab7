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

package effect

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/ownaway/config"
	"go.uber.org/ownaway/ir"
	"go.uber.org/ownaway/summary"
)

var _vec = ir.NewMutable("Vector")

// countingReflector serves prebuilt functions and counts the reflections per callee.
type countingReflector struct {
	mu    sync.Mutex
	funcs map[string]*ir.Function
	calls map[string]int
}

func newCountingReflector(fns ...*ir.Function) *countingReflector {
	r := &countingReflector{funcs: make(map[string]*ir.Function), calls: make(map[string]int)}
	for _, fn := range fns {
		r.funcs[fn.Name] = fn
	}
	return r
}

func (r *countingReflector) Reflect(callee string) (*ir.Function, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[callee]++
	fn, ok := r.funcs[callee]
	if !ok {
		return nil, fmt.Errorf("%s: %w", callee, ErrNoBody)
	}
	return fn, nil
}

func (r *countingReflector) count(callee string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[callee]
}

func mustFinish(t *testing.T, b *ir.Builder) *ir.Function {
	t.Helper()
	fn, err := b.Finish()
	require.NoError(t, err)
	return fn
}

// fill(v) { v.f = 0 }
func fill(t *testing.T) *ir.Function {
	b := ir.NewBuilder("pkg.Fill", ir.Param{Name: "v", Type: _vec})
	b.Emit(&ir.Stmt{Op: ir.OpSetField, Args: []ir.Value{ir.Arg(0), ir.Const}})
	b.Return(ir.Const)
	return mustFinish(t, b)
}

// wrap(v, w) { fill(v); return v }
func wrap(t *testing.T) *ir.Function {
	b := ir.NewBuilder("pkg.Wrap", ir.Param{Name: "v", Type: _vec}, ir.Param{Name: "w", Type: _vec})
	b.Call(ir.Static("pkg.Fill"), nil, ir.Arg(0))
	b.Return(ir.Arg(0))
	return mustFinish(t, b)
}

// caller(v) { callee(v) }
func caller(t *testing.T, name, callee string) *ir.Function {
	b := ir.NewBuilder(name, ir.Param{Name: "v", Type: _vec})
	b.Call(ir.Static(callee), nil, ir.Arg(0))
	b.Return(ir.Const)
	return mustFinish(t, b)
}

func TestSupersedes(t *testing.T) {
	t.Parallel()

	precise := func(d int) Entry { return Entry{Summary: summary.Empty, Depth: d} }
	over := func(d int) Entry { return Entry{Depth: d, OverBudget: true} }

	tests := []struct {
		name          string
		first, second Entry
		want          Entry
	}{
		{"precise is never superseded", precise(3), over(1), precise(3)},
		{"precise is never superseded by precise", precise(3), precise(1), precise(3)},
		{"deeper precise supersedes over budget", over(1), precise(3), precise(3)},
		{"shallower precise supersedes over budget", over(3), precise(1), precise(1)},
		{"shallower over budget wins", over(3), over(1), over(1)},
		{"deeper over budget loses", over(1), over(3), over(1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := NewCache()
			k := Key{Callee: "pkg.F", Epoch: c.Epoch()}
			c.Publish(k, tt.first)
			require.Equal(t, tt.want, c.Publish(k, tt.second))
			got, ok := c.Lookup(k)
			require.True(t, ok)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestCache_Epoch(t *testing.T) {
	t.Parallel()

	c := NewCache()
	old := Key{Callee: "pkg.F", Epoch: c.Epoch()}
	c.Publish(old, Entry{Summary: summary.Empty})
	require.Equal(t, 1, c.Len())

	require.Equal(t, uint64(1), c.Advance())
	require.Zero(t, c.Len(), "advancing the epoch invalidates everything")
	_, ok := c.Lookup(old)
	require.False(t, ok)

	// A computation that started in the old epoch must not publish into the new one.
	c.Publish(old, Entry{Summary: summary.Empty})
	require.Zero(t, c.Len())

	require.True(t, c.Begin(old))
	require.False(t, c.Begin(old))
	c.End(old)
	require.True(t, c.Begin(old))
	c.End(old)
}

func TestSummarize_Idempotent(t *testing.T) {
	t.Parallel()

	r := newCountingReflector(fill(t), wrap(t))
	s := New(Options{Reflector: r})

	first := s.Summarize("pkg.Wrap", 2, 1)
	second := s.Summarize("pkg.Wrap", 2, 1)
	require.False(t, first.OverBudget)
	if diff := cmp.Diff(first, second); diff != "" {
		require.Fail(t, "summaries differ (-first +second):\n"+diff)
	}
	want := &summary.Summary{Writes: summary.Of(0), RetAliases: summary.Of(0)}
	require.True(t, want.Equal(first.Summary), "got %s", first.Summary)

	require.Equal(t, 1, r.count("pkg.Wrap"))
	require.Equal(t, 1, r.count("pkg.Fill"), "nested summaries are memoized too")

	// A fresh epoch recomputes.
	s.Cache().Advance()
	s.Summarize("pkg.Wrap", 2, 1)
	require.Equal(t, 2, r.count("pkg.Wrap"))
}

func TestSummarize_ReflectionFailure(t *testing.T) {
	t.Parallel()

	r := newCountingReflector()
	s := New(Options{Reflector: r})

	e := s.Summarize("pkg.Missing", 1, 1)
	require.Nil(t, e.Summary)
	require.False(t, e.OverBudget, "a missing body is a precise unknown")
	s.Summarize("pkg.Missing", 1, 2)
	require.Equal(t, 1, r.count("pkg.Missing"))

	// The call site falls back to the unknown policy, which consumes by default.
	fn := caller(t, "pkg.Caller", "pkg.Missing")
	got := s.ForStmt(fn, fn.Stmts[0], 0)
	require.Equal(t, summary.Of(0), got.Consumes)
}

func TestSummarize_Budgets(t *testing.T) {
	t.Parallel()

	conf := config.Default()
	conf.MaxDepth = 1
	r := newCountingReflector(fill(t), wrap(t))
	s := New(Options{Reflector: r, Config: conf})

	// Wrap is reflected at depth 1; Fill would be at depth 2 and is over budget.
	e := s.Summarize("pkg.Wrap", 2, 1)
	require.True(t, e.OverBudget)
	require.Equal(t, summary.Of(0), e.Summary.Consumes, "the unknown policy applies to fill")
	require.Zero(t, r.count("pkg.Fill"))

	conf = config.Default()
	conf.MaxStmts = 1
	s = New(Options{Reflector: r, Config: conf})
	e = s.Summarize("pkg.Fill", 1, 1)
	require.True(t, e.OverBudget)
	require.Nil(t, e.Summary)
}

func TestSummarize_CachedBeyondDepthBudget(t *testing.T) {
	t.Parallel()

	conf := config.Default()
	conf.MaxDepth = 1
	r := newCountingReflector(fill(t), wrap(t))
	s := New(Options{Reflector: r, Config: conf})

	e := s.Summarize("pkg.Fill", 1, 1)
	require.False(t, e.OverBudget)

	// A precise entry computed within budget serves deeper requests too.
	e = s.Summarize("pkg.Fill", 1, conf.MaxDepth+1)
	require.False(t, e.OverBudget)
	require.Equal(t, summary.Of(0), e.Summary.Writes)
	require.Empty(t, e.Summary.Consumes)

	e = s.Summarize("pkg.Wrap", 2, 1)
	require.False(t, e.OverBudget, "fill is already summarized")
	want := &summary.Summary{Writes: summary.Of(0), RetAliases: summary.Of(0)}
	require.True(t, want.Equal(e.Summary), "got %s", e.Summary)
	require.Equal(t, 1, r.count("pkg.Fill"))

	// Without a cached entry the budget still applies.
	e = s.Summarize("pkg.Other", 1, conf.MaxDepth+1)
	require.True(t, e.OverBudget)
	require.Zero(t, r.count("pkg.Other"))
}

func TestSummarize_MutualRecursion(t *testing.T) {
	t.Parallel()

	r := newCountingReflector(caller(t, "pkg.Ping", "pkg.Pong"), caller(t, "pkg.Pong", "pkg.Ping"))
	s := New(Options{Reflector: r})

	e := s.Summarize("pkg.Ping", 1, 1)
	require.True(t, e.OverBudget, "the cycle is cut by the in-progress guard")
	require.Equal(t, 1, r.count("pkg.Ping"))

	k := Key{Callee: "pkg.Pong", Epoch: s.Cache().Epoch(), Config: config.Default().Key()}
	stored, ok := s.Cache().Lookup(k)
	require.True(t, ok)
	require.Equal(t, 2, stored.Depth)

	// Asking again at a shallower depth recomputes and supersedes the deeper entry.
	e = s.Summarize("pkg.Pong", 1, 1)
	require.True(t, e.OverBudget)
	stored, _ = s.Cache().Lookup(k)
	require.Equal(t, 1, stored.Depth)
}

func TestSummarize_Concurrent(t *testing.T) {
	t.Parallel()

	r := newCountingReflector(fill(t), wrap(t))
	s := New(Options{Reflector: r})

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e := s.Summarize("pkg.Wrap", 2, 1)
			// Losing the race yields the conservative unknown, never a wrong precise answer.
			if !e.OverBudget {
				require.True(t, (&summary.Summary{Writes: summary.Of(0), RetAliases: summary.Of(0)}).Equal(e.Summary))
			}
		}()
	}
	wg.Wait()

	e := s.Summarize("pkg.Wrap", 2, 1)
	require.False(t, e.OverBudget)
}

func TestSummarize_OverridesAndUpstream(t *testing.T) {
	t.Parallel()

	r := newCountingReflector(fill(t))
	reg := summary.NewDefaultRegistry()
	reg.RegisterSummary("pkg.Fill", &summary.Summary{Consumes: summary.Of(0)})
	s := New(Options{
		Reflector: r,
		Registry:  reg,
		Trusted: func(callee string, nargs int) (*summary.Summary, bool) {
			if callee == "sort.Ints" {
				return &summary.Summary{Writes: summary.Range(nargs)}, true
			}
			return nil, false
		},
		Upstream: func(callee string) (*summary.Summary, bool) {
			switch callee {
			case "dep.Read":
				return summary.Empty, true
			case "sort.Ints":
				return &summary.Summary{Consumes: summary.Of(0)}, true
			}
			return nil, false
		},
	})

	require.Equal(t, summary.Of(0), s.Summarize("pkg.Fill", 1, 1).Summary.Consumes)
	require.Zero(t, r.count("pkg.Fill"), "overrides win over reflection")
	require.True(t, s.Summarize("dep.Read", 1, 1).Summary.IsEmpty())
	require.Zero(t, r.count("dep.Read"))
	require.Equal(t, summary.Of(0), s.Summarize("sort.Ints", 1, 1).Summary.Writes, "trusted effects win over upstream")
	require.Empty(t, s.Summarize("sort.Ints", 1, 1).Summary.Consumes)
}

func TestForStmt(t *testing.T) {
	t.Parallel()

	ref := ir.NewRef("Ref")
	box := ir.NewPtr("Box")
	ptr := ir.NewPtr("*float64")
	b := ir.NewBuilder("pkg.F", ir.Param{Name: "v", Type: _vec}, ir.Param{Name: "r", Type: ref}, ir.Param{Name: "p", Type: ptr})
	bx := b.Emit(&ir.Stmt{Op: ir.OpBoxNew, Type: box, Args: []ir.Value{ir.Arg(0)}})
	closure := b.Emit(&ir.Stmt{Op: ir.OpNew, Type: ir.AnyType, Args: []ir.Value{bx, ir.Arg(0)}})
	unknown := b.Call(ir.Static("pkg.Unknown"), nil, ir.Arg(0), ir.Arg(1), ir.Arg(2))
	take := b.Call(ir.Static("pkg.Take"), nil, ir.Arg(1))
	free := b.Call(ir.External("C.free"), nil, ir.Arg(0))
	mystery := b.Call(ir.External("C.mystery"), _vec, ir.Arg(0))
	dyn := b.Call(ir.Dynamic("(io.Writer).Write"), nil, ir.Arg(0))
	b.Return(ir.Const)
	fn := mustFinish(t, b)
	r := summary.NewDefaultRegistry()
	r.RegisterSummary("pkg.Take", &summary.Summary{Consumes: summary.Of(0)})
	s := New(Options{Registry: r})

	tests := []struct {
		name string
		stmt ir.Value
		want *summary.Summary
	}{
		{"box handed to a closure is not moved", closure, &summary.Summary{Consumes: summary.Of(1), RetAliases: summary.Of(0, 1)}},
		{"unknown call only reads a borrow", unknown, &summary.Summary{Writes: summary.Of(0, 2), Consumes: summary.Of(0), RetAliases: summary.Of(0, 1, 2)}},
		{"known consume of a borrow is a write", take, &summary.Summary{Writes: summary.Of(0)}},
		{"registered foreign call", free, &summary.Summary{Consumes: summary.Of(0), RetAliases: summary.Of(0)}},
		{"unregistered foreign call writes", mystery, &summary.Summary{Writes: summary.Of(0), RetAliases: summary.Of(0)}},
		{"dynamic call is unknown", dyn, &summary.Summary{Writes: summary.Of(0), Consumes: summary.Of(0), RetAliases: summary.Of(0)}},
	}
	for _, tt := range tests {
		got := s.ForStmt(fn, fn.Def(tt.stmt), 0)
		require.True(t, tt.want.Equal(got), "%s: want %s, got %s", tt.name, tt.want, got)
	}
}

func TestFact(t *testing.T) {
	t.Parallel()

	f := &Fact{Summaries: map[string]*summary.Summary{
		"pkg.Wrap": {Writes: summary.Of(0), RetAliases: summary.Of(0)},
		"pkg.Nop":  {},
	}}
	require.Equal(t, "effects(pkg.Nop: writes=[] consumes=[] ret=[]; pkg.Wrap: writes=[0] consumes=[] ret=[0])", f.String())

	var buf bytes.Buffer
	require.NoError(t, gob.NewEncoder(&buf).Encode(f))
	var got *Fact
	require.NoError(t, gob.NewDecoder(&buf).Decode(&got))

	s, ok := got.Lookup("pkg.Wrap")
	require.True(t, ok)
	require.True(t, f.Summaries["pkg.Wrap"].Equal(s))
	s, ok = got.Lookup("pkg.Nop")
	require.True(t, ok)
	require.True(t, s.IsEmpty())

	_, ok = (*Fact)(nil).Lookup("pkg.Wrap")
	require.False(t, ok)
	require.ErrorIs(t, fmt.Errorf("wrapped: %w", ErrNoBody), ErrNoBody)
	require.False(t, errors.Is(ErrReentrant, ErrNoBody))
}

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
