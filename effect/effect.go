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

// Package effect implements effect summarization: for every statement of a function, which
// argument positions are written, consumed, or aliased by the result. Calls are resolved, in
// order, through the registered overrides, the trusted effects of well-known library functions,
// the summaries exported by upstream packages, and a
// recursive reflection into the callee's own IR bounded by a depth and size budget; anything else
// falls back to the configured unknown-call policy.
//
// Reflected summaries are memoized in a Cache shared by every analysis in the process. Failures
// during summarization never abort an analysis: they degrade to the unknown-call fallback.
package effect

import (
	"errors"
	"fmt"

	"go.uber.org/ownaway/alias"
	"go.uber.org/ownaway/config"
	"go.uber.org/ownaway/foreign"
	"go.uber.org/ownaway/handle"
	"go.uber.org/ownaway/ir"
	"go.uber.org/ownaway/summary"
	"go.uber.org/ownaway/trace"
	"go.uber.org/ownaway/tracking"
)

var (
	// ErrNoBody is returned (wrapped) by reflectors for callees without a reflectable body.
	ErrNoBody = errors.New("no reflectable body")
	// ErrReentrant is recorded when a summary is requested while the same summary is being
	// computed, by mutual recursion or by a concurrent request.
	ErrReentrant = errors.New("summarization already in progress")
	// ErrOverBudget is recorded when a callee exceeds the depth or size budget.
	ErrOverBudget = errors.New("summarization budget exceeded")
)

// Reflector obtains the IR of user-defined callees for recursive summarization.
type Reflector interface {
	// Reflect returns the IR of the named callee.
	Reflect(callee string) (*ir.Function, error)
}

// ReflectorFunc adapts a function to the Reflector interface.
type ReflectorFunc func(callee string) (*ir.Function, error)

// Reflect calls f.
func (f ReflectorFunc) Reflect(callee string) (*ir.Function, error) { return f(callee) }

// Options configures a Summarizer. Nil fields get defaults.
type Options struct {
	Config    *config.Config
	Cache     *Cache
	Registry  *summary.Registry
	Foreign   *foreign.Table
	Reflector Reflector
	// Trusted returns the known effect of a call to a well-known library function.
	Trusted func(callee string, nargs int) (*summary.Summary, bool)
	// Upstream returns summaries computed when analyzing other packages.
	Upstream func(callee string) (*summary.Summary, bool)
	Trace    *trace.Sink
}

// Summarizer resolves effect summaries. It is safe for concurrent use.
type Summarizer struct {
	conf      *config.Config
	cache     *Cache
	registry  *summary.Registry
	foreign   *foreign.Table
	reflector Reflector
	trusted   func(string, int) (*summary.Summary, bool)
	upstream  func(string) (*summary.Summary, bool)
	trace     *trace.Sink
}

// New returns a Summarizer configured by opts.
func New(opts Options) *Summarizer {
	s := &Summarizer{
		conf:      opts.Config,
		cache:     opts.Cache,
		registry:  opts.Registry,
		foreign:   opts.Foreign,
		reflector: opts.Reflector,
		trusted:   opts.Trusted,
		upstream:  opts.Upstream,
		trace:     opts.Trace,
	}
	if s.conf == nil {
		s.conf = config.Default()
	}
	if s.cache == nil {
		s.cache = NewCache()
	}
	if s.registry == nil {
		s.registry = summary.NewDefaultRegistry()
	}
	if s.foreign == nil {
		s.foreign = foreign.NewDefaultTable()
	}
	return s
}

// Cache returns the summary cache.
func (s *Summarizer) Cache() *Cache { return s.cache }

// Registry returns the override registry.
func (s *Summarizer) Registry() *summary.Registry { return s.registry }

// Unknown returns the fallback summary of an unknown call with nargs arguments.
func (s *Summarizer) Unknown(nargs int) *summary.Summary {
	return summary.Unknown(nargs, s.conf.Policy)
}

// Summarize returns the summary of the named callee called with nargs arguments, requested at
// the given recursion depth (the function being checked is at depth 0, its callees at depth 1).
// A nil Entry.Summary means the callee is unknown.
func (s *Summarizer) Summarize(callee string, nargs, depth int) Entry {
	if sum, ok := s.registry.Lookup(callee, nargs); ok {
		return Entry{Summary: sum, Depth: depth}
	}
	if s.trusted != nil {
		if sum, ok := s.trusted(callee, nargs); ok {
			return Entry{Summary: sum, Depth: depth}
		}
	}
	if s.upstream != nil {
		if sum, ok := s.upstream(callee); ok {
			return Entry{Summary: sum, Depth: depth}
		}
	}
	if s.reflector == nil {
		return Entry{Depth: depth}
	}

	key := Key{Callee: callee, Epoch: s.cache.Epoch(), Config: s.conf.Key()}
	if e, ok := s.cache.Lookup(key); ok && (!e.OverBudget || depth >= e.Depth) {
		return e
	}
	if depth > s.conf.MaxDepth {
		return Entry{Depth: depth, OverBudget: true}
	}
	if !s.cache.Begin(key) {
		s.trace.Skip(callee, ErrReentrant)
		return Entry{Depth: depth, OverBudget: true}
	}
	defer s.cache.End(key)

	e, err := s.reflect(callee, depth)
	if err != nil {
		s.trace.Skip(callee, err)
	}
	s.trace.Summary(callee, e.Depth, e.OverBudget, e.Summary)
	return s.cache.Publish(key, e)
}

// reflect computes the summary of callee from its IR. Reflection failures yield a precise unknown
// entry, so the reflector is never asked again for the same callee within an epoch.
func (s *Summarizer) reflect(callee string, depth int) (e Entry, err error) {
	defer func() {
		// Summarization is fail-conservative: a panic while walking a callee's IR degrades to the
		// unknown fallback instead of taking down the analysis.
		if r := recover(); r != nil {
			e, err = Entry{Depth: depth}, fmt.Errorf("summarize %q: panic: %v", callee, r)
		}
	}()

	fn, err := s.reflector.Reflect(callee)
	if err != nil {
		return Entry{Depth: depth}, fmt.Errorf("reflect %q: %w", callee, err)
	}
	if fn == nil {
		return Entry{Depth: depth}, fmt.Errorf("reflect %q: %w", callee, ErrNoBody)
	}
	if len(fn.Stmts) > s.conf.MaxStmts {
		return Entry{Depth: depth, OverBudget: true},
			fmt.Errorf("%q has %d statements: %w", callee, len(fn.Stmts), ErrOverBudget)
	}
	sum, over := s.compute(fn, depth)
	return Entry{Summary: sum, Depth: depth, OverBudget: over}, nil
}

// compute maps the effect of every statement of fn back to fn's formal arguments through fn's own
// alias classes.
func (s *Summarizer) compute(fn *ir.Function, depth int) (*summary.Summary, bool) {
	w := s.walker(depth)
	idx := handle.NewIndex(fn)
	classes := alias.Build(fn, idx, w)

	// roots maps each alias class holding a formal to the positions of those formals.
	roots := make(map[handle.Handle]summary.Positions)
	for i := range fn.Params {
		if h := idx.OfArg(i); h != handle.None {
			root := classes.Root(h)
			roots[root] = roots[root].With(i)
		}
	}
	formals := func(v ir.Value) summary.Positions {
		h := idx.Of(v)
		if h == handle.None {
			return nil
		}
		return roots[classes.Root(h)]
	}

	out := &summary.Summary{}
	for _, st := range fn.Stmts {
		if st.Unchecked {
			continue
		}
		if st.Op == ir.OpReturn {
			for _, a := range st.Args {
				out.RetAliases = out.RetAliases.Union(formals(a))
			}
			continue
		}
		eff := w.effect(fn, st)
		for _, p := range eff.Writes {
			if p < len(st.Args) {
				out.Writes = out.Writes.Union(formals(st.Args[p]))
			}
		}
		for _, p := range eff.Consumes {
			if p < len(st.Args) {
				out.Consumes = out.Consumes.Union(formals(st.Args[p]))
			}
		}
	}
	return out, w.overBudget
}

// ForStmt returns the filtered effect summary of statement st of fn, where fn is analyzed at the
// given depth. The result is never nil: unknown calls get the unknown-call fallback.
func (s *Summarizer) ForStmt(fn *ir.Function, st *ir.Stmt, depth int) *summary.Summary {
	return s.walker(depth).effect(fn, st)
}

// Resolver returns the alias.Resolver for a function analyzed at the given depth.
func (s *Summarizer) Resolver(depth int) alias.Resolver {
	return s.walker(depth)
}

// walker resolves statement effects on behalf of one function analyzed at some depth, and
// remembers whether any callee summary it used was over budget.
type walker struct {
	s          *Summarizer
	depth      int
	tracker    *tracking.Tracker
	overBudget bool
}

func (s *Summarizer) walker(depth int) *walker {
	return &walker{s: s, depth: depth, tracker: tracking.New()}
}

// CallEffect implements alias.Resolver.
func (w *walker) CallEffect(fn *ir.Function, st *ir.Stmt) *summary.Summary {
	return w.effect(fn, st)
}

func (w *walker) effect(fn *ir.Function, st *ir.Stmt) *summary.Summary {
	if sum, ok := summary.ForOp(st); ok {
		return w.filter(fn, st, sum)
	}
	sum := w.callEffect(st)
	if sum == nil {
		sum = downgradeRefs(fn, st, w.s.Unknown(len(st.Args)))
	}
	return w.filter(fn, st, sum)
}

// callEffect returns the known summary of call statement st, or nil if the callee is unknown.
func (w *walker) callEffect(st *ir.Stmt) *summary.Summary {
	nargs := len(st.Args)
	var sum *summary.Summary
	if r, ok := w.s.registry.Lookup(st.Callee.Name, nargs); ok {
		sum = r
	} else {
		switch {
		case st.Op == ir.OpForeign:
			sum, _ = w.s.foreign.Lookup(st.Callee.Name, nargs)
			// The result of a native call may point anywhere into its arguments.
			sum.RetAliases = summary.Range(nargs)
		case st.Op == ir.OpCall && st.Callee.Kind == ir.CalleeStatic:
			e := w.s.Summarize(st.Callee.Name, nargs, w.depth+1)
			if e.OverBudget {
				w.overBudget = true
			}
			sum = e.Summary
		}
	}
	return sum
}

// downgradeRefs drops the assumed effects of an unknown call on borrow-like references. A borrow
// can neither be moved nor written through, so handing one to an unknown callee only reads it.
// Raw pointers keep the assumed write.
func downgradeRefs(fn *ir.Function, st *ir.Stmt, sum *summary.Summary) *summary.Summary {
	out := sum.Clone()
	for p, a := range st.Args {
		if t := fn.TypeOf(a); t != nil && t.Kind == ir.KindRef {
			out.Writes = out.Writes.Without(p)
			out.Consumes = out.Consumes.Without(p)
		}
	}
	return out
}

// filter removes consumes that are not ownership transfers: handing a captured-variable box to a
// closure, and consuming a value of a tracked but non-owned type (which can only be written).
func (w *walker) filter(fn *ir.Function, st *ir.Stmt, sum *summary.Summary) *summary.Summary {
	if len(sum.Consumes) == 0 {
		return sum
	}
	out := &summary.Summary{Writes: sum.Writes, RetAliases: sum.RetAliases}
	for _, p := range sum.Consumes {
		if p >= len(st.Args) {
			continue
		}
		a := st.Args[p]
		if d := fn.Def(a); d != nil && d.Op == ir.OpBoxNew {
			continue
		}
		if t := fn.TypeOf(a); w.tracker.IsTracked(t) && !w.tracker.IsOwned(t) {
			out.Writes = out.Writes.With(p)
			continue
		}
		out.Consumes = out.Consumes.With(p)
	}
	return out
}
