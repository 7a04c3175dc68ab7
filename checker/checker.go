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

// Package checker implements the ownership checker: a reverse fold over the statements of every
// basic block that combines alias classes, binding origins, liveness and effect summaries.
//
// At each statement, every written argument must be unique among the live handles (no other live
// handle may share its alias class under a different binding origin), and every consumed argument
// must additionally be dead afterwards (no handle of its alias class may be live after the
// statement, except the binding the value was moved into). Violations are collected for the whole
// body and never stop the analysis.
package checker

import (
	"cmp"
	"fmt"
	"slices"

	"go.uber.org/ownaway/alias"
	"go.uber.org/ownaway/config"
	"go.uber.org/ownaway/effect"
	"go.uber.org/ownaway/handle"
	"go.uber.org/ownaway/ir"
	"go.uber.org/ownaway/liveness"
	"go.uber.org/ownaway/summary"
)

// Options configures a check.
type Options struct {
	// Summarizer resolves statement effects. A default one (no reflection, default overrides)
	// is used when nil.
	Summarizer *effect.Summarizer
	// EvalOrder selects the statements that get the evaluation-order check.
	EvalOrder config.EvalOrder
	// Exclude overrides the statements treated as unchecked regions (see liveness.Options).
	Exclude func(*ir.Stmt) bool
}

// Check checks fn and returns every violation found, ordered by statement. The error is only
// non-nil if fn is malformed.
func Check(fn *ir.Function, opts Options) ([]Violation, error) {
	if err := fn.Validate(); err != nil {
		return nil, fmt.Errorf("check %q: %w", fn.Name, err)
	}
	sum := opts.Summarizer
	if sum == nil {
		sum = effect.New(effect.Options{})
	}

	idx := handle.NewIndex(fn)
	c := &checker{
		fn:      fn,
		idx:     idx,
		sum:     sum,
		classes: alias.Build(fn, idx, sum.Resolver(0)),
		origins: alias.BuildOrigins(fn, idx, sum.Registry()),
		live:    liveness.Compute(fn, idx, liveness.Options{Exclude: opts.Exclude}),
		evalAll: opts.EvalOrder == config.EvalOrderAll,
		uses:    make(map[int]handle.Set),
		seen:    make(map[reportKey]bool),
	}
	for b := range fn.Blocks {
		c.block(b)
	}

	slices.SortStableFunc(c.violations, func(a, b Violation) int {
		if n := cmp.Compare(a.Idx, b.Idx); n != 0 {
			return n
		}
		return cmp.Compare(a.Kind, b.Kind)
	})
	return c.violations, nil
}

// Run is like Check but reports the violations as one aggregate *Error.
func Run(fn *ir.Function, opts Options) error {
	vs, err := Check(fn, opts)
	if err != nil {
		return err
	}
	if len(vs) == 0 {
		return nil
	}
	return &Error{Func: fn.Name, Violations: vs}
}

type reportKey struct {
	idx  int
	root handle.Handle
	kind Kind
}

type checker struct {
	fn      *ir.Function
	idx     *handle.Index
	sum     *effect.Summarizer
	classes *alias.Classes
	origins *alias.Origins
	live    *liveness.Result
	evalAll bool

	// uses memoizes usesOf per statement index.
	uses map[int]handle.Set
	seen map[reportKey]bool

	violations []Violation
}

// block folds over the statements of block b in reverse, starting from its live-out set.
func (c *checker) block(b int) {
	live := c.live.LiveOut(b).Clone()
	nextUse := make(map[handle.Handle]*ir.Stmt)

	stmts := c.fn.BlockStmts(b)
	for i := len(stmts) - 1; i >= 0; i-- {
		s := stmts[i]
		if c.live.Excluded(s) {
			continue
		}
		def := c.idx.OfStmt(s.Index)
		if s.Op == ir.OpPhi {
			// φ operands were read on the incoming edges.
			live.Remove(def)
			continue
		}

		uses := c.usesOf(s)
		during := live.Clone()
		during.Remove(def)
		during.AddAll(uses)
		c.stmt(b, s, def, during, live, nextUse)

		live.Remove(def)
		live.AddAll(uses)
		for h := range uses {
			nextUse[h] = s
		}
	}
}

// stmt checks one statement given the handles live while it executes and after it.
func (c *checker) stmt(b int, s *ir.Stmt, def handle.Handle, during, after handle.Set, nextUse map[handle.Handle]*ir.Stmt) {
	var eff *summary.Summary
	if s.Op == ir.OpTuple || (c.evalAll && len(s.Args) > 1 && (s.Op.IsCall() || s.Op == ir.OpNew)) {
		eff = c.sum.ForStmt(c.fn, s, 0)
		c.evalOrder(s, eff)
	}
	if c.safe(s, def, during, after) {
		return
	}
	if eff == nil {
		eff = c.sum.ForStmt(c.fn, s, 0)
	}

	for _, p := range eff.Writes {
		if eff.Consumes.Has(p) {
			// Reported as an aliased move below.
			continue
		}
		h := c.arg(s, p)
		if other := c.conflict(h, def, during); other != handle.None {
			c.report(c.classes.Root(h), Violation{
				Idx:        s.Index,
				Message:    fmt.Sprintf("cannot write `%s` while it is aliased by `%s`", c.display(h), c.display(other)),
				Loc:        s.Loc,
				Stmt:       s,
				Kind:       AliasedWrite,
				ProblemVar: c.idx.Name(h),
				OtherVar:   c.idx.Name(other),
			})
		}
	}

	for _, p := range eff.Consumes {
		h := c.arg(s, p)
		if h == handle.None {
			continue
		}
		if other := c.conflict(h, def, during); other != handle.None {
			c.report(c.classes.Root(h), Violation{
				Idx:        s.Index,
				Message:    fmt.Sprintf("cannot move `%s` while it is aliased by `%s`", c.display(h), c.display(other)),
				Loc:        s.Loc,
				Stmt:       s,
				Kind:       AliasedConsume,
				ProblemVar: c.idx.Name(h),
				OtherVar:   c.idx.Name(other),
			})
		}

		// When the result aliases the moved value, it is where the value was moved to.
		dest := handle.None
		if eff.RetAliases.Has(p) {
			dest = c.origins.Of(def)
		}
		if other := c.usedAfter(h, dest, after); other != handle.None {
			c.reportUseAfterMove(b, s, h, def, dest, other, nextUse)
		}
	}
}

func (c *checker) reportUseAfterMove(b int, s *ir.Stmt, h, def, dest, other handle.Handle, nextUse map[handle.Handle]*ir.Stmt) {
	use := nextUse[other]
	if use == nil {
		use = c.forwardUse(b, other)
	}
	if use == nil {
		use = s
	}
	loc := use.Loc
	if !loc.IsValid() {
		loc = s.Loc
	}

	var msg string
	into := ""
	if dest != handle.None {
		into = c.idx.Name(def)
	}
	switch {
	case other == h && into != "":
		msg = fmt.Sprintf("`%s` used after being moved into `%s`", c.display(other), into)
	case other == h:
		msg = fmt.Sprintf("`%s` used after being moved", c.display(other))
	default:
		msg = fmt.Sprintf("`%s` used after `%s`, which it aliases, was moved", c.display(other), c.display(h))
	}

	otherVar := into
	if other != h {
		otherVar = c.idx.Name(h)
	}
	c.report(c.classes.Root(h), Violation{
		Idx:        use.Index,
		Message:    msg,
		Loc:        loc,
		Stmt:       use,
		Kind:       UsedAfterMove,
		ProblemVar: c.idx.Name(other),
		OtherVar:   otherVar,
		MovedAt:    s,
	})
}

// evalOrder reports arguments of s that read a value already consumed by an earlier argument.
func (c *checker) evalOrder(s *ir.Stmt, eff *summary.Summary) {
	consumed := make(map[handle.Handle]int)
	for p, a := range s.Args {
		h := c.idx.Of(a)
		if h == handle.None {
			continue
		}
		reached := handle.NewSet()
		c.reach(a, reached)
		for _, r := range reached.Sorted() {
			root := c.classes.Root(r)
			q, ok := consumed[root]
			if !ok {
				continue
			}
			c.report(root, Violation{
				Idx: s.Index,
				Message: fmt.Sprintf("argument %d uses `%s`, already moved by argument %d",
					p+1, c.display(h), q+1),
				Loc:        s.Loc,
				Stmt:       s,
				Kind:       EvalOrder,
				ProblemVar: c.idx.Name(h),
				OtherVar:   c.idx.Name(c.idx.Of(s.Args[q])),
				MovedAt:    s,
			})
			break
		}
		if eff.Consumes.Has(p) {
			if _, ok := consumed[c.classes.Root(h)]; !ok {
				consumed[c.classes.Root(h)] = p
			}
		}
	}
}

// safe is the cheap pre-check: it returns true if s would pass even if it wrote and consumed
// every argument, i.e., no argument is live afterwards and no other live handle shares an
// argument's alias class. The result of s itself is not a conflict.
func (c *checker) safe(s *ir.Stmt, def handle.Handle, during, after handle.Set) bool {
	for _, a := range s.Args {
		h := c.idx.Of(a)
		if h == handle.None {
			continue
		}
		if after.Has(h) {
			return false
		}
		for _, set := range []handle.Set{during, after} {
			for h2 := range set {
				if h2 != h && h2 != def && c.classes.Same(h2, h) {
					return false
				}
			}
		}
	}
	return true
}

// conflict returns a handle of set, other than h and def, that aliases h under a different binding
// origin, preferring named handles. It returns handle.None if there is none.
func (c *checker) conflict(h, def handle.Handle, set handle.Set) handle.Handle {
	if h == handle.None {
		return handle.None
	}
	return c.pick(set, func(h2 handle.Handle) bool {
		return h2 != h && h2 != def && c.classes.Same(h2, h) && !c.origins.Same(h2, h)
	})
}

// usedAfter returns a handle of after that aliases h (h included), skipping the bindings whose
// origin is dest.
func (c *checker) usedAfter(h, dest handle.Handle, after handle.Set) handle.Handle {
	return c.pick(after, func(h2 handle.Handle) bool {
		if !c.classes.Same(h2, h) {
			return false
		}
		return dest == handle.None || c.origins.Of(h2) != dest
	})
}

func (c *checker) pick(set handle.Set, match func(handle.Handle) bool) handle.Handle {
	found := handle.None
	for _, h := range set.Sorted() {
		if !match(h) {
			continue
		}
		if c.idx.Name(h) != "" {
			return h
		}
		if found == handle.None {
			found = h
		}
	}
	return found
}

// forwardUse searches the blocks reachable from b, breadth first, for the first statement using h.
func (c *checker) forwardUse(b int, h handle.Handle) *ir.Stmt {
	visited := make([]bool, len(c.fn.Blocks))
	queue := slices.Clone(c.fn.Blocks[b].Succs)
	for _, s := range queue {
		visited[s] = true
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, s := range c.fn.BlockStmts(cur) {
			if c.live.Excluded(s) {
				continue
			}
			if s.Op == ir.OpPhi {
				for _, a := range s.Args {
					if c.idx.Of(a) == h {
						return s
					}
				}
				continue
			}
			if c.usesOf(s).Has(h) {
				return s
			}
		}
		for _, s := range c.fn.Blocks[cur].Succs {
			if !visited[s] {
				visited[s] = true
				queue = append(queue, s)
			}
		}
	}
	return nil
}

// usesOf returns the tracked handles read by s. Foreign calls additionally read every handle
// their arguments were projected from, since native code receives pointers into the tracked
// objects rather than the objects themselves.
func (c *checker) usesOf(s *ir.Stmt) handle.Set {
	if u, ok := c.uses[s.Index]; ok {
		return u
	}
	u := c.live.Uses(s)
	if s.Op == ir.OpForeign {
		for _, a := range s.Args {
			c.reach(a, u)
		}
	}
	c.uses[s.Index] = u
	return u
}

// reach adds to into the handle of v and of every value v was derived from without a call.
func (c *checker) reach(v ir.Value, into handle.Set) {
	visited := make(map[ir.Value]bool)
	work := []ir.Value{v}
	for len(work) > 0 {
		cur := work[len(work)-1]
		work = work[:len(work)-1]
		if visited[cur] {
			continue
		}
		visited[cur] = true
		into.Add(c.idx.Of(cur))

		d := c.fn.Def(cur)
		if d == nil {
			continue
		}
		switch d.Op {
		case ir.OpCopy, ir.OpPi, ir.OpGetField, ir.OpLoad, ir.OpExtract, ir.OpPure, ir.OpBoxGet, ir.OpPhi:
			work = append(work, d.Args...)
		}
	}
}

func (c *checker) arg(s *ir.Stmt, p int) handle.Handle {
	if p < 0 || p >= len(s.Args) {
		return handle.None
	}
	return c.idx.Of(s.Args[p])
}

// display returns the name of h, or its IR value if it has none.
func (c *checker) display(h handle.Handle) string {
	if n := c.idx.Name(h); n != "" {
		return n
	}
	return c.idx.Value(h).String()
}

func (c *checker) report(root handle.Handle, v Violation) {
	k := reportKey{idx: v.Idx, root: root, kind: v.Kind}
	if c.seen[k] {
		return
	}
	c.seen[k] = true
	c.violations = append(c.violations, v)
}
