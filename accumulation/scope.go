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
	"go.uber.org/ownaway/config"
	"go.uber.org/ownaway/ir"
	"go.uber.org/ownaway/lower"
)

// selectFuncs returns the functions of pkg to check under conf, in source order. Functions for
// which keep returns false (e.g., declared in an excluded file) are never selected.
//
// Annotated functions are always selected. Under config.ScopeCallGraph the same-package static
// callees of selected functions are selected as well, transitively; under config.ScopeRoots every
// function of a package under one of the roots is selected.
func selectFuncs(conf *config.Config, pkg *lower.Package, keep func(*lower.Func) bool) []*lower.Func {
	selected := make(map[*lower.Func]bool)
	var queue []*lower.Func
	add := func(f *lower.Func) {
		if selected[f] || !keep(f) {
			return
		}
		selected[f] = true
		queue = append(queue, f)
	}

	allOfPkg := conf.Scope == config.ScopeRoots && conf.InRoots(pkg.Path())
	for _, f := range pkg.Funcs() {
		if f.Safe || allOfPkg {
			add(f)
		}
	}

	if conf.Scope == config.ScopeCallGraph {
		for len(queue) > 0 {
			f := queue[0]
			queue = queue[1:]
			if f.IR == nil {
				continue
			}
			for _, st := range f.IR.Stmts {
				if st.Op != ir.OpCall || st.Callee.Kind != ir.CalleeStatic {
					continue
				}
				if callee, ok := pkg.Lookup(st.Callee.Name); ok {
					add(callee)
				}
			}
		}
	}

	var funcs []*lower.Func
	for _, f := range pkg.Funcs() {
		if selected[f] {
			funcs = append(funcs, f)
		}
	}
	return funcs
}
