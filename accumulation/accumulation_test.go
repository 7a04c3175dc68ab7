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
	"errors"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/ownaway/config"
	"go.uber.org/ownaway/effect"
	"go.uber.org/ownaway/lower"
)

const _src = `package p

//own:safe
func A() { b() }

func b() { c() }

func c() {}

func D() {}

type T struct{}

func (T) M() {}

func (t T) m() { func() {}() }
`

func build(t *testing.T) *lower.Package {
	t.Helper()

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "p.go", _src, parser.ParseComments)
	require.NoError(t, err)
	info := &types.Info{
		Types:        make(map[ast.Expr]types.TypeAndValue),
		Defs:         make(map[*ast.Ident]types.Object),
		Uses:         make(map[*ast.Ident]types.Object),
		Implicits:    make(map[ast.Node]types.Object),
		Instances:    make(map[*ast.Ident]types.Instance),
		Scopes:       make(map[ast.Node]*types.Scope),
		Selections:   make(map[*ast.SelectorExpr]*types.Selection),
		FileVersions: make(map[*ast.File]string),
	}
	files := []*ast.File{file}
	pkg, err := (&types.Config{}).Check("p", fset, files, info)
	require.NoError(t, err)

	p, err := lower.Build(fset, pkg, files, info, config.StageLifted)
	require.NoError(t, err)
	return p
}

func names(funcs []*lower.Func) []string {
	var out []string
	for _, f := range funcs {
		out = append(out, f.Name)
	}
	return out
}

func TestSelectFuncs(t *testing.T) {
	t.Parallel()

	pkg := build(t)
	all := func(*lower.Func) bool { return true }

	tests := []struct {
		name  string
		scope config.Scope
		roots []string
		keep  func(*lower.Func) bool
		want  []string
	}{
		{name: "function", scope: config.ScopeFunction, keep: all, want: []string{"p.A"}},
		{name: "callgraph", scope: config.ScopeCallGraph, keep: all, want: []string{"p.A", "p.b", "p.c"}},
		{
			name:  "callgraph stops at dropped functions",
			scope: config.ScopeCallGraph,
			keep:  func(f *lower.Func) bool { return f.Name != "p.b" },
			want:  []string{"p.A"},
		},
		{
			name:  "roots",
			scope: config.ScopeRoots,
			roots: []string{"p"},
			keep:  all,
			want:  []string{"p.A", "p.b", "p.c", "p.D", "(p.T).M", "(p.T).m", "(p.T).m$1"},
		},
		{name: "other roots", scope: config.ScopeRoots, roots: []string{"q"}, keep: all, want: []string{"p.A"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			conf := config.Default()
			conf.Scope = tt.scope
			conf.Roots = tt.roots
			require.Equal(t, tt.want, names(selectFuncs(conf, pkg, tt.keep)))
		})
	}
}

func TestIsExported(t *testing.T) {
	t.Parallel()

	pkg := build(t)
	want := map[string]bool{
		"p.A":       true,
		"p.b":       false,
		"p.D":       true,
		"(p.T).M":   true,
		"(p.T).m":   false,
		"(p.T).m$1": false,
	}
	for name, exported := range want {
		f, ok := pkg.Lookup(name)
		require.True(t, ok, name)
		require.Equal(t, exported, isExported(f), name)
	}
}

func TestEpochs(t *testing.T) {
	t.Parallel()

	e := &epochs{seen: make(map[string]*types.Package)}
	cache := effect.NewCache()

	a, b := types.NewPackage("a", "a"), types.NewPackage("b", "b")
	require.Equal(t, uint64(0), e.observe(a, cache))
	require.Equal(t, uint64(0), e.observe(b, cache))
	require.Equal(t, uint64(0), e.observe(a, cache))

	// Loading the program again advances the epoch once.
	a2, b2 := types.NewPackage("a", "a"), types.NewPackage("b", "b")
	require.Equal(t, uint64(1), e.observe(a2, cache))
	require.Equal(t, uint64(1), e.observe(b2, cache))
	require.Equal(t, uint64(1), cache.Epoch())
}

func TestMemo(t *testing.T) {
	t.Parallel()

	opened := 0
	m := newMemo(func(key string) (int, error) {
		if key == "bad" {
			return 0, errors.New("cannot open")
		}
		opened++
		return len(key), nil
	})

	for range 3 {
		v, err := m.get("abc")
		require.NoError(t, err)
		require.Equal(t, 3, v)
	}
	require.Equal(t, 1, opened)

	_, err := m.get("bad")
	require.ErrorContains(t, err, "cannot open")
}

func TestTables(t *testing.T) {
	t.Parallel()

	table, err := _tables.get("")
	require.NoError(t, err)
	_, ok := table.Lookup("C.free", 1)
	require.True(t, ok)

	_, err = _tables.get("testdata/missing.yaml")
	require.ErrorContains(t, err, "open external effect table")
}

func TestErrorsToDiagnostics(t *testing.T) {
	t.Parallel()

	ds := errorsToDiagnostics([]error{nil, errors.New("boom")})
	require.Len(t, ds, 1)
	require.Equal(t, token.Pos(1), ds[0].Pos)
	require.Equal(t, "INTERNAL ERROR: boom", ds[0].Message)
}

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
