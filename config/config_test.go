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

package config

import (
	"go/ast"
	"go/parser"
	"go/token"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/ownaway/summary"
)

func TestFromFlags_Defaults(t *testing.T) {
	t.Parallel()

	fs := newFlagSet()
	c, err := FromFlags(&fs)
	require.NoError(t, err)
	require.Equal(t, StageLifted, c.Stage)
	require.Equal(t, summary.PolicyConsume, c.Policy)
	require.Equal(t, DefaultMaxDepth, c.MaxDepth)
	require.Equal(t, ScopeFunction, c.Scope)
	require.Equal(t, EvalOrderTuple, c.EvalOrder)
	require.True(t, c.PrettyPrint)
	require.Empty(t, c.Roots)
}

func TestFromFlags(t *testing.T) {
	t.Parallel()

	fs := newFlagSet()
	for k, v := range map[string]string{
		StageFlag:             "naive",
		UnknownCallPolicyFlag: "write",
		MaxDepthFlag:          "2",
		ScopeFlag:             "roots",
		RootsFlag:             "example.com/a, example.com/b/",
		EvalOrderFlag:         "all",
		PrettyPrintFlag:       "false",
		IncludePkgsFlag:       "example.com",
		ExcludePkgsFlag:       "example.com/a/gen",
	} {
		require.NoError(t, fs.Set(k, v))
	}

	c, err := FromFlags(&fs)
	require.NoError(t, err)
	require.Equal(t, StageNaive, c.Stage)
	require.Equal(t, summary.PolicyWrite, c.Policy)
	require.Equal(t, 2, c.MaxDepth)
	require.Equal(t, []string{"example.com/a", "example.com/b/"}, c.Roots)
	require.Equal(t, EvalOrderAll, c.EvalOrder)
	require.False(t, c.PrettyPrint)

	require.True(t, c.InRoots("example.com/a"))
	require.True(t, c.InRoots("example.com/b/c"))
	require.False(t, c.InRoots("example.com/ab"))

	require.True(t, c.IsPkgInScope("example.com/a/b"))
	require.False(t, c.IsPkgInScope("example.com/a/gen/x"))
	require.False(t, c.IsPkgInScope("other.org/x"))
	require.False(t, c.IsPkgInScope(OwnPkgPath))

	require.Equal(t, Key{Stage: StageNaive, Policy: summary.PolicyWrite, MaxDepth: 2, MaxStmts: DefaultMaxStmts}, c.Key())
}

func TestFromFlags_Invalid(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		UnknownCallPolicyFlag: "borrow",
		StageFlag:             "raw",
		ScopeFlag:             "roots",
		EvalOrderFlag:         "some",
		MaxDepthFlag:          "-1",
		MaxStmtsFlag:          "0",
	}
	for name, value := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			fs := newFlagSet()
			require.NoError(t, fs.Set(name, value))
			_, err := FromFlags(&fs)
			require.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestIsFileInScope(t *testing.T) {
	t.Parallel()

	parse := func(src string) *ast.File {
		f, err := parser.ParseFile(token.NewFileSet(), "f.go", src, parser.ParseComments)
		require.NoError(t, err)
		return f
	}

	c := Default()
	c.excludeFileDocStrings = []string{"@generated"}
	require.True(t, c.IsFileInScope(parse("package p")))
	require.True(t, c.IsFileInScope(parse("// Package p does things.\npackage p")))
	require.False(t, c.IsFileInScope(parse("// Code @generated by a tool.\npackage p")))
	require.False(t, c.IsFileInScope(parse("// "+OwnAwayNoCheckString+"\npackage p")))
}

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
