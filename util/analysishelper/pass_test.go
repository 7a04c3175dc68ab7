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


package analysishelper

import (
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/tools/go/analysis"
)

type testFact struct{ name string }

func (*testFact) AFact() {}

type otherFact struct{}

func (*otherFact) AFact() {}

func TestImportedFacts(t *testing.T) {
	t.Parallel()

	self := types.NewPackage("example.com/self", "self")
	up := types.NewPackage("example.com/up", "up")
	upper := types.NewPackage("example.com/upper", "upper")
	pass := &analysis.Pass{
		Pkg: self,
		AllPackageFacts: func() []analysis.PackageFact {
			return []analysis.PackageFact{
				{Package: up, Fact: &testFact{name: "up"}},
				{Package: self, Fact: &testFact{name: "self"}},
				{Package: up, Fact: &otherFact{}},
				{Package: upper, Fact: &testFact{name: "upper"}},
			}
		},
	}

	facts := ImportedFacts[*testFact](NewEnhancedPass(pass))
	require.Len(t, facts, 2)
	require.Equal(t, "up", facts[0].name)
	require.Equal(t, "upper", facts[1].name)

	require.Len(t, ImportedFacts[*otherFact](NewEnhancedPass(pass)), 1)
}

func TestEnhancedPass_FilesWhere(t *testing.T) {
	t.Parallel()

	fset := token.NewFileSet()
	var files []*ast.File
	for _, src := range []string{"// keep\npackage p", "package p"} {
		f, err := parser.ParseFile(fset, "", src, parser.ParseComments)
		require.NoError(t, err)
		files = append(files, f)
	}

	pass := NewEnhancedPass(&analysis.Pass{Files: files})
	kept := pass.FilesWhere(func(f *ast.File) bool { return f.Doc != nil })
	require.Equal(t, []*ast.File{files[0]}, kept)
	require.Len(t, pass.FilesWhere(func(*ast.File) bool { return true }), 2)
}
