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

	"golang.org/x/tools/go/analysis"
)

// EnhancedPass is a drop-in replacement for `*analysis.Pass` that provides additional helper methods
// to make it easier to work with the analysis pass.
type EnhancedPass struct {
	*analysis.Pass
}

// NewEnhancedPass creates a new EnhancedPass from the given *analysis.Pass.
func NewEnhancedPass(pass *analysis.Pass) *EnhancedPass {
	return &EnhancedPass{Pass: pass}
}

// FilesWhere returns the files of the package for which keep returns true.
func (p *EnhancedPass) FilesWhere(keep func(*ast.File) bool) []*ast.File {
	var files []*ast.File
	for _, f := range p.Pass.Files {
		if keep(f) {
			files = append(files, f)
		}
	}
	return files
}

// ImportedFacts returns the package facts of type F exported by the (transitive) dependencies of
// the package being analyzed, in the order the driver reports them.
func ImportedFacts[F analysis.Fact](p *EnhancedPass) []F {
	var facts []F
	for _, pf := range p.AllPackageFacts() {
		if pf.Package == p.Pkg {
			continue
		}
		if f, ok := pf.Fact.(F); ok {
			facts = append(facts, f)
		}
	}
	return facts
}
