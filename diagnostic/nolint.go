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

package diagnostic

import (
	"go/ast"
	"reflect"
	"slices"
	"strings"

	"go.uber.org/ownaway/util/analysishelper"
	"go.uber.org/ownaway/util/tokenhelper"
	"golang.org/x/tools/go/analysis"
)

// NoLintAnalyzer collects the "//nolint:ownaway" comments of a package. Drivers differ in how
// (and whether) they respect nolint comments, so the ranges are exported as facts and the
// filtering is done in [Engine].
var NoLintAnalyzer = &analysis.Analyzer{
	Name:       "ownaway_nolint_analyzer",
	Doc:        "Read OwnAway's nolint comments and export them as facts for OwnAway's diagnostic engine.",
	Run:        analysishelper.WrapRun(run),
	FactTypes:  []analysis.Fact{new(NoLint)},
	Requires:   []*analysis.Analyzer{},
	ResultType: reflect.TypeOf((*analysishelper.Result[[]Range])(nil)),
}

// NoLint is a fact that stores the ranges of "//nolint:ownaway" comments for cross-package nolint
// suppression support.
type NoLint struct {
	// Ranges lists the ranges of the nolint scopes in the package.
	Ranges []Range
}

// AFact makes NoLint satisfy the analysis.Fact interface such that it can be exported as a fact.
func (*NoLint) AFact() {}

// Range is a minimal struct that stores the filename and the start and end lines of a nolint scopes.
type Range struct {
	Filename string
	From, To int
}

// Contains returns true if the line of the file lies within the range.
func (r Range) Contains(filename string, line int) bool {
	return r.Filename == filename && r.From <= line && line <= r.To
}

func run(pass *analysis.Pass) ([]Range, error) {
	var ranges []Range
	for _, f := range pass.Files {
		// CommentMap will correctly associate comments to the largest node group
		// applicable. This handles inline comments that might trail a large
		// assignment and will apply the comment to the entire assignment.
		commentMap := ast.NewCommentMap(pass.Fset, f, f.Comments)
		for node, groups := range commentMap {
			for _, group := range groups {
				for _, comm := range group.List {
					if !nolintContainsOwnAway(comm.Text) {
						continue
					}
					fromPos, toPos := pass.Fset.Position(node.Pos()), pass.Fset.Position(node.End())
					ranges = append(ranges, Range{Filename: tokenhelper.RelToCwd(fromPos.Filename), From: fromPos.Line, To: toPos.Line})
				}
			}
		}
	}

	// Import all nolint ranges from upstream.
	var upstreamRanges []Range
	for _, f := range analysishelper.ImportedFacts[*NoLint](analysishelper.NewEnhancedPass(pass)) {
		upstreamRanges = append(upstreamRanges, f.Ranges...)
	}

	pass.ExportPackageFact(&NoLint{Ranges: ranges})
	return slices.Concat(ranges, upstreamRanges), nil
}

// https://github.com/bazel-contrib/rules_go/blob/eb13b736d9568044427f23359329155e67071948/go/tools/builders/nolint.go#L21

// nolintContainsOwnAway checks if the nolint comment applies to all linters or names ownaway.
func nolintContainsOwnAway(text string) bool {
	text = strings.TrimLeft(text, "/ ")
	if !strings.HasPrefix(text, "nolint") {
		return false
	}

	// strip explanation comments
	split := strings.Split(text, "//")
	text = strings.TrimSpace(split[0])

	parts := strings.Split(text, ":")
	if len(parts) == 1 {
		return true
	}
	for _, linter := range strings.Split(strings.TrimSpace(parts[1]), ",") {
		if strings.EqualFold(linter, "all") || strings.EqualFold(linter, "ownaway") {
			return true
		}
	}
	return false
}
