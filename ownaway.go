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


// Package ownaway implements the top-level analyzer that simply retrieves the diagnostics from
// the accumulation analyzer and reports them.
package ownaway

import (
	"regexp"

	"github.com/fatih/color"
	"go.uber.org/ownaway/accumulation"
	"go.uber.org/ownaway/config"
	"golang.org/x/tools/go/analysis"
)

const _doc = "Run OwnAway on this package to report writes to aliased values, moves of aliased " +
	"values and uses of moved values in the functions annotated with " + config.SafeDirective

// Analyzer is the top-level instance of Analyzer - it coordinates the entire dataflow to report
// ownership violations in this package. It is needed here for nogo to recognize the package.
var Analyzer = &analysis.Analyzer{
	Name:      "ownaway",
	Doc:       _doc,
	Run:       run,
	FactTypes: []analysis.Fact{},
	Requires:  []*analysis.Analyzer{config.Analyzer, accumulation.Analyzer},
}

func run(pass *analysis.Pass) (any, error) {
	conf := pass.ResultOf[config.Analyzer].(*config.Config)
	deferredErrors := pass.ResultOf[accumulation.Analyzer].([]analysis.Diagnostic)
	for _, e := range deferredErrors {
		if conf.PrettyPrint {
			e.Message = prettyPrintErrorMessage(e.Message)
		}
		pass.Report(e)
	}

	return nil, nil
}

var (
	codeReferencePattern = regexp.MustCompile("\\`(.*?)\\`")
	tagPattern           = regexp.MustCompile(`^\[([a-z]+(?:-[a-z]+)*)\]`)
	caretPattern         = regexp.MustCompile(`(?m)(\|\s*)(\^+)$`)

	errorColor = forced(color.FgRed)
	codeColor  = forced(color.FgHiMagenta)
	tagColor   = forced(color.Bold)
)

// forced returns a color that is applied even if the output is not a terminal: the pretty-print
// flag is an explicit request for colors.
func forced(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	c.EnableColor()
	return c
}

// prettyPrintErrorMessage is used in error reporting to post process and pretty print the output with colors
func prettyPrintErrorMessage(msg string) string {
	msg = tagPattern.ReplaceAllString(msg, tagColor.Sprint("[${1}]"))
	msg = codeReferencePattern.ReplaceAllString(msg, codeColor.Sprint("`${1}`"))
	msg = caretPattern.ReplaceAllString(msg, "${1}"+errorColor.Sprint("${2}"))
	return errorColor.Sprint("error: ") + msg
}
