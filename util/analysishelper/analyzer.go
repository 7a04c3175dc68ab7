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

// Package analysishelper provides helper functions for the `go/analysis` package.
package analysishelper

import (
	"fmt"
	"runtime/debug"

	"golang.org/x/tools/go/analysis"
)

// Result is the result struct for the sub-analyzers where the actual result is accompanied by
// an optional error.
type Result[T any] struct {
	// Res is the actual result from the sub-analyzer.
	Res T
	// Err is the optional error from the sub-analyzer.
	Err error
}

// WrapRun wraps the run function of a sub-analyzer such that it never fails the analysis:
// (1) the error is returned in Result[T].Err, prefixed with the name of the analyzer, so that the
// top-level analyzer decides how to report it;
// (2) a panic is recovered and converted to an error carrying the stack trace.
func WrapRun[T any](f func(*analysis.Pass) (T, error)) func(*analysis.Pass) (any, error) {
	return func(pass *analysis.Pass) (any, error) {
		analyzerName := ""
		if pass != nil && pass.Analyzer != nil {
			analyzerName = pass.Analyzer.Name
		}

		result := &Result[T]{}
		var err error
		func() {
			defer RecoverInto(&err, "analyzer %q", analyzerName)
			result.Res, err = f(pass)
		}()
		if err != nil {
			result.Err = fmt.Errorf("%s: %w", analyzerName, err)
		}
		return result, nil
	}
}

// RecoverInto must be deferred directly. It converts a panic of the deferring function into an
// error stored in *err, with the stack trace attached. The format and args describe what was
// running.
func RecoverInto(err *error, format string, args ...any) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("INTERNAL PANIC from %s: %v\n%s", fmt.Sprintf(format, args...), r, debug.Stack())
	}
}
