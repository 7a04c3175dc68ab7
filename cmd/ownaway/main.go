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


// main package makes it possible to build OwnAway as a standalone code checker that can be
// independently invoked to check other packages.
package main

import (
	"flag"
	"fmt"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/ownaway"
	"go.uber.org/ownaway/config"
	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/singlechecker"
)

// Analyzer is identical to the one in ownaway.go, except that it overrides the run function for
// extra filtering of errors, since the singlechecker does not support error suppression like other
// popular linter drivers.
var Analyzer = &analysis.Analyzer{
	Name:       ownaway.Analyzer.Name,
	Doc:        ownaway.Analyzer.Doc,
	Run:        run,
	FactTypes:  ownaway.Analyzer.FactTypes,
	ResultType: ownaway.Analyzer.ResultType,
	Requires:   ownaway.Analyzer.Requires,
}

var (
	// _includeErrorsInFiles is a driver flag for specifying the list of file prefixes to only report errors.
	_includeErrorsInFiles string
	// _excludeErrorsInFiles is a driver flag for specifying the list of file prefixes to not report errors.
	_excludeErrorsInFiles string
)

// _filter is built from the driver flags on first use, after flag parsing.
var _filter = sync.OnceValues(func() (*fileFilter, error) {
	return newFileFilter(_includeErrorsInFiles, _excludeErrorsInFiles)
})

// fileFilter decides which files diagnostics may be reported in.
type fileFilter struct {
	includes []string
	excludes []string
}

func newFileFilter(includes, excludes string) (*fileFilter, error) {
	in, err := parseFilePrefixes(includes)
	if err != nil {
		return nil, fmt.Errorf("parse file prefixes for error inclusion: %w", err)
	}
	ex, err := parseFilePrefixes(excludes)
	if err != nil {
		return nil, fmt.Errorf("parse file prefixes for error exclusion: %w", err)
	}
	return &fileFilter{includes: in, excludes: ex}, nil
}

// keep returns true if a diagnostic in the named file should be reported. Exclusions take
// precedence; an empty name (a diagnostic outside any file, such as an internal error) is always
// kept.
func (f *fileFilter) keep(name string) bool {
	if name == "" {
		return true
	}
	for _, e := range f.excludes {
		if strings.HasPrefix(name, e) {
			return false
		}
	}
	for _, i := range f.includes {
		if strings.HasPrefix(name, i) {
			return true
		}
	}
	return false
}

func run(pass *analysis.Pass) (any, error) {
	// A violation may be reported at a statement that was inlined from another file, and packages
	// outside the working directory are summarized too. Linter drivers usually limit the reports to
	// the files of interest, but singlechecker does not, so the filtering happens here.
	filter, err := _filter()
	if err != nil {
		return nil, err
	}

	report := pass.Report
	pass.Report = func(d analysis.Diagnostic) {
		if filter.keep(filename(pass, d.Pos)) {
			report(d)
		}
	}

	return ownaway.Analyzer.Run(pass)
}

// filename returns the absolute name of the file containing pos, or "" if pos is not in a file.
func filename(pass *analysis.Pass, pos token.Pos) string {
	f := pass.Fset.File(pos)
	if f == nil {
		return ""
	}
	name, err := filepath.Abs(f.Name())
	if err != nil {
		return f.Name()
	}
	return name
}

// parseFilePrefixes parses the comma-separated list of file prefixes, converts them to absolute
// file paths, and returns them as a slice.
func parseFilePrefixes(s string) ([]string, error) {
	if s == "" {
		return nil, nil
	}

	list := strings.Split(s, ",")
	for i := range list {
		p, err := filepath.Abs(strings.TrimSpace(list[i]))
		if err != nil {
			return nil, fmt.Errorf("convert %q to absolute path: %w", list[i], err)
		}
		list[i] = p
	}
	return list, nil
}

func main() {
	// The flags of config.Analyzer are lifted to the top level so that users write
	// `ownaway -max-depth 3 ./...` instead of `ownaway -ownaway_config.max-depth 3 ./...`.
	config.Analyzer.Flags.VisitAll(func(f *flag.Flag) { flag.Var(f.Value, f.Name, f.Usage) })

	wd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to get working directory: %v\n", err)
		os.Exit(1)
	}
	flag.StringVar(&_includeErrorsInFiles, "include-errors-in-files", wd, "A comma-separated list of file prefixes to report errors, default is current working directory.")
	flag.StringVar(&_excludeErrorsInFiles, "exclude-errors-in-files", "", "A comma-separated list of file prefixes to exclude from error reporting. This takes precedence over include-errors-in-files.")

	singlechecker.Main(Analyzer)
}
