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


// Package main implements the integration test framework for checking cross-package effect
// summaries with different analyzer drivers. It compares the diagnostics reported by running
// OwnAway on the `testdata/integration` module with the diagnostics specified in the `//want`
// comments of that module. See `testdata/integration/README.md` for more details.
package main

import (
	"errors"
	"flag"
	"fmt"
	"go/ast"
	"maps"
	"os"
	"os/exec"
	"path/filepath"
	"reflect"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/tools/go/packages"
)

// Position represents a line position in a file.
type Position struct {
	Filename string
	Line     int
}

func (p Position) String() string { return fmt.Sprintf("%s:%d", p.Filename, p.Line) }

// Driver is the analyzer driver interface that runs OwnAway on the test project.
type Driver interface {
	// Run runs OwnAway on the test project rooted at dir and returns the messages of the reported
	// diagnostics, grouped by position.
	Run(dir string) (map[Position][]string, error)
}

// CollectGroundTruths loads the packages of the test project rooted at dir and collects the
// expected diagnostics from its `//want` comments.
func CollectGroundTruths(dir string) (map[Position][]*regexp.Regexp, error) {
	config := &packages.Config{
		Dir:  dir,
		Mode: packages.NeedName | packages.NeedSyntax | packages.NeedFiles | packages.NeedTypes,
	}
	pkgs, err := packages.Load(config, "./...")
	if err != nil {
		return nil, fmt.Errorf("load packages: %w", err)
	}
	if n := packages.PrintErrors(pkgs); n > 0 {
		return nil, fmt.Errorf("%d errors in the test project", n)
	}

	truths := make(map[Position][]*regexp.Regexp)
	for _, pkg := range pkgs {
		for _, f := range pkg.Syntax {
			for _, group := range f.Comments {
				for _, c := range group.List {
					wants, err := parseWants(c)
					if err != nil {
						pos := pkg.Fset.Position(c.Pos())
						return nil, fmt.Errorf("%s: %w", pos, err)
					}
					if len(wants) == 0 {
						continue
					}
					pos := pkg.Fset.Position(c.Pos())
					p := Position{Filename: pos.Filename, Line: pos.Line}
					truths[p] = append(truths[p], wants...)
				}
			}
		}
	}
	return truths, nil
}

// parseWants returns the patterns of a `//want "a" "b"` comment. A comment may also carry other
// comments before the expectation (e.g. `//nolint:errcheck //want "a"`).
func parseWants(c *ast.Comment) ([]*regexp.Regexp, error) {
	text := c.Text
	i := strings.LastIndex(text, "//want ")
	if i < 0 {
		i = strings.LastIndex(text, "// want ")
	}
	if i < 0 {
		return nil, nil
	}
	text = strings.TrimSpace(text[i+2:])
	text = strings.TrimSpace(strings.TrimPrefix(text, "want"))

	var wants []*regexp.Regexp
	for text != "" {
		quoted, err := strconv.QuotedPrefix(text)
		if err != nil {
			return nil, fmt.Errorf("malformed want comment %q: %w", c.Text, err)
		}
		s, err := strconv.Unquote(quoted)
		if err != nil {
			return nil, fmt.Errorf("malformed want comment %q: %w", c.Text, err)
		}
		re, err := regexp.Compile(s)
		if err != nil {
			return nil, fmt.Errorf("malformed want pattern %q: %w", s, err)
		}
		wants = append(wants, re)
		text = strings.TrimSpace(text[len(quoted):])
	}
	return wants, nil
}

// CompareDiagnostics compares the ground truths with the collected diagnostics and returns a
// joined error containing the unexpected and missing diagnostics (or nil if none). Each pattern
// is matched by exactly one diagnostic on its line.
func CompareDiagnostics(truth map[Position][]*regexp.Regexp, collected map[Position][]string) error {
	var err error

	positions := make(map[Position]bool, len(truth)+len(collected))
	for pos := range truth {
		positions[pos] = true
	}
	for pos := range collected {
		positions[pos] = true
	}
	sorted := slices.SortedFunc(maps.Keys(positions), func(a, b Position) int {
		if c := strings.Compare(a.Filename, b.Filename); c != 0 {
			return c
		}
		return a.Line - b.Line
	})

	for _, pos := range sorted {
		wants := slices.Clone(truth[pos])
		for _, got := range collected[pos] {
			i := slices.IndexFunc(wants, func(re *regexp.Regexp) bool { return re.MatchString(got) })
			if i < 0 {
				err = errors.Join(err, fmt.Errorf("unexpected diagnostic at %s:\n\tgot : %q", pos, got))
				continue
			}
			wants = slices.Delete(wants, i, i+1)
		}
		for _, want := range wants {
			err = errors.Join(err, fmt.Errorf("missing diagnostic at %s:\n\twant: %q", pos, want))
		}
	}
	return err
}

// Run runs the integration test with the given drivers from the root of the repository.
func Run(drivers []Driver) error {
	out, err := exec.Command("git", "rev-parse", "--show-toplevel").CombinedOutput()
	if err != nil {
		return fmt.Errorf("get root of git repository: %w", err)
	}
	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}
	if root := strings.TrimSpace(string(out)); root != wd {
		return fmt.Errorf("not at the root of the git repository: %q != %q", root, wd)
	}
	dir := filepath.Join(wd, "testdata", "integration")

	truths, err := CollectGroundTruths(dir)
	if err != nil {
		return fmt.Errorf("collect want strings: %w", err)
	}

	for _, driver := range drivers {
		name := reflect.TypeOf(driver).Elem().Name()
		fmt.Printf("--- Running integration tests using %q driver...", name)
		collected, err := driver.Run(dir)
		if err != nil {
			return fmt.Errorf("%q driver: %w", name, err)
		}
		if err := CompareDiagnostics(truths, collected); err != nil {
			return fmt.Errorf("diagnostics mismatch: \n%w", err)
		}
		n := 0
		for _, msgs := range collected {
			n += len(msgs)
		}
		fmt.Println("PASSED")
		fmt.Printf("\t%d diagnostics matched\n", n)
	}
	return nil
}

func main() {
	withGCL := flag.Bool("golangci-lint", false, "Also run OwnAway as a golangci-lint module plugin")
	flag.Parse()

	drivers := []Driver{&StandaloneDriver{}}
	if *withGCL {
		drivers = append(drivers, &GolangCILintDriver{})
	}
	if err := Run(drivers); err != nil {
		fmt.Printf("Integration test failed: %s\n", err)
		os.Exit(1)
	}
	fmt.Println("PASSED")
}
