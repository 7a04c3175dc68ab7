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

// Package diagnostic hosts the diagnostic engine, which is responsible for collecting the
// violations found by the checker and generating user-friendly diagnostics from them.
package diagnostic

import (
	"cmp"
	"go/token"
	"slices"
	"sync"

	"go.uber.org/ownaway/checker"
	"go.uber.org/ownaway/ir"
	"go.uber.org/ownaway/util/tokenhelper"
	"golang.org/x/tools/go/analysis"
)

// fileInfo bundles the token.File object and auxiliary information about it, e.g., whether it is
// a fake file (i.e., imported from archive).
type fileInfo struct {
	file   *token.File
	isFake bool
}

// Options configures an Engine.
type Options struct {
	// NoLint lists the ranges in which diagnostics are suppressed.
	NoLint []Range
	// Source, if set, adds the offending source line to every message (see Render).
	Source Source
}

type entry struct {
	fn       string
	v        checker.Violation
	position token.Position
}

// Engine is the main engine for generating diagnostics from violations. Violations may be added
// concurrently.
type Engine struct {
	pass *analysis.Pass
	opts Options

	mu      sync.Mutex
	entries []entry
	// files maps the file name (modulo the possible build-system prefix) to the token.File object
	// for faster lookup when converting positions back to local token.Pos for reporting purposes.
	files map[string]fileInfo
}

// NewEngine creates a new diagnostic engine.
func NewEngine(pass *analysis.Pass, opts Options) *Engine {
	// Iterate all files within the Fset (which includes upstream and current-package files), and
	// store the mapping between its file name (modulo the possible build-system prefix) and the
	// token.File object.
	files := make(map[string]fileInfo)
	pass.Fset.Iterate(func(file *token.File) bool {
		// The file will be fake (conceptually "\n" * 65535) if it is imported from archive. So we
		// check if there are any gaps between the line starts to determine if the file is fake.
		isFake := true
		prev := -1
		for _, pos := range file.Lines() {
			if prev != -1 && pos-prev > 1 {
				isFake = false
				break
			}
			prev = pos
		}
		files[tokenhelper.RelToCwd(file.Name())] = fileInfo{file: file, isFake: isFake}
		return true
	})
	return &Engine{pass: pass, opts: opts, files: files}
}

// Add adds the violations found in the named function.
func (e *Engine) Add(fn string, vs []checker.Violation) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, v := range vs {
		position := token.Position{Filename: v.Loc.File, Line: v.Loc.Line, Column: v.Loc.Column}
		if v.Loc.Pos.IsValid() {
			position = tokenhelper.Position(e.pass.Fset, v.Loc.Pos)
		}
		e.entries = append(e.entries, entry{fn: fn, v: v, position: position})
	}
}

// Diagnostics generates diagnostics from the added violations, skipping the ones suppressed by a
// nolint comment. The returned slice is sorted by file names and then offsets in the file.
func (e *Engine) Diagnostics() []analysis.Diagnostic {
	e.mu.Lock()
	defer e.mu.Unlock()

	slices.SortStableFunc(e.entries, func(a, b entry) int {
		if n := cmp.Compare(a.position.Filename, b.position.Filename); n != 0 {
			return n
		}
		if n := cmp.Compare(a.position.Line, b.position.Line); n != 0 {
			return n
		}
		return cmp.Compare(a.position.Column, b.position.Column)
	})

	diagnostics := make([]analysis.Diagnostic, 0, len(e.entries))
	for _, en := range e.entries {
		if e.suppressed(en.position) {
			continue
		}
		d := analysis.Diagnostic{
			Pos:      e.toPos(en.v.Loc, en.position),
			Category: en.v.Kind.Tag(),
			Message:  render(en.v, e.opts.Source),
		}
		for at := en.v.Loc.InlinedAt; at != nil; at = at.InlinedAt {
			d.Related = append(d.Related, e.related(*at, "inlined here"))
		}
		if m := en.v.MovedAt; m != nil && m != en.v.Stmt && m.Loc.IsValid() {
			d.Related = append(d.Related, e.related(m.Loc, "moved here"))
		}
		diagnostics = append(diagnostics, d)
	}
	return diagnostics
}

func (e *Engine) related(loc ir.Loc, msg string) analysis.RelatedInformation {
	position := token.Position{Filename: loc.File, Line: loc.Line, Column: loc.Column}
	return analysis.RelatedInformation{Pos: e.toPos(loc, position), Message: msg}
}

func (e *Engine) suppressed(position token.Position) bool {
	for _, r := range e.opts.NoLint {
		if r.Contains(position.Filename, position.Line) {
			return true
		}
	}
	return false
}

// _fakeFileMaxLines is the maximum number of lines that the archive importer will add to a (fake)
// file when it imports a package. See [the importer code] for more details. We use this to create
// more fake files when necessary.
// [the importer code]: https://cs.opensource.google/go/x/tools/+/master:internal/gcimporter/bimport.go;l=34;bpv=0;bpt=1
const _fakeFileMaxLines = 64 * 1024

// toPos converts a violation location back to a token.Pos that is relative to local Fset for
// reporting purposes _only_. Locations of the current package carry their position; others are
// only known by file and line, and might not exist in the local Fset. In such cases, we pad the
// local Fset for correct reporting.
func (e *Engine) toPos(loc ir.Loc, position token.Position) token.Pos {
	if loc.Pos.IsValid() && e.pass.Fset.File(loc.Pos) != nil {
		return loc.Pos
	}
	if position.Line < 1 {
		return token.NoPos
	}

	info, ok := e.files[position.Filename]
	if !ok {
		// For incremental build systems like bazel, the pass.Fset contains only the files in
		// current and _directly_ imported packages (see [gcexportdata] for more details). However,
		// summaries are imported transitively, so we may need to report on a file from a
		// transitively imported package. In such cases, we create a fake file in the file set.
		// [gcexportdata]: https://pkg.go.dev/golang.org/x/tools/go/gcexportdata
		file := e.pass.Fset.AddFile(position.Filename, e.pass.Fset.Base(), _fakeFileMaxLines)
		// Set up fake lines for the fake file.
		fakeLines := make([]int, position.Line)
		for i := range fakeLines {
			fakeLines[i] = i
		}
		file.SetLines(fakeLines)
		info = fileInfo{file: file, isFake: true}
		e.files[position.Filename] = info
	}

	if info.isFake {
		// If the file is fake (imported from archive), it may not contain enough fake lines. In
		// such cases, we pad the file with more fake lines.
		if position.Line > info.file.LineCount() {
			// We are adding offsets to fake lines here, and offset == fake line number - 1. So we
			// can start from the current max line number to the desired line number - 1.
			for i := info.file.LineCount(); i < position.Line; i++ {
				info.file.AddLine(i)
			}
		}

		// For fake files, we can only report accurate line number but not column number.
		return info.file.LineStart(position.Line)
	}

	if position.Line > info.file.LineCount() {
		return token.NoPos
	}
	pos := info.file.LineStart(position.Line)
	if position.Column > 1 && int(pos)+position.Column-1 <= info.file.Base()+info.file.Size() {
		pos += token.Pos(position.Column - 1)
	}
	return pos
}
