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
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/ownaway/checker"
	"go.uber.org/ownaway/ir"
)

// Source provides the text of source lines for rendering.
type Source interface {
	// Line returns the 1-based line of the file, without the line terminator.
	Line(file string, line int) (string, bool)
}

// Lines is an in-memory Source mapping file names to their lines.
type Lines map[string][]string

// Line implements Source.
func (l Lines) Line(file string, line int) (string, bool) {
	lines, ok := l[file]
	if !ok || line < 1 || line > len(lines) {
		return "", false
	}
	return lines[line-1], true
}

// FileSource is a Source reading files from disk. Files are read once and cached. It is safe for
// concurrent use.
type FileSource struct {
	mu    sync.Mutex
	files map[string][]string
}

// NewFileSource returns an empty FileSource.
func NewFileSource() *FileSource {
	return &FileSource{files: make(map[string][]string)}
}

// Line implements Source. Unreadable files have no lines.
func (s *FileSource) Line(file string, line int) (string, bool) {
	s.mu.Lock()
	lines, ok := s.files[file]
	if !ok {
		lines = readLines(file)
		s.files[file] = lines
	}
	s.mu.Unlock()
	return Lines{file: lines}.Line(file, line)
}

func readLines(file string) []string {
	content, err := os.ReadFile(file)
	if err != nil {
		return nil
	}
	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), len(content)+1)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines
}

// Render renders a violation for humans: the location, kind tag and message, followed by the
// offending source line with a caret under the reported column, the chain of call sites the
// statement was inlined into, and the statement that moved the value. A nil src omits the source
// line.
//
//	p.go:9:6: [use-after-move] `x` used after being moved into `y`
//	   9 | 	use(x)
//	     | 	^
//	  moved at p.go:8:11
func Render(v checker.Violation, src Source) string {
	return v.Loc.String() + ": " + render(v, src)
}

// render is Render without the leading location.
func render(v checker.Violation, src Source) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %s", v.Kind.Tag(), v.Message)
	writeContext(&sb, v.Loc, src)
	for at := v.Loc.InlinedAt; at != nil; at = at.InlinedAt {
		fmt.Fprintf(&sb, "\n  inlined at %s", at)
	}
	if v.MovedAt != nil && v.MovedAt != v.Stmt && v.MovedAt.Loc.IsValid() {
		fmt.Fprintf(&sb, "\n  moved at %s", v.MovedAt.Loc)
	}
	return sb.String()
}

func writeContext(sb *strings.Builder, loc ir.Loc, src Source) {
	if src == nil || !loc.IsValid() {
		return
	}
	line, ok := src.Line(loc.File, loc.Line)
	if !ok {
		return
	}
	num := strconv.Itoa(loc.Line)
	fmt.Fprintf(sb, "\n%4s | %s", num, line)
	if loc.Column < 1 {
		return
	}

	// Keep tabs so that the caret lines up with the source line.
	var pad strings.Builder
	for i := 0; i < loc.Column-1 && i < len(line); i++ {
		if line[i] == '\t' {
			pad.WriteByte('\t')
		} else {
			pad.WriteByte(' ')
		}
	}
	fmt.Fprintf(sb, "\n%4s | %s^", "", pad.String())
}
