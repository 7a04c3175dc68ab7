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

// Package asthelper implements utility functions for AST.
package asthelper

import (
	"bytes"
	"cmp"
	"go/ast"
	"go/printer"
	"go/token"
	"slices"
	"strings"
)

// DocContains returns true if any comment of the group contains s.
func DocContains(group *ast.CommentGroup, s string) bool {
	if group == nil {
		return false
	}
	for _, comment := range group.List {
		if strings.Contains(comment.Text, s) {
			return true
		}
	}
	return false
}

// IsDirective returns true if the comment is exactly the given directive, optionally followed by
// an explanation separated by a space (e.g., "//own:unchecked the buffer is never shared").
func IsDirective(c *ast.Comment, directive string) bool {
	text, ok := strings.CutPrefix(c.Text, directive)
	return ok && (text == "" || text[0] == ' ' || text[0] == '\t')
}

// HasDirective returns true if any comment of the group is the given directive.
func HasDirective(group *ast.CommentGroup, directive string) bool {
	if group == nil {
		return false
	}
	for _, c := range group.List {
		if IsDirective(c, directive) {
			return true
		}
	}
	return false
}

// Span is a half-open source range [Start, End).
type Span struct {
	Start, End token.Pos
}

// Contains returns true if pos lies within the span.
func (s Span) Contains(pos token.Pos) bool {
	return pos.IsValid() && s.Start <= pos && pos < s.End
}

// DirectiveSpans returns the spans of the statements annotated by the given directive in file,
// in source order. A directive annotates the statement it trails on the same line, or else the
// outermost statement starting on the line right below it.
func DirectiveSpans(fset *token.FileSet, file *ast.File, directive string) []Span {
	var directives []*ast.Comment
	for _, group := range file.Comments {
		for _, c := range group.List {
			if IsDirective(c, directive) {
				directives = append(directives, c)
			}
		}
	}
	if len(directives) == 0 {
		return nil
	}

	// Outermost statement starting on each line.
	first := make(map[int]ast.Stmt)
	ast.Inspect(file, func(n ast.Node) bool {
		stmt, ok := n.(ast.Stmt)
		if !ok {
			return true
		}
		if _, isBlock := stmt.(*ast.BlockStmt); isBlock {
			return true
		}
		line := fset.Position(stmt.Pos()).Line
		if _, ok := first[line]; !ok {
			first[line] = stmt
		}
		return true
	})

	seen := make(map[ast.Stmt]bool)
	var spans []Span
	for _, c := range directives {
		line := fset.Position(c.Slash).Line
		stmt, ok := first[line]
		if !ok || stmt.Pos() > c.Slash {
			stmt, ok = first[line+1]
		}
		if !ok || seen[stmt] {
			continue
		}
		seen[stmt] = true
		spans = append(spans, Span{Start: stmt.Pos(), End: stmt.End()})
	}
	slices.SortFunc(spans, func(a, b Span) int { return cmp.Compare(a.Start, b.Start) })
	return spans
}

// PrintExpr converts AST expression to string, and shortens long expressions if isShortenExpr is true
func PrintExpr(e ast.Expr, fset *token.FileSet, isShortenExpr bool) string {
	if !isShortenExpr {
		return exprToString(e, fset)
	}

	// traverse over the AST expression's subtree and shorten long expressions (e.g., s.foo(longVarName, anotherLongVarName, someOtherLongVarName) --> s.foo(...))
	s := strings.Builder{}
	printExprHelper(e, fset, &s)
	return s.String()
}

func exprToString(e ast.Expr, fset *token.FileSet) string {
	var buf bytes.Buffer
	if err := printer.Fprint(&buf, fset, e); err != nil {
		return "<expr>"
	}
	return buf.String()
}

func printExprHelper(e ast.Expr, fset *token.FileSet, s *strings.Builder) {
	// _shortenExprLen is the maximum length of an expression to be printed in full. The value is set to 3 to account for
	// the length of the ellipsis ("..."), which is used to shorten long expressions.
	const _shortenExprLen = 3

	// fullExpr returns true if the expression is short enough (<= _shortenExprLen) to be printed in full
	fullExpr := func(node ast.Node) (string, bool) {
		switch n := node.(type) {
		case *ast.Ident:
			if len(n.Name) <= _shortenExprLen {
				return n.Name, true
			}
		case *ast.BasicLit:
			if len(n.Value) <= _shortenExprLen {
				return n.Value, true
			}
		}
		return "", false
	}

	switch node := e.(type) {
	case *ast.Ident:
		s.WriteString(node.Name)

	case *ast.ParenExpr:
		printExprHelper(node.X, fset, s)

	case *ast.StarExpr:
		s.WriteString("*")
		printExprHelper(node.X, fset, s)

	case *ast.UnaryExpr:
		s.WriteString(node.Op.String())
		printExprHelper(node.X, fset, s)

	case *ast.SelectorExpr:
		printExprHelper(node.X, fset, s)
		s.WriteString(".")
		s.WriteString(node.Sel.Name)

	case *ast.CallExpr:
		printExprHelper(node.Fun, fset, s)
		s.WriteString("(")
		if len(node.Args) > 0 {
			isShorten := true
			if len(node.Args) == 1 {
				if arg, ok := fullExpr(node.Args[0]); ok {
					s.WriteString(arg)
					isShorten = false
				}
			}
			if isShorten {
				s.WriteString("...")
			}
		}
		s.WriteString(")")

	case *ast.IndexExpr:
		printExprHelper(node.X, fset, s)
		s.WriteString("[")
		if v, ok := fullExpr(node.Index); ok {
			s.WriteString(v)
		} else {
			s.WriteString("...")
		}
		s.WriteString("]")

	default:
		s.WriteString(exprToString(e, fset))
	}
}
