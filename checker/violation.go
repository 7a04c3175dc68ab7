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

package checker

import (
	"fmt"
	"strings"

	"go.uber.org/ownaway/ir"
)

//go:generate go tool stringer -type Kind

// Kind is the machine-readable class of a violation.
type Kind uint8

const (
	// AliasedWrite is a write to a value while another live binding aliases its storage.
	AliasedWrite Kind = iota
	// AliasedConsume is a move of a value while another live binding aliases its storage.
	AliasedConsume
	// UsedAfterMove is a use of a value (or an alias of its storage) after it was moved.
	UsedAfterMove
	// EvalOrder is an argument that reads a value already moved by an earlier argument of the
	// same statement.
	EvalOrder
)

// Tag returns the kebab-case tag of the kind used in rendered diagnostics.
func (k Kind) Tag() string {
	switch k {
	case AliasedWrite:
		return "aliased-write"
	case AliasedConsume:
		return "aliased-move"
	case UsedAfterMove:
		return "use-after-move"
	case EvalOrder:
		return "eval-order"
	default:
		return strings.ToLower(k.String())
	}
}

// Violation is one ownership violation found in a function body.
type Violation struct {
	// Idx is the index of the offending statement.
	Idx     int
	Message string
	// Loc is the best-effort source location of the offending statement.
	Loc  ir.Loc
	Stmt *ir.Stmt
	Kind Kind
	// ProblemVar is the name of the binding the violation is about, or "" if unknown.
	ProblemVar string
	// OtherVar is the name of the conflicting binding, or "" if unknown.
	OtherVar string
	// MovedAt is the statement that moved the value, for UsedAfterMove violations.
	MovedAt *ir.Stmt
}

// String returns "loc: [tag] message".
func (v Violation) String() string {
	return fmt.Sprintf("%s: [%s] %s", v.Loc, v.Kind.Tag(), v.Message)
}

// Error is the aggregate error reporting every violation of one checked function.
type Error struct {
	Func       string
	Violations []Violation
}

// Error lists the violations one per line.
func (e *Error) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d ownership violation(s) in %s:", len(e.Violations), e.Func)
	for _, v := range e.Violations {
		sb.WriteString("\n\t")
		sb.WriteString(v.String())
	}
	return sb.String()
}
