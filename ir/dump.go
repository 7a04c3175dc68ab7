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

package ir

import (
	"fmt"
	"strings"
)

// Dump returns a human-readable listing of the function, one statement per line, for tracing
// and test failure messages.
func Dump(f *Function) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "func %s(", f.Name)
	for i, p := range f.Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s %s::%s", Arg(i), p.Name, p.Type)
	}
	sb.WriteString(")\n")

	for _, blk := range f.Blocks {
		fmt.Fprintf(&sb, "  b%d: preds=%v succs=%v\n", blk.Index, blk.Preds, blk.Succs)
		for _, s := range f.Stmts[blk.Start:blk.End] {
			sb.WriteString("    ")
			sb.WriteString(formatStmt(s))
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func formatStmt(s *Stmt) string {
	var sb strings.Builder
	if s.Type != nil {
		fmt.Fprintf(&sb, "%s = ", SSA(s.Index))
	}
	sb.WriteString(s.Op.String())
	if s.Op.IsCall() {
		fmt.Fprintf(&sb, " %s", s.Callee.Name)
	}
	sb.WriteByte('(')
	for i, a := range s.Args {
		if i > 0 {
			sb.WriteString(", ")
		}
		if s.Op == OpPhi {
			fmt.Fprintf(&sb, "b%d: ", s.Edges[i])
		}
		sb.WriteString(a.String())
	}
	sb.WriteByte(')')
	if s.Op == OpGetField || s.Op == OpSetField || s.Op == OpExtract {
		fmt.Fprintf(&sb, " #%d", s.Field)
	}
	if s.Type != nil {
		fmt.Fprintf(&sb, "::%s", s.Type)
	}
	if s.Name != "" {
		fmt.Fprintf(&sb, " [%s]", s.Name)
	}
	if s.Unchecked {
		sb.WriteString(" unchecked")
	}
	return sb.String()
}
