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


package hook

import (
	"regexp"

	"go.uber.org/ownaway/summary"
)

// rule builds the effect of a trusted function: the written argument positions and the positions
// the result aliases. Positions beyond the arity of a call are dropped.
func rule(writes, rets summary.Positions) summary.Rule {
	return func(nargs int) *summary.Summary {
		s := &summary.Summary{}
		for _, p := range writes {
			if p < nargs {
				s.Writes = s.Writes.With(p)
			}
		}
		for _, p := range rets {
			if p < nargs {
				s.RetAliases = s.RetAliases.With(p)
			}
		}
		return s
	}
}

var (
	// readOnly functions neither write their arguments nor return an alias of them.
	readOnly = rule(nil, nil)
	// writesFirst functions write their first argument (or receiver) in place.
	writesFirst = rule(summary.Of(0), nil)
	// growsFirst functions write their first argument and may return it (like append).
	growsFirst = rule(summary.Of(0), summary.Of(0))
	// viewsFirst functions return a view into their first argument (or receiver).
	viewsFirst = rule(nil, summary.Of(0))
)

type trustedEffect struct {
	sig  trustedFuncSig
	rule summary.Rule
}

func fn(pkg, names string, r summary.Rule) trustedEffect {
	return trustedEffect{
		sig: trustedFuncSig{
			kind:           _func,
			enclosingRegex: regexp.MustCompile(`^` + pkg + `$`),
			funcNameRegex:  regexp.MustCompile(`^(` + names + `)$`),
		},
		rule: r,
	}
}

func method(typ, names string, r summary.Rule) trustedEffect {
	t := fn(typ, names, r)
	t.sig.kind = _method
	return t
}

// _effects lists the trusted functions, matched in order.
var _effects = []trustedEffect{
	// `slices`
	fn(`slices`, `Clone|Concat|Collect|Sorted|SortedFunc`, readOnly),
	fn(`slices`, `Contains|ContainsFunc|Index|IndexFunc|Equal|EqualFunc|Compare|CompareFunc|`+
		`BinarySearch|BinarySearchFunc|Max|MaxFunc|Min|MinFunc|IsSorted|IsSortedFunc`, readOnly),
	fn(`slices`, `Sort|SortFunc|SortStableFunc|Reverse`, writesFirst),
	fn(`slices`, `Insert|Delete|DeleteFunc|Compact|CompactFunc|Replace|Grow`, growsFirst),
	fn(`slices`, `Clip|All|Values|Backward|Chunk`, viewsFirst),

	// `maps`
	fn(`maps`, `Clone|Collect|Equal|EqualFunc`, readOnly),
	fn(`maps`, `Copy|DeleteFunc|Insert`, writesFirst),
	fn(`maps`, `All|Keys|Values`, viewsFirst),

	// `sort`
	fn(`sort`, `Ints|Strings|Float64s|Slice|SliceStable|Sort|Stable`, writesFirst),
	fn(`sort`, `IntsAreSorted|StringsAreSorted|SliceIsSorted|Search|SearchInts|SearchStrings`, readOnly),

	// `bytes` and `strings`
	fn(`bytes`, `Clone|Equal|Compare|Contains|ContainsAny|ContainsRune|Count|HasPrefix|HasSuffix|`+
		`Index|IndexByte|IndexRune|LastIndex|ToLower|ToUpper|Repeat|Join`, readOnly),
	fn(`bytes`, `TrimSpace|Trim|TrimLeft|TrimRight|TrimPrefix|TrimSuffix|Split|SplitN|Fields`, viewsFirst),
	method(`bytes\.Buffer`, `Write|WriteString|WriteByte|WriteRune|Reset|Grow|Truncate`, writesFirst),
	// Reading from r advances it.
	method(`bytes\.Buffer`, `ReadFrom`, rule(summary.Of(0, 1), nil)),
	method(`bytes\.Buffer`, `Bytes|AvailableBuffer`, viewsFirst),
	method(`bytes\.Buffer`, `String|Len|Cap|Available`, readOnly),
	method(`strings\.Builder`, `Write|WriteString|WriteByte|WriteRune|Reset|Grow`, writesFirst),
	method(`strings\.Builder`, `String|Len|Cap`, readOnly),

	// `fmt`: the variadic operands are only read; the writer of Fprint* is written.
	fn(`fmt`, `Sprint|Sprintf|Sprintln|Print|Printf|Println|Errorf`, readOnly),
	fn(`fmt`, `Fprint|Fprintf|Fprintln`, writesFirst),
	fn(`fmt`, `Append|Appendf|Appendln`, growsFirst),

	// `encoding/json`
	fn(`encoding/json`, `Marshal|MarshalIndent|Valid`, readOnly),
	fn(`encoding/json`, `Unmarshal`, rule(summary.Of(1), nil)),

	// `errors`
	fn(`errors`, `New|Is|Join`, readOnly),
	fn(`errors`, `As`, rule(summary.Of(1), nil)),
	fn(`errors`, `Unwrap`, viewsFirst),
}
