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


// Package hook implements a hook framework for OwnAway where it hooks into effect summarization to
// provide the effects of certain function calls. This is useful for well-known standard or 3rd
// party libraries whose bodies are not available to the analysis (e.g., generic functions of
// the standard library), where we can encode certain knowledge about them (e.g.,
// `slices.Sort(s)` writes `s`, and `slices.Clone(s)` returns a fresh slice).
package hook

import (
	"regexp"
	"strings"

	"go.uber.org/ownaway/summary"
)

// funcKind indicates the kind of the trusted function:
// (1) _method: it is a method of a named type;
// (2) _func: it is a top-level function of a package.
type funcKind uint8

const (
	_method funcKind = iota
	_func
)

// trustedFuncSig defines the signature of a function that we "trust" to have a certain effect on
// its arguments.
type trustedFuncSig struct {
	kind           funcKind
	enclosingRegex *regexp.Regexp
	funcNameRegex  *regexp.Regexp
}

// match checks if a parsed callee identity matches with a trusted function's signature. Namely,
// it performs a regex match for the function / method name and for the enclosing "<pkg path>"
// (functions) or "<pkg path>.<type name>" (methods).
func (t *trustedFuncSig) match(c callee) bool {
	return t.kind == c.kind && t.funcNameRegex.MatchString(c.name) && t.enclosingRegex.MatchString(c.enclosing)
}

// callee is a parsed callee identity.
type callee struct {
	kind      funcKind
	enclosing string
	name      string
}

// parse splits a callee identity, e.g. "slices.Sort", "(*bytes.Buffer).Write" or
// "(pkg/path.List[T]).Len", into its parts. Type arguments are dropped. Function literals are
// never trusted.
func parse(name string) (callee, bool) {
	if strings.ContainsRune(name, '$') {
		return callee{}, false
	}
	if strings.HasPrefix(name, "(") {
		i := strings.LastIndex(name, ").")
		if i < 0 {
			return callee{}, false
		}
		recv := strings.TrimPrefix(name[1:i], "*")
		if j := strings.IndexByte(recv, '['); j >= 0 {
			recv = recv[:j]
		}
		return callee{kind: _method, enclosing: recv, name: name[i+2:]}, true
	}
	if j := strings.IndexByte(name, '['); j >= 0 {
		name = name[:j]
	}
	// The package path may contain dots ("gopkg.in/yaml.v3"), the function name does not.
	i := strings.LastIndexByte(name, '.')
	if i <= 0 {
		return callee{}, false
	}
	return callee{kind: _func, enclosing: name[:i], name: name[i+1:]}, true
}

// Effect returns the trusted effect of a call to the named callee with nargs arguments (the
// receiver of a method being argument 0). The boolean result reports whether the callee is a
// trusted function.
func Effect(name string, nargs int) (*summary.Summary, bool) {
	c, ok := parse(name)
	if !ok {
		return nil, false
	}
	for _, e := range _effects {
		if e.sig.match(c) {
			return e.rule(nargs), true
		}
	}
	return nil, false
}
