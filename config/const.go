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

package config

// This file hosts non-user-configurable parameters --- these are for development and testing purposes only.

// DefaultMaxDepth is the default recursion depth budget of effect summarization. Summaries of
// callees deeper than this fall back to the unknown-call policy. In practice a handful of levels
// capture the wrappers around the operations that really move or mutate a value; deeper chains
// mostly add analysis time.
const DefaultMaxDepth = 4

// DefaultMaxStmts is the default size budget of a single reflected callee, in IR statements.
// Larger callees are summarized with the unknown-call policy and marked over budget.
const DefaultMaxStmts = 2000

// OwnAwayNoCheckString is the string that may be inserted into the docstring for a package to
// prevent OwnAway from checking any function of that package - this is useful for unit tests
const OwnAwayNoCheckString = "<ownaway no check>"

const uberPkgPathPrefix = "go.uber.org"

// OwnAwayPkgPathPrefix is the package prefix for OwnAway.
const OwnAwayPkgPathPrefix = uberPkgPathPrefix + "/ownaway"

// OwnPkgPath is the import path of the marker package user code calls into.
const OwnPkgPath = OwnAwayPkgPathPrefix + "/own"

// Directives recognized in source comments.
const (
	// SafeDirective in a function's doc comment selects the function for checking.
	SafeDirective = "//own:safe"
	// UncheckedDirective preceding a statement marks the statement as an unchecked region.
	UncheckedDirective = "//own:unchecked"
)

// DirLevelsToPrint controls the number of enclosing directories to print when referring to the
// locations of moves in diagnostics - right now it seems as if 1 is sufficient disambiguation,
// but feel free to increase.
const DirLevelsToPrint = 1
