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

// Package config implements the configurations for OwnAway. The configurations are exposed as
// flags of Analyzer, and the parsed Config is the result of the analyzer so that every other
// analyzer can require it.
package config

import (
	"errors"
	"flag"
	"fmt"
	"go/ast"
	"reflect"
	"slices"
	"strings"

	"go.uber.org/ownaway/summary"
	"golang.org/x/tools/go/analysis"
)

// Stage selects the form of the SSA the front end builds.
type Stage string

const (
	// StageLifted builds SSA with local variables lifted into registers (the optimized form).
	StageLifted Stage = "lifted"
	// StageNaive keeps every local variable in memory (the unoptimized form).
	StageNaive Stage = "naive"
)

// Scope selects which functions are checked.
type Scope string

const (
	// ScopeFunction checks only functions annotated with the safe directive.
	ScopeFunction Scope = "function"
	// ScopeCallGraph additionally checks same-package static callees of annotated functions,
	// transitively.
	ScopeCallGraph Scope = "callgraph"
	// ScopeRoots checks every function of packages under one of the configured roots.
	ScopeRoots Scope = "roots"
)

// EvalOrder selects which statements get the evaluation-order hazard check.
type EvalOrder string

const (
	// EvalOrderTuple checks tuple constructions only.
	EvalOrderTuple EvalOrder = "tuple"
	// EvalOrderAll checks every statement that consumes more than one argument.
	EvalOrderAll EvalOrder = "all"
)

// ErrInvalid is returned (wrapped) for malformed configurations.
var ErrInvalid = errors.New("invalid configuration")

// Config is the collection of all user-configurable settings of OwnAway.
type Config struct {
	// Stage is the SSA form the front end builds.
	Stage Stage
	// Policy is the effect assumed for calls that cannot be summarized.
	Policy summary.Policy
	// MaxDepth is the recursion depth budget of effect summarization.
	MaxDepth int
	// MaxStmts is the size budget of a reflected callee.
	MaxStmts int
	// Scope selects the functions to check.
	Scope Scope
	// Roots lists the package path prefixes checked under ScopeRoots.
	Roots []string
	// EvalOrder selects the statements that get the evaluation-order check.
	EvalOrder EvalOrder
	// ForeignEffects is the path of a YAML external-call effect table, if any.
	ForeignEffects string
	// Trace is the path of the debug event sink, if any. A ".s2" suffix compresses the stream.
	Trace string
	// PrettyPrint indicates whether the error messages should be pretty printed.
	PrettyPrint bool

	// includePkgs is the list of packages to analyze.
	includePkgs []string
	// excludePkgs is the list of packages to exclude from analysis. Exclude list takes
	// precedence over the include list.
	excludePkgs []string
	// excludeFileDocStrings is the list of docstrings to exclude from analysis.
	excludeFileDocStrings []string
}

// Default returns the configuration used when no flag is set.
func Default() *Config {
	return &Config{
		Stage:     StageLifted,
		Policy:    summary.PolicyConsume,
		MaxDepth:  DefaultMaxDepth,
		MaxStmts:  DefaultMaxStmts,
		Scope:     ScopeFunction,
		EvalOrder: EvalOrderTuple,
	}
}

// Key is the comparable projection of the settings that influence effect summaries. Summaries
// memoized under one key are never served to a run with another.
type Key struct {
	Stage    Stage
	Policy   summary.Policy
	MaxDepth int
	MaxStmts int
}

// Key returns the summary-relevant projection of c.
func (c *Config) Key() Key {
	return Key{Stage: c.Stage, Policy: c.Policy, MaxDepth: c.MaxDepth, MaxStmts: c.MaxStmts}
}

// Validate checks the settings for consistency.
func (c *Config) Validate() error {
	var errs []error
	switch c.Stage {
	case StageLifted, StageNaive:
	default:
		errs = append(errs, fmt.Errorf("%w: unknown stage %q", ErrInvalid, c.Stage))
	}
	switch c.Scope {
	case ScopeFunction, ScopeCallGraph:
	case ScopeRoots:
		if len(c.Roots) == 0 {
			errs = append(errs, fmt.Errorf("%w: scope %q needs at least one root", ErrInvalid, c.Scope))
		}
	default:
		errs = append(errs, fmt.Errorf("%w: unknown scope %q", ErrInvalid, c.Scope))
	}
	switch c.EvalOrder {
	case EvalOrderTuple, EvalOrderAll:
	default:
		errs = append(errs, fmt.Errorf("%w: unknown eval order %q", ErrInvalid, c.EvalOrder))
	}
	if c.MaxDepth < 0 {
		errs = append(errs, fmt.Errorf("%w: negative max depth %d", ErrInvalid, c.MaxDepth))
	}
	if c.MaxStmts <= 0 {
		errs = append(errs, fmt.Errorf("%w: max stmts must be positive, got %d", ErrInvalid, c.MaxStmts))
	}
	return errors.Join(errs...)
}

// IsPkgInScope returns true iff the passed package is in scope for analysis.
func (c *Config) IsPkgInScope(pkgPath string) bool {
	// Never analyze the marker package itself.
	if pkgPath == OwnPkgPath {
		return false
	}
	for _, exclude := range c.excludePkgs {
		if strings.HasPrefix(pkgPath, exclude) {
			return false
		}
	}
	if len(c.includePkgs) == 0 {
		return true
	}
	for _, include := range c.includePkgs {
		if strings.HasPrefix(pkgPath, include) {
			return true
		}
	}
	return false
}

// IsFileInScope returns true iff the file should be analyzed, i.e., its docstring does not
// contain any of the excluded docstrings (including the no-check marker).
func (c *Config) IsFileInScope(file *ast.File) bool {
	if file.Doc == nil {
		return true
	}
	text := file.Doc.Text()
	for _, s := range append(slices.Clone(c.excludeFileDocStrings), OwnAwayNoCheckString) {
		if strings.Contains(text, s) {
			return false
		}
	}
	return true
}

// InRoots returns true if pkgPath is under one of the configured roots.
func (c *Config) InRoots(pkgPath string) bool {
	for _, r := range c.Roots {
		if pkgPath == r || strings.HasPrefix(pkgPath, strings.TrimSuffix(r, "/")+"/") {
			return true
		}
	}
	return false
}

const _doc = "_ownaway_config_ is an analyzer that provides the configurations for OwnAway; the " +
	"flags are lifted to the top level by the drivers so users can set them directly."

// Flag names of Analyzer.
const (
	StageFlag                 = "stage"
	UnknownCallPolicyFlag     = "unknown-call-policy"
	MaxDepthFlag              = "max-depth"
	MaxStmtsFlag              = "max-stmts"
	ScopeFlag                 = "scope"
	RootsFlag                 = "roots"
	EvalOrderFlag             = "eval-order"
	ForeignEffectsFlag        = "foreign-effects"
	TraceFlag                 = "trace"
	PrettyPrintFlag           = "pretty-print"
	IncludePkgsFlag           = "include-pkgs"
	ExcludePkgsFlag           = "exclude-pkgs"
	ExcludeFileDocStringsFlag = "exclude-file-docstrings"
)

// Analyzer is the config analyzer that provides the configurations for OwnAway.
var Analyzer = &analysis.Analyzer{
	Name:       "ownaway_config",
	Doc:        _doc,
	Flags:      newFlagSet(),
	Run:        run,
	ResultType: reflect.TypeOf((*Config)(nil)),
}

func newFlagSet() flag.FlagSet {
	fs := flag.NewFlagSet("ownaway_config", flag.ExitOnError)
	d := Default()

	fs.String(StageFlag, string(d.Stage), "SSA form to analyze: lifted or naive")
	fs.String(UnknownCallPolicyFlag, d.Policy.String(), "Effect assumed for calls that cannot be summarized: consume, write or ignore")
	fs.Int(MaxDepthFlag, d.MaxDepth, "Recursion depth budget of effect summarization")
	fs.Int(MaxStmtsFlag, d.MaxStmts, "Size budget (in IR statements) of a single summarized callee")
	fs.String(ScopeFlag, string(d.Scope), "Functions to check: function (annotated with "+SafeDirective+"), callgraph or roots")
	fs.String(RootsFlag, "", "Comma-separated list of package path prefixes checked under -scope=roots")
	fs.String(EvalOrderFlag, string(d.EvalOrder), "Statements subject to the evaluation-order check: tuple or all")
	fs.String(ForeignEffectsFlag, "", "Path of a YAML table describing the effects of external (cgo/assembly) calls")
	fs.String(TraceFlag, "", "Path of a JSON-lines debug trace; a .s2 suffix compresses it")
	fs.Bool(PrettyPrintFlag, true, "Pretty print the error messages")
	fs.String(IncludePkgsFlag, "", "Comma-separated list of packages to analyze")
	fs.String(ExcludePkgsFlag, "", "Comma-separated list of packages to exclude from analysis (takes precedence over include-pkgs)")
	fs.String(ExcludeFileDocStringsFlag, "", "Comma-separated list of docstrings to exclude from analysis")

	return *fs
}

func run(pass *analysis.Pass) (any, error) {
	return FromFlags(&pass.Analyzer.Flags)
}

// FromFlags parses a flag set created like Analyzer.Flags into a validated Config.
func FromFlags(fs *flag.FlagSet) (*Config, error) {
	get := func(name string) any {
		f := fs.Lookup(name)
		if f == nil {
			return nil
		}
		return f.Value.(flag.Getter).Get()
	}
	str := func(name string) string {
		s, _ := get(name).(string)
		return s
	}

	c := Default()
	if s := str(StageFlag); s != "" {
		c.Stage = Stage(s)
	}
	if s := str(UnknownCallPolicyFlag); s != "" {
		p, err := summary.ParsePolicy(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
		}
		c.Policy = p
	}
	if v, ok := get(MaxDepthFlag).(int); ok {
		c.MaxDepth = v
	}
	if v, ok := get(MaxStmtsFlag).(int); ok {
		c.MaxStmts = v
	}
	if s := str(ScopeFlag); s != "" {
		c.Scope = Scope(s)
	}
	if s := str(EvalOrderFlag); s != "" {
		c.EvalOrder = EvalOrder(s)
	}
	if v, ok := get(PrettyPrintFlag).(bool); ok {
		c.PrettyPrint = v
	}
	c.Roots = splitList(str(RootsFlag))
	c.ForeignEffects = str(ForeignEffectsFlag)
	c.Trace = str(TraceFlag)
	c.includePkgs = splitList(str(IncludePkgsFlag))
	c.excludePkgs = splitList(str(ExcludePkgsFlag))
	c.excludeFileDocStrings = splitList(str(ExcludeFileDocStringsFlag))

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// splitList splits a comma-separated flag value, dropping empty elements.
func splitList(s string) []string {
	var out []string
	for _, e := range strings.Split(s, ",") {
		if e = strings.TrimSpace(e); e != "" {
			out = append(out, e)
		}
	}
	return out
}
