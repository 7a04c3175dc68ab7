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


// Package accumulation coordinates the entire workflow: it lowers the package to the ownership IR,
// summarizes the effects of its functions (reading the summaries of upstream packages as Facts),
// checks the functions in scope, and returns all diagnostics for the upper-level analyzer to
// report.
package accumulation

import (
	"errors"
	"fmt"
	"go/ast"
	"go/token"
	"reflect"
	"runtime"

	"go.uber.org/ownaway/checker"
	"go.uber.org/ownaway/config"
	"go.uber.org/ownaway/diagnostic"
	"go.uber.org/ownaway/effect"
	"go.uber.org/ownaway/hook"
	"go.uber.org/ownaway/lower"
	"go.uber.org/ownaway/summary"
	"go.uber.org/ownaway/util/analysishelper"
	"golang.org/x/sync/errgroup"
	"golang.org/x/tools/go/analysis"
)

const _doc = "Lower the functions of this package to the ownership IR, summarize their effects " +
	"(reading the summaries of upstream dependencies as Facts), and check the functions in scope " +
	"to obtain a list of diagnostics that a later analyzer will report"

// Analyzer here is the accumulator that runs the ownership checker over the package and returns
// the violations it found as diagnostics.
var Analyzer = &analysis.Analyzer{
	Name: "ownaway_accumulation_analyzer",
	Doc:  _doc,
	Run:  run,
	FactTypes: []analysis.Fact{
		new(effect.Fact),
	},
	Requires:   []*analysis.Analyzer{config.Analyzer, diagnostic.NoLintAnalyzer},
	ResultType: reflect.TypeOf(([]analysis.Diagnostic)(nil)),
}

// run is the primary driver function for OwnAway's analysis.
//
// It lowers every source function of the package to the IR and, sequentially, computes the
// effect summary of each of them at depth 1, so the shared cache holds every summary the checks
// will ask for. The precise summaries of exported functions are then exported for the analysis
// of downstream packages. Lastly the functions in scope are checked concurrently and their
// violations are converted to diagnostics.
//
// A function that cannot be lowered or checked is skipped (and traced); an internal panic is
// converted to a diagnostic.
func run(p *analysis.Pass) (result any, _ error) {
	pass := analysishelper.NewEnhancedPass(p)
	conf := pass.ResultOf[config.Analyzer].(*config.Config)
	if !conf.IsPkgInScope(pass.Pkg.Path()) {
		// Must return a typed nil since the driver is using reflection to retrieve the result.
		return ([]analysis.Diagnostic)(nil), nil
	}

	var (
		diagnostics []analysis.Diagnostic
		err         error
	)
	func() {
		defer analysishelper.RecoverInto(&err, "package %s", pass.Pkg.Path())
		diagnostics, err = analyze(pass, conf)
	}()
	if err != nil {
		return append(diagnostics, errorsToDiagnostics([]error{err})...), nil
	}
	return diagnostics, nil
}

func analyze(pass *analysishelper.EnhancedPass, conf *config.Config) ([]analysis.Diagnostic, error) {
	nolint := pass.ResultOf[diagnostic.NoLintAnalyzer].(*analysishelper.Result[[]diagnostic.Range])
	if nolint.Err != nil {
		return nil, nolint.Err
	}

	table, err := _tables.get(conf.ForeignEffects)
	if err != nil {
		return nil, err
	}
	sink, err := _sinks.get(conf.Trace)
	if err != nil {
		return nil, err
	}
	defer func() { _ = sink.Flush() }()

	pkg, err := lower.Build(pass.Fset, pass.Pkg, pass.Files, pass.TypesInfo, conf.Stage)
	if err != nil {
		return nil, fmt.Errorf("lower %s: %w", pass.Pkg.Path(), err)
	}

	epoch := _epochs.observe(pass.Pkg, _cache)
	upstream := make(map[string]*summary.Summary)
	for _, f := range analysishelper.ImportedFacts[*effect.Fact](pass) {
		for name, s := range f.Summaries {
			upstream[name] = s
		}
	}
	summarizer := effect.New(effect.Options{
		Config:    conf,
		Cache:     _cache,
		Foreign:   table,
		Reflector: pkg,
		Trusted:   hook.Effect,
		Upstream: func(callee string) (*summary.Summary, bool) {
			s, ok := upstream[callee]
			return s, ok
		},
		Trace: sink,
	})

	exported := make(map[string]*summary.Summary)
	for _, f := range pkg.Funcs() {
		if f.Err != nil {
			sink.Skip(f.Name, f.Err)
			continue
		}
		sink.IR(f.IR)
		e := summarizer.Summarize(f.Name, len(f.IR.Params), 1)
		if e.Summary != nil && !e.OverBudget && isExported(f) {
			exported[f.Name] = e.Summary
		}
	}
	sink.Cache(epoch, _cache.Snapshot())

	// Export the summaries for analysis of downstream packages via the Fact mechanism. Note that we
	// should _never_ export nil maps due to gob encoding: "Nil pointers are not permitted, as
	// they have no value.".
	pass.ExportPackageFact(&effect.Fact{Summaries: exported})

	files := make(map[*token.File]bool)
	for _, f := range pass.FilesWhere(conf.IsFileInScope) {
		files[pass.Fset.File(f.Pos())] = true
	}
	funcs := selectFuncs(conf, pkg, func(f *lower.Func) bool {
		return files[pass.Fset.File(f.SSA.Pos())]
	})

	engine := diagnostic.NewEngine(pass.Pass, diagnostic.Options{
		NoLint: nolint.Res,
		Source: diagnostic.NewFileSource(),
	})
	opts := checker.Options{Summarizer: summarizer, EvalOrder: conf.EvalOrder}
	errs := make([]error, len(funcs))
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, f := range funcs {
		if f.Err != nil {
			continue
		}
		g.Go(func() error {
			vs, err := check(f, opts)
			var malformed *malformedError
			switch {
			case errors.As(err, &malformed):
				sink.Skip(f.Name, err)
			case err != nil:
				errs[i] = err
			default:
				engine.Add(f.Name, vs)
			}
			return nil
		})
	}
	_ = g.Wait()

	return append(engine.Diagnostics(), errorsToDiagnostics(errs)...), nil
}

// malformedError marks a function whose IR failed validation; such functions are skipped.
type malformedError struct{ err error }

func (e *malformedError) Error() string { return e.err.Error() }
func (e *malformedError) Unwrap() error { return e.err }

// check checks one function, converting a panic of the checker into an error.
func check(f *lower.Func, opts checker.Options) (vs []checker.Violation, err error) {
	defer analysishelper.RecoverInto(&err, "checking %s", f.Name)
	vs, err = checker.Check(f.IR, opts)
	if err != nil {
		return nil, &malformedError{err: err}
	}
	return vs, nil
}

// isExported returns true if f can be called from other packages: a non-generic package-level
// function or method with an exported name.
func isExported(f *lower.Func) bool {
	fn := f.SSA
	if fn.Parent() != nil || fn.Origin() != nil || fn.TypeParams().Len() > 0 {
		return false
	}
	obj := fn.Object()
	return obj != nil && ast.IsExported(obj.Name())
}

// errorsToDiagnostics converts the internal errors to a slice of analysis.Diagnostic to be reported.
func errorsToDiagnostics(errs []error) []analysis.Diagnostic {
	var diagnostics []analysis.Diagnostic
	for _, err := range errs {
		if err == nil {
			continue
		}
		// Diagnostics with invalid positions (<= 0) will be silently suppressed, so here we use 1.
		diagnostics = append(diagnostics, analysis.Diagnostic{Pos: 1, Message: "INTERNAL ERROR: " + err.Error()})
	}
	return diagnostics
}
