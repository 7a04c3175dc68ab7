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

// Package gclplugin registers OwnAway as a golangci-lint module plugin
// (https://golangci-lint.run/plugins/module-plugins/). The linter settings are the analyzer's
// config flags keyed by flag name, for example:
//
//	settings:
//	  scope: callgraph
//	  max-depth: 4
//	  unknown-call-policy: write
//	  include-pkgs: "example.com/svc"
//
// Scalar values are passed to the flags in their string form.
package gclplugin

import (
	"fmt"

	"github.com/golangci/plugin-module-register/register"
	"go.uber.org/ownaway"
	"go.uber.org/ownaway/config"
	"golang.org/x/tools/go/analysis"
)

func init() {
	register.Plugin("ownaway", New)
}

// New converts the linter settings into config flag values. Unknown flag names and invalid values
// are reported by BuildAnalyzers.
func New(settings any) (register.LinterPlugin, error) {
	s, ok := settings.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expect OwnAway's settings to be a map from config flag name to "+
			"value, got %T", settings)
	}
	conf := make(map[string]string, len(s))
	for k, v := range s {
		switch v.(type) {
		case string, bool, int, int64, uint64, float64:
			conf[k] = fmt.Sprint(v)
		default:
			return nil, fmt.Errorf("expect OwnAway's configuration values for %q to be strings, "+
				"numbers or booleans, got %T", k, v)
		}
	}

	return &OwnAwayPlugin{conf: conf}, nil
}

// OwnAwayPlugin holds the config flag values of one golangci-lint configuration.
type OwnAwayPlugin struct {
	conf map[string]string
}

// BuildAnalyzers sets the config flags (scope, budgets, unknown-call policy, package filters) and
// returns the root analyzer. A setting that fails config validation fails the linter startup.
func (p *OwnAwayPlugin) BuildAnalyzers() ([]*analysis.Analyzer, error) {
	for k, v := range p.conf {
		if err := config.Analyzer.Flags.Set(k, v); err != nil {
			return nil, fmt.Errorf("set config flag %s with %s: %w", k, v, err)
		}
	}

	if _, err := config.FromFlags(&config.Analyzer.Flags); err != nil {
		return nil, fmt.Errorf("validate OwnAway settings: %w", err)
	}

	return []*analysis.Analyzer{ownaway.Analyzer}, nil
}

// GetLoadMode returns register.LoadModeTypesInfo: the analysis builds SSA from type-checked syntax.
func (p *OwnAwayPlugin) GetLoadMode() string { return register.LoadModeTypesInfo }
