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


package gclplugin

import (
	"testing"

	"github.com/golangci/plugin-module-register/register"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/ownaway"
	"go.uber.org/ownaway/config"
)

func TestPlugin(t *testing.T) {
	t.Parallel()

	plugin, err := New(map[string]any{"pretty-print": "false", "max-depth": "3"})
	require.NoError(t, err)
	require.NotNil(t, plugin)

	require.Equal(t, register.LoadModeTypesInfo, plugin.GetLoadMode())
	analyzers, err := plugin.BuildAnalyzers()
	require.NoError(t, err)
	require.Equal(t, ownaway.Analyzer, analyzers[0])

	// The config flags should be set to the values passed in the settings.
	require.Equal(t, "false", config.Analyzer.Flags.Lookup(config.PrettyPrintFlag).Value.String())
	require.Equal(t, "3", config.Analyzer.Flags.Lookup(config.MaxDepthFlag).Value.String())
}

func TestPlugin_IncorrectSettingsType(t *testing.T) {
	t.Parallel()

	plugin, err := New(map[string]any{"pretty-print": "false", "roots": []string{"a", "b"}})
	require.ErrorContains(t, err, `"roots" to be strings`)
	require.Nil(t, plugin)

	plugin, err = New([]string{"pretty-print"})
	require.ErrorContains(t, err, "got []string")
	require.Nil(t, plugin)
}

func TestPlugin_ScalarSettings(t *testing.T) {
	t.Parallel()

	plugin, err := New(map[string]any{"max-depth": 4, "pretty-print": false, "scope": "callgraph"})
	require.NoError(t, err)
	require.Equal(t, map[string]string{
		"max-depth":    "4",
		"pretty-print": "false",
		"scope":        "callgraph",
	}, plugin.(*OwnAwayPlugin).conf)
}

func TestPlugin_UnknownSetting(t *testing.T) {
	t.Parallel()

	plugin, err := New(map[string]any{"invalid": "123"})
	// The settings are applied when we build the analyzers, so the error should be thrown there.
	require.NoError(t, err)
	require.NotNil(t, plugin)

	analyzers, err := plugin.BuildAnalyzers()
	require.ErrorContains(t, err, "invalid")
	require.Empty(t, analyzers)
}

func TestPlugin_InvalidSettingValue(t *testing.T) { //nolint:paralleltest
	// Not parallel: the invalid scope must not leak into the other tests.
	defer func() {
		require.NoError(t, config.Analyzer.Flags.Set(config.ScopeFlag, string(config.ScopeFunction)))
	}()

	plugin, err := New(map[string]any{"scope": "everything"})
	require.NoError(t, err)

	analyzers, err := plugin.BuildAnalyzers()
	require.ErrorIs(t, err, config.ErrInvalid)
	require.ErrorContains(t, err, `unknown scope "everything"`)
	require.Empty(t, analyzers)
}

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
