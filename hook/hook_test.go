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
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/ownaway/summary"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want callee
		ok   bool
	}{
		{name: "slices.Sort", want: callee{kind: _func, enclosing: "slices", name: "Sort"}, ok: true},
		{name: "encoding/json.Unmarshal", want: callee{kind: _func, enclosing: "encoding/json", name: "Unmarshal"}, ok: true},
		{name: "gopkg.in/yaml.v3.Marshal", want: callee{kind: _func, enclosing: "gopkg.in/yaml.v3", name: "Marshal"}, ok: true},
		{name: "example.com/p.Gen[int]", want: callee{kind: _func, enclosing: "example.com/p", name: "Gen"}, ok: true},
		{name: "(*bytes.Buffer).Write", want: callee{kind: _method, enclosing: "bytes.Buffer", name: "Write"}, ok: true},
		{name: "(example.com/p.List[T]).Len", want: callee{kind: _method, enclosing: "example.com/p.List", name: "Len"}, ok: true},
		{name: "example.com/p.F$1"},
		{name: "append"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := parse(tt.name)
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestEffect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		callee string
		nargs  int
		want   *summary.Summary
	}{
		{callee: "slices.Clone", nargs: 1, want: &summary.Summary{}},
		{callee: "slices.Sort", nargs: 1, want: &summary.Summary{Writes: summary.Of(0)}},
		{callee: "slices.Insert", nargs: 3, want: &summary.Summary{Writes: summary.Of(0), RetAliases: summary.Of(0)}},
		{callee: "sort.Slice", nargs: 2, want: &summary.Summary{Writes: summary.Of(0)}},
		{callee: "(*bytes.Buffer).WriteString", nargs: 2, want: &summary.Summary{Writes: summary.Of(0)}},
		{callee: "(*bytes.Buffer).Bytes", nargs: 1, want: &summary.Summary{RetAliases: summary.Of(0)}},
		{callee: "(*bytes.Buffer).ReadFrom", nargs: 2, want: &summary.Summary{Writes: summary.Of(0, 1)}},
		{callee: "fmt.Fprintf", nargs: 3, want: &summary.Summary{Writes: summary.Of(0)}},
		{callee: "encoding/json.Unmarshal", nargs: 2, want: &summary.Summary{Writes: summary.Of(1)}},
		// Positions beyond the arity are dropped.
		{callee: "encoding/json.Unmarshal", nargs: 1, want: &summary.Summary{}},
	}
	for _, tt := range tests {
		got, ok := Effect(tt.callee, tt.nargs)
		require.True(t, ok, tt.callee)
		require.True(t, tt.want.Equal(got), "%s: got %s, want %s", tt.callee, got, tt.want)
	}

	for _, name := range []string{"slices.Frobnicate", "example.com/slices.Sort", "(*bytes.Reader).Read", "bytes.Buffer", "example.com/p.F$1"} {
		_, ok := Effect(name, 1)
		require.False(t, ok, name)
	}
}

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
