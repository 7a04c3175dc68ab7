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

package effect

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/klauspost/compress/s2"
	"go.uber.org/ownaway/summary"
)

// Fact is the package fact carrying the effect summaries of a package's functions to the
// analyses of its importers, keyed by callee identity. Only precise (not over-budget) summaries
// are exported.
type Fact struct {
	Summaries map[string]*summary.Summary
}

// AFact implements analysis.Fact.
func (*Fact) AFact() {}

// String returns a deterministic, human-readable listing used by analysistest fact expectations.
func (f *Fact) String() string {
	var buf bytes.Buffer
	buf.WriteString("effects(")
	for i, name := range slices.Sorted(maps.Keys(f.Summaries)) {
		if i > 0 {
			buf.WriteString("; ")
		}
		fmt.Fprintf(&buf, "%s: %s", name, f.Summaries[name])
	}
	buf.WriteString(")")
	return buf.String()
}

// Lookup returns the summary of the named function.
func (f *Fact) Lookup(name string) (*summary.Summary, bool) {
	if f == nil {
		return nil, false
	}
	s, ok := f.Summaries[name]
	return s, ok
}

// GobEncode encodes the fact via gob encoding, compressed with s2.
func (f *Fact) GobEncode() (b []byte, err error) {
	var buf bytes.Buffer
	writer := s2.NewWriter(&buf)
	defer func() {
		if cerr := writer.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}()

	if err := gob.NewEncoder(writer).Encode(f.Summaries); err != nil {
		return nil, err
	}

	// Close the s2 writer before getting the bytes such that we have complete information.
	if err := writer.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode decodes the fact from buffer.
func (f *Fact) GobDecode(input []byte) error {
	f.Summaries = make(map[string]*summary.Summary)
	return gob.NewDecoder(s2.NewReader(bytes.NewReader(input))).Decode(&f.Summaries)
}
