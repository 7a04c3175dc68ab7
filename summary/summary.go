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

// Package summary hosts effect summaries: for a callable (or a primitive statement), which
// argument positions are written in place, which are consumed (ownership moved away from the
// caller), and which the returned value may alias.
package summary

import (
	"fmt"
	"slices"
	"strings"
)

// Positions is a sorted set of 0-based argument positions.
type Positions []int

// Has returns true if position i is in the set.
func (p Positions) Has(i int) bool {
	_, found := slices.BinarySearch(p, i)
	return found
}

// With returns a set that additionally holds i.
func (p Positions) With(i int) Positions {
	at, found := slices.BinarySearch(p, i)
	if found {
		return p
	}
	return slices.Insert(slices.Clone(p), at, i)
}

// Without returns a set that does not hold i.
func (p Positions) Without(i int) Positions {
	at, found := slices.BinarySearch(p, i)
	if !found {
		return p
	}
	return slices.Delete(slices.Clone(p), at, at+1)
}

// Union returns the union of p and o.
func (p Positions) Union(o Positions) Positions {
	out := p
	for _, i := range o {
		out = out.With(i)
	}
	return out
}

// Range returns the positions 0, 1, ..., n-1.
func Range(n int) Positions {
	p := make(Positions, n)
	for i := range p {
		p[i] = i
	}
	return p
}

// Of returns the set holding the given positions.
func Of(ps ...int) Positions {
	var out Positions
	for _, i := range ps {
		out = out.With(i)
	}
	return out
}

// Summary is the effect summary of one callable or statement.
type Summary struct {
	// Writes lists argument positions possibly mutated in place.
	Writes Positions
	// Consumes lists argument positions whose ownership may be taken.
	Consumes Positions
	// RetAliases lists argument positions the return value may alias.
	RetAliases Positions
}

// Empty is the summary of an operation without memory effects.
var Empty = &Summary{}

// IsEmpty returns true if the summary has no effect at all.
func (s *Summary) IsEmpty() bool {
	return len(s.Writes) == 0 && len(s.Consumes) == 0 && len(s.RetAliases) == 0
}

// Clone returns a deep copy of s.
func (s *Summary) Clone() *Summary {
	return &Summary{
		Writes:     slices.Clone(s.Writes),
		Consumes:   slices.Clone(s.Consumes),
		RetAliases: slices.Clone(s.RetAliases),
	}
}

// Equal returns true if both summaries list the same positions.
func (s *Summary) Equal(o *Summary) bool {
	if s == nil || o == nil {
		return s == o
	}
	return slices.Equal(s.Writes, o.Writes) &&
		slices.Equal(s.Consumes, o.Consumes) &&
		slices.Equal(s.RetAliases, o.RetAliases)
}

// String returns a compact representation such as "writes=[0] consumes=[] ret=[0 1]".
func (s *Summary) String() string {
	if s == nil {
		return "unknown"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "writes=%v consumes=%v ret=%v", []int(s.Writes), []int(s.Consumes), []int(s.RetAliases))
	return sb.String()
}

// Policy is the effect assumed for calls that cannot be summarized.
type Policy uint8

const (
	// PolicyConsume treats every tracked argument as consumed (and written), the conservative
	// default: an unknown function could squirrel a reference away anywhere.
	PolicyConsume Policy = iota
	// PolicyWrite treats every tracked argument as written but never consumed.
	PolicyWrite
	// PolicyIgnore assumes unknown calls have no effect besides aliasing their result.
	PolicyIgnore
)

// String returns the flag spelling of the policy.
func (p Policy) String() string {
	switch p {
	case PolicyConsume:
		return "consume"
	case PolicyWrite:
		return "write"
	case PolicyIgnore:
		return "ignore"
	default:
		return fmt.Sprintf("Policy(%d)", uint8(p))
	}
}

// ParsePolicy parses the flag spelling of a policy.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "consume":
		return PolicyConsume, nil
	case "write":
		return PolicyWrite, nil
	case "ignore":
		return PolicyIgnore, nil
	default:
		return 0, fmt.Errorf("unknown call policy %q (want consume, write or ignore)", s)
	}
}

// Unknown returns the fallback summary of an unknown call with nargs arguments under policy p.
// The result may alias every argument regardless of the policy.
func Unknown(nargs int, p Policy) *Summary {
	all := Range(nargs)
	switch p {
	case PolicyConsume:
		return &Summary{Writes: all, Consumes: slices.Clone(all), RetAliases: slices.Clone(all)}
	case PolicyWrite:
		return &Summary{Writes: all, RetAliases: slices.Clone(all)}
	default:
		return &Summary{RetAliases: all}
	}
}
