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

// Package own provides the markers user code calls to make ownership explicit to OwnAway. They
// are identities at run time; the analyzer recognizes calls to them by name.
//
//	//own:safe
//	func build() []int {
//		buf := make([]int, 0, 8)
//		r := own.Borrow(buf)
//		fill(r.Get())
//		return own.Move(buf)
//	}
package own

// Move transfers ownership of v to the result. Any use of v (or of an alias of its storage) after
// the call is reported.
//
//go:noinline
func Move[T any](v T) T { return v }

// Borrow rebinds v under a new non-owning name. While the borrow is live, v may not be written or
// moved.
//
//go:noinline
func Borrow[T any](v T) Ref[T] { return Ref[T]{v: v} }

// Opaque hides the provenance of v from summarization: the result aliases v but starts a new
// binding.
//
//go:noinline
func Opaque[T any](v T) T { return v }

// Ref is a borrowed, non-owning reference. Values of type Ref can be written through but never
// moved.
type Ref[T any] struct {
	v T
}

// Get returns the borrowed value.
func (r Ref[T]) Get() T { return r.v }
