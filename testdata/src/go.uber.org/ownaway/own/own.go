// Package own mirrors the marker package of OwnAway for the analysis tests.
package own

//go:noinline
func Move[T any](v T) T { return v }

//go:noinline
func Borrow[T any](v T) Ref[T] { return Ref[T]{v: v} }

//go:noinline
func Opaque[T any](v T) T { return v }

type Ref[T any] struct {
	v T
}

func (r Ref[T]) Get() T { return r.v }
