// Package downstream uses upstream functions from annotated functions.
package downstream

import (
	"go.uber.org/ownaway/own"

	"go.uber.org/ownaway/integration/upstream"
)

//own:safe
func fillWhileBorrowed() int {
	xs := make([]int, 4)
	r := own.Borrow(xs)
	upstream.Fill(xs) //want "cannot write `xs` while it is aliased by `r`"
	return len(r.Get())
}

//own:safe
func sumWhileBorrowed() int {
	xs := make([]int, 4)
	r := own.Borrow(xs)
	n := upstream.Sum(xs)
	return n + len(r.Get())
}

//own:safe
func fillThroughHead() int {
	xs := make([]int, 4)
	h := upstream.Head(xs, 2)
	upstream.Fill(xs) //want "cannot write `xs` while it is aliased by `h`"
	return upstream.Sum(h)
}

//own:safe
func sendThenSum(ch chan<- []int) int {
	xs := make([]int, 4)
	upstream.Send(ch, xs)
	return upstream.Sum(xs) //want "`xs` used after being moved"
}

//own:safe
func moveWhileBorrowed() int {
	xs := make([]int, 4)
	r := own.Borrow(xs)
	ys := own.Move(xs)            //want "cannot move `xs` while it is aliased by `r`"
	return len(r.Get()) + len(ys) //want "`r` used after `xs`, which it aliases, was moved"
}

func notAnnotated(ch chan<- []int) int {
	xs := make([]int, 4)
	upstream.Send(ch, xs)
	return upstream.Sum(xs)
}
