// Package ownership checks the violations reported in functions annotated with //own:safe.
package ownership

import (
	"go.uber.org/ownaway/own"

	"ownership/lib"
)

func length(xs []int) int { return len(xs) }

func fill(xs []int) { xs[0] = 1 }

//own:safe
func useAfterMove() int {
	xs := make([]int, 3)
	ys := own.Move(xs)
	n := length(xs) // want "`xs` used after being moved into `ys`"
	return n + length(ys)
}

//own:safe
func moveIntoChannel(ch chan []int) int {
	xs := make([]int, 3)
	ch <- xs
	return length(xs) // want "`xs` used after being moved"
}

//own:safe
func moveInBranch(ch chan []int, b bool) int {
	xs := make([]int, 3)
	if b {
		ch <- xs
	}
	return length(xs) // want "`xs` used after being moved"
}

//own:safe
func moveAndReplace(ch chan []int) int {
	xs := make([]int, 3)
	ch <- xs
	xs = make([]int, 2)
	return length(xs)
}

//own:safe
func writeWhileBorrowed() int {
	xs := make([]int, 3)
	r := own.Borrow(xs)
	fill(xs) // want "cannot write `xs` while it is aliased by `r`"
	return len(r.Get())
}

//own:safe
func writeAfterBorrowEnds() int {
	xs := make([]int, 3)
	r := own.Borrow(xs)
	n := len(r.Get())
	fill(xs)
	return n
}

//own:safe
func writeThroughBorrow() int {
	xs := make([]int, 3)
	r := own.Borrow(xs)
	fill(r.Get())
	return len(r.Get())
}

//own:safe
func moveWhileBorrowed(ch chan []int) int {
	xs := make([]int, 3)
	r := own.Borrow(xs)
	ch <- xs            // want "cannot move `xs` while it is aliased by `r`"
	return len(r.Get()) // want "`r` used after `xs`, which it aliases, was moved"
}

//own:safe
func upstreamWrite() int {
	xs := make([]int, 3)
	r := own.Borrow(xs)
	lib.Fill(xs) // want "cannot write `xs` while it is aliased by `r`"
	return len(r.Get())
}

//own:safe
func upstreamRead() int {
	xs := make([]int, 3)
	r := own.Borrow(xs)
	n := lib.Len(xs)
	return n + len(r.Get())
}

// notAnnotated is not checked.
func notAnnotated(ch chan []int) int {
	xs := make([]int, 3)
	ch <- xs
	return length(xs)
}
