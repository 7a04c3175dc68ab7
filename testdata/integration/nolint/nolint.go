// Package nolint checks that suppressed violations are not reported by any driver.
package nolint

import "go.uber.org/ownaway/integration/upstream"

//own:safe
func suppressedLine(ch chan<- []int) int {
	xs := make([]int, 4)
	upstream.Send(ch, xs)
	return upstream.Sum(xs) //nolint:ownaway
}

//own:safe
func otherLinter(ch chan<- []int) int {
	xs := make([]int, 4)
	upstream.Send(ch, xs)
	return upstream.Sum(xs) //nolint:errcheck //want "`xs` used after being moved"
}

//nolint:ownaway
//own:safe
func suppressedFunc(ch chan<- []int) int {
	xs := make([]int, 4)
	upstream.Send(ch, xs)
	return upstream.Sum(xs)
}
