// Package directives checks the //own:unchecked regions and the //nolint suppression.
package directives

func length(xs []int) int { return len(xs) }

//own:safe
func uncheckedRegion(ch chan []int) int {
	xs := make([]int, 3)
	//own:unchecked
	ch <- xs
	return length(xs)
}

//own:safe
func uncheckedTrailing(ch chan []int) int {
	xs := make([]int, 3)
	ch <- xs //own:unchecked
	return length(xs)
}

//own:safe
func nolintLine(ch chan []int) int {
	xs := make([]int, 3)
	ch <- xs
	return length(xs) //nolint:ownaway
}

//own:safe
func nolintOtherLinter(ch chan []int) int {
	xs := make([]int, 3)
	ch <- xs
	return length(xs) //nolint:errcheck // want "`xs` used after being moved"
}

//nolint:all
//own:safe
func nolintFunc(ch chan []int) int {
	xs := make([]int, 3)
	ch <- xs
	return length(xs)
}
