// Package callgraph checks the callgraph scope: the callees of annotated functions are checked
// as well.
package callgraph

func length(xs []int) int { return len(xs) }

//own:safe
func Entry(ch chan []int) int {
	return helper(ch)
}

func helper(ch chan []int) int {
	xs := make([]int, 3)
	ch <- xs
	return length(xs) // want "`xs` used after being moved"
}

// unreachable is not called by any annotated function.
func unreachable(ch chan []int) int {
	xs := make([]int, 3)
	ch <- xs
	return length(xs)
}
