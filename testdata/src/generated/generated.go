// Package generated tests OwnAway's ability to ignore files with excluded docstrings.
//
// Code generated by hand for the tests. DO NOT EDIT.
package generated

//own:safe
func moveThenUse(ch chan []int) int {
	xs := make([]int, 3)
	ch <- xs
	// Using a moved value, but it is OK since this file is ignored.
	return len(xs)
}
