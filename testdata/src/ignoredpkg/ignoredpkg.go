// Package ignoredpkg tests OwnAway's ability to ignore packages that are configured to be ignored.
package ignoredpkg

//own:safe
func moveThenUse(ch chan []int) int {
	xs := make([]int, 3)
	ch <- xs
	// Using a moved value, but it is OK since this package is ignored.
	return len(xs)
}
