// Package prettyprint is meant to check if our pretty-print flag has effect.
package prettyprint

//own:safe
func main() {
	ch := make(chan []int, 1)
	xs := make([]int, 3)
	ch <- xs
	// Ensure that the ASCII escape code is in the want strings (such that the errors are pretty
	// printed).
	print(len(xs)) //want "\u001B"
}
