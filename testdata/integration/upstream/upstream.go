// Package upstream provides functions whose effects are only known downstream through facts.
package upstream

// Fill writes into xs.
func Fill(xs []int) {
	for i := range xs {
		xs[i] = i
	}
}

// Sum only reads xs.
func Sum(xs []int) int {
	n := 0
	for _, x := range xs {
		n += x
	}
	return n
}

// Head returns a view of the first n elements of xs.
func Head(xs []int, n int) []int { return xs[:n] }

// Send moves xs into ch.
func Send(ch chan<- []int, xs []int) { ch <- xs }

//own:safe
func sendTwice(ch chan<- []int) int {
	xs := make([]int, 4)
	Send(ch, xs)
	return Sum(xs) //want "`xs` used after being moved"
}
