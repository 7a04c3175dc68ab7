// Package lib is the upstream package of ownership: the effects of its exported functions reach
// the analysis of ownership as facts.
package lib

// Fill writes into xs.
func Fill(xs []int) { xs[0] = 1 }

// Len only reads xs.
func Len(xs []int) int { return len(xs) }
