package combo

import (
	"iter"
	"math"
)

// Indices yields index vectors over groups of the given sizes.
//
// Each vector has len(sizes) entries with v[i] in [0, sizes[i]). With no
// sizes it yields one empty vector. If any size is zero or negative it
// yields nothing.
//
// Every yielded vector is a fresh copy owned by the caller.
func Indices(sizes []int) iter.Seq[[]int] {
	return func(yield func([]int) bool) {
		for _, n := range sizes {
			if n <= 0 {
				return
			}
		}

		idx := make([]int, len(sizes))
		for {
			out := make([]int, len(idx))
			copy(out, idx)
			if !yield(out) {
				return
			}

			// Odometer step: the last position moves fastest, the head slowest.
			pos := len(idx) - 1
			for ; pos >= 0; pos-- {
				idx[pos]++
				if idx[pos] < sizes[pos] {
					break
				}
				idx[pos] = 0
			}
			if pos < 0 {
				return
			}
		}
	}
}

// Product yields the Cartesian product of groups, one element per group,
// in head-list-major order.
func Product[E any](groups [][]E) iter.Seq[[]E] {
	return func(yield func([]E) bool) {
		for idx := range Indices(Sizes(groups)) {
			if !yield(Pick(groups, idx)) {
				return
			}
		}
	}
}

// Pick selects groups[i][idx[i]] for every group.
// idx must come from Indices over Sizes(groups).
func Pick[E any](groups [][]E, idx []int) []E {
	out := make([]E, len(groups))
	for i, g := range groups {
		out[i] = g[idx[i]]
	}
	return out
}

// Sizes returns the length of every group.
func Sizes[E any](groups [][]E) []int {
	sizes := make([]int, len(groups))
	for i, g := range groups {
		sizes[i] = len(g)
	}
	return sizes
}

// Count returns the number of combinations Indices(sizes) yields.
// The result saturates at math.MaxInt instead of overflowing.
func Count(sizes []int) int {
	total := 1
	for _, n := range sizes {
		if n <= 0 {
			return 0
		}
		if total > math.MaxInt/n {
			total = math.MaxInt
			continue
		}
		total *= n
	}
	return total
}
