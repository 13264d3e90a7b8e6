// Package combo enumerates combinations drawn from ordered choice groups.
//
// Given groups [[A1, A2], [B1], [C1, C2]], Product yields every selection of
// one element per group:
//
//	[A1 B1 C1] [A1 B1 C2] [A2 B1 C1] [A2 B1 C2]
//
// Enumeration is head-list-major: the element of the first group is fixed
// while the remaining groups are enumerated, so output order is
// lexicographic over the input group order.
//
// Sequences are lazy. Only the current index vector is held in memory, so the
// number of groups and the size of the product are bounded by the caller's
// patience rather than by allocation. A sequence restarts from the first
// combination each time it is ranged over; it cannot be resumed mid-way.
package combo
