/*
Copyright © 2026 the IonMC authors.
This file is part of IonMC.

IonMC is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

IonMC is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with IonMC.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package parallel partitions work across a flat group of ranks and
// provides the collective primitives needed to average Monte Carlo
// estimators between them.
package parallel

// Range returns the half-open interval [lo, hi) of the n items owned by
// rank when the items are divided among nranks. The remainder is spread
// over the low ranks, so per-rank counts differ by at most one and the
// intervals are disjoint and cover [0, n).
func Range(rank, n, nranks int) (lo, hi int) {
	q := n / nranks
	r := n - q*nranks

	if rank < r {
		lo = rank * (q + 1)
		hi = lo + q + 1
	} else {
		lo = r*(q+1) + (rank-r)*q
		hi = lo + q
	}
	return lo, hi
}

// Count returns the number of items rank owns.
func Count(rank, n, nranks int) int {
	lo, hi := Range(rank, n, nranks)
	return hi - lo
}

// MaxPerRank returns ⌈n/nranks⌉, the largest number of items any single
// rank owns. Communication buffers must be sized with this rather than
// with a rank's own count, since counts differ between ranks.
func MaxPerRank(n, nranks int) int {
	return (n + nranks - 1) / nranks
}
